package parser

import (
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// mediaPlaceholders are export artifacts for attachments. A body containing
// one of these (case-insensitive) carries no queryable content and is dropped.
var mediaPlaceholders = []string{
	"<media omitted>",
	"image omitted",
	"video omitted",
	"audio omitted",
	"document omitted",
	"location omitted",
}

// Clean collapses whitespace runs to a single space and trims. Media
// placeholder bodies clean to the empty string, which drops the message.
// Clean is idempotent.
func Clean(body string) string {
	cleaned := strings.TrimSpace(body)
	lower := strings.ToLower(cleaned)
	for _, placeholder := range mediaPlaceholders {
		if strings.Contains(lower, placeholder) {
			return ""
		}
	}
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(cleaned, " "))
}
