package parser

import (
	"strings"
	"time"

	"chatquery/internal/models"
)

// minParagraphLen filters out page furniture and stray fragments. Applies to
// plain-text, PDF and DOCX extraction alike.
const minParagraphLen = 10

// parsePlainText splits content on blank-line-delimited paragraphs and keeps
// the substantial ones. Non-chat sources get "time of processing" timestamps.
func parsePlainText(content string) []models.Message {
	var msgs []models.Message
	now := time.Now()
	idx := 0
	for _, para := range strings.Split(content, "\n\n") {
		text := Clean(para)
		if len(text) <= minParagraphLen {
			continue
		}
		msgs = append(msgs, models.Message{
			SourceKind: models.SourcePlainPara,
			Sender:     "Document",
			Text:       text,
			Timestamp:  now,
			Locator:    models.Locator{ParagraphID: idx},
		})
		idx++
	}
	return msgs
}
