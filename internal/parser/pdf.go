package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"chatquery/internal/models"
	"chatquery/internal/util"
)

// parsePDF extracts per-page text and emits one message per substantial line.
// The paragraph index is per-page and resets on each page boundary.
func parsePDF(path string) (msgs []models.Message, err error) {
	// The pdf package panics on some malformed files; recover so the
	// ingestion boundary sees an ordinary parse failure.
	defer func() {
		if r := recover(); r != nil {
			msgs = nil
			err = fmt.Errorf("pdf extraction panic: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	now := time.Now()
	for pageNum := 1; pageNum <= r.NumPage(); pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		paraID := 0
		for _, line := range strings.Split(text, "\n") {
			line = strings.TrimSpace(line)
			if len(line) <= minParagraphLen {
				continue
			}
			msgs = append(msgs, models.Message{
				SourceKind: models.SourcePDFParagraph,
				Sender:     fmt.Sprintf("PDF_Page_%d", pageNum),
				Text:       line,
				Timestamp:  now,
				Locator:    models.Locator{Page: pageNum, ParagraphID: paraID},
			})
			paraID++
		}
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("pdf %s: %w", path, util.ErrNoExtractableText)
	}
	return msgs, nil
}
