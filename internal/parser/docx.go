package parser

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"chatquery/internal/models"
	"chatquery/internal/util"
)

// parseDOCX reads word/document.xml out of the DOCX zip archive and emits body
// paragraphs followed by table rows as separate message streams.
func parseDOCX(path string) ([]models.Message, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open docx: %w", err)
	}
	defer reader.Close()

	var raw []byte
	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return nil, fmt.Errorf("open document.xml: %w", err)
		}
		raw, err = io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read document.xml: %w", err)
		}
		break
	}
	if raw == nil {
		return nil, fmt.Errorf("docx %s: %w", path, util.ErrNoExtractableText)
	}

	var doc documentXML
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document.xml: %w", err)
	}

	now := time.Now()
	var msgs []models.Message
	for paraID, para := range doc.Body.Paragraphs {
		text := strings.TrimSpace(para.text())
		if len(text) <= minParagraphLen {
			continue
		}
		msgs = append(msgs, models.Message{
			SourceKind: models.SourceDocxPara,
			Sender:     "Document",
			Text:       text,
			Timestamp:  now,
			Locator:    models.Locator{ParagraphID: paraID},
		})
	}
	for tableNum, table := range doc.Body.Tables {
		for rowNum, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				if text := strings.TrimSpace(cell.text()); text != "" {
					cells = append(cells, text)
				}
			}
			text := strings.Join(cells, " | ")
			if len(text) <= minParagraphLen {
				continue
			}
			msgs = append(msgs, models.Message{
				SourceKind: models.SourceDocxTableRow,
				Sender:     fmt.Sprintf("Table_%d", tableNum+1),
				Text:       text,
				Timestamp:  now,
				Locator:    models.Locator{TableID: tableNum + 1, RowID: rowNum + 1},
			})
		}
	}
	if len(msgs) == 0 {
		return nil, fmt.Errorf("docx %s: %w", path, util.ErrNoExtractableText)
	}
	return msgs, nil
}

// documentXML models the subset of word/document.xml this parser needs.
type documentXML struct {
	Body struct {
		Paragraphs []paragraphXML `xml:"p"`
		Tables     []tableXML     `xml:"tbl"`
	} `xml:"body"`
}

type paragraphXML struct {
	Runs []struct {
		Text []struct {
			Content string `xml:",chardata"`
		} `xml:"t"`
	} `xml:"r"`
}

func (p paragraphXML) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

type tableXML struct {
	Rows []struct {
		Cells []cellXML `xml:"tc"`
	} `xml:"tr"`
}

type cellXML struct {
	Paragraphs []paragraphXML `xml:"p"`
}

func (c cellXML) text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		if t := strings.TrimSpace(p.text()); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
