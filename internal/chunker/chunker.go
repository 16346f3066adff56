// Package chunker packs parsed messages into bounded-size text chunks for
// embedding and retrieval.
package chunker

import (
	"fmt"
	"strings"

	"chatquery/internal/models"
)

// DefaultThreshold is the target chunk size in characters.
const DefaultThreshold = 512

// Chunk greedily packs messages into chunks in arrival order. Each message is
// formatted with an attribution prefix and appended space-separated to the
// current chunk; when the next message would push the chunk past threshold the
// chunk is flushed and a new one starts. A single message longer than the
// threshold becomes its own oversized chunk; messages are never split.
// Chunk metadata is bound to the last contributing message.
func Chunk(msgs []models.Message, threshold int) []models.Chunk {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	var chunks []models.Chunk
	var current strings.Builder
	var lastMeta models.ChunkMetadata
	for _, m := range msgs {
		formatted := Format(m)
		if current.Len() > 0 && current.Len()+1+len(formatted) > threshold {
			chunks = append(chunks, models.Chunk{
				Content:  strings.TrimSpace(current.String()),
				Metadata: lastMeta,
			})
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(formatted)
		lastMeta = metadataFor(m)
	}
	if current.Len() > 0 {
		chunks = append(chunks, models.Chunk{
			Content:  strings.TrimSpace(current.String()),
			Metadata: lastMeta,
		})
	}
	return chunks
}

// Format renders a message as an attributed line. The attribution varies by
// source kind so retrieved context keeps its provenance readable.
func Format(m models.Message) string {
	switch m.SourceKind {
	case models.SourcePDFParagraph:
		return fmt.Sprintf("[Page %d]: %s", m.Locator.Page, m.Text)
	case models.SourceDocxTableRow:
		return fmt.Sprintf("[Table %d Row %d]: %s", m.Locator.TableID, m.Locator.RowID, m.Text)
	case models.SourceDocxPara:
		return fmt.Sprintf("[Paragraph %d]: %s", m.Locator.ParagraphID, m.Text)
	default:
		return fmt.Sprintf("[%s]: %s", m.Sender, m.Text)
	}
}

func metadataFor(m models.Message) models.ChunkMetadata {
	return models.ChunkMetadata{
		SourceKind:  m.SourceKind,
		Sender:      m.Sender,
		Timestamp:   m.Timestamp,
		Page:        m.Locator.Page,
		ParagraphID: m.Locator.ParagraphID,
		TableID:     m.Locator.TableID,
		RowID:       m.Locator.RowID,
	}
}
