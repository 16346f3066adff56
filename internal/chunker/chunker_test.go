package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"chatquery/internal/models"
)

func chatMsg(sender, text string) models.Message {
	return models.Message{SourceKind: models.SourceChatLine, Sender: sender, Text: text}
}

func TestChunkTwoMessagesFitOneChunk(t *testing.T) {
	msgs := []models.Message{chatMsg("Alice", "Hello"), chatMsg("Bob", "Hi there")}
	chunks := Chunk(msgs, 512)
	require.Len(t, chunks, 1)
	require.Equal(t, "[Alice]: Hello [Bob]: Hi there", chunks[0].Content)
	require.Equal(t, "Bob", chunks[0].Metadata.Sender)
}

func TestChunkFlushesAtThreshold(t *testing.T) {
	msgs := []models.Message{
		chatMsg("Alice", strings.Repeat("a", 30)),
		chatMsg("Bob", strings.Repeat("b", 30)),
		chatMsg("Carol", strings.Repeat("c", 30)),
	}
	chunks := Chunk(msgs, 80)
	require.Len(t, chunks, 2)
	for _, c := range chunks {
		require.NotEmpty(t, c.Content)
	}
	// Order is preserved across chunk boundaries.
	joined := chunks[0].Content + " " + chunks[1].Content
	require.True(t, strings.Index(joined, "[Alice]") < strings.Index(joined, "[Bob]"))
	require.True(t, strings.Index(joined, "[Bob]") < strings.Index(joined, "[Carol]"))
}

func TestChunkMultiMessageChunksRespectThreshold(t *testing.T) {
	var msgs []models.Message
	for i := 0; i < 40; i++ {
		msgs = append(msgs, chatMsg("U", strings.Repeat("x", 20)))
	}
	for _, c := range Chunk(msgs, 128) {
		if strings.Count(c.Content, "[U]:") > 1 {
			require.LessOrEqual(t, len(c.Content), 128)
		}
	}
}

func TestChunkOversizedSingleMessage(t *testing.T) {
	long := strings.Repeat("z", 600)
	chunks := Chunk([]models.Message{chatMsg("Alice", long)}, 512)
	require.Len(t, chunks, 1)
	require.Contains(t, chunks[0].Content, long)
}

func TestChunkEmptyInput(t *testing.T) {
	require.Empty(t, Chunk(nil, 512))
}

func TestFormatAttributionBySourceKind(t *testing.T) {
	pdfMsg := models.Message{
		SourceKind: models.SourcePDFParagraph,
		Sender:     "PDF_Page_3",
		Text:       "body",
		Locator:    models.Locator{Page: 3, ParagraphID: 1},
	}
	require.Equal(t, "[Page 3]: body", Format(pdfMsg))

	rowMsg := models.Message{
		SourceKind: models.SourceDocxTableRow,
		Text:       "a | b",
		Locator:    models.Locator{TableID: 2, RowID: 4},
	}
	require.Equal(t, "[Table 2 Row 4]: a | b", Format(rowMsg))

	paraMsg := models.Message{
		SourceKind: models.SourceDocxPara,
		Text:       "body",
		Locator:    models.Locator{ParagraphID: 7},
	}
	require.Equal(t, "[Paragraph 7]: body", Format(paraMsg))
}
