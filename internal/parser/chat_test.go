package parser

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chatquery/internal/models"
)

func TestParseChatBasic(t *testing.T) {
	content := "[01/02/2024, 10:00:00] Alice: Hello\n[01/02/2024, 10:00:05] Bob: Hi there"
	msgs := ParseChat(content)
	require.Len(t, msgs, 2)
	require.Equal(t, "Alice", msgs[0].Sender)
	require.Equal(t, "Hello", msgs[0].Text)
	require.Equal(t, models.SourceChatLine, msgs[0].SourceKind)
	want := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	require.Equal(t, want, msgs[0].Timestamp)
	require.Equal(t, "Bob", msgs[1].Sender)
	require.Equal(t, "Hi there", msgs[1].Text)
}

func TestParseChatContinuationLine(t *testing.T) {
	content := "[01/02/2024, 10:00:00] Alice: first line\nsecond line of the same message"
	msgs := ParseChat(content)
	require.Len(t, msgs, 1)
	require.Equal(t, "first line second line of the same message", msgs[0].Text)
}

func TestParseChatSystemLine(t *testing.T) {
	content := "Messages and calls are end-to-end encrypted.\n[01/02/2024, 10:00:00] Alice: hi there"
	msgs := ParseChat(content)
	require.Len(t, msgs, 2)
	require.Equal(t, models.SourceSystem, msgs[0].SourceKind)
	require.Equal(t, "system", msgs[0].Sender)
}

func TestParseChatSkipsInvalidTimestamp(t *testing.T) {
	content := "[31/02/2024, 10:00:00] Alice: impossible date"
	msgs := ParseChat(content)
	require.Empty(t, msgs)
}

func TestParseChatDropsMediaMessages(t *testing.T) {
	content := "[01/02/2024, 10:00:00] Alice: <Media omitted>"
	msgs := ParseChat(content)
	require.Empty(t, msgs)
}

func TestParseTextFallsBackToParagraphs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	content := "This is the first substantial paragraph of a document.\n\nshort\n\nAnd here is the second paragraph with enough text."
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	msgs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, models.SourcePlainPara, msgs[0].SourceKind)
	require.Equal(t, "Document", msgs[0].Sender)
	require.Equal(t, 0, msgs[0].Locator.ParagraphID)
	require.Equal(t, 1, msgs[1].Locator.ParagraphID)
}

func TestParseRejectsUnsupportedExtension(t *testing.T) {
	_, err := Parse("export.csv")
	require.Error(t, err)
}

func TestParseUnreadableFileYieldsEmpty(t *testing.T) {
	msgs, err := Parse(filepath.Join(t.TempDir(), "missing.txt"))
	require.NoError(t, err)
	require.Empty(t, msgs)
}

func TestChatStats(t *testing.T) {
	msgs := ParseChat("[01/02/2024, 10:00:00] Alice: Hello\n[01/02/2024, 10:00:05] Bob: Hi\n[02/02/2024, 09:00:00] Alice: Bye")
	stats := ChatStats(msgs)
	require.Equal(t, 3, stats.TotalMessages)
	require.Equal(t, 2, stats.UniqueSenders)
	require.Equal(t, []string{"Alice", "Bob"}, stats.Senders)
	require.True(t, stats.End.After(stats.Start))
}
