package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"chatquery/internal/models"
)

const docxBody = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>This is a substantial body paragraph.</w:t></w:r></w:p>
    <w:p><w:r><w:t>tiny</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Quarter</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>Revenue total</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`

func writeTestDocx(t *testing.T, documentXML string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "report.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestParseDOCXParagraphsAndTables(t *testing.T) {
	path := writeTestDocx(t, docxBody)
	msgs, err := Parse(path)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	require.Equal(t, models.SourceDocxPara, msgs[0].SourceKind)
	require.Equal(t, "Document", msgs[0].Sender)
	require.Equal(t, "This is a substantial body paragraph.", msgs[0].Text)
	require.Equal(t, 0, msgs[0].Locator.ParagraphID)

	require.Equal(t, models.SourceDocxTableRow, msgs[1].SourceKind)
	require.Equal(t, "Table_1", msgs[1].Sender)
	require.Equal(t, "Quarter | Revenue total", msgs[1].Text)
	require.Equal(t, 1, msgs[1].Locator.TableID)
	require.Equal(t, 1, msgs[1].Locator.RowID)
}

func TestParseDOCXCorruptArchiveYieldsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o644))
	msgs, err := Parse(path)
	require.NoError(t, err)
	require.Empty(t, msgs)
}
