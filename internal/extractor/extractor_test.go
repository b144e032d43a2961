package extractor

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

func buildDOCX(t *testing.T, documentXML string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(documentXML))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestClassifyFile(t *testing.T) {
	tests := []struct {
		name string
		want models.FileType
	}{
		{"protocol.pdf", models.FileTypePDF},
		{"PROTOCOL.PDF", models.FileTypePDF},
		{"budget.xlsx", models.FileTypeExcel},
		{"budget.xls", models.FileTypeExcel},
		{"synopsis.docx", models.FileTypeWord},
		{"synopsis.doc", models.FileTypeWord},
		{"notes.txt", models.FileTypeUnknown},
		{"no-extension", models.FileTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyFile(tt.name))
		})
	}
}

func TestExtractDOCX(t *testing.T) {
	data := buildDOCX(t, `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Store IMP at 2-8°C.</w:t></w:r></w:p>
    <w:p><w:r><w:t>Site 003 </w:t></w:r><w:r><w:t>biopsy at week 4</w:t></w:r></w:p>
    <w:tbl>
      <w:tr>
        <w:tc><w:p><w:r><w:t>Site 001</w:t></w:r></w:p></w:tc>
        <w:tc><w:p><w:r><w:t>enrolled 12 of 40</w:t></w:r></w:p></w:tc>
      </w:tr>
    </w:tbl>
  </w:body>
</w:document>`)

	text, err := ExtractDOCX(data)
	require.NoError(t, err)
	assert.Contains(t, text, "Store IMP at 2-8°C.")
	assert.Contains(t, text, "Site 003 biopsy at week 4")
	assert.Contains(t, text, "Site 001 enrolled 12 of 40")
}

func TestExtractDOCXRejectsNonZip(t *testing.T) {
	_, err := ExtractDOCX([]byte("plain text pretending to be docx"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractDOCXMissingDocumentXML(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	_, err := zw.Create("word/styles.xml")
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	_, err = ExtractDOCX(buf.Bytes())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractXLSX(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Site 002"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "Drug B"))
	require.NoError(t, f.SetCellValue("Sheet1", "C1", "inventory 12"))
	require.NoError(t, f.SetCellValue("Sheet1", "D1", "reorder point 40"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := ExtractXLSX(buf.Bytes())
	require.NoError(t, err)
	assert.Contains(t, text, "Sheet: Sheet1")
	assert.Contains(t, text, "Site 002 Drug B inventory 12 reorder point 40")
}

func TestExtractXLSXCorruptSheet(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Site 002"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, entry := range zr.File {
		w, err := zw.Create(entry.Name)
		require.NoError(t, err)
		if entry.Name == "xl/worksheets/sheet1.xml" {
			_, err = w.Write([]byte(`<worksheet><sheetData><row r="1"><c r="A1" t="inlineStr"><is><t>Site`))
			require.NoError(t, err)
			continue
		}
		rc, err := entry.Open()
		require.NoError(t, err)
		_, err = io.Copy(w, rc)
		rc.Close()
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	_, err = ExtractXLSX(out.Bytes())
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractXLSXRejectsGarbage(t *testing.T) {
	_, err := ExtractXLSX([]byte{0x00, 0x01, 0x02})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractPDFRejectsGarbage(t *testing.T) {
	_, err := ExtractPDF([]byte("not a pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestExtractTextDispatch(t *testing.T) {
	t.Run("legacy word", func(t *testing.T) {
		_, err := ExtractText([]byte{0xD0, 0xCF}, "old.doc", models.FileTypeWord)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("legacy excel", func(t *testing.T) {
		_, err := ExtractText([]byte{0xD0, 0xCF}, "old.xls", models.FileTypeExcel)
		assert.ErrorIs(t, err, ErrUnsupportedFormat)
	})

	t.Run("unknown text file", func(t *testing.T) {
		text, err := ExtractText([]byte("Site 7 supply delay\r\n\r\nurgent"), "memo.txt", models.FileTypeUnknown)
		require.NoError(t, err)
		assert.Equal(t, "Site 7 supply delay\nurgent", text)
	})

	t.Run("unknown binary degrades to empty", func(t *testing.T) {
		text, err := ExtractText([]byte{0x00, 0x01, 0x02, 0x03, 0x04}, "blob.bin", models.FileTypeUnknown)
		require.NoError(t, err)
		assert.Empty(t, text)
	})
}

func TestExtractTXTEncodings(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("week 12")...), "week 12"},
		{"utf16 le", []byte{0xFF, 0xFE, 'o', 0x00, 'k', 0x00}, "ok"},
		{"windows-1252", []byte{'2', '-', '8', 0xB0, 'C'}, "2-8°C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, err := ExtractTXT(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestValidateTXT(t *testing.T) {
	assert.NoError(t, ValidateTXT([]byte("Visit schedule: screening, baseline, week 4")))
	assert.NoError(t, ValidateTXT([]byte("Température 2-8 °C")))
	assert.Error(t, ValidateTXT([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}))
	assert.Error(t, ValidateTXT(nil))
}
