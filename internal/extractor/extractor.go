package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BerylCAtieno/trial-protocol-analyzer/internal/models"
)

// ErrUnsupportedFormat means a document's bytes could not be interpreted as
// text for its declared type.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// ClassifyFile maps a file name to its declared type by extension.
func ClassifyFile(filename string) models.FileType {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return models.FileTypePDF
	case ".xls", ".xlsx":
		return models.FileTypeExcel
	case ".doc", ".docx":
		return models.FileTypeWord
	default:
		return models.FileTypeUnknown
	}
}

// ExtractText returns the plain text of a document. An empty string is a
// valid result. Unknown types are read as plain text when they look like
// text and yield "" otherwise.
func ExtractText(data []byte, filename string, fileType models.FileType) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	switch fileType {
	case models.FileTypePDF:
		return ExtractPDF(data)
	case models.FileTypeWord:
		if ext == ".doc" {
			return "", fmt.Errorf("%w: legacy .doc files are not supported, save as .docx", ErrUnsupportedFormat)
		}
		return ExtractDOCX(data)
	case models.FileTypeExcel:
		if ext == ".xls" {
			return "", fmt.Errorf("%w: legacy .xls files are not supported, save as .xlsx", ErrUnsupportedFormat)
		}
		return ExtractXLSX(data)
	default:
		if len(data) == 0 || ValidateTXT(data) != nil {
			return "", nil
		}
		return ExtractTXT(data)
	}
}

// ContentTypeFor returns the MIME type stored alongside a document blob.
func ContentTypeFor(fileType models.FileType, filename string) string {
	switch fileType {
	case models.FileTypePDF:
		return "application/pdf"
	case models.FileTypeWord:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case models.FileTypeExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if strings.EqualFold(filepath.Ext(filename), ".txt") {
		return "text/plain"
	}
	return "application/octet-stream"
}
