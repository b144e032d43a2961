package models

import (
	"time"
)

type FileType string

const (
	FileTypePDF     FileType = "pdf"
	FileTypeExcel   FileType = "excel"
	FileTypeWord    FileType = "word"
	FileTypeUnknown FileType = "unknown"
)

// RawDocument is one uploaded document after text extraction.
type RawDocument struct {
	Name         string   `json:"name"`
	ByteSize     int64    `json:"byte_size"`
	DeclaredType FileType `json:"declared_type"`
	Text         string   `json:"-"`
}

// Document is the archived form of a RawDocument.
type Document struct {
	ID            string    `json:"id" db:"id"`
	AnalysisID    string    `json:"analysis_id" db:"analysis_id"`
	Position      int       `json:"position" db:"position"`
	Filename      string    `json:"filename" db:"filename"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	FileType      FileType  `json:"file_type" db:"file_type"`
	ContentType   string    `json:"content_type" db:"content_type"`
	S3Key         string    `json:"s3_key" db:"s3_key"`
	ExtractedText string    `json:"extracted_text,omitempty" db:"extracted_text"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

func (d *Document) Raw() RawDocument {
	return RawDocument{
		Name:         d.Filename,
		ByteSize:     d.FileSize,
		DeclaredType: d.FileType,
		Text:         d.ExtractedText,
	}
}

// Analysis is an archived aggregate together with its bookkeeping columns.
type Analysis struct {
	ID            string                       `json:"id" db:"id"`
	DocumentCount int                          `json:"document_count" db:"document_count"`
	Result        *MultiDocumentAnalysisResult `json:"result" db:"-"`
	CreatedAt     time.Time                    `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time                    `json:"updated_at" db:"updated_at"`
}

type UploadRequest struct {
	File        []byte
	Filename    string
	ContentType string
}

type AnalysisResponse struct {
	ID        string                       `json:"id"`
	Result    *MultiDocumentAnalysisResult `json:"result"`
	CreatedAt time.Time                    `json:"created_at"`
	UpdatedAt time.Time                    `json:"updated_at"`
	Message   string                       `json:"message,omitempty"`
}

type TextAnalysisRequest struct {
	Text string `json:"text" validate:"required"`
}
