package extractor

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

type wordDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    wordBody `xml:"body"`
}

type wordBody struct {
	Paragraphs []wordParagraph `xml:"p"`
	Tables     []wordTable     `xml:"tbl"`
}

type wordParagraph struct {
	Runs []wordRun `xml:"r"`
}

type wordRun struct {
	Text string `xml:"t"`
}

type wordTable struct {
	Rows []struct {
		Cells []struct {
			Paragraphs []wordParagraph `xml:"p"`
		} `xml:"tc"`
	} `xml:"tr"`
}

func (p wordParagraph) text() string {
	var b strings.Builder
	for _, run := range p.Runs {
		b.WriteString(run.Text)
	}
	return b.String()
}

// ExtractDOCX reads paragraph and table text from word/document.xml.
// Table rows become one line each with cells separated by spaces.
func ExtractDOCX(data []byte) (string, error) {
	zipReader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to read DOCX as ZIP: %v", ErrUnsupportedFormat, err)
	}

	var documentFile *zip.File
	for _, file := range zipReader.File {
		if strings.ReplaceAll(file.Name, "\\", "/") == "word/document.xml" {
			documentFile = file
			break
		}
	}
	if documentFile == nil {
		return "", fmt.Errorf("%w: document.xml not found in DOCX", ErrUnsupportedFormat)
	}

	xmlFile, err := documentFile.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer xmlFile.Close()

	xmlData, err := io.ReadAll(xmlFile)
	if err != nil {
		return "", fmt.Errorf("failed to read document.xml: %w", err)
	}

	var doc wordDocument
	if err := xml.Unmarshal(xmlData, &doc); err != nil {
		return "", fmt.Errorf("%w: failed to parse document.xml: %v", ErrUnsupportedFormat, err)
	}

	var textBuilder strings.Builder
	for _, para := range doc.Body.Paragraphs {
		textBuilder.WriteString(para.text())
		textBuilder.WriteString("\n")
	}
	for _, table := range doc.Body.Tables {
		for _, row := range table.Rows {
			cells := make([]string, 0, len(row.Cells))
			for _, cell := range row.Cells {
				for _, para := range cell.Paragraphs {
					if t := strings.TrimSpace(para.text()); t != "" {
						cells = append(cells, t)
					}
				}
			}
			textBuilder.WriteString(strings.Join(cells, " "))
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
