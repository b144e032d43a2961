package extractor

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

func ExtractTXT(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	text, err := decodeText(data)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode text file: %v", ErrUnsupportedFormat, err)
	}

	return cleanText(text), nil
}

func decodeText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}):
		return string(data[3:]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder(), data)
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder(), data)
	case utf8.Valid(data):
		return string(data), nil
	}

	if text, err := decodeWith(charmap.Windows1252.NewDecoder(), data); err == nil {
		return text, nil
	}
	return decodeWith(charmap.ISO8859_1.NewDecoder(), data)
}

func decodeWith(decoder transform.Transformer, data []byte) (string, error) {
	decoded, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

func cleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\x00", "")

	var cleanedLines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}

// ValidateTXT checks if the data appears to be text rather than binary.
func ValidateTXT(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty file")
	}

	// UTF-16 text carries a BOM and is full of NUL bytes.
	if bytes.HasPrefix(data, []byte{0xFF, 0xFE}) || bytes.HasPrefix(data, []byte{0xFE, 0xFF}) {
		return nil
	}

	sample := data
	if len(sample) > 512 {
		sample = sample[:512]
	}

	if utf8.Valid(sample) && !bytes.ContainsRune(sample, 0) {
		return nil
	}

	printableCount := 0
	for _, b := range sample {
		if (b >= 32 && b <= 126) || b == '\t' || b == '\n' || b == '\r' || b >= 0xA0 {
			printableCount++
		}
	}

	// If less than 80% of sample is printable text, it might be binary
	if float64(printableCount)/float64(len(sample)) < 0.8 {
		return fmt.Errorf("file does not appear to be valid text")
	}

	return nil
}
