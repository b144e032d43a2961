package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExtractXLSX flattens every sheet into text: one line per row, cells joined
// by spaces, prefixed by a "Sheet: <name>" line.
func ExtractXLSX(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open workbook: %v", ErrUnsupportedFormat, err)
	}
	defer f.Close()

	var textBuilder strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("%w: failed to read sheet %q: %v", ErrUnsupportedFormat, sheet, err)
		}

		textBuilder.WriteString("Sheet: ")
		textBuilder.WriteString(sheet)
		textBuilder.WriteString("\n")
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if c := strings.TrimSpace(cell); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) == 0 {
				continue
			}
			textBuilder.WriteString(strings.Join(cells, " "))
			textBuilder.WriteString("\n")
		}
	}

	return strings.TrimSpace(textBuilder.String()), nil
}
