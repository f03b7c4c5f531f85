// Package export writes rendered table pages as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the written workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	minColWidth = 10
	maxColWidth = 60
)

var sheetNameReplacer = strings.NewReplacer(":", " ", "\\", " ", "/", " ", "?", " ", "*", " ", "[", "(", "]", ")")

// SheetName turns an entity label into a valid worksheet name.
func SheetName(label string) string {
	name := strings.Trim(sheetNameReplacer.Replace(strings.TrimSpace(label)), "'")
	if name == "" {
		return "Export"
	}
	if utf8.RuneCountInString(name) > excelize.MaxSheetNameLength {
		name = string([]rune(name)[:excelize.MaxSheetNameLength])
	}
	return name
}

// FileName is the download name of an export taken at now.
func FileName(label string, now time.Time) string {
	return fmt.Sprintf("%s-%s.xlsx", strings.ToLower(SheetName(label)), now.Format("20060102-150405"))
}

// WriteXLSX writes one sheet with a bold, frozen header row followed by rows.
func WriteXLSX(w io.Writer, sheet string, headers []string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet = SheetName(sheet)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	widths := make([]int, len(headers))
	if err := setRow(f, sheet, 1, headers, widths); err != nil {
		return err
	}
	if len(headers) > 0 {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			return fmt.Errorf("styling header: %w", err)
		}
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, row, widths); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(width+2, minColWidth, maxColWidth))); err != nil {
			return fmt.Errorf("sizing column %s: %w", col, err)
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("freezing header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, n int, values []string, widths []int) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
		if i < len(widths) {
			if l := utf8.RuneCountInString(v); l > widths[i] {
				widths[i] = l
			}
		}
	}
	if err := f.SetSheetRow(sheet, cell, &row); err != nil {
		return fmt.Errorf("writing row %d: %w", n, err)
	}
	return nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
