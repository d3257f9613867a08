package spreadsheet

import (
	"bytes"
	"fmt"

	goexcel "github.com/VantageDataChat/GoExcel"
	"github.com/shakinm/xlsReader/xls"
)

// grid is the first worksheet as rows of cell strings; row i is spreadsheet line i+1.
type grid [][]string

// decode reads the first worksheet of a workbook.
func decode(format Format, data []byte) (grid, error) {
	switch format {
	case FormatXLSX:
		return decodeXLSX(data)
	case FormatXLS:
		return decodeXLS(data)
	default:
		return nil, fmt.Errorf("no decoder for format %q", format)
	}
}

// decodeXLSX uses goexcel. Malformed archives can panic inside the reader.
func decodeXLSX(data []byte) (g grid, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("xlsx decode: %v", r)
		}
	}()

	reader := goexcel.NewXLSXReader()
	wb, err := reader.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("xlsx decode: %w", err)
	}

	names := wb.GetSheetNames()
	if len(names) == 0 {
		return nil, nil
	}
	sheet, err := wb.GetSheetByName(names[0])
	if err != nil {
		return nil, fmt.Errorf("xlsx sheet %q: %w", names[0], err)
	}
	// AllCells is sorted by position; Row and Col are absolute and 0-based.
	for _, cell := range sheet.AllCells() {
		if cell.IsEmpty() || cell.Row() < 0 {
			continue
		}
		for len(g) <= cell.Row() {
			g = append(g, nil)
		}
		g[cell.Row()] = setCell(g[cell.Row()], cell.Col(), cell.GetFormattedValue())
	}
	return g, nil
}

// decodeXLS uses xlsReader for legacy BIFF workbooks.
func decodeXLS(data []byte) (g grid, err error) {
	defer func() {
		if r := recover(); r != nil {
			g = nil
			err = fmt.Errorf("xls decode: %v", r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("xls decode: %w", err)
	}
	if wb.GetNumberSheets() == 0 {
		return nil, nil
	}
	sheet, err := wb.GetSheet(0)
	if err != nil {
		return nil, fmt.Errorf("xls sheet 0: %w", err)
	}

	numRows := sheet.GetNumberRows()
	g = make(grid, 0, numRows)
	for rowIdx := 0; rowIdx < numRows; rowIdx++ {
		row, err := sheet.GetRow(rowIdx)
		if err != nil || row == nil {
			g = append(g, nil)
			continue
		}
		var line []string
		for colIdx, cell := range row.GetCols() {
			line = setCell(line, colIdx, cell.GetString())
		}
		g = append(g, line)
	}
	return g, nil
}

// setCell stores val at col, growing line as needed for sparse rows.
func setCell(line []string, col int, val string) []string {
	if col < 0 {
		return line
	}
	for len(line) <= col {
		line = append(line, "")
	}
	line[col] = val
	return line
}
