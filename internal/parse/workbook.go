package parse

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Zuo-Peng/miscreaders/pkg/usage"
)

// Sheet is one worksheet as rows of formatted cell text.
type Sheet struct {
	Name string
	Rows [][]string
}

type Workbook struct {
	Sheets []Sheet
}

// LoadWorkbook reads a legacy .xls (BIFF) or an .xlsx workbook into memory
// and closes the file before returning.
func LoadWorkbook(path string) (*Workbook, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}
	return loadXLS(path)
}

// openXLS decodes a BIFF workbook; tests swap it to reach the recovery path.
var openXLS = xls.OpenReader

func loadXLS(path string) (wb *Workbook, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	// the BIFF decoder panics on some truncated files
	defer func() {
		if r := recover(); r != nil {
			wb, err = nil, &usage.FormatError{Reason: fmt.Sprintf("corrupt xls workbook: %v", r)}
		}
	}()

	book, err := openXLS(f, "utf-8")
	if err != nil {
		return nil, &usage.FormatError{Reason: fmt.Sprintf("not an xls workbook: %v", err)}
	}
	if book == nil {
		return nil, &usage.FormatError{Reason: "xls file has no Workbook stream"}
	}

	wb = &Workbook{}
	for i := 0; i < book.NumSheets(); i++ {
		ws := book.GetSheet(i)
		if ws == nil {
			continue
		}
		sheet := Sheet{Name: ws.Name}
		for r := 0; r <= int(ws.MaxRow); r++ {
			sheet.Rows = append(sheet.Rows, xlsRow(ws, r))
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// xlsRow returns the cells of row r, or nil for a row the file never wrote.
func xlsRow(ws *xls.WorkSheet, r int) (cells []string) {
	// WorkSheet.Row dereferences missing rows
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()

	row := ws.Row(r)
	if row == nil {
		return nil
	}
	cells = make([]string, row.LastCol())
	for c := row.FirstCol(); c < row.LastCol(); c++ {
		cells[c] = row.Col(c)
	}
	return cells
}

func loadXLSX(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &usage.FormatError{Reason: fmt.Sprintf("not an xlsx workbook: %v", err)}
	}
	defer f.Close()

	wb := &Workbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &usage.FormatError{Sheet: name, Reason: err.Error()}
		}
		wb.Sheets = append(wb.Sheets, Sheet{Name: name, Rows: rows})
	}
	return wb, nil
}

// cell returns row[i] trimmed, or "" past the end of the row.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
