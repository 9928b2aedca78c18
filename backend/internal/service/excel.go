package service

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const maxImportRows = 2000

var (
	ErrImportNoData      = errors.New("spreadsheet has no data rows (row 1 is the header)")
	ErrImportTooManyRows = fmt.Errorf("spreadsheet exceeds %d data rows", maxImportRows)
	ErrImportBadFile     = errors.New("file is not a readable xlsx workbook")
)

// ImportHeaderError lists the required columns the header row lacks.
type ImportHeaderError struct {
	Missing []string
}

func (e *ImportHeaderError) Error() string {
	return "spreadsheet header is missing columns: " + strings.Join(e.Missing, ", ")
}

// sheetRow one data row keyed by canonical column name. Row is the 1-based
// spreadsheet row number.
type sheetRow struct {
	Row    int
	Values map[string]string
}

func (r sheetRow) get(key string) string { return r.Values[key] }

// readSheet opens the first worksheet and maps every data row through the
// header. aliases maps a canonical key to the header spellings it accepts;
// required keys must all be present in the header.
func readSheet(reader io.Reader, aliases map[string][]string, required []string) ([]sheetRow, error) {
	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImportBadFile, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("read worksheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrImportNoData
	}

	index := headerIndex(rows[0], aliases)
	var missing []string
	for _, key := range required {
		if _, ok := index[key]; !ok {
			missing = append(missing, aliases[key][0])
		}
	}
	if len(missing) > 0 {
		return nil, &ImportHeaderError{Missing: missing}
	}

	var out []sheetRow
	for i := 1; i < len(rows); i++ {
		values := make(map[string]string, len(index))
		blank := true
		for key, col := range index {
			if col < len(rows[i]) {
				v := strings.TrimSpace(rows[i][col])
				values[key] = v
				if v != "" {
					blank = false
				}
			}
		}
		if blank {
			continue
		}
		out = append(out, sheetRow{Row: i + 1, Values: values})
	}

	if len(out) == 0 {
		return nil, ErrImportNoData
	}
	if len(out) > maxImportRows {
		return nil, ErrImportTooManyRows
	}
	return out, nil
}

// headerIndex resolves header cells to canonical keys, case and space
// insensitive. Unknown columns are ignored.
func headerIndex(header []string, aliases map[string][]string) map[string]int {
	lookup := make(map[string]string)
	for key, names := range aliases {
		for _, n := range names {
			lookup[normalizeHeader(n)] = key
		}
	}
	idx := make(map[string]int)
	for i, h := range header {
		if key, ok := lookup[normalizeHeader(h)]; ok {
			if _, seen := idx[key]; !seen {
				idx[key] = i
			}
		}
	}
	return idx
}

func normalizeHeader(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.NewReplacer(" ", "", "_", "", "-", "", ".", "").Replace(s)
	return s
}

// sheetColumn one exported column.
type sheetColumn struct {
	Title string
	Width float64
}

// writeSheet renders a single-sheet workbook with a styled header row.
func writeSheet(sheetName string, columns []sheetColumn, rows [][]interface{}) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if sheetName != "Sheet1" {
		f.DeleteSheet("Sheet1")
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2E7D32"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	for i, col := range columns {
		name := colName(i)
		if col.Width > 0 {
			f.SetColWidth(sheetName, name, name, col.Width)
		}
		f.SetCellValue(sheetName, cell(name, 1), col.Title)
	}
	if len(columns) > 0 {
		f.SetCellStyle(sheetName, "A1", cell(colName(len(columns)-1), 1), headerStyle)
		f.SetPanes(sheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
	}

	for r, values := range rows {
		for c, v := range values {
			f.SetCellValue(sheetName, cell(colName(c), r+2), v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// colName zero-based column index to letters (0 → A).
func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}
