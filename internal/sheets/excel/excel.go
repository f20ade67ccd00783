// Package excel renders report grids as XLSX workbooks.
package excel

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	ports "tiledash/internal/sheets"
)

const (
	minColWidth = 8
	maxColWidth = 60
)

// Render writes grid into a single-sheet workbook on w. The header row is
// bold and columns are sized to their widest cell. Cells that parse as
// numbers are stored as numbers.
func Render(w io.Writer, sheet string, grid ports.Grid) error {
	if len(grid) == 0 {
		return ports.ErrEmptyGrid
	}
	f := excelize.NewFile()
	defer f.Close()

	sheet = ports.SafeName(sheet)
	if len(sheet) > 31 {
		sheet = sheet[:31]
	}
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("drop default sheet: %w", err)
		}
	}

	widths := make([]int, grid.Width())
	for r, row := range grid {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, cellValue(r, v)); err != nil {
				return fmt.Errorf("set %s: %w", cell, err)
			}
			if n := utf8.RuneCountInString(v); n > widths[c] {
				widths[c] = n
			}
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	for c, n := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, float64(clamp(n+2, minColWidth, maxColWidth))); err != nil {
			return fmt.Errorf("column width: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadGrid reads the first sheet of an XLSX workbook back as strings.
func ReadGrid(r io.Reader) (ports.Grid, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ports.ErrEmptyGrid
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return ports.Grid(rows), nil
}

func cellValue(row int, v string) any {
	if row == 0 {
		return v
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return f
	}
	return v
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

// FileWriter writes each grid to <Dir>/<name>.xlsx.
type FileWriter struct {
	Dir string
}

var _ ports.GridWriter = (*FileWriter)(nil)

func (w *FileWriter) WriteGrid(_ context.Context, name string, grid ports.Grid) (string, error) {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(w.Dir, ports.SafeName(name)+".xlsx")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := Render(f, name, grid); err != nil {
		f.Close()
		os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}
