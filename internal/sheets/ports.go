// Package sheets defines the export collaborator: report grids written to a
// spreadsheet backend.
package sheets

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Grid is a report laid out as rows of cells; row 0 is the header.
type Grid [][]string

// Width returns the widest row length.
func (g Grid) Width() int {
	w := 0
	for _, row := range g {
		if len(row) > w {
			w = len(row)
		}
	}
	return w
}

// Ports for outbound adapters.
type (
	// GridWriter writes a grid under name and returns a backend reference
	// (file path, sheet range).
	GridWriter interface {
		WriteGrid(ctx context.Context, name string, grid Grid) (ref string, err error)
	}
)

var ErrEmptyGrid = errors.New("empty grid")

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// SafeName reduces name to characters valid in file and sheet names.
func SafeName(name string) string {
	s := strings.Trim(unsafeName.ReplaceAllString(strings.TrimSpace(name), "-"), "-")
	if s == "" {
		return "report"
	}
	return s
}
