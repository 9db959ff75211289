// Package sheet implements the backing spreadsheet for deskboard: a
// workbook of named tabs, each a grid of string cells with a header row.
// Backends store the same grid in CSV files, JSONL files, SQLite, Redis,
// or memory.
package sheet

import (
	"context"
	"slices"
)

// Grid is one tab: a header row naming the columns and zero or more data
// rows. Rows may be shorter than the header; missing cells read as "".
type Grid struct {
	Header []string
	Rows   [][]string
}

// Sheet reads and writes whole tabs. Reading a tab that was never written
// returns an empty Grid and no error. Write replaces the tab's contents.
type Sheet interface {
	Read(ctx context.Context, tab string) (Grid, error)
	Write(ctx context.Context, tab string, g Grid) error
	Close() error
}

// Index maps column names to their position in the header.
func (g Grid) Index() map[string]int {
	idx := make(map[string]int, len(g.Header))
	for i, h := range g.Header {
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}
	return idx
}

// Cell returns row[col] or "" when the row is short.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col]
}

// Clone returns a deep copy of g.
func (g Grid) Clone() Grid {
	c := Grid{Header: slices.Clone(g.Header)}
	if g.Rows != nil {
		c.Rows = make([][]string, len(g.Rows))
		for i, r := range g.Rows {
			c.Rows[i] = slices.Clone(r)
		}
	}
	return c
}

// Records returns the rows as column-name keyed maps.
func (g Grid) Records() []map[string]string {
	out := make([]map[string]string, 0, len(g.Rows))
	for _, row := range g.Rows {
		rec := make(map[string]string, len(g.Header))
		for i, h := range g.Header {
			rec[h] = Cell(row, i)
		}
		out = append(out, rec)
	}
	return out
}

// FromRecords builds a grid from column-name keyed maps using header as the
// column order.
func FromRecords(header []string, recs []map[string]string) Grid {
	g := Grid{Header: slices.Clone(header), Rows: make([][]string, 0, len(recs))}
	for _, rec := range recs {
		row := make([]string, len(header))
		for i, h := range header {
			row[i] = rec[h]
		}
		g.Rows = append(g.Rows, row)
	}
	return g
}
