package sheet

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// CSV stores each tab as <dir>/<tab>.csv with the header as the first row.
type CSV struct {
	dir string
}

var _ Sheet = (*CSV)(nil)

// NewCSV returns a CSV sheet rooted at dir, creating dir if needed.
func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &CSV{dir: dir}, nil
}

func (c *CSV) Read(_ context.Context, tab string) (Grid, error) {
	path, err := tabPath(c.dir, tab, ".csv")
	if err != nil {
		return Grid{}, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return Grid{}, nil
	}
	if err != nil {
		return Grid{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(bufio.NewReader(f))
	r.FieldsPerRecord = -1

	var g Grid
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Grid{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if g.Header == nil {
			if len(rec) > 0 {
				// Spreadsheet exports often start with a byte order mark.
				rec[0] = strings.TrimPrefix(rec[0], "\ufeff")
			}
			g.Header = rec
			continue
		}
		g.Rows = append(g.Rows, rec)
	}
	return g, nil
}

func (c *CSV) Write(_ context.Context, tab string, g Grid) error {
	path, err := tabPath(c.dir, tab, ".csv")
	if err != nil {
		return err
	}
	return writeAtomic(path, func(bw *bufio.Writer) error {
		w := csv.NewWriter(bw)
		if err := w.Write(g.Header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
		if err := w.WriteAll(g.Rows); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
		return nil
	})
}

func (c *CSV) Close() error { return nil }
