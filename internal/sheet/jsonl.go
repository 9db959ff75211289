package sheet

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// JSONL stores each tab as <dir>/<tab>.jsonl, one JSON object per row with
// keys in header order. The first line is the header as a JSON array of
// column names, so a tab without rows keeps its columns. Files without
// that line take their header from the row keys. Malformed lines are
// skipped on read.
type JSONL struct {
	dir string
}

var _ Sheet = (*JSONL)(nil)

// NewJSONL returns a JSONL sheet rooted at dir, creating dir if needed.
func NewJSONL(dir string) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	return &JSONL{dir: dir}, nil
}

func (j *JSONL) Read(_ context.Context, tab string) (Grid, error) {
	path, err := tabPath(j.dir, tab, ".jsonl")
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

	var (
		g    Grid
		cols = map[string]int{}
		recs []map[string]string
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	first := true
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		if first {
			first = false
			var header []string
			if line[0] == '[' && json.Unmarshal(line, &header) == nil {
				for _, k := range header {
					if _, ok := cols[k]; !ok {
						cols[k] = len(g.Header)
						g.Header = append(g.Header, k)
					}
				}
				continue
			}
		}
		keys, vals, err := decodeRow(line)
		if err != nil {
			continue
		}
		for _, k := range keys {
			if _, ok := cols[k]; !ok {
				cols[k] = len(g.Header)
				g.Header = append(g.Header, k)
			}
		}
		recs = append(recs, vals)
	}
	if err := scanner.Err(); err != nil {
		return Grid{}, fmt.Errorf("scanning %s: %w", path, err)
	}
	return FromRecords(g.Header, recs), nil
}

func (j *JSONL) Write(_ context.Context, tab string, g Grid) error {
	path, err := tabPath(j.dir, tab, ".jsonl")
	if err != nil {
		return err
	}
	return writeAtomic(path, func(w *bufio.Writer) error {
		if len(g.Header) > 0 {
			header, err := json.Marshal(g.Header)
			if err != nil {
				return fmt.Errorf("marshaling header: %w", err)
			}
			if _, err := w.Write(header); err != nil {
				return fmt.Errorf("writing header: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		for _, row := range g.Rows {
			line, err := encodeRow(g.Header, row)
			if err != nil {
				return err
			}
			if _, err := w.Write(line); err != nil {
				return fmt.Errorf("writing record: %w", err)
			}
			if err := w.WriteByte('\n'); err != nil {
				return fmt.Errorf("writing newline: %w", err)
			}
		}
		return nil
	})
}

func (j *JSONL) Close() error { return nil }

// encodeRow renders one row as a JSON object with keys in header order.
func encodeRow(header, row []string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, h := range header {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(h)
		if err != nil {
			return nil, fmt.Errorf("marshaling column %q: %w", h, err)
		}
		v, err := json.Marshal(Cell(row, i))
		if err != nil {
			return nil, fmt.Errorf("marshaling cell %q: %w", h, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeRow parses one JSON object keeping key order. Non-string values
// are kept as their JSON text.
func decodeRow(line []byte) ([]string, map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, fmt.Errorf("row is not an object")
	}
	var keys []string
	vals := map[string]string{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, nil, fmt.Errorf("unexpected key token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			s = string(raw)
			if s == "null" {
				s = ""
			}
		}
		if _, seen := vals[key]; !seen {
			keys = append(keys, key)
		}
		vals[key] = s
	}
	if _, err := dec.Token(); err != nil {
		return nil, nil, err
	}
	return keys, vals, nil
}
