package sheet

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteFileName is the database file created inside the data dir.
const SQLiteFileName = "deskboard.db"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sheet_columns (
    tab TEXT NOT NULL,
    col_pos INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (tab, col_pos)
);
CREATE TABLE IF NOT EXISTS sheet_cells (
    tab TEXT NOT NULL,
    row_num INTEGER NOT NULL,
    col_pos INTEGER NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (tab, row_num, col_pos)
);
CREATE INDEX IF NOT EXISTS idx_sheet_cells_tab ON sheet_cells(tab);
`

// SQLite stores every tab in two tables of one database: the header in
// sheet_columns and every cell in sheet_cells. A tab write is a single
// transaction.
type SQLite struct {
	db *sql.DB
}

var _ Sheet = (*SQLite)(nil)

// OpenSQLite opens (creating if needed) dir/deskboard.db.
func OpenSQLite(dir string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, SQLiteFileName))
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Read(ctx context.Context, tab string) (Grid, error) {
	var g Grid
	cols, err := s.db.QueryContext(ctx,
		"SELECT name FROM sheet_columns WHERE tab = ? ORDER BY col_pos", tab)
	if err != nil {
		return Grid{}, fmt.Errorf("querying columns of %s: %w", tab, err)
	}
	for cols.Next() {
		var name string
		if err := cols.Scan(&name); err != nil {
			cols.Close()
			return Grid{}, fmt.Errorf("scanning column: %w", err)
		}
		g.Header = append(g.Header, name)
	}
	cols.Close()
	if err := cols.Err(); err != nil {
		return Grid{}, fmt.Errorf("iterating columns of %s: %w", tab, err)
	}

	cells, err := s.db.QueryContext(ctx,
		"SELECT row_num, col_pos, value FROM sheet_cells WHERE tab = ? ORDER BY row_num, col_pos", tab)
	if err != nil {
		return Grid{}, fmt.Errorf("querying cells of %s: %w", tab, err)
	}
	defer cells.Close()
	for cells.Next() {
		var rowNum, colPos int
		var value string
		if err := cells.Scan(&rowNum, &colPos, &value); err != nil {
			return Grid{}, fmt.Errorf("scanning cell: %w", err)
		}
		for len(g.Rows) <= rowNum {
			g.Rows = append(g.Rows, make([]string, len(g.Header)))
		}
		if colPos < len(g.Header) {
			g.Rows[rowNum][colPos] = value
		}
	}
	if err := cells.Err(); err != nil {
		return Grid{}, fmt.Errorf("iterating cells of %s: %w", tab, err)
	}
	return g, nil
}

func (s *SQLite) Write(ctx context.Context, tab string, g Grid) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sheet_columns WHERE tab = ?", tab); err != nil {
		return fmt.Errorf("clearing columns of %s: %w", tab, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM sheet_cells WHERE tab = ?", tab); err != nil {
		return fmt.Errorf("clearing cells of %s: %w", tab, err)
	}
	for i, name := range g.Header {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sheet_columns (tab, col_pos, name) VALUES (?, ?, ?)", tab, i, name); err != nil {
			return fmt.Errorf("inserting column %q: %w", name, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO sheet_cells (tab, row_num, col_pos, value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("preparing cell insert: %w", err)
	}
	defer stmt.Close()
	for r, row := range g.Rows {
		for c := range g.Header {
			if _, err := stmt.ExecContext(ctx, tab, r, c, Cell(row, c)); err != nil {
				return fmt.Errorf("inserting cell %d,%d: %w", r, c, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %s: %w", tab, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
