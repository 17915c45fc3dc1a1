package store

import (
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schema string

// SQLite backs the tabular contract with one sqlite table per logical
// sheet. Cells are TEXT in declared column order; row order is rowid order.
type SQLite struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and initializes the schema.
// Use ":memory:" for a throwaway database.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateTable creates the named table with the given header. No-op if the
// table already exists; the original header is kept in that case.
func (s *SQLite) CreateTable(name string, header []string) error {
	cols := make([]string, len(header))
	for i := range header {
		cols[i] = fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", colName(i))
	}

	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", quoteIdent(name), strings.Join(cols, ", "))
	if _, err := s.db.Exec(ddl); err != nil {
		return fmt.Errorf("create table %s: %w", name, err)
	}

	_, err := s.db.Exec(
		"INSERT INTO _sheets (name, header) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		name, strings.Join(header, "|"),
	)
	if err != nil {
		return fmt.Errorf("record header for %s: %w", name, err)
	}
	return nil
}

// Header returns the header the table was created with.
func (s *SQLite) Header(name string) ([]string, error) {
	var joined string
	err := s.db.QueryRow("SELECT header FROM _sheets WHERE name = ?", name).Scan(&joined)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("header for %s: %w", name, ErrNoTable)
	}
	if err != nil {
		return nil, fmt.Errorf("header for %s: %w", name, err)
	}
	return strings.Split(joined, "|"), nil
}

// ReadAll returns every body row of the table in insertion order.
func (s *SQLite) ReadAll(name string) ([][]string, error) {
	width, err := s.width(name)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", quoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	defer rows.Close()

	var out [][]string
	for rows.Next() {
		cells := make([]string, width)
		ptrs := make([]any, width)
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", name, err)
		}
		out = append(out, cells)
	}
	return out, rows.Err()
}

// AppendRow appends one row. Short rows are padded with empty cells.
func (s *SQLite) AppendRow(name string, row []string) error {
	width, err := s.width(name)
	if err != nil {
		return err
	}
	row = padRow(row, width)

	marks := strings.TrimSuffix(strings.Repeat("?, ", width), ", ")
	args := make([]any, width)
	for i, c := range row {
		args[i] = c
	}

	_, err = s.db.Exec(fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), marks), args...)
	if err != nil {
		return fmt.Errorf("append to %s: %w", name, err)
	}
	return nil
}

// WriteRow replaces the body row at the given zero-based index.
func (s *SQLite) WriteRow(name string, index int, row []string) error {
	width, err := s.width(name)
	if err != nil {
		return err
	}
	row = padRow(row, width)

	var rowid int64
	err = s.db.QueryRow(
		fmt.Sprintf("SELECT rowid FROM %s ORDER BY rowid LIMIT 1 OFFSET ?", quoteIdent(name)),
		index,
	).Scan(&rowid)
	if err == sql.ErrNoRows {
		return fmt.Errorf("write %s row %d: %w", name, index, ErrNoRow)
	}
	if err != nil {
		return fmt.Errorf("write %s row %d: %w", name, index, err)
	}

	sets := make([]string, width)
	args := make([]any, 0, width+1)
	for i, c := range row {
		sets[i] = fmt.Sprintf("%s = ?", colName(i))
		args = append(args, c)
	}
	args = append(args, rowid)

	_, err = s.db.Exec(
		fmt.Sprintf("UPDATE %s SET %s WHERE rowid = ?", quoteIdent(name), strings.Join(sets, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("write %s row %d: %w", name, index, err)
	}
	return nil
}

// ClearTable deletes every body row, preserving the table and its header.
func (s *SQLite) ClearTable(name string) error {
	if _, err := s.width(name); err != nil {
		return err
	}
	if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", quoteIdent(name))); err != nil {
		return fmt.Errorf("clear %s: %w", name, err)
	}
	return nil
}

func (s *SQLite) width(name string) (int, error) {
	header, err := s.Header(name)
	if err != nil {
		return 0, err
	}
	return len(header), nil
}

func padRow(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]string, width)
	copy(padded, row)
	return padded
}

func colName(i int) string {
	return fmt.Sprintf("c%d", i)
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
