// Package store provides the row-oriented table substrate the QMS core
// writes through: ordered rows of string cells, addressed by table name.
// Two backends exist, SQLite for real runs and an in-memory one for tests
// and ephemeral serving.
package store

import "errors"

var (
	// ErrNoTable is returned for operations on a table never created.
	ErrNoTable = errors.New("table does not exist")
	// ErrNoRow is returned when a row index is out of range.
	ErrNoRow = errors.New("row index out of range")
)

// Tabular is the minimal contract the core consumes. Rows are body rows:
// the header is fixed at creation and never returned by ReadAll.
type Tabular interface {
	// CreateTable is idempotent: creating an existing table is a no-op.
	CreateTable(name string, header []string) error
	// ReadAll returns every body row in insertion order.
	ReadAll(name string) ([][]string, error)
	AppendRow(name string, row []string) error
	// WriteRow replaces the body row at the given zero-based index.
	WriteRow(name string, index int, row []string) error
	// ClearTable removes every body row, preserving the table itself.
	ClearTable(name string) error
	Close() error
}
