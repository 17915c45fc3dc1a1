package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backends runs a subtest against each Tabular implementation.
func backends(t *testing.T, fn func(t *testing.T, tab Tabular)) {
	t.Helper()

	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(filepath.Join(t.TempDir(), "test.db"))
		require.NoError(t, err)
		defer s.Close()
		fn(t, s)
	})

	t.Run("memory", func(t *testing.T) {
		fn(t, NewMemory())
	})
}

func TestCreateTableIdempotent(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A", "B"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"1", "2"}))

		// Re-creating must not drop rows or change the shape.
		require.NoError(t, tab.CreateTable("sheet", []string{"X"}))

		rows, err := tab.ReadAll("sheet")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"1", "2"}, rows[0])
	})
}

func TestAppendAndReadAll(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A", "B", "C"}))

		require.NoError(t, tab.AppendRow("sheet", []string{"a1", "b1", "c1"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"a2", "b2", "c2"}))

		rows, err := tab.ReadAll("sheet")
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, []string{"a1", "b1", "c1"}, rows[0])
		assert.Equal(t, []string{"a2", "b2", "c2"}, rows[1])
	})
}

func TestAppendPadsShortRows(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A", "B", "C"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"only"}))

		rows, err := tab.ReadAll("sheet")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, []string{"only", "", ""}, rows[0])
	})
}

func TestWriteRow(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A", "B"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"a1", "b1"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"a2", "b2"}))

		require.NoError(t, tab.WriteRow("sheet", 1, []string{"x", "y"}))

		rows, err := tab.ReadAll("sheet")
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "b1"}, rows[0])
		assert.Equal(t, []string{"x", "y"}, rows[1])
	})
}

func TestWriteRowOutOfRange(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A"}))

		err := tab.WriteRow("sheet", 0, []string{"x"})
		assert.ErrorIs(t, err, ErrNoRow)
	})
}

func TestClearTable(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		require.NoError(t, tab.CreateTable("sheet", []string{"A"}))
		require.NoError(t, tab.AppendRow("sheet", []string{"1"}))

		require.NoError(t, tab.ClearTable("sheet"))

		rows, err := tab.ReadAll("sheet")
		require.NoError(t, err)
		assert.Empty(t, rows)

		// The table survives a clear: appends still land.
		require.NoError(t, tab.AppendRow("sheet", []string{"2"}))
		rows, err = tab.ReadAll("sheet")
		require.NoError(t, err)
		require.Len(t, rows, 1)
	})
}

func TestMissingTable(t *testing.T) {
	backends(t, func(t *testing.T, tab Tabular) {
		_, err := tab.ReadAll("nope")
		assert.ErrorIs(t, err, ErrNoTable)

		assert.ErrorIs(t, tab.AppendRow("nope", []string{"x"}), ErrNoTable)
		assert.ErrorIs(t, tab.WriteRow("nope", 0, []string{"x"}), ErrNoTable)
		assert.ErrorIs(t, tab.ClearTable("nope"), ErrNoTable)
	})
}

func TestSQLiteHeaderRoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	header := []string{"Question ID", "Question Text", "Topic"}
	require.NoError(t, s.CreateTable("Parsing Results", header))

	got, err := s.Header("Parsing Results")
	require.NoError(t, err)
	assert.Equal(t, header, got)

	// A second create keeps the original header.
	require.NoError(t, s.CreateTable("Parsing Results", []string{"Other"}))
	got, err = s.Header("Parsing Results")
	require.NoError(t, err)
	assert.Equal(t, header, got)

	_, err = s.Header("missing")
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateTable("sheet", []string{"A"}))
	require.NoError(t, s.AppendRow("sheet", []string{"kept"}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	rows, err := s.ReadAll("sheet")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "kept", rows[0][0])
}
