package store

import "sync"

type memTable struct {
	header []string
	rows   [][]string
}

// Memory is an in-process tabular backend with the same semantics as the
// SQLite one. Used by tests and by ephemeral serving.
type Memory struct {
	mu     sync.Mutex
	tables map[string]*memTable
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{tables: make(map[string]*memTable)}
}

func (m *Memory) CreateTable(name string, header []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[name]; ok {
		return nil
	}
	h := make([]string, len(header))
	copy(h, header)
	m.tables[name] = &memTable{header: h}
	return nil
}

func (m *Memory) ReadAll(name string) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return nil, ErrNoTable
	}
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = append([]string(nil), row...)
	}
	return out, nil
}

func (m *Memory) AppendRow(name string, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return ErrNoTable
	}
	t.rows = append(t.rows, padRow(append([]string(nil), row...), len(t.header)))
	return nil
}

func (m *Memory) WriteRow(name string, index int, row []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return ErrNoTable
	}
	if index < 0 || index >= len(t.rows) {
		return ErrNoRow
	}
	t.rows[index] = padRow(append([]string(nil), row...), len(t.header))
	return nil
}

func (m *Memory) ClearTable(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tables[name]
	if !ok {
		return ErrNoTable
	}
	t.rows = nil
	return nil
}

func (m *Memory) Close() error { return nil }
