package sheet

import (
	"context"
	"sync"
)

// Memory is an in-process Sheet. It is safe for concurrent use.
type Memory struct {
	mu   sync.Mutex
	tabs map[string]Grid
}

var _ Sheet = (*Memory)(nil)

// NewMemory returns an empty in-memory sheet.
func NewMemory() *Memory {
	return &Memory{tabs: make(map[string]Grid)}
}

func (m *Memory) Read(_ context.Context, tab string) (Grid, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tabs[tab].Clone(), nil
}

func (m *Memory) Write(_ context.Context, tab string, g Grid) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tabs[tab] = g.Clone()
	return nil
}

// Tabs returns the names of all written tabs.
func (m *Memory) Tabs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.tabs))
	for name := range m.tabs {
		out = append(out, name)
	}
	return out
}

func (m *Memory) Close() error { return nil }
