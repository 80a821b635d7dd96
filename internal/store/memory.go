package store

import "sync"

// Memory is an in-process KV. Writes counts Set calls, which tests use to
// check the one-write-per-change contract.
type Memory struct {
	mu     sync.Mutex
	m      map[string]string
	writes int
}

func NewMemory() *Memory {
	return &Memory{m: map[string]string{}}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.m[key]
	return v, ok, nil
}

func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.m[key] = value
	m.writes++
	return nil
}

func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
