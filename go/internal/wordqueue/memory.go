package wordqueue

import (
	"context"
	"sync"
)

// MemoryRepository is the in-process word queue used for single-process
// deployments and tests.
type MemoryRepository struct {
	mu   sync.Mutex
	sets []WordSet
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (m *MemoryRepository) Append(_ context.Context, set WordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append(m.sets, cloneSet(set))
	return nil
}

func (m *MemoryRepository) Prepend(_ context.Context, set WordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = append([]WordSet{cloneSet(set)}, m.sets...)
	return nil
}

func (m *MemoryRepository) Overwrite(_ context.Context, sets []WordSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = make([]WordSet, 0, len(sets))
	for _, set := range sets {
		m.sets = append(m.sets, cloneSet(set))
	}
	return nil
}

func (m *MemoryRepository) Shift(_ context.Context) (*WordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sets) == 0 {
		return nil, nil
	}
	head := m.sets[0]
	m.sets = m.sets[1:]
	return &head, nil
}

func (m *MemoryRepository) PeekAll(_ context.Context) ([]WordSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WordSet, 0, len(m.sets))
	for _, set := range m.sets {
		out = append(out, cloneSet(set))
	}
	return out, nil
}

func (m *MemoryRepository) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets = nil
	return nil
}

func (m *MemoryRepository) Size(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sets), nil
}

func cloneSet(set WordSet) WordSet {
	words := make([]string, len(set.Words))
	copy(words, set.Words)
	return WordSet{Words: words}
}
