package project

import (
	"context"
	"maps"
	"sync"
)

// MemoryStore keeps the last saved document in memory. It is used when no
// database is configured and in tests.
type MemoryStore struct {
	mu  sync.Mutex
	doc *Document
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveDocument stores a copy of doc.
func (m *MemoryStore) SaveDocument(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doc = copyDocument(doc)
	return nil
}

// LoadDocument returns a copy of the last saved document.
func (m *MemoryStore) LoadDocument(_ context.Context) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.doc == nil {
		return nil, ErrNoProject
	}
	return copyDocument(m.doc), nil
}

func copyDocument(doc *Document) *Document {
	out := &Document{
		Parameters:  maps.Clone(doc.Parameters),
		Oscillators: append([]OscillatorRecord(nil), doc.Oscillators...),
		Bindings:    append([]BindingRecord(nil), doc.Bindings...),
		Settings:    maps.Clone(doc.Settings),
	}
	for _, s := range doc.Snapshots {
		out.Snapshots = append(out.Snapshots, SnapshotRecord{Label: s.Label, Values: maps.Clone(s.Values)})
	}
	return out
}
