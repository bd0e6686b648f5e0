package store

import (
	"context"
	"sort"
	"sync"

	apperrors "kifu/internal/errors"
)

// MemoryStore keeps records in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]StoredRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]StoredRecord)}
}

func (m *MemoryStore) Put(_ context.Context, rec StoredRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[rec.ID] = rec
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[id]
	if !ok {
		return StoredRecord{}, apperrors.ErrRecordNotFound
	}
	return rec, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return apperrors.ErrRecordNotFound
	}
	delete(m.records, id)
	return nil
}

// List returns records oldest first.
func (m *MemoryStore) List(_ context.Context) ([]StoredRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]StoredRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }

func sortRecords(recs []StoredRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].CreatedAt.Before(recs[j].CreatedAt)
		}
		return recs[i].ID < recs[j].ID
	})
}
