package tablestore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"
)

type memEntry struct {
	entity Entity
	seq    int64
}

// Memory is an in-memory Store used by tests. It reproduces the PG store's
// semantics, including the top-level JSON merge on upsert and newest-first
// list ordering.
type Memory struct {
	mu   sync.Mutex
	rows map[string]map[string]*memEntry
	seq  int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{rows: make(map[string]map[string]*memEntry)}
}

func (m *Memory) Get(_ context.Context, partition, row string) (*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.rows[partition][row]
	if !ok {
		return nil, ErrNotFound
	}
	e := entry.entity
	return &e, nil
}

func (m *Memory) List(_ context.Context, partition string, limit int) ([]*Entity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]*memEntry, 0, len(m.rows[partition]))
	for _, entry := range m.rows[partition] {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	limit = clampLimit(limit)
	if len(entries) > limit {
		entries = entries[:limit]
	}

	result := make([]*Entity, len(entries))
	for i, entry := range entries {
		e := entry.entity
		result[i] = &e
	}
	return result, nil
}

func (m *Memory) Create(_ context.Context, e *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[e.PartitionKey][e.RowKey]; ok {
		return ErrDuplicate
	}
	m.put(e, nil)
	return nil
}

func (m *Memory) Upsert(_ context.Context, e *Entity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.rows[e.PartitionKey][e.RowKey]
	m.put(e, existing)
	return nil
}

// put stores e, merging top-level JSON fields over existing when present.
func (m *Memory) put(e *Entity, existing *memEntry) {
	now := time.Now().UTC()
	stored := *e
	stored.CreatedAt = now
	stored.UpdatedAt = now

	m.seq++
	seq := m.seq

	if existing != nil {
		var base, incoming map[string]json.RawMessage
		if json.Unmarshal(existing.entity.Data, &base) == nil &&
			json.Unmarshal(e.Data, &incoming) == nil {
			for k, v := range incoming {
				base[k] = v
			}
			merged, err := json.Marshal(base)
			if err == nil {
				stored.Data = merged
			}
		}
		stored.CreatedAt = existing.entity.CreatedAt
		seq = existing.seq
	}

	if m.rows[e.PartitionKey] == nil {
		m.rows[e.PartitionKey] = make(map[string]*memEntry)
	}
	m.rows[e.PartitionKey][e.RowKey] = &memEntry{entity: stored, seq: seq}
}

func (m *Memory) Delete(_ context.Context, partition, row string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[partition][row]; !ok {
		return ErrNotFound
	}
	delete(m.rows[partition], row)
	return nil
}

func (m *Memory) DeletePartition(_ context.Context, partition string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.rows[partition])
	delete(m.rows, partition)
	return n, nil
}
