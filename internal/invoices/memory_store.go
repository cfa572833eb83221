package invoices

import (
	"context"
	"sort"
	"sync"

	"github.com/angelmondragon/invoicetrack-backend/pkg/enums"
)

// MemoryStore keeps invoices and history in process memory. It backs tests
// and the "memory" store driver.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Invoice
	history map[string][]HistoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Invoice),
		history: make(map[string][]HistoryEntry),
	}
}

func (m *MemoryStore) Get(_ context.Context, recordID string) (*Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inv, ok := m.records[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	out := inv.Clone()
	return &out, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Invoice, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Invoice, 0, len(m.records))
	for _, inv := range m.records {
		out = append(out, inv.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out, nil
}

func (m *MemoryStore) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.records)), nil
}

func (m *MemoryStore) History(_ context.Context, recordID string) ([]HistoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.history[recordID]
	out := make([]HistoryEntry, len(entries))
	for i, entry := range entries {
		entry.Snapshot = entry.Snapshot.Clone()
		out[i] = entry
	}
	return out, nil
}

func (m *MemoryStore) Create(_ context.Context, inv Invoice, op enums.InvoiceOperation) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[inv.RecordID]; exists {
		return nil, ErrAlreadyExists
	}
	stored := inv.Clone()
	stored.Revision = 1
	m.records[stored.RecordID] = stored
	m.history[stored.RecordID] = []HistoryEntry{newHistoryEntry(stored, op)}
	out := stored.Clone()
	return &out, nil
}

func (m *MemoryStore) Update(_ context.Context, recordID string, op enums.InvoiceOperation, mutate MutateFunc) (*Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.records[recordID]
	if !ok {
		return nil, ErrNotFound
	}
	next := current.Clone()
	if err := mutate(&next); err != nil {
		return nil, err
	}
	next.RecordID = current.RecordID
	next.Revision = current.Revision + 1
	m.records[recordID] = next
	m.history[recordID] = append(m.history[recordID], newHistoryEntry(next, op))
	out := next.Clone()
	return &out, nil
}

func (m *MemoryStore) Ping(context.Context) error {
	return nil
}
