package search

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemIndex is the in-memory Index used by tests and local runs.
type MemIndex struct {
	mu   sync.RWMutex
	docs map[string]Doc
}

func NewMemIndex() *MemIndex {
	return &MemIndex{docs: make(map[string]Doc)}
}

var _ Index = (*MemIndex)(nil)

func (m *MemIndex) Index(_ context.Context, d Doc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[d.OrderID] = d
	return nil
}

func (m *MemIndex) ByStatus(_ context.Context, status string) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Doc
	for _, d := range m.docs {
		if d.Status == status {
			out = append(out, d)
		}
	}
	sortByDate(out)
	return out, nil
}

func (m *MemIndex) ByDateRange(_ context.Context, from, to time.Time) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Doc
	for _, d := range m.docs {
		if !d.OrderDate.Before(from) && !d.OrderDate.After(to) {
			out = append(out, d)
		}
	}
	sortByDate(out)
	return out, nil
}

func sortByDate(docs []Doc) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].OrderDate.Before(docs[j].OrderDate) })
}
