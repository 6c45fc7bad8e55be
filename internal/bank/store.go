package bank

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("item not found")

// Store is the item bank contract. List returns approved, non-deleted items
// matching the filter ordered by ascending usage count; Insert echoes back
// records with generated IDs; MarkUsed is fire-and-forget and need not be
// transactional with selection.
type Store interface {
	List(ctx context.Context, f Filter) ([]Item, error)
	Insert(ctx context.Context, items []Item) ([]Item, error)
	MarkUsed(ctx context.Context, itemID string) error
}

type memoryStore struct {
	mu    sync.RWMutex
	items map[string]Item
}

// NewInMemoryStore returns a Store backed by a process-local map. Used in
// tests and offline single-run flows; production uses the SQL store.
func NewInMemoryStore() Store {
	return &memoryStore{items: map[string]Item{}}
}

func (m *memoryStore) List(_ context.Context, f Filter) ([]Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Item, 0, 16)
	for _, it := range m.items {
		if !matches(it, f) {
			continue
		}
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UsageCount != out[j].UsageCount {
			return out[i].UsageCount < out[j].UsageCount
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memoryStore) Insert(_ context.Context, items []Item) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Item, 0, len(items))
	for _, it := range items {
		it = canonicalize(it)
		if it.ID == "" {
			it.ID = uuid.NewString()
		}
		if it.CreatedAt == 0 {
			it.CreatedAt = time.Now().Unix()
		}
		m.items[it.ID] = it
		out = append(out, it)
	}
	return out, nil
}

func (m *memoryStore) MarkUsed(_ context.Context, itemID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return ErrNotFound
	}
	it.UsageCount++
	m.items[itemID] = it
	return nil
}

func matches(it Item, f Filter) bool {
	if !it.Approved || it.Deleted {
		return false
	}
	if f.Topic != "" && !strings.Contains(strings.ToLower(it.Topic), strings.ToLower(f.Topic)) {
		return false
	}
	if f.Level != "" && !strings.EqualFold(it.CognitiveLevel, f.Level) {
		return false
	}
	if f.Difficulty != "" && it.Difficulty != f.Difficulty {
		return false
	}
	return true
}
