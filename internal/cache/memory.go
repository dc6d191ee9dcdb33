package cache

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/parishdesk/reporting/internal/model"
)

// DefaultMemoryEntries bounds the in-process store.
const DefaultMemoryEntries = 32

type memoryItem struct {
	snap      *model.Snapshot
	expiresAt time.Time
}

// MemoryStore keeps recent snapshots in process with TTL and LRU eviction.
// It is used when no Redis URL is configured.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	maxItems int
	items    map[string]*list.Element
	lru      *list.List
	latest   string
	now      func() time.Time
}

// NewMemoryStore creates an in-process snapshot store.
func NewMemoryStore(ttl time.Duration, maxItems int) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultSnapshotTTL
	}
	if maxItems <= 0 {
		maxItems = DefaultMemoryEntries
	}
	return &MemoryStore{
		ttl:      ttl,
		maxItems: maxItems,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
	}
}

// SaveSnapshot stores the snapshot and marks it latest.
func (m *MemoryStore) SaveSnapshot(_ context.Context, snap *model.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := &memoryItem{snap: snap, expiresAt: m.now().Add(m.ttl)}
	if elem, ok := m.items[snap.ID]; ok {
		elem.Value = item
		m.lru.MoveToFront(elem)
	} else {
		m.items[snap.ID] = m.lru.PushFront(item)
	}
	m.latest = snap.ID

	for m.lru.Len() > m.maxItems {
		m.removeElement(m.lru.Back())
	}
	return nil
}

// GetSnapshot returns the snapshot or ErrCacheMiss.
func (m *MemoryStore) GetSnapshot(_ context.Context, id string) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.get(id)
}

// LatestSnapshot returns the last saved snapshot or ErrCacheMiss.
func (m *MemoryStore) LatestSnapshot(_ context.Context) (*model.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.latest == "" {
		return nil, ErrCacheMiss
	}
	return m.get(m.latest)
}

// Ping always succeeds.
func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) get(id string) (*model.Snapshot, error) {
	elem, ok := m.items[id]
	if !ok {
		return nil, ErrCacheMiss
	}
	item := elem.Value.(*memoryItem)
	if m.now().After(item.expiresAt) {
		m.removeElement(elem)
		return nil, ErrCacheMiss
	}
	m.lru.MoveToFront(elem)
	return item.snap, nil
}

func (m *MemoryStore) removeElement(elem *list.Element) {
	item := elem.Value.(*memoryItem)
	delete(m.items, item.snap.ID)
	m.lru.Remove(elem)
	if m.latest == item.snap.ID {
		m.latest = ""
	}
}
