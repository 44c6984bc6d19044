package storage

import (
	"sort"
	"sync"
)

// MemoryStore keeps everything in maps. Ids are listed in lexical order to
// match PebbleStore iteration.
type MemoryStore struct {
	mu      sync.Mutex
	orders  map[string]OrderRecord
	matches []MatchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]OrderRecord)}
}

var _ OrderStore = (*MemoryStore)(nil)

func (s *MemoryStore) SaveOrder(rec *OrderRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[rec.ID] = *rec
	return nil
}

func (s *MemoryStore) LoadOrder(id string) (*OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *MemoryStore) ListOrders(sender string, limit int) ([]*OrderRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.orders))
	for id, rec := range s.orders {
		if sender == "" || rec.Sender == sender {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	out := make([]*OrderRecord, 0, len(ids))
	for _, id := range ids {
		rec := s.orders[id]
		out = append(out, &rec)
	}
	return out, nil
}

func (s *MemoryStore) DeleteOrder(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, id)
	return nil
}

func (s *MemoryStore) SaveMatch(m *MatchRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches = append(s.matches, *m)
	sort.SliceStable(s.matches, func(i, j int) bool {
		return s.matches[i].Timestamp < s.matches[j].Timestamp
	})
	return nil
}

func (s *MemoryStore) LoadRecentMatches(limit int) ([]*MatchRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*MatchRecord
	for i := len(s.matches) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := s.matches[i]
		out = append(out, &m)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
