package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
)

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &PebbleStore{db: db}, nil
}
func (s *PebbleStore) Close() error { return s.db.Close() }

var _ OrderStore = (*PebbleStore)(nil)

// SaveOrder writes the record and its sender index entry in one batch.
func (s *PebbleStore) SaveOrder(rec *OrderRecord) error {
	data, err := encodeValue("order", rec)
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set(orderKey(rec.ID), data, nil); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	if rec.Sender != "" {
		if err := batch.Set(senderIndexKey(rec.Sender, rec.ID), nil, nil); err != nil {
			return fmt.Errorf("failed to index order: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// LoadOrder returns ErrNotFound when the id is unknown.
func (s *PebbleStore) LoadOrder(id string) (*OrderRecord, error) {
	data, closer, err := s.db.Get(orderKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	defer closer.Close()

	var rec OrderRecord
	if err := decodeValue("order", data, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListOrders returns up to limit orders. An empty sender scans every order;
// otherwise the sender index is used. limit <= 0 means no limit.
func (s *PebbleStore) ListOrders(sender string, limit int) ([]*OrderRecord, error) {
	if sender == "" {
		return s.scanOrders(limit)
	}

	prefix := senderPrefix(sender)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var orders []*OrderRecord
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(orders) >= limit {
			break
		}
		id := string(bytes.TrimPrefix(iter.Key(), prefix))
		rec, err := s.LoadOrder(id)
		if errors.Is(err, ErrNotFound) {
			continue // stale index entry
		}
		if err != nil {
			return nil, err
		}
		orders = append(orders, rec)
	}
	return orders, nil
}

func (s *PebbleStore) scanOrders(limit int) ([]*OrderRecord, error) {
	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var orders []*OrderRecord
	for iter.First(); iter.Valid(); iter.Next() {
		if limit > 0 && len(orders) >= limit {
			break
		}
		var rec OrderRecord
		if err := decodeValue("order", iter.Value(), &rec); err != nil {
			continue // Skip invalid entries
		}
		orders = append(orders, &rec)
	}
	return orders, nil
}

// DeleteOrder removes an order and its index entry. Deleting a missing order is not an error.
func (s *PebbleStore) DeleteOrder(id string) error {
	rec, err := s.LoadOrder(id)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Delete(orderKey(id), nil); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if rec.Sender != "" {
		if err := batch.Delete(senderIndexKey(rec.Sender, id), nil); err != nil {
			return fmt.Errorf("failed to delete order index: %w", err)
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	return nil
}

// SaveMatch persists a match to Pebble
func (s *PebbleStore) SaveMatch(m *MatchRecord) error {
	data, err := encodeValue("match", m)
	if err != nil {
		return err
	}
	if err := s.db.Set(matchKey(m.Timestamp, m.ID), data, pebble.NoSync); err != nil {
		return fmt.Errorf("failed to save match: %w", err)
	}
	return nil
}

// LoadRecentMatches loads the most recent N matches, newest first
func (s *PebbleStore) LoadRecentMatches(limit int) ([]*MatchRecord, error) {
	prefix := []byte(prefixMatch)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open iterator: %w", err)
	}
	defer iter.Close()

	var matches []*MatchRecord
	for iter.Last(); iter.Valid() && (limit <= 0 || len(matches) < limit); iter.Prev() {
		var m MatchRecord
		if err := decodeValue("match", iter.Value(), &m); err != nil {
			continue
		}
		matches = append(matches, &m)
	}
	return matches, nil
}
