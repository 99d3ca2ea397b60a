// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package store

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/tunegate/internal/quality"
)

// MemoryStore is a map-backed ProfileStore.
type MemoryStore struct {
	table *quality.TierTable

	mu     sync.RWMutex
	byName map[string]*quality.Profile
	nextID int
}

// NewMemoryStore creates an empty store validating against table.
func NewMemoryStore(table *quality.TierTable) *MemoryStore {
	return &MemoryStore{
		table:  table,
		byName: make(map[string]*quality.Profile),
		nextID: 1,
	}
}

func (s *MemoryStore) Put(ctx context.Context, doc quality.ProfileDocument) (*quality.Profile, error) {
	p, err := quality.NewProfile(s.table, doc)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := profileKey(p.Name())
	id := doc.ID
	if existing, ok := s.byName[key]; ok && id == 0 {
		id = existing.ID()
	}
	if id != 0 {
		for k, other := range s.byName {
			if other.ID() == id && k != key {
				return nil, ErrIDConflict
			}
		}
	} else {
		id = s.nextID
	}
	if id >= s.nextID {
		s.nextID = id + 1
	}

	p = p.WithID(id)
	s.byName[key] = p
	return p, nil
}

func (s *MemoryStore) Get(ctx context.Context, name string) (*quality.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byName[profileKey(name)]
	if !ok {
		return nil, ErrProfileNotFound
	}
	return p, nil
}

func (s *MemoryStore) GetByID(ctx context.Context, id int) (*quality.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.byName {
		if p.ID() == id {
			return p, nil
		}
	}
	return nil, ErrProfileNotFound
}

func (s *MemoryStore) List(ctx context.Context) ([]*quality.Profile, error) {
	s.mu.RLock()
	out := make([]*quality.Profile, 0, len(s.byName))
	for _, p := range s.byName {
		out = append(out, p)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *MemoryStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := profileKey(name)
	if _, ok := s.byName[key]; !ok {
		return ErrProfileNotFound
	}
	delete(s.byName, key)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
