// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
)

// Key prefixes for BadgerDB storage
const (
	profileKeyPrefix   = "profile:"
	profileIDKeyPrefix = "profile_id:"
	profileSequenceKey = "seq:profile"
)

// BadgerStore is a ProfileStore backed by BadgerDB.
type BadgerStore struct {
	db    *badger.DB
	seq   *badger.Sequence
	table *quality.TierTable
}

// OpenBadgerStore opens (or creates) the database at path.
func OpenBadgerStore(table *quality.TierTable, path string, inMemory bool) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path)
	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = badgerLogger{}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	s, err := NewBadgerStore(db, table)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewBadgerStore wraps an open database. Close releases the id sequence and
// closes db.
func NewBadgerStore(db *badger.DB, table *quality.TierTable) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(profileSequenceKey), 16)
	if err != nil {
		return nil, fmt.Errorf("profile id sequence: %w", err)
	}
	return &BadgerStore{db: db, seq: seq, table: table}, nil
}

func (s *BadgerStore) Put(ctx context.Context, doc quality.ProfileDocument) (*quality.Profile, error) {
	p, err := quality.NewProfile(s.table, doc)
	if err != nil {
		return nil, err
	}
	key := profileKey(p.Name())

	var stored *quality.Profile
	err = s.db.Update(func(txn *badger.Txn) error {
		existing, err := s.load(txn, key)
		if err != nil && !errors.Is(err, ErrProfileNotFound) {
			return err
		}

		id := doc.ID
		if id == 0 && existing != nil {
			id = existing.ID()
		}
		if id != 0 {
			owner, err := s.ownerOf(txn, id)
			if err != nil {
				return err
			}
			if owner != "" && owner != key {
				return ErrIDConflict
			}
		} else if id, err = s.nextID(txn); err != nil {
			return err
		}

		if existing != nil && existing.ID() != id {
			if err := txn.Delete(idKey(existing.ID())); err != nil {
				return fmt.Errorf("delete id mapping: %w", err)
			}
		}

		stored = p.WithID(id)
		data, err := json.Marshal(stored.Document())
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		if err := txn.Set([]byte(profileKeyPrefix+key), data); err != nil {
			return fmt.Errorf("set profile: %w", err)
		}
		if err := txn.Set(idKey(id), []byte(key)); err != nil {
			return fmt.Errorf("set id mapping: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// nextID draws from the sequence, skipping ids taken by explicit inserts.
// Sequence values start at zero, which is never a valid id.
func (s *BadgerStore) nextID(txn *badger.Txn) (int, error) {
	for {
		n, err := s.seq.Next()
		if err != nil {
			return 0, fmt.Errorf("next profile id: %w", err)
		}
		if n == 0 {
			continue
		}
		owner, err := s.ownerOf(txn, int(n))
		if err != nil {
			return 0, err
		}
		if owner == "" {
			return int(n), nil
		}
	}
}

func (s *BadgerStore) ownerOf(txn *badger.Txn, id int) (string, error) {
	item, err := txn.Get(idKey(id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get id mapping: %w", err)
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return "", err
	}
	return string(val), nil
}

func (s *BadgerStore) load(txn *badger.Txn, key string) (*quality.Profile, error) {
	item, err := txn.Get([]byte(profileKeyPrefix + key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	var doc quality.ProfileDocument
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &doc)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal profile %s: %w", key, err)
	}
	p, err := quality.NewProfile(s.table, doc)
	if err != nil {
		return nil, fmt.Errorf("stored profile %s no longer valid: %w", key, err)
	}
	return p, nil
}

func (s *BadgerStore) Get(ctx context.Context, name string) (*quality.Profile, error) {
	var p *quality.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		p, err = s.load(txn, profileKey(name))
		return err
	})
	return p, err
}

func (s *BadgerStore) GetByID(ctx context.Context, id int) (*quality.Profile, error) {
	var p *quality.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		owner, err := s.ownerOf(txn, id)
		if err != nil {
			return err
		}
		if owner == "" {
			return ErrProfileNotFound
		}
		p, err = s.load(txn, owner)
		return err
	})
	return p, err
}

func (s *BadgerStore) List(ctx context.Context) ([]*quality.Profile, error) {
	var out []*quality.Profile
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(profileKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := strings.TrimPrefix(string(it.Item().Key()), profileKeyPrefix)
			p, err := s.load(txn, key)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out, nil
}

func (s *BadgerStore) Delete(ctx context.Context, name string) error {
	key := profileKey(name)
	return s.db.Update(func(txn *badger.Txn) error {
		existing, err := s.load(txn, key)
		if err != nil {
			return err
		}
		if err := txn.Delete([]byte(profileKeyPrefix + key)); err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		if err := txn.Delete(idKey(existing.ID())); err != nil {
			return fmt.Errorf("delete id mapping: %w", err)
		}
		return nil
	})
}

func (s *BadgerStore) Close() error {
	if err := s.seq.Release(); err != nil {
		logging.Warn().Err(err).Msg("Failed to release profile id sequence")
	}
	return s.db.Close()
}

func idKey(id int) []byte {
	return []byte(profileIDKeyPrefix + strconv.Itoa(id))
}

// badgerLogger routes BadgerDB's internal logging through zerolog. Badger's
// info output is chatty and goes to debug.
type badgerLogger struct{}

func badgerLog() zerolog.Logger { return logging.WithComponent("badger") }

func (badgerLogger) Errorf(format string, args ...interface{}) {
	l := badgerLog()
	l.Error().Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	l := badgerLog()
	l.Warn().Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	l := badgerLog()
	l.Debug().Msgf(strings.TrimSpace(format), args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	l := badgerLog()
	l.Debug().Msgf(strings.TrimSpace(format), args...)
}
