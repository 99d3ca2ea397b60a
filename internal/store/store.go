// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

// Package store persists quality profiles.
//
// Profiles are stored as their JSON ProfileDocument and rebuilt through
// quality.NewProfile on every read, so a stored profile is always valid
// against the current tier catalog. Two backends exist: an in-memory map for
// tests and ephemeral deployments, and BadgerDB for durable storage.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tomtom215/tunegate/internal/logging"
	"github.com/tomtom215/tunegate/internal/quality"
)

var (
	// ErrProfileNotFound is returned for unknown profile names or ids.
	ErrProfileNotFound = errors.New("quality profile not found")

	// ErrIDConflict is returned when a document carries an id already held
	// by a profile with a different name.
	ErrIDConflict = errors.New("quality profile id already in use")
)

// ProfileStore holds named quality profiles. Names are unique and matched
// case-insensitively; ids are assigned on first insert.
type ProfileStore interface {
	// Put validates doc and inserts or replaces the profile with that name.
	Put(ctx context.Context, doc quality.ProfileDocument) (*quality.Profile, error)
	Get(ctx context.Context, name string) (*quality.Profile, error)
	GetByID(ctx context.Context, id int) (*quality.Profile, error)
	// List returns every profile ordered by id.
	List(ctx context.Context) ([]*quality.Profile, error)
	Delete(ctx context.Context, name string) error
	Close() error
}

// Type selects a ProfileStore backend.
type Type string

const (
	TypeMemory Type = "memory"
	TypeBadger Type = "badger"
)

// Options configures Open.
type Options struct {
	Type Type

	// Path is the BadgerDB directory. Ignored when InMemory is set.
	Path string

	// InMemory runs BadgerDB without touching disk.
	InMemory bool
}

// Open creates the configured backend.
func Open(table *quality.TierTable, opts Options) (ProfileStore, error) {
	switch opts.Type {
	case TypeMemory, "":
		return NewMemoryStore(table), nil
	case TypeBadger:
		return OpenBadgerStore(table, opts.Path, opts.InMemory)
	default:
		return nil, fmt.Errorf("unknown profile store type %q", opts.Type)
	}
}

// SeedPresets stores every preset that has no profile of the same name yet.
// Existing profiles are left untouched so operator edits survive restarts.
func SeedPresets(ctx context.Context, s ProfileStore, table *quality.TierTable, names []string) error {
	for _, name := range names {
		if _, err := s.Get(ctx, name); err == nil {
			continue
		} else if !errors.Is(err, ErrProfileNotFound) {
			return err
		}

		p, err := quality.ExpandPreset(table, name, name)
		if err != nil {
			return err
		}
		if _, err := s.Put(ctx, p.Document()); err != nil {
			return fmt.Errorf("seed preset %s: %w", name, err)
		}
		logging.Info().Str("profile", name).Msg("Seeded quality profile from preset")
	}
	return nil
}

func profileKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
