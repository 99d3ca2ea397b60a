// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/tomtom215/tunegate/internal/quality"
)

type storeFactory struct {
	name string
	open func(t *testing.T) ProfileStore
}

func backends() []storeFactory {
	return []storeFactory{
		{"memory", func(t *testing.T) ProfileStore {
			return NewMemoryStore(quality.DefaultTierTable())
		}},
		{"badger", func(t *testing.T) ProfileStore {
			t.Helper()
			s, err := OpenBadgerStore(quality.DefaultTierTable(), "", true)
			if err != nil {
				t.Fatalf("OpenBadgerStore failed: %v", err)
			}
			return s
		}},
	}
}

func lossless(name string) quality.ProfileDocument {
	return quality.ProfileDocument{
		Name:           name,
		UpgradeAllowed: true,
		Cutoff:         quality.FLAC,
		Items: []quality.ItemDocument{
			quality.Leaf(quality.FLAC, true),
			quality.Leaf(quality.MP3320, true),
		},
	}
}

func TestProfileStore_CRUD(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			ctx := context.Background()

			a, err := s.Put(ctx, lossless("Lossless"))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if a.ID() == 0 {
				t.Fatal("Put should assign an id")
			}
			b, err := s.Put(ctx, lossless("portable"))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if b.ID() == a.ID() {
				t.Errorf("ids should be unique, both %d", a.ID())
			}

			got, err := s.Get(ctx, "LOSSLESS")
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if got.Name() != "Lossless" || got.ID() != a.ID() || got.Cutoff() != quality.FLAC {
				t.Errorf("Get returned %s/%d", got.Name(), got.ID())
			}

			byID, err := s.GetByID(ctx, b.ID())
			if err != nil || byID.Name() != "portable" {
				t.Errorf("GetByID = %v, %v", byID, err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != 2 || list[0].ID() > list[1].ID() {
				t.Errorf("List not ordered by id: %d entries", len(list))
			}

			if err := s.Delete(ctx, "lossless"); err != nil {
				t.Fatalf("Delete failed: %v", err)
			}
			if _, err := s.Get(ctx, "lossless"); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("Get after delete = %v", err)
			}
			if _, err := s.GetByID(ctx, a.ID()); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("GetByID after delete = %v", err)
			}
			if err := s.Delete(ctx, "lossless"); !errors.Is(err, ErrProfileNotFound) {
				t.Errorf("second Delete = %v", err)
			}
		})
	}
}

func TestProfileStore_ReplaceKeepsID(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			ctx := context.Background()

			first, err := s.Put(ctx, lossless("lossless"))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			doc := lossless("lossless")
			doc.UpgradeAllowed = false
			second, err := s.Put(ctx, doc)
			if err != nil {
				t.Fatalf("replace failed: %v", err)
			}
			if second.ID() != first.ID() || second.UpgradeAllowed() {
				t.Errorf("replace: id %d->%d, upgrade %v", first.ID(), second.ID(), second.UpgradeAllowed())
			}
		})
	}
}

func TestProfileStore_ExplicitIDs(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			ctx := context.Background()

			doc := lossless("pinned")
			doc.ID = 1
			if _, err := s.Put(ctx, doc); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			other := lossless("other")
			other.ID = 1
			if _, err := s.Put(ctx, other); !errors.Is(err, ErrIDConflict) {
				t.Errorf("conflicting id = %v, want ErrIDConflict", err)
			}

			auto, err := s.Put(ctx, lossless("auto"))
			if err != nil {
				t.Fatalf("Put failed: %v", err)
			}
			if auto.ID() == 1 {
				t.Error("assigned id collides with explicit id")
			}
		})
	}
}

func TestProfileStore_RejectsInvalidProfiles(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()

			doc := lossless("broken")
			doc.Cutoff = quality.MP3192
			if _, err := s.Put(context.Background(), doc); !errors.Is(err, quality.ErrInvalidProfile) {
				t.Errorf("Put = %v, want ErrInvalidProfile", err)
			}
			list, _ := s.List(context.Background())
			if len(list) != 0 {
				t.Errorf("invalid profile was stored")
			}
		})
	}
}

func TestSeedPresets(t *testing.T) {
	for _, backend := range backends() {
		t.Run(backend.name, func(t *testing.T) {
			s := backend.open(t)
			defer s.Close()
			ctx := context.Background()
			table := quality.DefaultTierTable()

			// An operator edit must survive seeding.
			custom := lossless("lossless")
			custom.UpgradeAllowed = false
			if _, err := s.Put(ctx, custom); err != nil {
				t.Fatalf("Put failed: %v", err)
			}

			if err := SeedPresets(ctx, s, table, quality.PresetNames()); err != nil {
				t.Fatalf("SeedPresets failed: %v", err)
			}
			if err := SeedPresets(ctx, s, table, quality.PresetNames()); err != nil {
				t.Fatalf("second SeedPresets failed: %v", err)
			}

			list, err := s.List(ctx)
			if err != nil {
				t.Fatalf("List failed: %v", err)
			}
			if len(list) != len(quality.PresetNames()) {
				t.Errorf("got %d profiles, want %d", len(list), len(quality.PresetNames()))
			}
			kept, _ := s.Get(ctx, "lossless")
			if kept == nil || kept.UpgradeAllowed() {
				t.Error("seeding overwrote an existing profile")
			}

			if err := SeedPresets(ctx, s, table, []string{"nope"}); err == nil {
				t.Error("expected error for unknown preset")
			}
		})
	}
}

func TestOpen(t *testing.T) {
	table := quality.DefaultTierTable()

	s, err := Open(table, Options{})
	if err != nil {
		t.Fatalf("Open default failed: %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("default store = %T, want *MemoryStore", s)
	}

	b, err := Open(table, Options{Type: TypeBadger, Path: t.TempDir()})
	if err != nil {
		t.Fatalf("Open badger failed: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}

	if _, err := Open(table, Options{Type: "postgres"}); err == nil {
		t.Error("expected error for unknown store type")
	}
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	table := quality.DefaultTierTable()
	ctx := context.Background()

	s, err := OpenBadgerStore(table, dir, false)
	if err != nil {
		t.Fatalf("OpenBadgerStore failed: %v", err)
	}
	stored, err := s.Put(ctx, lossless("lossless"))
	if err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s, err = OpenBadgerStore(table, dir, false)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "lossless")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got.ID() != stored.ID() || len(got.AllowedTiers()) != 2 {
		t.Errorf("reloaded profile differs: id %d, tiers %v", got.ID(), got.AllowedTiers())
	}

	next, err := s.Put(ctx, lossless("second"))
	if err != nil {
		t.Fatalf("Put after reopen failed: %v", err)
	}
	if next.ID() == stored.ID() {
		t.Error("id reused after reopen")
	}
}
