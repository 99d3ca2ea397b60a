// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// TierID identifies an audio quality tier. It is the only identity a tier has.
type TierID int

// Unknown is the reserved sentinel tier. It is always a valid id but is never
// accepted as a profile cutoff.
const Unknown TierID = 0

var (
	// ErrUnknownTier is returned when a tier id is not in the catalog.
	ErrUnknownTier = errors.New("unknown quality tier")

	// ErrDuplicateTier is returned when a catalog or profile lists a tier twice.
	ErrDuplicateTier = errors.New("duplicate quality tier")
)

// Tier is one named audio quality level such as FLAC or MP3-320.
type Tier struct {
	ID       TierID `json:"id" koanf:"id"`
	Name     string `json:"name" koanf:"name"`
	Lossless bool   `json:"lossless" koanf:"lossless"`

	// NominalBitrateKbps is the nominal bitrate; 0 means variable or unknown.
	NominalBitrateKbps int `json:"nominal_bitrate_kbps,omitempty" koanf:"nominal_bitrate_kbps"`
}

// Bitrate returns the nominal bitrate and whether the tier has one.
func (t Tier) Bitrate() (int, bool) {
	return t.NominalBitrateKbps, t.NominalBitrateKbps > 0
}

func (t Tier) String() string {
	return t.Name
}

// TierTable is the immutable catalog of known tiers. It is built once at
// startup and is safe for concurrent reads.
type TierTable struct {
	byID   map[TierID]Tier
	byName map[string]TierID
	order  []TierID
}

// NewTierTable builds a catalog from the given tiers. The Unknown sentinel is
// added automatically when absent.
func NewTierTable(tiers []Tier) (*TierTable, error) {
	t := &TierTable{
		byID:   make(map[TierID]Tier, len(tiers)+1),
		byName: make(map[string]TierID, len(tiers)+1),
		order:  make([]TierID, 0, len(tiers)+1),
	}

	for _, tier := range tiers {
		if tier.ID < 0 {
			return nil, fmt.Errorf("tier %q: negative id %d", tier.Name, tier.ID)
		}
		if strings.TrimSpace(tier.Name) == "" {
			return nil, fmt.Errorf("tier %d: name is required", tier.ID)
		}
		if _, exists := t.byID[tier.ID]; exists {
			return nil, fmt.Errorf("%w: id %d", ErrDuplicateTier, tier.ID)
		}
		key := normalizeName(tier.Name)
		if _, exists := t.byName[key]; exists {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateTier, tier.Name)
		}
		t.byID[tier.ID] = tier
		t.byName[key] = tier.ID
		t.order = append(t.order, tier.ID)
	}

	if _, ok := t.byID[Unknown]; !ok {
		unknown := Tier{ID: Unknown, Name: "Unknown"}
		t.byID[Unknown] = unknown
		t.byName[normalizeName(unknown.Name)] = Unknown
		t.order = append(t.order, Unknown)
	}

	sort.Slice(t.order, func(i, j int) bool { return t.order[i] < t.order[j] })
	return t, nil
}

// Lookup returns the tier with the given id.
func (t *TierTable) Lookup(id TierID) (Tier, bool) {
	tier, ok := t.byID[id]
	return tier, ok
}

// Contains reports whether id is in the catalog.
func (t *TierTable) Contains(id TierID) bool {
	_, ok := t.byID[id]
	return ok
}

// ByName resolves a tier by its case-insensitive name ("flac", "MP3-320").
func (t *TierTable) ByName(name string) (Tier, bool) {
	id, ok := t.byName[normalizeName(name)]
	if !ok {
		return Tier{}, false
	}
	return t.byID[id], true
}

// All returns every tier ordered by id.
func (t *TierTable) All() []Tier {
	out := make([]Tier, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// Len returns the number of tiers including Unknown.
func (t *TierTable) Len() int {
	return len(t.order)
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
