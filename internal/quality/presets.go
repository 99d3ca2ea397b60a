// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

import (
	"fmt"
	"sort"
)

// Preset is a named, catalog-independent recipe for a profile. Groups are
// listed most preferred first.
type Preset struct {
	Name           string
	Description    string
	Groups         []PresetGroup
	Cutoff         TierID
	UpgradeAllowed bool
}

// PresetGroup is one named band of tiers inside a preset.
type PresetGroup struct {
	Name    string
	Allowed bool
	Tiers   []TierID
}

var (
	groupHiRes       = []TierID{FLAC24, ALAC24}
	groupLossless    = []TierID{FLAC, ALAC, APE, WavPack}
	groupLossyHigh   = []TierID{MP3320, AAC320, VorbisQ10, VorbisQ9}
	groupLossyMid    = []TierID{MP3256, AAC256, VorbisQ8, MP3VBR}
	groupLossyLow    = []TierID{MP3192, AAC192, MP3VBRV2, AACVBR}
	groupLossyPoor   = []TierID{MP3160}
	groupLosslessRaw = []TierID{WAV}
)

// Presets holds the built-in audio presets keyed by name.
var Presets = map[string]Preset{
	"lossless-hires": {
		Name:        "lossless-hires",
		Description: "24-bit lossless preferred, 16-bit lossless accepted",
		Groups: []PresetGroup{
			{Name: "Lossless 24bit", Allowed: true, Tiers: groupHiRes},
			{Name: "Lossless", Allowed: true, Tiers: groupLossless},
			{Name: "Lossy High", Allowed: false, Tiers: groupLossyHigh},
		},
		Cutoff:         FLAC24,
		UpgradeAllowed: true,
	},
	"lossless": {
		Name:        "lossless",
		Description: "16-bit lossless (FLAC, ALAC)",
		Groups: []PresetGroup{
			{Name: "Lossless", Allowed: true, Tiers: groupLossless},
			{Name: "Lossless 24bit", Allowed: true, Tiers: groupHiRes},
			{Name: "Lossy High", Allowed: true, Tiers: groupLossyHigh},
		},
		Cutoff:         FLAC,
		UpgradeAllowed: true,
	},
	"high-quality": {
		Name:        "high-quality",
		Description: "320kbps lossy or lossless",
		Groups: []PresetGroup{
			{Name: "Lossless", Allowed: true, Tiers: groupLossless},
			{Name: "Lossy High", Allowed: true, Tiers: groupLossyHigh},
			{Name: "Lossy Mid", Allowed: false, Tiers: groupLossyMid},
		},
		Cutoff:         FLAC,
		UpgradeAllowed: true,
	},
	"balanced": {
		Name:        "balanced",
		Description: "256kbps+ lossy or lossless",
		Groups: []PresetGroup{
			{Name: "Lossless", Allowed: true, Tiers: groupLossless},
			{Name: "Lossy High", Allowed: true, Tiers: groupLossyHigh},
			{Name: "Lossy Mid", Allowed: true, Tiers: groupLossyMid},
		},
		Cutoff:         MP3320,
		UpgradeAllowed: true,
	},
	"portable": {
		Name:        "portable",
		Description: "192-320kbps for mobile devices",
		Groups: []PresetGroup{
			{Name: "Lossy High", Allowed: true, Tiers: groupLossyHigh},
			{Name: "Lossy Mid", Allowed: true, Tiers: groupLossyMid},
			{Name: "Lossy Low", Allowed: true, Tiers: groupLossyLow},
			{Name: "Lossless Raw", Allowed: false, Tiers: groupLosslessRaw},
		},
		Cutoff:         MP3320,
		UpgradeAllowed: true,
	},
	"any": {
		Name:        "any",
		Description: "Accept anything, upgrade until lossless",
		Groups: []PresetGroup{
			{Name: "Lossless 24bit", Allowed: true, Tiers: groupHiRes},
			{Name: "Lossless", Allowed: true, Tiers: groupLossless},
			{Name: "Lossy High", Allowed: true, Tiers: groupLossyHigh},
			{Name: "Lossy Mid", Allowed: true, Tiers: groupLossyMid},
			{Name: "Lossy Low", Allowed: true, Tiers: groupLossyLow},
			{Name: "Lossy Poor", Allowed: true, Tiers: groupLossyPoor},
		},
		Cutoff:         FLAC,
		UpgradeAllowed: true,
	},
}

// DefaultPreset is used when a configuration names no preset.
const DefaultPreset = "balanced"

// PresetNames returns the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Document expands the preset into a profile document named profileName.
// Tiers missing from the catalog are skipped so a trimmed catalog still works.
func (ps Preset) Document(table *TierTable, profileName string) ProfileDocument {
	doc := ProfileDocument{
		Name:           profileName,
		UpgradeAllowed: ps.UpgradeAllowed,
		Cutoff:         ps.Cutoff,
	}
	for _, g := range ps.Groups {
		var leaves []ItemDocument
		for _, id := range g.Tiers {
			if table != nil && !table.Contains(id) {
				continue
			}
			leaves = append(leaves, Leaf(id, true))
		}
		if len(leaves) == 0 {
			continue
		}
		doc.Items = append(doc.Items, Group(g.Name, g.Allowed, leaves...))
	}
	return doc
}

// ExpandPreset builds a validated profile from the named preset.
func ExpandPreset(table *TierTable, presetName, profileName string) (*Profile, error) {
	preset, ok := Presets[presetName]
	if !ok {
		return nil, fmt.Errorf("unknown quality preset %q", presetName)
	}
	if profileName == "" {
		profileName = preset.Name
	}
	return NewProfile(table, preset.Document(table, profileName))
}
