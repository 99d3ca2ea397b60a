// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

import "testing"

func TestExpandPreset(t *testing.T) {
	table := DefaultTierTable()

	tests := []struct {
		preset     string
		allowed    []TierID
		disallowed []TierID
		first      TierID
	}{
		{"lossless-hires", []TierID{FLAC24, FLAC}, []TierID{MP3320, MP3256}, FLAC24},
		{"lossless", []TierID{FLAC, FLAC24, MP3320}, []TierID{MP3256}, FLAC},
		{"high-quality", []TierID{FLAC, MP3320}, []TierID{MP3256, MP3192}, FLAC},
		{"balanced", []TierID{FLAC, MP3320, MP3256}, []TierID{MP3192, FLAC24}, FLAC},
		{"portable", []TierID{MP3320, MP3192}, []TierID{WAV, FLAC}, MP3320},
		{"any", []TierID{FLAC24, FLAC, MP3320, MP3160}, []TierID{WAV}, FLAC24},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			p, err := ExpandPreset(table, tt.preset, "")
			if err != nil {
				t.Fatalf("ExpandPreset failed: %v", err)
			}
			if p.Name() != tt.preset {
				t.Errorf("Name() = %q, want preset name", p.Name())
			}
			for _, id := range tt.allowed {
				if !IsAllowed(p, id) {
					t.Errorf("tier %d should be allowed", id)
				}
			}
			for _, id := range tt.disallowed {
				if IsAllowed(p, id) {
					t.Errorf("tier %d should not be allowed", id)
				}
			}
			if Rank(p, tt.first) != 0 {
				t.Errorf("tier %d should rank first, got %d", tt.first, Rank(p, tt.first))
			}
		})
	}
}

func TestExpandPreset_CustomNameAndUnknown(t *testing.T) {
	table := DefaultTierTable()

	p, err := ExpandPreset(table, DefaultPreset, "My Library")
	if err != nil {
		t.Fatalf("ExpandPreset failed: %v", err)
	}
	if p.Name() != "My Library" {
		t.Errorf("Name() = %q", p.Name())
	}

	if _, err := ExpandPreset(table, "vinyl-rips", ""); err == nil {
		t.Error("expected error for unknown preset")
	}
}

func TestPresetDocument_SkipsMissingTiers(t *testing.T) {
	table, err := NewTierTable([]Tier{
		{ID: FLAC, Name: "FLAC", Lossless: true},
		{ID: MP3320, Name: "MP3-320", NominalBitrateKbps: 320},
	})
	if err != nil {
		t.Fatalf("NewTierTable failed: %v", err)
	}

	doc := Presets["balanced"].Document(table, "trimmed")
	// Lossy Mid has no catalog tiers left and is dropped entirely.
	if len(doc.Items) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(doc.Items))
	}
	p, err := NewProfile(table, doc)
	if err != nil {
		t.Fatalf("NewProfile failed: %v", err)
	}
	if got := p.AllowedTiers(); len(got) != 2 || got[0] != FLAC || got[1] != MP3320 {
		t.Errorf("AllowedTiers() = %v", got)
	}
}

func TestPresetNames_Sorted(t *testing.T) {
	names := PresetNames()
	if len(names) != len(Presets) {
		t.Fatalf("got %d names, want %d", len(names), len(Presets))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("names not sorted: %v", names)
		}
	}
}
