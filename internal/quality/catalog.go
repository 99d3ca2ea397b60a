// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

// Catalog tier ids. The numbering follows the *arr audio quality definitions
// so ids reported by external tag detection can be used directly.
const (
	MP3192    TierID = 1
	MP3VBR    TierID = 2
	MP3256    TierID = 3
	MP3320    TierID = 4
	MP3160    TierID = 5
	FLAC      TierID = 6
	ALAC      TierID = 7
	MP3VBRV2  TierID = 8
	AAC192    TierID = 9
	AAC256    TierID = 10
	AAC320    TierID = 11
	AACVBR    TierID = 12
	WAV       TierID = 13
	VorbisQ10 TierID = 14
	VorbisQ9  TierID = 15
	VorbisQ8  TierID = 16
	APE       TierID = 17
	WavPack   TierID = 18
	FLAC24    TierID = 21
	ALAC24    TierID = 22
)

// DefaultTiers is the built-in audio catalog.
var DefaultTiers = []Tier{
	{ID: Unknown, Name: "Unknown"},
	{ID: MP3160, Name: "MP3-160", NominalBitrateKbps: 160},
	{ID: MP3192, Name: "MP3-192", NominalBitrateKbps: 192},
	{ID: MP3VBR, Name: "MP3-VBR-V0"},
	{ID: MP3VBRV2, Name: "MP3-VBR-V2"},
	{ID: MP3256, Name: "MP3-256", NominalBitrateKbps: 256},
	{ID: MP3320, Name: "MP3-320", NominalBitrateKbps: 320},
	{ID: AAC192, Name: "AAC-192", NominalBitrateKbps: 192},
	{ID: AAC256, Name: "AAC-256", NominalBitrateKbps: 256},
	{ID: AAC320, Name: "AAC-320", NominalBitrateKbps: 320},
	{ID: AACVBR, Name: "AAC-VBR"},
	{ID: VorbisQ8, Name: "OGG Vorbis Q8", NominalBitrateKbps: 256},
	{ID: VorbisQ9, Name: "OGG Vorbis Q9", NominalBitrateKbps: 320},
	{ID: VorbisQ10, Name: "OGG Vorbis Q10", NominalBitrateKbps: 500},
	{ID: FLAC, Name: "FLAC", Lossless: true},
	{ID: ALAC, Name: "ALAC", Lossless: true},
	{ID: APE, Name: "APE", Lossless: true},
	{ID: WavPack, Name: "WavPack", Lossless: true},
	{ID: WAV, Name: "WAV", Lossless: true, NominalBitrateKbps: 1411},
	{ID: FLAC24, Name: "FLAC 24bit", Lossless: true},
	{ID: ALAC24, Name: "ALAC 24bit", Lossless: true},
}

// DefaultTierTable builds the catalog from DefaultTiers.
func DefaultTierTable() *TierTable {
	table, err := NewTierTable(DefaultTiers)
	if err != nil {
		// DefaultTiers is static; a failure here is a programming error.
		panic(err)
	}
	return table
}
