// Tunegate - Music Library Acquisition Gate
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tunegate

package quality

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProfile marks every structural profile violation. Use errors.Is to
// detect it; errors.As with *ProfileError gives the offending profile name.
var ErrInvalidProfile = errors.New("invalid quality profile")

// ProfileError describes why a profile failed validation.
type ProfileError struct {
	Profile string
	Reason  string
	Err     error
}

func (e *ProfileError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid profile %q: %s: %v", e.Profile, e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid profile %q: %s", e.Profile, e.Reason)
}

// Unwrap exposes both ErrInvalidProfile and the underlying cause.
func (e *ProfileError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidProfile, e.Err}
	}
	return []error{ErrInvalidProfile}
}

// ItemDocument is the serialized form of a profile item. A leaf sets Tier; a
// group sets Name and Items. Setting both is invalid.
type ItemDocument struct {
	Tier    *TierID        `json:"tier,omitempty" koanf:"tier"`
	Name    string         `json:"name,omitempty" koanf:"name"`
	Allowed bool           `json:"allowed" koanf:"allowed"`
	Items   []ItemDocument `json:"items,omitempty" koanf:"items"`
}

// IsGroup reports whether the document describes a group.
func (d ItemDocument) IsGroup() bool {
	return d.Tier == nil
}

// ProfileDocument is the serialized form of a quality profile, as held by the
// profile store and the configuration file.
type ProfileDocument struct {
	ID             int            `json:"id" koanf:"id"`
	Name           string         `json:"name" koanf:"name"`
	UpgradeAllowed bool           `json:"upgrade_allowed" koanf:"upgrade_allowed"`
	Cutoff         TierID         `json:"cutoff" koanf:"cutoff"`
	Items          []ItemDocument `json:"items" koanf:"items"`
}

// Leaf builds a leaf item document.
func Leaf(id TierID, allowed bool) ItemDocument {
	return ItemDocument{Tier: &id, Allowed: allowed}
}

// Group builds a group item document.
func Group(name string, allowed bool, items ...ItemDocument) ItemDocument {
	return ItemDocument{Name: name, Allowed: allowed, Items: items}
}

type nodeKind uint8

const (
	leafNode nodeKind = iota
	groupNode
)

// node is one arena slot. Children are linked first-child/next-sibling so a
// traversal walks indices without allocating.
type node struct {
	kind       nodeKind
	tier       TierID
	name       string
	allowed    bool
	firstChild int
	nextSib    int
}

const none = -1

// Profile is a validated, read-only quality profile. Construct it with
// NewProfile; the zero value is not usable.
type Profile struct {
	id             int
	name           string
	upgradeAllowed bool
	cutoff         TierID

	nodes     []node
	firstRoot int

	// rank holds the depth-first position of each effectively allowed tier.
	rank    map[TierID]int
	allowed []TierID
}

// NewProfile compiles doc into the arena representation and validates it
// against the tier catalog. Any violation is reported as a *ProfileError.
func NewProfile(table *TierTable, doc ProfileDocument) (*Profile, error) {
	name := strings.TrimSpace(doc.Name)
	if name == "" {
		return nil, &ProfileError{Profile: doc.Name, Reason: "name is required"}
	}
	if table == nil {
		return nil, &ProfileError{Profile: name, Reason: "tier catalog is required"}
	}

	p := &Profile{
		id:             doc.ID,
		name:           name,
		upgradeAllowed: doc.UpgradeAllowed,
		cutoff:         doc.Cutoff,
		firstRoot:      none,
	}

	seen := make(map[TierID]struct{})
	first, err := p.compile(table, doc.Items, seen)
	if err != nil {
		return nil, err
	}
	p.firstRoot = first
	p.index()

	if p.cutoff == Unknown {
		return nil, &ProfileError{Profile: name, Reason: "cutoff cannot be the Unknown tier"}
	}
	if _, ok := p.rank[p.cutoff]; !ok {
		return nil, &ProfileError{
			Profile: name,
			Reason:  fmt.Sprintf("cutoff tier %d is not an allowed leaf", p.cutoff),
		}
	}
	if r, ok := p.rank[Unknown]; ok && r != len(p.allowed)-1 {
		return nil, &ProfileError{Profile: name, Reason: "the Unknown tier must rank below every other allowed tier"}
	}

	return p, nil
}

// compile appends items (and their subtrees) to the arena and returns the
// index of the first appended sibling.
func (p *Profile) compile(table *TierTable, items []ItemDocument, seen map[TierID]struct{}) (int, error) {
	first, prev := none, none
	for i := range items {
		item := items[i]
		idx := len(p.nodes)

		switch {
		case item.Tier != nil && len(item.Items) > 0:
			return none, &ProfileError{
				Profile: p.name,
				Reason:  fmt.Sprintf("item for tier %d cannot have children", *item.Tier),
			}
		case item.Tier != nil:
			id := *item.Tier
			if !table.Contains(id) {
				return none, &ProfileError{Profile: p.name, Reason: fmt.Sprintf("tier %d", id), Err: ErrUnknownTier}
			}
			if _, dup := seen[id]; dup {
				return none, &ProfileError{Profile: p.name, Reason: fmt.Sprintf("tier %d", id), Err: ErrDuplicateTier}
			}
			seen[id] = struct{}{}
			p.nodes = append(p.nodes, node{
				kind:       leafNode,
				tier:       id,
				allowed:    item.Allowed,
				firstChild: none,
				nextSib:    none,
			})
		default:
			groupName := strings.TrimSpace(item.Name)
			if groupName == "" {
				return none, &ProfileError{Profile: p.name, Reason: "group name is required"}
			}
			if len(item.Items) == 0 {
				return none, &ProfileError{Profile: p.name, Reason: fmt.Sprintf("group %q is empty", groupName)}
			}
			p.nodes = append(p.nodes, node{
				kind:       groupNode,
				name:       groupName,
				allowed:    item.Allowed,
				firstChild: none,
				nextSib:    none,
			})
			child, err := p.compile(table, item.Items, seen)
			if err != nil {
				return none, err
			}
			p.nodes[idx].firstChild = child
		}

		if prev != none {
			p.nodes[prev].nextSib = idx
		} else {
			first = idx
		}
		prev = idx
	}
	return first, nil
}

// index flattens the tree depth-first, keeping only leaves whose own flag and
// every ancestor group flag are set.
func (p *Profile) index() {
	p.rank = make(map[TierID]int)
	p.allowed = p.allowed[:0]

	var walk func(idx int, parentAllowed bool)
	walk = func(idx int, parentAllowed bool) {
		for ; idx != none; idx = p.nodes[idx].nextSib {
			n := &p.nodes[idx]
			effective := parentAllowed && n.allowed
			if n.kind == groupNode {
				walk(n.firstChild, effective)
				continue
			}
			if effective {
				p.rank[n.tier] = len(p.allowed)
				p.allowed = append(p.allowed, n.tier)
			}
		}
	}
	walk(p.firstRoot, true)
}

// ID returns the store-assigned profile id.
func (p *Profile) ID() int { return p.id }

// Name returns the unique profile name.
func (p *Profile) Name() string { return p.name }

// UpgradeAllowed reports whether the profile replaces existing files.
func (p *Profile) UpgradeAllowed() bool { return p.upgradeAllowed }

// Cutoff returns the tier at which upgrades stop.
func (p *Profile) Cutoff() TierID { return p.cutoff }

// AllowedTiers returns the allowed tiers in rank order, most preferred first.
func (p *Profile) AllowedTiers() []TierID {
	out := make([]TierID, len(p.allowed))
	copy(out, p.allowed)
	return out
}

// Document converts the profile back to its serialized form.
func (p *Profile) Document() ProfileDocument {
	return ProfileDocument{
		ID:             p.id,
		Name:           p.name,
		UpgradeAllowed: p.upgradeAllowed,
		Cutoff:         p.cutoff,
		Items:          p.documentItems(p.firstRoot),
	}
}

func (p *Profile) documentItems(idx int) []ItemDocument {
	var items []ItemDocument
	for ; idx != none; idx = p.nodes[idx].nextSib {
		n := p.nodes[idx]
		if n.kind == leafNode {
			items = append(items, Leaf(n.tier, n.allowed))
			continue
		}
		items = append(items, Group(n.name, n.allowed, p.documentItems(n.firstChild)...))
	}
	return items
}

// WithID returns a copy of the profile carrying a different id. The store
// uses it when assigning ids on insert.
func (p *Profile) WithID(id int) *Profile {
	cp := *p
	cp.id = id
	return &cp
}
