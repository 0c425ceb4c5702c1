// Package prefilter picks the literal each signature contributes to the
// multi-pattern matcher and groups those literals per buffer.
package prefilter

import (
	"sort"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/signature"
)

type Mode string

const (
	ModeExplicit Mode = "explicit"
	ModeOnly     Mode = "only"
	ModeChop     Mode = "chop"
	ModeAuto     Mode = "auto"
)

// Pattern is the fast pattern of one signature.
type Pattern struct {
	SID     uint64       `json:"sid"`
	Buffer  buffers.Kind `json:"-"`
	Bytes   []byte       `json:"bytes"`
	Nocase  bool         `json:"nocase"`
	Negated bool         `json:"negated"`
	Mode    Mode         `json:"mode"`
}

// Usable reports whether the pattern can gate the signature in the matcher.
// A negated literal only proves the rule cannot match, and an empty chop
// matches everywhere.
func (p Pattern) Usable() bool {
	return !p.Negated && len(p.Bytes) > 0
}

// Select returns the fast pattern of sig. An explicit fast_pattern wins;
// otherwise the first registry buffer holding a non-negated content
// supplies its longest literal. ok is false when the signature has no
// usable content.
func Select(sig *signature.Signature, reg *buffers.Registry) (Pattern, bool) {
	if c := sig.FastPattern(); c != nil {
		mode := ModeExplicit
		switch {
		case c.Has(signature.FlagFastPatternOnly):
			mode = ModeOnly
		case c.Has(signature.FlagFastPatternChop):
			mode = ModeChop
		}
		return newPattern(sig, c, mode), true
	}

	for _, entry := range reg.Entries() {
		var best *signature.Content
		for _, c := range sig.Contents(entry.Kind) {
			if c.Has(signature.FlagNegated) {
				continue
			}
			if best == nil || len(c.Pattern) > len(best.Pattern) {
				best = c
			}
		}
		if best != nil {
			return newPattern(sig, best, ModeAuto), true
		}
	}
	return Pattern{}, false
}

func newPattern(sig *signature.Signature, c *signature.Content, mode Mode) Pattern {
	return Pattern{
		SID:     sig.ID,
		Buffer:  c.Buffer,
		Bytes:   append([]byte(nil), c.FastPatternBytes()...),
		Nocase:  c.Has(signature.FlagNocase),
		Negated: c.Has(signature.FlagNegated),
		Mode:    mode,
	}
}

// Group holds the patterns scanned against one buffer.
type Group struct {
	Buffer   buffers.Kind
	Patterns []Pattern
}

// Set is the per-buffer input of the matcher builder.
type Set struct {
	Groups []Group
	// Unfiltered lists signatures without a usable fast pattern, including
	// negated or empty explicit ones; they are evaluated on every inspection.
	Unfiltered []uint64
}

// Build selects a pattern for every signature. Groups follow registry order
// and patterns within a group are sorted by sid.
func Build(sigs []*signature.Signature, reg *buffers.Registry) *Set {
	byBuffer := map[buffers.Kind][]Pattern{}
	set := &Set{}
	for _, sig := range sigs {
		p, ok := Select(sig, reg)
		if !ok || !p.Usable() {
			set.Unfiltered = append(set.Unfiltered, sig.ID)
			continue
		}
		byBuffer[p.Buffer] = append(byBuffer[p.Buffer], p)
	}

	// Buffers missing from the registry go last, in declaration order.
	order := make([]buffers.Kind, 0, buffers.NumKinds)
	for _, entry := range reg.Entries() {
		order = append(order, entry.Kind)
	}
	for _, kind := range buffers.Kinds() {
		if _, ok := reg.Priority(kind); !ok {
			order = append(order, kind)
		}
	}

	for _, kind := range order {
		patterns := byBuffer[kind]
		if len(patterns) == 0 {
			continue
		}
		sort.SliceStable(patterns, func(i, j int) bool { return patterns[i].SID < patterns[j].SID })
		set.Groups = append(set.Groups, Group{Buffer: kind, Patterns: patterns})
	}
	sort.Slice(set.Unfiltered, func(i, j int) bool { return set.Unfiltered[i] < set.Unfiltered[j] })
	return set
}

func (s *Set) Len() int {
	n := 0
	for _, g := range s.Groups {
		n += len(g.Patterns)
	}
	return n
}
