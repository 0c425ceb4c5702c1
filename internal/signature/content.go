package signature

import (
	"strings"

	"github.com/klyr/fastpat/internal/buffers"
)

type Flags uint16

const (
	FlagNegated Flags = 1 << iota
	FlagNocase
	FlagDistance
	FlagWithin
	FlagOffset
	FlagDepth
	FlagFastPattern
	FlagFastPatternOnly
	FlagFastPatternChop
)

// RelativeFlags are the positional modifiers that conflict with
// fast_pattern:only.
const RelativeFlags = FlagDistance | FlagWithin | FlagOffset | FlagDepth

var flagNames = []struct {
	flag Flags
	name string
}{
	{FlagNegated, "negated"},
	{FlagNocase, "nocase"},
	{FlagDistance, "distance"},
	{FlagWithin, "within"},
	{FlagOffset, "offset"},
	{FlagDepth, "depth"},
	{FlagFastPattern, "fast_pattern"},
	{FlagFastPatternOnly, "fast_pattern_only"},
	{FlagFastPatternChop, "fast_pattern_chop"},
}

func (f Flags) Has(mask Flags) bool {
	return f&mask != 0
}

func (f Flags) String() string {
	var names []string
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// Content is a literal byte pattern scoped to one buffer of a signature.
type Content struct {
	Pattern []byte
	Buffer  buffers.Kind
	Flags   Flags

	Distance int
	Within   int
	Offset   int
	Depth    int

	ChopOffset uint16
	ChopLength uint16

	// idx is the position of the condition in rule order.
	idx int
}

func (c *Content) Has(mask Flags) bool {
	return c.Flags.Has(mask)
}

// FastPatternBytes returns the part of the literal handed to the matcher.
func (c *Content) FastPatternBytes() []byte {
	if c.Has(FlagFastPatternChop) {
		return c.Pattern[c.ChopOffset : int(c.ChopOffset)+int(c.ChopLength)]
	}
	return c.Pattern
}

// Index is the position of the condition among the rule's contents.
func (c *Content) Index() int {
	return c.idx
}
