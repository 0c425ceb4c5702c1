// Package fastpattern applies the fast_pattern directive to the content it
// follows and enforces the rules that keep the chosen pattern usable as a
// prefilter.
package fastpattern

import (
	"math"
	"regexp"
	"strconv"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/signature"
)

const Keyword = "fast_pattern"

// MaxChop bounds chop offset, chop length and their sum.
const MaxChop = math.MaxUint16

var argPattern = regexp.MustCompile(`^\s*(?:(only)|([0-9]+)\s*,\s*([0-9]+))\s*$`)

type form int

const (
	formBare form = iota
	formOnly
	formChop
)

type directive struct {
	form   form
	offset uint64
	length uint64
}

// Apply parses arg and marks the most recent content of sig. On error the
// signature is left untouched.
func Apply(sig *signature.Signature, arg string) error {
	target := sig.LastContent(buffers.FastPatternSearchOrder...)
	if target == nil {
		return signature.Invalidf(Keyword, signature.ReasonNoContent,
			"fast_pattern found inside the rule, without a content context; use a content keyword before fast_pattern")
	}

	d, err := parse(arg)
	if err != nil {
		return err
	}
	if err := validate(sig, target, d); err != nil {
		return err
	}

	switch d.form {
	case formOnly:
		target.Flags |= signature.FlagFastPatternOnly
	case formChop:
		target.Flags |= signature.FlagFastPatternChop
		target.ChopOffset = uint16(d.offset)
		target.ChopLength = uint16(d.length)
	}
	target.Flags |= signature.FlagFastPattern
	return nil
}

func parse(arg string) (directive, error) {
	if arg == "" {
		return directive{form: formBare}, nil
	}

	m := argPattern.FindStringSubmatch(arg)
	switch {
	case m == nil:
		return directive{}, signature.ParseErrorf(Keyword, signature.ReasonSyntax,
			"invalid argument %q, expected empty, \"only\" or \"<offset>,<length>\"", arg)
	case m[1] != "":
		return directive{form: formOnly}, nil
	}

	return directive{form: formChop, offset: parseBound(m[2]), length: parseBound(m[3])}, nil
}

// parseBound saturates digit runs that overflow uint64; any such value is
// already past MaxChop.
func parseBound(digits string) uint64 {
	v, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return math.MaxUint64
	}
	return v
}

func validate(sig *signature.Signature, target *signature.Content, d directive) error {
	if target.Has(signature.FlagFastPattern) {
		return signature.Invalidf(Keyword, signature.ReasonDuplicateFast,
			"can't use multiple fast_pattern options for the same content")
	}
	if other := sig.FastPattern(); other != nil {
		return signature.Invalidf(Keyword, signature.ReasonDuplicateFast,
			"content %q is already the fast pattern of this rule", other.Pattern)
	}

	switch d.form {
	case formOnly:
		if target.Has(signature.FlagNegated | signature.RelativeFlags) {
			return signature.Invalidf(Keyword, signature.ReasonOnlyConflict,
				"fast_pattern:only cannot be used with negated content or with any of the relative modifiers distance, within, offset, depth (content flags %s)", target.Flags)
		}
	case formChop:
		return validateChop(target, d.offset, d.length)
	}
	return nil
}

func validateChop(target *signature.Content, offset, length uint64) error {
	if offset > MaxChop {
		return signature.Invalidf(Keyword, signature.ReasonOffsetLimit,
			"fast pattern offset %d exceeds limit %d", offset, MaxChop)
	}
	if length > MaxChop {
		return signature.Invalidf(Keyword, signature.ReasonLengthLimit,
			"fast pattern length %d exceeds limit %d", length, MaxChop)
	}
	if offset+length > MaxChop {
		return signature.Invalidf(Keyword, signature.ReasonChopLimit,
			"fast pattern (offset + length) %d exceeds limit %d", offset+length, MaxChop)
	}
	if offset+length > uint64(len(target.Pattern)) {
		return signature.Invalidf(Keyword, signature.ReasonChopPastEnd,
			"fast pattern (offset + length) %d exceeds length of content %q (%d bytes)", offset+length, target.Pattern, len(target.Pattern))
	}
	return nil
}

// CheckRelativeModifier rejects a positional modifier on a content already
// marked fast_pattern:only.
func CheckRelativeModifier(target *signature.Content, keyword string) error {
	if target.Has(signature.FlagFastPatternOnly) {
		return signature.Invalidf(keyword, signature.ReasonRelativeAfterOnly,
			"%s cannot be used on content %q with fast_pattern:only", keyword, target.Pattern)
	}
	return nil
}
