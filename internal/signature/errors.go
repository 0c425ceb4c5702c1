package signature

import (
	"errors"
	"fmt"
)

type Category string

const (
	CategoryParse   Category = "parse_error"
	CategoryInvalid Category = "invalid_signature"
)

type Reason string

const (
	ReasonSyntax            Reason = "syntax"
	ReasonBadArgument       Reason = "bad_argument"
	ReasonNoContent         Reason = "no_preceding_content"
	ReasonDuplicateFast     Reason = "duplicate_fast_pattern"
	ReasonOnlyConflict      Reason = "only_with_negation_or_relative"
	ReasonRelativeAfterOnly Reason = "relative_modifier_after_only"
	ReasonOffsetLimit       Reason = "chop_offset_exceeds_limit"
	ReasonLengthLimit       Reason = "chop_length_exceeds_limit"
	ReasonChopLimit         Reason = "chop_end_exceeds_limit"
	ReasonChopPastEnd       Reason = "chop_past_content_end"
	ReasonDuplicateModifier Reason = "duplicate_modifier"
	ReasonBufferAlreadySet  Reason = "buffer_already_set"
	ReasonEmptyContent      Reason = "empty_content"
	ReasonDuplicateSID      Reason = "duplicate_sid"
	ReasonMissingSID        Reason = "missing_sid"
)

var (
	ErrParse            = errors.New("parse error")
	ErrInvalidSignature = errors.New("invalid signature")
)

// Error rejects a single rule. Keyword names the option that failed.
type Error struct {
	Category Category
	Reason   Reason
	Keyword  string
	Detail   string
}

func (e *Error) Error() string {
	if e.Keyword == "" {
		return fmt.Sprintf("%s: %s", e.Category, e.Detail)
	}
	return fmt.Sprintf("%s: %s: %s", e.Category, e.Keyword, e.Detail)
}

func (e *Error) Is(target error) bool {
	switch target {
	case ErrParse:
		return e.Category == CategoryParse
	case ErrInvalidSignature:
		return e.Category == CategoryInvalid
	}
	return false
}

func ParseErrorf(keyword string, reason Reason, format string, args ...any) *Error {
	return &Error{Category: CategoryParse, Reason: reason, Keyword: keyword, Detail: fmt.Sprintf(format, args...)}
}

func Invalidf(keyword string, reason Reason, format string, args ...any) *Error {
	return &Error{Category: CategoryInvalid, Reason: reason, Keyword: keyword, Detail: fmt.Sprintf(format, args...)}
}
