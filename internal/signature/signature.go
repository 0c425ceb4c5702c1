package signature

import (
	"sort"

	"github.com/klyr/fastpat/internal/buffers"
)

// Option is one keyword of a rule in the order it was written.
type Option struct {
	Keyword string `json:"keyword"`
	Args    string `json:"args"`
}

// Signature is a compiled detection rule.
type Signature struct {
	ID      uint64
	Rev     uint32
	Msg     string
	Raw     string
	Options []Option

	lists [buffers.NumKinds][]*Content
	count int
}

func New(raw string) *Signature {
	return &Signature{Raw: raw}
}

// AddContent appends c to the list of its buffer.
func (s *Signature) AddContent(c *Content) {
	c.idx = s.count
	s.count++
	s.lists[c.Buffer] = append(s.lists[c.Buffer], c)
}

// MoveContent rescopes c to another buffer, keeping its rule position.
func (s *Signature) MoveContent(c *Content, to buffers.Kind) {
	list := s.lists[c.Buffer]
	for i, existing := range list {
		if existing == c {
			s.lists[c.Buffer] = append(list[:i:i], list[i+1:]...)
			break
		}
	}
	c.Buffer = to
	s.lists[to] = append(s.lists[to], c)
	sort.SliceStable(s.lists[to], func(i, j int) bool {
		return s.lists[to][i].idx < s.lists[to][j].idx
	})
}

// Contents returns the conditions scoped to kind in rule order.
func (s *Signature) Contents(kind buffers.Kind) []*Content {
	return s.lists[kind]
}

// LastContent returns the most recently added condition across kinds, or
// across every buffer when kinds is empty.
func (s *Signature) LastContent(kinds ...buffers.Kind) *Content {
	if len(kinds) == 0 {
		kinds = buffers.Kinds()
	}
	var last *Content
	for _, kind := range kinds {
		list := s.lists[kind]
		if len(list) == 0 {
			continue
		}
		if tail := list[len(list)-1]; last == nil || tail.idx > last.idx {
			last = tail
		}
	}
	return last
}

// AllContents returns every condition in rule order.
func (s *Signature) AllContents() []*Content {
	out := make([]*Content, 0, s.count)
	for _, list := range s.lists {
		out = append(out, list...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].idx < out[j].idx })
	return out
}

// FastPattern returns the condition designated as fast pattern, if any.
func (s *Signature) FastPattern() *Content {
	for _, list := range s.lists {
		for _, c := range list {
			if c.Has(FlagFastPattern) {
				return c
			}
		}
	}
	return nil
}
