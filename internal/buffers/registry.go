package buffers

import (
	"fmt"
	"strings"
)

const (
	// PayloadPriority is the default tier of the raw payload buffer.
	PayloadPriority = 3
	// HTTPPriority is the default tier of every HTTP sub-buffer.
	HTTPPriority = 2
)

// ConfigurationError reports a broken registry setup. It is never caused by
// rule text and callers treat it as fatal.
type ConfigurationError struct {
	Kind   Kind
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("buffer registry: %s: %s", e.Kind, e.Reason)
}

// Entry is one registered buffer and its priority tier.
type Entry struct {
	Kind     Kind `json:"kind"`
	Priority int  `json:"priority"`
}

// Registry orders the buffers that can supply a fast pattern. It is filled
// once at startup and only read afterwards.
type Registry struct {
	entries []Entry
	seen    [numKinds]bool
	sealed  bool
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Register inserts kind before the first entry whose priority is greater
// than or equal to priority, or at the tail when there is none. Within a
// tier the most recent registration therefore comes first.
func (r *Registry) Register(kind Kind, priority int) error {
	if r.sealed {
		return &ConfigurationError{Kind: kind, Reason: "registry is sealed"}
	}
	if !kind.Valid() {
		return &ConfigurationError{Kind: kind, Reason: "unknown buffer kind"}
	}
	if r.seen[kind] {
		return &ConfigurationError{Kind: kind, Reason: "already registered"}
	}

	entry := Entry{Kind: kind, Priority: priority}
	pos := len(r.entries)
	for i, existing := range r.entries {
		if existing.Priority >= priority {
			pos = i
			break
		}
	}
	r.entries = append(r.entries, Entry{})
	copy(r.entries[pos+1:], r.entries[pos:])
	r.entries[pos] = entry
	r.seen[kind] = true
	return nil
}

// MustRegister is Register for engine startup code; a failure aborts.
func (r *Registry) MustRegister(kind Kind, priority int) {
	if err := r.Register(kind, priority); err != nil {
		panic(err)
	}
}

// Seal makes any later Register call fail.
func (r *Registry) Seal() {
	r.sealed = true
}

func (r *Registry) Sealed() bool {
	return r.sealed
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Entries returns a copy of the registry in priority order.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

func (r *Registry) Priority(kind Kind) (int, bool) {
	for _, e := range r.entries {
		if e.Kind == kind {
			return e.Priority, true
		}
	}
	return 0, false
}

func (r *Registry) String() string {
	parts := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		parts = append(parts, fmt.Sprintf("%s=%d", e.Kind, e.Priority))
	}
	return strings.Join(parts, " ")
}

var defaultOrder = []Kind{
	Payload,
	URI,
	RawURI,
	HTTPClientBody,
	HTTPServerBody,
	HTTPHeader,
	HTTPRawHeader,
	HTTPMethod,
	HTTPCookie,
	HTTPStatMsg,
	HTTPStatCode,
	HTTPUserAgent,
	HTTPHost,
	HTTPRawHost,
}

// Default builds the sealed engine registry. overrides replace the default
// tier of a kind; they never add a second registration.
func Default(overrides map[Kind]int) (*Registry, error) {
	r := NewRegistry()
	for _, kind := range defaultOrder {
		priority := HTTPPriority
		if kind == Payload {
			priority = PayloadPriority
		}
		if p, ok := overrides[kind]; ok {
			priority = p
		}
		if err := r.Register(kind, priority); err != nil {
			return nil, err
		}
	}
	for kind := range overrides {
		if !kind.Valid() {
			return nil, &ConfigurationError{Kind: kind, Reason: "unknown buffer kind"}
		}
	}
	r.Seal()
	return r, nil
}

// MustDefault is Default for startup paths where a failure is a defect.
func MustDefault(overrides map[Kind]int) *Registry {
	r, err := Default(overrides)
	if err != nil {
		panic(err)
	}
	return r
}
