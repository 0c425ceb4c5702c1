package buffers

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterOrdersByPriority(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Payload, 3)
	r.MustRegister(URI, 1)
	r.MustRegister(HTTPHeader, 2)
	r.MustRegister(HTTPCookie, 5)

	want := []Entry{
		{Kind: URI, Priority: 1},
		{Kind: HTTPHeader, Priority: 2},
		{Kind: Payload, Priority: 3},
		{Kind: HTTPCookie, Priority: 5},
	}
	if diff := cmp.Diff(want, r.Entries()); diff != "" {
		t.Fatalf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterLastRegisteredFirstWithinTier(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(URI, 2)
	r.MustRegister(HTTPHeader, 2)
	r.MustRegister(HTTPCookie, 2)
	r.MustRegister(Payload, 1)

	want := []Entry{
		{Kind: Payload, Priority: 1},
		{Kind: HTTPCookie, Priority: 2},
		{Kind: HTTPHeader, Priority: 2},
		{Kind: URI, Priority: 2},
	}
	assert.Empty(t, cmp.Diff(want, r.Entries()), "tier order mismatch")
}

func TestRegisterDuplicateIsConfigurationError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(URI, 2))

	err := r.Register(URI, 4)
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr), "expected ConfigurationError, got %v", err)
	assert.Equal(t, URI, cerr.Kind)
	assert.Equal(t, 1, r.Len(), "failed registration must not change the registry")

	assert.Panics(t, func() { r.MustRegister(URI, 2) })
}

func TestRegisterRejectsUnknownKindAndSealed(t *testing.T) {
	r := NewRegistry()
	require.Error(t, r.Register(Kind(200), 1))

	r.Seal()
	require.Error(t, r.Register(Payload, 1))
	assert.Equal(t, 0, r.Len())
}

func TestEntriesReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Payload, 3)

	entries := r.Entries()
	entries[0].Priority = 99

	p, ok := r.Priority(Payload)
	require.True(t, ok)
	assert.Equal(t, 3, p)
}

func TestDefaultRegistry(t *testing.T) {
	r, err := Default(nil)
	require.NoError(t, err)
	require.Equal(t, NumKinds, r.Len())
	assert.True(t, r.Sealed())

	entries := r.Entries()
	last := entries[len(entries)-1]
	assert.Equal(t, Payload, last.Kind, "payload has the highest tier")

	// HTTP buffers share a tier, so the last one registered is first.
	assert.Equal(t, HTTPRawHost, entries[0].Kind)
	assert.Equal(t, URI, entries[len(entries)-2].Kind)
}

func TestDefaultRegistryOverrides(t *testing.T) {
	r, err := Default(map[Kind]int{HTTPCookie: 1, Payload: 2})
	require.NoError(t, err)

	entries := r.Entries()
	assert.Equal(t, Entry{Kind: HTTPCookie, Priority: 1}, entries[0])
	assert.Equal(t, HTTPRawHost, entries[1].Kind)
	assert.Equal(t, Entry{Kind: Payload, Priority: 2}, entries[len(entries)-1])

	_, err = Default(map[Kind]int{Kind(99): 1})
	require.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds() {
		got, ok := ParseKind(k.String())
		if !ok || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, ok)
		}
	}
	if _, ok := ParseKind("http_bogus"); ok {
		t.Fatalf("expected unknown buffer name to fail")
	}
	if len(FastPatternSearchOrder) != NumKinds {
		t.Fatalf("search order covers %d of %d buffers", len(FastPatternSearchOrder), NumKinds)
	}
}
