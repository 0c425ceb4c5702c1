package prefilter

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klyr/fastpat/internal/buffers"
	"github.com/klyr/fastpat/internal/signature"
)

func content(sig *signature.Signature, kind buffers.Kind, pattern string, flags signature.Flags) *signature.Content {
	c := &signature.Content{Pattern: []byte(pattern), Buffer: kind, Flags: flags}
	sig.AddContent(c)
	return c
}

func TestSelectExplicitChop(t *testing.T) {
	reg := buffers.MustDefault(nil)
	sig := signature.New("")
	sig.ID = 7
	content(sig, buffers.Payload, "a-much-longer-literal", 0)
	c := content(sig, buffers.URI, "oneoneone", signature.FlagFastPattern|signature.FlagFastPatternChop)
	c.ChopOffset, c.ChopLength = 3, 4

	p, ok := Select(sig, reg)
	require.True(t, ok)
	want := Pattern{SID: 7, Buffer: buffers.URI, Bytes: []byte("oneo"), Mode: ModeChop}
	assert.Empty(t, cmp.Diff(want, p))
}

func TestSelectExplicitModes(t *testing.T) {
	reg := buffers.MustDefault(nil)

	sig := signature.New("")
	content(sig, buffers.Payload, "one", signature.FlagFastPattern|signature.FlagFastPatternOnly|signature.FlagNocase)
	p, ok := Select(sig, reg)
	require.True(t, ok)
	assert.Equal(t, ModeOnly, p.Mode)
	assert.True(t, p.Nocase)

	sig = signature.New("")
	content(sig, buffers.Payload, "one", signature.FlagFastPattern|signature.FlagNegated)
	p, ok = Select(sig, reg)
	require.True(t, ok)
	assert.Equal(t, ModeExplicit, p.Mode)
	assert.True(t, p.Negated)
	assert.False(t, p.Usable(), "a negated literal cannot gate its rule")
}

func TestBuildKeepsNegatedAndEmptyPatternsOutOfGroups(t *testing.T) {
	reg := buffers.MustDefault(nil)

	negated := signature.New("")
	negated.ID = 1
	content(negated, buffers.Payload, "evil", signature.FlagFastPattern|signature.FlagNegated)

	negatedChop := signature.New("")
	negatedChop.ID = 2
	c := content(negatedChop, buffers.URI, "evilevil", signature.FlagFastPattern|signature.FlagFastPatternChop|signature.FlagNegated)
	c.ChopOffset, c.ChopLength = 2, 3

	emptyChop := signature.New("")
	emptyChop.ID = 3
	c = content(emptyChop, buffers.Payload, "one", signature.FlagFastPattern|signature.FlagFastPatternChop)
	c.ChopOffset, c.ChopLength = 1, 0

	positive := signature.New("")
	positive.ID = 4
	content(positive, buffers.Payload, "good", signature.FlagFastPattern)

	set := Build([]*signature.Signature{negated, negatedChop, emptyChop, positive}, reg)

	require.Len(t, set.Groups, 1)
	assert.Equal(t, buffers.Payload, set.Groups[0].Buffer)
	require.Len(t, set.Groups[0].Patterns, 1)
	assert.Equal(t, uint64(4), set.Groups[0].Patterns[0].SID)
	assert.Equal(t, []uint64{1, 2, 3}, set.Unfiltered)
}

func TestSelectAutoFollowsRegistryOrder(t *testing.T) {
	reg := buffers.NewRegistry()
	reg.MustRegister(buffers.HTTPCookie, 1)
	reg.MustRegister(buffers.Payload, 2)
	reg.Seal()

	sig := signature.New("")
	content(sig, buffers.Payload, "payload-literal-is-longest", 0)
	content(sig, buffers.HTTPCookie, "sess", 0)
	content(sig, buffers.HTTPCookie, "sessionid", 0)
	content(sig, buffers.HTTPCookie, "negated-and-longest", signature.FlagNegated)

	p, ok := Select(sig, reg)
	require.True(t, ok)
	assert.Equal(t, buffers.HTTPCookie, p.Buffer)
	assert.Equal(t, "sessionid", string(p.Bytes))
	assert.Equal(t, ModeAuto, p.Mode)
}

func TestSelectNoUsableContent(t *testing.T) {
	reg := buffers.MustDefault(nil)
	sig := signature.New("")
	content(sig, buffers.Payload, "one", signature.FlagNegated)

	_, ok := Select(sig, reg)
	assert.False(t, ok)
}

func TestBuildGroupsByBuffer(t *testing.T) {
	reg := buffers.NewRegistry()
	reg.MustRegister(buffers.URI, 1)
	reg.MustRegister(buffers.Payload, 2)
	reg.Seal()

	var sigs []*signature.Signature
	add := func(id uint64, kind buffers.Kind, pattern string, flags signature.Flags) {
		sig := signature.New("")
		sig.ID = id
		content(sig, kind, pattern, flags)
		sigs = append(sigs, sig)
	}
	add(30, buffers.Payload, "zzz", 0)
	add(20, buffers.URI, "/admin", 0)
	add(10, buffers.Payload, "aaa", signature.FlagFastPattern)
	add(40, buffers.Payload, "nope", signature.FlagNegated)
	add(50, buffers.HTTPCookie, "orphan", signature.FlagFastPattern)

	set := Build(sigs, reg)

	require.Len(t, set.Groups, 3)
	assert.Equal(t, buffers.URI, set.Groups[0].Buffer)
	assert.Equal(t, buffers.Payload, set.Groups[1].Buffer)
	assert.Equal(t, buffers.HTTPCookie, set.Groups[2].Buffer)

	var sids []uint64
	for _, p := range set.Groups[1].Patterns {
		sids = append(sids, p.SID)
	}
	assert.Equal(t, []uint64{10, 30}, sids)
	assert.Equal(t, []uint64{40}, set.Unfiltered)
	assert.Equal(t, 4, set.Len())
}
