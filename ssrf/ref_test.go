package ssrf_test

import (
	"encoding/xml"
	"slices"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/ssrf/internal/index"
	"github.com/jacentio/ssrf/ssrf"
)

func TestRef_LinkIgnoresDuplicateKeys(t *testing.T) {
	cp := ssrf.NewChannelPlan("CP-1", "Plan one")
	same := ssrf.NewChannelPlan("CP-1", "Other object, same serial")

	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(cp, same, cp)

	require.Len(t, r.Targets(), 1)
	assert.Same(t, cp, r.Targets()[0])
	assert.True(t, r.IsLinked())
	assert.False(t, r.IsSet())
}

func TestRef_FlattenSortsKeys(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(
		ssrf.NewChannelPlan("CP-3", "c"),
		ssrf.NewChannelPlan("CP-1", "a"),
		ssrf.NewChannelPlan("CP-2", "b"),
	)
	r.Flatten()

	assert.Equal(t, []ssrf.Serial{"CP-1", "CP-2", "CP-3"}, r.Keys())
}

func TestRef_FlattenIdempotent(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(ssrf.NewChannelPlan("CP-2", "b"), ssrf.NewChannelPlan("CP-1", "a"))

	r.Flatten()
	first := r.Keys()
	r.Flatten()

	assert.Equal(t, first, r.Keys())
}

func TestRef_FlattenWithoutTargetsKeepsKeys(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.SetKeys("CP-9")
	r.Flatten()

	assert.Equal(t, []ssrf.Serial{"CP-9"}, r.Keys())
}

func TestRef_SetKeysDropsDuplicates(t *testing.T) {
	var r ssrf.Ref[index.Index, *ssrf.Footnote]
	r.SetKeys(3, 1, 3, 2, 1)

	assert.Equal(t, []index.Index{3, 1, 2}, r.Keys())
}

func TestRef_KeysReturnsCopy(t *testing.T) {
	var r ssrf.Ref[index.Index, *ssrf.Footnote]
	r.SetKeys(1, 2)

	keys := r.Keys()
	keys[0] = 99

	assert.Equal(t, []index.Index{1, 2}, r.Keys())
}

func TestRef_Hydrate(t *testing.T) {
	a := ssrf.NewChannelPlan("CP-1", "a")
	b := ssrf.NewChannelPlan("CP-2", "b")
	dup := ssrf.NewChannelPlan("CP-1", "duplicate")
	scope := []*ssrf.ChannelPlan{a, b, dup}

	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.SetKeys("CP-1", "CP-404")

	missing := r.Hydrate(slices.Values(scope))

	assert.Equal(t, []ssrf.Serial{"CP-404"}, missing)
	require.Len(t, r.Targets(), 1)
	assert.Same(t, a, r.Targets()[0])
	assert.Len(t, scope, 3, "scope must not be modified")
}

func TestRef_HydrateWithoutKeysIsNoop(t *testing.T) {
	cp := ssrf.NewChannelPlan("CP-1", "a")

	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(cp)

	missing := r.Hydrate(slices.Values([]*ssrf.ChannelPlan{}))

	assert.Empty(t, missing)
	assert.Equal(t, []*ssrf.ChannelPlan{cp}, r.Targets())
}

func TestRef_HydrateTwice(t *testing.T) {
	scope := []*ssrf.ChannelPlan{ssrf.NewChannelPlan("CP-1", "a"), ssrf.NewChannelPlan("CP-2", "b")}

	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.SetKeys("CP-2", "CP-1")

	r.Hydrate(slices.Values(scope))
	first := r.Targets()
	r.Hydrate(slices.Values(scope))

	assert.Equal(t, first, r.Targets())
}

func TestRef_UnlinkAndReset(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(ssrf.NewChannelPlan("CP-1", "a"), ssrf.NewChannelPlan("CP-2", "b"))
	r.Unlink("CP-1")

	require.Len(t, r.Targets(), 1)
	assert.Equal(t, ssrf.Serial("CP-2"), r.Targets()[0].Key())

	r.Flatten()
	r.Reset()
	assert.False(t, r.IsSet())
	assert.False(t, r.IsLinked())
}

func TestRef_UnlinkDropsPersistedKey(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(ssrf.NewChannelPlan("CP-1", "a"))
	r.Flatten()
	require.Equal(t, []ssrf.Serial{"CP-1"}, r.Keys())

	r.Unlink("CP-1")
	r.Flatten()

	assert.False(t, r.IsLinked())
	assert.False(t, r.IsSet())
	assert.Empty(t, r.Keys())
}

func TestRef_UnlinkKeepsOtherKeys(t *testing.T) {
	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.SetKeys("CP-2", "CP-1", "CP-3")
	r.Unlink("CP-1")

	assert.Equal(t, []ssrf.Serial{"CP-2", "CP-3"}, r.Keys())
}

func TestRef_FlattenFuncUsesTargetOrder(t *testing.T) {
	day := time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC)
	older := ssrf.NewChannelPlan("CP-1", "a")
	older.EntryDateTime.Set(day)
	newer := ssrf.NewChannelPlan("CP-2", "b")
	newer.EntryDateTime.Set(day.Add(24 * time.Hour))
	undatedB := ssrf.NewChannelPlan("CP-9", "c")
	undatedA := ssrf.NewChannelPlan("CP-4", "d")

	var r ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan]
	r.Link(older, undatedB, newer, undatedA)
	r.FlattenFunc(ssrf.LatestFirst[*ssrf.ChannelPlan])

	assert.Equal(t, []ssrf.Serial{"CP-4", "CP-9", "CP-2", "CP-1"}, r.Keys())
	assert.Equal(t, []*ssrf.ChannelPlan{older, undatedB, newer, undatedA}, r.Targets(), "targets keep link order")
}

type refHolder struct {
	XMLName xml.Name                                 `xml:"Holder"`
	Notes   ssrf.Ref[index.Index, *ssrf.Footnote]    `xml:"notes,attr"`
	Plans   ssrf.Ref[ssrf.Serial, *ssrf.ChannelPlan] `xml:"Plan"`
}

func TestRef_XML(t *testing.T) {
	var h refHolder
	h.Notes.SetKeys(2, 7)
	h.Plans.SetKeys("CP-1", "CP-2")

	out, err := xml.Marshal(h)
	require.NoError(t, err)
	assert.Equal(t, `<Holder notes="2 7"><Plan>CP-1</Plan><Plan>CP-2</Plan></Holder>`, string(out))

	var back refHolder
	require.NoError(t, xml.Unmarshal(out, &back))
	assert.Equal(t, []index.Index{2, 7}, back.Notes.Keys())
	assert.Equal(t, []ssrf.Serial{"CP-1", "CP-2"}, back.Plans.Keys())
}

func TestRef_XMLEmpty(t *testing.T) {
	out, err := xml.Marshal(refHolder{})
	require.NoError(t, err)
	assert.Equal(t, `<Holder></Holder>`, string(out))
}

func TestRef_XMLRejectsBadIndex(t *testing.T) {
	var h refHolder
	err := xml.Unmarshal([]byte(`<Holder notes="1 x"></Holder>`), &h)
	assert.Error(t, err)
}

func TestRef_CBOR(t *testing.T) {
	var r ssrf.Ref[index.Index, *ssrf.Footnote]
	r.SetKeys(5, 4)

	data, err := cbor.Marshal(r)
	require.NoError(t, err)

	var back ssrf.Ref[index.Index, *ssrf.Footnote]
	require.NoError(t, cbor.Unmarshal(data, &back))
	assert.Equal(t, []index.Index{5, 4}, back.Keys())
}
