package ssrf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
	"github.com/jacentio/ssrf/lists"
	"github.com/jacentio/ssrf/ssrf"
)

func TestDocument_KeyedIndexesNeverReused(t *testing.T) {
	doc := ssrf.NewDocumentWithAllocator(index.NewAllocator(0))
	reply := &ssrf.SSReply{Common: ssrf.Common{Serial: "R-1"}}

	c1, err := ssrf.NewComment(doc.Allocator(), "first")
	require.NoError(t, err)
	c2, err := ssrf.NewComment(doc.Allocator(), "second")
	require.NoError(t, err)
	reply.Comments = []*ssrf.Comment{c1, c2}
	assert.Equal(t, index.Index(1), c1.Idx)
	assert.Equal(t, index.Index(2), c2.Idx)

	reply.Comments = reply.Comments[1:]
	c3, err := ssrf.NewComment(doc.Allocator(), "third")
	require.NoError(t, err)

	assert.Equal(t, index.Index(3), c3.Idx)
}

func TestCompleteness_FlipsOnRequiredField(t *testing.T) {
	tx := &ssrf.Transmitter{Common: ssrf.Common{Serial: "TX-1", Meta: cell.Meta{Class: cell.Unclassified}}}
	assert.False(t, tx.IsSet())

	tx.Name.Set("Radio")
	assert.True(t, tx.IsSet())
}

func TestCompleteness_Monotonic(t *testing.T) {
	var cp ssrf.ChannelPlan
	steps := []func(){
		func() { cp.Serial = "CP-1" },
		func() { cp.Class = cell.Secret },
		func() { cp.Name.Set("Plan") },
		func() { cp.EntryDateTime.Set(testTime(0)) },
	}

	was := cp.IsSet()
	for _, step := range steps {
		step()
		now := cp.IsSet()
		assert.False(t, was && !now, "completeness went from true to false")
		was = now
	}
	assert.True(t, was)
}

func TestCompleteness_CommonFields(t *testing.T) {
	cp := ssrf.NewChannelPlan("", "Plan")
	cp.Class = cell.Unclassified
	assert.False(t, cp.IsSet(), "serial is required")

	cp.Serial = "CP-1"
	cp.Class = cell.Unset
	assert.False(t, cp.IsSet(), "classification is required")

	cp.Class = cell.Unclassified
	assert.True(t, cp.IsSet())
}

func TestCompleteness_IgnoresOptionalChildren(t *testing.T) {
	toa := &ssrf.TOA{
		Common:    ssrf.Common{Serial: "TOA-1", Meta: cell.Meta{Class: cell.Unclassified}},
		Footnotes: []*ssrf.Footnote{{}},
		FreqBands: []*ssrf.FreqBand{{Allocations: []*ssrf.Allocation{{}}}},
	}
	assert.True(t, toa.IsSet())
	assert.False(t, toa.Footnotes[0].IsSet())
	assert.False(t, toa.FreqBands[0].IsSet())
	assert.False(t, toa.FreqBands[0].Allocations[0].IsSet())
}

func TestCompleteness_KeyedElementsRequireIndex(t *testing.T) {
	fn := &ssrf.Footnote{Text: cell.Of("note")}
	assert.False(t, fn.IsSet())
	fn.Idx = 4
	assert.True(t, fn.IsSet())

	cf := &ssrf.ConfigFreq{FreqMin: cell.Of(30.0)}
	assert.False(t, cf.IsSet())
	cf.Idx = 1
	assert.True(t, cf.IsSet())

	assert.False(t, (&ssrf.Comment{Idx: 1}).IsSet())
}

func TestCompleteness_Extension(t *testing.T) {
	var f ssrf.Freq
	f.TAD.Set("2024-01-01")
	assert.False(t, f.IsSet())

	f.FreqMin.Set(121.5)
	assert.True(t, f.IsSet())
	assert.True(t, f.AsgnFreqBase.IsSet())
}

func TestCompleteness_PresenceFree(t *testing.T) {
	assert.True(t, (&ssrf.AntHardware{}).IsSet())
	assert.True(t, (&ssrf.ObservedMOPSweep{}).IsSet())
}

func TestDocument_Completeness(t *testing.T) {
	doc := ssrf.NewDocument()
	assert.True(t, doc.IsSet(), "empty document")

	good := ssrf.NewChannelPlan("CP-1", "Plan")
	good.Class = cell.Unclassified
	bad := &ssrf.Antenna{Common: ssrf.Common{Serial: "ANT-1"}}
	doc.ChannelPlans = []*ssrf.ChannelPlan{good}
	doc.Antennas = []*ssrf.Antenna{bad}

	assert.False(t, doc.IsSet())
	assert.Equal(t, []string{"antenna#ANT-1"}, doc.Incomplete())

	bad.Class = cell.Confidential
	assert.True(t, doc.IsSet())
	assert.Empty(t, doc.Incomplete())
	assert.Equal(t, cell.Confidential, doc.Classification())
}

func TestDocument_SerialsAndReferences(t *testing.T) {
	doc := ssrf.NewDocument()
	cp := ssrf.NewChannelPlan("CP-1", "Plan")
	tx := ssrf.NewTransmitter("TX-1", "Radio")
	doc.ChannelPlans = []*ssrf.ChannelPlan{cp}
	doc.Transmitters = []*ssrf.Transmitter{tx}

	a1 := ssrf.NewAllocation(lists.ServiceFixed, lists.PriorityPrimary)
	a1.ChannelPlanRef.Link(cp)
	a2 := ssrf.NewAllocation(lists.ServiceMobile, lists.PrioritySecondary)
	a2.ChannelPlanRef.SetKeys("CP-1", "CP-EXT")
	doc.TOAs = []*ssrf.TOA{{
		Common:    ssrf.Common{Serial: "TOA-1"},
		FreqBands: []*ssrf.FreqBand{{Allocations: []*ssrf.Allocation{a1, a2}}},
	}}
	cfg := &ssrf.Configuration{Common: ssrf.Common{Serial: "CFG-1"}}
	cfg.TxRef.Link(tx)
	doc.Configurations = []*ssrf.Configuration{cfg}

	assert.Equal(t, []ssrf.Serial{"CP-1", "TX-1", "TOA-1", "CFG-1"}, doc.Serials())
	assert.Equal(t, []ssrf.Serial{"CP-1", "CP-EXT"}, doc.ReferencedSerials(), "pending links are not persisted yet")

	ssrf.NewLinker(ssrf.DefaultLinkConfig(), nil).Flatten(doc)
	assert.Equal(t, []ssrf.Serial{"CP-1", "CP-EXT", "TX-1"}, doc.ReferencedSerials())
}

func TestDocument_DatasetsOrderAndBreak(t *testing.T) {
	doc := ssrf.NewDocument()
	doc.ChannelPlans = []*ssrf.ChannelPlan{ssrf.NewChannelPlan("CP-1", "a")}
	doc.Assignments = []*ssrf.Assignment{{Common: ssrf.Common{Serial: "A-1"}}}
	doc.Allotments = []*ssrf.Allotment{{Common: ssrf.Common{Serial: "AL-1"}}}
	doc.SSReplies = []*ssrf.SSReply{{Common: ssrf.Common{Serial: "R-1"}}}

	var types []string
	for ds := range doc.Datasets() {
		types = append(types, ds.EntityType())
	}
	assert.Equal(t, []string{"channelplan", "assignment", "allotment", "ssreply"}, types)

	n := 0
	for range doc.Datasets() {
		n++
		break
	}
	assert.Equal(t, 1, n)
}

func TestDocument_MaxIndex(t *testing.T) {
	doc := ssrf.NewDocument()
	doc.TOAs = []*ssrf.TOA{{Common: ssrf.Common{Serial: "T"}, Footnotes: []*ssrf.Footnote{{Idx: 4}, {Idx: 2}}}}
	doc.Configurations = []*ssrf.Configuration{{Common: ssrf.Common{Serial: "C"}, ConfigFreqs: []*ssrf.ConfigFreq{{Idx: 9}}}}
	doc.SSReplies = []*ssrf.SSReply{{Common: ssrf.Common{Serial: "R"}, Comments: []*ssrf.Comment{{Idx: 7}}}}

	assert.Equal(t, index.Index(9), doc.MaxIndex())

	labels := map[string][]index.Index{}
	for label, idx := range doc.KeyedCollections() {
		labels[label] = idx
	}
	assert.Equal(t, []index.Index{4, 2}, labels["toa#T/Footnote"])
	assert.Equal(t, []index.Index{9}, labels["configuration#C/ConfigFreq"])
	assert.Equal(t, []index.Index{7}, labels["ssreply#R/Comment"])
}

func TestDocument_LazyAllocator(t *testing.T) {
	var doc ssrf.Document
	a := doc.Allocator()
	require.NotNil(t, a)
	assert.Same(t, a, doc.Allocator())
}

func TestNewSerial(t *testing.T) {
	a := ssrf.NewSerial("CP")
	b := ssrf.NewSerial("CP")
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^CP:[0-9a-f-]{36}$`, string(a))
	assert.Len(t, string(ssrf.NewSerial("")), 36)
}
