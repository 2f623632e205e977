package ssrf

import (
	"encoding/xml"
	"iter"
	"slices"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
)

// Document is the root of an SSRF record set and the only scope in which
// identifiers are resolved.
type Document struct {
	XMLName xml.Name `xml:"SSRF" cbor:"-"`

	ChannelPlans   []*ChannelPlan   `xml:"ChannelPlan"`
	TOAs           []*TOA           `xml:"TOA"`
	Assignments    []*Assignment    `xml:"Assignment"`
	Allotments     []*Allotment     `xml:"Allotment"`
	Antennas       []*Antenna       `xml:"Antenna"`
	Transmitters   []*Transmitter   `xml:"Transmitter"`
	Configurations []*Configuration `xml:"Configuration"`
	SSReplies      []*SSReply       `xml:"SSReply"`

	alloc *index.Allocator
}

// NewDocument creates an empty Document with its own index allocator.
func NewDocument() *Document {
	return NewDocumentWithAllocator(index.NewAllocator(0))
}

// NewDocumentWithAllocator creates an empty Document drawing indexes from a.
func NewDocumentWithAllocator(a *index.Allocator) *Document {
	return &Document{alloc: a}
}

// Allocator returns the allocator for sub-elements created in this Document.
func (d *Document) Allocator() *index.Allocator {
	if d.alloc == nil {
		d.alloc = index.NewAllocator(0)
	}
	return d.alloc
}

// Datasets iterates over every top-level record.
func (d *Document) Datasets() iter.Seq[Dataset] {
	return func(yield func(Dataset) bool) {
		for _, p := range d.ChannelPlans {
			if !yield(p) {
				return
			}
		}
		for _, t := range d.TOAs {
			if !yield(t) {
				return
			}
		}
		for _, a := range d.Assignments {
			if !yield(a) {
				return
			}
		}
		for _, a := range d.Allotments {
			if !yield(a) {
				return
			}
		}
		for _, a := range d.Antennas {
			if !yield(a) {
				return
			}
		}
		for _, t := range d.Transmitters {
			if !yield(t) {
				return
			}
		}
		for _, c := range d.Configurations {
			if !yield(c) {
				return
			}
		}
		for _, r := range d.SSReplies {
			if !yield(r) {
				return
			}
		}
	}
}

// AllFootnotes iterates over the footnotes of every TOA.
func (d *Document) AllFootnotes() iter.Seq[*Footnote] {
	return func(yield func(*Footnote) bool) {
		for _, t := range d.TOAs {
			for _, fn := range t.Footnotes {
				if !yield(fn) {
					return
				}
			}
		}
	}
}

// Linkables iterates over every record holding references, paired with the
// reference of the dataset that contains it.
func (d *Document) Linkables() iter.Seq2[string, Linkable] {
	return func(yield func(string, Linkable) bool) {
		for _, t := range d.TOAs {
			owner := t.EntityRef()
			for _, band := range t.FreqBands {
				for _, a := range band.Allocations {
					if !yield(owner, a) {
						return
					}
				}
			}
		}
		for _, c := range d.Configurations {
			if !yield(c.EntityRef(), c) {
				return
			}
		}
	}
}

// KeyedCollections iterates over the index lists of every keyed sub-element
// collection, labelled by owner and element name (e.g., "toa#T-1/Footnote").
func (d *Document) KeyedCollections() iter.Seq2[string, []index.Index] {
	return func(yield func(string, []index.Index) bool) {
		for _, t := range d.TOAs {
			if !yield(t.EntityRef()+"/Footnote", indexes(t.Footnotes)) {
				return
			}
		}
		for _, c := range d.Configurations {
			if !yield(c.EntityRef()+"/ConfigFreq", indexes(c.ConfigFreqs)) {
				return
			}
		}
		for _, r := range d.SSReplies {
			if !yield(r.EntityRef()+"/Comment", indexes(r.Comments)) {
				return
			}
		}
	}
}

func indexes[E Keyed[index.Index]](elems []E) []index.Index {
	out := make([]index.Index, 0, len(elems))
	for _, e := range elems {
		out = append(out, e.Key())
	}
	return out
}

// MaxIndex returns the largest index held by any keyed sub-element.
func (d *Document) MaxIndex() index.Index {
	var m index.Index
	for _, idx := range d.KeyedCollections() {
		for _, i := range idx {
			m = max(m, i)
		}
	}
	return m
}

// IsSet reports whether every top-level record is complete.
func (d *Document) IsSet() bool {
	for ds := range d.Datasets() {
		if !ds.IsSet() {
			return false
		}
	}
	return true
}

// Incomplete returns the references of top-level records missing required fields.
func (d *Document) Incomplete() []string {
	var refs []string
	for ds := range d.Datasets() {
		if !ds.IsSet() {
			refs = append(refs, ds.EntityRef())
		}
	}
	return refs
}

// Classification returns the highest classification of any top-level record.
func (d *Document) Classification() cell.Classification {
	var c cell.Classification
	for ds := range d.Datasets() {
		c = max(c, ds.Header().Class)
	}
	return c
}

// Serials returns the serials of every top-level record in document order.
func (d *Document) Serials() []Serial {
	var out []Serial
	for ds := range d.Datasets() {
		out = append(out, ds.Key())
	}
	return out
}

// ReferencedSerials returns the sorted, distinct serials persisted in
// serial-keyed references. Flatten first to include pending associations.
func (d *Document) ReferencedSerials() []Serial {
	var out []Serial
	for _, t := range d.TOAs {
		for _, band := range t.FreqBands {
			for _, a := range band.Allocations {
				out = append(out, a.ChannelPlanRef.keys...)
			}
		}
	}
	for _, c := range d.Configurations {
		out = append(out, c.TxRef.keys...)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// channelPlans iterates over the ChannelPlan collection.
func (d *Document) channelPlans() iter.Seq[*ChannelPlan] {
	return slices.Values(d.ChannelPlans)
}

// transmitters iterates over the Transmitter collection.
func (d *Document) transmitters() iter.Seq[*Transmitter] {
	return slices.Values(d.Transmitters)
}
