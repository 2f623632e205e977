package ssrf

import (
	"cmp"
	"fmt"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
)

// TOA is a table of frequency allocations.
type TOA struct {
	Common

	Footnotes []*Footnote `xml:"Footnote"`
	FreqBands []*FreqBand `xml:"FreqBand"`
}

// EntityType returns "toa".
func (*TOA) EntityType() string { return "toa" }

// EntityRef returns the type-qualified reference.
func (t *TOA) EntityRef() string { return entityRef(t.EntityType(), t.Serial) }

// IsSet reports whether the common fields are present. Footnotes and bands
// are validated on their own.
func (t *TOA) IsSet() bool {
	return t.Common.IsSet()
}

// Footnote is a numbered note in a TOA. Its index is the identifier that
// allocations refer to.
type Footnote struct {
	cell.Meta

	Idx  index.Index       `xml:"idx,attr"`
	Text cell.Cell[string] `xml:"Text"`
}

// NewFootnote returns a footnote holding text with a fresh index from a.
func NewFootnote(a *index.Allocator, text string) (*Footnote, error) {
	idx, err := a.Next()
	if err != nil {
		return nil, fmt.Errorf("new footnote: %w", err)
	}
	return &Footnote{Idx: idx, Text: cell.Of(text)}, nil
}

// Key returns the footnote index.
func (f *Footnote) Key() index.Index { return f.Idx }

// IsSet reports whether the index and text are present.
func (f *Footnote) IsSet() bool {
	return f.Idx != 0 && f.Text.IsSet()
}

// CompareFootnotes orders footnotes by index. Nil sorts first.
func CompareFootnotes(a, b *Footnote) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cmp.Compare(a.Idx, b.Idx)
}

// FreqBand is a frequency range of a TOA and the services allocated in it.
type FreqBand struct {
	cell.Meta

	// FreqMin is the lower edge in MHz. Required.
	FreqMin cell.Cell[float64] `xml:"FreqMin"`
	FreqMax cell.Cell[float64] `xml:"FreqMax"`

	Allocations []*Allocation `xml:"Allocation"`
}

// IsSet reports whether FreqMin is present.
func (b *FreqBand) IsSet() bool {
	return b.FreqMin.IsSet()
}
