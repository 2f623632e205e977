package ssrf

import "github.com/jacentio/ssrf/cell"

// Assignment is a frequency assignment record.
type Assignment struct {
	Common

	Freqs []*Freq `xml:"Freq"`
}

// EntityType returns "assignment".
func (*Assignment) EntityType() string { return "assignment" }

// EntityRef returns the type-qualified reference.
func (a *Assignment) EntityRef() string { return entityRef(a.EntityType(), a.Serial) }

// IsSet reports whether the common fields are present.
func (a *Assignment) IsSet() bool {
	return a.Common.IsSet()
}

// AsgnFreqBase is the frequency shape shared by assignment frequencies.
type AsgnFreqBase struct {
	cell.Meta

	// FreqMin is the assigned or lower frequency in MHz. Required.
	FreqMin cell.Cell[float64] `xml:"FreqMin"`
	FreqMax cell.Cell[float64] `xml:"FreqMax"`
}

// IsSet reports whether FreqMin is present.
func (f *AsgnFreqBase) IsSet() bool {
	return f.FreqMin.IsSet()
}

// Freq is an assigned frequency.
type Freq struct {
	AsgnFreqBase

	// TAD is the time and date of the assignment. Optional.
	TAD       cell.Cell[string] `xml:"TAD"`
	LegacyNum cell.Cell[string] `xml:"LegacyNum"`
}

// IsSet reports whether the base frequency fields are present.
func (f *Freq) IsSet() bool {
	return f.AsgnFreqBase.IsSet()
}
