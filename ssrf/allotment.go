package ssrf

import "github.com/jacentio/ssrf/cell"

// Allotment is a block of frequencies allotted for later assignment.
type Allotment struct {
	Common

	AllotFreqs []*AllotFreq `xml:"AllotFreq"`
}

// EntityType returns "allotment".
func (*Allotment) EntityType() string { return "allotment" }

// EntityRef returns the type-qualified reference.
func (a *Allotment) EntityRef() string { return entityRef(a.EntityType(), a.Serial) }

// IsSet reports whether the common fields are present.
func (a *Allotment) IsSet() bool {
	return a.Common.IsSet()
}

// AllotFreq is a frequency or range within an allotment.
type AllotFreq struct {
	cell.Meta

	// FreqMin in MHz. Required.
	FreqMin       cell.Cell[float64] `xml:"FreqMin"`
	FreqMax       cell.Cell[float64] `xml:"FreqMax"`
	PairedFreqMin cell.Cell[float64] `xml:"PairedFreqMin"`
	TuningStep    cell.Cell[float64] `xml:"TuningStep"`
	AllotChannel  cell.Cell[string]  `xml:"AllotChannel"`
}

// IsSet reports whether FreqMin is present.
func (f *AllotFreq) IsSet() bool {
	return f.FreqMin.IsSet()
}
