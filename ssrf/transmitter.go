package ssrf

import (
	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/lists"
)

// Transmitter describes transmitting equipment.
type Transmitter struct {
	Common

	// Name of the equipment. Required.
	Name   cell.Cell[string]       `xml:"Name"`
	Status cell.Cell[lists.Status] `xml:"Status"`

	ObservedMOPSweeps []*ObservedMOPSweep `xml:"ObservedMOPSweep"`
}

// NewTransmitter returns a transmitter with the given serial and name.
func NewTransmitter(serial Serial, name string) *Transmitter {
	return &Transmitter{
		Common: Common{Serial: serial},
		Name:   cell.Of(name),
	}
}

// EntityType returns "transmitter".
func (*Transmitter) EntityType() string { return "transmitter" }

// EntityRef returns the type-qualified reference.
func (t *Transmitter) EntityRef() string { return entityRef(t.EntityType(), t.Serial) }

// IsSet reports whether the common fields and the name are present.
func (t *Transmitter) IsSet() bool {
	return t.Common.IsSet() && t.Name.IsSet()
}

// ObservedMOPSweep is an observed modulation-on-pulse sweep.
type ObservedMOPSweep struct {
	cell.Meta

	DutyCycle   cell.Cell[float64] `xml:"DutyCycle"`
	NumElements cell.Cell[int]     `xml:"NumElements"`
	SweepPeriod cell.Cell[float64] `xml:"SweepPeriod"`
}

// IsSet always reports true: no field is required.
func (*ObservedMOPSweep) IsSet() bool { return true }
