package ssrf

import "github.com/jacentio/ssrf/cell"

// Antenna describes an antenna.
type Antenna struct {
	Common

	Name     cell.Cell[string] `xml:"Name"`
	Hardware *AntHardware      `xml:"AntHardware"`
}

// EntityType returns "antenna".
func (*Antenna) EntityType() string { return "antenna" }

// EntityRef returns the type-qualified reference.
func (a *Antenna) EntityRef() string { return entityRef(a.EntityType(), a.Serial) }

// IsSet reports whether the common fields are present.
func (a *Antenna) IsSet() bool {
	return a.Common.IsSet()
}

// AntHardware holds optional physical details of an antenna.
type AntHardware struct {
	cell.Meta

	FeedType        cell.Cell[string] `xml:"FeedType"`
	LeadType        cell.Cell[string] `xml:"LeadType"`
	ConnectorType   cell.Cell[string] `xml:"ConnectorType"`
	FeedOrientation cell.Cell[string] `xml:"FeedOrientation"`
}

// IsSet always reports true: no field is required.
func (*AntHardware) IsSet() bool { return true }
