package ssrf

import "github.com/jacentio/ssrf/cell"

// ChannelPlan describes a named channelling arrangement.
type ChannelPlan struct {
	Common

	// Name of the plan. Required.
	Name cell.Cell[string] `xml:"Name"`
}

// NewChannelPlan returns a plan with the given serial and name.
func NewChannelPlan(serial Serial, name string) *ChannelPlan {
	return &ChannelPlan{
		Common: Common{Serial: serial},
		Name:   cell.Of(name),
	}
}

// EntityType returns "channelplan".
func (*ChannelPlan) EntityType() string { return "channelplan" }

// EntityRef returns the type-qualified reference.
func (p *ChannelPlan) EntityRef() string { return entityRef(p.EntityType(), p.Serial) }

// IsSet reports whether the common fields and the name are present.
func (p *ChannelPlan) IsSet() bool {
	return p.Common.IsSet() && p.Name.IsSet()
}
