package ssrf

import (
	"fmt"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
	"github.com/jacentio/ssrf/lists"
)

// Configuration ties transmitters to the frequencies they operate on.
type Configuration struct {
	Common

	Name        cell.Cell[string] `xml:"Name"`
	ConfigFreqs []*ConfigFreq     `xml:"ConfigFreq"`

	// TxRef refers to transmitters by serial.
	TxRef Ref[Serial, *Transmitter] `xml:"TxRef"`
}

// EntityType returns "configuration".
func (*Configuration) EntityType() string { return "configuration" }

// EntityRef returns the type-qualified reference.
func (c *Configuration) EntityRef() string { return entityRef(c.EntityType(), c.Serial) }

// IsSet reports whether the common fields are present.
func (c *Configuration) IsSet() bool {
	return c.Common.IsSet()
}

// Flatten implements Linkable. Transmitters are written latest first.
func (c *Configuration) Flatten() {
	c.TxRef.FlattenFunc(LatestFirst[*Transmitter])
}

// Hydrate implements Linkable. Transmitters resolve against the Document's
// Transmitter collection.
func (c *Configuration) Hydrate(doc *Document, rep *Report) {
	hydrateRef(rep, "Configuration.TxRef", &c.TxRef, doc.transmitters())
}

// ConfigFreq is a frequency used by a configuration.
type ConfigFreq struct {
	cell.Meta

	Idx index.Index `xml:"idx,attr"`

	// FreqMin in MHz. Required.
	FreqMin        cell.Cell[float64]        `xml:"FreqMin"`
	FreqMax        cell.Cell[float64]        `xml:"FreqMax"`
	Priority       cell.Cell[lists.Priority] `xml:"Priority"`
	ChannelSpacing cell.Cell[float64]        `xml:"ChannelSpacing"`
}

// NewConfigFreq returns a frequency starting at freqMin with a fresh index from a.
func NewConfigFreq(a *index.Allocator, freqMin float64) (*ConfigFreq, error) {
	idx, err := a.Next()
	if err != nil {
		return nil, fmt.Errorf("new config freq: %w", err)
	}
	return &ConfigFreq{Idx: idx, FreqMin: cell.Of(freqMin)}, nil
}

// Key returns the frequency index.
func (f *ConfigFreq) Key() index.Index { return f.Idx }

// IsSet reports whether the index and FreqMin are present.
func (f *ConfigFreq) IsSet() bool {
	return f.Idx != 0 && f.FreqMin.IsSet()
}
