package ssrf

import (
	"cmp"
	"time"

	"github.com/google/uuid"

	"github.com/jacentio/ssrf/cell"
)

// Serial is the document-wide identifier of a dataset.
type Serial string

// NewSerial returns a fresh serial with the given prefix.
func NewSerial(prefix string) Serial {
	if prefix == "" {
		return Serial(uuid.NewString())
	}
	return Serial(prefix + ":" + uuid.NewString())
}

// Completer is implemented by every record.
type Completer interface {
	// IsSet reports whether every required field is present.
	IsSet() bool
}

// Keyed is implemented by records that can be the target of a reference.
type Keyed[K cmp.Ordered] interface {
	Key() K
}

// Linkable is implemented by records holding references.
type Linkable interface {
	// Flatten replaces persisted identifiers with those of the linked objects.
	Flatten()

	// Hydrate resolves persisted identifiers against doc.
	Hydrate(doc *Document, rep *Report)
}

// Dataset is a top-level record held directly by a Document.
type Dataset interface {
	Completer
	Keyed[Serial]

	// EntityType returns the dataset type name (e.g., "channelplan").
	EntityType() string

	// EntityRef returns the type-qualified reference (e.g., "channelplan#CP-1").
	EntityRef() string

	// Header returns the common dataset fields.
	Header() *Common
}

// Common holds the fields every dataset carries.
type Common struct {
	cell.Meta

	// Serial identifies the dataset within its Document. Required.
	Serial Serial `xml:"Serial"`

	// EntryDateTime is when the dataset was entered. Optional.
	EntryDateTime cell.Cell[time.Time] `xml:"EntryDateTime"`
}

// Key returns the dataset serial.
func (c *Common) Key() Serial {
	return c.Serial
}

// Header returns c.
func (c *Common) Header() *Common {
	return c
}

// IsSet reports whether the serial and the classification are present.
func (c *Common) IsSet() bool {
	return c.Serial != "" && c.Class.IsSet()
}

// CompareLatestFirst orders datasets by entry time, most recent first.
// Nil and undated datasets sort first; equal times compare equal.
func CompareLatestFirst(a, b *Common) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cell.CompareTimeDesc(a.EntryDateTime, b.EntryDateTime)
}

// LatestFirst is CompareLatestFirst for any non-nil dataset type, suitable for slices.SortFunc.
func LatestFirst[D Dataset](a, b D) int {
	return CompareLatestFirst(a.Header(), b.Header())
}

func entityRef(entityType string, serial Serial) string {
	return entityType + "#" + string(serial)
}
