package cell

import (
	"errors"
	"fmt"
)

// ErrInvalidValue is returned when a raw string cannot be mapped into a
// controlled value such as a Classification.
var ErrInvalidValue = errors.New("cell: invalid value")

// Classification is the ordered security classification of a field or record.
// The zero value means no classification has been assigned.
type Classification uint8

const (
	Unset Classification = iota
	Unclassified
	Restricted
	Confidential
	Secret
	TopSecret
)

var classificationCodes = [...]string{
	Unset:        "",
	Unclassified: "U",
	Restricted:   "R",
	Confidential: "C",
	Secret:       "S",
	TopSecret:    "T",
}

// ParseClassification maps a wire code (U, R, C, S, T) to a Classification.
// The empty string maps to Unset.
func ParseClassification(s string) (Classification, error) {
	for c, code := range classificationCodes {
		if code == s {
			return Classification(c), nil
		}
	}
	return Unset, fmt.Errorf("%w: classification %q", ErrInvalidValue, s)
}

// IsSet reports whether a classification has been assigned.
func (c Classification) IsSet() bool {
	return c != Unset
}

func (c Classification) String() string {
	if int(c) < len(classificationCodes) {
		return classificationCodes[c]
	}
	return fmt.Sprintf("Classification(%d)", uint8(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	if int(c) >= len(classificationCodes) {
		return nil, fmt.Errorf("%w: classification %d", ErrInvalidValue, uint8(c))
	}
	return []byte(classificationCodes[c]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(text []byte) error {
	parsed, err := ParseClassification(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Meta is the metadata shared by cells and by records that carry their own
// classification.
type Meta struct {
	// Class is the security classification. Optional.
	Class Classification `xml:"cls,attr,omitempty" cbor:"cls,omitempty"`

	// Remark is free text attached to the value. Optional.
	Remark string `xml:"remarks,attr,omitempty" cbor:"rmk,omitempty"`
}

// IsZero reports whether neither classification nor remark is present.
func (m Meta) IsZero() bool {
	return m.Class == Unset && m.Remark == ""
}
