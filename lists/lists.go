// Package lists holds the closed enumeration tables referenced by SSRF fields.
//
// Each table maps its wire strings onto a named string type. Mapping a raw
// string that is not in the table fails with ErrInvalidValue.
package lists

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrInvalidValue is returned when a raw string is not a member of a list.
var ErrInvalidValue = errors.New("lists: invalid value")

// Priority is list CPS: the priority of an allocated service.
type Priority string

const (
	PriorityPrimary   Priority = "Primary"
	PrioritySecondary Priority = "Secondary"
	PriorityPermitted Priority = "Permitted"
)

// Priorities returns every member of list CPS.
func Priorities() []Priority {
	return []Priority{PriorityPrimary, PrioritySecondary, PriorityPermitted}
}

// ParsePriority maps a wire string onto list CPS.
func ParsePriority(s string) (Priority, error) {
	return parse("CPS", s, Priorities())
}

// Status is list CSG: the development status of equipment.
type Status string

const (
	StatusConceptual    Status = "Conceptual"
	StatusDevelopmental Status = "Developmental"
	StatusExperimental  Status = "Experimental"
	StatusOperational   Status = "Operational"
)

// Statuses returns every member of list CSG.
func Statuses() []Status {
	return []Status{StatusConceptual, StatusDevelopmental, StatusExperimental, StatusOperational}
}

// ParseStatus maps a wire string onto list CSG.
func ParseStatus(s string) (Status, error) {
	return parse("CSG", s, Statuses())
}

// YesNo is list CBO.
type YesNo string

const (
	Yes YesNo = "Yes"
	No  YesNo = "No"
)

// ParseYesNo maps a wire string onto list CBO.
func ParseYesNo(s string) (YesNo, error) {
	return parse("CBO", s, []YesNo{Yes, No})
}

// Service is list CSN: radiocommunication services recognised by an administration.
type Service string

const (
	ServiceAeronauticalMobile          Service = "Aeronautical Mobile"
	ServiceAeronauticalRadionavigation Service = "Aeronautical Radionavigation"
	ServiceAmateur                     Service = "Amateur"
	ServiceBroadcasting                Service = "Broadcasting"
	ServiceEarthExploration            Service = "Earth Exploration-Satellite"
	ServiceFixed                       Service = "Fixed"
	ServiceFixedSatellite              Service = "Fixed-Satellite"
	ServiceMaritimeMobile              Service = "Maritime Mobile"
	ServiceMobile                      Service = "Mobile"
	ServiceMobileSatellite             Service = "Mobile-Satellite"
	ServiceRadioAstronomy              Service = "Radio Astronomy"
	ServiceRadiolocation               Service = "Radiolocation"
	ServiceRadionavigation             Service = "Radionavigation"
	ServiceSpaceOperation              Service = "Space Operation"
)

// Services returns every member of list CSN known to this package.
func Services() []Service {
	return []Service{
		ServiceAeronauticalMobile, ServiceAeronauticalRadionavigation, ServiceAmateur,
		ServiceBroadcasting, ServiceEarthExploration, ServiceFixed, ServiceFixedSatellite,
		ServiceMaritimeMobile, ServiceMobile, ServiceMobileSatellite, ServiceRadioAstronomy,
		ServiceRadiolocation, ServiceRadionavigation, ServiceSpaceOperation,
	}
}

// ParseService maps a wire string onto list CSN. Matching is case-insensitive,
// so display names produced from a service ("FIXED", "MARITIME MOBILE") map back.
func ParseService(s string) (Service, error) {
	for _, v := range Services() {
		if strings.EqualFold(string(v), s) {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: CSN %q", ErrInvalidValue, s)
}

func parse[T ~string](list, s string, values []T) (T, error) {
	if i := slices.Index(values, T(s)); i >= 0 {
		return values[i], nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrInvalidValue, list, s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Priority) MarshalText() ([]byte, error) { return []byte(p), nil }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting non-members.
func (p *Priority) UnmarshalText(b []byte) (err error) {
	*p, err = ParsePriority(string(b))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s), nil }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting non-members.
func (s *Status) UnmarshalText(b []byte) (err error) {
	*s, err = ParseStatus(string(b))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (y YesNo) MarshalText() ([]byte, error) { return []byte(y), nil }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting non-members.
func (y *YesNo) UnmarshalText(b []byte) (err error) {
	*y, err = ParseYesNo(string(b))
	return err
}

// MarshalText implements encoding.TextMarshaler.
func (s Service) MarshalText() ([]byte, error) { return []byte(s), nil }

// UnmarshalText implements encoding.TextUnmarshaler, rejecting non-members.
func (s *Service) UnmarshalText(b []byte) (err error) {
	*s, err = ParseService(string(b))
	return err
}
