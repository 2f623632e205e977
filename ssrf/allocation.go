package ssrf

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jacentio/ssrf/cell"
	"github.com/jacentio/ssrf/internal/index"
	"github.com/jacentio/ssrf/lists"
)

// Allocation is a service allocated within a frequency band.
type Allocation struct {
	cell.Meta

	// AllocatedService is a member of list CSN. Required.
	AllocatedService cell.Cell[lists.Service] `xml:"AllocatedService"`

	Qualifier cell.Cell[string] `xml:"X-ServiceQualifier"`

	// Priority is a member of list CPS. Required.
	Priority cell.Cell[lists.Priority] `xml:"Priority"`

	EffectiveDate       cell.Cell[time.Time]   `xml:"EffectiveDate"`
	ExpirationDate      cell.Cell[time.Time]   `xml:"ExpirationDate"`
	AllocatedByFootnote cell.Cell[lists.YesNo] `xml:"AllocatedByFootnote"`

	// ChannelPlanRef refers to channel plans by serial.
	ChannelPlanRef Ref[Serial, *ChannelPlan] `xml:"ChannelPlanRef"`

	// Footnotes refers to footnotes of any TOA in the Document by index.
	Footnotes Ref[index.Index, *Footnote] `xml:"footnotes,attr"`
}

// NewAllocation returns an allocation of service with the given priority.
func NewAllocation(service lists.Service, priority lists.Priority) *Allocation {
	return &Allocation{
		AllocatedService: cell.Of(service),
		Priority:         cell.Of(priority),
	}
}

// IsSet reports whether the service and priority are present.
func (a *Allocation) IsSet() bool {
	return a.AllocatedService.IsSet() && a.Priority.IsSet()
}

// IsPrimary reports whether the priority is Primary.
func (a *Allocation) IsPrimary() bool {
	p, err := lists.ParsePriority(string(a.Priority.Value()))
	return err == nil && p == lists.PriorityPrimary
}

// DisplayName returns the service name as printed in a TOA: upper case for
// primary allocations, title case otherwise. It is empty when no service is set.
func (a *Allocation) DisplayName() string {
	s, ok := a.AllocatedService.Get()
	if !ok {
		return ""
	}
	if a.IsPrimary() {
		return strings.ToUpper(string(s))
	}
	// Casers hold state and are not safe for concurrent use.
	return cases.Title(language.English).String(string(s))
}

// CompareAllocations orders allocations alphabetically by display name,
// ignoring case, so primary and secondary services interleave. Names differing
// only in case fall back to byte order. Nil and allocations without a service
// sort first.
func CompareAllocations(a, b *Allocation) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return cell.CompareFunc(a.AllocatedService, b.AllocatedService, func(_, _ lists.Service) int {
		x, y := a.DisplayName(), b.DisplayName()
		if c := strings.Compare(strings.ToLower(x), strings.ToLower(y)); c != 0 {
			return c
		}
		return strings.Compare(x, y)
	})
}

// Flatten implements Linkable. Channel plans are written latest first and
// footnotes by index.
func (a *Allocation) Flatten() {
	a.ChannelPlanRef.FlattenFunc(LatestFirst[*ChannelPlan])
	a.Footnotes.Flatten()
}

// Hydrate implements Linkable. Channel plans resolve against the Document's
// ChannelPlan collection; footnotes against the footnotes of every TOA.
func (a *Allocation) Hydrate(doc *Document, rep *Report) {
	hydrateRef(rep, "Allocation.ChannelPlanRef", &a.ChannelPlanRef, doc.channelPlans())
	hydrateRef(rep, "Allocation.Footnotes", &a.Footnotes, doc.AllFootnotes())
}
