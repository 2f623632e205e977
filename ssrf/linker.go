package ssrf

import (
	"cmp"
	"fmt"
	"iter"
	"log/slog"
)

// UnresolvedPolicy selects what Hydrate does with identifiers that match
// nothing in the Document.
type UnresolvedPolicy int

const (
	// IgnoreUnresolved drops unmatched identifiers from the resolved set silently.
	IgnoreUnresolved UnresolvedPolicy = iota

	// WarnUnresolved drops them and logs each one at Warn.
	WarnUnresolved

	// FailUnresolved drops them and makes Hydrate return ErrUnresolvedReference.
	FailUnresolved
)

func (p UnresolvedPolicy) String() string {
	switch p {
	case IgnoreUnresolved:
		return "ignore"
	case WarnUnresolved:
		return "warn"
	case FailUnresolved:
		return "fail"
	}
	return fmt.Sprintf("UnresolvedPolicy(%d)", int(p))
}

// LinkConfig holds configuration for a Linker.
type LinkConfig struct {
	// Unresolved selects the handling of identifiers that match nothing.
	// Default: IgnoreUnresolved
	Unresolved UnresolvedPolicy
}

// DefaultLinkConfig returns the forward-compatible defaults: unresolved
// identifiers are tolerated silently.
func DefaultLinkConfig() LinkConfig {
	return LinkConfig{Unresolved: IgnoreUnresolved}
}

// validate ensures config values are within acceptable bounds.
func (c *LinkConfig) validate() {
	if c.Unresolved < IgnoreUnresolved || c.Unresolved > FailUnresolved {
		c.Unresolved = IgnoreUnresolved
	}
}

// Unresolved describes one persisted identifier that matched nothing.
type Unresolved struct {
	// Owner is the reference of the dataset holding the reference.
	Owner string

	// Field names the reference (e.g., "Allocation.ChannelPlanRef").
	Field string

	// Key is the identifier as written on the wire.
	Key string
}

// Report summarizes a Hydrate pass.
type Report struct {
	// Resolved counts identifiers that resolved to an object.
	Resolved int

	// Unresolved lists identifiers that did not.
	Unresolved []Unresolved
}

// hydrateRef resolves ref against scope and records the outcome in rep.
func hydrateRef[K cmp.Ordered, E Keyed[K]](rep *Report, field string, ref *Ref[K, E], scope iter.Seq[E]) {
	if !ref.IsSet() {
		return
	}
	missing := ref.Hydrate(scope)
	if rep == nil {
		return
	}
	rep.Resolved += len(ref.keys) - len(missing)
	for _, k := range missing {
		rep.Unresolved = append(rep.Unresolved, Unresolved{Field: field, Key: fmt.Sprint(k)})
	}
}

// Linker converts references between their transient and persisted forms
// across a whole Document.
type Linker struct {
	config LinkConfig
	logger *slog.Logger
}

// NewLinker creates a Linker. A nil logger uses slog.Default().
func NewLinker(config LinkConfig, logger *slog.Logger) *Linker {
	config.validate()
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{
		config: config,
		logger: logger,
	}
}

// Config returns the linker configuration.
func (l *Linker) Config() LinkConfig {
	return l.config
}

// Flatten writes the identifiers of every linked object into the persisted
// form of its reference. Call it once immediately before serializing doc.
func (l *Linker) Flatten(doc *Document) {
	if doc == nil {
		return
	}
	for _, lk := range doc.Linkables() {
		lk.Flatten()
	}
}

// Hydrate resolves every persisted identifier in doc against doc's top-level
// collections and populates the transient associations. Call it once
// immediately after deserializing doc. The collections themselves are not
// modified.
//
// Unmatched identifiers never stop the pass; the policy in LinkConfig decides
// whether they are logged or reported as ErrUnresolvedReference.
func (l *Linker) Hydrate(doc *Document) (Report, error) {
	var rep Report
	if doc == nil {
		return rep, nil
	}

	for owner, lk := range doc.Linkables() {
		n := len(rep.Unresolved)
		lk.Hydrate(doc, &rep)
		for i := n; i < len(rep.Unresolved); i++ {
			rep.Unresolved[i].Owner = owner
		}
	}

	if len(rep.Unresolved) == 0 {
		return rep, nil
	}

	switch l.config.Unresolved {
	case WarnUnresolved:
		for _, u := range rep.Unresolved {
			l.logger.Warn("unresolved reference",
				"owner", u.Owner,
				"field", u.Field,
				"key", u.Key,
			)
		}
	case FailUnresolved:
		return rep, fmt.Errorf("%w: %d identifiers, first %s %s=%s",
			ErrUnresolvedReference, len(rep.Unresolved),
			rep.Unresolved[0].Owner, rep.Unresolved[0].Field, rep.Unresolved[0].Key)
	default:
		l.logger.Debug("dropped unresolved references",
			"count", len(rep.Unresolved),
		)
	}
	return rep, nil
}
