package ssrf

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"iter"
	"reflect"
	"slices"
	"strings"

	"github.com/fxamacker/cbor/v2"
)

// Ref is a reference from one record to zero or more records of type E keyed by K.
//
// It holds two views of the same association. Keys are the persisted form,
// written to and read from the wire. Targets are the transient form, the
// objects themselves. Flatten derives keys from targets; Hydrate derives
// targets from keys. References are weak: nothing here owns the targets.
type Ref[K cmp.Ordered, E Keyed[K]] struct {
	keys    []K
	targets []E
}

// Keys returns a copy of the persisted identifiers.
func (r *Ref[K, E]) Keys() []K {
	return slices.Clone(r.keys)
}

// SetKeys replaces the persisted identifiers. Duplicates are dropped, keeping
// the first occurrence. Targets are left alone.
func (r *Ref[K, E]) SetKeys(keys ...K) {
	var unique []K
	for _, k := range keys {
		if !slices.Contains(unique, k) {
			unique = append(unique, k)
		}
	}
	r.keys = unique
}

// Targets returns a copy of the linked objects.
func (r *Ref[K, E]) Targets() []E {
	return slices.Clone(r.targets)
}

// Link adds direct associations. A target whose key is already linked is ignored.
func (r *Ref[K, E]) Link(targets ...E) {
	for _, t := range targets {
		if !r.linked(t.Key()) {
			r.targets = append(r.targets, t)
		}
	}
}

// Unlink removes the target keyed by key along with its persisted identifier.
func (r *Ref[K, E]) Unlink(key K) {
	r.targets = slices.DeleteFunc(r.targets, func(t E) bool {
		return t.Key() == key
	})
	r.keys = slices.DeleteFunc(r.keys, func(k K) bool {
		return k == key
	})
}

// Reset clears both keys and targets.
func (r *Ref[K, E]) Reset() {
	r.keys = nil
	r.targets = nil
}

// IsSet reports whether persisted identifiers are present.
func (r *Ref[K, E]) IsSet() bool {
	return len(r.keys) > 0
}

// IsLinked reports whether direct associations are present.
func (r *Ref[K, E]) IsLinked() bool {
	return len(r.targets) > 0
}

func (r *Ref[K, E]) linked(key K) bool {
	return slices.ContainsFunc(r.targets, func(t E) bool {
		return t.Key() == key
	})
}

// Flatten replaces the persisted identifiers with the keys of the linked
// targets, in ascending key order. A Ref with no targets is left untouched,
// so flattening twice yields the same keys.
func (r *Ref[K, E]) Flatten() {
	r.FlattenFunc(nil)
}

// FlattenFunc is like Flatten but writes the keys in the order compare gives
// the targets. Targets compare already equal keep ascending key order. A nil
// compare orders by key alone.
func (r *Ref[K, E]) FlattenFunc(compare func(a, b E) int) {
	if len(r.targets) == 0 {
		return
	}
	targets := slices.Clone(r.targets)
	slices.SortStableFunc(targets, func(a, b E) int {
		if compare != nil {
			if c := compare(a, b); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.Key(), b.Key())
	})
	keys := make([]K, 0, len(targets))
	for _, t := range targets {
		if !slices.Contains(keys, t.Key()) {
			keys = append(keys, t.Key())
		}
	}
	r.keys = keys
}

// Hydrate replaces the targets with the members of scope whose keys are
// persisted in r, and returns the keys that matched nothing. When a key
// matches several members the first one wins. A Ref with no persisted keys
// is left untouched. scope is only read.
func (r *Ref[K, E]) Hydrate(scope iter.Seq[E]) (missing []K) {
	if len(r.keys) == 0 {
		return nil
	}

	found := make(map[K]bool, len(r.keys))
	for _, k := range r.keys {
		found[k] = false
	}

	var targets []E
	for e := range scope {
		k := e.Key()
		if seen, wanted := found[k]; !wanted || seen {
			continue
		}
		found[k] = true
		targets = append(targets, e)
	}
	r.targets = targets

	for _, k := range r.keys {
		if !found[k] {
			missing = append(missing, k)
		}
	}
	return missing
}

// MarshalXML writes one element per persisted key.
func (r Ref[K, E]) MarshalXML(e *xml.Encoder, start xml.StartElement) error {
	for _, k := range r.keys {
		if err := e.EncodeElement(fmt.Sprint(k), start); err != nil {
			return err
		}
	}
	return nil
}

// UnmarshalXML reads one element and appends its key.
func (r *Ref[K, E]) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	var text string
	if err := d.DecodeElement(&text, &start); err != nil {
		return err
	}
	k, err := parseKey[K](text)
	if err != nil {
		return fmt.Errorf("unmarshal %s: %w", start.Name.Local, err)
	}
	r.SetKeys(append(r.keys, k)...)
	return nil
}

// MarshalXMLAttr writes the persisted keys as a space separated list.
// No attribute is written when there are none.
func (r Ref[K, E]) MarshalXMLAttr(name xml.Name) (xml.Attr, error) {
	if len(r.keys) == 0 {
		return xml.Attr{}, nil
	}
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = fmt.Sprint(k)
	}
	return xml.Attr{Name: name, Value: strings.Join(parts, " ")}, nil
}

// UnmarshalXMLAttr reads a space separated key list.
func (r *Ref[K, E]) UnmarshalXMLAttr(attr xml.Attr) error {
	fields := strings.Fields(attr.Value)
	keys := make([]K, 0, len(fields))
	for _, f := range fields {
		k, err := parseKey[K](f)
		if err != nil {
			return fmt.Errorf("unmarshal %s: %w", attr.Name.Local, err)
		}
		keys = append(keys, k)
	}
	r.SetKeys(keys...)
	return nil
}

// MarshalCBOR encodes the persisted keys.
func (r Ref[K, E]) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(r.keys)
}

// UnmarshalCBOR decodes the persisted keys.
func (r *Ref[K, E]) UnmarshalCBOR(data []byte) error {
	var keys []K
	if err := cbor.Unmarshal(data, &keys); err != nil {
		return err
	}
	r.SetKeys(keys...)
	return nil
}

func parseKey[K cmp.Ordered](s string) (K, error) {
	var k K
	s = strings.TrimSpace(s)
	if s == "" {
		return k, fmt.Errorf("empty identifier")
	}
	if v := reflect.ValueOf(&k).Elem(); v.Kind() == reflect.String {
		v.SetString(s)
		return k, nil
	}
	if _, err := fmt.Sscan(s, &k); err != nil {
		return k, fmt.Errorf("identifier %q: %w", s, err)
	}
	return k, nil
}
