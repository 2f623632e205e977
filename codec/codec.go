// Package codec reads and writes SSRF documents.
//
// Two encodings are supported: XML for interchange and CBOR for storage. Both
// carry the persisted form of references only. Encoding flattens the
// document immediately before serializing it; decoding hydrates it
// immediately after the whole document has been read, so callers always see
// direct associations on both sides of the boundary.
package codec

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/jacentio/ssrf/ssrf"
)

var (
	// ErrDuplicateIdentifier is returned when a decoded document assigns the
	// same serial to two datasets or the same index to two elements of one
	// collection.
	ErrDuplicateIdentifier = errors.New("codec: duplicate identifier")

	// ErrIncomplete is returned when Options.RequireComplete is set and a
	// dataset is missing required fields.
	ErrIncomplete = errors.New("codec: document incomplete")
)

// Options configures a Codec.
type Options struct {
	// RequireComplete refuses to encode documents whose datasets are not all complete.
	// Default: false
	RequireComplete bool

	// Indent is the per-level XML indentation. Empty writes compact XML.
	// Default: "  "
	Indent string
}

// DefaultOptions returns Options with sensible defaults.
func DefaultOptions() Options {
	return Options{Indent: "  "}
}

// Codec converts documents to and from their wire encodings.
type Codec struct {
	linker *ssrf.Linker
	opts   Options
}

// New creates a Codec. A nil linker uses ssrf.DefaultLinkConfig with the default logger.
func New(linker *ssrf.Linker, opts Options) *Codec {
	if linker == nil {
		linker = ssrf.NewLinker(ssrf.DefaultLinkConfig(), slog.Default())
	}
	return &Codec{linker: linker, opts: opts}
}

// Linker returns the linker used at the encoding boundary.
func (c *Codec) Linker() *ssrf.Linker {
	return c.linker
}

// prepare checks and flattens doc for encoding.
func (c *Codec) prepare(doc *ssrf.Document) error {
	if doc == nil {
		return errors.New("codec: nil document")
	}
	if c.opts.RequireComplete {
		if missing := doc.Incomplete(); len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(missing, ", "))
		}
	}
	c.linker.Flatten(doc)
	return nil
}

// finish validates identifiers in a freshly decoded doc, seeds its allocator
// past every loaded index, and hydrates it.
func (c *Codec) finish(doc *ssrf.Document) (ssrf.Report, error) {
	if err := checkIdentifiers(doc); err != nil {
		return ssrf.Report{}, err
	}
	doc.Allocator().Observe(doc.MaxIndex())
	return c.linker.Hydrate(doc)
}

func checkIdentifiers(doc *ssrf.Document) error {
	owners := make(map[ssrf.Serial]string)
	for ds := range doc.Datasets() {
		serial := ds.Key()
		if serial == "" {
			continue
		}
		if prev, ok := owners[serial]; ok {
			return fmt.Errorf("%w: serial %q used by %s and %s",
				ErrDuplicateIdentifier, serial, prev, ds.EntityRef())
		}
		owners[serial] = ds.EntityRef()
	}

	for label, idx := range doc.KeyedCollections() {
		seen := make(map[uint64]bool, len(idx))
		for _, i := range idx {
			if i == 0 {
				continue
			}
			if seen[uint64(i)] {
				return fmt.Errorf("%w: idx %d repeated in %s", ErrDuplicateIdentifier, i, label)
			}
			seen[uint64(i)] = true
		}
	}
	return nil
}

// EncodeXML writes doc as an XML document to w.
func (c *Codec) EncodeXML(w io.Writer, doc *ssrf.Document) error {
	if err := c.prepare(doc); err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", c.opts.Indent)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("codec: encode xml: %w", err)
	}
	return enc.Close()
}

// MarshalXML returns doc as an XML document.
func (c *Codec) MarshalXML(doc *ssrf.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeXML(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeXML reads an XML document from r.
func (c *Codec) DecodeXML(r io.Reader) (*ssrf.Document, ssrf.Report, error) {
	doc := ssrf.NewDocument()
	if err := xml.NewDecoder(r).Decode(doc); err != nil {
		return nil, ssrf.Report{}, fmt.Errorf("codec: decode xml: %w", err)
	}
	rep, err := c.finish(doc)
	if err != nil {
		return nil, rep, err
	}
	return doc, rep, nil
}

// UnmarshalXML parses an XML document.
func (c *Codec) UnmarshalXML(data []byte) (*ssrf.Document, ssrf.Report, error) {
	return c.DecodeXML(bytes.NewReader(data))
}

var (
	cborOnce sync.Once
	cborEnc  cbor.EncMode
	cborErr  error
)

func encMode() (cbor.EncMode, error) {
	cborOnce.Do(func() {
		cborEnc, cborErr = cbor.CoreDetEncOptions().EncMode()
	})
	return cborEnc, cborErr
}

// MarshalCBOR returns doc in its compact storage encoding.
func (c *Codec) MarshalCBOR(doc *ssrf.Document) ([]byte, error) {
	if err := c.prepare(doc); err != nil {
		return nil, err
	}
	em, err := encMode()
	if err != nil {
		return nil, err
	}
	data, err := em.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("codec: encode cbor: %w", err)
	}
	return data, nil
}

// UnmarshalCBOR parses a document in its compact storage encoding.
func (c *Codec) UnmarshalCBOR(data []byte) (*ssrf.Document, ssrf.Report, error) {
	doc := ssrf.NewDocument()
	if err := cbor.Unmarshal(data, doc); err != nil {
		return nil, ssrf.Report{}, fmt.Errorf("codec: decode cbor: %w", err)
	}
	rep, err := c.finish(doc)
	if err != nil {
		return nil, rep, err
	}
	return doc, rep, nil
}
