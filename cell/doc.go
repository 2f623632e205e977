// Package cell provides the leaf value wrapper every SSRF field is expressed as.
//
// A [Cell] holds one scalar value together with optional security
// [Classification] and remark metadata. Presence, equality and ordering are
// defined on the wrapped value only:
//
//	name := cell.Of("Link 16").Classified(cell.Confidential)
//	name.IsSet()                                   // true
//	cell.Equal(name, cell.Of("Link 16"))           // true, classification ignored
//	cell.Compare(cell.Cell[string]{}, name) < 0    // absent sorts lowest
//
// Cells encode to XML as an element whose character data is the value and
// whose "cls" and "remarks" attributes carry the metadata, and to CBOR as a
// small integer-keyed map.
package cell
