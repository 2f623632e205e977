// Package ssrf models a Standard Spectrum Resource Format record set: a
// strictly schematized document whose records reference each other through
// identifiers instead of pointers.
//
// The package provides three mechanisms shared by every record type:
//
//   - Completeness: every record implements [Completer]. IsSet reports whether
//     its required fields, including those of any embedded base shape such as
//     [Common] or [AsgnFreqBase], are present. Optional child collections do
//     not take part; each child validates on its own.
//   - Ordering: keyed sub-elements order by index, datasets order latest first
//     ([LatestFirst]), and allocations order by display name.
//   - Linking: a [Ref] holds both the persisted identifiers of a reference and
//     the transient objects they resolve to. A [Linker] flattens objects into
//     identifiers before a [Document] is written and hydrates identifiers back
//     into objects after it is read.
//
// # Identifiers
//
// Datasets are keyed by a document-wide [Serial]. Repeatable sub-elements
// ([Footnote], [Comment], [ConfigFreq]) are keyed by an [index.Index] drawn
// from the Document's allocator at construction:
//
//	doc := ssrf.NewDocument()
//	fn, err := ssrf.NewFootnote(doc.Allocator(), "Secondary use only")
//
// Indexes are never reused, even after the element is removed.
//
// # Linking
//
// References are populated during editing as direct associations:
//
//	alloc.ChannelPlanRef.Link(plan)
//	linker.Flatten(doc)            // alloc.ChannelPlanRef.Keys() == [plan.Serial]
//
// and restored after loading:
//
//	report, err := linker.Hydrate(doc)
//
// Identifiers that match nothing in the Document are dropped from the
// resolved set. [LinkConfig] selects whether that is silent, logged, or an
// error.
//
// # Concurrency
//
// Records and Documents are not safe for concurrent mutation. Only the
// allocator may be shared between goroutines. Callers must not modify a
// Document's top-level collections while Hydrate runs.
package ssrf
