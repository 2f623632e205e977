// Package store provides a DynamoDB persistence layer for SSRF documents.
//
// A document is stored as one item holding its deterministic CBOR body.
// Two side tables keep cross-document bookkeeping consistent with it:
//
//   - a unique constraint table, so a dataset serial belongs to at most one
//     active document
//   - a sharded reference index, mapping each serial a document refers to
//     back to the referring document
//
// Every write touches the document and its side-table items in a single
// transaction.
//
// # Key Features
//
//   - Serial uniqueness across documents (atomic)
//   - Weak references: deleting a referenced document leaves referrers intact
//   - Optional orphan protection on delete
//   - Deletes via TTL, with index cleanup through DynamoDB Streams
//   - Optimistic locking with version field
//   - Configurable write sharding for heavily referenced serials
//
// # Configuration
//
// Use [DefaultConfig] for small datasets (NumShards=1, single queries).
// Increase NumShards for higher throughput:
//
//	cfg := store.DefaultConfig()
//	cfg.NumShards = 16 // 16,000 reference writes/sec per serial
//
// # Errors
//
//   - [ErrNotFound] - document doesn't exist or is deleted
//   - [ErrAlreadyExists] - document with ID already exists
//   - [ErrDuplicateValue] - serial already held by another document
//   - [ErrReferenced] - orphan protection refused the delete
//   - [ErrConcurrentModification] - optimistic lock failed
//   - [ErrAlreadyDeleted] - document is already marked for deletion
//   - [ErrTooLarge] - write needs more items than one transaction allows
package store
