package store

import "errors"

var (
	// ErrNotFound is returned when a document doesn't exist or is deleted (has TTL <= now).
	ErrNotFound = errors.New("store: document not found")

	// ErrAlreadyExists is returned when attempting to create a document with an existing ID.
	ErrAlreadyExists = errors.New("store: document already exists")

	// ErrDuplicateValue is returned when a dataset serial is already held by
	// another document, or repeated within one.
	ErrDuplicateValue = errors.New("store: duplicate serial")

	// ErrConcurrentModification is returned when optimistic lock fails (version mismatch).
	ErrConcurrentModification = errors.New("store: document was modified concurrently")

	// ErrReferenced is returned when deleting with orphan protection a document
	// whose serials other documents still refer to.
	ErrReferenced = errors.New("store: document is referenced")

	// ErrAlreadyDeleted is returned when attempting to delete an already-deleted document.
	ErrAlreadyDeleted = errors.New("store: document is already deleted")

	// ErrTooLarge is returned when a write would exceed the transaction item limit.
	ErrTooLarge = errors.New("store: too many serials and references for one transaction")
)
