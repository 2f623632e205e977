package ssrf

import "errors"

// ErrUnresolvedReference is returned by Hydrate when the Linker is configured
// with FailUnresolved and at least one identifier matched nothing.
var ErrUnresolvedReference = errors.New("ssrf: unresolved reference")
