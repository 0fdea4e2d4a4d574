package geocode

import "errors"

var (
	// ErrResolverUnavailable marks a transport-level geocoding failure.
	// The pipeline degrades to unknown coordinates instead of aborting.
	ErrResolverUnavailable = errors.New("geocode: resolver unavailable")

	// ErrCachePersist marks a failure to write the cache file.
	ErrCachePersist = errors.New("geocode: cache persist failed")
)
