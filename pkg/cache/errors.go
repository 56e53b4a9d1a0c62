package cache

import "errors"

// Common errors returned by the cache.
var (
	// ErrSeenStoreClosed is returned when using a closed seen-ID store.
	ErrSeenStoreClosed = errors.New("seen-ID store is closed")
)
