package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrFetchExhausted means every fetch strategy failed for a URL.
	ErrFetchExhausted = errors.New("all fetch strategies exhausted")

	// ErrGeocodeUnresolved means the whole geocoding cascade came up empty.
	ErrGeocodeUnresolved = errors.New("address could not be geocoded")

	// ErrProviderRateLimited means the geocoding provider returned 429.
	ErrProviderRateLimited = errors.New("geocoding provider rate limited")

	// ErrDuplicateSourceURL means the listing URL is already known.
	ErrDuplicateSourceURL = errors.New("source url already known")

	ErrNotFound = errors.New("not found")
)

// LocationNotCachedError is returned before any network fetch when a
// portal needs a numeric identifier for a location and the lookup table
// has no entry. Available carries a sample of known keys so the operator
// can see what the table accepts.
type LocationNotCachedError struct {
	Portal    string
	Kind      string
	Key       string
	Available []string
}

func (e *LocationNotCachedError) Error() string {
	keys := append([]string(nil), e.Available...)
	sort.Strings(keys)
	if len(keys) > 20 {
		keys = keys[:20]
	}
	return fmt.Sprintf("%s %s %q not in lookup table; known keys: %s",
		e.Portal, e.Kind, e.Key, strings.Join(keys, ", "))
}
