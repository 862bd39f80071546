package config

import (
	"fmt"
	"strings"
)

// Resolver maps a channel reference to a concrete chat address. A reference
// that already looks like an address (@username or a numeric chat ID) is
// used as-is; anything else is looked up in the channels map, then the
// fallback. A miss with no fallback is an error for that reference only.
type Resolver struct {
	cache    *Cache
	fallback string
}

func NewResolver(cache *Cache, fallback string) *Resolver {
	return &Resolver{cache: cache, fallback: fallback}
}

func (r *Resolver) Resolve(ref string) (string, error) {
	if isLiteralAddress(ref) {
		return ref, nil
	}

	if config := r.cache.Get(); config != nil && ref != "" {
		if address, ok := config.Channels[ref]; ok && address != "" {
			return address, nil
		}
	}

	if r.fallback != "" {
		return r.fallback, nil
	}

	return "", fmt.Errorf("channel '%s' not found and no fallback configured", ref)
}

func isLiteralAddress(ref string) bool {
	if strings.HasPrefix(ref, "@") {
		return len(ref) > 1
	}

	digits := strings.TrimPrefix(ref, "-")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
