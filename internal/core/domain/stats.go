package domain

import "fmt"

// CacheStats counts how requests and cache lookups were served during a build.
type CacheStats struct {
	Hits     uint64 `json:"hits"`
	Misses   uint64 `json:"misses"`
	Bailouts uint64 `json:"bailouts"`
	Errors   uint64 `json:"errors"`
}

// Sub returns the counts accumulated since prev.
func (s CacheStats) Sub(prev CacheStats) CacheStats {
	return CacheStats{
		Hits:     s.Hits - prev.Hits,
		Misses:   s.Misses - prev.Misses,
		Bailouts: s.Bailouts - prev.Bailouts,
		Errors:   s.Errors - prev.Errors,
	}
}

// String renders the counters on one line.
func (s CacheStats) String() string {
	return fmt.Sprintf("hits=%d misses=%d bailouts=%d errors=%d", s.Hits, s.Misses, s.Bailouts, s.Errors)
}
