package querycache

import "time"

// Freshness windows for catalog reads. Review and watchlist reads use
// NoExpiry and rely on invalidation.
const (
	TTLPopular  = 5 * time.Minute
	TTLTrending = 5 * time.Minute
	TTLSearch   = 2 * time.Minute
	TTLListing  = 10 * time.Minute
	TTLDetails  = 10 * time.Minute
	TTLGenres   = 60 * time.Minute

	NoExpiry time.Duration = 0
)
