package querycache

import (
	"context"
	"fmt"
)

// Mutation names a write whose effect on cached reads is declared in
// invalidationRules.
type Mutation string

const (
	CreateReview Mutation = "create-review"
	UpdateReview Mutation = "update-review"
	DeleteReview Mutation = "delete-review"

	AddToWatchlist      Mutation = "add-to-watchlist"
	RemoveFromWatchlist Mutation = "remove-from-watchlist"
	MarkWatched         Mutation = "mark-watched"
	UpdateWatchlistItem Mutation = "update-watchlist-item"
)

// Target identifies the movie and user a mutation touched.
type Target struct {
	MovieID int
	UserID  string
}

type rule func(Target) Key

var (
	reviewRules = []rule{
		func(t Target) Key { return MovieReviewsPrefix(t.MovieID) },
		func(t Target) Key { return MovieStats(t.MovieID) },
		func(t Target) Key { return UserMovieReview(t.MovieID, t.UserID) },
		func(Target) Key { return RecentReviewsPrefix() },
	}
	reviewEditRules = append(append([]rule{}, reviewRules...),
		func(t Target) Key { return UserReviewsPrefix(t.UserID) },
	)
	watchlistRules = []rule{
		func(t Target) Key { return WatchlistPrefix(t.UserID) },
		func(t Target) Key { return WatchlistStats(t.UserID) },
	}
)

var invalidationRules = map[Mutation][]rule{
	CreateReview: reviewRules,
	UpdateReview: reviewEditRules,
	DeleteReview: reviewEditRules,

	AddToWatchlist:      watchlistRules,
	RemoveFromWatchlist: watchlistRules,
	MarkWatched:         watchlistRules,
	UpdateWatchlistItem: watchlistRules,
}

// Prefixes resolves the key prefixes a mutation invalidates.
func Prefixes(m Mutation, t Target) ([]Key, error) {
	rules, ok := invalidationRules[m]
	if !ok {
		return nil, fmt.Errorf("no invalidation rules for mutation %q", m)
	}
	keys := make([]Key, len(rules))
	for i, r := range rules {
		keys[i] = r(t)
	}
	return keys, nil
}

// Invalidate applies the declared rules for a completed mutation.
func (c *Cache) Invalidate(ctx context.Context, m Mutation, t Target) error {
	keys, err := Prefixes(m, t)
	if err != nil {
		return err
	}
	return c.InvalidatePrefix(ctx, keys...)
}
