package querycache

import (
	"net/url"
	"strconv"
	"strings"
)

// Key is the semantic identity of a cached read: an operation name followed
// by every parameter that affects the result. A shorter key acts as a prefix
// for invalidation.
type Key []string

// Operation names. They form the first segment of every key.
const (
	OpMovieReviews    = "movie-reviews"
	OpMovieStats      = "movie-stats"
	OpUserMovieReview = "user-movie-review"
	OpUserReviews     = "user-reviews"
	OpRecentReviews   = "recent-reviews"
	OpWatchlist       = "watchlist"
	OpWatchlistStats  = "watchlist-stats"
	OpMovies          = "movies"
	OpMovie           = "movie"
	OpGenres          = "genres"
)

// String renders the key with each segment query-escaped so that the ":"
// separator never occurs inside a segment.
func (k Key) String() string {
	parts := make([]string, len(k))
	for i, p := range k {
		parts[i] = url.QueryEscape(p)
	}
	return strings.Join(parts, ":")
}

// Matches reports whether the rendered key equals prefix or extends it by
// whole segments.
func Matches(key, prefix string) bool {
	return key == prefix || strings.HasPrefix(key, prefix+":")
}

func id(n int) string { return strconv.Itoa(n) }

// ── Reviews ──

func MovieReviews(movieID int, filters string) Key {
	return Key{OpMovieReviews, id(movieID), filters}
}

func MovieReviewsPrefix(movieID int) Key { return Key{OpMovieReviews, id(movieID)} }

func MovieStats(movieID int) Key { return Key{OpMovieStats, id(movieID)} }

func UserMovieReview(movieID int, userID string) Key {
	return Key{OpUserMovieReview, id(movieID), userID}
}

func UserReviews(userID, filters string) Key {
	return Key{OpUserReviews, userID, filters}
}

func UserReviewsPrefix(userID string) Key { return Key{OpUserReviews, userID} }

func RecentReviews(limit int) Key { return Key{OpRecentReviews, id(limit)} }

func RecentReviewsPrefix() Key { return Key{OpRecentReviews} }

// ── Watchlist ──

func Watchlist(userID, filters string) Key {
	return Key{OpWatchlist, userID, filters}
}

func WatchlistPrefix(userID string) Key { return Key{OpWatchlist, userID} }

func WatchlistStats(userID string) Key { return Key{OpWatchlistStats, userID} }

// ── Catalog ──

// Movies keys a catalog listing such as "popular" or "search".
func Movies(list string, params ...string) Key {
	return append(Key{OpMovies, list}, params...)
}

func Movie(movieID int) Key { return Key{OpMovie, id(movieID)} }

func Genres() Key { return Key{OpGenres} }
