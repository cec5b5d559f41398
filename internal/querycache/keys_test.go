package querycache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyStringEscapesSegments(t *testing.T) {
	k := Movies("search", "a:b c", "1")
	assert.Equal(t, "movies:search:a%3Ab+c:1", k.String())
}

func TestMatchesWholeSegmentsOnly(t *testing.T) {
	prefix := WatchlistPrefix("u1").String()

	assert.True(t, Matches(prefix, prefix))
	assert.True(t, Matches(Watchlist("u1", "sort=added_at").String(), prefix))
	assert.False(t, Matches(Watchlist("u10", "sort=added_at").String(), prefix))
	assert.False(t, Matches(WatchlistStats("u1").String(), prefix))
}

func TestReviewKeysShareMoviePrefix(t *testing.T) {
	prefix := MovieReviewsPrefix(42).String()
	assert.True(t, Matches(MovieReviews(42, "sort=newest").String(), prefix))
	assert.False(t, Matches(MovieReviews(420, "sort=newest").String(), prefix))
}
