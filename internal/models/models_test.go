package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWatchlistCacheTokenEscapesSearch(t *testing.T) {
	crafted := WatchlistFilters{Search: "x,sort=priority,order=asc"}
	plain := WatchlistFilters{Search: "x", SortBy: WatchlistSortPriority, SortOrder: "asc"}

	assert.NotEqual(t, plain.CacheToken(), crafted.CacheToken())
	assert.Equal(t, "search=x%2Csort%3Dpriority%2Corder%3Dasc,sort=added_at,order=desc", crafted.CacheToken())
}

func TestWatchlistCacheTokenOrderIsCaseInsensitive(t *testing.T) {
	assert.Equal(t,
		WatchlistFilters{SortOrder: "ASC"}.CacheToken(),
		WatchlistFilters{SortOrder: "asc"}.CacheToken())
}

func TestReviewFiltersPage(t *testing.T) {
	limit, offset := ReviewFilters{Offset: 20}.Page()
	assert.Equal(t, DefaultReviewPageSize, limit)
	assert.Equal(t, 20, offset)

	limit, offset = ReviewFilters{}.Page()
	assert.Zero(t, limit)
	assert.Zero(t, offset)
}
