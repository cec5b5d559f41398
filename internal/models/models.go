package models

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ──────────────────── Enums ────────────────────

type SortKey string

const (
	SortPopularityDesc  SortKey = "popularity.desc"
	SortReleaseDateDesc SortKey = "release_date.desc"
	SortVoteAverageDesc SortKey = "vote_average.desc"
	SortVoteCountDesc   SortKey = "vote_count.desc"
)

// Valid reports whether the key belongs to the catalog's sort enumeration.
func (k SortKey) Valid() bool {
	switch k {
	case SortPopularityDesc, SortReleaseDateDesc, SortVoteAverageDesc, SortVoteCountDesc:
		return true
	}
	return false
}

type TimeWindow string

const (
	TimeWindowDay  TimeWindow = "day"
	TimeWindowWeek TimeWindow = "week"
)

type ReviewSort string

const (
	ReviewSortNewest       ReviewSort = "newest"
	ReviewSortOldest       ReviewSort = "oldest"
	ReviewSortHighestRated ReviewSort = "highest_rated"
	ReviewSortLowestRated  ReviewSort = "lowest_rated"
)

type WatchlistSort string

const (
	WatchlistSortAddedAt     WatchlistSort = "added_at"
	WatchlistSortTitle       WatchlistSort = "movie_title"
	WatchlistSortPriority    WatchlistSort = "priority"
	WatchlistSortReleaseDate WatchlistSort = "movie_release_date"
)

// ──────────────────── Catalog ────────────────────

// Movie is a catalog record. It is never persisted locally.
type Movie struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	GenreIDs         []int   `json:"genre_ids"`
	Adult            bool    `json:"adult"`
	Popularity       float64 `json:"popularity"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
}

// MoviePage is the catalog's paged envelope. TotalPages and TotalResults
// always describe the upstream (unfiltered) result set.
type MoviePage struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type GenreList struct {
	Genres []Genre `json:"genres"`
}

// MovieDetails is the single-movie payload. Genres arrive as objects rather
// than ids on this endpoint.
type MovieDetails struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	Tagline          string  `json:"tagline"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	Runtime          int     `json:"runtime"`
	Status           string  `json:"status"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Genres           []Genre `json:"genres"`
	Adult            bool    `json:"adult"`
	Popularity       float64 `json:"popularity"`
	OriginalTitle    string  `json:"original_title"`
	OriginalLanguage string  `json:"original_language"`
}

// DiscoverFilters are the optional parameters of the discover listing.
type DiscoverFilters struct {
	Page   int     `json:"page,omitempty"`
	Genre  int     `json:"genre,omitempty"`
	Year   int     `json:"year,omitempty"`
	SortBy SortKey `json:"sort_by,omitempty"`
	Region string  `json:"region,omitempty"`
}

// CacheToken renders every field that affects the discover result.
func (f DiscoverFilters) CacheToken() string {
	sort := f.SortBy
	if sort == "" {
		sort = SortPopularityDesc
	}
	return fmt.Sprintf("genre=%d,year=%d,sort=%s,region=%s", f.Genre, f.Year, sort, f.Region)
}

// ──────────────────── Reviews ────────────────────

type Review struct {
	ID               string    `json:"id" db:"id"`
	UserID           string    `json:"user_id" db:"user_id"`
	MovieID          int       `json:"movie_id" db:"movie_id"`
	MovieTitle       string    `json:"movie_title" db:"movie_title"`
	MoviePosterPath  *string   `json:"movie_poster_path" db:"movie_poster_path"`
	MovieReleaseDate *string   `json:"movie_release_date" db:"movie_release_date"`
	Rating           int       `json:"rating" db:"rating"`
	ReviewText       *string   `json:"review_text" db:"review_text"`
	IsSpoiler        bool      `json:"is_spoiler" db:"is_spoiler"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// CreateReviewPayload carries the movie snapshot captured when the review is
// written. The snapshot is not re-synced with the catalog afterwards.
type CreateReviewPayload struct {
	MovieID          int     `json:"movie_id"`
	MovieTitle       string  `json:"movie_title"`
	MoviePosterPath  *string `json:"movie_poster_path,omitempty"`
	MovieReleaseDate *string `json:"movie_release_date,omitempty"`
	Rating           int     `json:"rating"`
	ReviewText       *string `json:"review_text,omitempty"`
	IsSpoiler        bool    `json:"is_spoiler"`
}

type UpdateReviewPayload struct {
	Rating     *int    `json:"rating,omitempty"`
	ReviewText *string `json:"review_text,omitempty"`
	IsSpoiler  *bool   `json:"is_spoiler,omitempty"`
}

type MovieReviewStats struct {
	MovieID        int     `json:"movie_id" db:"movie_id"`
	MovieTitle     string  `json:"movie_title" db:"movie_title"`
	TotalReviews   int     `json:"total_reviews" db:"total_reviews"`
	AverageRating  float64 `json:"average_rating" db:"average_rating"`
	FiveStarCount  int     `json:"five_star_count" db:"five_star_count"`
	FourStarCount  int     `json:"four_star_count" db:"four_star_count"`
	ThreeStarCount int     `json:"three_star_count" db:"three_star_count"`
	TwoStarCount   int     `json:"two_star_count" db:"two_star_count"`
	OneStarCount   int     `json:"one_star_count" db:"one_star_count"`
}

// ReviewFilters narrows a review listing. Rating and Spoilers are optional
// exact matches; Offset without Limit implies a page of DefaultReviewPageSize.
type ReviewFilters struct {
	Rating   *int       `json:"rating,omitempty"`
	Spoilers *bool      `json:"spoilers,omitempty"`
	SortBy   ReviewSort `json:"sort_by,omitempty"`
	Limit    int        `json:"limit,omitempty"`
	Offset   int        `json:"offset,omitempty"`
}

const DefaultReviewPageSize = 10

// Page returns the effective limit and offset.
func (f ReviewFilters) Page() (limit, offset int) {
	limit, offset = f.Limit, f.Offset
	if offset > 0 && limit <= 0 {
		limit = DefaultReviewPageSize
	}
	return limit, offset
}

func (f ReviewFilters) CacheToken() string {
	var parts []string
	if f.Rating != nil {
		parts = append(parts, "rating="+strconv.Itoa(*f.Rating))
	}
	if f.Spoilers != nil {
		parts = append(parts, "spoilers="+strconv.FormatBool(*f.Spoilers))
	}
	sort := f.SortBy
	if sort == "" {
		sort = ReviewSortNewest
	}
	parts = append(parts, "sort="+string(sort))
	limit, offset := f.Page()
	parts = append(parts, fmt.Sprintf("limit=%d,offset=%d", limit, offset))
	return strings.Join(parts, ",")
}

// ──────────────────── Watchlist ────────────────────

type WatchlistItem struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	MovieID          int        `json:"movie_id" db:"movie_id"`
	MovieTitle       string     `json:"movie_title" db:"movie_title"`
	MoviePosterPath  *string    `json:"movie_poster_path,omitempty" db:"movie_poster_path"`
	MovieReleaseDate *string    `json:"movie_release_date,omitempty" db:"movie_release_date"`
	MovieOverview    *string    `json:"movie_overview,omitempty" db:"movie_overview"`
	MovieGenres      []string   `json:"movie_genres,omitempty" db:"movie_genres"`
	AddedAt          time.Time  `json:"added_at" db:"added_at"`
	Notes            *string    `json:"notes,omitempty" db:"notes"`
	Priority         int        `json:"priority" db:"priority"`
	Watched          bool       `json:"watched" db:"watched"`
	WatchedAt        *time.Time `json:"watched_at,omitempty" db:"watched_at"`
}

type WatchlistStats struct {
	TotalMovies        int `json:"total_movies" db:"total_movies"`
	UnwatchedMovies    int `json:"unwatched_movies" db:"unwatched_movies"`
	WatchedMovies      int `json:"watched_movies" db:"watched_movies"`
	HighPriorityMovies int `json:"high_priority_movies" db:"high_priority_movies"`
	RecentAdditions    int `json:"recent_additions" db:"recent_additions"`
}

const DefaultWatchlistPriority = 3

type AddToWatchlistRequest struct {
	MovieID          int      `json:"movie_id"`
	MovieTitle       string   `json:"movie_title"`
	MoviePosterPath  *string  `json:"movie_poster_path,omitempty"`
	MovieReleaseDate *string  `json:"movie_release_date,omitempty"`
	MovieOverview    *string  `json:"movie_overview,omitempty"`
	MovieGenres      []string `json:"movie_genres,omitempty"`
	Notes            *string  `json:"notes,omitempty"`
	Priority         int      `json:"priority,omitempty"`
}

type WatchlistUpdate struct {
	Notes    *string `json:"notes,omitempty"`
	Priority *int    `json:"priority,omitempty"`
}

// ProcedureResult is the row returned by the watchlist stored procedures.
type ProcedureResult struct {
	Success     bool    `json:"success"`
	Message     string  `json:"message"`
	WatchlistID *string `json:"watchlist_id,omitempty"`
}

type WatchlistFilters struct {
	Watched   *bool         `json:"watched,omitempty"`
	Priority  []int         `json:"priority,omitempty"`
	Search    string        `json:"search,omitempty"`
	SortBy    WatchlistSort `json:"sort_by,omitempty"`
	SortOrder string        `json:"sort_order,omitempty"`
}

func (f WatchlistFilters) CacheToken() string {
	var parts []string
	if f.Watched != nil {
		parts = append(parts, "watched="+strconv.FormatBool(*f.Watched))
	}
	if len(f.Priority) > 0 {
		ps := make([]string, len(f.Priority))
		for i, p := range f.Priority {
			ps[i] = strconv.Itoa(p)
		}
		parts = append(parts, "priority="+strings.Join(ps, "|"))
	}
	if f.Search != "" {
		parts = append(parts, "search="+url.QueryEscape(f.Search))
	}
	sort := f.SortBy
	if sort == "" {
		sort = WatchlistSortAddedAt
	}
	order := "desc"
	if strings.EqualFold(f.SortOrder, "asc") {
		order = "asc"
	}
	parts = append(parts, "sort="+string(sort), "order="+order)
	return strings.Join(parts, ",")
}

// Summary reduces the details payload to the listing shape used for
// snapshots.
func (d *MovieDetails) Summary() Movie {
	ids := make([]int, len(d.Genres))
	for i, g := range d.Genres {
		ids[i] = g.ID
	}
	return Movie{
		ID:               d.ID,
		Title:            d.Title,
		Overview:         d.Overview,
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		ReleaseDate:      d.ReleaseDate,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		GenreIDs:         ids,
		Adult:            d.Adult,
		Popularity:       d.Popularity,
		OriginalTitle:    d.OriginalTitle,
		OriginalLanguage: d.OriginalLanguage,
	}
}
