package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/catalog"
	"github.com/JustinTDCT/CineScope/internal/httputil"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/movies"
	"github.com/JustinTDCT/CineScope/internal/querycache"
	"github.com/JustinTDCT/CineScope/internal/repository"
	"github.com/JustinTDCT/CineScope/internal/reviews"
	"github.com/JustinTDCT/CineScope/internal/version"
	"github.com/JustinTDCT/CineScope/internal/watchlist"
)

const testSecret = "api-test-secret"

// ──────────────────── Fakes ────────────────────

type fakeCatalog struct {
	page    *models.MoviePage
	details *models.MovieDetails
	err     error
	calls   int
}

func (f *fakeCatalog) result() (*models.MoviePage, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	p := *f.page
	return &p, nil
}

func (f *fakeCatalog) Discover(context.Context, models.DiscoverFilters) (*models.MoviePage, error) {
	return f.result()
}
func (f *fakeCatalog) Search(context.Context, string, int) (*models.MoviePage, error) {
	return f.result()
}
func (f *fakeCatalog) Trending(context.Context, models.TimeWindow, int) (*models.MoviePage, error) {
	return f.result()
}
func (f *fakeCatalog) NowPlaying(context.Context, int) (*models.MoviePage, error) { return f.result() }
func (f *fakeCatalog) Upcoming(context.Context, int) (*models.MoviePage, error)   { return f.result() }
func (f *fakeCatalog) TopRated(context.Context, int) (*models.MoviePage, error)   { return f.result() }

func (f *fakeCatalog) MovieDetails(context.Context, int) (*models.MovieDetails, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.details, nil
}

func (f *fakeCatalog) Genres(context.Context) ([]models.Genre, error) {
	return []models.Genre{{ID: 18, Name: "Drama"}}, nil
}

type fakeReviewStore struct {
	created   []models.CreateReviewPayload
	updateErr error
}

func (f *fakeReviewStore) ListByMovie(context.Context, int, models.ReviewFilters) ([]*models.Review, error) {
	return []*models.Review{}, nil
}
func (f *fakeReviewStore) ListByUser(context.Context, string, models.ReviewFilters) ([]*models.Review, error) {
	return []*models.Review{}, nil
}
func (f *fakeReviewStore) Recent(context.Context, int) ([]*models.Review, error) {
	return []*models.Review{}, nil
}
func (f *fakeReviewStore) GetByUserAndMovie(context.Context, string, int) (*models.Review, error) {
	return nil, nil
}
func (f *fakeReviewStore) StatsForMovie(context.Context, int) (*models.MovieReviewStats, error) {
	return nil, nil
}

func (f *fakeReviewStore) Create(_ context.Context, userID string, p models.CreateReviewPayload) (*models.Review, error) {
	f.created = append(f.created, p)
	return &models.Review{
		ID:         "9f0c7a52-4a4e-4c77-9d4f-0d1f1f5c2b11",
		UserID:     userID,
		MovieID:    p.MovieID,
		MovieTitle: p.MovieTitle,
		Rating:     p.Rating,
		ReviewText: p.ReviewText,
	}, nil
}

func (f *fakeReviewStore) Update(_ context.Context, userID, reviewID string, u models.UpdateReviewPayload) (*models.Review, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &models.Review{ID: reviewID, UserID: userID, MovieID: 550}, nil
}

func (f *fakeReviewStore) Delete(context.Context, string, string) (int, error) { return 550, nil }

type fakeWatchlistStore struct {
	filters []models.WatchlistFilters
	added   []models.AddToWatchlistRequest
	watched []bool
}

func (f *fakeWatchlistStore) List(_ context.Context, _ string, fl models.WatchlistFilters) ([]*models.WatchlistItem, error) {
	f.filters = append(f.filters, fl)
	return []*models.WatchlistItem{}, nil
}
func (f *fakeWatchlistStore) Get(context.Context, string, int) (*models.WatchlistItem, error) {
	return nil, nil
}
func (f *fakeWatchlistStore) Contains(context.Context, string, int) (bool, error) { return false, nil }
func (f *fakeWatchlistStore) Stats(context.Context, string) (*models.WatchlistStats, error) {
	return &models.WatchlistStats{}, nil
}

func (f *fakeWatchlistStore) Add(_ context.Context, _ string, req models.AddToWatchlistRequest) (*models.ProcedureResult, error) {
	f.added = append(f.added, req)
	return &models.ProcedureResult{Success: true, Message: "Movie added to watchlist"}, nil
}

func (f *fakeWatchlistStore) MarkWatched(_ context.Context, _ string, _ int, watched bool) (*models.ProcedureResult, error) {
	f.watched = append(f.watched, watched)
	return &models.ProcedureResult{Success: true}, nil
}

func (f *fakeWatchlistStore) Remove(context.Context, string, int) error { return nil }
func (f *fakeWatchlistStore) Update(context.Context, string, int, models.WatchlistUpdate) error {
	return nil
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

// ──────────────────── Harness ────────────────────

type testEnv struct {
	server    *Server
	catalog   *fakeCatalog
	reviews   *fakeReviewStore
	watchlist *fakeWatchlistStore
	verifier  *auth.Verifier
}

func newTestEnv(t *testing.T, db Pinger) *testEnv {
	t.Helper()
	logger := hclog.NewNullLogger()
	cache := querycache.New(querycache.NewMemoryStore(), logger)

	env := &testEnv{
		catalog:   &fakeCatalog{page: &models.MoviePage{Page: 1, TotalPages: 1}},
		reviews:   &fakeReviewStore{},
		watchlist: &fakeWatchlistStore{},
		verifier:  auth.NewVerifier(testSecret),
	}
	movieSvc := movies.NewService(env.catalog, cache, logger)
	env.server = NewServer(Options{
		Movies:    movieSvc,
		Reviews:   reviews.NewService(env.reviews, cache, logger),
		Watchlist: watchlist.NewService(env.watchlist, cache, movieSvc.GenreNames, logger),
		Auth:      auth.NewMiddleware(env.verifier, logger),
		DB:        db,
		Version:   version.Info{Version: "test"},
		Logger:    logger,
	})
	return env
}

type envelope struct {
	Status string              `json:"status"`
	Data   json.RawMessage     `json:"data"`
	Error  *httputil.ErrorBody `json:"error"`
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}, userID string) (int, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		token, err := e.verifier.Issue(auth.Session{UserID: userID}, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

// ──────────────────── Tests ────────────────────

func TestHealth(t *testing.T) {
	code, env := newTestEnv(t, fakePinger{}).do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok","version":"test","database":"ok"}`, string(env.Data))

	_, env = newTestEnv(t, fakePinger{err: errors.New("down")}).do(t, http.MethodGet, "/api/v1/health", nil, "")
	assert.JSONEq(t, `{"status":"degraded","version":"test","database":"unreachable"}`, string(env.Data))
}

func TestWatchlistRequiresSession(t *testing.T) {
	e := newTestEnv(t, nil)
	for _, path := range []string{"/api/v1/watchlist", "/api/v1/watchlist/stats", "/api/v1/watchlist/550"} {
		code, env := e.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, code, path)
		require.NotNil(t, env.Error)
		assert.Equal(t, "AUTH_REQUIRED", env.Error.Code)
	}
}

func TestPopularIncludesNextPage(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.page = &models.MoviePage{Page: 1, TotalPages: 3, Results: []models.Movie{{ID: 550, Title: "Fight Club"}}}

	code, env := e.do(t, http.MethodGet, "/api/v1/movies/popular", nil, "")
	require.Equal(t, http.StatusOK, code)

	var page struct {
		Page     int            `json:"page"`
		Results  []models.Movie `json:"results"`
		NextPage *int           `json:"next_page"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Page)
	require.NotNil(t, page.NextPage)
	assert.Equal(t, 2, *page.NextPage)
	assert.Len(t, page.Results, 1)
}

func TestListingLastPageHasNoNextPage(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.page = &models.MoviePage{Page: 2, TotalPages: 2}

	_, env := e.do(t, http.MethodGet, "/api/v1/movies/top-rated?page=2", nil, "")
	assert.Contains(t, string(env.Data), `"next_page":null`)
}

func TestCatalogFailureIsBadGateway(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.err = &catalog.FetchError{Endpoint: "/discover/movie", StatusCode: http.StatusServiceUnavailable}

	code, env := e.do(t, http.MethodGet, "/api/v1/movies/popular", nil, "")
	assert.Equal(t, http.StatusBadGateway, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FETCH_FAILED", env.Error.Code)
}

func TestBlankSearchSkipsCatalog(t *testing.T) {
	e := newTestEnv(t, nil)
	code, _ := e.do(t, http.MethodGet, "/api/v1/movies/search?q=%20%20", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.Zero(t, e.catalog.calls)
}

func TestInvalidMovieID(t *testing.T) {
	code, env := newTestEnv(t, nil).do(t, http.MethodGet, "/api/v1/movies/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)
}

func TestCreateReviewRejectsZeroRating(t *testing.T) {
	e := newTestEnv(t, nil)
	code, env := e.do(t, http.MethodPost, "/api/v1/movies/550/reviews", map[string]interface{}{
		"rating":      0,
		"movie_title": "Fight Club",
	}, "u1")

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Please select a rating from 1 to 5 stars", env.Error.Message)
	assert.Empty(t, e.reviews.created)
}

func TestCreateReviewSnapshotsCatalogMovie(t *testing.T) {
	e := newTestEnv(t, nil)
	poster := "/fc.jpg"
	e.catalog.details = &models.MovieDetails{ID: 550, Title: "Fight Club", PosterPath: &poster, ReleaseDate: "1999-10-15"}

	code, _ := e.do(t, http.MethodPost, "/api/v1/movies/550/reviews", map[string]interface{}{
		"rating":      5,
		"review_text": "  First rule.  ",
	}, "u1")

	require.Equal(t, http.StatusCreated, code)
	require.Len(t, e.reviews.created, 1)
	got := e.reviews.created[0]
	assert.Equal(t, 550, got.MovieID)
	assert.Equal(t, "Fight Club", got.MovieTitle)
	assert.Equal(t, &poster, got.MoviePosterPath)
	require.NotNil(t, got.MovieReleaseDate)
	assert.Equal(t, "1999-10-15", *got.MovieReleaseDate)
	require.NotNil(t, got.ReviewText)
	assert.Equal(t, "First rule.", *got.ReviewText)
}

func TestCreateReviewRequiresSession(t *testing.T) {
	code, env := newTestEnv(t, nil).do(t, http.MethodPost, "/api/v1/movies/550/reviews", map[string]int{"rating": 4}, "")
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "AUTH_REQUIRED", env.Error.Code)
}

func TestUpdateMissingReviewIsNotFound(t *testing.T) {
	e := newTestEnv(t, nil)
	e.reviews.updateErr = repository.NotFound("Review not found")

	rating := 4
	code, env := e.do(t, http.MethodPatch, "/api/v1/reviews/9f0c7a52-4a4e-4c77-9d4f-0d1f1f5c2b11",
		models.UpdateReviewPayload{Rating: &rating}, "u1")

	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
	assert.Equal(t, "Review not found", env.Error.Message)
}

func TestListWatchlistParsesFilters(t *testing.T) {
	e := newTestEnv(t, nil)
	code, _ := e.do(t, http.MethodGet, "/api/v1/watchlist?priority=1,2&watched=false&search=%20alien%20&sort_by=priority&sort_order=asc", nil, "u1")
	require.Equal(t, http.StatusOK, code)

	require.Len(t, e.watchlist.filters, 1)
	f := e.watchlist.filters[0]
	assert.Equal(t, []int{1, 2}, f.Priority)
	require.NotNil(t, f.Watched)
	assert.False(t, *f.Watched)
	assert.Equal(t, "alien", f.Search)
	assert.Equal(t, models.WatchlistSortPriority, f.SortBy)
}

func TestListWatchlistRejectsBadPriority(t *testing.T) {
	e := newTestEnv(t, nil)
	code, env := e.do(t, http.MethodGet, "/api/v1/watchlist?priority=9", nil, "u1")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "Priority must be between 1 and 5", env.Error.Message)
	assert.Empty(t, e.watchlist.filters)
}

func TestQuickAddUsesCatalogDetails(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.details = &models.MovieDetails{
		ID:       550,
		Title:    "Fight Club",
		Overview: "An insomniac office worker.",
		Genres:   []models.Genre{{ID: 18, Name: "Drama"}},
	}

	code, _ := e.do(t, http.MethodPost, "/api/v1/watchlist", map[string]int{"movie_id": 550}, "u1")
	require.Equal(t, http.StatusCreated, code)

	require.Len(t, e.watchlist.added, 1)
	got := e.watchlist.added[0]
	assert.Equal(t, "Fight Club", got.MovieTitle)
	assert.Equal(t, models.DefaultWatchlistPriority, got.Priority)
	assert.Equal(t, []string{"Drama"}, got.MovieGenres)
}

func TestWatchlistItemAbsent(t *testing.T) {
	_, env := newTestEnv(t, nil).do(t, http.MethodGet, "/api/v1/watchlist/550", nil, "u1")
	assert.JSONEq(t, `{"in_watchlist":false,"item":null}`, string(env.Data))
}

func TestMarkWatchedDefaultsToTrue(t *testing.T) {
	e := newTestEnv(t, nil)
	code, _ := e.do(t, http.MethodPost, "/api/v1/watchlist/550/watched", nil, "u1")
	require.Equal(t, http.StatusOK, code)

	code, _ = e.do(t, http.MethodPost, "/api/v1/watchlist/550/watched", map[string]bool{"watched": false}, "u1")
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, []bool{true, false}, e.watchlist.watched)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	e := newTestEnv(t, nil)
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestCreateReviewValidatesRatingBeforeCatalogLookup(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.err = &catalog.FetchError{Endpoint: "/movie/550", StatusCode: http.StatusServiceUnavailable}

	code, env := e.do(t, http.MethodPost, "/api/v1/movies/550/reviews", map[string]int{"rating": 0}, "u1")

	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "Please select a rating from 1 to 5 stars", env.Error.Message)
	assert.Zero(t, e.catalog.calls)
	assert.Empty(t, e.reviews.created)
}

func TestQuickAddKeepsPostedNotesAndPriority(t *testing.T) {
	e := newTestEnv(t, nil)
	e.catalog.details = &models.MovieDetails{ID: 550, Title: "Fight Club"}

	code, _ := e.do(t, http.MethodPost, "/api/v1/watchlist", map[string]interface{}{
		"movie_id": 550,
		"priority": 1,
		"notes":    "rewatch",
	}, "u1")
	require.Equal(t, http.StatusCreated, code)

	require.Len(t, e.watchlist.added, 1)
	got := e.watchlist.added[0]
	assert.Equal(t, 1, got.Priority)
	require.NotNil(t, got.Notes)
	assert.Equal(t, "rewatch", *got.Notes)
}
