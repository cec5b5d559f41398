package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/CineScope/internal/config"
	"github.com/JustinTDCT/CineScope/internal/models"
)

type recordedRequest struct {
	path   string
	query  url.Values
	header http.Header
}

type recorder struct {
	mu   sync.Mutex
	reqs []recordedRequest
}

func (r *recorder) add(req recordedRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reqs = append(r.reqs, req)
}

func (r *recorder) all() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.reqs...)
}

func newTestGateway(t *testing.T, filterCfg FilterConfig, handler http.HandlerFunc) (*Gateway, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.add(recordedRequest{path: r.URL.Path, query: r.URL.Query(), header: r.Header.Clone()})
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	gw := NewGateway(config.TMDBConfig{
		APIKey:          "test-key",
		ReadToken:       "read-token",
		BaseURL:         srv.URL + "/3",
		ImageBaseURL:    "https://img.example/w500",
		BackdropBaseURL: "https://img.example/w1280",
		Language:        "en-US",
		TimeoutSec:      5,
	}, filterCfg, hclog.NewNullLogger())
	return gw, rec
}

func writePage(w http.ResponseWriter, page models.MoviePage) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(page)
}

func TestGatewayInjectsDefaultParams(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelStrict, Region: "IN"}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{Page: 1, TotalPages: 1})
	})

	_, err := gw.NowPlaying(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, reqs.all(), 1)

	got := reqs.all()[0]
	assert.Equal(t, "/3/movie/now_playing", got.path)
	assert.Equal(t, "test-key", got.query.Get("api_key"))
	assert.Equal(t, "false", got.query.Get("include_adult"))
	assert.Equal(t, "en-US", got.query.Get("language"))
	assert.Equal(t, "IN", got.query.Get("region"))
	assert.Equal(t, "2", got.query.Get("page"))
	assert.Equal(t, "Bearer read-token", got.header.Get("Authorization"))
}

func TestGatewayDefaultsRegionWhenUnconfigured(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{Page: 1})
	})
	_, err := gw.TopRated(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "IN", reqs.all()[0].query.Get("region"))
}

func TestGatewayCallerRegionWins(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelStrict, Region: "IN"}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{Page: 1})
	})

	_, err := gw.Discover(context.Background(), models.DiscoverFilters{Region: "GB", Genre: 28, Year: 1999})
	require.NoError(t, err)

	q := reqs.all()[0].query
	assert.Equal(t, []string{"GB"}, q["region"])
	assert.Equal(t, "28", q.Get("with_genres"))
	assert.Equal(t, "1999", q.Get("primary_release_year"))
	assert.Equal(t, string(models.SortPopularityDesc), q.Get("sort_by"))
}

func TestGatewayClampsPage(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{})
	})
	ctx := context.Background()

	_, err := gw.Upcoming(ctx, 9000)
	require.NoError(t, err)
	_, err = gw.Search(ctx, "alien", 0)
	require.NoError(t, err)

	assert.Equal(t, "500", reqs.all()[0].query.Get("page"))
	assert.Equal(t, "1", reqs.all()[1].query.Get("page"))
	assert.Equal(t, "alien", reqs.all()[1].query.Get("query"))
}

func TestGatewayRejectsUnknownSortKeyWithoutCalling(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{})
	})

	_, err := gw.Discover(context.Background(), models.DiscoverFilters{SortBy: "title.asc"})
	assert.ErrorIs(t, err, ErrInvalidSortKey)
	assert.Empty(t, reqs.all())
}

func TestGatewayFiltersResultsButKeepsTotals(t *testing.T) {
	upstream := models.MoviePage{
		Page:         3,
		Results:      scenarioResults(),
		TotalPages:   41,
		TotalResults: 812,
	}
	gw, _ := newTestGateway(t, FilterConfig{Level: LevelStrict, Region: "IN"}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, upstream)
	})

	page, err := gw.Trending(context.Background(), models.TimeWindowWeek, 3)
	require.NoError(t, err)

	assert.Len(t, page.Results, 14)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 41, page.TotalPages)
	assert.Equal(t, 812, page.TotalResults)
}

func TestGatewayTrendingWindow(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {
		writePage(w, models.MoviePage{})
	})
	ctx := context.Background()
	_, _ = gw.Trending(ctx, models.TimeWindowDay, 1)
	_, _ = gw.Trending(ctx, "month", 1)

	assert.Equal(t, "/3/trending/movie/day", reqs.all()[0].path)
	assert.Equal(t, "/3/trending/movie/week", reqs.all()[1].path)
}

func TestGatewayNonSuccessStatusIsFetchFailure(t *testing.T) {
	var calls int32
	gw, _ := newTestGateway(t, FilterConfig{Level: LevelStrict}, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	_, err := gw.Discover(context.Background(), models.DiscoverFilters{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusUnauthorized, fe.StatusCode)
	assert.Equal(t, "/discover/movie", fe.Endpoint)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "gateway must not retry")
}

func TestGatewayTransportFailureIsFetchFailure(t *testing.T) {
	gw := NewGateway(config.TMDBConfig{
		BaseURL:    "http://127.0.0.1:1",
		TimeoutSec: 1,
	}, FilterConfig{Level: LevelStrict}, hclog.NewNullLogger())

	_, err := gw.Genres(context.Background())
	assert.ErrorIs(t, err, ErrFetchFailed)
}

func TestGatewayDetailsAndGenresAreNotFiltered(t *testing.T) {
	gw, reqs := newTestGateway(t, FilterConfig{Level: LevelStrict}, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/3/movie/603":
			json.NewEncoder(w).Encode(models.MovieDetails{ID: 603, Title: "The Matrix", Adult: false, Runtime: 136})
		case "/3/genre/movie/list":
			json.NewEncoder(w).Encode(models.GenreList{Genres: []models.Genre{{ID: 28, Name: "Action"}}})
		default:
			http.NotFound(w, r)
		}
	})
	ctx := context.Background()

	details, err := gw.MovieDetails(ctx, 603)
	require.NoError(t, err)
	assert.Equal(t, "The Matrix", details.Title)
	assert.Equal(t, 136, details.Runtime)

	genres, err := gw.Genres(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.Genre{{ID: 28, Name: "Action"}}, genres)
	assert.Len(t, reqs.all(), 2)
}

func TestImageURLConcatenation(t *testing.T) {
	gw, _ := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {})

	assert.Equal(t, "https://img.example/w500/abc.jpg", gw.PosterURL("/abc.jpg"))
	assert.Equal(t, "https://img.example/w1280/abc.jpg", gw.BackdropURL("/abc.jpg"))
	assert.Equal(t, "https://img.example/w500not-a-path", gw.PosterURL("not-a-path"))
	assert.Equal(t, "", gw.PosterURL(""))
}

func TestGatewayDecodeFailureKeepsCause(t *testing.T) {
	gw, _ := newTestGateway(t, FilterConfig{Level: LevelBasic}, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page": "one"`))
	})

	_, err := gw.NowPlaying(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFetchFailed)
	assert.Contains(t, err.Error(), "decode response")
	assert.NotContains(t, err.Error(), "status 200")
}

func TestFetchErrorMessage(t *testing.T) {
	assert.Equal(t, "catalog /movie/1: status 404", (&FetchError{Endpoint: "/movie/1", StatusCode: 404}).Error())
	assert.Equal(t, "catalog /movie/1: boom", (&FetchError{Endpoint: "/movie/1", Err: errors.New("boom")}).Error())
}
