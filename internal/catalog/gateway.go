package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/JustinTDCT/CineScope/internal/config"
	"github.com/JustinTDCT/CineScope/internal/models"
)

// MaxPage is the highest page number the catalog API serves.
const MaxPage = 500

const defaultRegion = "IN"

var (
	ErrFetchFailed    = errors.New("catalog fetch failed")
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// FetchError describes a failed upstream call. StatusCode is zero for
// transport failures.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("catalog %s: status %d", e.Endpoint, e.StatusCode)
}

func (e *FetchError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFetchFailed, e.Err}
	}
	return []error{ErrFetchFailed}
}

// Gateway wraps the movie catalog API. Every listing it returns has passed
// the configured content filter.
type Gateway struct {
	baseURL         string
	apiKey          string
	readToken       string
	language        string
	region          string
	imageBaseURL    string
	backdropBaseURL string
	filter          *ContentFilter
	client          *http.Client
	limiter         *rate.Limiter
	logger          hclog.Logger
}

func NewGateway(cfg config.TMDBConfig, filterCfg FilterConfig, logger hclog.Logger) *Gateway {
	region := filterCfg.Region
	if region == "" {
		region = defaultRegion
	}
	language := cfg.Language
	if language == "" {
		language = "en-US"
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gateway{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:          cfg.APIKey,
		readToken:       cfg.ReadToken,
		language:        language,
		region:          region,
		imageBaseURL:    cfg.ImageBaseURL,
		backdropBaseURL: cfg.BackdropBaseURL,
		filter:          NewContentFilter(filterCfg.Level),
		client:          &http.Client{Timeout: timeout},
		limiter:         rate.NewLimiter(limit, 1),
		logger:          logger.Named("catalog"),
	}
}

func (g *Gateway) FilterLevel() FilterLevel { return g.filter.Level() }

// Discover lists movies through the discover endpoint, the source of the
// popular listing.
func (g *Gateway) Discover(ctx context.Context, f models.DiscoverFilters) (*models.MoviePage, error) {
	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = models.SortPopularityDesc
	}
	if !sortBy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, sortBy)
	}

	params := url.Values{}
	params.Set("page", strconv.Itoa(clampPage(f.Page)))
	params.Set("sort_by", string(sortBy))
	if f.Genre > 0 {
		params.Set("with_genres", strconv.Itoa(f.Genre))
	}
	if f.Year > 0 {
		params.Set("primary_release_year", strconv.Itoa(f.Year))
	}
	if f.Region != "" {
		params.Set("region", f.Region)
	}
	return g.fetchPage(ctx, "/discover/movie", params)
}

func (g *Gateway) Search(ctx context.Context, query string, page int) (*models.MoviePage, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(clampPage(page)))
	return g.fetchPage(ctx, "/search/movie", params)
}

func (g *Gateway) Trending(ctx context.Context, window models.TimeWindow, page int) (*models.MoviePage, error) {
	if window != models.TimeWindowDay {
		window = models.TimeWindowWeek
	}
	return g.fetchPage(ctx, "/trending/movie/"+string(window), pageParams(page))
}

func (g *Gateway) NowPlaying(ctx context.Context, page int) (*models.MoviePage, error) {
	return g.fetchPage(ctx, "/movie/now_playing", pageParams(page))
}

func (g *Gateway) Upcoming(ctx context.Context, page int) (*models.MoviePage, error) {
	return g.fetchPage(ctx, "/movie/upcoming", pageParams(page))
}

func (g *Gateway) TopRated(ctx context.Context, page int) (*models.MoviePage, error) {
	return g.fetchPage(ctx, "/movie/top_rated", pageParams(page))
}

// MovieDetails returns a single record as-is; only listings are filtered.
func (g *Gateway) MovieDetails(ctx context.Context, movieID int) (*models.MovieDetails, error) {
	var details models.MovieDetails
	if err := g.get(ctx, fmt.Sprintf("/movie/%d", movieID), nil, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (g *Gateway) Genres(ctx context.Context) ([]models.Genre, error) {
	var list models.GenreList
	if err := g.get(ctx, "/genre/movie/list", nil, &list); err != nil {
		return nil, err
	}
	return list.Genres, nil
}

// fetchPage replaces the result list with its filtered subset. The totals are
// left exactly as the upstream reported them.
func (g *Gateway) fetchPage(ctx context.Context, endpoint string, params url.Values) (*models.MoviePage, error) {
	var page models.MoviePage
	if err := g.get(ctx, endpoint, params, &page); err != nil {
		return nil, err
	}

	before := len(page.Results)
	page.Results = g.filter.Apply(page.Results)
	if removed := before - len(page.Results); removed > 0 {
		g.logger.Debug("filtered catalog results",
			"endpoint", endpoint,
			"level", g.filter.Level(),
			"removed", removed,
			"kept", len(page.Results))
	}
	return &page, nil
}

func (g *Gateway) get(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	if params == nil {
		params = url.Values{}
	}
	params.Set("api_key", g.apiKey)
	params.Set("include_adult", "false")
	params.Set("language", g.language)
	if params.Get("region") == "" {
		params.Set("region", g.region)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}

	reqURL := g.baseURL + endpoint + "?" + params.Encode()
	g.logger.Debug("catalog request", "url", g.redact(reqURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	if g.readToken != "" {
		req.Header.Set("Authorization", "Bearer "+g.readToken)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("catalog request failed", "endpoint", endpoint, "error", err)
		return &FetchError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		g.logger.Error("catalog api error",
			"endpoint", endpoint,
			"status", resp.StatusCode,
			"body", string(body))
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		g.logger.Error("catalog decode failed", "endpoint", endpoint, "error", err)
		return &FetchError{Endpoint: endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func (g *Gateway) redact(s string) string {
	if g.apiKey == "" {
		return s
	}
	return strings.ReplaceAll(s, url.QueryEscape(g.apiKey), "***")
}

func pageParams(page int) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(clampPage(page)))
	return params
}

func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	if page > MaxPage {
		return MaxPage
	}
	return page
}
