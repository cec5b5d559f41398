package movies

import (
	"context"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/JustinTDCT/CineScope/internal/catalog"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/querycache"
)

// Catalog is the subset of *catalog.Gateway the service reads through.
type Catalog interface {
	Discover(ctx context.Context, f models.DiscoverFilters) (*models.MoviePage, error)
	Search(ctx context.Context, query string, page int) (*models.MoviePage, error)
	Trending(ctx context.Context, window models.TimeWindow, page int) (*models.MoviePage, error)
	NowPlaying(ctx context.Context, page int) (*models.MoviePage, error)
	Upcoming(ctx context.Context, page int) (*models.MoviePage, error)
	TopRated(ctx context.Context, page int) (*models.MoviePage, error)
	MovieDetails(ctx context.Context, movieID int) (*models.MovieDetails, error)
	Genres(ctx context.Context) ([]models.Genre, error)
}

type Service struct {
	catalog Catalog
	cache   *querycache.Cache
	logger  hclog.Logger
}

func NewService(c Catalog, cache *querycache.Cache, logger hclog.Logger) *Service {
	return &Service{catalog: c, cache: cache, logger: logger.Named("movies")}
}

func (s *Service) Popular(ctx context.Context, f models.DiscoverFilters) (*models.MoviePage, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	key := querycache.Movies("popular", f.CacheToken(), page(f.Page))
	return querycache.Fetch(ctx, s.cache, key, querycache.TTLPopular, func(ctx context.Context) (*models.MoviePage, error) {
		return s.catalog.Discover(ctx, f)
	})
}

// Search returns an empty page for a blank query without calling the catalog.
func (s *Service) Search(ctx context.Context, query string, pg int) (*models.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &models.MoviePage{Page: 1, Results: []models.Movie{}}, nil
	}
	if pg < 1 {
		pg = 1
	}
	key := querycache.Movies("search", query, page(pg))
	return querycache.Fetch(ctx, s.cache, key, querycache.TTLSearch, func(ctx context.Context) (*models.MoviePage, error) {
		return s.catalog.Search(ctx, query, pg)
	})
}

func (s *Service) Trending(ctx context.Context, window models.TimeWindow, pg int) (*models.MoviePage, error) {
	if window != models.TimeWindowDay {
		window = models.TimeWindowWeek
	}
	if pg < 1 {
		pg = 1
	}
	key := querycache.Movies("trending", string(window), page(pg))
	return querycache.Fetch(ctx, s.cache, key, querycache.TTLTrending, func(ctx context.Context) (*models.MoviePage, error) {
		return s.catalog.Trending(ctx, window, pg)
	})
}

func (s *Service) NowPlaying(ctx context.Context, pg int) (*models.MoviePage, error) {
	return s.listing(ctx, "now-playing", pg, s.catalog.NowPlaying)
}

func (s *Service) Upcoming(ctx context.Context, pg int) (*models.MoviePage, error) {
	return s.listing(ctx, "upcoming", pg, s.catalog.Upcoming)
}

func (s *Service) TopRated(ctx context.Context, pg int) (*models.MoviePage, error) {
	return s.listing(ctx, "top-rated", pg, s.catalog.TopRated)
}

func (s *Service) Details(ctx context.Context, movieID int) (*models.MovieDetails, error) {
	return querycache.Fetch(ctx, s.cache, querycache.Movie(movieID), querycache.TTLDetails, func(ctx context.Context) (*models.MovieDetails, error) {
		return s.catalog.MovieDetails(ctx, movieID)
	})
}

func (s *Service) Genres(ctx context.Context) ([]models.Genre, error) {
	return querycache.Fetch(ctx, s.cache, querycache.Genres(), querycache.TTLGenres, s.catalog.Genres)
}

// GenreNames maps genre ids to names, skipping ids the catalog does not know.
// A lookup failure yields no names.
func (s *Service) GenreNames(ctx context.Context, ids []int) []string {
	genres, err := s.Genres(ctx)
	if err != nil {
		s.logger.Warn("genre lookup failed", "error", err)
		return nil
	}
	byID := make(map[int]string, len(genres))
	for _, g := range genres {
		byID[g.ID] = g.Name
	}
	var names []string
	for _, id := range ids {
		if name, ok := byID[id]; ok {
			names = append(names, name)
		}
	}
	return names
}

func (s *Service) listing(ctx context.Context, name string, pg int, fetch func(context.Context, int) (*models.MoviePage, error)) (*models.MoviePage, error) {
	if pg < 1 {
		pg = 1
	}
	return querycache.Fetch(ctx, s.cache, querycache.Movies(name, page(pg)), querycache.TTLListing, func(ctx context.Context) (*models.MoviePage, error) {
		return fetch(ctx, pg)
	})
}

// NextPage reports the page after p, if the catalog can serve one.
func NextPage(p *models.MoviePage) (int, bool) {
	if p == nil || p.Page >= p.TotalPages || p.Page >= catalog.MaxPage {
		return 0, false
	}
	return p.Page + 1, true
}

func page(n int) string { return "page=" + strconv.Itoa(n) }
