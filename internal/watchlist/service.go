package watchlist

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/querycache"
	"github.com/JustinTDCT/CineScope/internal/repository"
)

const (
	HighestPriority = 1
	LowestPriority  = 5
)

type Store interface {
	List(ctx context.Context, userID string, f models.WatchlistFilters) ([]*models.WatchlistItem, error)
	Get(ctx context.Context, userID string, movieID int) (*models.WatchlistItem, error)
	Contains(ctx context.Context, userID string, movieID int) (bool, error)
	Stats(ctx context.Context, userID string) (*models.WatchlistStats, error)
	Add(ctx context.Context, userID string, req models.AddToWatchlistRequest) (*models.ProcedureResult, error)
	MarkWatched(ctx context.Context, userID string, movieID int, watched bool) (*models.ProcedureResult, error)
	Remove(ctx context.Context, userID string, movieID int) error
	Update(ctx context.Context, userID string, movieID int, u models.WatchlistUpdate) error
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var errPriorityRange = &ValidationError{Field: "priority", Message: "Priority must be between 1 and 5"}

// GenreNamer resolves catalog genre ids to display names for quick-add.
type GenreNamer func(ctx context.Context, ids []int) []string

type Service struct {
	store  Store
	cache  *querycache.Cache
	genres GenreNamer
	logger hclog.Logger
}

func NewService(store Store, cache *querycache.Cache, genres GenreNamer, logger hclog.Logger) *Service {
	return &Service{store: store, cache: cache, genres: genres, logger: logger.Named("watchlist")}
}

// ──────────────────── Reads ────────────────────

func (s *Service) List(ctx context.Context, sess *auth.Session, f models.WatchlistFilters) ([]*models.WatchlistItem, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	for _, p := range f.Priority {
		if err := validatePriority(p); err != nil {
			return nil, err
		}
	}
	f.Search = strings.TrimSpace(f.Search)
	return querycache.Fetch(ctx, s.cache, querycache.Watchlist(userID, f.CacheToken()), querycache.NoExpiry,
		func(ctx context.Context) ([]*models.WatchlistItem, error) {
			return s.store.List(ctx, userID, f)
		})
}

func (s *Service) Stats(ctx context.Context, sess *auth.Session) (*models.WatchlistStats, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, querycache.WatchlistStats(userID), querycache.NoExpiry,
		func(ctx context.Context) (*models.WatchlistStats, error) {
			return s.store.Stats(ctx, userID)
		})
}

// Item returns nil when the movie is not on the caller's watchlist. It shares
// the watchlist prefix so every watchlist mutation refreshes it.
func (s *Service) Item(ctx context.Context, sess *auth.Session, movieID int) (*models.WatchlistItem, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, querycache.Watchlist(userID, "movie="+strconv.Itoa(movieID)), querycache.NoExpiry,
		func(ctx context.Context) (*models.WatchlistItem, error) {
			return s.store.Get(ctx, userID, movieID)
		})
}

// Contains is false for anonymous callers.
func (s *Service) Contains(ctx context.Context, sess *auth.Session, movieID int) (bool, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return false, nil
	}
	return querycache.Fetch(ctx, s.cache, querycache.Watchlist(userID, "contains="+strconv.Itoa(movieID)), querycache.NoExpiry,
		func(ctx context.Context) (bool, error) {
			return s.store.Contains(ctx, userID, movieID)
		})
}

// ──────────────────── Writes ────────────────────

func (s *Service) Add(ctx context.Context, sess *auth.Session, req models.AddToWatchlistRequest) (*models.ProcedureResult, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	if req.Priority == 0 {
		req.Priority = models.DefaultWatchlistPriority
	}
	if err := validatePriority(req.Priority); err != nil {
		return nil, err
	}
	if req.MovieID <= 0 || strings.TrimSpace(req.MovieTitle) == "" {
		return nil, &ValidationError{Field: "movie", Message: "A movie is required"}
	}

	res, err := s.store.Add(ctx, userID, req)
	if err != nil {
		return res, fmt.Errorf("add to watchlist: %w", err)
	}
	s.invalidate(ctx, querycache.AddToWatchlist, userID, req.MovieID)
	s.logger.Info("added to watchlist", "movie", req.MovieID, "user", userID)
	return res, nil
}

// AddMovie quick-adds a catalog movie. Notes and priority come from u; an
// unset priority falls back to the default.
func (s *Service) AddMovie(ctx context.Context, sess *auth.Session, m models.Movie, u models.WatchlistUpdate) (*models.ProcedureResult, error) {
	req := models.AddToWatchlistRequest{
		MovieID:         m.ID,
		MovieTitle:      m.Title,
		MoviePosterPath: m.PosterPath,
		Notes:           u.Notes,
		Priority:        models.DefaultWatchlistPriority,
	}
	if u.Priority != nil {
		req.Priority = *u.Priority
	}
	if m.ReleaseDate != "" {
		d := m.ReleaseDate
		req.MovieReleaseDate = &d
	}
	if m.Overview != "" {
		o := m.Overview
		req.MovieOverview = &o
	}
	if s.genres != nil && len(m.GenreIDs) > 0 {
		req.MovieGenres = s.genres(ctx, m.GenreIDs)
	}
	return s.Add(ctx, sess, req)
}

func (s *Service) Remove(ctx context.Context, sess *auth.Session, movieID int) error {
	userID, err := auth.UserID(sess)
	if err != nil {
		return err
	}
	if err := s.store.Remove(ctx, userID, movieID); err != nil {
		return fmt.Errorf("remove from watchlist: %w", err)
	}
	s.invalidate(ctx, querycache.RemoveFromWatchlist, userID, movieID)
	return nil
}

func (s *Service) MarkWatched(ctx context.Context, sess *auth.Session, movieID int, watched bool) (*models.ProcedureResult, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	res, err := s.store.MarkWatched(ctx, userID, movieID, watched)
	if err != nil {
		return res, fmt.Errorf("mark watched: %w", err)
	}
	s.invalidate(ctx, querycache.MarkWatched, userID, movieID)
	return res, nil
}

func (s *Service) Update(ctx context.Context, sess *auth.Session, movieID int, u models.WatchlistUpdate) error {
	userID, err := auth.UserID(sess)
	if err != nil {
		return err
	}
	if u.Priority != nil {
		if err := validatePriority(*u.Priority); err != nil {
			return err
		}
	}
	if err := s.store.Update(ctx, userID, movieID, u); err != nil {
		return fmt.Errorf("update watchlist item: %w", err)
	}
	s.invalidate(ctx, querycache.UpdateWatchlistItem, userID, movieID)
	return nil
}

func (s *Service) invalidate(ctx context.Context, m querycache.Mutation, userID string, movieID int) {
	if err := s.cache.Invalidate(ctx, m, querycache.Target{MovieID: movieID, UserID: userID}); err != nil {
		s.logger.Error("cache invalidation failed", "mutation", m, "error", err)
	}
}

func validatePriority(p int) error {
	if p < HighestPriority || p > LowestPriority {
		return errPriorityRange
	}
	return nil
}

var _ Store = (*repository.WatchlistRepository)(nil)
