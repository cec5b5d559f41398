package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/querycache"
	"github.com/JustinTDCT/CineScope/internal/repository"
)

const (
	MinRating = 1
	MaxRating = 5

	DefaultRecentLimit = 10
)

// Store is the persistence the service needs. *repository.ReviewRepository
// satisfies it.
type Store interface {
	ListByMovie(ctx context.Context, movieID int, f models.ReviewFilters) ([]*models.Review, error)
	ListByUser(ctx context.Context, userID string, f models.ReviewFilters) ([]*models.Review, error)
	Recent(ctx context.Context, limit int) ([]*models.Review, error)
	GetByUserAndMovie(ctx context.Context, userID string, movieID int) (*models.Review, error)
	StatsForMovie(ctx context.Context, movieID int) (*models.MovieReviewStats, error)
	Create(ctx context.Context, userID string, p models.CreateReviewPayload) (*models.Review, error)
	Update(ctx context.Context, userID, reviewID string, u models.UpdateReviewPayload) (*models.Review, error)
	Delete(ctx context.Context, userID, reviewID string) (int, error)
}

// ValidationError is a client-side rejection raised before any backend call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

var errRatingRange = &ValidationError{Field: "rating", Message: "Please select a rating from 1 to 5 stars"}

type Service struct {
	store  Store
	cache  *querycache.Cache
	logger hclog.Logger
}

func NewService(store Store, cache *querycache.Cache, logger hclog.Logger) *Service {
	return &Service{store: store, cache: cache, logger: logger.Named("reviews")}
}

// ──────────────────── Reads ────────────────────

func (s *Service) MovieReviews(ctx context.Context, movieID int, f models.ReviewFilters) ([]*models.Review, error) {
	return querycache.Fetch(ctx, s.cache, querycache.MovieReviews(movieID, f.CacheToken()), querycache.NoExpiry,
		func(ctx context.Context) ([]*models.Review, error) {
			return s.store.ListByMovie(ctx, movieID, f)
		})
}

// MovieStats returns nil when the movie has no reviews.
func (s *Service) MovieStats(ctx context.Context, movieID int) (*models.MovieReviewStats, error) {
	return querycache.Fetch(ctx, s.cache, querycache.MovieStats(movieID), querycache.NoExpiry,
		func(ctx context.Context) (*models.MovieReviewStats, error) {
			return s.store.StatsForMovie(ctx, movieID)
		})
}

// UserMovieReview returns the caller's review of a movie, or nil.
func (s *Service) UserMovieReview(ctx context.Context, sess *auth.Session, movieID int) (*models.Review, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	return querycache.Fetch(ctx, s.cache, querycache.UserMovieReview(movieID, userID), querycache.NoExpiry,
		func(ctx context.Context) (*models.Review, error) {
			return s.store.GetByUserAndMovie(ctx, userID, movieID)
		})
}

func (s *Service) UserReviews(ctx context.Context, userID string, f models.ReviewFilters) ([]*models.Review, error) {
	return querycache.Fetch(ctx, s.cache, querycache.UserReviews(userID, f.CacheToken()), querycache.NoExpiry,
		func(ctx context.Context) ([]*models.Review, error) {
			return s.store.ListByUser(ctx, userID, f)
		})
}

func (s *Service) RecentReviews(ctx context.Context, limit int) ([]*models.Review, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return querycache.Fetch(ctx, s.cache, querycache.RecentReviews(limit), querycache.NoExpiry,
		func(ctx context.Context) ([]*models.Review, error) {
			return s.store.Recent(ctx, limit)
		})
}

// ──────────────────── Writes ────────────────────

// NewDraft captures the movie snapshot a review is written against. The
// rating starts unset and must be chosen before CreateReview accepts it.
func NewDraft(m models.Movie) models.CreateReviewPayload {
	var release *string
	if m.ReleaseDate != "" {
		d := m.ReleaseDate
		release = &d
	}
	return models.CreateReviewPayload{
		MovieID:          m.ID,
		MovieTitle:       m.Title,
		MoviePosterPath:  m.PosterPath,
		MovieReleaseDate: release,
	}
}

func (s *Service) CreateReview(ctx context.Context, sess *auth.Session, p models.CreateReviewPayload) (*models.Review, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	if err := ValidateRating(p.Rating); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.MovieTitle) == "" || p.MovieID <= 0 {
		return nil, &ValidationError{Field: "movie", Message: "A movie is required"}
	}
	if p.ReviewText != nil {
		p.ReviewText = trimText(*p.ReviewText)
	}

	rev, err := s.store.Create(ctx, userID, p)
	if err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.invalidate(ctx, querycache.CreateReview, querycache.Target{MovieID: rev.MovieID, UserID: userID})
	s.logger.Info("review created", "review", rev.ID, "movie", rev.MovieID, "user", userID)
	return rev, nil
}

func (s *Service) UpdateReview(ctx context.Context, sess *auth.Session, reviewID string, u models.UpdateReviewPayload) (*models.Review, error) {
	userID, err := auth.UserID(sess)
	if err != nil {
		return nil, err
	}
	if err := validateReviewID(reviewID); err != nil {
		return nil, err
	}
	if u.Rating != nil {
		if err := ValidateRating(*u.Rating); err != nil {
			return nil, err
		}
	}
	if u.ReviewText != nil {
		trimmed := strings.TrimSpace(*u.ReviewText)
		u.ReviewText = &trimmed
	}

	rev, err := s.store.Update(ctx, userID, reviewID, u)
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.invalidate(ctx, querycache.UpdateReview, querycache.Target{MovieID: rev.MovieID, UserID: userID})
	return rev, nil
}

func (s *Service) DeleteReview(ctx context.Context, sess *auth.Session, reviewID string) error {
	userID, err := auth.UserID(sess)
	if err != nil {
		return err
	}
	if err := validateReviewID(reviewID); err != nil {
		return err
	}

	movieID, err := s.store.Delete(ctx, userID, reviewID)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.invalidate(ctx, querycache.DeleteReview, querycache.Target{MovieID: movieID, UserID: userID})
	s.logger.Info("review deleted", "review", reviewID, "movie", movieID, "user", userID)
	return nil
}

// invalidate runs after a committed write; a cache failure does not undo it.
func (s *Service) invalidate(ctx context.Context, m querycache.Mutation, t querycache.Target) {
	if err := s.cache.Invalidate(ctx, m, t); err != nil {
		s.logger.Error("cache invalidation failed", "mutation", m, "error", err)
	}
}

// ValidateRating rejects ratings outside MinRating..MaxRating.
func ValidateRating(r int) error {
	if r < MinRating || r > MaxRating {
		return errRatingRange
	}
	return nil
}

func validateReviewID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &ValidationError{Field: "id", Message: "Invalid review id"}
	}
	return nil
}

func trimText(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

var _ Store = (*repository.ReviewRepository)(nil)
