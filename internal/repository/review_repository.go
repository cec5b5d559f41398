package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/JustinTDCT/CineScope/internal/models"
)

const reviewColumns = `id, user_id, movie_id, movie_title, movie_poster_path, movie_release_date, rating, review_text, is_spoiler, created_at, updated_at`

type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// ──────────────────── Reads ────────────────────

func (r *ReviewRepository) ListByMovie(ctx context.Context, movieID int, f models.ReviewFilters) ([]*models.Review, error) {
	q := newSelect(`SELECT `+reviewColumns+` FROM reviews WHERE movie_id = $1`, movieID)
	if f.Rating != nil {
		q.where("rating", *f.Rating)
	}
	if f.Spoilers != nil {
		q.where("is_spoiler", *f.Spoilers)
	}
	q.orderBy(reviewOrder(f.SortBy))
	q.page(f.Page())
	return r.query(ctx, q)
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID string, f models.ReviewFilters) ([]*models.Review, error) {
	q := newSelect(`SELECT `+reviewColumns+` FROM reviews WHERE user_id = $1`, userID)
	if f.Rating != nil {
		q.where("rating", *f.Rating)
	}
	if f.Spoilers != nil {
		q.where("is_spoiler", *f.Spoilers)
	}
	q.orderBy(reviewOrder(f.SortBy))
	q.page(f.Page())
	return r.query(ctx, q)
}

func (r *ReviewRepository) Recent(ctx context.Context, limit int) ([]*models.Review, error) {
	q := newSelect(`SELECT ` + reviewColumns + ` FROM reviews`)
	q.orderBy("created_at DESC")
	q.page(limit, 0)
	return r.query(ctx, q)
}

// GetByUserAndMovie returns nil when the user has not reviewed the movie.
func (r *ReviewRepository) GetByUserAndMovie(ctx context.Context, userID string, movieID int) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE movie_id = $1 AND user_id = $2`
	rev, err := scanReview(r.db.QueryRowContext(ctx, query, movieID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, FromDB(err)
	}
	return rev, nil
}

// StatsForMovie returns nil for a movie without reviews.
func (r *ReviewRepository) StatsForMovie(ctx context.Context, movieID int) (*models.MovieReviewStats, error) {
	query := `SELECT movie_id, movie_title, total_reviews, average_rating, five_star_count, four_star_count, three_star_count, two_star_count, one_star_count
		FROM movie_review_stats WHERE movie_id = $1`
	s := &models.MovieReviewStats{}
	err := r.db.QueryRowContext(ctx, query, movieID).Scan(&s.MovieID, &s.MovieTitle, &s.TotalReviews, &s.AverageRating,
		&s.FiveStarCount, &s.FourStarCount, &s.ThreeStarCount, &s.TwoStarCount, &s.OneStarCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, FromDB(err)
	}
	return s, nil
}

// ──────────────────── Writes ────────────────────

func (r *ReviewRepository) Create(ctx context.Context, userID string, p models.CreateReviewPayload) (*models.Review, error) {
	query := `INSERT INTO reviews (user_id, movie_id, movie_title, movie_poster_path, movie_release_date, rating, review_text, is_spoiler)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8) RETURNING ` + reviewColumns
	rev, err := scanReview(r.db.QueryRowContext(ctx, query, userID, p.MovieID, p.MovieTitle, p.MoviePosterPath,
		p.MovieReleaseDate, p.Rating, p.ReviewText, p.IsSpoiler))
	if err != nil {
		return nil, FromDB(err)
	}
	return rev, nil
}

// Update changes only the provided fields of a review owned by userID.
func (r *ReviewRepository) Update(ctx context.Context, userID, reviewID string, u models.UpdateReviewPayload) (*models.Review, error) {
	var sets []string
	var args []interface{}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, col+" = $"+strconv.Itoa(len(args)))
	}
	if u.Rating != nil {
		add("rating", *u.Rating)
	}
	if u.ReviewText != nil {
		add("review_text", nullableText(*u.ReviewText))
	}
	if u.IsSpoiler != nil {
		add("is_spoiler", *u.IsSpoiler)
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, reviewID, userID)

	query := `UPDATE reviews SET ` + strings.Join(sets, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)-1) + ` AND user_id = $` + strconv.Itoa(len(args)) +
		` RETURNING ` + reviewColumns
	rev, err := scanReview(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, NotFound("Review not found")
	}
	if err != nil {
		return nil, FromDB(err)
	}
	return rev, nil
}

// Delete removes a review owned by userID and reports which movie it was for.
func (r *ReviewRepository) Delete(ctx context.Context, userID, reviewID string) (int, error) {
	var movieID int
	err := r.db.QueryRowContext(ctx, `DELETE FROM reviews WHERE id = $1 AND user_id = $2 RETURNING movie_id`, reviewID, userID).Scan(&movieID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, NotFound("Review not found")
	}
	if err != nil {
		return 0, FromDB(err)
	}
	return movieID, nil
}

// ──────────────────── Helpers ────────────────────

func (r *ReviewRepository) query(ctx context.Context, q *selectBuilder) ([]*models.Review, error) {
	rows, err := r.db.QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, FromDB(err)
	}
	defer rows.Close()
	results := []*models.Review{}
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, FromDB(err)
		}
		results = append(results, rev)
	}
	return results, FromDB(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReview(row rowScanner) (*models.Review, error) {
	rev := &models.Review{}
	err := row.Scan(&rev.ID, &rev.UserID, &rev.MovieID, &rev.MovieTitle, &rev.MoviePosterPath, &rev.MovieReleaseDate,
		&rev.Rating, &rev.ReviewText, &rev.IsSpoiler, &rev.CreatedAt, &rev.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rev, nil
}

func reviewOrder(s models.ReviewSort) string {
	switch s {
	case models.ReviewSortOldest:
		return "created_at ASC"
	case models.ReviewSortHighestRated:
		return "rating DESC"
	case models.ReviewSortLowestRated:
		return "rating ASC"
	default:
		return "created_at DESC"
	}
}

// nullableText stores blank text as NULL.
func nullableText(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
