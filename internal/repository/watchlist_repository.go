package repository

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/JustinTDCT/CineScope/internal/models"
)

const watchlistColumns = `id, user_id, movie_id, movie_title, movie_poster_path, movie_release_date, movie_overview, movie_genres, added_at, notes, priority, watched, watched_at`

type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

// List returns the user's watchlist. Search is a case-insensitive substring
// match on the movie title.
func (r *WatchlistRepository) List(ctx context.Context, userID string, f models.WatchlistFilters) ([]*models.WatchlistItem, error) {
	q := newSelect(`SELECT `+watchlistColumns+` FROM watchlist WHERE user_id = $1`, userID)
	if f.Watched != nil {
		q.where("watched", *f.Watched)
	}
	if len(f.Priority) > 0 {
		q.whereExpr("priority = ANY(" + q.bind(pq.Array(f.Priority)) + ")")
	}
	if f.Search != "" {
		q.whereExpr("movie_title ILIKE " + q.bind("%"+likeEscaper.Replace(f.Search)+"%"))
	}
	q.orderBy(watchlistOrder(f.SortBy, f.SortOrder))

	rows, err := r.db.QueryContext(ctx, q.String(), q.args...)
	if err != nil {
		return nil, FromDB(err)
	}
	defer rows.Close()
	items := []*models.WatchlistItem{}
	for rows.Next() {
		item, err := scanWatchlistItem(rows)
		if err != nil {
			return nil, FromDB(err)
		}
		items = append(items, item)
	}
	return items, FromDB(rows.Err())
}

// Get returns nil when the movie is not on the user's watchlist.
func (r *WatchlistRepository) Get(ctx context.Context, userID string, movieID int) (*models.WatchlistItem, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watchlist WHERE user_id = $1 AND movie_id = $2`
	item, err := scanWatchlistItem(r.db.QueryRowContext(ctx, query, userID, movieID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, FromDB(err)
	}
	return item, nil
}

func (r *WatchlistRepository) Contains(ctx context.Context, userID string, movieID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM watchlist WHERE user_id = $1 AND movie_id = $2)`, userID, movieID).Scan(&exists)
	if err != nil {
		return false, FromDB(err)
	}
	return exists, nil
}

// Stats returns zeroed stats when the procedure yields no row.
func (r *WatchlistRepository) Stats(ctx context.Context, userID string) (*models.WatchlistStats, error) {
	s := &models.WatchlistStats{}
	err := r.db.QueryRowContext(ctx, `SELECT total_movies, unwatched_movies, watched_movies, high_priority_movies, recent_additions FROM get_user_watchlist_stats($1)`, userID).
		Scan(&s.TotalMovies, &s.UnwatchedMovies, &s.WatchedMovies, &s.HighPriorityMovies, &s.RecentAdditions)
	if errors.Is(err, sql.ErrNoRows) {
		return &models.WatchlistStats{}, nil
	}
	if err != nil {
		return nil, FromDB(err)
	}
	return s, nil
}

// Add calls add_to_watchlist. A success=false answer becomes a rejected error
// carrying the procedure's message.
func (r *WatchlistRepository) Add(ctx context.Context, userID string, req models.AddToWatchlistRequest) (*models.ProcedureResult, error) {
	var genres interface{}
	if len(req.MovieGenres) > 0 {
		genres = pq.Array(req.MovieGenres)
	}
	query := `SELECT success, message, watchlist_id FROM add_to_watchlist($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	res := &models.ProcedureResult{}
	err := r.db.QueryRowContext(ctx, query, userID, req.MovieID, req.MovieTitle, req.MoviePosterPath,
		req.MovieReleaseDate, req.MovieOverview, genres, req.Notes, req.Priority).
		Scan(&res.Success, &res.Message, &res.WatchlistID)
	return checkProcedure(res, err)
}

func (r *WatchlistRepository) MarkWatched(ctx context.Context, userID string, movieID int, watched bool) (*models.ProcedureResult, error) {
	res := &models.ProcedureResult{}
	err := r.db.QueryRowContext(ctx, `SELECT success, message FROM mark_as_watched($1, $2, $3)`, userID, movieID, watched).
		Scan(&res.Success, &res.Message)
	return checkProcedure(res, err)
}

// Remove succeeds even if nothing matched.
func (r *WatchlistRepository) Remove(ctx context.Context, userID string, movieID int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE user_id = $1 AND movie_id = $2`, userID, movieID)
	return FromDB(err)
}

// Update changes notes and/or priority. Zero matched rows is not an error.
func (r *WatchlistRepository) Update(ctx context.Context, userID string, movieID int, u models.WatchlistUpdate) error {
	var sets []string
	var args []interface{}
	if u.Notes != nil {
		args = append(args, nullableText(*u.Notes))
		sets = append(sets, "notes = $"+strconv.Itoa(len(args)))
	}
	if u.Priority != nil {
		args = append(args, *u.Priority)
		sets = append(sets, "priority = $"+strconv.Itoa(len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, userID, movieID)
	query := `UPDATE watchlist SET ` + strings.Join(sets, ", ") +
		` WHERE user_id = $` + strconv.Itoa(len(args)-1) + ` AND movie_id = $` + strconv.Itoa(len(args))
	_, err := r.db.ExecContext(ctx, query, args...)
	return FromDB(err)
}

func checkProcedure(res *models.ProcedureResult, err error) (*models.ProcedureResult, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, Rejected("No result from procedure")
	}
	if err != nil {
		return nil, FromDB(err)
	}
	if !res.Success {
		return res, Rejected(res.Message)
	}
	return res, nil
}

func scanWatchlistItem(row rowScanner) (*models.WatchlistItem, error) {
	item := &models.WatchlistItem{}
	err := row.Scan(&item.ID, &item.UserID, &item.MovieID, &item.MovieTitle, &item.MoviePosterPath, &item.MovieReleaseDate,
		&item.MovieOverview, pq.Array(&item.MovieGenres), &item.AddedAt, &item.Notes, &item.Priority, &item.Watched, &item.WatchedAt)
	if err != nil {
		return nil, err
	}
	return item, nil
}

var watchlistSortColumns = map[models.WatchlistSort]string{
	models.WatchlistSortAddedAt:     "added_at",
	models.WatchlistSortTitle:       "movie_title",
	models.WatchlistSortPriority:    "priority",
	models.WatchlistSortReleaseDate: "movie_release_date",
}

func watchlistOrder(sort models.WatchlistSort, order string) string {
	col, ok := watchlistSortColumns[sort]
	if !ok {
		col = "added_at"
	}
	if strings.EqualFold(order, "asc") {
		return col + " ASC"
	}
	return col + " DESC"
}

// likeEscaper makes search text match literally under the default LIKE
// escape character.
var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
