package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/httputil"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/reviews"
)

func reviewFilters(r *http.Request) (models.ReviewFilters, error) {
	f := models.ReviewFilters{SortBy: models.ReviewSort(r.URL.Query().Get("sort_by"))}
	if r.URL.Query().Get("rating") != "" {
		rating, err := httputil.QueryInt(r, "rating", 0)
		if err != nil {
			return f, err
		}
		f.Rating = &rating
	}
	spoilers, err := httputil.QueryBool(r, "spoilers")
	if err != nil {
		return f, err
	}
	f.Spoilers = spoilers
	if f.Limit, err = httputil.QueryInt(r, "limit", 0); err != nil {
		return f, err
	}
	if f.Offset, err = httputil.QueryInt(r, "offset", 0); err != nil {
		return f, err
	}
	return f, nil
}

func (s *Server) handleMovieReviews(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	f, err := reviewFilters(r)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	list, err := s.reviews.MovieReviews(r.Context(), movieID, f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, list)
}

func (s *Server) handleMovieReviewStats(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	stats, err := s.reviews.MovieStats(r.Context(), movieID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}

func (s *Server) handleMyMovieReview(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	rev, err := s.reviews.UserMovieReview(r.Context(), auth.SessionFromContext(r.Context()), movieID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, rev)
}

type createReviewRequest struct {
	Rating     int     `json:"rating"`
	ReviewText *string `json:"review_text,omitempty"`
	IsSpoiler  bool    `json:"is_spoiler"`

	MovieTitle       string  `json:"movie_title,omitempty"`
	MoviePosterPath  *string `json:"movie_poster_path,omitempty"`
	MovieReleaseDate *string `json:"movie_release_date,omitempty"`
}

// handleCreateReview snapshots the movie from the catalog unless the client
// supplied the snapshot itself.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	var req createReviewRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.badRequest(w, "INVALID_JSON", "invalid request body")
		return
	}

	if err := reviews.ValidateRating(req.Rating); err != nil {
		s.respondError(w, r, err)
		return
	}

	draft := models.CreateReviewPayload{
		MovieID:          movieID,
		MovieTitle:       req.MovieTitle,
		MoviePosterPath:  req.MoviePosterPath,
		MovieReleaseDate: req.MovieReleaseDate,
	}
	if draft.MovieTitle == "" {
		details, err := s.movies.Details(r.Context(), movieID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		draft = reviews.NewDraft(details.Summary())
	}
	draft.Rating = req.Rating
	draft.ReviewText = req.ReviewText
	draft.IsSpoiler = req.IsSpoiler

	rev, err := s.reviews.CreateReview(r.Context(), auth.SessionFromContext(r.Context()), draft)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, rev)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateReviewPayload
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.badRequest(w, "INVALID_JSON", "invalid request body")
		return
	}
	rev, err := s.reviews.UpdateReview(r.Context(), auth.SessionFromContext(r.Context()), chi.URLParam(r, "reviewID"), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, rev)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := s.reviews.DeleteReview(r.Context(), auth.SessionFromContext(r.Context()), chi.URLParam(r, "reviewID")); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (s *Server) handleRecentReviews(w http.ResponseWriter, r *http.Request) {
	limit, err := httputil.QueryInt(r, "limit", reviews.DefaultRecentLimit)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	list, err := s.reviews.RecentReviews(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, list)
}

func (s *Server) handleUserReviews(w http.ResponseWriter, r *http.Request) {
	f, err := reviewFilters(r)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	list, err := s.reviews.UserReviews(r.Context(), chi.URLParam(r, "userID"), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, list)
}
