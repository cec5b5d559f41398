package api

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/httputil"
	"github.com/JustinTDCT/CineScope/internal/models"
)

func watchlistFilters(r *http.Request) (models.WatchlistFilters, error) {
	q := r.URL.Query()
	f := models.WatchlistFilters{
		Search:    q.Get("search"),
		SortBy:    models.WatchlistSort(q.Get("sort_by")),
		SortOrder: q.Get("sort_order"),
	}
	watched, err := httputil.QueryBool(r, "watched")
	if err != nil {
		return f, err
	}
	f.Watched = watched
	if raw := q.Get("priority"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			n, err := cast.ToIntE(strings.TrimSpace(p))
			if err != nil {
				return f, err
			}
			f.Priority = append(f.Priority, n)
		}
	}
	return f, nil
}

func (s *Server) handleListWatchlist(w http.ResponseWriter, r *http.Request) {
	f, err := watchlistFilters(r)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	items, err := s.watchlist.List(r.Context(), auth.SessionFromContext(r.Context()), f)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, items)
}

func (s *Server) handleWatchlistStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.watchlist.Stats(r.Context(), auth.SessionFromContext(r.Context()))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, stats)
}

// handleAddToWatchlist quick-adds from the catalog when only a movie id is
// posted.
func (s *Server) handleAddToWatchlist(w http.ResponseWriter, r *http.Request) {
	var req models.AddToWatchlistRequest
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.badRequest(w, "INVALID_JSON", "invalid request body")
		return
	}
	if req.MovieID <= 0 {
		s.badRequest(w, "MISSING_FIELDS", "movie_id is required")
		return
	}
	sess := auth.SessionFromContext(r.Context())

	var (
		res *models.ProcedureResult
		err error
	)
	if req.MovieTitle == "" {
		details, derr := s.movies.Details(r.Context(), req.MovieID)
		if derr != nil {
			s.respondError(w, r, derr)
			return
		}
		u := models.WatchlistUpdate{Notes: req.Notes}
		if req.Priority != 0 {
			u.Priority = &req.Priority
		}
		res, err = s.watchlist.AddMovie(r.Context(), sess, details.Summary(), u)
	} else {
		res, err = s.watchlist.Add(r.Context(), sess, req)
	}
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, res)
}

type watchlistItemResponse struct {
	InWatchlist bool                  `json:"in_watchlist"`
	Item        *models.WatchlistItem `json:"item"`
}

func (s *Server) handleGetWatchlistItem(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	sess := auth.SessionFromContext(r.Context())
	in, err := s.watchlist.Contains(r.Context(), sess, movieID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	resp := watchlistItemResponse{InWatchlist: in}
	if in {
		if resp.Item, err = s.watchlist.Item(r.Context(), sess, movieID); err != nil {
			s.respondError(w, r, err)
			return
		}
	}
	s.respond(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateWatchlistItem(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	var req models.WatchlistUpdate
	if err := httputil.ReadJSON(r, &req); err != nil {
		s.badRequest(w, "INVALID_JSON", "invalid request body")
		return
	}
	if err := s.watchlist.Update(r.Context(), auth.SessionFromContext(r.Context()), movieID, req); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"updated": true})
}

func (s *Server) handleRemoveFromWatchlist(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	if err := s.watchlist.Remove(r.Context(), auth.SessionFromContext(r.Context()), movieID); err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]bool{"removed": true})
}

func (s *Server) handleMarkWatched(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	req := struct {
		Watched *bool `json:"watched"`
	}{}
	if err := httputil.ReadJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		s.badRequest(w, "INVALID_JSON", "invalid request body")
		return
	}
	watched := req.Watched == nil || *req.Watched

	res, err := s.watchlist.MarkWatched(r.Context(), auth.SessionFromContext(r.Context()), movieID, watched)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, res)
}
