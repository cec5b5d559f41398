package api

import (
	"context"
	"net/http"

	"github.com/JustinTDCT/CineScope/internal/httputil"
	"github.com/JustinTDCT/CineScope/internal/models"
	"github.com/JustinTDCT/CineScope/internal/movies"
)

// pageResponse adds the next page number, when there is one, to a listing.
type pageResponse struct {
	*models.MoviePage
	NextPage *int `json:"next_page"`
}

func withNextPage(p *models.MoviePage) pageResponse {
	resp := pageResponse{MoviePage: p}
	if next, ok := movies.NextPage(p); ok {
		resp.NextPage = &next
	}
	return resp
}

func (s *Server) handlePopular(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	genre, err := httputil.QueryInt(r, "genre", 0)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	year, err := httputil.QueryInt(r, "year", 0)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}

	result, err := s.movies.Popular(r.Context(), models.DiscoverFilters{
		Page:   page,
		Genre:  genre,
		Year:   year,
		SortBy: models.SortKey(q.Get("sort_by")),
		Region: q.Get("region"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, withNextPage(result))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	result, err := s.movies.Search(r.Context(), r.URL.Query().Get("q"), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, withNextPage(result))
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	result, err := s.movies.Trending(r.Context(), models.TimeWindow(r.URL.Query().Get("window")), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, withNextPage(result))
}

func (s *Server) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	s.listing(w, r, s.movies.NowPlaying)
}

func (s *Server) handleUpcoming(w http.ResponseWriter, r *http.Request) {
	s.listing(w, r, s.movies.Upcoming)
}

func (s *Server) handleTopRated(w http.ResponseWriter, r *http.Request) {
	s.listing(w, r, s.movies.TopRated)
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request, fetch func(ctx context.Context, page int) (*models.MoviePage, error)) {
	page, err := httputil.QueryInt(r, "page", 1)
	if err != nil {
		s.badRequest(w, "INVALID_PARAM", err.Error())
		return
	}
	result, err := fetch(r.Context(), page)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, withNextPage(result))
}

func (s *Server) handleMovieDetails(w http.ResponseWriter, r *http.Request) {
	movieID, ok := movieIDParam(r)
	if !ok {
		s.badRequest(w, "INVALID_ID", "invalid movie ID")
		return
	}
	details, err := s.movies.Details(r.Context(), movieID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, details)
}

func (s *Server) handleGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := s.movies.Genres(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, genres)
}
