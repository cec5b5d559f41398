package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/catalog"
	"github.com/JustinTDCT/CineScope/internal/httputil"
	"github.com/JustinTDCT/CineScope/internal/repository"
	"github.com/JustinTDCT/CineScope/internal/reviews"
	"github.com/JustinTDCT/CineScope/internal/watchlist"
)

func (s *Server) respond(w http.ResponseWriter, status int, data interface{}) {
	httputil.WriteJSON(w, status, data)
}

func (s *Server) badRequest(w http.ResponseWriter, code, message string) {
	httputil.WriteError(w, http.StatusBadRequest, code, message)
}

var repositoryStatus = map[string]int{
	repository.CodeNotFound:         http.StatusNotFound,
	repository.CodePermissionDenied: http.StatusForbidden,
	repository.CodeConflict:         http.StatusConflict,
	repository.CodeValidation:       http.StatusUnprocessableEntity,
	repository.CodeRejected:         http.StatusConflict,
}

// respondError maps a service error onto the envelope. Backend messages are
// passed through verbatim.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		repoErr   *repository.Error
		reviewErr *reviews.ValidationError
		watchErr  *watchlist.ValidationError
	)
	switch {
	case errors.Is(err, auth.ErrAuthRequired):
		httputil.WriteError(w, http.StatusUnauthorized, "AUTH_REQUIRED", auth.ErrAuthRequired.Error())
	case errors.As(err, &reviewErr):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", reviewErr.Message)
	case errors.As(err, &watchErr):
		httputil.WriteError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", watchErr.Message)
	case errors.Is(err, catalog.ErrInvalidSortKey):
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_SORT", err.Error())
	case errors.Is(err, catalog.ErrFetchFailed):
		s.logger.Error("catalog failure", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusBadGateway, "FETCH_FAILED", "Failed to fetch movies")
	case errors.As(err, &repoErr):
		status, ok := repositoryStatus[repoErr.Code]
		if !ok {
			status = http.StatusInternalServerError
			s.logger.Error("backend failure", "path", r.URL.Path, "error", err)
		}
		httputil.WriteErrorBody(w, status, httputil.ErrorBody{
			Code:    strings.ToUpper(repoErr.Code),
			Message: repoErr.Message,
			Details: repoErr.Details,
			Hint:    repoErr.Hint,
		})
	default:
		s.logger.Error("unhandled error", "path", r.URL.Path, "error", err)
		httputil.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
	}
}

// movieIDParam reads a positive catalog id from the path.
func movieIDParam(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "movieID"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
