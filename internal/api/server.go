package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/movies"
	"github.com/JustinTDCT/CineScope/internal/reviews"
	"github.com/JustinTDCT/CineScope/internal/version"
	"github.com/JustinTDCT/CineScope/internal/watchlist"
)

// Pinger reports backend reachability for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	movies    *movies.Service
	reviews   *reviews.Service
	watchlist *watchlist.Service
	auth      *auth.Middleware
	db        Pinger
	version   version.Info
	logger    hclog.Logger
	router    chi.Router
}

type Options struct {
	Movies    *movies.Service
	Reviews   *reviews.Service
	Watchlist *watchlist.Service
	Auth      *auth.Middleware
	DB        Pinger
	Version   version.Info
	Logger    hclog.Logger
}

func NewServer(opts Options) *Server {
	s := &Server{
		movies:    opts.Movies,
		reviews:   opts.Reviews,
		watchlist: opts.Watchlist,
		auth:      opts.Auth,
		db:        opts.DB,
		version:   opts.Version,
		logger:    opts.Logger.Named("api"),
		router:    chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := s.router
	r.Use(s.requestLogger, securityHeadersMiddleware, corsMiddleware, s.auth.Session)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Catalog
		r.Get("/genres", s.handleGenres)
		r.Route("/movies", func(r chi.Router) {
			r.Get("/popular", s.handlePopular)
			r.Get("/search", s.handleSearch)
			r.Get("/trending", s.handleTrending)
			r.Get("/now-playing", s.handleNowPlaying)
			r.Get("/upcoming", s.handleUpcoming)
			r.Get("/top-rated", s.handleTopRated)

			r.Route("/{movieID}", func(r chi.Router) {
				r.Get("/", s.handleMovieDetails)
				r.Get("/reviews", s.handleMovieReviews)
				r.With(s.auth.RequireSession).Post("/reviews", s.handleCreateReview)
				r.Get("/reviews/stats", s.handleMovieReviewStats)
				r.Get("/reviews/mine", s.handleMyMovieReview)
			})
		})

		// Reviews
		r.Get("/reviews/recent", s.handleRecentReviews)
		r.Group(func(r chi.Router) {
			r.Use(s.auth.RequireSession)
			r.Patch("/reviews/{reviewID}", s.handleUpdateReview)
			r.Delete("/reviews/{reviewID}", s.handleDeleteReview)
		})
		r.Get("/users/{userID}/reviews", s.handleUserReviews)

		// Watchlist
		r.Route("/watchlist", func(r chi.Router) {
			r.Use(s.auth.RequireSession)
			r.Get("/", s.handleListWatchlist)
			r.Post("/", s.handleAddToWatchlist)
			r.Get("/stats", s.handleWatchlistStats)
			r.Get("/{movieID}", s.handleGetWatchlistItem)
			r.Patch("/{movieID}", s.handleUpdateWatchlistItem)
			r.Delete("/{movieID}", s.handleRemoveFromWatchlist)
			r.Post("/{movieID}/watched", s.handleMarkWatched)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok", "version": s.version.Version}
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn("health check: database unreachable", "error", err)
			status["status"] = "degraded"
			status["database"] = "unreachable"
		} else {
			status["database"] = "ok"
		}
	}
	s.respond(w, http.StatusOK, status)
}

// requestLogger tags each request with an id and logs its outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware reflects the caller's origin and answers preflight requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get("Origin"); origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
