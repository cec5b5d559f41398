package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/redis/go-redis/v9"

	"github.com/JustinTDCT/CineScope/internal/api"
	"github.com/JustinTDCT/CineScope/internal/auth"
	"github.com/JustinTDCT/CineScope/internal/catalog"
	"github.com/JustinTDCT/CineScope/internal/config"
	"github.com/JustinTDCT/CineScope/internal/db"
	"github.com/JustinTDCT/CineScope/internal/logger"
	"github.com/JustinTDCT/CineScope/internal/movies"
	"github.com/JustinTDCT/CineScope/internal/querycache"
	"github.com/JustinTDCT/CineScope/internal/repository"
	"github.com/JustinTDCT/CineScope/internal/reviews"
	"github.com/JustinTDCT/CineScope/internal/version"
	"github.com/JustinTDCT/CineScope/internal/watchlist"
)

func main() {
	cfg := config.Load()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.MergeFromFile(path); err != nil {
			hclog.Default().Error("config file", "path", path, "error", err)
			os.Exit(1)
		}
	}

	log := logger.New("cinescope", cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ver := version.Load("version.json", log)
	log.Info("CineScope starting", "version", ver.Version, "go", ver.GoVersion)

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DatabaseURL, 10*time.Second)
	if err != nil {
		log.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	store, closeStore := cacheStore(cfg, log)
	defer closeStore()
	cache := querycache.New(store, log)

	janitor, err := querycache.NewJanitor(store, cfg.Cache.SweepSchedule, log)
	if err != nil {
		log.Error("cache janitor", "error", err)
		os.Exit(1)
	}
	janitor.Start()
	defer janitor.Stop()

	level, err := catalog.ParseFilterLevel(cfg.TMDB.FilterLevel)
	if err != nil {
		log.Error("content filter", "error", err)
		os.Exit(1)
	}
	if !cfg.CatalogConfigured() {
		log.Warn("no catalog credentials configured; movie listings will fail")
	}
	gateway := catalog.NewGateway(cfg.TMDB, catalog.FilterConfig{Level: level, Region: cfg.TMDB.FilterRegion}, log)
	log.Info("content filter", "level", gateway.FilterLevel(), "region", cfg.TMDB.FilterRegion)

	movieSvc := movies.NewService(gateway, cache, log)
	reviewSvc := reviews.NewService(repository.NewReviewRepository(database.DB), cache, log)
	watchlistSvc := watchlist.NewService(repository.NewWatchlistRepository(database.DB), cache, movieSvc.GenreNames, log)

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty; every session token will be rejected")
	}
	srv := api.NewServer(api.Options{
		Movies:    movieSvc,
		Reviews:   reviewSvc,
		Watchlist: watchlistSvc,
		Auth:      auth.NewMiddleware(auth.NewVerifier(cfg.JWTSecret), log),
		DB:        database,
		Version:   ver,
		Logger:    log,
	})

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      srv,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "error", err)
	}
}

// cacheStore picks the shared Redis backend when configured, otherwise the
// in-process store.
func cacheStore(cfg *config.Config, log hclog.Logger) (querycache.Store, func()) {
	if !cfg.RedisEnabled() {
		return querycache.NewMemoryStore(), func() {}
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Cache.RedisAddr,
		Password: cfg.Cache.RedisPassword,
		DB:       cfg.Cache.RedisDB,
	})
	log.Info("query cache backed by redis", "addr", cfg.Cache.RedisAddr)
	return querycache.NewRedisStore(client), func() { client.Close() }
}
