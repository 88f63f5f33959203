package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seo-optimizer/seoscan/ai"
	"github.com/seo-optimizer/seoscan/analyzer"
	"github.com/seo-optimizer/seoscan/api"
	"github.com/seo-optimizer/seoscan/config"
	"github.com/seo-optimizer/seoscan/db"
	"github.com/seo-optimizer/seoscan/entitlement"
	"github.com/seo-optimizer/seoscan/logging"
	"github.com/seo-optimizer/seoscan/middleware"
	"github.com/seo-optimizer/seoscan/ratelimit"
	"github.com/seo-optimizer/seoscan/service"
	"github.com/seo-optimizer/seoscan/snapshot"
	"github.com/seo-optimizer/seoscan/stats"
	"github.com/seo-optimizer/seoscan/store"
	"github.com/seo-optimizer/seoscan/urlcheck"
)

const (
	statsRetainMonths = 12
	visitorMaxAge     = 7 * 24 * time.Hour
)

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	config.LoadEnv()

	cfg, err := config.Load()
	if err != nil {
		fatal(slog.Default(), "failed to load config", err)
	}

	logger := logging.NewLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	gin.SetMode(cfg.Server.GinMode)

	gdb, err := db.Connect(cfg.Database.URL, cfg.Database.AutoMigrate)
	if err != nil {
		fatal(logger, "failed to connect to database", err)
	}
	st := store.New(gdb)

	var limiter ratelimit.Limiter = ratelimit.NewStoreLimiter(st)
	if cfg.Redis.Addr != "" {
		limiter = ratelimit.NewRedisLimiter(ratelimit.NewRedisClient(cfg.Redis.Addr), logger)
		logger.Info("project rate limits shared through redis", "addr", cfg.Redis.Addr)
	}

	monthly, err := stats.NewStorage(cfg.Server.DataDir)
	if err != nil {
		fatal(logger, "failed to open stats storage", err)
	}
	monthly.Cleanup(statsRetainMonths)

	statistics, err := logging.NewStatistics(cfg.Server.DataDir, cfg.Server.DevMode)
	if statistics == nil {
		fatal(logger, "failed to open statistics", err)
	}
	if err != nil {
		logger.Warn("could not load statistics, starting fresh", "error", err)
	}

	policy := urlcheck.Policy{RequireScheme: cfg.Fetch.RequireScheme}
	checker := entitlement.NewPlanChecker()

	deps := service.AnalysisDeps{
		Store:       st,
		Analyzer:    analyzer.New(cfg.FetchTimeout(), cfg.Fetch.MaxBodyBytes),
		Summarizer:  ai.NewClient(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLMTimeout()),
		Limiter:     limiter,
		Entitlement: checker,
		Stats:       monthly,
		URLPolicy:   policy,
		CacheTTL:    cfg.AdhocCacheTTL(),
		Logger:      logger,
	}
	if cfg.SnapshotsEnabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		snapshots, err := snapshot.NewMinioStore(ctx, cfg.MinIO.Endpoint, cfg.MinIO.AccessKey, cfg.MinIO.SecretKey, cfg.MinIO.Secure, cfg.MinIO.Bucket)
		cancel()
		if err != nil {
			logger.Warn("snapshots disabled, minio unavailable", "endpoint", cfg.MinIO.Endpoint, "error", err)
		} else {
			deps.Snapshots = snapshots
		}
	}

	server := &api.Server{
		Analyses: service.NewAnalysisService(deps),
		Projects: service.NewProjectService(st, checker, policy),
		Stats:    statistics,
		Monthly:  monthly,
		Logger:   logger,
	}
	router := api.NewRouter(server, api.RouterDeps{
		Users:    st,
		Throttle: middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Tracker:  statistics,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(logger, "server failed", err)
		}
	}()

	prune := time.NewTicker(time.Hour)
	defer prune.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

loop:
	for {
		select {
		case <-prune.C:
			statistics.PruneVisitors(visitorMaxAge)
		case <-quit:
			break loop
		}
	}

	logger.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}
	if err := statistics.Save(); err != nil {
		logger.Error("failed to save statistics", "error", err)
	}
	if err := monthly.Shutdown(); err != nil {
		logger.Error("failed to save monthly stats", "error", err)
	}

	logger.Info("server exited")
}
