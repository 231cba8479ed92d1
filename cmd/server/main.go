package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"unifiedsearch/queryservice/internal/agent"
	apihttp "unifiedsearch/queryservice/internal/api/http"
	"unifiedsearch/queryservice/internal/app"
	"unifiedsearch/queryservice/internal/metrics"
	"unifiedsearch/queryservice/internal/providers/itunes"
	"unifiedsearch/queryservice/internal/providers/serp"
	"unifiedsearch/queryservice/internal/providers/tmdb"
	"unifiedsearch/queryservice/internal/search"
	"unifiedsearch/queryservice/internal/telemetry"
)

func main() {
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), "query-service")
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", "query-service"),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.Duration("requestTimeout", cfg.RequestTimeout),
		slog.Bool("hasTMDBKey", cfg.TMDBAPIKey != ""),
		slog.Bool("hasSerpKey", cfg.SerpAPIKey != ""),
		slog.Bool("hasCompletionKey", cfg.OpenAIAPIKey != ""),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Duration("cacheTTL", cfg.CacheTTL),
	)

	redisClient := connectRedis(cfg, logger)

	tmdbHTTP := &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	itunesHTTP := &http.Client{Timeout: 10 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}
	serpHTTP := &http.Client{Timeout: 15 * time.Second, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	var genreCache tmdb.GenreCache
	if redisClient != nil {
		genreCache = tmdb.NewRedisGenreCache(redisClient, cfg.GenreCacheTTL)
	} else {
		genreCache = tmdb.NewMemoryGenreCache(time.Hour)
	}

	tmdbClient := tmdb.NewClient(tmdb.Config{
		APIKey:          cfg.TMDBAPIKey,
		ReadAccessToken: cfg.TMDBReadAccessToken,
		BaseURL:         cfg.TMDBBaseURL,
		Client:          tmdbHTTP,
		GenreCache:      genreCache,
	})
	itunesClient := itunes.NewClient(itunes.Config{
		BaseURL: cfg.ITunesBaseURL,
		Client:  itunesHTTP,
	})
	serpClient := serp.NewClient(serp.Config{
		APIKey:  cfg.SerpAPIKey,
		BaseURL: cfg.SerpBaseURL,
		Client:  serpHTTP,
	})

	// The service still starts without keys; the affected pipelines answer
	// with failure entries until the key is provided.
	if !tmdbClient.Enabled() {
		logger.Warn("tmdb api key not configured, movie searches will fail")
	}
	if !serpClient.Enabled() {
		logger.Warn("serpapi key not configured, news and web searches will fail")
	}

	var formatter search.Formatter
	if cfg.OpenAIAPIKey != "" {
		formatter = agent.NewOpenAIFormatter(agent.OpenAIConfig{
			APIKey:  cfg.OpenAIAPIKey,
			BaseURL: cfg.OpenAIBaseURL,
			Model:   cfg.OpenAIModel,
		})
	} else {
		logger.Warn("completion api key not configured, responses are returned unformatted")
		formatter = agent.Passthrough{}
	}

	serviceOpts := []search.ServiceOption{
		search.WithTimeout(cfg.RequestTimeout),
		search.WithCacheTTL(cfg.CacheTTL),
		search.WithCacheDisabled(cfg.CacheDisabled),
	}
	if redisClient != nil {
		serviceOpts = append(serviceOpts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
	}

	queryService := search.NewService(search.Providers{
		Movies: tmdbClient,
		Music:  itunesClient,
		News:   serp.NewNewsClient(serpClient),
		Web:    serp.NewWebClient(serpClient),
	}, formatter, serviceOpts...)

	handler := apihttp.NewServer(queryService, apihttp.WithLogger(logger)).Handler()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Formatting through the completion gateway can take tens of seconds.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("query service started",
		slog.String("addr", cfg.HTTPAddr),
		slog.Duration("timeout", cfg.RequestTimeout),
	)

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	logger.Info("query service stopped")
}

func connectRedis(cfg app.Config, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory caches only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory caches only", slog.String("error", err.Error()))
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
