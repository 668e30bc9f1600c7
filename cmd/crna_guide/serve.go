package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonathan/crna-guide/internal/cache"
	"github.com/jonathan/crna-guide/internal/config"
	"github.com/jonathan/crna-guide/internal/db"
	"github.com/jonathan/crna-guide/internal/metrics"
	"github.com/jonathan/crna-guide/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the guidance engine. The snapshot store and guidance cache are enabled when database.url and redis.addr are configured.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if servePort > 0 {
		cfg.Server.Port = servePort
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}
	log.Info("engine ready",
		zap.String("catalog_version", engine.Catalog().Version()),
		zap.Int("catalog_steps", engine.Catalog().Len()),
	)

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	opts := server.Options{
		Config:   cfg.Server,
		Engine:   engine,
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Logger:   log,
	}

	database, err := openStore(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	if database != nil {
		defer database.Close()
		opts.Store = database
	}

	guidanceCache := openCache(ctx, cfg.Redis, log)
	if guidanceCache != nil {
		defer func() { _ = guidanceCache.Close() }()
		opts.Cache = guidanceCache
	}

	srv, err := server.New(opts)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Start(ctx)
}

// openStore connects to PostgreSQL when a URL is configured. It returns nil, nil otherwise.
func openStore(ctx context.Context, cfg config.DatabaseConfig, log *zap.Logger) (*db.DB, error) {
	if cfg.URL == "" {
		log.Info("database.url not set; stored-snapshot endpoints are disabled")
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	database, err := db.Connect(connectCtx, cfg.URL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(connectCtx); err != nil {
		database.Close()
		return nil, err
	}
	log.Info("snapshot store connected")
	return database, nil
}

// openCache returns a Redis-backed cache when an address is configured. An unreachable
// Redis is only a warning since cache failures are bypassed per request.
func openCache(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) *cache.GuidanceCache {
	if cfg.Addr == "" {
		log.Info("redis.addr not set; guidance cache is disabled")
		return nil
	}

	c := cache.New(cfg)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx); err != nil {
		log.Warn("guidance cache unreachable at startup", zap.String("addr", cfg.Addr), zap.Error(err))
	} else {
		log.Info("guidance cache connected", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.CacheTTL))
	}
	return c
}
