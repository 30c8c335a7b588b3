package finderapp

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/ahmadswalih/ip-finder-backend/internal/adapter/httpserver"
	"github.com/ahmadswalih/ip-finder-backend/internal/config"
	"github.com/ahmadswalih/ip-finder-backend/internal/impls"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/metrics"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/network"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/power"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/speedtest"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/storage"
	"github.com/ahmadswalih/ip-finder-backend/internal/infra/system"
	"github.com/ahmadswalih/ip-finder-backend/internal/usecase/report"
)

type Application struct {
	server *httpserver.Server
	redis  *redis.Client
	logger *slog.Logger
}

// NewApplication wires every collaborator selected by cfg. The resolver memo
// and the report cache live for as long as the returned Application.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	app := &Application{logger: logger}

	cache, err := app.newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var recorder impls.ReportMetrics
	var metricsHandler http.Handler
	if cfg.MetricsEnabled {
		r := metrics.NewRecorder()
		recorder = r
		metricsHandler = r.Handler()
	}

	svc := report.NewService(report.Deps{
		Resolver:   newResolver(cfg),
		Throughput: newThroughputProber(cfg),
		Power:      power.NewBatteryProber(nil),
		Cache:      cache,
		Metrics:    recorder,
		OSType:     system.OSType,
		Logger:     logger,
	})

	api := httpserver.NewAPI(svc, logger)
	app.server = httpserver.NewServer(httpserver.Options{
		Addr:    cfg.Listen,
		Metrics: metricsHandler,
	}, api, logger)

	logger.Info("application configured",
		"ip_source", cfg.IPSource,
		"throughput_backend", cfg.ThroughputBackend,
		"cache_backend", cfg.CacheBackend,
		"metrics", cfg.MetricsEnabled,
	)
	return app, nil
}

func (a *Application) newCache(ctx context.Context, cfg *config.Config) (impls.ReportCache, error) {
	if cfg.CacheBackend != config.CacheRedis {
		return storage.NewMemoryReportCache(), nil
	}

	client, err := storage.NewRedisClient(ctx, storage.RedisConfig{
		Addr:     cfg.Redis.Addr,
		DB:       cfg.Redis.DB,
		Password: cfg.Redis.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("init report cache: %w", err)
	}
	a.redis = client
	return storage.NewRedisReportCache(client, cfg.Redis.KeyPrefix), nil
}

func newResolver(cfg *config.Config) impls.IPResolver {
	switch cfg.IPSource {
	case config.IPSourceSTUN:
		return network.NewSTUNResolver(cfg.STUNServers, cfg.STUNTimeout)
	case config.IPSourceEcho:
		return network.NewEchoResolver(cfg.EchoURLs, nil)
	}
	return network.NewInterfaceResolver(nil)
}

func newThroughputProber(cfg *config.Config) impls.ThroughputProber {
	if cfg.ThroughputBackend == config.ThroughputHTTP {
		return speedtest.NewHTTPProber(speedtest.HTTPConfig{
			DownloadURL: cfg.HTTPProbe.DownloadURL,
			UploadURL:   cfg.HTTPProbe.UploadURL,
			UploadBytes: cfg.HTTPProbe.UploadBytes,
		}, nil)
	}
	return speedtest.NewOoklaProber(cfg.SpeedtestBinary, nil)
}

// Run serves HTTP until ctx is cancelled.
func (a *Application) Run(ctx context.Context) error {
	defer a.close()
	return a.server.Run(ctx)
}

func (a *Application) close() {
	if a.redis == nil {
		return
	}
	if err := a.redis.Close(); err != nil {
		a.logger.Warn("close redis", "err", err)
	}
}
