package report

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
	"github.com/ahmadswalih/ip-finder-backend/internal/impls"
)

const (
	bitsPerMegabit = 1_000_000
	percent        = 100

	// converted values keep at most this many decimal places
	precision = 1e6
)

// Service builds and caches one report per client. Concurrent misses for
// the same client share a single aggregation.
type Service struct {
	resolver   impls.IPResolver
	throughput impls.ThroughputProber
	power      impls.PowerProber
	cache      impls.ReportCache
	metrics    impls.ReportMetrics
	osType     func() string
	logger     *slog.Logger

	flights singleflight.Group
}

type Deps struct {
	Resolver   impls.IPResolver
	Throughput impls.ThroughputProber
	Power      impls.PowerProber
	Cache      impls.ReportCache
	Metrics    impls.ReportMetrics
	OSType     func() string
	Logger     *slog.Logger
}

func NewService(deps Deps) *Service {
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{
		resolver:   deps.Resolver,
		throughput: deps.Throughput,
		power:      deps.Power,
		cache:      deps.Cache,
		metrics:    deps.Metrics,
		osType:     deps.OSType,
		logger:     deps.Logger,
	}
}

// Handle returns the cached report for clientID, building it on first use.
// Any failure is returned as domain.AggregationError and leaves the cache
// untouched.
func (s *Service) Handle(ctx context.Context, clientID, userAgent string) (domain.ResponseRecord, error) {
	record, ok, err := s.cache.Get(ctx, clientID)
	if err != nil {
		s.metrics.AggregationFailed()
		return domain.ResponseRecord{}, domain.AggregationError{ClientID: clientID, Err: fmt.Errorf("cache lookup: %w", err)}
	}
	s.metrics.CacheLookup(ok)
	if ok {
		return record, nil
	}

	// The flight outlives any single caller's request.
	flightCtx := context.WithoutCancel(ctx)
	v, err, shared := s.flights.Do(clientID, func() (any, error) {
		return s.aggregate(flightCtx, clientID, userAgent)
	})
	if err != nil {
		s.metrics.AggregationFailed()
		return domain.ResponseRecord{}, domain.AggregationError{ClientID: clientID, Err: err}
	}
	if shared {
		s.logger.Debug("joined in-flight aggregation", "client", clientID)
	}
	return v.(domain.ResponseRecord), nil
}

func (s *Service) aggregate(ctx context.Context, clientID, userAgent string) (domain.ResponseRecord, error) {
	// A report may have been stored while this flight was waiting to start.
	if record, ok, err := s.cache.Get(ctx, clientID); err == nil && ok {
		return record, nil
	}

	start := time.Now()
	ip, err := s.resolver.Resolve(ctx)
	s.metrics.ProbeObserved("ip", time.Since(start), err)
	if err != nil {
		return domain.ResponseRecord{}, err
	}

	var (
		sample domain.ThroughputSample
		level  float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		start := time.Now()
		var err error
		sample, err = s.throughput.Probe(gctx)
		s.metrics.ProbeObserved("throughput", time.Since(start), err)
		return err
	})
	g.Go(func() error {
		start := time.Now()
		var err error
		level, err = s.power.Probe(gctx)
		s.metrics.ProbeObserved("power", time.Since(start), err)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.ResponseRecord{}, err
	}

	record := domain.ResponseRecord{
		IPAddress:         ip,
		DownloadSpeed:     BitsToMegabits(sample.DownloadBandwidth),
		UploadSpeed:       BitsToMegabits(sample.UploadBandwidth),
		BatteryPercentage: FractionToPercent(level),
		SystemInfo: domain.SystemInfo{
			OperatingSystem: s.osType(),
			Browser:         userAgent,
		},
	}

	stored, err := s.cache.PutIfAbsent(ctx, clientID, record)
	if err != nil {
		return domain.ResponseRecord{}, fmt.Errorf("cache store: %w", err)
	}
	s.logger.Info("report cached",
		"client", clientID,
		"ip", stored.IPAddress,
		"download_mbps", stored.DownloadSpeed,
		"upload_mbps", stored.UploadSpeed,
		"battery", stored.BatteryPercentage,
	)
	return stored, nil
}

// BitsToMegabits converts bits per second to megabits per second.
func BitsToMegabits(bps float64) float64 {
	return round(bps / bitsPerMegabit)
}

// FractionToPercent converts a charge fraction to a percentage.
func FractionToPercent(fraction float64) float64 {
	return round(fraction * percent)
}

func round(v float64) float64 {
	return math.Round(v*precision) / precision
}

type nopMetrics struct{}

func (nopMetrics) CacheLookup(bool) {}

func (nopMetrics) ProbeObserved(string, time.Duration, error) {}

func (nopMetrics) AggregationFailed() {}
