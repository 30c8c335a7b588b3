package speedtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

// HTTPProber measures throughput by timing one download and one upload
// against plain HTTP endpoints.
type HTTPProber struct {
	downloadURL string
	uploadURL   string
	uploadBytes int64
	http        *retryablehttp.Client
	now         func() time.Time
}

type HTTPConfig struct {
	DownloadURL string
	UploadURL   string
	UploadBytes int64
}

func NewHTTPProber(cfg HTTPConfig, client *http.Client) *HTTPProber {
	rc := retryablehttp.NewClient()
	// A failed measurement is reported as-is.
	rc.RetryMax = 0
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if client != nil {
		rc.HTTPClient = client
	}

	return &HTTPProber{
		downloadURL: cfg.DownloadURL,
		uploadURL:   cfg.UploadURL,
		uploadBytes: cfg.UploadBytes,
		http:        rc,
		now:         time.Now,
	}
}

func (p *HTTPProber) Probe(ctx context.Context) (domain.ThroughputSample, error) {
	down, err := p.download(ctx)
	if err != nil {
		return domain.ThroughputSample{}, domain.ProbeError{Probe: probeName, Err: err}
	}
	up, err := p.upload(ctx)
	if err != nil {
		return domain.ThroughputSample{}, domain.ProbeError{Probe: probeName, Err: err}
	}
	return domain.ThroughputSample{DownloadBandwidth: down, UploadBandwidth: up}, nil
}

func (p *HTTPProber) download(ctx context.Context) (float64, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, p.downloadURL, nil)
	if err != nil {
		return 0, err
	}

	start := p.now()
	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("download: unexpected status %d", resp.StatusCode)
	}
	n, err := io.Copy(io.Discard, resp.Body)
	if err != nil {
		return 0, fmt.Errorf("download: %w", err)
	}
	return bitsPerSecond(n, p.now().Sub(start))
}

func (p *HTTPProber) upload(ctx context.Context) (float64, error) {
	if p.uploadBytes <= 0 {
		return 0, errors.New("upload: payload size must be positive")
	}
	payload := bytes.Repeat([]byte{'0'}, int(p.uploadBytes))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, p.uploadURL, payload)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	start := p.now()
	resp, err := p.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("upload: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	elapsed := p.now().Sub(start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("upload: unexpected status %d", resp.StatusCode)
	}
	return bitsPerSecond(p.uploadBytes, elapsed)
}

func bitsPerSecond(n int64, elapsed time.Duration) (float64, error) {
	if elapsed <= 0 {
		return 0, errors.New("transfer finished in zero time")
	}
	return float64(n*8) / elapsed.Seconds(), nil
}
