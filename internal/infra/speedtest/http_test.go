package speedtest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(step)
		return now
	}
}

func newSpeedServer(t *testing.T, uploadStatus int) (*httptest.Server, *int64) {
	t.Helper()

	var received int64
	mux := http.NewServeMux()
	mux.HandleFunc("/down", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
	})
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)
		received = n
		w.WriteHeader(uploadStatus)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &received
}

func TestHTTPProber_Probe(t *testing.T) {
	t.Parallel()

	srv, received := newSpeedServer(t, http.StatusOK)
	p := NewHTTPProber(HTTPConfig{
		DownloadURL: srv.URL + "/down",
		UploadURL:   srv.URL + "/up",
		UploadBytes: 500,
	}, srv.Client())
	p.now = stepClock(time.Second)

	sample, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 8000.0, sample.DownloadBandwidth)
	assert.Equal(t, 4000.0, sample.UploadBandwidth)
	assert.Equal(t, int64(500), *received)
}

func TestHTTPProber_DownloadStatus(t *testing.T) {
	t.Parallel()

	srv, _ := newSpeedServer(t, http.StatusOK)
	p := NewHTTPProber(HTTPConfig{
		DownloadURL: srv.URL + "/missing",
		UploadURL:   srv.URL + "/up",
		UploadBytes: 10,
	}, srv.Client())

	_, err := p.Probe(context.Background())
	var probeErr domain.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Contains(t, err.Error(), "unexpected status 404")
}

func TestHTTPProber_UploadStatus(t *testing.T) {
	t.Parallel()

	srv, _ := newSpeedServer(t, http.StatusServiceUnavailable)
	p := NewHTTPProber(HTTPConfig{
		DownloadURL: srv.URL + "/down",
		UploadURL:   srv.URL + "/up",
		UploadBytes: 10,
	}, srv.Client())
	p.now = stepClock(time.Millisecond)

	_, err := p.Probe(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 503")
}

func TestBitsPerSecond(t *testing.T) {
	t.Parallel()

	v, err := bitsPerSecond(1_250_000, 100*time.Millisecond)
	require.NoError(t, err)
	assert.InDelta(t, 1e8, v, 1e-6)

	_, err = bitsPerSecond(1, 0)
	assert.Error(t, err)
}
