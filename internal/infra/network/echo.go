package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

const SourceEcho = "echo"

// NewEchoResolver asks plain-text "what is my ip" services in order and
// takes the first IPv4 answer.
func NewEchoResolver(urls []string, client *http.Client) *Resolver {
	rc := retryablehttp.NewClient()
	// A failing service is skipped, not retried.
	rc.RetryMax = 0
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = nil
	if client != nil {
		rc.HTTPClient = client
	} else {
		rc.HTTPClient.Timeout = 5 * time.Second
	}

	return NewResolver(SourceEcho, func(ctx context.Context) (string, error) {
		return echoPublicIPv4(ctx, rc, urls)
	})
}

func echoPublicIPv4(ctx context.Context, client *retryablehttp.Client, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", errors.New("no echo services provided")
	}

	var lastErr error
	for _, u := range urls {
		ip, err := fetchEcho(ctx, client, u)
		if err != nil {
			lastErr = fmt.Errorf("%s: %w", u, err)
			continue
		}
		return ip, nil
	}
	return "", lastErr
}

func fetchEcho(ctx context.Context, client *retryablehttp.Client, url string) (string, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", err
	}

	ip := net.ParseIP(strings.TrimSpace(string(body)))
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", strings.TrimSpace(string(body)))
	}
	return ip.To4().String(), nil
}
