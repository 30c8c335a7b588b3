package network

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pion/stun/v3"
)

// NewSTUNResolver resolves the public IPv4 address mapped by the first STUN
// server that answers.
func NewSTUNResolver(servers []string, timeout time.Duration) *Resolver {
	return NewResolver(SourceSTUN, func(ctx context.Context) (string, error) {
		return stunPublicIPv4(ctx, servers, timeout)
	})
}

func stunPublicIPv4(ctx context.Context, servers []string, timeout time.Duration) (string, error) {
	if len(servers) == 0 {
		return "", errors.New("no STUN servers provided")
	}

	var lastErr error
	for _, server := range servers {
		mapped, err := probeSTUNServer(ctx, server, timeout)
		if err != nil {
			lastErr = err
			continue
		}
		ip := mapped.IP.To4()
		if ip == nil {
			lastErr = fmt.Errorf("%s mapped a non-IPv4 address %s", server, mapped.IP)
			continue
		}
		return ip.String(), nil
	}
	return "", lastErr
}

func probeSTUNServer(ctx context.Context, server string, timeout time.Duration) (stun.XORMappedAddress, error) {
	var addr stun.XORMappedAddress

	uriStr := strings.TrimSpace(server)
	if uriStr == "" {
		return addr, errors.New("empty STUN server")
	}
	if !strings.HasPrefix(uriStr, "stun:") {
		uriStr = "stun:" + uriStr
	}

	uri, err := stun.ParseURI(uriStr)
	if err != nil {
		return addr, err
	}

	client, err := stun.DialURI(uri, &stun.DialConfig{})
	if err != nil {
		return addr, err
	}
	defer client.Close()

	msg := stun.MustBuild(stun.TransactionID, stun.BindingRequest)
	result := make(chan stun.XORMappedAddress, 1)
	fail := make(chan error, 1)

	go func() {
		err := client.Do(msg, func(res stun.Event) {
			if res.Error != nil {
				fail <- res.Error
				return
			}
			var mapped stun.XORMappedAddress
			if err := mapped.GetFrom(res.Message); err != nil {
				fail <- err
				return
			}
			result <- mapped
		})
		if err != nil {
			fail <- err
		}
	}()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	select {
	case mapped := <-result:
		return mapped, nil
	case err := <-fail:
		return addr, err
	case <-ctx.Done():
		return addr, ctx.Err()
	}
}
