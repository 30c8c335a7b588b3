package domain

import (
	"errors"
	"fmt"
)

// ErrNoIPv4Address is reported when no non-loopback IPv4 address exists.
var ErrNoIPv4Address = errors.New("no external IPv4 address found")

// ErrNoBattery is reported when the host exposes no battery.
var ErrNoBattery = errors.New("no battery found")

type ResolutionError struct {
	Source string
	Err    error
}

func (e ResolutionError) Error() string {
	return fmt.Sprintf("resolve ip via %s: %v", e.Source, e.Err)
}

func (e ResolutionError) Unwrap() error {
	return e.Err
}

type ProbeError struct {
	Probe string
	Err   error
}

func (e ProbeError) Error() string {
	return fmt.Sprintf("%s probe: %v", e.Probe, e.Err)
}

func (e ProbeError) Unwrap() error {
	return e.Err
}

type AggregationError struct {
	ClientID string
	Err      error
}

func (e AggregationError) Error() string {
	return fmt.Sprintf("aggregate report for %s: %v", e.ClientID, e.Err)
}

func (e AggregationError) Unwrap() error {
	return e.Err
}
