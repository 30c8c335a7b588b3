package power

import (
	"context"
	"errors"
	"fmt"

	"github.com/distatus/battery"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

const probeName = "power"

// Reading is the charge state of a single battery.
type Reading struct {
	Current float64
	Full    float64
}

// Source lists the host batteries.
type Source func() ([]Reading, error)

// BatteryProber reports the charge of the first readable battery.
type BatteryProber struct {
	source Source
}

func NewBatteryProber(source Source) *BatteryProber {
	if source == nil {
		source = SystemBatteries
	}
	return &BatteryProber{source: source}
}

func (p *BatteryProber) Probe(_ context.Context) (float64, error) {
	readings, err := p.source()
	if err != nil {
		return 0, domain.ProbeError{Probe: probeName, Err: err}
	}
	if len(readings) == 0 {
		return 0, domain.ProbeError{Probe: probeName, Err: domain.ErrNoBattery}
	}

	level, err := Fraction(readings[0])
	if err != nil {
		return 0, domain.ProbeError{Probe: probeName, Err: err}
	}
	return level, nil
}

// Fraction converts a reading to a charge level clamped to [0,1].
func Fraction(r Reading) (float64, error) {
	if r.Full <= 0 {
		return 0, fmt.Errorf("battery reports full capacity %v", r.Full)
	}
	level := r.Current / r.Full
	switch {
	case level < 0:
		return 0, nil
	case level > 1:
		return 1, nil
	}
	return level, nil
}

// SystemBatteries reads batteries through the platform battery API.
// Batteries whose charge cannot be read are skipped.
func SystemBatteries() ([]Reading, error) {
	bats, err := battery.GetAll()
	if err != nil && len(bats) == 0 {
		if errors.Is(err, battery.ErrNotFound) {
			return nil, domain.ErrNoBattery
		}
		return nil, err
	}

	var errs battery.Errors
	if err != nil && !errors.As(err, &errs) {
		return nil, err
	}

	readings := make([]Reading, 0, len(bats))
	for i, b := range bats {
		if b == nil {
			continue
		}
		if i < len(errs) && !chargeReadable(errs[i]) {
			continue
		}
		readings = append(readings, Reading{Current: b.Current, Full: b.Full})
	}
	if len(readings) == 0 {
		if err != nil {
			return nil, err
		}
		return nil, domain.ErrNoBattery
	}
	return readings, nil
}

func chargeReadable(err error) bool {
	if err == nil {
		return true
	}
	switch e := err.(type) {
	case battery.ErrPartial:
		return e.Current == nil && e.Full == nil
	case *battery.ErrPartial:
		return e.Current == nil && e.Full == nil
	}
	return false
}
