package power

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

func TestFraction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reading Reading
		want    float64
		wantErr bool
	}{
		{name: "partial", reading: Reading{Current: 36500, Full: 50000}, want: 0.73},
		{name: "full", reading: Reading{Current: 50000, Full: 50000}, want: 1},
		{name: "overcharged clamps", reading: Reading{Current: 51000, Full: 50000}, want: 1},
		{name: "negative clamps", reading: Reading{Current: -5, Full: 50000}, want: 0},
		{name: "unknown capacity", reading: Reading{Current: 10, Full: 0}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Fraction(tt.reading)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestBatteryProber_FirstBattery(t *testing.T) {
	t.Parallel()

	p := NewBatteryProber(func() ([]Reading, error) {
		return []Reading{{Current: 25, Full: 100}, {Current: 90, Full: 100}}, nil
	})

	level, err := p.Probe(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.25, level, 1e-9)
}

func TestBatteryProber_NoBattery(t *testing.T) {
	t.Parallel()

	p := NewBatteryProber(func() ([]Reading, error) { return nil, nil })

	_, err := p.Probe(context.Background())
	var probeErr domain.ProbeError
	require.ErrorAs(t, err, &probeErr)
	assert.Equal(t, "power", probeErr.Probe)
	assert.ErrorIs(t, err, domain.ErrNoBattery)
}

func TestBatteryProber_SourceError(t *testing.T) {
	t.Parallel()

	cause := errors.New("unsupported platform")
	p := NewBatteryProber(func() ([]Reading, error) { return nil, cause })

	_, err := p.Probe(context.Background())
	assert.ErrorIs(t, err, cause)
}
