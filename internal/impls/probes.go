package impls

import (
	"context"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

// ThroughputProber runs one bandwidth measurement.
type ThroughputProber interface {
	Probe(ctx context.Context) (domain.ThroughputSample, error)
}

// PowerProber returns the battery charge as a fraction in [0,1].
type PowerProber interface {
	Probe(ctx context.Context) (float64, error)
}
