package impls

import (
	"context"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

// ReportCache stores one record per client. Entries are never replaced or
// expired: PutIfAbsent keeps the first record and returns whichever record
// ends up stored.
type ReportCache interface {
	Get(ctx context.Context, clientID string) (domain.ResponseRecord, bool, error)
	PutIfAbsent(ctx context.Context, clientID string, record domain.ResponseRecord) (domain.ResponseRecord, error)
}
