package storage

import (
	"context"
	"sync"

	"github.com/ahmadswalih/ip-finder-backend/internal/domain"
)

// MemoryReportCache keeps reports in process memory. It grows without bound.
type MemoryReportCache struct {
	mu      sync.RWMutex
	reports map[string]domain.ResponseRecord
}

func NewMemoryReportCache() *MemoryReportCache {
	return &MemoryReportCache{reports: make(map[string]domain.ResponseRecord)}
}

func (c *MemoryReportCache) Get(_ context.Context, clientID string) (domain.ResponseRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	record, ok := c.reports[clientID]
	return record, ok, nil
}

func (c *MemoryReportCache) PutIfAbsent(_ context.Context, clientID string, record domain.ResponseRecord) (domain.ResponseRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.reports[clientID]; ok {
		return existing, nil
	}
	c.reports[clientID] = record
	return record, nil
}

// Len returns the number of cached clients.
func (c *MemoryReportCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.reports)
}
