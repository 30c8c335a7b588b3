package impls

import "time"

// ReportMetrics receives orchestration events.
type ReportMetrics interface {
	CacheLookup(hit bool)
	ProbeObserved(probe string, d time.Duration, err error)
	AggregationFailed()
}
