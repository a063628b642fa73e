package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	upstreamCalls      uint64
	upstreamFailures   uint64
	upstreamDurationMs uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordUpstream counts one backend call. A status of 0 means the call never
// produced a response.
func (c *Collector) RecordUpstream(status int, duration time.Duration) {
	atomic.AddUint64(&c.upstreamCalls, 1)
	if status == 0 || status >= 400 {
		atomic.AddUint64(&c.upstreamFailures, 1)
	}
	atomic.AddUint64(&c.upstreamDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	calls := atomic.LoadUint64(&c.upstreamCalls)
	failures := atomic.LoadUint64(&c.upstreamFailures)
	upstreamMs := atomic.LoadUint64(&c.upstreamDurationMs)
	return map[string]any{
		"requestsTotal":         total,
		"errorsTotal":           errs,
		"avgDurationMs":         average(totalMs, total),
		"totalDurationMs":       totalMs,
		"upstreamCallsTotal":    calls,
		"upstreamFailuresTotal": failures,
		"upstreamAvgDurationMs": average(upstreamMs, calls),
	}
}

func average(sum, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(sum) / float64(count)
}
