package search

import (
	"time"

	"github.com/beedev/recommenderv3-sub002/pkg/metrics"
)

// serviceMetrics instruments the orchestrator. A nil receiver is a no-op so
// the registry stays optional.
type serviceMetrics struct {
	reg      *metrics.Registry
	requests *metrics.Counter
	failures *metrics.Counter
	duration *metrics.Histogram
}

func newServiceMetrics(reg *metrics.Registry) *serviceMetrics {
	if reg == nil {
		return nil
	}
	return &serviceMetrics{
		reg:      reg,
		requests: reg.Counter("configurator_search_requests_total", "Total search requests"),
		failures: reg.Counter("configurator_search_failures_total", "Requests where all strategies failed"),
		duration: reg.Histogram("configurator_search_duration_seconds", "End-to-end search time", nil),
	}
}

func (m *serviceMetrics) observeRequest(start time.Time, failed bool) {
	if m == nil {
		return
	}
	m.requests.Inc()
	if failed {
		m.failures.Inc()
	}
	m.duration.Since(start)
}

func (m *serviceMetrics) observeStrategy(name string, outcome Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.reg.Counter(metrics.WithLabels("configurator_strategy_total",
		"strategy", name, "status", outcome.Status.String()),
		"Strategy executions by outcome").Inc()
	m.reg.Histogram(metrics.WithLabels("configurator_strategy_duration_seconds",
		"strategy", name),
		"Per-strategy execution time", nil).Observe(d.Seconds())
}
