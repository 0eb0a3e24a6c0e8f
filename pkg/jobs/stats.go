package jobs

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tricox-dev/tricox/pkg/backend"
	"github.com/tricox-dev/tricox/pkg/config"
)

var (
	versionsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tricox",
		Subsystem: "registry",
		Name:      "versions",
		Help:      "The number of stored component versions",
	})

	fetchesGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "tricox",
		Subsystem: "registry",
		Name:      "fetches",
		Help:      "The sum of all component download counters",
	})
)

func init() {
	Register("stats", statsRefresh{})
}

// statsRefresh copies the registry counters into gauges.
type statsRefresh struct{}

var _ Runner = statsRefresh{}

// Spec implements Runner.
func (statsRefresh) Spec(ctx context.Context) string {
	cfg := config.FromContext(ctx)
	if cfg == nil {
		return ""
	}
	return cfg.Jobs.Stats
}

// Func implements Runner.
func (statsRefresh) Func(ctx context.Context) func() {
	be := backend.FromContext(ctx)
	logger := log.FromContext(ctx).WithPrefix("jobs.stats")
	return func() {
		if be == nil {
			return
		}

		stats, err := be.Stats(ctx)
		if err != nil {
			logger.Error("error reading registry stats", "err", err)
			return
		}

		versionsGauge.Set(float64(stats.TotalShips))
		fetchesGauge.Set(float64(stats.TotalFetches))
		logger.Debug("refreshed registry stats", "ships", stats.TotalShips, "fetches", stats.TotalFetches)
	}
}
