package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	shipCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tricox",
		Subsystem: "registry",
		Name:      "ships_total",
		Help:      "The total number of shipped component versions",
	})

	dockCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tricox",
		Subsystem: "registry",
		Name:      "docks_total",
		Help:      "The total number of docked components",
	})
)
