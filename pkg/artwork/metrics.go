package artwork

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricStageAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "onair",
	Subsystem: "artwork",
	Name:      "stage_attempts_total",
	Help:      "Artwork stage attempts by outcome.",
}, []string{"stage", "outcome"})
