package nowplaying

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "onair"

var (
	metricPollTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "polls_total",
		Help:      "Poll ticks by result.",
	}, []string{"result"})

	metricPollDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "poll_duration_seconds",
		Help:      "Time taken to build a snapshot during a poll tick.",
		Buckets:   prometheus.DefBuckets,
	})

	metricTrackChanges = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "track_changes_total",
		Help:      "Track changes published to subscribers.",
	})

	metricSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "subscribers",
		Help:      "Connected websocket clients.",
	})

	metricMessagesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "messages_dropped_total",
		Help:      "Messages not queued because a client was closed or too slow.",
	})

	metricIdleEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: module,
		Name:      "idle_events_total",
		Help:      "MPD idle events received, by subsystem.",
	}, []string{"subsystem"})
)
