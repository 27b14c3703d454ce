package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/types"
)

var (
	incidentsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix_guardian",
			Name:      "incidents_created_total",
			Help:      "Total number of incidents created, partitioned by priority and category.",
		},
		[]string{"priority", "category"},
	)

	pagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix_guardian",
			Name:      "pages_sent_total",
			Help:      "Total number of pages dispatched, partitioned by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	escalationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix_guardian",
			Name:      "escalations_total",
			Help:      "Total number of escalation step advances, partitioned by reason.",
		},
		[]string{"reason"},
	)

	escalationExhaustedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "phoenix_guardian",
			Name:      "escalation_exhausted_total",
			Help:      "Total number of escalation chains exhausted without acknowledgment.",
		},
	)

	slaBreachesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "phoenix_guardian",
			Name:      "sla_breaches_total",
			Help:      "Total number of SLA deadline breaches, partitioned by kind.",
		},
		[]string{"kind"},
	)

	ackLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "phoenix_guardian",
			Name:      "ack_latency_seconds",
			Help:      "Time from incident creation to acknowledgment in seconds.",
			Buckets:   []float64{30, 60, 120, 300, 600, 900, 1800, 3600, 7200, 14400},
		},
	)
)

// Register attaches phoenix-guardian collectors to the supplied registerer
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		incidentsCreatedTotal,
		pagesSentTotal,
		escalationsTotal,
		escalationExhaustedTotal,
		slaBreachesTotal,
		ackLatencySeconds,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveIncidentCreated records a new incident
func ObserveIncidentCreated(priority types.Priority, category types.Category) {
	incidentsCreatedTotal.WithLabelValues(priority.String(), category.String()).Inc()
}

// ObservePage records one page dispatch attempt outcome
func ObservePage(channel types.ChannelType, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	pagesSentTotal.WithLabelValues(channel.String(), outcome).Inc()
}

// ObserveEscalation records one escalation step advance
func ObserveEscalation(reason string) {
	escalationsTotal.WithLabelValues(reason).Inc()
}

// ObserveEscalationExhausted records a chain running out of steps
func ObserveEscalationExhausted() {
	escalationExhaustedTotal.Inc()
}

// ObserveSLABreach records a missed SLA deadline
func ObserveSLABreach(kind string) {
	slaBreachesTotal.WithLabelValues(kind).Inc()
}

// ObserveAckLatency records time to acknowledgment
func ObserveAckLatency(d time.Duration) {
	if d < 0 {
		d = 0
	}
	ackLatencySeconds.Observe(d.Seconds())
}
