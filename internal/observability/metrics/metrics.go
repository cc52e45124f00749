package metrics

import "github.com/prometheus/client_golang/prometheus"

// ChatMetrics exposes counters/histograms for the conversation pipeline.
type ChatMetrics struct {
	routedTotal       *prometheus.CounterVec
	completionLatency *prometheus.HistogramVec
	reportsGenerated  *prometheus.CounterVec
}

func NewChatMetrics(reg prometheus.Registerer) *ChatMetrics {
	m := &ChatMetrics{
		routedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurowell",
			Subsystem: "chat",
			Name:      "routed_total",
			Help:      "Total routed messages by terminal outcome",
		}, []string{"outcome"}),
		completionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "neurowell",
			Subsystem: "chat",
			Name:      "completion_latency_seconds",
			Help:      "Latency of completion-service calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		reportsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "neurowell",
			Subsystem: "report",
			Name:      "generated_total",
			Help:      "Counselor reports generated by status",
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.routedTotal, m.completionLatency, m.reportsGenerated)
	return m
}

func (m *ChatMetrics) ObserveRouted(outcome string) {
	if m == nil {
		return
	}
	m.routedTotal.WithLabelValues(outcome).Inc()
}

func (m *ChatMetrics) ObserveCompletionLatency(provider string, seconds float64) {
	if m == nil {
		return
	}
	m.completionLatency.WithLabelValues(provider).Observe(seconds)
}

func (m *ChatMetrics) ObserveReport(status string) {
	if m == nil {
		return
	}
	m.reportsGenerated.WithLabelValues(status).Inc()
}
