package metrics

import "github.com/prometheus/client_golang/prometheus"

// ConsumerMetrics counts Pub/Sub messages handled by a worker.
type ConsumerMetrics struct {
	handled *prometheus.CounterVec
}

// NewConsumerMetrics registers the consumer counters on the provided registerer.
func NewConsumerMetrics(reg prometheus.Registerer) *ConsumerMetrics {
	if reg == nil {
		return &ConsumerMetrics{}
	}
	handled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Messages handled by event consumers, by outcome.",
	}, []string{"consumer", "event_type", "outcome"})
	reg.MustRegister(handled)
	return &ConsumerMetrics{handled: handled}
}

// Inc records one message outcome (processed, duplicate, skipped, failed).
func (c *ConsumerMetrics) Inc(consumer, eventType, outcome string) {
	if c == nil || c.handled == nil {
		return
	}
	c.handled.WithLabelValues(normalizeLabel(consumer), normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
