// Package metrics exposes the bot's Prometheus counters.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "studybot"

// Collector holds the bot's metrics on its own registry. A nil *Collector is
// valid and records nothing.
type Collector struct {
	registry *prometheus.Registry

	Turns        *prometheus.CounterVec
	TurnDuration prometheus.Histogram
	Replies      *prometheus.CounterVec
	Reviews      *prometheus.CounterVec
	Prompts      prometheus.Counter
	DroppedJobs  prometheus.Counter
}

// NewCollector creates a collector registered on a fresh registry. An empty
// namespace uses DefaultNamespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		Turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "turns_total",
				Help:      "Total number of conversation turns handled",
			},
			[]string{"state", "status"},
		),
		TurnDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "turn_duration_seconds",
				Help:      "Conversation turn handling duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Replies: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "replies_sent_total",
				Help:      "Total number of messages sent to users",
			},
			[]string{"message_type"},
		),
		Reviews: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reviews_total",
				Help:      "Total number of fact reviews recorded",
			},
			[]string{"passed"},
		),
		Prompts: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "study_prompts_total",
				Help:      "Total number of proactive study prompts sent",
			},
		),
		DroppedJobs: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dropped_jobs_total",
				Help:      "Total number of turns dropped because a worker queue was full",
			},
		),
	}

	c.registry.MustRegister(
		c.Turns,
		c.TurnDuration,
		c.Replies,
		c.Reviews,
		c.Prompts,
		c.DroppedJobs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveTurn records one handled turn ending in state.
func (c *Collector) ObserveTurn(state string, err error, elapsed time.Duration) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Turns.WithLabelValues(state, status).Inc()
	c.TurnDuration.Observe(elapsed.Seconds())
}

// ObserveReply records one message sent with messageType.
func (c *Collector) ObserveReply(messageType string) {
	if c == nil {
		return
	}
	c.Replies.WithLabelValues(messageType).Inc()
}

// ObserveReview records one recorded review.
func (c *Collector) ObserveReview(passed bool) {
	if c == nil {
		return
	}
	c.Reviews.WithLabelValues(strconv.FormatBool(passed)).Inc()
}

// ObservePrompt records one proactive study prompt.
func (c *Collector) ObservePrompt() {
	if c == nil {
		return
	}
	c.Prompts.Inc()
}

// ObserveDroppedJob records one job rejected by the worker pool.
func (c *Collector) ObserveDroppedJob() {
	if c == nil {
		return
	}
	c.DroppedJobs.Inc()
}
