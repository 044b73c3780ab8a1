package metrics

import (
	"bytes"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector captures metrics for benchmark pipeline runs.
type Collector struct {
	registry        *prometheus.Registry
	itemsGenerated  *prometheus.CounterVec
	itemsDropped    *prometheus.CounterVec
	rowsLoaded      *prometheus.CounterVec
	llmCallDuration prometheus.Histogram
	itemsEvaluated  *prometheus.CounterVec
}

// NewCollector initializes a new metrics registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	collector := &Collector{
		registry: registry,
		itemsGenerated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kgbench_items_generated_total", Help: "QA items generated"},
			[]string{"question_type"},
		),
		itemsDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kgbench_items_dropped_total", Help: "Candidate items dropped"},
			[]string{"question_type", "reason"},
		),
		rowsLoaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kgbench_rows_loaded_total", Help: "Graph rows loaded from source"},
			[]string{"kind"},
		),
		llmCallDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kgbench_llm_call_duration_seconds",
				Help:    "Language model call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		itemsEvaluated: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "kgbench_items_evaluated_total", Help: "QA items scored by the evaluator"},
			[]string{"status"},
		),
	}

	registry.MustRegister(
		collector.itemsGenerated,
		collector.itemsDropped,
		collector.rowsLoaded,
		collector.llmCallDuration,
		collector.itemsEvaluated,
	)
	return collector
}

// ObserveItemGenerated records a kept QA item.
func (c *Collector) ObserveItemGenerated(questionType string) {
	c.itemsGenerated.WithLabelValues(questionType).Inc()
}

// ObserveItemDropped records a dropped candidate with a reason.
func (c *Collector) ObserveItemDropped(questionType, reason string) {
	c.itemsDropped.WithLabelValues(questionType, reason).Inc()
}

// ObserveRowsLoaded records loaded source rows by kind (node|edge|skipped).
func (c *Collector) ObserveRowsLoaded(kind string, count int) {
	c.rowsLoaded.WithLabelValues(kind).Add(float64(count))
}

// ObserveLLMCall records a language model call duration.
func (c *Collector) ObserveLLMCall(duration time.Duration) {
	c.llmCallDuration.Observe(duration.Seconds())
}

// ObserveItemEvaluated records a scored item (complete|partial).
func (c *Collector) ObserveItemEvaluated(status string) {
	c.itemsEvaluated.WithLabelValues(status).Inc()
}

// Write writes all metrics to a Prometheus text file.
func (c *Collector) Write(path string) error {
	metricFamilies, err := c.registry.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range metricFamilies {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
