// Package metrics declares the Prometheus series the engine, cron
// scheduler, and websocket session manager publish, grounded on the
// teacher's internal/observability/metrics.go.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector bundles the series a single process registers once.
type Collector struct {
	WorkflowExecutionsTotal   *prometheus.CounterVec
	WorkflowExecutionDuration *prometheus.HistogramVec
	NodeExecutionsTotal       *prometheus.CounterVec
	NodeExecutionDuration     *prometheus.HistogramVec
	CronFiresTotal            *prometheus.CounterVec
	CronFireDuration          *prometheus.HistogramVec
	WSSessionsActive          prometheus.Gauge
	WSMessagesTotal           *prometheus.CounterVec
}

// New registers every series against reg. Use prometheus.NewRegistry()
// in tests to avoid colliding with the global default registry.
func New(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		WorkflowExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workscript_workflow_executions_total",
				Help: "Total number of workflow executions by final edge.",
			},
			[]string{"workflow_id", "edge"},
		),
		WorkflowExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workscript_workflow_execution_duration_seconds",
				Help:    "Duration of a full workflow run.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"workflow_id"},
		),
		NodeExecutionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workscript_node_executions_total",
				Help: "Total number of node dispatches by node id and edge.",
			},
			[]string{"node_id", "edge"},
		),
		NodeExecutionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workscript_node_execution_duration_seconds",
				Help:    "Duration of a single node dispatch.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"node_id"},
		),
		CronFiresTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workscript_cron_fires_total",
				Help: "Total number of cron automation fires by outcome.",
			},
			[]string{"automation_id", "outcome"},
		),
		CronFireDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workscript_cron_fire_duration_seconds",
				Help:    "Duration of one automation fire, including any skip.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30},
			},
			[]string{"automation_id"},
		),
		WSSessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "workscript_ws_sessions_active",
				Help: "Number of currently connected websocket sessions.",
			},
		),
		WSMessagesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workscript_ws_messages_total",
				Help: "Total websocket messages processed by type and direction.",
			},
			[]string{"type", "direction"},
		),
	}
}

// ObserveNode records one node dispatch's duration and outcome edge.
func (c *Collector) ObserveNode(nodeID, edge string, d time.Duration) {
	c.NodeExecutionsTotal.WithLabelValues(nodeID, edge).Inc()
	c.NodeExecutionDuration.WithLabelValues(nodeID).Observe(d.Seconds())
}

// ObserveWorkflow records one workflow run's duration and final edge.
func (c *Collector) ObserveWorkflow(workflowID, edge string, d time.Duration) {
	c.WorkflowExecutionsTotal.WithLabelValues(workflowID, edge).Inc()
	c.WorkflowExecutionDuration.WithLabelValues(workflowID).Observe(d.Seconds())
}
