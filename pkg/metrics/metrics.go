// Package metrics exposes Prometheus instrumentation for the analysis
// pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesAnalyzed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monkedh_frames_analyzed_total",
		Help: "Number of frames submitted to the vision service.",
	})

	visionFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monkedh_vision_failures_total",
		Help: "Number of frames skipped because vision analysis failed.",
	})

	severityIndex = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "monkedh_frame_severity_index",
		Help:    "Severity index distribution across analyzed frames.",
		Buckets: prometheus.LinearBuckets(0, 1, 11),
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "monkedh_active_sessions",
		Help: "Number of video analysis sessions currently running.",
	})

	agentDispatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "monkedh_agent_dispatches_total",
		Help: "Number of agent dispatch calls by outcome.",
	}, []string{"outcome"})

	incidents = promauto.NewCounter(prometheus.CounterOpts{
		Name: "monkedh_incidents_total",
		Help: "Number of frames recorded as incidents.",
	})
)

// RecordFrameAnalyzed counts one frame sent for analysis and observes its
// severity.
func RecordFrameAnalyzed(severity float64) {
	framesAnalyzed.Inc()
	severityIndex.Observe(severity)
}

// RecordVisionFailure counts one skipped frame.
func RecordVisionFailure() {
	visionFailures.Inc()
}

// RecordIncident counts one incident frame.
func RecordIncident() {
	incidents.Inc()
}

// RecordAgentDispatch counts one agent call with its outcome label.
func RecordAgentDispatch(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	agentDispatches.WithLabelValues(outcome).Inc()
}

// SessionStarted increments the running session gauge.
func SessionStarted() {
	activeSessions.Inc()
}

// SessionEnded decrements the running session gauge.
func SessionEnded() {
	activeSessions.Dec()
}
