package flow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cduocr_frames_total",
			Help: "Total number of pipeline frames",
		},
		[]string{"trigger", "status"}, // trigger: poll, event, refine; status: ok, error, skipped
	)

	commitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cduocr_commits_total",
			Help: "Total number of stable output commits",
		},
	)

	stageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cduocr_stage_duration_seconds",
			Help:    "Pipeline stage duration in seconds",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"stage"}, // capture, preprocess, recognition, correction, stability
	)

	telemetryBlobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cduocr_telemetry_blobs_total",
			Help: "Total number of telemetry blobs handled",
		},
		[]string{"status"}, // fresh, duplicate
	)
)
