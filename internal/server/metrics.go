package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	wsConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cduocr_websocket_active_connections",
			Help: "Number of connected frame subscribers",
		},
	)

	wsFramesPushed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cduocr_websocket_frames_pushed_total",
			Help: "Total number of frames pushed to subscribers",
		},
	)
)
