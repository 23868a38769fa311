package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "splatprep_runs_total",
		Help: "Total number of preparation runs, by status",
	}, []string{"status"})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "splatprep_stage_duration_seconds",
		Help:    "Duration of dataset preparation stages",
		Buckets: []float64{1, 5, 10, 30, 60, 300, 900, 1800, 3600},
	}, []string{"stage"})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splatprep_frames_extracted_total",
		Help: "Total number of frames sampled from input videos",
	})

	ImagesCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "splatprep_images_collected_total",
		Help: "Total number of images copied into the normalized input set",
	})
)
