// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package metrics exposes Prometheus counters for the batch runs.
package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Failure stages
const (
	StageSource = "source"
	StageDecode = "decode"
	StageRecord = "records"
	StageSink   = "sink"
)

// Collector bundles the metrics of the batch runner. A nil Collector discards
// all observations.
type Collector struct {
	gatherer prometheus.Gatherer

	Flights     prometheus.Counter
	Short       prometheus.Counter
	Segments    prometheus.Counter
	Empty       prometheus.Counter
	Failures    *prometheus.CounterVec
	RunDuration prometheus.Histogram
	LastRun     prometheus.Gauge
}

// New registers the metrics against reg, defaulting to the global registry when nil.
// Registering twice against the same registry returns the existing collectors.
func New(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	flights, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nominal_track_flights_total",
		Help: "Total number of flights read from the source.",
	}))
	if err != nil {
		return nil, err
	}
	short, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nominal_track_short_flights_total",
		Help: "Total number of flights skipped for being shorter than the lookahead.",
	}))
	if err != nil {
		return nil, err
	}
	segments, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nominal_track_segments_total",
		Help: "Total number of flight windows written to the sink.",
	}))
	if err != nil {
		return nil, err
	}
	empty, err := register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nominal_track_empty_segments_total",
		Help: "Total number of flight windows without a heading to project from.",
	}))
	if err != nil {
		return nil, err
	}
	failures, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nominal_track_failures_total",
		Help: "Total number of failed flights or windows, labeled by processing stage.",
	}, []string{"stage"}))
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "nominal_track_run_duration_seconds",
		Help:    "Duration of a batch run in seconds.",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
	}))
	if err != nil {
		return nil, err
	}
	lastRun, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nominal_track_last_run_timestamp_seconds",
		Help: "Unix timestamp of the last completed batch run.",
	}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:    gatherer,
		Flights:     flights,
		Short:       short,
		Segments:    segments,
		Empty:       empty,
		Failures:    failures,
		RunDuration: duration,
		LastRun:     lastRun,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (c *Collector) FlightRead() {
	if c != nil {
		c.Flights.Inc()
	}
}

func (c *Collector) FlightShort() {
	if c != nil {
		c.Short.Inc()
	}
}

func (c *Collector) SegmentWritten() {
	if c != nil {
		c.Segments.Inc()
	}
}

func (c *Collector) SegmentEmpty() {
	if c != nil {
		c.Empty.Inc()
	}
}

// Failed counts a failure in the given processing stage.
func (c *Collector) Failed(stage string) {
	if c != nil {
		c.Failures.WithLabelValues(stage).Inc()
	}
}

// RunFinished records the duration of a batch run that started at start.
func (c *Collector) RunFinished(start time.Time) {
	if c == nil {
		return
	}
	now := time.Now()
	c.RunDuration.Observe(now.Sub(start).Seconds())
	c.LastRun.Set(float64(now.Unix()))
}

func register[T prometheus.Collector](reg prometheus.Registerer, collector T) (T, error) {
	if err := reg.Register(collector); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			return collector, fmt.Errorf("collector already registered with incompatible type: %w", err)
		}
		return collector, fmt.Errorf("failed to register collector: %w", err)
	}
	return collector, nil
}
