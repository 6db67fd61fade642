// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package batch runs the track deviation analysis over all flights of a source and
// writes the results to a sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/wneessen/nominal-track/internal/config"
	"github.com/wneessen/nominal-track/internal/deviation"
	"github.com/wneessen/nominal-track/internal/flight"
	"github.com/wneessen/nominal-track/internal/logger"
	"github.com/wneessen/nominal-track/internal/metrics"
	"github.com/wneessen/nominal-track/internal/nominal"
	"github.com/wneessen/nominal-track/internal/store"
	"github.com/wneessen/nominal-track/internal/track"
)

// Stats summarizes a batch run.
type Stats struct {
	// Flights read from the source.
	Flights int64
	// Short flights that cover less than one window.
	Short int64
	// Segments written to the sink.
	Segments int64
	// Empty windows without any heading.
	Empty int64
	// Failed flights and windows.
	Failed int64
	// Duration of the run.
	Duration time.Duration
}

const tracerName = "github.com/wneessen/nominal-track/internal/batch"

type counters struct {
	flights, short, segments, empty, failed atomic.Int64
}

func (c *counters) stats(start time.Time) Stats {
	return Stats{
		Flights:  c.flights.Load(),
		Short:    c.short.Load(),
		Segments: c.segments.Load(),
		Empty:    c.empty.Load(),
		Failed:   c.failed.Load(),
		Duration: time.Since(start),
	}
}

// Runner processes the flights of a source.
type Runner struct {
	source  store.Source
	sink    store.Sink
	conf    *config.Config
	log     *logger.Logger
	metrics *metrics.Collector
	tracer  trace.Tracer
	mode    flight.WindowMode

	recordOpts  []deviation.Option
	projection  nominal.Mode
	projectOpts []nominal.Option
}

// New returns a Runner reading from source and writing to sink. The metrics collector
// may be nil.
func New(source store.Source, sink store.Sink, conf *config.Config, log *logger.Logger,
	collector *metrics.Collector,
) (*Runner, error) {
	if source == nil || sink == nil {
		return nil, errors.New("batch runner requires a source and a sink")
	}
	mode, err := flight.ParseWindowMode(conf.Batch.WindowMode)
	if err != nil {
		return nil, err
	}
	projection, err := nominal.ParseMode(conf.Batch.Projection)
	if err != nil {
		return nil, err
	}

	runner := &Runner{
		source:      source,
		sink:        sink,
		conf:        conf,
		log:         log,
		metrics:     collector,
		tracer:      otel.Tracer(tracerName),
		mode:        mode,
		projection:  projection,
		projectOpts: []nominal.Option{nominal.WithLookahead(conf.Batch.Lookahead.Seconds())},
	}
	if conf.Batch.WrapBearings {
		runner.recordOpts = append(runner.recordOpts, deviation.WithWrappedBearings())
	}
	if conf.Batch.CircularMean {
		runner.projectOpts = append(runner.projectOpts, nominal.WithCircularMean())
	}
	return runner, nil
}

// Run resets the sink and processes all flights of the source. A failing flight or
// window is logged and counted, only a failing source or sink reset or the
// cancellation of ctx abort the run.
func (r *Runner) Run(ctx context.Context) (stats Stats, err error) {
	start := time.Now()
	count := new(counters)

	ctx, span := r.tracer.Start(ctx, "batch.Run", trace.WithAttributes(
		attribute.String("source", r.source.Name()),
		attribute.String("sink", r.sink.Name()),
	))
	defer func() {
		span.SetAttributes(
			attribute.Int64("flights", stats.Flights),
			attribute.Int64("segments", stats.Segments),
			attribute.Int64("failed", stats.Failed),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "batch run failed")
		}
		span.End()
	}()

	if err = r.sink.Reset(ctx); err != nil {
		r.metrics.Failed(metrics.StageSink)
		return count.stats(start), fmt.Errorf("failed to reset sink %s: %w", r.sink.Name(), err)
	}
	flights, err := r.source.Flights(ctx, r.conf.MinFlightLength())
	if err != nil {
		r.metrics.Failed(metrics.StageSource)
		return count.stats(start), fmt.Errorf("failed to read flights from %s: %w", r.source.Name(), err)
	}

	group := new(errgroup.Group)
	group.SetLimit(r.conf.Batch.Workers)
	read := 0
	for doc, err := range flights {
		if ctx.Err() != nil {
			break
		}
		if err != nil {
			r.log.Error("failed to read flight", slog.String("source", r.source.Name()), logger.Err(err))
			r.metrics.Failed(metrics.StageSource)
			count.failed.Add(1)
			continue
		}
		if r.conf.Batch.MaxFlights > 0 && read >= r.conf.Batch.MaxFlights {
			break
		}
		read++
		group.Go(func() error {
			r.processFlight(ctx, doc, count)
			return nil
		})
	}
	_ = group.Wait()

	stats = count.stats(start)
	if err = ctx.Err(); err != nil {
		return stats, err
	}
	r.metrics.RunFinished(start)
	return stats, nil
}

func (r *Runner) processFlight(ctx context.Context, doc flight.Document, count *counters) {
	name := doc.Name()
	log := r.log.With(slog.String("flight", name))
	count.flights.Add(1)
	r.metrics.FlightRead()

	ctx, span := r.tracer.Start(ctx, "batch.processFlight", trace.WithAttributes(attribute.String("flight", name)))
	defer span.End()

	seg, err := doc.Segment()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to decode flight")
		log.Error("failed to decode flight", logger.Err(err))
		r.metrics.Failed(metrics.StageDecode)
		count.failed.Add(1)
		return
	}

	seg = flight.AboveAltitude(seg, r.conf.Batch.MinAltitude)
	seg, maxElapsed := flight.WithElapsed(seg)
	lookahead := r.conf.Batch.Lookahead.Seconds()
	span.SetAttributes(attribute.Int("samples", len(seg)), attribute.Float64("elapsed", maxElapsed))
	if maxElapsed < lookahead {
		span.SetAttributes(attribute.Bool("short", true))
		log.Debug("flight too short", slog.Float64("elapsed", maxElapsed))
		r.metrics.FlightShort()
		count.short.Add(1)
		return
	}

	for i, window := range flight.Windows(seg, maxElapsed, lookahead, r.mode) {
		if ctx.Err() != nil {
			return
		}
		records, ok, err := deviation.BuildRecords(window, r.recordOpts...)
		if err != nil {
			span.RecordError(err, trace.WithAttributes(attribute.Int("window", i)))
			log.Error("failed to calculate track errors", slog.Int("window", i), logger.Err(err))
			r.metrics.Failed(metrics.StageRecord)
			count.failed.Add(1)
			continue
		}
		if !ok {
			log.Debug("no heading in window", slog.Int("window", i))
			r.metrics.SegmentEmpty()
			count.empty.Add(1)
			continue
		}

		out := flight.NewOutput(name, i, records)
		r.addProjection(&out, records, log.With(slog.Int("window", i)))
		if err = r.sink.Write(ctx, out); err != nil {
			span.RecordError(err, trace.WithAttributes(attribute.Int("window", i)))
			log.Error("failed to write segment", slog.Int("window", i), logger.Err(err))
			r.metrics.Failed(metrics.StageSink)
			count.failed.Add(1)
			continue
		}
		r.metrics.SegmentWritten()
		count.segments.Add(1)
	}
}

// addProjection adds the configured plot projection to out. A window the projector
// can't handle keeps its track errors and goes without projection columns.
func (r *Runner) addProjection(out *flight.Output, records []track.Record, log *logger.Logger) {
	if r.projection == nominal.ModeNone {
		return
	}
	seg := make(track.Segment, len(records))
	for i, record := range records {
		seg[i] = record.Sample
	}
	projections, err := nominal.ProjectMode(r.projection, seg, r.projectOpts...)
	if err != nil {
		log.Debug("no plot projection for window", logger.Err(err))
		return
	}
	out.SetProjection(projections)
}
