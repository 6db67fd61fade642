// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wneessen/nominal-track/internal/batch"
	"github.com/wneessen/nominal-track/internal/config"
	"github.com/wneessen/nominal-track/internal/logger"
	"github.com/wneessen/nominal-track/internal/metrics"
	"github.com/wneessen/nominal-track/internal/report"
	"github.com/wneessen/nominal-track/internal/store"
	"github.com/wneessen/nominal-track/internal/tracing"
)

const batchJobName = "batch_run_job"

type Service struct {
	config    *config.Config
	logger    *logger.Logger
	metrics   *metrics.Collector
	report    *report.Report
	scheduler gocron.Scheduler
	output    io.Writer
	SignalSrc signalSource

	runner *batch.Runner
	source store.Source
	sink   store.Sink
	job    gocron.Job

	shutdownOnce sync.Once

	statsLock sync.RWMutex
	runs      int
	lastRun   time.Time
	lastStats batch.Stats
}

func New(conf *config.Config, log *logger.Logger) (*Service, error) {
	if log == nil {
		return nil, errors.New("service requires a logger")
	}
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector, err := metrics.New(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	rep, err := report.New(conf)
	if err != nil {
		return nil, err
	}

	service := &Service{
		config:    conf,
		logger:    log,
		metrics:   collector,
		report:    rep,
		scheduler: scheduler,
		output:    os.Stdout,
		SignalSrc: stdLibSignalSource{},
	}
	return service, nil
}

// Run opens the configured source and sink and processes all flights. Without a schedule
// interval the batch runs once, otherwise it is repeated until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	defer s.shutdownOnce.Do(func() {
		if err := s.scheduler.Shutdown(); err != nil {
			s.logger.Error("failed to shut down scheduler", logger.Err(err))
		}
	})

	shutdownTracing, err := tracing.Init(ctx, s.config, s.logger, os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer tracing.Shutdown(shutdownTracing, s.logger)

	if s.config.Metrics.Listen != "" {
		_, stop, err := s.serveMetrics(ctx)
		if err != nil {
			return err
		}
		defer stop()
	}

	if err = s.openStores(ctx); err != nil {
		return err
	}
	defer s.closeStores()

	runner, err := batch.New(s.source, s.sink, s.config, s.logger, s.metrics)
	if err != nil {
		return fmt.Errorf("failed to create batch runner: %w", err)
	}
	s.runner = runner

	if s.config.Schedule.Interval == 0 {
		return s.runBatch(ctx)
	}

	if err = s.createScheduledJob(ctx, s.config.Schedule.Interval, s.runScheduledBatch, batchJobName); err != nil {
		return err
	}
	s.scheduler.Start()
	s.logger.Info("batch runs scheduled", slog.Duration("interval", s.config.Schedule.Interval))

	sigChan := make(chan os.Signal, 1)
	s.SignalSrc.Notify(sigChan, syscall.SIGUSR1, syscall.SIGUSR2)
	defer s.SignalSrc.Stop(sigChan)
	go s.HandleSignals(ctx, sigChan)

	// Wait for the context to cancel
	<-ctx.Done()
	return nil
}

func (s *Service) createScheduledJob(ctx context.Context, interval time.Duration, task func(context.Context),
	jobName string,
) error {
	job, err := s.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task),
		gocron.WithContext(ctx),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithName(jobName),
	)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", jobName, err)
	}
	s.job = job
	return nil
}

func (s *Service) runScheduledBatch(ctx context.Context) {
	if err := s.runBatch(ctx); err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("batch run failed", logger.Err(err))
	}
}

// runBatch runs the batch once and prints the report of the run.
func (s *Service) runBatch(ctx context.Context) error {
	started := time.Now()
	s.logger.Info("starting batch run", slog.String("source", s.source.Name()), slog.String("sink", s.sink.Name()))
	stats, err := s.runner.Run(ctx)

	s.statsLock.Lock()
	s.runs++
	s.lastRun = started
	s.lastStats = stats
	s.statsLock.Unlock()

	if err != nil {
		return fmt.Errorf("batch run failed: %w", err)
	}
	s.logger.Info("batch run finished", slog.Int64("flights", stats.Flights),
		slog.Int64("segments", stats.Segments), slog.Int64("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))

	if s.config.Report.Disable {
		return nil
	}
	summary := report.Summary{Started: started, Source: s.source.Name(), Sink: s.sink.Name(), Stats: stats}
	if err = s.report.Write(s.output, summary); err != nil {
		s.logger.Error("failed to write report", logger.Err(err))
	}
	return nil
}

// Runs returns the number of batch runs and the statistics of the latest one.
func (s *Service) Runs() (int, batch.Stats) {
	s.statsLock.RLock()
	defer s.statsLock.RUnlock()
	return s.runs, s.lastStats
}
