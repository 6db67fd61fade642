// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/wneessen/nominal-track/internal/logger"
)

type signalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type stdLibSignalSource struct{}

func (stdLibSignalSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	signal.Notify(c, sig...)
}

func (stdLibSignalSource) Stop(c chan<- os.Signal) {
	signal.Stop(c)
}

// HandleSignals starts a batch run on SIGUSR1 and logs the statistics of the latest
// run on SIGUSR2.
func (s *Service) HandleSignals(ctx context.Context, sigChan chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-sigChan:
			switch sig {
			case syscall.SIGUSR1:
				if s.job == nil {
					s.logger.Warn("no scheduled batch run to trigger")
					continue
				}
				if err := s.job.RunNow(); err != nil {
					s.logger.Error("failed to trigger batch run", logger.Err(err))
				}
			case syscall.SIGUSR2:
				s.statsLock.RLock()
				s.logger.Info("latest batch run", slog.Int("runs", s.runs), slog.Time("started", s.lastRun),
					slog.Int64("flights", s.lastStats.Flights), slog.Int64("segments", s.lastStats.Segments),
					slog.Int64("failed", s.lastStats.Failed))
				s.statsLock.RUnlock()
			}
		}
	}
}
