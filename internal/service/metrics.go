// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wneessen/nominal-track/internal/logger"
)

const (
	metricsReadHeaderTimeout = 5 * time.Second
	metricsShutdownTimeout   = 5 * time.Second
)

type healthStatus struct {
	Status   string    `json:"status"`
	Runs     int       `json:"runs"`
	LastRun  time.Time `json:"last_run,omitzero"`
	Flights  int64     `json:"flights"`
	Segments int64     `json:"segments"`
	Failed   int64     `json:"failed"`
}

// serveMetrics serves the Prometheus metrics and a health endpoint on the configured
// address until the returned stop function is called. It returns the address the
// server listens on.
func (s *Service) serveMetrics(ctx context.Context) (string, func(), error) {
	listener, err := new(net.ListenConfig).Listen(ctx, "tcp", s.config.Metrics.Listen)
	if err != nil {
		return "", nil, fmt.Errorf("failed to listen on %s: %w", s.config.Metrics.Listen, err)
	}

	router := mux.NewRouter()
	router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	server := &http.Server{Handler: router, ReadHeaderTimeout: metricsReadHeaderTimeout}

	s.logger.Info("serving metrics", slog.String("address", listener.Addr().String()))
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", logger.Err(err))
		}
	}()

	return listener.Addr().String(), func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down metrics server", logger.Err(err))
		}
	}, nil
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.statsLock.RLock()
	status := healthStatus{
		Status:   "ok",
		Runs:     s.runs,
		LastRun:  s.lastRun,
		Flights:  s.lastStats.Flights,
		Segments: s.lastStats.Segments,
		Failed:   s.lastStats.Failed,
	}
	s.statsLock.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(status); err != nil {
		s.logger.Error("failed to encode health status", logger.Err(err))
	}
}
