// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"testing/synctest"
	"time"

	"github.com/wneessen/nominal-track/internal/config"
	"github.com/wneessen/nominal-track/internal/deviation"
	"github.com/wneessen/nominal-track/internal/flight"
	"github.com/wneessen/nominal-track/internal/geo"
	"github.com/wneessen/nominal-track/internal/logger"
)

func TestNew(t *testing.T) {
	t.Run("new service succeeds", func(t *testing.T) {
		serv, _ := testService(t)
		if serv == nil {
			t.Fatal("expected service to be non-nil")
		}
	})
	t.Run("nil logger fails", func(t *testing.T) {
		conf, err := config.New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if _, err = New(conf, nil); err == nil {
			t.Fatal("expected service creation to fail")
		}
	})
	t.Run("invalid report template fails", func(t *testing.T) {
		conf, err := config.New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		conf.Report.Template = "{{ .Stats }"
		if _, err = New(conf, logger.Discard()); err == nil {
			t.Fatal("expected service creation to fail")
		}
	})
}

func TestService_Run(t *testing.T) {
	t.Run("a single run processes all flights and prints the report", func(t *testing.T) {
		serv, buf := testService(t)
		if err := serv.Run(t.Context()); err != nil {
			t.Fatalf("failed to run service: %s", err)
		}

		lines := readLines(t, serv.config.Sink.File)
		if len(lines) != 6 {
			t.Errorf("expected 6 segments in output file, got %d", len(lines))
		}
		var out flight.Output
		if err := json.Unmarshal([]byte(lines[0]), &out); err != nil {
			t.Fatalf("failed to decode output: %s", err)
		}
		if out.FlightID != "DLH4AB" && out.FlightID != "BAW12" {
			t.Errorf("unexpected flight id in output: %s", out.FlightID)
		}
		if !strings.Contains(buf.String(), "Segments        6") {
			t.Errorf("expected report to contain segment count, got %q", buf.String())
		}
		runs, stats := serv.Runs()
		if runs != 1 {
			t.Errorf("expected 1 run, got %d", runs)
		}
		if stats.Flights != 2 {
			t.Errorf("expected 2 flights, got %d", stats.Flights)
		}
	})
	t.Run("a repeated run replaces the previous output", func(t *testing.T) {
		serv, _ := testService(t)
		if err := serv.Run(t.Context()); err != nil {
			t.Fatalf("failed to run service: %s", err)
		}
		if err := serv.Run(t.Context()); err != nil {
			t.Fatalf("failed to run service again: %s", err)
		}
		if lines := readLines(t, serv.config.Sink.File); len(lines) != 6 {
			t.Errorf("expected 6 segments in output file, got %d", len(lines))
		}
	})
	t.Run("disabled report prints nothing", func(t *testing.T) {
		serv, buf := testService(t)
		serv.config.Report.Disable = true
		if err := serv.Run(t.Context()); err != nil {
			t.Fatalf("failed to run service: %s", err)
		}
		if buf.Len() != 0 {
			t.Errorf("expected no report, got %q", buf.String())
		}
	})

	failures := []struct {
		name      string
		configure func(*config.Config)
		wantErr   string
	}{
		{
			"missing flight file fails",
			func(c *config.Config) { c.Source.File = filepath.Join(filepath.Dir(c.Source.File), "missing.jsonl") },
			"failed to read flight file",
		},
		{
			"unsupported source type fails",
			func(c *config.Config) { c.Source.Type = "invalid" },
			"unsupported source type: invalid",
		},
		{
			"unsupported sink type fails",
			func(c *config.Config) { c.Sink.Type = "invalid" },
			"unsupported sink type: invalid",
		},
		{
			"sink in missing directory fails",
			func(c *config.Config) { c.Sink.File = filepath.Join(filepath.Dir(c.Sink.File), "missing", "out.jsonl") },
			"failed to create sink",
		},
		{
			"invalid mongo uri fails",
			func(c *config.Config) {
				c.Source.Type = config.TypeMongo
				c.Mongo.URI = "invalid://localhost"
			},
			"failed to create source",
		},
		{
			"unsupported tracing exporter fails",
			func(c *config.Config) {
				c.Tracing.Enabled = true
				c.Tracing.Exporter = "jaeger"
			},
			"failed to initialize tracing",
		},
		{
			"invalid metrics address fails",
			func(c *config.Config) { c.Metrics.Listen = "invalid:address:99999" },
			"failed to listen",
		},
	}
	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			serv, _ := testService(t)
			tc.configure(serv.config)
			err := serv.Run(t.Context())
			if err == nil {
				t.Fatal("expected service to fail")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("expected error to contain %q, got %q", tc.wantErr, err)
			}
		})
	}

	t.Run("scheduled runs repeat until the context is canceled", func(t *testing.T) {
		synctest.Test(t, func(t *testing.T) {
			ctx, cancel := context.WithCancel(t.Context())
			defer cancel()

			serv, _ := testService(t)
			serv.config.Schedule.Interval = time.Hour
			signals := new(fakeSignalSource)
			serv.SignalSrc = signals

			done := make(chan error, 1)
			go func() {
				done <- serv.Run(ctx)
			}()

			synctest.Wait()
			if runs, _ := serv.Runs(); runs != 1 {
				t.Fatalf("expected 1 run after start, got %d", runs)
			}
			time.Sleep(time.Hour + time.Minute)
			synctest.Wait()
			if runs, _ := serv.Runs(); runs != 2 {
				t.Fatalf("expected 2 runs after one interval, got %d", runs)
			}
			signals.send(syscall.SIGUSR1)
			synctest.Wait()
			if runs, _ := serv.Runs(); runs != 3 {
				t.Fatalf("expected 3 runs after SIGUSR1, got %d", runs)
			}

			cancel()
			synctest.Wait()
			if err := <-done; err != nil {
				t.Errorf("failed to run service: %s", err)
			}
		})
	})
}

func TestService_serveMetrics(t *testing.T) {
	t.Run("metrics are served over http", func(t *testing.T) {
		serv, _ := testService(t)
		serv.config.Metrics.Listen = "127.0.0.1:0"
		addr, stop, err := serv.serveMetrics(t.Context())
		if err != nil {
			t.Fatalf("failed to serve metrics: %s", err)
		}
		defer stop()
		serv.metrics.FlightRead()

		resp, err := http.Get("http://" + addr + "/metrics")
		if err != nil {
			t.Fatalf("failed to query metrics: %s", err)
		}
		defer func() { _ = resp.Body.Close() }()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read metrics: %s", err)
		}
		for _, want := range []string{"nominal_track_flights_total 1", "go_goroutines"} {
			if !strings.Contains(string(body), want) {
				t.Errorf("expected metrics to contain %q", want)
			}
		}
	})
}

func TestService_handleHealth(t *testing.T) {
	t.Run("health reports the latest run", func(t *testing.T) {
		serv, _ := testService(t)
		if err := serv.Run(t.Context()); err != nil {
			t.Fatalf("failed to run service: %s", err)
		}
		serv.config.Metrics.Listen = "127.0.0.1:0"
		addr, stop, err := serv.serveMetrics(t.Context())
		if err != nil {
			t.Fatalf("failed to serve metrics: %s", err)
		}
		defer stop()

		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			t.Fatalf("failed to query health: %s", err)
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
		}
		var status healthStatus
		if err = json.NewDecoder(resp.Body).Decode(&status); err != nil {
			t.Fatalf("failed to decode health status: %s", err)
		}
		if status.Status != "ok" || status.Runs != 1 || status.Segments != 6 {
			t.Errorf("unexpected health status: %+v", status)
		}
	})
	t.Run("health only accepts GET", func(t *testing.T) {
		serv, _ := testService(t)
		serv.config.Metrics.Listen = "127.0.0.1:0"
		addr, stop, err := serv.serveMetrics(t.Context())
		if err != nil {
			t.Fatalf("failed to serve metrics: %s", err)
		}
		defer stop()

		resp, err := http.Post("http://"+addr+"/health", "text/plain", nil)
		if err != nil {
			t.Fatalf("failed to query health: %s", err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
		}
	})
}

func TestService_HandleSignals(t *testing.T) {
	t.Run("USR1 signal without scheduled job is ignored", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serv, _ := testService(t)
		buf := &syncBuffer{buf: bytes.NewBuffer(nil)}
		serv.logger = logger.NewLogger(slog.LevelInfo, buf)
		sigChan := make(chan os.Signal, 1)
		go serv.HandleSignals(ctx, sigChan)

		sigChan <- syscall.SIGUSR1
		time.Sleep(time.Millisecond * 100)
		wantLog := `msg="no scheduled batch run to trigger"`
		if !strings.Contains(buf.String(), wantLog) {
			t.Errorf("expected log to contain %q, got %q", wantLog, buf.String())
		}
	})
	t.Run("USR2 signal logs the latest run", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		serv, _ := testService(t)
		buf := &syncBuffer{buf: bytes.NewBuffer(nil)}
		serv.logger = logger.NewLogger(slog.LevelInfo, buf)
		sigChan := make(chan os.Signal, 1)
		go serv.HandleSignals(ctx, sigChan)

		sigChan <- syscall.SIGUSR2
		time.Sleep(time.Millisecond * 100)
		wantLog := `msg="latest batch run" runs=0`
		if !strings.Contains(buf.String(), wantLog) {
			t.Errorf("expected log to contain %q, got %q", wantLog, buf.String())
		}
	})
}

// testService returns a service reading two flights from a file in a temporary
// directory and writing its report to the returned buffer.
func testService(t *testing.T) (*Service, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	conf, err := config.New()
	if err != nil {
		t.Fatalf("failed to load config: %s", err)
	}
	conf.Source.File = filepath.Join(dir, "flights.jsonl")
	conf.Sink.File = filepath.Join(dir, "projected_flights.jsonl")
	conf.Batch.Lookahead = 100 * time.Second
	writeFlights(t, conf.Source.File, testFlight("DLH4AB", 40), testFlight("BAW12", 40))

	serv, err := New(conf, logger.Discard())
	if err != nil {
		t.Fatalf("failed to create service: %s", err)
	}
	buf := bytes.NewBuffer(nil)
	serv.output = buf
	return serv, buf
}

// testFlight returns a northbound flight with one sample every 10 seconds.
func testFlight(id string, samples int) flight.Document {
	doc := flight.Document{ID: "id-" + id, FlightID: id, FlightLength: float64(samples * 10)}
	start := geo.Point{Lat: 47, Lon: 11}
	for i := range samples {
		elapsed := float64(i * 10)
		pos := geo.ProjectPoint(start, 0, elapsed*280*deviation.KnotsToMetersPerSecond)
		heading := 0.0
		doc.Lat = append(doc.Lat, pos.Lat)
		doc.Lon = append(doc.Lon, pos.Lon)
		doc.Hdg = append(doc.Hdg, &heading)
		doc.Spd = append(doc.Spd, 280)
		doc.TS = append(doc.TS, 1_700_000_000+elapsed)
		doc.Alt = append(doc.Alt, 35000)
	}
	return doc
}

func writeFlights(t *testing.T, path string, docs ...flight.Document) {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	encoder := json.NewEncoder(buf)
	for _, doc := range docs {
		if err := encoder.Encode(doc); err != nil {
			t.Fatalf("failed to encode flight: %s", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("failed to write flights: %s", err)
	}
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %s", err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

type (
	fakeSignalSource struct {
		mu sync.Mutex
		ch chan<- os.Signal
	}
	syncBuffer struct {
		mu  sync.Mutex
		buf *bytes.Buffer
	}
)

func (f *fakeSignalSource) Notify(c chan<- os.Signal, _ ...os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = c
}

func (f *fakeSignalSource) Stop(chan<- os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ch = nil
}

func (f *fakeSignalSource) send(sig os.Signal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ch != nil {
		f.ch <- sig
	}
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}
