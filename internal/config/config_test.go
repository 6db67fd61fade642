// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	const (
		expectLogLevel        = slog.LevelInfo
		expectSourceType      = TypeFile
		expectSinkType        = TypeFile
		expectMongoDatabase   = "flights"
		expectMongoFlights    = "adsb_flights"
		expectMongoProjection = "projected_flights"
		expectLookahead       = time.Minute * 15
		expectMinLengthFactor = 1.2
		expectMinAltitude     = 20000
		expectWorkers         = 4
		expectWindowMode      = "fixed"
		expectProjection      = "none"
	)
	t.Run("new config with all defaults set", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != expectLogLevel {
			t.Errorf("expected log level to be: %s, got %s", expectLogLevel, conf.LogLevel)
		}
		if conf.Source.Type != expectSourceType {
			t.Errorf("expected source type to be: %s, got %s", expectSourceType, conf.Source.Type)
		}
		if conf.Sink.Type != expectSinkType {
			t.Errorf("expected sink type to be: %s, got %s", expectSinkType, conf.Sink.Type)
		}
		if conf.Mongo.Database != expectMongoDatabase {
			t.Errorf("expected mongo database to be: %s, got %s", expectMongoDatabase, conf.Mongo.Database)
		}
		if conf.Mongo.Flights != expectMongoFlights {
			t.Errorf("expected flights collection to be: %s, got %s", expectMongoFlights, conf.Mongo.Flights)
		}
		if conf.Mongo.Projections != expectMongoProjection {
			t.Errorf("expected projections collection to be: %s, got %s", expectMongoProjection,
				conf.Mongo.Projections)
		}
		if conf.Batch.Lookahead != expectLookahead {
			t.Errorf("expected lookahead to be: %s, got %s", expectLookahead, conf.Batch.Lookahead)
		}
		if conf.Batch.MinLengthFactor != expectMinLengthFactor {
			t.Errorf("expected min length factor to be: %g, got %g", expectMinLengthFactor,
				conf.Batch.MinLengthFactor)
		}
		if conf.Batch.MinAltitude != expectMinAltitude {
			t.Errorf("expected min altitude to be: %d, got %g", expectMinAltitude, conf.Batch.MinAltitude)
		}
		if conf.Batch.Workers != expectWorkers {
			t.Errorf("expected workers to be: %d, got %d", expectWorkers, conf.Batch.Workers)
		}
		if conf.Batch.WindowMode != expectWindowMode {
			t.Errorf("expected window mode to be: %s, got %s", expectWindowMode, conf.Batch.WindowMode)
		}
		if conf.Batch.Projection != expectProjection {
			t.Errorf("expected projection to be: %s, got %s", expectProjection, conf.Batch.Projection)
		}
		if conf.Batch.WrapBearings || conf.Batch.CircularMean {
			t.Error("expected bearing wrap and circular mean to be disabled")
		}
		if conf.Schedule.Interval != 0 {
			t.Errorf("expected schedule interval to be 0, got %s", conf.Schedule.Interval)
		}
		if conf.Metrics.Listen != "" {
			t.Errorf("expected metrics to be disabled, got %s", conf.Metrics.Listen)
		}
		if conf.Tracing.Enabled {
			t.Error("expected tracing to be disabled")
		}
		if conf.Tracing.SampleRatio != 1 {
			t.Errorf("expected tracing sample ratio to be 1, got %g", conf.Tracing.SampleRatio)
		}
		if conf.Report.Template != DefaultReportTpl {
			t.Errorf("expected default report template, got %q", conf.Report.Template)
		}
	})
	t.Run("min flight length is derived from the lookahead", func(t *testing.T) {
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if got := conf.MinFlightLength(); got < 1079.999 || got > 1080.001 {
			t.Errorf("expected min flight length to be 1080, got %f", got)
		}
	})
	t.Run("values are read from env", func(t *testing.T) {
		t.Setenv("NOMINALTRACK_SINK_TYPE", "kafka")
		t.Setenv("NOMINALTRACK_KAFKA_TOPIC", "projections")
		t.Setenv("NOMINALTRACK_BATCH_WORKERS", "8")
		t.Setenv("NOMINALTRACK_SCHEDULE_INTERVAL", "1h")
		t.Setenv("NOMINALTRACK_BATCH_PROJECTION", "averaged")
		t.Setenv("NOMINALTRACK_BATCH_WRAP_BEARINGS", "true")
		conf, err := New()
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Sink.Type != TypeKafka {
			t.Errorf("expected sink type to be: %s, got %s", TypeKafka, conf.Sink.Type)
		}
		if conf.Kafka.Topic != "projections" {
			t.Errorf("expected kafka topic to be: projections, got %s", conf.Kafka.Topic)
		}
		if conf.Batch.Workers != 8 {
			t.Errorf("expected workers to be: 8, got %d", conf.Batch.Workers)
		}
		if conf.Batch.Projection != "averaged" || !conf.Batch.WrapBearings {
			t.Errorf("expected averaged projection with wrapped bearings, got %s and %t",
				conf.Batch.Projection, conf.Batch.WrapBearings)
		}
		if conf.Schedule.Interval != time.Hour {
			t.Errorf("expected schedule interval to be: 1h, got %s", conf.Schedule.Interval)
		}
	})
	t.Run("new config with invalid values from env", func(t *testing.T) {
		t.Setenv("NOMINALTRACK_LOGLEVEL", "invalid")
		_, err := New()
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})

	invalid := []struct {
		name  string
		key   string
		value string
	}{
		{"config validate source type", "NOMINALTRACK_SOURCE_TYPE", "kafka"},
		{"config validate sink type", "NOMINALTRACK_SINK_TYPE", "postgres"},
		{"config validate lookahead", "NOMINALTRACK_BATCH_LOOKAHEAD", "500ms"},
		{"config validate min length factor", "NOMINALTRACK_BATCH_MIN_LENGTH_FACTOR", "-1"},
		{"config validate max flights", "NOMINALTRACK_BATCH_MAX_FLIGHTS", "-1"},
		{"config validate workers", "NOMINALTRACK_BATCH_WORKERS", "-2"},
		{"config validate window mode", "NOMINALTRACK_BATCH_WINDOW_MODE", "sliding"},
		{"config validate projection", "NOMINALTRACK_BATCH_PROJECTION", "linear"},
		{"config validate schedule interval", "NOMINALTRACK_SCHEDULE_INTERVAL", "-1m"},
		{"config validate tracing exporter", "NOMINALTRACK_TRACING_EXPORTER", "jaeger"},
		{"config validate tracing sample ratio", "NOMINALTRACK_TRACING_SAMPLE_RATIO", "1.5"},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			_, err := New()
			if err == nil {
				t.Error("expected config to fail, but didn't")
			}
		})
	}
}

func TestNewFromFile(t *testing.T) {
	t.Run("reading config from valid file succeeds", func(t *testing.T) {
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.LogLevel != slog.LevelInfo {
			t.Errorf("expected log level to be: %s, got %s", slog.LevelInfo, conf.LogLevel)
		}
		if conf.Source.File != "flights.jsonl" {
			t.Errorf("expected source file to be: flights.jsonl, got %s", conf.Source.File)
		}
		if conf.Kafka.Brokers != "localhost:9092" {
			t.Errorf("expected kafka brokers to be: localhost:9092, got %s", conf.Kafka.Brokers)
		}
		if conf.Batch.Lookahead != time.Minute*15 {
			t.Errorf("expected lookahead to be: 15m, got %s", conf.Batch.Lookahead)
		}
	})
	t.Run("env overrides values from file", func(t *testing.T) {
		t.Setenv("NOMINALTRACK_BATCH_MIN_ALTITUDE", "10000")
		conf, err := NewFromFile("../../etc", "config.toml")
		if err != nil {
			t.Fatalf("failed to load config: %s", err)
		}
		if conf.Batch.MinAltitude != 10000 {
			t.Errorf("expected min altitude to be: 10000, got %g", conf.Batch.MinAltitude)
		}
	})
	t.Run("reading config from non-existent file fails", func(t *testing.T) {
		_, err := NewFromFile("../../etc", "non-existent.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
	t.Run("reading invalid config file fails", func(t *testing.T) {
		_, err := NewFromFile("../../testdata", "invalid.toml")
		if err == nil {
			t.Error("expected config to fail, but didn't")
		}
	})
}
