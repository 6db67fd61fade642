// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kkyr/fig"

	"github.com/wneessen/nominal-track/internal/flight"
	"github.com/wneessen/nominal-track/internal/nominal"
)

const (
	configEnv        = "NOMINALTRACK"
	DefaultReportTpl = "{{pad \"Run started\" 16}}{{timeFormat .Started \"2006-01-02 15:04:05\"}}\n" +
		"{{pad \"Source\" 16}}{{.Source}}\n{{pad \"Sink\" 16}}{{.Sink}}\n" +
		"{{pad \"Flights\" 16}}{{.Stats.Flights}}\n{{pad \"Short flights\" 16}}{{.Stats.Short}}\n" +
		"{{pad \"Segments\" 16}}{{.Stats.Segments}}\n{{pad \"Empty windows\" 16}}{{.Stats.Empty}}\n" +
		"{{pad \"Failures\" 16}}{{.Stats.Failed}}\n{{pad \"Duration\" 16}}{{duration .Stats.Duration}}\n"
)

// Source and sink types
const (
	TypeFile  = "file"
	TypeMongo = "mongo"
	TypeKafka = "kafka"
)

// Config represents the application's configuration structure.
type Config struct {
	LogLevel slog.Level `fig:"loglevel" default:"0"`

	Source struct {
		// Allowed values: file, mongo
		Type string `fig:"type" default:"file"`
		File string `fig:"file" default:"flights.jsonl"`
	} `fig:"source"`

	Sink struct {
		// Allowed values: file, mongo, kafka
		Type string `fig:"type" default:"file"`
		File string `fig:"file" default:"projected_flights.jsonl"`
	} `fig:"sink"`

	Mongo struct {
		URI         string `fig:"uri" default:"mongodb://localhost:27017"`
		Database    string `fig:"database" default:"flights"`
		Flights     string `fig:"flights" default:"adsb_flights"`
		Projections string `fig:"projections" default:"projected_flights"`
	} `fig:"mongo"`

	Kafka struct {
		// Comma separated list of brokers
		Brokers string `fig:"brokers" default:"localhost:9092"`
		Topic   string `fig:"topic" default:"projected_flights"`
	} `fig:"kafka"`

	Batch struct {
		Lookahead       time.Duration `fig:"lookahead" default:"15m"`
		MinLengthFactor float64       `fig:"min_length_factor" default:"1.2"`
		MinAltitude     float64       `fig:"min_altitude" default:"20000"`
		// 0 processes all flights
		MaxFlights int `fig:"max_flights"`
		Workers    int `fig:"workers" default:"4"`
		// Allowed values: fixed, tail
		WindowMode string `fig:"window_mode" default:"fixed"`
		// Normalize the bearing difference that decides the cross-track side
		WrapBearings bool `fig:"wrap_bearings"`
		// Plot projection added to each window. Allowed values: none, anchor, averaged
		Projection   string `fig:"projection" default:"none"`
		CircularMean bool   `fig:"circular_mean"`
	} `fig:"batch"`

	Schedule struct {
		// 0 runs the batch once and exits
		Interval time.Duration `fig:"interval"`
	} `fig:"schedule"`

	Metrics struct {
		// Empty disables the metrics endpoint
		Listen string `fig:"listen"`
	} `fig:"metrics"`

	Tracing struct {
		Enabled bool `fig:"enabled"`
		// Allowed values: stdout, otlp
		Exporter    string  `fig:"exporter" default:"stdout"`
		Endpoint    string  `fig:"endpoint" default:"localhost:4317"`
		SampleRatio float64 `fig:"sample_ratio" default:"1"`
		ServiceName string  `fig:"service_name" default:"nominal-track"`
	} `fig:"tracing"`

	Report struct {
		// Summary printed after each run, see DefaultReportTpl
		Template string `fig:"template"`
		Disable  bool   `fig:"disable"`
	} `fig:"report"`
}

func NewFromFile(path, file string) (*Config, error) {
	conf := new(Config)
	_, err := os.Stat(filepath.Join(path, file))
	if err != nil {
		return conf, fmt.Errorf("failed to read Config: %w", err)
	}
	if err = fig.Load(conf, fig.Dirs(path), fig.File(file), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func New() (*Config, error) {
	conf := new(Config)
	if err := fig.Load(conf, fig.AllowNoFile(), fig.UseEnv(configEnv)); err != nil {
		return conf, fmt.Errorf("failed to load Config: %w", err)
	}

	return conf, conf.Validate()
}

func (c *Config) Validate() error {
	switch c.Source.Type {
	case TypeFile:
		if c.Source.File == "" {
			return errors.New("source file must not be empty")
		}
	case TypeMongo:
	default:
		return fmt.Errorf("invalid source type: %s", c.Source.Type)
	}
	switch c.Sink.Type {
	case TypeFile:
		if c.Sink.File == "" {
			return errors.New("sink file must not be empty")
		}
	case TypeMongo:
	case TypeKafka:
		if c.Kafka.Brokers == "" || c.Kafka.Topic == "" {
			return errors.New("kafka sink requires brokers and a topic")
		}
	default:
		return fmt.Errorf("invalid sink type: %s", c.Sink.Type)
	}
	if c.Batch.Lookahead < time.Second {
		return fmt.Errorf("invalid lookahead: %s", c.Batch.Lookahead)
	}
	if c.Batch.MinLengthFactor <= 0 {
		return fmt.Errorf("invalid minimum length factor: %g", c.Batch.MinLengthFactor)
	}
	if c.Batch.MaxFlights < 0 {
		return fmt.Errorf("invalid maximum number of flights: %d", c.Batch.MaxFlights)
	}
	if c.Batch.Workers < 1 {
		return fmt.Errorf("invalid number of workers: %d", c.Batch.Workers)
	}
	if _, err := flight.ParseWindowMode(c.Batch.WindowMode); err != nil {
		return err
	}
	if _, err := nominal.ParseMode(c.Batch.Projection); err != nil {
		return err
	}
	if c.Schedule.Interval < 0 {
		return fmt.Errorf("invalid schedule interval: %s", c.Schedule.Interval)
	}
	if c.Tracing.Exporter != "stdout" && c.Tracing.Exporter != "otlp" {
		return fmt.Errorf("invalid tracing exporter: %s", c.Tracing.Exporter)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("invalid tracing sample ratio: %g", c.Tracing.SampleRatio)
	}
	if c.Report.Template == "" {
		c.Report.Template = DefaultReportTpl
	}

	return nil
}

// MinFlightLength returns the minimum flight length in seconds a flight needs to be
// read from the source.
func (c *Config) MinFlightLength() float64 {
	return c.Batch.Lookahead.Seconds() * c.Batch.MinLengthFactor
}
