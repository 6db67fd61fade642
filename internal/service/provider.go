// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/nominal-track/internal/config"
	"github.com/wneessen/nominal-track/internal/logger"
	"github.com/wneessen/nominal-track/internal/store"
)

const storeCloseTimeout = 10 * time.Second

// openStores opens the configured source and sink. Source and sink share a single
// MongoDB connection when both use MongoDB.
func (s *Service) openStores(ctx context.Context) error {
	var mongo *store.MongoStore
	connectMongo := func() (*store.MongoStore, error) {
		if mongo != nil {
			return mongo, nil
		}
		var err error
		mongo, err = store.NewMongoStore(ctx, s.config.Mongo.URI, s.config.Mongo.Database,
			s.config.Mongo.Flights, s.config.Mongo.Projections)
		return mongo, err
	}

	switch strings.ToLower(s.config.Source.Type) {
	case config.TypeFile:
		s.source = store.NewFileSource(s.config.Source.File)
	case config.TypeMongo:
		source, err := connectMongo()
		if err != nil {
			return fmt.Errorf("failed to create source: %w", err)
		}
		s.source = source
	default:
		return fmt.Errorf("failed to create source: unsupported source type: %s", s.config.Source.Type)
	}

	switch strings.ToLower(s.config.Sink.Type) {
	case config.TypeFile:
		sink, err := store.NewFileSink(s.config.Sink.File)
		if err != nil {
			s.closeStores()
			return fmt.Errorf("failed to create sink: %w", err)
		}
		s.sink = sink
	case config.TypeMongo:
		sink, err := connectMongo()
		if err != nil {
			s.closeStores()
			return fmt.Errorf("failed to create sink: %w", err)
		}
		s.sink = sink
	case config.TypeKafka:
		s.sink = store.NewKafkaSink(store.SplitBrokers(s.config.Kafka.Brokers), s.config.Kafka.Topic)
	default:
		s.closeStores()
		return fmt.Errorf("failed to create sink: unsupported sink type: %s", s.config.Sink.Type)
	}

	s.logger.Debug("stores opened", slog.String("source", s.source.Name()), slog.String("sink", s.sink.Name()))
	return nil
}

func (s *Service) closeStores() {
	ctx, cancel := context.WithTimeout(context.Background(), storeCloseTimeout)
	defer cancel()

	if s.sink != nil {
		if err := s.sink.Close(ctx); err != nil {
			s.logger.Error("failed to close sink", slog.String("sink", s.sink.Name()), logger.Err(err))
		}
	}
	if s.source != nil {
		if err := s.source.Close(ctx); err != nil {
			s.logger.Error("failed to close source", slog.String("source", s.source.Name()), logger.Err(err))
		}
	}
}
