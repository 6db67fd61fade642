// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"fmt"
	"iter"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/wneessen/nominal-track/internal/flight"
)

// MongoStore reads flights from and writes processed windows to MongoDB collections.
// It can serve as both Source and Sink of a run.
type MongoStore struct {
	client      *mongo.Client
	flights     *mongo.Collection
	projections *mongo.Collection

	closeOnce sync.Once
	closeErr  error
}

// NewMongoStore connects to the MongoDB deployment at uri.
func NewMongoStore(ctx context.Context, uri, database, flights, projections string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	return &MongoStore{
		client:      client,
		flights:     db.Collection(flights),
		projections: db.Collection(projections),
	}, nil
}

// Name returns the name of the store.
func (m *MongoStore) Name() string {
	return "mongo:" + m.flights.Database().Name()
}

// Flights streams the flights with a flight_length above minLength.
func (m *MongoStore) Flights(ctx context.Context, minLength float64) (iter.Seq2[flight.Document, error], error) {
	cursor, err := m.flights.Find(ctx, bson.M{"flight_length": bson.M{"$gt": minLength}})
	if err != nil {
		return nil, fmt.Errorf("failed to query flights: %w", err)
	}

	return func(yield func(flight.Document, error) bool) {
		defer func() { _ = cursor.Close(ctx) }()
		for cursor.Next(ctx) {
			var doc flight.Document
			if err := cursor.Decode(&doc); err != nil {
				if !yield(flight.Document{}, fmt.Errorf("failed to decode flight: %w", err)) {
					return
				}
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(flight.Document{}, fmt.Errorf("failed to iterate flights: %w", err))
		}
	}, nil
}

// Reset deletes all previously projected flights.
func (m *MongoStore) Reset(ctx context.Context) error {
	if _, err := m.projections.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to delete projected flights: %w", err)
	}
	return nil
}

// Write inserts a processed flight window.
func (m *MongoStore) Write(ctx context.Context, out flight.Output) error {
	if _, err := m.projections.InsertOne(ctx, out); err != nil {
		return fmt.Errorf("failed to insert segment %s: %w", out.SegmentID, err)
	}
	return nil
}

// Close disconnects from MongoDB. Subsequent calls return the result of the first.
func (m *MongoStore) Close(ctx context.Context) error {
	m.closeOnce.Do(func() {
		m.closeErr = m.client.Disconnect(ctx)
	})
	return m.closeErr
}
