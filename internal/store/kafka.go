// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"

	"github.com/wneessen/nominal-track/internal/flight"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes processed flight windows as JSON messages keyed by flight id,
// so that all windows of a flight land on the same partition.
type KafkaSink struct {
	topic  string
	writer messageWriter
}

// NewKafkaSink returns a KafkaSink writing to topic on the given brokers.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		topic: topic,
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: true,
		},
	}
}

// Name returns the name of the sink.
func (k *KafkaSink) Name() string {
	return "kafka:" + k.topic
}

// Reset is a no-op, published messages can't be retracted.
func (k *KafkaSink) Reset(context.Context) error {
	return nil
}

// Write publishes out.
func (k *KafkaSink) Write(ctx context.Context, out flight.Output) error {
	value, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode segment %s: %w", out.SegmentID, err)
	}
	msg := kafka.Message{
		Key:   []byte(out.FlightID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "segment_id", Value: []byte(out.SegmentID)},
		},
	}
	if err = k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish segment %s: %w", out.SegmentID, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (k *KafkaSink) Close(context.Context) error {
	return k.writer.Close()
}

// SplitBrokers splits a comma separated broker list.
func SplitBrokers(list string) []string {
	var brokers []string
	for _, broker := range strings.Split(list, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}
