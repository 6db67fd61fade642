// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package store provides the sources flights are read from and the sinks processed
// flight windows are written to.
package store

import (
	"context"
	"iter"

	"github.com/wneessen/nominal-track/internal/flight"
)

// Source provides recorded flights.
type Source interface {
	Name() string
	// Flights returns the flights longer than minLength seconds. A decoding error of a
	// single flight is yielded with a zero Document and iteration continues.
	Flights(ctx context.Context, minLength float64) (iter.Seq2[flight.Document, error], error)
	Close(ctx context.Context) error
}

// Sink accepts processed flight windows. Write must be safe for concurrent use.
type Sink interface {
	Name() string
	// Reset removes the output of previous runs, if the sink supports it.
	Reset(ctx context.Context) error
	Write(ctx context.Context, out flight.Output) error
	Close(ctx context.Context) error
}
