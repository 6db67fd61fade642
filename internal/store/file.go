// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package store

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"sync"

	"github.com/wneessen/nominal-track/internal/flight"
)

// FileSource reads flights from a file of concatenated JSON documents, usually one per line.
type FileSource struct {
	path string
}

// NewFileSource returns a FileSource reading from path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name returns the name of the source.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Flights streams the flights of the file that are longer than minLength.
func (s *FileSource) Flights(ctx context.Context, minLength float64) (iter.Seq2[flight.Document, error], error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, fmt.Errorf("failed to read flight file: %w", err)
	}

	return func(yield func(flight.Document, error) bool) {
		file, err := os.Open(s.path)
		if err != nil {
			yield(flight.Document{}, fmt.Errorf("failed to open flight file: %w", err))
			return
		}
		defer func() { _ = file.Close() }()

		decoder := json.NewDecoder(bufio.NewReader(file))
		for {
			if err = ctx.Err(); err != nil {
				yield(flight.Document{}, err)
				return
			}
			var doc flight.Document
			err = decoder.Decode(&doc)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				// The decoder can't resync after a syntax error, so the stream ends here.
				yield(flight.Document{}, fmt.Errorf("failed to decode flight: %w", err))
				return
			}
			if doc.FlightLength <= minLength {
				continue
			}
			if !yield(doc, nil) {
				return
			}
		}
	}, nil
}

// Close is a no-op, the file is only held open while iterating.
func (s *FileSource) Close(context.Context) error {
	return nil
}

// FileSink writes processed flight windows as JSON lines.
type FileSink struct {
	path string

	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
}

// NewFileSink opens path for appending, creating it if necessary.
func NewFileSink(path string) (*FileSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file: %w", err)
	}
	return &FileSink{path: path, file: file, encoder: json.NewEncoder(file)}, nil
}

// Name returns the name of the sink.
func (s *FileSink) Name() string {
	return "file:" + s.path
}

// Reset truncates the output file.
func (s *FileSink) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate output file: %w", err)
	}
	return nil
}

// Write appends out as a single JSON line.
func (s *FileSink) Write(_ context.Context, out flight.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to write segment %s: %w", out.SegmentID, err)
	}
	return nil
}

// Close closes the output file.
func (s *FileSink) Close(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
