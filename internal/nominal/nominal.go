// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package nominal forward-projects a track from an anchor sample at constant heading and
// speed. The projections are meant to be plotted against the actual track; the deviation
// engine does not use them.
package nominal

import (
	"errors"
	"fmt"
	"math"

	"github.com/wneessen/nominal-track/internal/deviation"
	"github.com/wneessen/nominal-track/internal/geo"
	"github.com/wneessen/nominal-track/internal/track"
)

const (
	// DefaultLookahead is the projection window after the anchor in seconds.
	DefaultLookahead = 600.0
	// DefaultAnchor is the anchor index of Project.
	DefaultAnchor = 2
	// DefaultAveragedAnchor is the anchor index of ProjectAveraged, which is also the number
	// of leading samples heading and speed are averaged over.
	DefaultAveragedAnchor = 5
)

var (
	// ErrSegmentTooShort is returned when the segment has no sample at the anchor index.
	ErrSegmentTooShort = errors.New("segment too short for anchor")
	// ErrNoHeading is returned when no heading is available to project along.
	ErrNoHeading = errors.New("no heading available")
)

// Projection is the projected nominal position of a sample. Valid is false for samples
// outside the projection window.
type Projection struct {
	geo.Point
	Valid bool
}

// Option configures a projector.
type Option func(*config)

type config struct {
	lookahead float64
	anchor    int
	circular  bool
}

// WithLookahead sets the projection window after the anchor in seconds.
func WithLookahead(seconds float64) Option {
	return func(c *config) {
		c.lookahead = seconds
	}
}

// WithAnchor sets the index of the anchor sample.
func WithAnchor(index int) Option {
	return func(c *config) {
		if index >= 0 {
			c.anchor = index
		}
	}
}

// WithCircularMean makes ProjectAveraged average headings as unit vectors, so that
// headings around north average to north instead of south. Without it headings are
// averaged arithmetically, which matches the exported reference projections.
func WithCircularMean() Option {
	return func(c *config) {
		c.circular = true
	}
}

func newConfig(anchor int, opts []Option) *config {
	c := &config{lookahead: DefaultLookahead, anchor: anchor}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Project projects every sample after the anchor from the anchor's own position,
// heading and speed. The anchor and the samples leading up to it have no projection.
// A segment whose anchor has no heading has no projections at all.
func Project(seg track.Segment, opts ...Option) []Projection {
	c := newConfig(DefaultAnchor, opts)
	out := make([]Projection, len(seg))
	if c.anchor >= len(seg) || !seg[c.anchor].HasHeading() {
		return out
	}

	anchor := seg[c.anchor]
	c.fill(out, seg, c.anchor+1, anchor.Position(), anchor.Heading.Value(), anchor.Speed, anchor.Timestamp)
	return out
}

// ProjectAveraged projects the samples from the anchor on, starting at the anchor's
// position but using heading and speed averaged over the samples before the anchor.
// Samples without a heading are left out of the average.
func ProjectAveraged(seg track.Segment, opts ...Option) ([]Projection, error) {
	c := newConfig(DefaultAveragedAnchor, opts)
	if c.anchor >= len(seg) {
		return nil, fmt.Errorf("anchor %d with %d samples: %w", c.anchor, len(seg), ErrSegmentTooShort)
	}

	var sum, sin, cos, speed float64
	headings := 0
	for _, sample := range seg[:c.anchor] {
		speed += sample.Speed
		if !sample.HasHeading() {
			continue
		}
		sum += sample.Heading.Value()
		rad := sample.Heading.Value() * math.Pi / 180
		sin += math.Sin(rad)
		cos += math.Cos(rad)
		headings++
	}
	if headings == 0 {
		return nil, fmt.Errorf("averaging samples before anchor %d: %w", c.anchor, ErrNoHeading)
	}
	heading := sum / float64(headings)
	if c.circular {
		heading = geo.Normalize360(math.Atan2(sin, cos) * 180 / math.Pi)
	}
	avgSpeed := speed / float64(c.anchor)

	anchor := seg[c.anchor]
	out := make([]Projection, len(seg))
	c.fill(out, seg, c.anchor, anchor.Position(), heading, avgSpeed, anchor.Timestamp)
	return out, nil
}

func (c *config) fill(out []Projection, seg track.Segment, from int, origin geo.Point, heading, speed,
	start float64,
) {
	for i := from; i < len(seg); i++ {
		elapsed := seg[i].Timestamp - start
		if elapsed >= c.lookahead {
			continue
		}
		dist := elapsed * speed * deviation.KnotsToMetersPerSecond
		out[i] = Projection{Point: geo.ProjectPoint(origin, heading, dist), Valid: true}
	}
}

// Mode selects the projector used for the plot columns of a processed window.
type Mode string

const (
	// ModeNone adds no projection.
	ModeNone Mode = "none"
	// ModeAnchor projects with Project.
	ModeAnchor Mode = "anchor"
	// ModeAveraged projects with ProjectAveraged.
	ModeAveraged Mode = "averaged"
)

// ParseMode returns the Mode for s.
func ParseMode(s string) (Mode, error) {
	switch mode := Mode(s); mode {
	case ModeNone, ModeAnchor, ModeAveraged:
		return mode, nil
	}
	return "", fmt.Errorf("invalid projection mode: %s", s)
}

// ProjectMode projects seg with the projector selected by mode. ModeNone returns nil.
func ProjectMode(mode Mode, seg track.Segment, opts ...Option) ([]Projection, error) {
	switch mode {
	case ModeNone:
		return nil, nil
	case ModeAnchor:
		return Project(seg, opts...), nil
	case ModeAveraged:
		return ProjectAveraged(seg, opts...)
	}
	return nil, fmt.Errorf("invalid projection mode: %s", mode)
}
