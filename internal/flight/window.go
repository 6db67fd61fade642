// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package flight

import (
	"fmt"
	"math"

	"github.com/wneessen/nominal-track/internal/track"
)

// WindowMode selects how a flight is cut into windows.
type WindowMode string

const (
	// WindowFixed cuts the flight into consecutive windows of the window duration.
	WindowFixed WindowMode = "fixed"
	// WindowTail starts a window every window duration and runs each to the end of
	// the flight. Window i holds the samples with an elapsed time above i times the
	// window duration, so consecutive windows overlap.
	WindowTail WindowMode = "tail"
)

// ParseWindowMode returns the WindowMode for s.
func ParseWindowMode(s string) (WindowMode, error) {
	switch mode := WindowMode(s); mode {
	case WindowFixed, WindowTail:
		return mode, nil
	}
	return "", fmt.Errorf("invalid window mode: %s", s)
}

// AboveAltitude returns the samples recorded above the given altitude.
func AboveAltitude(seg track.Segment, altitude float64) track.Segment {
	out := make(track.Segment, 0, len(seg))
	for _, sample := range seg {
		if sample.Altitude > altitude {
			out = append(out, sample)
		}
	}
	return out
}

// WithElapsed returns a copy of the segment with the elapsed time of every sample set
// relative to the earliest timestamp, and the largest elapsed time.
func WithElapsed(seg track.Segment) (track.Segment, float64) {
	if len(seg) == 0 {
		return seg, 0
	}
	start := math.Inf(1)
	for _, sample := range seg {
		start = math.Min(start, sample.Timestamp)
	}

	out := make(track.Segment, len(seg))
	maxElapsed := 0.0
	for i, sample := range seg {
		sample.Elapsed = sample.Timestamp - start
		maxElapsed = math.Max(maxElapsed, sample.Elapsed)
		out[i] = sample
	}
	return out, maxElapsed
}

// Windows cuts a segment with elapsed times into windows of the given duration in
// seconds. A flight yields one window per full duration it covers; the remainder after
// the last full window is dropped in WindowFixed mode.
func Windows(seg track.Segment, maxElapsed, duration float64, mode WindowMode) []track.Segment {
	if duration <= 0 {
		return nil
	}
	steps := int(maxElapsed / duration)
	windows := make([]track.Segment, 0, steps)
	for i := range steps {
		lower := float64(i) * duration
		upper := lower + duration
		window := make(track.Segment, 0)
		for _, sample := range seg {
			switch mode {
			case WindowTail:
				if sample.Elapsed > lower {
					window = append(window, sample)
				}
			default:
				if sample.Elapsed >= lower && sample.Elapsed < upper {
					window = append(window, sample)
				}
			}
		}
		windows = append(windows, window)
	}
	return windows
}
