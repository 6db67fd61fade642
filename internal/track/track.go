// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package track holds the flight track data model shared by the deviation engine,
// the nominal projector and the batch driver.
package track

import (
	"math"

	"github.com/wneessen/nominal-track/internal/geo"
	"github.com/wneessen/nominal-track/internal/vartype"
)

// Sample is a single observation of an aircraft.
type Sample struct {
	Lat float64
	Lon float64
	// Heading in degrees clockwise from true north, may be missing.
	Heading vartype.VarFloat64
	// Speed is the ground speed in knots.
	Speed float64
	// Timestamp in seconds.
	Timestamp float64
	// Altitude in feet.
	Altitude float64
	// Elapsed is the number of seconds since the start of the flight.
	Elapsed float64
}

// Position returns the coordinate of the sample.
func (s Sample) Position() geo.Point {
	return geo.Point{Lat: s.Lat, Lon: s.Lon}
}

// HasHeading reports whether the sample carries a usable heading. A heading stored
// as NaN counts as missing.
func (s Sample) HasHeading() bool {
	return s.Heading.IsSet() && !math.IsNaN(s.Heading.Value())
}

// Segment is a contiguous, timestamp-ordered window of a flight.
type Segment []Sample

// TrimToHeading returns the segment starting at the first sample with a defined
// heading. The result is empty if no sample has a heading.
func (s Segment) TrimToHeading() Segment {
	for i, sample := range s {
		if sample.HasHeading() {
			return s[i:]
		}
	}
	return s[len(s):]
}

// Errors holds the deviation of an actual position from the nominal path, in meters.
type Errors struct {
	// CrossTrack is the signed perpendicular distance to the nominal path,
	// negative when the aircraft is right of track.
	CrossTrack float64
	// AlongTrack is the signed distance along the nominal path, negative when
	// the aircraft is behind the nominal position.
	AlongTrack float64
	// TotalTrack is the distance between the actual and the nominal position.
	TotalTrack float64
	// ProjectedDistance is the distance flown along the nominal path.
	ProjectedDistance float64
}

// Record is a sample augmented with its track errors.
type Record struct {
	Sample
	Errors

	// TimeProjected is the elapsed time relative to the start of the segment.
	TimeProjected float64
}
