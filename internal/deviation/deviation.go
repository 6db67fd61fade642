// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package deviation measures how far an aircraft deviates from its nominal
// constant-heading, constant-speed path and decomposes the deviation into
// cross-track, along-track and total-track error.
package deviation

import (
	"errors"
	"fmt"
	"math"

	"github.com/wneessen/nominal-track/internal/geo"
	"github.com/wneessen/nominal-track/internal/track"
)

// KnotsToMetersPerSecond converts a speed in knots to meters per second.
//
// The exported reference data used 0.51444 for the track errors and 0.514444 for the
// plot projections. Both use 0.514444 here, which moves the nominal position about
// 1 m further per 115 km flown than in the reference data.
const KnotsToMetersPerSecond = 0.514444

// ErrInvalidCoordinate is returned when a waypoint or position is not a valid coordinate.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Reference is the waypoint the nominal path starts from.
type Reference struct {
	Waypoint geo.Point
	// Speed in knots.
	Speed float64
	// Heading in degrees clockwise from true north.
	Heading float64
	// Timestamp in seconds.
	Timestamp float64
}

// Option configures CalcTrackErrors.
type Option func(*options)

type options struct {
	secondWaypoint *geo.Point
	wrapBearings   bool
}

// WithSecondWaypoint replaces the reference heading with the bearing from the reference
// waypoint to p.
//
// The tool this engine replaces had the same switch but never executed it
// successfully, so there is no reference output for this path.
func WithSecondWaypoint(p geo.Point) Option {
	return func(o *options) {
		o.secondWaypoint = &p
	}
}

// WithWrappedBearings normalizes the bearing difference that decides the side of the
// cross-track error to (-180, 180] before taking its sign. Without it the raw
// difference of the two bearings is used, which flips the sign for tracks where one
// bearing is just below 180 and the other just above -180, e.g. southbound tracks.
func WithWrappedBearings() Option {
	return func(o *options) {
		o.wrapBearings = true
	}
}

// CalcTrackErrors projects the nominal position for timestamp at from the reference
// and returns the deviation of the actual position from it.
func CalcTrackErrors(ref Reference, actual geo.Point, at float64, opts ...Option) (track.Errors, error) {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}
	if !ref.Waypoint.Valid() {
		return track.Errors{}, fmt.Errorf("reference waypoint %+v: %w", ref.Waypoint, ErrInvalidCoordinate)
	}
	if !actual.Valid() {
		return track.Errors{}, fmt.Errorf("actual position %+v: %w", actual, ErrInvalidCoordinate)
	}

	heading := ref.Heading
	if o.secondWaypoint != nil {
		if !o.secondWaypoint.Valid() {
			return track.Errors{}, fmt.Errorf("second waypoint %+v: %w", *o.secondWaypoint, ErrInvalidCoordinate)
		}
		heading = geo.SignedBearing(ref.Waypoint, *o.secondWaypoint)
	}

	elapsed := at - ref.Timestamp
	projectedDistance := elapsed * ref.Speed * KnotsToMetersPerSecond
	projected := geo.ProjectPoint(ref.Waypoint, heading, projectedDistance)

	distRefActual := geo.PlanarApproxDistance(ref.Waypoint.LonLat(), actual.LonLat())
	distRefProjected := geo.PlanarApproxDistance(ref.Waypoint.LonLat(), projected.LonLat())
	distActualProjected := geo.PlanarApproxDistance(actual.LonLat(), projected.LonLat())

	bearingProjected := geo.SignedBearing(ref.Waypoint, projected)
	bearingActual := geo.SignedBearing(ref.Waypoint, actual)

	corner := cornerAngle(distRefActual, distRefProjected, distActualProjected)
	// Positions right of the nominal path have a negative cross-track error.
	side := bearingProjected - bearingActual
	if o.wrapBearings {
		side = geo.Normalize180(side)
	}
	if side < 0 {
		corner = -corner
	}

	cte := math.Sin(corner) * distRefActual
	tte := distActualProjected
	ate := math.Sqrt(math.Max(tte*tte-cte*cte, 0))
	if distRefActual < projectedDistance {
		ate = -ate
	}

	return track.Errors{
		CrossTrack:        cte,
		AlongTrack:        ate,
		TotalTrack:        tte,
		ProjectedDistance: projectedDistance,
	}, nil
}

// cornerAngle returns the angle at the reference waypoint between the actual and the
// projected position. A zero-length side leaves no angle to measure and yields 0.
// Cosines pushed past ±1 by rounding are clamped; NaN inputs still propagate.
func cornerAngle(distRefActual, distRefProjected, distActualProjected float64) float64 {
	if distRefActual == 0 || distRefProjected == 0 {
		return 0
	}
	angle := geo.TriangleCorner(distRefActual, distRefProjected, distActualProjected)
	if !math.IsNaN(angle) {
		return angle
	}
	cos := geo.TriangleCornerCosine(distRefActual, distRefProjected, distActualProjected)
	switch {
	case cos > 1:
		return 0
	case cos < -1:
		return math.Pi
	}
	return angle
}
