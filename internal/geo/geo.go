// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package geo implements the spherical-Earth geometry used to measure how far an
// aircraft deviates from its nominal track: point projection along a bearing,
// great-circle and short-range planar distances, initial bearings and the planar
// triangle corner solver.
package geo

import (
	"math"
)

const (
	// ProjectionEarthRadius is the radius used by ProjectPoint (meters).
	ProjectionEarthRadius = 6378100.0
	// DistanceEarthRadius is the radius used by the distance functions (meters).
	//
	// It intentionally differs from ProjectionEarthRadius. Unifying the two shifts
	// every projected point by roughly 0.1% of its projected distance relative to
	// the measured distances, which changes all computed track errors.
	DistanceEarthRadius = 6371100.0
)

// Point represents a geographic coordinate in decimal degrees, latitude first.
type Point struct {
	Lat float64
	Lon float64
}

// LonLat represents a geographic coordinate in decimal degrees, longitude first.
// It is the parameter type of PlanarApproxDistance.
type LonLat struct {
	Lon float64
	Lat float64
}

// LonLat returns the coordinate in longitude-first order.
func (p Point) LonLat() LonLat {
	return LonLat{Lon: p.Lon, Lat: p.Lat}
}

// Valid checks if the coordinate is finite and within the EPSG:4326 bounds.
func (p Point) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// Point returns the coordinate in latitude-first order.
func (l LonLat) Point() Point {
	return Point{Lat: l.Lat, Lon: l.Lon}
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}
