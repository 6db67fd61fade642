// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
)

// SignedBearing returns the initial great-circle bearing from a to b in degrees,
// in the range (-180, 180]. If either coordinate is invalid, NaN is returned.
func SignedBearing(a, b Point) float64 {
	if !a.Valid() || !b.Valid() {
		return math.NaN()
	}

	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	y := math.Sin(dLon) * math.Cos(lat2)
	bearing := toDegrees(math.Atan2(y, x))
	if bearing == -180 {
		return 180
	}
	return bearing
}

// CompassBearing returns the initial great-circle bearing from a to b in degrees,
// in the range [0, 360). If either coordinate is invalid, NaN is returned.
func CompassBearing(a, b Point) float64 {
	return Normalize360(SignedBearing(a, b))
}

// Normalize360 maps an angle in degrees onto [0, 360).
func Normalize360(deg float64) float64 {
	n := math.Mod(deg+360, 360)
	if n < 0 {
		n += 360
	}
	if n == 360 {
		return 0
	}
	return n
}

// Normalize180 maps an angle in degrees onto (-180, 180].
func Normalize180(deg float64) float64 {
	n := Normalize360(deg)
	if n > 180 {
		return n - 360
	}
	return n
}
