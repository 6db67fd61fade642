// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
)

// GreatCircleDistance returns the haversine distance in meters between a and b.
func GreatCircleDistance(a, b Point) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return DistanceEarthRadius * c
}

// PlanarApproxDistance returns the equirectangular approximation of the distance in
// meters between a and b. The longitude delta is scaled by the cosine of the mean
// latitude and both deltas are treated as Cartesian. The error grows quickly with
// distance, so it is only meant for points a few tens of kilometers apart.
func PlanarApproxDistance(a, b LonLat) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	x := toRadians(b.Lon-a.Lon) * math.Cos((lat1+lat2)/2)
	y := lat2 - lat1

	return math.Sqrt(x*x+y*y) * DistanceEarthRadius
}
