// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
)

// ProjectPoint returns the destination reached from origin after travelling distance
// meters along the initial bearing (degrees clockwise from true north) on a sphere
// of radius ProjectionEarthRadius. Distances beyond the circumference wrap around and
// the resulting longitude is normalized to (-180, 180].
func ProjectPoint(origin Point, bearing, distance float64) Point {
	if distance == 0 {
		return origin
	}

	theta := toRadians(bearing)
	delta := distance / ProjectionEarthRadius
	lat1 := toRadians(origin.Lat)
	lon1 := toRadians(origin.Lon)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) + math.Cos(lat1)*math.Sin(delta)*math.Cos(theta))

	y := math.Sin(theta) * math.Sin(delta) * math.Cos(lat1)
	x := math.Cos(delta) - math.Sin(lat1)*math.Sin(lat2)
	lon2 := lon1 + math.Atan2(y, x)

	return Point{Lat: toDegrees(lat2), Lon: Normalize180(toDegrees(lon2))}
}
