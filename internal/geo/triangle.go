// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package geo

import (
	"math"
)

// TriangleCorner returns the angle in radians opposite the side d2 of a planar
// triangle with the side lengths d0, d1 and d2, using the law of cosines.
//
// The result is NaN if the cosine falls outside [-1, 1], which happens for
// impossible side lengths, for a zero-length d0 or d1, and for valid but nearly
// flat triangles that suffer from floating point rounding.
func TriangleCorner(d0, d1, d2 float64) float64 {
	return math.Acos(TriangleCornerCosine(d0, d1, d2))
}

// TriangleCornerCosine returns the cosine of the angle opposite d2, unclamped.
func TriangleCornerCosine(d0, d1, d2 float64) float64 {
	return (d0*d0 + d1*d1 - d2*d2) / (2 * d0 * d1)
}
