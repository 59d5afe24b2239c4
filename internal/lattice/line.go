// Copyright (C) 2023 Daan de Vries
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package lattice

// Antonio's segment-vs-segment test: bounding boxes first, then the
// parametric numerator/denominator sign checks. Parallel segments do
// not intersect.
func segmentsIntersectInt(x1, y1, x2, y2, x3, y3, x4, y4 int) bool {
	ax := x2 - x1
	bx := x3 - x4

	var x1lo, x1hi int
	if ax < 0 {
		x1lo, x1hi = x2, x1
	} else {
		x1lo, x1hi = x1, x2
	}
	if bx > 0 {
		if x1hi < x4 || x3 < x1lo {
			return false
		}
	} else {
		if x1hi < x3 || x4 < x1lo {
			return false
		}
	}

	ay := y2 - y1
	by := y3 - y4

	var y1lo, y1hi int
	if ay < 0 {
		y1lo, y1hi = y2, y1
	} else {
		y1lo, y1hi = y1, y2
	}
	if by > 0 {
		if y1hi < y4 || y3 < y1lo {
			return false
		}
	} else {
		if y1hi < y3 || y4 < y1lo {
			return false
		}
	}

	cx := x1 - x3
	cy := y1 - y3
	d := by*cx - bx*cy // alpha numerator
	f := ay*bx - ax*by // both denominators
	if f > 0 {
		if d < 0 || d > f {
			return false
		}
	} else {
		if d > 0 || d < f {
			return false
		}
	}

	e := ax*cy - ay*cx // beta numerator
	if f > 0 {
		if e < 0 || e > f {
			return false
		}
	} else {
		if e > 0 || e < f {
			return false
		}
	}

	return f != 0
}

// resolution for scaling float coordinates onto the integer grid
const intersectResolution = 1024

// SegmentsIntersect reports whether the segments (x1,y1)-(x2,y2) and
// (x3,y3)-(x4,y4) cross. Float coordinates scale onto a 1024-step
// integer grid spanning their common bounding box.
func SegmentsIntersect(x1, y1, x2, y2, x3, y3, x4, y4 float32) bool {
	minX, maxX := minMax4(x1, x2, x3, x4)
	minY, maxY := minMax4(y1, y2, y3, y4)

	qx := func(v float32) int { return quantize(v, minX, maxX) }
	qy := func(v float32) int { return quantize(v, minY, maxY) }
	return segmentsIntersectInt(
		qx(x1), qy(y1), qx(x2), qy(y2),
		qx(x3), qy(y3), qx(x4), qy(y4))
}

func quantize(v, min, max float32) int {
	if max <= min {
		return 0
	}
	return int((v - min) / (max - min) * intersectResolution)
}

func minMax4(a, b, c, d float32) (min, max float32) {
	min, max = a, a
	for _, v := range []float32{b, c, d} {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return
}
