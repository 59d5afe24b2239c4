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

package img

import (
	"math"
)

// Sentinel for log of a non-positive value.
const LogSentinel = float32(-1e30)

// Mean of the ROI pixels.
func Mean(im *Image[float32]) float32 {
	sum := float64(0)
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			sum += float64(im.Data[off+x])
		}
	}
	return float32(sum / float64(im.ROISize()))
}

// Mean and standard deviation of the ROI pixels.
func MeanStdDev(im *Image[float32]) (mean, stdDev float32) {
	sum, sumSq := float64(0), float64(0)
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			v := float64(im.Data[off+x])
			sum += v
			sumSq += v * v
		}
	}
	n := float64(im.ROISize())
	mu := sum / n
	return float32(mu), float32(math.Sqrt(sumSq/n - mu*mu))
}

// Sum of absolute pixel values over the ROI.
func SumAbs(im *Image[float32]) float32 {
	sum := float64(0)
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			sum += math.Abs(float64(im.Data[off+x]))
		}
	}
	return float32(sum)
}

// L2 norm of the ROI pixels.
func L2Norm(im *Image[float32]) float32 {
	sum := float64(0)
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			v := float64(im.Data[off+x])
			sum += v * v
		}
	}
	return float32(math.Sqrt(sum))
}

func apply(im *Image[float32], f func(float32) float32) {
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			im.Data[off+x] = f(im.Data[off+x])
		}
	}
}

func applyBinary(im, other *Image[float32], f func(a, b float32) float32) {
	if im.ROIWidth() != other.ROIWidth() || im.ROIHeight() != other.ROIHeight() {
		panic("img: ROI size mismatch in binary op")
	}
	for y := 0; y < im.ROIHeight(); y++ {
		off := (im.StartY+y)*im.Width + im.StartX
		ooff := (other.StartY+y)*other.Width + other.StartX
		for x := 0; x < im.ROIWidth(); x++ {
			im.Data[off+x] = f(im.Data[off+x], other.Data[ooff+x])
		}
	}
}

func AddScalar(im *Image[float32], s float32) { apply(im, func(v float32) float32 { return v + s }) }
func SubScalar(im *Image[float32], s float32) { apply(im, func(v float32) float32 { return v - s }) }
func MulScalar(im *Image[float32], s float32) { apply(im, func(v float32) float32 { return v * s }) }

func DivScalar(im *Image[float32], s float32) {
	if s == 0 {
		panic("img: division by zero scalar")
	}
	MulScalar(im, 1/s)
}

func Add(im, other *Image[float32]) { applyBinary(im, other, func(a, b float32) float32 { return a + b }) }
func Sub(im, other *Image[float32]) { applyBinary(im, other, func(a, b float32) float32 { return a - b }) }
func Mul(im, other *Image[float32]) { applyBinary(im, other, func(a, b float32) float32 { return a * b }) }

func Div(im, other *Image[float32]) {
	applyBinary(im, other, func(a, b float32) float32 { return a / b })
}

func Negate(im *Image[float32]) { MulScalar(im, -1) }
func Square(im *Image[float32]) { apply(im, func(v float32) float32 { return v * v }) }

func Sqrt(im *Image[float32]) {
	apply(im, func(v float32) float32 { return float32(math.Sqrt(float64(v))) })
}

// Log(x+z) with non-positive arguments mapped to a large negative sentinel.
func LogZ(im *Image[float32], z float32) {
	apply(im, func(v float32) float32 {
		if v+z <= 0 {
			return LogSentinel
		}
		return float32(math.Log(float64(v + z)))
	})
}

// Binary union: 1 where either pixel is non-zero.
func HardOr(im, other *Image[float32]) {
	applyBinary(im, other, func(a, b float32) float32 {
		if a != 0 || b != 0 {
			return 1
		}
		return 0
	})
}

// Binary intersection: 1 where both pixels are non-zero.
func HardAnd(im, other *Image[float32]) {
	applyBinary(im, other, func(a, b float32) float32 {
		if a != 0 && b != 0 {
			return 1
		}
		return 0
	})
}

// Pixelwise maximum.
func SoftOr(im, other *Image[float32]) {
	applyBinary(im, other, func(a, b float32) float32 {
		if b > a {
			return b
		}
		return a
	})
}

// Pixelwise minimum.
func SoftAnd(im, other *Image[float32]) {
	applyBinary(im, other, func(a, b float32) float32 {
		if b < a {
			return b
		}
		return a
	})
}

// Linear rescale of the ROI onto [newMin, newMax]. A constant image maps
// to the midpoint of the requested range.
func ChangeRange(im *Image[float32], newMin, newMax float32) {
	oldMin, oldMax := im.MinMax()
	oldRange := oldMax - oldMin
	if oldRange == 0 { // one-valued image
		im.SetROIVal((newMin + newMax) / 2)
		return
	}
	factor := (newMax - newMin) / oldRange
	apply(im, func(v float32) float32 { return (v-oldMin)*factor + newMin })
}

// Shift and scale the ROI to zero mean and unit variance. A constant
// image becomes all zero.
func NormalizeUnitVariance(im *Image[float32]) {
	mean, stdDev := MeanStdDev(im)
	if stdDev == 0 {
		im.SetROIVal(0)
		return
	}
	apply(im, func(v float32) float32 { return (v - mean) / stdDev })
}

// Bring an angle into [0,pi) (half phase) or [0,2pi).
func FixThetaRange(theta float32, halfPhase bool) float32 {
	period := float32(2 * math.Pi)
	if halfPhase {
		period = math.Pi
	}
	for theta < 0 {
		theta += period
	}
	for theta >= period {
		theta -= period
	}
	return theta
}

// Bring every ROI pixel into [0,pi) (half phase) or [0,2pi).
func FixThetaRanges(im *Image[float32], halfPhase bool) {
	apply(im, func(v float32) float32 { return FixThetaRange(v, halfPhase) })
}
