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

// Package colorconv decomposes 8-bit RGB rasters into CIE Lab planes.
// The sRGB-to-XYZ matrix, the 255 reference white and the Lab knee are
// part of the pipeline's numerical contract and are kept verbatim.
package colorconv

import (
	"math"

	"github.com/dvries/texhist/internal/img"
)

// Gamma the input is assumed to have been corrected with.
const DefaultGamma = 2.2

// Point considered white in RGB space.
const rgbWhitePt = 255.0

// sRGB to XYZ
const (
	xyz00, xyz01, xyz02 = 0.4124, 0.3576, 0.1805
	xyz10, xyz11, xyz12 = 0.2126, 0.7152, 0.0722
	xyz20, xyz21, xyz22 = 0.0193, 0.1192, 0.9505
)

// The nonlinear CIE-XYZ to Lab function.
func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Pow(t, 1.0/3.0)
	}
	return 7.787*t + 16.0/116.0
}

// RGBToLab converts interleaved 8-bit RGB into planar L, a, b float
// images of the same size. gamma <= 0 disables the inverse gamma
// correction for linear input.
func RGBToLab(rgb []uint8, width, height int, gamma float64) (l, a, b *img.Image[float32]) {
	if len(rgb) != width*height*3 {
		panic("colorconv: RGB buffer does not match dimensions")
	}
	xnRecip := 1.0 / (xyz00*rgbWhitePt + xyz01*rgbWhitePt + xyz02*rgbWhitePt)
	ynRecip := 1.0 / (xyz10*rgbWhitePt + xyz11*rgbWhitePt + xyz12*rgbWhitePt)
	znRecip := 1.0 / (xyz20*rgbWhitePt + xyz21*rgbWhitePt + xyz22*rgbWhitePt)

	l = img.New[float32](width, height)
	a = img.New[float32](width, height)
	b = img.New[float32](width, height)

	for p := 0; p < width*height; p++ {
		fr := degamma(float64(rgb[3*p]), gamma)
		fg := degamma(float64(rgb[3*p+1]), gamma)
		fb := degamma(float64(rgb[3*p+2]), gamma)

		x := xyz00*fr + xyz01*fg + xyz02*fb
		y := xyz10*fr + xyz11*fg + xyz12*fb
		z := xyz20*fr + xyz21*fg + xyz22*fb

		fx := labF(x * xnRecip)
		fy := labF(y * ynRecip)
		fz := labF(z * znRecip)

		l.Data[p] = float32(116.0*fy - 16.0)
		a.Data[p] = float32(500.0 * (fx - fy))
		b.Data[p] = float32(200.0 * (fy - fz))
	}
	return l, a, b
}

// RGBToL converts interleaved 8-bit RGB into the Lab L plane only.
func RGBToL(rgb []uint8, width, height int, gamma float64) *img.Image[float32] {
	if len(rgb) != width*height*3 {
		panic("colorconv: RGB buffer does not match dimensions")
	}
	ynRecip := 1.0 / (xyz10*rgbWhitePt + xyz11*rgbWhitePt + xyz12*rgbWhitePt)
	l := img.New[float32](width, height)
	for p := 0; p < width*height; p++ {
		fr := degamma(float64(rgb[3*p]), gamma)
		fg := degamma(float64(rgb[3*p+1]), gamma)
		fb := degamma(float64(rgb[3*p+2]), gamma)
		y := xyz10*fr + xyz11*fg + xyz12*fb
		l.Data[p] = float32(116.0*labF(y*ynRecip) - 16.0)
	}
	return l
}

// reverse gamma correction, [0,255] in, [0,255] out
func degamma(v, gamma float64) float64 {
	if gamma <= 0 {
		return v
	}
	return math.Pow(v/255.0, gamma) * 255.0
}

// IsGrayscale reports whether every pixel of the interleaved RGB buffer
// has equal channels.
func IsGrayscale(rgb []uint8) bool {
	for p := 0; p+2 < len(rgb); p += 3 {
		if rgb[p] != rgb[p+1] || rgb[p+1] != rgb[p+2] {
			return false
		}
	}
	return true
}
