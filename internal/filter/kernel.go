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

package filter

import (
	"fmt"
	"math"

	"github.com/dvries/texhist/internal/img"
)

// Kernel side length as a multiple of the largest sigma, before oddify.
const KernelSideFactor = 4.2426

// Ratio between the rotation scratch grid and the kernel side.
const rotateGrowFactor = 1.5

// An odd-side square convolution kernel with zero mean and unit L1 norm,
// plus the parameters it was drawn with.
type Kernel struct {
	Img *img.Image[float32]

	SigmaX, SigmaY float32
	OrderY         int     // y-derivative order, 0..3
	Theta          float32 // orientation in [0,pi)
	Hilbert        bool    // odd quadrature partner
}

// Side returns the oddified side length for the given maximum sigma.
func Side(maxSigma float32) int {
	side := int(math.Ceil(float64(KernelSideFactor * maxSigma)))
	return oddify(side)
}

func oddify(n int) int {
	if n%2 == 0 {
		return n + 1
	}
	return n
}

// NewGaussKernel draws an oriented Gaussian-derivative kernel on an
// odd 'size' grid. The y profile carries the derivative (and the Hilbert
// transform when requested); non-zero orientations are drawn on an
// enlarged grid, rotated by -theta with bilinear resampling, and
// center-cropped. The result is zero-meaned and L1-normalized.
func NewGaussKernel(size int, sigmaX, sigmaY float32, orderY int, theta float32, hilbert bool) *Kernel {
	if size <= 0 || size%2 == 0 {
		panic(fmt.Sprintf("filter: kernel size %d must be odd and positive", size))
	}
	if orderY < 0 || orderY > 3 {
		panic(fmt.Sprintf("filter: unsupported derivative order %d", orderY))
	}
	k := &Kernel{
		SigmaX: sigmaX, SigmaY: sigmaY,
		OrderY: orderY, Theta: theta, Hilbert: hilbert,
	}
	if theta != 0 {
		big := oddify(int(rotateGrowFactor*float32(size) + 0.5))
		halfDiff := (big - size) / 2
		drawn := drawNoRot(big, sigmaX, sigmaY, orderY, hilbert)
		rotated := img.New[float32](big, big)
		Rotate(drawn, rotated, -float64(theta), 0)
		k.Img = img.New[float32](size, size)
		rotated.ChangeROI(halfDiff, halfDiff+size, halfDiff, halfDiff+size)
		rotated.Extract(k.Img, 0, 0)
	} else {
		k.Img = drawNoRot(size, sigmaX, sigmaY, orderY, hilbert)
	}

	// zero mean again: sampling the continuous kernel on a discrete
	// grid leaves a residual
	img.SubScalar(k.Img, img.Mean(k.Img))
	img.DivScalar(k.Img, img.SumAbs(k.Img))
	return k
}

// drawNoRot samples the separable x-Gaussian times the y-profile on an
// odd grid, axis aligned.
func drawNoRot(size int, sigmaX, sigmaY float32, orderY int, hilbert bool) *img.Image[float32] {
	half := size / 2
	norm := 1.0 / (float64(sigmaX) * float64(sigmaY) * 2 * math.Pi)
	sigmaSqrY := float64(sigmaY) * float64(sigmaY)
	recipTwoSigmaSqrX := 1.0 / (2 * float64(sigmaX) * float64(sigmaX))
	recipTwoSigmaSqrY := 1.0 / (2 * sigmaSqrY)
	recipSigmaSqrY := 1.0 / sigmaSqrY
	recipSigmaFourthY := 1.0 / (sigmaSqrY * sigmaSqrY)

	ay := make([]float32, size)
	for i := 0; i < size; i++ {
		y := float64(i - half)
		ySqr := y * y
		fy := math.Exp(-ySqr * recipTwoSigmaSqrY)
		switch orderY {
		case 1:
			fy *= -y * recipSigmaSqrY
		case 2:
			fy *= recipSigmaSqrY * (ySqr*recipSigmaSqrY - 1)
		case 3:
			fy *= recipSigmaFourthY * y * (3 - ySqr*recipSigmaSqrY)
		}
		ay[i] = float32(fy)
	}
	if hilbert {
		Hilbert(ay)
	}

	out := img.New[float32](size, size)
	p := 0
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			x := float64(j - half)
			fx := math.Exp(-x * x * recipTwoSigmaSqrX)
			out.Data[p] = float32(fx * float64(ay[i]) * norm)
			p++
		}
	}
	if orderY == 0 {
		// isotropic Gaussian: bring onto [0,1] before any combination
		img.ChangeRange(out, 0, 1)
	}
	return out
}

// NewDoGKernel builds an isotropic center-surround kernel
// 2 G(excit) - G(inhib1) - G(inhib2), zero-meaned and L1-normalized.
func NewDoGKernel(size int, excitSigma, inhibSigma1, inhibSigma2 float32) *Kernel {
	k := &Kernel{SigmaX: excitSigma, SigmaY: excitSigma}
	k.Img = drawNoRot(size, excitSigma, excitSigma, 0, false)
	i1 := drawNoRot(size, inhibSigma1, inhibSigma1, 0, false)
	i2 := drawNoRot(size, inhibSigma2, inhibSigma2, 0, false)

	img.MulScalar(k.Img, 2)
	img.Sub(k.Img, i1)
	img.Sub(k.Img, i2)

	img.SubScalar(k.Img, img.Mean(k.Img))
	img.DivScalar(k.Img, img.SumAbs(k.Img))
	return k
}

// Rotate resamples in into out, rotated by theta radians about the
// center, with bilinear interpolation; uncovered output pixels get bg.
// in and out must be the same size.
func Rotate(in, out *img.Image[float32], theta float64, bg float32) {
	if in.Width != out.Width || in.Height != out.Height {
		panic("filter: rotate size mismatch")
	}
	cx := float64(in.Width) / 2
	cy := float64(in.Height) / 2
	sin, cos := math.Sincos(theta)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			// inverse mapping into the source grid
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			sx := cx + dx*cos + dy*sin - 0.5
			sy := cy - dx*sin + dy*cos - 0.5
			out.Data[y*out.Width+x] = bilinear(in, sx, sy, bg)
		}
	}
}

func bilinear(in *img.Image[float32], x, y float64, bg float32) float32 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := float32(x - float64(x0))
	fy := float32(y - float64(y0))
	v00 := sample(in, x0, y0, bg)
	v10 := sample(in, x0+1, y0, bg)
	v01 := sample(in, x0, y0+1, bg)
	v11 := sample(in, x0+1, y0+1, bg)
	top := v00 + (v10-v00)*fx
	bot := v01 + (v11-v01)*fx
	return top + (bot-top)*fy
}

func sample(in *img.Image[float32], x, y int, bg float32) float32 {
	if x < 0 || y < 0 || x >= in.Width || y >= in.Height {
		return bg
	}
	return in.Data[y*in.Width+x]
}
