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

// Package histo provides the float-valued accumulator behind the
// texton and color histogram images: one rank-generic type with a flat
// bin buffer instead of parallel 1-D/2-D/3-D implementations.
package histo

import (
	"fmt"
	"math"
)

// One histogram axis: bin count, inclusive value range and the
// value-to-bin factor (nBins-1)/range.
type Axis struct {
	NBins    int
	Min, Max float32
	Factor   float32
}

func newAxis(nBins int, min, max float32) Axis {
	if nBins <= 0 {
		panic(fmt.Sprintf("histo: axis needs positive bins, got %d", nBins))
	}
	a := Axis{NBins: nBins, Min: min, Max: max}
	if r := max - min; r > 0 {
		a.Factor = float32(nBins-1) / r
	}
	return a
}

// A 1-D, 2-D or 3-D histogram over a flat bin buffer. Unused axes have
// zero bins. The flat index of (x[,y[,z]]) is x for rank 1, y*nx+x for
// rank 2 and (y*nx+x)*nz+z for rank 3.
type Histogram struct {
	Rank    int
	X, Y, Z Axis
	Bins    []float32
}

// NewLabeled builds a 1-D histogram over bin indices with no value
// range; samples go in through IncrementBin only.
func NewLabeled(nBins int) *Histogram {
	return &Histogram{
		Rank: 1,
		X:    Axis{NBins: nBins, Min: -1, Max: -1},
		Bins: make([]float32, nBins),
	}
}

func New1D(nBins int, min, max float32) *Histogram {
	return &Histogram{
		Rank: 1,
		X:    newAxis(nBins, min, max),
		Bins: make([]float32, nBins),
	}
}

func New2D(nx, ny int, minX, maxX, minY, maxY float32) *Histogram {
	return &Histogram{
		Rank: 2,
		X:    newAxis(nx, minX, maxX),
		Y:    newAxis(ny, minY, maxY),
		Bins: make([]float32, nx*ny),
	}
}

func New3D(nx, ny, nz int, minX, maxX, minY, maxY, minZ, maxZ float32) *Histogram {
	return &Histogram{
		Rank: 3,
		X:    newAxis(nx, minX, maxX),
		Y:    newAxis(ny, minY, maxY),
		Z:    newAxis(nz, minZ, maxZ),
		Bins: make([]float32, nx*ny*nz),
	}
}

func (h *Histogram) NBins() int { return len(h.Bins) }

func (h *Histogram) Zero() {
	for i := range h.Bins {
		h.Bins[i] = 0
	}
}

func (h *Histogram) IsEmpty() bool {
	for _, v := range h.Bins {
		if v != 0 {
			return false
		}
	}
	return true
}

func (h *Histogram) IncrementBin(i int, v float32) {
	h.Bins[i] += v
}

func (h *Histogram) Add(other *Histogram) {
	if len(other.Bins) != len(h.Bins) {
		panic("histo: bin count mismatch in add")
	}
	for i, v := range other.Bins {
		h.Bins[i] += v
	}
}

func (h *Histogram) MaxBinVal() float32 {
	max := float32(math.Inf(-1))
	for _, v := range h.Bins {
		if v > max {
			max = v
		}
	}
	return max
}

// Normalize scales the bins to the given total mass (unit L1 by
// default elsewhere). An empty histogram stays all zero.
func (h *Histogram) Normalize(area float32) {
	sum := float32(0)
	for _, v := range h.Bins {
		if v < 0 {
			panic("histo: negative bin before normalization")
		}
		sum += v
	}
	if sum <= 0 {
		return
	}
	factor := area / sum
	for i := range h.Bins {
		h.Bins[i] *= factor
	}
}

// ChiSquare computes 0.5 * sum (p-q)^2/(p+q) with 0/0 counted as 0.
// For unit-mass inputs the score lies in [0,1]; tiny excursions from
// rounding clamp at 1 and anything beyond the 1.001 tolerance is a bug.
func (h *Histogram) ChiSquare(other *Histogram) float32 {
	if len(other.Bins) != len(h.Bins) {
		panic("histo: bin count mismatch in chi-square")
	}
	sum := float32(0)
	for i, p := range h.Bins {
		q := other.Bins[i]
		diff := p - q
		if s := p + q; s != 0 {
			sum += diff * diff / s
		}
	}
	sum *= 0.5
	if sum > 1 {
		if sum >= 1.001 {
			panic(fmt.Sprintf("histo: chi-square %f beyond tolerance", sum))
		}
		sum = 1
	}
	return sum
}

func roundToBin(v float32) int {
	return int(math.Floor(float64(v) + 0.5))
}

// binCoord maps a value onto its fractional bin coordinate along the
// axis.
func (a *Axis) binCoord(v float32) float32 {
	return (v - a.Min) * a.Factor
}

// Update adds a literal unit count to the bin containing the value(s).
func (h *Histogram) Update(vals ...float32) {
	if len(vals) != h.Rank {
		panic(fmt.Sprintf("histo: %d values for rank %d update", len(vals), h.Rank))
	}
	switch h.Rank {
	case 1:
		h.Bins[roundToBin(h.X.binCoord(vals[0]))]++
	case 2:
		x := roundToBin(h.X.binCoord(vals[0]))
		y := roundToBin(h.Y.binCoord(vals[1]))
		h.Bins[y*h.X.NBins+x]++
	case 3:
		x := roundToBin(h.X.binCoord(vals[0]))
		y := roundToBin(h.Y.binCoord(vals[1]))
		z := roundToBin(h.Z.binCoord(vals[2]))
		h.Bins[(y*h.X.NBins+x)*h.Z.NBins+z]++
	}
}

// SoftUpdate1D adds a Gaussian-weighted vote around the sample's
// fractional bin coordinate, over a radius of floor(3 sigma) bins
// clipped at the array bounds. Sigma is in bin widths; the 1-D exponent
// factor is 1/sigma.
func (h *Histogram) SoftUpdate1D(v, sigma float32) {
	realX := h.X.binCoord(v)
	center := roundToBin(realX)
	rad := int(3 * sigma)
	recip := 1 / sigma
	for xw := -rad; xw <= rad; xw++ {
		x := center + xw
		if x < 0 || x >= h.X.NBins {
			continue
		}
		delta := realX - float32(x)
		h.Bins[x] += float32(math.Exp(float64(-delta * delta * recip)))
	}
}

// SoftUpdate2D is the direct exponential 2-D path; the exponent factor
// is 1/sigma^2.
func (h *Histogram) SoftUpdate2D(vx, vy, sigma float32) {
	realX := h.X.binCoord(vx)
	realY := h.Y.binCoord(vy)
	cx := roundToBin(realX)
	cy := roundToBin(realY)
	rad := int(3 * sigma)
	recip := 1 / (sigma * sigma)
	for yw := -rad; yw <= rad; yw++ {
		y := cy + yw
		if y < 0 || y >= h.Y.NBins {
			continue
		}
		for xw := -rad; xw <= rad; xw++ {
			x := cx + xw
			if x < 0 || x >= h.X.NBins {
				continue
			}
			dx := realX - float32(x)
			dy := realY - float32(y)
			h.Bins[y*h.X.NBins+x] += float32(math.Exp(float64(-(dx*dx + dy*dy) * recip)))
		}
	}
}

// SoftUpdate3D adds the joint Gaussian vote; the exponent factor is
// sigma^(-1/3).
func (h *Histogram) SoftUpdate3D(vx, vy, vz, sigma float32) {
	realX := h.X.binCoord(vx)
	realY := h.Y.binCoord(vy)
	realZ := h.Z.binCoord(vz)
	cx := roundToBin(realX)
	cy := roundToBin(realY)
	cz := roundToBin(realZ)
	rad := int(3 * sigma)
	recip := float32(1 / math.Cbrt(float64(sigma)))
	for yw := -rad; yw <= rad; yw++ {
		y := cy + yw
		if y < 0 || y >= h.Y.NBins {
			continue
		}
		for xw := -rad; xw <= rad; xw++ {
			x := cx + xw
			if x < 0 || x >= h.X.NBins {
				continue
			}
			for zw := -rad; zw <= rad; zw++ {
				z := cz + zw
				if z < 0 || z >= h.Z.NBins {
					continue
				}
				dx := realX - float32(x)
				dy := realY - float32(y)
				dz := realZ - float32(z)
				sq := dx*dx + dy*dy + dz*dz
				h.Bins[(y*h.X.NBins+x)*h.Z.NBins+z] += float32(math.Exp(float64(-sq * recip)))
			}
		}
	}
}
