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

package histo

import (
	"math"
)

// Patches carries pre-baked 2-D Gaussian weight windows for the fast
// soft-update path: one per fractional quadrant of the landing bin
// (center, plus the four quarter-bin offsets), so the inner loop adds a
// table instead of evaluating exponentials.
type Patches struct {
	Rad                int
	C, LT, RT, LB, RB  []float32
	side               int
}

// NewPatches bakes the five windows for the given sigma (in bin
// widths), radius floor(3 sigma).
func NewPatches(sigma float32) *Patches {
	rad := int(3 * sigma)
	side := 2*rad + 1
	p := &Patches{Rad: rad, side: side}
	recip := 1 / (sigma * sigma)
	bake := func(ox, oy float32) []float32 {
		w := make([]float32, side*side)
		i := 0
		for y := -rad; y <= rad; y++ {
			for x := -rad; x <= rad; x++ {
				sq := (float32(x)+ox)*(float32(x)+ox) + (float32(y)+oy)*(float32(y)+oy)
				w[i] = float32(math.Exp(float64(-sq * recip)))
				i++
			}
		}
		return w
	}
	p.C = bake(0, 0)
	p.LT = bake(0.25, 0.25)
	p.RT = bake(-0.25, 0.25)
	p.LB = bake(0.25, -0.25)
	p.RB = bake(-0.25, -0.25)
	return p
}

// Select picks the window whose quarter-bin offset matches the sign of
// the sample's fractional offset inside its landing bin.
func (p *Patches) Select(deltaX, deltaY float32) []float32 {
	switch {
	case deltaX < 0 && deltaY < 0:
		return p.LT
	case deltaX > 0 && deltaY < 0:
		return p.RT
	case deltaX < 0 && deltaY > 0:
		return p.LB
	case deltaX > 0 && deltaY > 0:
		return p.RB
	default:
		return p.C
	}
}

// SoftUpdate2DPatch adds the pre-baked window chosen by the sample's
// fractional quadrant, clipped at the bin array bounds.
func (h *Histogram) SoftUpdate2DPatch(vx, vy float32, p *Patches) {
	realX := h.X.binCoord(vx)
	realY := h.Y.binCoord(vy)
	cx := roundToBin(realX)
	cy := roundToBin(realY)
	window := p.Select(realX-float32(cx), realY-float32(cy))

	i := 0
	for yw := -p.Rad; yw <= p.Rad; yw++ {
		y := cy + yw
		if y < 0 || y >= h.Y.NBins {
			i += p.side
			continue
		}
		for xw := -p.Rad; xw <= p.Rad; xw++ {
			x := cx + xw
			if x >= 0 && x < h.X.NBins {
				h.Bins[y*h.X.NBins+x] += window[i]
			}
			i++
		}
	}
}
