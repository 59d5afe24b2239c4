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

package edge

import (
	"math"

	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
)

// Per-scale contour evidence produced by the orientation fit and
// sub-pixel localization, one frame per scale.
type Contours struct {
	Max      *img.Seq[uint8]   // 255 where the pixel is a contour maximum
	Rho      *img.Seq[float32] // interpolated energy at theta*
	Theta    *img.Seq[float32] // fitted orientation
	ThetaIdx *img.Seq[uint8]   // coarse argmax orientation index
	XLoc     *img.Seq[float32] // sub-pixel x offset
	YLoc     *img.Seq[float32] // sub-pixel y offset
	Err      *img.Seq[float32] // normalized fit residual
}

func newContours(nScales, w, h int) *Contours {
	return &Contours{
		Max:      img.NewSeq[uint8](nScales, w, h),
		Rho:      img.NewSeq[float32](nScales, w, h),
		Theta:    img.NewSeq[float32](nScales, w, h),
		ThetaIdx: img.NewSeq[uint8](nScales, w, h),
		XLoc:     img.NewSeq[float32](nScales, w, h),
		YLoc:     img.NewSeq[float32](nScales, w, h),
		Err:      img.NewSeq[float32](nScales, w, h),
	}
}

// thetaTriple fetches the orientation triple (iTheta-1, iTheta, iTheta+1)
// modulo the orientation count, with the angles shifted by pi where the
// wrap occurs so the three are strictly increasing around the center.
// Returns the neighbor indices, the unwrapped angles and the energies.
func thetaTriple(oe *img.Seq[float32], nOrientations, scale, iTheta, pix int) (
	iPrev, iNext int, prevTheta, theta, nextTheta, prevOE, centerOE, nextOE float32) {

	iPrev = iTheta - 1 // may be out of range here
	iNext = iTheta + 1

	n := float32(nOrientations)
	prevTheta = math.Pi * float32(iPrev) / n
	theta = math.Pi * float32(iTheta) / n
	nextTheta = math.Pi * float32(iNext) / n

	// fix for phase wrapping
	if iPrev < 0 {
		iPrev += nOrientations
		prevTheta += math.Pi
		theta += math.Pi
		nextTheta += math.Pi
	}
	if iNext == nOrientations {
		iNext = 0
	}

	base := scale * nOrientations
	prevOE = oe.Frames[base+iPrev].Data[pix]
	centerOE = oe.Frames[base+iTheta].Data[pix]
	nextOE = oe.Frames[base+iNext].Data[pix]
	return
}

// parabolaCoeffs fits y = a x^2 + b x + c through three points with
// distinct abscissae.
func parabolaCoeffs(x1, y1, x2, y2, x3, y3 float64) (a, b, c float64) {
	d1 := (x1 - x2) * (x1 - x3)
	d2 := (x2 - x1) * (x2 - x3)
	d3 := (x3 - x1) * (x3 - x2)
	a = y1/d1 + y2/d2 + y3/d3
	b = -(y1*(x2+x3)/d1 + y2*(x1+x3)/d2 + y3*(x1+x2)/d3)
	c = y1*x2*x3/d1 + y2*x1*x3/d2 + y3*x1*x2/d3
	return
}

// parabolaVertex returns the abscissa of the extremum of the parabola
// through the three points, clamped into [x1, x3]. A degenerate
// (linear) triple returns the center abscissa.
func parabolaVertex(x1, y1, x2, y2, x3, y3 float64) float64 {
	a, b, _ := parabolaCoeffs(x1, y1, x2, y2, x3, y3)
	if a == 0 {
		return x2
	}
	v := -b / (2 * a)
	if v < x1 {
		v = x1
	} else if v > x3 {
		v = x3
	}
	return v
}

// ParabolicOrientationsFit picks the argmax orientation per pixel and
// scale, stores its energy as rho, and refines the orientation by
// fitting a parabola through the unwrapped neighbor triple. Amplitude is
// not interpolated here, only the angle.
func ParabolicOrientationsFit(cfg *filter.Config, oe *img.Seq[float32]) *Contours {
	w, h := oe.Width(), oe.Height()
	c := newContours(cfg.NGaussScales, w, h)

	for s := 0; s < cfg.NGaussScales; s++ {
		rho := c.Rho.Frames[s].Data
		thetaIdx := c.ThetaIdx.Frames[s].Data
		for i := 0; i < cfg.NGaussOrientations; i++ {
			frame := oe.Frames[s*cfg.NGaussOrientations+i].Data
			for p, v := range frame {
				if rho[p] <= v {
					rho[p] = v
					thetaIdx[p] = uint8(i)
				}
			}
		}
		interpolateOrientations(cfg, oe, s, c)
	}
	return c
}

// interpolateOrientations fills the fitted theta for one scale from the
// argmax index map.
func interpolateOrientations(cfg *filter.Config, oe *img.Seq[float32], scale int, c *Contours) {
	theta := c.Theta.Frames[scale].Data
	thetaIdx := c.ThetaIdx.Frames[scale].Data
	n := len(theta)
	for p := 0; p < n; p++ {
		_, _, prevTheta, centerTheta, nextTheta, prevOE, centerOE, nextOE :=
			thetaTriple(oe, cfg.NGaussOrientations, scale, int(thetaIdx[p]), p)
		if prevOE != 0 || centerOE != 0 || nextOE != 0 {
			v := parabolaVertex(
				float64(prevTheta), float64(prevOE),
				float64(centerTheta), float64(centerOE),
				float64(nextTheta), float64(nextOE))
			theta[p] = float32(v)
		} else {
			theta[p] = centerTheta // no interpolation if all energies were 0
		}
	}
}
