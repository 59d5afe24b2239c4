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

// Package lattice annotates the 4-neighbor pixel graph with the
// strongest contour crossing each edge: the intervening-contour cue
// for downstream grouping.
package lattice

import (
	"math"

	"github.com/dvries/texhist/internal/edge"
	"github.com/dvries/texhist/internal/img"
)

// Dual holds the edge maps of the pixel lattice: H carries the contour
// probability between (x,y) and (x+1,y), V between (x,y) and (x,y+1).
// Values lie in [0,1].
type Dual struct {
	H *img.Image[float32]
	V *img.Image[float32]
}

// Make sweeps every sub-pixel contour maximum of every scale, lays an
// edgelet of the given length at its fitted position and orientation,
// and max-updates the lattice edges the edgelet crosses with
// P_B = (1 - P_texture) * (1 - exp(-sqrt(rho)/sigmaIC)).
func Make(c *edge.Contours, pTexture *img.Image[float32],
	edgelLength, sigmaIC float32) *Dual {

	w, h := c.Rho.Width(), c.Rho.Height()
	d := &Dual{
		H: img.New[float32](w, h),
		V: img.New[float32](w, h),
	}
	minusRecipSigma := -1 / float64(sigmaIC)
	halfLen := edgelLength * 0.5

	for s := 0; s < c.Rho.NFrames(); s++ {
		maxFrame := c.Max.Frames[s].Data
		rho := c.Rho.Frames[s].Data
		theta := c.Theta.Frames[s].Data
		xloc := c.XLoc.Frames[s].Data
		yloc := c.YLoc.Frames[s].Data

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				if maxFrame[p] == 0 {
					continue
				}
				cosE2 := float32(math.Cos(float64(theta[p]))) * halfLen
				sinE2 := float32(math.Sin(float64(theta[p]))) * halfLen

				// edgelet endpoints in the pixel's local frame
				x1 := xloc[p] + cosE2
				y1 := yloc[p] + sinE2
				x2 := xloc[p] - cosE2
				y2 := yloc[p] - sinE2

				pCon := 1 - float32(math.Exp(math.Sqrt(float64(rho[p]))*minusRecipSigma))
				pB := (1 - pTexture.Data[p]) * pCon

				if SegmentsIntersect(x1, y1, x2, y2, 0, 0, 1, 0) && d.H.Data[p] < pB {
					d.H.Data[p] = pB
				}
				if SegmentsIntersect(x1, y1, x2, y2, 0, 0, 0, 1) && d.V.Data[p] < pB {
					d.V.Data[p] = pB
				}
				if x > 0 && SegmentsIntersect(x1, y1, x2, y2, 0, 0, -1, 0) && d.H.Data[p-1] < pB {
					d.H.Data[p-1] = pB
				}
				if y > 0 && SegmentsIntersect(x1, y1, x2, y2, 0, 0, 0, -1) && d.V.Data[p-w] < pB {
					d.V.Data[p-w] = pB
				}
			}
		}
	}
	return d
}
