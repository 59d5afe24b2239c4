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
	"github.com/dvries/texhist/internal/img"
)

// Cross-scale combination of the contour maps: per pixel the scale with
// the strongest accepted maximum wins.
type Combined struct {
	Max   *img.Image[uint8]
	Rho   *img.Image[float32]
	Theta *img.Image[float32]
}

// CombineScales fills the combined maps with the max over all scales of
// the masked energies, carrying the winning orientation along. Theta is
// canonicalized to [0,pi).
func CombineScales(c *Contours) *Combined {
	w, h := c.Rho.Width(), c.Rho.Height()
	out := &Combined{
		Max:   img.New[uint8](w, h),
		Rho:   img.New[float32](w, h),
		Theta: img.New[float32](w, h),
	}
	for s := 0; s < c.Rho.NFrames(); s++ {
		maxFrame := c.Max.Frames[s].Data
		rho := c.Rho.Frames[s].Data
		theta := c.Theta.Frames[s].Data
		for p := range rho {
			if maxFrame[p] != 0 && rho[p] > out.Rho.Data[p] {
				out.Rho.Data[p] = rho[p]
				out.Theta.Data[p] = theta[p]
				out.Max.Data[p] = 255
			}
		}
	}
	img.FixThetaRanges(out.Theta, true)
	return out
}
