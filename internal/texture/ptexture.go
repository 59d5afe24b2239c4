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

package texture

import (
	"math"

	"github.com/dvries/texhist/internal/histo"
	"github.com/dvries/texhist/internal/img"
)

// ComputePTexture scores every pixel for being interior to a texture
// rather than on a boundary. The disc of the local texture scale is
// split by the contour direction into two half-discs and a middle
// strip; if the texton distributions of the halves agree with their
// complements the neighborhood is one texture and the score approaches
// one, while a genuine boundary drives it to zero through the sigmoid.
func ComputePTexture(masks *CircleMasks, thetaStar, scaleRadii *img.Image[float32],
	textons *img.Image[int32], k int, middleWidth, tau, beta float32,
	workers int) *img.Image[float32] {

	w, h := textons.Width, textons.Height
	if thetaStar.Width != w || thetaStar.Height != h || scaleRadii.Width != w || scaleRadii.Height != h {
		panic("texture: ptexture input sizes disagree")
	}

	padding := masks.MaxRad + 1
	pw := w + 2*padding
	padded := img.New[int32](pw, h+2*padding)
	img.ReflectInto(textons, padded)

	out := img.New[float32](w, h)
	halfMid := middleWidth * 0.5

	img.ParallelRows(h, workers, func(y0, y1 int) {
		histoL := histo.NewLabeled(k)
		histoC := histo.NewLabeled(k)
		histoR := histo.NewLabeled(k)
		histoTmp := histo.NewLabeled(k)
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				histoL.Zero()
				histoC.Zero()
				histoR.Zero()
				histoTmp.Zero()

				theta := float64(thetaStar.Data[p])
				cos := float32(math.Cos(theta))
				minusSin := float32(-math.Sin(theta))
				rad := int(scaleRadii.Data[p])
				mask := masks.Mask(rad)

				centerOff := (y+padding)*pw + (x + padding)
				mi := 0
				for yy := -rad; yy <= rad; yy++ {
					rowOff := centerOff + yy*pw
					for xx := -rad; xx <= rad; xx++ {
						if mask.Data[mi] != 0 {
							dot := float32(xx)*minusSin + float32(yy)*cos
							label := int(padded.Data[rowOff+xx])
							if abs32(dot) < halfMid {
								histoC.IncrementBin(label, 1)
							} else if dot > 0 {
								histoL.IncrementBin(label, 1)
							} else {
								histoR.IncrementBin(label, 1)
							}
						}
						mi++
					}
				}

				histoTmp.Add(histoL)
				histoTmp.Add(histoC) // left plus center, against the right half
				histoC.Add(histoR)   // center plus right, against the left half

				histoL.Normalize(1)
				histoR.Normalize(1)
				histoTmp.Normalize(1)
				histoC.Normalize(1)

				chi1 := histoL.ChiSquare(histoC)
				chi2 := histoR.ChiSquare(histoTmp)
				chi := chi1
				if chi2 > chi {
					chi = chi2
				}

				out.Data[p] = 1 - float32(1/(1+math.Exp(-float64((chi-tau)/beta))))
			}
		}
	})
	return out
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
