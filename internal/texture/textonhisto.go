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
	"github.com/dvries/texhist/internal/histo"
	"github.com/dvries/texhist/internal/img"
)

// ComputeTextonHistoImage accumulates, for every pixel, the texton
// labels inside its adaptive disc into a K+1 bin histogram. A sample
// votes for its label's bin (label+1) with weight P_texture and for
// bin 0 with the complement, so bin 0 collects the "looked like a
// contour" mass. Histograms normalize to unit L1.
func ComputeTextonHistoImage(masks *CircleMasks, scaleRadii *img.Image[float32],
	textons *img.Image[int32], pTexture *img.Image[float32], k int,
	workers int) *histo.HistogramImage {

	w, h := textons.Width, textons.Height
	if pTexture.Width != w || pTexture.Height != h || scaleRadii.Width != w || scaleRadii.Height != h {
		panic("texture: texton histogram input sizes disagree")
	}

	padding := masks.MaxRad
	pw := w + 2*padding
	paddedTextons := img.New[int32](pw, h+2*padding)
	img.ReflectInto(textons, paddedTextons)
	paddedPTexture := img.New[float32](pw, h+2*padding)
	img.ReflectInto(pTexture, paddedPTexture)

	out := histo.NewImage(w, h, func() *histo.Histogram { return histo.NewLabeled(k + 1) })

	img.ParallelRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				rad := int(scaleRadii.Data[p])
				mask := masks.Mask(rad)
				hist := out.Histos[p]

				centerOff := (y+padding)*pw + (x + padding)
				binZeroSum := float32(0)
				mi := 0
				for yy := -rad; yy <= rad; yy++ {
					rowOff := centerOff + yy*pw
					for xx := -rad; xx <= rad; xx++ {
						if mask.Data[mi] != 0 {
							label := int(paddedTextons.Data[rowOff+xx]) + 1
							pj := paddedPTexture.Data[rowOff+xx]
							hist.IncrementBin(label, pj)
							binZeroSum += 1 - pj
						}
						mi++
					}
				}
				hist.Bins[0] = binZeroSum
				hist.Normalize(1)
			}
		}
	})
	return out
}
