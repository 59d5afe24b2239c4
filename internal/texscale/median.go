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

package texscale

import (
	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/qsort"
)

// MedianFilter writes the spatial median of the (2r+1)^2 window around
// every pixel of in to out. Windows truncate at the image edges; even
// neighbor counts average the two middle values.
func MedianFilter(in, out *img.Image[float32], radius, workers int) {
	if in.Width != out.Width || in.Height != out.Height {
		panic("texscale: median filter size mismatch")
	}
	w, h := in.Width, in.Height
	img.ParallelRows(h, workers, func(y0, y1 int) {
		window := make([]float32, 0, (2*radius+1)*(2*radius+1))
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				window = window[:0]
				for yy := -radius; yy <= radius; yy++ {
					yc := y + yy
					if yc < 0 || yc >= h {
						continue
					}
					for xx := -radius; xx <= radius; xx++ {
						xc := x + xx
						if xc < 0 || xc >= w {
							continue
						}
						window = append(window, in.Data[yc*w+xc])
					}
				}
				out.Data[y*w+x] = qsort.QMedianFloat32(window)
			}
		}
	})
}
