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

// Package texton vector-quantizes Weber-normalized filter responses
// into discrete texture labels.
package texton

import (
	"math"

	"github.com/dvries/texhist/internal/img"
)

const weberEpsilon = 1e-9

// WeberLaw rescales every pixel's response column by
// ln(1 + L/w) / (L + eps) where L is the column's L2 norm. Contrast
// compresses logarithmically while sign and orientation structure
// survive, making the clustering metric scale-insensitive.
func WeberLaw(conv *img.Seq[float32], weberConst float32, workers int) {
	if conv.NFrames() == 0 {
		return
	}
	w, h := conv.Width(), conv.Height()
	img.ParallelRows(h, workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				sumSq := float64(0)
				for _, frame := range conv.Frames {
					v := float64(frame.Data[p])
					sumSq += v * v
				}
				l2 := math.Sqrt(sumSq)
				factor := float32(math.Log(1+l2/float64(weberConst)) / (l2 + weberEpsilon))
				for _, frame := range conv.Frames {
					frame.Data[p] *= factor
				}
			}
		}
	})
}
