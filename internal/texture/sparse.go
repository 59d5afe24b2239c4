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
	"fmt"
	"io"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/img"
)

// Density law for the annuli outside the dense core.
type PatternLaw int

const (
	// remaining samples spread evenly over the remaining radii
	LawDefault PatternLaw = iota
	// every annulus carries as many samples as the dense rim
	LawUniform
	// samples per annulus fall off as 1/(r - denseRad)
	LawInverseRadius
)

// NewSparsePattern builds the odd-side byte image of sample offsets: a
// filled disc of radius denseRad, then randomly chosen pixels on every
// integer circumference out to maxRad. Under the default law exactly
// nTotalSamples pixels end up non-zero. With half set, everything
// before the center pixel is zeroed to reflect antipodal symmetry; the
// center pixel follows centerOn.
func NewSparsePattern(denseRad, maxRad, nTotalSamples int, law PatternLaw,
	half, centerOn bool, rng *fastrand.RNG, logWriter io.Writer) *img.Image[uint8] {

	if denseRad < 1 || maxRad < denseRad {
		panic(fmt.Sprintf("texture: invalid sparse radii dense=%d max=%d", denseRad, maxRad))
	}
	width := maxRad*2 + 1
	out := img.New[uint8](width, width)
	center := maxRad*width + maxRad

	// dense core
	fRad := float64(denseRad + 1)
	samples := 0
	i := 0
	for yc := -maxRad; yc <= maxRad; yc++ {
		for xc := -maxRad; xc <= maxRad; xc++ {
			if dist2(xc, yc) < fRad*fRad {
				out.Data[i] = 255
				samples++
			}
			i++
		}
	}

	denseCirc := len(CircumPositions(denseRad, width))
	chosen := []int{}
	for rad := denseRad + 1; rad <= maxRad; rad++ {
		positions := CircumPositions(rad, width)
		// circumference pixels the dense core already covers are not
		// candidates, so every pick adds a new sample
		free := positions[:0]
		for _, p := range positions {
			if out.Data[center+p] == 0 {
				free = append(free, p)
			}
		}
		positions = free
		nCircum := len(positions)

		var want int
		switch law {
		case LawUniform:
			want = denseCirc
		case LawInverseRadius:
			want = denseCirc / (rad - denseRad)
		default:
			left := nTotalSamples - samples
			if left <= 0 {
				break
			}
			radiiLeft := maxRad - rad + 1
			want = left / radiiLeft
			if left-want*radiiLeft != 0 {
				want++
			}
		}

		if want >= nCircum {
			for _, p := range positions {
				out.Data[center+p] = 255
				samples++
			}
			continue
		}
		chosen = chosen[:0]
		taken := make([]bool, nCircum)
		for len(chosen) < want {
			c := int(rng.Uint32n(uint32(nCircum)))
			if !taken[c] {
				taken[c] = true
				chosen = append(chosen, c)
			}
		}
		for _, c := range chosen {
			out.Data[center+positions[c]] = 255
			samples++
		}
	}

	if half {
		for p := 0; p < center; p++ {
			out.Data[p] = 0
		}
	}
	if !centerOn {
		out.Data[center] = 0
	}
	if logWriter != nil {
		fmt.Fprintf(logWriter, "Sparse pattern carries %d samples in a %dx%d mask\n",
			out.NonzeroCount(), width, width)
	}
	return out
}

func dist2(x, y int) float64 {
	return float64(x*x + y*y)
}
