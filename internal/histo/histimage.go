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
	"fmt"
)

// A HistogramImage holds one histogram per pixel, all with the same
// descriptor.
type HistogramImage struct {
	Width, Height int
	Histos        []*Histogram
}

// NewImage allocates a histogram image where every pixel gets its own
// histogram built by the factory.
func NewImage(width, height int, build func() *Histogram) *HistogramImage {
	hi := &HistogramImage{
		Width: width, Height: height,
		Histos: make([]*Histogram, width*height),
	}
	for i := range hi.Histos {
		hi.Histos[i] = build()
	}
	return hi
}

func (hi *HistogramImage) At(x, y int) *Histogram {
	return hi.Histos[y*hi.Width+x]
}

// Similarity compares every pixel's histogram against the one at
// (x, y) and returns 1 - chi-square per pixel: a heat map of how much
// of the image looks like the chosen spot.
func (hi *HistogramImage) Similarity(x, y int) []float32 {
	if x < 0 || y < 0 || x >= hi.Width || y >= hi.Height {
		panic(fmt.Sprintf("histo: similarity pixel (%d,%d) outside %dx%d", x, y, hi.Width, hi.Height))
	}
	ref := hi.Histos[y*hi.Width+x]
	out := make([]float32, len(hi.Histos))
	for p, h := range hi.Histos {
		out[p] = 1 - h.ChiSquare(ref)
	}
	return out
}

// checkUniform asserts the image is non-empty and returns the first
// pixel's histogram as the shared descriptor.
func (hi *HistogramImage) checkUniform() (*Histogram, error) {
	if hi.Width <= 0 || hi.Height <= 0 || len(hi.Histos) == 0 {
		return nil, fmt.Errorf("histo: empty histogram image")
	}
	first := hi.Histos[0]
	for _, h := range hi.Histos {
		if h.NBins() != first.NBins() {
			return nil, fmt.Errorf("histo: mixed bin counts %d and %d", first.NBins(), h.NBins())
		}
	}
	return first, nil
}
