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

// Package texture gates contour evidence against local texture: circle
// masks and sparse sampling patterns, the probability-of-texture test
// and the per-pixel texton histograms.
package texture

import (
	"fmt"
	"math"

	"github.com/dvries/texhist/internal/img"
)

// CircleMasks holds a pre-rasterized filled disc for every integer
// radius the adaptive neighborhoods can ask for. Read-only after
// construction.
type CircleMasks struct {
	MinRad, MaxRad int
	masks          []*img.Image[uint8]
}

// NewCircleMasks rasterizes discs for every radius in [minRad, maxRad];
// pixels within euclidean distance radius are 255.
func NewCircleMasks(minRad, maxRad int) *CircleMasks {
	if minRad < 1 || maxRad < minRad {
		panic(fmt.Sprintf("texture: invalid mask radius range [%d,%d]", minRad, maxRad))
	}
	c := &CircleMasks{MinRad: minRad, MaxRad: maxRad}
	for rad := minRad; rad <= maxRad; rad++ {
		side := 2*rad + 1
		mask := img.New[uint8](side, side)
		i := 0
		for y := -rad; y <= rad; y++ {
			for x := -rad; x <= rad; x++ {
				if math.Sqrt(float64(x*x+y*y)) <= float64(rad) {
					mask.Data[i] = 255
				}
				i++
			}
		}
		c.masks = append(c.masks, mask)
	}
	return c
}

// Mask returns the disc image for the given radius.
func (c *CircleMasks) Mask(rad int) *img.Image[uint8] {
	if rad < c.MinRad || rad > c.MaxRad {
		panic(fmt.Sprintf("texture: radius %d outside mask range [%d,%d]", rad, c.MinRad, c.MaxRad))
	}
	return c.masks[rad-c.MinRad]
}

// chain-code directions: unit steps ordered for the circumference walk
var circumSteps = [9][2]int{
	{}, // directions are 1-based
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1},
}

// CircumPositions traverses the rasterized circumference of the given
// radius and returns the visited pixels as linear offsets from the
// circle center in an image of the given row stride. The walk starts at
// (-radius, 0) and greedily follows the neighbor closest to the true
// circle until it closes.
func CircumPositions(radius, width int) []int {
	if radius < 1 {
		panic("texture: circumference radius must be at least 1")
	}
	if radius == 1 {
		// all 8 neighbors, starting left of center
		dirs := []int{3, 5, 5, 7, 7, 1, 1, 3}
		pos := make([]int, 0, 8)
		cx, cy := -1, 0
		for _, d := range dirs {
			pos = append(pos, cy*width+cx)
			cx += circumSteps[d][0]
			cy += circumSteps[d][1]
		}
		return pos
	}

	offCircle := func(x, y int) float64 {
		return math.Abs(math.Hypot(float64(x), float64(y)) - float64(radius))
	}
	pos := []int{}
	cx, cy := -radius, 0
	// initially only directions 3 and 4 are possible
	dir := 3
	if offCircle(cx+1, cy-1) < offCircle(cx, cy-1) {
		dir = 4
	}
	for {
		pos = append(pos, cy*width+cx)
		cx += circumSteps[dir][0]
		cy += circumSteps[dir][1]
		if cx == -radius && cy == 0 {
			return pos
		}
		// from direction d the walk can continue to d-1, d or d+1
		best, bestOff := 0, math.MaxFloat64
		for delta := -1; delta <= 1; delta++ {
			d := (dir+delta+7)%8 + 1
			nx := cx + circumSteps[d][0]
			ny := cy + circumSteps[d][1]
			if off := offCircle(nx, ny); off < bestOff {
				best, bestOff = d, off
			}
		}
		dir = best
	}
}
