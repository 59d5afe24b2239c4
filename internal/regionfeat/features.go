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

// Package regionfeat summarizes filterbank responses over labeled
// regions: per-region mean and deviation of every orientation-energy
// channel and every DoG channel, for consumers that describe segments
// rather than pixels.
package regionfeat

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
)

// Features holds one row per region (labels 1..N; label 0 is
// background and contributes nothing) and one column per channel.
type Features struct {
	OEMean  *mat.Dense // regions x (scales*orientations)
	OEStd   *mat.Dense
	DoGMean *mat.Dense // regions x DoG scales
	DoGStd  *mat.Dense
	Counts  []int // pixels per region
}

// Compute aggregates the orientation-energy stack and the DoG frames of
// the convolution stack over the regions of segMap. Region labels are
// positive; the number of regions is the largest label.
func Compute(cfg *filter.Config, segMap *img.Image[int32],
	oe, conv *img.Seq[float32]) (*Features, error) {

	w, h := oe.Width(), oe.Height()
	if segMap.Width != w || segMap.Height != h {
		return nil, fmt.Errorf("regionfeat: segment map %dx%d does not match %dx%d responses",
			segMap.Width, segMap.Height, w, h)
	}

	nRegions := 0
	for _, v := range segMap.Data {
		if int(v) > nRegions {
			nRegions = int(v)
		}
	}
	if nRegions == 0 {
		return nil, fmt.Errorf("regionfeat: segment map has no regions")
	}
	counts := make([]int, nRegions+1)
	for _, v := range segMap.Data {
		if v > 0 {
			counts[v]++
		}
	}

	nOE := cfg.NGaussScales * cfg.NGaussOrientations
	f := &Features{
		OEMean:  mat.NewDense(nRegions, nOE, nil),
		OEStd:   mat.NewDense(nRegions, nOE, nil),
		DoGMean: mat.NewDense(nRegions, cfg.NDoGScales, nil),
		DoGStd:  mat.NewDense(nRegions, cfg.NDoGScales, nil),
		Counts:  counts[1:],
	}

	accumulate := func(frame []float32, set func(region int, mean, std float64)) {
		sums := make([]float64, nRegions+1)
		sumSqs := make([]float64, nRegions+1)
		for p, v := range frame {
			if seg := segMap.Data[p]; seg > 0 {
				fv := float64(v)
				sums[seg] += fv
				sumSqs[seg] += fv * fv
			}
		}
		for r := 1; r <= nRegions; r++ {
			if counts[r] == 0 {
				continue
			}
			n := float64(counts[r])
			mean := sums[r] / n
			variance := sumSqs[r]/n - mean*mean
			if variance < 0 {
				variance = 0
			}
			set(r-1, mean, math.Sqrt(variance))
		}
	}

	for s := 0; s < cfg.NGaussScales; s++ {
		for i := 0; i < cfg.NGaussOrientations; i++ {
			col := s*cfg.NGaussOrientations + i
			accumulate(oe.Frames[col].Data, func(region int, mean, std float64) {
				f.OEMean.Set(region, col, mean)
				f.OEStd.Set(region, col, std)
			})
		}
	}
	for s := 0; s < cfg.NDoGScales; s++ {
		col := s
		accumulate(conv.Frames[cfg.DoGIndex(s)].Data, func(region int, mean, std float64) {
			f.DoGMean.Set(region, col, mean)
			f.DoGStd.Set(region, col, std)
		})
	}
	return f, nil
}
