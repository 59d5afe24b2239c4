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

package regionfeat

import (
	"math"
	"testing"

	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
)

func TestComputeRegionStats(t *testing.T) {
	cfg := filter.Config{
		NGaussScales: 1, NGaussOrientations: 2, NDoGScales: 1,
		GaussSigmaY: 1.41, GaussXToYRatio: 3, DoGExcitSigma: 1.41,
		DoGInhibRatio1: 0.62, DoGInhibRatio2: 1.6,
	}
	w, h := 4, 4
	// regions: left half 1, right half 2, one background pixel
	segMap := img.New[int32](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < 2 {
				segMap.Data[y*w+x] = 1
			} else {
				segMap.Data[y*w+x] = 2
			}
		}
	}
	segMap.Data[0] = 0

	oe := img.NewSeq[float32](2, w, h)
	for p := range oe.Frames[0].Data {
		if segMap.Data[p] == 1 {
			oe.Frames[0].Data[p] = 2 // constant inside region 1
		} else {
			oe.Frames[0].Data[p] = float32(p % 3) // varied in region 2
		}
	}
	conv := img.NewSeq[float32](cfg.NKernels(), w, h)
	dog := conv.Frames[cfg.DoGIndex(0)].Data
	for p := range dog {
		dog[p] = 1
	}

	f, err := Compute(&cfg, segMap, oe, conv)
	if err != nil {
		t.Fatal(err)
	}
	if f.Counts[0] != 7 || f.Counts[1] != 8 {
		t.Errorf("counts %v; want [7 8]", f.Counts)
	}
	if got := f.OEMean.At(0, 0); math.Abs(got-2) > 1e-6 {
		t.Errorf("region 1 OE mean %f; want 2", got)
	}
	if got := f.OEStd.At(0, 0); got > 1e-6 {
		t.Errorf("region 1 OE std %f; want 0", got)
	}
	if got := f.OEStd.At(1, 0); got <= 0 {
		t.Errorf("region 2 OE std %f; want positive", got)
	}
	if got := f.DoGMean.At(0, 0); math.Abs(got-1) > 1e-6 {
		t.Errorf("region 1 DoG mean %f; want 1", got)
	}
}

func TestComputeRejectsEmptyMap(t *testing.T) {
	cfg := filter.Config{
		NGaussScales: 1, NGaussOrientations: 1, NDoGScales: 0,
		GaussSigmaY: 1.41, GaussXToYRatio: 3, DoGExcitSigma: 1.41,
		DoGInhibRatio1: 0.62, DoGInhibRatio2: 1.6,
	}
	segMap := img.New[int32](2, 2)
	oe := img.NewSeq[float32](1, 2, 2)
	conv := img.NewSeq[float32](cfg.NKernels(), 2, 2)
	if _, err := Compute(&cfg, segMap, oe, conv); err == nil {
		t.Error("all-background segment map accepted")
	}
}
