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

package pipeline

import (
	"bytes"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/histo"
	"github.com/dvries/texhist/internal/img"
)

// a configuration small enough for test runs
func testParams() Params {
	p := DefaultParams()
	p.NGaussScales = 2
	p.NDoGScales = 2
	p.KMeansK = 6
	p.KMeansIters = 8
	p.KMeansPrune = false
	p.Workers = 2
	p.Seed = 42
	return p
}

func grayRaster(w, h int, value uint8) []uint8 {
	rgb := make([]uint8, w*h*3)
	for i := range rgb {
		rgb[i] = value
	}
	return rgb
}

// scenario: all-black input. Convolutions are exactly zero, no contour
// maxima appear, the dual lattice stays zero, and every histogram still
// carries unit mass.
func TestRunAllBlack(t *testing.T) {
	p := testParams()
	p.KMeansReseed = false // constant features cannot fill k clusters
	var log bytes.Buffer
	pl := New(p, &log)
	if err := pl.Run(grayRaster(64, 64, 0), 64, 64); err != nil {
		t.Fatal(err)
	}

	comb := pl.Combined()
	for i, v := range comb.Max.Data {
		if v != 0 {
			t.Fatalf("contour maximum at %d on all-black input", i)
		}
	}
	for i := range pl.Dual.H.Data {
		if pl.Dual.H.Data[i] != 0 || pl.Dual.V.Data[i] != 0 {
			t.Fatalf("dual lattice edge at %d on all-black input", i)
		}
	}
	for pix, hist := range pl.TextonHist.Histos {
		sum := float32(0)
		for _, v := range hist.Bins {
			sum += v
		}
		if math.Abs(float64(sum-1)) > 1e-4 {
			t.Fatalf("texton histogram %d mass %f; want 1", pix, sum)
		}
	}
	for pix, hist := range pl.ColorHist.Histos {
		sum := float32(0)
		for _, v := range hist.Bins {
			sum += v
		}
		if math.Abs(float64(sum-1)) > 1e-4 {
			t.Fatalf("color histogram %d mass %f; want 1", pix, sum)
		}
	}
	if pl.SparsePattern == nil {
		t.Fatal("no sparse pattern")
	}
}

// scenario: single vertical step edge. The dual lattice's H edges at
// the step carry values near 1 for interior rows; V edges stay low.
func TestRunStepEdge(t *testing.T) {
	w, h := 64, 64
	rgb := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			i := (y*w + x) * 3
			rgb[i], rgb[i+1], rgb[i+2] = 255, 255, 255
		}
	}
	p := testParams()
	var log bytes.Buffer
	pl := New(p, &log)
	if err := pl.Run(rgb, w, h); err != nil {
		t.Fatal(err)
	}

	cw := w - 2*p.NCroppedPixels // cropped width
	step := w/2 - p.NCroppedPixels
	rows, strong := 0, 0
	for y := 8; y < cw-8; y++ {
		rows++
		best := float32(0)
		for x := step - 2; x <= step+1; x++ {
			if v := pl.Dual.H.Data[y*cw+x]; v > best {
				best = v
			}
		}
		if best > 0.8 {
			strong++
		}
	}
	if strong < rows*3/4 {
		t.Errorf("strong H edges on %d/%d interior rows; want at least 3/4", strong, rows)
	}

	// V edges stay quiet compared to the H ridge
	vHigh := 0
	for _, v := range pl.Dual.V.Data {
		if v > 0.5 {
			vHigh++
		}
	}
	if vHigh > len(pl.Dual.V.Data)/50 {
		t.Errorf("%d V edges above 0.5 on a vertical step", vHigh)
	}

	// combined orientation at the step is near vertical
	comb := pl.Combined()
	checked := 0
	for y := 8; y < cw-8; y++ {
		for x := step - 1; x <= step; x++ {
			pix := y*cw + x
			if comb.Max.Data[pix] == 0 {
				continue
			}
			checked++
			if d := math.Abs(float64(comb.Theta.Data[pix]) - math.Pi/2); d > 0.2 {
				t.Errorf("theta %f at (%d,%d); want ~pi/2", comb.Theta.Data[pix], x, y)
			}
		}
	}
	if checked == 0 {
		t.Error("no contour maxima along the step")
	}
}

// scenario: uniform noise. The field reads as texture almost
// everywhere and occupies several textons.
func TestRunNoiseField(t *testing.T) {
	w, h := 64, 64
	rng := fastrand.RNG{}
	rng.Seed(7)
	rgb := make([]uint8, w*h*3)
	for p := 0; p < w*h; p++ {
		v := uint8(rng.Uint32n(256))
		rgb[3*p], rgb[3*p+1], rgb[3*p+2] = v, v, v
	}
	p := testParams()
	var log bytes.Buffer
	pl := New(p, &log)
	if err := pl.Run(rgb, w, h); err != nil {
		t.Fatal(err)
	}

	labels, k := pl.Textons()
	if k < 2 {
		t.Fatalf("noise occupies %d textons; want at least 2", k)
	}
	seen := map[int32]bool{}
	for _, v := range labels.Data {
		seen[v] = true
	}
	if len(seen) < 2 {
		t.Errorf("labels collapse onto %d distinct values", len(seen))
	}

	pTex := pl.PTexture()
	cw := w - 2*p.NCroppedPixels
	interior, high := 0, 0
	for y := 8; y < cw-8; y++ {
		for x := 8; x < cw-8; x++ {
			interior++
			if pTex.Data[y*cw+x] >= 0.9 {
				high++
			}
		}
	}
	if high < interior*95/100 {
		t.Errorf("P_texture >= 0.9 on %d/%d interior pixels; want 95%%", high, interior)
	}
}

// scenario: histogram image file round trip through the pipeline
// output.
func TestRunHistogramRoundTrip(t *testing.T) {
	p := testParams()
	var log bytes.Buffer
	pl := New(p, &log)
	rng := fastrand.RNG{}
	rng.Seed(3)
	w, h := 48, 48
	rgb := make([]uint8, w*h*3)
	for i := range rgb {
		rgb[i] = uint8(rng.Uint32n(256))
	}
	if err := pl.Run(rgb, w, h); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "texton.hist")
	if err := pl.TextonHist.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	back, err := histo.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for pix := range pl.TextonHist.Histos {
		a := pl.TextonHist.Histos[pix].Bins
		b := back.Histos[pix].Bins
		for i := range a {
			if a[i] != b[i] {
				t.Fatalf("pixel %d bin %d: %g != %g after round trip", pix, i, a[i], b[i])
			}
		}
	}
}

func TestRunRejectsBadArguments(t *testing.T) {
	p := testParams()
	p.ColorBinsB = 0
	pl := New(p, nil)
	if err := pl.Run(grayRaster(64, 64, 128), 64, 64); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("zero bins: got %v; want invalid argument", err)
	}

	p = testParams()
	pl = New(p, nil)
	if err := pl.Run(grayRaster(16, 16, 128), 16, 16); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("crop eliminates image: got %v; want invalid argument", err)
	}

	p = testParams()
	pl = New(p, nil)
	if err := pl.Run(grayRaster(20, 20, 128), 20, 20); !errors.Is(err, ErrDegenerateInput) {
		t.Errorf("crop leaves nothing: got %v; want degenerate input", err)
	}
}

func TestExtractRegionFeatures(t *testing.T) {
	w, h := 64, 64
	rgb := make([]uint8, w*h*3)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			i := (y*w + x) * 3
			rgb[i], rgb[i+1], rgb[i+2] = 200, 200, 200
		}
	}
	p := testParams()
	cw := w - 2*p.NCroppedPixels
	segMap := makeSegMap(cw, cw)
	f, err := ExtractRegionFeatures(rgb, w, h, segMap, p, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Counts) != 2 {
		t.Fatalf("got %d regions; want 2", len(f.Counts))
	}
	rows, cols := f.OEMean.Dims()
	if rows != 2 || cols != p.NGaussScales*p.NGaussOrientations {
		t.Errorf("OE means %dx%d; want 2x%d", rows, cols, p.NGaussScales*p.NGaussOrientations)
	}
}

// left half region 1, right half region 2
func makeSegMap(w, h int) *img.Image[int32] {
	segMap := img.New[int32](w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				segMap.Data[y*w+x] = 1
			} else {
				segMap.Data[y*w+x] = 2
			}
		}
	}
	return segMap
}

func TestReleaseCascades(t *testing.T) {
	p := testParams()
	p.KMeansReseed = false
	pl := New(p, nil)
	if err := pl.Run(grayRaster(64, 64, 100), 64, 64); err != nil {
		t.Fatal(err)
	}
	if pl.State("textons") != StateBuilt {
		t.Error("textons stage not built after run")
	}
	pl.Release()
	if pl.State("textons") != StateReleased {
		t.Error("textons stage not released")
	}
	if pl.TextonHist == nil || pl.ColorHist == nil || pl.Dual == nil {
		t.Error("outputs dropped by release")
	}
}
