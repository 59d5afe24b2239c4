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
	"testing"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/img"
)

func TestCircleMasks(t *testing.T) {
	masks := NewCircleMasks(1, 5)
	for rad := 1; rad <= 5; rad++ {
		m := masks.Mask(rad)
		if m.Width != 2*rad+1 || m.Height != 2*rad+1 {
			t.Fatalf("radius %d: mask %dx%d", rad, m.Width, m.Height)
		}
		center := rad*m.Width + rad
		if m.Data[center] != 255 {
			t.Errorf("radius %d: center not set", rad)
		}
		if m.Data[0] != 0 {
			t.Errorf("radius %d: corner set", rad)
		}
		// extremes of the axes lie exactly on the circle
		if m.Pix(0, rad) != 255 || m.Pix(2*rad, rad) != 255 {
			t.Errorf("radius %d: axis extremes not set", rad)
		}
	}
}

func TestCircumPositionsClosedAndUnique(t *testing.T) {
	width := 101
	for rad := 1; rad <= 12; rad++ {
		pos := CircumPositions(rad, width)
		if len(pos) < 8 {
			t.Fatalf("radius %d: only %d circumference pixels", rad, len(pos))
		}
		seen := map[int]bool{}
		for _, p := range pos {
			if seen[p] {
				t.Fatalf("radius %d: offset %d visited twice", rad, p)
			}
			seen[p] = true
			// recover (x,y) from the linear offset; every visited
			// pixel must stay near the circle
			x := ((p % width) + width) % width
			if x > width/2 {
				x -= width
			}
			y := (p - x) / width
			d := math.Hypot(float64(x), float64(y))
			if math.Abs(d-float64(rad)) > 0.75 {
				t.Fatalf("radius %d: pixel (%d,%d) at distance %f", rad, x, y, d)
			}
		}
	}
}

func TestSparsePatternDefaultLawCount(t *testing.T) {
	rng := &fastrand.RNG{}
	rng.Seed(123)
	pat := NewSparsePattern(10, 30, 400, LawDefault, false, true, rng, nil)
	if pat.Width != 61 || pat.Height != 61 {
		t.Fatalf("pattern %dx%d; want 61x61", pat.Width, pat.Height)
	}
	if got := pat.NonzeroCount(); got != 400 {
		t.Errorf("pattern has %d samples; want 400", got)
	}
	// the dense core is fully on
	center := 30*61 + 30
	for y := -3; y <= 3; y++ {
		for x := -3; x <= 3; x++ {
			if pat.Data[center+y*61+x] == 0 {
				t.Fatalf("dense core pixel (%d,%d) off", x, y)
			}
		}
	}
}

func TestSparsePatternHalfAndCenter(t *testing.T) {
	rng := &fastrand.RNG{}
	rng.Seed(5)
	pat := NewSparsePattern(4, 8, 90, LawDefault, true, false, rng, nil)
	center := 8*17 + 8
	for p := 0; p < center; p++ {
		if pat.Data[p] != 0 {
			t.Fatalf("pixel %d before center still set", p)
		}
	}
	if pat.Data[center] != 0 {
		t.Error("center pixel set despite centerOn=false")
	}
}

func TestSparsePatternDeterministicForSeed(t *testing.T) {
	a := &fastrand.RNG{}
	a.Seed(77)
	b := &fastrand.RNG{}
	b.Seed(77)
	p1 := NewSparsePattern(5, 12, 150, LawDefault, false, true, a, nil)
	p2 := NewSparsePattern(5, 12, 150, LawDefault, false, true, b, nil)
	for i := range p1.Data {
		if p1.Data[i] != p2.Data[i] {
			t.Fatal("same seed produced different patterns")
		}
	}
}

func uniformLabels(w, h int, label int32) *img.Image[int32] {
	labels := img.New[int32](w, h)
	for i := range labels.Data {
		labels.Data[i] = label
	}
	return labels
}

func TestPTextureUniformField(t *testing.T) {
	// one texture everywhere: both half-disc tests agree, P near 1
	w, h := 24, 24
	labels := uniformLabels(w, h, 3)
	theta := img.New[float32](w, h)
	radii := img.New[float32](w, h)
	radii.SetROIVal(4)
	masks := NewCircleMasks(1, 5)
	p := ComputePTexture(masks, theta, radii, labels, 8, 3.0, 0.3, 0.04, 1)
	for i, v := range p.Data {
		if v < 0.9 {
			t.Fatalf("pixel %d: P_texture %f on uniform field; want ~1", i, v)
		}
		if v < 0 || v > 1 {
			t.Fatalf("pixel %d: P_texture %f outside [0,1]", i, v)
		}
	}
}

func TestPTextureBoundary(t *testing.T) {
	// two labels split at a vertical seam; on the seam with a vertical
	// contour the halves disagree completely
	w, h := 32, 32
	labels := img.New[int32](w, h)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			labels.Data[y*w+x] = 1
		}
	}
	theta := img.New[float32](w, h)
	theta.SetROIVal(float32(math.Pi / 2)) // vertical contour
	radii := img.New[float32](w, h)
	radii.SetROIVal(5)
	masks := NewCircleMasks(1, 6)
	p := ComputePTexture(masks, theta, radii, labels, 2, 3.0, 0.3, 0.04, 1)

	seam := p.Data[16*w+16]
	if seam > 0.2 {
		t.Errorf("P_texture %f at the seam; want near 0", seam)
	}
	interior := p.Data[16*w+4]
	if interior < 0.9 {
		t.Errorf("P_texture %f deep inside one texture; want near 1", interior)
	}
}

func TestTextonHistoUniformLabels(t *testing.T) {
	w, h := 16, 16
	labels := uniformLabels(w, h, 2)
	radii := img.New[float32](w, h)
	radii.SetROIVal(3)
	pTex := img.New[float32](w, h)
	pTex.SetROIVal(1) // everything is texture
	masks := NewCircleMasks(1, 4)
	hi := ComputeTextonHistoImage(masks, radii, labels, pTex, 5, 1)

	for p, hist := range hi.Histos {
		sum := float32(0)
		for _, v := range hist.Bins {
			sum += v
		}
		if math.Abs(float64(sum-1)) > 1e-5 {
			t.Fatalf("pixel %d: mass %f; want 1", p, sum)
		}
		if hist.Bins[0] != 0 {
			t.Fatalf("pixel %d: bin 0 carries %f with P_texture 1", p, hist.Bins[0])
		}
		if hist.Bins[3] < 0.999 {
			t.Fatalf("pixel %d: label bin carries %f; want ~1", p, hist.Bins[3])
		}
	}
}

func TestTextonHistoContourWeight(t *testing.T) {
	// P_texture 0 everywhere: all mass lands in bin 0
	w, h := 8, 8
	labels := uniformLabels(w, h, 0)
	radii := img.New[float32](w, h)
	radii.SetROIVal(2)
	pTex := img.New[float32](w, h)
	masks := NewCircleMasks(1, 3)
	hi := ComputeTextonHistoImage(masks, radii, labels, pTex, 4, 1)
	for p, hist := range hi.Histos {
		if math.Abs(float64(hist.Bins[0]-1)) > 1e-5 {
			t.Fatalf("pixel %d: bin 0 carries %f; want 1", p, hist.Bins[0])
		}
	}
}
