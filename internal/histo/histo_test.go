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
	"bytes"
	"math"
	"testing"

	"github.com/valyala/fastrand"
)

func TestNormalizeUnitMass(t *testing.T) {
	h := New1D(10, 0, 1)
	h.SoftUpdate1D(0.4, 1.8)
	h.SoftUpdate1D(0.9, 1.8)
	h.Normalize(1)
	sum := float32(0)
	for _, v := range h.Bins {
		if v < 0 {
			t.Fatalf("negative bin %f", v)
		}
		sum += v
	}
	if math.Abs(float64(sum-1)) > 1e-5 {
		t.Errorf("normalized mass %f; want 1", sum)
	}
}

func TestNormalizeEmptyStaysZero(t *testing.T) {
	h := New1D(5, 0, 1)
	h.Normalize(1)
	for i, v := range h.Bins {
		if v != 0 {
			t.Errorf("bin %d became %f on empty normalize", i, v)
		}
	}
}

func TestChiSquareRange(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(13)
	for trial := 0; trial < 100; trial++ {
		a := New1D(16, 0, 1)
		b := New1D(16, 0, 1)
		for i := range a.Bins {
			a.Bins[i] = float32(rng.Uint32n(100))
			b.Bins[i] = float32(rng.Uint32n(100))
		}
		a.Normalize(1)
		b.Normalize(1)
		chi := a.ChiSquare(b)
		if chi < 0 || chi > 1 {
			t.Fatalf("trial %d: chi-square %f outside [0,1]", trial, chi)
		}
	}
}

func TestChiSquareIdenticalAndDisjoint(t *testing.T) {
	a := New1D(4, 0, 1)
	b := New1D(4, 0, 1)
	a.Bins[0], a.Bins[1] = 1, 3
	b.Bins[0], b.Bins[1] = 1, 3
	a.Normalize(1)
	b.Normalize(1)
	if chi := a.ChiSquare(b); chi != 0 {
		t.Errorf("identical histograms scored %f; want 0", chi)
	}

	c := New1D(4, 0, 1)
	d := New1D(4, 0, 1)
	c.Bins[0] = 1
	d.Bins[3] = 1
	if chi := c.ChiSquare(d); math.Abs(float64(chi-1)) > 1e-6 {
		t.Errorf("disjoint histograms scored %f; want 1", chi)
	}
}

func TestChiSquareZeroZeroConvention(t *testing.T) {
	a := New1D(3, 0, 1)
	b := New1D(3, 0, 1)
	// both empty: every bin hits the 0/0 case
	if chi := a.ChiSquare(b); chi != 0 {
		t.Errorf("all-zero pair scored %f; want 0", chi)
	}
}

func TestSoftUpdateCentersMass(t *testing.T) {
	h := New1D(16, 0, 16)
	h.SoftUpdate1D(8, 1.0)
	peak := 0
	for i, v := range h.Bins {
		if v > h.Bins[peak] {
			peak = i
		}
		_ = v
	}
	// factor is (n-1)/range, so value 8 lands at bin coordinate 7.5
	if peak != 7 && peak != 8 {
		t.Errorf("soft vote peaked at %d; want 7 or 8", peak)
	}
}

func TestPatchMatchesDirectPath(t *testing.T) {
	// the five-window fast path quantizes the fractional offset to
	// quarter bins; at sigma 1.8 the deviation per vote stays small
	sigma := float32(1.8)
	p := NewPatches(sigma)
	rng := fastrand.RNG{}
	rng.Seed(77)
	for trial := 0; trial < 50; trial++ {
		vx := float32(rng.Uint32n(1000)) / 1000 * 100
		vy := float32(rng.Uint32n(1000)) / 1000 * 100

		direct := New2D(8, 8, 0, 100, 0, 100)
		fast := New2D(8, 8, 0, 100, 0, 100)
		direct.SoftUpdate2D(vx, vy, sigma)
		fast.SoftUpdate2DPatch(vx, vy, p)

		for i := range direct.Bins {
			diff := math.Abs(float64(direct.Bins[i] - fast.Bins[i]))
			if diff > 0.2 {
				t.Fatalf("trial %d bin %d: direct %f fast %f", trial, i,
					direct.Bins[i], fast.Bins[i])
			}
		}
	}
}

func TestPatchExactAtQuarterOffsets(t *testing.T) {
	sigma := float32(1.8)
	p := NewPatches(sigma)
	// value whose fractional bin coordinate is exactly +0.25
	h := New2D(64, 64, 0, 63, 0, 63)
	direct := New2D(64, 64, 0, 63, 0, 63)
	h.SoftUpdate2DPatch(30.25, 30.25, p)
	direct.SoftUpdate2D(30.25, 30.25, sigma)
	for i := range h.Bins {
		if math.Abs(float64(h.Bins[i]-direct.Bins[i])) > 1e-5 {
			t.Fatalf("bin %d: patch %f direct %f", i, h.Bins[i], direct.Bins[i])
		}
	}
}

func TestHistogramImageRoundTrip(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(99)
	hi := NewImage(5, 4, func() *Histogram { return NewLabeled(7) })
	for _, h := range hi.Histos {
		for i := range h.Bins {
			h.Bins[i] = float32(rng.Uint32n(1000)) / 7
		}
		h.Normalize(1)
	}

	var buf bytes.Buffer
	if err := hi.Write(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if back.Width != hi.Width || back.Height != hi.Height {
		t.Fatalf("dimensions %dx%d; want %dx%d", back.Width, back.Height, hi.Width, hi.Height)
	}
	for p := range hi.Histos {
		for i := range hi.Histos[p].Bins {
			if back.Histos[p].Bins[i] != hi.Histos[p].Bins[i] {
				t.Fatalf("pixel %d bin %d: %g != %g", p, i,
					back.Histos[p].Bins[i], hi.Histos[p].Bins[i])
			}
		}
	}
}

func TestRoundTrip3D(t *testing.T) {
	hi := NewImage(2, 2, func() *Histogram {
		return New3D(3, 4, 5, 0, 1, -2, 2, 10, 20)
	})
	hi.Histos[3].Bins[3*4*5-1] = 0.5
	var buf bytes.Buffer
	if err := hi.Write(&buf); err != nil {
		t.Fatal(err)
	}
	back, err := Read(&buf)
	if err != nil {
		t.Fatal(err)
	}
	h := back.Histos[3]
	if h.Rank != 3 || h.X.NBins != 3 || h.Y.NBins != 4 || h.Z.NBins != 5 {
		t.Fatalf("descriptor lost: rank %d bins (%d,%d,%d)", h.Rank, h.X.NBins, h.Y.NBins, h.Z.NBins)
	}
	if h.Z.Min != 10 || h.Z.Max != 20 {
		t.Errorf("z range (%f,%f); want (10,20)", h.Z.Min, h.Z.Max)
	}
	if h.Bins[3*4*5-1] != 0.5 {
		t.Errorf("payload lost: %f", h.Bins[3*4*5-1])
	}
}

func TestSimilarity(t *testing.T) {
	hi := NewImage(2, 1, func() *Histogram { return NewLabeled(2) })
	hi.Histos[0].Bins[0] = 1
	hi.Histos[1].Bins[1] = 1
	sim := hi.Similarity(0, 0)
	if sim[0] != 1 {
		t.Errorf("self similarity %f; want 1", sim[0])
	}
	if sim[1] != 0 {
		t.Errorf("disjoint similarity %f; want 0", sim[1])
	}
}

func TestReadRejectsTruncation(t *testing.T) {
	hi := NewImage(3, 3, func() *Histogram { return NewLabeled(4) })
	var buf bytes.Buffer
	if err := hi.Write(&buf); err != nil {
		t.Fatal(err)
	}
	short := buf.Bytes()[:buf.Len()-8]
	if _, err := Read(bytes.NewReader(short)); err == nil {
		t.Error("truncated blob accepted")
	}
	if _, err := Read(bytes.NewReader([]byte("12\nnope\n"))); err == nil {
		t.Error("bad header accepted")
	}
}
