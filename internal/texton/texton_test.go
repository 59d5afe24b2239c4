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

package texton

import (
	"math"
	"testing"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/img"
)

func TestWeberRescalesPerPixel(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(3)
	w, h, n := 8, 8, 6
	conv := img.NewSeq[float32](n, w, h)
	for _, frame := range conv.Frames {
		for i := range frame.Data {
			frame.Data[i] = float32(rng.Uint32n(2000))/100 - 10
		}
	}
	once := img.NewSeq[float32](n, w, h)
	for f := range conv.Frames {
		copy(once.Frames[f].Data, conv.Frames[f].Data)
	}
	WeberLaw(once, 0.01, 1)

	twice := img.NewSeq[float32](n, w, h)
	for f := range conv.Frames {
		copy(twice.Frames[f].Data, once.Frames[f].Data)
	}
	WeberLaw(twice, 0.01, 1)

	// applying the law twice only rescales each pixel's column by a
	// fixed per-pixel factor
	for p := 0; p < w*h; p++ {
		var ratio float64
		for f := 0; f < n; f++ {
			a := float64(once.Frames[f].Data[p])
			b := float64(twice.Frames[f].Data[p])
			if math.Abs(a) < 1e-6 {
				continue
			}
			r := b / a
			if ratio == 0 {
				ratio = r
			} else if math.Abs(r-ratio) > 1e-4*math.Abs(ratio) {
				t.Fatalf("pixel %d frame %d: ratio %f deviates from %f", p, f, r, ratio)
			}
		}
	}
}

func TestWeberCompressesContrast(t *testing.T) {
	conv := img.NewSeq[float32](1, 2, 1)
	conv.Frames[0].Data[0] = 1
	conv.Frames[0].Data[1] = 100
	WeberLaw(conv, 0.01, 1)
	lo, hi := conv.Frames[0].Data[0], conv.Frames[0].Data[1]
	if hi/lo >= 100 {
		t.Errorf("contrast %f not compressed below input contrast 100", hi/lo)
	}
	if lo <= 0 || hi <= 0 {
		t.Errorf("signs not preserved: %f %f", lo, hi)
	}
}

// two tight 2-D blobs; every point must join its blob's cluster
func TestKMeansSeparatesBlobs(t *testing.T) {
	w, h := 8, 4
	p := w * h
	d0 := make([]float32, p)
	d1 := make([]float32, p)
	for i := 0; i < p; i++ {
		if i < p/2 {
			d0[i] = 0 + float32(i%4)*0.01
			d1[i] = 0
		} else {
			d0[i] = 10 + float32(i%4)*0.01
			d1[i] = 10
		}
	}
	labels, k := Cluster([][]float32{d0, d1}, w, h, Options{
		K: 2, MaxIters: 30, ReseedEmpty: true, Seed: 11,
	}, nil)
	if k != 2 {
		t.Fatalf("k = %d; want 2", k)
	}
	first := labels.Data[0]
	for i := 0; i < p/2; i++ {
		if labels.Data[i] != first {
			t.Fatalf("point %d not in first blob cluster", i)
		}
	}
	second := labels.Data[p/2]
	if second == first {
		t.Fatal("blobs merged into one cluster")
	}
	for i := p / 2; i < p; i++ {
		if labels.Data[i] != second {
			t.Fatalf("point %d not in second blob cluster", i)
		}
	}
}

func TestKMeansLabelsInRange(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(5)
	w, h := 16, 16
	p := w * h
	dims := make([][]float32, 3)
	for d := range dims {
		dims[d] = make([]float32, p)
		for i := range dims[d] {
			dims[d][i] = float32(rng.Uint32n(1000)) / 100
		}
	}
	labels, k := Cluster(dims, w, h, Options{K: 8, MaxIters: 20, Seed: 1}, nil)
	if k < 1 || k > 8 {
		t.Fatalf("final k = %d outside [1,8]", k)
	}
	for i, v := range labels.Data {
		if v < 0 || int(v) >= k {
			t.Fatalf("label %d at %d outside [0,%d)", v, i, k)
		}
	}
}

func TestKMeansPruneReducesK(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(9)
	p := 256
	d0 := make([]float32, p)
	for i := range d0 {
		// one tight blob: extra clusters buy almost nothing
		d0[i] = float32(rng.Uint32n(100)) / 1000
	}
	km := NewKMeans([][]float32{d0}, 8, 2)
	km.Init()
	km.IterateMod()
	before := km.NK()
	km.Prune(1.5, 2)
	if km.NK() >= before {
		t.Errorf("prune kept k at %d (was %d)", km.NK(), before)
	}
	if km.NK() < 2 {
		t.Errorf("prune went below the k floor: %d", km.NK())
	}
}

func TestCleanup2DMajority(t *testing.T) {
	// a single dissenting pixel surrounded by another label flips
	w, h := 4, 4
	d0 := make([]float32, w*h)
	for i := range d0 {
		d0[i] = 0
	}
	d0[5] = 10 // interior pixel far from the rest
	km := NewKMeans([][]float32{d0}, 2, 4)
	km.Init()
	km.IterateMod()
	km.Cleanup2D(w, h)
	want := km.ptCluster[0]
	if km.ptCluster[5] != want {
		t.Errorf("majority filter kept dissenting label %d; want %d", km.ptCluster[5], want)
	}
}
