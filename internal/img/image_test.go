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

package img

import (
	"math"
	"testing"

	"github.com/valyala/fastrand"
)

func TestReflectRoundTrip(t *testing.T) {
	rng := fastrand.RNG{}
	rng.Seed(1)
	rois := [][4]int{
		{3, 13, 3, 11},
		{5, 11, 2, 12},
		{4, 12, 7, 14},
	}
	for _, roi := range rois {
		im := New[float32](16, 16)
		im.ChangeROI(roi[0], roi[1], roi[2], roi[3])
		orig := make([]float32, im.ROISize())
		for i := range orig {
			orig[i] = float32(rng.Uint32n(1000))
		}
		im.CopyFromBuf(orig)
		im.ReflectToROI()

		got := make([]float32, im.ROISize())
		im.CopyToBuf(got)
		for i := range orig {
			if got[i] != orig[i] {
				t.Fatalf("roi %v: pixel %d changed from %f to %f", roi, i, orig[i], got[i])
			}
		}
	}
}

func TestReflectMirrorsEdges(t *testing.T) {
	im := New[float32](6, 6)
	im.ChangeROI(2, 4, 2, 4)
	im.CopyFromBuf([]float32{1, 2, 3, 4})
	im.ReflectToROI()

	// left margin mirrors the first ROI columns
	if im.Pix(1, 2) != 1 || im.Pix(0, 2) != 2 {
		t.Errorf("left mirror got %f %f; want 1 2", im.Pix(1, 2), im.Pix(0, 2))
	}
	// top margin mirrors the first ROI rows
	if im.Pix(2, 1) != 1 || im.Pix(2, 0) != 3 {
		t.Errorf("top mirror got %f %f; want 1 3", im.Pix(2, 1), im.Pix(2, 0))
	}
	// top-left corner mirrors diagonally
	if im.Pix(1, 1) != 1 || im.Pix(0, 0) != 4 {
		t.Errorf("corner mirror got %f %f; want 1 4", im.Pix(1, 1), im.Pix(0, 0))
	}
}

func TestChangeRangeConstant(t *testing.T) {
	im := New[float32](4, 4)
	im.SetROIVal(7)
	ChangeRange(im, 0, 1)
	for _, v := range im.Data {
		if v != 0.5 {
			t.Fatalf("constant image rescaled to %f; want midpoint 0.5", v)
		}
	}
}

func TestChangeRange(t *testing.T) {
	im := New[float32](2, 2)
	copy(im.Data, []float32{0, 1, 2, 4})
	ChangeRange(im, 0, 1)
	want := []float32{0, 0.25, 0.5, 1}
	for i, v := range im.Data {
		if math.Abs(float64(v-want[i])) > 1e-6 {
			t.Errorf("pixel %d got %f; want %f", i, v, want[i])
		}
	}
}

func TestLogSentinel(t *testing.T) {
	im := New[float32](2, 1)
	copy(im.Data, []float32{-1, float32(math.E) - 1})
	LogZ(im, 1)
	if im.Data[0] != LogSentinel {
		t.Errorf("log of non-positive got %g; want sentinel", im.Data[0])
	}
	if math.Abs(float64(im.Data[1]-1)) > 1e-6 {
		t.Errorf("log(e) got %f; want 1", im.Data[1])
	}
}

func TestFixThetaRange(t *testing.T) {
	pi := float32(math.Pi)
	cases := []struct{ in, want float32 }{
		{-0.5, pi - 0.5},
		{pi + 0.25, 0.25},
		{2*pi + 0.1, 0.1},
		{0.3, 0.3},
	}
	for _, c := range cases {
		got := FixThetaRange(c.in, true)
		if math.Abs(float64(got-c.want)) > 1e-5 {
			t.Errorf("FixThetaRange(%f) = %f; want %f", c.in, got, c.want)
		}
		if got < 0 || got >= pi {
			t.Errorf("FixThetaRange(%f) = %f outside [0,pi)", c.in, got)
		}
	}
}

func TestExtractPad(t *testing.T) {
	src := New[float32](3, 3)
	copy(src.Data, []float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	dst := New[float32](5, 5)
	src.Pad(dst, 1, 1, -1)
	if dst.Pix(0, 0) != -1 || dst.Pix(4, 4) != -1 {
		t.Error("pad fill not applied")
	}
	if dst.Pix(1, 1) != 1 || dst.Pix(3, 3) != 9 {
		t.Errorf("pad payload wrong: %f %f", dst.Pix(1, 1), dst.Pix(3, 3))
	}

	sub := New[float32](3, 3)
	dst.ChangeROI(1, 4, 1, 4)
	dst.Extract(sub, 0, 0)
	for i := range sub.Data {
		if sub.Data[i] != src.Data[i] {
			t.Fatalf("extract pixel %d got %f; want %f", i, sub.Data[i], src.Data[i])
		}
	}
}

func TestByteFloatConversion(t *testing.T) {
	b := New[uint8](2, 1)
	b.Data[0], b.Data[1] = 0, 255
	f := ByteToFloat(b, true)
	if f.Data[0] != 0 || f.Data[1] != 1 {
		t.Errorf("byte to float got %f %f; want 0 1", f.Data[0], f.Data[1])
	}
	b2 := FloatToByte(f, true)
	if b2.Data[0] != 0 || b2.Data[1] != 255 {
		t.Errorf("float to byte got %d %d; want 0 255", b2.Data[0], b2.Data[1])
	}
}
