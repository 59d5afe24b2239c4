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

package colorconv

import (
	"math"
	"testing"
)

func TestWhitePoint(t *testing.T) {
	l, a, b := RGBToLab([]uint8{255, 255, 255}, 1, 1, DefaultGamma)
	if math.Abs(float64(l.Data[0]-100)) > 1e-3 {
		t.Errorf("L of white = %f; want 100", l.Data[0])
	}
	if math.Abs(float64(a.Data[0])) > 1e-3 || math.Abs(float64(b.Data[0])) > 1e-3 {
		t.Errorf("a,b of white = %f,%f; want 0,0", a.Data[0], b.Data[0])
	}
}

func TestBlack(t *testing.T) {
	l, a, b := RGBToLab([]uint8{0, 0, 0}, 1, 1, DefaultGamma)
	// the knee makes black land slightly above 0, but it stays tiny
	if l.Data[0] < 0 || l.Data[0] > 0.1 {
		t.Errorf("L of black = %f; want ~0", l.Data[0])
	}
	if math.Abs(float64(a.Data[0])) > 1e-3 || math.Abs(float64(b.Data[0])) > 1e-3 {
		t.Errorf("a,b of black = %f,%f; want 0,0", a.Data[0], b.Data[0])
	}
}

func TestGraysHaveZeroChroma(t *testing.T) {
	for v := 0; v < 256; v += 15 {
		_, a, b := RGBToLab([]uint8{uint8(v), uint8(v), uint8(v)}, 1, 1, DefaultGamma)
		if math.Abs(float64(a.Data[0])) > 1e-3 || math.Abs(float64(b.Data[0])) > 1e-3 {
			t.Errorf("gray %d: a,b = %f,%f; want 0,0", v, a.Data[0], b.Data[0])
		}
	}
}

func TestLMatchesLOnlyPath(t *testing.T) {
	rgb := []uint8{10, 200, 45, 128, 0, 255, 90, 90, 17}
	l3, _, _ := RGBToLab(rgb, 3, 1, DefaultGamma)
	l1 := RGBToL(rgb, 3, 1, DefaultGamma)
	for i := range l1.Data {
		if math.Abs(float64(l3.Data[i]-l1.Data[i])) > 1e-4 {
			t.Errorf("pixel %d: L=%f vs L-only=%f", i, l3.Data[i], l1.Data[i])
		}
	}
}

func TestLIsMonotone(t *testing.T) {
	prev := float32(-1)
	for v := 0; v < 256; v += 5 {
		l := RGBToL([]uint8{uint8(v), uint8(v), uint8(v)}, 1, 1, DefaultGamma)
		if l.Data[0] <= prev {
			t.Fatalf("L not monotone at %d: %f <= %f", v, l.Data[0], prev)
		}
		prev = l.Data[0]
	}
}

func TestIsGrayscale(t *testing.T) {
	if !IsGrayscale([]uint8{5, 5, 5, 200, 200, 200}) {
		t.Error("gray buffer reported as color")
	}
	if IsGrayscale([]uint8{5, 5, 6}) {
		t.Error("color buffer reported as gray")
	}
}
