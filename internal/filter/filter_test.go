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

package filter

import (
	"math"
	"testing"

	"github.com/dvries/texhist/internal/img"
)

func defaultConfig() Config {
	return Config{
		NGaussScales:       4,
		NGaussOrientations: 12,
		GaussSigmaY:        1.41,
		GaussXToYRatio:     3.0,
		NDoGScales:         4,
		DoGExcitSigma:      1.41,
		DoGInhibRatio1:     0.62,
		DoGInhibRatio2:     1.6,
	}
}

func TestHilbertOfCosine(t *testing.T) {
	// four full periods in a power-of-two length: the transform of
	// cos is exactly sin
	n := 64
	a := make([]float32, n)
	for i := range a {
		a[i] = float32(math.Cos(2 * math.Pi * 4 * float64(i) / float64(n)))
	}
	Hilbert(a)
	for i := range a {
		want := float32(math.Sin(2 * math.Pi * 4 * float64(i) / float64(n)))
		if math.Abs(float64(a[i]-want)) > 1e-4 {
			t.Fatalf("sample %d: got %f want %f", i, a[i], want)
		}
	}
}

func TestHilbertZeroPads(t *testing.T) {
	// non power of two length must not panic and must stay finite
	a := make([]float32, 21)
	for i := range a {
		a[i] = float32(i%5) - 2
	}
	Hilbert(a)
	for i, v := range a {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("sample %d not finite: %f", i, v)
		}
	}
}

func TestKernelNormalization(t *testing.T) {
	bank, err := NewBank(defaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := len(bank.Kernels), bank.Cfg.NKernels(); got != want {
		t.Fatalf("bank has %d kernels; want %d", got, want)
	}
	for i, k := range bank.Kernels {
		sum := float64(0)
		sumAbs := float64(0)
		for _, v := range k.Img.Data {
			sum += float64(v)
			sumAbs += math.Abs(float64(v))
		}
		if math.Abs(sum) > 1e-5 {
			t.Errorf("kernel %d: sum %g exceeds 1e-5", i, sum)
		}
		if math.Abs(sumAbs-1) > 1e-5 {
			t.Errorf("kernel %d: L1 norm %g; want 1", i, sumAbs)
		}
		if k.Img.Width != k.Img.Height || k.Img.Width%2 == 0 {
			t.Errorf("kernel %d: side %dx%d not odd square", i, k.Img.Width, k.Img.Height)
		}
	}
}

func TestRotatedKernelQuarterTurn(t *testing.T) {
	// rotating the even kernel by pi/2 lands exactly on grid points,
	// so it must equal the transpose of the unrotated kernel
	size := 13
	k0 := NewGaussKernel(size, 4.23, 1.41, 2, 0, false)
	k90 := NewGaussKernel(size, 4.23, 1.41, 2, float32(math.Pi/2), false)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a := k90.Img.Pix(x, y)
			b := k0.Img.Pix(y, x)
			if math.Abs(float64(a-b)) > 1e-4 {
				t.Fatalf("(%d,%d): rotated %g vs transposed %g", x, y, a, b)
			}
		}
	}
}

func TestConvolveIdentity(t *testing.T) {
	in := img.New[float32](8, 6)
	for i := range in.Data {
		in.Data[i] = float32(i)
	}
	kernel := img.New[float32](1, 1)
	kernel.Data[0] = 1

	padded := img.New[float32](10, 8)
	Reflect(in, padded)
	out := img.New[float32](8, 6)
	Convolve(padded, kernel, out)

	for i := range in.Data {
		if out.Data[i] != in.Data[i] {
			t.Fatalf("pixel %d: got %f want %f", i, out.Data[i], in.Data[i])
		}
	}
}

func TestConvolveZeroInput(t *testing.T) {
	bank, err := NewBank(Config{
		NGaussScales: 1, NGaussOrientations: 2,
		GaussSigmaY: 1.41, GaussXToYRatio: 3.0,
		NDoGScales: 1, DoGExcitSigma: 1.41,
		DoGInhibRatio1: 0.62, DoGInhibRatio2: 1.6,
	})
	if err != nil {
		t.Fatal(err)
	}
	in := img.New[float32](32, 32)
	out := bank.Convolve(in, 2, nil)
	for f, frame := range out.Frames {
		for i, v := range frame.Data {
			if v != 0 {
				t.Fatalf("frame %d pixel %d: %g on all-black input", f, i, v)
			}
		}
	}
}

func TestBankRejectsBadConfig(t *testing.T) {
	cfg := defaultConfig()
	cfg.GaussSigmaY = 0
	if _, err := NewBank(cfg); err == nil {
		t.Error("zero sigma accepted")
	}
	cfg = defaultConfig()
	cfg.NGaussScales = 0
	if _, err := NewBank(cfg); err == nil {
		t.Error("zero scales accepted")
	}
}
