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
	"errors"
	"fmt"
	"io"
	"math"
	"runtime"

	"github.com/dvries/texhist/internal/img"
)

// Filterbank configuration. Per scale there are 2*NGaussOrientations
// oriented kernels (even + odd quadrature pair) plus one DoG at the
// matching scale.
type Config struct {
	NGaussScales       int     `json:"nGaussScales"`
	NGaussOrientations int     `json:"nGaussOrientations"`
	GaussSigmaY        float32 `json:"gaussSigmaY"`
	GaussXToYRatio     float32 `json:"gaussXToYRatio"`
	NDoGScales         int     `json:"nDoGScales"`
	DoGExcitSigma      float32 `json:"dogExcitSigma"`
	DoGInhibRatio1     float32 `json:"dogInhibRatio1"`
	DoGInhibRatio2     float32 `json:"dogInhibRatio2"`
}

// Frame index of the even (phase 0) kernel for (scale, orientation).
func (c *Config) EvenIndex(scale, orientation int) int {
	return 2 * (scale*c.NGaussOrientations + orientation)
}

// Frame index of the odd (Hilbert) kernel for (scale, orientation).
func (c *Config) OddIndex(scale, orientation int) int {
	return c.EvenIndex(scale, orientation) + 1
}

// Frame index of the DoG kernel at the given scale.
func (c *Config) DoGIndex(scale int) int {
	return 2*c.NGaussScales*c.NGaussOrientations + scale
}

func (c *Config) NKernels() int {
	return 2*c.NGaussScales*c.NGaussOrientations + c.NDoGScales
}

// A bank of analytically constructed kernels, ordered
// (scale, orientation, phase) followed by the DoG scales.
type Bank struct {
	Cfg     Config
	Kernels []*Kernel
}

// NewBank synthesizes all kernels for the configuration.
func NewBank(cfg Config) (*Bank, error) {
	if cfg.NGaussScales <= 0 || cfg.NGaussOrientations <= 0 || cfg.NDoGScales < 0 {
		return nil, errors.New("filterbank: scale and orientation counts must be positive")
	}
	if cfg.GaussSigmaY <= 0 || cfg.GaussXToYRatio <= 0 || cfg.DoGExcitSigma <= 0 {
		return nil, errors.New("filterbank: sigmas must be positive")
	}

	b := &Bank{Cfg: cfg, Kernels: make([]*Kernel, 0, cfg.NKernels())}
	for s := 0; s < cfg.NGaussScales; s++ {
		sigmaY := float32(math.Pow(float64(cfg.GaussSigmaY), float64(s)))
		sigmaX := sigmaY * cfg.GaussXToYRatio
		side := Side(max32(sigmaX, sigmaY))
		if side <= 0 {
			return nil, fmt.Errorf("filterbank: non-positive kernel side at scale %d", s)
		}
		for i := 0; i < cfg.NGaussOrientations; i++ {
			theta := float32(math.Pi) * float32(i) / float32(cfg.NGaussOrientations)
			b.Kernels = append(b.Kernels,
				NewGaussKernel(side, sigmaX, sigmaY, 2, theta, false),
				NewGaussKernel(side, sigmaX, sigmaY, 2, theta, true))
		}
	}
	for s := 0; s < cfg.NDoGScales; s++ {
		excit := float32(math.Pow(float64(cfg.DoGExcitSigma), float64(s)))
		inhib1 := excit * cfg.DoGInhibRatio1
		inhib2 := excit * cfg.DoGInhibRatio2
		side := Side(max32(excit, max32(inhib1, inhib2)))
		if side <= 0 {
			return nil, fmt.Errorf("filterbank: non-positive DoG side at scale %d", s)
		}
		b.Kernels = append(b.Kernels, NewDoGKernel(side, excit, inhib1, inhib2))
	}
	return b, nil
}

// Convolve runs every kernel over the input plane with reflected
// borders, returning one full-size response frame per kernel.
// Kernels run concurrently across the worker budget.
func (b *Bank) Convolve(in *img.Image[float32], workers int, logWriter io.Writer) *img.Seq[float32] {
	out := img.NewSeq[float32](len(b.Kernels), in.ROIWidth(), in.ROIHeight())
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	sem := make(chan bool, workers)
	for i := range b.Kernels {
		sem <- true
		go func(i int) {
			defer func() { <-sem }()
			k := b.Kernels[i]
			padded := img.New[float32](in.ROIWidth()+k.Img.Width, in.ROIHeight()+k.Img.Height)
			Reflect(in, padded)
			frame := out.Frames[i]
			Convolve(padded, k.Img, frame)
		}(i)
	}
	for i := 0; i < cap(sem); i++ { // wait for goroutines to finish
		sem <- true
	}
	if logWriter != nil {
		fmt.Fprintf(logWriter, "Convolved %d filterbank kernels over %dx%d pixels\n",
			len(b.Kernels), in.ROIWidth(), in.ROIHeight())
	}
	return out
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
