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

// Package colorhisto builds the per-pixel color histogram image: a
// soft joint Lab histogram over each pixel's adaptive disc, or a 1-D
// luminance histogram for grayscale input.
package colorhisto

import (
	"math"

	"github.com/dvries/texhist/internal/histo"
	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/texture"
)

// Options for the color histogram image.
type Options struct {
	BinsA, BinsB, BinsC int
	SoftSigma           float32 // in bin widths
	Workers             int
}

// Compute3D accumulates the joint (L,a,b) histogram per pixel. Axis
// ranges come from the actual min/max of each input plane. Every
// histogram normalizes to unit mass.
func Compute3D(masks *texture.CircleMasks, scaleRadii *img.Image[float32],
	l, a, b *img.Image[float32], opt Options) *histo.HistogramImage {

	w, h := l.Width, l.Height
	if a.Width != w || b.Width != w || scaleRadii.Width != w {
		panic("colorhisto: plane sizes disagree")
	}

	minL, maxL := l.MinMax()
	minA, maxA := a.MinMax()
	minB, maxB := b.MinMax()

	padding := masks.MaxRad
	pw := w + 2*padding
	padL := img.New[float32](pw, h+2*padding)
	img.ReflectInto(l, padL)
	padA := img.New[float32](pw, h+2*padding)
	img.ReflectInto(a, padA)
	padB := img.New[float32](pw, h+2*padding)
	img.ReflectInto(b, padB)

	out := histo.NewImage(w, h, func() *histo.Histogram {
		return histo.New3D(opt.BinsA, opt.BinsB, opt.BinsC,
			minL, maxL, minA, maxA, minB, maxB)
	})

	img.ParallelRows(h, opt.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				rad := int(scaleRadii.Data[p])
				mask := masks.Mask(rad)
				hist := out.Histos[p]

				centerOff := (y+padding)*pw + (x + padding)
				mi := 0
				for yy := -rad; yy <= rad; yy++ {
					rowOff := centerOff + yy*pw
					for xx := -rad; xx <= rad; xx++ {
						if mask.Data[mi] != 0 {
							hist.SoftUpdate3D(padL.Data[rowOff+xx], padA.Data[rowOff+xx],
								padB.Data[rowOff+xx], opt.SoftSigma)
						}
						mi++
					}
				}
				hist.Normalize(1)
			}
		}
	})
	return out
}

// Compute1D accumulates the luminance-only histogram per pixel, used
// for grayscale input. The single remaining axis gets 1.5x the bin
// count and the square root of the soft-binning sigma.
func Compute1D(masks *texture.CircleMasks, scaleRadii *img.Image[float32],
	l *img.Image[float32], opt Options) *histo.HistogramImage {

	w, h := l.Width, l.Height
	if scaleRadii.Width != w || scaleRadii.Height != h {
		panic("colorhisto: plane sizes disagree")
	}
	minL, maxL := l.MinMax()
	nBins := int(float32(opt.BinsA) * 1.5)
	sigma := float32(math.Sqrt(float64(opt.SoftSigma)))

	padding := masks.MaxRad
	pw := w + 2*padding
	padL := img.New[float32](pw, h+2*padding)
	img.ReflectInto(l, padL)

	out := histo.NewImage(w, h, func() *histo.Histogram {
		return histo.New1D(nBins, minL, maxL)
	})

	img.ParallelRows(h, opt.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				rad := int(scaleRadii.Data[p])
				mask := masks.Mask(rad)
				hist := out.Histos[p]

				centerOff := (y+padding)*pw + (x + padding)
				mi := 0
				for yy := -rad; yy <= rad; yy++ {
					rowOff := centerOff + yy*pw
					for xx := -rad; xx <= rad; xx++ {
						if mask.Data[mi] != 0 {
							hist.SoftUpdate1D(padL.Data[rowOff+xx], sigma)
						}
						mi++
					}
				}
				hist.Normalize(1)
			}
		}
	})
	return out
}

// Compute2D accumulates the chroma-only (a,b) histogram per pixel via
// the pre-baked Gaussian window path.
func Compute2D(masks *texture.CircleMasks, scaleRadii *img.Image[float32],
	a, b *img.Image[float32], opt Options) *histo.HistogramImage {

	w, h := a.Width, a.Height
	if b.Width != w || scaleRadii.Width != w {
		panic("colorhisto: plane sizes disagree")
	}
	minA, maxA := a.MinMax()
	minB, maxB := b.MinMax()

	padding := masks.MaxRad
	pw := w + 2*padding
	padA := img.New[float32](pw, h+2*padding)
	img.ReflectInto(a, padA)
	padB := img.New[float32](pw, h+2*padding)
	img.ReflectInto(b, padB)

	patches := histo.NewPatches(opt.SoftSigma)
	out := histo.NewImage(w, h, func() *histo.Histogram {
		return histo.New2D(opt.BinsA, opt.BinsB, minA, maxA, minB, maxB)
	})

	img.ParallelRows(h, opt.Workers, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			for x := 0; x < w; x++ {
				p := y*w + x
				rad := int(scaleRadii.Data[p])
				mask := masks.Mask(rad)
				hist := out.Histos[p]

				centerOff := (y+padding)*pw + (x + padding)
				mi := 0
				for yy := -rad; yy <= rad; yy++ {
					rowOff := centerOff + yy*pw
					for xx := -rad; xx <= rad; xx++ {
						if mask.Data[mi] != 0 {
							hist.SoftUpdate2DPatch(padA.Data[rowOff+xx], padB.Data[rowOff+xx], patches)
						}
						mi++
					}
				}
				hist.Normalize(1)
			}
		}
	})
	return out
}
