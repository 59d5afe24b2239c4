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
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/tiff"

	"github.com/dvries/texhist/internal/img"
)

// false-color endpoints for the map previews
var (
	previewCold = colorful.Color{R: 0.05, G: 0.05, B: 0.35}
	previewHot  = colorful.Color{R: 0.95, G: 0.85, B: 0.1}
)

// WriteMapJPG renders a float map as a false-color JPEG, blending in
// Luv from cold to hot over the map's value range.
func WriteMapJPG(m *img.Image[float32], fileName string, quality int) error {
	min, max := m.MinMax()
	scale := float64(0)
	if max > min {
		scale = 1 / float64(max-min)
	}
	out := image.NewRGBA(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			t := float64(m.Pix(x, y)-min) * scale
			c := previewCold.BlendLuv(previewHot, t).Clamped()
			out.Set(x, y, color.RGBA{
				R: uint8(c.R*255 + 0.5),
				G: uint8(c.G*255 + 0.5),
				B: uint8(c.B*255 + 0.5),
				A: 255,
			})
		}
	}
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	return jpeg.Encode(f, out, &jpeg.Options{Quality: quality})
}

// WriteMapTIFF16 writes a float map as 16-bit grayscale TIFF, rescaled
// over its value range.
func WriteMapTIFF16(m *img.Image[float32], fileName string) error {
	min, max := m.MinMax()
	scale := float64(0)
	if max > min {
		scale = 65535 / float64(max-min)
	}
	out := image.NewGray16(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			v := float64(m.Pix(x, y)-min) * scale
			out.SetGray16(x, y, color.Gray16{Y: uint16(v + 0.5)})
		}
	}
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	return tiff.Encode(f, out, &tiff.Options{Compression: tiff.Deflate})
}

// WriteMaskPNG writes a byte mask (sparse pattern, maxima map) as an
// 8-bit grayscale PNG.
func WriteMaskPNG(m *img.Image[uint8], fileName string) error {
	out := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			out.SetGray(x, y, color.Gray{Y: m.Pix(x, y)})
		}
	}
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, out)
}
