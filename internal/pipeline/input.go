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
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/tiff"
)

// LoadRGB decodes a JPEG, PNG or TIFF file into an interleaved 8-bit
// RGB buffer. Grayscale files come out with equal channels and are
// detected downstream.
func LoadRGB(fileName string) (rgb []uint8, width, height int, err error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decoding %s: %w", fileName, err)
	}

	bounds := src.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	rgb = make([]uint8, width*height*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			rgb[i] = uint8(r >> 8)
			rgb[i+1] = uint8(g >> 8)
			rgb[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return rgb, width, height, nil
}

// FromImage converts a decoded image into the interleaved RGB buffer
// the pipeline consumes.
func FromImage(src image.Image) (rgb []uint8, width, height int) {
	bounds := src.Bounds()
	width, height = bounds.Dx(), bounds.Dy()
	rgb = make([]uint8, width*height*3)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := src.At(x, y).RGBA()
			rgb[i] = uint8(r >> 8)
			rgb[i+1] = uint8(g >> 8)
			rgb[i+2] = uint8(b >> 8)
			i += 3
		}
	}
	return rgb, width, height
}
