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
	"fmt"

	"github.com/dvries/texhist/internal/img"
)

// marginsOK reports whether the ROI of in sits far enough from the buffer
// edges to convolve with a kernel of the given size. The anchor pixel is
// at floor(side/2), below or right of center for even sides.
func marginsOK(in *img.Image[float32], kw, kh int) bool {
	above := kh / 2
	below := kh - above - 1
	left := kw / 2
	right := kw - left - 1
	return in.StartY >= above &&
		in.Height-in.EndY >= below &&
		in.StartX >= left &&
		in.Width-in.EndX >= right
}

// Convolve computes the dense inner product of the kernel with the
// neighborhood of every ROI pixel of in, writing into the matching ROI
// of out. in must have been padded so the kernel never leaves the
// buffer; violating the margin is a bug.
func Convolve(in *img.Image[float32], kernel *img.Image[float32], out *img.Image[float32]) {
	if !marginsOK(in, kernel.Width, kernel.Height) {
		panic(fmt.Sprintf("filter: ROI margins too small for %dx%d kernel", kernel.Width, kernel.Height))
	}
	if out.ROIWidth() != in.ROIWidth() || out.ROIHeight() != in.ROIHeight() {
		panic("filter: output ROI does not match input ROI")
	}

	kxBegin := -kernel.Width / 2
	kxEnd := kxBegin + kernel.Width
	kyBegin := -kernel.Height / 2
	kyEnd := kyBegin + kernel.Height
	inW := in.Width

	for y := 0; y < in.ROIHeight(); y++ {
		inOff := (in.StartY+y)*inW + in.StartX
		outOff := (out.StartY+y)*out.Width + out.StartX
		for x := 0; x < in.ROIWidth(); x++ {
			ki := 0
			acc := float32(0)
			for ky := kyBegin; ky < kyEnd; ky++ {
				rowOff := inOff + x + ky*inW
				for kx := kxBegin; kx < kxEnd; kx++ {
					acc += kernel.Data[ki] * in.Data[rowOff+kx]
					ki++
				}
			}
			out.Data[outOff+x] = acc
		}
	}
}

// Reflect centers the ROI of in inside out, sets out's ROI to exactly
// cover it, and mirrors the payload into the margins.
func Reflect[T img.Pixel](in, out *img.Image[T]) {
	img.ReflectInto(in, out)
}

