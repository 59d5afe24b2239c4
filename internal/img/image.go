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
	"fmt"
)

// Pixel is the set of element types images are instantiated with:
// byte masks, int32 label maps and float32 data planes.
type Pixel interface {
	~uint8 | ~int32 | ~float32
}

// A rectangular raster with an explicit region of interest. Data is flat,
// row major, Width*Height elements. The ROI satisfies
// 0 <= StartX <= EndX <= Width and 0 <= StartY <= EndY <= Height; all
// ROI-scoped operations iterate exactly (EndX-StartX)*(EndY-StartY) pixels.
// An Image either owns its buffer or is a view on someone else's.
type Image[T Pixel] struct {
	Width  int
	Height int
	Data   []T

	StartX, EndX int
	StartY, EndY int

	owned bool
}

// Creates an image of the given size with the ROI covering everything.
func New[T Pixel](width, height int) *Image[T] {
	if width < 0 || height < 0 {
		panic(fmt.Sprintf("img: invalid dimensions %dx%d", width, height))
	}
	return &Image[T]{
		Width: width, Height: height,
		Data: make([]T, width*height),
		EndX: width, EndY: height,
		owned: true,
	}
}

// Creates a non-owning view on an existing buffer. The buffer length must
// equal width*height.
func NewFromData[T Pixel](data []T, width, height int) *Image[T] {
	if len(data) != width*height {
		panic(fmt.Sprintf("img: buffer length %d does not match %dx%d", len(data), width, height))
	}
	return &Image[T]{
		Width: width, Height: height,
		Data: data,
		EndX: width, EndY: height,
	}
}

// Deep copy, including the ROI. The copy owns its buffer.
func (im *Image[T]) Clone() *Image[T] {
	out := New[T](im.Width, im.Height)
	copy(out.Data, im.Data)
	out.StartX, out.EndX, out.StartY, out.EndY = im.StartX, im.EndX, im.StartY, im.EndY
	return out
}

func (im *Image[T]) Owned() bool { return im.owned }

func (im *Image[T]) ROIWidth() int  { return im.EndX - im.StartX }
func (im *Image[T]) ROIHeight() int { return im.EndY - im.StartY }
func (im *Image[T]) ROISize() int   { return im.ROIWidth() * im.ROIHeight() }

// Columns to skip when stepping from the end of one ROI row to the start
// of the next.
func (im *Image[T]) ROISkipCols() int { return im.Width - im.ROIWidth() }

func (im *Image[T]) ChangeROI(startX, endX, startY, endY int) {
	if startX < 0 || startY < 0 || endX > im.Width || endY > im.Height ||
		startX > endX || startY > endY {
		panic(fmt.Sprintf("img: ROI [%d,%d)x[%d,%d) outside %dx%d extent",
			startX, endX, startY, endY, im.Width, im.Height))
	}
	im.StartX, im.EndX, im.StartY, im.EndY = startX, endX, startY, endY
}

// Shrink the ROI inwards by n pixels on every side.
func (im *Image[T]) ReduceROI(n int) {
	im.ChangeROI(im.StartX+n, im.EndX-n, im.StartY+n, im.EndY-n)
}

func (im *Image[T]) ResetROI() {
	im.StartX, im.StartY, im.EndX, im.EndY = 0, 0, im.Width, im.Height
}

func (im *Image[T]) Pix(x, y int) T       { return im.Data[y*im.Width+x] }
func (im *Image[T]) SetPix(x, y int, v T) { im.Data[y*im.Width+x] = v }

// Copy pixel values from a buffer of exactly ROI size into the ROI.
func (im *Image[T]) CopyFromBuf(buf []T) {
	if len(buf) != im.ROISize() {
		panic(fmt.Sprintf("img: buffer length %d does not match ROI size %d", len(buf), im.ROISize()))
	}
	i := 0
	for y := im.StartY; y < im.EndY; y++ {
		row := im.Data[y*im.Width+im.StartX : y*im.Width+im.EndX]
		copy(row, buf[i:i+im.ROIWidth()])
		i += im.ROIWidth()
	}
}

// Copy ROI pixel values into a buffer of exactly ROI size.
func (im *Image[T]) CopyToBuf(buf []T) {
	if len(buf) != im.ROISize() {
		panic(fmt.Sprintf("img: buffer length %d does not match ROI size %d", len(buf), im.ROISize()))
	}
	i := 0
	for y := im.StartY; y < im.EndY; y++ {
		row := im.Data[y*im.Width+im.StartX : y*im.Width+im.EndX]
		copy(buf[i:i+im.ROIWidth()], row)
		i += im.ROIWidth()
	}
}

// Fill the complement of the ROI by mirroring ROI contents across each ROI
// edge; the four corner boxes mirror diagonally. The margins must not be
// wider than the ROI itself.
func (im *Image[T]) ReflectToROI() {
	w, d := im.Width, im.Data
	startX2 := im.StartX + im.StartX
	startY2 := im.StartY + im.StartY
	endX2 := im.EndX + im.EndX
	endY2 := im.EndY + im.EndY

	if im.StartX > im.ROIWidth() || im.StartY > im.ROIHeight() ||
		im.Width-im.EndX > im.ROIWidth() || im.Height-im.EndY > im.ROIHeight() {
		panic("img: reflection margin wider than ROI")
	}

	for y := 0; y < im.StartY; y++ { // top rectangle
		src := (startY2 - y - 1) * w
		copy(d[y*w:y*w+w], d[src:src+w])
	}
	for y := im.EndY; y < im.Height; y++ { // bottom rectangle
		src := (endY2 - y - 1) * w
		copy(d[y*w:y*w+w], d[src:src+w])
	}
	for y := im.StartY; y < im.EndY; y++ { // left and right rectangles
		off := y * w
		for x := 0; x < im.StartX; x++ {
			d[off+x] = d[off+startX2-x-1]
		}
		for x := im.EndX; x < im.Width; x++ {
			d[off+x] = d[off+endX2-x-1]
		}
	}
	// corner boxes: both coordinates mirrored
	for y := 0; y < im.StartY; y++ {
		off, src := y*w, (startY2-y-1)*w
		for x := 0; x < im.StartX; x++ {
			d[off+x] = d[src+startX2-x-1]
		}
		for x := im.EndX; x < im.Width; x++ {
			d[off+x] = d[src+endX2-x-1]
		}
	}
	for y := im.EndY; y < im.Height; y++ {
		off, src := y*w, (endY2-y-1)*w
		for x := 0; x < im.StartX; x++ {
			d[off+x] = d[src+startX2-x-1]
		}
		for x := im.EndX; x < im.Width; x++ {
			d[off+x] = d[src+endX2-x-1]
		}
	}
}

// Copy the ROI of im into dst with its top-left ROI corner at (left, top)
// of dst's buffer.
func (im *Image[T]) Extract(dst *Image[T], left, top int) {
	if left < 0 || top < 0 || left+im.ROIWidth() > dst.Width || top+im.ROIHeight() > dst.Height {
		panic("img: extract target outside destination")
	}
	for y := 0; y < im.ROIHeight(); y++ {
		srcOff := (im.StartY+y)*im.Width + im.StartX
		dstOff := (top+y)*dst.Width + left
		copy(dst.Data[dstOff:dstOff+im.ROIWidth()], im.Data[srcOff:srcOff+im.ROIWidth()])
	}
}

// Place the ROI of im into dst at (left, top) and fill the rest of dst
// with the given value.
func (im *Image[T]) Pad(dst *Image[T], left, top int, fill T) {
	for i := range dst.Data {
		dst.Data[i] = fill
	}
	im.Extract(dst, left, top)
}

// Shrink the image to its ROI reduced by n on every side, reallocating.
func (im *Image[T]) Crop(n int) {
	im.ReduceROI(n)
	cropped := New[T](im.ROIWidth(), im.ROIHeight())
	im.CopyToBuf(cropped.Data)
	*im = *cropped
}

// Set every ROI pixel to v.
func (im *Image[T]) SetROIVal(v T) {
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			im.Data[off+x] = v
		}
	}
}

func (im *Image[T]) Zero() {
	var zero T
	for i := range im.Data {
		im.Data[i] = zero
	}
}

// Count of non-zero pixels in the ROI.
func (im *Image[T]) NonzeroCount() int {
	var zero T
	n := 0
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			if im.Data[off+x] != zero {
				n++
			}
		}
	}
	return n
}

// Minimum and maximum over the ROI.
func (im *Image[T]) MinMax() (min, max T) {
	if im.ROISize() == 0 {
		return
	}
	min = im.Data[im.StartY*im.Width+im.StartX]
	max = min
	for y := im.StartY; y < im.EndY; y++ {
		off := y * im.Width
		for x := im.StartX; x < im.EndX; x++ {
			v := im.Data[off+x]
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	return min, max
}

// ReflectInto centers the ROI of in inside out, sets out's ROI to
// exactly cover it, and mirrors the payload into the margins.
func ReflectInto[T Pixel](in, out *Image[T]) {
	widthDiff := out.Width - in.ROIWidth()
	heightDiff := out.Height - in.ROIHeight()
	if widthDiff < 0 || heightDiff < 0 {
		panic("img: reflect target smaller than source")
	}
	out.ChangeROI(widthDiff/2, widthDiff/2+in.ROIWidth(),
		heightDiff/2, heightDiff/2+in.ROIHeight())
	buf := make([]T, in.ROISize())
	in.CopyToBuf(buf)
	out.CopyFromBuf(buf)
	out.ReflectToROI()
}

// A sequence of same-size frames, addressed by index.
type Seq[T Pixel] struct {
	Frames []*Image[T]
}

func NewSeq[T Pixel](n, width, height int) *Seq[T] {
	s := &Seq[T]{Frames: make([]*Image[T], n)}
	for i := range s.Frames {
		s.Frames[i] = New[T](width, height)
	}
	return s
}

func (s *Seq[T]) NFrames() int { return len(s.Frames) }

func (s *Seq[T]) Width() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].Width
}

func (s *Seq[T]) Height() int {
	if len(s.Frames) == 0 {
		return 0
	}
	return s.Frames[0].Height
}
