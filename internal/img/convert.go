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

// Convert a byte image ROI into a new float image. With rescale set,
// values map from [0,255] onto [0,1].
func ByteToFloat(in *Image[uint8], rescale bool) *Image[float32] {
	out := New[float32](in.ROIWidth(), in.ROIHeight())
	factor := float32(1)
	if rescale {
		factor = 1.0 / 255.0
	}
	i := 0
	for y := in.StartY; y < in.EndY; y++ {
		off := y * in.Width
		for x := in.StartX; x < in.EndX; x++ {
			out.Data[i] = float32(in.Data[off+x]) * factor
			i++
		}
	}
	return out
}

// Convert a float image ROI into a new byte image. With rescale set, the
// value range maps onto [0,255]; otherwise values clip at 0 and 255.
func FloatToByte(in *Image[float32], rescale bool) *Image[uint8] {
	out := New[uint8](in.ROIWidth(), in.ROIHeight())
	min, max := in.MinMax()
	factor := float32(1)
	offset := float32(0)
	if rescale {
		if max > min {
			factor = 255.0 / (max - min)
		}
		offset = min
	}
	i := 0
	for y := in.StartY; y < in.EndY; y++ {
		off := y * in.Width
		for x := in.StartX; x < in.EndX; x++ {
			v := (in.Data[off+x] - offset) * factor
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Data[i] = uint8(v + 0.5)
			i++
		}
	}
	return out
}
