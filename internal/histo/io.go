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

package histo

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Self-describing dump of a histogram image: ASCII header lines
// (width, height, the three per-axis bin counts, then six per-axis
// range floats, one value per line), followed by height rows of
// width*nBins little-endian float32. Absent axes write zero bins and
// collapse to 1 in the product.

// Write streams the image to w.
func (hi *HistogramImage) Write(w io.Writer) error {
	first, err := hi.checkUniform()
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	for _, n := range []int{hi.Width, hi.Height, first.X.NBins, first.Y.NBins, first.Z.NBins} {
		if _, err := fmt.Fprintf(bw, "%d\n", n); err != nil {
			return err
		}
	}
	for _, f := range []float32{first.X.Min, first.X.Max, first.Y.Min, first.Y.Max, first.Z.Min, first.Z.Max} {
		if _, err := fmt.Fprintf(bw, "%g\n", f); err != nil {
			return err
		}
	}

	row := make([]float32, hi.Width*first.NBins())
	for y := 0; y < hi.Height; y++ {
		i := 0
		for x := 0; x < hi.Width; x++ {
			i += copy(row[i:], hi.Histos[y*hi.Width+x].Bins)
		}
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile dumps the image to the named file.
func (hi *HistogramImage) WriteFile(fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	defer f.Close()
	return hi.Write(f)
}

func readHeaderLine(br *bufio.Reader) (string, error) {
	line, err := br.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("histo: truncated header: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// Read parses a histogram image dump. Bad headers and truncated blobs
// return an error with no partial result.
func Read(r io.Reader) (*HistogramImage, error) {
	br := bufio.NewReader(r)
	ints := make([]int, 5)
	for i := range ints {
		line, err := readHeaderLine(br)
		if err != nil {
			return nil, err
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("histo: bad header integer %q", line)
		}
		ints[i] = v
	}
	floats := make([]float32, 6)
	for i := range floats {
		line, err := readHeaderLine(br)
		if err != nil {
			return nil, err
		}
		v, err := strconv.ParseFloat(line, 32)
		if err != nil {
			return nil, fmt.Errorf("histo: bad header float %q", line)
		}
		floats[i] = float32(v)
	}

	width, height := ints[0], ints[1]
	nx, ny, nz := ints[2], ints[3], ints[4]
	if width <= 0 || height <= 0 || nx <= 0 || ny < 0 || nz < 0 {
		return nil, fmt.Errorf("histo: invalid dimensions %dx%d bins (%d,%d,%d)", width, height, nx, ny, nz)
	}

	build := func() *Histogram {
		switch {
		case ny > 0 && nz > 0:
			return New3D(nx, ny, nz, floats[0], floats[1], floats[2], floats[3], floats[4], floats[5])
		case ny > 0:
			return New2D(nx, ny, floats[0], floats[1], floats[2], floats[3])
		default:
			h := New1D(nx, floats[0], floats[1])
			h.X.Min, h.X.Max = floats[0], floats[1]
			return h
		}
	}

	hi := NewImage(width, height, build)
	nBins := hi.Histos[0].NBins()
	row := make([]float32, width*nBins)
	for y := 0; y < height; y++ {
		if err := binary.Read(br, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("histo: truncated blob at row %d: %w", y, err)
		}
		i := 0
		for x := 0; x < width; x++ {
			copy(hi.Histos[y*width+x].Bins, row[i:i+nBins])
			i += nBins
		}
	}
	return hi, nil
}

// ReadFile parses a histogram image dump from the named file.
func ReadFile(fileName string) (*HistogramImage, error) {
	f, err := os.Open(fileName)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
