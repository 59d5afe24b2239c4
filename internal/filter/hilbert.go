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
	"gonum.org/v1/gonum/dsp/fourier"
)

// Hilbert replaces a with the imaginary part of its analytic signal.
// The signal is zero-padded to the next power of two, transformed,
// positive frequencies doubled, negative frequencies zeroed, and
// transformed back. Used during kernel synthesis to build the odd
// quadrature partner of the even filters.
func Hilbert(a []float32) {
	n := len(a)
	if n < 2 {
		for i := range a {
			a[i] = 0
		}
		return
	}
	nfft := 1
	for nfft < n {
		nfft <<= 1
	}

	seq := make([]complex128, nfft)
	for i, v := range a {
		seq[i] = complex(float64(v), 0)
	}

	fft := fourier.NewCmplxFFT(nfft)
	coeff := fft.Coefficients(nil, seq)
	for i := 1; i < nfft/2; i++ {
		coeff[i] *= 2
	}
	for i := nfft/2 + 1; i < nfft; i++ {
		coeff[i] = 0
	}
	seq = fft.Sequence(nil, coeff)

	scale := 1 / float64(nfft) // Sequence is the unnormalized inverse
	for i := 0; i < n; i++ {
		a[i] = float32(imag(seq[i]) * scale)
	}
}
