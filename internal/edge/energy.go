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

// Package edge turns filterbank responses into oriented contour
// evidence: quadrature energy, per-pixel orientation fits, sub-pixel
// localization and the cross-scale combination.
package edge

import (
	"fmt"

	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
)

// How per-channel energies combine when chroma planes are present.
type EnergyMode int

const (
	EnergyLuminance EnergyMode = iota // L channel only
	EnergySumLab                      // sum across L, a, b
	EnergyMaxLab                      // max across L, a, b
)

// OrientationEnergy computes even^2 + odd^2 per (scale, orientation)
// from the L-channel convolution stack. convA and convB may be nil
// unless the mode demands them.
func OrientationEnergy(cfg *filter.Config, conv, convA, convB *img.Seq[float32], mode EnergyMode) *img.Seq[float32] {
	w, h := conv.Width(), conv.Height()
	if mode != EnergyLuminance && (convA == nil || convB == nil) {
		panic("edge: chroma energy mode without chroma convolutions")
	}
	oe := img.NewSeq[float32](cfg.NGaussScales*cfg.NGaussOrientations, w, h)
	for s := 0; s < cfg.NGaussScales; s++ {
		for i := 0; i < cfg.NGaussOrientations; i++ {
			even := conv.Frames[cfg.EvenIndex(s, i)].Data
			odd := conv.Frames[cfg.OddIndex(s, i)].Data
			dst := oe.Frames[s*cfg.NGaussOrientations+i].Data
			switch mode {
			case EnergyLuminance:
				for p := range dst {
					dst[p] = even[p]*even[p] + odd[p]*odd[p]
				}
			case EnergySumLab:
				aEven := convA.Frames[cfg.EvenIndex(s, i)].Data
				aOdd := convA.Frames[cfg.OddIndex(s, i)].Data
				bEven := convB.Frames[cfg.EvenIndex(s, i)].Data
				bOdd := convB.Frames[cfg.OddIndex(s, i)].Data
				for p := range dst {
					dst[p] = even[p]*even[p] + odd[p]*odd[p] +
						aEven[p]*aEven[p] + aOdd[p]*aOdd[p] +
						bEven[p]*bEven[p] + bOdd[p]*bOdd[p]
				}
			case EnergyMaxLab:
				aEven := convA.Frames[cfg.EvenIndex(s, i)].Data
				aOdd := convA.Frames[cfg.OddIndex(s, i)].Data
				bEven := convB.Frames[cfg.EvenIndex(s, i)].Data
				bOdd := convB.Frames[cfg.OddIndex(s, i)].Data
				for p := range dst {
					ssl := even[p]*even[p] + odd[p]*odd[p]
					ssa := aEven[p]*aEven[p] + aOdd[p]*aOdd[p]
					ssb := bEven[p]*bEven[p] + bOdd[p]*bOdd[p]
					ss := ssl
					if ssa > ss {
						ss = ssa
					}
					if ssb > ss {
						ss = ssb
					}
					dst[p] = ss
				}
			default:
				panic(fmt.Sprintf("edge: unknown energy mode %d", mode))
			}
		}
	}
	return oe
}
