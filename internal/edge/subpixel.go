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

package edge

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
)

const (
	epsilon = 1e-9

	// offsets beyond half a pixel (plus slack) mean the maximum
	// belongs to a neighbor
	maxSubpixOffset = 0.51

	// minimum interpolated energy for a believable maximum
	minRhoStar = 1e-8

	// fraction of the per-scale energy peak below which maxima are
	// culled
	rhoCullFraction = 0.001
)

// SubpixelLocalize runs the second localization stage over the contours
// of every scale: it re-reads the 3x3 energy neighborhood at the fitted
// orientation, fits the quadratic ridge model along the gradient, and
// accepts pixels whose sub-pixel offset stays inside the pixel. Rho is
// rewritten with the energy interpolated at theta*; Max, XLoc, YLoc and
// Err are filled. Theta frames are canonicalized to [0,pi) afterwards.
func SubpixelLocalize(cfg *filter.Config, oe *img.Seq[float32], c *Contours, workers int) {
	w, h := oe.Width(), oe.Height()

	for s := 0; s < cfg.NGaussScales; s++ {
		maxFrame := c.Max.Frames[s].Data
		rho := c.Rho.Frames[s].Data
		theta := c.Theta.Frames[s].Data
		thetaIdx := c.ThetaIdx.Frames[s].Data
		xloc := c.XLoc.Frames[s].Data
		yloc := c.YLoc.Frames[s].Data
		errMap := c.Err.Frames[s].Data

		scaleMax := make([]float32, 0)
		var mu sync.Mutex
		scale := s
		img.ParallelRows(h, workers, func(y0, y1 int) {
			localMax := float32(math.Inf(-1))

			aMat := mat.NewDense(9, 3, nil)
			lsqr := mat.NewDense(3, 9, nil)
			yVec := mat.NewVecDense(9, nil)
			res := mat.NewVecDense(3, nil)
			est := mat.NewVecDense(9, nil)

			for y := y0; y < y1; y++ {
				for x := 0; x < w; x++ {
					p := y*w + x
					if y == 0 || x == 0 || y == h-1 || x == w-1 {
						xloc[p], yloc[p], errMap[p] = 0, 0, 0
						maxFrame[p] = 0
						theta[p] = 0
						continue
					}

					thetaStar := theta[p]
					fixed := img.FixThetaRange(thetaStar, true)
					cos := float32(math.Cos(float64(fixed)))
					sin := float32(math.Sin(float64(fixed)))

					_, _, prevTheta, centerTheta, nextTheta, _, _, _ :=
						thetaTriple(oe, cfg.NGaussOrientations, scale, int(thetaIdx[p]), p)

					// evaluation abscissa of the per-sample
					// parabola, prev/center/next at -1/0/1
					halfSpan := float64(nextTheta-prevTheta) * 0.5
					xn := (float64(thetaStar) - float64(centerTheta)) / halfSpan

					beta := 2*sin*sin*cos*cos + 1
					detRecip := 1 / (18*float64(beta) - 12 + epsilon)

					sumNumer, sumDenom := float64(0), float64(0)
					aHatSum := float64(0)
					i := 0
					for yy := -1; yy <= 1; yy++ {
						for xx := -1; xx <= 1; xx++ {
							q := p + yy*w + xx
							di := float64(yy)*float64(cos) - float64(xx)*float64(sin)
							diSqr := di * di

							_, _, _, _, _, pOE, cOE, nOE :=
								thetaTriple(oe, cfg.NGaussOrientations, scale, int(thetaIdx[p]), q)
							pa, pb, pc := parabolaCoeffs(-1, float64(pOE), 0, float64(cOE), 1, float64(nOE))
							yi := pa*xn*xn + pb*xn + pc

							if xx == 0 && yy == 0 {
								rho[p] = float32(yi)
								if rho[p] > localMax {
									localMax = rho[p]
								}
							}

							yVec.SetVec(i, yi)
							aMat.Set(i, 0, 1)
							aMat.Set(i, 1, di)
							aMat.Set(i, 2, diSqr)
							lsqr.Set(0, i, (3*diSqr-2)*detRecip)
							lsqr.Set(1, i, (3*float64(beta)-2)*di*detRecip)
							lsqr.Set(2, i, (-2*diSqr+2*float64(beta))*detRecip)

							aHatSum += yi * (3*diSqr - 2)
							sumNumer += di * yi
							sumDenom += (3*diSqr - 2) * yi
							i++
						}
					}
					aHatSum *= detRecip

					delta := -0.5 * (3*float64(beta) - 2) * sumNumer / (sumDenom + epsilon)

					res.MulVec(lsqr, yVec)
					est.MulVec(aMat, res)
					estNorm := mat.Norm(est, 2)
					obsNorm := mat.Norm(yVec, 2)
					normErr := float32(1)
					if obsNorm > 0 {
						normErr = float32(1 - estNorm/obsNorm)
					}

					errMap[p] = normErr
					xloc[p] = -sin * float32(delta)
					yloc[p] = cos * float32(delta)

					// a maximum with a collapsed offset carries no
					// localizable edge
					if rho[p] != 0 && xloc[p] == 0 && yloc[p] == 0 {
						rho[p] = 0
					}

					if abs32(xloc[p]) <= maxSubpixOffset &&
						abs32(yloc[p]) <= maxSubpixOffset &&
						rho[p] > minRhoStar &&
						aHatSum < 0 {
						maxFrame[p] = 255
					} else {
						xloc[p], yloc[p] = 0, 0
						maxFrame[p] = 0
						theta[p] = 0
					}
				}
			}
			mu.Lock()
			scaleMax = append(scaleMax, localMax)
			mu.Unlock()
		})

		peak := float32(math.Inf(-1))
		for _, v := range scaleMax {
			if v > peak {
				peak = v
			}
		}
		// cull low-energy maxima against the per-scale peak
		thresh := peak * rhoCullFraction
		for p := range maxFrame {
			if maxFrame[p] != 0 && rho[p] <= thresh {
				maxFrame[p] = 0
			}
		}
	}

	for s := 0; s < cfg.NGaussScales; s++ {
		img.FixThetaRanges(c.Theta.Frames[s], true)
	}
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
