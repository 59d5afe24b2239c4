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
	"github.com/dvries/texhist/internal/texture"
	"github.com/dvries/texhist/internal/texton"
)

// Params is the full option bundle of the pipeline. The zero value is
// not useful; start from DefaultParams.
type Params struct {
	// filterbank
	NGaussScales       int     `json:"nGaussScales"`
	NGaussOrientations int     `json:"nGaussOrientations"`
	GaussSigmaY        float32 `json:"gaussSigmaY"`
	GaussXToYRatio     float32 `json:"gaussXToYRatio"`
	NDoGScales         int     `json:"nDoGScales"`
	DoGExcitSigma      float32 `json:"dogExcitSigma"`
	DoGInhibRatio1     float32 `json:"dogInhibRatio1"`
	DoGInhibRatio2     float32 `json:"dogInhibRatio2"`

	// input handling
	NCroppedPixels int     `json:"nCroppedPixels"`
	Gamma          float64 `json:"gamma"` // inverse gamma for Lab conversion, <=0 for linear input

	// textons
	WeberConst     float32             `json:"weberConst"`
	KMeansK        int                 `json:"kmeansK"`
	KMeansIters    int                 `json:"kmeansIters"`
	KMeansInit     texton.InitStrategy `json:"kmeansInit"`
	KMeansSubSize  int                 `json:"kmeansSubSize"`
	KMeansJ        int                 `json:"kmeansJ"`
	KMeansReseed   bool                `json:"kmeansReseed"`
	KMeansPrune    bool                `json:"kmeansPrune"`
	KMeansStopFact float32             `json:"kmeansStopFactor"`
	KMeansStopK    int                 `json:"kmeansStopK"`
	KMeansCleanup  bool                `json:"kmeansCleanup"`

	// texture scale and gating
	TextureMinDist    float32 `json:"textureMinDist"`
	TextureMaxDist    float32 `json:"textureMaxDist"`
	TextureAlpha      float32 `json:"textureAlpha"`
	TextureMiddleBand float32 `json:"textureMiddleBand"`
	TextureTau        float32 `json:"textureTau"`
	TextureBeta       float32 `json:"textureBeta"`

	// color histograms
	ColorBinsA     int     `json:"colorBinsA"`
	ColorBinsB     int     `json:"colorBinsB"`
	ColorBinsC     int     `json:"colorBinsC"`
	ColorSoftSigma float32 `json:"colorSoftSigma"`

	// dual lattice
	EdgelLength             float32 `json:"edgelLength"`
	InterveningContourSigma float32 `json:"interveningContourSigma"`

	// sparse pattern
	SparseDenseRadius int                `json:"sparseDenseRadius"`
	SparseMaxRadius   int                `json:"sparseMaxRadius"`
	SparseNSamples    int                `json:"sparseNSamples"`
	SparseLaw         texture.PatternLaw `json:"sparseLaw"`
	SparseHalf        bool               `json:"sparseHalf"`
	SparseCenterOn    bool               `json:"sparseCenterOn"`

	// execution
	Seed    uint32 `json:"seed"`
	Workers int    `json:"workers"` // <=0 means one per CPU
}

// DefaultParams returns the canonical configuration.
func DefaultParams() Params {
	return Params{
		NGaussScales:       4,
		NGaussOrientations: 12,
		GaussSigmaY:        1.41,
		GaussXToYRatio:     3.0,
		NDoGScales:         4,
		DoGExcitSigma:      1.41,
		DoGInhibRatio1:     0.62,
		DoGInhibRatio2:     1.6,

		NCroppedPixels: 10,
		Gamma:          2.2,

		WeberConst:     0.01,
		KMeansK:        36,
		KMeansIters:    30,
		KMeansInit:     texton.InitRandomPoints,
		KMeansSubSize:  0,
		KMeansJ:        20,
		KMeansReseed:   true,
		KMeansPrune:    true,
		KMeansStopFact: 1.1,
		KMeansStopK:    -1,
		KMeansCleanup:  false,

		TextureMinDist:    3.0,
		TextureMaxDist:    0.1,
		TextureAlpha:      1.5,
		TextureMiddleBand: 3.0,
		TextureTau:        0.3,
		TextureBeta:       0.04,

		ColorBinsA:     8,
		ColorBinsB:     8,
		ColorBinsC:     8,
		ColorSoftSigma: 1.8,

		EdgelLength:             2.0,
		InterveningContourSigma: 0.016,

		SparseDenseRadius: 10,
		SparseMaxRadius:   30,
		SparseNSamples:    400,
		SparseLaw:         texture.LawDefault,
		SparseHalf:        true,
		SparseCenterOn:    true,

		Seed:    0,
		Workers: 0,
	}
}
