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

// Package pipeline wires the full perceptual analysis chain: color
// decomposition, filterbank, orientation energy, contour localization,
// textons, texture scale, texture gating, the histogram images and the
// dual lattice.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/colorconv"
	"github.com/dvries/texhist/internal/colorhisto"
	"github.com/dvries/texhist/internal/edge"
	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/histo"
	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/lattice"
	"github.com/dvries/texhist/internal/texscale"
	"github.com/dvries/texhist/internal/texture"
	"github.com/dvries/texhist/internal/texton"
)

var (
	ErrInvalidArgument = errors.New("pipeline: invalid argument")
	ErrDegenerateInput = errors.New("pipeline: degenerate input")
)

// Stage lifecycle. Builds are guarded by assertions on the upstream
// stages; releases cascade once the consumer has pulled the outputs.
type StageState int

const (
	StateNotBuilt StageState = iota
	StateBuilt
	StateReleased
)

type stage int

const (
	stageInput stage = iota
	stageFilterbank
	stageEnergy
	stageContours
	stageCombined
	stageWeber
	stageTextons
	stageScale
	stageMasks
	stagePTexture
	stageTextonHist
	stageColorHist
	stageDual
	stageSparse
	numStages
)

var stageNames = [numStages]string{
	"input", "filterbank", "energy", "contours", "combined", "weber",
	"textons", "scale", "masks", "ptexture", "textonhist", "colorhist",
	"dual", "sparse",
}

// Pipeline owns every intermediate and the final outputs of one run.
// A single instance must not be run by two goroutines at once.
type Pipeline struct {
	Params Params

	logWriter io.Writer
	states    [numStages]StageState

	// intermediates
	color            bool
	inputL           *img.Image[float32]
	inputA, inputB   *img.Image[float32]
	bank             *filter.Bank
	conv             *img.Seq[float32]
	oe               *img.Seq[float32]
	contours         *edge.Contours
	combined         *edge.Combined
	textons          *img.Image[int32]
	nTextons         int
	scale            *texscale.Scale
	masks            *texture.CircleMasks
	pTexture         *img.Image[float32]

	// outputs
	TextonHist    *histo.HistogramImage
	ColorHist     *histo.HistogramImage
	Dual          *lattice.Dual
	SparsePattern *img.Image[uint8]
}

func New(p Params, logWriter io.Writer) *Pipeline {
	if logWriter == nil {
		logWriter = io.Discard
	}
	return &Pipeline{Params: p, logWriter: logWriter}
}

func (pl *Pipeline) State(name string) StageState {
	for i, n := range stageNames {
		if n == name {
			return pl.states[i]
		}
	}
	panic(fmt.Sprintf("pipeline: unknown stage %q", name))
}

func (pl *Pipeline) require(s stage) {
	if pl.states[s] != StateBuilt {
		panic(fmt.Sprintf("pipeline: stage %s required but not built", stageNames[s]))
	}
}

func (pl *Pipeline) built(s stage) {
	if pl.states[s] != StateNotBuilt {
		panic(fmt.Sprintf("pipeline: stage %s built twice", stageNames[s]))
	}
	pl.states[s] = StateBuilt
}

func (pl *Pipeline) validate() error {
	p := &pl.Params
	if p.ColorBinsA <= 0 || p.ColorBinsB <= 0 || p.ColorBinsC <= 0 {
		return fmt.Errorf("%w: histogram axis with zero bins", ErrInvalidArgument)
	}
	if p.KMeansK <= 0 || p.KMeansIters <= 0 {
		return fmt.Errorf("%w: k-means needs positive K and iterations", ErrInvalidArgument)
	}
	if p.NCroppedPixels < 0 {
		return fmt.Errorf("%w: negative crop", ErrInvalidArgument)
	}
	return nil
}

// Run executes the whole pipeline over an interleaved 8-bit RGB raster.
// Grayscale rasters (all channels equal) skip color conversion and the
// color histogram drops to its 1-D luminance mode.
func (pl *Pipeline) Run(rgb []uint8, width, height int) error {
	if err := pl.validate(); err != nil {
		return err
	}
	if len(rgb) != width*height*3 {
		return fmt.Errorf("%w: buffer length %d does not match %dx%d", ErrInvalidArgument, len(rgb), width, height)
	}
	p := &pl.Params
	crop := p.NCroppedPixels
	if 2*crop > width || 2*crop > height {
		return fmt.Errorf("%w: cropping %d pixels eliminates the %dx%d image", ErrInvalidArgument, crop, width, height)
	}
	if 2*crop == width || 2*crop == height {
		return fmt.Errorf("%w: every pixel lies in the %d pixel crop margin", ErrDegenerateInput, crop)
	}

	// input decomposition and crop; grayscale rasters bypass the Lab
	// conversion entirely
	pl.color = !colorconv.IsGrayscale(rgb)
	if pl.color {
		pl.inputL, pl.inputA, pl.inputB = colorconv.RGBToLab(rgb, width, height, p.Gamma)
		pl.inputA.Crop(crop)
		pl.inputB.Crop(crop)
	} else {
		gray := img.New[uint8](width, height)
		for i := range gray.Data {
			gray.Data[i] = rgb[3*i]
		}
		pl.inputL = img.ByteToFloat(gray, true)
	}
	pl.inputL.Crop(crop)
	img.ChangeRange(pl.inputL, 0, 1)
	pl.built(stageInput)
	w, h := pl.inputL.Width, pl.inputL.Height
	fmt.Fprintf(pl.logWriter, "Analyzing %dx%d pixels after a %d pixel crop (color=%v)\n",
		w, h, crop, pl.color)

	// filterbank convolutions
	pl.require(stageInput)
	cfg := filter.Config{
		NGaussScales:       p.NGaussScales,
		NGaussOrientations: p.NGaussOrientations,
		GaussSigmaY:        p.GaussSigmaY,
		GaussXToYRatio:     p.GaussXToYRatio,
		NDoGScales:         p.NDoGScales,
		DoGExcitSigma:      p.DoGExcitSigma,
		DoGInhibRatio1:     p.DoGInhibRatio1,
		DoGInhibRatio2:     p.DoGInhibRatio2,
	}
	bank, err := filter.NewBank(cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	pl.bank = bank
	pl.conv = bank.Convolve(pl.inputL, p.Workers, pl.logWriter)
	pl.built(stageFilterbank)

	// orientation energy
	pl.require(stageFilterbank)
	pl.oe = edge.OrientationEnergy(&cfg, pl.conv, nil, nil, edge.EnergyLuminance)
	pl.built(stageEnergy)

	// contour fitting and sub-pixel localization
	pl.require(stageEnergy)
	fmt.Fprintf(pl.logWriter, "Fitting orientations and localizing contours\n")
	pl.contours = edge.ParabolicOrientationsFit(&cfg, pl.oe)
	edge.SubpixelLocalize(&cfg, pl.oe, pl.contours, p.Workers)
	pl.built(stageContours)

	pl.require(stageContours)
	pl.combined = edge.CombineScales(pl.contours)
	pl.built(stageCombined)

	// contrast normalization for clustering
	pl.require(stageFilterbank)
	fmt.Fprintf(pl.logWriter, "Applying Weber law with constant %g\n", p.WeberConst)
	texton.WeberLaw(pl.conv, p.WeberConst, p.Workers)
	pl.built(stageWeber)

	// textons: one phase per quadrature pair plus the DoG scales
	pl.require(stageWeber)
	frames := make([][]float32, 0, p.NGaussScales*p.NGaussOrientations+p.NDoGScales)
	for s := 0; s < p.NGaussScales; s++ {
		for i := 0; i < p.NGaussOrientations; i++ {
			frames = append(frames, pl.conv.Frames[cfg.OddIndex(s, i)].Data)
		}
	}
	for s := 0; s < p.NDoGScales; s++ {
		frames = append(frames, pl.conv.Frames[cfg.DoGIndex(s)].Data)
	}
	pl.textons, pl.nTextons = texton.Cluster(frames, w, h, texton.Options{
		K:              p.KMeansK,
		MaxIters:       p.KMeansIters,
		Init:           p.KMeansInit,
		SubSize:        p.KMeansSubSize,
		J:              p.KMeansJ,
		ReseedEmpty:    p.KMeansReseed,
		Prune:          p.KMeansPrune,
		StoppingFactor: p.KMeansStopFact,
		StoppingK:      p.KMeansStopK,
		Cleanup2D:      p.KMeansCleanup,
		Seed:           p.Seed,
	}, pl.logWriter)
	pl.built(stageTextons)

	// adaptive texture scale
	pl.require(stageTextons)
	pl.scale = texscale.Compute(pl.textons, pl.nTextons,
		p.TextureMinDist, p.TextureMaxDist, p.TextureAlpha, p.Workers, pl.logWriter)
	pl.built(stageScale)

	pl.require(stageScale)
	pl.masks = texture.NewCircleMasks(pl.scale.RMin, pl.scale.RMax)
	pl.built(stageMasks)

	// probability of texture
	pl.require(stageMasks)
	pl.require(stageCombined)
	fmt.Fprintf(pl.logWriter, "Gating contours against texture\n")
	pl.pTexture = texture.ComputePTexture(pl.masks, pl.combined.Theta, pl.scale.Radii,
		pl.textons, pl.nTextons, p.TextureMiddleBand, p.TextureTau, p.TextureBeta, p.Workers)
	pl.built(stagePTexture)

	// texton histogram image
	pl.require(stagePTexture)
	fmt.Fprintf(pl.logWriter, "Accumulating texton histograms\n")
	pl.TextonHist = texture.ComputeTextonHistoImage(pl.masks, pl.scale.Radii,
		pl.textons, pl.pTexture, pl.nTextons, p.Workers)
	pl.built(stageTextonHist)

	// color histogram image
	pl.require(stageMasks)
	fmt.Fprintf(pl.logWriter, "Accumulating color histograms\n")
	copt := colorhisto.Options{
		BinsA: p.ColorBinsA, BinsB: p.ColorBinsB, BinsC: p.ColorBinsC,
		SoftSigma: p.ColorSoftSigma, Workers: p.Workers,
	}
	if pl.color {
		pl.ColorHist = colorhisto.Compute3D(pl.masks, pl.scale.Radii,
			pl.inputL, pl.inputA, pl.inputB, copt)
	} else {
		pl.ColorHist = colorhisto.Compute1D(pl.masks, pl.scale.Radii, pl.inputL, copt)
	}
	pl.built(stageColorHist)

	// dual lattice
	pl.require(stagePTexture)
	pl.Dual = lattice.Make(pl.contours, pl.pTexture, p.EdgelLength, p.InterveningContourSigma)
	pl.built(stageDual)

	// sparse sampling pattern
	rng := &fastrand.RNG{}
	rng.Seed(p.Seed + 1)
	pl.SparsePattern = texture.NewSparsePattern(p.SparseDenseRadius, p.SparseMaxRadius,
		p.SparseNSamples, p.SparseLaw, p.SparseHalf, p.SparseCenterOn, rng, pl.logWriter)
	pl.built(stageSparse)

	fmt.Fprintf(pl.logWriter, "Pipeline complete: %d textons, radii [%d,%d]\n",
		pl.nTextons, pl.scale.RMin, pl.scale.RMax)
	return nil
}

// Textons exposes the per-pixel cluster map for consumers that want the
// raw labels alongside the histograms.
func (pl *Pipeline) Textons() (*img.Image[int32], int) {
	pl.require(stageTextons)
	return pl.textons, pl.nTextons
}

// PTexture exposes the per-pixel texture probability map.
func (pl *Pipeline) PTexture() *img.Image[float32] {
	pl.require(stagePTexture)
	return pl.pTexture
}

// TextureScale exposes the adaptive radius map.
func (pl *Pipeline) TextureScale() *texscale.Scale {
	pl.require(stageScale)
	return pl.scale
}

// Combined exposes the cross-scale contour maps.
func (pl *Pipeline) Combined() *edge.Combined {
	pl.require(stageCombined)
	return pl.combined
}

// Release drops the intermediates after the consumer has pulled the
// outputs. The output fields stay valid until the pipeline itself goes
// away.
func (pl *Pipeline) Release() {
	pl.inputL, pl.inputA, pl.inputB = nil, nil, nil
	pl.bank = nil
	pl.conv = nil
	pl.oe = nil
	pl.contours = nil
	pl.combined = nil
	pl.textons = nil
	pl.scale = nil
	pl.masks = nil
	pl.pTexture = nil
	for s := stage(0); s < numStages; s++ {
		if pl.states[s] == StateBuilt {
			pl.states[s] = StateReleased
		}
	}
}
