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

package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/pbnjay/memory"

	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/pipeline"
	"github.com/dvries/texhist/internal/rest"
	"github.com/dvries/texhist/internal/texton"
)

const version = "0.1.2"

var totalMiBs = memory.TotalMemory() / 1024 / 1024

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var memprofile = flag.String("memprofile", "", "write memory profile to `file`")

var serve = flag.Bool("serve", false, "serve the HTTP API instead of processing files")
var port = flag.Int64("port", 8080, "port for serving HTTP API")
var chroot = flag.String("chroot", "", "directory to chroot and chdir to when serving HTTP. must be run as root")
var setuid = flag.Int64("setuid", -1, "user id number to setuid to when serving HTTP. must be run as root")

var textonOut = flag.String("texton", "%auto", "save texton histogram image to `file`. %auto derives it from the input name")
var colorOut = flag.String("color", "%auto", "save color histogram image to `file`. %auto derives it from the input name")
var previewPre = flag.String("preview", "", "save false-color previews (ptexture, scale, dual lattice) with this `prefix`")
var heatmap = flag.String("heatmap", "", "render texton histogram similarity against the pixel at `x,y` (requires -preview)")
var sparseOut = flag.String("sparse", "", "save the sparse pattern mask as PNG to `file`")
var logOut = flag.String("log", "", "also write log output to `file`")

var crop = flag.Int("crop", 10, "pixels to trim from the outer margin before analysis")
var gamma = flag.Float64("gamma", 2.2, "inverse gamma applied before the Lab conversion, 0 for linear input")

var gaussScales = flag.Int("gaussScales", 4, "number of oriented filter scales")
var gaussOrientations = flag.Int("gaussOrientations", 12, "number of filter orientations over [0,pi)")
var gaussSigmaY = flag.Float64("gaussSigmaY", 1.41, "base sigma of the oriented filters")
var gaussRatio = flag.Float64("gaussRatio", 3.0, "sigma x to y ratio of the oriented filters")
var dogScales = flag.Int("dogScales", 4, "number of isotropic DoG scales")
var dogSigma = flag.Float64("dogSigma", 1.41, "base sigma of the DoG filters")
var dogInhib1 = flag.Float64("dogInhib1", 0.62, "first DoG surround ratio")
var dogInhib2 = flag.Float64("dogInhib2", 1.6, "second DoG surround ratio")

var weber = flag.Float64("weber", 0.01, "Weber constant for response normalization")
var kmeansK = flag.Int("kmeansK", 36, "number of texton clusters")
var kmeansIters = flag.Int("kmeansIters", 30, "k-means iteration cap")
var kmeansPrune = flag.Bool("kmeansPrune", true, "prune clusters until the distortion bound")
var kmeansRefined = flag.Bool("kmeansRefined", false, "use the refined subsample initialization")
var seed = flag.Uint("seed", 0, "seed for k-means initialization and the sparse pattern")

var texMinDist = flag.Float64("texMinDist", 3.0, "lower clamp on the texton neighbor distance")
var texMaxDist = flag.Float64("texMaxDist", 0.1, "upper clamp; values at or below the lower clamp read as a fraction of the image diagonal")
var texAlpha = flag.Float64("texAlpha", 1.5, "scale factor from neighbor distance to disc radius")
var texMiddle = flag.Float64("texMiddle", 3.0, "width of the middle strip in the half-disc test")
var texTau = flag.Float64("texTau", 0.3, "chi-square midpoint of the texture sigmoid")
var texBeta = flag.Float64("texBeta", 0.04, "chi-square width of the texture sigmoid")

var colorBinsA = flag.Int("colorBinsA", 8, "histogram bins along L")
var colorBinsB = flag.Int("colorBinsB", 8, "histogram bins along a")
var colorBinsC = flag.Int("colorBinsC", 8, "histogram bins along b")
var colorSigma = flag.Float64("colorSigma", 1.8, "soft binning sigma in bin widths")

var edgelLength = flag.Float64("edgelLength", 2.0, "length of contour edgelets for the dual lattice")
var icSigma = flag.Float64("icSigma", 0.016, "intervening contour sigma")

var sparseDense = flag.Int("sparseDense", 10, "dense core radius of the sparse pattern")
var sparseMax = flag.Int("sparseMax", 30, "outer radius of the sparse pattern")
var sparseN = flag.Int("sparseN", 400, "total samples in the sparse pattern")

var workers = flag.Int("workers", 0, "worker goroutines per stage, 0 for one per CPU")

func main() {
	flag.Usage = func() {
		fmt.Printf("texhist %s: perceptual texton and color histogram images\n", version)
		fmt.Printf("usage: %s [flags] input.{jpg,png,tif}\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	logWriter, err := newTeeWriter(*logOut)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %s\n", err.Error())
		os.Exit(1)
	}
	defer logWriter.Close()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating CPU profile: %s\n", err.Error())
			os.Exit(1)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	if *serve {
		fmt.Fprintf(logWriter, "texhist %s serving on port %d with %d MiB physical memory\n",
			version, *port, totalMiBs)
		rest.MakeSandbox(*chroot, int(*setuid))
		rest.Serve(*port)
		return
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	input := flag.Arg(0)

	params := buildParams()
	fmt.Fprintf(logWriter, "texhist %s analyzing %s with %d workers (%d MiB physical memory)\n",
		version, input, effectiveWorkers(params.Workers), totalMiBs)

	rgb, width, height, err := pipeline.LoadRGB(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading %s: %s\n", input, err.Error())
		os.Exit(1)
	}

	start := time.Now()
	pl := pipeline.New(params, logWriter)
	if err := pl.Run(rgb, width, height); err != nil {
		fmt.Fprintf(os.Stderr, "Error analyzing %s: %s\n", input, err.Error())
		os.Exit(1)
	}
	fmt.Fprintf(logWriter, "Analysis took %v\n", time.Since(start))

	base := strings.TrimSuffix(input, ext(input))
	if err := writeOutputs(pl, base, logWriter); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing outputs: %s\n", err.Error())
		os.Exit(1)
	}
	pl.Release()

	if *memprofile != "" {
		f, err := os.Create(*memprofile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating memory profile: %s\n", err.Error())
			os.Exit(1)
		}
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %s\n", err.Error())
		}
		f.Close()
	}
}

func buildParams() pipeline.Params {
	p := pipeline.DefaultParams()
	p.NGaussScales = *gaussScales
	p.NGaussOrientations = *gaussOrientations
	p.GaussSigmaY = float32(*gaussSigmaY)
	p.GaussXToYRatio = float32(*gaussRatio)
	p.NDoGScales = *dogScales
	p.DoGExcitSigma = float32(*dogSigma)
	p.DoGInhibRatio1 = float32(*dogInhib1)
	p.DoGInhibRatio2 = float32(*dogInhib2)
	p.NCroppedPixels = *crop
	p.Gamma = *gamma
	p.WeberConst = float32(*weber)
	p.KMeansK = *kmeansK
	p.KMeansIters = *kmeansIters
	p.KMeansPrune = *kmeansPrune
	if *kmeansRefined {
		p.KMeansInit = texton.InitFayyadRefined
	}
	p.TextureMinDist = float32(*texMinDist)
	p.TextureMaxDist = float32(*texMaxDist)
	p.TextureAlpha = float32(*texAlpha)
	p.TextureMiddleBand = float32(*texMiddle)
	p.TextureTau = float32(*texTau)
	p.TextureBeta = float32(*texBeta)
	p.ColorBinsA = *colorBinsA
	p.ColorBinsB = *colorBinsB
	p.ColorBinsC = *colorBinsC
	p.ColorSoftSigma = float32(*colorSigma)
	p.EdgelLength = float32(*edgelLength)
	p.InterveningContourSigma = float32(*icSigma)
	p.SparseDenseRadius = *sparseDense
	p.SparseMaxRadius = *sparseMax
	p.SparseNSamples = *sparseN
	p.Seed = uint32(*seed)
	p.Workers = *workers
	return p
}

func effectiveWorkers(w int) int {
	if w <= 0 {
		return runtime.NumCPU()
	}
	return w
}

func ext(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return fileName[i:]
	}
	return ""
}

func writeOutputs(pl *pipeline.Pipeline, base string, logWriter *teeWriter) error {
	texton := *textonOut
	if texton == "%auto" {
		texton = base + ".texton.hist"
	}
	if texton != "" {
		fmt.Fprintf(logWriter, "Writing texton histogram image to %s\n", texton)
		if err := pl.TextonHist.WriteFile(texton); err != nil {
			return err
		}
	}

	color := *colorOut
	if color == "%auto" {
		color = base + ".color.hist"
	}
	if color != "" {
		fmt.Fprintf(logWriter, "Writing color histogram image to %s\n", color)
		if err := pl.ColorHist.WriteFile(color); err != nil {
			return err
		}
	}

	if *sparseOut != "" {
		fmt.Fprintf(logWriter, "Writing sparse pattern to %s\n", *sparseOut)
		if err := pipeline.WriteMaskPNG(pl.SparsePattern, *sparseOut); err != nil {
			return err
		}
	}

	if *previewPre != "" {
		fmt.Fprintf(logWriter, "Writing previews with prefix %s\n", *previewPre)
		if err := pipeline.WriteMapJPG(pl.PTexture(), *previewPre+"ptexture.jpg", 95); err != nil {
			return err
		}
		if err := pipeline.WriteMapJPG(pl.TextureScale().Radii, *previewPre+"scale.jpg", 95); err != nil {
			return err
		}
		if err := pipeline.WriteMapTIFF16(pl.Dual.H, *previewPre+"dual_h.tif"); err != nil {
			return err
		}
		if err := pipeline.WriteMapTIFF16(pl.Dual.V, *previewPre+"dual_v.tif"); err != nil {
			return err
		}
		if *heatmap != "" {
			var x, y int
			if _, err := fmt.Sscanf(*heatmap, "%d,%d", &x, &y); err != nil {
				return fmt.Errorf("bad -heatmap position %q: %w", *heatmap, err)
			}
			hist := pl.TextonHist
			sim := img.NewFromData(hist.Similarity(x, y), hist.Width, hist.Height)
			if err := pipeline.WriteMapJPG(sim, *previewPre+"heatmap.jpg", 95); err != nil {
				return err
			}
		}
	}
	return nil
}
