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
	"fmt"
	"io"

	"github.com/dvries/texhist/internal/colorconv"
	"github.com/dvries/texhist/internal/edge"
	"github.com/dvries/texhist/internal/filter"
	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/regionfeat"
)

// ExtractRegionFeatures runs only the front of the pipeline (color
// decomposition, filterbank, orientation energy) and summarizes the
// raw responses over the regions of segMap, whose dimensions must
// match the cropped image. The responses are not Weber-normalized
// here; the statistics describe contrast as observed.
func ExtractRegionFeatures(rgb []uint8, width, height int, segMap *img.Image[int32],
	p Params, logWriter io.Writer) (*regionfeat.Features, error) {

	crop := p.NCroppedPixels
	if 2*crop >= width || 2*crop >= height {
		return nil, fmt.Errorf("%w: cropping %d pixels eliminates the %dx%d image",
			ErrInvalidArgument, crop, width, height)
	}
	if len(rgb) != width*height*3 {
		return nil, fmt.Errorf("%w: buffer length %d does not match %dx%d",
			ErrInvalidArgument, len(rgb), width, height)
	}

	var l *img.Image[float32]
	if colorconv.IsGrayscale(rgb) {
		gray := img.New[uint8](width, height)
		for i := range gray.Data {
			gray.Data[i] = rgb[3*i]
		}
		l = img.ByteToFloat(gray, true)
	} else {
		l, _, _ = colorconv.RGBToLab(rgb, width, height, p.Gamma)
	}
	l.Crop(crop)
	img.ChangeRange(l, 0, 1)

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
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	conv := bank.Convolve(l, p.Workers, logWriter)
	oe := edge.OrientationEnergy(&cfg, conv, nil, nil, edge.EnergyLuminance)

	return regionfeat.Compute(&cfg, segMap, oe, conv)
}
