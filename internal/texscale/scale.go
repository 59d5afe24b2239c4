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

// Package texscale derives a per-pixel adaptive radius from the spatial
// density of each texton label: tightly packed labels mean fine
// texture and a small integration disc, sparse labels a large one.
package texscale

import (
	"fmt"
	"io"
	"math"

	"github.com/fogleman/delaunay"

	"github.com/dvries/texhist/internal/img"
	"github.com/dvries/texhist/internal/qsort"
)

// Result of the scale estimation: the radius map and its integer range.
type Scale struct {
	Radii *img.Image[float32] // integer-valued radii, >= 1
	RMin  int
	RMax  int
}

// Compute estimates the texture scale from the texton label map. Per
// label, the non-zero sites are Delaunay-triangulated and each site
// gets alpha times the median length of its incident edges, clamped to
// [minDist, maxDist]; a maxDist at or below minDist reads as a fraction
// of the image diagonal. Labels merge by max, a 2-radius spatial median
// stabilizes the map, and radii round to integers with a floor of 1.
func Compute(labels *img.Image[int32], k int, minDist, maxDist, alpha float32,
	workers int, logWriter io.Writer) *Scale {

	w, h := labels.Width, labels.Height
	if k <= 0 {
		panic("texscale: non-positive texton count")
	}
	maxDistEff := maxDist
	if maxDistEff <= minDist {
		maxDistEff = maxDist * float32(math.Hypot(float64(w), float64(h)))
	}

	preMedian := img.New[float32](w, h)
	pts := make([]delaunay.Point, 0, w*h/4)
	sites := make([]int, 0, w*h/4)
	for label := int32(0); label < int32(k); label++ {
		pts = pts[:0]
		sites = sites[:0]
		for p, v := range labels.Data {
			if v == label {
				pts = append(pts, delaunay.Point{X: float64(p % w), Y: float64(p / w)})
				sites = append(sites, p)
			}
		}
		// triangulation needs at least three non-collinear sites
		if len(pts) < 3 {
			continue
		}
		tri, err := delaunay.Triangulate(pts)
		if err != nil || len(tri.Triangles) == 0 {
			continue
		}
		edgeLens := make([][]float32, len(pts))
		for e := 0; e < len(tri.Triangles); e++ {
			// count each undirected edge once
			if tri.Halfedges[e] != -1 && e >= tri.Halfedges[e] {
				continue
			}
			a := tri.Triangles[e]
			b := tri.Triangles[nextHalfedge(e)]
			dist := float32(math.Hypot(pts[a].X-pts[b].X, pts[a].Y-pts[b].Y))
			edgeLens[a] = append(edgeLens[a], dist)
			edgeLens[b] = append(edgeLens[b], dist)
		}
		for i, lens := range edgeLens {
			if len(lens) == 0 {
				continue
			}
			d := qsort.QMedianFloat32(lens)
			if d < minDist {
				d = minDist
			} else if d > maxDistEff {
				d = maxDistEff
			}
			s := alpha * d
			p := sites[i]
			if s > preMedian.Data[p] {
				preMedian.Data[p] = s
			}
		}
	}

	sc := &Scale{Radii: img.New[float32](w, h)}
	MedianFilter(preMedian, sc.Radii, 2, workers)

	sc.RMin, sc.RMax = math.MaxInt32, 1
	for p, v := range sc.Radii.Data {
		r := int(v + 0.5)
		if r < 1 {
			r = 1
		}
		sc.Radii.Data[p] = float32(r)
		if r < sc.RMin {
			sc.RMin = r
		}
		if r > sc.RMax {
			sc.RMax = r
		}
	}
	if sc.RMin > sc.RMax {
		sc.RMin = sc.RMax
	}
	if logWriter != nil {
		fmt.Fprintf(logWriter, "Texture scale radii span [%d,%d]\n", sc.RMin, sc.RMax)
	}
	return sc
}

// nextHalfedge steps to the next edge of the same triangle.
func nextHalfedge(e int) int {
	if e%3 == 2 {
		return e - 2
	}
	return e + 1
}
