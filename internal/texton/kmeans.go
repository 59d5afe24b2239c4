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

package texton

import (
	"fmt"
	"io"
	"math"

	"github.com/valyala/fastrand"

	"github.com/dvries/texhist/internal/img"
)

// Initialization strategy for the cluster centers.
type InitStrategy int

const (
	InitRandomPoints InitStrategy = iota
	InitFayyadRefined
)

// K-means options. Zero values of the optional fields disable the
// corresponding step.
type Options struct {
	K        int
	MaxIters int

	Init    InitStrategy
	SubSize int // Fayyad subsample size per run
	J       int // Fayyad run count

	ReseedEmpty bool // reseed empty clusters from the farthest point

	Prune          bool
	StoppingFactor float32 // distortion bound as a multiple of the initial
	StoppingK      int     // K floor for pruning, <=0 for none

	Cleanup2D bool // 3x3 majority filter over the membership map

	Seed uint32
}

// KMeans clusters P points of dimension D under squared Euclidean
// distance. Points are stored point-major (P x D) so the distance loop
// walks contiguous memory.
type KMeans struct {
	P, K, D int
	origK   int

	pts        []float32 // P*D, point-major
	ptCluster  []int32
	clusterN   []int
	sums       []float32 // K*D running sums of member points
	means      []float32 // K*D cluster centers
	changes    int
	rng        fastrand.RNG
}

// NewKMeans copies the D frame buffers (each holding one dimension for
// all P points) into a transposed point-major array.
func NewKMeans(frames [][]float32, k int, seed uint32) *KMeans {
	if len(frames) == 0 {
		panic("texton: k-means needs at least one dimension")
	}
	p := len(frames[0])
	d := len(frames)
	if k <= 0 || k > p {
		panic(fmt.Sprintf("texton: k=%d outside (0,%d]", k, p))
	}
	km := &KMeans{
		P: p, K: k, D: d, origK: k,
		pts:       make([]float32, p*d),
		ptCluster: make([]int32, p),
		clusterN:  make([]int, k),
		sums:      make([]float32, k*d),
		means:     make([]float32, k*d),
	}
	km.rng.Seed(seed)
	for di, frame := range frames {
		if len(frame) != p {
			panic("texton: k-means dimension length mismatch")
		}
		for pi, v := range frame {
			km.pts[pi*d+di] = v
		}
	}
	return km
}

func newKMeansFromPoints(pts []float32, p, k, d int, seed uint32) *KMeans {
	km := &KMeans{
		P: p, K: k, D: d, origK: k,
		pts:       pts,
		ptCluster: make([]int32, p),
		clusterN:  make([]int, k),
		sums:      make([]float32, k*d),
		means:     make([]float32, k*d),
	}
	km.rng.Seed(seed)
	return km
}

// Init assigns the cluster centers to a random picking of distinct data
// points and assigns every point to its nearest center.
func (km *KMeans) Init() {
	km.changes = 0
	chosen := make(map[int]bool, km.K)
	for k := 0; k < km.K; k++ {
		p := int(km.rng.Uint32n(uint32(km.P)))
		for chosen[p] {
			p = int(km.rng.Uint32n(uint32(km.P)))
		}
		chosen[p] = true
		copy(km.means[k*km.D:(k+1)*km.D], km.pts[p*km.D:(p+1)*km.D])
	}
	km.assignClustersToPoints()
}

// InitWithMeans seeds the centers from an explicit K*D vector.
func (km *KMeans) InitWithMeans(means []float32) {
	km.changes = 0
	copy(km.means, means)
	km.assignClustersToPoints()
}

// RefinedInit implements Fayyad-style refined initialization: run
// K-means J times on random subsamples, cluster the union of the J mean
// sets once per candidate seed, and keep the candidate with the least
// distortion as this instance's starting centers.
func (km *KMeans) RefinedInit(subSize, j int) {
	if subSize <= 0 || subSize > km.P {
		subSize = km.P
	}
	meanSets := make([][]float32, 0, j)
	for run := 0; run < j; run++ {
		sub := make([]float32, subSize*km.D)
		for p := 0; p < subSize; p++ {
			src := int(km.rng.Uint32n(uint32(km.P)))
			copy(sub[p*km.D:(p+1)*km.D], km.pts[src*km.D:(src+1)*km.D])
		}
		skm := newKMeansFromPoints(sub, subSize, km.K, km.D, km.rng.Uint32())
		skm.Init()
		skm.IterateMod()
		meanSets = append(meanSets, append([]float32(nil), skm.means...))
	}

	// second stage: the J*K subsample means become the data set
	joint := make([]float32, 0, j*km.K*km.D)
	for _, ms := range meanSets {
		joint = append(joint, ms...)
	}
	var best []float32
	minScore := float32(math.MaxFloat32)
	for _, ms := range meanSets {
		jkm := newKMeansFromPoints(joint, j*km.K, km.K, km.D, km.rng.Uint32())
		jkm.InitWithMeans(ms)
		jkm.Iterate(-1, -1)
		if score := jkm.ComputeTotalError(); score < minScore {
			minScore = score
			best = append(best[:0], jkm.means...)
		}
	}
	km.InitWithMeans(best)
}

// Iterate runs assignment/update rounds until convergence (no
// membership changes), or until nMaxIters rounds (-1 for unlimited), or
// until nMaxChanges cumulative changes (-1 for unlimited). Returns the
// number of rounds on convergence, -1 on the iteration cap, -2 on the
// change cap.
func (km *KMeans) Iterate(nMaxIters, nMaxChanges int) int {
	for i := 0; i != nMaxIters; i++ {
		prevChanges := km.changes
		for p := 0; p < km.P; p++ {
			nearest := km.findNearestCluster(p)
			parent := int(km.ptCluster[p])
			if parent != nearest {
				km.swapParents(p, nearest, parent)
			}
		}
		km.computeClusterMeans()
		if i > 0 && km.changes == prevChanges {
			return i + 1
		}
		if nMaxChanges > 0 && km.changes >= nMaxChanges {
			return -2
		}
	}
	return -1
}

// reseed rounds before giving up on filling every cluster
const maxReseedRounds = 10

// IterateMod repeats Iterate, reseeding any cluster that converged
// empty to the point farthest from it, until no cluster is empty.
// Degenerate data (all points coincident) cannot fill every cluster;
// the loop gives up after a bounded number of reseeds.
func (km *KMeans) IterateMod() {
	for round := 0; round < maxReseedRounds; round++ {
		km.Iterate(-1, -1)
		someEmpty := false
		for k := 0; k < km.K; k++ {
			if km.clusterN[k] != 0 {
				continue
			}
			maxDist, farthest := float32(0), -1
			for p := 0; p < km.P; p++ {
				if d := km.squareDistance(k, p); d > maxDist {
					maxDist, farthest = d, p
				}
			}
			if farthest < 0 {
				continue // every point already sits on this center
			}
			someEmpty = true
			copy(km.means[k*km.D:(k+1)*km.D], km.pts[farthest*km.D:(farthest+1)*km.D])
		}
		if !someEmpty {
			return
		}
		km.changes = 0
		for i := range km.sums {
			km.sums[i] = 0
		}
		for k := range km.clusterN {
			km.clusterN[k] = 0
		}
		km.assignClustersToPoints()
	}
}

// Prune iteratively removes the cluster whose removal raises total
// distortion the least, until the distortion exceeds
// stoppingFactor * the initial distortion or K reaches stoppingK.
// A few cleanup rounds run after each removal.
func (km *KMeans) Prune(stoppingFactor float32, stoppingK int) {
	finalError := stoppingFactor * km.ComputeTotalError()
	newError := float32(0)
	errs := make([]float32, km.K)
	for km.K > 1 && newError < finalError && (stoppingK <= 0 || km.K > stoppingK) {
		for k := range errs[:km.K] {
			errs[k] = 0
		}
		for p := 0; p < km.P; p++ {
			d0 := km.squareDistance(0, p)
			d1 := km.squareDistance(1, p)
			nearest, min1, min2 := 0, d0, d1
			if d1 < d0 {
				nearest, min1, min2 = 1, d1, d0
			}
			for k := 2; k < km.K; k++ {
				if d := km.squareDistance(k, p); d < min1 {
					min2 = min1
					min1 = d
					nearest = k
				}
			}
			// distortion increase if the nearest center vanished
			errs[nearest] += min2 - min1
		}
		worst := 0
		for k := 1; k < km.K; k++ {
			if errs[k] < errs[worst] {
				worst = k
			}
		}
		km.removeCluster(worst)
		km.assignClustersToPoints()
		km.computeClusterMeans()
		km.Iterate(3, -1)
		newError = km.ComputeTotalError()
	}
}

// removeCluster swaps cluster k with the last one and shrinks K.
func (km *KMeans) removeCluster(k int) {
	last := km.K - 1
	copy(km.means[k*km.D:(k+1)*km.D], km.means[last*km.D:(last+1)*km.D])
	copy(km.sums[k*km.D:(k+1)*km.D], km.sums[last*km.D:(last+1)*km.D])
	km.clusterN[k] = km.clusterN[last]
	km.K--
}

// Cleanup2D applies a 3x3 majority filter on the membership map: a
// pixel whose reflected 8-neighborhood carries 5 or more of one other
// label is reassigned to it.
func (km *KMeans) Cleanup2D(width, height int) {
	if width*height != km.P {
		panic("texton: cleanup dimensions do not match point count")
	}
	labels := img.NewFromData(km.ptCluster, width, height)
	padded := img.New[int32](width+2, height+2)
	img.ReflectInto(labels, padded)

	hist := make([]int, km.K)
	pw := padded.Width
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			p := y*width + x
			c := (y+1)*pw + (x + 1)
			for i := range hist {
				hist[i] = 0
			}
			hist[padded.Data[c-1]]++
			hist[padded.Data[c+1]]++
			hist[padded.Data[c-pw-1]]++
			hist[padded.Data[c-pw]]++
			hist[padded.Data[c-pw+1]]++
			hist[padded.Data[c+pw-1]]++
			hist[padded.Data[c+pw]]++
			hist[padded.Data[c+pw+1]]++
			parent := int(km.ptCluster[p])
			for k := 0; k < km.K; k++ {
				if hist[k] > 4 {
					if k != parent {
						km.swapParents(p, k, parent)
					}
					break
				}
			}
		}
	}
	km.computeClusterMeans()
}

func (km *KMeans) ComputeTotalError() float32 {
	e := float32(0)
	for p := 0; p < km.P; p++ {
		e += km.squareDistance(int(km.ptCluster[p]), p)
	}
	return e
}

func (km *KMeans) NK() int { return km.K }

// Labels wraps the membership array as a width x height image.
func (km *KMeans) Labels(width, height int) *img.Image[int32] {
	if width*height != km.P {
		panic("texton: label dimensions do not match point count")
	}
	return img.NewFromData(km.ptCluster, width, height)
}

func (km *KMeans) swapParents(p, nearest, parent int) {
	km.changes++
	km.ptCluster[p] = int32(nearest)
	km.clusterN[nearest]++
	pt := km.pts[p*km.D : (p+1)*km.D]
	sums := km.sums[nearest*km.D : (nearest+1)*km.D]
	for d, v := range pt {
		sums[d] += v
	}
	if km.clusterN[parent] > 0 {
		km.clusterN[parent]--
		sums = km.sums[parent*km.D : (parent+1)*km.D]
		for d, v := range pt {
			sums[d] -= v
		}
	}
}

func (km *KMeans) assignClustersToPoints() {
	for k := range km.clusterN[:km.K] {
		km.clusterN[k] = 0
	}
	for i := range km.sums[:km.K*km.D] {
		km.sums[i] = 0
	}
	for p := 0; p < km.P; p++ {
		nearest := km.findNearestCluster(p)
		km.ptCluster[p] = int32(nearest)
		km.clusterN[nearest]++
		pt := km.pts[p*km.D : (p+1)*km.D]
		sums := km.sums[nearest*km.D : (nearest+1)*km.D]
		for d, v := range pt {
			sums[d] += v
		}
	}
}

func (km *KMeans) computeClusterMeans() {
	for k := 0; k < km.K; k++ {
		if km.clusterN[k] == 0 {
			continue
		}
		factor := 1 / float32(km.clusterN[k])
		means := km.means[k*km.D : (k+1)*km.D]
		sums := km.sums[k*km.D : (k+1)*km.D]
		for d := range means {
			means[d] = sums[d] * factor
		}
	}
}

func (km *KMeans) findNearestCluster(p int) int {
	nearest := -1
	minDist := float32(math.MaxFloat32)
	for k := 0; k < km.K; k++ {
		if d := km.squareDistance(k, p); d < minDist {
			minDist = d
			nearest = k
		}
	}
	return nearest
}

func (km *KMeans) squareDistance(k, p int) float32 {
	means := km.means[k*km.D : (k+1)*km.D]
	pt := km.pts[p*km.D : (p+1)*km.D]
	sum := float32(0)
	for d, v := range pt {
		diff := means[d] - v
		sum += diff * diff
	}
	return sum
}

// Cluster runs the full texton quantization over the selected filter
// response frames: one phase per quadrature pair plus the DoG scales.
// Returns the per-pixel label image and the final cluster count.
func Cluster(frames [][]float32, width, height int, opt Options, logWriter io.Writer) (*img.Image[int32], int) {
	km := NewKMeans(frames, opt.K, opt.Seed)
	switch opt.Init {
	case InitFayyadRefined:
		km.RefinedInit(opt.SubSize, opt.J)
	default:
		km.Init()
	}
	km.Iterate(opt.MaxIters, -1)
	if opt.ReseedEmpty {
		km.IterateMod() // fill empty clusters, restarting the loop
	}
	if opt.Prune {
		km.Prune(opt.StoppingFactor, opt.StoppingK)
	}
	if opt.Cleanup2D {
		km.Cleanup2D(width, height)
	}
	if logWriter != nil {
		fmt.Fprintf(logWriter, "K-means quantized %d pixels x %d dims into %d textons\n",
			km.P, km.D, km.NK())
	}
	return km.Labels(width, height), km.NK()
}
