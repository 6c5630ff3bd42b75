// Package imbalance provides resampling strategies for imbalanced binary
// classification data. SMOTE generates synthetic minority samples by
// interpolating between existing minority samples and their nearest
// minority neighbors.
package imbalance

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/churnlab/core/parallel"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Option configures a SMOTE resampler.
type Option func(*SMOTE)

// WithKNeighbors sets the number of minority neighbors considered when
// interpolating (default 5).
func WithKNeighbors(k int) Option {
	return func(s *SMOTE) {
		s.kNeighbors = k
	}
}

// WithSeed seeds the sampling of base points, neighbors and interpolation
// factors.
func WithSeed(seed int) Option {
	return func(s *SMOTE) {
		s.seed = seed
	}
}

// SMOTE oversamples the minority class of a binary dataset until both
// classes have the same number of samples. Each synthetic sample lies on
// the segment between a random minority sample and one of its k nearest
// minority neighbors.
type SMOTE struct {
	kNeighbors int
	seed       int
	logger     log.Logger
}

// NewSMOTE creates a resampler with k_neighbors=5.
func NewSMOTE(opts ...Option) *SMOTE {
	s := &SMOTE{
		kNeighbors: 5,
		logger:     log.GetLoggerWithName("imbalance.smote"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FitResample returns a balanced copy of the dataset. Original rows keep
// their order; synthetic minority rows are appended after them.
func (s *SMOTE) FitResample(X, y mat.Matrix) (rX, ry *mat.Dense, err error) {
	defer errors.Recover(&err, "SMOTE.FitResample")

	r, c := X.Dims()
	yRows, _ := y.Dims()
	if r == 0 || c == 0 {
		return nil, nil, errors.NewModelError("SMOTE.FitResample", "empty data", errors.ErrEmptyData)
	}
	if yRows != r {
		return nil, nil, errors.NewDimensionError("SMOTE.FitResample", r, yRows, 0)
	}
	if s.kNeighbors < 1 {
		return nil, nil, errors.NewValidationError("k_neighbors", "must be at least 1", s.kNeighbors)
	}

	// Partition indices by class; binary only.
	byClass := make(map[float64][]int)
	for i := 0; i < r; i++ {
		label := y.At(i, 0)
		byClass[label] = append(byClass[label], i)
	}
	if len(byClass) != 2 {
		return nil, nil, errors.NewValueError("SMOTE.FitResample",
			"resampling requires exactly two classes")
	}

	labels := make([]float64, 0, 2)
	for label := range byClass {
		labels = append(labels, label)
	}
	sort.Float64s(labels)

	minorityLabel, majorityLabel := labels[0], labels[1]
	if len(byClass[minorityLabel]) > len(byClass[majorityLabel]) {
		minorityLabel, majorityLabel = majorityLabel, minorityLabel
	}
	minority := byClass[minorityLabel]
	majority := byClass[majorityLabel]
	if len(minority) == len(majority) {
		// Already balanced; nothing to synthesize.
		return mat.DenseCopyOf(X), mat.DenseCopyOf(y), nil
	}
	if len(minority) <= s.kNeighbors {
		return nil, nil, errors.NewValueError("SMOTE.FitResample",
			"minority class must have more samples than k_neighbors")
	}

	neighbors := s.minorityNeighbors(X, minority)

	nSynth := len(majority) - len(minority)
	rng := rand.New(rand.NewPCG(uint64(s.seed), uint64(s.seed)))

	out := mat.NewDense(r+nSynth, c, nil)
	outY := mat.NewDense(r+nSynth, 1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j))
		}
		outY.Set(i, 0, y.At(i, 0))
	}

	for k := 0; k < nSynth; k++ {
		base := rng.IntN(len(minority))
		neighbor := neighbors[base][rng.IntN(s.kNeighbors)]
		u := rng.Float64()

		bi, ni := minority[base], neighbor
		for j := 0; j < c; j++ {
			xb := X.At(bi, j)
			out.Set(r+k, j, xb+u*(X.At(ni, j)-xb))
		}
		outY.Set(r+k, 0, minorityLabel)
	}

	s.logger.Info("minority class oversampled",
		log.SamplesKey, r,
		"minority_before", len(minority),
		"synthetic", nSynth,
	)
	return out, outY, nil
}

// minorityNeighbors computes, for each minority sample, the indices (into
// the full dataset) of its k nearest minority neighbors by Euclidean
// distance. Distance rows are computed in parallel for larger classes.
func (s *SMOTE) minorityNeighbors(X mat.Matrix, minority []int) [][]int {
	n := len(minority)
	neighbors := make([][]int, n)

	parallel.ParallelizeWithThreshold(n, 64, func(start, end int) {
		for i := start; i < end; i++ {
			type distIdx struct {
				dist float64
				idx  int
			}
			dists := make([]distIdx, 0, n-1)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				dists = append(dists, distIdx{
					dist: euclidean(X, minority[i], minority[j]),
					idx:  minority[j],
				})
			}
			sort.Slice(dists, func(a, b int) bool {
				if dists[a].dist != dists[b].dist {
					return dists[a].dist < dists[b].dist
				}
				return dists[a].idx < dists[b].idx
			})

			nearest := make([]int, s.kNeighbors)
			for k := 0; k < s.kNeighbors; k++ {
				nearest[k] = dists[k].idx
			}
			neighbors[i] = nearest
		}
	})
	return neighbors
}

func euclidean(X mat.Matrix, a, b int) float64 {
	_, c := X.Dims()
	s := 0.0
	for j := 0; j < c; j++ {
		d := X.At(a, j) - X.At(b, j)
		s += d * d
	}
	return math.Sqrt(s)
}
