package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Split carries the result of a train/test partition.
type Split struct {
	XTrain, XTest *mat.Dense
	YTrain, YTest *mat.Dense

	TrainIndices []int
	TestIndices  []int
}

type splitConfig struct {
	testSize float64
	seed     int
	stratify bool
}

// SplitOption configures TrainTestSplit.
type SplitOption func(*splitConfig)

// WithTestSize sets the fraction of rows assigned to the test set (default 0.2).
func WithTestSize(size float64) SplitOption {
	return func(c *splitConfig) {
		c.testSize = size
	}
}

// WithSeed sets the shuffle seed.
func WithSeed(seed int) SplitOption {
	return func(c *splitConfig) {
		c.seed = seed
	}
}

// WithStratify toggles stratified partitioning on the label column (default true).
func WithStratify(stratify bool) SplitOption {
	return func(c *splitConfig) {
		c.stratify = stratify
	}
}

// TrainTestSplit partitions X and y into train and test subsets.
//
// In stratified mode (the default) every class is partitioned separately so
// both sides preserve the class ratio within rounding. Shuffling is seeded
// and deterministic.
func TrainTestSplit(X, y mat.Matrix, opts ...SplitOption) (*Split, error) {
	cfg := &splitConfig{
		testSize: 0.2,
		seed:     42,
		stratify: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.testSize <= 0 || cfg.testSize >= 1 {
		return nil, errors.NewValidationError("test_size", "must be in (0, 1)", cfg.testSize)
	}

	n, _ := X.Dims()
	yRows, _ := y.Dims()
	if n == 0 {
		return nil, errors.NewModelError("TrainTestSplit", "empty data", errors.ErrEmptyData)
	}
	if yRows != n {
		return nil, errors.NewDimensionError("TrainTestSplit", n, yRows, 0)
	}

	r := rand.New(rand.NewPCG(uint64(cfg.seed), uint64(cfg.seed)))

	var testIndices []int
	if cfg.stratify {
		var err error
		testIndices, err = stratifiedTestIndices(y, n, cfg.testSize, r)
		if err != nil {
			return nil, err
		}
	} else {
		indices := make([]int, n)
		for i := range indices {
			indices[i] = i
		}
		r.Shuffle(n, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(math.Round(float64(n) * cfg.testSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= n {
			nTest = n - 1
		}
		testIndices = indices[:nTest]
	}

	testSet := make(map[int]bool, len(testIndices))
	for _, idx := range testIndices {
		testSet[idx] = true
	}
	trainIndices := make([]int, 0, n-len(testIndices))
	for i := 0; i < n; i++ {
		if !testSet[i] {
			trainIndices = append(trainIndices, i)
		}
	}

	sort.Ints(testIndices)

	xTrain, yTrain := ExtractRows(X, y, trainIndices)
	xTest, yTest := ExtractRows(X, y, testIndices)

	return &Split{
		XTrain:       xTrain,
		XTest:        xTest,
		YTrain:       yTrain,
		YTest:        yTest,
		TrainIndices: trainIndices,
		TestIndices:  testIndices,
	}, nil
}

// stratifiedTestIndices draws a per-class test subset so the partition
// preserves the class ratio. Per-class counts are rounded and clamped so
// both sides remain non-empty when feasible.
func stratifiedTestIndices(y mat.Matrix, n int, testSize float64, r *rand.Rand) ([]int, error) {
	classOrder := make([]float64, 0, 2)
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y.At(i, 0)
		if _, ok := classIndices[label]; !ok {
			classOrder = append(classOrder, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	if len(classOrder) < 2 {
		return nil, errors.NewValidationError("stratify",
			fmt.Sprintf("need at least 2 classes to stratify, got %d", len(classOrder)),
			len(classOrder))
	}

	var testIndices []int
	for _, label := range classOrder {
		indices := classIndices[label]
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(float64(len(indices)) * testSize))
		if nTest < 1 {
			nTest = 1
		}
		if nTest >= len(indices) {
			nTest = len(indices) - 1
		}
		testIndices = append(testIndices, indices[:nTest]...)
	}

	return testIndices, nil
}

// ExtractRows copies the selected rows of X and y into fresh matrices.
// Indices are sorted first so the output preserves input row order.
func ExtractRows(X, y mat.Matrix, indices []int) (*mat.Dense, *mat.Dense) {
	rows := len(indices)
	_, xCols := X.Dims()
	_, yCols := y.Dims()

	sorted := make([]int, len(indices))
	copy(sorted, indices)
	sort.Ints(sorted)

	xSubset := mat.NewDense(rows, xCols, nil)
	ySubset := mat.NewDense(rows, yCols, nil)

	for i, idx := range sorted {
		for j := 0; j < xCols; j++ {
			xSubset.Set(i, j, X.At(idx, j))
		}
		for j := 0; j < yCols; j++ {
			ySubset.Set(i, j, y.At(idx, j))
		}
	}

	return xSubset, ySubset
}
