// Package model_selection provides train/test splitting, k-fold
// cross-validation and exhaustive grid search over estimator parameters.
package model_selection

import (
	"fmt"
	"math/rand/v2"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// Fold represents a single fold in cross-validation.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// Splitter defines the interface for cross-validation splitters.
// n is the number of samples; y holds the labels for stratified variants
// and may be nil for plain k-fold.
type Splitter interface {
	Split(n int, y []float64) ([]Fold, error)
	GetNSplits() int
}

// KFold implements k-fold cross-validation splitting.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewKFold creates a new k-fold splitter.
func NewKFold(nSplits int, shuffle bool, seed int) *KFold {
	if nSplits < 2 {
		nSplits = 5 // Default to 5-fold
	}
	return &KFold{
		NSplits: nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// GetNSplits returns the number of splits.
func (kf *KFold) GetNSplits() int {
	return kf.NSplits
}

// Split generates train/test indices for each fold.
func (kf *KFold) Split(n int, _ []float64) ([]Fold, error) {
	if n < kf.NSplits {
		return nil, errors.NewValidationError("n_splits",
			fmt.Sprintf("cannot split %d samples into %d folds", n, kf.NSplits), kf.NSplits)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}

	if kf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(kf.Seed), uint64(kf.Seed)))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	currentIdx := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}

		testIndices := make([]int, testSize)
		copy(testIndices, indices[currentIdx:currentIdx+testSize])

		trainIndices := make([]int, 0, n-testSize)
		trainIndices = append(trainIndices, indices[:currentIdx]...)
		trainIndices = append(trainIndices, indices[currentIdx+testSize:]...)

		folds[i] = Fold{
			TrainIndices: trainIndices,
			TestIndices:  testIndices,
		}

		currentIdx += testSize
	}

	return folds, nil
}

// StratifiedKFold implements stratified k-fold cross-validation:
// each fold preserves the per-class sample ratio of the full input.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    int
}

// NewStratifiedKFold creates a new stratified k-fold splitter.
func NewStratifiedKFold(nSplits int, shuffle bool, seed int) *StratifiedKFold {
	if nSplits < 2 {
		nSplits = 5
	}
	return &StratifiedKFold{
		NSplits: nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// GetNSplits returns the number of splits.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
// Stratification fails when any class has fewer members than NSplits.
func (skf *StratifiedKFold) Split(n int, y []float64) ([]Fold, error) {
	if y == nil || len(y) != n {
		return nil, errors.NewDimensionError("StratifiedKFold.Split", n, len(y), 0)
	}

	// Group indices by class, preserving first-seen class order.
	classOrder := make([]float64, 0, 2)
	classIndices := make(map[float64][]int)
	for i := 0; i < n; i++ {
		label := y[i]
		if _, ok := classIndices[label]; !ok {
			classOrder = append(classOrder, label)
		}
		classIndices[label] = append(classIndices[label], i)
	}

	for _, label := range classOrder {
		if len(classIndices[label]) < skf.NSplits {
			return nil, errors.NewValidationError("n_splits",
				fmt.Sprintf("class %v has only %d members; cannot stratify into %d folds",
					label, len(classIndices[label]), skf.NSplits), skf.NSplits)
		}
	}

	if skf.Shuffle {
		r := rand.New(rand.NewPCG(uint64(skf.Seed), uint64(skf.Seed)))
		for _, label := range classOrder {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)

	// Distribute each class across folds.
	for _, label := range classOrder {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for i := 0; i < skf.NSplits; i++ {
			testSize := foldSize
			if i < remainder {
				testSize++
			}
			for j := 0; j < testSize && currentIdx < nClass; j++ {
				folds[i].TestIndices = append(folds[i].TestIndices, indices[currentIdx])
				currentIdx++
			}
		}
	}

	// Build train sets (all samples not in the fold's test set).
	for i := 0; i < skf.NSplits; i++ {
		testSet := make(map[int]bool, len(folds[i].TestIndices))
		for _, idx := range folds[i].TestIndices {
			testSet[idx] = true
		}
		for j := 0; j < n; j++ {
			if !testSet[j] {
				folds[i].TrainIndices = append(folds[i].TrainIndices, j)
			}
		}
	}

	return folds, nil
}
