package model_selection

import (
	"fmt"
	"math"
	"sync"

	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// CVResult stores per-fold cross-validation scores.
type CVResult struct {
	TestScores []float64
}

// MeanScore returns the mean test score across folds.
func (cv *CVResult) MeanScore() float64 {
	if len(cv.TestScores) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, score := range cv.TestScores {
		sum += score
	}
	return sum / float64(len(cv.TestScores))
}

// StdScore returns the sample standard deviation of test scores.
func (cv *CVResult) StdScore() float64 {
	if len(cv.TestScores) <= 1 {
		return 0.0
	}

	mean := cv.MeanScore()
	sumSq := 0.0
	for _, score := range cv.TestScores {
		diff := score - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(len(cv.TestScores)-1))
}

// CrossValidate fits a fresh estimator per fold and scores it on the
// held-out fold. The factory must return an unfitted estimator each call.
//
// Folds run concurrently, one goroutine per fold; this is the only
// concurrency in the training pipeline and each call is self-terminating.
func CrossValidate(factory func() Estimator, X, y mat.Matrix, splitter Splitter, scorer Scorer) (*CVResult, error) {
	n, _ := X.Dims()

	yCol := make([]float64, n)
	for i := 0; i < n; i++ {
		yCol[i] = y.At(i, 0)
	}

	folds, err := splitter.Split(n, yCol)
	if err != nil {
		return nil, err
	}
	nFolds := len(folds)

	logger := log.GetLoggerWithName("model_selection.cross_validation")
	logger.Debug("starting cross-validation",
		log.FoldsKey, nFolds,
		log.SamplesKey, n,
	)

	result := &CVResult{
		TestScores: make([]float64, nFolds),
	}

	var wg sync.WaitGroup
	foldErrors := make([]error, nFolds)

	for foldIdx := 0; foldIdx < nFolds; foldIdx++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			fold := folds[idx]
			trainX, trainY := ExtractRows(X, y, fold.TrainIndices)
			testX, testY := ExtractRows(X, y, fold.TestIndices)

			estimator := factory()
			if err := estimator.Fit(trainX, trainY); err != nil {
				foldErrors[idx] = fmt.Errorf("fold %d training failed: %w", idx, err)
				return
			}

			score, err := scorer.Score(estimator, testX, testY)
			if err != nil {
				foldErrors[idx] = fmt.Errorf("fold %d scoring failed: %w", idx, err)
				return
			}
			result.TestScores[idx] = score
		}(foldIdx)
	}

	wg.Wait()

	for _, err := range foldErrors {
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("cross-validation finished",
		log.FoldsKey, nFolds,
		"mean_score", result.MeanScore(),
	)

	return result, nil
}
