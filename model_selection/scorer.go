package model_selection

import (
	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/metrics"
	"gonum.org/v1/gonum/mat"
)

// Estimator is the model surface cross-validation and grid search drive:
// fit, predict, and the parameter map round-trip.
type Estimator interface {
	model.Fitter
	model.Predictor
	model.ParameterGetter
	model.ParameterSetter
}

// Scorer evaluates a fitted estimator on held-out data.
// Higher scores are better.
type Scorer interface {
	Score(estimator Estimator, X, y mat.Matrix) (float64, error)
	Name() string
}

// AccuracyScorer scores hard predictions by mean accuracy.
type AccuracyScorer struct{}

// Score implements Scorer.
func (AccuracyScorer) Score(estimator Estimator, X, y mat.Matrix) (float64, error) {
	pred, err := estimator.Predict(X)
	if err != nil {
		return 0, err
	}

	n, _ := y.Dims()
	yTrue := mat.NewVecDense(n, nil)
	yPred := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		yTrue.SetVec(i, y.At(i, 0))
		yPred.SetVec(i, pred.At(i, 0))
	}

	return metrics.Accuracy(yTrue, yPred)
}

// Name implements Scorer.
func (AccuracyScorer) Name() string { return "accuracy" }
