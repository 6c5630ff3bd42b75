package model_selection

import (
	"testing"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// thresholdClassifier predicts class 1 when the first feature exceeds a
// threshold. It exists to exercise the search machinery with a model whose
// accuracy depends on one tunable parameter.
type thresholdClassifier struct {
	threshold float64
	fitted    bool
}

func (c *thresholdClassifier) Fit(X, y mat.Matrix) error {
	c.fitted = true
	return nil
}

func (c *thresholdClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !c.fitted {
		return nil, errors.NewNotFittedError("thresholdClassifier", "Predict")
	}
	rows, _ := X.Dims()
	pred := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		if X.At(i, 0) > c.threshold {
			pred.Set(i, 0, 1)
		}
	}
	return pred, nil
}

func (c *thresholdClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{"threshold": c.threshold}
}

func (c *thresholdClassifier) SetParams(params map[string]interface{}) error {
	for name, value := range params {
		switch name {
		case "threshold":
			v, ok := value.(float64)
			if !ok {
				return errors.NewValidationError("threshold", "must be float64", value)
			}
			c.threshold = v
		default:
			return errors.NewValidationError(name, "unknown parameter", value)
		}
	}
	return nil
}

// separableData builds 40 samples where feature 0 < 10 means class 0.
func separableData() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(40, 1, nil)
	y := mat.NewDense(40, 1, nil)
	for i := 0; i < 40; i++ {
		X.Set(i, 0, float64(i))
		if i >= 10 {
			y.Set(i, 0, 1)
		}
	}
	return X, y
}

func TestCrossValidate(t *testing.T) {
	X, y := separableData()

	factory := func() Estimator {
		return &thresholdClassifier{threshold: 9.5}
	}

	result, err := CrossValidate(factory, X, y, NewStratifiedKFold(5, true, 42), AccuracyScorer{})
	if err != nil {
		t.Fatalf("CrossValidate failed: %v", err)
	}

	if len(result.TestScores) != 5 {
		t.Fatalf("expected 5 fold scores, got %d", len(result.TestScores))
	}

	// The threshold separates the classes perfectly.
	if result.MeanScore() != 1.0 {
		t.Errorf("MeanScore = %v, want 1.0", result.MeanScore())
	}
	if result.StdScore() != 0.0 {
		t.Errorf("StdScore = %v, want 0.0", result.StdScore())
	}
}

func TestGridSearchCV_FindsBest(t *testing.T) {
	X, y := separableData()

	gs := NewGridSearchCV(
		func() Estimator { return &thresholdClassifier{} },
		ParamGrid{"threshold": {-1.0, 5.0, 9.5, 30.0}},
		NewStratifiedKFold(5, true, 42),
		AccuracyScorer{},
	)

	if err := gs.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	if got := gs.BestParams_["threshold"].(float64); got != 9.5 {
		t.Errorf("best threshold = %v, want 9.5", got)
	}
	if gs.BestScore_ != 1.0 {
		t.Errorf("BestScore_ = %v, want 1.0", gs.BestScore_)
	}
	if len(gs.CVResults_) != 4 {
		t.Errorf("CVResults_ has %d entries, want 4", len(gs.CVResults_))
	}
	if gs.BestEstimator_ == nil {
		t.Fatal("BestEstimator_ should be refit on the full input")
	}

	pred, err := gs.Predict(X)
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.At(0, 0) != 0 || pred.At(39, 0) != 1 {
		t.Error("refit best estimator misclassifies the extremes")
	}
}

func TestGridSearchCV_Reproducible(t *testing.T) {
	X, y := separableData()
	grid := ParamGrid{"threshold": {5.0, 9.5, 12.0}}

	run := func() (map[string]interface{}, float64) {
		gs := NewGridSearchCV(
			func() Estimator { return &thresholdClassifier{} },
			grid,
			NewStratifiedKFold(5, true, 42),
			AccuracyScorer{},
		)
		if err := gs.Fit(X, y); err != nil {
			t.Fatalf("Fit failed: %v", err)
		}
		return gs.BestParams_, gs.BestScore_
	}

	params1, score1 := run()
	params2, score2 := run()

	if score1 != score2 {
		t.Errorf("scores differ across runs: %v vs %v", score1, score2)
	}
	if params1["threshold"] != params2["threshold"] {
		t.Errorf("best params differ across runs: %v vs %v", params1, params2)
	}
}

func TestGridSearchCV_EmptyGrid(t *testing.T) {
	X, y := separableData()

	gs := NewGridSearchCV(
		func() Estimator { return &thresholdClassifier{} },
		ParamGrid{},
		NewKFold(5, false, 0),
		AccuracyScorer{},
	)
	if err := gs.Fit(X, y); err == nil {
		t.Error("empty parameter grid should fail")
	}

	gs = NewGridSearchCV(
		func() Estimator { return &thresholdClassifier{} },
		ParamGrid{"threshold": {}},
		NewKFold(5, false, 0),
		AccuracyScorer{},
	)
	if err := gs.Fit(X, y); err == nil {
		t.Error("parameter with no candidate values should fail")
	}
}

func TestGridSearchCV_UnstratifiableFolds(t *testing.T) {
	// Only 2 minority samples cannot stratify into 5 folds.
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
	}
	y.Set(8, 0, 1)
	y.Set(9, 0, 1)

	gs := NewGridSearchCV(
		func() Estimator { return &thresholdClassifier{} },
		ParamGrid{"threshold": {5.0}},
		NewStratifiedKFold(5, true, 42),
		AccuracyScorer{},
	)
	if err := gs.Fit(X, y); err == nil {
		t.Error("unstratifiable folds should surface an error")
	}
}

func TestGridSearchCV_NotFittedPredict(t *testing.T) {
	gs := NewGridSearchCV(
		func() Estimator { return &thresholdClassifier{} },
		ParamGrid{"threshold": {1.0}},
		NewKFold(2, false, 0),
		AccuracyScorer{},
	)
	if _, err := gs.Predict(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Predict before Fit should fail")
	}
}
