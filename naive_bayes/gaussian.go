package naive_bayes

import (
	"math"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// GaussianOption configures a GaussianNB.
type GaussianOption func(*GaussianNB)

// WithVarSmoothing sets the fraction of the largest feature variance added
// to all variances for numerical stability.
func WithVarSmoothing(v float64) GaussianOption {
	return func(nb *GaussianNB) {
		nb.varSmoothing = v
	}
}

// WithPriors fixes the class priors instead of learning them from the data.
// The slice must match the class count at fit time and sum to 1.
func WithPriors(priors []float64) GaussianOption {
	return func(nb *GaussianNB) {
		nb.priors = priors
	}
}

// GaussianNB is a naive Bayes classifier assuming each feature follows a
// per-class Gaussian distribution. It suits continuous inputs such as
// scaled billing and tenure features.
type GaussianNB struct {
	state *model.StateManager

	varSmoothing float64
	priors       []float64

	classes_    []int
	theta_      [][]float64 // per-class feature means
	var_        [][]float64 // per-class feature variances (smoothed)
	classPrior_ []float64
	classCount_ []float64
	nFeatures   int
	epsilon_    float64

	logger log.Logger
}

// NewGaussianNB creates a classifier with var_smoothing=1e-9 and priors
// learned from the data.
func NewGaussianNB(opts ...GaussianOption) *GaussianNB {
	nb := &GaussianNB{
		state:        model.NewStateManager(),
		varSmoothing: 1e-9,
		logger:       log.GetLoggerWithName("naive_bayes.gaussian"),
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit estimates per-class feature means and variances. Variances receive
// an additive floor of var_smoothing times the largest overall feature
// variance so that constant features cannot zero out a likelihood.
func (nb *GaussianNB) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "GaussianNB.Fit")

	r, c := X.Dims()
	yRows, _ := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("GaussianNB.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != r {
		return errors.NewDimensionError("GaussianNB.Fit", r, yRows, 0)
	}
	if nb.varSmoothing < 0 {
		return errors.NewValidationError("var_smoothing", "must be non-negative", nb.varSmoothing)
	}

	labels, err := columnLabels(y, "GaussianNB.Fit")
	if err != nil {
		return err
	}
	nb.classes_ = uniqueSorted(labels)
	nClasses := len(nb.classes_)

	classIdx := make(map[int]int, nClasses)
	for i, label := range nb.classes_ {
		classIdx[label] = i
	}

	if nb.priors != nil {
		if len(nb.priors) != nClasses {
			return errors.NewValidationError("priors",
				"length must equal the number of classes", len(nb.priors))
		}
		sum := 0.0
		for _, p := range nb.priors {
			if p < 0 {
				return errors.NewValidationError("priors", "must be non-negative", p)
			}
			sum += p
		}
		if math.Abs(sum-1.0) > 1e-8 {
			return errors.NewValidationError("priors", "must sum to 1", sum)
		}
	}

	// Smoothing floor from the overall feature variances.
	nb.epsilon_ = nb.varSmoothing * maxColumnVariance(X)

	nb.nFeatures = c
	nb.classCount_ = make([]float64, nClasses)
	nb.theta_ = make([][]float64, nClasses)
	nb.var_ = make([][]float64, nClasses)
	for i := range nb.theta_ {
		nb.theta_[i] = make([]float64, c)
		nb.var_[i] = make([]float64, c)
	}

	for i := 0; i < r; i++ {
		ci := classIdx[labels[i]]
		nb.classCount_[ci]++
		for j := 0; j < c; j++ {
			nb.theta_[ci][j] += X.At(i, j)
		}
	}
	for ci := 0; ci < nClasses; ci++ {
		for j := 0; j < c; j++ {
			nb.theta_[ci][j] /= nb.classCount_[ci]
		}
	}
	for i := 0; i < r; i++ {
		ci := classIdx[labels[i]]
		for j := 0; j < c; j++ {
			d := X.At(i, j) - nb.theta_[ci][j]
			nb.var_[ci][j] += d * d
		}
	}
	for ci := 0; ci < nClasses; ci++ {
		for j := 0; j < c; j++ {
			nb.var_[ci][j] = nb.var_[ci][j]/nb.classCount_[ci] + nb.epsilon_
		}
	}

	nb.classPrior_ = make([]float64, nClasses)
	if nb.priors != nil {
		copy(nb.classPrior_, nb.priors)
	} else {
		for ci := range nb.classPrior_ {
			nb.classPrior_[ci] = nb.classCount_[ci] / float64(r)
		}
	}

	nb.state.SetDimensions(c, r)
	nb.state.SetFitted()

	nb.logger.Info("gaussian NB fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"n_classes", nClasses,
		"var_smoothing", nb.varSmoothing,
	)
	return nil
}

// maxColumnVariance returns the largest population variance over all columns.
func maxColumnVariance(X mat.Matrix) float64 {
	r, c := X.Dims()
	maxVar := 0.0
	for j := 0; j < c; j++ {
		mean := 0.0
		for i := 0; i < r; i++ {
			mean += X.At(i, j)
		}
		mean /= float64(r)

		v := 0.0
		for i := 0; i < r; i++ {
			d := X.At(i, j) - mean
			v += d * d
		}
		v /= float64(r)
		if v > maxVar {
			maxVar = v
		}
	}
	return maxVar
}

// jointLogLikelihood computes log P(c) + sum_j log N(x_j; theta_cj, var_cj).
func (nb *GaussianNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != nb.nFeatures {
		return nil, errors.NewDimensionError("GaussianNB", nb.nFeatures, c, 1)
	}

	nClasses := len(nb.classes_)
	jll := mat.NewDense(r, nClasses, nil)
	for ci := 0; ci < nClasses; ci++ {
		logPrior := math.Log(nb.classPrior_[ci])
		for i := 0; i < r; i++ {
			s := logPrior
			for j := 0; j < c; j++ {
				v := nb.var_[ci][j]
				d := X.At(i, j) - nb.theta_[ci][j]
				s += -0.5*math.Log(2*math.Pi*v) - d*d/(2*v)
			}
			jll.Set(i, ci, s)
		}
	}
	return jll, nil
}

// Predict returns the most likely class label for each sample.
func (nb *GaussianNB) Predict(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "GaussianNB.Predict")

	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "Predict")
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return argmaxClasses(jll, nb.classes_), nil
}

// PredictProba returns normalized class probabilities per sample.
func (nb *GaussianNB) PredictProba(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "GaussianNB.PredictProba")

	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	return expMatrix(logProba), nil
}

// PredictLogProba returns log class probabilities per sample.
func (nb *GaussianNB) PredictLogProba(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "GaussianNB.PredictLogProba")

	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("GaussianNB", "PredictLogProba")
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return logNormalize(jll), nil
}

// Score returns the mean accuracy on the given data.
func (nb *GaussianNB) Score(X, y mat.Matrix) (float64, error) {
	pred, err := nb.Predict(X)
	if err != nil {
		return 0, err
	}
	r, _ := y.Dims()
	correct := 0
	for i := 0; i < r; i++ {
		if pred.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(r), nil
}

// Classes returns the sorted class labels seen during fitting.
func (nb *GaussianNB) Classes() []int {
	return nb.classes_
}

// Theta returns the fitted per-class feature means.
func (nb *GaussianNB) Theta() [][]float64 {
	return nb.theta_
}

// GetParams returns the hyperparameters as an sklearn-style map.
func (nb *GaussianNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"var_smoothing": nb.varSmoothing,
		"priors":        nb.priors,
	}
}

// SetParams applies hyperparameters from an sklearn-style map.
func (nb *GaussianNB) SetParams(params map[string]interface{}) error {
	for name, value := range params {
		switch name {
		case "var_smoothing":
			v, ok := value.(float64)
			if !ok || v < 0 {
				return errors.NewValidationError(name, "must be a non-negative float64", value)
			}
			nb.varSmoothing = v
		case "priors":
			if value == nil {
				nb.priors = nil
				continue
			}
			v, ok := value.([]float64)
			if !ok {
				return errors.NewValidationError(name, "must be a []float64", value)
			}
			nb.priors = v
		default:
			return errors.NewValidationError(name, "unknown parameter", value)
		}
	}
	return nil
}
