// Package naive_bayes implements naive Bayes classifiers: GaussianNB for
// continuous features and MultinomialNB for count data. Both follow the
// scikit-learn API surface (Fit/Predict/PredictProba/Score) on gonum
// matrices and expose their hyperparameters through GetParams/SetParams.
package naive_bayes

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// MultinomialOption configures a MultinomialNB.
type MultinomialOption func(*MultinomialNB)

// WithAlpha sets the additive (Laplace/Lidstone) smoothing parameter.
func WithAlpha(alpha float64) MultinomialOption {
	return func(nb *MultinomialNB) {
		nb.alpha = alpha
	}
}

// WithFitPrior controls whether class priors are learned from the data.
// When false, a uniform prior is used.
func WithFitPrior(fitPrior bool) MultinomialOption {
	return func(nb *MultinomialNB) {
		nb.fitPrior = fitPrior
	}
}

// MultinomialNB is a naive Bayes classifier for multinomially distributed
// data such as word counts. Features must be non-negative. It supports
// incremental learning through PartialFit.
type MultinomialNB struct {
	state *model.StateManager

	alpha    float64
	fitPrior bool

	classes_      []int
	classIndex    map[int]int
	classCount_   []float64   // samples seen per class
	featureCount_ [][]float64 // per-class feature count sums
	nFeatures     int
	nSamplesSeen  int

	logger log.Logger
}

// NewMultinomialNB creates a classifier with alpha=1.0 and learned priors.
func NewMultinomialNB(opts ...MultinomialOption) *MultinomialNB {
	nb := &MultinomialNB{
		state:    model.NewStateManager(),
		alpha:    1.0,
		fitPrior: true,
		logger:   log.GetLoggerWithName("naive_bayes.multinomial"),
	}
	for _, opt := range opts {
		opt(nb)
	}
	return nb
}

// Fit learns class priors and feature counts from the full dataset,
// discarding any previously accumulated state.
func (nb *MultinomialNB) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "MultinomialNB.Fit")

	labels, err := columnLabels(y, "MultinomialNB.Fit")
	if err != nil {
		return err
	}
	classes := uniqueSorted(labels)

	nb.resetCounts()
	return nb.PartialFit(X, y, classes)
}

// PartialFit updates the model with a batch of samples. The full class set
// must be supplied on the first call; later calls may pass nil.
func (nb *MultinomialNB) PartialFit(X, y mat.Matrix, classes []int) (err error) {
	defer errors.Recover(&err, "MultinomialNB.PartialFit")

	r, c := X.Dims()
	yRows, _ := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MultinomialNB.PartialFit", "empty data", errors.ErrEmptyData)
	}
	if yRows != r {
		return errors.NewDimensionError("MultinomialNB.PartialFit", r, yRows, 0)
	}

	if nb.classes_ == nil {
		if classes == nil {
			return errors.NewValueError("MultinomialNB.PartialFit",
				"classes must be provided on the first call")
		}
		nb.initCounts(classes, c)
	} else if c != nb.nFeatures {
		return errors.NewDimensionError("MultinomialNB.PartialFit", nb.nFeatures, c, 1)
	}

	labels, err := columnLabels(y, "MultinomialNB.PartialFit")
	if err != nil {
		return err
	}

	for i := 0; i < r; i++ {
		ci, ok := nb.classIndex[labels[i]]
		if !ok {
			return errors.NewValueError("MultinomialNB.PartialFit",
				"label outside the declared class set")
		}
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if v < 0 {
				return errors.NewValueError("MultinomialNB.PartialFit",
					"negative feature values are not allowed for multinomial models")
			}
			nb.featureCount_[ci][j] += v
		}
		nb.classCount_[ci]++
	}
	nb.nSamplesSeen += r

	nb.state.SetDimensions(c, nb.nSamplesSeen)
	nb.state.SetFitted()

	nb.logger.Debug("multinomial NB updated",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nb.nSamplesSeen,
		log.FeaturesKey, c,
	)
	return nil
}

func (nb *MultinomialNB) initCounts(classes []int, nFeatures int) {
	nb.classes_ = make([]int, len(classes))
	copy(nb.classes_, classes)
	sort.Ints(nb.classes_)

	nb.classIndex = make(map[int]int, len(nb.classes_))
	for i, label := range nb.classes_ {
		nb.classIndex[label] = i
	}

	nb.classCount_ = make([]float64, len(nb.classes_))
	nb.featureCount_ = make([][]float64, len(nb.classes_))
	for i := range nb.featureCount_ {
		nb.featureCount_[i] = make([]float64, nFeatures)
	}
	nb.nFeatures = nFeatures
	nb.nSamplesSeen = 0
}

func (nb *MultinomialNB) resetCounts() {
	nb.classes_ = nil
	nb.classIndex = nil
	nb.classCount_ = nil
	nb.featureCount_ = nil
	nb.nFeatures = 0
	nb.nSamplesSeen = 0
	nb.state.Reset()
}

// jointLogLikelihood computes log P(c) + sum_j x_j log theta_cj per sample.
func (nb *MultinomialNB) jointLogLikelihood(X mat.Matrix) (*mat.Dense, error) {
	r, c := X.Dims()
	if c != nb.nFeatures {
		return nil, errors.NewDimensionError("MultinomialNB", nb.nFeatures, c, 1)
	}

	// Tiny alpha floor keeps log(0) out of the likelihood when smoothing
	// is disabled, matching sklearn's clipping.
	alpha := nb.alpha
	if alpha < 1e-10 {
		alpha = 1e-10
	}

	nClasses := len(nb.classes_)
	logPrior := make([]float64, nClasses)
	total := 0.0
	for _, cnt := range nb.classCount_ {
		total += cnt
	}
	for i := range logPrior {
		if nb.fitPrior {
			logPrior[i] = math.Log(nb.classCount_[i] / total)
		} else {
			logPrior[i] = -math.Log(float64(nClasses))
		}
	}

	// Smoothed log feature probabilities.
	logProb := make([][]float64, nClasses)
	for i := range logProb {
		classTotal := 0.0
		for _, v := range nb.featureCount_[i] {
			classTotal += v
		}
		denom := math.Log(classTotal + alpha*float64(nb.nFeatures))
		logProb[i] = make([]float64, nb.nFeatures)
		for j := 0; j < nb.nFeatures; j++ {
			logProb[i][j] = math.Log(nb.featureCount_[i][j]+alpha) - denom
		}
	}

	jll := mat.NewDense(r, nClasses, nil)
	for i := 0; i < r; i++ {
		for ci := 0; ci < nClasses; ci++ {
			s := logPrior[ci]
			for j := 0; j < nb.nFeatures; j++ {
				s += X.At(i, j) * logProb[ci][j]
			}
			jll.Set(i, ci, s)
		}
	}
	return jll, nil
}

// Predict returns the most likely class label for each sample.
func (nb *MultinomialNB) Predict(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "MultinomialNB.Predict")

	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("MultinomialNB", "Predict")
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return argmaxClasses(jll, nb.classes_), nil
}

// PredictProba returns normalized class probabilities per sample.
func (nb *MultinomialNB) PredictProba(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "MultinomialNB.PredictProba")

	logProba, err := nb.PredictLogProba(X)
	if err != nil {
		return nil, err
	}
	return expMatrix(logProba), nil
}

// PredictLogProba returns log class probabilities per sample.
func (nb *MultinomialNB) PredictLogProba(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "MultinomialNB.PredictLogProba")

	if !nb.state.IsFitted() {
		return nil, errors.NewNotFittedError("MultinomialNB", "PredictLogProba")
	}
	jll, err := nb.jointLogLikelihood(X)
	if err != nil {
		return nil, err
	}
	return logNormalize(jll), nil
}

// Score returns the mean accuracy on the given data.
func (nb *MultinomialNB) Score(X, y mat.Matrix) (float64, error) {
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

// Classes returns the sorted class labels the model knows about.
func (nb *MultinomialNB) Classes() []int {
	return nb.classes_
}

// NSamplesSeen returns the number of samples accumulated so far.
func (nb *MultinomialNB) NSamplesSeen() int {
	return nb.nSamplesSeen
}

// GetParams returns the hyperparameters as an sklearn-style map.
func (nb *MultinomialNB) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"alpha":     nb.alpha,
		"fit_prior": nb.fitPrior,
	}
}

// SetParams applies hyperparameters from an sklearn-style map.
func (nb *MultinomialNB) SetParams(params map[string]interface{}) error {
	for name, value := range params {
		switch name {
		case "alpha":
			v, ok := value.(float64)
			if !ok || v < 0 {
				return errors.NewValidationError(name, "must be a non-negative float64", value)
			}
			nb.alpha = v
		case "fit_prior":
			v, ok := value.(bool)
			if !ok {
				return errors.NewValidationError(name, "must be a bool", value)
			}
			nb.fitPrior = v
		default:
			return errors.NewValidationError(name, "unknown parameter", value)
		}
	}
	return nil
}

// columnLabels extracts integer labels from an n×1 target matrix.
func columnLabels(y mat.Matrix, op string) ([]int, error) {
	r, _ := y.Dims()
	labels := make([]int, r)
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		label := int(v)
		if float64(label) != v {
			return nil, errors.NewValueError(op, "labels must be integer-valued")
		}
		labels[i] = label
	}
	return labels, nil
}

func uniqueSorted(labels []int) []int {
	set := make(map[int]struct{})
	for _, l := range labels {
		set[l] = struct{}{}
	}
	out := make([]int, 0, len(set))
	for l := range set {
		out = append(out, l)
	}
	sort.Ints(out)
	return out
}

// argmaxClasses maps per-class scores to the winning class label column.
func argmaxClasses(scores *mat.Dense, classes []int) *mat.Dense {
	r, c := scores.Dims()
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		best, bestV := 0, scores.At(i, 0)
		for j := 1; j < c; j++ {
			if scores.At(i, j) > bestV {
				best, bestV = j, scores.At(i, j)
			}
		}
		pred.Set(i, 0, float64(classes[best]))
	}
	return pred
}

// logNormalize subtracts the log-sum-exp of each row so rows exponentiate
// to proper probability distributions.
func logNormalize(jll *mat.Dense) *mat.Dense {
	r, c := jll.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		maxv := jll.At(i, 0)
		for j := 1; j < c; j++ {
			if jll.At(i, j) > maxv {
				maxv = jll.At(i, j)
			}
		}
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += math.Exp(jll.At(i, j) - maxv)
		}
		logSum := maxv + math.Log(sum)
		for j := 0; j < c; j++ {
			out.Set(i, j, jll.At(i, j)-logSum)
		}
	}
	return out
}

func expMatrix(logProba mat.Matrix) *mat.Dense {
	r, c := logProba.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, math.Exp(logProba.At(i, j)))
		}
	}
	return out
}
