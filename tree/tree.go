// Package tree implements a CART decision tree classifier with a
// scikit-learn compatible API: Fit/Predict/PredictProba on gonum matrices,
// functional options for construction, and a GetParams/SetParams surface
// the grid search can drive.
package tree

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/core/parallel"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Node is one node of the fitted tree. Fields are exported for gob
// persistence through core/model.
type Node struct {
	Feature     int     // split feature index (-1 for leaves)
	Threshold   float64 // go left when value <= Threshold
	Left        *Node
	Right       *Node
	ClassCounts []float64 // weighted class counts of the training samples reaching this node
	Impurity    float64
	NSamples    int
	Leaf        bool
}

// DecisionTreeClassifier is a CART classifier supporting gini and entropy
// criteria, depth and sample-count constraints, optional per-split feature
// subsampling and balanced class weighting.
type DecisionTreeClassifier struct {
	model.BaseEstimator

	// Hyperparameters
	criterion       string
	maxDepth        int // 0 = unlimited
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 = all
	classWeight     string
	randomState     int

	// Fitted state
	Root           *Node
	classes_       []int
	nClasses_      int
	nFeatures_     int
	nSplitFeatures int // maxFeatures resolved against nFeatures_
	importances    []float64

	rng    *rand.Rand
	logger log.Logger
}

// NewDecisionTreeClassifier creates a classifier with sklearn defaults:
// gini criterion, unlimited depth, min_samples_split=2, min_samples_leaf=1.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	dt := &DecisionTreeClassifier{
		criterion:       "gini",
		maxDepth:        0,
		minSamplesSplit: 2,
		minSamplesLeaf:  1,
		logger:          log.GetLoggerWithName("tree.classifier"),
	}
	for _, opt := range opts {
		opt(dt)
	}
	return dt
}

// Fit builds the tree from training data. y must be an n×1 matrix of
// integer-valued class labels.
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Fit")

	r, c := X.Dims()
	yRows, _ := y.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("DecisionTreeClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != r {
		return errors.NewDimensionError("DecisionTreeClassifier.Fit", r, yRows, 0)
	}
	if dt.criterion != "gini" && dt.criterion != "entropy" {
		return errors.NewValidationError("criterion", "must be 'gini' or 'entropy'", dt.criterion)
	}

	dt.nFeatures_ = c
	dt.nSplitFeatures = dt.resolveMaxFeatures(c)
	dt.rng = rand.New(rand.NewPCG(uint64(dt.randomState), uint64(dt.randomState)))

	// Collect the class set and map labels to contiguous indices.
	labels := make([]int, r)
	classSet := make(map[int]struct{})
	for i := 0; i < r; i++ {
		v := y.At(i, 0)
		label := int(v)
		if float64(label) != v {
			return errors.NewValueError("DecisionTreeClassifier.Fit",
				fmt.Sprintf("labels must be integer-valued, got %v", v))
		}
		labels[i] = label
		classSet[label] = struct{}{}
	}
	dt.classes_ = make([]int, 0, len(classSet))
	for label := range classSet {
		dt.classes_ = append(dt.classes_, label)
	}
	sort.Ints(dt.classes_)
	dt.nClasses_ = len(dt.classes_)

	classIdx := make(map[int]int, dt.nClasses_)
	for i, label := range dt.classes_ {
		classIdx[label] = i
	}
	yIdx := make([]int, r)
	for i, label := range labels {
		yIdx[i] = classIdx[label]
	}

	// Sample weights: uniform, or inversely proportional to class frequency.
	weights := make([]float64, r)
	switch dt.classWeight {
	case "":
		for i := range weights {
			weights[i] = 1.0
		}
	case "balanced":
		counts := make([]float64, dt.nClasses_)
		for _, ci := range yIdx {
			counts[ci]++
		}
		for i, ci := range yIdx {
			weights[i] = float64(r) / (float64(dt.nClasses_) * counts[ci])
		}
	default:
		return errors.NewValidationError("class_weight", "must be '' or 'balanced'", dt.classWeight)
	}

	dense := mat.DenseCopyOf(X)
	samples := make([]int, r)
	for i := range samples {
		samples[i] = i
	}

	dt.importances = make([]float64, c)
	dt.Root = dt.buildTree(dense, yIdx, weights, samples, 0)
	dt.normalizeImportances()
	dt.SetFitted()

	dt.logger.Info("decision tree fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, r,
		log.FeaturesKey, c,
		"depth", dt.GetDepth(),
		"n_leaves", dt.GetNLeaves(),
	)
	return nil
}

// buildTree grows the tree recursively with the configured constraints.
func (dt *DecisionTreeClassifier) buildTree(X *mat.Dense, yIdx []int, weights []float64, samples []int, depth int) *Node {
	counts := make([]float64, dt.nClasses_)
	for _, s := range samples {
		counts[yIdx[s]] += weights[s]
	}

	node := &Node{
		Feature:     -1,
		ClassCounts: counts,
		Impurity:    dt.impurity(counts),
		NSamples:    len(samples),
		Leaf:        true,
	}

	if node.Impurity == 0 ||
		len(samples) < dt.minSamplesSplit ||
		(dt.maxDepth > 0 && depth >= dt.maxDepth) {
		return node
	}

	feature, threshold, gain, ok := dt.findBestSplit(X, yIdx, weights, samples, node.Impurity)
	if !ok || gain <= 0 {
		return node
	}

	var left, right []int
	for _, s := range samples {
		if X.At(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) < dt.minSamplesLeaf || len(right) < dt.minSamplesLeaf {
		return node
	}

	// Weighted impurity decrease, accumulated per feature for importances.
	totalWeight := sum(counts)
	leftCounts := make([]float64, dt.nClasses_)
	for _, s := range left {
		leftCounts[yIdx[s]] += weights[s]
	}
	rightCounts := make([]float64, dt.nClasses_)
	for i := range counts {
		rightCounts[i] = counts[i] - leftCounts[i]
	}
	decrease := totalWeight*node.Impurity -
		sum(leftCounts)*dt.impurity(leftCounts) -
		sum(rightCounts)*dt.impurity(rightCounts)
	dt.importances[feature] += decrease

	node.Feature = feature
	node.Threshold = threshold
	node.Leaf = false
	node.Left = dt.buildTree(X, yIdx, weights, left, depth+1)
	node.Right = dt.buildTree(X, yIdx, weights, right, depth+1)
	return node
}

// splitCandidate is the best split found for one feature.
type splitCandidate struct {
	feature   int
	threshold float64
	gain      float64
	valid     bool
}

// findBestSplit scans candidate thresholds (midpoints between consecutive
// sorted unique values) for each considered feature and returns the split
// with the largest weighted impurity decrease. Feature scans fan out across
// CPU cores for wide inputs; ties break on the lowest feature index so the
// result is deterministic.
func (dt *DecisionTreeClassifier) findBestSplit(X *mat.Dense, yIdx []int, weights []float64, samples []int, parentImpurity float64) (int, float64, float64, bool) {
	features := dt.candidateFeatures()
	results := make([]splitCandidate, len(features))

	parallel.ParallelizeWithThreshold(len(features), 8, func(start, end int) {
		for fi := start; fi < end; fi++ {
			results[fi] = dt.scanFeature(X, yIdx, weights, samples, features[fi], parentImpurity)
		}
	})

	best := splitCandidate{feature: -1}
	for _, cand := range results {
		if !cand.valid {
			continue
		}
		if !best.valid || cand.gain > best.gain ||
			(cand.gain == best.gain && cand.feature < best.feature) {
			best = cand
		}
	}
	return best.feature, best.threshold, best.gain, best.valid
}

// scanFeature finds the best threshold for a single feature.
func (dt *DecisionTreeClassifier) scanFeature(X *mat.Dense, yIdx []int, weights []float64, samples []int, feature int, parentImpurity float64) splitCandidate {
	order := make([]int, len(samples))
	copy(order, samples)
	sort.Slice(order, func(a, b int) bool {
		return X.At(order[a], feature) < X.At(order[b], feature)
	})

	totalCounts := make([]float64, dt.nClasses_)
	for _, s := range order {
		totalCounts[yIdx[s]] += weights[s]
	}
	totalWeight := sum(totalCounts)

	leftCounts := make([]float64, dt.nClasses_)
	rightCounts := make([]float64, dt.nClasses_)
	copy(rightCounts, totalCounts)

	best := splitCandidate{feature: feature}
	for i := 0; i < len(order)-1; i++ {
		s := order[i]
		leftCounts[yIdx[s]] += weights[s]
		rightCounts[yIdx[s]] -= weights[s]

		v, next := X.At(s, feature), X.At(order[i+1], feature)
		if v == next {
			continue
		}
		if i+1 < dt.minSamplesLeaf || len(order)-i-1 < dt.minSamplesLeaf {
			continue
		}

		leftWeight := sum(leftCounts)
		rightWeight := totalWeight - leftWeight
		childImpurity := (leftWeight*dt.impurity(leftCounts) +
			rightWeight*dt.impurity(rightCounts)) / totalWeight
		gain := parentImpurity - childImpurity

		if !best.valid || gain > best.gain {
			best.threshold = (v + next) / 2
			best.gain = gain
			best.valid = true
		}
	}
	return best
}

// resolveMaxFeatures turns the max_features setting into a concrete count
// for the given feature dimension. The "sqrt" and "log2" forms are stored
// as negative sentinels by SetParams.
func (dt *DecisionTreeClassifier) resolveMaxFeatures(nFeatures int) int {
	var n int
	switch dt.maxFeatures {
	case maxFeaturesSqrt:
		n = int(math.Sqrt(float64(nFeatures)))
	case maxFeaturesLog2:
		n = int(math.Log2(float64(nFeatures)))
	default:
		n = dt.maxFeatures
	}
	if n < 1 {
		if dt.maxFeatures == 0 {
			return nFeatures
		}
		n = 1
	}
	if n > nFeatures {
		n = nFeatures
	}
	return n
}

// candidateFeatures returns the feature indices considered at a split:
// all of them, or a seeded random subset when max_features is set.
func (dt *DecisionTreeClassifier) candidateFeatures() []int {
	all := make([]int, dt.nFeatures_)
	for i := range all {
		all[i] = i
	}
	if dt.nSplitFeatures >= dt.nFeatures_ {
		return all
	}
	dt.rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	subset := all[:dt.nSplitFeatures]
	sort.Ints(subset)
	return subset
}

// impurity computes gini or entropy over weighted class counts.
func (dt *DecisionTreeClassifier) impurity(counts []float64) float64 {
	total := sum(counts)
	if total == 0 {
		return 0
	}

	if dt.criterion == "entropy" {
		entropy := 0.0
		for _, c := range counts {
			if c > 0 {
				p := c / total
				entropy -= p * math.Log2(p)
			}
		}
		return entropy
	}

	gini := 1.0
	for _, c := range counts {
		p := c / total
		gini -= p * p
	}
	return gini
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

// Predict returns the majority class of the leaf each sample reaches.
func (dt *DecisionTreeClassifier) Predict(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.Predict")

	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "Predict")
	}
	r, c := X.Dims()
	if c != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.Predict", dt.nFeatures_, c, 1)
	}

	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		leaf := dt.traverse(X, i)
		bestClass, bestCount := 0, leaf.ClassCounts[0]
		for j := 1; j < dt.nClasses_; j++ {
			if leaf.ClassCounts[j] > bestCount {
				bestClass, bestCount = j, leaf.ClassCounts[j]
			}
		}
		pred.Set(i, 0, float64(dt.classes_[bestClass]))
	}
	return pred, nil
}

// PredictProba returns per-class probabilities from leaf class frequencies.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (result mat.Matrix, err error) {
	defer errors.Recover(&err, "DecisionTreeClassifier.PredictProba")

	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "PredictProba")
	}
	r, c := X.Dims()
	if c != dt.nFeatures_ {
		return nil, errors.NewDimensionError("DecisionTreeClassifier.PredictProba", dt.nFeatures_, c, 1)
	}

	proba := mat.NewDense(r, dt.nClasses_, nil)
	for i := 0; i < r; i++ {
		leaf := dt.traverse(X, i)
		total := sum(leaf.ClassCounts)
		for j := 0; j < dt.nClasses_; j++ {
			proba.Set(i, j, leaf.ClassCounts[j]/total)
		}
	}
	return proba, nil
}

func (dt *DecisionTreeClassifier) traverse(X mat.Matrix, row int) *Node {
	node := dt.Root
	for !node.Leaf {
		if X.At(row, node.Feature) <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

// Score returns the mean accuracy on the given data.
func (dt *DecisionTreeClassifier) Score(X, y mat.Matrix) (float64, error) {
	pred, err := dt.Predict(X)
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
func (dt *DecisionTreeClassifier) Classes() []int {
	return dt.classes_
}

// GetDepth returns the depth of the fitted tree (a lone leaf has depth 0).
func (dt *DecisionTreeClassifier) GetDepth() int {
	return nodeDepth(dt.Root)
}

func nodeDepth(n *Node) int {
	if n == nil || n.Leaf {
		return 0
	}
	left, right := nodeDepth(n.Left), nodeDepth(n.Right)
	if left > right {
		return left + 1
	}
	return right + 1
}

// GetNLeaves returns the number of leaves in the fitted tree.
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	return countLeaves(dt.Root)
}

func countLeaves(n *Node) int {
	if n == nil {
		return 0
	}
	if n.Leaf {
		return 1
	}
	return countLeaves(n.Left) + countLeaves(n.Right)
}

// GetFeatureImportances returns impurity-decrease importances normalized to
// sum to 1. A stump that never split returns all zeros.
func (dt *DecisionTreeClassifier) GetFeatureImportances() ([]float64, error) {
	if !dt.IsFitted() {
		return nil, errors.NewNotFittedError("DecisionTreeClassifier", "GetFeatureImportances")
	}
	out := make([]float64, len(dt.importances))
	copy(out, dt.importances)
	return out, nil
}

func (dt *DecisionTreeClassifier) normalizeImportances() {
	total := sum(dt.importances)
	if total > 0 {
		for i := range dt.importances {
			dt.importances[i] /= total
		}
	}
}

// GetParams returns the hyperparameters as an sklearn-style map.
func (dt *DecisionTreeClassifier) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"criterion":         dt.criterion,
		"max_depth":         dt.maxDepth,
		"min_samples_split": dt.minSamplesSplit,
		"min_samples_leaf":  dt.minSamplesLeaf,
		"max_features":      dt.maxFeatures,
		"class_weight":      dt.classWeight,
		"random_state":      dt.randomState,
	}
}

// SetParams applies hyperparameters from an sklearn-style map.
// "max_features" accepts a non-negative count (0 = all features) or the
// strings "sqrt" and "log2", which are resolved against the feature count
// at fit time.
func (dt *DecisionTreeClassifier) SetParams(params map[string]interface{}) error {
	for name, value := range params {
		switch name {
		case "criterion":
			v, ok := value.(string)
			if !ok || (v != "gini" && v != "entropy") {
				return errors.NewValidationError(name, "must be 'gini' or 'entropy'", value)
			}
			dt.criterion = v
		case "max_depth":
			v, err := toInt(value)
			if err != nil {
				return errors.NewValidationError(name, "must be an integer", value)
			}
			dt.maxDepth = v
		case "min_samples_split":
			v, err := toInt(value)
			if err != nil || v < 2 {
				return errors.NewValidationError(name, "must be an integer >= 2", value)
			}
			dt.minSamplesSplit = v
		case "min_samples_leaf":
			v, err := toInt(value)
			if err != nil || v < 1 {
				return errors.NewValidationError(name, "must be an integer >= 1", value)
			}
			dt.minSamplesLeaf = v
		case "max_features":
			switch v := value.(type) {
			case string:
				if v != "sqrt" && v != "log2" {
					return errors.NewValidationError(name, "string form must be 'sqrt' or 'log2'", value)
				}
				if v == "sqrt" {
					dt.maxFeatures = maxFeaturesSqrt
				} else {
					dt.maxFeatures = maxFeaturesLog2
				}
			default:
				iv, err := toInt(value)
				if err != nil || iv < maxFeaturesLog2 {
					return errors.NewValidationError(name, "must be 'sqrt', 'log2' or a non-negative integer", value)
				}
				dt.maxFeatures = iv
			}
		case "class_weight":
			v, ok := value.(string)
			if !ok || (v != "" && v != "balanced") {
				return errors.NewValidationError(name, "must be '' or 'balanced'", value)
			}
			dt.classWeight = v
		case "random_state":
			v, err := toInt(value)
			if err != nil {
				return errors.NewValidationError(name, "must be an integer", value)
			}
			dt.randomState = v
		default:
			return errors.NewValidationError(name, "unknown parameter", value)
		}
	}
	return nil
}

// Sentinels for the string forms of max_features, resolved in Fit.
const (
	maxFeaturesSqrt = -1
	maxFeaturesLog2 = -2
)

// toInt accepts the integer encodings that show up in parameter maps.
func toInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("not an integer: %v", v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("not an integer: %v", value)
	}
}

// Save persists the fitted tree with gob through core/model.
func (dt *DecisionTreeClassifier) Save(path string) error {
	if !dt.IsFitted() {
		return errors.NewNotFittedError("DecisionTreeClassifier", "Save")
	}
	return model.SaveModel(dt.snapshot(), path)
}

// Load restores a tree previously written by Save.
func (dt *DecisionTreeClassifier) Load(path string) error {
	var snap treeSnapshot
	if err := model.LoadModel(&snap, path); err != nil {
		return err
	}
	dt.restore(&snap)
	return nil
}

// treeSnapshot is the gob-encodable state of a fitted classifier.
type treeSnapshot struct {
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int
	ClassWeight     string
	RandomState     int
	Root            *Node
	Classes         []int
	NFeatures       int
	Importances     []float64
}

func (dt *DecisionTreeClassifier) snapshot() *treeSnapshot {
	return &treeSnapshot{
		Criterion:       dt.criterion,
		MaxDepth:        dt.maxDepth,
		MinSamplesSplit: dt.minSamplesSplit,
		MinSamplesLeaf:  dt.minSamplesLeaf,
		MaxFeatures:     dt.maxFeatures,
		ClassWeight:     dt.classWeight,
		RandomState:     dt.randomState,
		Root:            dt.Root,
		Classes:         dt.classes_,
		NFeatures:       dt.nFeatures_,
		Importances:     dt.importances,
	}
}

func (dt *DecisionTreeClassifier) restore(snap *treeSnapshot) {
	dt.criterion = snap.Criterion
	dt.maxDepth = snap.MaxDepth
	dt.minSamplesSplit = snap.MinSamplesSplit
	dt.minSamplesLeaf = snap.MinSamplesLeaf
	dt.maxFeatures = snap.MaxFeatures
	dt.classWeight = snap.ClassWeight
	dt.randomState = snap.RandomState
	dt.Root = snap.Root
	dt.classes_ = snap.Classes
	dt.nClasses_ = len(snap.Classes)
	dt.nFeatures_ = snap.NFeatures
	dt.importances = snap.Importances
	if dt.logger == nil {
		dt.logger = log.GetLoggerWithName("tree.classifier")
	}
	dt.SetFitted()
}
