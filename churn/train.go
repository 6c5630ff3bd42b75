package churn

import (
	"github.com/YuminosukeSato/churnlab/imbalance"
	"github.com/YuminosukeSato/churnlab/metrics"
	"github.com/YuminosukeSato/churnlab/model_selection"
	"github.com/YuminosukeSato/churnlab/naive_bayes"
	"github.com/YuminosukeSato/churnlab/pipeline"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/YuminosukeSato/churnlab/preprocessing"
	"github.com/YuminosukeSato/churnlab/tree"
	"gonum.org/v1/gonum/mat"
)

// Hyperparameter search spaces and fold counts of the reference procedure.
var treeParamGrid = model_selection.ParamGrid{
	"max_depth":         {3, 5, 7, 10},
	"min_samples_split": {2, 5, 10},
	"min_samples_leaf":  {1, 2, 4},
	"max_features":      {0, "sqrt"},
	"class_weight":      {"", "balanced"},
	"criterion":         {"gini", "entropy"},
}

var nbParamGrid = model_selection.ParamGrid{
	"gaussiannb__var_smoothing": {1e-9, 1e-8, 1e-7, 1e-6, 1e-5},
}

// Reference fold counts and baseline depth. The fold counts are defaults;
// callers may override them per run.
const (
	DefaultTreeCVFolds = 10
	DefaultNBCVFolds   = 5
	baselineTreeDepth  = 5
)

// probaPredictor is the surface Evaluate needs from a trained model.
type probaPredictor interface {
	Predict(X mat.Matrix) (mat.Matrix, error)
	PredictProba(X mat.Matrix) (mat.Matrix, error)
}

// Evaluate scores a trained model on held-out data. The positive-class
// score used for ROC-AUC is the second probability column (class 1).
func Evaluate(model probaPredictor, XTest, yTest mat.Matrix) (*metrics.ClassificationReport, error) {
	pred, err := model.Predict(XTest)
	if err != nil {
		return nil, err
	}
	proba, err := model.PredictProba(XTest)
	if err != nil {
		return nil, err
	}

	r, _ := yTest.Dims()
	_, probaCols := proba.Dims()
	if probaCols < 2 {
		return nil, errors.NewValueError("churn.Evaluate", "expected two probability columns")
	}

	yTrue := make([]float64, r)
	yPred := make([]float64, r)
	yScore := make([]float64, r)
	for i := 0; i < r; i++ {
		yTrue[i] = yTest.At(i, 0)
		yPred[i] = pred.At(i, 0)
		yScore[i] = proba.At(i, 1)
	}
	return metrics.Report(yTrue, yPred, yScore)
}

// TreeResult bundles the baseline and tuned decision tree outcomes.
type TreeResult struct {
	Baseline      *metrics.ClassificationReport
	Tuned         *metrics.ClassificationReport
	BestParams    map[string]interface{}
	BestCVScore   float64
	TunedModel    *tree.DecisionTreeClassifier
	Importances   []float64
	ImportanceMap map[string]float64
}

// TrainTree fits the depth-5 baseline tree, runs the stratified grid search
// over the full hyperparameter grid, and evaluates both on held-out data.
func TrainTree(XTrain, yTrain, XTest, yTest *mat.Dense, featureNames []string, seed, cvFolds int) (*TreeResult, error) {
	logger := log.GetLoggerWithName("churn.train_tree")
	if cvFolds < 2 {
		cvFolds = DefaultTreeCVFolds
	}

	baseline := tree.NewDecisionTreeClassifier(
		tree.WithMaxDepth(baselineTreeDepth),
		tree.WithRandomState(seed),
	)
	if err := baseline.Fit(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "baseline tree fit failed")
	}
	baselineReport, err := Evaluate(baseline, XTest, yTest)
	if err != nil {
		return nil, err
	}
	logger.Info("baseline tree evaluated",
		log.ModelNameKey, "decision_tree",
		log.AccuracyKey, baselineReport.Accuracy,
	)

	gs := model_selection.NewGridSearchCV(
		func() model_selection.Estimator {
			return tree.NewDecisionTreeClassifier(tree.WithRandomState(seed))
		},
		treeParamGrid,
		model_selection.NewStratifiedKFold(cvFolds, true, seed),
		model_selection.AccuracyScorer{},
	)
	if err := gs.Fit(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "tree grid search failed")
	}

	tuned, ok := gs.BestEstimator_.(*tree.DecisionTreeClassifier)
	if !ok {
		return nil, errors.NewModelError("churn.TrainTree", "unexpected best estimator type", nil)
	}
	tunedReport, err := Evaluate(tuned, XTest, yTest)
	if err != nil {
		return nil, err
	}

	importances, err := tuned.GetFeatureImportances()
	if err != nil {
		return nil, err
	}
	importanceMap := make(map[string]float64, len(featureNames))
	for i, name := range featureNames {
		if i < len(importances) {
			importanceMap[name] = importances[i]
		}
	}

	logger.Info("tuned tree evaluated",
		log.ModelNameKey, "decision_tree",
		log.BestScoreKey, gs.BestScore_,
		log.HyperParamsKey, gs.BestParams_,
		log.AccuracyKey, tunedReport.Accuracy,
	)

	return &TreeResult{
		Baseline:      baselineReport,
		Tuned:         tunedReport,
		BestParams:    gs.BestParams_,
		BestCVScore:   gs.BestScore_,
		TunedModel:    tuned,
		Importances:   importances,
		ImportanceMap: importanceMap,
	}, nil
}

// NBResult bundles the baseline and tuned Gaussian naive Bayes outcomes.
type NBResult struct {
	Baseline    *metrics.ClassificationReport
	Tuned       *metrics.ClassificationReport
	BestParams  map[string]interface{}
	BestCVScore float64
	SMOTEUsed   bool
}

// nbPipeline builds a fresh standardize→GaussianNB pipeline.
func nbPipeline() model_selection.Estimator {
	return pipeline.New(
		pipeline.Step{Name: "scale", Estimator: preprocessing.NewStandardScalerDefault()},
		pipeline.Step{Name: "gaussiannb", Estimator: naive_bayes.NewGaussianNB()},
	)
}

// TrainNB fits the GaussianNB baseline on the augmented split, then tunes
// var_smoothing through a standardize→GaussianNB pipeline with stratified CV.
//
// Unless skipSMOTE is set, the tuned path first balances the FULL
// pre-split feature/label set with SMOTE and draws a fresh stratified
// split from the balanced data. Synthetic rows generated before the split
// can land on both sides, so the tuned scores are optimistic; the
// reference procedure does this and it is preserved, not corrected.
func TrainNB(XTrain, yTrain, XTest, yTest *mat.Dense, fullX, fullY *mat.Dense, seed int, testSize float64, skipSMOTE bool, cvFolds int) (*NBResult, error) {
	logger := log.GetLoggerWithName("churn.train_nb")
	if cvFolds < 2 {
		cvFolds = DefaultNBCVFolds
	}

	baseline := naive_bayes.NewGaussianNB()
	if err := baseline.Fit(XTrain, yTrain); err != nil {
		return nil, errors.Wrap(err, "baseline NB fit failed")
	}
	baselineReport, err := Evaluate(baseline, XTest, yTest)
	if err != nil {
		return nil, err
	}
	logger.Info("baseline NB evaluated",
		log.ModelNameKey, "gaussian_nb",
		log.AccuracyKey, baselineReport.Accuracy,
	)

	tunedTrainX, tunedTrainY := XTrain, yTrain
	tunedTestX, tunedTestY := XTest, yTest
	smoteUsed := false

	if !skipSMOTE {
		smote := imbalance.NewSMOTE(imbalance.WithSeed(seed))
		balancedX, balancedY, err := smote.FitResample(fullX, fullY)
		if err != nil {
			return nil, errors.Wrap(err, "SMOTE resampling failed")
		}
		freshSplit, err := model_selection.TrainTestSplit(balancedX, balancedY,
			model_selection.WithTestSize(testSize),
			model_selection.WithSeed(seed),
			model_selection.WithStratify(true),
		)
		if err != nil {
			return nil, errors.Wrap(err, "post-SMOTE split failed")
		}
		tunedTrainX, tunedTrainY = freshSplit.XTrain, freshSplit.YTrain
		tunedTestX, tunedTestY = freshSplit.XTest, freshSplit.YTest
		smoteUsed = true
	}

	gs := model_selection.NewGridSearchCV(
		nbPipeline,
		nbParamGrid,
		model_selection.NewStratifiedKFold(cvFolds, true, seed),
		model_selection.AccuracyScorer{},
	)
	if err := gs.Fit(tunedTrainX, tunedTrainY); err != nil {
		return nil, errors.Wrap(err, "NB grid search failed")
	}

	tuned, ok := gs.BestEstimator_.(*pipeline.Pipeline)
	if !ok {
		return nil, errors.NewModelError("churn.TrainNB", "unexpected best estimator type", nil)
	}
	tunedReport, err := Evaluate(tuned, tunedTestX, tunedTestY)
	if err != nil {
		return nil, err
	}

	logger.Info("tuned NB evaluated",
		log.ModelNameKey, "gaussian_nb",
		log.BestScoreKey, gs.BestScore_,
		log.HyperParamsKey, gs.BestParams_,
		log.AccuracyKey, tunedReport.Accuracy,
	)

	return &NBResult{
		Baseline:    baselineReport,
		Tuned:       tunedReport,
		BestParams:  gs.BestParams_,
		BestCVScore: gs.BestScore_,
		SMOTEUsed:   smoteUsed,
	}, nil
}
