package model_selection

import (
	"sort"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// ParamGrid maps a parameter name to its candidate values.
type ParamGrid map[string][]interface{}

// CandidateResult records the cross-validated outcome of one parameter
// combination.
type CandidateResult struct {
	Params    map[string]interface{}
	MeanScore float64
	StdScore  float64
}

// GridSearchCV exhaustively evaluates every combination in a parameter grid
// via cross-validated scoring and refits the best configuration.
//
// Candidates are enumerated in a deterministic order (parameter names
// sorted, values in declaration order); the first candidate wins ties, so
// a fixed seed and fixed grid reproduce the same best configuration.
type GridSearchCV struct {
	factory   func() Estimator
	paramGrid ParamGrid
	cv        Splitter
	scorer    Scorer
	logger    log.Logger

	// Fitted results
	BestParams_    map[string]interface{}
	BestScore_     float64
	BestEstimator_ Estimator
	CVResults_     []CandidateResult

	fitted bool
}

// NewGridSearchCV creates a grid search over the given factory's estimator.
func NewGridSearchCV(factory func() Estimator, paramGrid ParamGrid, cv Splitter, scorer Scorer) *GridSearchCV {
	if scorer == nil {
		scorer = AccuracyScorer{}
	}
	return &GridSearchCV{
		factory:   factory,
		paramGrid: paramGrid,
		cv:        cv,
		scorer:    scorer,
		logger:    log.GetLoggerWithName("model_selection.grid_search"),
	}
}

// Fit evaluates every candidate and refits the best one on the full input.
func (gs *GridSearchCV) Fit(X, y mat.Matrix) error {
	candidates, err := gs.enumerate()
	if err != nil {
		return err
	}

	n, _ := X.Dims()
	gs.logger.Info("starting grid search",
		log.CandidatesKey, len(candidates),
		log.FoldsKey, gs.cv.GetNSplits(),
		log.SamplesKey, n,
	)

	gs.CVResults_ = make([]CandidateResult, 0, len(candidates))
	bestIdx := -1
	bestScore := 0.0

	for i, params := range candidates {
		// Validate the combination once before fanning out folds.
		if err := gs.factory().SetParams(params); err != nil {
			return errors.Wrapf(err, "grid search candidate %d has invalid parameters (%v)", i, params)
		}

		factory := func() Estimator {
			est := gs.factory()
			// Already validated above; a failure here would repeat on refit.
			_ = est.SetParams(params)
			return est
		}

		cvResult, err := CrossValidate(factory, X, y, gs.cv, gs.scorer)
		if err != nil {
			return errors.Wrapf(err, "grid search candidate %d (%v) failed", i, params)
		}

		result := CandidateResult{
			Params:    params,
			MeanScore: cvResult.MeanScore(),
			StdScore:  cvResult.StdScore(),
		}
		gs.CVResults_ = append(gs.CVResults_, result)

		// Strict inequality: the first candidate wins ties.
		if bestIdx < 0 || result.MeanScore > bestScore {
			bestIdx = i
			bestScore = result.MeanScore
			gs.logger.Debug("new best candidate",
				log.CandidateKey, i,
				log.BestScoreKey, bestScore,
			)
		}
	}

	gs.BestParams_ = candidates[bestIdx]
	gs.BestScore_ = bestScore

	// Refit the winning configuration on the full training input.
	best := gs.factory()
	if err := best.SetParams(gs.BestParams_); err != nil {
		return errors.Wrap(err, "failed to apply best parameters for refit")
	}
	if err := best.Fit(X, y); err != nil {
		return errors.Wrap(err, "failed to refit best estimator")
	}
	gs.BestEstimator_ = best
	gs.fitted = true

	gs.logger.Info("grid search finished",
		log.BestScoreKey, gs.BestScore_,
		log.HyperParamsKey, gs.BestParams_,
	)

	return nil
}

// Predict delegates to the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !gs.fitted {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator_.Predict(X)
}

// enumerate expands the grid into the full cartesian product of candidates.
func (gs *GridSearchCV) enumerate() ([]map[string]interface{}, error) {
	if len(gs.paramGrid) == 0 {
		return nil, errors.NewValidationError("param_grid", "parameter grid is empty", gs.paramGrid)
	}

	names := make([]string, 0, len(gs.paramGrid))
	for name := range gs.paramGrid {
		if len(gs.paramGrid[name]) == 0 {
			return nil, errors.NewValidationError("param_grid",
				"parameter has no candidate values", name)
		}
		names = append(names, name)
	}
	sort.Strings(names)

	candidates := []map[string]interface{}{{}}
	for _, name := range names {
		expanded := make([]map[string]interface{}, 0, len(candidates)*len(gs.paramGrid[name]))
		for _, base := range candidates {
			for _, value := range gs.paramGrid[name] {
				candidate := make(map[string]interface{}, len(base)+1)
				for k, v := range base {
					candidate[k] = v
				}
				candidate[name] = value
				expanded = append(expanded, candidate)
			}
		}
		candidates = expanded
	}

	return candidates, nil
}
