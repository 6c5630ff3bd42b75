// Package pipeline chains transformers and a final estimator behind a
// single Fit/Predict surface, mirroring sklearn.pipeline.Pipeline. Nested
// step parameters are addressed as "step__param", which lets a grid search
// tune an inner estimator through the pipeline.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"gonum.org/v1/gonum/mat"
)

// Step is one named stage of a pipeline.
type Step struct {
	Name      string
	Estimator interface{} // model.Transformer for intermediate steps
}

// Pipeline applies its transformer steps in order, then delegates to the
// final estimator. All steps before the last must implement
// model.Transformer.
type Pipeline struct {
	state  *model.StateManager
	logger log.Logger

	steps       []Step
	namedSteps_ map[string]interface{}
}

// New creates a pipeline from the given steps.
func New(steps ...Step) *Pipeline {
	named := make(map[string]interface{}, len(steps))
	for _, step := range steps {
		named[step.Name] = step.Estimator
	}
	return &Pipeline{
		state:       model.NewStateManager(),
		logger:      log.GetLoggerWithName("pipeline"),
		steps:       steps,
		namedSteps_: named,
	}
}

// NewPipeline is an alias for New matching sklearn naming.
func NewPipeline(steps ...Step) *Pipeline {
	return New(steps...)
}

// validateSteps rejects empty pipelines and duplicate step names.
func (p *Pipeline) validateSteps() error {
	if len(p.steps) == 0 {
		return errors.NewValidationError("steps", "pipeline has no steps", nil)
	}
	seen := make(map[string]bool, len(p.steps))
	for _, step := range p.steps {
		if seen[step.Name] {
			return errors.NewValidationError("steps", "duplicate step name", step.Name)
		}
		seen[step.Name] = true
	}
	return nil
}

// Fit runs fit+transform through the intermediate steps and fits the final
// estimator on the transformed data.
func (p *Pipeline) Fit(X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "Pipeline.Fit")

	if err := p.validateSteps(); err != nil {
		return err
	}

	Xt := X
	for _, step := range p.steps[:len(p.steps)-1] {
		transformer, ok := step.Estimator.(model.Transformer)
		if !ok {
			return errors.NewValidationError("pipeline step",
				"intermediate steps must be transformers", step.Name)
		}
		if err := transformer.Fit(Xt); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to fit step %q", step.Name))
		}
		Xt, err = transformer.Transform(Xt)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to transform at step %q", step.Name))
		}
	}

	final := p.steps[len(p.steps)-1]
	fitter, ok := final.Estimator.(model.Fitter)
	if !ok {
		return errors.NewValidationError("pipeline final step",
			"final step must have a Fit method", final.Name)
	}
	if err := fitter.Fit(Xt, y); err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to fit final step %q", final.Name))
	}

	p.state.SetFitted()
	return nil
}

// Predict transforms the input and predicts with the final estimator.
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Predict")
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}

	final := p.steps[len(p.steps)-1]
	predictor, ok := final.Estimator.(model.Predictor)
	if !ok {
		return nil, errors.NewValidationError("pipeline final step",
			"final step must have a Predict method", final.Name)
	}
	return predictor.Predict(Xt)
}

// PredictProba transforms the input and calls PredictProba on the final
// estimator.
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "PredictProba")
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}

	final := p.steps[len(p.steps)-1]
	predictor, ok := final.Estimator.(interface {
		PredictProba(mat.Matrix) (mat.Matrix, error)
	})
	if !ok {
		return nil, errors.NewValidationError("pipeline final step",
			"final step must have a PredictProba method", final.Name)
	}
	return predictor.PredictProba(Xt)
}

// Score transforms the input and scores with the final estimator.
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	if !p.state.IsFitted() {
		return 0, errors.NewNotFittedError("Pipeline", "Score")
	}
	Xt, err := p.transform(X)
	if err != nil {
		return 0, err
	}

	final := p.steps[len(p.steps)-1]
	scorer, ok := final.Estimator.(model.Scorer)
	if !ok {
		return 0, errors.NewValidationError("pipeline final step",
			"final step must have a Score method", final.Name)
	}
	return scorer.Score(Xt, y)
}

// Transform runs every step as a transformer. Valid only when the final
// step is itself a transformer.
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !p.state.IsFitted() {
		return nil, errors.NewNotFittedError("Pipeline", "Transform")
	}
	Xt := X
	var err error
	for _, step := range p.steps {
		transformer, ok := step.Estimator.(model.Transformer)
		if !ok {
			return nil, errors.NewValidationError("pipeline step",
				"all steps must be transformers for Transform", step.Name)
		}
		Xt, err = transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step %q", step.Name))
		}
	}
	return Xt, nil
}

// FitTransform fits every step as a transformer and returns the fully
// transformed data.
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.validateSteps(); err != nil {
		return nil, err
	}
	Xt := X
	var err error
	for _, step := range p.steps {
		transformer, ok := step.Estimator.(model.Transformer)
		if !ok {
			return nil, errors.NewValidationError("pipeline step",
				"all steps must be transformers for FitTransform", step.Name)
		}
		if err = transformer.Fit(Xt); err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to fit step %q", step.Name))
		}
		Xt, err = transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step %q", step.Name))
		}
	}
	p.state.SetFitted()
	return Xt, nil
}

// transform runs the intermediate transformer steps.
func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	Xt := X
	var err error
	for _, step := range p.steps[:len(p.steps)-1] {
		transformer, ok := step.Estimator.(model.Transformer)
		if !ok {
			return nil, errors.NewValidationError("pipeline step",
				"intermediate steps must be transformers", step.Name)
		}
		Xt, err = transformer.Transform(Xt)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("failed to transform at step %q", step.Name))
		}
	}
	return Xt, nil
}

// GetParams returns all step parameters prefixed with "step__".
func (p *Pipeline) GetParams() map[string]interface{} {
	params := make(map[string]interface{})
	for _, step := range p.steps {
		getter, ok := step.Estimator.(model.ParameterGetter)
		if !ok {
			continue
		}
		for key, value := range getter.GetParams() {
			params[step.Name+"__"+key] = value
		}
	}
	return params
}

// SetParams routes "step__param" entries to the named step's SetParams.
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	perStep := make(map[string]map[string]interface{})
	for key, value := range params {
		name, param, ok := strings.Cut(key, "__")
		if !ok {
			return errors.NewValidationError(key,
				"pipeline parameters must use the 'step__param' form", value)
		}
		if _, exists := p.namedSteps_[name]; !exists {
			return errors.NewValidationError(key, "unknown pipeline step", name)
		}
		if perStep[name] == nil {
			perStep[name] = make(map[string]interface{})
		}
		perStep[name][param] = value
	}

	for name, stepParams := range perStep {
		setter, ok := p.namedSteps_[name].(model.ParameterSetter)
		if !ok {
			return errors.NewValidationError(name, "step does not accept parameters", nil)
		}
		if err := setter.SetParams(stepParams); err != nil {
			return errors.Wrap(err, fmt.Sprintf("failed to set parameters on step %q", name))
		}
	}
	return nil
}

// NamedSteps returns the steps keyed by name.
func (p *Pipeline) NamedSteps() map[string]interface{} {
	return p.namedSteps_
}

// Steps returns a copy of the step list.
func (p *Pipeline) Steps() []Step {
	steps := make([]Step, len(p.steps))
	copy(steps, p.steps)
	return steps
}
