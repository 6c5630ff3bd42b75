// Package model provides additional interfaces and types for machine learning models.
// This file complements the existing interfaces in estimator.go and transformer.go
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy (classifiers) or R^2 (regressors) on the given data.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Estimator is the interface every tunable model implements.
// GetParams/SetParams form the surface the grid search drives.
type Estimator interface {
	Fitter
	ParameterGetter
	ParameterSetter
}

// IncrementalLearner is the interface for models that support incremental learning.
type IncrementalLearner interface {
	// PartialFit updates the model with one batch of samples.
	PartialFit(X mat.Matrix, y mat.Matrix, classes []int) error
}

// Classifier combines interfaces for classification models.
type Classifier interface {
	Estimator
	Predictor
	Scorer

	// PredictProba returns probability estimates for each class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique classes seen during fitting.
	Classes() []int
}

// ClassifierWithPartialFit combines interfaces for online classification models.
type ClassifierWithPartialFit interface {
	Classifier
	IncrementalLearner
}

// ParameterGetter is the interface for models that expose their parameters.
type ParameterGetter interface {
	// GetParams returns the model's hyperparameters.
	GetParams() map[string]interface{}
}

// ParameterSetter is the interface for models that allow parameter modification.
type ParameterSetter interface {
	// SetParams sets the model's hyperparameters.
	SetParams(params map[string]interface{}) error
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save saves the model to a file.
	Save(path string) error

	// Load loads the model from a file.
	Load(path string) error
}
