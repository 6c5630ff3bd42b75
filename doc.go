// Package churnlab is a synthetic customer churn laboratory for Go: it
// generates a seeded, imbalanced customer dataset, analyzes it, and trains,
// tunes and evaluates churn classifiers end to end.
//
// # Quick Start
//
// Run the full pipeline in one call:
//
//	package main
//
//	import (
//	    "context"
//	    "log"
//
//	    "github.com/YuminosukeSato/churnlab/churn"
//	)
//
//	func main() {
//	    exp := churn.NewExperiment(
//	        churn.WithDataPath("customers.csv"),
//	        churn.WithOutDir("out"),
//	    )
//	    report, err := exp.Run(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    log.Printf("final model: %s", report.FinalModel)
//	}
//
// The same pipeline is available from the command line:
//
//	churnlab run --plots
//
// # Packages
//
//   - dataset: seeded synthetic customer generation, gota frame/CSV layer
//   - analysis: descriptive statistics, class balance, correlations, plots
//   - preprocessing: imputation, scaling, label encoding
//   - tree: CART decision tree classifier
//   - naive_bayes: Gaussian and multinomial naive Bayes
//   - imbalance: SMOTE oversampling
//   - pipeline: chained transformer/estimator steps
//   - model_selection: splits, stratified k-fold, grid search
//   - metrics: classification metrics, confusion matrix, ROC-AUC
//   - churn: the end-to-end experiment and run report
//   - core/model, core/parallel: estimator contracts, persistence, fan-out
//
// Estimators follow a scikit-learn-like contract: Fit(X, y mat.Matrix)
// error, Predict(X) (mat.Matrix, error), functional options, and
// GetParams/SetParams for hyperparameter tuning.
//
// # Reproducibility
//
// Every stochastic stage (generation, splitting, resampling, tuning) is
// seeded; two runs with the same seed produce identical datasets, splits
// and reports.
package churnlab
