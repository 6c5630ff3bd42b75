package churn

import (
	"context"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/churnlab/analysis"
	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/go-gota/gota/dataframe"
)

// Experiment drives the full churn run: dataset, analysis, preprocessing,
// augmentation, tree and NB training, evaluation, report.
type Experiment struct {
	// DataPath is the CSV artifact. An existing file is loaded; a missing
	// one is generated there first.
	DataPath string
	// OutDir receives the run report and optional plots.
	OutDir string

	Seed      int
	TestSize  float64
	NRows     int
	ChurnRate float64

	TreeCVFolds int
	NBCVFolds   int

	SkipSMOTE     bool
	RenderPlots   bool
	SaveModelPath string // when set, the tuned tree is persisted here

	logger log.Logger
}

// ExperimentOption configures an Experiment.
type ExperimentOption func(*Experiment)

// WithDataPath sets the dataset CSV location.
func WithDataPath(path string) ExperimentOption {
	return func(e *Experiment) { e.DataPath = path }
}

// WithOutDir sets the output directory for reports and plots.
func WithOutDir(dir string) ExperimentOption {
	return func(e *Experiment) { e.OutDir = dir }
}

// WithSeed seeds generation, splitting, resampling and tuning.
func WithSeed(seed int) ExperimentOption {
	return func(e *Experiment) { e.Seed = seed }
}

// WithTestSize sets the held-out fraction of the stratified split.
func WithTestSize(size float64) ExperimentOption {
	return func(e *Experiment) { e.TestSize = size }
}

// WithNRows sets the generated dataset size when no CSV exists yet.
func WithNRows(n int) ExperimentOption {
	return func(e *Experiment) { e.NRows = n }
}

// WithChurnRate sets the generated churn prior.
func WithChurnRate(rate float64) ExperimentOption {
	return func(e *Experiment) { e.ChurnRate = rate }
}

// WithTreeCVFolds overrides the tree grid search fold count.
func WithTreeCVFolds(folds int) ExperimentOption {
	return func(e *Experiment) { e.TreeCVFolds = folds }
}

// WithNBCVFolds overrides the naive Bayes grid search fold count.
func WithNBCVFolds(folds int) ExperimentOption {
	return func(e *Experiment) { e.NBCVFolds = folds }
}

// WithSkipSMOTE disables SMOTE rebalancing in the tuned NB path.
func WithSkipSMOTE(skip bool) ExperimentOption {
	return func(e *Experiment) { e.SkipSMOTE = skip }
}

// WithRenderPlots enables PNG rendering into the output directory.
func WithRenderPlots(render bool) ExperimentOption {
	return func(e *Experiment) { e.RenderPlots = render }
}

// WithSaveModelPath persists the tuned tree after a successful run.
func WithSaveModelPath(path string) ExperimentOption {
	return func(e *Experiment) { e.SaveModelPath = path }
}

// NewExperiment creates an experiment with the reference defaults.
func NewExperiment(opts ...ExperimentOption) *Experiment {
	e := &Experiment{
		DataPath:  "customers.csv",
		OutDir:    ".",
		Seed:      42,
		TestSize:  0.2,
		NRows:       5000,
		ChurnRate:   0.20,
		TreeCVFolds: DefaultTreeCVFolds,
		NBCVFolds:   DefaultNBCVFolds,
		logger:      log.GetLoggerWithName("churn.experiment"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LoadOrGenerate returns the dataset frame, generating and persisting it
// when the CSV artifact does not exist yet. The artifact is read-only for
// the rest of the run.
func (e *Experiment) LoadOrGenerate() (dataframe.DataFrame, error) {
	if _, err := os.Stat(e.DataPath); err == nil {
		return dataset.LoadCSV(e.DataPath)
	}

	gen := dataset.NewGenerator(
		dataset.WithNRows(e.NRows),
		dataset.WithSeed(e.Seed),
		dataset.WithChurnRate(e.ChurnRate),
	)
	return gen.GenerateCSV(e.DataPath)
}

// Analyze computes the descriptive view and optionally renders plots.
func (e *Experiment) Analyze(df dataframe.DataFrame) (*analysis.Summary, float64, error) {
	summary, err := analysis.Describe(df)
	if err != nil {
		return nil, 0, err
	}
	rate, err := analysis.PositiveRate(df, dataset.ColChurn, "Yes")
	if err != nil {
		return nil, 0, err
	}

	if e.RenderPlots {
		if err := e.renderPlots(df); err != nil {
			return nil, 0, err
		}
	}
	return summary, rate, nil
}

func (e *Experiment) renderPlots(df dataframe.DataFrame) error {
	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	if err := analysis.HistogramPNG(df, dataset.ColMonthlyCharges, 30,
		filepath.Join(e.OutDir, "monthly_charges.png")); err != nil {
		return err
	}
	if err := analysis.HistogramPNG(df, dataset.ColTenure, 24,
		filepath.Join(e.OutDir, "tenure.png")); err != nil {
		return err
	}

	balance, err := analysis.ClassBalance(df, dataset.ColChurn)
	if err != nil {
		return err
	}
	if err := analysis.BarPNG(balance, "Churn balance",
		filepath.Join(e.OutDir, "churn_balance.png")); err != nil {
		return err
	}

	corr, err := analysis.CorrelationMatrix(df, dataset.NumericColumns())
	if err != nil {
		return err
	}
	return analysis.CorrelationHeatmapPNG(corr, filepath.Join(e.OutDir, "correlation.png"))
}

// Run executes every stage in order and writes the run report. The context
// is checked between stages; the first stage error halts the run.
func (e *Experiment) Run(ctx context.Context) (*RunReport, error) {
	report := NewRunReport()
	e.logger.Info("experiment started", log.RunIDKey, report.ID, log.RandomSeedKey, e.Seed)

	df, err := e.LoadOrGenerate()
	if err != nil {
		return nil, err
	}
	report.DatasetRows = df.Nrow()

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled")
	}

	_, churnRate, err := e.Analyze(df)
	if err != nil {
		return nil, err
	}
	report.ChurnRate = churnRate

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled")
	}

	prep, err := Preprocess(df, e.Seed, e.TestSize)
	if err != nil {
		return nil, err
	}
	trainRows, _ := prep.Split.XTrain.Dims()
	testRows, _ := prep.Split.XTest.Dims()
	report.TrainRows, report.TestRows = trainRows, testRows

	// Per-split ratio feature; no statistics cross the split boundary.
	XTrain, err := Augment(prep.Split.XTrain, prep.TrainMonthly, prep.TrainTenure)
	if err != nil {
		return nil, err
	}
	XTest, err := Augment(prep.Split.XTest, prep.TestMonthly, prep.TestTenure)
	if err != nil {
		return nil, err
	}
	featureNames := append(append([]string{}, prep.FeatureNames...), RatioFeatureName)

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled")
	}

	treeResult, err := TrainTree(XTrain, prep.Split.YTrain, XTest, prep.Split.YTest, featureNames, e.Seed, e.TreeCVFolds)
	if err != nil {
		return nil, err
	}
	report.Models = append(report.Models, ModelResult{
		Name:               "decision_tree",
		Baseline:           snapshot(treeResult.Baseline),
		Tuned:              snapshot(treeResult.Tuned),
		BestParams:         treeResult.BestParams,
		BestCVScore:        treeResult.BestCVScore,
		FeatureImportances: treeResult.ImportanceMap,
	})

	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(err, "run cancelled")
	}

	nbResult, err := TrainNB(XTrain, prep.Split.YTrain, XTest, prep.Split.YTest,
		prep.X, prep.Y, e.Seed, e.TestSize, e.SkipSMOTE, e.NBCVFolds)
	if err != nil {
		return nil, err
	}
	report.Models = append(report.Models, ModelResult{
		Name:        "gaussian_nb",
		Baseline:    snapshot(nbResult.Baseline),
		Tuned:       snapshot(nbResult.Tuned),
		BestParams:  nbResult.BestParams,
		BestCVScore: nbResult.BestCVScore,
		SMOTEUsed:   nbResult.SMOTEUsed,
	})

	// Manual selection rule from the reference run: the tree dominated
	// every reported metric.
	report.FinalModel = "decision_tree"
	report.LeakNotes = leakNotes(nbResult.SMOTEUsed)

	if e.SaveModelPath != "" {
		if err := treeResult.TunedModel.Save(e.SaveModelPath); err != nil {
			return nil, err
		}
	}

	if err := os.MkdirAll(e.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	reportPath := filepath.Join(e.OutDir, "run_report.yaml")
	if err := report.Save(reportPath); err != nil {
		return nil, err
	}

	e.logger.Info("experiment finished",
		log.RunIDKey, report.ID,
		"final_model", report.FinalModel,
		"report", reportPath,
	)
	return report, nil
}
