package churn

import (
	"os"
	"time"

	"github.com/YuminosukeSato/churnlab/metrics"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// MetricsSnapshot is the YAML-friendly view of a classification report.
type MetricsSnapshot struct {
	Accuracy  float64  `yaml:"accuracy"`
	Precision float64  `yaml:"precision"`
	Recall    float64  `yaml:"recall"`
	F1        float64  `yaml:"f1"`
	ROCAUC    float64  `yaml:"roc_auc"`
	Confusion [2][2]int `yaml:"confusion"`
}

func snapshot(r *metrics.ClassificationReport) MetricsSnapshot {
	return MetricsSnapshot{
		Accuracy:  r.Accuracy,
		Precision: r.Precision,
		Recall:    r.Recall,
		F1:        r.F1,
		ROCAUC:    r.ROCAUC,
		Confusion: r.Confusion.Matrix(),
	}
}

// ModelResult records the baseline and tuned outcomes of one model family.
type ModelResult struct {
	Name               string                 `yaml:"name"`
	Baseline           MetricsSnapshot        `yaml:"baseline"`
	Tuned              MetricsSnapshot        `yaml:"tuned"`
	BestParams         map[string]interface{} `yaml:"best_params"`
	BestCVScore        float64                `yaml:"best_cv_score"`
	FeatureImportances map[string]float64     `yaml:"feature_importances,omitempty"`
	SMOTEUsed          bool                   `yaml:"smote_used,omitempty"`
}

// RunReport is the persisted record of one experiment run.
type RunReport struct {
	ID        string    `yaml:"id"`
	CreatedAt time.Time `yaml:"created_at"`

	DatasetRows int     `yaml:"dataset_rows"`
	ChurnRate   float64 `yaml:"churn_rate"`
	TrainRows   int     `yaml:"train_rows"`
	TestRows    int     `yaml:"test_rows"`

	Models []ModelResult `yaml:"models"`

	// FinalModel records the manual selection rule: the decision tree
	// dominated every reported metric in the reference run.
	FinalModel string `yaml:"final_model"`

	// LeakNotes document the methodological leaks the procedure preserves.
	LeakNotes []string `yaml:"leak_notes"`
}

// leakNotes are attached to every run report.
func leakNotes(smoteUsed bool) []string {
	notes := []string{
		"imputation and scaling statistics were fit on the full dataset before the train/test split",
	}
	if smoteUsed {
		notes = append(notes,
			"SMOTE was applied to the full feature/label set before the tuned-model split; synthetic rows may appear on both sides")
	}
	return notes
}

// NewRunReport creates a report with a fresh run id.
func NewRunReport() *RunReport {
	return &RunReport{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
	}
}

// Save writes the report as YAML.
func (r *RunReport) Save(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "failed to marshal run report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write run report")
	}
	return nil
}

// LoadRunReport reads a report previously written by Save.
func LoadRunReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read run report")
	}
	var report RunReport
	if err := yaml.Unmarshal(data, &report); err != nil {
		return nil, errors.Wrap(err, "failed to parse run report")
	}
	return &report, nil
}
