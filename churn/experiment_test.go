package churn

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExperiment_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("full pipeline with grid searches")
	}

	dir := t.TempDir()
	dataPath := filepath.Join(dir, "customers.csv")

	exp := NewExperiment(
		WithDataPath(dataPath),
		WithOutDir(dir),
		WithNRows(600),
		WithSeed(42),
		WithSaveModelPath(filepath.Join(dir, "tree.gob")),
	)

	report, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.DatasetRows != 600 {
		t.Errorf("DatasetRows = %d, want 600", report.DatasetRows)
	}
	if report.TrainRows+report.TestRows != 600 {
		t.Errorf("train+test = %d, want 600", report.TrainRows+report.TestRows)
	}
	if report.ChurnRate < 0.1 || report.ChurnRate > 0.3 {
		t.Errorf("ChurnRate = %v, want near 0.2", report.ChurnRate)
	}
	if len(report.Models) != 2 {
		t.Fatalf("Models has %d entries, want 2", len(report.Models))
	}
	if report.Models[0].Name != "decision_tree" || report.Models[1].Name != "gaussian_nb" {
		t.Errorf("Model order = %q, %q", report.Models[0].Name, report.Models[1].Name)
	}
	if !report.Models[1].SMOTEUsed {
		t.Error("NB tuning should have used SMOTE")
	}
	if report.FinalModel != "decision_tree" {
		t.Errorf("FinalModel = %q", report.FinalModel)
	}
	if len(report.Models[0].FeatureImportances) == 0 {
		t.Error("Tree result carries no feature importances")
	}

	// Artifacts: dataset CSV, run report, persisted model.
	for _, p := range []string{dataPath, filepath.Join(dir, "run_report.yaml"), filepath.Join(dir, "tree.gob")} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("Missing artifact %s: %v", p, err)
		}
	}

	loaded, err := LoadRunReport(filepath.Join(dir, "run_report.yaml"))
	if err != nil {
		t.Fatalf("LoadRunReport failed: %v", err)
	}
	if loaded.ID != report.ID {
		t.Errorf("Persisted ID = %q, want %q", loaded.ID, report.ID)
	}

	// A second run reuses the CSV instead of regenerating.
	report2, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("Second run failed: %v", err)
	}
	if report2.DatasetRows != 600 {
		t.Errorf("Second run DatasetRows = %d, want 600", report2.DatasetRows)
	}
}

func TestExperiment_RunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	exp := NewExperiment(
		WithDataPath(filepath.Join(dir, "customers.csv")),
		WithOutDir(dir),
		WithNRows(200),
	)
	if _, err := exp.Run(ctx); err == nil {
		t.Error("Run with a cancelled context should fail")
	}
}
