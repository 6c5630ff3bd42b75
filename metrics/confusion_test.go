package metrics

import (
	"math"
	"testing"
)

func TestConfusionMatrix(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1, 0, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1, 0, 0, 0}

	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		t.Fatalf("ConfusionMatrix failed: %v", err)
	}

	if cm.TP() != 2 || cm.FN() != 2 || cm.FP() != 1 || cm.TN() != 3 {
		t.Errorf("got tp=%d fn=%d fp=%d tn=%d, want tp=2 fn=2 fp=1 tn=3",
			cm.TP(), cm.FN(), cm.FP(), cm.TN())
	}

	if cm.Total() != len(yTrue) {
		t.Errorf("Total() = %d, want %d", cm.Total(), len(yTrue))
	}

	m := cm.Matrix()
	sum := m[0][0] + m[0][1] + m[1][0] + m[1][1]
	if sum != len(yTrue) {
		t.Errorf("matrix entries sum to %d, want %d", sum, len(yTrue))
	}
}

func TestConfusionMatrix_Errors(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{0, 1}, []float64{0}},
		{"non-binary", []float64{0, 2}, []float64{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ConfusionMatrix(tt.yTrue, tt.yPred); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestPrecisionRecallF1(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1, 0}

	// tp=2, fp=1, fn=1: precision=2/3, recall=2/3, f1=2/3.
	prec, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision failed: %v", err)
	}
	if math.Abs(prec-2.0/3.0) > 1e-10 {
		t.Errorf("Precision = %v, want 2/3", prec)
	}

	rec, err := Recall(yTrue, yPred)
	if err != nil {
		t.Fatalf("Recall failed: %v", err)
	}
	if math.Abs(rec-2.0/3.0) > 1e-10 {
		t.Errorf("Recall = %v, want 2/3", rec)
	}

	f1, err := F1Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if math.Abs(f1-2.0/3.0) > 1e-10 {
		t.Errorf("F1Score = %v, want 2/3", f1)
	}
}

func TestPrecision_ZeroDivision(t *testing.T) {
	// No predicted positives: sklearn's zero_division=0 semantics.
	yTrue := []float64{1, 0, 1}
	yPred := []float64{0, 0, 0}

	prec, err := Precision(yTrue, yPred)
	if err != nil {
		t.Fatalf("Precision failed: %v", err)
	}
	if prec != 0 {
		t.Errorf("Precision = %v, want 0", prec)
	}

	f1, err := F1Score(yTrue, yPred)
	if err != nil {
		t.Fatalf("F1Score failed: %v", err)
	}
	if f1 != 0 {
		t.Errorf("F1Score = %v, want 0", f1)
	}
}

func TestReport(t *testing.T) {
	yTrue := []float64{1, 1, 0, 0, 1, 0, 1, 0}
	yPred := []float64{1, 0, 0, 1, 1, 0, 1, 0}
	yScore := []float64{0.9, 0.4, 0.2, 0.6, 0.8, 0.1, 0.7, 0.3}

	report, err := Report(yTrue, yPred, yScore)
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	// tp=3, fn=1, fp=1, tn=3.
	if math.Abs(report.Accuracy-0.75) > 1e-10 {
		t.Errorf("Accuracy = %v, want 0.75", report.Accuracy)
	}
	if math.Abs(report.Precision-0.75) > 1e-10 {
		t.Errorf("Precision = %v, want 0.75", report.Precision)
	}
	if math.Abs(report.Recall-0.75) > 1e-10 {
		t.Errorf("Recall = %v, want 0.75", report.Recall)
	}
	if report.ROCAUC <= 0.5 {
		t.Errorf("ROCAUC = %v, want > 0.5 for a better-than-random scorer", report.ROCAUC)
	}
	if report.Confusion.Total() != len(yTrue) {
		t.Errorf("confusion total = %d, want %d", report.Confusion.Total(), len(yTrue))
	}

	if report.String() == "" {
		t.Error("String() should render a non-empty table")
	}
}
