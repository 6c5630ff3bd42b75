package metrics

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ClassificationReport bundles the standard binary evaluation metrics for
// one model on one held-out set. The positive class is label 1.
type ClassificationReport struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	F1        float64
	ROCAUC    float64
	Confusion *Confusion
}

// Report computes a full classification report from true labels, hard
// predictions and positive-class scores. yScore may be nil, in which case
// ROC-AUC is reported as NaN-free 0 and skipped in String output.
func Report(yTrue, yPred, yScore []float64) (*ClassificationReport, error) {
	n := len(yTrue)
	yTrueVec := mat.NewVecDense(n, append([]float64(nil), yTrue...))
	yPredVec := mat.NewVecDense(n, append([]float64(nil), yPred...))

	acc, err := Accuracy(yTrueVec, yPredVec)
	if err != nil {
		return nil, err
	}
	prec, err := Precision(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	rec, err := Recall(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	f1, err := F1Score(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	report := &ClassificationReport{
		Accuracy:  acc,
		Precision: prec,
		Recall:    rec,
		F1:        f1,
		Confusion: cm,
	}

	if yScore != nil {
		yScoreVec := mat.NewVecDense(len(yScore), append([]float64(nil), yScore...))
		auc, err := AUC(yTrueVec, yScoreVec)
		if err != nil {
			return nil, err
		}
		report.ROCAUC = auc
	}

	return report, nil
}

// String renders the report as an aligned summary table.
func (r *ClassificationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "accuracy:  %.4f\n", r.Accuracy)
	fmt.Fprintf(&b, "precision: %.4f\n", r.Precision)
	fmt.Fprintf(&b, "recall:    %.4f\n", r.Recall)
	fmt.Fprintf(&b, "f1:        %.4f\n", r.F1)
	fmt.Fprintf(&b, "roc_auc:   %.4f\n", r.ROCAUC)
	fmt.Fprintf(&b, "confusion:\n%s", r.Confusion)
	return b.String()
}
