package metrics

import (
	"fmt"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// Confusion is a binary 2x2 confusion matrix with rows = actual and
// columns = predicted. The positive class is label 1.
type Confusion struct {
	tp, fp, tn, fn int
}

// ConfusionMatrix computes the binary confusion matrix for 0/1 labels.
func ConfusionMatrix(yTrue, yPred []float64) (*Confusion, error) {
	if len(yTrue) == 0 {
		return nil, errors.NewValueError("ConfusionMatrix", "empty input")
	}
	if len(yTrue) != len(yPred) {
		return nil, errors.NewDimensionError("ConfusionMatrix", len(yTrue), len(yPred), 0)
	}

	cm := &Confusion{}
	for i := range yTrue {
		actual, pred := yTrue[i], yPred[i]
		if (actual != 0 && actual != 1) || (pred != 0 && pred != 1) {
			return nil, errors.NewValueError("ConfusionMatrix", "labels must be binary (0 or 1)")
		}
		switch {
		case actual == 1 && pred == 1:
			cm.tp++
		case actual == 0 && pred == 1:
			cm.fp++
		case actual == 0 && pred == 0:
			cm.tn++
		default:
			cm.fn++
		}
	}
	return cm, nil
}

// TP returns the true positive count.
func (c *Confusion) TP() int { return c.tp }

// FP returns the false positive count.
func (c *Confusion) FP() int { return c.fp }

// TN returns the true negative count.
func (c *Confusion) TN() int { return c.tn }

// FN returns the false negative count.
func (c *Confusion) FN() int { return c.fn }

// Matrix returns the counts as [actual][predicted] with class order {0, 1}.
func (c *Confusion) Matrix() [2][2]int {
	return [2][2]int{
		{c.tn, c.fp},
		{c.fn, c.tp},
	}
}

// Total returns the number of evaluated samples.
func (c *Confusion) Total() int {
	return c.tp + c.fp + c.tn + c.fn
}

// String renders the matrix in sklearn's row-major layout.
func (c *Confusion) String() string {
	return fmt.Sprintf("[[%d %d]\n [%d %d]]", c.tn, c.fp, c.fn, c.tp)
}

// Precision computes tp / (tp + fp) for the positive class.
// A zero denominator yields 0 with an UndefinedMetricWarning,
// matching sklearn's zero_division=0 behaviour.
func Precision(yTrue, yPred []float64) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	denom := cm.tp + cm.fp
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positives", 0))
		return 0, nil
	}
	return float64(cm.tp) / float64(denom), nil
}

// Recall computes tp / (tp + fn) for the positive class.
func Recall(yTrue, yPred []float64) (float64, error) {
	cm, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	denom := cm.tp + cm.fn
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no actual positives", 0))
		return 0, nil
	}
	return float64(cm.tp) / float64(denom), nil
}

// F1Score computes the harmonic mean of precision and recall.
func F1Score(yTrue, yPred []float64) (float64, error) {
	p, err := Precision(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r, err := Recall(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if p+r == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("f1", "precision and recall are both zero", 0))
		return 0, nil
	}
	return 2 * p * r / (p + r), nil
}
