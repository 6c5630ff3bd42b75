package churn

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/YuminosukeSato/churnlab/naive_bayes"
	"gonum.org/v1/gonum/mat"
)

// clusterData builds two well-separated Gaussian-ish clusters with nPos
// positive rows out of n total. Deterministic for a given seed.
func clusterData(n, nPos, nFeatures, seed int) (*mat.Dense, *mat.Dense) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	X := mat.NewDense(n, nFeatures, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		center := -2.0
		if i < nPos {
			center = 2.0
			y.Set(i, 0, 1)
		}
		for j := 0; j < nFeatures; j++ {
			X.Set(i, j, center+rng.Float64()*0.5)
		}
	}
	return X, y
}

func TestEvaluate(t *testing.T) {
	X, y := clusterData(60, 30, 3, 7)

	nb := naive_bayes.NewGaussianNB()
	if err := nb.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	report, err := Evaluate(nb, X, y)
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if report.Accuracy != 1.0 {
		t.Errorf("Accuracy = %v on separable clusters, want 1.0", report.Accuracy)
	}
	if report.ROCAUC != 1.0 {
		t.Errorf("ROCAUC = %v on separable clusters, want 1.0", report.ROCAUC)
	}

	cm := report.Confusion.Matrix()
	if cm[0][1] != 0 || cm[1][0] != 0 {
		t.Errorf("Confusion matrix has off-diagonal entries: %v", cm)
	}
	if cm[0][0]+cm[1][1] != 60 {
		t.Errorf("Confusion diagonal sums to %d, want 60", cm[0][0]+cm[1][1])
	}
}

func TestTrainNB_SkipSMOTE(t *testing.T) {
	fullX, fullY := clusterData(100, 50, 4, 11)
	XTrain := mat.DenseCopyOf(fullX.Slice(0, 80, 0, 4))
	yTrain := mat.DenseCopyOf(fullY.Slice(0, 80, 0, 1))
	XTest := mat.DenseCopyOf(fullX.Slice(20, 100, 0, 4))
	yTest := mat.DenseCopyOf(fullY.Slice(20, 100, 0, 1))

	result, err := TrainNB(XTrain, yTrain, XTest, yTest, fullX, fullY, 42, 0.2, true, DefaultNBCVFolds)
	if err != nil {
		t.Fatalf("TrainNB failed: %v", err)
	}

	if result.SMOTEUsed {
		t.Error("SMOTEUsed = true with skipSMOTE set")
	}
	if result.Baseline.Accuracy < 0.95 {
		t.Errorf("Baseline accuracy = %v on separable clusters", result.Baseline.Accuracy)
	}
	if result.Tuned.Accuracy < 0.95 {
		t.Errorf("Tuned accuracy = %v on separable clusters", result.Tuned.Accuracy)
	}
	if _, ok := result.BestParams["gaussiannb__var_smoothing"]; !ok {
		t.Errorf("BestParams missing var_smoothing: %v", result.BestParams)
	}
	if result.BestCVScore < 0.95 || result.BestCVScore > 1.0 {
		t.Errorf("BestCVScore = %v out of range", result.BestCVScore)
	}
}

func TestTrainNB_SMOTERebalances(t *testing.T) {
	// Imbalanced full set: 20 positives out of 100, enough minority
	// neighbors for the default k=5.
	fullX, fullY := clusterData(100, 20, 4, 13)
	XTrain := mat.DenseCopyOf(fullX.Slice(0, 80, 0, 4))
	yTrain := mat.DenseCopyOf(fullY.Slice(0, 80, 0, 1))
	XTest := mat.DenseCopyOf(fullX.Slice(20, 100, 0, 4))
	yTest := mat.DenseCopyOf(fullY.Slice(20, 100, 0, 1))

	result, err := TrainNB(XTrain, yTrain, XTest, yTest, fullX, fullY, 42, 0.2, false, DefaultNBCVFolds)
	if err != nil {
		t.Fatalf("TrainNB failed: %v", err)
	}
	if !result.SMOTEUsed {
		t.Error("SMOTEUsed = false with SMOTE enabled")
	}
	if result.Tuned.Accuracy < 0.9 {
		t.Errorf("Tuned accuracy = %v after rebalancing separable clusters", result.Tuned.Accuracy)
	}
}

func TestTrainTree(t *testing.T) {
	if testing.Short() {
		t.Skip("full grid search")
	}

	X, y := clusterData(120, 60, 4, 17)
	XTrain := mat.DenseCopyOf(X.Slice(0, 100, 0, 4))
	yTrain := mat.DenseCopyOf(y.Slice(0, 100, 0, 1))
	XTest := mat.DenseCopyOf(X.Slice(20, 120, 0, 4))
	yTest := mat.DenseCopyOf(y.Slice(20, 120, 0, 1))

	names := []string{"f0", "f1", "f2", "f3"}
	result, err := TrainTree(XTrain, yTrain, XTest, yTest, names, 42, DefaultTreeCVFolds)
	if err != nil {
		t.Fatalf("TrainTree failed: %v", err)
	}

	if result.Baseline.Accuracy < 0.95 {
		t.Errorf("Baseline accuracy = %v on separable clusters", result.Baseline.Accuracy)
	}
	if result.Tuned.Accuracy < 0.95 {
		t.Errorf("Tuned accuracy = %v on separable clusters", result.Tuned.Accuracy)
	}
	if len(result.BestParams) == 0 {
		t.Error("BestParams is empty after grid search")
	}
	if result.TunedModel == nil {
		t.Fatal("TunedModel is nil")
	}

	if len(result.Importances) != 4 {
		t.Fatalf("Importances has %d entries, want 4", len(result.Importances))
	}
	sum := 0.0
	for _, v := range result.Importances {
		sum += v
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("Importances sum to %v, want 1", sum)
	}
	for _, name := range names {
		if _, ok := result.ImportanceMap[name]; !ok {
			t.Errorf("ImportanceMap missing %q", name)
		}
	}
}
