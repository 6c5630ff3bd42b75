package imbalance

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// makeImbalanced builds n samples with the first nPos rows as class 1,
// clustered away from the majority.
func makeImbalanced(n, nPos int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if i < nPos {
			X.Set(i, 0, 10+float64(i)*0.1)
			X.Set(i, 1, 10-float64(i)*0.1)
			y.Set(i, 0, 1)
		} else {
			X.Set(i, 0, float64(i)*0.05)
			X.Set(i, 1, float64(i%5))
		}
	}
	return X, y
}

func TestSMOTE_Balances(t *testing.T) {
	X, y := makeImbalanced(100, 20)

	sm := NewSMOTE(WithSeed(42))
	rX, rY, err := sm.FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample failed: %v", err)
	}

	rows, cols := rX.Dims()
	if cols != 2 {
		t.Errorf("Resampled X has %d columns, want 2", cols)
	}
	// 80 majority + 80 minority after balancing.
	if rows != 160 {
		t.Fatalf("Resampled X has %d rows, want 160", rows)
	}

	pos, neg := 0, 0
	for i := 0; i < rows; i++ {
		if rY.At(i, 0) == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos != neg {
		t.Errorf("Classes not balanced: %d positive vs %d negative", pos, neg)
	}

	// Original rows must be untouched and come first.
	for i := 0; i < 100; i++ {
		if rX.At(i, 0) != X.At(i, 0) || rX.At(i, 1) != X.At(i, 1) {
			t.Errorf("Original row %d was modified", i)
			break
		}
		if rY.At(i, 0) != y.At(i, 0) {
			t.Errorf("Original label %d was modified", i)
			break
		}
	}

	// Synthetic rows carry the minority label.
	for i := 100; i < rows; i++ {
		if rY.At(i, 0) != 1 {
			t.Errorf("Synthetic row %d has label %v, want 1", i, rY.At(i, 0))
		}
	}
}

func TestSMOTE_SyntheticWithinMinorityRange(t *testing.T) {
	X, y := makeImbalanced(60, 12)

	sm := NewSMOTE(WithSeed(7))
	rX, _, err := sm.FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample failed: %v", err)
	}

	// Interpolation cannot leave the minority bounding box.
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for i := 0; i < 12; i++ {
		minX = math.Min(minX, X.At(i, 0))
		maxX = math.Max(maxX, X.At(i, 0))
		minY = math.Min(minY, X.At(i, 1))
		maxY = math.Max(maxY, X.At(i, 1))
	}

	rows, _ := rX.Dims()
	for i := 60; i < rows; i++ {
		if rX.At(i, 0) < minX-1e-9 || rX.At(i, 0) > maxX+1e-9 ||
			rX.At(i, 1) < minY-1e-9 || rX.At(i, 1) > maxY+1e-9 {
			t.Errorf("Synthetic row %d outside minority bounding box: (%v, %v)",
				i, rX.At(i, 0), rX.At(i, 1))
		}
	}
}

func TestSMOTE_Deterministic(t *testing.T) {
	X, y := makeImbalanced(80, 16)

	run := func() *mat.Dense {
		rX, _, err := NewSMOTE(WithSeed(42)).FitResample(X, y)
		if err != nil {
			t.Fatalf("FitResample failed: %v", err)
		}
		return rX
	}

	a, b := run(), run()
	rows, cols := a.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if a.At(i, j) != b.At(i, j) {
				t.Fatalf("Equal-seed runs differ at (%d, %d)", i, j)
			}
		}
	}
}

func TestSMOTE_AlreadyBalanced(t *testing.T) {
	X := mat.NewDense(10, 1, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		X.Set(i, 0, float64(i))
		if i >= 5 {
			y.Set(i, 0, 1)
		}
	}

	rX, _, err := NewSMOTE().FitResample(X, y)
	if err != nil {
		t.Fatalf("FitResample failed: %v", err)
	}
	rows, _ := rX.Dims()
	if rows != 10 {
		t.Errorf("Balanced input should pass through unchanged, got %d rows", rows)
	}
}

func TestSMOTE_Errors(t *testing.T) {
	// Minority class smaller than k_neighbors.
	X, y := makeImbalanced(20, 3)
	if _, _, err := NewSMOTE().FitResample(X, y); err == nil {
		t.Error("Minority smaller than k_neighbors should fail")
	}

	// Non-binary target.
	X3 := mat.NewDense(9, 1, nil)
	y3 := mat.NewDense(9, 1, nil)
	for i := 0; i < 9; i++ {
		X3.Set(i, 0, float64(i))
		y3.Set(i, 0, float64(i%3))
	}
	if _, _, err := NewSMOTE().FitResample(X3, y3); err == nil {
		t.Error("Three-class target should fail")
	}

	// Single-class target.
	y1 := mat.NewDense(20, 1, nil)
	if _, _, err := NewSMOTE().FitResample(X, y1); err == nil {
		t.Error("Single-class target should fail")
	}

	if _, _, err := NewSMOTE(WithKNeighbors(0)).FitResample(X, y); err == nil {
		t.Error("k_neighbors=0 should fail")
	}
}
