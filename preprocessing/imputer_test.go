package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestSimpleImputer_Mean(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		nan, 20,
		3, nan,
		5, 30,
	})

	imputer := NewSimpleImputerDefault()
	filled, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	r, c := filled.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if math.IsNaN(filled.At(i, j)) {
				t.Errorf("(%d,%d) still NaN after imputation", i, j)
			}
		}
	}

	// Column 0 observed mean = (1+3+5)/3 = 3, column 1 = (10+20+30)/3 = 20.
	if got := filled.At(1, 0); math.Abs(got-3.0) > 1e-10 {
		t.Errorf("imputed value = %v, want 3", got)
	}
	if got := filled.At(2, 1); math.Abs(got-20.0) > 1e-10 {
		t.Errorf("imputed value = %v, want 20", got)
	}

	// Non-missing entries stay untouched.
	if got := filled.At(0, 0); got != 1 {
		t.Errorf("observed value changed: got %v, want 1", got)
	}
}

func TestSimpleImputer_Median(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(5, 1, []float64{
		1,
		nan,
		3,
		100,
		nan,
	})

	imputer := NewSimpleImputer(ImputeMedian)
	filled, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}

	// Observed {1, 3, 100}, median = 3.
	if got := filled.At(1, 0); got != 3 {
		t.Errorf("median imputed value = %v, want 3", got)
	}
}

func TestSimpleImputer_Constant(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(2, 1, []float64{nan, 7})

	imputer := NewSimpleImputer(ImputeConstant)
	imputer.FillValue = -1

	filled, err := imputer.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform failed: %v", err)
	}
	if got := filled.At(0, 0); got != -1 {
		t.Errorf("constant imputed value = %v, want -1", got)
	}
}

func TestSimpleImputer_AllMissingColumn(t *testing.T) {
	nan := math.NaN()
	X := mat.NewDense(2, 1, []float64{nan, nan})

	imputer := NewSimpleImputerDefault()
	if err := imputer.Fit(X); err == nil {
		t.Error("Fit should fail when a column has no observed values")
	}
}

func TestSimpleImputer_NotFitted(t *testing.T) {
	imputer := NewSimpleImputerDefault()
	_, err := imputer.Transform(mat.NewDense(1, 1, []float64{1}))
	if err == nil {
		t.Error("Transform on unfitted imputer should fail")
	}
}
