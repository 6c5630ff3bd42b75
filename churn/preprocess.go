// Package churn orchestrates the end-to-end experiment: dataset loading,
// descriptive analysis, preprocessing, model training and tuning, and the
// final evaluation report. Stages run sequentially and fail fast.
//
// Two methodological leaks of the reference procedure are preserved on
// purpose and noted in the run report: imputation and scaling statistics
// are fit on the full dataset before the train/test split, and SMOTE is
// applied to the full feature/label set before the tuned-model split.
package churn

import (
	"math"

	"github.com/YuminosukeSato/churnlab/dataset"
	"github.com/YuminosukeSato/churnlab/model_selection"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"github.com/YuminosukeSato/churnlab/pkg/log"
	"github.com/YuminosukeSato/churnlab/preprocessing"
	"github.com/go-gota/gota/dataframe"
	"gonum.org/v1/gonum/mat"
)

// FeatureNames returns the model feature order: the six scaled numeric
// columns followed by the six encoded categorical columns. The augment
// stage appends MonthlyToTenureRatio as the thirteenth feature.
func FeatureNames() []string {
	names := append([]string{}, dataset.NumericColumns()...)
	for _, c := range dataset.CategoricalColumns() {
		if c == dataset.ColChurn {
			continue
		}
		names = append(names, c)
	}
	return names
}

// RatioFeatureName is the derived feature added per split by Augment.
const RatioFeatureName = "MonthlyToTenureRatio"

// Preprocessed carries the model-ready matrices and the raw columns the
// augment stage needs.
type Preprocessed struct {
	// Full-table features and encoded target, pre-split.
	X *mat.Dense
	Y *mat.Dense

	// Raw (unscaled, imputed) MonthlyCharges and Tenure per row, used to
	// derive the ratio feature per split subset.
	RawMonthly []float64
	RawTenure  []float64

	FeatureNames []string
	Split        *model_selection.Split

	// Raw per-split columns aligned with the split matrices.
	TrainMonthly, TrainTenure []float64
	TestMonthly, TestTenure   []float64
}

// Preprocess turns the customer frame into model-ready matrices:
// mean-impute missing numerics, label-encode the categorical columns,
// standardize the numeric columns, and perform a stratified 80/20 split on
// the encoded Churn target.
//
// The imputer and scaler are fit on the FULL table before the split. That
// leaks test-set statistics into training; the reference procedure does
// this and it is preserved, not corrected.
func Preprocess(df dataframe.DataFrame, seed int, testSize float64) (p *Preprocessed, err error) {
	defer errors.Recover(&err, "churn.Preprocess")

	logger := log.GetLoggerWithName("churn.preprocess")

	if err := dataset.ValidateColumns(df); err != nil {
		return nil, err
	}
	n := df.Nrow()
	if n == 0 {
		return nil, errors.NewModelError("churn.Preprocess", "empty frame", errors.ErrEmptyData)
	}

	numericCols := dataset.NumericColumns()
	numeric := mat.NewDense(n, len(numericCols), nil)
	for j, name := range numericCols {
		col := df.Col(name).Float()
		for i := 0; i < n; i++ {
			numeric.Set(i, j, col[i])
		}
	}

	// Constant numeric columns cannot be standardized meaningfully.
	for j, name := range numericCols {
		if isConstantColumn(numeric, j) {
			return nil, errors.NewDataQualityError("preprocess", name, "column has zero variance")
		}
	}

	imputer := preprocessing.NewSimpleImputerDefault()
	imputed, err := imputer.FitTransform(numeric)
	if err != nil {
		return nil, err
	}
	imputedDense := mat.DenseCopyOf(imputed)

	scaler := preprocessing.NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(imputedDense)
	if err != nil {
		return nil, err
	}

	// Label-encode the categorical columns; Churn becomes the target
	// (No=0, Yes=1 by lexicographic class order).
	categoricalCols := make([]string, 0, len(dataset.CategoricalColumns())-1)
	for _, name := range dataset.CategoricalColumns() {
		if name != dataset.ColChurn {
			categoricalCols = append(categoricalCols, name)
		}
	}

	encoded := mat.NewDense(n, len(categoricalCols), nil)
	for j, name := range categoricalCols {
		enc := preprocessing.NewLabelEncoder()
		codes, err := enc.FitTransform(df.Col(name).Records())
		if err != nil {
			return nil, errors.Wrap(err, "failed to encode "+name)
		}
		for i, code := range codes {
			encoded.Set(i, j, float64(code))
		}
	}

	churnEnc := preprocessing.NewLabelEncoder()
	churnCodes, err := churnEnc.FitTransform(df.Col(dataset.ColChurn).Records())
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode target")
	}
	y := mat.NewDense(n, 1, nil)
	for i, code := range churnCodes {
		y.Set(i, 0, float64(code))
	}

	nFeatures := len(numericCols) + len(categoricalCols)
	X := mat.NewDense(n, nFeatures, nil)
	for i := 0; i < n; i++ {
		for j := range numericCols {
			X.Set(i, j, scaled.At(i, j))
		}
		for j := range categoricalCols {
			X.Set(i, len(numericCols)+j, encoded.At(i, j))
		}
	}

	split, err := model_selection.TrainTestSplit(X, y,
		model_selection.WithTestSize(testSize),
		model_selection.WithSeed(seed),
		model_selection.WithStratify(true),
	)
	if err != nil {
		return nil, err
	}

	// Raw (imputed, unscaled) columns for the ratio feature.
	monthlyIdx := indexOf(numericCols, dataset.ColMonthlyCharges)
	tenureIdx := indexOf(numericCols, dataset.ColTenure)
	rawMonthly := make([]float64, n)
	rawTenure := make([]float64, n)
	for i := 0; i < n; i++ {
		rawMonthly[i] = imputedDense.At(i, monthlyIdx)
		rawTenure[i] = imputedDense.At(i, tenureIdx)
	}

	p = &Preprocessed{
		X:            X,
		Y:            y,
		RawMonthly:   rawMonthly,
		RawTenure:    rawTenure,
		FeatureNames: FeatureNames(),
		Split:        split,
		TrainMonthly: gather(rawMonthly, split.TrainIndices),
		TrainTenure:  gather(rawTenure, split.TrainIndices),
		TestMonthly:  gather(rawMonthly, split.TestIndices),
		TestTenure:   gather(rawTenure, split.TestIndices),
	}

	trainRows, _ := split.XTrain.Dims()
	testRows, _ := split.XTest.Dims()
	logger.Info("preprocessing complete",
		log.SamplesKey, n,
		log.FeaturesKey, nFeatures,
		"train_rows", trainRows,
		"test_rows", testRows,
	)
	return p, nil
}

func isConstantColumn(m *mat.Dense, j int) bool {
	r, _ := m.Dims()
	var first float64
	seen := false
	for i := 0; i < r; i++ {
		v := m.At(i, j)
		if math.IsNaN(v) {
			continue
		}
		if !seen {
			first, seen = v, true
			continue
		}
		if v != first {
			return false
		}
	}
	return seen
}

func indexOf(names []string, name string) int {
	for i, n := range names {
		if n == name {
			return i
		}
	}
	return -1
}

func gather(values []float64, indices []int) []float64 {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = values[idx]
	}
	return out
}

// Augment appends the MonthlyToTenureRatio feature to a split subset. The
// ratio uses the raw (unscaled) columns; tenure 0 is guarded to divisor 1
// so zero-tenure rows carry their plain monthly charge. Each subset is
// augmented independently; no statistics cross the split boundary.
func Augment(X *mat.Dense, monthly, tenure []float64) (*mat.Dense, error) {
	r, c := X.Dims()
	if len(monthly) != r || len(tenure) != r {
		return nil, errors.NewDimensionError("churn.Augment", r, len(monthly), 0)
	}

	out := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, X.At(i, j))
		}
		divisor := tenure[i]
		if divisor < 1 {
			divisor = 1
		}
		out.Set(i, c, monthly[i]/divisor)
	}
	return out, nil
}
