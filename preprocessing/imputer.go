package preprocessing

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// ImputeStrategy は欠損値の補完方法を表す
type ImputeStrategy string

const (
	// ImputeMean は非欠損値の平均で補完する（デフォルト）
	ImputeMean ImputeStrategy = "mean"
	// ImputeMedian は非欠損値の中央値で補完する
	ImputeMedian ImputeStrategy = "median"
	// ImputeConstant は固定値で補完する
	ImputeConstant ImputeStrategy = "constant"
)

// SimpleImputer はscikit-learn互換の欠損値補完器
// NaNを各列の統計量（平均・中央値）または固定値で置き換える
type SimpleImputer struct {
	model.BaseEstimator

	// Strategy は補完方法
	Strategy ImputeStrategy

	// FillValue はImputeConstant時に使用する固定値
	FillValue float64

	// Statistics は各列の学習済み補完値
	Statistics []float64

	// NFeatures は特徴量の数
	NFeatures int
}

// NewSimpleImputer は新しいSimpleImputerを作成する
//
// パラメータ:
//   - strategy: 補完方法 (ImputeMean, ImputeMedian, ImputeConstant)
//
// 使用例:
//
//	imputer := preprocessing.NewSimpleImputer(preprocessing.ImputeMean)
//	XFilled, err := imputer.FitTransform(X)
func NewSimpleImputer(strategy ImputeStrategy) *SimpleImputer {
	return &SimpleImputer{Strategy: strategy}
}

// NewSimpleImputerDefault はデフォルト設定（平均補完）でSimpleImputerを作成する
func NewSimpleImputerDefault() *SimpleImputer {
	return NewSimpleImputer(ImputeMean)
}

// Fit は各列の非欠損値から補完統計量を計算する
//
// 全ての値が欠損している列はエラーになる
func (im *SimpleImputer) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("SimpleImputer.Fit", "empty data", errors.ErrEmptyData)
	}

	switch im.Strategy {
	case ImputeMean, ImputeMedian, ImputeConstant:
	default:
		return errors.NewValidationError("strategy", "must be mean, median or constant", string(im.Strategy))
	}

	im.NFeatures = c
	im.Statistics = make([]float64, c)

	for j := 0; j < c; j++ {
		if im.Strategy == ImputeConstant {
			im.Statistics[j] = im.FillValue
			continue
		}

		observed := make([]float64, 0, r)
		for i := 0; i < r; i++ {
			v := X.At(i, j)
			if !math.IsNaN(v) {
				observed = append(observed, v)
			}
		}
		if len(observed) == 0 {
			return errors.NewDataQualityError("impute", fmt.Sprintf("column %d", j),
				"all values are missing; cannot compute fill statistic")
		}

		switch im.Strategy {
		case ImputeMean:
			sum := 0.0
			for _, v := range observed {
				sum += v
			}
			im.Statistics[j] = sum / float64(len(observed))
		case ImputeMedian:
			sort.Float64s(observed)
			n := len(observed)
			if n%2 == 1 {
				im.Statistics[j] = observed[n/2]
			} else {
				im.Statistics[j] = (observed[n/2-1] + observed[n/2]) / 2
			}
		}
	}

	im.SetFitted()
	return nil
}

// Transform は学習済みの統計量で欠損値を置き換える
func (im *SimpleImputer) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !im.IsFitted() {
		return nil, errors.NewNotFittedError("SimpleImputer", "Transform")
	}

	r, c := X.Dims()
	if c != im.NFeatures {
		return nil, errors.NewDimensionError("SimpleImputer.Transform", im.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := X.At(i, j)
			if math.IsNaN(v) {
				v = im.Statistics[j]
			}
			result.Set(i, j, v)
		}
	}

	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (im *SimpleImputer) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := im.Fit(X); err != nil {
		return nil, err
	}
	return im.Transform(X)
}

// GetParams は補完器のパラメータを取得する
func (im *SimpleImputer) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"strategy":   string(im.Strategy),
		"fill_value": im.FillValue,
	}
}

// String は補完器の文字列表現を返す
func (im *SimpleImputer) String() string {
	if !im.IsFitted() {
		return fmt.Sprintf("SimpleImputer(strategy=%s)", im.Strategy)
	}
	return fmt.Sprintf("SimpleImputer(strategy=%s, n_features=%d)", im.Strategy, im.NFeatures)
}
