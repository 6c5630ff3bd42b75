package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/churnlab/core/model"
	"github.com/YuminosukeSato/churnlab/pkg/errors"
)

// LabelEncoder はscikit-learn互換のラベルエンコーダー
// カテゴリ値を辞書順で0..n-1の整数コードに変換する
type LabelEncoder struct {
	model.BaseEstimator

	// Classes_ は学習済みのクラス一覧（辞書順）
	Classes_ []string

	// codes はラベル→コードの逆引きテーブル
	codes map[string]int
}

// NewLabelEncoder は新しいLabelEncoderを作成する
//
// 使用例:
//
//	enc := preprocessing.NewLabelEncoder()
//	codes, err := enc.FitTransform([]string{"Yes", "No", "Yes"})
//	// codes = [1, 0, 1], enc.Classes_ = ["No", "Yes"]
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{}
}

// Fit はラベル集合から安定したラベル→コード表を構築する
//
// クラスは辞書順にソートされ、コードは0から振られる
func (e *LabelEncoder) Fit(labels []string) error {
	if len(labels) == 0 {
		return errors.NewModelError("LabelEncoder.Fit", "empty data", errors.ErrEmptyData)
	}

	seen := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		seen[l] = struct{}{}
	}

	e.Classes_ = make([]string, 0, len(seen))
	for l := range seen {
		e.Classes_ = append(e.Classes_, l)
	}
	sort.Strings(e.Classes_)

	e.codes = make(map[string]int, len(e.Classes_))
	for i, l := range e.Classes_ {
		e.codes[l] = i
	}

	e.SetFitted()
	return nil
}

// Transform はラベルを整数コードに変換する
//
// 学習時に存在しなかったラベルはエラーになる
func (e *LabelEncoder) Transform(labels []string) ([]int, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "Transform")
	}

	result := make([]int, len(labels))
	for i, l := range labels {
		code, ok := e.codes[l]
		if !ok {
			return nil, errors.NewValueError("LabelEncoder.Transform",
				fmt.Sprintf("unknown label %q; known classes: %v", l, e.Classes_))
		}
		result[i] = code
	}
	return result, nil
}

// FitTransform はラベル集合で学習し、同じラベルを変換する
func (e *LabelEncoder) FitTransform(labels []string) ([]int, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform は整数コードを元のラベルに戻す
func (e *LabelEncoder) InverseTransform(codes []int) ([]string, error) {
	if !e.IsFitted() {
		return nil, errors.NewNotFittedError("LabelEncoder", "InverseTransform")
	}

	result := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.Classes_) {
			return nil, errors.NewValueError("LabelEncoder.InverseTransform",
				fmt.Sprintf("code %d out of range [0, %d)", c, len(e.Classes_)))
		}
		result[i] = e.Classes_[c]
	}
	return result, nil
}

// NClasses は学習済みのクラス数を返す
func (e *LabelEncoder) NClasses() int {
	return len(e.Classes_)
}

// String はエンコーダーの文字列表現を返す
func (e *LabelEncoder) String() string {
	if !e.IsFitted() {
		return "LabelEncoder()"
	}
	return fmt.Sprintf("LabelEncoder(n_classes=%d)", len(e.Classes_))
}
