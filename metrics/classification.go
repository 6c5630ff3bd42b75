package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/churnlab/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Accuracy は正解率（accuracy）を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}

	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}

	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率（1 - accuracy）を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	acc, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return 1.0 - acc, nil
}

// AUC はROC曲線下面積（ROC-AUC）を計算する
//
// 順位ベースの実装で、同スコアは平均順位で扱う。
// 単一クラスしか含まれない入力はAUCが定義できないため0.5を返す。
// ラベルは0/1のバイナリである必要がある。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUC", "empty vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("AUC", "empty vector")
	}

	if yScore.Len() != n {
		return 0, errors.NewDimensionError("AUC", n, yScore.Len(), 0)
	}

	nPos := 0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return 0, errors.NewValueError("AUC", "labels must be binary (0 or 1)")
		}
		if label == 1 {
			nPos++
		}
	}
	nNeg := n - nPos

	// 単一クラスではAUCは未定義。慣例に従い0.5を返す
	if nPos == 0 || nNeg == 0 {
		return 0.5, nil
	}

	// スコア昇順でソートし、同スコアには平均順位を割り当てる
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool {
		return yScore.AtVec(idx[a]) < yScore.AtVec(idx[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yScore.AtVec(idx[j+1]) == yScore.AtVec(idx[i]) {
			j++
		}
		// ranks are 1-based; ties get the mean rank of the group
		avgRank := float64(i+j)/2.0 + 1.0
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avgRank
		}
		i = j + 1
	}

	sumRanksPos := 0.0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			sumRanksPos += ranks[i]
		}
	}

	// Mann-Whitney U統計量からAUCを導出
	auc := (sumRanksPos - float64(nPos)*float64(nPos+1)/2.0) / (float64(nPos) * float64(nNeg))
	return auc, nil
}

// AUCMatrix は行列形式の入力に対してAUCを計算する
//
// 複数列の行列は先頭列のみを使用する
func AUCMatrix(yTrue, yScore mat.Matrix) (float64, error) {
	// 入力検証
	if yTrue == nil || yScore == nil {
		return 0, errors.NewValueError("AUCMatrix", "nil matrix")
	}

	rTrue, cTrue := yTrue.Dims()
	rScore, cScore := yScore.Dims()

	if rTrue == 0 || cTrue == 0 || rScore == 0 || cScore == 0 {
		return 0, errors.NewValueError("AUCMatrix", "empty matrix")
	}

	if rTrue != rScore {
		return 0, errors.NewDimensionError("AUCMatrix", rTrue, rScore, 0)
	}

	yTrueVec := mat.NewVecDense(rTrue, nil)
	yScoreVec := mat.NewVecDense(rScore, nil)
	for i := 0; i < rTrue; i++ {
		yTrueVec.SetVec(i, yTrue.At(i, 0))
		yScoreVec.SetVec(i, yScore.At(i, 0))
	}

	return AUC(yTrueVec, yScoreVec)
}

// BinaryLogLoss はバイナリ分類の対数損失（log loss）を計算する
//
// log(0)を避けるため予測確率は[eps, 1-eps]にクリップされる
func BinaryLogLoss(yTrue, yProba *mat.VecDense) (float64, error) {
	// 入力検証
	if yTrue == nil || yProba == nil {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("BinaryLogLoss", "empty vector")
	}

	if yProba.Len() != n {
		return 0, errors.NewDimensionError("BinaryLogLoss", n, yProba.Len(), 0)
	}

	const eps = 1e-15
	sum := 0.0
	for i := 0; i < n; i++ {
		label := yTrue.AtVec(i)
		if label != 0 && label != 1 {
			return 0, errors.NewValueError("BinaryLogLoss", "labels must be binary (0 or 1)")
		}

		p := yProba.AtVec(i)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}

		if label == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}

	return sum / float64(n), nil
}
