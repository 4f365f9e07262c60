// Package metrics provides regression metrics for comparing predicted and
// observed outputs.
package metrics

import (
	"math"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func checkVectors(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue.IsEmpty() {
		return 0, errors.NewModelError(op, "empty vector", errors.ErrEmptyData)
	}
	n := yTrue.Len()
	if yPred.IsEmpty() || yPred.Len() != n {
		got := 0
		if !yPred.IsEmpty() {
			got = yPred.Len()
		}
		return 0, errors.NewDimensionError(op, errors.OutputVector, n, got)
	}
	return n, nil
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	// MSE = (1/n) * Σ(yTrue - yPred)²
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		sum += math.Abs(yTrue.AtVec(i) - yPred.AtVec(i))
	}
	return sum / float64(n), nil
}

// MaxError は絶対誤差の最大値を計算する
func MaxError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("MaxError", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var worst float64
	for i := 0; i < n; i++ {
		worst = math.Max(worst, math.Abs(yTrue.AtVec(i)-yPred.AtVec(i)))
	}
	return worst, nil
}

// R2Score は決定係数（R²）を計算する
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("R2Score", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yMean float64
	for i := 0; i < n; i++ {
		yMean += yTrue.AtVec(i)
	}
	yMean /= float64(n)

	// 全変動（TSS）と残差変動（RSS）
	var tss, rss float64
	for i := 0; i < n; i++ {
		t, p := yTrue.AtVec(i), yPred.AtVec(i)
		tss += (t - yMean) * (t - yMean)
		rss += (t - p) * (t - p)
	}

	if tss == 0 {
		return 0, errors.Newf("R2Score: total sum of squares is zero (no variance in yTrue)")
	}

	// R² = 1 - RSS/TSS
	return 1 - rss/tss, nil
}

// ExplainedVarianceScore は説明分散スコアを計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkVectors("ExplainedVarianceScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	var yTrueMean, diffMean float64
	for i := 0; i < n; i++ {
		yTrueMean += yTrue.AtVec(i)
		diffMean += yTrue.AtVec(i) - yPred.AtVec(i)
	}
	yTrueMean /= float64(n)
	diffMean /= float64(n)

	var varYTrue, varDiff float64
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		diff := t - yPred.AtVec(i)
		varYTrue += (t - yTrueMean) * (t - yTrueMean)
		varDiff += (diff - diffMean) * (diff - diffMean)
	}

	if varYTrue == 0 {
		return 0, errors.Newf("ExplainedVarianceScore: no variance in yTrue")
	}

	// 説明分散スコア = 1 - Var(yTrue - yPred) / Var(yTrue)
	return 1 - varDiff/varYTrue, nil
}

// columnAverage は各列に metric を適用した結果の平均を返す (uniform average)
func columnAverage(op string, yTrue, yPred mat.Matrix, metric func(a, b *mat.VecDense) (float64, error)) (float64, error) {
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 {
		return 0, errors.NewModelError(op, "empty matrix", errors.ErrEmptyData)
	}
	if rPred != rTrue {
		return 0, errors.NewDimensionError(op, errors.OutputVector, rTrue, rPred)
	}
	if cPred != cTrue {
		return 0, errors.NewDimensionError(op, errors.OutputVector, cTrue, cPred)
	}

	var sum float64
	for j := 0; j < cTrue; j++ {
		v, err := metric(
			mat.NewVecDense(rTrue, mat.Col(nil, j, yTrue)),
			mat.NewVecDense(rPred, mat.Col(nil, j, yPred)),
		)
		if err != nil {
			return 0, errors.Wrapf(err, "%s: column %d", op, j)
		}
		sum += v
	}
	return sum / float64(cTrue), nil
}

// MSEMatrix は各行が1サンプルの行列に対して、列ごとの MSE の平均を計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	return columnAverage("MSEMatrix", yTrue, yPred, MSE)
}

// R2ScoreMatrix は各行が1サンプルの行列に対して、列ごとの R² の平均を計算する
func R2ScoreMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	return columnAverage("R2ScoreMatrix", yTrue, yPred, R2Score)
}
