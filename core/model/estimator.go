package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。X と y の各行が1サンプル
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データの各行に対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// UncertaintyPredictor は予測値と不確かさを同時に返すモデルのインターフェース
type UncertaintyPredictor interface {
	Predictor
	// PredictWithInterval は各行の予測値と信用区間の幅を返す
	PredictWithInterval(X mat.Matrix) (mean mat.Matrix, interval []float64, err error)
}
