// Package model provides the estimator interfaces and the trained-state
// bookkeeping shared by the regression models in this module.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the coefficient of determination R^2 of the prediction.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Regressor combines interfaces for regression models.
type Regressor interface {
	Fitter
	Predictor
	Scorer
}

// Persistable is the interface for models that can be saved and loaded.
// path may be a file name or a prefix shared by several companion files.
type Persistable interface {
	// Save saves the model to path.
	Save(path string) error

	// Load replaces the model state with the one stored at path.
	Load(path string) error
}

// Digester is implemented by models that can fingerprint their state.
type Digester interface {
	Digest() uint64
}
