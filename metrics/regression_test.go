package metrics

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestVectorMetrics(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
	yPred := mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.0})

	tests := []struct {
		name   string
		metric func(a, b *mat.VecDense) (float64, error)
		want   float64
	}{
		{"MSE", MSE, (0.25 + 0.25 + 0.25 + 1.0) / 4},
		{"RMSE", RMSE, math.Sqrt((0.25 + 0.25 + 0.25 + 1.0) / 4)},
		{"MAE", MAE, (0.5 + 0.5 + 0.5 + 1.0) / 4},
		{"MaxError", MaxError, 1.0},
		{"R2Score", R2Score, 1 - 1.75/5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.metric(yTrue, yPred)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			got, err = tt.metric(yTrue, yTrue)
			require.NoError(t, err)
			if tt.name == "R2Score" {
				assert.Equal(t, 1.0, got)
			} else {
				assert.Equal(t, 0.0, got)
			}
		})
	}
}

func TestVectorMetricErrors(t *testing.T) {
	a := mat.NewVecDense(3, []float64{1, 2, 3})
	b := mat.NewVecDense(2, []float64{1, 2})

	_, err := MSE(a, b)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 2, dimErr.Got)

	_, err = MAE(&mat.VecDense{}, &mat.VecDense{})
	assert.True(t, errors.Is(err, errors.ErrEmptyData))

	constant := mat.NewVecDense(3, []float64{2, 2, 2})
	_, err = R2Score(constant, a)
	assert.Error(t, err)
	_, err = ExplainedVarianceScore(constant, a)
	assert.Error(t, err)
}

func TestExplainedVarianceScore(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 2, 3, 4})
	// A constant offset leaves the explained variance untouched.
	yPred := mat.NewVecDense(4, []float64{2, 3, 4, 5})

	got, err := ExplainedVarianceScore(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)

	r2, err := R2Score(yTrue, yPred)
	require.NoError(t, err)
	assert.Less(t, r2, got)
}

func TestMatrixMetrics(t *testing.T) {
	yTrue := mat.NewDense(3, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
	})
	yPred := mat.NewDense(3, 2, []float64{
		1, 11,
		2, 19,
		4, 30,
	})

	mse, err := MSEMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, (1.0/3+2.0/3)/2, mse, 1e-12)

	r2, err := R2ScoreMatrix(yTrue, yPred)
	require.NoError(t, err)
	assert.InDelta(t, ((1-1.0/2)+(1-2.0/200))/2, r2, 1e-12)

	_, err = MSEMatrix(yTrue, mat.NewDense(3, 1, nil))
	assert.Error(t, err)
	_, err = R2ScoreMatrix(yTrue, mat.NewDense(2, 2, nil))
	assert.Error(t, err)
}
