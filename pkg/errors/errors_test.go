package errors

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Initialize",
			kind:    "inversion failed",
			err:     fmt.Errorf("test error"),
			wantMsg: "gpr: Initialize: inversion failed: test error",
		},
		{
			name:    "without original error",
			op:      "Save",
			kind:    "not trained",
			err:     nil,
			wantMsg: "gpr: Save: not trained",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)

			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %v, want %v", err.Error(), tt.wantMsg)
			}

			// スタックトレースの存在確認
			formatted := fmt.Sprintf("%+v", err)
			if !strings.Contains(formatted, "errors_test.go") {
				t.Error("Expected stack trace to contain test file name")
			}

			var modelErr *ModelError
			if !As(err, &modelErr) {
				t.Error("Error should be castable to *ModelError")
			}
		})
	}
}

func TestNewDimensionError(t *testing.T) {
	err := NewDimensionError("GaussianProcess.AddSample", InputVector, 2, 3)

	want := "gpr: GaussianProcess.AddSample: dimension of input vector (3) does not correspond to the input dimension (2)"
	assert.Equal(t, want, err.Error())

	var dimErr *DimensionError
	require.True(t, As(err, &dimErr))
	assert.Equal(t, InputVector, dimErr.Kind)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
}

func TestNewNotFittedError(t *testing.T) {
	err := NewNotFittedError("GaussianProcess", "Save", "")
	want := "gpr: GaussianProcess.Save: model is not trained. Call Initialize() before using Save()"
	assert.Equal(t, want, err.Error())

	err = NewNotFittedError("GaussianProcess", "Initialize", "no input samples defined")
	assert.Contains(t, err.Error(), "no input samples defined")

	var notFittedErr *NotFittedError
	assert.True(t, As(err, &notFittedErr))
}

func TestPersistenceErrors(t *testing.T) {
	err := NewFileNotFoundError("GaussianProcess.Load", "/tmp/gp-CoreMatrix.txt")
	var fnf *FileNotFoundError
	require.True(t, As(err, &fnf))
	assert.Equal(t, "/tmp/gp-CoreMatrix.txt", fnf.Path)
	assert.Contains(t, err.Error(), "does not exist or is a directory")

	err = NewCorruptFileError("GaussianProcess.Load", "gp-ParameterFile.txt", "missing sigma")
	var corrupt *CorruptFileError
	require.True(t, As(err, &corrupt))
	assert.Equal(t, "missing sigma", corrupt.Reason)
}

func TestKernelErrors(t *testing.T) {
	err := NewUnknownKernelError("UnknownKernel")
	var unknown *UnknownKernelError
	require.True(t, As(err, &unknown))
	assert.Equal(t, "UnknownKernel", unknown.Tag)

	err = NewUnimplementedCompositeError("PowerKernel", "PowerKernel#GaussianKernel#GaussianKernel")
	var composite *UnimplementedCompositeError
	require.True(t, As(err, &composite))
	assert.Equal(t, "PowerKernel", composite.Operator)
}

func TestNumericalWarning(t *testing.T) {
	w := NewNumericalWarning("GaussianProcess.CredibleInterval", "negative posterior variance", -1e-12)
	assert.Contains(t, w.Error(), "negative posterior variance")
	assert.Contains(t, w.Error(), "-1e-12")

	var captured []error
	SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer SetWarningHandler(func(error) {})

	Warn(w)
	require.Len(t, captured, 1)
	var nw *NumericalWarning
	assert.True(t, As(captured[0], &nw))
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrap(ErrSingularMatrix, "in GaussianProcess.Initialize")

	if !Is(wrapped, ErrSingularMatrix) {
		t.Error("Expected Is(wrapped, ErrSingularMatrix) to be true")
	}

	if !strings.Contains(wrapped.Error(), "in GaussianProcess.Initialize") {
		t.Error("Expected wrapped error to contain wrapping message")
	}
}

func TestWrapf(t *testing.T) {
	wrapped := Wrapf(ErrEmptyData, "in %s: expected %d, got %d", "Predict", 10, 5)

	if !Is(wrapped, ErrEmptyData) {
		t.Error("Expected Is(wrapped, ErrEmptyData) to be true")
	}

	expectedMsg := "in Predict: expected 10, got 5"
	if !strings.Contains(wrapped.Error(), expectedMsg) {
		t.Errorf("Expected wrapped error to contain %q", expectedMsg)
	}
}

func TestCheckMatrix(t *testing.T) {
	ok := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	assert.NoError(t, CheckMatrix("core", ok))

	bad := mat.NewDense(2, 2, []float64{1, math.Inf(1), math.NaN(), 4})
	err := CheckMatrix("core", bad)
	var inst *NumericalInstabilityError
	require.True(t, As(err, &inst))
	assert.Len(t, inst.Values, 2)
}

func TestNegativeValues(t *testing.T) {
	assert.Empty(t, NegativeValues([]float64{3, 2, 0}))
	assert.Equal(t, []float64{-1e-9}, NegativeValues([]float64{3, -1e-9, 1}))
}

func TestClipValue(t *testing.T) {
	assert.Equal(t, 0.0, ClipValue(-0.5, 0, math.Inf(1)))
	assert.Equal(t, 2.0, ClipValue(2, 0, math.Inf(1)))
}
