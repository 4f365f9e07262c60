package model

import (
	"testing"

	"github.com/YuminosukeSato/gpr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateManagerSampleDimensions(t *testing.T) {
	s := NewStateManager()

	require.NoError(t, s.CheckSample("AddSample", 3, 2))
	s.AddSample(3, 2)
	s.SetTrained()
	assert.True(t, s.IsTrained())

	err := s.CheckSample("AddSample", 4, 2)
	var dimErr *errors.DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, errors.InputVector, dimErr.Kind)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 4, dimErr.Got)

	err = s.CheckSample("AddSample", 3, 1)
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, errors.OutputVector, dimErr.Kind)

	// A rejected sample changes nothing.
	assert.True(t, s.IsTrained())
	in, out, n := s.Dimensions()
	assert.Equal(t, [3]int{3, 2, 1}, [3]int{in, out, n})

	s.AddSample(3, 2)
	assert.False(t, s.IsTrained())
	_, _, n = s.Dimensions()
	assert.Equal(t, 2, n)
}

func TestStateManagerInvalidateKeepsDimensions(t *testing.T) {
	s := NewStateManager()
	s.AddSample(1, 1)
	s.SetTrained()
	s.Invalidate()

	assert.False(t, s.IsTrained())
	require.NoError(t, s.CheckInput("Predict", 1))
	assert.Error(t, s.CheckInput("Predict", 2))

	err := s.RequireTrained("GaussianProcess", "Save")
	var nf *errors.NotFittedError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "Save", nf.Method)

	s.Reset()
	assert.Equal(t, ModelState{}, s.GetState())
}

func TestStateManagerSetState(t *testing.T) {
	s := NewStateManager()
	want := ModelState{Trained: true, InputDim: 4, OutputDim: 2, NSamples: 10}
	s.SetState(want)
	assert.Equal(t, want, s.GetState())
	assert.NoError(t, s.RequireTrained("GaussianProcess", "Predict"))
}
