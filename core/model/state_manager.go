package model

import (
	"sync"

	"github.com/YuminosukeSato/gpr/pkg/errors"
)

// StateManager tracks whether a model's cached training results are
// consistent with its data, together with the data dimensions.
//
// Dimensions are fixed by the first sample and survive Invalidate; only
// Reset clears them.
type StateManager struct {
	mu sync.RWMutex

	trained   bool
	inputDim  int
	outputDim int
	nSamples  int
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsTrained returns whether the cached training results are current.
func (s *StateManager) IsTrained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.trained
}

// SetTrained marks the cached training results as current.
func (s *StateManager) SetTrained() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = true
}

// Invalidate clears the trained flag after a mutation of data or
// hyperparameters.
func (s *StateManager) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = false
}

// Reset clears the trained flag, the dimensions and the sample count.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trained = false
	s.inputDim = 0
	s.outputDim = 0
	s.nSamples = 0
}

// CheckSample validates the sizes of one input/output pair against the
// dimensions fixed by the first sample. Nothing is recorded; call
// AddSample once the pair has been stored.
func (s *StateManager) CheckSample(op string, inputLen, outputLen int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.nSamples == 0 {
		return nil
	}
	if inputLen != s.inputDim {
		return errors.NewDimensionError(op, errors.InputVector, s.inputDim, inputLen)
	}
	if outputLen != s.outputDim {
		return errors.NewDimensionError(op, errors.OutputVector, s.outputDim, outputLen)
	}
	return nil
}

// AddSample records one stored sample, fixing the dimensions on the first
// call, and clears the trained flag.
func (s *StateManager) AddSample(inputLen, outputLen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nSamples == 0 {
		s.inputDim = inputLen
		s.outputDim = outputLen
	}
	s.nSamples++
	s.trained = false
}

// CheckInput validates the size of a query vector.
func (s *StateManager) CheckInput(op string, inputLen int) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if inputLen != s.inputDim {
		return errors.NewDimensionError(op, errors.InputVector, s.inputDim, inputLen)
	}
	return nil
}

// Dimensions returns the input dimension, output dimension and sample count.
func (s *StateManager) Dimensions() (inputDim, outputDim, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inputDim, s.outputDim, s.nSamples
}

// RequireTrained returns a NotFittedError naming model and method if the
// cached results are stale.
func (s *StateManager) RequireTrained(model, method string) error {
	if !s.IsTrained() {
		return errors.NewNotFittedError(model, method, "call Initialize first")
	}
	return nil
}

// ModelState is a snapshot of a StateManager.
type ModelState struct {
	Trained   bool `json:"trained"`
	InputDim  int  `json:"input_dim"`
	OutputDim int  `json:"output_dim"`
	NSamples  int  `json:"n_samples"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Trained:   s.trained,
		InputDim:  s.inputDim,
		OutputDim: s.outputDim,
		NSamples:  s.nSamples,
	}
}

// SetState replaces the whole state at once.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.trained = state.Trained
	s.inputDim = state.InputDim
	s.outputDim = state.OutputDim
	s.nSamples = state.NSamples
}
