// Package log defines standard attribute keys for regression operations.
//
// Keys follow a hierarchical dotted naming convention (e.g. "model.name",
// "data.samples") so that log records can be filtered consistently.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model, e.g. "GaussianProcess".
	ModelNameKey = "model.name"

	// EstimatorIDKey provides a unique identifier (UUID) for a model instance.
	EstimatorIDKey = "estimator.id"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"
)

// Data Shape
const (
	// SamplesKey is the number of training samples.
	SamplesKey = "data.samples"

	// InputDimKey is the dimensionality of input vectors.
	InputDimKey = "data.input_dim"

	// OutputDimKey is the dimensionality of label vectors.
	OutputDimKey = "data.output_dim"

	// PathKey is a file path or persistence prefix.
	PathKey = "data.path"
)

// Gaussian process configuration
const (
	// KernelKey is the kernel type tag.
	KernelKey = "gp.kernel"

	// KernelParamsKey is the kernel parameter vector.
	KernelParamsKey = "gp.kernel_params"

	// SigmaKey is the noise variance added to the Gram matrix diagonal.
	SigmaKey = "gp.sigma"

	// InversionMethodKey is the selected inversion strategy.
	InversionMethodKey = "gp.inversion_method"

	// InversionErrorKey is the Frobenius norm of K·C − I after inversion.
	InversionErrorKey = "gp.inversion_error"
)

// Performance
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// WorkersKey records how many goroutines a parallel loop used.
	WorkersKey = "perf.workers"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"
)

// Standard attribute values.
const (
	OperationAddSample  = "add_sample"
	OperationInitialize = "initialize"
	OperationPredict    = "predict"
	OperationInterval   = "credible_interval"
	OperationSave       = "save"
	OperationLoad       = "load"
	OperationCompare    = "compare"
	ErrorDimension      = "DIMENSION_MISMATCH"
	ErrorSingularMatrix = "SINGULAR_MATRIX"
	ErrorInstability    = "NUMERICAL_INSTABILITY"
)
