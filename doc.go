// Package gpr provides Gaussian process regression for Go.
//
// A Gaussian process is trained by adding input/output sample pairs and
// inverting the regularized Gram matrix (K + σI) once. Afterwards it answers
// posterior mean, derivative, covariance and credible interval queries, and
// can be saved to and restored from a set of plain text files.
//
// # Installation
//
//	go get github.com/YuminosukeSato/gpr
//
// # Quick Start
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gpr/gp"
//	    "github.com/YuminosukeSato/gpr/kernel"
//	)
//
//	func main() {
//	    k, err := kernel.NewGaussian(0.8, 1.0)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    g := gp.New(k, gp.WithSigma(0.01))
//	    for _, x := range []float64{0, 0.5, 1, 1.5, 2} {
//	        if err := g.AddSample([]float64{x}, []float64{x * x}); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	    mean, err := g.Predict([]float64{1.25})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    width, _ := g.CredibleInterval([]float64{1.25})
//	    fmt.Println(mean, width)
//	}
//
// Queries initialize the model on demand; Initialize can also be called
// explicitly to pay the O(n³) cost up front.
//
// # Packages
//
//   - gp: the regression engine, inversion methods, persistence and a
//     matrix based Estimator
//   - kernel: covariance kernels (Gaussian, Periodic, Sum, Product) and the
//     tag registry used to rebuild kernels when loading
//   - metrics: regression metrics (MSE, RMSE, MAE, R²)
//   - core/model: estimator interfaces and the training state manager
//   - core/parallel: worker pool helpers used to build kernel matrices
//   - pkg/matio: whitespace separated matrix text format
//   - pkg/errors: typed errors and numerical warnings
//   - pkg/log: structured logging on slog and zerolog
//
// # Custom kernels
//
// Any type implementing kernel.Kernel can be used. To make it loadable,
// register a constructor under its tag:
//
//	kernel.Default[float64]().Register("MyKernel", 3, newMyKernel)
//
// # License
//
// gpr is released under the MIT License.
package gpr
