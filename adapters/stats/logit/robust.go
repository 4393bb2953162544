package logit

import (
	"gonum.org/v1/gonum/mat"

	"gobias/domain/core"
)

// covarianceBackend computes parameter covariances for a converged
// logistic fit. Exactly one implementation is selected at build time;
// a request for robust covariance with no backend wired is a hard
// error, never a silent fall-back to model-based statistics.
type covarianceBackend interface {
	ModelBased(X *mat.Dense, weights []float64) (*mat.Dense, error)
	RobustHC1(X *mat.Dense, weights, residuals []float64) (*mat.Dense, error)
}

var backend covarianceBackend = gonumBackend{}

func modelCovariance(X *mat.Dense, weights []float64) (*mat.Dense, error) {
	if backend == nil {
		return nil, core.ErrNoRobustBackend
	}
	return backend.ModelBased(X, weights)
}

func robustCovariance(X *mat.Dense, weights, residuals []float64) (*mat.Dense, error) {
	if backend == nil {
		return nil, core.ErrNoRobustBackend
	}
	return backend.RobustHC1(X, weights, residuals)
}

// gonumBackend is the gonum/mat implementation.
type gonumBackend struct{}

// ModelBased returns the inverse Fisher information (X'WX)^-1 at the
// converged weights.
func (gonumBackend) ModelBased(X *mat.Dense, weights []float64) (*mat.Dense, error) {
	inv, err := invertGram(X, weights)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// RobustHC1 returns the heteroscedasticity-consistent sandwich
// (X'WX)^-1 [X' diag(r^2) X] (X'WX)^-1 scaled by n/(n-k).
func (gonumBackend) RobustHC1(X *mat.Dense, weights, residuals []float64) (*mat.Dense, error) {
	n, k := X.Dims()
	bread, err := invertGram(X, weights)
	if err != nil {
		return nil, err
	}

	squared := make([]float64, len(residuals))
	for i, r := range residuals {
		squared[i] = r * r
	}
	meat := weightedGram(X, squared)

	var half, sandwich mat.Dense
	half.Mul(bread, meat)
	sandwich.Mul(&half, bread)
	sandwich.Scale(float64(n)/float64(n-k), &sandwich)
	return &sandwich, nil
}

// weightedGram computes X' diag(w) X.
func weightedGram(X *mat.Dense, w []float64) *mat.SymDense {
	n, k := X.Dims()
	gram := mat.NewSymDense(k, nil)
	for i := 0; i < n; i++ {
		for a := 0; a < k; a++ {
			xa := X.At(i, a)
			for b := a; b < k; b++ {
				gram.SetSym(a, b, gram.At(a, b)+w[i]*xa*X.At(i, b))
			}
		}
	}
	return gram
}

func invertGram(X *mat.Dense, w []float64) (*mat.Dense, error) {
	gram := weightedGram(X, w)
	var chol mat.Cholesky
	if !chol.Factorize(gram) {
		return nil, core.ErrSingularDesign
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, core.ErrSingularDesign
	}
	return mat.DenseCopyOf(&inv), nil
}
