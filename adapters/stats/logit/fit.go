package logit

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"gobias/domain/core"
	"gobias/domain/stats"
	"gobias/domain/table"
)

const (
	maxIRLSIterations = 100
	irlsTolerance     = 1e-8

	// Residuals collapsing onto the outcomes, or coefficients running
	// away, signal perfect or quasi-perfect separation.
	separationResidual = 1e-6
	divergentCoef      = 1e4

	// L1 fallback for separable data.
	l1Penalty         = 1e-6
	maxISTAIterations = 20000
	istaTolerance     = 1e-9
)

// FitOptions configures model fitting on top of the design options.
type FitOptions struct {
	RobustSE bool    `json:"robust_se" yaml:"robust_se"`
	Alpha    float64 `json:"alpha" yaml:"alpha"` // CI level; 0 defaults to 0.05
}

// TermEstimate is one model term's row of the fit output. The CI is
// computed on the coefficient scale and then exponentiated; NaN
// propagates through the exponentiation rather than erroring.
type TermEstimate struct {
	Term      string       `json:"term"`
	Coef      stats.Scalar `json:"coef"`
	OddsRatio stats.Scalar `json:"or"`
	CILow     stats.Scalar `json:"ci_low"`
	CIHigh    stats.Scalar `json:"ci_high"`
	PValue    stats.Scalar `json:"p_value"`
}

// FitResult is the full logistic model output. Regularized marks the
// L1 fallback, whose standard errors have no inferential meaning and
// are therefore reported as NaN.
type FitResult struct {
	Meta        Meta           `json:"meta"`
	Terms       []TermEstimate `json:"results"`
	Regularized bool           `json:"used_regularized"`
}

// Fit builds the design matrix and fits a binary logistic model by
// maximum likelihood. Perfectly separable data is refit with a small
// L1 penalty. Missing values surviving the drop policy are a fatal
// input error: fitting with NaN cells is never attempted silently.
func Fit(f *table.Frame, opts Options, fitOpts FitOptions) (*FitResult, error) {
	design, err := BuildDesign(f, opts)
	if err != nil {
		return nil, err
	}
	if err := requireComplete(design); err != nil {
		return nil, err
	}

	n := len(design.Y)
	k := len(design.Terms)
	if n == 0 {
		return nil, core.ErrEmptyCohort
	}
	if n < k {
		return nil, core.ErrSingularDesign
	}

	flat := make([]float64, 0, n*k)
	for _, row := range design.X {
		flat = append(flat, row...)
	}
	X := mat.NewDense(n, k, flat)

	alpha := fitOpts.Alpha
	if alpha == 0 {
		alpha = 0.05
	}

	beta, weights, fitted, err := irls(X, design.Y)
	if errors.Is(err, core.ErrPerfectSeparation) {
		return regularizedFit(X, design, alpha)
	}
	if err != nil {
		return nil, err
	}

	residuals := make([]float64, n)
	for i := range residuals {
		residuals[i] = design.Y[i] - fitted[i]
	}

	var cov *mat.Dense
	if fitOpts.RobustSE {
		cov, err = robustCovariance(X, weights, residuals)
	} else {
		cov, err = modelCovariance(X, weights)
	}
	if err != nil {
		return nil, err
	}

	z := distuv.UnitNormal.Quantile(1 - alpha/2)
	terms := make([]TermEstimate, k)
	for j := 0; j < k; j++ {
		se := math.Sqrt(cov.At(j, j))
		zStat := beta[j] / se
		terms[j] = TermEstimate{
			Term:      design.Terms[j],
			Coef:      stats.Scalar(beta[j]),
			OddsRatio: stats.Scalar(math.Exp(beta[j])),
			CILow:     stats.Scalar(math.Exp(beta[j] - z*se)),
			CIHigh:    stats.Scalar(math.Exp(beta[j] + z*se)),
			PValue:    stats.Scalar(2 * (1 - distuv.UnitNormal.CDF(math.Abs(zStat)))),
		}
	}

	return &FitResult{Meta: design.Meta, Terms: terms}, nil
}

// regularizedFit is the separation fallback: L1 with a very small
// penalty, reported without standard errors, intervals or p-values.
func regularizedFit(X *mat.Dense, design *Design, alpha float64) (*FitResult, error) {
	_ = alpha // the interval level is moot; inference is suppressed
	beta := l1Fit(X, design.Y)

	terms := make([]TermEstimate, len(design.Terms))
	for j, name := range design.Terms {
		terms[j] = TermEstimate{
			Term:      name,
			Coef:      stats.Scalar(beta[j]),
			OddsRatio: stats.Scalar(math.Exp(beta[j])),
			CILow:     stats.NaN(),
			CIHigh:    stats.NaN(),
			PValue:    stats.NaN(),
		}
	}
	return &FitResult{Meta: design.Meta, Terms: terms, Regularized: true}, nil
}

func requireComplete(d *Design) error {
	for _, v := range d.Y {
		if math.IsNaN(v) {
			return core.ErrMissingInDesign
		}
	}
	for _, row := range d.X {
		for _, v := range row {
			if math.IsNaN(v) {
				return core.ErrMissingInDesign
			}
		}
	}
	return nil
}

// irls runs iteratively reweighted least squares (Newton-Raphson on
// the logistic log-likelihood). It returns the coefficients together
// with the final weights and fitted probabilities so the covariance
// can be assembled from the converged state.
func irls(X *mat.Dense, y []float64) (beta, weights, fitted []float64, err error) {
	n, k := X.Dims()
	beta = make([]float64, k)
	eta := make([]float64, n)
	p := make([]float64, n)
	w := make([]float64, n)

	converged := false
	for iter := 0; iter <= maxIRLSIterations; iter++ {
		etaVec := mat.NewVecDense(n, eta)
		etaVec.MulVec(X, mat.NewVecDense(k, beta))

		maxResidual := 0.0
		for i := 0; i < n; i++ {
			p[i] = sigmoid(eta[i])
			w[i] = p[i] * (1 - p[i])
			if r := math.Abs(y[i] - p[i]); r > maxResidual {
				maxResidual = r
			}
		}
		if iter > 0 && maxResidual < separationResidual {
			return nil, nil, nil, core.ErrPerfectSeparation
		}
		if converged {
			return beta, w, p, nil
		}

		gram := weightedGram(X, w)
		grad := mat.NewVecDense(k, nil)
		for i := 0; i < n; i++ {
			for j := 0; j < k; j++ {
				grad.SetVec(j, grad.AtVec(j)+X.At(i, j)*(y[i]-p[i]))
			}
		}

		var chol mat.Cholesky
		if !chol.Factorize(gram) {
			if iter == 0 {
				return nil, nil, nil, core.ErrSingularDesign
			}
			// weights collapsed onto the boundary mid-iteration
			return nil, nil, nil, core.ErrPerfectSeparation
		}
		delta := mat.NewVecDense(k, nil)
		if err := chol.SolveVecTo(delta, grad); err != nil {
			return nil, nil, nil, core.ErrSingularDesign
		}

		maxStep := 0.0
		for j := 0; j < k; j++ {
			beta[j] += delta.AtVec(j)
			if s := math.Abs(delta.AtVec(j)); s > maxStep {
				maxStep = s
			}
			if math.Abs(beta[j]) > divergentCoef {
				return nil, nil, nil, core.ErrPerfectSeparation
			}
		}
		converged = maxStep < irlsTolerance
	}
	return nil, nil, nil, core.ErrNoConvergence
}

// l1Fit minimizes the mean logistic loss plus an L1 penalty by
// proximal gradient descent with a fixed step from the Frobenius
// Lipschitz bound. Deterministic for fixed inputs.
func l1Fit(X *mat.Dense, y []float64) []float64 {
	n, k := X.Dims()
	beta := make([]float64, k)

	fro := mat.Norm(X, 2)
	lipschitz := fro * fro / (4 * float64(n))
	if lipschitz <= 0 {
		return beta
	}
	step := 1 / lipschitz

	eta := make([]float64, n)
	grad := make([]float64, k)
	for iter := 0; iter < maxISTAIterations; iter++ {
		etaVec := mat.NewVecDense(n, eta)
		etaVec.MulVec(X, mat.NewVecDense(k, beta))

		for j := range grad {
			grad[j] = 0
		}
		for i := 0; i < n; i++ {
			r := sigmoid(eta[i]) - y[i]
			for j := 0; j < k; j++ {
				grad[j] += X.At(i, j) * r / float64(n)
			}
		}

		maxStep := 0.0
		for j := 0; j < k; j++ {
			next := softThreshold(beta[j]-step*grad[j], step*l1Penalty)
			if d := math.Abs(next - beta[j]); d > maxStep {
				maxStep = d
			}
			beta[j] = next
		}
		if maxStep < istaTolerance {
			break
		}
	}
	return beta
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	default:
		return 0
	}
}
