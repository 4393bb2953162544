package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions.
//
// Fatal input errors abort an analysis and surface as hard failures.
// They are never conflated with statistically undefined results, which
// travel as NaN fields inside otherwise well-formed result values.
var (
	// Input validation errors
	ErrMissingColumn     = errors.New("required column not found")
	ErrInvalidOption     = errors.New("invalid option value")
	ErrCovariateConflict = errors.New("covariate forced to both numeric and categorical")
	ErrNonPositiveTime   = errors.New("person-time must be > 0")
	ErrNegativeEvents    = errors.New("event counts must be >= 0")
	ErrEmptyCohort       = errors.New("cohort is empty")
	ErrGroupAbsent       = errors.New("group value absent from cohort")
	ErrTooFewCases       = errors.New("too few cases after filtering")

	// Fitting errors
	ErrMissingInDesign   = errors.New("design matrix contains missing values")
	ErrSingularDesign    = errors.New("design matrix is singular")
	ErrPerfectSeparation = errors.New("perfect separation detected")
	ErrNoConvergence     = errors.New("maximum likelihood estimation did not converge")
	ErrNoRobustBackend   = errors.New("no robust covariance backend available")
)

// Error constructors with context
func NewMissingColumnError(kind, name string) error {
	return fmt.Errorf("%w: %s column %q", ErrMissingColumn, kind, name)
}

func NewInvalidOptionError(option, got string) error {
	return fmt.Errorf("%w: %s=%q", ErrInvalidOption, option, got)
}

func NewCovariateConflictError(name string) error {
	return fmt.Errorf("%w: %q", ErrCovariateConflict, name)
}

// Error checking helpers
func IsInputError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidOption) ||
		errors.Is(err, ErrCovariateConflict) ||
		errors.Is(err, ErrNonPositiveTime) ||
		errors.Is(err, ErrNegativeEvents) ||
		errors.Is(err, ErrEmptyCohort) ||
		errors.Is(err, ErrGroupAbsent) ||
		errors.Is(err, ErrTooFewCases)
}

func IsFitError(err error) bool {
	return errors.Is(err, ErrMissingInDesign) ||
		errors.Is(err, ErrSingularDesign) ||
		errors.Is(err, ErrNoConvergence) ||
		errors.Is(err, ErrNoRobustBackend)
}
