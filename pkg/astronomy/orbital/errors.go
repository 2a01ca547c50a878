package orbital

import (
	"fmt"

	errorsmod "cosmossdk.io/errors"
)

// ModuleName is the error codespace of the orbital package
const ModuleName = "orbit"

var (
	// ErrInvalidOrbit covers element sets that cannot describe a bound
	// elliptical orbit: non-positive semi-major axis or gravitational
	// parameter, eccentricity outside [0, 1), non-finite input.
	ErrInvalidOrbit = errorsmod.Register(ModuleName, 2, "invalid orbit")

	// ErrConvergence is returned when the Kepler solver exceeds its
	// iteration bound.
	ErrConvergence = errorsmod.Register(ModuleName, 3, "kepler solver did not converge")
)

// ConvergenceError carries the solver state at the point it gave up.
// It matches ErrConvergence with errors.Is.
type ConvergenceError struct {
	MeanAnomaly  float64
	Eccentricity float64
	Residual     float64
	Iterations   int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%s: M=%g e=%g residual=%g after %d iterations",
		ErrConvergence.Error(), e.MeanAnomaly, e.Eccentricity, e.Residual, e.Iterations)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrConvergence
}

func invalidOrbitf(format string, args ...interface{}) error {
	return errorsmod.Wrapf(ErrInvalidOrbit, format, args...)
}
