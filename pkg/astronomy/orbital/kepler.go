package orbital

import (
	"math"
)

const (
	DefaultKeplerTolerance     = 1e-12
	DefaultKeplerMaxIterations = 50
)

// KeplerSolver solves Kepler's equation M = E - e·sin(E) for the eccentric
// anomaly E by Newton-Raphson iteration. Zero fields fall back to the
// defaults above.
type KeplerSolver struct {
	Tolerance     float64
	MaxIterations int
}

// SolveKepler solves with the default tolerance and iteration bound
func SolveKepler(meanAnomaly, eccentricity float64) (float64, error) {
	return KeplerSolver{}.Solve(meanAnomaly, eccentricity)
}

// Solve returns E for any real mean anomaly. Whole turns are split off
// before iterating and added back to the result, so E - e·sin(E) == M
// holds for the input M, not only for its reduced value.
func (s KeplerSolver) Solve(meanAnomaly, eccentricity float64) (float64, error) {
	if math.IsNaN(meanAnomaly) || math.IsInf(meanAnomaly, 0) {
		return 0, invalidOrbitf("mean anomaly is not finite")
	}
	if math.IsNaN(eccentricity) || eccentricity < 0 || eccentricity >= 1 {
		return 0, invalidOrbitf("eccentricity %g outside [0, 1)", eccentricity)
	}
	if eccentricity == 0 {
		return meanAnomaly, nil
	}

	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultKeplerTolerance
	}
	maxIter := s.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultKeplerMaxIterations
	}

	turns := math.Floor(meanAnomaly / Tau)
	M := meanAnomaly - turns*Tau

	// E0 = M is good for low and moderate e. Above 0.8 start from π:
	// the residual is convex on (0, π) and concave on (π, τ), so Newton
	// steps from π approach the root monotonically.
	E := M
	if eccentricity > 0.8 {
		E = math.Pi
	}

	var residual float64
	for i := 0; i < maxIter; i++ {
		residual = E - eccentricity*math.Sin(E) - M
		if math.Abs(residual) < tol {
			return E + turns*Tau, nil
		}
		E -= residual / (1 - eccentricity*math.Cos(E))
	}

	residual = E - eccentricity*math.Sin(E) - M
	if math.Abs(residual) < tol {
		return E + turns*Tau, nil
	}
	return 0, &ConvergenceError{
		MeanAnomaly:  meanAnomaly,
		Eccentricity: eccentricity,
		Residual:     residual,
		Iterations:   maxIter,
	}
}

// MeanAnomalyFromFraction converts a count of orbits since the start time
// into a mean anomaly in [0, τ). frac(x) = x - floor(x) keeps negative
// elapsed times in range.
func MeanAnomalyFromFraction(orbits float64) float64 {
	return (orbits - math.Floor(orbits)) * Tau
}

// NormalizeAngle reduces an angle to [0, τ)
func NormalizeAngle(angle float64) float64 {
	a := math.Mod(angle, Tau)
	if a < 0 {
		a += Tau
	}
	if a >= Tau {
		a = 0
	}
	return a
}
