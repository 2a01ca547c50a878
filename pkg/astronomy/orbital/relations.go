package orbital

import (
	"math"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// GravitationalConstant is G in km³/(t·s²): system definitions give
// distances in kilometres and masses in metric tons.
const GravitationalConstant = 6.67430e-17

func positiveFinite(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return invalidOrbitf("%s must be positive and finite, got %g", name, v)
	}
	return nil
}

// PeriodFromSemiMajor applies Kepler's third law: P = τ·sqrt(a³/μ)
func PeriodFromSemiMajor(semiMajor, gravParam float64) (float64, error) {
	if err := positiveFinite("semi-major axis", semiMajor); err != nil {
		return 0, err
	}
	if err := positiveFinite("gravitational parameter", gravParam); err != nil {
		return 0, err
	}
	return Tau * math.Sqrt(semiMajor*semiMajor*semiMajor/gravParam), nil
}

// SemiMajorFromPeriod inverts Kepler's third law: a = cbrt(μ·(P/τ)²)
func SemiMajorFromPeriod(period, gravParam float64) (float64, error) {
	if err := positiveFinite("period", period); err != nil {
		return 0, err
	}
	if err := positiveFinite("gravitational parameter", gravParam); err != nil {
		return 0, err
	}
	n := period / Tau
	return math.Cbrt(gravParam * n * n), nil
}

// GravParamFromPeriod returns the μ implied by an orbit's size and period:
// μ = a³ / (P/τ)²
func GravParamFromPeriod(semiMajor, period float64) (float64, error) {
	if err := positiveFinite("semi-major axis", semiMajor); err != nil {
		return 0, err
	}
	if err := positiveFinite("period", period); err != nil {
		return 0, err
	}
	n := period / Tau
	return semiMajor * semiMajor * semiMajor / (n * n), nil
}

// GravParamFromMass returns μ = G·M. A non-positive G selects
// GravitationalConstant.
func GravParamFromMass(mass, g float64) (float64, error) {
	if g <= 0 {
		g = GravitationalConstant
	}
	if err := positiveFinite("parent mass", mass); err != nil {
		return 0, err
	}
	return g * mass, nil
}

// VisVivaSpeed returns the orbital speed at distance r: v = sqrt(μ(2/r - 1/a))
func VisVivaSpeed(gravParam, r, semiMajor float64) (float64, error) {
	if err := positiveFinite("gravitational parameter", gravParam); err != nil {
		return 0, err
	}
	if err := positiveFinite("radius", r); err != nil {
		return 0, err
	}
	if err := positiveFinite("semi-major axis", semiMajor); err != nil {
		return 0, err
	}
	v2 := gravParam * (2/r - 1/semiMajor)
	if v2 < 0 {
		// r slightly past apoapsis through rounding; anything more is a bad input
		if r > 2*semiMajor*(1+1e-12) {
			return 0, invalidOrbitf("radius %g exceeds the 2a bound of a bound orbit with a=%g", r, semiMajor)
		}
		v2 = 0
	}
	return math.Sqrt(v2), nil
}

// VisVivaVelocity rescales a direction of travel to the vis-viva speed at
// the given position. This is how velocities are built when only a
// direction is known.
func VisVivaVelocity(gravParam, semiMajor float64, position, direction astromath.Vector3) (astromath.Vector3, error) {
	if direction.IsZero() || !direction.IsFinite() {
		return astromath.Vector3{}, invalidOrbitf("direction %v has no usable heading", direction)
	}
	speed, err := VisVivaSpeed(gravParam, position.Magnitude(), semiMajor)
	if err != nil {
		return astromath.Vector3{}, err
	}
	return direction.SetLength(speed), nil
}
