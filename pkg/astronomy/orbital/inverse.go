package orbital

import (
	"math"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// degenerateTolerance decides when an orbit counts as circular or
// equatorial. Below it the affected angle is unobservable and fixed to 0.
const degenerateTolerance = 1e-10

// ElementsFromState converts a position and velocity relative to the
// parent into orbital elements whose start time puts the body at that
// state at time t.
//
// Circular orbits get ω = 0 and equatorial orbits get Ω = 0; the phase is
// then carried by the start time. Unbound or radial states are rejected.
func ElementsFromState(pos, vel astromath.Vector3, gravParam, t float64, parentID uint64) (OrbitalElements, error) {
	if err := positiveFinite("gravitational parameter", gravParam); err != nil {
		return OrbitalElements{}, err
	}
	if !pos.IsFinite() || !vel.IsFinite() || math.IsNaN(t) || math.IsInf(t, 0) {
		return OrbitalElements{}, invalidOrbitf("state vector is not finite")
	}

	r := pos.Magnitude()
	if r == 0 {
		return OrbitalElements{}, invalidOrbitf("position coincides with the parent")
	}

	// Specific energy decides whether the orbit is bound at all
	energy := vel.Dot(vel)/2 - gravParam/r
	if energy >= 0 {
		return OrbitalElements{}, invalidOrbitf("state is not bound (specific energy %g)", energy)
	}
	a := -gravParam / (2 * energy)

	// Specific angular momentum
	h := pos.Cross(vel)
	hMag := h.Magnitude()
	if hMag <= degenerateTolerance*r*vel.Magnitude() {
		return OrbitalElements{}, invalidOrbitf("radial trajectory has no orbital plane")
	}
	hUnit := h.Scale(1 / hMag)

	// Eccentricity vector points at periapsis
	eVec := vel.Cross(h).Scale(1.0 / gravParam).Sub(pos.Scale(1.0 / r))
	e := eVec.Magnitude()
	if e >= 1 {
		return OrbitalElements{}, invalidOrbitf("eccentricity %g outside [0, 1)", e)
	}

	inclination := math.Acos(clamp(hUnit.Z, -1, 1))

	// Line of nodes; in the equatorial case the reference X axis stands in
	node := astromath.Vector3{X: 0, Y: 0, Z: 1}.Cross(hUnit)
	ascendingNode := 0.0
	nodeUnit := astromath.Vector3{X: 1}
	if node.Magnitude() > degenerateTolerance {
		nodeUnit = node.Normalize()
		ascendingNode = NormalizeAngle(math.Atan2(nodeUnit.Y, nodeUnit.X))
	}

	var periapsis, trueAnomaly float64
	if e > degenerateTolerance {
		periapsis = planeAngle(nodeUnit, eVec, hUnit)
		trueAnomaly = planeAngle(eVec, pos, hUnit)
	} else {
		e = 0
		trueAnomaly = planeAngle(nodeUnit, pos, hUnit)
	}

	sinNu, cosNu := math.Sincos(trueAnomaly)
	E := math.Atan2(math.Sqrt((1-e)*(1+e))*sinNu, e+cosNu)
	M := NormalizeAngle(E - e*math.Sin(E))

	period, err := PeriodFromSemiMajor(a, gravParam)
	if err != nil {
		return OrbitalElements{}, err
	}

	return NewBuilder(a, gravParam).
		Eccentricity(e).
		Inclination(inclination).
		AscendingNode(ascendingNode).
		Periapsis(periapsis).
		StartTime(t - M/Tau*period).
		PeriodTime(period).
		Parent(parentID).
		Build()
}

// planeAngle measures the angle from u to v in the orbital plane, turning
// in the sense of the angular momentum unit vector n. Result is in [0, τ).
func planeAngle(u, v, n astromath.Vector3) float64 {
	return NormalizeAngle(math.Atan2(u.Cross(v).Dot(n), u.Dot(v)))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
