package orbital

import (
	"math"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// StateVector is a position and velocity in the parent body's frame
type StateVector struct {
	Position astromath.Vector3 `json:"position"`
	Velocity astromath.Vector3 `json:"velocity"`
}

// Calculator turns orbital elements and a time into a StateVector.
// It holds no mutable state; one value may serve any number of goroutines.
type Calculator struct {
	Solver KeplerSolver
}

// NewCalculator returns a calculator using the given solver settings
func NewCalculator(solver KeplerSolver) Calculator {
	return Calculator{Solver: solver}
}

// anomalies is the intermediate result shared by the state and direction
// computations.
type anomalies struct {
	mean      float64
	eccentric float64
	trueAnom  float64
	radius    float64
}

// StateAt returns the state at time t, measured on the same clock as the
// orbit's start time.
func (c Calculator) StateAt(oe OrbitalElements, t float64) (StateVector, error) {
	if err := oe.Validate(); err != nil {
		return StateVector{}, err
	}
	return c.stateAtOrbits(oe, (t-oe.startTime)/oe.periodTime)
}

// StateAtCompleted returns the state once the given fraction of an orbit
// has elapsed since the start time.
func (c Calculator) StateAtCompleted(oe OrbitalElements, completed float64) (StateVector, error) {
	if err := oe.Validate(); err != nil {
		return StateVector{}, err
	}
	return c.stateAtOrbits(oe, completed)
}

// EccentricAnomalyAt returns the eccentric anomaly at time t
func (c Calculator) EccentricAnomalyAt(oe OrbitalElements, t float64) (float64, error) {
	if err := oe.Validate(); err != nil {
		return 0, err
	}
	an, err := c.solve(oe, (t-oe.startTime)/oe.periodTime)
	if err != nil {
		return 0, err
	}
	return an.eccentric, nil
}

func (c Calculator) solve(oe OrbitalElements, orbits float64) (anomalies, error) {
	if math.IsNaN(orbits) || math.IsInf(orbits, 0) {
		return anomalies{}, invalidOrbitf("elapsed time is not finite")
	}
	e := oe.eccentricity
	M := MeanAnomalyFromFraction(orbits)
	E, err := c.Solver.Solve(M, e)
	if err != nil {
		return anomalies{}, err
	}
	sinE, cosE := math.Sincos(E)
	return anomalies{
		mean:      M,
		eccentric: E,
		trueAnom:  math.Atan2(math.Sqrt((1-e)*(1+e))*sinE, cosE-e),
		radius:    oe.semiMajor * (1 - e*cosE),
	}, nil
}

func (c Calculator) stateAtOrbits(oe OrbitalElements, orbits float64) (StateVector, error) {
	an, err := c.solve(oe, orbits)
	if err != nil {
		return StateVector{}, err
	}

	e := oe.eccentricity
	sinNu, cosNu := math.Sincos(an.trueAnom)

	// Position in orbital plane
	pos := astromath.Vector3{X: an.radius * cosNu, Y: an.radius * sinNu}

	// Velocity in orbital plane from the radial and tangential components
	muOverH := oe.gravParam / oe.AngularMomentum()
	vr := muOverH * e * sinNu
	vt := muOverH * (1 + e*cosNu)
	vel := astromath.Vector3{
		X: vr*cosNu - vt*sinNu,
		Y: vr*sinNu + vt*cosNu,
	}

	rot := oe.Rotation()
	return StateVector{
		Position: rot.Apply(pos),
		Velocity: rot.Apply(vel),
	}, nil
}

// DirectionAtCompleted returns the (unnormalized) direction of travel: the
// tangent of the ellipse (-a·sin E, b·cos E) rotated into the parent frame.
func (c Calculator) DirectionAtCompleted(oe OrbitalElements, completed float64) (astromath.Vector3, error) {
	if err := oe.Validate(); err != nil {
		return astromath.Vector3{}, err
	}
	an, err := c.solve(oe, completed)
	if err != nil {
		return astromath.Vector3{}, err
	}
	sinE, cosE := math.Sincos(an.eccentric)
	tangent := astromath.Vector3{X: -oe.semiMajor * sinE, Y: oe.semiMinor * cosE}
	return oe.Rotation().Apply(tangent), nil
}

// DirectionStateAt is DirectionStateAtCompleted at time t on the start-time clock
func (c Calculator) DirectionStateAt(oe OrbitalElements, t float64) (StateVector, error) {
	if err := oe.Validate(); err != nil {
		return StateVector{}, err
	}
	return c.DirectionStateAtCompleted(oe, (t-oe.startTime)/oe.periodTime)
}

// DirectionStateAtCompleted builds the state the way fixtures do when only a
// direction of travel is specified: position from the orbit, velocity from
// the direction rescaled to the vis-viva speed.
func (c Calculator) DirectionStateAtCompleted(oe OrbitalElements, completed float64) (StateVector, error) {
	sv, err := c.StateAtCompleted(oe, completed)
	if err != nil {
		return StateVector{}, err
	}
	dir, err := c.DirectionAtCompleted(oe, completed)
	if err != nil {
		return StateVector{}, err
	}
	vel, err := VisVivaVelocity(oe.gravParam, oe.semiMajor, sv.Position, dir)
	if err != nil {
		return StateVector{}, err
	}
	sv.Velocity = vel
	return sv, nil
}
