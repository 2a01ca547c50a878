package nbody

import (
	"fmt"
	"math"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// Body is a point mass in the N-body system
type Body struct {
	Name     string            `json:"name"`
	Mass     float64           `json:"mass"`
	Position astromath.Vector3 `json:"position"`
	Velocity astromath.Vector3 `json:"velocity"`
}

// System holds the bodies being integrated. Units are whatever G is
// expressed in; orbit fixtures use G = 1 with μ = G·M.
type System struct {
	Bodies []Body
	Time   float64
	G      float64
}

// softening keeps coincident bodies from producing infinite accelerations
const softening = 1e-10

// NewSystem creates an empty system with the given gravitational constant
func NewSystem(g float64) *System {
	return &System{
		Bodies: make([]Body, 0),
		G:      g,
	}
}

// Add appends a body and rejects non-finite or negative-mass input
func (s *System) Add(b Body) error {
	if math.IsNaN(b.Mass) || math.IsInf(b.Mass, 0) || b.Mass < 0 {
		return fmt.Errorf("body %q: mass must be finite and non-negative, got %g", b.Name, b.Mass)
	}
	if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
		return fmt.Errorf("body %q: state is not finite", b.Name)
	}
	s.Bodies = append(s.Bodies, b)
	return nil
}

// Copy creates a deep copy of the system
func (s *System) Copy() *System {
	c := &System{
		Bodies: make([]Body, len(s.Bodies)),
		Time:   s.Time,
		G:      s.G,
	}
	copy(c.Bodies, s.Bodies)
	return c
}

// Body returns the body with the given name
func (s *System) Body(name string) (Body, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return Body{}, false
}

// Integrate advances the system by duration using fixed leapfrog steps of
// at most dt. The last step is shortened so the system lands exactly on
// Time+duration. When sink is non-nil it receives the initial state, every
// snapEvery-th step and the final state.
func (s *System) Integrate(duration, dt float64, sink SnapshotSink, snapEvery int) error {
	if !(duration >= 0) || math.IsInf(duration, 0) {
		return fmt.Errorf("duration must be finite and non-negative, got %g", duration)
	}
	if !(dt > 0) || math.IsInf(dt, 0) {
		return fmt.Errorf("timestep must be positive and finite, got %g", dt)
	}
	if snapEvery <= 0 {
		snapEvery = 100
	}

	numSteps := int(math.Ceil(duration / dt))
	end := s.Time + duration

	if sink != nil {
		if err := sink.OnStart(numSteps, snapEvery); err != nil {
			return err
		}
		if err := sink.OnSnapshot(s.Time, s.Bodies); err != nil {
			return err
		}
	}

	for step := 0; step < numSteps; step++ {
		h := dt
		if remaining := end - s.Time; step == numSteps-1 || remaining < h {
			h = remaining
		}
		s.LeapfrogStep(h)

		if sink != nil && ((step+1)%snapEvery == 0 || step == numSteps-1) {
			if err := sink.OnSnapshot(s.Time, s.Bodies); err != nil {
				return err
			}
		}
	}
	s.Time = end

	if sink != nil {
		return sink.OnEnd(s.Time)
	}
	return nil
}

// LeapfrogStep performs one kick-drift-kick step
func (s *System) LeapfrogStep(dt float64) {
	acc := s.accelerations()

	// Half kick
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Add(acc[i].Scale(dt * 0.5))
	}

	// Drift
	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.Add(s.Bodies[i].Velocity.Scale(dt))
	}

	acc = s.accelerations()

	// Second half kick
	for i := range s.Bodies {
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Add(acc[i].Scale(dt * 0.5))
	}

	s.Time += dt
}

// accelerations computes gravitational accelerations for all bodies.
// Massless bodies are test particles: they feel gravity but exert none.
func (s *System) accelerations() []astromath.Vector3 {
	n := len(s.Bodies)
	acc := make([]astromath.Vector3, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j && s.Bodies[j].Mass > 0 {
				acc[i] = acc[i].Add(s.gravitationalAcceleration(i, j))
			}
		}
	}
	return acc
}

// gravitationalAcceleration is the pull on body i from body j
func (s *System) gravitationalAcceleration(i, j int) astromath.Vector3 {
	r := s.Bodies[j].Position.Sub(s.Bodies[i].Position)
	rMag := r.Magnitude()
	if rMag < softening {
		return astromath.Vector3{}
	}
	// a = G·M_j·r / |r|³
	return r.Scale(s.G * s.Bodies[j].Mass / (rMag * rMag * rMag))
}

// TotalMass sums the mass of all bodies
func (s *System) TotalMass() float64 {
	total := 0.0
	for _, b := range s.Bodies {
		total += b.Mass
	}
	return total
}

// Barycenter returns the mass-weighted mean position and velocity
func (s *System) Barycenter() (position, velocity astromath.Vector3) {
	total := s.TotalMass()
	if total == 0 {
		return astromath.Vector3{}, astromath.Vector3{}
	}
	for _, b := range s.Bodies {
		position = position.Add(b.Position.Scale(b.Mass))
		velocity = velocity.Add(b.Velocity.Scale(b.Mass))
	}
	return position.Scale(1 / total), velocity.Scale(1 / total)
}

// RecenterToBarycenter shifts every body so the barycenter is at rest at
// the origin. Without it a two-body system drifts with its total momentum.
func (s *System) RecenterToBarycenter() {
	pos, vel := s.Barycenter()
	for i := range s.Bodies {
		s.Bodies[i].Position = s.Bodies[i].Position.Sub(pos)
		s.Bodies[i].Velocity = s.Bodies[i].Velocity.Sub(vel)
	}
}

// KineticEnergy returns the total kinetic energy of massive bodies
func (s *System) KineticEnergy() float64 {
	energy := 0.0
	for _, b := range s.Bodies {
		energy += 0.5 * b.Mass * b.Velocity.Dot(b.Velocity)
	}
	return energy
}

// PotentialEnergy returns the total gravitational potential energy
func (s *System) PotentialEnergy() float64 {
	energy := 0.0
	n := len(s.Bodies)
	for i := 0; i < n-1; i++ {
		if s.Bodies[i].Mass == 0 {
			continue
		}
		for j := i + 1; j < n; j++ {
			if s.Bodies[j].Mass == 0 {
				continue
			}
			if r := s.Bodies[i].Position.Distance(s.Bodies[j].Position); r > softening {
				energy -= s.G * s.Bodies[i].Mass * s.Bodies[j].Mass / r
			}
		}
	}
	return energy
}

// TotalEnergy is conserved by the integrator up to O(dt²) oscillation
func (s *System) TotalEnergy() float64 {
	return s.KineticEnergy() + s.PotentialEnergy()
}

// AngularMomentum returns the total angular momentum about the origin
func (s *System) AngularMomentum() astromath.Vector3 {
	var total astromath.Vector3
	for _, b := range s.Bodies {
		total = total.Add(b.Position.Cross(b.Velocity).Scale(b.Mass))
	}
	return total
}
