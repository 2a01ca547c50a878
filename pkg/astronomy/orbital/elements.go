package orbital

import (
	"fmt"
	"math"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// Tau is one full turn in radians
const Tau = 2 * math.Pi

// OrbitalElements describes one elliptical orbit around a parent body.
//
// Values are immutable: they can only be produced by Builder (or the
// helpers built on it), which rejects invalid combinations, and every
// accessor is a read. Angles are in radians and are used modulo Tau.
type OrbitalElements struct {
	semiMajor     float64 // a
	semiMinor     float64 // b
	eccentricity  float64 // e, derived from a and b unless given explicitly
	inclination   float64 // i
	ascendingNode float64 // Ω
	periapsis     float64 // ω
	startTime     float64 // t0, mean anomaly is zero here
	periodTime    float64 // P
	gravParam     float64 // μ of the parent
	parentID      uint64
}

func (oe OrbitalElements) SemiMajor() float64     { return oe.semiMajor }
func (oe OrbitalElements) SemiMinor() float64     { return oe.semiMinor }
func (oe OrbitalElements) Eccentricity() float64  { return oe.eccentricity }
func (oe OrbitalElements) Inclination() float64   { return oe.inclination }
func (oe OrbitalElements) AscendingNode() float64 { return oe.ascendingNode }
func (oe OrbitalElements) Periapsis() float64     { return oe.periapsis }
func (oe OrbitalElements) StartTime() float64     { return oe.startTime }
func (oe OrbitalElements) PeriodTime() float64    { return oe.periodTime }
func (oe OrbitalElements) GravParam() float64     { return oe.gravParam }
func (oe OrbitalElements) ParentID() uint64       { return oe.parentID }

// PeriapsisDistance returns the closest approach to the parent
func (oe OrbitalElements) PeriapsisDistance() float64 {
	return oe.semiMajor * (1 - oe.eccentricity)
}

// ApoapsisDistance returns the farthest distance from the parent
func (oe OrbitalElements) ApoapsisDistance() float64 {
	return oe.semiMajor * (1 + oe.eccentricity)
}

// FocalDistance returns the distance from the ellipse center to the parent
func (oe OrbitalElements) FocalDistance() float64 {
	return oe.semiMajor * oe.eccentricity
}

// SemiLatusRectum returns p = a(1 - e²)
func (oe OrbitalElements) SemiLatusRectum() float64 {
	return oe.semiMajor * (1 - oe.eccentricity*oe.eccentricity)
}

// AngularMomentum returns the specific angular momentum h = sqrt(μp)
func (oe OrbitalElements) AngularMomentum() float64 {
	return math.Sqrt(oe.gravParam * oe.SemiLatusRectum())
}

// SpecificEnergy returns the specific mechanical energy -μ/2a
func (oe OrbitalElements) SpecificEnergy() float64 {
	return -oe.gravParam / (2 * oe.semiMajor)
}

// MeanMotion returns the mean angular rate τ/P
func (oe OrbitalElements) MeanMotion() float64 {
	return Tau / oe.periodTime
}

// LongitudeOfPeriapsis returns Ω + ω reduced to [0, τ)
func (oe OrbitalElements) LongitudeOfPeriapsis() float64 {
	return NormalizeAngle(oe.ascendingNode + oe.periapsis)
}

// Rotation returns the perifocal to parent-frame rotation of this orbit
func (oe OrbitalElements) Rotation() astromath.FrameRotation {
	return astromath.NewFrameRotation(oe.inclination, oe.ascendingNode, oe.periapsis)
}

// Validate checks the invariants every propagation relies on. Values made
// by Builder always pass; the zero value does not.
func (oe OrbitalElements) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"semi-major axis", oe.semiMajor},
		{"semi-minor axis", oe.semiMinor},
		{"inclination", oe.inclination},
		{"ascending node", oe.ascendingNode},
		{"periapsis", oe.periapsis},
		{"start time", oe.startTime},
		{"period", oe.periodTime},
		{"gravitational parameter", oe.gravParam},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return invalidOrbitf("%s is not finite", f.name)
		}
	}
	if oe.semiMajor <= 0 {
		return invalidOrbitf("semi-major axis must be positive, got %g", oe.semiMajor)
	}
	if oe.gravParam <= 0 {
		return invalidOrbitf("gravitational parameter must be positive, got %g", oe.gravParam)
	}
	if oe.eccentricity < 0 || oe.eccentricity >= 1 || math.IsNaN(oe.eccentricity) {
		return invalidOrbitf("eccentricity %g outside [0, 1)", oe.eccentricity)
	}
	if oe.semiMinor <= 0 || oe.semiMinor > oe.semiMajor {
		return invalidOrbitf("semi-minor axis %g must be in (0, %g]", oe.semiMinor, oe.semiMajor)
	}
	if oe.periodTime <= 0 {
		return invalidOrbitf("period must be positive, got %g", oe.periodTime)
	}
	return nil
}

// CheckConsistency reports whether the period and gravitational parameter
// agree with Kepler's third law to within the relative tolerance. The
// calculator itself never reconciles them: the period drives the phase and
// μ drives the velocity.
func (oe OrbitalElements) CheckConsistency(relTol float64) error {
	want, err := PeriodFromSemiMajor(oe.semiMajor, oe.gravParam)
	if err != nil {
		return err
	}
	if diff := math.Abs(oe.periodTime-want) / want; diff > relTol {
		return invalidOrbitf("period %g disagrees with τ·sqrt(a³/μ) = %g (relative error %.3g)",
			oe.periodTime, want, diff)
	}
	return nil
}

func (oe OrbitalElements) String() string {
	return fmt.Sprintf("a=%g b=%g e=%.6f i=%.6f Ω=%.6f ω=%.6f t0=%g P=%g μ=%g parent=%d",
		oe.semiMajor, oe.semiMinor, oe.eccentricity, oe.inclination, oe.ascendingNode,
		oe.periapsis, oe.startTime, oe.periodTime, oe.gravParam, oe.parentID)
}

// NewElements builds an orbit from all of its values at once. As with
// Builder, a zero period or a zero gravParam (but not both) is derived.
func NewElements(semiMajor, semiMinor, inclination, ascendingNode, periapsis, startTime, periodTime, gravParam float64, parentID uint64) (OrbitalElements, error) {
	return NewBuilder(semiMajor, gravParam).
		SemiMinor(semiMinor).
		Inclination(inclination).
		AscendingNode(ascendingNode).
		Periapsis(periapsis).
		StartTime(startTime).
		PeriodTime(periodTime).
		Parent(parentID).
		Build()
}

// Builder assembles OrbitalElements and validates them in Build.
type Builder struct {
	el           OrbitalElements
	semiMinorSet bool
	eccSet       bool
}

// NewBuilder starts a circular, equatorial orbit with period derived from
// μ. A zero gravParam is allowed when a period is supplied; μ is then
// derived from the period.
func NewBuilder(semiMajor, gravParam float64) *Builder {
	return &Builder{el: OrbitalElements{semiMajor: semiMajor, gravParam: gravParam}}
}

// SemiMinor sets b; eccentricity is derived from it
func (b *Builder) SemiMinor(v float64) *Builder {
	b.el.semiMinor = v
	b.semiMinorSet = true
	b.eccSet = false
	return b
}

// Eccentricity sets e directly; b is derived from it
func (b *Builder) Eccentricity(e float64) *Builder {
	b.el.eccentricity = e
	b.eccSet = true
	b.semiMinorSet = false
	return b
}

func (b *Builder) Inclination(v float64) *Builder {
	b.el.inclination = v
	return b
}

func (b *Builder) AscendingNode(v float64) *Builder {
	b.el.ascendingNode = v
	return b
}

func (b *Builder) Periapsis(v float64) *Builder {
	b.el.periapsis = v
	return b
}

func (b *Builder) StartTime(v float64) *Builder {
	b.el.startTime = v
	return b
}

// PeriodTime sets P. Zero means derive it from μ.
func (b *Builder) PeriodTime(v float64) *Builder {
	b.el.periodTime = v
	return b
}

func (b *Builder) Parent(id uint64) *Builder {
	b.el.parentID = id
	return b
}

// Build validates the collected values and returns the orbit
func (b *Builder) Build() (OrbitalElements, error) {
	el := b.el
	a := el.semiMajor
	if math.IsNaN(a) || math.IsInf(a, 0) || a <= 0 {
		return OrbitalElements{}, invalidOrbitf("semi-major axis must be positive, got %g", a)
	}

	switch {
	case b.eccSet:
		e := el.eccentricity
		if math.IsNaN(e) || e < 0 || e >= 1 {
			return OrbitalElements{}, invalidOrbitf("eccentricity %g outside [0, 1)", e)
		}
		el.semiMinor = a * math.Sqrt((1-e)*(1+e))
	case b.semiMinorSet:
		minor := el.semiMinor
		if math.IsNaN(minor) || minor <= 0 || minor > a {
			return OrbitalElements{}, invalidOrbitf("semi-minor axis %g gives eccentricity outside [0, 1) for a=%g", minor, a)
		}
		el.eccentricity = math.Sqrt((a-minor)*(a+minor)) / a
	default:
		el.semiMinor = a
		el.eccentricity = 0
	}

	if el.gravParam < 0 {
		return OrbitalElements{}, invalidOrbitf("gravitational parameter must be positive, got %g", el.gravParam)
	}
	if el.periodTime < 0 {
		return OrbitalElements{}, invalidOrbitf("period must be positive, got %g", el.periodTime)
	}
	switch {
	case el.gravParam == 0 && el.periodTime == 0:
		return OrbitalElements{}, invalidOrbitf("either a gravitational parameter or a period is required")
	case el.gravParam == 0:
		mu, err := GravParamFromPeriod(a, el.periodTime)
		if err != nil {
			return OrbitalElements{}, err
		}
		el.gravParam = mu
	case el.periodTime == 0:
		p, err := PeriodFromSemiMajor(a, el.gravParam)
		if err != nil {
			return OrbitalElements{}, err
		}
		el.periodTime = p
	}

	if err := el.Validate(); err != nil {
		return OrbitalElements{}, err
	}
	return el, nil
}
