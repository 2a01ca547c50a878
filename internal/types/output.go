package types

import (
	"time"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/fixture"
)

// ElementsSummary is the readable form of an orbit in command output
type ElementsSummary struct {
	Params            orbital.Params `json:"paramaters"`
	GravParam         float64        `json:"grav_param"`
	Eccentricity      float64        `json:"eccentricity"`
	PeriapsisDistance float64        `json:"periapsis_distance"`
	ApoapsisDistance  float64        `json:"apoapsis_distance"`
	SpecificEnergy    float64        `json:"specific_energy"`
}

// NewElementsSummary summarizes oe
func NewElementsSummary(oe orbital.OrbitalElements) ElementsSummary {
	return ElementsSummary{
		Params:            oe.Params(),
		GravParam:         oe.GravParam(),
		Eccentricity:      oe.Eccentricity(),
		PeriapsisDistance: oe.PeriapsisDistance(),
		ApoapsisDistance:  oe.ApoapsisDistance(),
		SpecificEnergy:    oe.SpecificEnergy(),
	}
}

// StateResult is the output of the state command
type StateResult struct {
	Elements ElementsSummary `json:"elements"`
	// Exactly one of Time and Completed is set
	Time             *float64          `json:"time,omitempty"`
	Completed        *float64          `json:"completed,omitempty"`
	EccentricAnomaly float64           `json:"eccentric_anomaly,omitempty"`
	Position         astromath.Vector3 `json:"position"`
	Velocity         astromath.Vector3 `json:"velocity"`
	Speed            float64           `json:"speed"`
	// Consistent is false when the period disagrees with a and μ
	Consistent bool `json:"consistent"`
}

// PeriodResult is the output of the period command
type PeriodResult struct {
	SemiMajor float64 `json:"semi_major"`
	GravParam float64 `json:"grav_param"`
	Period    float64 `json:"period"`
}

// ElementsResult is the output of the elements command
type ElementsResult struct {
	Time     float64         `json:"time"`
	Elements ElementsSummary `json:"elements"`
}

// VerifyResult is the output of fixtures verify
type VerifyResult struct {
	File      string         `json:"file"`
	Report    fixture.Report `json:"report"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration"`
}

// IntegrateResult is the output of fixtures integrate
type IntegrateResult struct {
	File      string                      `json:"file"`
	Results   []fixture.IntegrationResult `json:"results"`
	Failed    int                         `json:"failed"`
	Timestamp time.Time                   `json:"timestamp"`
	Duration  time.Duration               `json:"duration"`
}
