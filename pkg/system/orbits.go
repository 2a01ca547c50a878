package system

import (
	"fmt"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
)

// OrbitFit is the orbit recovered for one body of a snapshot
type OrbitFit struct {
	Name         string         `json:"name"`
	// Params is nil when no bound orbit was found
	Params       *orbital.Params `json:"paramaters,omitempty"`
	GravParam    float64         `json:"grav_param,omitempty"`
	Eccentricity float64         `json:"eccentricity,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// OrbitsRelativeTo converts every other body's state into orbital elements
// around the named parent at time t, with μ = G·parent mass. Bodies that
// are not bound to the parent are reported with an error rather than
// failing the whole call. A non-positive g selects the default constant.
func OrbitsRelativeTo(snap Snapshot, parentName string, g, t float64) ([]OrbitFit, error) {
	parentIdx := -1
	for i, b := range snap.Bodies {
		if b.Name == parentName {
			parentIdx = i
			break
		}
	}
	if parentIdx < 0 {
		return nil, fmt.Errorf("%w: no body named %q", ErrInvalidSystem, parentName)
	}
	parent := snap.Bodies[parentIdx]
	mu, err := orbital.GravParamFromMass(parent.Mass, g)
	if err != nil {
		return nil, fmt.Errorf("%w: parent %q: %w", ErrInvalidSystem, parentName, err)
	}

	fits := make([]OrbitFit, 0, len(snap.Bodies)-1)
	for i, b := range snap.Bodies {
		if i == parentIdx {
			continue
		}
		fit := OrbitFit{Name: b.Name}
		oe, err := orbital.ElementsFromState(
			b.Position.Sub(parent.Position),
			b.Velocity.Sub(parent.Velocity),
			mu, t, uint64(parentIdx))
		metrics.RecordPropagation(metrics.ModeInverse, err)
		if err != nil {
			fit.Error = err.Error()
		} else {
			params := oe.Params()
			fit.Params = &params
			fit.GravParam = oe.GravParam()
			fit.Eccentricity = oe.Eccentricity()
		}
		fits = append(fits, fit)
	}
	return fits, nil
}
