package orbital

import (
	"encoding/json"
	"fmt"
	"math"
)

// Params is the interchange form of an orbit, a fixed array of
// [semi_major, semi_minor, inclination, ascending_node, periapsis,
// start_time, period_time, parent_id].
type Params [8]float64

const (
	ParamSemiMajor = iota
	ParamSemiMinor
	ParamInclination
	ParamAscendingNode
	ParamPeriapsis
	ParamStartTime
	ParamPeriodTime
	ParamParent
)

// UnmarshalJSON accepts exactly eight numbers
func (p *Params) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("orbit parameters must be an array of numbers: %w", err)
	}
	if len(raw) != len(p) {
		return fmt.Errorf("orbit parameters need %d values, got %d", len(p), len(raw))
	}
	copy(p[:], raw)
	return nil
}

// ElementsFromParams builds elements from the interchange array. gravParam
// may be zero when the array carries a period, and a zero period is
// derived from gravParam.
func ElementsFromParams(p Params, gravParam float64) (OrbitalElements, error) {
	parent := p[ParamParent]
	if parent < 0 || parent != math.Trunc(parent) || parent > math.MaxUint32 {
		return OrbitalElements{}, invalidOrbitf("parent id %g is not a non-negative integer", parent)
	}
	return NewElements(p[ParamSemiMajor], p[ParamSemiMinor], p[ParamInclination],
		p[ParamAscendingNode], p[ParamPeriapsis], p[ParamStartTime], p[ParamPeriodTime],
		gravParam, uint64(parent))
}

// Params returns the interchange array for these elements
func (oe OrbitalElements) Params() Params {
	return Params{
		oe.semiMajor,
		oe.semiMinor,
		oe.inclination,
		oe.ascendingNode,
		oe.periapsis,
		oe.startTime,
		oe.periodTime,
		float64(oe.parentID),
	}
}
