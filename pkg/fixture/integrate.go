package fixture

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oxygene76/orbitcore/pkg/astronomy/nbody"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
)

const (
	// MaxRelativeDrift is the largest closure error after one period, as
	// a fraction of the semi-major axis, that still counts as a pass.
	MaxRelativeDrift = 0.1

	// DefaultStepsPerOrbit is the leapfrog resolution used for the check
	DefaultStepsPerOrbit = 2000

	// traceSamples is roughly how many snapshots per orbit a trace keeps
	traceSamples = 100

	// satelliteMassRatio keeps the satellite's pull on the parent small
	// enough that the two-body period matches the Kepler period.
	satelliteMassRatio = 1e-5
)

// IntegrationResult is the outcome of integrating one record for a period
type IntegrationResult struct {
	Name          string  `json:"name"`
	Period        float64 `json:"period"`
	Drift         float64 `json:"drift"`
	RelativeDrift float64 `json:"relative_drift"`
	// EnergyDrift is the relative change of total energy over the run
	EnergyDrift   float64 `json:"energy_drift"`
	Passed        bool    `json:"passed"`
	Error         string  `json:"error,omitempty"`
}

// IntegrateRecord places a satellite at the record's expected state around
// a point mass with μ = grav_param (G = 1) and integrates one orbital
// period. A correct state closes the orbit. Records without a velocity use
// the vis-viva velocity for their position. A non-nil sink receives about
// traceSamples snapshots of the run.
func IntegrateRecord(r Record, calc orbital.Calculator, stepsPerOrbit int, sink nbody.SnapshotSink) IntegrationResult {
	res := IntegrationResult{Name: r.Name}
	if stepsPerOrbit <= 0 {
		stepsPerOrbit = DefaultStepsPerOrbit
	}

	oe, err := r.Elements()
	if err != nil {
		res.Error = err.Error()
		return res
	}

	relPos := r.Position.Sub(r.parentOffset())
	relVel := r.Velocity
	if relVel == nil {
		sv, err := calc.DirectionStateAt(oe, r.AtTime)
		metrics.RecordPropagation(metrics.ModeDirection, err)
		if err != nil {
			res.Error = err.Error()
			return res
		}
		relVel = &sv.Velocity
	}

	centralMass := oe.GravParam()
	satMass := centralMass * satelliteMassRatio
	period, err := orbital.PeriodFromSemiMajor(oe.SemiMajor(), centralMass+satMass)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Period = period

	sys := nbody.NewSystem(1)
	if err := sys.Add(nbody.Body{Name: "parent", Mass: centralMass}); err != nil {
		res.Error = err.Error()
		return res
	}
	if err := sys.Add(nbody.Body{Name: r.Name, Mass: satMass, Position: relPos, Velocity: *relVel}); err != nil {
		res.Error = err.Error()
		return res
	}
	sys.RecenterToBarycenter()
	initial := sys.Copy()

	snapEvery := stepsPerOrbit / traceSamples
	if snapEvery < 1 {
		snapEvery = 1
	}
	if err := sys.Integrate(period, period/float64(stepsPerOrbit), sink, snapEvery); err != nil {
		res.Error = err.Error()
		return res
	}

	start := initial.Bodies[1].Position.Sub(initial.Bodies[0].Position)
	end := sys.Bodies[1].Position.Sub(sys.Bodies[0].Position)
	res.Drift = end.Distance(start)
	res.RelativeDrift = res.Drift / oe.SemiMajor()
	if e0 := initial.TotalEnergy(); e0 != 0 {
		res.EnergyDrift = math.Abs(sys.TotalEnergy()-e0) / math.Abs(e0)
	}
	res.Passed = res.RelativeDrift < MaxRelativeDrift
	return res
}

// CheckIntegration runs IntegrateRecord over the set concurrently. When
// trace is non-nil every run is recorded and written to it as JSON lines,
// one record after another in set order.
func (v *Verifier) CheckIntegration(ctx context.Context, set Set, stepsPerOrbit int, trace io.Writer) ([]IntegrationResult, error) {
	start := time.Now()
	results := make([]IntegrationResult, len(set))
	var recorders []*nbody.Recorder
	if trace != nil {
		recorders = make([]*nbody.Recorder, len(set))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range set {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			var sink nbody.SnapshotSink
			if recorders != nil {
				recorders[i] = &nbody.Recorder{}
				sink = recorders[i]
			}
			results[i] = IntegrateRecord(set[i], v.calc, stepsPerOrbit, sink)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if trace != nil {
		w := nbody.NewJSONLSnapshotWriter(trace)
		for i, rec := range recorders {
			// records that failed before integrating have nothing to replay
			if len(rec.Times) == 0 {
				continue
			}
			if err := rec.Replay(w); err != nil {
				return nil, fmt.Errorf("failed to write trace for %q: %w", set[i].Name, err)
			}
		}
	}
	metrics.ObserveBatchDuration(metrics.OpFixtureIntegrate, time.Since(start))

	failed := 0
	for _, r := range results {
		if !r.Passed {
			failed++
			v.logger.Warn("orbit did not close", "name", r.Name, "relative_drift", r.RelativeDrift, "err", r.Error)
		}
	}
	v.logger.Info("fixtures integrated", "records", len(set), "failed", failed, "duration", time.Since(start))
	return results, nil
}
