package fixture

import (
	"context"
	"runtime"
	"time"

	"cosmossdk.io/log"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
)

// DefaultTolerance is the absolute position and velocity tolerance
const DefaultTolerance = 1e-6

// Result is the outcome of checking one record
type Result struct {
	Name          string  `json:"name"`
	PositionError float64 `json:"position_error"`
	VelocityError float64 `json:"velocity_error"`
	Passed        bool    `json:"passed"`
	Error         string  `json:"error,omitempty"`
}

// Report summarizes a verification run. Error statistics cover the
// records that could be evaluated.
type Report struct {
	Results           []Result `json:"results"`
	Passed            int      `json:"passed"`
	Failed            int      `json:"failed"`
	MeanPositionError float64  `json:"mean_position_error"`
	MaxPositionError  float64  `json:"max_position_error"`
	MaxVelocityError  float64  `json:"max_velocity_error"`
}

// OK reports whether every record passed
func (r Report) OK() bool {
	return r.Failed == 0
}

// Verifier checks fixture records against the state calculator
type Verifier struct {
	calc      orbital.Calculator
	tolerance float64
	workers   int
	logger    log.Logger
}

// NewVerifier creates a verifier. A non-positive tolerance or worker count
// selects the default.
func NewVerifier(calc orbital.Calculator, tolerance float64, workers int, logger log.Logger) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Verifier{
		calc:      calc,
		tolerance: tolerance,
		workers:   workers,
		logger:    logger.With("module", "fixture"),
	}
}

// Verify evaluates every record concurrently. Records that fail are
// reported, not returned as errors; the error is only set when ctx ends.
func (v *Verifier) Verify(ctx context.Context, set Set) (Report, error) {
	start := time.Now()
	results := make([]Result, len(set))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range set {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = v.check(set[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	report := summarize(results)
	metrics.ObserveBatchDuration(metrics.OpFixtureVerify, time.Since(start))
	metrics.SetFixtureMaxPositionError(report.MaxPositionError)

	v.logger.Info("fixtures verified",
		"records", len(set),
		"passed", report.Passed,
		"failed", report.Failed,
		"max_position_error", report.MaxPositionError,
		"duration", time.Since(start))
	return report, nil
}

func (v *Verifier) check(r Record) Result {
	res := Result{Name: r.Name}

	oe, err := r.Elements()
	if err != nil {
		return v.failed(res, err)
	}
	sv, err := v.calc.StateAt(oe, r.AtTime)
	metrics.RecordPropagation(metrics.ModeElapsed, err)
	if err != nil {
		return v.failed(res, err)
	}

	res.PositionError = sv.Position.Add(r.parentOffset()).Distance(r.Position)
	if r.Velocity != nil {
		res.VelocityError = sv.Velocity.Distance(*r.Velocity)
	}
	res.Passed = res.PositionError <= v.tolerance && res.VelocityError <= v.tolerance
	metrics.RecordFixtureCheck(res.Passed, nil)

	if !res.Passed {
		v.logger.Warn("fixture mismatch",
			"name", r.Name,
			"position_error", res.PositionError,
			"velocity_error", res.VelocityError,
			"expected", r.Position,
			"got", sv.Position)
	}
	return res
}

func (v *Verifier) failed(res Result, err error) Result {
	metrics.RecordFixtureCheck(false, err)
	v.logger.Error("fixture could not be evaluated", "name", res.Name, "err", err)
	res.Error = err.Error()
	return res
}

func summarize(results []Result) Report {
	report := Report{Results: results}
	var posErrs, velErrs []float64
	for _, r := range results {
		if r.Passed {
			report.Passed++
		} else {
			report.Failed++
		}
		if r.Error == "" {
			posErrs = append(posErrs, r.PositionError)
			velErrs = append(velErrs, r.VelocityError)
		}
	}
	if len(posErrs) > 0 {
		report.MeanPositionError = stat.Mean(posErrs, nil)
		report.MaxPositionError = floats.Max(posErrs)
		report.MaxVelocityError = floats.Max(velErrs)
	}
	return report
}
