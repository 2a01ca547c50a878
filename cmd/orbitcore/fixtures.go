package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxygene76/orbitcore/internal/types"
	"github.com/oxygene76/orbitcore/pkg/fixture"
)

func fixturesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Check orbit test fixtures",
	}

	cmd.AddCommand(
		fixturesVerifyCmd(a),
		fixturesIntegrateCmd(a),
	)
	return cmd
}

func (a *app) verifier() *fixture.Verifier {
	return fixture.NewVerifier(a.calculator(), a.cfg.Fixtures.Tolerance, a.cfg.Fixtures.Workers, a.logger)
}

func fixturesVerifyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify [fixture-file]",
		Short: "Compare fixture records with computed states",
		Long: `Load a JSON array of fixture records, compute each state from its orbit
parameters at the record's at_time (on the same clock as the start time),
and compare position and velocity with the recorded values. Exits non-zero
when any record fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := fixture.Load(a.fs, args[0])
			if err != nil {
				return err
			}

			start := time.Now()
			report, err := a.verifier().Verify(cmd.Context(), set)
			if err != nil {
				return err
			}

			if err := a.printJSON(types.VerifyResult{
				File:      args[0],
				Report:    report,
				Timestamp: start,
				Duration:  time.Since(start),
			}); err != nil {
				return err
			}
			if !report.OK() {
				return fmt.Errorf("%d of %d fixture records failed", report.Failed, len(set))
			}
			return nil
		},
	}
	return cmd
}

func fixturesIntegrateCmd(a *app) *cobra.Command {
	var (
		steps int
		trace string
	)

	cmd := &cobra.Command{
		Use:   "integrate [fixture-file]",
		Short: "Cross-check fixture states with an N-body integration",
		Long: fmt.Sprintf(`Start a satellite at each record's expected state around a point mass
with the record's gravitational parameter and integrate one orbital
period with a leapfrog integrator. A record passes when the orbit closes
to within %.2g of its semi-major axis.

With --trace every run is written as JSON lines of {time, bodies}, one
record after another.`, fixture.MaxRelativeDrift),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := fixture.Load(a.fs, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("steps") {
				steps = a.cfg.Fixtures.StepsPerOrbit
			}

			var traceOut io.Writer
			if trace != "" {
				f, err := a.fs.Create(trace)
				if err != nil {
					return fmt.Errorf("failed to create trace: %w", err)
				}
				defer f.Close()
				traceOut = f
			}

			start := time.Now()
			results, err := a.verifier().CheckIntegration(cmd.Context(), set, steps, traceOut)
			if err != nil {
				return err
			}
			if trace != "" {
				a.logger.Info("integration trace written", "path", trace)
			}

			failed := 0
			for _, r := range results {
				if !r.Passed {
					failed++
				}
			}
			if err := a.printJSON(types.IntegrateResult{
				File:      args[0],
				Results:   results,
				Failed:    failed,
				Timestamp: start,
				Duration:  time.Since(start),
			}); err != nil {
				return err
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d fixture orbits did not close", failed, len(set))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&steps, "steps", fixture.DefaultStepsPerOrbit, "integration steps per orbit")
	cmd.Flags().StringVar(&trace, "trace", "", "write every integration to this JSON lines file")
	return cmd
}
