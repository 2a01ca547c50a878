package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oxygene76/orbitcore/internal/types"
	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
)

func paramsFromFlag(values []float64) (orbital.Params, error) {
	var p orbital.Params
	if len(values) != len(p) {
		return p, fmt.Errorf("--params needs %d values (a,b,i,node,periapsis,t0,period,parent), got %d", len(p), len(values))
	}
	copy(p[:], values)
	return p, nil
}

func vectorFromFlag(name string, values []float64) (astromath.Vector3, error) {
	if len(values) != 3 {
		return astromath.Vector3{}, fmt.Errorf("--%s needs 3 values, got %d", name, len(values))
	}
	return astromath.Vector3{X: values[0], Y: values[1], Z: values[2]}, nil
}

func stateCmd(a *app) *cobra.Command {
	var (
		params    []float64
		gravParam float64
		at        float64
		completed float64
		direction bool
	)

	cmd := &cobra.Command{
		Use:   "state",
		Short: "Compute position and velocity from orbital elements",
		Long: `Compute the state vector of an orbit either at a time (--time, on the same
clock as the start time) or after a completed fraction of the period
(--completed). Angles are in radians.

Examples:
  # circular unit orbit, half way round
  orbitcore state --params 1,1,0,0,0,0,1,1 --grav-param 1 --completed 0.5

  # velocity from the direction of travel and vis-viva
  orbitcore state --params 5,3,0.628,0,1.571,0,1,1 --grav-param 7.2 --completed 0.5 --direction`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paramsFromFlag(params)
			if err != nil {
				return err
			}
			oe, err := orbital.ElementsFromParams(p, gravParam)
			if err != nil {
				return err
			}

			useTime := cmd.Flags().Changed("time")
			useCompleted := cmd.Flags().Changed("completed")
			if useTime == useCompleted {
				return fmt.Errorf("exactly one of --time and --completed is required")
			}

			calc := a.calculator()
			fraction := completed
			if useTime {
				fraction = (at - oe.StartTime()) / oe.PeriodTime()
			}

			var sv orbital.StateVector
			mode := metrics.ModeCompleted
			if direction {
				mode = metrics.ModeDirection
				sv, err = calc.DirectionStateAtCompleted(oe, fraction)
			} else {
				sv, err = calc.StateAtCompleted(oe, fraction)
			}
			metrics.RecordPropagation(mode, err)
			if err != nil {
				return err
			}

			ecc, err := calc.EccentricAnomalyAt(oe, oe.StartTime()+fraction*oe.PeriodTime())
			if err != nil {
				return err
			}

			result := types.StateResult{
				Elements:         types.NewElementsSummary(oe),
				EccentricAnomaly: ecc,
				Position:         sv.Position,
				Velocity:         sv.Velocity,
				Speed:            sv.Velocity.Magnitude(),
				Consistent:       oe.CheckConsistency(1e-9) == nil,
			}
			if useTime {
				result.Time = &at
			} else {
				result.Completed = &completed
			}
			if !result.Consistent {
				a.logger.Warn("period and gravitational parameter disagree; period drives the phase",
					"period", oe.PeriodTime(), "grav_param", oe.GravParam())
			}
			return a.printJSON(result)
		},
	}

	cmd.Flags().Float64SliceVar(&params, "params", nil, "orbit parameters a,b,i,node,periapsis,t0,period,parent")
	cmd.Flags().Float64Var(&gravParam, "grav-param", 0, "gravitational parameter μ of the parent (derived from the period when 0)")
	cmd.Flags().Float64Var(&at, "time", 0, "evaluation time")
	cmd.Flags().Float64Var(&completed, "completed", 0, "completed fraction of the period since the start time")
	cmd.Flags().BoolVar(&direction, "direction", false, "derive velocity from the direction of travel and vis-viva")
	cmd.MarkFlagRequired("params")

	return cmd
}

func periodCmd(a *app) *cobra.Command {
	var (
		semiMajor float64
		gravParam float64
		mass      float64
	)

	cmd := &cobra.Command{
		Use:   "period",
		Short: "Orbital period from the semi-major axis (Kepler's third law)",
		Long: `Compute P = τ·sqrt(a³/μ). μ is given directly with --grav-param or as
--mass of the parent, multiplied by the configured gravitational constant.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			mu := gravParam
			if cmd.Flags().Changed("mass") {
				var err error
				mu, err = orbital.GravParamFromMass(mass, a.cfg.System.GravitationalConstant)
				if err != nil {
					return err
				}
			}
			period, err := orbital.PeriodFromSemiMajor(semiMajor, mu)
			if err != nil {
				return err
			}
			return a.printJSON(types.PeriodResult{SemiMajor: semiMajor, GravParam: mu, Period: period})
		},
	}

	cmd.Flags().Float64Var(&semiMajor, "semi-major", 0, "semi-major axis")
	cmd.Flags().Float64Var(&gravParam, "grav-param", 0, "gravitational parameter μ")
	cmd.Flags().Float64Var(&mass, "mass", 0, "parent mass, used instead of --grav-param")
	cmd.MarkFlagRequired("semi-major")
	cmd.MarkFlagsMutuallyExclusive("grav-param", "mass")

	return cmd
}

func elementsCmd(a *app) *cobra.Command {
	var (
		position  []float64
		velocity  []float64
		gravParam float64
		at        float64
		parentID  uint64
	)

	cmd := &cobra.Command{
		Use:   "elements",
		Short: "Recover orbital elements from a position and velocity",
		Long: `Convert a state relative to the parent into the 8 orbit parameters. The
start time is chosen so the orbit passes through the state at --time.
Circular orbits report periapsis 0 and equatorial orbits ascending node 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := vectorFromFlag("position", position)
			if err != nil {
				return err
			}
			vel, err := vectorFromFlag("velocity", velocity)
			if err != nil {
				return err
			}
			oe, err := orbital.ElementsFromState(pos, vel, gravParam, at, parentID)
			metrics.RecordPropagation(metrics.ModeInverse, err)
			if err != nil {
				return err
			}
			return a.printJSON(types.ElementsResult{Time: at, Elements: types.NewElementsSummary(oe)})
		},
	}

	cmd.Flags().Float64SliceVar(&position, "position", nil, "position x,y,z relative to the parent")
	cmd.Flags().Float64SliceVar(&velocity, "velocity", nil, "velocity x,y,z relative to the parent")
	cmd.Flags().Float64Var(&gravParam, "grav-param", 0, "gravitational parameter μ of the parent")
	cmd.Flags().Float64Var(&at, "time", 0, "time of the state")
	cmd.Flags().Uint64Var(&parentID, "parent", 0, "parent id written into the parameters")
	cmd.MarkFlagRequired("position")
	cmd.MarkFlagRequired("velocity")
	cmd.MarkFlagRequired("grav-param")

	return cmd
}
