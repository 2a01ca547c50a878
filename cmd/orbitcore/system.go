package main

import (
	"github.com/spf13/cobra"

	"github.com/oxygene76/orbitcore/pkg/system"
)

func systemCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "system",
		Short: "Resolve hierarchical system definitions",
	}

	cmd.AddCommand(
		systemSnapshotCmd(a),
		systemOrbitsCmd(a),
	)
	return cmd
}

func systemSnapshotCmd(a *app) *cobra.Command {
	var (
		at     float64
		output string
	)

	cmd := &cobra.Command{
		Use:   "snapshot [definition-file]",
		Short: "Resolve a system definition into a body snapshot",
		Long: `Read a YAML or JSON system definition and compute every body's absolute
position and velocity at --time. Bodies with orbital elements orbit their
parent with μ = G·parent mass; children inherit their parent's state.

Example:
  orbitcore system snapshot solar-system.yaml --time 0 --output solar-system.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := system.LoadDefinition(a.fs, args[0])
			if err != nil {
				return err
			}
			if def.GravitationalConstant == 0 {
				def.GravitationalConstant = a.cfg.System.GravitationalConstant
			}

			resolver := system.NewResolver(a.calculator(), a.cfg.System.Workers, a.logger)
			snap, err := resolver.Snapshot(cmd.Context(), def, at)
			if err != nil {
				return err
			}

			if output == "" {
				return system.EncodeSnapshot(a.out, snap, system.FormatJSON)
			}
			if err := system.WriteSnapshot(a.fs, output, snap); err != nil {
				return err
			}
			a.logger.Info("snapshot written", "path", output, "bodies", len(snap.Bodies))
			return nil
		},
	}

	cmd.Flags().Float64Var(&at, "time", 0, "time at which to evaluate orbits")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the snapshot to this file (.json or .yaml) instead of stdout")
	return cmd
}

func systemOrbitsCmd(a *app) *cobra.Command {
	var (
		parent string
		at     float64
		g      float64
	)

	cmd := &cobra.Command{
		Use:   "orbits [snapshot-file]",
		Short: "Recover orbits around a body from a snapshot",
		Long: `Convert every body's state in a snapshot into orbital elements around
--parent, using μ = G·parent mass. Bodies not bound to the parent are
listed with an error.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := system.LoadSnapshot(a.fs, args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("g") {
				g = a.cfg.System.GravitationalConstant
			}
			fits, err := system.OrbitsRelativeTo(snap, parent, g, at)
			if err != nil {
				return err
			}
			for _, f := range fits {
				if f.Error != "" {
					a.logger.Warn("no bound orbit", "body", f.Name, "parent", parent, "err", f.Error)
				}
			}
			return a.printJSON(fits)
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "name of the central body")
	cmd.Flags().Float64Var(&at, "time", 0, "time of the snapshot")
	cmd.Flags().Float64Var(&g, "g", 0, "gravitational constant (default from config)")
	cmd.MarkFlagRequired("parent")
	return cmd
}
