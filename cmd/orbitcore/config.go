package main

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/oxygene76/orbitcore/pkg/utils"
)

func configCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage orbitcore configuration",
	}

	cmd.AddCommand(
		configInitCmd(a),
		configShowCmd(a),
	)
	return cmd
}

func configInitCmd(a *app) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		// the file usually does not exist yet, so start from defaults
		// instead of loading it
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initDefaults()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfgFile
			if path == "" {
				var err error
				if path, err = utils.GetConfigPath(); err != nil {
					return err
				}
			}

			exists, err := afero.Exists(a.fs, path)
			if err != nil {
				return err
			}
			if exists && !force {
				return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
			}

			if err := utils.SaveConfig(a.fs, path, utils.DefaultConfig()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Configuration saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = a.out.Write(data)
			return err
		},
	}
}
