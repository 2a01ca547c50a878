package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"cosmossdk.io/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
	"github.com/oxygene76/orbitcore/pkg/utils"
)

// app carries what every command needs once configuration is loaded
type app struct {
	fs      afero.Fs
	out     io.Writer
	errOut  io.Writer
	cfgFile string
	verbose bool

	cfg    *utils.Config
	logger log.Logger
}

func main() {
	rootCmd := newRootCmd(afero.NewOsFs(), os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(fs afero.Fs, out, errOut io.Writer) *cobra.Command {
	a := &app{fs: fs, out: out, errOut: errOut}

	rootCmd := &cobra.Command{
		Use:   "orbitcore",
		Short: "Keplerian orbit propagation and fixture tooling",
		Long: `orbitcore turns Keplerian orbital elements and a time into position and
velocity, recovers elements from observed state vectors, verifies orbit
test fixtures and resolves hierarchical system definitions into body
snapshots.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.flushMetrics()
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.orbitcore/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(
		stateCmd(a),
		periodCmd(a),
		elementsCmd(a),
		fixturesCmd(a),
		systemCmd(a),
		configCmd(a),
	)
	return rootCmd
}

func (a *app) init() error {
	cfg, err := utils.LoadConfig(a.fs, a.cfgFile)
	if err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Log, a.errOut, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

// initDefaults is init for commands that must not read the config file
func (a *app) initDefaults() error {
	cfg := utils.DefaultConfig()
	logger, err := utils.NewLogger(cfg.Log, a.errOut, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	return nil
}

func (a *app) flushMetrics() error {
	if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := metrics.WriteTextfile(a.fs, a.cfg.Metrics.Textfile); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	a.logger.Debug("metrics written", "path", a.cfg.Metrics.Textfile)
	return nil
}

func (a *app) calculator() orbital.Calculator {
	return orbital.NewCalculator(a.cfg.Solver.KeplerSolver())
}

// printJSON writes v as indented JSON to the command output
func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
