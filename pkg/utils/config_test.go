package utils

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	require.Equal(t, DefaultConfig(), cfg)
	require.Equal(t, orbital.KeplerSolver{Tolerance: 1e-12, MaxIterations: 50}, cfg.Solver.KeplerSolver())
}

func TestLoadConfigFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `
solver:
  tolerance: 1e-10
  max_iterations: 20
fixtures:
  workers: 2
log:
  level: debug
  json: true
`
	require.NoError(t, afero.WriteFile(fs, "/etc/orbitcore.yaml", []byte(doc), 0o644))

	cfg, err := LoadConfig(fs, "/etc/orbitcore.yaml")
	require.NoError(t, err)
	require.Equal(t, 1e-10, cfg.Solver.Tolerance)
	require.Equal(t, 20, cfg.Solver.MaxIterations)
	require.Equal(t, 2, cfg.Fixtures.Workers)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Log.JSON)

	// untouched keys keep their defaults
	require.Equal(t, 1e-6, cfg.Fixtures.Tolerance)
	require.Equal(t, orbital.GravitationalConstant, cfg.System.GravitationalConstant)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ORBITCORE_SOLVER_MAX_ITERATIONS", "7")
	t.Setenv("ORBITCORE_LOG_LEVEL", "warn")

	cfg, err := LoadConfig(afero.NewMemMapFs(), "")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.Solver.MaxIterations)
	require.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadConfigErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	_, err := LoadConfig(fs, "/missing/config.yaml")
	require.Error(t, err)

	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("solver:\n  tolerance: -1\n"), 0o644))
	_, err = LoadConfig(fs, "/bad.yaml")
	require.ErrorContains(t, err, "tolerance")

	require.NoError(t, afero.WriteFile(fs, "/level.yaml", []byte("log:\n  level: loud\n"), 0o644))
	_, err = LoadConfig(fs, "/level.yaml")
	require.ErrorContains(t, err, "log level")
}

func TestSaveConfigRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := DefaultConfig()
	cfg.System.Workers = 9
	cfg.Metrics.Textfile = "/var/lib/node_exporter/orbitcore.prom"

	require.NoError(t, SaveConfig(fs, "/home/user/.orbitcore/config.yaml", cfg))

	loaded, err := LoadConfig(fs, "/home/user/.orbitcore/config.yaml")
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	cfg.Solver.MaxIterations = 0
	require.Error(t, SaveConfig(fs, "/tmp/config.yaml", cfg))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(LogConfig{Level: "info", JSON: true}, &buf, false)
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("state computed", "body", "Luna")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	require.Equal(t, "state computed", entry["message"])
	require.Equal(t, "Luna", entry["body"])

	buf.Reset()
	logger, err = NewLogger(LogConfig{Level: "error"}, &buf, true)
	require.NoError(t, err)
	logger.Debug("shown")
	require.Contains(t, buf.String(), "shown")

	_, err = NewLogger(LogConfig{Level: "loud"}, &buf, false)
	require.Error(t, err)
}
