package metrics

import (
	"bytes"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/afero"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

var (
	propagationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcore_propagations_total",
			Help: "Total number of state vector evaluations.",
		},
		[]string{"mode"},
	)

	propagationErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcore_propagation_errors_total",
			Help: "Failed state vector evaluations by error kind.",
		},
		[]string{"kind"},
	)

	batchDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "orbitcore_batch_duration_seconds",
			Help:    "Duration of batch operations in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	fixtureChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orbitcore_fixture_checks_total",
			Help: "Fixture records checked, by result.",
		},
		[]string{"result"},
	)

	fixtureMaxPositionError = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcore_fixture_max_position_error",
			Help: "Largest position error seen in the last fixture verification.",
		},
	)

	systemBodies = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "orbitcore_system_bodies",
			Help: "Number of bodies in the last resolved system snapshot.",
		},
	)
)

// Propagation modes used as label values
const (
	ModeElapsed   = "elapsed"
	ModeCompleted = "completed"
	ModeDirection = "direction"
	ModeInverse   = "inverse"
)

// Batch operation label values
const (
	OpFixtureVerify    = "fixture_verify"
	OpFixtureIntegrate = "fixture_integrate"
	OpSystemResolve    = "system_resolve"
)

func init() {
	prometheus.MustRegister(propagationsTotal)
	prometheus.MustRegister(propagationErrorsTotal)
	prometheus.MustRegister(batchDurationSeconds)
	prometheus.MustRegister(fixtureChecksTotal)
	prometheus.MustRegister(fixtureMaxPositionError)
	prometheus.MustRegister(systemBodies)
}

// RecordPropagation counts one evaluation in the given mode. A non-nil err
// is also counted by kind.
func RecordPropagation(mode string, err error) {
	propagationsTotal.WithLabelValues(mode).Inc()
	if err != nil {
		propagationErrorsTotal.WithLabelValues(errorKind(err)).Inc()
	}
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, orbital.ErrConvergence):
		return "convergence"
	case errors.Is(err, orbital.ErrInvalidOrbit):
		return "invalid_orbit"
	default:
		return "other"
	}
}

// ObserveBatchDuration records how long a batch operation took
func ObserveBatchDuration(operation string, d time.Duration) {
	batchDurationSeconds.WithLabelValues(operation).Observe(d.Seconds())
}

// RecordFixtureCheck counts one verified fixture record
func RecordFixtureCheck(passed bool, err error) {
	result := "pass"
	switch {
	case err != nil:
		result = "error"
	case !passed:
		result = "fail"
	}
	fixtureChecksTotal.WithLabelValues(result).Inc()
}

func SetFixtureMaxPositionError(v float64) {
	fixtureMaxPositionError.Set(v)
}

func SetSystemBodies(n int) {
	systemBodies.Set(float64(n))
}

// WriteTextfile writes every registered metric to path in the text
// exposition format, for pickup by a node exporter textfile collector. The
// file is written next to path and renamed so a collector never reads a
// partial file.
func WriteTextfile(fs afero.Fs, path string) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return err
		}
	}

	tmp := path + ".tmp"
	if err := afero.WriteFile(fs, tmp, buf.Bytes(), 0o644); err != nil {
		return err
	}
	if err := fs.Rename(tmp, path); err != nil {
		_ = fs.Remove(tmp)
		return err
	}
	return nil
}
