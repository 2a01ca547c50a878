package system

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"strings"
	"testing"

	"cosmossdk.io/log"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

const sampleYAML = `
gravitational_constant: 1
bodies:
  - name: Sun
    radius: 10
    mass: 1
    color: "#fff548"
    position: [100, 0, 0]
    velocity: [0, 0, 1]
    children:
      - name: Planet
        radius: 1
        mass: 0.001
        semi_major_axis: 1
        children:
          - name: Moon
            radius: 0.1
            mass: 0.00001
            semi_major_axis: 0.01
      - name: Comet
        radius: 0.01
        mass: 0
        semi_major_axis: 5
        semi_minor_axis: 3
      - name: Rover
        radius: 0
        mass: 0
        position: [0, 2, 0]
        velocity: [0.5, 0, 0]
`

func sampleDefinition(t *testing.T) Definition {
	t.Helper()
	def, err := DecodeDefinition(strings.NewReader(sampleYAML), FormatYAML)
	require.NoError(t, err)
	return def
}

func resolveSample(t *testing.T, workers int) Snapshot {
	t.Helper()
	r := NewResolver(orbital.Calculator{}, workers, log.NewNopLogger())
	snap, err := r.Snapshot(context.Background(), sampleDefinition(t), 0)
	require.NoError(t, err)
	return snap
}

func requireVec(t *testing.T, want, got astromath.Vector3, msg string) {
	t.Helper()
	require.True(t, got.ApproxEqual(want, 1e-9), "%s: got %v, want %v", msg, got, want)
}

func TestSnapshotAddsParentState(t *testing.T) {
	snap := resolveSample(t, 4)

	names := make([]string, 0, len(snap.Bodies))
	for _, b := range snap.Bodies {
		names = append(names, b.Name)
	}
	require.Equal(t, []string{"Sun", "Planet", "Moon", "Comet", "Rover"}, names)

	sun, _ := snap.Body("Sun")
	requireVec(t, astromath.Vector3{X: 100}, sun.Position, "sun position")
	require.Equal(t, "#fff548", sun.Color)

	planet, _ := snap.Body("Planet")
	requireVec(t, astromath.Vector3{X: 101}, planet.Position, "planet position")
	requireVec(t, astromath.Vector3{Y: 1, Z: 1}, planet.Velocity, "planet velocity")

	moon, _ := snap.Body("Moon")
	requireVec(t, astromath.Vector3{X: 101.01}, moon.Position, "moon position")
	requireVec(t, astromath.Vector3{Y: 1 + math.Sqrt(0.1), Z: 1}, moon.Velocity, "moon velocity")

	// periapsis of the 3-4-5 ellipse, 1 from the sun
	comet, _ := snap.Body("Comet")
	requireVec(t, astromath.Vector3{X: 101}, comet.Position, "comet position")
	requireVec(t, astromath.Vector3{Y: math.Sqrt(1.8), Z: 1}, comet.Velocity, "comet velocity")

	rover, _ := snap.Body("Rover")
	requireVec(t, astromath.Vector3{X: 100, Y: 2}, rover.Position, "rover position")
	requireVec(t, astromath.Vector3{X: 0.5, Z: 1}, rover.Velocity, "rover velocity")
}

func TestSnapshotIsIndependentOfWorkers(t *testing.T) {
	require.Equal(t, resolveSample(t, 1), resolveSample(t, 8))
}

func TestSnapshotAtLaterTime(t *testing.T) {
	r := NewResolver(orbital.Calculator{}, 2, log.NewNopLogger())
	// a quarter of the planet's period
	snap, err := r.Snapshot(context.Background(), sampleDefinition(t), math.Pi/2)
	require.NoError(t, err)

	planet, _ := snap.Body("Planet")
	requireVec(t, astromath.Vector3{X: 100, Y: 1}, planet.Position, "planet position")
}

func TestSnapshotHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewResolver(orbital.Calculator{}, 1, log.NewNopLogger())
	_, err := r.Snapshot(ctx, sampleDefinition(t), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestDefinitionRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no bodies", `bodies: []`},
		{"root without state", `
bodies:
  - name: Sun
    mass: 1`},
		{"root with orbit", `
bodies:
  - name: Sun
    mass: 1
    position: [0, 0, 0]
    velocity: [0, 0, 0]
    semi_major_axis: 4`},
		{"duplicate names", `
bodies:
  - name: Sun
    mass: 1
    position: [0, 0, 0]
    velocity: [0, 0, 0]
    children:
      - name: Sun
        semi_major_axis: 1`},
		{"massless parent", `
bodies:
  - name: Rock
    mass: 0
    position: [0, 0, 0]
    velocity: [0, 0, 0]
    children:
      - name: Pebble
        semi_major_axis: 1`},
		{"child without placement", `
bodies:
  - name: Sun
    mass: 1
    position: [0, 0, 0]
    velocity: [0, 0, 0]
    children:
      - name: Lost`},
		{"empty name", `
bodies:
  - name: " "
    position: [0, 0, 0]
    velocity: [0, 0, 0]`},
		{"negative mass", `
bodies:
  - name: Sun
    mass: -1
    position: [0, 0, 0]
    velocity: [0, 0, 0]`},
		{"unknown key", `
bodies:
  - name: Sun
    mass: 1
    position: [0, 0, 0]
    velocity: [0, 0, 0]
    eccentricity: 0.2`},
		{"short vector", `
bodies:
  - name: Sun
    position: [0, 0]
    velocity: [0, 0, 0]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDefinition(strings.NewReader(tt.yaml), FormatYAML)
			require.ErrorIs(t, err, ErrInvalidSystem)
		})
	}
}

func TestSnapshotRejectsBadOrbit(t *testing.T) {
	a := 2.0
	def := Definition{Bodies: []BodyDef{{
		Name:     "Sun",
		Mass:     1,
		Position: &astromath.Vector3{},
		Velocity: &astromath.Vector3{},
		Children: []BodyDef{{Name: "Bad", SemiMajorAxis: &a, SemiMinorAxis: 3}},
	}}}
	r := NewResolver(orbital.Calculator{}, 1, log.NewNopLogger())
	_, err := r.Snapshot(context.Background(), def, 0)
	require.ErrorIs(t, err, ErrInvalidSystem)
	require.ErrorIs(t, err, orbital.ErrInvalidOrbit)
}

func TestLoadDefinitionJSON(t *testing.T) {
	fs := afero.NewMemMapFs()
	doc := `{"gravitational_constant": 1, "bodies": [
		{"name": "Sun", "radius": 1, "mass": 1, "position": [0,0,0], "velocity": [0,0,0],
		 "children": [{"name": "Planet", "radius": 0.1, "mass": 0, "semi_major_axis": 2}]}
	]}`
	require.NoError(t, afero.WriteFile(fs, "/sys/system.json", []byte(doc), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sys/system.yml", []byte(sampleYAML), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sys/system.toml", []byte(""), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/sys/bad.json", []byte(`{"bodies": [], "extra": 1}`), 0o644))

	def, err := LoadDefinition(fs, "/sys/system.json")
	require.NoError(t, err)
	require.Len(t, def.Bodies[0].Children, 1)
	require.Equal(t, 2.0, *def.Bodies[0].Children[0].SemiMajorAxis)

	def, err = LoadDefinition(fs, "/sys/system.yml")
	require.NoError(t, err)
	require.Equal(t, 1.0, def.GravitationalConstant)

	_, err = LoadDefinition(fs, "/sys/system.toml")
	require.ErrorIs(t, err, ErrInvalidSystem)
	_, err = LoadDefinition(fs, "/sys/bad.json")
	require.ErrorIs(t, err, ErrInvalidSystem)
	_, err = LoadDefinition(fs, "/sys/missing.json")
	require.Error(t, err)
}

func TestSnapshotFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	snap := resolveSample(t, 2)

	for _, path := range []string{"/out/snapshot.json", "/out/snapshot.yaml"} {
		require.NoError(t, WriteSnapshot(fs, path, snap))
		got, err := LoadSnapshot(fs, path)
		require.NoError(t, err)
		require.Equal(t, len(snap.Bodies), len(got.Bodies))
		for i := range snap.Bodies {
			require.Equal(t, snap.Bodies[i].Name, got.Bodies[i].Name)
			requireVec(t, snap.Bodies[i].Position, got.Bodies[i].Position, path)
			requireVec(t, snap.Bodies[i].Velocity, got.Bodies[i].Velocity, path)
		}
	}
}

func TestSnapshotJSONSchema(t *testing.T) {
	var buf bytes.Buffer
	snap := Snapshot{Bodies: []BodyState{{
		Name:     "Luna",
		Radius:   1737.53,
		Mass:     7.349e+19,
		Position: astromath.Vector3{X: 1, Y: 2, Z: 3},
		Velocity: astromath.Vector3{X: 4, Y: 5, Z: 6},
	}}}
	require.NoError(t, EncodeSnapshot(&buf, snap, FormatJSON))

	var raw map[string][]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	body := raw["bodies"][0]
	require.JSONEq(t, `[1,2,3]`, string(body["position"]))
	require.JSONEq(t, `[4,5,6]`, string(body["velocity"]))
	_, hasColor := body["color"]
	require.False(t, hasColor)
	require.Len(t, body, 5)
}

func TestOrbitsRelativeTo(t *testing.T) {
	snap := resolveSample(t, 2)
	fits, err := OrbitsRelativeTo(snap, "Sun", 1, 0)
	require.NoError(t, err)
	require.Len(t, fits, 4)

	byName := make(map[string]OrbitFit)
	for _, f := range fits {
		byName[f.Name] = f
	}

	planet := byName["Planet"]
	require.Empty(t, planet.Error)
	require.NotNil(t, planet.Params)
	require.InDelta(t, 1.0, planet.Params[orbital.ParamSemiMajor], 1e-9)
	require.InDelta(t, 0.0, planet.Eccentricity, 1e-9)
	require.Equal(t, 0.0, planet.Params[orbital.ParamParent])

	comet := byName["Comet"]
	require.Empty(t, comet.Error)
	require.InDelta(t, 5.0, comet.Params[orbital.ParamSemiMajor], 1e-9)
	require.InDelta(t, 3.0, comet.Params[orbital.ParamSemiMinor], 1e-9)

	// retrograde but bound
	require.Empty(t, byName["Rover"].Error)

	_, err = OrbitsRelativeTo(snap, "Nemesis", 1, 0)
	require.ErrorIs(t, err, ErrInvalidSystem)
}

func TestOrbitsRelativeToReportsUnbound(t *testing.T) {
	snap := Snapshot{Bodies: []BodyState{
		{Name: "Sun", Mass: 1},
		{Name: "Interloper", Position: astromath.Vector3{X: 1}, Velocity: astromath.Vector3{Y: 3}},
	}}
	fits, err := OrbitsRelativeTo(snap, "Sun", 1, 0)
	require.NoError(t, err)
	require.Len(t, fits, 1)
	require.NotEmpty(t, fits[0].Error)
	require.Nil(t, fits[0].Params)

	data, err := json.Marshal(fits[0])
	require.NoError(t, err)
	require.NotContains(t, string(data), "paramaters")
}
