package fixture

import (
	"math"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

const tau = 2 * math.Pi

const sampleSet = `[
  {
    "name": "circular at start",
    "paramaters": [1, 1, 0, 0, 0, 0, 1, 1],
    "grav_param": 1,
    "at_time": 0,
    "position": [1, 0, 0],
    "velocity": [0, 1, 0]
  },
  {
    "name": "Elliptical apoapsis",
    "paramaters": [5, 3, 0, 0, 0, 0, 1, 1],
    "grav_param": 1,
    "at_time": 0.5,
    "parent_position": [10, 0, 0],
    "position": [1, 0, 0]
  }
]`

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Circular Orbit", "circularorbit"},
		{"  circular orbit ", "circularorbit"},
		{"CIRCULAR\tORBIT", "circular\torbit"},
		{"   ", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDecode(t *testing.T) {
	set, err := Decode(strings.NewReader(sampleSet))
	require.NoError(t, err)
	require.Len(t, set, 2)

	require.Equal(t, orbital.Params{1, 1, 0, 0, 0, 0, 1, 1}, set[0].Parameters)
	require.NotNil(t, set[0].Velocity)
	require.Nil(t, set[0].ParentPosition)

	require.Nil(t, set[1].Velocity)
	require.Equal(t, astromath.Vector3{X: 10}, *set[1].ParentPosition)
	require.Equal(t, 0.5, set[1].AtTime)
}

func TestDecodeRejects(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"unknown key", `[{"name": "a", "paramaters": [1,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0,0], "focus_offset": 4}]`},
		{"correctly spelled key", `[{"name": "a", "parameters": [1,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0,0]}]`},
		{"short parameters", `[{"name": "a", "paramaters": [1,1,0], "at_time": 0, "position": [1,0,0]}]`},
		{"short position", `[{"name": "a", "paramaters": [1,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0]}]`},
		{"empty name", `[{"name": "  ", "paramaters": [1,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0,0]}]`},
		{"invalid orbit", `[{"name": "a", "paramaters": [0,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0,0]}]`},
		{"duplicate after normalizing", `[
			{"name": "Circular Orbit", "paramaters": [1,1,0,0,0,0,1,1], "at_time": 0, "position": [1,0,0]},
			{"name": " circularorbit", "paramaters": [1,1,0,0,0,0,1,1], "at_time": 0.5, "position": [-1,0,0]}
		]`},
		{"not an array", `{"name": "a"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(strings.NewReader(tt.json))
			require.ErrorIs(t, err, ErrInvalidFixture)
		})
	}
}

func TestValidateKeepsOrbitCause(t *testing.T) {
	set := Set{{Name: "bad", Parameters: orbital.Params{1, 2, 0, 0, 0, 0, 1, 1}, GravParam: 1}}
	err := set.Validate()
	require.ErrorIs(t, err, ErrInvalidFixture)
	require.ErrorIs(t, err, orbital.ErrInvalidOrbit)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/fixtures/orbits.json", []byte(sampleSet), 0o644))

	set, err := Load(fs, "/fixtures/orbits.json")
	require.NoError(t, err)
	require.Len(t, set, 2)

	_, err = Load(fs, "/fixtures/missing.json")
	require.Error(t, err)
}

func TestNewRecord(t *testing.T) {
	oe, err := orbital.NewBuilder(5, 7.2).SemiMinor(3).
		Inclination(0.1 * tau).Periapsis(0.25 * tau).PeriodTime(1).Parent(1).Build()
	require.NoError(t, err)

	r, err := NewRecord("inclined apoapsis", oe, 0.5, orbital.Calculator{})
	require.NoError(t, err)
	require.NoError(t, Set{r}.Validate())

	want := astromath.Vector3{Y: -9 * math.Cos(0.1*tau), Z: -9 * math.Sin(0.1*tau)}
	require.True(t, r.Position.ApproxEqual(want, 1e-9), "position = %v", r.Position)
	require.True(t, r.Velocity.Normalize().ApproxEqual(astromath.Vector3{X: 1}, 1e-9), "velocity = %v", r.Velocity)
	require.Equal(t, 7.2, r.GravParam)
}
