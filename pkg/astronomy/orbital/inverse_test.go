package orbital

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"
	"pgregory.net/rapid"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

func TestElementsFromStateRoundTrip(t *testing.T) {
	calc := Calculator{}
	rapid.Check(t, func(t *rapid.T) {
		oe := drawElements(t, 0.9)
		at := drawTime(t, oe)

		sv, err := calc.StateAt(oe, at)
		if err != nil {
			t.Fatal(err)
		}
		got, err := ElementsFromState(sv.Position, sv.Velocity, oe.GravParam(), at, 7)
		if err != nil {
			t.Fatalf("ElementsFromState: %v", err)
		}
		if got.ParentID() != 7 {
			t.Fatalf("parent = %d, want 7", got.ParentID())
		}
		if !scalar.EqualWithinRel(got.SemiMajor(), oe.SemiMajor(), 1e-8) {
			t.Fatalf("a = %v, want %v", got.SemiMajor(), oe.SemiMajor())
		}
		if math.Abs(got.Eccentricity()-oe.Eccentricity()) > 1e-7 {
			t.Fatalf("e = %v, want %v", got.Eccentricity(), oe.Eccentricity())
		}

		// angles may be degenerate, so compare the trajectory instead
		later := at + rapid.Float64Range(0, 1).Draw(t, "dt")*oe.PeriodTime()
		want, err := calc.StateAt(oe, later)
		if err != nil {
			t.Fatal(err)
		}
		again, err := calc.StateAt(got, later)
		if err != nil {
			t.Fatal(err)
		}
		if !again.Position.ApproxEqual(want.Position, 1e-6*oe.SemiMajor()) {
			t.Fatalf("position %v, want %v", again.Position, want.Position)
		}
		if !again.Velocity.ApproxEqual(want.Velocity, 1e-6*maxSpeed(oe)) {
			t.Fatalf("velocity %v, want %v", again.Velocity, want.Velocity)
		}
	})
}

func TestElementsFromStateRecoversAngles(t *testing.T) {
	oe := mustBuild(t, NewBuilder(5, 1).SemiMinor(3).
		Inclination(0.3).AscendingNode(1.2).Periapsis(2.1).StartTime(4))
	sv, err := Calculator{}.StateAt(oe, 10)
	require.NoError(t, err)

	got, err := ElementsFromState(sv.Position, sv.Velocity, 1, 10, 0)
	require.NoError(t, err)
	require.InDelta(t, 5.0, got.SemiMajor(), 1e-9)
	require.InDelta(t, 3.0, got.SemiMinor(), 1e-9)
	require.InDelta(t, 0.3, got.Inclination(), 1e-9)
	require.InDelta(t, 1.2, got.AscendingNode(), 1e-9)
	require.InDelta(t, 2.1, got.Periapsis(), 1e-9)

	// start time is only defined modulo the period
	shift := (got.StartTime() - 4) / got.PeriodTime()
	require.InDelta(t, math.Round(shift), shift, 1e-9)
}

func TestElementsFromStateDegenerateOrbits(t *testing.T) {
	t.Run("circular equatorial", func(t *testing.T) {
		pos := astromath.Vector3{Y: 2}
		vel := astromath.Vector3{X: -math.Sqrt(0.5)}
		got, err := ElementsFromState(pos, vel, 1, 0, 0)
		require.NoError(t, err)
		require.InDelta(t, 2.0, got.SemiMajor(), 1e-12)
		require.Equal(t, 0.0, got.Eccentricity())
		require.Equal(t, 0.0, got.AscendingNode())
		require.Equal(t, 0.0, got.Periapsis())
		require.InDelta(t, 0.0, got.Inclination(), 1e-12)

		// a quarter turn from the reference direction
		require.InDelta(t, -got.PeriodTime()/4, got.StartTime(), 1e-9)
	})

	t.Run("retrograde equatorial", func(t *testing.T) {
		pos := astromath.Vector3{X: 1}
		vel := astromath.Vector3{Y: -1.2}
		got, err := ElementsFromState(pos, vel, 1, 0, 0)
		require.NoError(t, err)
		require.InDelta(t, math.Pi, got.Inclination(), 1e-12)
		require.Equal(t, 0.0, got.AscendingNode())

		sv, err := Calculator{}.StateAt(got, 0)
		require.NoError(t, err)
		require.True(t, sv.Position.ApproxEqual(pos, 1e-9), "position = %v", sv.Position)
		require.True(t, sv.Velocity.ApproxEqual(vel, 1e-9), "velocity = %v", sv.Velocity)
	})
}

func TestElementsFromStateRejects(t *testing.T) {
	tests := []struct {
		name     string
		pos, vel astromath.Vector3
		mu       float64
	}{
		{"escape speed", astromath.Vector3{X: 1}, astromath.Vector3{Y: math.Sqrt2}, 1},
		{"hyperbolic", astromath.Vector3{X: 1}, astromath.Vector3{Y: 3}, 1},
		{"radial", astromath.Vector3{X: 1}, astromath.Vector3{X: 0.5}, 1},
		{"at the parent", astromath.Vector3{}, astromath.Vector3{Y: 1}, 1},
		{"zero grav param", astromath.Vector3{X: 1}, astromath.Vector3{Y: 1}, 0},
		{"nan velocity", astromath.Vector3{X: 1}, astromath.Vector3{Y: math.NaN()}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ElementsFromState(tt.pos, tt.vel, tt.mu, 0, 0)
			require.ErrorIs(t, err, ErrInvalidOrbit)
		})
	}
}
