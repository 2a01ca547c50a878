package system

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"cosmossdk.io/log"
	"golang.org/x/sync/errgroup"

	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
	"github.com/oxygene76/orbitcore/pkg/metrics"
)

// node is a body flattened out of the definition tree
type node struct {
	def    BodyDef
	parent int // index into the flattened list, -1 for roots
	depth  int
}

// flatten lists bodies in pre-order, so a parent always precedes its
// children and snapshot order follows the file.
func flatten(bodies []BodyDef) []node {
	var nodes []node
	var walk func(b BodyDef, parent, depth int)
	walk = func(b BodyDef, parent, depth int) {
		idx := len(nodes)
		nodes = append(nodes, node{def: b, parent: parent, depth: depth})
		for _, c := range b.Children {
			walk(c, idx, depth+1)
		}
	}
	for _, b := range bodies {
		walk(b, -1, 0)
	}
	return nodes
}

// Resolver turns a system definition into a body snapshot
type Resolver struct {
	calc    orbital.Calculator
	workers int
	logger  log.Logger
}

// NewResolver creates a resolver. A non-positive worker count uses one
// worker per CPU.
func NewResolver(calc orbital.Calculator, workers int, logger log.Logger) *Resolver {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Resolver{
		calc:    calc,
		workers: workers,
		logger:  logger.With("module", "system"),
	}
}

// Snapshot resolves every body at time t. Bodies on the same level of the
// tree are independent and evaluated concurrently; each level waits for
// the one above so children can add their parent's absolute state.
func (r *Resolver) Snapshot(ctx context.Context, def Definition, t float64) (Snapshot, error) {
	if err := def.Validate(); err != nil {
		return Snapshot{}, err
	}
	start := time.Now()

	g := def.GravitationalConstant
	if g == 0 {
		g = orbital.GravitationalConstant
	}

	nodes := flatten(def.Bodies)
	levels := make([][]int, 0)
	for i, n := range nodes {
		for len(levels) <= n.depth {
			levels = append(levels, nil)
		}
		levels[n.depth] = append(levels[n.depth], i)
	}

	states := make([]BodyState, len(nodes))
	for depth, level := range levels {
		eg, ctx := errgroup.WithContext(ctx)
		eg.SetLimit(r.workers)
		for _, idx := range level {
			idx := idx
			eg.Go(func() error {
				if err := ctx.Err(); err != nil {
					return err
				}
				st, err := r.resolve(nodes[idx], states, g, t)
				if err != nil {
					return err
				}
				states[idx] = st
				return nil
			})
		}
		if err := eg.Wait(); err != nil {
			return Snapshot{}, err
		}
		r.logger.Debug("resolved level", "depth", depth, "bodies", len(level))
	}

	metrics.ObserveBatchDuration(metrics.OpSystemResolve, time.Since(start))
	metrics.SetSystemBodies(len(states))
	r.logger.Info("system resolved", "bodies", len(states), "time", t, "duration", time.Since(start))
	return Snapshot{Bodies: states}, nil
}

// resolve computes one body's absolute state. Parents are read from
// states, which the previous level has already filled.
func (r *Resolver) resolve(n node, states []BodyState, g, t float64) (BodyState, error) {
	b := n.def
	st := BodyState{
		Name:   strings.TrimSpace(b.Name),
		Radius: b.Radius,
		Mass:   b.Mass,
		Color:  b.Color,
	}

	if b.HasOrbit() {
		parent := states[n.parent]
		mu, err := orbital.GravParamFromMass(parent.Mass, g)
		if err != nil {
			return BodyState{}, fmt.Errorf("%w: body %q: %w", ErrInvalidSystem, st.Name, err)
		}
		oe, err := r.elements(b, mu, n.parent)
		if err != nil {
			return BodyState{}, fmt.Errorf("%w: body %q: %w", ErrInvalidSystem, st.Name, err)
		}
		sv, err := r.calc.StateAt(oe, t)
		metrics.RecordPropagation(metrics.ModeElapsed, err)
		if err != nil {
			return BodyState{}, fmt.Errorf("%w: body %q: %w", ErrInvalidSystem, st.Name, err)
		}
		st.Position, st.Velocity = sv.Position, sv.Velocity
	} else {
		st.Position, st.Velocity = *b.Position, *b.Velocity
	}

	if n.parent >= 0 {
		parent := states[n.parent]
		st.Position = st.Position.Add(parent.Position)
		st.Velocity = st.Velocity.Add(parent.Velocity)
	}
	return st, nil
}

// elements builds the orbit of a body. A missing semi-minor axis means a
// circular orbit and the period follows from μ.
func (r *Resolver) elements(b BodyDef, mu float64, parent int) (orbital.OrbitalElements, error) {
	a := *b.SemiMajorAxis
	minor := b.SemiMinorAxis
	if minor == 0 {
		minor = a
	}
	return orbital.NewBuilder(a, mu).
		SemiMinor(minor).
		Inclination(b.InclinationAngle).
		AscendingNode(b.AscendingNodeAngle).
		Periapsis(b.PeriapsisAngle).
		StartTime(b.BaseTime).
		Parent(uint64(parent)).
		Build()
}
