package system

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// BodyDef describes one body of a hierarchical system. A body is placed
// either by an explicit state or by an orbit around its parent; both are
// relative to the parent and the parent's state is added on resolution.
// Roots have no parent and need an explicit state.
type BodyDef struct {
	Name   string  `yaml:"name" json:"name"`
	Radius float64 `yaml:"radius" json:"radius"`
	Mass   float64 `yaml:"mass" json:"mass"`
	Color  string  `yaml:"color,omitempty" json:"color,omitempty"`

	Position *astromath.Vector3 `yaml:"position,omitempty" json:"position,omitempty"`
	Velocity *astromath.Vector3 `yaml:"velocity,omitempty" json:"velocity,omitempty"`

	SemiMajorAxis      *float64 `yaml:"semi_major_axis,omitempty" json:"semi_major_axis,omitempty"`
	SemiMinorAxis      float64  `yaml:"semi_minor_axis,omitempty" json:"semi_minor_axis,omitempty"`
	InclinationAngle   float64  `yaml:"inclination_angle,omitempty" json:"inclination_angle,omitempty"`
	AscendingNodeAngle float64  `yaml:"ascending_node_angle,omitempty" json:"ascending_node_angle,omitempty"`
	PeriapsisAngle     float64  `yaml:"periapsis_angle,omitempty" json:"periapsis_angle,omitempty"`
	BaseTime           float64  `yaml:"base_time,omitempty" json:"base_time,omitempty"`

	Children []BodyDef `yaml:"children,omitempty" json:"children,omitempty"`
}

// HasOrbit reports whether the body is placed by orbital elements
func (b BodyDef) HasOrbit() bool {
	return b.SemiMajorAxis != nil
}

// Definition is the root of a system file
type Definition struct {
	// GravitationalConstant overrides G; zero selects the default
	GravitationalConstant float64   `yaml:"gravitational_constant,omitempty" json:"gravitational_constant,omitempty"`
	Bodies                []BodyDef `yaml:"bodies" json:"bodies"`
}

// Validate checks names, placement and physical values of every body
func (d Definition) Validate() error {
	if len(d.Bodies) == 0 {
		return fmt.Errorf("%w: no bodies", ErrInvalidSystem)
	}
	if g := d.GravitationalConstant; g < 0 || math.IsNaN(g) || math.IsInf(g, 0) {
		return fmt.Errorf("%w: gravitational constant %g", ErrInvalidSystem, g)
	}
	seen := make(map[string]bool)
	for _, b := range d.Bodies {
		if err := validateBody(b, nil, seen); err != nil {
			return err
		}
	}
	return nil
}

func validateBody(b BodyDef, parent *BodyDef, seen map[string]bool) error {
	name := strings.TrimSpace(b.Name)
	if name == "" {
		return fmt.Errorf("%w: body without a name", ErrInvalidSystem)
	}
	if seen[name] {
		return fmt.Errorf("%w: duplicate body %q", ErrInvalidSystem, name)
	}
	seen[name] = true

	if !nonNegative(b.Mass) || !nonNegative(b.Radius) {
		return fmt.Errorf("%w: body %q: mass and radius must be finite and non-negative", ErrInvalidSystem, name)
	}

	hasState := b.Position != nil && b.Velocity != nil
	switch {
	case parent == nil && !hasState:
		return fmt.Errorf("%w: root body %q needs a position and a velocity", ErrInvalidSystem, name)
	case parent == nil && b.HasOrbit():
		return fmt.Errorf("%w: root body %q has no parent to orbit", ErrInvalidSystem, name)
	case b.HasOrbit() && parent.Mass <= 0:
		return fmt.Errorf("%w: body %q orbits massless parent %q", ErrInvalidSystem, name, parent.Name)
	case !b.HasOrbit() && !hasState:
		return fmt.Errorf("%w: body %q needs either an orbit or a position and a velocity", ErrInvalidSystem, name)
	}
	if hasState && (!b.Position.IsFinite() || !b.Velocity.IsFinite()) {
		return fmt.Errorf("%w: body %q: state is not finite", ErrInvalidSystem, name)
	}

	for _, c := range b.Children {
		if err := validateBody(c, &b, seen); err != nil {
			return err
		}
	}
	return nil
}

func nonNegative(v float64) bool {
	return v >= 0 && !math.IsInf(v, 0)
}

// Format of a system or snapshot file
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatForPath picks the format from the file extension
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%w: unsupported file extension %q", ErrInvalidSystem, filepath.Ext(path))
	}
}

// DecodeDefinition reads a definition and validates it. Unknown keys are
// rejected in both formats.
func DecodeDefinition(r io.Reader, format Format) (Definition, error) {
	var def Definition
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&def); err != nil {
			return Definition{}, fmt.Errorf("%w: %w", ErrInvalidSystem, err)
		}
	default:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return Definition{}, fmt.Errorf("%w: %w", ErrInvalidSystem, err)
		}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

// LoadDefinition reads a YAML or JSON system file
func LoadDefinition(fs afero.Fs, path string) (Definition, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Definition{}, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return Definition{}, fmt.Errorf("failed to open system definition: %w", err)
	}
	defer f.Close()

	def, err := DecodeDefinition(f, format)
	if err != nil {
		return Definition{}, fmt.Errorf("%s: %w", path, err)
	}
	return def, nil
}
