package system

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
)

// BodyState is one entry of a body snapshot, in absolute coordinates
type BodyState struct {
	Name     string            `json:"name" yaml:"name"`
	Radius   float64           `json:"radius" yaml:"radius"`
	Mass     float64           `json:"mass" yaml:"mass"`
	Color    string            `json:"color,omitempty" yaml:"color,omitempty"`
	Position astromath.Vector3 `json:"position" yaml:"position"`
	Velocity astromath.Vector3 `json:"velocity" yaml:"velocity"`
}

// Snapshot is the flat body list consumed by simulations
type Snapshot struct {
	Bodies []BodyState `json:"bodies" yaml:"bodies"`
}

// Body returns the named body
func (s Snapshot) Body(name string) (BodyState, bool) {
	for _, b := range s.Bodies {
		if b.Name == name {
			return b, true
		}
	}
	return BodyState{}, false
}

// EncodeSnapshot writes the snapshot in the given format
func EncodeSnapshot(w io.Writer, snap Snapshot, format Format) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(snap); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(snap)
}

// DecodeSnapshot reads a snapshot in the given format
func DecodeSnapshot(r io.Reader, format Format) (Snapshot, error) {
	var snap Snapshot
	var err error
	if format == FormatYAML {
		err = yaml.NewDecoder(r).Decode(&snap)
	} else {
		err = json.NewDecoder(r).Decode(&snap)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidSystem, err)
	}
	for _, b := range snap.Bodies {
		if !b.Position.IsFinite() || !b.Velocity.IsFinite() {
			return Snapshot{}, fmt.Errorf("%w: body %q: state is not finite", ErrInvalidSystem, b.Name)
		}
	}
	return snap, nil
}

// LoadSnapshot reads a snapshot file, JSON or YAML by extension
func LoadSnapshot(fs afero.Fs, path string) (Snapshot, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return Snapshot{}, err
	}
	f, err := fs.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer f.Close()

	snap, err := DecodeSnapshot(f, format)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%s: %w", path, err)
	}
	return snap, nil
}

// WriteSnapshot writes a snapshot file, JSON or YAML by extension
func WriteSnapshot(fs afero.Fs, path string, snap Snapshot) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	if err := EncodeSnapshot(f, snap, format); err != nil {
		f.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return f.Close()
}
