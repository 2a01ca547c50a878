package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"

	astromath "github.com/oxygene76/orbitcore/pkg/astronomy/math"
	"github.com/oxygene76/orbitcore/pkg/astronomy/orbital"
)

// Record is one orbit test case. The misspelled "paramaters" key is the
// established wire name and is kept as is.
type Record struct {
	Name       string         `json:"name"`
	Parameters orbital.Params `json:"paramaters"`
	// GravParam may be omitted when the parameters carry a period
	GravParam float64 `json:"grav_param,omitempty"`
	// AtTime is measured on the same clock as the start time
	AtTime float64 `json:"at_time"`
	// ParentPosition offsets the expected position; older sets carry it
	ParentPosition *astromath.Vector3 `json:"parent_position,omitempty"`
	Position       astromath.Vector3  `json:"position"`
	Velocity       *astromath.Vector3 `json:"velocity,omitempty"`
}

// Set is an ordered collection of records with unique names
type Set []Record

// NormalizeName reduces a record name to the form used for duplicate
// detection: trimmed, lower case, without spaces.
func NormalizeName(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "")
}

// NewRecord computes the expected state for elements at time atTime. The
// velocity comes from the direction of travel rescaled to the vis-viva
// speed.
func NewRecord(name string, oe orbital.OrbitalElements, atTime float64, calc orbital.Calculator) (Record, error) {
	sv, err := calc.DirectionStateAt(oe, atTime)
	if err != nil {
		return Record{}, fmt.Errorf("%w: record %q: %w", ErrInvalidFixture, name, err)
	}
	return Record{
		Name:       name,
		Parameters: oe.Params(),
		GravParam:  oe.GravParam(),
		AtTime:     atTime,
		Position:   sv.Position,
		Velocity:   &sv.Velocity,
	}, nil
}

// Elements builds the orbit described by the record
func (r Record) Elements() (orbital.OrbitalElements, error) {
	return orbital.ElementsFromParams(r.Parameters, r.GravParam)
}

// parentOffset returns the parent position, zero when absent
func (r Record) parentOffset() astromath.Vector3 {
	if r.ParentPosition == nil {
		return astromath.Vector3{}
	}
	return *r.ParentPosition
}

// Validate checks one record in isolation
func (r Record) Validate() error {
	if NormalizeName(r.Name) == "" {
		return fmt.Errorf("%w: record name is empty", ErrInvalidFixture)
	}
	if _, err := r.Elements(); err != nil {
		return fmt.Errorf("%w: record %q: %w", ErrInvalidFixture, r.Name, err)
	}
	if !r.Position.IsFinite() || (r.Velocity != nil && !r.Velocity.IsFinite()) {
		return fmt.Errorf("%w: record %q: expected state is not finite", ErrInvalidFixture, r.Name)
	}
	if r.ParentPosition != nil && !r.ParentPosition.IsFinite() {
		return fmt.Errorf("%w: record %q: parent position is not finite", ErrInvalidFixture, r.Name)
	}
	return nil
}

// Validate checks every record and that normalized names are unique
func (s Set) Validate() error {
	seen := make(map[string]int, len(s))
	for i, r := range s {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		key := NormalizeName(r.Name)
		if j, dup := seen[key]; dup {
			return fmt.Errorf("%w: record %d name %q duplicates record %d %q",
				ErrInvalidFixture, i, r.Name, j, s[j].Name)
		}
		seen[key] = i
	}
	return nil
}

// Decode reads a JSON array of records and validates it. Unknown keys are
// rejected so a misspelled field cannot silently fall back to zero.
func Decode(r io.Reader) (Set, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var set Set
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidFixture, err)
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	return set, nil
}

// Load reads and validates a fixture file
func Load(fs afero.Fs, path string) (Set, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixtures: %w", err)
	}
	defer f.Close()

	set, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}
