package math

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// Vector3 represents a 3D vector for astronomical calculations.
// On the wire it is a plain [x, y, z] array.
type Vector3 struct {
	X, Y, Z float64
}

// FromArray builds a vector from an [x, y, z] array
func FromArray(a [3]float64) Vector3 {
	return Vector3{X: a[0], Y: a[1], Z: a[2]}
}

// Array returns the vector as an [x, y, z] array
func (v Vector3) Array() [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}

func (v Vector3) vec() r3.Vec {
	return r3.Vec{X: v.X, Y: v.Y, Z: v.Z}
}

func fromVec(p r3.Vec) Vector3 {
	return Vector3{X: p.X, Y: p.Y, Z: p.Z}
}

// Add returns the sum of two vectors
func (v Vector3) Add(other Vector3) Vector3 {
	return fromVec(r3.Add(v.vec(), other.vec()))
}

// Sub returns the difference between two vectors
func (v Vector3) Sub(other Vector3) Vector3 {
	return fromVec(r3.Sub(v.vec(), other.vec()))
}

// Scale returns the vector scaled by a scalar
func (v Vector3) Scale(s float64) Vector3 {
	return fromVec(r3.Scale(s, v.vec()))
}

// Dot returns the dot product of two vectors
func (v Vector3) Dot(other Vector3) float64 {
	return r3.Dot(v.vec(), other.vec())
}

// Cross returns the cross product of two vectors
func (v Vector3) Cross(other Vector3) Vector3 {
	return fromVec(r3.Cross(v.vec(), other.vec()))
}

// Magnitude returns the length of the vector
func (v Vector3) Magnitude() float64 {
	return r3.Norm(v.vec())
}

// Normalize returns a unit vector in the same direction.
// The zero vector is returned unchanged.
func (v Vector3) Normalize() Vector3 {
	mag := v.Magnitude()
	if mag == 0 {
		return v
	}
	return v.Scale(1.0 / mag)
}

// SetLength returns a vector pointing the same way with the given length
func (v Vector3) SetLength(length float64) Vector3 {
	return v.Normalize().Scale(length)
}

// Distance returns the distance between two vectors
func (v Vector3) Distance(other Vector3) float64 {
	return v.Sub(other).Magnitude()
}

// IsZero checks if the vector is zero
func (v Vector3) IsZero() bool {
	return v.X == 0 && v.Y == 0 && v.Z == 0
}

// IsFinite reports whether no component is NaN or infinite
func (v Vector3) IsFinite() bool {
	for _, c := range v.Array() {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}

// ApproxEqual reports whether every component of v is within tol of other
func (v Vector3) ApproxEqual(other Vector3, tol float64) bool {
	return math.Abs(v.X-other.X) <= tol &&
		math.Abs(v.Y-other.Y) <= tol &&
		math.Abs(v.Z-other.Z) <= tol
}

func (v Vector3) String() string {
	return fmt.Sprintf("[%g, %g, %g]", v.X, v.Y, v.Z)
}

// MarshalJSON encodes the vector as [x, y, z]
func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Array())
}

// UnmarshalJSON decodes an [x, y, z] array, rejecting any other length
func (v *Vector3) UnmarshalJSON(data []byte) error {
	var raw []float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("vector must be an array of numbers: %w", err)
	}
	return v.setComponents(raw)
}

// MarshalYAML encodes the vector as a flow sequence
func (v Vector3) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
	for _, c := range v.Array() {
		node.Content = append(node.Content, &yaml.Node{
			Kind:  yaml.ScalarNode,
			Value: fmt.Sprintf("%g", c),
		})
	}
	return node, nil
}

// UnmarshalYAML decodes a three element sequence
func (v *Vector3) UnmarshalYAML(value *yaml.Node) error {
	var raw []float64
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("vector must be a sequence of numbers: %w", err)
	}
	return v.setComponents(raw)
}

func (v *Vector3) setComponents(raw []float64) error {
	if len(raw) != 3 {
		return fmt.Errorf("vector needs 3 components, got %d", len(raw))
	}
	v.X, v.Y, v.Z = raw[0], raw[1], raw[2]
	return nil
}
