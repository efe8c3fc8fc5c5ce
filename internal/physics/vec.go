package physics

import "math"

// Vec is a 2D vector in world units. Y grows downward.
type Vec struct {
	X, Y float64
}

func V(x, y float64) Vec { return Vec{X: x, Y: y} }

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }

func (v Vec) Sub(o Vec) Vec { return Vec{v.X - o.X, v.Y - o.Y} }

func (v Vec) Scale(f float64) Vec { return Vec{v.X * f, v.Y * f} }

func (v Vec) Dot(o Vec) float64 { return v.X*o.X + v.Y*o.Y }

// Cross returns the z component of v × o.
func (v Vec) Cross(o Vec) float64 { return v.X*o.Y - v.Y*o.X }

func (v Vec) Len() float64 { return math.Hypot(v.X, v.Y) }

func (v Vec) LenSq() float64 { return v.X*v.X + v.Y*v.Y }

// Norm returns the unit vector and the original length. A zero vector is
// treated as having length epsilon so callers never divide by zero.
func (v Vec) Norm() (Vec, float64) {
	l := v.Len()
	if l == 0 {
		l = epsilon
	}
	return Vec{v.X / l, v.Y / l}, l
}

// Rotate applies the standard 2D rotation by angle radians.
func (v Vec) Rotate(angle float64) Vec {
	sin, cos := math.Sincos(angle)
	return Vec{v.X*cos - v.Y*sin, v.X*sin + v.Y*cos}
}

const epsilon = 0.00001

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
