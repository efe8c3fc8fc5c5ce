package physics

import "math"

// ShapeKind distinguishes template shapes. Both kinds reduce to a circle.
type ShapeKind int

const (
	ShapeEllipse ShapeKind = iota
	ShapeRect
)

// Shape is a template shape in body-normalized coordinates: X, Y is the
// top-left corner and W, H the extent, all as fractions of the body size.
type Shape struct {
	Kind       ShapeKind
	X, Y, W, H float64
}

// Template is a compound collider expressed relative to a W×H body.
type Template struct {
	W, H   float64
	Shapes []Shape
}

// PlayerTemplate is the faller: a head ellipse over two stacked torso rects.
var PlayerTemplate = Template{
	W: BodyW,
	H: BodyH,
	Shapes: []Shape{
		{Kind: ShapeEllipse, X: 0.2357, Y: 0.0190, W: 0.4357, H: 0.4048},
		{Kind: ShapeRect, X: 0.1071, Y: 0.3905, W: 0.6857, H: 0.3476},
		{Kind: ShapeRect, X: 0.2214, Y: 0.7333, W: 0.4571, H: 0.2381},
	},
}

// Colliders appends one circle per shape to dst. Each shape's center is
// rotated about center by angle; the radius is half the smaller side.
func (t Template) Colliders(dst []Circle, center Vec, angle float64) []Circle {
	for _, s := range t.Shapes {
		w := s.W * t.W
		h := s.H * t.H
		local := Vec{(s.X + s.W/2 - 0.5) * t.W, (s.Y + s.H/2 - 0.5) * t.H}
		dst = append(dst, Circle{C: center.Add(local.Rotate(angle)), R: math.Min(w, h) / 2})
	}
	return dst
}

// Body is the player's rigid body. Pos is the centroid in world space.
type Body struct {
	Pos    Vec
	Vel    Vec
	Angle  float64
	AngVel float64

	template  Template
	tuning    Tuning
	inertia   float64
	colliders []Circle
}

// NewBody creates a body at rest.
func NewBody(pos Vec, tmpl Template, tuning Tuning) *Body {
	b := &Body{Pos: pos, template: tmpl, tuning: tuning, inertia: tuning.Inertia()}
	b.colliders = make([]Circle, 0, len(tmpl.Shapes))
	return b
}

// Tuning returns the body's constants.
func (b *Body) Tuning() Tuning { return b.tuning }

// SetTuning replaces the constants, e.g. when a round switches mode.
func (b *Body) SetTuning(t Tuning) {
	b.tuning = t
	b.inertia = t.Inertia()
}

// Reset puts the body back at pos with no motion.
func (b *Body) Reset(pos Vec) {
	b.Pos = pos
	b.Vel = Vec{}
	b.Angle = 0
	b.AngVel = 0
}

// Freeze zeroes linear and angular velocity.
func (b *Body) Freeze() {
	b.Vel = Vec{}
	b.AngVel = 0
}

// Colliders returns the current collider circles. The slice is reused on
// the next call.
func (b *Body) Colliders() []Circle {
	b.colliders = b.template.Colliders(b.colliders[:0], b.Pos, b.Angle)
	return b.colliders
}

// Bottom returns the lowest point of any collider.
func (b *Body) Bottom() float64 {
	lowest := math.Inf(-1)
	for _, c := range b.Colliders() {
		lowest = math.Max(lowest, c.C.Y+c.R)
	}
	return lowest
}

// Speed is the linear speed.
func (b *Body) Speed() float64 { return b.Vel.Len() }

// relativeVelocity is the contact-point velocity v - ω×r.
func (b *Body) relativeVelocity(r Vec) Vec {
	return Vec{b.Vel.X + b.AngVel*r.Y, b.Vel.Y - b.AngVel*r.X}
}

// ApplyContact resolves one (possibly averaged) contact against static
// geometry: a restitution impulse along the normal, Coulomb-clamped
// friction along the tangent, the spin ceiling, then positional correction.
// It returns the normal impulse magnitude (zero when separating).
func (b *Body) ApplyContact(c Contact) float64 {
	j := b.ApplyImpulse(c)
	b.AngVel = clamp(b.AngVel, -b.tuning.MaxSpin, b.tuning.MaxSpin)
	b.Pos = b.Pos.Add(c.Normal.Scale(b.Correction(c.Depth)))
	return j
}

// ApplyImpulse applies only the velocity part of a contact: normal impulse
// and clamped friction. It returns the normal impulse magnitude.
func (b *Body) ApplyImpulse(c Contact) float64 {
	t := b.tuning
	n := c.Normal
	r := c.Point.Sub(b.Pos)
	rel := b.relativeVelocity(r)
	relN := rel.Dot(n)
	if relN >= 0 {
		return 0
	}

	e := Restitution(rel.Len())
	rCrossN := r.Cross(n)
	denom := 1/t.Mass + rCrossN*rCrossN/b.inertia

	j := -(1 + e) * relN / denom
	b.Vel = b.Vel.Add(n.Scale(j / t.Mass))
	b.AngVel += rCrossN * j / b.inertia

	vt := rel.Sub(n.Scale(relN))
	if speed := vt.Len(); speed > 0.0001 {
		tangent := vt.Scale(1 / speed)
		maxFriction := t.MuKinetic * math.Abs(j)
		jt := clamp(-speed/denom, -maxFriction, maxFriction)
		b.Vel = b.Vel.Add(tangent.Scale(jt / t.Mass))
		b.AngVel += rCrossN * jt / b.inertia
	}
	return j
}

// Correction is the Baumgarte positional correction for a penetration
// depth: the part beyond the slop, scaled by percent, capped per frame.
func (b *Body) Correction(depth float64) float64 {
	corr := math.Max(depth-b.tuning.Slop, 0) * b.tuning.Percent
	return math.Min(corr, b.tuning.MaxCorrection)
}

// groundEpsilon keeps a body resting exactly on the line in contact
// despite rounding in the collider rotation.
const groundEpsilon = 1e-6

// GroundResult describes a ground-plane pass.
type GroundResult struct {
	Touched  bool
	Bounced  bool
	OnGround bool
}

// ResolveGround pushes the body out of the ground line and either bounces
// it or lets it settle.
func (b *Body) ResolveGround(groundY float64) GroundResult {
	bottom := b.Bottom()
	if bottom < groundY-groundEpsilon {
		return GroundResult{}
	}
	t := b.tuning
	b.Pos.Y -= math.Max(bottom-groundY, 0)

	// Impacts with zero restitution settle instead of bouncing in place.
	speed := b.Speed()
	if e := Restitution(speed); speed > t.RestSpeed && e > 0 {
		b.Vel.Y = -math.Abs(b.Vel.Y) * e * t.GroundBounceDamp
		if math.Abs(b.Vel.Y) > t.MaxBounce {
			b.Vel.Y = -t.MaxBounce
		}
		b.AngVel *= t.BounceSpinDecay
		return GroundResult{Touched: true, Bounced: true}
	}

	b.Vel.X *= t.SettleSlide
	b.Vel.Y = 0
	b.AngVel *= t.SettleSpinDecay
	return GroundResult{Touched: true, OnGround: true}
}

// Integrate advances the body one frame: gravity while airborne and
// falling is enabled, the fall-speed cap, position, friction and spin
// decay. It returns the rotation applied this frame.
func (b *Body) Integrate(onGround, gravity bool) float64 {
	t := b.tuning
	if gravity && !onGround {
		b.Vel.Y += t.Gravity
	}
	b.Vel.Y = math.Min(b.Vel.Y, t.MaxFall)

	b.Pos = b.Pos.Add(b.Vel)

	if onGround {
		b.Vel.X *= t.GroundFriction
		b.AngVel *= t.GroundSpinDecay
	} else {
		b.Vel.X *= t.AirFriction
		b.AngVel *= t.AirSpinDecay
	}
	b.Angle += b.AngVel
	return b.AngVel
}
