package physics

// Circle is a world-space circle.
type Circle struct {
	C Vec
	R float64
}

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X, Y, W, H float64
}

func (r Rect) Center() Vec {
	return Vec{r.X + r.W/2, r.Y + r.H/2}
}

// Nearest returns the point of r closest to p.
func (r Rect) Nearest(p Vec) Vec {
	return Vec{clamp(p.X, r.X, r.X+r.W), clamp(p.Y, r.Y, r.Y+r.H)}
}

// Translate returns r moved by d.
func (r Rect) Translate(d Vec) Rect {
	return Rect{r.X + d.X, r.Y + d.Y, r.W, r.H}
}

// Contact is one body-versus-entity overlap. Normal points from the entity
// toward the body collider; Point is the body collider's center.
type Contact struct {
	Normal Vec
	Depth  float64
	Point  Vec
}

// CircleContact reports whether body collider b overlaps the entity circle e.
func CircleContact(b, e Circle) (Contact, bool) {
	d := b.C.Sub(e.C)
	minDist := b.R + e.R
	if d.LenSq() >= minDist*minDist {
		return Contact{}, false
	}
	n, dist := d.Norm()
	return Contact{Normal: n, Depth: minDist - dist, Point: b.C}, true
}

// CircleOverlaps is the boolean form of CircleContact with extra reach pad.
func CircleOverlaps(a, b Circle, pad float64) bool {
	r := a.R + b.R + pad
	return a.C.Sub(b.C).LenSq() < r*r
}

// CircleRectOverlaps reports whether c, with its radius grown by pad,
// touches r.
func CircleRectOverlaps(c Circle, r Rect, pad float64) bool {
	d := c.C.Sub(r.Nearest(c.C))
	rr := c.R + pad
	return d.LenSq() < rr*rr
}

// Average folds several contacts into one: normals and depths are averaged,
// the normal renormalized, and the first contact's point kept as reference.
func Average(contacts []Contact) (Contact, bool) {
	if len(contacts) == 0 {
		return Contact{}, false
	}
	var n Vec
	var depth float64
	for _, c := range contacts {
		n = n.Add(c.Normal)
		depth += c.Depth
	}
	k := float64(len(contacts))
	n, _ = n.Scale(1 / k).Norm()
	return Contact{Normal: n, Depth: depth / k, Point: contacts[0].Point}, true
}
