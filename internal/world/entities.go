package world

import "github.com/MJE43/freefall-wager/internal/physics"

// Kind tags an entity class.
type Kind int

const (
	KindCloud Kind = iota
	KindHazard
	KindPortal
	KindMultiplier
	KindPushable
	KindCollectible
)

func (k Kind) String() string {
	switch k {
	case KindCloud:
		return "cloud"
	case KindHazard:
		return "hazard"
	case KindPortal:
		return "portal"
	case KindMultiplier:
		return "multiplier"
	case KindPushable:
		return "pushable"
	case KindCollectible:
		return "collectible"
	}
	return "unknown"
}

// Ref addresses one pool slot. Slots never move, so a Ref stays valid for
// the life of the World.
type Ref struct {
	Kind  Kind
	Index int
}

// Cloud is a compound of circles the body bounces on.
type Cloud struct {
	Pos     physics.Vec
	Variant int
	Circles [CloudCircles]physics.Circle
	Active  bool
}

// place moves the cloud and rebuilds its sub-circles.
func (c *Cloud) place(x, y float64) {
	c.Pos = physics.V(x, y)
	base, w, h := &cloud1Circles, Cloud1W, Cloud1H
	if c.Variant == 2 {
		base, w, h = &cloud2Circles, Cloud2W, Cloud2H
	}
	for i, cc := range base {
		c.Circles[i] = physics.Circle{C: physics.V(x+cc.X*w, y+cc.Y*h), R: cc.R * w}
	}
}

// Hazard grabs the body on contact.
type Hazard struct {
	Pos    physics.Vec
	Rects  [HazardRects]physics.Rect
	Active bool
}

func (h *Hazard) place(x, y float64) {
	h.Pos = physics.V(x, y)
	for i, r := range hazardRects {
		h.Rects[i] = physics.Rect{X: x + r.X*HazardW, Y: y + r.Y*HazardH, W: r.W * HazardW, H: r.H * HazardH}
	}
}

// Portal is a bonus entry. Pos is the top-left of its square.
type Portal struct {
	Pos    physics.Vec
	Active bool
}

// Circle returns the portal's hit circle.
func (p *Portal) Circle() physics.Circle {
	return physics.Circle{C: p.Pos.Add(physics.V(PortalSize/2, PortalSize/2)), R: PortalRadius}
}

// MultiplierClass names a ground multiplier class.
type MultiplierClass string

const (
	ClassTank MultiplierClass = "tank"
	ClassCamp MultiplierClass = "camp"
)

// Multiplier is a one-shot ground entity scaling earnings by Factor.
type Multiplier struct {
	Class  MultiplierClass
	Rect   physics.Rect
	Factor float64
	Active bool
}

// Pushable is a circle the body can shove. Pos is the top-left of its
// square sprite; Vel is its own velocity.
type Pushable struct {
	Pos    physics.Vec
	Vel    physics.Vec
	Active bool
}

// Circle returns the pushable's collision circle.
func (p *Pushable) Circle() physics.Circle {
	return physics.Circle{C: p.Pos.Add(physics.V(PushableSize/2, PushableSize/2)), R: PushableRadius}
}

// Moving reports whether the pushable still drifts.
func (p *Pushable) Moving() bool {
	return abs(p.Vel.X) > PushableRestSpeed || abs(p.Vel.Y) > PushableRestSpeed
}

// CollectibleClass names a pickup class.
type CollectibleClass string

const (
	ClassChain CollectibleClass = "chain"
	ClassNote  CollectibleClass = "note"
)

// Collectible adds Value to earnings when touched. Pos is its center.
type Collectible struct {
	Pos    physics.Vec
	Class  CollectibleClass
	Value  float64
	Active bool
}

// Circle returns the pickup circle.
func (c *Collectible) Circle() physics.Circle {
	return physics.Circle{C: c.Pos, R: CollectibleRadius}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
