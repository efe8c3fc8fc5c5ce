package round

import (
	"math"

	"github.com/MJE43/freefall-wager/internal/physics"
	"github.com/MJE43/freefall-wager/internal/world"
)

// collision reports what the resolver passes changed about control flow.
type collision int

const (
	collisionNone collision = iota
	// collisionGrab and collisionPortal end the frame early.
	collisionGrab
	collisionPortal
)

// resolveCollisions runs every pass in the fixed order: clouds, hazards,
// portals, ground multipliers, pushables, ground plane. It records
// r.onGround.
func (s *Sim) resolveCollisions(r *Round) collision {
	if !r.ZeroPayout() {
		s.collideClouds()
	}
	if s.collideHazards(r) {
		return collisionGrab
	}
	if !r.ZeroPayout() && s.collidePortals(r) {
		return collisionPortal
	}
	s.collideMultipliers(r)
	s.collidePushables()

	g := s.Body.ResolveGround(world.GroundY)
	r.onGround = g.OnGround
	return collisionNone
}

// collideClouds gathers every sub-circle contact of nearby clouds and
// resolves them as one averaged contact.
func (s *Sim) collideClouds() {
	contacts := s.contacts[:0]
	colliders := s.Body.Colliders()
	for i := range s.World.Clouds {
		c := &s.World.Clouds[i]
		if !c.Active || math.Abs(c.Pos.Y-s.Body.Pos.Y) > world.CloudCheckRange {
			continue
		}
		for _, sub := range c.Circles {
			for _, bc := range colliders {
				if ct, ok := physics.CircleContact(bc, sub); ok {
					contacts = append(contacts, ct)
				}
			}
		}
	}
	s.contacts = contacts
	if avg, ok := physics.Average(contacts); ok {
		s.Body.ApplyContact(avg)
	}
}

// collideHazards starts a grab on the first hazard rect touched.
func (s *Sim) collideHazards(r *Round) bool {
	if r.grab.active {
		return false
	}
	colliders := s.Body.Colliders()
	for i := range s.World.Hazards {
		h := &s.World.Hazards[i]
		if !h.Active || math.Abs(h.Pos.Y-s.Body.Pos.Y) > world.CloudCheckRange {
			continue
		}
		for _, rect := range h.Rects {
			for _, bc := range colliders {
				if physics.CircleRectOverlaps(bc, rect, 0) {
					s.startGrab(r, i)
					return true
				}
			}
		}
	}
	return false
}

// collidePortals starts the bonus entry transition on portal contact.
func (s *Sim) collidePortals(r *Round) bool {
	colliders := s.Body.Colliders()
	for i := range s.World.Portals {
		p := &s.World.Portals[i]
		if !p.Active {
			continue
		}
		pc := p.Circle()
		if math.Abs(pc.C.Y-s.Body.Pos.Y) > world.CloudCheckRange {
			continue
		}
		for _, bc := range colliders {
			if physics.CircleOverlaps(bc, pc, 0) {
				s.World.Remove(world.Ref{Kind: world.KindPortal, Index: i})
				s.enterPortal(r)
				return true
			}
		}
	}
	return false
}

// collideMultipliers applies each touched ground multiplier once.
func (s *Sim) collideMultipliers(r *Round) {
	b := s.Body
	for i := range s.World.Multipliers {
		m := &s.World.Multipliers[i]
		if !m.Active || math.Abs(m.Rect.Y-b.Pos.Y) > world.MultiplierCheckRange {
			continue
		}
		hit := false
		for _, bc := range b.Colliders() {
			if physics.CircleRectOverlaps(bc, m.Rect, MultiplierHitPadding) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}

		n, dist := b.Pos.Sub(m.Rect.Center()).Norm()
		reach := b.Tuning().InertiaRadius + math.Hypot(m.Rect.W/2, m.Rect.H/2)
		if pen := reach - dist; pen > 0 {
			b.Pos = b.Pos.Add(n.Scale(pen * MultiplierSeparation))
		}
		speed := b.Speed()
		b.Vel = b.Vel.Add(n.Scale(speed * physics.Restitution(speed) * MultiplierBounce))

		r.Earnings.Multiply(m.Factor)
		s.World.Remove(world.Ref{Kind: world.KindMultiplier, Index: i})
		s.emit(r, EventMultiplierHit, m.Factor, string(m.Class))
	}
}

// collidePushables resolves each touched pushable as its own averaged
// contact and shoves it away from the body.
func (s *Sim) collidePushables() {
	b := s.Body
	for i := range s.World.Pushables {
		p := &s.World.Pushables[i]
		if !p.Active {
			continue
		}
		pc := p.Circle()
		if math.Abs(pc.C.Y-b.Pos.Y) > world.PushableCheckRange {
			continue
		}
		contacts := s.contacts[:0]
		for _, bc := range b.Colliders() {
			if ct, ok := physics.CircleContact(bc, pc); ok {
				contacts = append(contacts, ct)
			}
		}
		s.contacts = contacts
		c, ok := physics.Average(contacts)
		if !ok {
			continue
		}

		b.ApplyImpulse(c)
		p.Vel = p.Vel.Sub(c.Normal.Scale(PushForce * PushShare))
		b.Vel = b.Vel.Add(c.Normal.Scale(PushForce * PushResistance))

		corr := c.Normal.Scale(b.Correction(c.Depth))
		b.Pos = b.Pos.Add(corr)
		p.Pos = p.Pos.Sub(corr)
	}
}
