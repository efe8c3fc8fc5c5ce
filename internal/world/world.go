// Package world holds the entity pools a round falls through.
//
// Every entity class lives in a fixed-capacity slice sized by the mode's
// Profile. Spawning assigns fields in place, recycling reassigns the
// coordinates of slots that drifted outside the playable band, and one-shot
// entities are deactivated rather than removed, so no slot ever moves and
// frame cost stays flat for the whole round.
package world

import (
	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/physics"
)

// Profile sets pool sizes for one mode.
type Profile struct {
	Clouds       int `yaml:"clouds"`
	Hazards      int `yaml:"hazards"`
	Portals      int `yaml:"portals"`
	Tanks        int `yaml:"tanks"`
	Camps        int `yaml:"camps"`
	Pushables    int `yaml:"pushables"`
	Collectibles int `yaml:"collectibles"`
}

// BaseProfile is used by base and noZero rounds.
func BaseProfile() Profile {
	return Profile{
		Clouds:       700,
		Hazards:      50,
		Portals:      20,
		Tanks:        20,
		Camps:        10,
		Pushables:    16,
		Collectibles: 600,
	}
}

// ChaosProfile drops clouds for a dense field of pushables.
func ChaosProfile() Profile {
	return Profile{
		Clouds:       0,
		Hazards:      50,
		Portals:      20,
		Tanks:        25,
		Camps:        15,
		Pushables:    1280,
		Collectibles: 1200,
	}
}

// World is the set of pools for one session. It is not safe for concurrent
// use; the round loop owns it.
type World struct {
	Clouds       []Cloud
	Hazards      []Hazard
	Portals      []Portal
	Multipliers  []Multiplier
	Pushables    []Pushable
	Collectibles []Collectible

	profile Profile
	src     engine.Source
}

// New allocates pools for profile and spawns the world.
func New(profile Profile, src engine.Source) *World {
	w := &World{src: src}
	w.allocate(profile)
	w.Spawn()
	return w
}

// Profile returns the active pool sizes.
func (w *World) Profile() Profile { return w.profile }

// Reconfigure resizes the pools for a new profile (e.g. a mode switch) and
// respawns. Capacity is reused when it suffices.
func (w *World) Reconfigure(profile Profile) {
	if profile != w.profile {
		w.allocate(profile)
	}
	w.Spawn()
}

func (w *World) allocate(p Profile) {
	w.profile = p
	w.Clouds = resize(w.Clouds, p.Clouds)
	w.Hazards = resize(w.Hazards, p.Hazards)
	w.Portals = resize(w.Portals, p.Portals)
	w.Multipliers = resize(w.Multipliers, p.Tanks+p.Camps)
	w.Pushables = resize(w.Pushables, p.Pushables)
	w.Collectibles = resize(w.Collectibles, p.Collectibles)
}

func resize[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]T, n)
}

// Spawn places every slot for a fresh round.
func (w *World) Spawn() {
	for i := range w.Clouds {
		c := &w.Clouds[i]
		c.Variant = 1
		if w.src.Float64() >= 0.5 {
			c.Variant = 2
		}
		c.place(w.randX(), w.cloudY())
		c.Active = true
	}

	for i := range w.Hazards {
		h := &w.Hazards[i]
		x, y := w.randX(), w.cloudY()
		h.place(x, y)
		h.Active = y <= GroundY-500
	}

	for i := range w.Portals {
		p := &w.Portals[i]
		p.Pos = physics.V(w.randX(), w.bandY(PortalSize))
		p.Active = true
	}

	w.spawnMultipliers()

	for i := range w.Pushables {
		p := &w.Pushables[i]
		p.Pos = physics.V(w.randX(), w.bandY(80))
		p.Vel = physics.Vec{}
		p.Active = true
	}

	for i := range w.Collectibles {
		c := &w.Collectibles[i]
		c.Class, c.Value = ClassNote, NoteValue
		if w.src.Float64() < ChainShare {
			c.Class, c.Value = ClassChain, ChainValue
		}
		c.Pos = physics.V(w.randX(), engine.Between(w.src, Deadzone, GroundY-Deadzone))
		c.Active = true
	}
}

// spawnMultipliers spaces tanks evenly over ±20 screens and camps over
// ±15 screens offset by half a step, so the two classes interleave.
func (w *World) spawnMultipliers() {
	tanks, camps := w.profile.Tanks, w.profile.Camps
	place := func(slot, i, count int, span, offset float64, class MultiplierClass, width, height, y, factor float64) {
		minX, maxX := -ScreenW*span, ScreenW*span
		step := 0.0
		if count > 1 {
			step = (maxX - minX) / float64(count-1)
		}
		w.Multipliers[slot] = Multiplier{
			Class:  class,
			Rect:   physics.Rect{X: minX + step*(float64(i)+offset), Y: y, W: width, H: height},
			Factor: factor,
			Active: true,
		}
	}
	for i := 0; i < tanks; i++ {
		place(i, i, tanks, 20, 0, ClassTank, TankW, TankH, TankY, TankFactor)
	}
	for i := 0; i < camps; i++ {
		place(tanks+i, i, camps, 15, 0.5, ClassCamp, CampW, CampH, CampY, CampFactor)
	}
}

func (w *World) randX() float64 {
	return w.src.Float64()*ScreenW*10 - ScreenW*5
}

// cloudY draws a height inside the band reserved for clouds and hazards.
func (w *World) cloudY() float64 {
	return w.bandY(maxCloudH())
}

// bandY draws a height between the top deadzone and the ground deadzone,
// leaving room for an entity of height h.
func (w *World) bandY(h float64) float64 {
	return engine.Between(w.src, Deadzone, GroundY-Deadzone-h)
}

func maxCloudH() float64 {
	if Cloud1H > Cloud2H {
		return Cloud1H
	}
	return Cloud2H
}

// Remove deactivates a slot. It stays allocated and is reused on the next
// Spawn; recycling never revives it within the round.
func (w *World) Remove(ref Ref) {
	switch ref.Kind {
	case KindCloud:
		w.Clouds[ref.Index].Active = false
	case KindHazard:
		w.Hazards[ref.Index].Active = false
	case KindPortal:
		w.Portals[ref.Index].Active = false
	case KindMultiplier:
		w.Multipliers[ref.Index].Active = false
	case KindPushable:
		w.Pushables[ref.Index].Active = false
	case KindCollectible:
		w.Collectibles[ref.Index].Active = false
	}
}

// Recycle moves active entities that drifted beyond the playable band back
// into it: an entity above the band re-enters near its bottom and one below
// re-enters near its top. It returns how many slots were reassigned.
func (w *World) Recycle() int {
	n := 0
	wrap := func(y, h float64) (float64, bool) {
		top := Deadzone
		bottom := GroundY - Deadzone - h
		switch {
		case y < top-ReuseDistance:
			return bottom - w.src.Float64()*1200, true
		case y > bottom+ReuseDistance:
			return top + w.src.Float64()*1200, true
		}
		return y, false
	}

	for i := range w.Clouds {
		c := &w.Clouds[i]
		if !c.Active {
			continue
		}
		if y, moved := wrap(c.Pos.Y, maxCloudH()); moved {
			c.place(w.randX(), y)
			n++
		}
	}
	for i := range w.Hazards {
		h := &w.Hazards[i]
		if !h.Active {
			continue
		}
		if y, moved := wrap(h.Pos.Y, HazardH); moved {
			h.place(w.randX(), y)
			n++
		}
	}
	for i := range w.Portals {
		p := &w.Portals[i]
		if !p.Active {
			continue
		}
		if _, moved := wrap(p.Pos.Y, PortalSize); moved {
			p.Pos = physics.V(w.randX(), w.bandY(PortalSize))
			n++
		}
	}
	for i := range w.Pushables {
		p := &w.Pushables[i]
		if !p.Active {
			continue
		}
		if y, moved := wrap(p.Pos.Y, PushableSize); moved {
			p.Pos = physics.V(w.randX(), y)
			p.Vel = physics.Vec{}
			n++
		}
	}
	return n
}

// StepPushables integrates pushables near focusY, and any still drifting,
// with per-frame friction.
func (w *World) StepPushables(focusY float64) {
	for i := range w.Pushables {
		p := &w.Pushables[i]
		if !p.Active {
			continue
		}
		if abs(p.Pos.Y-focusY) < PushablePhysicsDist || p.Moving() {
			p.Pos = p.Pos.Add(p.Vel)
			p.Vel = p.Vel.Scale(PushableFriction)
		}
	}
}

// Active counts live slots of kind.
func (w *World) Active(kind Kind) int {
	n := 0
	switch kind {
	case KindCloud:
		for i := range w.Clouds {
			if w.Clouds[i].Active {
				n++
			}
		}
	case KindHazard:
		for i := range w.Hazards {
			if w.Hazards[i].Active {
				n++
			}
		}
	case KindPortal:
		for i := range w.Portals {
			if w.Portals[i].Active {
				n++
			}
		}
	case KindMultiplier:
		for i := range w.Multipliers {
			if w.Multipliers[i].Active {
				n++
			}
		}
	case KindPushable:
		for i := range w.Pushables {
			if w.Pushables[i].Active {
				n++
			}
		}
	case KindCollectible:
		for i := range w.Collectibles {
			if w.Collectibles[i].Active {
				n++
			}
		}
	}
	return n
}
