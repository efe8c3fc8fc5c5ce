package world

import (
	"math"
	"testing"

	"github.com/MJE43/freefall-wager/internal/engine"
	"github.com/MJE43/freefall-wager/internal/physics"
)

func newTestWorld(p Profile) *World {
	return New(p, engine.NewRandSource(42))
}

func TestSpawnFillsPools(t *testing.T) {
	p := BaseProfile()
	w := newTestWorld(p)

	counts := map[Kind]int{
		KindCloud:       p.Clouds,
		KindPortal:      p.Portals,
		KindMultiplier:  p.Tanks + p.Camps,
		KindPushable:    p.Pushables,
		KindCollectible: p.Collectibles,
		KindHazard:      p.Hazards,
	}
	for kind, want := range counts {
		if got := w.Active(kind); got != want {
			t.Errorf("%s: %d active, want %d", kind, got, want)
		}
	}
}

func TestSpawnStaysInBand(t *testing.T) {
	w := newTestWorld(BaseProfile())

	for i, c := range w.Clouds {
		if c.Pos.Y < Deadzone || c.Pos.Y > GroundY-Deadzone {
			t.Fatalf("cloud %d at y=%f", i, c.Pos.Y)
		}
		if c.Pos.X < -ScreenW*5 || c.Pos.X >= ScreenW*5 {
			t.Fatalf("cloud %d at x=%f", i, c.Pos.X)
		}
		if c.Circles[0].R <= 0 {
			t.Fatalf("cloud %d has no circles", i)
		}
	}
	for i, c := range w.Collectibles {
		if c.Pos.Y < Deadzone || c.Pos.Y > GroundY-Deadzone {
			t.Fatalf("collectible %d at y=%f", i, c.Pos.Y)
		}
		switch c.Class {
		case ClassChain:
			if c.Value != ChainValue {
				t.Fatalf("chain value %f", c.Value)
			}
		case ClassNote:
			if c.Value != NoteValue {
				t.Fatalf("note value %f", c.Value)
			}
		default:
			t.Fatalf("collectible %d has class %q", i, c.Class)
		}
	}
}

func TestCollectibleClassShare(t *testing.T) {
	w := newTestWorld(ChaosProfile())
	chains := 0
	for _, c := range w.Collectibles {
		if c.Class == ClassChain {
			chains++
		}
	}
	share := float64(chains) / float64(len(w.Collectibles))
	if math.Abs(share-ChainShare) > 0.06 {
		t.Errorf("chain share %.3f, want about %.1f", share, ChainShare)
	}
}

func TestMultiplierRows(t *testing.T) {
	w := newTestWorld(BaseProfile())

	first, last := w.Multipliers[0], w.Multipliers[19]
	if first.Class != ClassTank || first.Rect.X != -ScreenW*20 || math.Abs(last.Rect.X-ScreenW*20) > 1e-6 {
		t.Errorf("tank row %+v .. %+v", first.Rect, last.Rect)
	}
	if first.Factor != TankFactor || first.Rect.Y != TankY {
		t.Errorf("tank %+v", first)
	}

	camp := w.Multipliers[20]
	step := ScreenW * 30 / 9
	if camp.Class != ClassCamp || math.Abs(camp.Rect.X-(-ScreenW*15+step/2)) > 1e-9 {
		t.Errorf("first camp %+v", camp.Rect)
	}
	if camp.Factor != CampFactor || camp.Rect.W != CampW {
		t.Errorf("camp %+v", camp)
	}
}

func TestChaosHasNoClouds(t *testing.T) {
	w := newTestWorld(ChaosProfile())
	if len(w.Clouds) != 0 {
		t.Errorf("chaos spawned %d clouds", len(w.Clouds))
	}
	if len(w.Pushables) != 1280 {
		t.Errorf("chaos pushables %d", len(w.Pushables))
	}
}

func TestRemoveIsStableAndNotRecycled(t *testing.T) {
	w := newTestWorld(BaseProfile())

	w.Remove(Ref{Kind: KindPushable, Index: 3})
	w.Pushables[3].Pos.Y = -1e6
	w.Recycle()

	if w.Pushables[3].Active {
		t.Error("removed slot revived")
	}
	if w.Pushables[3].Pos.Y != -1e6 {
		t.Error("removed slot recycled")
	}
	if len(w.Pushables) != BaseProfile().Pushables {
		t.Error("pool size changed")
	}
}

func TestRecycleWrapsDriftedEntities(t *testing.T) {
	w := newTestWorld(BaseProfile())

	w.Pushables[0].Pos.Y = GroundY + 5000
	w.Pushables[0].Vel = physics.V(3, 3)
	w.Pushables[1].Pos.Y = -5000
	w.Clouds[0].place(0, -9000)

	if n := w.Recycle(); n != 3 {
		t.Errorf("recycled %d, want 3", n)
	}

	top := Deadzone
	if y := w.Pushables[0].Pos.Y; y < top || y > top+1200 {
		t.Errorf("sunken pushable re-entered at %f", y)
	}
	if w.Pushables[0].Vel != (physics.Vec{}) {
		t.Errorf("recycled pushable kept velocity")
	}
	bottom := GroundY - Deadzone - PushableSize
	if y := w.Pushables[1].Pos.Y; y > bottom || y < bottom-1200 {
		t.Errorf("risen pushable re-entered at %f", y)
	}
	c := w.Clouds[0]
	if c.Circles[0].C.Y < c.Pos.Y {
		t.Errorf("cloud circles not rebuilt: %+v vs %+v", c.Circles[0], c.Pos)
	}
}

func TestStepPushables(t *testing.T) {
	w := newTestWorld(BaseProfile())
	p := &w.Pushables[0]
	p.Pos = physics.V(0, 5000)
	p.Vel = physics.V(10, 0)

	w.StepPushables(5000)
	if p.Pos.X != 10 || p.Vel.X != 10*PushableFriction {
		t.Errorf("pushable %+v", p)
	}

	q := &w.Pushables[1]
	q.Pos = physics.V(0, 15000)
	q.Vel = physics.V(0.05, 0)
	w.StepPushables(5000)
	if q.Pos.X != 0 {
		t.Errorf("far resting pushable moved")
	}
}

func TestReconfigureReusesCapacity(t *testing.T) {
	w := newTestWorld(ChaosProfile())
	backing := &w.Pushables[0]

	w.Reconfigure(BaseProfile())
	if len(w.Pushables) != BaseProfile().Pushables {
		t.Fatalf("pushables %d", len(w.Pushables))
	}
	if &w.Pushables[0] != backing {
		t.Error("capacity not reused")
	}
	if w.Profile() != BaseProfile() {
		t.Error("profile not updated")
	}
}
