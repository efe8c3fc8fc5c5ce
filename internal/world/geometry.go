package world

import "github.com/MJE43/freefall-wager/internal/physics"

// World dimensions. Y grows downward from the sky (0) to the ground line.
const (
	ScreenW = 1920.0
	ScreenH = 1200.0

	Height       = 20000.0
	GroundHeight = 700.0
	GroundY      = Height - GroundHeight
	// GroundTop is where ground decorations and multipliers sit.
	GroundTop = 18800.0

	Deadzone      = 1500.0
	ReuseDistance = 1500.0
	// RecycleEvery is the recycling cadence in frames.
	RecycleEvery = 30
)

// Start is the body's centroid when a round begins: the center of the
// first screen.
var Start = physics.V(ScreenW/2, ScreenH/2)

// Cloud variants.
const (
	Cloud1W = 320 * 1.7
	Cloud1H = 160 * 1.7
	Cloud2W = 325 * 1.5
	Cloud2H = 217 * 1.5

	CloudCheckRange = 900.0
)

// cloudCircle is a sub-circle in cloud-normalized coordinates; R is a
// fraction of the cloud width.
type cloudCircle struct {
	X, Y, R float64
}

var cloud1Circles = [CloudCircles]cloudCircle{
	{0.1329, 0.6750, 0.0922},
	{0.2251, 0.5125, 0.1094},
	{0.2689, 0.6750, 0.0594},
	{0.3986, 0.3781, 0.1266},
	{0.3830, 0.7219, 0.0797},
	{0.5189, 0.7219, 0.0750},
	{0.6237, 0.5312, 0.1141},
	{0.7331, 0.7031, 0.0891},
	{0.7862, 0.5844, 0.0610},
	{0.8581, 0.6531, 0.0703},
}

var cloud2Circles = [CloudCircles]cloudCircle{
	{0.1508, 0.7857, 0.0892},
	{0.2169, 0.6912, 0.0692},
	{0.3646, 0.5622, 0.1308},
	{0.2338, 0.7926, 0.0862},
	{0.3862, 0.8641, 0.0877},
	{0.5277, 0.6336, 0.0477},
	{0.5138, 0.8433, 0.0738},
	{0.6385, 0.6935, 0.1092},
	{0.6062, 0.8525, 0.0462},
	{0.7108, 0.8088, 0.1015},
}

// CloudCircles is the number of sub-circles per cloud.
const CloudCircles = 10

// Hazards.
const (
	HazardW = 280 * 1.5
	HazardH = 187 * 1.5
)

// HazardRects is the number of grab rects per hazard.
const HazardRects = 4

var hazardRects = [HazardRects]physics.Rect{
	{X: 0.4178571, Y: 0.1925134, W: 0.1892857, H: 0.0855615},
	{X: 0.2964286, Y: 0.2780749, W: 0.4321429, H: 0.1176471},
	{X: 0.2071429, Y: 0.3957219, W: 0.5857143, H: 0.0802139},
	{X: 0.1250000, Y: 0.4759358, W: 0.7714286, H: 0.2139037},
}

// Portals.
const (
	PortalSize   = 300.0
	PortalRadius = 100.0
)

// Ground multipliers.
const (
	TankW      = 500.0
	TankH      = 375.0
	TankFactor = 5.0
	TankY      = GroundTop + 150

	CampW      = 800.0
	CampH      = 600.0
	CampFactor = 50.0
	CampY      = GroundTop

	MultiplierCheckRange = 2000.0
)

// Pushables.
const (
	PushableSize        = 550.0
	PushableRadius      = 150.0
	PushableCheckRange  = 1000.0
	PushablePhysicsDist = 1500.0
	PushableFriction    = 0.95
	PushableRestSpeed   = 0.1
)

// Collectibles.
const (
	CollectibleRadius = 85.0
	ChainShare        = 0.4
	ChainValue        = 1.5
	NoteValue         = 2.5
)
