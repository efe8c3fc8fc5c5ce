package physics

// Tuning holds the body and contact constants. Values are per 60 Hz frame.
type Tuning struct {
	Mass          float64 `yaml:"mass"`
	InertiaRadius float64 `yaml:"inertia_radius"`
	MuKinetic     float64 `yaml:"mu_kinetic"`
	MaxSpin       float64 `yaml:"max_spin"`
	Slop          float64 `yaml:"slop"`
	Percent       float64 `yaml:"percent"`
	MaxCorrection float64 `yaml:"max_correction"`

	Gravity         float64 `yaml:"gravity"`
	MaxFall         float64 `yaml:"max_fall"`
	AirFriction     float64 `yaml:"air_friction"`
	GroundFriction  float64 `yaml:"ground_friction"`
	AirSpinDecay    float64 `yaml:"air_spin_decay"`
	GroundSpinDecay float64 `yaml:"ground_spin_decay"`

	// Ground plane response.
	RestSpeed        float64 `yaml:"rest_speed"`
	GroundBounceDamp float64 `yaml:"ground_bounce_damp"`
	MaxBounce        float64 `yaml:"max_bounce"`
	BounceSpinDecay  float64 `yaml:"bounce_spin_decay"`
	SettleSlide      float64 `yaml:"settle_slide"`
	SettleSpinDecay  float64 `yaml:"settle_spin_decay"`
}

// Body dimensions. The body is anchored at the center of a 1920×1200 view.
const (
	BodyW = 160.0
	BodyH = 240.0
)

// DefaultTuning returns the base-mode constants.
func DefaultTuning() Tuning {
	return Tuning{
		Mass:          2.0,
		InertiaRadius: BodyW * 0.45,
		MuKinetic:     0.08,
		MaxSpin:       0.05,
		Slop:          1.5,
		Percent:       0.45,
		MaxCorrection: 8,

		Gravity:         0.55,
		MaxFall:         22,
		AirFriction:     0.95,
		GroundFriction:  0.2,
		AirSpinDecay:    0.989,
		GroundSpinDecay: 0.35,

		RestSpeed:        0.4,
		GroundBounceDamp: 0.65,
		MaxBounce:        14,
		BounceSpinDecay:  0.85,
		SettleSlide:      0.85,
		SettleSpinDecay:  0.6,
	}
}

// Inertia returns the moment of inertia used by contact impulses.
func (t Tuning) Inertia() float64 {
	return 2.5 * t.InertiaRadius * t.InertiaRadius
}

// Restitution maps an impact speed to a bounce coefficient. The table is
// deliberately not monotonic: the top band drops back to 0.5.
func Restitution(speed float64) float64 {
	s := speed
	if s < 0 {
		s = -s
	}
	if s > 40 {
		s = 40
	}
	switch {
	case s < 1:
		return 0
	case s < 8:
		return 0.1
	case s < 14:
		return 0.3
	case s < 22:
		return 0.5
	case s < 30:
		return 0.6
	default:
		return 0.5
	}
}
