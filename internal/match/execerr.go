package match

import (
	"math"
	"math/rand"

	"matchday/internal/pitch"
)

// ActionKind classifies a ball action for error modeling and event tagging.
type ActionKind uint8

const (
	ActionPass ActionKind = iota
	ActionShot
	ActionCross
	ActionFirstTouch
	ActionDribbleTouch
	ActionSave
	ActionClearance
)

func (k ActionKind) String() string {
	switch k {
	case ActionPass:
		return "pass"
	case ActionShot:
		return "shot"
	case ActionCross:
		return "cross"
	case ActionFirstTouch:
		return "first_touch"
	case ActionDribbleTouch:
		return "dribble_touch"
	case ActionSave:
		return "save"
	case ActionClearance:
		return "clearance"
	default:
		return "unknown"
	}
}

// errorProfile is the base error spread for one action kind: angle in
// degrees, distance and height as ratios around 1.0.
type errorProfile struct {
	AngleSigma  float64
	DistSigma   float64
	HeightSigma float64
}

// errorProfiles is the per-kind base sigma catalog.
var errorProfiles = map[ActionKind]errorProfile{
	ActionPass:         {AngleSigma: 3.2, DistSigma: 0.06, HeightSigma: 0.08},
	ActionShot:         {AngleSigma: 4.5, DistSigma: 0.08, HeightSigma: 0.12},
	ActionCross:        {AngleSigma: 5.0, DistSigma: 0.09, HeightSigma: 0.12},
	ActionFirstTouch:   {AngleSigma: 6.0, DistSigma: 0.12, HeightSigma: 0.10},
	ActionDribbleTouch: {AngleSigma: 4.0, DistSigma: 0.10, HeightSigma: 0.05},
	ActionSave:         {AngleSigma: 5.5, DistSigma: 0.10, HeightSigma: 0.10},
	ActionClearance:    {AngleSigma: 7.5, DistSigma: 0.14, HeightSigma: 0.15},
}

// profileFor returns the error profile for a kind, with a safe default for
// anything unknown.
func profileFor(kind ActionKind) errorProfile {
	if p, ok := errorProfiles[kind]; ok {
		return p
	}
	return errorProfile{AngleSigma: 5.0, DistSigma: 0.10, HeightSigma: 0.10}
}

// ---------------------------------------------------------------------------
// ERROR SCALING
// ---------------------------------------------------------------------------
const (
	skillDeficitWeight = 1.5
	pressureWeight     = 0.8
	fatigueWeight      = 0.6
	weakFootWeight     = 0.35

	// Decision-quality inverse multiplier clamp.
	decisionMultMin = 0.85
	decisionMultMax = 1.20

	// First-touch quality bands by control distance in meters.
	touchPerfectM = 0.5
	touchGoodM    = 1.5
	touchHeavyM   = 2.5

	// Control distance per unit of |dist_factor − 1| for first touches.
	touchControlScaleM = 8.0
)

// ErrorContext carries everything the sampler needs about the attempt.
type ErrorContext struct {
	Kind          ActionKind
	Skill         uint8 // the stat governing this action kind
	Composure     uint8
	Decisions     uint8
	Concentration uint8
	Pressure      float64 // 0 none .. 1 swarmed
	Fatigue       float64 // 0 fresh .. 1 spent
	WeakFoot      bool
	// DecisionQuality 0.5–2.0: how good the chosen option was. Better
	// decisions buy cleaner execution.
	DecisionQuality float64
}

// ExecutionError is the sampled gap between intent and outcome. Produced
// fresh per attempt, applied once, never stored.
type ExecutionError struct {
	DirAngleDeg  float64
	DistFactor   float64
	HeightFactor float64
}

// effectiveScale computes the multiplicative sigma scale for a context.
func effectiveScale(ctx ErrorContext) float64 {
	deficit := float64(100-int(ctx.Skill)) / 100
	weak := 0.0
	if ctx.WeakFoot {
		weak = 1.0
	}
	scale := 1 + skillDeficitWeight*deficit + pressureWeight*clamp01(ctx.Pressure) +
		fatigueWeight*clamp01(ctx.Fatigue) + weakFootWeight*weak

	// Calm heads shrink the spread.
	calm := float64(int(ctx.Composure)+int(ctx.Decisions)) / 200
	scale *= 1.15 - 0.3*calm

	// Concentration lapses widen it.
	scale *= 1.25 - 0.35*float64(ctx.Concentration)/100

	dq := ctx.DecisionQuality
	if dq <= 0 {
		dq = 1
	}
	scale *= clampFloat(1/dq, decisionMultMin, decisionMultMax)
	return scale
}

// SampleExecutionError draws one execution error from the engine's RNG
// stream. Three independent normal draws, one per error axis; the stream is
// shared and seeded once per match, so identical state reproduces identical
// errors.
func SampleExecutionError(rng *rand.Rand, ctx ErrorContext) ExecutionError {
	prof := profileFor(ctx.Kind)
	scale := effectiveScale(ctx)
	return ExecutionError{
		DirAngleDeg:  rng.NormFloat64() * prof.AngleSigma * scale,
		DistFactor:   1 + rng.NormFloat64()*prof.DistSigma*scale,
		HeightFactor: 1 + rng.NormFloat64()*prof.HeightSigma*scale,
	}
}

// ApplyToKick maps an intended kick (direction·speed vector plus launch
// vertical speed) to the realized one: rotate by the angle error, scale
// speed by the distance factor, scale the vertical component for shots and
// crosses with a floor at zero. Results re-quantize into fixed point.
func (e ExecutionError) ApplyToKick(kind ActionKind, intent pitch.Vec, vz pitch.Fixed) (pitch.Vec, pitch.Fixed) {
	out := intent.Rotate(e.DirAngleDeg).ScaleFloat(e.DistFactor)
	if kind == ActionShot || kind == ActionCross {
		vz = pitch.Fixed(float64(vz) * math.Max(e.HeightFactor, 0))
	}
	if vz < 0 {
		vz = 0
	}
	return out, vz
}

// TouchQuality bands a first touch by how far the ball got away.
type TouchQuality uint8

const (
	TouchPerfect TouchQuality = iota
	TouchGood
	TouchHeavy
	TouchLoose
)

func (q TouchQuality) String() string {
	switch q {
	case TouchPerfect:
		return "perfect"
	case TouchGood:
		return "good"
	case TouchHeavy:
		return "heavy"
	default:
		return "loose"
	}
}

// ControlDistanceM derives how far a first touch pushed the ball from the
// sampled distance factor.
func (e ExecutionError) ControlDistanceM() float64 {
	return math.Abs(e.DistFactor-1) * touchControlScaleM
}

// ClassifyTouch bands a control distance. The band feeds the possession
// contest: a perfect touch keeps the ball, a loose one throws it to the
// resolver.
func ClassifyTouch(controlDistM float64) TouchQuality {
	switch {
	case controlDistM < touchPerfectM:
		return TouchPerfect
	case controlDistM < touchGoodM:
		return TouchGood
	case controlDistM < touchHeavyM:
		return TouchHeavy
	default:
		return TouchLoose
	}
}

func clamp01(v float64) float64 { return clampFloat(v, 0, 1) }

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
