package sim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Params are the movement tuning constants. World units are centimeters-ish:
// a human actor is roughly 80 units tall.
type Params struct {
	// Gravity in units/s².
	Gravity float32
	// MaxSlopeAngle in degrees; surfaces steeper than this are unwalkable.
	MaxSlopeAngle float32
	// StepSizeUp is the tallest obstruction a step maneuver can clear.
	StepSizeUp float32
	// StepSizeDown bounds the ground probe drop for a grounded actor, so
	// walking off a step edge does not flicker the on-ground flag.
	StepSizeDown float32
	// GroundOffset keeps resting actors slightly above the surface.
	GroundOffset float32
	// CollisionMargin backs a slid actor off the surface it hit.
	CollisionMargin float32
	// MaxIterations bounds the sweep-and-slide loop.
	MaxIterations int
	// InertBuoyancy is the upward drift speed of paralyzed submerged actors.
	InertBuoyancy float32
	// StormWalkMult scales how much a head-on storm slows lateral movement.
	StormWalkMult float32

	// PushStrength scales the impulse applied to dynamic bodies hit during
	// sweeps; the result is clamped into [PushMinImpulse, PushMaxImpulse].
	// A policy constant, not a derived per-entity mass.
	PushStrength   float32
	PushMinImpulse float32
	PushMaxImpulse float32

	// StuckAbandonFrames: after this many consecutive stuck frames without
	// meaningful motion, recovery is abandoned.
	StuckAbandonFrames int
	// StuckMoveTolerance is the distance the actor must move to count as
	// "moved meaningfully" while stuck.
	StuckMoveTolerance float32
	// MaxUnstuckNudge clamps a single recovery displacement.
	MaxUnstuckNudge float32
	// AllowedPenetration is how deeply an actor may overlap geometry before
	// recovery kicks in.
	AllowedPenetration float32
	// VerticalNudge is the fixed last-resort recovery displacement.
	VerticalNudge float32
}

func DefaultParams() Params {
	return Params{
		Gravity:            627.2,
		MaxSlopeAngle:      49,
		StepSizeUp:         34,
		StepSizeDown:       62,
		GroundOffset:       1,
		CollisionMargin:    0.1,
		MaxIterations:      8,
		InertBuoyancy:      25,
		StormWalkMult:      0.25,
		PushStrength:       0.25,
		PushMinImpulse:     5,
		PushMaxImpulse:     200,
		StuckAbandonFrames: 10,
		StuckMoveTolerance: 5,
		MaxUnstuckNudge:    10,
		AllowedPenetration: 1,
		VerticalNudge:      5,
	}
}

// WalkableSlopeCos is the minimum surface normal Z for a walkable surface.
func (p Params) WalkableSlopeCos() float32 {
	return math32.Cos(mgl32.DegToRad(p.MaxSlopeAngle))
}

// Walkable classifies a surface normal against the maximum slope angle.
func (p Params) Walkable(normal mgl32.Vec3) bool {
	return normal.Z() >= p.WalkableSlopeCos()
}

// Context is the per-step world context shared by all actors.
type Context struct {
	// WaterLevel is the height of the water plane.
	WaterLevel float32
	// Storm is the storm wind direction, zero when calm.
	Storm mgl32.Vec3
}
