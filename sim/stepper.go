package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/stridesim/stride/collision"
	"github.com/stridesim/stride/smath"
)

// Stepper attempts the step-up maneuver: lift, move forward, drop back down.
// The maneuver is accepted only when it makes forward progress onto walkable
// ground without introducing new obstruction.
type Stepper struct {
	Tracer Tracer
}

// minStepProgress is the minimum horizontal gain for a step to count.
const minStepProgress = 1e-3

// Step runs the maneuver from the given box center with the remaining slide
// time. On success it returns the new center and the time left after the
// forward leg.
func (s Stepper) Step(f *ActorFrame, center, velocity mgl32.Vec3, remaining float32, p Params) (mgl32.Vec3, float32, bool) {
	forward := mgl32.Vec3{velocity.X(), velocity.Y()}.Mul(remaining)
	if smath.HzDistSqr(forward) < minStepProgress*minStepProgress {
		return center, remaining, false
	}

	// Up.
	upTarget := center.Add(mgl32.Vec3{0, 0, p.StepSizeUp})
	up := s.Tracer.Trace(f, center, upTarget, collision.MaskMovement)
	lifted := up.EndPos
	if up.DidHit() && up.Fraction <= 0 {
		return center, remaining, false
	}

	// Forward.
	fwd := s.Tracer.Trace(f, lifted, lifted.Add(forward), collision.MaskMovement)
	if fwd.DidHit() && fwd.Fraction <= 0.01 {
		return center, remaining, false
	}
	landing := fwd.EndPos

	// Down: at most what we went up plus the down allowance, and only onto
	// walkable ground.
	dropDist := (lifted.Z() - center.Z()) + p.StepSizeDown
	down := s.Tracer.Trace(f, landing, landing.Sub(mgl32.Vec3{0, 0, dropDist}), collision.MaskMovement)
	if !down.DidHit() || down.Fraction <= 0 {
		return center, remaining, false
	}
	if down.Layer != collision.LayerActor && !p.Walkable(down.Normal) {
		return center, remaining, false
	}

	final := down.EndPos
	if smath.HzDistSqr(final.Sub(center)) < minStepProgress*minStepProgress {
		return center, remaining, false
	}

	left := remaining
	if fwd.DidHit() {
		left = remaining * (1 - fwd.Fraction)
	} else {
		left = 0
	}
	return final, left, true
}
