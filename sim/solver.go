package sim

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/stridesim/stride/collision"
	"github.com/stridesim/stride/smath"
)

const (
	// minRemainingTime ends the slide loop once the leftover step time is
	// negligible.
	minRemainingTime = 1e-4
	// degenerateLenSqr guards cross products and normalizations.
	degenerateLenSqr = 1e-10
)

// Solver advances a single actor frame through one fixed step. It only reads
// the shared collision world; everything it writes lives in the frame, which
// is what makes concurrent per-actor solves safe.
type Solver struct {
	Tracer  Tracer
	Stepper Stepper
	Params  Params
}

func NewSolver(w World, p Params) *Solver {
	t := Tracer{World: w}
	return &Solver{Tracer: t, Stepper: Stepper{Tracer: t}, Params: p}
}

// Solve consumes the frame's desired movement and produces its new position,
// velocity, inertia and ground classification.
func (s *Solver) Solve(f *ActorFrame, ctx Context, dt float32) {
	if dt <= 0 {
		return
	}
	p := s.Params

	velocity := s.desiredVelocity(f, ctx)
	if f.SkipCollision {
		// Gameplay collisions off: integrate freely, no gravity, no ground.
		f.Position = f.Position.Add(velocity.Mul(dt))
		f.Velocity = velocity
		f.Inertia = mgl32.Vec3{}
		f.OnGround, f.OnSlope, f.WalkingOnWater = false, false, false
		f.StandingOn = collision.NoHandle
		return
	}

	// Sweeps operate on the collision box center; the reported position is
	// at the feet, so shift up for the solve and back down at the end.
	// Depenetration only runs for actors that asked to move: a parked
	// actor's position is authoritative, even inside geometry.
	center := f.center()
	if f.attemptedMove() {
		center = s.unstuck(f, center)
	}
	center, velocity = s.slide(f, center, velocity, dt)

	// Ground snap is skipped while still moving upward, so a fresh jump is
	// not pulled straight back onto the floor. Flying actors keep their
	// height but still learn what is underneath them.
	onGround, onSlope, onWater := false, false, false
	standingOn := collision.NoHandle
	if f.Flying {
		_, onGround, onSlope, onWater, standingOn = s.groundSnap(f, center, false)
	} else if velocity.Z() <= 0 {
		center, onGround, onSlope, onWater, standingOn = s.groundSnap(f, center, true)
	}

	// Resting, swimming and flying actors carry no inertia; airborne ones
	// accumulate gravity, scaled by their slow-fall factor.
	if (onGround && !onSlope) || f.Swimming || f.Flying {
		f.Inertia = mgl32.Vec3{}
	} else {
		f.Inertia[2] -= dt * p.Gravity * f.SlowFall
		if f.SlowFall < 1 {
			f.Inertia[0] *= f.SlowFall
			f.Inertia[1] *= f.SlowFall
		}
	}

	f.OnGround = onGround
	f.OnSlope = onSlope
	f.WalkingOnWater = onWater
	f.StandingOn = standingOn
	f.Velocity = velocity
	f.setCenter(center)
}

// desiredVelocity turns movement intent into a world-space velocity.
func (s *Solver) desiredVelocity(f *ActorFrame, ctx Context) mgl32.Vec3 {
	p := s.Params
	yaw, pitch := f.Rotation.X(), f.Rotation.Y()

	var velocity mgl32.Vec3
	if f.Flying || f.Swimming {
		// No gravity: vertical motion follows the view direction. Queued
		// velocity is already world-space and bypasses the rotation.
		velocity = smath.OrientedVector(f.Movement, yaw, pitch).Add(f.QueuedVelocity)
		if f.Swimming && f.IsDead {
			// Inert submerged actors drift toward the surface.
			head := f.center().Z() + f.HalfExtents.Z()
			if head < f.SwimLevel {
				velocity[2] = math32.Max(velocity[2], p.InertBuoyancy)
			}
		}
	} else {
		velocity = smath.YawVector(f.Movement, yaw).Add(f.QueuedVelocity)
		// Jumping while grounded converts the velocity into inertia that
		// carries across the following steps; once airborne (or sliding on a
		// slope) the stored inertia feeds back into the motion.
		capture := (velocity.Z() > 0 && f.WasOnGround && !f.WasOnSlope) ||
			(velocity.Z() > 0 && velocity.Z()+f.Inertia.Z() <= -velocity.Z() && f.WasOnSlope)
		if capture {
			f.Inertia = velocity
		} else if !f.WasOnGround || f.WasOnSlope {
			velocity = velocity.Add(f.Inertia)
		}
	}

	// A storm blowing against the motion slows it down.
	if ctx.Storm.LenSqr() > degenerateLenSqr && smath.HzDistSqr(velocity) > degenerateLenSqr && !f.Flying {
		angle := mgl32.RadToDeg(smath.AngleBetween(ctx.Storm, mgl32.Vec3{velocity.X(), velocity.Y()}))
		damp := 1 - p.StormWalkMult*(angle/175)
		velocity[0] *= damp
		velocity[1] *= damp
	}
	return velocity
}

// slide runs the iterative sweep-and-slide loop from the given box center.
func (s *Solver) slide(f *ActorFrame, center, velocity mgl32.Vec3, dt float32) (mgl32.Vec3, mgl32.Vec3) {
	p := s.Params
	orig := velocity
	remaining := dt
	gravityActive := !f.Flying && !f.Swimming && !f.WasOnGround

	// The last two slide-plane normals, newest first, for seam detection.
	var normals [2]mgl32.Vec3
	seen := 0

	f.Iterations = 0
	for iter := 0; iter < p.MaxIterations && remaining > minRemainingTime; iter++ {
		f.Iterations = iter + 1
		if velocity.LenSqr() <= degenerateLenSqr {
			break
		}

		next := center.Add(velocity.Mul(remaining))
		tr := s.Tracer.Trace(f, center, next, collision.MaskMovement)
		if !tr.DidHit() || tr.Fraction >= 1 {
			center = next
			break
		}

		// Impulse owed to a pushable prop we ran into; applied at commit.
		if tr.Layer == collision.LayerDynamic {
			f.Pushes = append(f.Pushes, Push{Body: tr.Body, Impulse: s.pushImpulse(velocity)})
		}

		// Low obstructions get the step maneuver. Other actors never do:
		// climbing onto someone's head because they stood too close reads as
		// a bug, not a feature.
		if tr.Layer != collision.LayerActor {
			obstruction := tr.HitPos.Z() - (center.Z() - f.HalfExtents.Z())
			if obstruction > 0 && obstruction < p.StepSizeUp {
				if stepped, left, ok := s.Stepper.Step(f, center, velocity, remaining, p); ok {
					// A swimmer whose step surfaces above the water rolls
					// back to the pre-step position.
					if !(f.Swimming && stepped.Z()+f.HalfExtents.Z() > f.SwimLevel) {
						center = stepped
						remaining = left
						continue
					}
				}
			}
		}

		// Slide: consume the traveled fraction and back off the surface.
		remaining *= 1 - tr.Fraction
		normal := tr.Normal
		if f.WasOnGround && normal.Z() > 0 && !p.Walkable(normal) {
			// Grounded against an unwalkable near-vertical wall: flatten the
			// normal so the actor slides along the wall instead of snagging
			// on its slight lean.
			flat := mgl32.Vec3{normal.X(), normal.Y(), 0}
			if flat.LenSqr() > degenerateLenSqr {
				normal = flat.Normalize()
			}
		}

		dir := smath.SafeNormalize(velocity)
		center = tr.EndPos.Sub(dir.Mul(p.CollisionMargin))

		newVelocity := velocity
		usedSeam := false
		if seen >= 1 && (normal.Dot(normals[0]) <= 0 || (seen >= 2 && normal.Dot(normals[1]) <= 0)) {
			// Two planes meeting at an acute angle: slide along their seam
			// rather than the rejected velocity, or a V-shaped corner will
			// snag the actor.
			seam := normal.Cross(normals[0])
			if seam.LenSqr() > degenerateLenSqr {
				seamDir := seam.Normalize()
				newVelocity = smath.Project(velocity, seamDir)

				// Probe along the bisector normal to escape the corner.
				bisector := normal.Add(normals[0])
				if bisector.LenSqr() > degenerateLenSqr {
					probeTo := center.Add(bisector.Normalize().Mul(p.CollisionMargin * 2))
					probe := s.Tracer.Trace(f, center, probeTo, collision.MaskMovement)
					center = probe.EndPos
				}
				usedSeam = true
			}
		}
		if !usedSeam && velocity.Dot(normal) < 0 {
			newVelocity = smath.Reject(velocity, normal)
		}

		// A velocity now pointing against the requested motion with a
		// mostly-vertical turn axis means we are bouncing between the walls
		// of a corner; stop instead of ping-ponging until the iteration cap.
		if newVelocity.Dot(orig) <= 0 {
			axis := smath.SafeNormalize(newVelocity.Cross(orig))
			if math32.Abs(axis.Z()) > 0.707 {
				break
			}
		}

		if gravityActive && !usedSeam && !p.Walkable(normal) {
			// Sliding must not climb slopes too steep to walk.
			newVelocity[2] = math32.Min(newVelocity[2], 0)
		}

		velocity = newVelocity
		normals[1] = normals[0]
		normals[0] = normal
		if seen < 2 {
			seen++
		}
	}
	return center, velocity
}

// pushImpulse computes the clamped impulse for a dynamic body hit at the
// given actor velocity.
func (s *Solver) pushImpulse(velocity mgl32.Vec3) mgl32.Vec3 {
	p := s.Params
	impulse := velocity.Mul(p.PushStrength)
	l := impulse.Len()
	if l <= 1e-6 {
		return mgl32.Vec3{}
	}
	if l < p.PushMinImpulse {
		return impulse.Mul(p.PushMinImpulse / l)
	}
	if l > p.PushMaxImpulse {
		return impulse.Mul(p.PushMaxImpulse / l)
	}
	return impulse
}

// groundSnap classifies and, when snap is set, snaps the actor onto the
// ground below the given box center. With snap off the center is never
// modified, only the ground state is reported.
func (s *Solver) groundSnap(f *ActorFrame, center mgl32.Vec3, snap bool) (mgl32.Vec3, bool, bool, bool, collision.Handle) {
	p := s.Params

	// A grounded actor probes deeper so stepping off a ledge does not
	// flicker the flag; an airborne one only snaps from just above the
	// surface.
	drop := 2 * p.GroundOffset
	if f.WasOnGround {
		drop += p.StepSizeDown
	}

	onGround, onSlope, onWater := false, false, false
	standingOn := collision.NoHandle

	gr := s.Tracer.FindGround(f, center, drop, p)
	if gr.Hit {
		isActor := gr.Layer == collision.LayerActor
		if isActor || gr.Walkable {
			onGround = true
		} else {
			onSlope = true
		}
		if isActor || gr.Layer == collision.LayerDynamic {
			standingOn = gr.Body
		}

		// Snap to the surface plus the ground offset. Standing on another
		// actor never forces a height change, or both would bounce. An
		// embedded actor seen only by the ray backup is relocated only
		// while it is trying to move.
		if snap && gr.Walkable && !isActor && (!gr.FromRay || f.attemptedMove()) {
			target := gr.Pos.Z() + f.HalfExtents.Z() + p.GroundOffset
			if gr.FromRay {
				// The volume sweep and the ray disagreed; re-center with a
				// short probe from above the reported surface.
				from := mgl32.Vec3{center.X(), center.Y(), gr.Pos.Z() + f.HalfExtents.Z() + p.StepSizeUp}
				to := mgl32.Vec3{from.X(), from.Y(), gr.Pos.Z() + f.HalfExtents.Z() - p.GroundOffset}
				re := s.Tracer.Trace(f, from, to, collision.MaskMovement)
				if re.DidHit() && re.Fraction > 0 {
					target = re.EndPos.Z() + p.GroundOffset
				}
			}
			center[2] = target
		}
	}

	// Water-walkers treat the water plane itself as walkable ground.
	if f.WaterWalking && !f.Swimming && !onGround {
		feet := center.Z() - f.HalfExtents.Z()
		aboveGround := !gr.Hit || gr.Pos.Z() < f.SwimLevel
		if aboveGround && feet-f.SwimLevel <= drop && feet-f.SwimLevel >= -p.GroundOffset {
			if snap {
				center[2] = f.SwimLevel + f.HalfExtents.Z() + p.GroundOffset
			}
			onGround, onSlope, onWater = true, false, true
			standingOn = collision.NoHandle
		}
	}
	return center, onGround, onSlope, onWater, standingOn
}
