package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/stridesim/stride/collision"
)

// ActorFrame is one actor's data for one simulation step. The snapshot fields
// are copied from the actor when the step begins and never read by anyone
// else; the solver mutates only its own frame, which is what lets many frames
// be solved concurrently against the shared collision world.
type ActorFrame struct {
	// Self is the actor's own body, excluded from its queries.
	Self collision.Handle

	// Position is the feet position at step start; the solver advances it.
	Position mgl32.Vec3
	// Rotation is yaw then pitch, radians.
	Rotation mgl32.Vec2
	// Movement is the desired local velocity: X strafe, Y forward, Z
	// vertical, in units/s.
	Movement mgl32.Vec3
	// QueuedVelocity is the world-space velocity queued on the entity since
	// the last step, drained once into this frame. It is applied as-is,
	// independent of the actor's facing.
	QueuedVelocity mgl32.Vec3
	// HalfExtents of the collision box, already scaled.
	HalfExtents mgl32.Vec3
	// MeshOffset translates the entity position to the collision box base.
	MeshOffset mgl32.Vec3

	SlowFall      float32
	SwimLevel     float32
	WasOnGround   bool
	WasOnSlope    bool
	IsDead        bool
	Flying        bool
	Swimming      bool
	WaterWalking  bool
	SkipCollision bool

	StuckFrames  int
	LastStuckPos mgl32.Vec3

	// Solver outputs.
	Inertia        mgl32.Vec3
	Velocity       mgl32.Vec3
	OnGround       bool
	OnSlope        bool
	WalkingOnWater bool
	StandingOn     collision.Handle
	Pushes         []Push
	Iterations     int
}

// Push is an impulse owed to a dynamic body hit during this frame's sweeps.
// Pushes are collected during the solve and applied serially at commit so
// concurrent frames never write shared state.
type Push struct {
	Body    collision.Handle
	Impulse mgl32.Vec3
}

// Reset clears the frame for reuse from a pool.
func (f *ActorFrame) Reset() {
	pushes := f.Pushes[:0]
	*f = ActorFrame{Pushes: pushes}
}

// attemptedMove reports whether any movement was requested this step, either
// as local intent or as a queued world-space velocity.
func (f *ActorFrame) attemptedMove() bool {
	return f.Movement.LenSqr() > degenerateLenSqr || f.QueuedVelocity.LenSqr() > degenerateLenSqr
}

// center returns the collision box center for the current position: the
// reported position shifted by the mesh offset and up by the half height.
func (f *ActorFrame) center() mgl32.Vec3 {
	c := f.Position.Add(f.MeshOffset)
	c[2] += f.HalfExtents.Z()
	return c
}

// setCenter publishes a collision box center back as a feet position.
func (f *ActorFrame) setCenter(c mgl32.Vec3) {
	c[2] -= f.HalfExtents.Z()
	f.Position = c.Sub(f.MeshOffset)
}
