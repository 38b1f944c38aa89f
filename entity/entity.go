package entity

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/collision"
)

// Entity is the physical presence of a game object: its identity ref, its
// collision body handle and its position history. An Entity exists exactly as
// long as its body is registered in the collision world.
type Entity struct {
	// mu protects all the following fields for readers outside the
	// scheduler's step. During a step the scheduler is the sole writer.
	mu sync.Mutex
	// ref is the identity of the owning game object.
	ref uuid.UUID
	// handle is the opaque collision body reference.
	handle collision.Handle
	// position is the current committed position.
	position mgl32.Vec3
	// lastPosition is the previously committed position, kept for render
	// interpolation.
	lastPosition mgl32.Vec3
	// simPosition is the position the simulation works from; it may lag one
	// step behind position during transitions.
	simPosition mgl32.Vec3
	// velocity accumulates queued desired velocities and is drained once per
	// step.
	velocity mgl32.Vec3
}

func newEntity(ref uuid.UUID, handle collision.Handle, position mgl32.Vec3) Entity {
	return Entity{
		ref:          ref,
		handle:       handle,
		position:     position,
		lastPosition: position,
		simPosition:  position,
	}
}

// Ref returns the identity of the owning game object.
func (e *Entity) Ref() uuid.UUID {
	return e.ref
}

// Handle returns the collision body handle.
func (e *Entity) Handle() collision.Handle {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.handle
}

// SetHandle swaps the collision body handle. Used when the body is rebuilt,
// e.g. after a scale change.
func (e *Entity) SetHandle(h collision.Handle) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handle = h
}

// Position returns the current committed position.
func (e *Entity) Position() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// LastPosition returns the previously committed position.
func (e *Entity) LastPosition() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastPosition
}

// SimPosition returns the position the simulation last worked from.
func (e *Entity) SimPosition() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.simPosition
}

// Move commits a new position, rolling the current one into lastPosition.
func (e *Entity) Move(pos mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastPosition = e.position
	e.position = pos
	e.simPosition = pos
}

// Teleport moves the entity without keeping interpolation history.
func (e *Entity) Teleport(pos mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastPosition = pos
	e.position = pos
	e.simPosition = pos
}

// QueueVelocity adds a world-space velocity to the accumulator. The next step
// drains it and applies it as-is, independent of the entity's facing.
func (e *Entity) QueueVelocity(vel mgl32.Vec3) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.velocity = e.velocity.Add(vel)
}

// DrainVelocity returns the accumulated desired velocity and clears it.
func (e *Entity) DrainVelocity() mgl32.Vec3 {
	e.mu.Lock()
	defer e.mu.Unlock()
	vel := e.velocity
	e.velocity = mgl32.Vec3{}
	return vel
}
