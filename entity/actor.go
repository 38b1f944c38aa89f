package entity

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/collision"
)

// Actor is a kinematic entity driven by the movement solver: players, NPCs
// and creatures.
type Actor struct {
	Entity

	// halfExtents is the authored collision box, before scaling.
	halfExtents mgl32.Vec3
	// scaledHalfExtents is the collision box actually swept.
	scaledHalfExtents mgl32.Vec3
	// renderHalfExtents uses the render scale, which may differ from the
	// collision scale for visual-only growth.
	renderHalfExtents mgl32.Vec3
	// meshOffset translates from the reported entity position to the
	// collision box, for meshes whose origin is not at the box base.
	meshOffset mgl32.Vec3
	scale      mgl32.Vec3
	// rotation is yaw then pitch, radians.
	rotation mgl32.Vec2
	// movement is the desired local velocity set by the game each frame. It
	// persists across fixed steps until changed, unlike queued velocity.
	movement mgl32.Vec3

	// inertia carries residual momentum across steps: jump arcs, slide
	// momentum, accumulated gravity.
	inertia mgl32.Vec3
	// slowFall scales gravity accumulation and damps horizontal inertia;
	// 1 means normal falling.
	slowFall float32

	onGround       bool
	onSlope        bool
	walkingOnWater bool
	canWaterWalk   bool
	flying         bool
	dead           bool

	// internalCollision: whether the actor itself collides with the world.
	// Off means noclip-style movement.
	internalCollision bool
	// externalCollision: whether other entities collide with this actor.
	// Off for corpses and ghosts.
	externalCollision bool

	// standingOn is the body this actor currently rests upon, if any.
	standingOn collision.Handle

	// stuckFrames counts consecutive steps spent embedded in geometry;
	// lastStuckPos is where the embedding was first observed.
	stuckFrames  int
	lastStuckPos mgl32.Vec3
}

// NewActor creates an actor at the given feet position. The handle must
// reference a box body already registered for it.
func NewActor(ref uuid.UUID, handle collision.Handle, position, halfExtents, meshOffset mgl32.Vec3) *Actor {
	return &Actor{
		Entity:            newEntity(ref, handle, position),
		halfExtents:       halfExtents,
		scaledHalfExtents: halfExtents,
		renderHalfExtents: halfExtents,
		meshOffset:        meshOffset,
		scale:             mgl32.Vec3{1, 1, 1},
		slowFall:          1,
		internalCollision: true,
		externalCollision: true,
	}
}

// HalfExtents returns the scaled collision half extents.
func (a *Actor) HalfExtents() mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scaledHalfExtents
}

// OriginalHalfExtents returns the authored, unscaled half extents.
func (a *Actor) OriginalHalfExtents() mgl32.Vec3 {
	return a.halfExtents
}

// RenderHalfExtents returns the half extents under the render scale.
func (a *Actor) RenderHalfExtents() mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.renderHalfExtents
}

// MeshOffset returns the mesh-to-collision-box translation.
func (a *Actor) MeshOffset() mgl32.Vec3 {
	return a.meshOffset
}

// Scale returns the collision scale vector.
func (a *Actor) Scale() mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scale
}

// ApplyScale updates the scale and recomputes the half extents. The caller is
// responsible for rebuilding the collision body to match; the shape itself is
// never mutated in place.
func (a *Actor) ApplyScale(scale, renderScale mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scale = scale
	a.scaledHalfExtents = mgl32.Vec3{
		a.halfExtents.X() * scale.X(),
		a.halfExtents.Y() * scale.Y(),
		a.halfExtents.Z() * scale.Z(),
	}
	a.renderHalfExtents = mgl32.Vec3{
		a.halfExtents.X() * renderScale.X(),
		a.halfExtents.Y() * renderScale.Y(),
		a.halfExtents.Z() * renderScale.Z(),
	}
}

// Rotation returns yaw and pitch in radians.
func (a *Actor) Rotation() mgl32.Vec2 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rotation
}

func (a *Actor) SetRotation(rotation mgl32.Vec2) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rotation = rotation
}

// Movement returns the desired local velocity: X strafe, Y forward, Z
// vertical, in units/s.
func (a *Actor) Movement() mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.movement
}

func (a *Actor) SetMovement(movement mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.movement = movement
}

// Inertia returns the residual momentum vector.
func (a *Actor) Inertia() mgl32.Vec3 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inertia
}

func (a *Actor) SetInertia(inertia mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inertia = inertia
}

// SlowFall returns the gravity multiplier; below 1 the actor falls slowly.
func (a *Actor) SlowFall() float32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.slowFall
}

func (a *Actor) SetSlowFall(factor float32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.slowFall = factor
}

func (a *Actor) OnGround() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onGround
}

func (a *Actor) OnSlope() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.onSlope
}

func (a *Actor) WalkingOnWater() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.walkingOnWater
}

// SetGroundState commits the solver's ground classification.
func (a *Actor) SetGroundState(onGround, onSlope, walkingOnWater bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onGround = onGround
	a.onSlope = onSlope
	a.walkingOnWater = walkingOnWater
}

func (a *Actor) CanWaterWalk() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.canWaterWalk
}

func (a *Actor) SetCanWaterWalk(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.canWaterWalk = ok
}

func (a *Actor) Flying() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flying
}

func (a *Actor) SetFlying(flying bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flying = flying
}

func (a *Actor) Dead() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dead
}

func (a *Actor) SetDead(dead bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.dead = dead
}

// InternalCollision reports whether the actor collides with the world.
func (a *Actor) InternalCollision() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.internalCollision
}

func (a *Actor) SetInternalCollision(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.internalCollision = ok
}

// ExternalCollision reports whether other entities collide with this actor.
func (a *Actor) ExternalCollision() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.externalCollision
}

func (a *Actor) SetExternalCollision(ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.externalCollision = ok
}

// StandingOn returns the body this actor rests upon, or NoHandle.
func (a *Actor) StandingOn() collision.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.standingOn
}

func (a *Actor) SetStandingOn(h collision.Handle) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.standingOn = h
}

// StuckState returns the consecutive stuck-frame count and the position where
// the embedding was first observed.
func (a *Actor) StuckState() (int, mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stuckFrames, a.lastStuckPos
}

func (a *Actor) SetStuckState(frames int, pos mgl32.Vec3) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stuckFrames = frames
	a.lastStuckPos = pos
}
