package entity

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/collision"
)

// StaticObject is immovable world geometry registered as a single box body.
type StaticObject struct {
	Entity
	halfExtents mgl32.Vec3
}

func NewStaticObject(ref uuid.UUID, handle collision.Handle, position, halfExtents mgl32.Vec3) *StaticObject {
	return &StaticObject{
		Entity:      newEntity(ref, handle, position),
		halfExtents: halfExtents,
	}
}

func (o *StaticObject) HalfExtents() mgl32.Vec3 {
	return o.halfExtents
}

// DynamicObject is a pushable prop. It carries its own velocity, fed by
// impulses from actors that run into it, and is integrated at commit time.
type DynamicObject struct {
	Entity
	halfExtents mgl32.Vec3
	mass        float32
	vel         mgl32.Vec3
	resting     bool
}

func NewDynamicObject(ref uuid.UUID, handle collision.Handle, position, halfExtents mgl32.Vec3, mass float32) *DynamicObject {
	return &DynamicObject{
		Entity:      newEntity(ref, handle, position),
		halfExtents: halfExtents,
		mass:        mass,
	}
}

func (o *DynamicObject) HalfExtents() mgl32.Vec3 {
	return o.halfExtents
}

func (o *DynamicObject) Mass() float32 {
	return o.mass
}

func (o *DynamicObject) Velocity() mgl32.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.vel
}

func (o *DynamicObject) SetVelocity(vel mgl32.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vel = vel
	o.resting = false
}

// ApplyImpulse accelerates the object by impulse / mass.
func (o *DynamicObject) ApplyImpulse(impulse mgl32.Vec3) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.mass > 0 {
		o.vel = o.vel.Add(impulse.Mul(1 / o.mass))
	} else {
		o.vel = o.vel.Add(impulse)
	}
	o.resting = false
}

// Resting reports whether the object has come to rest on the ground.
func (o *DynamicObject) Resting() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.resting
}

func (o *DynamicObject) SetResting(resting bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.resting = resting
}
