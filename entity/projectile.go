package entity

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/collision"
)

// Projectile is a velocity-driven free body advanced by ray sweeps each step.
type Projectile struct {
	Entity
	vel   mgl32.Vec3
	owner uuid.UUID

	hit       bool
	hitEntity uuid.UUID
	hitPos    mgl32.Vec3
}

func NewProjectile(ref uuid.UUID, handle collision.Handle, position, velocity mgl32.Vec3, owner uuid.UUID) *Projectile {
	return &Projectile{
		Entity: newEntity(ref, handle, position),
		vel:    velocity,
		owner:  owner,
	}
}

func (p *Projectile) Owner() uuid.UUID {
	return p.owner
}

func (p *Projectile) Velocity() mgl32.Vec3 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.vel
}

func (p *Projectile) SetVelocity(vel mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.vel = vel
}

// RecordHit marks the projectile as landed. A landed projectile stops being
// integrated; the hit entity may be uuid.Nil for world geometry.
func (p *Projectile) RecordHit(target uuid.UUID, pos mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hit = true
	p.hitEntity = target
	p.hitPos = pos
}

// Hit reports whether and where the projectile landed.
func (p *Projectile) Hit() (bool, uuid.UUID, mgl32.Vec3) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.hit, p.hitEntity, p.hitPos
}
