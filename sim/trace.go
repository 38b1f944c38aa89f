package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/stridesim/stride/collision"
)

// World is the slice of the collision query engine the solver consumes.
// *collision.World satisfies it; tests may substitute their own.
type World interface {
	SweepBox(from, to, half mgl32.Vec3, mask collision.Mask, exclude ...collision.Handle) collision.TraceResult
	RayCast(from, to mgl32.Vec3, mask collision.Mask, exclude ...collision.Handle) collision.TraceResult
	OverlapBox(center, half mgl32.Vec3, mask collision.Mask, exclude ...collision.Handle) []collision.Contact
	Transform(h collision.Handle) (mgl32.Vec3, bool)
}

// Tracer issues collision probes on behalf of one actor, excluding the
// actor's own body and classifying what was hit.
type Tracer struct {
	World World
}

// traceAttempts bounds how many blocking actors a single trace will step
// through before giving up and reporting the last one.
const traceAttempts = 4

// Trace sweeps the actor's collision box from one center position to another.
// Overlapping actors get the legacy capsule approximation: both are treated
// as cylinders that only collide while moving toward each other, so actors
// clipping through each other can still walk apart.
func (t Tracer) Trace(f *ActorFrame, from, to mgl32.Vec3, mask collision.Mask) collision.TraceResult {
	exclude := []collision.Handle{f.Self}
	var res collision.TraceResult
	for i := 0; i < traceAttempts; i++ {
		res = t.World.SweepBox(from, to, f.HalfExtents, mask, exclude...)
		if !res.DidHit() || res.Layer != collision.LayerActor {
			return res
		}

		if res.Fraction > 0 {
			// A clean hit from outside always blocks; only boxes already
			// interpenetrating get the cylinder treatment.
			return res
		}

		other, ok := t.World.Transform(res.Body)
		if !ok {
			// Destroyed between the query and the lookup; absent bodies
			// never obstruct.
			exclude = append(exclude, res.Body)
			continue
		}
		toOther := other.Sub(from)
		motion := to.Sub(from)
		toOther[2], motion[2] = 0, 0
		if motion.Dot(toOther) > 0 {
			return res
		}
		// Moving apart; pass through.
		exclude = append(exclude, res.Body)
	}
	return res
}

// Ground is a classified ground probe result.
type Ground struct {
	Hit      bool
	Pos      mgl32.Vec3
	Normal   mgl32.Vec3
	Body     collision.Handle
	Layer    collision.Layer
	Walkable bool
	// FromRay marks results recovered by the thin backup ray, used when the
	// full-volume sweep starts embedded in geometry.
	FromRay bool
}

// FindGround probes downward from the given box center by at most drop. The
// full box sweep is backed up by a thin ray cast: spawn points sometimes
// intersect geometry when the whole bounding volume is considered, and the
// ray still finds the surface below.
func (t Tracer) FindGround(f *ActorFrame, center mgl32.Vec3, drop float32, p Params) Ground {
	down := center.Sub(mgl32.Vec3{0, 0, drop})
	res := t.Trace(f, center, down, collision.MaskMovement)
	if !res.DidHit() {
		return Ground{}
	}
	if res.Fraction > 0 {
		return Ground{
			Hit:      true,
			Pos:      res.HitPos,
			Normal:   res.Normal,
			Body:     res.Body,
			Layer:    res.Layer,
			Walkable: p.Walkable(res.Normal),
		}
	}

	// The sweep started solid. The thin ray usually clears whatever the box
	// volume clips and still reaches the surface below the feet.
	rayTo := center.Sub(mgl32.Vec3{0, 0, drop + f.HalfExtents.Z()})
	ray := t.World.RayCast(center, rayTo, collision.MaskWorld, f.Self)
	if !ray.DidHit() {
		// Embedded with nothing below: report the overlap itself.
		return Ground{
			Hit:      true,
			Pos:      res.HitPos,
			Normal:   res.Normal,
			Body:     res.Body,
			Layer:    res.Layer,
			Walkable: p.Walkable(res.Normal),
		}
	}
	return Ground{
		Hit:      true,
		Pos:      ray.HitPos,
		Normal:   ray.Normal,
		Body:     ray.Body,
		Layer:    ray.Layer,
		Walkable: p.Walkable(ray.Normal),
		FromRay:  true,
	}
}
