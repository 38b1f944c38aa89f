package collision

import "github.com/go-gl/mathgl/mgl32"

// TraceResult reports the outcome of a sweep or ray cast. Fraction is the
// portion of the motion traveled before obstruction: 0 means no movement at
// all, 1 means the full motion completed unobstructed.
type TraceResult struct {
	Fraction float32
	// EndPos is the shape center at the moment of the hit (or the requested
	// end position when nothing was hit).
	EndPos mgl32.Vec3
	// HitPos is the contact point on the struck surface.
	HitPos mgl32.Vec3
	Normal mgl32.Vec3
	Layer  Layer
	Body   Handle
}

func (r TraceResult) DidHit() bool {
	return r.Body.Valid()
}

// Contact is a single overlap between a probe shape and a body.
type Contact struct {
	Body  Handle
	Layer Layer
	// Depth is the penetration depth along the smallest separating axis.
	Depth float32
	// Rejection is the displacement that would push the probe out of the body.
	Rejection mgl32.Vec3
}
