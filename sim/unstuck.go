package sim

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/stridesim/stride/collision"
)

// unstuck resolves an actor that starts the step embedded in world geometry.
// It measures the total penetration at the current center, tries a handful of
// candidate nudges and keeps the first that strictly reduces it. An actor
// that has been stuck for too many consecutive frames without real movement
// is abandoned in place until something external relocates it.
func (s *Solver) unstuck(f *ActorFrame, center mgl32.Vec3) mgl32.Vec3 {
	p := s.Params

	contacts := s.Tracer.World.OverlapBox(center, f.HalfExtents, collision.MaskUnstuck, f.Self)
	depth := totalDepth(contacts, p)
	if depth <= 0 {
		f.StuckFrames = 0
		return center
	}

	if f.StuckFrames > 0 && f.Position.Sub(f.LastStuckPos).Len() >= p.StuckMoveTolerance {
		// Moved since the episode started; whatever this is, it is a new one.
		f.StuckFrames = 0
	}
	if f.StuckFrames >= p.StuckAbandonFrames {
		// The geometry has no room and the actor is not being moved by
		// anything; stop burning overlap probes on it.
		f.StuckFrames++
		return center
	}

	for _, nudge := range s.unstuckCandidates(contacts) {
		moved := center.Add(nudge)
		after := s.Tracer.World.OverlapBox(moved, f.HalfExtents, collision.MaskUnstuck, f.Self)
		if totalDepth(after, p) < depth {
			f.StuckFrames = 0
			return moved
		}
	}

	if f.StuckFrames == 0 {
		f.LastStuckPos = f.Position
	}
	f.StuckFrames++
	return center
}

// unstuckCandidates builds the nudges to try, in order: the summed contact
// rejection clamped to the maximum nudge, its vertical component alone, and
// a fixed upward hop for floors whose rejection cancels out sideways.
func (s *Solver) unstuckCandidates(contacts []collision.Contact) []mgl32.Vec3 {
	p := s.Params

	var sum mgl32.Vec3
	for _, c := range contacts {
		sum = sum.Add(c.Rejection)
	}

	candidates := make([]mgl32.Vec3, 0, 3)
	if l := sum.Len(); l > 1e-6 {
		if l > p.MaxUnstuckNudge {
			sum = sum.Mul(p.MaxUnstuckNudge / l)
		}
		candidates = append(candidates, sum)
		if sum.Z() > 1e-6 {
			candidates = append(candidates, mgl32.Vec3{0, 0, sum.Z()})
		}
	}
	return append(candidates, mgl32.Vec3{0, 0, p.VerticalNudge})
}

// totalDepth sums the penetration beyond the allowed tolerance. Zero means
// the position is acceptable as-is.
func totalDepth(contacts []collision.Contact, p Params) float32 {
	var total float32
	for _, c := range contacts {
		if d := c.Depth - p.AllowedPenetration; d > 0 {
			total += d
		}
	}
	return total
}
