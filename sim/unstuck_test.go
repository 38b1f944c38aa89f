package sim

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/stridesim/stride/collision"
)

func TestUnstuckLiftsEmbeddedActor(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	// Feet 10 units below the floor surface.
	f := newFrame(mgl32.Vec3{0, 0, -10})
	center := s.unstuck(f, f.center())

	assert.InDelta(t, testHalf.Z(), center.Z(), 0.01, "lifted until the feet clear the floor")
	assert.Equal(t, 0, f.StuckFrames)
}

func TestUnstuckIgnoresFreeActor(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 50})
	f.StuckFrames = 3
	center := s.unstuck(f, f.center())

	assert.Equal(t, f.center(), center)
	assert.Equal(t, 0, f.StuckFrames, "a clear position resets the counter")
}

func TestUnstuckToleratesShallowOverlap(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, p)

	// Embedded less than the allowed penetration: left alone.
	f := newFrame(mgl32.Vec3{0, 0, -p.AllowedPenetration / 2})
	center := s.unstuck(f, f.center())
	assert.Equal(t, f.center(), center)
}

func TestUnstuckCountsHopelessFrames(t *testing.T) {
	w := collision.NewWorld(256)
	// Two deep slabs squeezing the actor from both sides with opposite
	// rejections; their shallowest axes are horizontal, so the vertical
	// fallback nudge changes nothing either.
	w.AddBox(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{30, 1000, 1000}, collision.LayerStatic, uuid.New())
	w.AddBox(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{30, 1000, 1000}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, -testHalf.Z()})
	start := f.center()
	f.LastStuckPos = f.Position

	center := s.unstuck(f, start)
	assert.Equal(t, start, center, "no candidate improved anything")
	assert.Equal(t, 1, f.StuckFrames)

	center = s.unstuck(f, center)
	assert.Equal(t, start, center)
	assert.Equal(t, 2, f.StuckFrames)
}

func TestUnstuckReArmsAfterRelocation(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	w.AddBox(mgl32.Vec3{-5, 0, 0}, mgl32.Vec3{30, 1000, 1000}, collision.LayerStatic, uuid.New())
	w.AddBox(mgl32.Vec3{5, 0, 0}, mgl32.Vec3{30, 1000, 1000}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, p)

	// Abandoned during an earlier episode somewhere else entirely.
	f := newFrame(mgl32.Vec3{0, 0, -testHalf.Z()})
	f.StuckFrames = p.StuckAbandonFrames + 5
	f.LastStuckPos = mgl32.Vec3{500, 0, 0}

	s.unstuck(f, f.center())

	assert.Equal(t, 1, f.StuckFrames, "a fresh episode starts counting from one")
	assert.Equal(t, f.Position, f.LastStuckPos)
}

func TestSolveRecoversEmbeddedActor(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, p)

	// Spawned with the feet wedged into the floor and trying to walk out;
	// a few steps later the actor stands on it normally.
	f := newFrame(mgl32.Vec3{0, 0, -8})
	f.Movement = mgl32.Vec3{0, 50, 0}
	advance(s, f, Context{}, 10)

	assert.True(t, f.OnGround)
	assert.InDelta(t, p.GroundOffset, f.Position.Z(), 0.05)
	assert.Equal(t, 0, f.StuckFrames)
}
