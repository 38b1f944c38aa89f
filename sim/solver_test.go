package sim

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stridesim/stride/collision"
)

const testStep = float32(1.0 / 60)

// testHalf is a human-sized collision box.
var testHalf = mgl32.Vec3{20, 20, 60}

func newFrame(feet mgl32.Vec3) *ActorFrame {
	return &ActorFrame{
		Position:    feet,
		HalfExtents: testHalf,
		SlowFall:    1,
	}
}

// withFloor adds a large slab whose top surface sits at z=0.
func withFloor(w *collision.World) collision.Handle {
	return w.AddBox(mgl32.Vec3{0, 0, -50}, mgl32.Vec3{2000, 2000, 50}, collision.LayerStatic, uuid.New())
}

// advance runs consecutive steps, feeding each step's outputs back in the way
// the scheduler would.
func advance(s *Solver, f *ActorFrame, ctx Context, steps int) {
	for i := 0; i < steps; i++ {
		s.Solve(f, ctx, testStep)
		f.WasOnGround = f.OnGround
		f.WasOnSlope = f.OnSlope
		f.Pushes = f.Pushes[:0]
	}
}

func TestFallAndLand(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 100})
	advance(s, f, Context{}, 120)

	assert.True(t, f.OnGround)
	assert.False(t, f.OnSlope)
	assert.InDelta(t, s.Params.GroundOffset, f.Position.Z(), 0.01)
	assert.Equal(t, mgl32.Vec3{}, f.Inertia)
}

func TestRestIsStable(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 100})
	advance(s, f, Context{}, 120)
	require.True(t, f.OnGround)

	before := f.Position
	advance(s, f, Context{}, 10)
	assert.InDelta(t, before.X(), f.Position.X(), 1e-3)
	assert.InDelta(t, before.Y(), f.Position.Y(), 1e-3)
	assert.InDelta(t, before.Z(), f.Position.Z(), 1e-3)
}

func TestJumpArc(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 100})
	advance(s, f, Context{}, 120)
	require.True(t, f.OnGround)

	f.Movement = mgl32.Vec3{0, 0, 200}
	s.Solve(f, Context{}, testStep)
	assert.False(t, f.OnGround, "ground snap must not swallow a jump")
	assert.Greater(t, f.Position.Z(), s.Params.GroundOffset)
	assert.Greater(t, f.Inertia.Z(), float32(180), "jump velocity became inertia")

	// Coast: the arc peaks near v^2/2g and comes back down.
	f.Movement = mgl32.Vec3{}
	f.WasOnGround = false
	peak := f.Position.Z()
	for i := 0; i < 120; i++ {
		s.Solve(f, Context{}, testStep)
		f.WasOnGround = f.OnGround
		f.WasOnSlope = f.OnSlope
		if f.Position.Z() > peak {
			peak = f.Position.Z()
		}
	}
	expected := 200 * 200 / (2 * s.Params.Gravity)
	assert.InDelta(t, expected, peak, 6)
	assert.True(t, f.OnGround, "landed again")
}

func TestAirborneGravity(t *testing.T) {
	w := collision.NewWorld(256)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 1000})
	s.Solve(f, Context{}, testStep)

	assert.InDelta(t, -s.Params.Gravity*testStep, f.Inertia.Z(), 1e-3)
	assert.False(t, f.OnGround)
}

func TestWallSlide(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	// Wall surface at x=40.
	w.AddBox(mgl32.Vec3{50, 0, 60}, mgl32.Vec3{10, 2000, 60}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{100, 100, 0}
	advance(s, f, Context{}, 60)

	// Blocked at the wall minus the box half width, still moving along it.
	assert.Less(t, f.Position.X(), float32(20.01))
	assert.Greater(t, f.Position.X(), float32(15))
	assert.Greater(t, f.Position.Y(), float32(90))
	assert.True(t, f.OnGround)
}

func TestStepUpOntoLedge(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	withFloor(w)
	// Knee-high ledge in the walking path, top at z=30, below StepSizeUp.
	w.AddBox(mgl32.Vec3{0, 150, 15}, mgl32.Vec3{200, 100, 15}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, p)

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{0, 150, 0}
	advance(s, f, Context{}, 60)

	assert.True(t, f.OnGround)
	assert.Greater(t, f.Position.Y(), float32(80), "made it onto the ledge")
	assert.InDelta(t, 30+p.GroundOffset, f.Position.Z(), 1)
}

func TestTallWallNotStepped(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	// Too tall to step, surface at y=80.
	w.AddBox(mgl32.Vec3{0, 100, 50}, mgl32.Vec3{200, 20, 50}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{0, 150, 0}
	advance(s, f, Context{}, 60)

	assert.Less(t, f.Position.Y(), float32(60.01))
	assert.InDelta(t, 1, f.Position.Z(), 0.1, "stayed on the floor")
}

func TestSteepSlopeSlides(t *testing.T) {
	w := collision.NewWorld(256)
	// 56 degree slope rising along +X, steeper than MaxSlopeAngle.
	field := &collision.HeightField{CellSize: 100, Width: 7, Depth: 7, Heights: []float32{
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
		0, 150, 300, 450, 600, 750, 900,
	}}
	w.AddHeightField(mgl32.Vec3{0, 0, 0}, field, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{400, 300, 700})
	sawSlope := false
	for i := 0; i < 120; i++ {
		s.Solve(f, Context{}, testStep)
		f.WasOnGround = f.OnGround
		f.WasOnSlope = f.OnSlope
		if f.OnSlope {
			sawSlope = true
		}
		assert.False(t, f.OnGround, "steep ground is never walkable")
	}
	assert.True(t, sawSlope)
	assert.Less(t, f.Position.X(), float32(400), "slid downhill")
}

func TestCornerDoesNotSnag(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	// Perpendicular walls meeting at (40, 40).
	w.AddBox(mgl32.Vec3{50, 0, 60}, mgl32.Vec3{10, 2000, 60}, collision.LayerStatic, uuid.New())
	w.AddBox(mgl32.Vec3{0, 50, 60}, mgl32.Vec3{2000, 10, 60}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{100, 100, 0}
	advance(s, f, Context{}, 120)

	assert.LessOrEqual(t, f.Position.X(), float32(20.01))
	assert.LessOrEqual(t, f.Position.Y(), float32(20.01))
	assert.LessOrEqual(t, f.Iterations, s.Params.MaxIterations)
	assert.Greater(t, f.Position.X(), float32(10), "still walked up to the corner")
	assert.Greater(t, f.Position.Y(), float32(10))
}

func TestSkipCollisionIntegratesFreely(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	w.AddBox(mgl32.Vec3{0, 50, 60}, mgl32.Vec3{2000, 10, 60}, collision.LayerStatic, uuid.New())
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.SkipCollision = true
	f.Movement = mgl32.Vec3{0, 100, 0}
	advance(s, f, Context{}, 60)

	assert.InDelta(t, 100, f.Position.Y(), 0.5, "walked through the wall")
	assert.InDelta(t, 1, f.Position.Z(), 1e-3, "no gravity either")
	assert.False(t, f.OnGround)
}

func TestSwimmingNoGravity(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 500})
	f.Swimming = true
	f.SwimLevel = 2000
	f.Movement = mgl32.Vec3{0, 100, 0}
	advance(s, f, Context{}, 60)

	assert.InDelta(t, 100, f.Position.Y(), 0.5)
	assert.InDelta(t, 500, f.Position.Z(), 0.5)
	assert.Equal(t, mgl32.Vec3{}, f.Inertia)
}

func TestDeadSwimmerSurfaces(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	f := newFrame(mgl32.Vec3{0, 0, 200})
	f.Swimming = true
	f.IsDead = true
	f.SwimLevel = 2000

	start := f.Position.Z()
	advance(s, f, Context{WaterLevel: 2000}, 60)
	assert.Greater(t, f.Position.Z(), start, "inert bodies drift upward")
}

func TestWaterWalking(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	s := NewSolver(w, p)

	f := newFrame(mgl32.Vec3{0, 0, 52})
	f.WaterWalking = true
	f.WasOnGround = true
	f.SwimLevel = 50
	s.Solve(f, Context{WaterLevel: 50}, testStep)

	assert.True(t, f.WalkingOnWater)
	assert.True(t, f.OnGround)
	assert.InDelta(t, 50+p.GroundOffset, f.Position.Z(), 0.01)
}

func TestStormSlowsWalking(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, p)

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{0, 100, 0}

	// Head-on storm: 180 degrees off the walk direction.
	s.Solve(f, Context{Storm: mgl32.Vec3{0, -1, 0}}, testStep)

	want := 100 * (1 - p.StormWalkMult*(180.0/175))
	assert.InDelta(t, want, f.Velocity.Y(), 0.5)
}

func TestPushRecorded(t *testing.T) {
	p := DefaultParams()
	w := collision.NewWorld(256)
	withFloor(w)
	crate := w.AddBox(mgl32.Vec3{0, 80, 30}, mgl32.Vec3{20, 20, 30}, collision.LayerDynamic, uuid.New())
	s := NewSolver(w, p)

	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Movement = mgl32.Vec3{0, 100, 0}

	var push Push
	found := false
	for i := 0; i < 60 && !found; i++ {
		s.Solve(f, Context{}, testStep)
		f.WasOnGround = f.OnGround
		f.WasOnSlope = f.OnSlope
		if len(f.Pushes) > 0 {
			push = f.Pushes[0]
			found = true
		}
		f.Pushes = f.Pushes[:0]
	}

	require.True(t, found, "walked into the crate")
	assert.Equal(t, crate, push.Body)
	assert.InDelta(t, 100*p.PushStrength, push.Impulse.Y(), 0.5)
	assert.GreaterOrEqual(t, push.Impulse.Len(), p.PushMinImpulse)
	assert.LessOrEqual(t, push.Impulse.Len(), p.PushMaxImpulse)
}

func TestStationaryEmbeddedActorHoldsStill(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	// Parked inside the floor with no movement intent: the position is
	// authoritative and must not be "repaired".
	start := mgl32.Vec3{0, 0, -10}
	f := newFrame(start)
	advance(s, f, Context{}, 5)

	assert.Equal(t, start, f.Position)
	assert.Equal(t, 0, f.StuckFrames)
}

func TestQueuedVelocityIgnoresFacing(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	// Facing a quarter turn left; a queued impulse is world-space and must
	// not rotate with the actor.
	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.WasOnGround = true
	f.Rotation = mgl32.Vec2{math32.Pi / 2, 0}
	f.QueuedVelocity = mgl32.Vec3{120, 0, 0}
	s.Solve(f, Context{}, testStep)

	assert.InDelta(t, 120*testStep, f.Position.X(), 1e-3)
	assert.InDelta(t, 0, f.Position.Y(), 1e-3)

	// The same vector as movement intent is local and does rotate.
	g := newFrame(mgl32.Vec3{0, 0, 1})
	g.WasOnGround = true
	g.Rotation = mgl32.Vec2{math32.Pi / 2, 0}
	g.Movement = mgl32.Vec3{120, 0, 0}
	s.Solve(g, Context{}, testStep)

	assert.InDelta(t, 0, g.Position.X(), 1e-3)
	assert.InDelta(t, 120*testStep, g.Position.Y(), 1e-3)
}

func TestFlyingActorReadsGround(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	s := NewSolver(w, DefaultParams())

	// Skimming just above the floor: classified as grounded, never snapped.
	f := newFrame(mgl32.Vec3{0, 0, 1})
	f.Flying = true
	f.Movement = mgl32.Vec3{0, 100, 0}
	s.Solve(f, Context{}, testStep)

	assert.True(t, f.OnGround)
	assert.InDelta(t, 1, f.Position.Z(), 1e-3, "flying actors keep their height")

	// High up there is nothing to report.
	g := newFrame(mgl32.Vec3{0, 0, 300})
	g.Flying = true
	s.Solve(g, Context{}, testStep)
	assert.False(t, g.OnGround)
}

func TestStandingOnActor(t *testing.T) {
	w := collision.NewWorld(256)
	withFloor(w)
	other := w.AddBox(mgl32.Vec3{0, 0, 60}, testHalf, collision.LayerActor, uuid.New())
	s := NewSolver(w, DefaultParams())

	// Dropped directly above the other actor's head.
	f := newFrame(mgl32.Vec3{0, 0, 200})
	advance(s, f, Context{}, 120)

	assert.True(t, f.OnGround)
	assert.Equal(t, other, f.StandingOn)
	assert.Greater(t, f.Position.Z(), float32(100), "resting on the head, not snapped through")
}
