package scheduler

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/stridesim/stride/collision"
	"github.com/stridesim/stride/entity"
	"github.com/stridesim/stride/internal"
	"github.com/stridesim/stride/serror"
	"github.com/stridesim/stride/sim"
	"github.com/stridesim/stride/smath"
)

const (
	// maxCatchUpSteps bounds how many fixed steps one Step call may run when
	// the caller falls behind, so a hitch does not spiral.
	maxCatchUpSteps = 8
	// swimHeightScale is the submerged fraction of an actor's height at
	// which it counts as swimming.
	swimHeightScale = 0.89
	// eyeHeightScale places the eye point for line-of-sight rays, as a
	// fraction of full height above the feet.
	eyeHeightScale = 0.9
)

// Options configures a Scheduler. Zero values select defaults.
type Options struct {
	Params sim.Params
	// Workers is the solve pool size; 0 means one per CPU.
	Workers int
	// FixedStep is the simulation step in seconds; 0 means 1/60.
	FixedStep float32
	// LOSCacheFrames is how many epochs a line-of-sight answer stays valid.
	LOSCacheFrames uint64
	// CellSize is the broad-phase grid cell edge length.
	CellSize float32
	Logger   *zerolog.Logger
}

type removal struct {
	ref   uuid.UUID
	epoch uint64
}

// Scheduler owns the collision world and every registered entity, and
// advances them on a fixed time step. One step runs in three phases: prepare
// snapshots each actor into a private frame, dispatch solves the frames
// concurrently against the read-only world, commit writes the results back
// serially in registration order. The serial commit plus the ordered
// registries is what makes a step deterministic regardless of worker count.
type Scheduler struct {
	// mu brackets the step: writers (Step, Add*, Remove) take it exclusively,
	// game-thread queries take it shared.
	mu sync.RWMutex

	log    zerolog.Logger
	world  *collision.World
	solver *sim.Solver
	pool   *workerPool

	fixedStep float32
	accum     float32

	actors      *orderedmap.OrderedMap[uuid.UUID, *entity.Actor]
	projectiles *orderedmap.OrderedMap[uuid.UUID, *entity.Projectile]
	dynamics    *orderedmap.OrderedMap[uuid.UUID, *entity.DynamicObject]
	statics     map[uuid.UUID]*entity.StaticObject
	fields      map[uuid.UUID]*entity.HeightField
	byHandle    map[collision.Handle]uuid.UUID

	ctx   sim.Context
	epoch atomic.Uint64

	// deferred holds removal requests until the epoch they were filed in has
	// retired, so no in-flight frame ever resolves a vanished handle.
	deferred []removal
	los      *losCache
}

func New(opts Options) *Scheduler {
	if opts.FixedStep <= 0 {
		opts.FixedStep = 1.0 / 60
	}
	if opts.CellSize <= 0 {
		opts.CellSize = 256
	}
	if opts.LOSCacheFrames == 0 {
		opts.LOSCacheFrames = 5
	}
	if opts.Params == (sim.Params{}) {
		opts.Params = sim.DefaultParams()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	w := collision.NewWorld(opts.CellSize)
	return &Scheduler{
		log:         log,
		world:       w,
		solver:      sim.NewSolver(w, opts.Params),
		pool:        newWorkerPool(opts.Workers),
		fixedStep:   opts.FixedStep,
		actors:      orderedmap.NewOrderedMap[uuid.UUID, *entity.Actor](),
		projectiles: orderedmap.NewOrderedMap[uuid.UUID, *entity.Projectile](),
		dynamics:    orderedmap.NewOrderedMap[uuid.UUID, *entity.DynamicObject](),
		statics:     make(map[uuid.UUID]*entity.StaticObject),
		fields:      make(map[uuid.UUID]*entity.HeightField),
		byHandle:    make(map[collision.Handle]uuid.UUID),
		los:         newLOSCache(opts.LOSCacheFrames),
	}
}

// Close stops the worker pool. The scheduler must not be stepped afterwards.
func (s *Scheduler) Close() {
	s.pool.Close()
}

// World exposes the collision world for direct queries. It is safe for
// concurrent use; mutations should go through the scheduler instead.
func (s *Scheduler) World() *collision.World {
	return s.world
}

// FixedStep returns the simulation step length in seconds.
func (s *Scheduler) FixedStep() float32 {
	return s.fixedStep
}

// SetWaterLevel moves the global water plane.
func (s *Scheduler) SetWaterLevel(z float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.WaterLevel = z
}

// SetStorm sets the storm wind direction; zero means calm.
func (s *Scheduler) SetStorm(wind mgl32.Vec3) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx.Storm = wind
}

// AddActor registers an actor at the given feet position and creates its
// collision body.
func (s *Scheduler) AddActor(ref uuid.UUID, position, halfExtents, meshOffset mgl32.Vec3) (*entity.Actor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.actors.Get(ref); ok {
		return nil, serror.New("actor %s already registered", ref)
	}
	h := s.world.AddBox(boxCenter(position, meshOffset, halfExtents), halfExtents, collision.LayerActor, ref)
	a := entity.NewActor(ref, h, position, halfExtents, meshOffset)
	s.actors.Set(ref, a)
	s.byHandle[h] = ref
	return a, nil
}

// AddStatic registers immovable geometry. Position is the box center.
func (s *Scheduler) AddStatic(ref uuid.UUID, position, halfExtents mgl32.Vec3) (*entity.StaticObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.statics[ref]; ok {
		return nil, serror.New("static %s already registered", ref)
	}
	h := s.world.AddBox(position, halfExtents, collision.LayerStatic, ref)
	o := entity.NewStaticObject(ref, h, position, halfExtents)
	s.statics[ref] = o
	s.byHandle[h] = ref
	return o, nil
}

// AddDynamic registers a pushable prop. Position is the box center.
func (s *Scheduler) AddDynamic(ref uuid.UUID, position, halfExtents mgl32.Vec3, mass float32) (*entity.DynamicObject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dynamics.Get(ref); ok {
		return nil, serror.New("dynamic %s already registered", ref)
	}
	h := s.world.AddBox(position, halfExtents, collision.LayerDynamic, ref)
	o := entity.NewDynamicObject(ref, h, position, halfExtents, mass)
	s.dynamics.Set(ref, o)
	s.byHandle[h] = ref
	return o, nil
}

// AddProjectile registers a free body launched by owner, which it never
// collides with.
func (s *Scheduler) AddProjectile(ref uuid.UUID, position, velocity, halfExtents mgl32.Vec3, owner uuid.UUID) (*entity.Projectile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projectiles.Get(ref); ok {
		return nil, serror.New("projectile %s already registered", ref)
	}
	h := s.world.AddBox(position, halfExtents, collision.LayerProjectile, ref)
	p := entity.NewProjectile(ref, h, position, velocity, owner)
	s.projectiles.Set(ref, p)
	s.byHandle[h] = ref
	return p, nil
}

// AddTerrain registers a heightfield patch with its minimum corner at origin.
func (s *Scheduler) AddTerrain(ref uuid.UUID, origin mgl32.Vec3, field *collision.HeightField) (*entity.HeightField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.fields[ref]; ok {
		return nil, serror.New("terrain %s already registered", ref)
	}
	h := s.world.AddHeightField(origin, field, ref)
	hf := entity.NewHeightField(ref, h, origin, field)
	s.fields[ref] = hf
	s.byHandle[h] = ref
	return hf, nil
}

// Remove schedules the entity for destruction. The body survives until the
// current epoch retires, so frames still being solved cannot observe a
// recycled handle mid-step.
func (s *Scheduler) Remove(ref uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deferred = append(s.deferred, removal{ref: ref, epoch: s.epoch.Load()})
}

// Actor looks up a registered actor.
func (s *Scheduler) Actor(ref uuid.UUID) (*entity.Actor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actors.Get(ref)
}

// Projectile looks up a registered projectile.
func (s *Scheduler) Projectile(ref uuid.UUID) (*entity.Projectile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.projectiles.Get(ref)
}

// Dynamic looks up a registered dynamic object.
func (s *Scheduler) Dynamic(ref uuid.UUID) (*entity.DynamicObject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dynamics.Get(ref)
}

// EntityForHandle maps a collision body back to its owning entity ref.
// Callbacks and query results carry handles; this is the way back up.
func (s *Scheduler) EntityForHandle(h collision.Handle) (uuid.UUID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref, ok := s.byHandle[h]
	return ref, ok
}

// RenderPosition interpolates the entity's two most recent committed
// positions for rendering between fixed steps. Alpha 0 is the previous step,
// 1 the latest.
func (s *Scheduler) RenderPosition(ref uuid.UUID, alpha float32) (mgl32.Vec3, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.lookup(ref)
	if !ok {
		return mgl32.Vec3{}, false
	}
	alpha = smath.Clamp(alpha, 0, 1)
	last, cur := e.LastPosition(), e.Position()
	return last.Add(cur.Sub(last).Mul(alpha)), true
}

// Teleport relocates an entity without interpolation history.
func (s *Scheduler) Teleport(ref uuid.UUID, position mgl32.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.actors.Get(ref); ok {
		a.Teleport(position)
		a.SetInertia(mgl32.Vec3{})
		a.SetStuckState(0, position)
		s.world.SetTransform(a.Handle(), boxCenter(position, a.MeshOffset(), a.HalfExtents()))
		return nil
	}
	e, ok := s.lookup(ref)
	if !ok {
		return serror.New("no entity %s", ref)
	}
	e.Teleport(position)
	s.world.SetTransform(e.Handle(), position)
	return nil
}

// ScaleActor rescales an actor's collision box, rebuilding its body. The old
// handle is destroyed immediately; scale changes may not land mid-step.
func (s *Scheduler) ScaleActor(ref uuid.UUID, scale, renderScale mgl32.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.actors.Get(ref)
	if !ok {
		return serror.New("no actor %s", ref)
	}
	old := a.Handle()
	s.world.RemoveBody(old)
	delete(s.byHandle, old)

	a.ApplyScale(scale, renderScale)
	h := s.world.AddBox(boxCenter(a.Position(), a.MeshOffset(), a.HalfExtents()), a.HalfExtents(), collision.LayerActor, ref)
	a.SetHandle(h)
	s.byHandle[h] = ref
	return nil
}

// LineOfSight reports whether an unobstructed ray connects the two actors'
// eye points, looking only at world geometry. Results are cached for a few
// epochs.
func (s *Scheduler) LineOfSight(a, b uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	epoch := s.epoch.Load()
	if visible, ok := s.los.get(a, b, epoch); ok {
		return visible
	}
	actorA, okA := s.actors.Get(a)
	actorB, okB := s.actors.Get(b)
	if !okA || !okB {
		return false
	}
	tr := s.world.RayCast(eyePosition(actorA), eyePosition(actorB), collision.MaskWorld,
		actorA.Handle(), actorB.Handle())
	visible := !tr.DidHit()
	s.los.put(a, b, epoch, visible)
	return visible
}

// ClearLineOfSight drops all cached line-of-sight answers, for when geometry
// changes outside the step cycle.
func (s *Scheduler) ClearLineOfSight() {
	s.los.clear()
}

// Step advances the simulation by dt seconds of wall time, running as many
// fixed steps as the accumulator covers. The remainder carries over.
func (s *Scheduler) Step(dt float32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accum += dt
	steps := 0
	for s.accum >= s.fixedStep {
		s.accum -= s.fixedStep
		s.step()
		if steps++; steps >= maxCatchUpSteps {
			s.accum = 0
			break
		}
	}
}

// ResetSimulation drops all transient state: the accumulator, cached
// line-of-sight answers, and every actor's inertia and stuck tracking.
// Entities and geometry stay registered.
func (s *Scheduler) ResetSimulation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accum = 0
	s.los.clear()
	for el := s.actors.Front(); el != nil; el = el.Next() {
		a := el.Value
		a.SetInertia(mgl32.Vec3{})
		a.SetMovement(mgl32.Vec3{})
		a.DrainVelocity()
		a.SetStuckState(0, a.Position())
	}
}

// step runs one fixed step. Caller holds mu.
func (s *Scheduler) step() {
	epoch := s.epoch.Add(1)

	actors := make([]*entity.Actor, 0, s.actors.Len())
	frames := make([]*sim.ActorFrame, 0, s.actors.Len())
	for el := s.actors.Front(); el != nil; el = el.Next() {
		a := el.Value
		s.world.SetActive(a.Handle(), a.ExternalCollision())
		f := internal.FramePool.Get().(*sim.ActorFrame)
		f.Reset()
		s.snapshot(a, f)
		actors = append(actors, a)
		frames = append(frames, f)
	}

	var wg sync.WaitGroup
	wg.Add(len(frames))
	for _, f := range frames {
		f := f
		s.pool.Submit(func() {
			defer wg.Done()
			s.solver.Solve(f, s.ctx, s.fixedStep)
		})
	}
	wg.Wait()

	for i, f := range frames {
		s.commitActor(actors[i], f)
		internal.FramePool.Put(f)
	}

	s.integrateProjectiles()
	s.integrateDynamics()
	s.processDeferred(epoch)
	s.los.prune(epoch)

	s.log.Trace().Uint64("epoch", epoch).Int("actors", len(actors)).Msg("step complete")
}

// snapshot copies the actor's state into its frame for this step.
func (s *Scheduler) snapshot(a *entity.Actor, f *sim.ActorFrame) {
	pos := a.SimPosition()
	half := a.HalfExtents()

	f.Self = a.Handle()
	f.Position = pos
	f.Rotation = a.Rotation()
	f.Movement = a.Movement()
	f.QueuedVelocity = a.DrainVelocity()
	f.HalfExtents = half
	f.MeshOffset = a.MeshOffset()
	f.SlowFall = a.SlowFall()
	f.SwimLevel = s.ctx.WaterLevel
	f.WasOnGround = a.OnGround()
	f.WasOnSlope = a.OnSlope()
	f.IsDead = a.Dead()
	f.Flying = a.Flying()
	f.Swimming = !a.Flying() && pos.Z()+2*half.Z()*swimHeightScale < s.ctx.WaterLevel
	f.WaterWalking = a.CanWaterWalk()
	f.SkipCollision = !a.InternalCollision()
	f.StuckFrames, f.LastStuckPos = a.StuckState()
	f.Inertia = a.Inertia()
}

// commitActor writes a solved frame back to its actor and the collision
// world, and hands out the pushes it owes. Runs serially in registration
// order.
func (s *Scheduler) commitActor(a *entity.Actor, f *sim.ActorFrame) {
	a.Move(f.Position)
	s.world.SetTransform(a.Handle(), boxCenter(f.Position, f.MeshOffset, f.HalfExtents))
	a.SetInertia(f.Inertia)
	a.SetGroundState(f.OnGround, f.OnSlope, f.WalkingOnWater)
	a.SetStandingOn(f.StandingOn)
	a.SetStuckState(f.StuckFrames, f.LastStuckPos)

	for _, push := range f.Pushes {
		ref, ok := s.world.EntityRef(push.Body)
		if !ok {
			continue
		}
		if obj, ok := s.dynamics.Get(ref); ok {
			obj.ApplyImpulse(push.Impulse)
		}
	}
}

// integrateProjectiles advances airborne projectiles with a gravity-bent ray
// sweep. A landed projectile keeps its body but is never integrated again.
func (s *Scheduler) integrateProjectiles() {
	p := s.solver.Params
	for el := s.projectiles.Front(); el != nil; el = el.Next() {
		proj := el.Value
		if landed, _, _ := proj.Hit(); landed {
			continue
		}
		vel := proj.Velocity()
		vel[2] -= p.Gravity * s.fixedStep

		from := proj.SimPosition()
		to := from.Add(vel.Mul(s.fixedStep))
		exclude := []collision.Handle{proj.Handle()}
		if owner, ok := s.actors.Get(proj.Owner()); ok {
			exclude = append(exclude, owner.Handle())
		}

		tr := s.world.RayCast(from, to, collision.MaskMovement, exclude...)
		if tr.DidHit() {
			target, _ := s.world.EntityRef(tr.Body)
			proj.RecordHit(target, tr.HitPos)
			proj.Move(tr.EndPos)
		} else {
			proj.Move(to)
			proj.SetVelocity(vel)
		}
		s.world.SetTransform(proj.Handle(), proj.Position())
	}
}

// Dynamic object tuning: ground friction per step and the squared speed
// below which a grounded prop comes to rest.
const (
	dynamicFriction = 0.85
	restSpeedSqr    = 1.0
)

// integrateDynamics settles pushed props: gravity, a short sweep-and-slide,
// friction, and rest once a grounded prop slows down enough. Resting props
// are skipped entirely until an impulse wakes them.
func (s *Scheduler) integrateDynamics() {
	p := s.solver.Params
	for el := s.dynamics.Front(); el != nil; el = el.Next() {
		obj := el.Value
		if obj.Resting() {
			continue
		}
		vel := obj.Velocity()
		vel[2] -= p.Gravity * s.fixedStep

		pos := obj.SimPosition()
		remaining := s.fixedStep
		grounded := false
		for i := 0; i < 3 && remaining > 1e-5; i++ {
			tr := s.world.SweepBox(pos, pos.Add(vel.Mul(remaining)), obj.HalfExtents(), collision.MaskWorld, obj.Handle())
			if !tr.DidHit() {
				pos = pos.Add(vel.Mul(remaining))
				break
			}
			remaining *= 1 - tr.Fraction
			pos = tr.EndPos
			if p.Walkable(tr.Normal) {
				grounded = true
			}
			vel = smath.Reject(vel, tr.Normal)
			if vel.LenSqr() < 1e-6 {
				break
			}
		}

		obj.Move(pos)
		if grounded {
			vel[2] = 0
			vel = vel.Mul(dynamicFriction)
			if vel.LenSqr() < restSpeedSqr {
				obj.SetVelocity(mgl32.Vec3{})
				obj.SetResting(true)
			} else {
				obj.SetVelocity(vel)
			}
		} else {
			obj.SetVelocity(vel)
		}
		s.world.SetTransform(obj.Handle(), pos)
	}
}

// processDeferred destroys entities whose removal epoch has retired.
func (s *Scheduler) processDeferred(current uint64) {
	kept := s.deferred[:0]
	for _, r := range s.deferred {
		if r.epoch >= current {
			kept = append(kept, r)
			continue
		}
		s.removeNow(r.ref)
	}
	s.deferred = kept
}

func (s *Scheduler) removeNow(ref uuid.UUID) {
	e, ok := s.lookup(ref)
	if !ok {
		return
	}
	h := e.Handle()
	s.world.RemoveBody(h)
	delete(s.byHandle, h)

	s.actors.Delete(ref)
	s.projectiles.Delete(ref)
	s.dynamics.Delete(ref)
	delete(s.statics, ref)
	delete(s.fields, ref)
}

// lookup finds the base entity for a ref across every registry.
func (s *Scheduler) lookup(ref uuid.UUID) (interface {
	Handle() collision.Handle
	Position() mgl32.Vec3
	LastPosition() mgl32.Vec3
	Teleport(mgl32.Vec3)
}, bool) {
	if a, ok := s.actors.Get(ref); ok {
		return a, true
	}
	if p, ok := s.projectiles.Get(ref); ok {
		return p, true
	}
	if d, ok := s.dynamics.Get(ref); ok {
		return d, true
	}
	if o, ok := s.statics[ref]; ok {
		return o, true
	}
	if f, ok := s.fields[ref]; ok {
		return f, true
	}
	return nil, false
}

// boxCenter converts a feet position plus mesh offset into a collision box
// center.
func boxCenter(position, meshOffset, half mgl32.Vec3) mgl32.Vec3 {
	c := position.Add(meshOffset)
	c[2] += half.Z()
	return c
}

// eyePosition is where line-of-sight rays originate and terminate.
func eyePosition(a *entity.Actor) mgl32.Vec3 {
	p := a.Position().Add(a.MeshOffset())
	p[2] += 2 * a.HalfExtents().Z() * eyeHeightScale
	return p
}
