package collision

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/stridesim/stride/assert"
)

// Shape identifies how a body's geometry is interpreted.
type Shape uint8

const (
	ShapeBox Shape = iota
	ShapeHeightField
)

type body struct {
	shape  Shape
	half   mgl32.Vec3
	field  *HeightField
	pos    mgl32.Vec3
	layer  Layer
	entity uuid.UUID
	active bool
}

type slot struct {
	generation uint32
	used       bool
	body       body
}

// World owns the registered collision bodies and answers sweep, ray and
// overlap queries against them. Queries take a read lock, so any number can
// run concurrently as long as no body is added, removed or moved; the task
// scheduler defers all of those to its commit phase.
type World struct {
	mu    sync.RWMutex
	slots []slot
	free  []uint32
	grid  *spatialGrid
	count int
}

func NewWorld(cellSize float32) *World {
	return &World{grid: newSpatialGrid(cellSize)}
}

// AddBox registers an axis-aligned box body centered at pos and returns its
// handle. The entity ref becomes the body's user data, resolved back through
// EntityRef by probe callbacks.
func (w *World) AddBox(pos, half mgl32.Vec3, layer Layer, entity uuid.UUID) Handle {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(body{shape: ShapeBox, half: half, pos: pos, layer: layer, entity: entity, active: true})
}

// AddHeightField registers a terrain patch whose local origin sits at pos.
func (w *World) AddHeightField(pos mgl32.Vec3, field *HeightField, entity uuid.UUID) Handle {
	assert.IsTrue(field != nil && len(field.Heights) == field.Width*field.Depth,
		"height field dimensions do not match its sample count")
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.add(body{shape: ShapeHeightField, field: field, pos: pos, layer: LayerHeightField, entity: entity, active: true})
}

func (w *World) add(b body) Handle {
	var index uint32
	if n := len(w.free); n > 0 {
		index = w.free[n-1]
		w.free = w.free[:n-1]
	} else {
		w.slots = append(w.slots, slot{})
		index = uint32(len(w.slots) - 1)
	}

	s := &w.slots[index]
	s.generation++
	s.used = true
	s.body = b
	w.count++

	h := Handle{index: index, generation: s.generation}
	min, max := w.bodyBounds(&s.body)
	w.grid.insert(h, min, max)
	return h
}

// RemoveBody destroys a body. The entity ref is cleared before the slot is
// released so a stale handle can never surface another entity's user data.
// Removing an already-removed body is a no-op.
func (w *World) RemoveBody(h Handle) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.resolve(h)
	if s == nil {
		return false
	}
	min, max := w.bodyBounds(&s.body)
	w.grid.remove(h, min, max)
	s.body.entity = uuid.Nil
	s.body = body{}
	s.used = false
	w.count--
	w.free = append(w.free, h.index)
	return true
}

func (w *World) resolve(h Handle) *slot {
	if !h.Valid() || int(h.index) >= len(w.slots) {
		return nil
	}
	s := &w.slots[h.index]
	if !s.used || s.generation != h.generation {
		return nil
	}
	return s
}

func (w *World) bodyBounds(b *body) (mgl32.Vec3, mgl32.Vec3) {
	if b.shape == ShapeHeightField {
		return b.field.bounds(b.pos)
	}
	bounds := boxBounds(b.pos, b.half)
	return bounds.Min(), bounds.Max()
}

// Transform returns the body's position, or false if the handle is stale.
func (w *World) Transform(h Handle) (mgl32.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.resolve(h)
	if s == nil {
		return mgl32.Vec3{}, false
	}
	return s.body.pos, true
}

// SetTransform moves a body, reindexing it in the broad phase.
func (w *World) SetTransform(h Handle, pos mgl32.Vec3) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	s := w.resolve(h)
	if s == nil {
		return false
	}
	min, max := w.bodyBounds(&s.body)
	w.grid.remove(h, min, max)
	s.body.pos = pos
	min, max = w.bodyBounds(&s.body)
	w.grid.insert(h, min, max)
	return true
}

// SetActive toggles whether the body participates in queries.
func (w *World) SetActive(h Handle, active bool) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := w.resolve(h)
	if s == nil {
		return false
	}
	s.body.active = active
	return true
}

// EntityRef returns the entity the body belongs to, or false for a stale
// handle.
func (w *World) EntityRef(h Handle) (uuid.UUID, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.resolve(h)
	if s == nil || s.body.entity == uuid.Nil {
		return uuid.Nil, false
	}
	return s.body.entity, true
}

// LayerOf returns the body's collision layer, or false for a stale handle.
func (w *World) LayerOf(h Handle) (Layer, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.resolve(h)
	if s == nil {
		return 0, false
	}
	return s.body.layer, true
}

// HalfExtents returns a box body's half extents, or false for stale handles
// and height fields.
func (w *World) HalfExtents(h Handle) (mgl32.Vec3, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s := w.resolve(h)
	if s == nil || s.body.shape != ShapeBox {
		return mgl32.Vec3{}, false
	}
	return s.body.half, true
}

// Count returns the number of live bodies.
func (w *World) Count() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.count
}

func excluded(h Handle, exclude []Handle) bool {
	for _, e := range exclude {
		if e == h {
			return true
		}
	}
	return false
}

// SweepBox traces a box of the given half extents from one center position to
// another, returning the earliest obstruction on a layer in mask. Candidates
// are visited in slot order, so equal-fraction ties resolve identically on
// every run.
func (w *World) SweepBox(from, to, half mgl32.Vec3, mask Mask, exclude ...Handle) TraceResult {
	w.mu.RLock()
	defer w.mu.RUnlock()

	best := TraceResult{Fraction: 1, EndPos: to}
	region := sweptBounds(from, to, half)
	delta := to.Sub(from)

	for _, h := range w.grid.query(region.Min(), region.Max()) {
		s := w.resolve(h)
		if s == nil || !s.body.active || !mask.Has(s.body.layer) || excluded(h, exclude) {
			continue
		}

		var (
			frac   float32
			normal mgl32.Vec3
			hitPos mgl32.Vec3
			ok     bool
		)
		switch s.body.shape {
		case ShapeHeightField:
			frac, hitPos, normal, ok = sweepBoxField(from, to, half, s.body.pos, s.body.field)
		default:
			frac, normal, ok = sweepBoxBox(from, to, half, s.body.pos, s.body.half)
			hitPos = contactPoint(from.Add(delta.Mul(frac)), half, normal, s.body.pos, s.body.half)
		}
		if !ok || frac >= best.Fraction {
			continue
		}

		best = TraceResult{
			Fraction: frac,
			EndPos:   from.Add(delta.Mul(frac)),
			HitPos:   hitPos,
			Normal:   normal,
			Layer:    s.body.layer,
			Body:     h,
		}
	}
	return best
}

// RayCast is a zero-extent sweep.
func (w *World) RayCast(from, to mgl32.Vec3, mask Mask, exclude ...Handle) TraceResult {
	return w.SweepBox(from, to, mgl32.Vec3{}, mask, exclude...)
}

// OverlapBox reports every body on a layer in mask that the probe box
// penetrates, with per-contact depth and rejection displacement.
func (w *World) OverlapBox(center, half mgl32.Vec3, mask Mask, exclude ...Handle) []Contact {
	w.mu.RLock()
	defer w.mu.RUnlock()

	var contacts []Contact
	region := boxBounds(center, half)

	for _, h := range w.grid.query(region.Min(), region.Max()) {
		s := w.resolve(h)
		if s == nil || !s.body.active || !mask.Has(s.body.layer) || excluded(h, exclude) {
			continue
		}

		switch s.body.shape {
		case ShapeHeightField:
			surface, inField := s.body.field.heightAt(center.X()-s.body.pos.X(), center.Y()-s.body.pos.Y())
			if !inField {
				continue
			}
			depth := (s.body.pos.Z() + surface) - (center.Z() - half.Z())
			if depth <= 0 {
				continue
			}
			contacts = append(contacts, Contact{
				Body:      h,
				Layer:     s.body.layer,
				Depth:     depth,
				Rejection: mgl32.Vec3{0, 0, depth},
			})
		default:
			depth, rejection, ok := overlapBoxBox(center, half, s.body.pos, s.body.half)
			if !ok {
				continue
			}
			contacts = append(contacts, Contact{Body: h, Layer: s.body.layer, Depth: depth, Rejection: rejection})
		}
	}
	return contacts
}
