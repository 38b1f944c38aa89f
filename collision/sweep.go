package collision

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"
)

const sweepEpsilon = 1e-7

// boxBounds returns the world-space bounds of a box with the given center and
// half extents.
func boxBounds(center, half mgl32.Vec3) cube.BBox {
	return cube.Box(
		center.X()-half.X(), center.Y()-half.Y(), center.Z()-half.Z(),
		center.X()+half.X(), center.Y()+half.Y(), center.Z()+half.Z(),
	)
}

// sweptBounds returns the bounds covering a box swept from one center to
// another.
func sweptBounds(from, to, half mgl32.Vec3) cube.BBox {
	return boxBounds(from, half).Extend(to.Sub(from))
}

// sweepBoxBox traces a moving box against a stationary one. The moving box is
// collapsed to a point and the stationary box grown by its half extents, which
// reduces the sweep to a ray-vs-slab test per axis.
func sweepBoxBox(from, to, half, center, bodyHalf mgl32.Vec3) (fraction float32, normal mgl32.Vec3, ok bool) {
	ext := bodyHalf.Add(half)
	delta := to.Sub(from)

	// A start position already inside the expanded box counts as an
	// immediate hit; the normal points out along the shallowest axis.
	inside := true
	minPen := float32(math32.MaxFloat32)
	penAxis, penSign := 0, float32(1)
	for i := 0; i < 3; i++ {
		off := from[i] - center[i]
		pen := ext[i] - math32.Abs(off)
		if pen <= 0 {
			inside = false
			break
		}
		if pen < minPen {
			minPen = pen
			penAxis = i
			if off < 0 {
				penSign = -1
			} else {
				penSign = 1
			}
		}
	}
	if inside {
		normal[penAxis] = penSign
		return 0, normal, true
	}

	tEnter := float32(-math32.MaxFloat32)
	tExit := float32(math32.MaxFloat32)
	axis := -1
	var sign float32

	for i := 0; i < 3; i++ {
		lo, hi := center[i]-ext[i], center[i]+ext[i]
		if math32.Abs(delta[i]) < sweepEpsilon {
			if from[i] < lo || from[i] > hi {
				return 1, mgl32.Vec3{}, false
			}
			continue
		}

		t1 := (lo - from[i]) / delta[i]
		t2 := (hi - from[i]) / delta[i]
		s := float32(-1)
		if delta[i] < 0 {
			s = 1
		}
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tEnter {
			tEnter = t1
			axis = i
			sign = s
		}
		tExit = math32.Min(tExit, t2)
	}

	if axis < 0 || tEnter > tExit || tEnter > 1 || tExit < 0 {
		return 1, mgl32.Vec3{}, false
	}
	if tEnter < 0 {
		tEnter = 0
	}
	normal[axis] = sign
	return tEnter, normal, true
}

// overlapBoxBox measures the penetration of a probe box into a body box. The
// rejection displacement pushes the probe out along the shallowest axis.
func overlapBoxBox(center, half, bodyCenter, bodyHalf mgl32.Vec3) (depth float32, rejection mgl32.Vec3, ok bool) {
	ext := bodyHalf.Add(half)
	minPen := float32(math32.MaxFloat32)
	axis, sign := 0, float32(1)
	for i := 0; i < 3; i++ {
		off := center[i] - bodyCenter[i]
		pen := ext[i] - math32.Abs(off)
		if pen <= 0 {
			return 0, mgl32.Vec3{}, false
		}
		if pen < minPen {
			minPen = pen
			axis = i
			if off < 0 {
				sign = -1
			} else {
				sign = 1
			}
		}
	}
	rejection[axis] = sign * minPen
	return minPen, rejection, true
}

// contactPoint derives the world-space contact point for a sweep that stopped
// with the shape center at end, touching a surface with the given axis-aligned
// normal. Along the normal the point sits on the struck face; on the tangent
// axes it is clamped into the body's extent, so hitting the side of a low
// ledge reports a point at ledge height rather than probe-center height.
func contactPoint(end, half, normal, bodyCenter, bodyHalf mgl32.Vec3) mgl32.Vec3 {
	var hit mgl32.Vec3
	for i := 0; i < 3; i++ {
		if normal[i] != 0 {
			hit[i] = end[i] - normal[i]*half[i]
			continue
		}
		lo, hi := bodyCenter[i]-bodyHalf[i], bodyCenter[i]+bodyHalf[i]
		hit[i] = math32.Min(math32.Max(end[i], lo), hi)
	}
	return hit
}
