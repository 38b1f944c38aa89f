package smath

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, float32(1), Clamp(0.5, 1, 2))
	assert.Equal(t, float32(2), Clamp(3, 1, 2))
	assert.Equal(t, float32(1.5), Clamp(1.5, 1, 2))
}

func TestYawVector(t *testing.T) {
	// Quarter turn left: forward becomes -X.
	v := YawVector(mgl32.Vec3{0, 1, 0}, math32.Pi/2)
	assert.InDelta(t, -1, v.X(), 1e-5)
	assert.InDelta(t, 0, v.Y(), 1e-5)
	assert.Equal(t, float32(0), v.Z())

	// Vertical motion is untouched by yaw.
	v = YawVector(mgl32.Vec3{0, 0, 3}, 1.234)
	assert.Equal(t, mgl32.Vec3{0, 0, 3}, v)
}

func TestOrientedVector(t *testing.T) {
	// Pitch straight up: forward becomes vertical.
	v := OrientedVector(mgl32.Vec3{0, 1, 0}, 0, math32.Pi/2)
	assert.InDelta(t, 0, v.X(), 1e-5)
	assert.InDelta(t, 0, v.Y(), 1e-5)
	assert.InDelta(t, 1, v.Z(), 1e-5)

	// No pitch reduces to plain yaw rotation.
	assert.Equal(t, YawVector(mgl32.Vec3{1, 2, 0}, 0.7), OrientedVector(mgl32.Vec3{1, 2, 0}, 0.7, 0))
}

func TestProject(t *testing.T) {
	v := Project(mgl32.Vec3{3, 4, 5}, mgl32.Vec3{0, 0, 1})
	assert.Equal(t, mgl32.Vec3{0, 0, 5}, v)

	// Projection plus rejection reconstructs the vector.
	in := mgl32.Vec3{3, 4, 5}
	dir := mgl32.Vec3{0, 1, 0}
	assert.Equal(t, in, Project(in, dir).Add(Reject(in, dir)))
}

func TestReject(t *testing.T) {
	v := Reject(mgl32.Vec3{3, 0, -5}, mgl32.Vec3{0, 0, 1})
	assert.Equal(t, mgl32.Vec3{3, 0, 0}, v)

	// Rejection against the vector's own direction leaves nothing.
	v = Reject(mgl32.Vec3{0, 0, -5}, mgl32.Vec3{0, 0, 1})
	assert.Equal(t, mgl32.Vec3{0, 0, 0}, v)
}

func TestSafeNormalize(t *testing.T) {
	assert.Equal(t, mgl32.Vec3{}, SafeNormalize(mgl32.Vec3{}))
	v := SafeNormalize(mgl32.Vec3{0, 3, 4})
	assert.InDelta(t, 1, v.Len(), 1e-5)
}

func TestAngleBetween(t *testing.T) {
	assert.InDelta(t, math32.Pi/2, AngleBetween(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{0, 1, 0}), 1e-5)
	assert.InDelta(t, math32.Pi, AngleBetween(mgl32.Vec3{1, 0, 0}, mgl32.Vec3{-1, 0, 0}), 1e-5)
	assert.Equal(t, float32(0), AngleBetween(mgl32.Vec3{}, mgl32.Vec3{1, 0, 0}))
}

func TestHzDistSqr(t *testing.T) {
	assert.Equal(t, float32(25), HzDistSqr(mgl32.Vec3{3, 4, 100}))
}
