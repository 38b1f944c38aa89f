package smath

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Clamp clamps the given value to the given range.
func Clamp(num, min, max float32) float32 {
	if num < min {
		return min
	}
	return math32.Min(num, max)
}

// HzDistSqr returns the squared horizontal (XY) distance in a vector.
func HzDistSqr(vec mgl32.Vec3) float32 {
	return vec.X()*vec.X() + vec.Y()*vec.Y()
}

// SafeNormalize normalizes vec, or returns the zero vector when its length is
// degenerate.
func SafeNormalize(vec mgl32.Vec3) mgl32.Vec3 {
	lenSqr := vec.LenSqr()
	if lenSqr <= 1e-10 {
		return mgl32.Vec3{}
	}
	return vec.Mul(1 / math32.Sqrt(lenSqr))
}

// Project returns the component of vec along the (unit) direction dir.
func Project(vec, dir mgl32.Vec3) mgl32.Vec3 {
	return dir.Mul(vec.Dot(dir))
}

// Reject removes the component of vec along the (unit) plane normal.
func Reject(vec, normal mgl32.Vec3) mgl32.Vec3 {
	return vec.Sub(normal.Mul(vec.Dot(normal)))
}

// YawVector rotates movement by yaw (radians) around the vertical axis. Z is
// carried through unchanged.
func YawVector(movement mgl32.Vec3, yaw float32) mgl32.Vec3 {
	sin, cos := math32.Sin(yaw), math32.Cos(yaw)
	return mgl32.Vec3{
		movement.X()*cos - movement.Y()*sin,
		movement.X()*sin + movement.Y()*cos,
		movement.Z(),
	}
}

// OrientedVector rotates movement by pitch then yaw, for swimming and flying
// actors whose vertical motion follows the view direction.
func OrientedVector(movement mgl32.Vec3, yaw, pitch float32) mgl32.Vec3 {
	sinP, cosP := math32.Sin(pitch), math32.Cos(pitch)
	pitched := mgl32.Vec3{
		movement.X(),
		movement.Y()*cosP - movement.Z()*sinP,
		movement.Y()*sinP + movement.Z()*cosP,
	}
	return YawVector(pitched, yaw)
}

// AngleBetween returns the angle in radians between two vectors, or zero when
// either is degenerate.
func AngleBetween(a, b mgl32.Vec3) float32 {
	div := a.Len() * b.Len()
	if div <= 1e-10 {
		return 0
	}
	return math32.Acos(Clamp(a.Dot(b)/div, -1, 1))
}
