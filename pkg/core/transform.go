package core

import "github.com/go-gl/mathgl/mgl64"

// Vec converts to the mathgl vector type
func (v Vec3) Vec() mgl64.Vec3 {
	return mgl64.Vec3{v.X, v.Y, v.Z}
}

// FromVec converts a mathgl vector
func FromVec(v mgl64.Vec3) Vec3 {
	return Vec3{X: v[0], Y: v[1], Z: v[2]}
}

// TransformPoint applies a homogeneous transform to a point (with perspective divide)
func TransformPoint(m mgl64.Mat4, p Vec3) Vec3 {
	h := m.Mul4x1(mgl64.Vec4{p.X, p.Y, p.Z, 1})
	if h[3] != 0 && h[3] != 1 {
		return Vec3{h[0] / h[3], h[1] / h[3], h[2] / h[3]}
	}
	return Vec3{h[0], h[1], h[2]}
}

// TransformVector applies the linear part of a transform to a direction
func TransformVector(m mgl64.Mat4, v Vec3) Vec3 {
	return FromVec(m.Mul4x1(mgl64.Vec4{v.X, v.Y, v.Z, 0}).Vec3())
}

// TransformNormal transforms a surface normal by the inverse transpose and renormalizes it
func TransformNormal(m mgl64.Mat4, n Vec3) Vec3 {
	return TransformVector(m.Inv().Transpose(), n).Normalize()
}

// LookAt builds a camera-to-world transform for a camera at origin looking at
// target. The camera looks down its local +Z axis with +Y up.
func LookAt(origin, target, up Vec3) mgl64.Mat4 {
	dir := target.Subtract(origin).Normalize()
	left := up.Normalize().Cross(dir).Normalize()
	newUp := dir.Cross(left)
	return mgl64.Mat4FromCols(
		left.Vec().Vec4(0),
		newUp.Vec().Vec4(0),
		dir.Vec().Vec4(0),
		origin.Vec().Vec4(1),
	)
}
