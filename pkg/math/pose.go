// Package math provides the skinning math types: poses, dual quaternions and bounding boxes.
// Vectors, quaternions and matrices are mgl32 values (column-major, OpenGL compatible).
package math

import (
	gomath "math"

	"github.com/go-gl/mathgl/mgl32"
)

// Pose is a scale + rotation + translation transform.
// Applied to a point p it yields Rotation*(Scale⊙p) + Translation.
type Pose struct {
	Scale       mgl32.Vec3
	Rotation    mgl32.Quat
	Translation mgl32.Vec3
}

// IdentityPose returns a pose that leaves points unchanged.
func IdentityPose() Pose {
	return Pose{
		Scale:    mgl32.Vec3{1, 1, 1},
		Rotation: mgl32.QuatIdent(),
	}
}

// TranslationPose returns a pure translation.
func TranslationPose(t mgl32.Vec3) Pose {
	p := IdentityPose()
	p.Translation = t
	return p
}

// PoseFromMat4 decomposes an affine matrix into scale, rotation and translation.
// Shear is discarded. A negative determinant flips the X scale so the remaining
// basis is a proper rotation.
func PoseFromMat4(m mgl32.Mat4) Pose {
	x := m.Col(0).Vec3()
	y := m.Col(1).Vec3()
	z := m.Col(2).Vec3()

	scale := mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if x.Cross(y).Dot(z) < 0 {
		scale[0] = -scale[0]
	}

	rot := mgl32.QuatIdent()
	if scale[0] != 0 && scale[1] != 0 && scale[2] != 0 {
		basis := mgl32.Mat3FromCols(x.Mul(1/scale[0]), y.Mul(1/scale[1]), z.Mul(1/scale[2]))
		rot = mgl32.Mat4ToQuat(basis.Mat4()).Normalize()
	}

	return Pose{
		Scale:       scale,
		Rotation:    rot,
		Translation: m.Col(3).Vec3(),
	}
}

// Mat4 returns the pose as T * R * S.
func (p Pose) Mat4() mgl32.Mat4 {
	return mgl32.Translate3D(p.Translation[0], p.Translation[1], p.Translation[2]).
		Mul4(p.Rotation.Mat4()).
		Mul4(mgl32.Scale3D(p.Scale[0], p.Scale[1], p.Scale[2]))
}

// Mul composes two poses so that p.Mul(q) applies q first, then p.
// Scale is combined component-wise, which is exact for uniform scale. When p
// has non-uniform scale and q rotates, compose through matrices instead:
// PoseFromMat4(p.Mat4().Mul4(q.Mat4())).
func (p Pose) Mul(q Pose) Pose {
	return Pose{
		Scale:       mulVec3(p.Scale, q.Scale),
		Rotation:    p.Rotation.Mul(q.Rotation),
		Translation: p.Translation.Add(p.Rotation.Rotate(mulVec3(p.Scale, q.Translation))),
	}
}

// TransformPoint applies the pose to a point.
func (p Pose) TransformPoint(v mgl32.Vec3) mgl32.Vec3 {
	return p.Rotation.Rotate(mulVec3(p.Scale, v)).Add(p.Translation)
}

// WithZeroScale returns the pose with its scale collapsed to zero.
// Rotation and translation are preserved, so every point maps to Translation.
func (p Pose) WithZeroScale() Pose {
	p.Scale = mgl32.Vec3{}
	return p
}

// ApproxEqual reports whether two poses match within eps.
// q and -q are treated as the same rotation.
func (p Pose) ApproxEqual(q Pose, eps float32) bool {
	if !p.Scale.ApproxEqualThreshold(q.Scale, eps) || !p.Translation.ApproxEqualThreshold(q.Translation, eps) {
		return false
	}
	d := p.Rotation.Dot(q.Rotation)
	return float32(gomath.Abs(float64(d))) >= 1-eps
}

func mulVec3(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
