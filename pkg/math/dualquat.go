package math

import "github.com/go-gl/mathgl/mgl32"

// DualQuat is a unit dual quaternion encoding a rigid rotation + translation.
// Real holds the rotation; Dual holds 0.5 * t * Real where t is the translation
// as a pure quaternion.
type DualQuat struct {
	Real mgl32.Quat
	Dual mgl32.Quat
}

// NewDualQuat builds a dual quaternion from a rotation and a translation.
// The rotation is used as given; a zero quaternion yields a zero dual quaternion.
func NewDualQuat(rot mgl32.Quat, trans mgl32.Vec3) DualQuat {
	t := mgl32.Quat{W: 0, V: trans}
	return DualQuat{
		Real: rot,
		Dual: t.Mul(rot).Scale(0.5),
	}
}

// Rotation returns the rotation part.
func (dq DualQuat) Rotation() mgl32.Quat {
	return dq.Real
}

// Translation recovers the translation: 2 * Dual * conj(Real).
func (dq DualQuat) Translation() mgl32.Vec3 {
	return dq.Dual.Mul(dq.Real.Conjugate()).Scale(2).V
}

// QuatToVec4 returns q laid out as x, y, z, w.
func QuatToVec4(q mgl32.Quat) mgl32.Vec4 {
	return mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W}
}

// Vec4ToQuat is the inverse of QuatToVec4.
func Vec4ToQuat(v mgl32.Vec4) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}
