package skin

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// PackedCluster is the GPU layout of one skinning transform: three vec4 rows.
//
//	row 0: scale.xyz, 0
//	row 1: dual quaternion real part, x y z w
//	row 2: dual quaternion dual part, x y z w
type PackedCluster [3]mgl32.Vec4

// Pack encodes a skinning transform. Rotation is not validated.
func Pack(p math.Pose) PackedCluster {
	dq := math.NewDualQuat(p.Rotation, p.Translation)
	return PackedCluster{
		{p.Scale[0], p.Scale[1], p.Scale[2], 0},
		math.QuatToVec4(dq.Real),
		math.QuatToVec4(dq.Dual),
	}
}

// Scale returns the packed scale vector.
func (c PackedCluster) Scale() mgl32.Vec3 {
	return c[0].Vec3()
}

// DualQuat returns the packed rotation + translation.
func (c PackedCluster) DualQuat() math.DualQuat {
	return math.DualQuat{
		Real: math.Vec4ToQuat(c[1]),
		Dual: math.Vec4ToQuat(c[2]),
	}
}

// Unpack decodes the cluster back into a pose.
func (c PackedCluster) Unpack() math.Pose {
	dq := c.DualQuat()
	return math.Pose{
		Scale:       c.Scale(),
		Rotation:    dq.Rotation(),
		Translation: dq.Translation(),
	}
}

// Mat4 returns the cluster as an affine matrix.
func (c PackedCluster) Mat4() mgl32.Mat4 {
	return c.Unpack().Mat4()
}
