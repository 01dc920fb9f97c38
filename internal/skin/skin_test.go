package skin

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// staticSource is a PoseSource backed by a fixed slice of poses.
type staticSource struct {
	poses []math.Pose
	reads int
}

func (s *staticSource) JointPose(index int) math.Pose {
	if index < 0 || index >= len(s.poses) {
		OutOfRange("joint", index, len(s.poses))
	}
	s.reads++
	return s.poses[index]
}

func (s *staticSource) JointTransform(index int) mgl32.Mat4 {
	return s.JointPose(index).Mat4()
}

const (
	jointHips = iota
	jointNeck
	jointHead
	jointHand
)

func newTestSource() *staticSource {
	return &staticSource{poses: []math.Pose{
		jointHips: math.TranslationPose(mgl32.Vec3{0, 1, 0}),
		jointNeck: {
			Scale:       mgl32.Vec3{1, 1, 1},
			Rotation:    mgl32.QuatRotate(0.2, mgl32.Vec3{1, 0, 0}),
			Translation: mgl32.Vec3{0, 1.5, 0},
		},
		jointHead: {
			Scale:       mgl32.Vec3{1, 1, 1},
			Rotation:    mgl32.QuatRotate(float32(gomath.Pi/2), mgl32.Vec3{0, 1, 0}),
			Translation: mgl32.Vec3{0, 1.7, 0},
		},
		jointHand: math.TranslationPose(mgl32.Vec3{0.6, 1.2, 0}),
	}}
}

func testMeshes() [][]Cluster {
	return [][]Cluster{
		{
			NewCluster(jointHips, mgl32.Translate3D(0, -1, 0)),
			NewCluster(jointNeck, mgl32.Translate3D(0, -1.5, 0)),
			NewCluster(jointHead, mgl32.Translate3D(0, -1.7, 0)),
		},
		{
			NewCluster(jointHand, mgl32.Ident4()),
		},
	}
}

func TestPackTranslationOnly(t *testing.T) {
	c := Pack(math.TranslationPose(mgl32.Vec3{1, 0, 0}))

	assert.Equal(t, mgl32.Vec3{1, 1, 1}, c.Scale())
	assert.True(t, c[1].ApproxEqualThreshold(mgl32.Vec4{0, 0, 0, 1}, 1e-6), "real: %v", c[1])
	assert.True(t, c[2].ApproxEqualThreshold(mgl32.Vec4{0.5, 0, 0, 0}, 1e-6), "imag: %v", c[2])
}

func TestPackUnpackRoundTrip(t *testing.T) {
	poses := []math.Pose{
		math.IdentityPose(),
		{
			Scale:       mgl32.Vec3{1, 2, 0.5},
			Rotation:    mgl32.QuatRotate(1.1, mgl32.Vec3{0, 1, 1}.Normalize()),
			Translation: mgl32.Vec3{3, -4, 5},
		},
		{
			Scale:       mgl32.Vec3{0, 0, 0},
			Rotation:    mgl32.QuatRotate(-0.4, mgl32.Vec3{1, 0, 0}),
			Translation: mgl32.Vec3{0, 1.5, 0},
		},
	}

	for _, p := range poses {
		got := Pack(p).Unpack()
		assert.Equal(t, p.Scale, got.Scale, "scale is carried losslessly")
		assert.True(t, got.ApproxEqual(p, 1e-4), "got %+v, want %+v", got, p)
	}
}

func TestEvaluateNormal(t *testing.T) {
	src := newTestSource()
	meshes := testMeshes()
	states := AllocateStates(meshes)

	NewEvaluator(src).Evaluate(meshes, states)

	for i, clusters := range meshes {
		for j, cl := range clusters {
			want := Pack(src.poses[cl.JointIndex].Mul(cl.InverseBindPose))
			assert.Equal(t, want, states[i].Clusters[j], "mesh %d cluster %d", i, j)
		}
	}
}

func TestEvaluateCauterized(t *testing.T) {
	src := newTestSource()
	meshes := testMeshes()
	normal := AllocateStates(meshes)
	cauterized := AllocateStates(meshes)
	bones := NewBoneSet(jointHead)

	e := NewEvaluator(src)
	e.Evaluate(meshes, normal)
	require.True(t, e.EvaluateCauterized(meshes, cauterized, bones, jointNeck))

	cauterizePose := src.poses[jointNeck].WithZeroScale()
	for i, clusters := range meshes {
		for j, cl := range clusters {
			if bones.Contains(cl.JointIndex) {
				want := Pack(cauterizePose.Mul(cl.InverseBindPose))
				assert.Equal(t, want, cauterized[i].Clusters[j])
				assert.NotEqual(t, normal[i].Clusters[j], cauterized[i].Clusters[j])
			} else {
				assert.Equal(t, normal[i].Clusters[j], cauterized[i].Clusters[j], "mesh %d cluster %d", i, j)
			}
		}
	}
}

func TestCauterizedIgnoresJointAnimation(t *testing.T) {
	meshes := testMeshes()
	bones := NewBoneSet(jointHead)

	a := newTestSource()
	b := newTestSource()
	b.poses[jointHead].Rotation = mgl32.QuatRotate(-1.3, mgl32.Vec3{0, 0, 1})

	sa := AllocateStates(meshes)
	sb := AllocateStates(meshes)
	NewEvaluator(a).EvaluateCauterized(meshes, sa, bones, jointNeck)
	NewEvaluator(b).EvaluateCauterized(meshes, sb, bones, jointNeck)

	assert.Equal(t, sa, sb)

	// Head cluster collapses to the neck position with zero scale
	head := sa[0].Clusters[2].Unpack()
	assert.Equal(t, mgl32.Vec3{}, head.Scale)
	assert.True(t, head.Rotation.ApproxEqualThreshold(a.poses[jointNeck].Rotation, 1e-5))
	assert.True(t, head.Translation.ApproxEqualThreshold(a.poses[jointNeck].Translation, 1e-5))
}

func TestEvaluateCauterizedEmptyBoneSet(t *testing.T) {
	src := newTestSource()
	meshes := testMeshes()
	states := AllocateStates(meshes)
	before := AllocateStates(meshes)

	assert.False(t, NewEvaluator(src).EvaluateCauterized(meshes, states, NewBoneSet(), jointNeck))
	assert.Equal(t, before, states)
	assert.Zero(t, src.reads)
}

func TestStateAtOutOfRange(t *testing.T) {
	states := AllocateStates([][]Cluster{{}, {}, {}})
	require.Len(t, states, 3)

	assert.NotPanics(t, func() { StateAt(states, 2) })
	assert.PanicsWithError(t, "mesh index 3 (count 3): index out of range", func() { StateAt(states, 3) })
}

func TestEvaluateShapeMismatchPanics(t *testing.T) {
	meshes := testMeshes()
	states := AllocateStates(meshes[:1])

	assert.Panics(t, func() { NewEvaluator(newTestSource()).Evaluate(meshes, states) })
}

func TestMeshStateClone(t *testing.T) {
	s := MeshState{Clusters: []PackedCluster{Pack(math.IdentityPose())}}
	c := s.Clone()
	c.Clusters[0][0][0] = 42

	assert.Equal(t, float32(1), s.Clusters[0][0][0])
}
