package rig

import (
	gomath "math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-skin/internal/skin"
)

const eps = 1e-5

func testJoints() []Joint {
	return []Joint{
		{Name: "hips", Parent: NoParent, Translation: mgl32.Vec3{0, 1, 0}},
		{Name: "neck", Parent: 0, Translation: mgl32.Vec3{0, 0.5, 0}},
		{
			Name:        "head",
			Parent:      1,
			Translation: mgl32.Vec3{0, 0.2, 0},
			RotKeys: []RotKey{
				{Frame: 0, Rotation: mgl32.QuatIdent()},
				{Frame: 1000, Rotation: mgl32.QuatRotate(float32(gomath.Pi/2), mgl32.Vec3{0, 1, 0})},
			},
		},
		{
			Name:   "hand",
			Parent: 0,
			PosKeys: []VecKey{
				{Frame: 0, Value: mgl32.Vec3{0.5, 0, 0}},
				{Frame: 1000, Value: mgl32.Vec3{1.5, 0, 0}},
			},
			ScaleKeys: []VecKey{{Frame: 0, Value: mgl32.Vec3{2, 2, 2}}},
		},
	}
}

func TestInterpolateVecKeys(t *testing.T) {
	keys := []VecKey{
		{Frame: 100, Value: mgl32.Vec3{0, 0, 0}},
		{Frame: 200, Value: mgl32.Vec3{10, 0, 0}},
		{Frame: 400, Value: mgl32.Vec3{10, 20, 0}},
	}
	fallback := mgl32.Vec3{7, 7, 7}

	tests := []struct {
		name string
		keys []VecKey
		time float32
		want mgl32.Vec3
	}{
		{"no keys", nil, 50, fallback},
		{"single key", keys[:1], 500, mgl32.Vec3{}},
		{"before first", keys, 0, mgl32.Vec3{0, 0, 0}},
		{"on key", keys, 200, mgl32.Vec3{10, 0, 0}},
		{"between", keys, 150, mgl32.Vec3{5, 0, 0}},
		{"second span", keys, 300, mgl32.Vec3{10, 10, 0}},
		{"past last", keys, 900, mgl32.Vec3{10, 20, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InterpolateVecKeys(tt.keys, tt.time, fallback)
			assert.True(t, got.ApproxEqualThreshold(tt.want, eps), "got %v want %v", got, tt.want)
		})
	}
}

func TestInterpolateRotKeys(t *testing.T) {
	quarter := mgl32.QuatRotate(float32(gomath.Pi/2), mgl32.Vec3{0, 0, 1})
	keys := []RotKey{{Frame: 0, Rotation: mgl32.QuatIdent()}, {Frame: 100, Rotation: quarter}}

	got := InterpolateRotKeys(keys, 50, mgl32.QuatIdent())
	want := mgl32.QuatRotate(float32(gomath.Pi/4), mgl32.Vec3{0, 0, 1})
	assert.True(t, got.ApproxEqualThreshold(want, eps), "got %v", got)

	assert.Equal(t, quarter, InterpolateRotKeys(keys, 500, mgl32.QuatIdent()))
	assert.Equal(t, mgl32.QuatIdent(), InterpolateRotKeys(nil, 0, mgl32.QuatIdent()))
}

func TestNewSkeletonValidation(t *testing.T) {
	_, err := NewSkeleton([]Joint{{Name: "a", Parent: NoParent}, {Name: "a", Parent: 0}}, 0)
	assert.ErrorIs(t, err, ErrDuplicateJoint)

	_, err = NewSkeleton([]Joint{{Name: "a", Parent: 1}, {Name: "b", Parent: NoParent}}, 0)
	assert.ErrorIs(t, err, ErrInvalidParent)

	_, err = NewSkeleton([]Joint{{Name: "a", Parent: 0}}, 0)
	assert.ErrorIs(t, err, ErrInvalidParent)
}

func TestSkeletonPoses(t *testing.T) {
	s, err := NewSkeleton(testJoints(), 1000)
	require.NoError(t, err)
	require.Equal(t, 4, s.JointCount())
	assert.True(t, s.HasAnimation())

	head, ok := s.JointIndex("head")
	require.True(t, ok)
	assert.Equal(t, "head", s.JointName(head))
	_, ok = s.JointIndex("tail")
	assert.False(t, ok)

	// parent chain: hips(0,1,0) + neck(0,0.5,0) + head(0,0.2,0)
	assert.True(t, s.JointPose(head).Translation.ApproxEqualThreshold(mgl32.Vec3{0, 1.7, 0}, eps))
	assert.True(t, s.JointPose(head).Rotation.ApproxEqualThreshold(mgl32.QuatIdent(), eps))

	hand := 3
	assert.True(t, s.JointPose(hand).Translation.ApproxEqualThreshold(mgl32.Vec3{0.5, 1, 0}, eps))
	assert.True(t, s.JointPose(hand).Scale.ApproxEqualThreshold(mgl32.Vec3{2, 2, 2}, eps))

	s.SetTime(500)
	assert.True(t, s.JointPose(hand).Translation.ApproxEqualThreshold(mgl32.Vec3{1, 1, 0}, eps))
	wantRot := mgl32.QuatRotate(float32(gomath.Pi/4), mgl32.Vec3{0, 1, 0})
	assert.True(t, s.JointPose(head).Rotation.ApproxEqualThreshold(wantRot, eps))

	m := s.JointTransform(head)
	assert.True(t, m.Col(3).Vec3().ApproxEqualThreshold(mgl32.Vec3{0, 1.7, 0}, eps))
}

func TestSkeletonAdvanceWraps(t *testing.T) {
	s, err := NewSkeleton(testJoints(), 1000)
	require.NoError(t, err)

	s.Advance(750)
	s.Advance(750)
	assert.InDelta(t, 500, s.Time(), eps)

	s.SetTime(-250)
	assert.InDelta(t, 750, s.Time(), eps)
}

func TestSkeletonWithoutClipHolds(t *testing.T) {
	s, err := NewSkeleton(testJoints(), 0)
	require.NoError(t, err)
	assert.False(t, s.HasAnimation())

	s.Advance(5000)
	assert.InDelta(t, 5000, s.Time(), eps)
	assert.True(t, s.JointPose(3).Translation.ApproxEqualThreshold(mgl32.Vec3{1.5, 1, 0}, eps))
}

func TestBindPoseIgnoresKeys(t *testing.T) {
	s, err := NewSkeleton(testJoints(), 1000)
	require.NoError(t, err)
	s.SetTime(500)

	bind := s.BindPose(3)
	assert.True(t, bind.Translation.ApproxEqualThreshold(mgl32.Vec3{0, 1, 0}, eps))
	assert.True(t, bind.Scale.ApproxEqualThreshold(mgl32.Vec3{1, 1, 1}, eps))

	inv := s.InverseBindMatrix(2)
	p := mgl32.TransformCoordinate(mgl32.Vec3{0, 1.7, 0}, inv)
	assert.True(t, p.ApproxEqualThreshold(mgl32.Vec3{}, eps), "got %v", p)
}

func TestJointPoseOutOfRange(t *testing.T) {
	s, err := NewSkeleton(testJoints(), 0)
	require.NoError(t, err)

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.ErrorIs(t, err, skin.ErrOutOfRange)
	}()
	s.JointPose(4)
}
