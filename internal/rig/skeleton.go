// Package rig provides a keyframed skeleton that yields model-space joint poses.
package rig

import (
	"errors"
	"fmt"
	gomath "math"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

var (
	// ErrInvalidParent is returned when a joint's parent does not precede it.
	ErrInvalidParent = errors.New("joint parent must precede the joint")
	// ErrDuplicateJoint is returned when two joints share a name.
	ErrDuplicateJoint = errors.New("duplicate joint name")
)

// NoParent marks a root joint.
const NoParent = -1

// Joint is one bone of a skeleton. The rest transform is local to the parent
// and is used for any channel without keyframes.
type Joint struct {
	Name   string
	Parent int

	Translation mgl32.Vec3
	Rotation    mgl32.Quat
	Scale       mgl32.Vec3

	RotKeys   []RotKey
	PosKeys   []VecKey
	ScaleKeys []VecKey
}

func (j *Joint) animated() bool {
	return len(j.RotKeys) > 1 || len(j.PosKeys) > 1 || len(j.ScaleKeys) > 1
}

func (j *Joint) localPose(timeMs float32) math.Pose {
	return math.Pose{
		Scale:       InterpolateVecKeys(j.ScaleKeys, timeMs, j.Scale),
		Rotation:    InterpolateRotKeys(j.RotKeys, timeMs, j.Rotation),
		Translation: InterpolateVecKeys(j.PosKeys, timeMs, j.Translation),
	}
}

func (j *Joint) restPose() math.Pose {
	return math.Pose{Scale: j.Scale, Rotation: j.Rotation, Translation: j.Translation}
}

// Skeleton evaluates joint keyframes at a clip time. Joints are stored
// parent-first so model-space poses resolve in one pass.
// Reads are safe while another goroutine advances the clock.
type Skeleton struct {
	joints   []Joint
	byName   map[string]int
	lengthMs float32

	mu     sync.RWMutex
	timeMs float32
	poses  []math.Pose
	rest   []math.Pose
}

// NewSkeleton validates joints and evaluates the pose at time zero. A clip
// length of zero disables looping and holds the last keyframe.
func NewSkeleton(joints []Joint, lengthMs float32) (*Skeleton, error) {
	s := &Skeleton{
		joints:   joints,
		byName:   make(map[string]int, len(joints)),
		lengthMs: lengthMs,
		poses:    make([]math.Pose, len(joints)),
		rest:     make([]math.Pose, len(joints)),
	}
	joints = append([]Joint(nil), joints...)
	s.joints = joints
	for i := range joints {
		j := &joints[i]
		// zero values mean "unset"
		if j.Scale == (mgl32.Vec3{}) {
			j.Scale = mgl32.Vec3{1, 1, 1}
		}
		if j.Rotation == (mgl32.Quat{}) {
			j.Rotation = mgl32.QuatIdent()
		}
		if _, dup := s.byName[j.Name]; dup {
			return nil, fmt.Errorf("%q: %w", j.Name, ErrDuplicateJoint)
		}
		if j.Parent != NoParent && (j.Parent < 0 || j.Parent >= i) {
			return nil, fmt.Errorf("joint %q parent %d: %w", j.Name, j.Parent, ErrInvalidParent)
		}
		s.byName[j.Name] = i
	}

	for i := range joints {
		s.rest[i] = s.compose(i, s.rest, joints[i].restPose())
	}
	s.evaluate()
	return s, nil
}

func (s *Skeleton) compose(i int, resolved []math.Pose, local math.Pose) math.Pose {
	if p := s.joints[i].Parent; p != NoParent {
		return resolved[p].Mul(local)
	}
	return local
}

// evaluate recomputes model-space poses; callers hold mu for writing or own s exclusively.
func (s *Skeleton) evaluate() {
	for i := range s.joints {
		s.poses[i] = s.compose(i, s.poses, s.joints[i].localPose(s.timeMs))
	}
}

// JointCount returns the number of joints.
func (s *Skeleton) JointCount() int {
	return len(s.joints)
}

// JointIndex looks a joint up by name.
func (s *Skeleton) JointIndex(name string) (int, bool) {
	i, ok := s.byName[name]
	return i, ok
}

// JointName returns the name of a joint.
func (s *Skeleton) JointName(index int) string {
	s.check(index)
	return s.joints[index].Name
}

// HasAnimation reports whether any joint has more than one keyframe on a channel.
func (s *Skeleton) HasAnimation() bool {
	if s.lengthMs <= 0 {
		return false
	}
	for i := range s.joints {
		if s.joints[i].animated() {
			return true
		}
	}
	return false
}

// Time returns the current clip time in milliseconds.
func (s *Skeleton) Time() float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.timeMs
}

// SetTime moves the clock and re-evaluates every joint.
func (s *Skeleton) SetTime(timeMs float32) {
	if s.lengthMs > 0 {
		timeMs = float32(gomath.Mod(float64(timeMs), float64(s.lengthMs)))
		if timeMs < 0 {
			timeMs += s.lengthMs
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeMs = timeMs
	s.evaluate()
}

// Advance moves the clock forward by dtMs, wrapping at the clip length.
func (s *Skeleton) Advance(dtMs float32) {
	s.SetTime(s.Time() + dtMs)
}

// JointPose returns the model-space pose of a joint at the current time.
// It panics with skin.ErrOutOfRange on an invalid index.
func (s *Skeleton) JointPose(index int) math.Pose {
	s.check(index)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poses[index]
}

// JointTransform returns JointPose as a matrix.
func (s *Skeleton) JointTransform(index int) mgl32.Mat4 {
	return s.JointPose(index).Mat4()
}

// BindPose returns the model-space rest pose of a joint, ignoring keyframes.
func (s *Skeleton) BindPose(index int) math.Pose {
	s.check(index)
	return s.rest[index]
}

// InverseBindMatrix returns the inverse of the joint's rest transform.
func (s *Skeleton) InverseBindMatrix(index int) mgl32.Mat4 {
	return s.BindPose(index).Mat4().Inv()
}

func (s *Skeleton) check(index int) {
	if index < 0 || index >= len(s.joints) {
		skin.OutOfRange("joint", index, len(s.joints))
	}
}

var _ skin.PoseSource = (*Skeleton)(nil)
