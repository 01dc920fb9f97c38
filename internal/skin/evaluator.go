package skin

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// PoseSource yields the current model-space pose of a joint.
// Implementations must be safe for concurrent reads and panic on an invalid index.
type PoseSource interface {
	JointPose(index int) math.Pose
	JointTransform(index int) mgl32.Mat4
}

// BoneSet is a set of joint indices to cauterize.
type BoneSet map[int]struct{}

// NewBoneSet builds a set from joint indices.
func NewBoneSet(joints ...int) BoneSet {
	s := make(BoneSet, len(joints))
	for _, j := range joints {
		s[j] = struct{}{}
	}
	return s
}

// Contains reports whether joint is in the set.
func (s BoneSet) Contains(joint int) bool {
	_, ok := s[joint]
	return ok
}

// Evaluator packs skinning transforms for a set of meshes.
type Evaluator struct {
	Source PoseSource
}

// NewEvaluator creates an evaluator reading from src.
func NewEvaluator(src PoseSource) *Evaluator {
	return &Evaluator{Source: src}
}

// Evaluate writes jointPose ∘ inverseBindPose for every cluster into states.
// states must have been allocated with AllocateStates(meshes).
func (e *Evaluator) Evaluate(meshes [][]Cluster, states []MeshState) {
	checkShape(meshes, states)
	for i, clusters := range meshes {
		out := states[i].Clusters
		for j, cluster := range clusters {
			jointPose := e.Source.JointPose(cluster.JointIndex)
			out[j] = Pack(jointPose.Mul(cluster.InverseBindPose))
		}
	}
}

// CauterizePose returns the pose substituted for cauterized joints: the anchor
// joint's pose with its scale collapsed to zero.
func (e *Evaluator) CauterizePose(anchorJoint int) math.Pose {
	return e.Source.JointPose(anchorJoint).WithZeroScale()
}

// EvaluateCauterized writes the cauterized variant into states. Clusters whose
// joint is in bones use the cauterize pose; all others match Evaluate.
// It returns false without touching states when bones is empty.
func (e *Evaluator) EvaluateCauterized(meshes [][]Cluster, states []MeshState, bones BoneSet, anchorJoint int) bool {
	if len(bones) == 0 {
		return false
	}
	checkShape(meshes, states)

	cauterizePose := e.CauterizePose(anchorJoint)
	for i, clusters := range meshes {
		out := states[i].Clusters
		for j, cluster := range clusters {
			jointPose := cauterizePose
			if !bones.Contains(cluster.JointIndex) {
				jointPose = e.Source.JointPose(cluster.JointIndex)
			}
			out[j] = Pack(jointPose.Mul(cluster.InverseBindPose))
		}
	}
	return true
}

func checkShape(meshes [][]Cluster, states []MeshState) {
	if len(states) != len(meshes) {
		OutOfRange("mesh state", len(meshes)-1, len(states))
	}
	for i := range meshes {
		if len(states[i].Clusters) != len(meshes[i]) {
			OutOfRange("cluster", len(meshes[i])-1, len(states[i].Clusters))
		}
	}
}
