// Package skin computes per-mesh skinning states from a skeleton pose source,
// including the cauterized variant used for first-person rendering.
package skin

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-skin/pkg/math"
)

// ErrOutOfRange marks a mesh, cluster or joint index outside its bounds.
// It is only ever raised through a panic: indices come from loaded asset data.
var ErrOutOfRange = errors.New("index out of range")

// OutOfRange panics with an error wrapping ErrOutOfRange.
func OutOfRange(what string, index, count int) {
	panic(fmt.Errorf("%s index %d (count %d): %w", what, index, count, ErrOutOfRange))
}

// Cluster binds a region of a mesh to one joint.
type Cluster struct {
	JointIndex        int
	InverseBindMatrix mgl32.Mat4
	InverseBindPose   math.Pose
}

// NewCluster builds a cluster and caches the decomposed inverse bind pose.
func NewCluster(jointIndex int, inverseBind mgl32.Mat4) Cluster {
	return Cluster{
		JointIndex:        jointIndex,
		InverseBindMatrix: inverseBind,
		InverseBindPose:   math.PoseFromMat4(inverseBind),
	}
}

// MeshState holds one packed transform per cluster of a mesh.
type MeshState struct {
	Clusters []PackedCluster
}

// AllocateStates returns one zeroed MeshState per mesh, sized to its cluster count.
func AllocateStates(meshes [][]Cluster) []MeshState {
	states := make([]MeshState, len(meshes))
	for i, clusters := range meshes {
		states[i].Clusters = make([]PackedCluster, len(clusters))
	}
	return states
}

// StateAt returns states[index], panicking when index is out of range.
func StateAt(states []MeshState, index int) MeshState {
	if index < 0 || index >= len(states) {
		OutOfRange("mesh", index, len(states))
	}
	return states[index]
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s MeshState) Clone() MeshState {
	out := MeshState{Clusters: make([]PackedCluster, len(s.Clusters))}
	copy(out.Clusters, s.Clusters)
	return out
}
