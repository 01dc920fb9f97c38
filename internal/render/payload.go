package render

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/midgard-skin/internal/handle"
	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// MeshPartPayload is the base render item for one part of a mesh.
type MeshPartPayload struct {
	PartIndex int

	// Transform is the render transform; OffsetTransform is applied after it for drawing.
	Transform       mgl32.Mat4
	OffsetTransform mgl32.Mat4
	DrawTransform   mgl32.Mat4

	LocalBound         math.AABB
	AdjustedLocalBound math.AABB
	WorldBound         math.AABB
}

// NewMeshPartPayload creates a payload for a part with the given local bound.
func NewMeshPartPayload(partIndex int, localBound math.AABB) *MeshPartPayload {
	return &MeshPartPayload{
		PartIndex:          partIndex,
		Transform:          mgl32.Ident4(),
		OffsetTransform:    mgl32.Ident4(),
		DrawTransform:      mgl32.Ident4(),
		LocalBound:         localBound,
		AdjustedLocalBound: localBound,
		WorldBound:         localBound,
	}
}

// UpdateTransform sets the render and offset transforms of a rigid part.
func (p *MeshPartPayload) UpdateTransform(transform, offset mgl32.Mat4) {
	p.Transform = transform
	p.OffsetTransform = offset
	p.DrawTransform = transform.Mul4(offset)
	p.WorldBound = p.LocalBound.Transform(p.DrawTransform)
}

// Bound implements Item.
func (p *MeshPartPayload) Bound() math.AABB {
	return p.WorldBound
}

// PayloadState gates one-time resource allocation for a ModelMeshPartPayload.
type PayloadState uint8

const (
	WaitingToStart PayloadState = iota
	Started
)

func (s PayloadState) String() string {
	switch s {
	case WaitingToStart:
		return "waiting_to_start"
	case Started:
		return "started"
	default:
		return "unknown"
	}
}

// PartDesc describes the mesh a part belongs to.
type PartDesc struct {
	LocalBound   math.AABB
	ClusterCount int
	BlendShaped  bool
}

// ModelMeshPartPayload is the render item for a part of a skinned model mesh.
// When Cauterized is set it carries a second cluster buffer and transform used
// by the first-person draw path.
type ModelMeshPartPayload struct {
	MeshPartPayload

	Model     handle.Handle
	MeshIndex int
	ShapeID   int

	IsSkinned     bool
	IsBlendShaped bool
	Cauterized    bool

	CauterizedTransform mgl32.Mat4

	clusterCount            int
	clusterBuffer           *ClusterBuffer
	cauterizedClusterBuffer *ClusterBuffer
	state                   PayloadState
}

// NewModelMeshPartPayload creates a payload in the WaitingToStart state.
func NewModelMeshPartPayload(model handle.Handle, meshIndex, partIndex, shapeID int, desc PartDesc, transform, offset mgl32.Mat4, cauterized bool) *ModelMeshPartPayload {
	p := &ModelMeshPartPayload{
		MeshPartPayload:     *NewMeshPartPayload(partIndex, desc.LocalBound),
		Model:               model,
		MeshIndex:           meshIndex,
		ShapeID:             shapeID,
		IsSkinned:           desc.ClusterCount > 1,
		IsBlendShaped:       desc.BlendShaped,
		Cauterized:          cauterized,
		CauterizedTransform: mgl32.Ident4(),
		clusterCount:        desc.ClusterCount,
	}
	p.UpdateTransform(transform, offset)
	p.CauterizedTransform = p.Transform
	return p
}

// State returns the allocation state.
func (p *ModelMeshPartPayload) State() PayloadState {
	return p.state
}

// initCache allocates the cluster buffers once. Rigid parts (at most one
// cluster) are drawn through their transform and get no buffer.
func (p *ModelMeshPartPayload) initCache() {
	if p.state == Started {
		return
	}
	if p.IsSkinned {
		p.clusterBuffer = NewClusterBuffer(p.clusterCount)
		if p.Cauterized {
			p.cauterizedClusterBuffer = NewClusterBuffer(p.clusterCount)
		}
	}
	p.state = Started
}

// UpdateClusterBuffer uploads new cluster data and recomputes the adjusted local
// bound from the normal clusters. cauterized is ignored unless the payload is cauterized.
func (p *ModelMeshPartPayload) UpdateClusterBuffer(clusters, cauterized []skin.PackedCluster) {
	p.initCache()

	if p.clusterBuffer != nil {
		p.clusterBuffer.Update(clusters)
	}
	if p.cauterizedClusterBuffer != nil {
		p.cauterizedClusterBuffer.Update(cauterized)
	}
	p.ComputeAdjustedLocalBound(clusters)
}

// ComputeAdjustedLocalBound sets the adjusted bound to the union of the local
// bound transformed by each cluster.
func (p *ModelMeshPartPayload) ComputeAdjustedLocalBound(clusters []skin.PackedCluster) {
	if len(clusters) == 0 {
		p.AdjustedLocalBound = p.LocalBound
		return
	}
	adjusted := math.EmptyAABB()
	for _, c := range clusters {
		adjusted = adjusted.Union(p.LocalBound.Transform(c.Mat4()))
	}
	p.AdjustedLocalBound = adjusted
}

// UpdateOffsetTransform replaces the offset applied after the render transform.
// The draw transform and bound follow on the next UpdateTransformForSkinnedMesh.
func (p *ModelMeshPartPayload) UpdateOffsetTransform(offset mgl32.Mat4) {
	p.OffsetTransform = offset
}

// UpdateTransformForSkinnedMesh sets the render transform and recomputes the
// world bound. Skinned parts draw model * offset * skin(v), so their bound is
// the adjusted local bound under boundTransform * offset. Rigid parts draw
// through DrawTransform alone and take their local bound under it.
func (p *ModelMeshPartPayload) UpdateTransformForSkinnedMesh(renderTransform, boundTransform mgl32.Mat4) {
	p.Transform = renderTransform
	p.DrawTransform = renderTransform.Mul4(p.OffsetTransform)
	if !p.IsSkinned {
		p.WorldBound = p.LocalBound.Transform(p.DrawTransform)
		return
	}
	p.WorldBound = p.AdjustedLocalBound.Transform(boundTransform.Mul4(p.OffsetTransform))
}

// UpdateTransformForCauterizedMesh sets the render transform of the cauterized draw path.
func (p *ModelMeshPartPayload) UpdateTransformForCauterizedMesh(renderTransform mgl32.Mat4) {
	p.CauterizedTransform = renderTransform
}

// DrawState is what a draw call binds for one payload.
type DrawState struct {
	Clusters  *ClusterBuffer
	Transform mgl32.Mat4
}

// DrawState returns the buffer and transform for the requested path. The
// cauterized path is only taken when the payload carries cauterized data.
func (p *ModelMeshPartPayload) DrawState(cauterize bool) DrawState {
	if cauterize && p.Cauterized {
		return DrawState{
			Clusters:  p.cauterizedClusterBuffer,
			Transform: p.CauterizedTransform.Mul4(p.OffsetTransform),
		}
	}
	return DrawState{
		Clusters:  p.clusterBuffer,
		Transform: p.DrawTransform,
	}
}
