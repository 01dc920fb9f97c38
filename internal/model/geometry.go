package model

import (
	"github.com/Faultbox/midgard-skin/internal/render"
	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Mesh is one loaded mesh of a model.
type Mesh struct {
	Name        string
	Clusters    []skin.Cluster
	NumParts    int
	LocalBound  math.AABB
	BlendShapes int
}

// Geometry is the loaded mesh set of a model. Nil entries in Meshes are meshes
// that failed to load; they keep their index but produce no render items.
type Geometry struct {
	Meshes []*Mesh
	// NeckJointIndex anchors the cauterize pose.
	NeckJointIndex int
}

// HasBlendedMeshes reports whether any mesh carries blend shapes.
func (g *Geometry) HasBlendedMeshes() bool {
	for _, m := range g.Meshes {
		if m != nil && m.BlendShapes > 0 {
			return true
		}
	}
	return false
}

// clusterSets returns the clusters of every mesh, indexed like Meshes.
func (g *Geometry) clusterSets() [][]skin.Cluster {
	sets := make([][]skin.Cluster, len(g.Meshes))
	for i, m := range g.Meshes {
		if m != nil {
			sets[i] = m.Clusters
		}
	}
	return sets
}

func (m *Mesh) partDesc() render.PartDesc {
	return render.PartDesc{
		LocalBound:   m.LocalBound,
		ClusterCount: len(m.Clusters),
		BlendShaped:  m.BlendShapes > 0,
	}
}
