package model

import (
	"slices"

	"github.com/Faultbox/midgard-skin/internal/metrics"
)

// UpdateClusterMatrices recomputes the skinning states when the pose is marked
// dirty and geometry is loaded. Both the normal and the cauterized states are
// written before it returns, so a reader never sees them from different frames.
// It returns false when there was nothing to do.
func (m *Model) UpdateClusterMatrices() bool {
	if !m.needsUpdateClusterMatrices || !m.IsLoaded() {
		return false
	}
	m.needsUpdateClusterMatrices = false

	m.evaluator.Evaluate(m.clusterSets, m.meshStates)
	m.deps.Metrics.Evaluated(metrics.VariantNormal)

	// an empty bone set leaves the cauterized states untouched
	if c := m.cauterization; c != nil {
		if m.evaluator.EvaluateCauterized(m.clusterSets, c.states, c.boneSet, m.geometry.NeckJointIndex) {
			m.deps.Metrics.Evaluated(metrics.VariantCauterized)
		}
	}

	if m.geometry.HasBlendedMeshes() && !slices.Equal(m.blendshapeCoefficients, m.blendedBlendshapeCoefficients) {
		m.blendedBlendshapeCoefficients = slices.Clone(m.blendshapeCoefficients)
		if m.deps.Blender != nil {
			m.deps.Blender.NoteRequiresBlend(m.handle)
			m.deps.Metrics.BlendRequested()
		}
	}
	return true
}
