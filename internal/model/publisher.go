package model

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/render"
	"github.com/Faultbox/midgard-skin/internal/skin"
)

// CreateVisibleRenderItemSet builds one payload per visible mesh part. When the
// render geometry and the skinning states disagree on the mesh count nothing is
// built and ErrMeshCountMismatch is returned; a later frame can retry.
func (m *Model) CreateVisibleRenderItemSet() error {
	if !m.IsLoaded() || m.renderGeometry == nil {
		return ErrNotLoaded
	}
	meshes := m.renderGeometry.Meshes
	if len(meshes) != len(m.meshStates) {
		m.log.Warn("mesh sizes don't match, not building render items",
			zap.Int("meshes", len(meshes)),
			zap.Int("states", len(m.meshStates)),
		)
		m.deps.Metrics.MeshMismatch()
		return ErrMeshCountMismatch
	}

	m.pendingItems = m.pendingItems[:0]
	m.itemShapes = m.itemShapes[:0]

	transform := m.ModelTransform()
	offset := m.OffsetTransform()
	cauterized := m.IsCauterized()

	shapeID := 0
	for i, mesh := range meshes {
		if mesh == nil {
			continue
		}
		for part := 0; part < mesh.NumParts; part++ {
			p := render.NewModelMeshPartPayload(m.handle, i, part, shapeID, mesh.partDesc(), transform, offset, cauterized)
			m.pendingItems = append(m.pendingItems, p)
			m.itemShapes = append(m.itemShapes, shapeInfo{meshIndex: i})
			shapeID++
		}
	}
	return nil
}

// AddToScene builds the render items and inserts them into the scene in one
// transaction, then schedules their first update.
func (m *Model) AddToScene() error {
	if m.addedToScene {
		return nil
	}
	if err := m.CreateVisibleRenderItemSet(); err != nil {
		return err
	}

	var tx render.Transaction
	m.itemIDs = m.itemIDs[:0]
	for _, p := range m.pendingItems {
		id := m.deps.Scene.AllocateID()
		tx.ResetItem(id, p)
		m.itemIDs = append(m.itemIDs, id)
	}
	// the scene owns the payloads from here on
	m.pendingItems = nil
	m.deps.Scene.EnqueueTransaction(tx)

	m.addedToScene = true
	m.UpdateRenderItems()
	return nil
}

// RemoveFromScene removes all render items in one transaction.
func (m *Model) RemoveFromScene() {
	if !m.addedToScene {
		return
	}
	var tx render.Transaction
	for _, id := range m.itemIDs {
		tx.RemoveItem(id)
	}
	m.deps.Scene.EnqueueTransaction(tx)

	m.itemIDs = nil
	m.itemShapes = nil
	m.addedToScene = false
}

// ItemIDs returns the scene IDs of the model's render items.
func (m *Model) ItemIDs() []render.ItemID {
	return append([]render.ItemID(nil), m.itemIDs...)
}

// UpdateRenderItems schedules the deferred render item update. Repeated calls
// before the queue flushes replace each other, so one update runs per frame.
func (m *Model) UpdateRenderItems() {
	if !m.addedToScene {
		return
	}
	m.needsUpdateClusterMatrices = true
	m.renderItemsNeedUpdate = false

	weak := m.deps.Registry.WeakRef(m.handle)
	mt := m.deps.Metrics
	m.deps.Queue.RegisterOnce(m.handle, func() {
		self, ok := weak.Lock()
		if !ok || !self.IsLoaded() {
			mt.DeferredSkipped()
			return
		}
		self.publishRenderItems()
	})
}

// publishRenderItems evaluates the skinning states if stale and pushes them
// into every render item through a single transaction.
func (m *Model) publishRenderItems() {
	// evaluate here so the bounds below see this frame's clusters
	m.UpdateClusterMatrices()

	modelTransform := m.ModelTransform()
	offset := m.OffsetTransform()

	type meshClusters struct {
		normal, cauterized []skin.PackedCluster
	}
	snapshots := make(map[int]meshClusters)
	snapshot := func(meshIndex int) meshClusters {
		if s, ok := snapshots[meshIndex]; ok {
			return s
		}
		s := meshClusters{normal: m.MeshState(meshIndex).Clone().Clusters}
		if c := m.cauterization; c != nil {
			if len(c.boneSet) > 0 {
				s.cauterized = m.CauterizedMeshState(meshIndex).Clone().Clusters
			} else {
				s.cauterized = s.normal
			}
		}
		snapshots[meshIndex] = s
		return s
	}

	var tx render.Transaction
	for i, id := range m.itemIDs {
		s := snapshot(m.itemShapes[i].meshIndex)
		render.UpdateItem(&tx, id, func(p *render.ModelMeshPartPayload) {
			p.UpdateClusterBuffer(s.normal, s.cauterized)
			p.UpdateOffsetTransform(offset)
			p.UpdateTransformForSkinnedMesh(RenderTransform(modelTransform, s.normal), modelTransform)
			if s.cauterized != nil {
				p.UpdateTransformForCauterizedMesh(RenderTransform(modelTransform, s.cauterized))
			}
		})
	}
	if tx.IsEmpty() {
		return
	}
	m.deps.Scene.EnqueueTransaction(tx)
	m.deps.Metrics.TransactionEnqueued(len(m.itemIDs))
}

// RenderTransform returns the transform a part is drawn with. A mesh bound to a
// single cluster is a rigid attachment and takes that cluster's transform;
// skinned meshes use the model transform and deform in the shader.
func RenderTransform(modelTransform mgl32.Mat4, clusters []skin.PackedCluster) mgl32.Mat4 {
	if len(clusters) == 1 {
		return modelTransform.Mul4(clusters[0].Mat4())
	}
	return modelTransform
}
