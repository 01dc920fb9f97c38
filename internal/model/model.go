// Package model ties a skeleton pose source, the skinning states it produces and
// the render items that consume them into one avatar model. Cauterization is a
// flag on the model rather than a separate type: when enabled the model carries
// a second set of skinning states with the cauterized bones collapsed.
package model

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/blend"
	"github.com/Faultbox/midgard-skin/internal/handle"
	"github.com/Faultbox/midgard-skin/internal/metrics"
	"github.com/Faultbox/midgard-skin/internal/render"
	"github.com/Faultbox/midgard-skin/internal/skin"
)

var (
	// ErrNotLoaded is returned when an operation needs geometry that has not been applied yet.
	ErrNotLoaded = errors.New("model geometry not loaded")
	// ErrMeshCountMismatch is returned when the render geometry and the skinning
	// states disagree on the number of meshes.
	ErrMeshCountMismatch = errors.New("mesh count does not match skinning states")
)

// DeferredQueue runs registered closures once, late in the frame.
type DeferredQueue interface {
	RegisterOnce(key any, fn func())
}

// SceneSink accepts render item transactions.
type SceneSink interface {
	AllocateID() render.ItemID
	EnqueueTransaction(tx render.Transaction)
}

// Deps are the engine services a model uses. Rig, Queue, Scene and Registry are required.
type Deps struct {
	Rig      skin.PoseSource
	Queue    DeferredQueue
	Scene    SceneSink
	Registry *handle.Table[Model]
	Blender  blend.Notifier
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Options configure a new model.
type Options struct {
	Name      string
	Cauterize bool
}

// cauterization is the state a cauterized model carries on top of a normal one.
type cauterization struct {
	boneSet skin.BoneSet
	states  []skin.MeshState
}

type shapeInfo struct {
	meshIndex int
}

// Model is a skinned avatar model.
type Model struct {
	name   string
	handle handle.Handle
	deps   Deps
	log    *zap.Logger

	evaluator *skin.Evaluator

	renderGeometry      *Geometry
	geometry            *Geometry
	clusterSets         [][]skin.Cluster
	needsGeometryUpdate bool

	meshStates    []skin.MeshState
	cauterization *cauterization

	translation mgl32.Vec3
	rotation    mgl32.Quat
	scale       mgl32.Vec3
	offset      mgl32.Vec3

	needsUpdateClusterMatrices bool
	renderItemsNeedUpdate      bool
	addedToScene               bool

	pendingItems []*render.ModelMeshPartPayload
	itemIDs      []render.ItemID
	itemShapes   []shapeInfo

	blendshapeCoefficients        []float32
	blendedBlendshapeCoefficients []float32
}

// New creates a model and registers it in deps.Registry.
func New(deps Deps, opts Options) *Model {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	m := &Model{
		name:      opts.Name,
		deps:      deps,
		log:       deps.Logger.With(zap.String("model", opts.Name)),
		evaluator: skin.NewEvaluator(deps.Rig),
		rotation:  mgl32.QuatIdent(),
		scale:     mgl32.Vec3{1, 1, 1},
	}
	if opts.Cauterize {
		m.cauterization = &cauterization{boneSet: skin.NewBoneSet()}
	}
	m.handle = deps.Registry.Insert(m)
	return m
}

// Destroy unregisters the model. Deferred updates still queued for it become no-ops.
func (m *Model) Destroy() {
	m.deps.Registry.Remove(m.handle)
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Handle returns the model's stable handle.
func (m *Model) Handle() handle.Handle {
	return m.handle
}

// IsCauterized reports whether the model keeps cauterized skinning states.
func (m *Model) IsCauterized() bool {
	return m.cauterization != nil
}

// IsLoaded reports whether geometry has been applied and skinning states allocated.
func (m *Model) IsLoaded() bool {
	return m.geometry != nil
}

// IsAddedToScene reports whether the model's render items are in the scene.
func (m *Model) IsAddedToScene() bool {
	return m.addedToScene
}

// SetGeometry installs new render geometry. Skinning states follow on the next UpdateGeometry.
func (m *Model) SetGeometry(g *Geometry) {
	m.renderGeometry = g
	m.needsGeometryUpdate = true
}

// UpdateGeometry applies geometry set with SetGeometry, reallocating the skinning
// states to the new cluster counts. It returns true when a full update happened.
func (m *Model) UpdateGeometry() bool {
	if !m.needsGeometryUpdate {
		return false
	}
	m.needsGeometryUpdate = false
	m.DeleteGeometry()

	g := m.renderGeometry
	if g == nil {
		return true
	}
	m.geometry = g
	m.clusterSets = g.clusterSets()
	m.meshStates = skin.AllocateStates(m.clusterSets)
	if c := m.cauterization; c != nil {
		if len(c.states) != 0 {
			panic("model: cauterized states allocated before geometry update")
		}
		c.states = skin.AllocateStates(m.clusterSets)
	}
	m.needsUpdateClusterMatrices = true
	m.renderItemsNeedUpdate = true
	return true
}

// DeleteGeometry drops the skinning states of both variants.
func (m *Model) DeleteGeometry() {
	m.geometry = nil
	m.clusterSets = nil
	m.meshStates = nil
	if m.cauterization != nil {
		m.cauterization.states = nil
	}
}

// SetCauterized turns cauterization on or off. Render items are rebuilt when the
// model is in the scene, since payloads carry the cauterized draw path.
func (m *Model) SetCauterized(enabled bool) {
	if enabled == m.IsCauterized() {
		return
	}
	if enabled {
		m.cauterization = &cauterization{boneSet: skin.NewBoneSet()}
		if m.IsLoaded() {
			m.cauterization.states = skin.AllocateStates(m.clusterSets)
		}
	} else {
		m.cauterization = nil
	}
	m.needsUpdateClusterMatrices = true
	if m.addedToScene {
		m.RemoveFromScene()
		if err := m.AddToScene(); err != nil {
			m.log.Warn("re-adding render items after cauterize toggle", zap.Error(err))
		}
	}
}

// SetCauterizeBoneSet replaces the joints collapsed on the cauterized path.
// It has no effect on a model without cauterization.
func (m *Model) SetCauterizeBoneSet(bones skin.BoneSet) {
	if m.cauterization == nil {
		return
	}
	m.cauterization.boneSet = bones
	m.renderItemsNeedUpdate = true
}

// CauterizeBoneSet returns the current cauterized joints, or nil without cauterization.
func (m *Model) CauterizeBoneSet() skin.BoneSet {
	if m.cauterization == nil {
		return nil
	}
	return m.cauterization.boneSet
}

// SetTranslation moves the model.
func (m *Model) SetTranslation(t mgl32.Vec3) {
	m.translation = t
	m.renderItemsNeedUpdate = true
}

// SetRotation rotates the model.
func (m *Model) SetRotation(r mgl32.Quat) {
	m.rotation = r
	m.renderItemsNeedUpdate = true
}

// SetScale sets the model scale, applied through each item's offset transform.
func (m *Model) SetScale(s mgl32.Vec3) {
	m.scale = s
	m.renderItemsNeedUpdate = true
}

// SetOffset sets the registration offset, applied after scale.
func (m *Model) SetOffset(o mgl32.Vec3) {
	m.offset = o
	m.renderItemsNeedUpdate = true
}

// Translation returns the model position.
func (m *Model) Translation() mgl32.Vec3 {
	return m.translation
}

// Rotation returns the model orientation.
func (m *Model) Rotation() mgl32.Quat {
	return m.rotation
}

// ModelTransform returns the world transform T * R.
func (m *Model) ModelTransform() mgl32.Mat4 {
	return mgl32.Translate3D(m.translation[0], m.translation[1], m.translation[2]).Mul4(m.rotation.Mat4())
}

// OffsetTransform returns S * translate(offset).
func (m *Model) OffsetTransform() mgl32.Mat4 {
	return mgl32.Scale3D(m.scale[0], m.scale[1], m.scale[2]).
		Mul4(mgl32.Translate3D(m.offset[0], m.offset[1], m.offset[2]))
}

// NotifyPoseChanged marks the skeleton as moved; the next Simulate schedules an update.
func (m *Model) NotifyPoseChanged() {
	m.renderItemsNeedUpdate = true
}

// SetBlendshapeCoefficients stores new blend weights.
func (m *Model) SetBlendshapeCoefficients(c []float32) {
	m.blendshapeCoefficients = slices.Clone(c)
	m.renderItemsNeedUpdate = true
}

// MeshState returns the normal skinning state of a mesh. An index outside the
// mesh count panics with skin.ErrOutOfRange.
func (m *Model) MeshState(meshIndex int) skin.MeshState {
	return skin.StateAt(m.meshStates, meshIndex)
}

// CauterizedMeshState returns the cauterized skinning state of a mesh.
// It panics with skin.ErrOutOfRange when the index is out of range or the model
// is not cauterized.
func (m *Model) CauterizedMeshState(meshIndex int) skin.MeshState {
	if m.cauterization == nil {
		skin.OutOfRange("cauterized mesh", meshIndex, 0)
	}
	return skin.StateAt(m.cauterization.states, meshIndex)
}

// MeshCount returns the number of allocated skinning states.
func (m *Model) MeshCount() int {
	return len(m.meshStates)
}

// Simulate is the per-frame hook: it applies pending geometry, rebuilding render
// items when the mesh set changed, then schedules a render item update if needed.
func (m *Model) Simulate() {
	if m.UpdateGeometry() && m.addedToScene {
		m.RemoveFromScene()
		if err := m.AddToScene(); err != nil {
			m.log.Debug("render items not rebuilt", zap.Error(err))
		}
	}
	if m.renderItemsNeedUpdate {
		m.UpdateRenderItems()
	}
}
