package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-skin/internal/handle"
	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

var unitBox = math.AABB{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}}

func TestSceneTransactionIsInvisibleUntilProcessed(t *testing.T) {
	s := NewScene()
	id := s.AllocateID()
	require.NotEqual(t, InvalidItemID, id)

	var tx Transaction
	tx.ResetItem(id, NewMeshPartPayload(0, unitBox))
	s.EnqueueTransaction(tx)

	_, ok := s.Item(id)
	assert.False(t, ok, "item visible before processing")
	assert.Equal(t, 1, s.PendingTransactions())

	assert.Equal(t, 1, s.ProcessTransactionQueue())
	_, ok = s.Item(id)
	assert.True(t, ok)
	assert.Equal(t, 0, s.PendingTransactions())
}

func TestSceneEnqueueCopiesTransaction(t *testing.T) {
	s := NewScene()
	a, b := s.AllocateID(), s.AllocateID()

	var tx Transaction
	tx.ResetItem(a, NewMeshPartPayload(0, unitBox))
	s.EnqueueTransaction(tx)
	tx.ResetItem(b, NewMeshPartPayload(1, unitBox))

	s.ProcessTransactionQueue()
	assert.Equal(t, 1, s.Len())
}

func TestSceneEmptyTransactionIgnored(t *testing.T) {
	s := NewScene()
	s.EnqueueTransaction(Transaction{})
	assert.Equal(t, 0, s.PendingTransactions())
}

func TestTypedUpdateAndRemove(t *testing.T) {
	s := NewScene()
	id := s.AllocateID()

	var setup Transaction
	setup.ResetItem(id, NewMeshPartPayload(3, unitBox))
	s.EnqueueTransaction(setup)
	s.ProcessTransactionQueue()

	var tx Transaction
	UpdateItem(&tx, id, func(p *MeshPartPayload) {
		p.UpdateTransform(mgl32.Translate3D(5, 0, 0), mgl32.Ident4())
	})
	UpdateItem(&tx, id, func(p *ModelMeshPartPayload) {
		t.Error("update for the wrong payload type must be skipped")
	})
	UpdateItem(&tx, s.AllocateID(), func(p *MeshPartPayload) {
		t.Error("update for a missing item must be skipped")
	})
	s.EnqueueTransaction(tx)
	s.ProcessTransactionQueue()

	ok := s.View(id, func(it Item) {
		assert.Equal(t, mgl32.Vec3{4, -1, -1}, it.Bound().Min)
	})
	assert.True(t, ok)

	var rm Transaction
	rm.RemoveItem(id)
	s.EnqueueTransaction(rm)
	s.ProcessTransactionQueue()
	assert.Equal(t, 0, s.Len())
}

func TestClusterBufferLayout(t *testing.T) {
	clusters := []skin.PackedCluster{
		skin.Pack(math.TranslationPose(mgl32.Vec3{1, 0, 0})),
		skin.Pack(math.IdentityPose()),
	}
	b := NewClusterBuffer(1)
	b.Update(clusters)

	assert.Equal(t, 2, b.Len())
	assert.Len(t, b.Bytes(), 2*PackedClusterSize)
	assert.Equal(t, uint64(1), b.Version())
	assert.Equal(t, clusters[0], b.Cluster(0))
	assert.Equal(t, clusters[1], b.Cluster(1))
	assert.Panics(t, func() { b.Cluster(2) })

	decoded := b.Clusters()
	assert.Equal(t, clusters, decoded)
	b.Update([]skin.PackedCluster{skin.Pack(math.IdentityPose())})
	assert.Equal(t, clusters[0], decoded[0], "decoded clusters do not alias the buffer")

	// scale.x of the first cluster: 1.0f little endian
	assert.Equal(t, []byte{0x00, 0x00, 0x80, 0x3f}, b.Bytes()[0:4])
}

func newSkinnedPayload(clusterCount int, cauterized bool) *ModelMeshPartPayload {
	desc := PartDesc{LocalBound: unitBox, ClusterCount: clusterCount}
	return NewModelMeshPartPayload(handle.Handle{}, 0, 0, 0, desc, mgl32.Ident4(), mgl32.Ident4(), cauterized)
}

func TestPayloadStateMachine(t *testing.T) {
	p := newSkinnedPayload(3, true)
	assert.Equal(t, WaitingToStart, p.State())
	assert.Nil(t, p.DrawState(false).Clusters)

	clusters := make([]skin.PackedCluster, 3)
	for i := range clusters {
		clusters[i] = skin.Pack(math.IdentityPose())
	}
	p.UpdateClusterBuffer(clusters, clusters)
	assert.Equal(t, Started, p.State())

	normal := p.DrawState(false).Clusters
	require.NotNil(t, normal)
	require.NotNil(t, p.DrawState(true).Clusters)
	assert.NotSame(t, normal, p.DrawState(true).Clusters)

	// buffers are allocated once
	p.UpdateClusterBuffer(clusters, clusters)
	assert.Same(t, normal, p.DrawState(false).Clusters)
	assert.Equal(t, uint64(2), normal.Version())
	assert.Equal(t, Started, p.State())
}

func TestRigidPayloadHasNoBuffer(t *testing.T) {
	p := newSkinnedPayload(1, true)
	p.UpdateClusterBuffer([]skin.PackedCluster{skin.Pack(math.IdentityPose())}, nil)

	assert.Equal(t, Started, p.State())
	assert.Nil(t, p.DrawState(false).Clusters)
	assert.False(t, p.IsSkinned)
}

func TestNonCauterizedPayloadIgnoresCauterizedPath(t *testing.T) {
	p := newSkinnedPayload(2, false)
	p.UpdateTransformForCauterizedMesh(mgl32.Scale3D(0, 0, 0))

	ds := p.DrawState(true)
	assert.Equal(t, p.DrawTransform, ds.Transform)
}

func TestAdjustedLocalBoundFollowsClusters(t *testing.T) {
	p := newSkinnedPayload(2, false)

	clusters := []skin.PackedCluster{
		skin.Pack(math.TranslationPose(mgl32.Vec3{-5, 0, 0})),
		skin.Pack(math.TranslationPose(mgl32.Vec3{5, 0, 0})),
	}
	p.UpdateClusterBuffer(clusters, nil)

	assert.True(t, p.AdjustedLocalBound.Min.ApproxEqualThreshold(mgl32.Vec3{-6, -1, -1}, 1e-5), "min %v", p.AdjustedLocalBound.Min)
	assert.True(t, p.AdjustedLocalBound.Max.ApproxEqualThreshold(mgl32.Vec3{6, 1, 1}, 1e-5), "max %v", p.AdjustedLocalBound.Max)

	p.UpdateTransformForSkinnedMesh(mgl32.Ident4(), mgl32.Translate3D(0, 10, 0))
	assert.True(t, p.Bound().Min.ApproxEqualThreshold(mgl32.Vec3{-6, 9, -1}, 1e-5), "world min %v", p.Bound().Min)

	// moving the clusters moves the bound
	clusters[1] = skin.Pack(math.TranslationPose(mgl32.Vec3{20, 0, 0}))
	p.UpdateClusterBuffer(clusters, nil)
	assert.InDelta(t, 21, p.AdjustedLocalBound.Max[0], 1e-5)
}

func TestRigidBoundUsesDrawTransform(t *testing.T) {
	p := newSkinnedPayload(1, false)
	cluster := []skin.PackedCluster{skin.Pack(math.TranslationPose(mgl32.Vec3{3, 0, 0}))}
	p.UpdateClusterBuffer(cluster, nil)
	p.UpdateOffsetTransform(mgl32.Scale3D(2, 2, 2))

	model := mgl32.Translate3D(0, 10, 0)
	p.UpdateTransformForSkinnedMesh(model.Mul4(cluster[0].Mat4()), model)

	// drawn as model * cluster * offset: the box spans x in [1, 5]
	assert.True(t, p.Bound().Min.ApproxEqualThreshold(mgl32.Vec3{1, 8, -2}, 1e-5), "min %v", p.Bound().Min)
	assert.True(t, p.Bound().Max.ApproxEqualThreshold(mgl32.Vec3{5, 12, 2}, 1e-5), "max %v", p.Bound().Max)
}

func TestPayloadStateString(t *testing.T) {
	assert.Equal(t, "waiting_to_start", WaitingToStart.String())
	assert.Equal(t, "started", Started.String())
}
