package render

import (
	"encoding/binary"
	gomath "math"

	"github.com/Faultbox/midgard-skin/internal/skin"
)

// PackedClusterSize is the byte size of one packed cluster (3 × vec4<f32>).
const PackedClusterSize = 48

// ClusterBuffer is the GPU-visible storage for a mesh's packed clusters.
// Layout per cluster, std430 aligned:
//
//	vec4<f32> scale      (offset  0, w unused)
//	vec4<f32> dq_real    (offset 16)
//	vec4<f32> dq_dual    (offset 32)
type ClusterBuffer struct {
	data    []byte
	count   int
	version uint64
}

// NewClusterBuffer allocates storage for count clusters.
func NewClusterBuffer(count int) *ClusterBuffer {
	return &ClusterBuffer{
		data:  make([]byte, count*PackedClusterSize),
		count: count,
	}
}

// Update serializes clusters into the buffer and bumps its version.
// The buffer grows if clusters no longer fit.
func (b *ClusterBuffer) Update(clusters []skin.PackedCluster) {
	size := len(clusters) * PackedClusterSize
	if cap(b.data) < size {
		b.data = make([]byte, size)
	}
	b.data = b.data[:size]
	b.count = len(clusters)

	off := 0
	for _, c := range clusters {
		for row := 0; row < 3; row++ {
			for col := 0; col < 4; col++ {
				binary.LittleEndian.PutUint32(b.data[off:off+4], gomath.Float32bits(c[row][col]))
				off += 4
			}
		}
	}
	b.version++
}

// Bytes returns the raw buffer contents.
func (b *ClusterBuffer) Bytes() []byte {
	return b.data
}

// Len returns the number of clusters stored.
func (b *ClusterBuffer) Len() int {
	return b.count
}

// Version increments on every Update; uploaders compare it to skip unchanged buffers.
func (b *ClusterBuffer) Version() uint64 {
	return b.version
}

// Clusters decodes every stored cluster into a new slice.
func (b *ClusterBuffer) Clusters() []skin.PackedCluster {
	out := make([]skin.PackedCluster, b.count)
	for i := range out {
		out[i] = b.Cluster(i)
	}
	return out
}

// Cluster decodes cluster i from the buffer.
func (b *ClusterBuffer) Cluster(i int) skin.PackedCluster {
	if i < 0 || i >= b.count {
		skin.OutOfRange("cluster", i, b.count)
	}
	var c skin.PackedCluster
	off := i * PackedClusterSize
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			c[row][col] = gomath.Float32frombits(binary.LittleEndian.Uint32(b.data[off : off+4]))
			off += 4
		}
	}
	return c
}
