package assets

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/midgard-skin/internal/model"
	"github.com/Faultbox/midgard-skin/internal/rig"
	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

var (
	// ErrUnknownJoint is returned when a name does not match any skeleton joint.
	ErrUnknownJoint = errors.New("unknown joint")
	// ErrInvalidAvatar is returned for structurally broken avatar files.
	ErrInvalidAvatar = errors.New("invalid avatar")
)

// AvatarFile is the YAML layout of an avatar description.
type AvatarFile struct {
	Name            string      `yaml:"name"`
	ClipLengthMs    float32     `yaml:"clip_length_ms"`
	NeckJoint       string      `yaml:"neck_joint"`
	CauterizeJoints []string    `yaml:"cauterize_joints"`
	Joints          []JointFile `yaml:"joints"`
	Meshes          []MeshFile  `yaml:"meshes"`
}

// JointFile describes one joint. Parent is a joint name; empty means root.
type JointFile struct {
	Name        string     `yaml:"name"`
	Parent      string     `yaml:"parent"`
	Translation [3]float32 `yaml:"translation"`
	// Rotation is a quaternion as x, y, z, w.
	Rotation  *[4]float32 `yaml:"rotation"`
	Scale     *[3]float32 `yaml:"scale"`
	RotKeys   []QuatKey   `yaml:"rot_keys"`
	PosKeys   []Vec3Key   `yaml:"pos_keys"`
	ScaleKeys []Vec3Key   `yaml:"scale_keys"`
}

// QuatKey is a rotation keyframe (x, y, z, w).
type QuatKey struct {
	Frame float32    `yaml:"frame"`
	Value [4]float32 `yaml:"value"`
}

// Vec3Key is a translation or scale keyframe.
type Vec3Key struct {
	Frame float32    `yaml:"frame"`
	Value [3]float32 `yaml:"value"`
}

// MeshFile describes one mesh. A missing mesh keeps its slot but draws nothing.
type MeshFile struct {
	Name        string        `yaml:"name"`
	Missing     bool          `yaml:"missing"`
	Parts       int           `yaml:"parts"`
	BlendShapes int           `yaml:"blend_shapes"`
	Bound       BoundFile     `yaml:"bound"`
	Clusters    []ClusterFile `yaml:"clusters"`
}

// BoundFile is an axis-aligned box in mesh space.
type BoundFile struct {
	Min [3]float32 `yaml:"min"`
	Max [3]float32 `yaml:"max"`
}

// ClusterFile binds a mesh to a joint. When InverseBind is omitted the inverse
// of the joint's rest transform is used.
type ClusterFile struct {
	Joint       string      `yaml:"joint"`
	InverseBind *[16]float32 `yaml:"inverse_bind"`
}

// Avatar is a loaded avatar: its skeleton, render geometry and default
// cauterized joints.
type Avatar struct {
	Name           string
	Skeleton       *rig.Skeleton
	Geometry       *model.Geometry
	CauterizeBones skin.BoneSet
}

// ParseAvatar decodes and builds an avatar.
func ParseAvatar(data []byte) (*Avatar, error) {
	var f AvatarFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding avatar: %w", err)
	}
	return f.Build()
}

// Build resolves joint names and assembles the skeleton and geometry.
func (f *AvatarFile) Build() (*Avatar, error) {
	if len(f.Joints) == 0 {
		return nil, fmt.Errorf("%w: no joints", ErrInvalidAvatar)
	}

	skel, err := f.buildSkeleton()
	if err != nil {
		return nil, err
	}

	a := &Avatar{
		Name:     f.Name,
		Skeleton: skel,
		Geometry: &model.Geometry{},
	}

	if f.NeckJoint != "" {
		neck, err := a.Joint(f.NeckJoint)
		if err != nil {
			return nil, fmt.Errorf("neck joint: %w", err)
		}
		a.Geometry.NeckJointIndex = neck
	}

	if a.CauterizeBones, err = a.ResolveBones(f.CauterizeJoints); err != nil {
		return nil, fmt.Errorf("cauterize joints: %w", err)
	}

	for i := range f.Meshes {
		mesh, err := a.buildMesh(&f.Meshes[i])
		if err != nil {
			return nil, fmt.Errorf("mesh %d (%s): %w", i, f.Meshes[i].Name, err)
		}
		a.Geometry.Meshes = append(a.Geometry.Meshes, mesh)
	}
	return a, nil
}

func (f *AvatarFile) buildSkeleton() (*rig.Skeleton, error) {
	index := make(map[string]int, len(f.Joints))
	joints := make([]rig.Joint, len(f.Joints))
	for i, jf := range f.Joints {
		parent := rig.NoParent
		if jf.Parent != "" {
			p, ok := index[jf.Parent]
			if !ok {
				return nil, fmt.Errorf("joint %q parent %q: %w", jf.Name, jf.Parent, ErrUnknownJoint)
			}
			parent = p
		}
		index[jf.Name] = i

		j := rig.Joint{
			Name:        jf.Name,
			Parent:      parent,
			Translation: mgl32.Vec3(jf.Translation),
		}
		if jf.Rotation != nil {
			j.Rotation = quat(*jf.Rotation)
		}
		if jf.Scale != nil {
			j.Scale = mgl32.Vec3(*jf.Scale)
		}
		for _, k := range jf.RotKeys {
			j.RotKeys = append(j.RotKeys, rig.RotKey{Frame: k.Frame, Rotation: quat(k.Value)})
		}
		for _, k := range jf.PosKeys {
			j.PosKeys = append(j.PosKeys, rig.VecKey{Frame: k.Frame, Value: mgl32.Vec3(k.Value)})
		}
		for _, k := range jf.ScaleKeys {
			j.ScaleKeys = append(j.ScaleKeys, rig.VecKey{Frame: k.Frame, Value: mgl32.Vec3(k.Value)})
		}
		joints[i] = j
	}

	skel, err := rig.NewSkeleton(joints, f.ClipLengthMs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAvatar, err)
	}
	return skel, nil
}

func (a *Avatar) buildMesh(mf *MeshFile) (*model.Mesh, error) {
	if mf.Missing {
		return nil, nil
	}
	if mf.Parts < 0 {
		return nil, fmt.Errorf("%w: negative part count", ErrInvalidAvatar)
	}

	mesh := &model.Mesh{
		Name:        mf.Name,
		NumParts:    mf.Parts,
		BlendShapes: mf.BlendShapes,
		LocalBound: math.AABB{
			Min: mgl32.Vec3(mf.Bound.Min),
			Max: mgl32.Vec3(mf.Bound.Max),
		},
	}
	if mesh.NumParts == 0 {
		mesh.NumParts = 1
	}

	for _, cf := range mf.Clusters {
		joint, err := a.Joint(cf.Joint)
		if err != nil {
			return nil, err
		}
		inverseBind := a.Skeleton.InverseBindMatrix(joint)
		if cf.InverseBind != nil {
			inverseBind = mgl32.Mat4(*cf.InverseBind)
		}
		mesh.Clusters = append(mesh.Clusters, skin.NewCluster(joint, inverseBind))
	}
	return mesh, nil
}

// Joint returns the index of a named joint.
func (a *Avatar) Joint(name string) (int, error) {
	i, ok := a.Skeleton.JointIndex(name)
	if !ok {
		return 0, fmt.Errorf("%q: %w", name, ErrUnknownJoint)
	}
	return i, nil
}

// ResolveBones builds a bone set from joint names.
func (a *Avatar) ResolveBones(names []string) (skin.BoneSet, error) {
	bones := skin.NewBoneSet()
	for _, name := range names {
		i, err := a.Joint(name)
		if err != nil {
			return nil, err
		}
		bones[i] = struct{}{}
	}
	return bones, nil
}

func quat(v [4]float32) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}.Normalize()
}
