// Package sim runs the frame loop that drives an avatar model: advance the
// skeleton, simulate the model, flush deferred updates, then let the render
// side apply the resulting scene transactions.
package sim

import (
	"context"
	"fmt"
	gomath "math"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/assets"
	"github.com/Faultbox/midgard-skin/internal/blend"
	"github.com/Faultbox/midgard-skin/internal/deferred"
	"github.com/Faultbox/midgard-skin/internal/handle"
	"github.com/Faultbox/midgard-skin/internal/metrics"
	"github.com/Faultbox/midgard-skin/internal/model"
	"github.com/Faultbox/midgard-skin/internal/render"
	"github.com/Faultbox/midgard-skin/internal/skin"
	"github.com/Faultbox/midgard-skin/pkg/math"
)

// Config holds simulation settings.
type Config struct {
	Cauterize bool
	// CauterizeJoints replaces the avatar's cauterized joints when non-nil.
	CauterizeJoints []string
	// AnchorJoint replaces the avatar's neck joint when set.
	AnchorJoint string
	FrameRate   float64
	// Realtime paces Run to FrameRate instead of stepping as fast as possible.
	Realtime bool

	Logger     *zap.Logger
	Registerer prometheus.Registerer
}

// FrameStats summarizes one simulated frame.
type FrameStats struct {
	Frame        int
	TimeMs       float32
	Closures     int
	Transactions int
	Blends       int
}

// Simulation owns the engine services and one avatar model.
type Simulation struct {
	config Config
	log    *zap.Logger

	avatar   *assets.Avatar
	queue    *deferred.Queue
	scene    *render.Scene
	registry *handle.Table[model.Model]
	blender  *blend.Blender
	metrics  *metrics.Metrics
	model    *model.Model

	frame   int
	frameMs float32
}

// New wires the services, loads the avatar geometry into a model and adds it to the scene.
func New(avatar *assets.Avatar, cfg Config) (*Simulation, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.FrameRate <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %g", cfg.FrameRate)
	}

	s := &Simulation{
		config:   cfg,
		log:      cfg.Logger,
		avatar:   avatar,
		queue:    deferred.NewQueue(),
		scene:    render.NewScene(),
		registry: handle.NewTable[model.Model](),
		blender:  blend.NewBlender(),
		metrics:  metrics.New(cfg.Registerer),
		frameMs:  float32(1000 / cfg.FrameRate),
	}

	geometry := *avatar.Geometry
	if cfg.AnchorJoint != "" {
		anchor, err := avatar.Joint(cfg.AnchorJoint)
		if err != nil {
			return nil, fmt.Errorf("anchor joint: %w", err)
		}
		geometry.NeckJointIndex = anchor
	}

	bones := avatar.CauterizeBones
	if cfg.CauterizeJoints != nil {
		var err error
		if bones, err = avatar.ResolveBones(cfg.CauterizeJoints); err != nil {
			return nil, fmt.Errorf("cauterize joints: %w", err)
		}
	}

	s.model = model.New(model.Deps{
		Rig:      avatar.Skeleton,
		Queue:    s.queue,
		Scene:    s.scene,
		Registry: s.registry,
		Blender:  s.blender,
		Logger:   s.log.Named("model"),
		Metrics:  s.metrics,
	}, model.Options{Name: avatar.Name, Cauterize: cfg.Cauterize})
	s.model.SetCauterizeBoneSet(bones)
	s.model.SetGeometry(&geometry)
	s.model.UpdateGeometry()

	if err := s.model.AddToScene(); err != nil {
		s.model.Destroy()
		return nil, fmt.Errorf("adding %s to scene: %w", avatar.Name, err)
	}
	s.scene.ProcessTransactionQueue()

	s.log.Info("simulation ready",
		zap.String("avatar", avatar.Name),
		zap.Int("meshes", s.model.MeshCount()),
		zap.Int("items", len(s.model.ItemIDs())),
		zap.Bool("cauterized", s.model.IsCauterized()),
		zap.Int("cauterize_bones", len(bones)),
	)
	return s, nil
}

// Model returns the simulated model.
func (s *Simulation) Model() *model.Model {
	return s.model
}

// Scene returns the render scene.
func (s *Simulation) Scene() *render.Scene {
	return s.scene
}

// Metrics returns the pipeline metrics.
func (s *Simulation) Metrics() *metrics.Metrics {
	return s.metrics
}

// Step simulates one frame.
func (s *Simulation) Step() FrameStats {
	// 1. Animate
	if s.frame > 0 {
		s.avatar.Skeleton.Advance(s.frameMs)
	}
	now := s.avatar.Skeleton.Time()
	if s.avatar.Geometry.HasBlendedMeshes() {
		s.model.SetBlendshapeCoefficients(breathing(now))
	}

	// 2. Update
	s.model.NotifyPoseChanged()
	s.model.Simulate()

	// 3. Late update
	closures := s.queue.Flush()
	s.metrics.FlushRan(closures)
	blends := len(s.blender.Drain())

	// 4. Render side
	txs := s.scene.ProcessTransactionQueue()

	stats := FrameStats{
		Frame:        s.frame,
		TimeMs:       now,
		Closures:     closures,
		Transactions: txs,
		Blends:       blends,
	}
	s.frame++

	s.log.Debug("frame",
		zap.Int("frame", stats.Frame),
		zap.Float32("time_ms", stats.TimeMs),
		zap.Int("closures", stats.Closures),
		zap.Int("transactions", stats.Transactions),
		zap.Int("blends", stats.Blends),
	)
	return stats
}

// Run simulates frames until the count is reached or ctx is done. report, if
// not nil, is called after every frame.
func (s *Simulation) Run(ctx context.Context, frames int, report func(FrameStats)) error {
	var tick <-chan time.Time
	if s.config.Realtime {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / s.config.FrameRate))
		defer ticker.Stop()
		tick = ticker.C
	}

	for i := 0; i < frames; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats := s.Step()
		if report != nil {
			report(stats)
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}
	return nil
}

// Close removes the model from the scene and releases it.
func (s *Simulation) Close() {
	s.model.RemoveFromScene()
	s.scene.ProcessTransactionQueue()
	s.model.Destroy()
	// anything still queued for the model is dropped
	s.queue.Flush()
	s.log.Info("simulation closed", zap.Int("frames", s.frame))
}

// ItemSnapshot is the render-side view of one mesh part.
type ItemSnapshot struct {
	ID         render.ItemID
	MeshIndex  int
	PartIndex  int
	Skinned    bool
	Cauterized bool
	WorldBound math.AABB
	Draw       DrawSnapshot
	FirstDraw  DrawSnapshot
}

// DrawSnapshot is a copy of one draw path of an item. Clusters is nil for
// rigid items, which carry no cluster buffer.
type DrawSnapshot struct {
	Transform mgl32.Mat4
	Version   uint64
	Clusters  []skin.PackedCluster
}

func copyDrawState(ds render.DrawState) DrawSnapshot {
	out := DrawSnapshot{Transform: ds.Transform}
	if ds.Clusters != nil {
		out.Version = ds.Clusters.Version()
		out.Clusters = ds.Clusters.Clusters()
	}
	return out
}

// Snapshot copies every item of the model out of the scene, as a draw pass
// would. The result stays valid after later frames.
func (s *Simulation) Snapshot() []ItemSnapshot {
	ids := s.model.ItemIDs()
	out := make([]ItemSnapshot, 0, len(ids))
	for _, id := range ids {
		s.scene.View(id, func(it render.Item) {
			p, ok := it.(*render.ModelMeshPartPayload)
			if !ok {
				return
			}
			out = append(out, ItemSnapshot{
				ID:         id,
				MeshIndex:  p.MeshIndex,
				PartIndex:  p.PartIndex,
				Skinned:    p.IsSkinned,
				Cauterized: p.Cauterized,
				WorldBound: p.WorldBound,
				Draw:       copyDrawState(p.DrawState(false)),
				FirstDraw:  copyDrawState(p.DrawState(true)),
			})
		})
	}
	return out
}

// breathing produces a slow two-weight cycle for blend-shaped meshes.
func breathing(timeMs float32) []float32 {
	w := float32(0.5 + 0.5*gomath.Sin(float64(timeMs)/1000*2*gomath.Pi))
	// quantize so that idle frames do not request a blend
	w = float32(gomath.Round(float64(w)*20) / 20)
	return []float32{w, 1 - w}
}
