package rig

import (
	"github.com/go-gl/mathgl/mgl32"
)

// RotKey is a rotation keyframe.
type RotKey struct {
	Frame    float32
	Rotation mgl32.Quat
}

// VecKey is a translation or scale keyframe.
type VecKey struct {
	Frame float32
	Value mgl32.Vec3
}

// surrounding returns the keys bracketing timeMs and the blend factor between
// them. Keys must be sorted by frame. Before the first key and past the last
// one the nearest key is held.
func surrounding(n int, frame func(int) float32, timeMs float32) (prev, next int, t float32) {
	for i := 0; i < n; i++ {
		if frame(i) > timeMs {
			next = i
			break
		}
		prev = i
		next = i
	}
	if prev == next {
		return prev, next, 0
	}
	f0, f1 := frame(prev), frame(next)
	if f1 != f0 {
		t = (timeMs - f0) / (f1 - f0)
	}
	return prev, next, t
}

// InterpolateRotKeys slerps rotation keyframes at the given time.
func InterpolateRotKeys(keys []RotKey, timeMs float32, fallback mgl32.Quat) mgl32.Quat {
	switch len(keys) {
	case 0:
		return fallback
	case 1:
		return keys[0].Rotation
	}
	prev, next, t := surrounding(len(keys), func(i int) float32 { return keys[i].Frame }, timeMs)
	if prev == next {
		return keys[prev].Rotation
	}
	return mgl32.QuatSlerp(keys[prev].Rotation, keys[next].Rotation, t)
}

// InterpolateVecKeys lerps translation or scale keyframes at the given time.
func InterpolateVecKeys(keys []VecKey, timeMs float32, fallback mgl32.Vec3) mgl32.Vec3 {
	switch len(keys) {
	case 0:
		return fallback
	case 1:
		return keys[0].Value
	}
	prev, next, t := surrounding(len(keys), func(i int) float32 { return keys[i].Frame }, timeMs)
	if prev == next {
		return keys[prev].Value
	}
	k0, k1 := keys[prev].Value, keys[next].Value
	return k0.Add(k1.Sub(k0).Mul(t))
}
