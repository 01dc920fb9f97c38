// Package config handles simulator configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds all simulator settings.
type Config struct {
	Avatar     AvatarConfig     `yaml:"avatar"`
	Simulation SimulationConfig `yaml:"simulation"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AvatarConfig selects the avatar and its first-person cauterization.
type AvatarConfig struct {
	File      string `yaml:"file"`
	Cauterize bool   `yaml:"cauterize"`
	// CauterizeJoints overrides the joints listed in the avatar file when set.
	CauterizeJoints []string `yaml:"cauterize_joints"`
	// AnchorJoint overrides the avatar's neck joint when set.
	AnchorJoint string `yaml:"anchor_joint"`
}

// SimulationConfig holds the frame loop settings.
type SimulationConfig struct {
	Frames    int     `yaml:"frames"`
	FrameRate float64 `yaml:"frame_rate"`
}

// FrameInterval returns the duration of one frame.
func (s SimulationConfig) FrameInterval() time.Duration {
	if s.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.FrameRate)
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Avatar: AvatarConfig{
			File:      "avatars/knight.yaml",
			Cauterize: true,
		},
		Simulation: SimulationConfig{
			Frames:    30,
			FrameRate: 30,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings the simulator cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Avatar.File == "" {
		errs = append(errs, errors.New("avatar.file is required"))
	}
	if c.Simulation.Frames < 0 {
		errs = append(errs, fmt.Errorf("simulation.frames must not be negative, got %d", c.Simulation.Frames))
	}
	if c.Simulation.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("simulation.frame_rate must be positive, got %g", c.Simulation.FrameRate))
	}
	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		errs = append(errs, errors.New("metrics.addr is required when metrics are enabled"))
	}
	return errors.Join(errs...)
}
