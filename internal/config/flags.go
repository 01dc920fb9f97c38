package config

import "github.com/spf13/pflag"

// Flags holds command-line overrides. Zero values leave the config untouched.
type Flags struct {
	Config      string
	Debug       bool
	Frames      int
	Avatar      string
	NoCauterize bool
	MetricsAddr string
}

// BindFlags registers the config flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVarP(&f.Config, "config", "c", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.IntVarP(&f.Frames, "frames", "n", 0, "Number of frames to simulate")
	fs.StringVarP(&f.Avatar, "avatar", "a", "", "Avatar description file")
	fs.BoolVar(&f.NoCauterize, "no-cauterize", false, "Disable first-person cauterization")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func (f *Flags) applyFlags(cfg *Config) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.Frames > 0 {
		cfg.Simulation.Frames = f.Frames
	}
	if f.Avatar != "" {
		cfg.Avatar.File = f.Avatar
	}
	if f.NoCauterize {
		cfg.Avatar.Cauterize = false
	}
	if f.MetricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = f.MetricsAddr
	}
}
