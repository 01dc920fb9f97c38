package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Faultbox/midgard-skin/internal/config"
	"github.com/Faultbox/midgard-skin/internal/logger"
	"github.com/Faultbox/midgard-skin/internal/sim"
)

var runOpts struct {
	realtime      bool
	printClusters bool
	every         int
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate the avatar and print its render items",
	Long: `Loads the configured avatar, simulates the configured number of frames and
prints the render items after the last frame. With --metrics-addr the
Prometheus endpoint stays up until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setup()
		if err != nil {
			return err
		}
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return run(ctx, cmd, cfg)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVar(&runOpts.realtime, "realtime", false, "Pace frames to simulation.frame_rate")
	runCmd.Flags().BoolVar(&runOpts.printClusters, "print-clusters", false, "Print packed cluster rows of skinned items")
	runCmd.Flags().IntVar(&runOpts.every, "every", 0, "Also print a frame summary every N frames")
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config) error {
	avatar, err := loadAvatar(cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s, err := sim.New(avatar, sim.Config{
		Cauterize:       cfg.Avatar.Cauterize,
		CauterizeJoints: cfg.Avatar.CauterizeJoints,
		AnchorJoint:     cfg.Avatar.AnchorJoint,
		FrameRate:       cfg.Simulation.FrameRate,
		Realtime:        runOpts.realtime,
		Logger:          logger.Named("sim"),
		Registerer:      reg,
	})
	if err != nil {
		return err
	}
	defer s.Close()

	var srv *http.Server
	if cfg.Metrics.Enabled {
		srv = serveMetrics(cfg.Metrics.Addr, reg)
		defer shutdown(srv)
	}

	out := cmd.OutOrStdout()
	err = s.Run(ctx, cfg.Simulation.Frames, func(st sim.FrameStats) {
		if runOpts.every > 0 && st.Frame%runOpts.every == 0 {
			printFrame(out, st)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	printItems(out, s.Snapshot(), runOpts.printClusters)

	if srv != nil && ctx.Err() == nil {
		logger.Info("metrics endpoint up, interrupt to exit", zap.String("addr", cfg.Metrics.Addr))
		<-ctx.Done()
	}
	return nil
}

func serveMetrics(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", zap.Error(err))
		}
	}()
	return srv
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", zap.Error(err))
		_ = srv.Close()
	}
}
