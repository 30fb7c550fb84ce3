package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/env"
	"github.com/pthm-cable/forage/game"
	"github.com/pthm-cable/forage/policy"
	"github.com/pthm-cable/forage/telemetry"
)

// flags shared by every command.
type flags struct {
	configPath string
	seed       int64
	outputDir  string
	checkpoint string
	training   bool
	agents     int
	episodes   int
}

func main() {
	// Optional .env supplies FORAGE_CONFIG and friends
	_ = godotenv.Load()

	// Set up slog (JSON to stdout for structured logging)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var f flags
	rootCmd := &cobra.Command{
		Use:          "forage",
		Short:        "Nectar foraging environment for training and viewing agent policies",
		SilenceUsage: true,
	}
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configPath, "config", os.Getenv("FORAGE_CONFIG"), "Path to config.yaml (empty = use defaults)")
	pf.Int64Var(&f.seed, "seed", 0, "RNG seed (0 = time-based)")
	pf.StringVar(&f.outputDir, "output-dir", "", "Output directory for CSV logs and config snapshot (overrides config)")
	pf.StringVar(&f.checkpoint, "checkpoint", "", "Policy checkpoint to drive the agents")
	pf.BoolVar(&f.training, "training", true, "Training mode: rewards on, field reset every episode")
	pf.IntVar(&f.agents, "agents", 0, "Number of agents sharing the field (0 = use config)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run episodes headless",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeadless(cmd, f)
		},
	}
	runCmd.Flags().IntVar(&f.episodes, "episodes", 10, "Episodes to run (0 = until interrupted)")

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Open a window and watch or drive the agents",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runViewer(cmd, f)
		},
	}

	rootCmd.AddCommand(runCmd, viewCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is the shared state a command runs with.
type session struct {
	cfg       *config.Config
	seed      int64
	collector *telemetry.Collector
	output    *telemetry.OutputManager
	bookmarks *telemetry.BookmarkDetector
}

// setup loads the config, applies flag overrides and opens telemetry output.
func setup(cmd *cobra.Command, f flags) (*session, error) {
	if err := config.Init(f.configPath); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()

	if cmd.Flags().Changed("training") {
		cfg.Episode.TrainingMode = f.training
	}
	if f.agents > 0 {
		cfg.Episode.Agents = f.agents
	}
	if f.outputDir != "" {
		cfg.Telemetry.OutputDir = f.outputDir
	}

	seed := f.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	runID := uuid.NewString()
	collector := telemetry.NewCollector(runID, cfg.Telemetry.StatsWindow, cfg.Physics.DT)

	output, err := telemetry.NewOutputManager(cfg.Telemetry.OutputDir)
	if err != nil {
		return nil, err
	}
	if err := output.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config snapshot", "error", err)
	}

	slog.Info("run configured",
		"run_id", runID,
		"seed", seed,
		"training", cfg.Episode.TrainingMode,
		"agents", cfg.Episode.Agents,
		"output_dir", output.Dir(),
	)
	return &session{
		cfg:       cfg,
		seed:      seed,
		collector: collector,
		output:    output,
		bookmarks: telemetry.NewBookmarkDetector(cfg.Telemetry.StatsWindow),
	}, nil
}

// loadPolicy returns the checkpoint network, or nil when no checkpoint is set.
func loadPolicy(path string) (policy.Policy, error) {
	if path == "" {
		return nil, nil
	}
	nn, err := policy.LoadFFNN(path)
	if err != nil {
		return nil, fmt.Errorf("loading checkpoint: %w", err)
	}
	slog.Info("policy loaded", "checkpoint", path, "hidden", nn.Hidden())
	return nn, nil
}

func runHeadless(cmd *cobra.Command, f flags) error {
	s, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer s.output.Close()

	p, err := loadPolicy(f.checkpoint)
	if err != nil {
		return err
	}
	if p == nil {
		p = policy.Idle
	}

	e, err := env.New(s.cfg, env.Options{
		Seed:      s.seed,
		Collector: s.collector,
		Output:    s.output,
		Perf:      telemetry.NewPerfCollector(s.cfg.Derived.TicksPerSec),
		Bookmarks: s.bookmarks,
	})
	if err != nil {
		return err
	}

	policies := make([]policy.Policy, len(e.Agents()))
	for i := range policies {
		policies[i] = p
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	err = e.Run(ctx, policies, f.episodes)
	slog.Info("run finished", "episodes", e.Episode(), "elapsed", time.Since(start).Round(time.Millisecond).String())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runViewer(cmd *cobra.Command, f flags) error {
	s, err := setup(cmd, f)
	if err != nil {
		return err
	}
	defer s.output.Close()
	cfg := s.cfg

	p, err := loadPolicy(f.checkpoint)
	if err != nil {
		return err
	}

	rl.SetConfigFlags(rl.FlagWindowResizable | rl.FlagMsaa4xHint)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Forage")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	g, err := game.NewGame(game.Options{
		Config:    cfg,
		Seed:      s.seed,
		Policy:    p,
		Collector: s.collector,
		Output:    s.output,
		Bookmarks: s.bookmarks,
	})
	if err != nil {
		return err
	}
	defer g.Unload()

	for !rl.WindowShouldClose() {
		g.Update()
		g.Draw()
	}
	return nil
}
