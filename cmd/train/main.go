// Package main searches for foraging policy weights with CMA-ES.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/policy"
	"github.com/pthm-cable/forage/telemetry"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

func main() {
	// CLI flags
	configPath := flag.String("config", os.Getenv("FORAGE_CONFIG"), "Base config YAML file (empty = use defaults)")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	episodes := flag.Int("episodes", 2, "Episodes per seed")
	maxEvals := flag.Int("max-evals", 500, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	stepSize := flag.Float64("step-size", 0.5, "CMA-ES initial step size")
	seed := flag.Int64("seed", 1, "Seed for the initial network")
	resume := flag.String("resume", "", "Hall of fame JSON to start from (empty = random network)")
	outputDir := flag.String("output", "", "Output directory for results")
	verbose := flag.Bool("verbose", false, "Log every environment build")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	opts := options{
		configPath: *configPath,
		outputDir:  *outputDir,
		resume:     *resume,
		seeds:      *seeds,
		episodes:   *episodes,
		maxEvals:   *maxEvals,
		population: *population,
		stepSize:   *stepSize,
		seed:       *seed,
	}
	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "train:", err)
		os.Exit(1)
	}
}

// options holds the parsed command line.
type options struct {
	configPath string
	outputDir  string
	resume     string
	seeds      int
	episodes   int
	maxEvals   int
	population int
	stepSize   float64
	seed       int64
}

const hallSize = 10

// initialParams returns the starting weights: the best hall of fame entry
// when resuming, otherwise a fresh random network.
func initialParams(o options, hidden int, initScale float64) ([]float64, error) {
	if o.resume != "" {
		hof, err := telemetry.LoadHallOfFameFromFile(o.resume, hallSize)
		if err != nil {
			return nil, err
		}
		top, ok := hof.Top()
		if !ok {
			return nil, fmt.Errorf("hall of fame %s is empty", o.resume)
		}
		if top.Hidden != hidden || len(top.Params) != policy.ParamCount(hidden) {
			return nil, fmt.Errorf("hall of fame entry has hidden=%d, config wants %d", top.Hidden, hidden)
		}
		slog.Info("resuming from hall of fame", "path", o.resume, "eval", top.Eval, "fitness", top.Fitness)
		return top.Params, nil
	}
	return policy.NewFFNN(rand.New(rand.NewSource(o.seed)), hidden, initScale).Params(), nil
}

func run(o options) error {
	outputDir, seeds, episodes, maxEvals := o.outputDir, o.seeds, o.episodes, o.maxEvals
	if outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := config.Init(o.configPath); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	cfg := config.Cfg()
	hidden := cfg.Neural.HiddenSize
	runID := uuid.NewString()

	// Generate seeds for evaluation
	evalSeeds := make([]int64, seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(cfg, hidden, episodes, evalSeeds)

	initX, err := initialParams(o, hidden, cfg.Neural.InitScale)
	if err != nil {
		return err
	}
	dim := len(initX)
	hof := telemetry.NewHallOfFame(hallSize)

	popSize := o.population
	if popSize == 0 {
		// Auto-size: 4 + floor(3*ln(n))
		popSize = 4 + int(3*math.Log(float64(dim)))
	}

	evalLog, err := NewEvalLog(filepath.Join(outputDir, "train_log.csv"))
	if err != nil {
		return err
	}
	defer evalLog.Close()

	evalCount := 0
	startTime := time.Now()
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			fitness := evaluator.Evaluate(x)
			evalCount++

			reward, nectar := evaluator.Last()
			hof.Consider(telemetry.HallEntry{
				Eval:    evalCount,
				Fitness: reward,
				Nectar:  nectar,
				Hidden:  hidden,
				Params:  x,
			})
			best, _ := evaluator.Best()
			elapsed := time.Since(startTime)
			if err := evalLog.Write(EvalRecord{
				Eval:       evalCount,
				Fitness:    fitness,
				MeanReward: reward,
				MeanNectar: nectar,
				BestReward: -best,
				ElapsedSec: elapsed.Seconds(),
			}); err != nil {
				slog.Error("failed to write eval log", "error", err)
			}

			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: reward=%.3f nectar=%.3f (best=%.3f) | elapsed: %s, ETA: %s\n",
				evalCount, maxEvals, reward, nectar, -best,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	settings := &optimize.Settings{
		FuncEvaluations: maxEvals,
		Concurrent:      0, // Seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: o.stepSize,
		Population:   popSize,
	}

	fmt.Printf("Starting CMA-ES over %d weights (hidden=%d), population=%d, max_evals=%d\n",
		dim, hidden, popSize, maxEvals)
	fmt.Printf("Seeds per evaluation: %d, episodes per seed: %d\n", seeds, episodes)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	// Use best params found (may be from any evaluation, not just final)
	bestFitness, bestParams := evaluator.Best()
	if bestParams == nil && result != nil {
		bestParams = result.X
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluation completed")
	}

	fmt.Printf("\nOptimization complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best mean reward: %.4f\n", -bestFitness)

	nn, err := policy.FFNNFromParams(hidden, bestParams)
	if err != nil {
		return err
	}
	ckptPath := filepath.Join(outputDir, "best.gob.zst")
	if err := policy.SaveCheckpoint(ckptPath, policy.NewCheckpoint(nn, runID, -bestFitness)); err != nil {
		return fmt.Errorf("saving checkpoint: %w", err)
	}
	fmt.Printf("Best policy saved to: %s\n", ckptPath)

	hofPath := filepath.Join(outputDir, "hall_of_fame.json")
	if err := hof.WriteFile(hofPath); err != nil {
		slog.Error("failed to write hall of fame", "error", err)
	} else {
		fmt.Printf("Hall of fame saved to: %s\n", hofPath)
	}

	configOutPath := filepath.Join(outputDir, "config.yaml")
	if err := cfg.WriteYAML(configOutPath); err != nil {
		slog.Error("failed to write config", "error", err)
	}
	return nil
}
