package main

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/forage/agent"
	"github.com/pthm-cable/forage/config"
	"github.com/pthm-cable/forage/env"
	"github.com/pthm-cable/forage/policy"
)

// FitnessEvaluator runs headless episodes with a candidate network and
// scores it by the reward the agents earn.
type FitnessEvaluator struct {
	hidden     int
	episodes   int
	seeds      []int64
	baseConfig config.Config

	// Best run tracking
	mu          sync.Mutex
	bestFitness float64
	bestParams  []float64
	last        seedResult
}

// NewFitnessEvaluator creates a new evaluator. Episodes always run in
// training mode so rewards are earned and the field is refilled.
func NewFitnessEvaluator(baseCfg *config.Config, hidden, episodes int, seeds []int64) *FitnessEvaluator {
	cfg := *baseCfg
	cfg.Episode.TrainingMode = true
	return &FitnessEvaluator{
		hidden:      hidden,
		episodes:    episodes,
		seeds:       seeds,
		baseConfig:  cfg,
		bestFitness: math.Inf(1),
	}
}

// seedResult holds the per-agent episode means from one seed.
type seedResult struct {
	reward float64
	nectar float64
}

// Best returns the lowest fitness seen and the parameters that produced it.
func (fe *FitnessEvaluator) Best() (float64, []float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestFitness, fe.bestParams
}

// Last returns the mean reward and nectar of the most recent evaluation.
func (fe *FitnessEvaluator) Last() (reward, nectar float64) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.last.reward, fe.last.nectar
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negated mean episode reward across all seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	nn, err := policy.FFNNFromParams(fe.hidden, x)
	if err != nil {
		// Wrong dimension can only come from a setup bug
		panic(err)
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSeed(nn, s)
		}(i, seed)
	}
	wg.Wait()

	rewards := make([]float64, len(results))
	nectar := make([]float64, len(results))
	for i, r := range results {
		rewards[i] = r.reward
		nectar[i] = r.nectar
	}
	n := float64(len(results))
	mean := seedResult{reward: floats.Sum(rewards) / n, nectar: floats.Sum(nectar) / n}
	fitness := -mean.reward

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestParams = append([]float64(nil), x...)
	}
	fe.last = mean
	fe.mu.Unlock()

	return fitness
}

// runSeed plays fe.episodes episodes on a fresh environment and returns the
// mean reward and nectar per agent per episode.
func (fe *FitnessEvaluator) runSeed(p policy.Policy, seed int64) seedResult {
	cfg := fe.baseConfig
	e, err := env.New(&cfg, env.Options{Seed: seed})
	if err != nil {
		panic(err)
	}

	agents := e.Agents()
	actions := make([]agent.Action, len(agents))
	var res seedResult
	for ep := 0; ep < fe.episodes; ep++ {
		obs := e.Reset()
		for {
			for i := range agents {
				actions[i] = p.Act(obs[i])
			}
			step := e.Step(actions)
			obs = step.Observations
			if step.Done || !e.Field().AnyResource() {
				break
			}
		}
		for _, a := range agents {
			res.reward += a.Reward()
			res.nectar += a.ResourceObtained()
		}
		e.EndEpisode()
	}

	n := float64(fe.episodes * len(agents))
	res.reward /= n
	res.nectar /= n
	return res
}
