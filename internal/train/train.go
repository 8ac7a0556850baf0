// Package train fits linear policies with the cross-entropy method and
// evaluates them.
package train

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"runtime"
	"sort"

	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
)

const logEvery = 10

// EnvFactory builds a fresh environment for one rollout worker.
type EnvFactory func(seed uint64) game.Environment

// Config controls a training run.
type Config struct {
	Iterations int
	Population int
	EliteFrac  float64
	// Episodes per candidate; scores are averaged.
	Episodes int
	// MaxSteps caps each rollout; zero means until the episode ends.
	MaxSteps int
	InitStd  float64
	MinStd   float64
	Seed     uint64
	Workers  int
}

// DefaultConfig returns the settings used by the train command.
func DefaultConfig() Config {
	return Config{
		Iterations: 50,
		Population: 32,
		EliteFrac:  0.2,
		Episodes:   2,
		MaxSteps:   2000,
		InitStd:    1,
		MinStd:     0.05,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.Iterations < 1:
		return errors.New("iterations must be >= 1")
	case c.Population < 2:
		return errors.New("population must be >= 2")
	case c.EliteFrac <= 0 || c.EliteFrac > 1:
		return errors.New("elite fraction must be in (0, 1]")
	case c.Episodes < 1:
		return errors.New("episodes must be >= 1")
	case c.MaxSteps < 0:
		return errors.New("max steps must be >= 0")
	}
	return nil
}

// IterationStats summarizes one generation.
type IterationStats struct {
	Iteration int
	Mean      float64
	Best      float64
	Worst     float64
}

// Result is the outcome of Train.
type Result struct {
	Policy     *policy.Linear
	BestScore  float64
	Iterations []IterationStats
}

// Train runs the cross-entropy method starting from the default weights.
// On cancellation it returns the best policy found so far with ctx.Err().
func Train(ctx context.Context, cfg Config, newEnv EnvFactory, logger *log.Logger) (Result, error) {
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}
	if logger == nil {
		logger = log.Default()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	dim := model.NumActions * game.NumFeatures
	mean := policy.DefaultWeights()
	std := make([]float64, dim)
	for i := range std {
		std[i] = cfg.InitStd
	}
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(cfg.Seed)}
	elite := max(int(math.Ceil(float64(cfg.Population)*cfg.EliteFrac)), 1)

	res := Result{BestScore: math.Inf(-1)}
	best := append([]float64(nil), mean...)
	for it := 1; it <= cfg.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			res.Policy = policy.NewLinearFromSlice(best)
			return res, err
		}
		pop := make([][]float64, cfg.Population)
		for i := range pop {
			w := make([]float64, dim)
			for j := range w {
				w[j] = mean[j] + std[j]*normal.Rand()
			}
			pop[i] = w
		}

		scores, err := scorePopulation(ctx, cfg, newEnv, pop, uint64(it), workers)
		if err != nil {
			res.Policy = policy.NewLinearFromSlice(best)
			return res, err
		}

		order := make([]int, len(pop))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })
		if top := scores[order[0]]; top > res.BestScore {
			res.BestScore = top
			best = append(best[:0], pop[order[0]]...)
		}

		column := make([]float64, elite)
		for j := 0; j < dim; j++ {
			for e := 0; e < elite; e++ {
				column[e] = pop[order[e]][j]
			}
			m, s := stat.MeanStdDev(column, nil)
			if math.IsNaN(s) {
				s = 0
			}
			mean[j] = m
			std[j] = s + cfg.MinStd
		}

		is := IterationStats{
			Iteration: it,
			Mean:      stat.Mean(scores, nil),
			Best:      floats.Max(scores),
			Worst:     floats.Min(scores),
		}
		res.Iterations = append(res.Iterations, is)
		if it%logEvery == 0 || it == cfg.Iterations {
			logger.Printf("iteration %d: avg reward %.1f, best %.1f, worst %.1f", it, is.Mean, is.Best, is.Worst)
		}
	}
	res.Policy = policy.NewLinearFromSlice(best)
	return res, nil
}

// scorePopulation rolls out every candidate in parallel. Seeds depend only
// on the iteration and episode, so all candidates face the same mazes.
func scorePopulation(ctx context.Context, cfg Config, newEnv EnvFactory, pop [][]float64, iteration uint64, workers int) ([]float64, error) {
	scores := make([]float64, len(pop))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range pop {
		i := i
		g.Go(func() error {
			pol := policy.NewLinearFromSlice(pop[i])
			var total float64
			for ep := 0; ep < cfg.Episodes; ep++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				env := newEnv(cfg.Seed + iteration*1000 + uint64(ep))
				reward, _ := Rollout(env, pol, cfg.MaxSteps)
				total += reward
			}
			scores[i] = total / float64(cfg.Episodes)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to score population: %w", err)
	}
	return scores, nil
}

// Rollout plays one episode greedily and returns its reward and length.
func Rollout(env game.Environment, pol policy.Policy, maxSteps int) (float64, int) {
	obs, _ := env.Reset()
	var total float64
	steps := 0
	for maxSteps <= 0 || steps < maxSteps {
		next, reward, terminated, truncated, _ := env.Step(pol.Act(obs))
		obs = next
		total += reward
		steps++
		if terminated || truncated {
			break
		}
	}
	return total, steps
}
