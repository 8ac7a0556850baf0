package train

import (
	"context"
	"errors"
	"log"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
)

// Evaluate plays episodes with the policy and summarizes the rewards.
func Evaluate(ctx context.Context, pol policy.Policy, env game.Environment, episodes, maxSteps int, logger *log.Logger) (model.EvalResult, error) {
	if episodes < 1 {
		return model.EvalResult{}, errors.New("episodes must be >= 1")
	}
	if logger == nil {
		logger = log.Default()
	}
	res := model.EvalResult{
		Rewards: make([]float64, 0, episodes),
		Lengths: make([]int, 0, episodes),
	}
	lengths := make([]float64, 0, episodes)
	for ep := 1; ep <= episodes; ep++ {
		if err := ctx.Err(); err != nil {
			return summarize(res, lengths), err
		}
		reward, length := Rollout(env, pol, maxSteps)
		res.Rewards = append(res.Rewards, reward)
		res.Lengths = append(res.Lengths, length)
		lengths = append(lengths, float64(length))
		if ep%logEvery == 0 {
			logger.Printf("episode %d/%d: mean reward so far %.1f", ep, episodes, stat.Mean(res.Rewards, nil))
		}
	}
	return summarize(res, lengths), nil
}

func summarize(res model.EvalResult, lengths []float64) model.EvalResult {
	if len(res.Rewards) == 0 {
		return res
	}
	res.MeanReward, res.StdReward = stat.PopMeanStdDev(res.Rewards, nil)
	res.MeanLength = stat.Mean(lengths, nil)
	res.Best = floats.Max(res.Rewards)
	res.Worst = floats.Min(res.Rewards)
	return res
}
