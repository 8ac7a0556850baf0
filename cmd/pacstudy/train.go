package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacstudy/internal/config"
	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/policy"
	"github.com/verte-zerg/pacstudy/internal/stats"
	"github.com/verte-zerg/pacstudy/internal/train"
)

func newTrainCmd() *cobra.Command {
	cfg := train.DefaultConfig()
	out := config.DefaultModelPath()
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the agent policy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTrainCmd(cmd, cfg, out)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&cfg.Iterations, "iterations", cfg.Iterations, "training iterations")
	flags.IntVar(&cfg.Population, "population", cfg.Population, "candidates per iteration")
	flags.Float64Var(&cfg.EliteFrac, "elite-frac", cfg.EliteFrac, "fraction of candidates kept to refit")
	flags.IntVar(&cfg.Episodes, "episodes", cfg.Episodes, "episodes per candidate")
	flags.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, "step cap per rollout (0 = episode end)")
	flags.Uint64Var(&cfg.Seed, "seed", 0, "training seed")
	flags.IntVar(&cfg.Workers, "workers", 0, "parallel rollouts (0 = one per CPU)")
	flags.StringVar(&out, "out", out, "where to write the policy artifact")
	return cmd
}

func resolveTrainConfig(cmd *cobra.Command, cfg train.Config) (train.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return train.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "iterations", &cfg.Iterations, fileCfg.Train.Iterations)
	applyIntConfig(cmd, "population", &cfg.Population, fileCfg.Train.Population)
	applyFloatConfig(cmd, "elite-frac", &cfg.EliteFrac, fileCfg.Train.EliteFrac)
	applyIntConfig(cmd, "episodes", &cfg.Episodes, fileCfg.Train.Episodes)
	if err := cfg.Validate(); err != nil {
		return train.Config{}, err
	}
	return cfg, nil
}

func trainingEnv(seed uint64) game.Environment {
	return game.NewClipReward(game.New(seed))
}

func runTrainCmd(cmd *cobra.Command, cfg train.Config, out string) error {
	cfg, err := resolveTrainConfig(cmd, cfg)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
	res, err := train.Train(ctx, cfg, trainingEnv, logger)
	if err != nil {
		if !errors.Is(err, context.Canceled) || res.Policy == nil {
			return fmt.Errorf("failed to train: %w", err)
		}
		logErrln("training interrupted; saving the best policy so far")
	}
	if err := policy.Save(out, res.Policy); err != nil {
		return fmt.Errorf("failed to save policy: %w", err)
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Saved policy to %s (best score %.1f after %d iterations)\n",
		out, res.BestScore, len(res.Iterations))
	return err
}

func newEvalCmd() *cobra.Command {
	var (
		modelPath = config.DefaultModelPath()
		episodes  = defaultEvalEpisode
		maxSteps  int
		seed      uint64
		raw       bool
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate a policy artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if episodes < 1 {
				return fmt.Errorf("--episodes must be >= 1")
			}
			pol, err := policy.Load(modelPath)
			if err != nil {
				return fmt.Errorf("failed to load policy: %w", err)
			}
			var env game.Environment = game.New(seed)
			if !raw {
				env = game.NewClipReward(env)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			logger := log.New(cmd.ErrOrStderr(), "", log.LstdFlags)
			res, err := train.Evaluate(ctx, pol, env, episodes, maxSteps, logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("failed to evaluate: %w", err)
			}
			return stats.RenderEval(cmd.OutOrStdout(), res)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&modelPath, "model", modelPath, "policy artifact path")
	flags.IntVar(&episodes, "episodes", episodes, "episodes to play")
	flags.IntVar(&maxSteps, "max-steps", 0, "step cap per episode (0 = episode end)")
	flags.Uint64Var(&seed, "seed", 1, "ghost seed")
	flags.BoolVar(&raw, "raw", false, "report game score instead of clipped reward")
	return cmd
}
