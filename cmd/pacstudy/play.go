package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacstudy/internal/config"
	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
	"github.com/verte-zerg/pacstudy/internal/session"
	"github.com/verte-zerg/pacstudy/internal/snapshot"
	"github.com/verte-zerg/pacstudy/internal/stats"
	"github.com/verte-zerg/pacstudy/internal/store"
	"github.com/verte-zerg/pacstudy/internal/tui"
)

type playKind struct {
	kind  model.SessionKind
	short string
	fps   int
}

var (
	playAgent = playKind{kind: model.KindAgent, short: "Watch the agent play and give it advice", fps: defaultAgentFPS}
	playHuman = playKind{kind: model.KindHuman, short: "Play the game yourself", fps: defaultHumanFPS}
)

// playOptions holds flag values for one play command.
type playOptions struct {
	timeLimit   int
	countdown   int
	freezeFirst bool
	adviceFreq  int
	modelPath   string
	fps         int
	seed        uint64
	snapshotDir string
}

func newPlayCmd(pk playKind) *cobra.Command {
	opts := &playOptions{
		timeLimit:   defaultTimeLimit,
		countdown:   defaultCountdown,
		freezeFirst: defaultFreezeFirst,
		adviceFreq:  defaultAdviceFreq,
		modelPath:   config.DefaultModelPath(),
		fps:         pk.fps,
	}
	cmd := &cobra.Command{
		Use:   string(pk.kind),
		Short: pk.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPlayCmd(cmd, pk.kind, *opts)
		},
	}
	flags := cmd.Flags()
	flags.IntVar(&opts.timeLimit, "time-limit", opts.timeLimit, "session length in minutes")
	flags.IntVar(&opts.fps, "fps", opts.fps, "steps per second")
	flags.Uint64Var(&opts.seed, "seed", 0, "ghost seed (0 picks one from the clock)")
	flags.StringVar(&opts.snapshotDir, "snapshot-dir", "", "save a PNG of the final frame here")
	if pk.kind == model.KindAgent {
		flags.IntVar(&opts.countdown, "countdown", opts.countdown, "seconds to give advice in countdown mode")
		flags.BoolVar(&opts.freezeFirst, "freeze-first", opts.freezeFirst, "start in freeze mode")
		flags.IntVar(&opts.adviceFreq, "advice-frequency", opts.adviceFreq, "ask for advice every N steps")
		flags.StringVar(&opts.modelPath, "model", opts.modelPath, "policy artifact path")
	}
	return cmd
}

// resolvePlayConfig merges flags over PACSTUDY_* env over the config file.
func resolvePlayConfig(cmd *cobra.Command, kind model.SessionKind, opts playOptions) (model.Config, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load config: %w", err)
	}
	envCfg, err := config.LoadEnv()
	if err != nil {
		return model.Config{}, fmt.Errorf("failed to load env: %w", err)
	}
	merged := envCfg.Overlay(fileCfg.Session)

	applyIntConfig(cmd, "time-limit", &opts.timeLimit, merged.TimeLimitMinutes)
	applyIntConfig(cmd, "countdown", &opts.countdown, merged.CountdownSeconds)
	applyBoolConfig(cmd, "freeze-first", &opts.freezeFirst, merged.FreezeModeFirst)
	applyIntConfig(cmd, "advice-frequency", &opts.adviceFreq, merged.AdviceFrequency)
	applyStringConfig(cmd, "model", &opts.modelPath, merged.ModelPath)
	applyUintConfig(cmd, "seed", &opts.seed, merged.Seed)
	applyStringConfig(cmd, "snapshot-dir", &opts.snapshotDir, merged.SnapshotDir)

	cfg := model.Config{
		Kind:            kind,
		TimeLimit:       time.Duration(opts.timeLimit) * time.Minute,
		Countdown:       time.Duration(opts.countdown) * time.Second,
		FreezeModeFirst: opts.freezeFirst,
		AdviceFrequency: opts.adviceFreq,
		ModelPath:       opts.modelPath,
		AgentFPS:        defaultAgentFPS,
		HumanFPS:        defaultHumanFPS,
		Seed:            opts.seed,
		SnapshotDir:     opts.snapshotDir,
	}
	if kind == model.KindAgent {
		applyIntConfig(cmd, "fps", &opts.fps, merged.AgentFPS)
		cfg.AgentFPS = opts.fps
	} else {
		applyIntConfig(cmd, "fps", &opts.fps, merged.HumanFPS)
		cfg.HumanFPS = opts.fps
	}
	if err := validatePlayConfig(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

func validatePlayConfig(cfg model.Config) error {
	if cfg.TimeLimit <= 0 {
		return fmt.Errorf("--time-limit must be > 0")
	}
	if cfg.Countdown < time.Second {
		return fmt.Errorf("--countdown must be >= 1")
	}
	if cfg.AdviceFrequency < 1 {
		return fmt.Errorf("--advice-frequency must be >= 1")
	}
	if cfg.AgentFPS <= 0 || cfg.HumanFPS <= 0 {
		return fmt.Errorf("--fps must be > 0")
	}
	return nil
}

func runPlayCmd(cmd *cobra.Command, kind model.SessionKind, opts playOptions) error {
	cfg, err := resolvePlayConfig(cmd, kind, opts)
	if err != nil {
		return err
	}

	var pol policy.Policy
	if kind == model.KindAgent {
		lin, err := policy.Load(cfg.ModelPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logErrln("No policy found. Train one with: pacstudy train")
			}
			return fmt.Errorf("failed to load policy: %w", err)
		}
		pol = lin
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}
	var env game.Environment = game.New(cfg.Seed)
	if kind == model.KindAgent {
		env = game.NewClipReward(env)
	}

	logPath := config.DefaultLogPath()
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := tea.LogToFile(logPath, "pacstudy")
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		_ = logFile.Close()
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := playSession(ctx, cfg, env, pol)
	if err != nil {
		return err
	}
	if !res.Started {
		return nil
	}
	return finishSession(cmd, st, cfg, res)
}

// playSession runs the session on its own goroutine while Bubble Tea owns the terminal.
func playSession(ctx context.Context, cfg model.Config, env game.Environment, pol policy.Policy) (session.Result, error) {
	bridge := tui.NewBridge()
	program := tea.NewProgram(tui.NewModel(bridge), tea.WithAltScreen())
	bridge.Attach(program)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runner := &session.Runner{
		Config:   cfg,
		Env:      env,
		Policy:   pol,
		Frontend: bridge,
		Clock:    session.SystemClock{},
		Logger:   log.Default(),
	}
	type outcome struct {
		res session.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := runner.Run(runCtx)
		if err != nil {
			program.Quit()
		}
		done <- outcome{res: res, err: err}
	}()

	_, tuiErr := program.Run()
	// The window is gone; a session still running ends as quit.
	cancel()
	out := <-done
	if tuiErr != nil {
		return out.res, fmt.Errorf("failed to run TUI: %w", tuiErr)
	}
	if out.err != nil {
		return out.res, fmt.Errorf("failed to run session: %w", out.err)
	}
	return out.res, nil
}

func finishSession(cmd *cobra.Command, st *store.Store, cfg model.Config, res session.Result) error {
	rec := model.SessionRecord{
		Kind:            cfg.Kind,
		StartedAt:       res.StartedAt,
		EndedAt:         res.EndedAt,
		TimeLimit:       cfg.TimeLimit,
		Countdown:       cfg.Countdown,
		FreezeModeFirst: cfg.FreezeModeFirst,
		AdviceFrequency: cfg.AdviceFrequency,
		Stats:           res.Stats,
	}
	if _, err := st.InsertSession(context.Background(), &rec); err != nil {
		logErrf("failed to save session: %v\n", err)
	}
	if cfg.SnapshotDir != "" {
		name := rec.UUID
		if name == "" {
			name = res.EndedAt.Format("20060102-150405")
		}
		path, err := snapshot.Save(cfg.SnapshotDir, name, res.FinalFrame)
		if err != nil {
			logErrf("failed to save snapshot: %v\n", err)
		} else {
			logErrf("Saved final frame to %s\n", path)
		}
	}
	return stats.RenderFinal(cmd.OutOrStdout(), cfg.Kind, res.Stats)
}
