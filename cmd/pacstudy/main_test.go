package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/pacstudy/internal/config"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
	"github.com/verte-zerg/pacstudy/internal/store"
)

func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
}

func writeConfig(t *testing.T, data string) {
	t.Helper()
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func defaultOptions(fps int) playOptions {
	return playOptions{
		timeLimit:   defaultTimeLimit,
		countdown:   defaultCountdown,
		freezeFirst: defaultFreezeFirst,
		adviceFreq:  defaultAdviceFreq,
		modelPath:   config.DefaultModelPath(),
		fps:         fps,
	}
}

func TestResolvePlayConfigPrecedence(t *testing.T) {
	isolate(t)
	writeConfig(t, "[session]\ntime-limit = 4\ncountdown = 3\nadvice-frequency = 25\nagent-fps = 7\n")
	t.Setenv("PACSTUDY_ADVICE_FREQUENCY", "30")

	cmd := newPlayCmd(playAgent)
	if err := cmd.ParseFlags([]string{"--countdown=9"}); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	opts := defaultOptions(defaultAgentFPS)
	opts.countdown = 9

	cfg, err := resolvePlayConfig(cmd, model.KindAgent, opts)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.TimeLimit != 4*time.Minute {
		t.Fatalf("expected file time limit, got %s", cfg.TimeLimit)
	}
	if cfg.AdviceFrequency != 30 {
		t.Fatalf("expected env advice frequency, got %d", cfg.AdviceFrequency)
	}
	if cfg.Countdown != 9*time.Second {
		t.Fatalf("expected flag countdown, got %s", cfg.Countdown)
	}
	if cfg.AgentFPS != 7 || cfg.HumanFPS != defaultHumanFPS {
		t.Fatalf("unexpected fps: agent %d human %d", cfg.AgentFPS, cfg.HumanFPS)
	}
	if !cfg.FreezeModeFirst {
		t.Fatalf("expected default freeze-first")
	}
}

func TestResolvePlayConfigHumanFPS(t *testing.T) {
	isolate(t)
	writeConfig(t, "[session]\nhuman-fps = 12\nagent-fps = 7\n")

	cmd := newPlayCmd(playHuman)
	cfg, err := resolvePlayConfig(cmd, model.KindHuman, defaultOptions(defaultHumanFPS))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.HumanFPS != 12 || cfg.AgentFPS != defaultAgentFPS {
		t.Fatalf("unexpected fps: agent %d human %d", cfg.AgentFPS, cfg.HumanFPS)
	}
	if cmd.Flags().Lookup("advice-frequency") != nil {
		t.Fatalf("human command should not take advice flags")
	}
}

func TestValidatePlayConfig(t *testing.T) {
	good := model.Config{
		TimeLimit:       time.Minute,
		Countdown:       time.Second,
		AdviceFrequency: 1,
		AgentFPS:        1,
		HumanFPS:        1,
	}
	if err := validatePlayConfig(good); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bad := []func(*model.Config){
		func(c *model.Config) { c.TimeLimit = 0 },
		func(c *model.Config) { c.Countdown = 0 },
		func(c *model.Config) { c.AdviceFrequency = 0 },
		func(c *model.Config) { c.HumanFPS = 0 },
	}
	for i, mutate := range bad {
		cfg := good
		mutate(&cfg)
		if err := validatePlayConfig(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}

func TestParseStatsOptions(t *testing.T) {
	cfg, err := parseStatsOptions(statsOptions{kind: "Agent", since: "2026-03-01", last: 5, curveWindow: 3})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Kind != model.KindAgent || cfg.Since == nil || cfg.Last != 5 || cfg.CurveWindow != 3 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if _, err := parseStatsOptions(statsOptions{kind: "robot", curveWindow: 1}); err == nil {
		t.Fatalf("expected kind error")
	}
	if _, err := parseStatsOptions(statsOptions{since: "yesterday", curveWindow: 1}); err == nil {
		t.Fatalf("expected since error")
	}
	if _, err := parseStatsOptions(statsOptions{curveWindow: 0}); err == nil {
		t.Fatalf("expected window error")
	}
}

func TestStatsTextReport(t *testing.T) {
	isolate(t)
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	start := time.Now().Add(-time.Hour)
	rec := model.SessionRecord{
		Kind:      model.KindHuman,
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		TimeLimit: time.Minute,
		Stats: model.SessionStats{
			TotalReward:        90,
			StepCount:          5,
			Elapsed:            time.Minute,
			ActionDistribution: []int{1, 1, 1, 1, 1},
			EndReason:          model.EndExpired,
		},
	}
	if _, err := st.InsertSession(context.Background(), &rec); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := st.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"stats", "--text"})
	if err := root.Execute(); err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Summary", "human", "Actions"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %q in:\n%s", want, out.String())
		}
	}
}

func TestTrainThenEval(t *testing.T) {
	isolate(t)
	artifact := filepath.Join(t.TempDir(), "policy.gob")

	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"train", "--iterations=1", "--population=2", "--episodes=1", "--max-steps=5", "--out", artifact})
	if err := root.Execute(); err != nil {
		t.Fatalf("train: %v", err)
	}
	if _, err := policy.Load(artifact); err != nil {
		t.Fatalf("load trained policy: %v", err)
	}

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"eval", "--model", artifact, "--episodes=2", "--max-steps=5"})
	if err := root.Execute(); err != nil {
		t.Fatalf("eval: %v", err)
	}
	if !strings.Contains(out.String(), "Episodes:          2") {
		t.Fatalf("unexpected eval output:\n%s", out.String())
	}
}

func TestTrainRejectsBadConfig(t *testing.T) {
	isolate(t)
	writeConfig(t, "[train]\npopulation = 1\n")
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"train", "--out", filepath.Join(t.TempDir(), "p.gob")})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected population error")
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	isolate(t)
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load template: %v", err)
	}
	if cfg.Session.TimeLimitMinutes != nil || cfg.Train.Iterations != nil {
		t.Fatalf("expected every template value commented out")
	}

	writeConfig(t, "[session]\ntime-limit = 2\n")
	if err := ensureConfigFile(path); err != nil {
		t.Fatalf("ensure existing: %v", err)
	}
	cfg, err = config.LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Session.TimeLimitMinutes == nil || *cfg.Session.TimeLimitMinutes != 2 {
		t.Fatalf("existing config should be kept")
	}
}
