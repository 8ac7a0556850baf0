package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/pacstudy/internal/config"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/stats"
	"github.com/verte-zerg/pacstudy/internal/statsui"
	"github.com/verte-zerg/pacstudy/internal/store"
)

type statsOptions struct {
	kind        string
	since       string
	last        int
	curveWindow int
	text        bool
}

func newStatsCmd() *cobra.Command {
	opts := &statsOptions{curveWindow: defaultCurveWindow}
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show study statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatsCmd(cmd, *opts)
		},
	}
	cmd.Flags().StringVar(&opts.kind, "kind", "", "session kind filter (agent or human)")
	cmd.Flags().StringVar(&opts.since, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&opts.last, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&opts.curveWindow, "curve-window", opts.curveWindow, "moving average window")
	cmd.Flags().BoolVar(&opts.text, "text", false, "print a text report instead of the browser")
	return cmd
}

func parseStatsOptions(opts statsOptions) (model.StatsConfig, error) {
	cfg := model.StatsConfig{
		Kind:        model.SessionKind(strings.ToLower(strings.TrimSpace(opts.kind))),
		Last:        opts.last,
		CurveWindow: opts.curveWindow,
	}
	switch cfg.Kind {
	case "", model.KindAgent, model.KindHuman:
	default:
		return cfg, fmt.Errorf("invalid --kind value %q (use agent or human)", opts.kind)
	}
	if opts.since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", opts.since, time.Local)
		if err != nil {
			return cfg, fmt.Errorf("invalid --since value: %w", err)
		}
		cfg.Since = &parsed
	}
	if cfg.Last < 0 {
		return cfg, fmt.Errorf("--last must be >= 0")
	}
	if cfg.CurveWindow < 1 {
		return cfg, fmt.Errorf("--curve-window must be >= 1")
	}
	return cfg, nil
}

func runStatsCmd(cmd *cobra.Command, opts statsOptions) error {
	cfg, err := parseStatsOptions(opts)
	if err != nil {
		return err
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

	if opts.text || !term.IsTerminal(int(os.Stdout.Fd())) {
		report, err := stats.BuildReport(cmd.Context(), st, cfg)
		if err != nil {
			return err
		}
		return report.Render(cmd.OutOrStdout(), cfg.CurveWindow, 0)
	}

	program := tea.NewProgram(statsui.NewModel(st, cfg), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}
