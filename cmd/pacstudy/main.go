// Package main provides the CLI entrypoint for pacstudy.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/pacstudy/internal/config"
)

const (
	defaultTimeLimit   = 10
	defaultCountdown   = 5
	defaultFreezeFirst = true
	defaultAdviceFreq  = 50
	defaultAgentFPS    = 3
	defaultHumanFPS    = 20
	defaultCurveWindow = 20
	defaultEvalEpisode = 10
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "pacstudy",
		Short:        "Pac-Man study harness for agent and human play",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newPlayCmd(playAgent))
	rootCmd.AddCommand(newPlayCmd(playHuman))
	rootCmd.AddCommand(newTrainCmd())
	rootCmd.AddCommand(newEvalCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
	cmd.Flags().Bool("print", false, "print the default template instead of opening an editor")
	return cmd
}

func runConfigCmd(cmd *cobra.Command, _ []string) error {
	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		_, err := fmt.Fprint(cmd.OutOrStdout(), defaultConfigTemplate())
		return err
	}
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	edit := exec.Command(parts[0], append(parts[1:], path)...)
	edit.Stdin = os.Stdin
	edit.Stdout = os.Stdout
	edit.Stderr = os.Stderr
	if err := edit.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

// ensureConfigFile writes the default template unless a config already exists.
func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyUintConfig(cmd *cobra.Command, name string, target, value *uint64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil || cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pacstudy configuration
# Uncomment a value to enable it. PACSTUDY_* environment variables override
# file values and CLI flags override both.

[session]
# time-limit = %d           # Session length in minutes
# countdown = %d             # Seconds to give advice in countdown mode
# freeze-first = %t       # Start agent sessions in freeze mode
# advice-frequency = %d     # Ask for advice every N agent steps
# model = %q
# agent-fps = %d             # Agent steps per second
# human-fps = %d            # Human steps per second
# seed = 0                  # Ghost seed, 0 picks one from the clock
# snapshot-dir = ""         # Save a PNG of the final frame here

[train]
# iterations = 50
# population = 32
# elite-frac = 0.2
# episodes = 2
`,
		defaultTimeLimit,
		defaultCountdown,
		defaultFreezeFirst,
		defaultAdviceFreq,
		config.DefaultModelPath(),
		defaultAgentFPS,
		defaultHumanFPS,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
