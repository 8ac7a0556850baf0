package stats

import (
	"fmt"
	"io"
	"strings"

	"github.com/verte-zerg/pacstudy/internal/model"
)

// RenderFinal prints the statistics block shown after a session.
func RenderFinal(w io.Writer, kind model.SessionKind, s model.SessionStats) error {
	var b strings.Builder
	fmt.Fprintln(&b, "Final Statistics")
	fmt.Fprintf(&b, "  Session:           %s\n", kind)
	fmt.Fprintf(&b, "  End reason:        %s\n", s.EndReason)
	fmt.Fprintf(&b, "  Total reward:      %.0f\n", s.TotalReward)
	fmt.Fprintf(&b, "  Steps:             %d\n", s.StepCount)
	fmt.Fprintf(&b, "  Episodes:          %d\n", s.Episodes)
	fmt.Fprintf(&b, "  Time played:       %.1fs\n", s.Elapsed.Seconds())
	fmt.Fprintf(&b, "  Reward per step:   %.3f\n", s.AvgRewardPerStep)
	fmt.Fprintf(&b, "  Actions per sec:   %.2f\n", s.ActionsPerSecond)
	fmt.Fprintf(&b, "  Most common:       %s\n", model.ActionName(s.MostCommonAction))
	if kind == model.KindAgent {
		fmt.Fprintf(&b, "  Advice requests:   %d\n", s.AdviceRequests)
		fmt.Fprintf(&b, "  Human advice:      %d (%.2f%% of steps)\n", s.HumanAdviceCount, s.AdviceRatio*100)
		fmt.Fprintf(&b, "  Advice timeouts:   %d\n", s.AdviceTimeouts)
		fmt.Fprintf(&b, "  Agent actions:     %d\n", s.AgentActionCount)
		if s.ModeSwitchedAt != nil {
			fmt.Fprintf(&b, "  Mode switched at:  %.1fs\n", s.ModeSwitchedAt.Seconds())
		}
	}
	fmt.Fprintln(&b, "  Actions:")
	for i, n := range s.ActionDistribution {
		fmt.Fprintf(&b, "    %-6s %d\n", model.ActionName(i), n)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderSummary prints per-kind totals for the given sessions.
func RenderSummary(w io.Writer, sessions []model.SessionAggregate) error {
	if len(sessions) == 0 {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	type totals struct {
		sessions int
		reward   float64
		best     float64
		steps    int
		advice   int
		requests int
		seconds  float64
	}
	byKind := map[model.SessionKind]*totals{}
	var order []model.SessionKind
	for _, s := range sessions {
		t, ok := byKind[s.Kind]
		if !ok {
			t = &totals{best: s.TotalReward}
			byKind[s.Kind] = t
			order = append(order, s.Kind)
		}
		t.sessions++
		t.reward += s.TotalReward
		t.best = max(t.best, s.TotalReward)
		t.steps += s.StepCount
		t.advice += s.HumanAdviceCount
		t.requests += s.AdviceRequests
		t.seconds += float64(s.ElapsedMs) / 1000
	}

	headers := []string{"Kind", "Sessions", "Avg Reward", "Best", "Reward/Step", "Steps/s", "Advice"}
	rows := make([][]string, 0, len(order))
	for _, kind := range order {
		t := byKind[kind]
		advice := "-"
		if kind == model.KindAgent {
			advice = fmt.Sprintf("%d/%d", t.advice, t.requests)
		}
		rows = append(rows, []string{
			string(kind),
			fmt.Sprintf("%d", t.sessions),
			fmt.Sprintf("%.1f", t.reward/float64(t.sessions)),
			fmt.Sprintf("%.0f", t.best),
			fmt.Sprintf("%.3f", t.reward/float64(max(t.steps, 1))),
			fmt.Sprintf("%.2f", float64(t.steps)/max(t.seconds, 1)),
			advice,
		})
	}
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	return writeLines(w, formatTable(headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true, 6: true}))
}

// RenderActionTable prints action usage shares per session kind.
func RenderActionTable(w io.Writer, aggs []model.ActionAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No action stats found.")
		return err
	}
	counts := map[model.SessionKind][]int{}
	var kinds []model.SessionKind
	for _, a := range aggs {
		if a.Action < 0 || a.Action >= model.NumActions {
			continue
		}
		c, ok := counts[a.Kind]
		if !ok {
			c = make([]int, model.NumActions)
			counts[a.Kind] = c
			kinds = append(kinds, a.Kind)
		}
		c[a.Action] += a.Count
	}

	headers := []string{"Action"}
	for _, k := range kinds {
		headers = append(headers, string(k))
	}
	rightAlign := map[int]bool{}
	for i := range kinds {
		rightAlign[i+1] = true
	}
	rows := make([][]string, 0, model.NumActions)
	for action := 0; action < model.NumActions; action++ {
		row := []string{model.ActionName(action)}
		for _, k := range kinds {
			total := 0
			for _, n := range counts[k] {
				total += n
			}
			share := 0.0
			if total > 0 {
				share = float64(counts[k][action]) / float64(total) * 100
			}
			row = append(row, fmt.Sprintf("%d (%.1f%%)", counts[k][action], share))
		}
		rows = append(rows, row)
	}
	if _, err := fmt.Fprintln(w, "Actions"); err != nil {
		return err
	}
	return writeLines(w, formatTable(headers, rows, rightAlign))
}

// RenderCurve charts the moving average of session rewards.
func RenderCurve(w io.Writer, sessions []model.SessionAggregate, window, totalWidth, height int) error {
	if len(sessions) == 0 {
		return nil
	}
	rewards := make([]float64, len(sessions))
	for i, s := range sessions {
		rewards[i] = s.TotalReward
	}
	return RenderChart(w, "Reward per Session", MovingAverage(rewards, window), ChartWidthFor(totalWidth), height)
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// RenderEval prints a policy evaluation summary.
func RenderEval(w io.Writer, res model.EvalResult) error {
	var b strings.Builder
	fmt.Fprintln(&b, "Evaluation")
	fmt.Fprintf(&b, "  Episodes:          %d\n", len(res.Rewards))
	fmt.Fprintf(&b, "  Mean reward:       %.2f +/- %.2f\n", res.MeanReward, res.StdReward)
	fmt.Fprintf(&b, "  Best / worst:      %.0f / %.0f\n", res.Best, res.Worst)
	fmt.Fprintf(&b, "  Mean length:       %.1f steps\n", res.MeanLength)
	_, err := io.WriteString(w, b.String())
	return err
}
