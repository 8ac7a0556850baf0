// Package stats contains statistics calculations and reporting.
package stats

import (
	"time"

	"github.com/verte-zerg/pacstudy/internal/model"
)

// Counters carries the session facts that are not derivable from the step log.
type Counters struct {
	AdviceRequests int
	AdviceTimeouts int
	Episodes       int
	ModeSwitchedAt *time.Duration
	EndReason      model.EndReason
}

// Summarize derives session statistics from the step log.
func Summarize(record []model.StepRecord, elapsed time.Duration, c Counters) model.SessionStats {
	out := model.SessionStats{
		StepCount:          len(record),
		Elapsed:            elapsed,
		ActionDistribution: make([]int, model.NumActions),
		AdviceRequests:     c.AdviceRequests,
		AdviceTimeouts:     c.AdviceTimeouts,
		Episodes:           c.Episodes,
		EndReason:          c.EndReason,
	}
	if c.ModeSwitchedAt != nil {
		at := *c.ModeSwitchedAt
		out.ModeSwitchedAt = &at
	}
	for _, r := range record {
		out.TotalReward += r.Reward
		if r.Action >= 0 && r.Action < model.NumActions {
			out.ActionDistribution[r.Action]++
		}
		switch r.Source {
		case model.SourceAdvice:
			out.HumanAdviceCount++
		case model.SourcePolicy:
			out.AgentActionCount++
		}
	}
	out.AvgRewardPerStep = out.TotalReward / float64(max(out.StepCount, 1))
	out.ActionsPerSecond = float64(out.StepCount) / max(elapsed.Seconds(), 1)
	out.AdviceRatio = float64(out.HumanAdviceCount) / float64(max(out.StepCount, 1))
	out.MostCommonAction = MostCommon(out.ActionDistribution)
	return out
}

// MostCommon returns the index of the largest count, lowest index on ties.
func MostCommon(counts []int) int {
	best := 0
	for i, n := range counts {
		if n > counts[best] {
			best = i
		}
	}
	return best
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		n := i + 1
		if i >= window {
			sum -= values[i-window]
			n = window
		}
		out[i] = sum / float64(n)
	}
	return out
}
