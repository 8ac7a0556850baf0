// Package model defines shared data structures.
package model

import "time"

// Action ids follow the ALE Pac-Man minimal action set.
const (
	ActionNoop  = 0
	ActionUp    = 1
	ActionRight = 2
	ActionLeft  = 3
	ActionDown  = 4

	NumActions = 5
)

var actionNames = [NumActions]string{"NOOP", "UP", "RIGHT", "LEFT", "DOWN"}

// ActionName returns a display name for an action id.
func ActionName(action int) string {
	if action < 0 || action >= NumActions {
		return "?"
	}
	return actionNames[action]
}

// SessionKind distinguishes agent-driven and human-driven sessions.
type SessionKind string

const (
	KindAgent SessionKind = "agent"
	KindHuman SessionKind = "human"
)

// AdviceMode selects how human advice is solicited.
type AdviceMode int

const (
	// ModeFreeze waits indefinitely for advice.
	ModeFreeze AdviceMode = iota
	// ModeCountdown waits a bounded time, then falls back to the policy.
	ModeCountdown
)

func (m AdviceMode) String() string {
	if m == ModeCountdown {
		return "countdown"
	}
	return "freeze"
}

// Other returns the alternate advice mode.
func (m AdviceMode) Other() AdviceMode {
	if m == ModeCountdown {
		return ModeFreeze
	}
	return ModeCountdown
}

// ActionSource records who chose a step's action.
type ActionSource int

const (
	// SourcePolicy is an action chosen by the agent policy.
	SourcePolicy ActionSource = iota
	// SourceAdvice is an action given by a human on an advice step.
	SourceAdvice
	// SourcePlayer is an action from a human playing directly.
	SourcePlayer
)

// StepRecord is one entry of a session's step log.
type StepRecord struct {
	Action int
	Reward float64
	Source ActionSource
}

// EndReason records why a session stopped.
type EndReason string

const (
	EndNone    EndReason = ""
	EndExpired EndReason = "expired"
	EndQuit    EndReason = "quit"
)

// Config defines play session settings.
type Config struct {
	Kind            SessionKind
	TimeLimit       time.Duration
	Countdown       time.Duration
	FreezeModeFirst bool
	AdviceFrequency int
	ModelPath       string
	AgentFPS        int
	HumanFPS        int
	Seed            uint64
	SnapshotDir     string
}

// FirstMode returns the advice mode active at session start.
func (c Config) FirstMode() AdviceMode {
	if c.FreezeModeFirst {
		return ModeFreeze
	}
	return ModeCountdown
}

// StatsConfig defines filters for stats output.
type StatsConfig struct {
	Kind        SessionKind
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats is the read-only snapshot produced when a session ends.
type SessionStats struct {
	TotalReward        float64
	StepCount          int
	Elapsed            time.Duration
	AvgRewardPerStep   float64
	ActionsPerSecond   float64
	ActionDistribution []int
	MostCommonAction   int
	HumanAdviceCount   int
	AgentActionCount   int
	AdviceRatio        float64
	AdviceRequests     int
	AdviceTimeouts     int
	Episodes           int
	ModeSwitchedAt     *time.Duration
	EndReason          EndReason
}

// SessionRecord is a completed session as persisted.
type SessionRecord struct {
	UUID            string
	Kind            SessionKind
	StartedAt       time.Time
	EndedAt         time.Time
	TimeLimit       time.Duration
	Countdown       time.Duration
	FreezeModeFirst bool
	AdviceFrequency int
	Stats           SessionStats
}

// SessionAggregate summarizes a stored session for reporting.
type SessionAggregate struct {
	SessionID        int64
	UUID             string
	Kind             SessionKind
	EndedAt          time.Time
	TotalReward      float64
	StepCount        int
	ElapsedMs        int64
	HumanAdviceCount int
	AdviceRequests   int
	EndReason        EndReason
}

// ActionAggregate sums the uses of one action across sessions.
type ActionAggregate struct {
	Kind   SessionKind
	Action int
	Count  int
}

// EvalResult summarizes policy evaluation over several episodes.
type EvalResult struct {
	Rewards    []float64
	Lengths    []int
	MeanReward float64
	StdReward  float64
	MeanLength float64
	Best       float64
	Worst      float64
}
