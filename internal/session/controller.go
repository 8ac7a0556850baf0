// Package session drives a timed study session: clock, advice requests,
// mode switching, step log and final statistics.
package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
	"github.com/verte-zerg/pacstudy/internal/stats"
)

// State is the controller lifecycle state.
type State int

const (
	StateNotStarted State = iota
	StateRunning
	StatePaused
	StateEnded
	StateFinalized
)

// DefaultPollInterval is how often input is polled while waiting.
const DefaultPollInterval = time.Second / 60

// Decision is the outcome of RequestAction.
type Decision struct {
	Action int
	Source model.ActionSource
	// Advice is set when the step asked the human.
	Advice   bool
	TimedOut bool
	// Abort is set when the human quit while advice was pending.
	Abort bool
}

// PromptFunc is told that advice is pending. remaining is zero in freeze mode.
type PromptFunc func(mode model.AdviceMode, remaining time.Duration)

// Controller owns the session clock, advice schedule and step log. All
// methods except Tick, Expired and Elapsed must be called from one goroutine.
type Controller struct {
	cfg   model.Config
	clock Clock
	sc    SessionClock
	poll  time.Duration

	expired    atomic.Bool
	expiredCh  chan struct{}
	expireOnce sync.Once

	state      State
	mode       model.AdviceMode
	switched   bool
	switchedAt time.Duration
	endReason  model.EndReason
	endElapsed time.Duration

	record         []model.StepRecord
	totalReward    float64
	adviceRequests int
	adviceTimeouts int
	episodes       int

	prompt PromptFunc
	final  *model.SessionStats
}

// NewController returns a controller in the NotStarted state.
func NewController(cfg model.Config, clock Clock) *Controller {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Controller{
		cfg:       cfg,
		clock:     clock,
		poll:      DefaultPollInterval,
		expiredCh: make(chan struct{}),
		mode:      cfg.FirstMode(),
	}
}

// SetPrompt installs the hook called while advice is pending.
func (c *Controller) SetPrompt(fn PromptFunc) {
	c.prompt = fn
}

// SetPollInterval overrides the countdown polling interval.
func (c *Controller) SetPollInterval(d time.Duration) {
	if d > 0 {
		c.poll = d
	}
}

// Start arms the session clock and begins the first episode.
func (c *Controller) Start(now time.Time) {
	if c.state != StateNotStarted {
		return
	}
	c.sc.Start(now)
	c.state = StateRunning
	c.episodes = 1
}

// State reports the lifecycle state.
func (c *Controller) State() State { return c.state }

// Mode reports the active advice mode.
func (c *Controller) Mode() model.AdviceMode { return c.mode }

// Paused reports whether the session clock is paused.
func (c *Controller) Paused() bool { return c.state == StatePaused }

// Steps returns the number of recorded steps.
func (c *Controller) Steps() int { return len(c.record) }

// TotalReward returns the sum of recorded rewards.
func (c *Controller) TotalReward() float64 { return c.totalReward }

// Elapsed returns unpaused time at now. Safe for concurrent use.
func (c *Controller) Elapsed(now time.Time) time.Duration {
	return c.sc.Elapsed(now)
}

// Remaining returns the time left before expiry at now.
func (c *Controller) Remaining(now time.Time) time.Duration {
	return max(c.cfg.TimeLimit-c.sc.Elapsed(now), 0)
}

// Tick samples elapsed time and sets the expiry flag once the limit is
// reached. Safe for concurrent use.
func (c *Controller) Tick(now time.Time) (time.Duration, bool) {
	elapsed := c.sc.Elapsed(now)
	if c.cfg.TimeLimit > 0 && elapsed >= c.cfg.TimeLimit {
		c.markExpired()
	}
	return elapsed, c.expired.Load()
}

func (c *Controller) markExpired() {
	if c.expired.CompareAndSwap(false, true) {
		c.expireOnce.Do(func() { close(c.expiredCh) })
	}
}

// Expired returns a channel closed when the time limit is reached.
func (c *Controller) Expired() <-chan struct{} { return c.expiredCh }

// IsExpired reports the expiry flag.
func (c *Controller) IsExpired() bool { return c.expired.Load() }

// TogglePause pauses or resumes the session clock and reports whether the
// session is paused afterwards. It has no effect outside Running or Paused.
func (c *Controller) TogglePause(now time.Time) bool {
	switch c.state {
	case StateRunning, StatePaused:
	default:
		return false
	}
	if c.sc.Toggle(now) {
		c.state = StatePaused
		return true
	}
	c.state = StateRunning
	return false
}

// MaybeSwitchMode flips the advice mode the first time elapsed reaches half
// the time limit. It reports true only on that call.
func (c *Controller) MaybeSwitchMode(elapsed time.Duration) bool {
	if c.switched || elapsed < c.cfg.TimeLimit/2 {
		return false
	}
	c.switched = true
	c.switchedAt = elapsed
	c.mode = c.mode.Other()
	return true
}

// IsAdviceStep reports whether the human is asked at stepIndex.
func (c *Controller) IsAdviceStep(stepIndex int) bool {
	freq := c.cfg.AdviceFrequency
	return freq > 0 && stepIndex > 0 && stepIndex%freq == 0
}

// RequestAction chooses the next action. On advice steps it waits for a
// mapped key from in, indefinitely in freeze mode or up to the countdown in
// countdown mode, falling back to the policy on timeout.
func (c *Controller) RequestAction(ctx context.Context, stepIndex int, obs game.Observation, pol policy.Policy, in Input) Decision {
	if !c.IsAdviceStep(stepIndex) {
		return Decision{Action: pol.Act(obs), Source: model.SourcePolicy}
	}
	c.adviceRequests++
	if c.mode == model.ModeFreeze {
		return c.awaitFreeze(ctx, in)
	}
	return c.awaitCountdown(ctx, obs, pol, in)
}

func (c *Controller) awaitFreeze(ctx context.Context, in Input) Decision {
	c.notify(model.ModeFreeze, 0)
	keys := in.Keys()
	for {
		select {
		case <-ctx.Done():
			return Decision{Advice: true, Abort: true}
		case k, ok := <-keys:
			if d, done := adviceKey(k, ok); done {
				return d
			}
		}
	}
}

func (c *Controller) awaitCountdown(ctx context.Context, obs game.Observation, pol policy.Policy, in Input) Decision {
	keys := in.Keys()
	start := c.clock.Now()
	for {
		remaining := c.cfg.Countdown - c.clock.Now().Sub(start)
		if remaining <= 0 {
			c.adviceTimeouts++
			return Decision{Action: pol.Act(obs), Source: model.SourcePolicy, Advice: true, TimedOut: true}
		}
		c.notify(model.ModeCountdown, remaining)

		select {
		case k, ok := <-keys:
			if d, done := adviceKey(k, ok); done {
				return d
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return Decision{Advice: true, Abort: true}
		case k, ok := <-keys:
			if d, done := adviceKey(k, ok); done {
				return d
			}
		case <-c.clock.After(min(c.poll, remaining)):
		}
	}
}

// adviceKey interprets a key received while advice is pending.
func adviceKey(k Key, ok bool) (Decision, bool) {
	if !ok || k == KeyQuit || k == KeyEscape {
		return Decision{Advice: true, Abort: true}, true
	}
	if action, mapped := ActionForKey(k); mapped {
		return Decision{Action: action, Source: model.SourceAdvice, Advice: true}, true
	}
	return Decision{}, false
}

func (c *Controller) notify(mode model.AdviceMode, remaining time.Duration) {
	if c.prompt != nil {
		c.prompt(mode, remaining)
	}
}

// RecordStep appends one step. Steps after the session ended are dropped.
func (c *Controller) RecordStep(action int, reward float64, source model.ActionSource) {
	if c.state != StateRunning && c.state != StatePaused {
		return
	}
	c.record = append(c.record, model.StepRecord{Action: action, Reward: reward, Source: source})
	c.totalReward += reward
}

// EpisodeReset counts an environment reset after termination or truncation.
func (c *Controller) EpisodeReset() {
	if c.state == StateRunning || c.state == StatePaused {
		c.episodes++
	}
}

// End stops the session at now, freezing elapsed time and the step log.
func (c *Controller) End(now time.Time, reason model.EndReason) {
	switch c.state {
	case StateRunning, StatePaused:
	default:
		return
	}
	c.endElapsed = c.sc.Elapsed(now)
	c.endReason = reason
	c.state = StateEnded
}

// Finalize computes the session statistics once. A session that was not
// ended explicitly ends now, as expired if the flag is set and quit otherwise.
func (c *Controller) Finalize() model.SessionStats {
	if c.final != nil {
		return *c.final
	}
	if c.state != StateEnded {
		reason := model.EndQuit
		if c.expired.Load() {
			reason = model.EndExpired
		}
		c.End(c.clock.Now(), reason)
	}
	counters := stats.Counters{
		AdviceRequests: c.adviceRequests,
		AdviceTimeouts: c.adviceTimeouts,
		Episodes:       c.episodes,
		EndReason:      c.endReason,
	}
	if c.switched {
		at := c.switchedAt
		counters.ModeSwitchedAt = &at
	}
	s := stats.Summarize(c.record, c.endElapsed, counters)
	c.final = &s
	c.state = StateFinalized
	return s
}
