package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/policy"
)

const (
	startCountdown   = 3
	progressInterval = 100
)

// ScreenKind selects what the frontend draws.
type ScreenKind int

const (
	ScreenStart ScreenKind = iota
	ScreenCountdown
	ScreenPlay
	ScreenPaused
	ScreenAdvice
	ScreenModeSwitch
	ScreenEnd
)

// Screen is one presentation update sent to the frontend.
type Screen struct {
	Kind      ScreenKind
	Session   model.SessionKind
	Frame     game.Frame
	Mode      model.AdviceMode
	Count     int
	Score     float64
	Steps     int
	Remaining time.Duration
	TimeLimit time.Duration
	// AdviceRemaining is the countdown left on an advice screen, zero in freeze mode.
	AdviceRemaining time.Duration
	Countdown       time.Duration
	Stats           *model.SessionStats
}

// Frontend shows screens and supplies keys.
type Frontend interface {
	Input
	Present(Screen)
}

// Result is the outcome of a run. Started is false when the player quit on
// the start screen, in which case nothing else is set.
type Result struct {
	Started    bool
	StartedAt  time.Time
	EndedAt    time.Time
	Stats      model.SessionStats
	FinalFrame game.Frame
}

// Runner plays one session on the calling goroutine.
type Runner struct {
	Config   model.Config
	Env      game.Environment
	Policy   policy.Policy
	Frontend Frontend
	Clock    Clock
	Logger   *log.Logger

	TimerInterval time.Duration
	PollInterval  time.Duration
}

// Run shows the start screen, plays until the time limit or a quit, and
// returns the final statistics.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	if r.Env == nil || r.Frontend == nil {
		return Result{}, errors.New("runner needs an environment and a frontend")
	}
	if r.Config.Kind == model.KindAgent && r.Policy == nil {
		return Result{}, errors.New("agent session needs a policy")
	}
	if r.Clock == nil {
		r.Clock = SystemClock{}
	}
	if r.Logger == nil {
		r.Logger = log.Default()
	}
	if r.PollInterval <= 0 {
		r.PollInterval = DefaultPollInterval
	}

	ctrl := NewController(r.Config, r.Clock)
	ctrl.SetPollInterval(r.PollInterval)

	obs, _ := r.Env.Reset()
	r.Frontend.Present(r.screen(ScreenStart, ctrl))
	if !r.waitKey(ctx, func(k Key) bool { return true }) {
		return Result{}, nil
	}
	for n := startCountdown; n >= 1; n-- {
		s := r.screen(ScreenCountdown, ctrl)
		s.Count = n
		r.Frontend.Present(s)
		if !r.sleep(ctx, time.Second) {
			return Result{}, nil
		}
	}
	if r.discardKeys() {
		return Result{}, nil
	}

	startedAt := r.Clock.Now()
	ctrl.Start(startedAt)
	ctrl.SetPrompt(func(mode model.AdviceMode, remaining time.Duration) {
		s := r.screen(ScreenAdvice, ctrl)
		s.Mode = mode
		s.AdviceRemaining = remaining
		r.Frontend.Present(s)
	})
	timer := StartExpiryTimer(ctx, ctrl, r.TimerInterval)
	r.Logger.Printf("%s session started: limit %s, advice every %d steps, %s mode first",
		r.Config.Kind, r.Config.TimeLimit, r.Config.AdviceFrequency, ctrl.Mode())

	reason := r.loop(ctx, ctrl, obs)

	timer.Stop()
	endedAt := r.Clock.Now()
	ctrl.End(endedAt, reason)
	st := ctrl.Finalize()
	r.Logger.Printf("session ended (%s): reward %.0f over %d steps in %.1fs",
		st.EndReason, st.TotalReward, st.StepCount, st.Elapsed.Seconds())

	end := r.screen(ScreenEnd, ctrl)
	end.Stats = &st
	r.Frontend.Present(end)
	return Result{
		Started:    true,
		StartedAt:  startedAt,
		EndedAt:    endedAt,
		Stats:      st,
		FinalFrame: end.Frame,
	}, nil
}

func (r *Runner) loop(ctx context.Context, ctrl *Controller, obs game.Observation) model.EndReason {
	agent := r.Config.Kind == model.KindAgent
	fps := r.Config.HumanFPS
	if agent {
		fps = r.Config.AgentFPS
	}
	frameInterval := time.Second / time.Duration(max(fps, 1))
	pending := model.ActionNoop

	for {
		if ctx.Err() != nil {
			return model.EndQuit
		}
		elapsed, expired := ctrl.Tick(r.Clock.Now())
		if expired {
			return model.EndExpired
		}

	drain:
		for {
			select {
			case k, ok := <-r.Frontend.Keys():
				if !ok || k == KeyQuit {
					return model.EndQuit
				}
				switch {
				case k == KeyPause:
					if ctrl.TogglePause(r.Clock.Now()) {
						r.Frontend.Present(r.screen(ScreenPaused, ctrl))
					} else {
						r.Frontend.Present(r.screen(ScreenPlay, ctrl))
					}
				case k == KeyEscape && ctrl.Paused():
					return model.EndQuit
				case !agent && !ctrl.Paused():
					if action, mapped := ActionForKey(k); mapped {
						pending = action
					}
				}
			default:
				break drain
			}
		}

		if ctrl.Paused() {
			if !r.sleep(ctx, r.PollInterval) {
				return model.EndQuit
			}
			continue
		}

		if agent && ctrl.MaybeSwitchMode(elapsed) {
			r.Logger.Printf("mode switched to %s at %.1fs", ctrl.Mode(), elapsed.Seconds())
			ctrl.TogglePause(r.Clock.Now())
			r.Frontend.Present(r.screen(ScreenModeSwitch, ctrl))
			if !r.waitKey(ctx, func(k Key) bool { return k == KeySpace || k == KeyEnter }) {
				return model.EndQuit
			}
			ctrl.TogglePause(r.Clock.Now())
		}

		step := ctrl.Steps()
		action, source := pending, model.SourcePlayer
		if agent {
			if ctrl.IsAdviceStep(step) {
				r.Logger.Printf("step %d: requesting human advice in %s mode", step, ctrl.Mode())
			}
			d := ctrl.RequestAction(ctx, step, obs, r.Policy, r.Frontend)
			if d.Abort {
				return model.EndQuit
			}
			if d.TimedOut {
				r.Logger.Printf("no advice within %s, using agent action", r.Config.Countdown)
			}
			action, source = d.Action, d.Source
		}
		pending = model.ActionNoop

		next, reward, terminated, truncated, _ := r.Env.Step(action)
		obs = next
		ctrl.RecordStep(action, reward, source)
		r.Frontend.Present(r.screen(ScreenPlay, ctrl))

		if n := ctrl.Steps(); n%progressInterval == 0 {
			r.Logger.Printf("step %d: score %.0f, time remaining %s",
				n, ctrl.TotalReward(), ctrl.Remaining(r.Clock.Now()).Truncate(time.Second))
		}
		if terminated || truncated {
			r.Logger.Printf("episode ended after %d steps, continuing with a fresh maze", ctrl.Steps())
			obs, _ = r.Env.Reset()
			ctrl.EpisodeReset()
			continue
		}
		if !r.sleep(ctx, frameInterval) {
			return model.EndQuit
		}
	}
}

func (r *Runner) screen(kind ScreenKind, ctrl *Controller) Screen {
	return Screen{
		Kind:      kind,
		Session:   r.Config.Kind,
		Frame:     r.Env.Render(),
		Mode:      ctrl.Mode(),
		Score:     ctrl.TotalReward(),
		Steps:     ctrl.Steps(),
		Remaining: ctrl.Remaining(r.Clock.Now()),
		TimeLimit: r.Config.TimeLimit,
		Countdown: r.Config.Countdown,
	}
}

// waitKey blocks until accept returns true for a key. Quit, a closed key
// channel or ctx cancellation return false; Escape does too unless accepted.
func (r *Runner) waitKey(ctx context.Context, accept func(Key) bool) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case k, ok := <-r.Frontend.Keys():
			if !ok || k == KeyQuit {
				return false
			}
			if accept(k) {
				return true
			}
			if k == KeyEscape {
				return false
			}
		}
	}
}

// discardKeys drops keys typed before play began and reports a quit among them.
func (r *Runner) discardKeys() bool {
	for {
		select {
		case k, ok := <-r.Frontend.Keys():
			if !ok || k == KeyQuit {
				return true
			}
		default:
			return false
		}
	}
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-r.Clock.After(d):
		return true
	}
}
