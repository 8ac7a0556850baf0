package session

import (
	"sync"
	"time"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
)

// fakeClock advances only when asked to wait, so loops run instantly.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) After(d time.Duration) <-chan time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
	ch := make(chan time.Time, 1)
	ch <- f.now
	return ch
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type keyQueue chan Key

func (q keyQueue) Keys() <-chan Key { return q }

func queued(keys ...Key) keyQueue {
	q := make(keyQueue, len(keys)+1)
	for _, k := range keys {
		q <- k
	}
	return q
}

// scriptedFrontend records screens and reacts to them by queueing keys.
type scriptedFrontend struct {
	keys    chan Key
	screens []Screen
	react   func(f *scriptedFrontend, s Screen)
}

func newScriptedFrontend(react func(f *scriptedFrontend, s Screen)) *scriptedFrontend {
	return &scriptedFrontend{keys: make(chan Key, 16), react: react}
}

func (f *scriptedFrontend) Keys() <-chan Key { return f.keys }

func (f *scriptedFrontend) Present(s Screen) {
	f.screens = append(f.screens, s)
	if f.react != nil {
		f.react(f, s)
	}
}

func (f *scriptedFrontend) push(k Key) {
	select {
	case f.keys <- k:
	default:
	}
}

func (f *scriptedFrontend) count(kind ScreenKind) int {
	n := 0
	for _, s := range f.screens {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// stubEnv never loses; it terminates every episodeLen steps when set.
type stubEnv struct {
	episodeLen int
	steps      int
}

func (e *stubEnv) Reset() (game.Observation, game.Info) {
	e.steps = 0
	return game.Observation{Features: make([]float64, game.NumFeatures)}, game.Info{Lives: 3}
}

func (e *stubEnv) Step(action int) (game.Observation, float64, bool, bool, game.Info) {
	e.steps++
	terminated := e.episodeLen > 0 && e.steps >= e.episodeLen
	return game.Observation{Features: make([]float64, game.NumFeatures)}, 1, terminated, false, game.Info{Lives: 3, EpisodeSteps: e.steps}
}

func (e *stubEnv) Render() game.Frame {
	return game.Frame{Grid: []string{"#C#"}, Lives: 3}
}

func (e *stubEnv) NumActions() int { return model.NumActions }
