package game

import (
	"strings"
	"testing"

	"github.com/verte-zerg/pacstudy/internal/model"
)

func TestDefaultLayoutIsRectangular(t *testing.T) {
	width := len(defaultLayout[0])
	for i, line := range defaultLayout {
		if len(line) != width {
			t.Fatalf("row %d has width %d, expected %d", i, len(line), width)
		}
	}
	m := parseLayout(defaultLayout)
	if len(m.ghostHomes) == 0 {
		t.Fatalf("expected ghost homes in layout")
	}
	if m.pellets() == 0 {
		t.Fatalf("expected pellets in layout")
	}
}

func TestResetRendersPlayerAndGhosts(t *testing.T) {
	g := New(1)
	obs, info := g.Reset()
	if len(obs.Features) != NumFeatures {
		t.Fatalf("expected %d features, got %d", NumFeatures, len(obs.Features))
	}
	if info.Lives != startLives {
		t.Fatalf("expected %d lives, got %d", startLives, info.Lives)
	}
	frame := g.Render()
	joined := strings.Join(frame.Grid, "\n")
	if strings.Count(joined, "C") != 1 {
		t.Fatalf("expected exactly one player in frame:\n%s", joined)
	}
	if !strings.Contains(joined, "G") {
		t.Fatalf("expected ghosts in frame:\n%s", joined)
	}
}

func TestStepEatsPellet(t *testing.T) {
	g := New(1)
	g.Reset()
	// The player starts on open floor with pellets to the left.
	_, reward, _, _, info := g.Step(model.ActionLeft)
	if reward < pelletPoints {
		t.Fatalf("expected pellet reward, got %v", reward)
	}
	if info.Score != reward {
		t.Fatalf("expected score %v to match reward %v", info.Score, reward)
	}
}

func TestStepIgnoresInvalidAction(t *testing.T) {
	g := New(1)
	g.Reset()
	before := g.player
	g.Step(99)
	if g.player != before {
		t.Fatalf("expected invalid action to act as NOOP")
	}
}

func TestWallBlocksMovement(t *testing.T) {
	g := New(1)
	g.Reset()
	obs := g.observe()
	if obs.Features[FeatureIndex(model.ActionDown, 0)] != 0 {
		t.Fatalf("expected wall below the start cell")
	}
	before := g.player
	g.Step(model.ActionDown)
	if g.player != before {
		t.Fatalf("expected wall to block movement")
	}
}

func TestTruncationAtStepLimit(t *testing.T) {
	g := New(1)
	g.SetStepLimit(3)
	g.Reset()
	var terminated, truncated bool
	for i := 0; i < 3; i++ {
		_, _, terminated, truncated, _ = g.Step(model.ActionNoop)
		if terminated {
			t.Fatalf("unexpected termination at step %d", i)
		}
	}
	if !truncated {
		t.Fatalf("expected truncation after step limit")
	}
}

func TestClipReward(t *testing.T) {
	env := NewClipReward(New(1))
	env.Reset()
	_, reward, _, _, info := env.Step(model.ActionLeft)
	if reward != 1 {
		t.Fatalf("expected clipped reward 1, got %v", reward)
	}
	if info.Score < pelletPoints {
		t.Fatalf("expected unclipped score in info, got %v", info.Score)
	}
	for _, v := range []float64{-7, 0, 0.5} {
		s := sign(v)
		if s != -1 && s != 0 && s != 1 {
			t.Fatalf("unexpected sign %v", s)
		}
	}
}

func TestEpisodeEndsWhenLivesExhausted(t *testing.T) {
	g := New(1)
	g.Reset()
	g.lives = 1
	g.ghosts[0].pos = g.player.add(actionDelta[model.ActionUp])
	g.frightened = 0
	_, _, terminated, _, info := g.Step(model.ActionUp)
	if !terminated {
		t.Fatalf("expected termination after last life, lives=%d", info.Lives)
	}
	if !info.LifeLost {
		t.Fatalf("expected life lost flag")
	}
	_, reward, terminated, _, _ := g.Step(model.ActionUp)
	if !terminated || reward != 0 {
		t.Fatalf("expected terminal steps to be inert until reset")
	}
}

func TestPlayerAndGhostCannotPassThrough(t *testing.T) {
	g := New(1)
	g.Reset()
	g.ghosts = g.ghosts[:1]
	// Head-on: the ghost would step onto the player's cell as the player
	// steps onto the ghost's.
	g.ghosts[0] = ghost{pos: g.player.add(actionDelta[model.ActionLeft]), heading: model.ActionRight}
	_, _, _, _, info := g.Step(model.ActionLeft)
	if !info.LifeLost || info.Lives != startLives-1 {
		t.Fatalf("expected a collision on crossing, got %+v", info)
	}
}
