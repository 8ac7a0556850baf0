package policy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
)

func TestLinearActPicksHighestScore(t *testing.T) {
	w := make([]float64, model.NumActions*game.NumFeatures)
	w[model.ActionLeft*game.NumFeatures] = 2
	w[model.ActionRight*game.NumFeatures] = 1
	p := NewLinearFromSlice(w)
	obs := game.Observation{Features: make([]float64, game.NumFeatures)}
	obs.Features[0] = 1
	obs.Features[game.FeatureIndex(model.ActionLeft, 0)] = 1
	obs.Features[game.FeatureIndex(model.ActionRight, 0)] = 1
	if got := p.Act(obs); got != model.ActionLeft {
		t.Fatalf("expected LEFT, got %s", model.ActionName(got))
	}
}

func TestLinearActSkipsBlockedDirections(t *testing.T) {
	w := make([]float64, model.NumActions*game.NumFeatures)
	w[model.ActionUp*game.NumFeatures] = 5
	w[model.ActionLeft*game.NumFeatures] = 1
	p := NewLinearFromSlice(w)
	obs := game.Observation{Features: make([]float64, game.NumFeatures)}
	obs.Features[0] = 1
	obs.Features[game.FeatureIndex(model.ActionLeft, 0)] = 1
	if got := p.Act(obs); got != model.ActionLeft {
		t.Fatalf("expected LEFT, the only open move, got %s", model.ActionName(got))
	}

	// A blocked direction never beats NOOP, even with a higher score.
	w[model.ActionLeft*game.NumFeatures] = -1
	p = NewLinearFromSlice(w)
	if got := p.Act(obs); got != model.ActionNoop {
		t.Fatalf("expected NOOP, got %s", model.ActionName(got))
	}
}

func TestLinearActTiesGoToLowestAction(t *testing.T) {
	p := NewLinearFromSlice(make([]float64, model.NumActions*game.NumFeatures))
	obs := game.Observation{Features: make([]float64, game.NumFeatures)}
	if got := p.Act(obs); got != model.ActionNoop {
		t.Fatalf("expected NOOP on ties, got %d", got)
	}
}

func TestLinearActWrongShape(t *testing.T) {
	p := NewLinearFromSlice(DefaultWeights())
	if got := p.Act(game.Observation{Features: []float64{1}}); got != model.ActionNoop {
		t.Fatalf("expected NOOP for bad features, got %d", got)
	}
}

func TestDefaultWeightsMoveTowardPellets(t *testing.T) {
	env := game.New(7)
	obs, _ := env.Reset()
	p := NewLinearFromSlice(DefaultWeights())
	action := p.Act(obs)
	if action == model.ActionNoop || action == model.ActionDown {
		t.Fatalf("expected a move into open floor, got %s", model.ActionName(action))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "policy.gob")
	p := NewLinearFromSlice(DefaultWeights())
	if err := Save(path, p); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	r, c := loaded.Weights().Dims()
	if r != model.NumActions || c != game.NumFeatures {
		t.Fatalf("unexpected dims %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if loaded.Weights().At(i, j) != p.Weights().At(i, j) {
				t.Fatalf("weight mismatch at %d,%d", i, j)
			}
		}
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.gob"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.gob")
	if err := os.WriteFile(path, []byte("not a policy"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, ErrInvalidArtifact) {
		t.Fatalf("expected ErrInvalidArtifact, got %v", err)
	}
}
