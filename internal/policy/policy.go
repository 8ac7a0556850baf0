// Package policy loads and evaluates the agent's action policy.
package policy

import (
	"gonum.org/v1/gonum/mat"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
)

// Policy maps an observation to a deterministic action id.
type Policy interface {
	Act(obs game.Observation) int
}

// Func adapts a plain function to Policy.
type Func func(obs game.Observation) int

// Act implements Policy.
func (f Func) Act(obs game.Observation) int {
	return f(obs)
}

// Linear is a greedy policy over linear action scores W·φ, with one row of
// weights per action and one column per feature.
type Linear struct {
	weights *mat.Dense
}

// NewLinear wraps a weight matrix.
func NewLinear(weights *mat.Dense) *Linear {
	return &Linear{weights: weights}
}

// NewLinearFromSlice builds a policy from row-major weights.
func NewLinearFromSlice(data []float64) *Linear {
	return NewLinear(mat.NewDense(model.NumActions, game.NumFeatures, data))
}

// Weights returns the underlying weight matrix.
func (p *Linear) Weights() *mat.Dense {
	return p.weights
}

// Act implements Policy. Only NOOP and directions whose open feature is set
// compete. Ties go to the lowest action id; a feature vector of the wrong
// length yields NOOP.
func (p *Linear) Act(obs game.Observation) int {
	rows, cols := p.weights.Dims()
	if len(obs.Features) != cols {
		return model.ActionNoop
	}
	x := mat.NewVecDense(cols, obs.Features)
	scores := mat.NewVecDense(rows, nil)
	scores.MulVec(p.weights, x)

	best := 0
	for i := 1; i < rows; i++ {
		if !legal(obs, i) {
			continue
		}
		if scores.AtVec(i) > scores.AtVec(best) {
			best = i
		}
	}
	return best
}

func legal(obs game.Observation, action int) bool {
	if action <= model.ActionNoop || action >= model.NumActions {
		return action == model.ActionNoop
	}
	return obs.Features[game.FeatureIndex(action, 0)] != 0
}

// DefaultWeights returns hand-set weights that move toward pellets and away
// from ghosts. The trainer starts its search from these.
func DefaultWeights() []float64 {
	w := make([]float64, model.NumActions*game.NumFeatures)
	for _, a := range []int{model.ActionUp, model.ActionRight, model.ActionLeft, model.ActionDown} {
		row := a * game.NumFeatures
		w[row+game.FeatureIndex(a, 0)] = 1
		w[row+game.FeatureIndex(a, 1)] = 2
		w[row+game.FeatureIndex(a, 2)] = -3
	}
	return w
}
