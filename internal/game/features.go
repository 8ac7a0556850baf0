package game

// Feature layout: bias, then per directional action (UP, RIGHT, LEFT, DOWN)
// open/pellet/ghost proximity, then the frightened flag.
const (
	featuresPerDir = 3
	senseRadius    = 12

	// NumFeatures is the length of Observation.Features.
	NumFeatures = 1 + featuresPerDir*4 + 1
)

// Observation is what a policy sees after each reset or step.
type Observation struct {
	Features []float64
}

// FeatureIndex returns the index of a directional feature. kind is 0 for
// open, 1 for pellet proximity, 2 for ghost proximity.
func FeatureIndex(action, kind int) int {
	return 1 + (action-1)*featuresPerDir + kind
}

// FrightenedIndex is the index of the frightened flag.
const FrightenedIndex = NumFeatures - 1

func (g *Game) observe() Observation {
	f := make([]float64, NumFeatures)
	f[0] = 1
	for _, a := range moveActions {
		n := g.player.add(actionDelta[a])
		if !g.maze.open(n) {
			continue
		}
		f[FeatureIndex(a, 0)] = 1
		dist := g.maze.distances(n, senseRadius)
		f[FeatureIndex(a, 1)] = proximity(g.nearestPellet(dist))
		if g.frightened == 0 {
			f[FeatureIndex(a, 2)] = proximity(g.nearestGhost(dist))
		}
	}
	if g.frightened > 0 {
		f[FrightenedIndex] = 1
	}
	return Observation{Features: f}
}

func (g *Game) nearestPellet(dist [][]int) int {
	best := -1
	for r := range dist {
		for c, d := range dist[r] {
			if d < 0 {
				continue
			}
			if cl := g.maze.cells[r][c]; cl != cellPellet && cl != cellPower {
				continue
			}
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}

func (g *Game) nearestGhost(dist [][]int) int {
	best := -1
	for _, gh := range g.ghosts {
		d := dist[gh.pos.row][gh.pos.col]
		if d < 0 {
			continue
		}
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func proximity(d int) float64 {
	if d < 0 {
		return 0
	}
	return 1 / float64(1+d)
}
