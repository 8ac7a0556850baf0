// Package game implements a small Pac-Man style maze environment.
package game

import (
	"golang.org/x/exp/rand"

	"github.com/verte-zerg/pacstudy/internal/model"
)

const (
	pelletPoints = 10
	powerPoints  = 50
	ghostPoints  = 200

	startLives      = 3
	frightenedSteps = 20
	chaseProb       = 0.6

	// MaxEpisodeSteps truncates an episode, mirroring the ALE v5 frame cap
	// at a frame skip of four.
	MaxEpisodeSteps = 27000
)

// Info carries auxiliary episode data returned by Reset and Step.
type Info struct {
	Lives        int
	Score        float64
	EpisodeSteps int
	LifeLost     bool
}

// Frame is a renderable snapshot of the game.
type Frame struct {
	Grid       []string
	Score      float64
	Lives      int
	Frightened bool
}

// Environment is the reset/step contract the play loop and trainer rely on.
type Environment interface {
	Reset() (Observation, Info)
	Step(action int) (Observation, float64, bool, bool, Info)
	Render() Frame
	NumActions() int
}

type ghost struct {
	pos     point
	heading int
}

// Game is the maze environment.
type Game struct {
	base  maze
	maze  maze
	rnd   *rand.Rand
	limit int

	player        point
	heading       int
	ghosts        []ghost
	lives         int
	score         float64
	steps         int
	frightened    int
	pelletsLeft   int
	awaitingReset bool
}

// New returns a Game on the default layout, seeded for ghost movement.
func New(seed uint64) *Game {
	g := &Game{
		base:  parseLayout(defaultLayout),
		rnd:   rand.New(rand.NewSource(seed)),
		limit: MaxEpisodeSteps,
	}
	g.Reset()
	return g
}

// SetStepLimit overrides the truncation limit; n <= 0 disables truncation.
func (g *Game) SetStepLimit(n int) {
	g.limit = n
}

// NumActions implements Environment.
func (g *Game) NumActions() int {
	return model.NumActions
}

// Reset implements Environment.
func (g *Game) Reset() (Observation, Info) {
	g.maze = g.base.clone()
	g.lives = startLives
	g.score = 0
	g.steps = 0
	g.frightened = 0
	g.pelletsLeft = g.maze.pellets()
	g.awaitingReset = false
	g.resetPositions()
	return g.observe(), g.info(false)
}

// Step implements Environment. Out-of-range actions act as NOOP.
func (g *Game) Step(action int) (Observation, float64, bool, bool, Info) {
	if g.awaitingReset {
		return g.observe(), 0, true, false, g.info(false)
	}
	if action < 0 || action >= model.NumActions {
		action = model.ActionNoop
	}
	g.steps++
	reward := 0.0

	if action != model.ActionNoop && g.maze.open(g.player.add(actionDelta[action])) {
		g.heading = action
	}
	if g.heading != model.ActionNoop {
		next := g.player.add(actionDelta[g.heading])
		if g.maze.open(next) {
			g.player = next
		}
	}
	reward += g.eat()

	r, lifeLost := g.collide()
	reward += r
	if !lifeLost {
		g.moveGhosts()
		r, lifeLost = g.collide()
		reward += r
	}
	if g.frightened > 0 {
		g.frightened--
	}

	g.score += reward
	terminated := g.lives <= 0 || g.pelletsLeft == 0
	truncated := !terminated && g.limit > 0 && g.steps >= g.limit
	if terminated || truncated {
		g.awaitingReset = true
	}
	return g.observe(), reward, terminated, truncated, g.info(lifeLost)
}

// Render implements Environment.
func (g *Game) Render() Frame {
	grid := make([][]byte, g.maze.rows)
	for r := 0; r < g.maze.rows; r++ {
		row := make([]byte, g.maze.cols)
		for c := 0; c < g.maze.cols; c++ {
			switch g.maze.cells[r][c] {
			case cellWall:
				row[c] = '#'
			case cellPellet:
				row[c] = '.'
			case cellPower:
				row[c] = 'o'
			default:
				row[c] = ' '
			}
		}
		grid[r] = row
	}
	ghostRune := byte('G')
	if g.frightened > 0 {
		ghostRune = 'g'
	}
	for _, gh := range g.ghosts {
		grid[gh.pos.row][gh.pos.col] = ghostRune
	}
	grid[g.player.row][g.player.col] = 'C'

	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return Frame{
		Grid:       lines,
		Score:      g.score,
		Lives:      g.lives,
		Frightened: g.frightened > 0,
	}
}

func (g *Game) info(lifeLost bool) Info {
	return Info{Lives: g.lives, Score: g.score, EpisodeSteps: g.steps, LifeLost: lifeLost}
}

func (g *Game) resetPositions() {
	g.player = g.maze.playerHome
	g.heading = model.ActionNoop
	g.ghosts = g.ghosts[:0]
	for _, home := range g.maze.ghostHomes {
		g.ghosts = append(g.ghosts, ghost{pos: home, heading: model.ActionUp})
	}
}

func (g *Game) eat() float64 {
	c := &g.maze.cells[g.player.row][g.player.col]
	switch *c {
	case cellPellet:
		*c = cellFloor
		g.pelletsLeft--
		return pelletPoints
	case cellPower:
		*c = cellFloor
		g.pelletsLeft--
		g.frightened = frightenedSteps
		return powerPoints
	}
	return 0
}

func (g *Game) collide() (float64, bool) {
	reward := 0.0
	for i := range g.ghosts {
		if g.ghosts[i].pos != g.player {
			continue
		}
		if g.frightened > 0 {
			reward += ghostPoints
			g.ghosts[i].pos = g.maze.ghostHomes[i%len(g.maze.ghostHomes)]
			continue
		}
		g.lives--
		g.frightened = 0
		g.resetPositions()
		return reward, true
	}
	return reward, false
}

func (g *Game) moveGhosts() {
	for i := range g.ghosts {
		gh := &g.ghosts[i]
		options := make([]int, 0, len(moveActions))
		for _, a := range moveActions {
			if a == reverse(gh.heading) {
				continue
			}
			if g.maze.open(gh.pos.add(actionDelta[a])) {
				options = append(options, a)
			}
		}
		if len(options) == 0 {
			back := reverse(gh.heading)
			if g.maze.open(gh.pos.add(actionDelta[back])) {
				options = append(options, back)
			}
		}
		if len(options) == 0 {
			continue
		}
		choice := options[g.rnd.Intn(len(options))]
		if g.rnd.Float64() < chaseProb {
			choice = g.bestGhostMove(gh.pos, options)
		}
		gh.heading = choice
		gh.pos = gh.pos.add(actionDelta[choice])
	}
}

// bestGhostMove chases the player, or flees while frightened.
func (g *Game) bestGhostMove(from point, options []int) int {
	best := options[0]
	bestDist := -1
	for _, a := range options {
		n := from.add(actionDelta[a])
		d := manhattan(n, g.player)
		better := bestDist < 0 || d < bestDist
		if g.frightened > 0 {
			better = bestDist < 0 || d > bestDist
		}
		if better {
			best = a
			bestDist = d
		}
	}
	return best
}

func reverse(action int) int {
	switch action {
	case model.ActionUp:
		return model.ActionDown
	case model.ActionDown:
		return model.ActionUp
	case model.ActionLeft:
		return model.ActionRight
	case model.ActionRight:
		return model.ActionLeft
	}
	return model.ActionNoop
}

func manhattan(a, b point) int {
	dr := a.row - b.row
	if dr < 0 {
		dr = -dr
	}
	dc := a.col - b.col
	if dc < 0 {
		dc = -dc
	}
	return dr + dc
}
