package game

// Layout cells: '#' wall, '.' pellet, 'o' power pellet, 'P' player start,
// 'G' ghost start, ' ' open floor.
var defaultLayout = []string{
	"###################",
	"#o.......#.......o#",
	"#.##.###.#.###.##.#",
	"#.................#",
	"#.##.#.#####.#.##.#",
	"#....#..G.G..#....#",
	"####.### G ###.####",
	"#........P........#",
	"#.##.#.#####.#.##.#",
	"#o...#.......#...o#",
	"###################",
}

type cell uint8

const (
	cellFloor cell = iota
	cellWall
	cellPellet
	cellPower
)

type point struct {
	row int
	col int
}

func (p point) add(d point) point {
	return point{row: p.row + d.row, col: p.col + d.col}
}

// Movement deltas indexed by action id. NOOP has no delta.
var actionDelta = [5]point{
	{0, 0},
	{-1, 0},
	{0, 1},
	{0, -1},
	{1, 0},
}

// moveActions lists the directional actions in action-id order.
var moveActions = []int{1, 2, 3, 4}

type maze struct {
	rows       int
	cols       int
	cells      [][]cell
	playerHome point
	ghostHomes []point
}

func parseLayout(lines []string) maze {
	m := maze{rows: len(lines)}
	for _, line := range lines {
		if len(line) > m.cols {
			m.cols = len(line)
		}
	}
	m.cells = make([][]cell, m.rows)
	for r, line := range lines {
		m.cells[r] = make([]cell, m.cols)
		for c := 0; c < m.cols; c++ {
			ch := byte('#')
			if c < len(line) {
				ch = line[c]
			}
			switch ch {
			case '#':
				m.cells[r][c] = cellWall
			case '.':
				m.cells[r][c] = cellPellet
			case 'o':
				m.cells[r][c] = cellPower
			case 'P':
				m.playerHome = point{r, c}
			case 'G':
				m.ghostHomes = append(m.ghostHomes, point{r, c})
			}
		}
	}
	return m
}

func (m *maze) open(p point) bool {
	if p.row < 0 || p.row >= m.rows || p.col < 0 || p.col >= m.cols {
		return false
	}
	return m.cells[p.row][p.col] != cellWall
}

func (m *maze) clone() maze {
	out := *m
	out.cells = make([][]cell, m.rows)
	for r := range m.cells {
		out.cells[r] = append([]cell(nil), m.cells[r]...)
	}
	out.ghostHomes = append([]point(nil), m.ghostHomes...)
	return out
}

func (m *maze) pellets() int {
	n := 0
	for _, row := range m.cells {
		for _, c := range row {
			if c == cellPellet || c == cellPower {
				n++
			}
		}
	}
	return n
}

// distances runs a BFS from start over open cells, stopping at maxDist.
// Unreached cells hold -1.
func (m *maze) distances(start point, maxDist int) [][]int {
	dist := make([][]int, m.rows)
	for r := range dist {
		dist[r] = make([]int, m.cols)
		for c := range dist[r] {
			dist[r][c] = -1
		}
	}
	if !m.open(start) {
		return dist
	}
	dist[start.row][start.col] = 0
	queue := []point{start}
	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		d := dist[p.row][p.col]
		if maxDist > 0 && d >= maxDist {
			continue
		}
		for _, a := range moveActions {
			n := p.add(actionDelta[a])
			if !m.open(n) || dist[n.row][n.col] >= 0 {
				continue
			}
			dist[n.row][n.col] = d + 1
			queue = append(queue, n)
		}
	}
	return dist
}
