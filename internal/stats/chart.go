package stats

import (
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	defaultChartHeight = 8
	minChartWidth      = 10
	fallbackTermWidth  = 80
	chartGutter        = 10
)

// Column glyphs from empty to full, eight levels per row.
var blocks = []rune(" ▁▂▃▄▅▆▇█")

// ChartWidthFor returns the plot area width that fits a terminal of totalWidth
// columns. Zero or negative asks the terminal.
func ChartWidthFor(totalWidth int) int {
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	return max(totalWidth-chartGutter, minChartWidth)
}

func terminalWidth() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return fallbackTermWidth
	}
	return w
}

// RenderChart draws values as a column chart with a min/max axis. Longer
// series are averaged down to width columns.
func RenderChart(w io.Writer, title string, values []float64, width, height int) error {
	if len(values) == 0 {
		return nil
	}
	if width <= 0 {
		width = ChartWidthFor(0)
	}
	if height <= 0 {
		height = defaultChartHeight
	}
	cols := resample(values, width)
	lo, hi := cols[0], cols[0]
	for _, v := range cols {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	// levels[i] is the column height in eighths of a row.
	levels := make([]int, len(cols))
	for i, v := range cols {
		if hi-lo < 1e-9 {
			levels[i] = height * 4
			continue
		}
		levels[i] = int(math.Round((v - lo) / (hi - lo) * float64(height*8)))
	}

	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	for row := height - 1; row >= 0; row-- {
		label := ""
		switch row {
		case height - 1:
			label = fmt.Sprintf("%.1f", hi)
		case 0:
			label = fmt.Sprintf("%.1f", lo)
		}
		var b strings.Builder
		for _, lvl := range levels {
			fill := min(max(lvl-row*8, 0), 8)
			b.WriteRune(blocks[fill])
		}
		if _, err := fmt.Fprintf(w, "%8s │%s\n", label, b.String()); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%8s └%s\n\n", "", strings.Repeat("─", len(cols)))
	return err
}

func resample(values []float64, width int) []float64 {
	if len(values) <= width {
		return append([]float64(nil), values...)
	}
	out := make([]float64, width)
	for i := range out {
		start := i * len(values) / width
		end := max((i+1)*len(values)/width, start+1)
		var sum float64
		for _, v := range values[start:end] {
			sum += v
		}
		out[i] = sum / float64(end-start)
	}
	return out
}
