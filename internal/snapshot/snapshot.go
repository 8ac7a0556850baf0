// Package snapshot renders game frames to PNG images.
package snapshot

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"

	"github.com/verte-zerg/pacstudy/internal/game"
)

const (
	// CellSize is the pixel size of one maze cell.
	CellSize     = 16
	footerHeight = 20
)

// Render draws the frame grid with a score line underneath.
func Render(f game.Frame) image.Image {
	cols := 0
	for _, row := range f.Grid {
		cols = max(cols, len(row))
	}
	w := max(cols*CellSize, 1)
	h := len(f.Grid)*CellSize + footerHeight
	dc := gg.NewContext(w, h)
	dc.SetRGB(0, 0, 0)
	dc.Clear()

	for r, row := range f.Grid {
		for c := 0; c < len(row); c++ {
			x := float64(c * CellSize)
			y := float64(r * CellSize)
			cx := x + CellSize/2
			cy := y + CellSize/2
			switch row[c] {
			case '#':
				dc.SetRGB255(33, 33, 222)
				dc.DrawRectangle(x, y, CellSize, CellSize)
			case '.':
				dc.SetRGB255(255, 184, 174)
				dc.DrawCircle(cx, cy, 2)
			case 'o':
				dc.SetRGB255(255, 184, 174)
				dc.DrawCircle(cx, cy, 5)
			case 'G':
				dc.SetRGB255(255, 0, 0)
				dc.DrawCircle(cx, cy, CellSize/2-1)
			case 'g':
				dc.SetRGB255(100, 100, 255)
				dc.DrawCircle(cx, cy, CellSize/2-1)
			case 'C':
				dc.SetRGB255(255, 255, 0)
				dc.DrawCircle(cx, cy, CellSize/2-1)
			default:
				continue
			}
			dc.Fill()
		}
	}

	dc.SetRGB(1, 1, 1)
	dc.DrawString(fmt.Sprintf("Score %.0f  Lives %d", f.Score, f.Lives), 4, float64(h-6))
	return dc.Image()
}

// Encode writes the rendered frame as PNG.
func Encode(w io.Writer, f game.Frame) error {
	dc := gg.NewContextForImage(Render(f))
	return dc.EncodePNG(w)
}

// Save writes the frame to dir/name.png and returns the path.
func Save(dir, name string, f game.Frame) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create snapshot dir: %w", err)
	}
	path := filepath.Join(dir, name+".png")
	if err := gg.NewContextForImage(Render(f)).SavePNG(path); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}
	return path, nil
}
