// Package tui provides the Bubble Tea play screen.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/pacstudy/internal/game"
	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/session"
)

const cellWidth = 2

var (
	wallStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#2121DE"))
	pelletStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB8AE"))
	ghostStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	scaredStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6464FF"))
	playerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true)
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	freezeStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Bold(true)
	countdownStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	overlayStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#C89A3A")).Padding(0, 2)
	bigNumberStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF00")).Bold(true).Padding(1, 4)
	cellGlyphs      = map[byte]string{'#': "█", '.': "·", 'o': "●", 'G': "ᗣ", 'g': "ᗣ", 'C': "ᗧ"}
	cellGlyphStyles = map[byte]lipgloss.Style{'#': wallStyle, '.': pelletStyle, 'o': pelletStyle, 'G': ghostStyle, 'g': scaredStyle, 'C': playerStyle}
)

// Model implements the Bubble Tea play screen for one session.
type Model struct {
	bridge *Bridge
	keys   keyMap
	help   help.Model
	bar    progress.Model

	screen    session.Screen
	hasScreen bool

	width  int
	height int
}

// NewModel returns a play screen that forwards keys through bridge.
func NewModel(bridge *Bridge) *Model {
	return &Model{
		bridge: bridge,
		keys:   defaultKeyMap(),
		help:   help.New(),
		bar:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(40)),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.bar.Width = min(max(msg.Width/2, 10), 60)
		return m, nil
	case screenMsg:
		m.screen = session.Screen(msg)
		m.hasScreen = true
		return m, nil
	case tea.KeyMsg:
		if m.hasScreen && m.screen.Kind == session.ScreenEnd {
			return m, tea.Quit
		}
		k := m.keys.translate(msg)
		m.bridge.push(k)
		if k == session.KeyQuit {
			return m, tea.Quit
		}
		return m, nil
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if !m.hasScreen {
		return "Loading..."
	}
	s := m.screen
	parts := []string{m.renderHeader(), m.renderBar(), renderGrid(s.Frame)}
	if overlay := m.renderOverlay(); overlay != "" {
		parts = append(parts, overlay)
	}
	parts = append(parts, m.help.ShortHelpView(m.keys.bindingsFor(s)))
	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func (m *Model) renderHeader() string {
	s := m.screen
	segments := []string{
		fmt.Sprintf("Score %.0f", s.Score),
		fmt.Sprintf("Lives %d", s.Frame.Lives),
		fmt.Sprintf("Time %s", formatClock(s.Remaining)),
		fmt.Sprintf("Steps %d", s.Steps),
	}
	if s.Session == model.KindAgent {
		segments = append(segments, "Mode "+modeLabel(s.Mode))
	}
	return headerStyle.Render(strings.Join(segments, "  "))
}

func (m *Model) renderBar() string {
	if m.screen.TimeLimit <= 0 {
		return ""
	}
	frac := float64(m.screen.Remaining) / float64(m.screen.TimeLimit)
	return m.bar.ViewAs(math.Max(0, math.Min(1, frac)))
}

func (m *Model) renderOverlay() string {
	s := m.screen
	switch s.Kind {
	case session.ScreenStart:
		title := "Pac-Man: AI agent with human advice"
		body := fmt.Sprintf("Time limit %s. Every advice request, pick the next move.\nFirst advice mode: %s.", formatClock(s.TimeLimit), modeLabel(s.Mode))
		if s.Session == model.KindHuman {
			title = "Pac-Man: human play"
			body = fmt.Sprintf("Time limit %s. Arrow keys move, P pauses.", formatClock(s.TimeLimit))
		}
		return overlayStyle.Render(title + "\n\n" + body + "\n\n" + dimStyle.Render("Press any key to start"))
	case session.ScreenCountdown:
		return bigNumberStyle.Render(fmt.Sprintf("%d", s.Count))
	case session.ScreenPaused:
		return overlayStyle.Render("PAUSED\n\n" + dimStyle.Render("P to resume, Esc to quit"))
	case session.ScreenAdvice:
		if s.Mode == model.ModeFreeze {
			return overlayStyle.Render(freezeStyle.Render("GAME FROZEN") + "\nAdvice requested: choose the next move")
		}
		secs := int(math.Ceil(s.AdviceRemaining.Seconds()))
		return overlayStyle.Render(countdownStyle.Render(fmt.Sprintf("ADVICE: %ds", secs)) + "\nChoose the next move or the agent decides")
	case session.ScreenModeSwitch:
		return overlayStyle.Render(fmt.Sprintf("Mode switched to %s\n\n%s", modeLabel(s.Mode), dimStyle.Render("SPACE or ENTER to continue")))
	case session.ScreenEnd:
		return overlayStyle.Render(renderEnd(s))
	}
	return ""
}

func renderEnd(s session.Screen) string {
	lines := []string{"Session over"}
	if st := s.Stats; st != nil {
		if st.EndReason == model.EndExpired {
			lines[0] = "Time's up!"
		}
		lines = append(lines,
			"",
			fmt.Sprintf("Final score  %.0f", st.TotalReward),
			fmt.Sprintf("Steps        %d", st.StepCount),
			fmt.Sprintf("Time played  %s", formatClock(st.Elapsed)),
		)
		if s.Session == model.KindAgent {
			lines = append(lines, fmt.Sprintf("Advice       %d of %d requests", st.HumanAdviceCount, st.AdviceRequests))
		}
	}
	lines = append(lines, "", dimStyle.Render("Press any key to exit"))
	return strings.Join(lines, "\n")
}

// renderGrid draws the maze with every cell padded to the same width.
func renderGrid(f game.Frame) string {
	var b strings.Builder
	for r, row := range f.Grid {
		if r > 0 {
			b.WriteByte('\n')
		}
		for i := 0; i < len(row); i++ {
			glyph, ok := cellGlyphs[row[i]]
			if !ok {
				b.WriteString(strings.Repeat(" ", cellWidth))
				continue
			}
			cell := runewidth.FillRight(glyph, cellWidth)
			if row[i] == '#' {
				cell = strings.Repeat(glyph, cellWidth/runewidth.StringWidth(glyph))
			}
			b.WriteString(cellGlyphStyles[row[i]].Render(cell))
		}
	}
	return b.String()
}

func modeLabel(m model.AdviceMode) string {
	return strings.ToUpper(m.String())
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
