package statsui

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/stats"
)

const plotHeight = 10

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#E0C030"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#3A3AA0"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A3AA0"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

func (m *Model) renderHeader() string {
	tabs := padLines(m.renderTabs(), m.width)
	filters := padLines(m.renderFilterSummary(), m.width)
	return tabs + "\n" + filters
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderFilterSummary() string {
	kind := string(m.cfg.Kind)
	if kind == "" {
		kind = "any"
	}
	since := "any"
	if m.cfg.Since != nil {
		since = m.cfg.Since.Format("2006-01-02")
	}
	last := "all"
	if m.cfg.Last > 0 {
		last = strconv.Itoa(m.cfg.Last)
	}
	summary := fmt.Sprintf("Settings: kind=%s  since=%s  last=%s  window=%d", kind, since, last, m.cfg.CurveWindow)
	return headerStyle.Render(truncateLine(summary, m.width))
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return headerStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Window: -/=  Settings: /  Quit: q")
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func (m *Model) renderFilterForm() string {
	lines := []string{"Settings (enter to apply, esc to cancel)"}
	for _, input := range m.filterInputs {
		lines = append(lines, input.View())
	}
	if m.filterError != "" {
		lines = append(lines, errorStyle.Render(m.filterError))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderBody() string {
	if m.filterMode {
		return m.renderFilterForm()
	}
	if m.errMsg == "" && len(m.report.Sessions) == 0 {
		return "No sessions found."
	}
	if m.activeTab == tabSessions {
		return m.sessions.View()
	}
	return m.viewports[m.activeTab].View()
}

func renderOverview(sessions []model.SessionAggregate, window, width int) string {
	var total, best float64
	var steps, advice, requests int
	for i, s := range sessions {
		total += s.TotalReward
		steps += s.StepCount
		advice += s.HumanAdviceCount
		requests += s.AdviceRequests
		if i == 0 || s.TotalReward > best {
			best = s.TotalReward
		}
	}
	avg := 0.0
	if len(sessions) > 0 {
		avg = total / float64(len(sessions))
	}
	answered := "-"
	if requests > 0 {
		answered = fmt.Sprintf("%.0f%%", float64(advice)/float64(requests)*100)
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Sessions", strconv.Itoa(len(sessions))),
		renderCard("Avg reward", fmt.Sprintf("%.1f", avg)),
		renderCard("Best", fmt.Sprintf("%.0f", best)),
		renderCard("Steps", strconv.Itoa(steps)),
		renderCard("Advice answered", answered),
	)

	var buf bytes.Buffer
	if err := stats.RenderSummary(&buf, sessions); err != nil {
		return cards
	}
	if err := stats.RenderCurve(&buf, sessions, window, width, plotHeight); err != nil {
		return cards
	}
	return cards + "\n\n" + strings.TrimRight(buf.String(), "\n")
}

func renderCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

func renderActions(r stats.Report) string {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "All sessions")
	_ = stats.RenderActionTable(&buf, r.ActionsAll)
	if len(r.WindowSessionIDs) < len(r.Sessions) {
		fmt.Fprintf(&buf, "Last %d sessions\n", len(r.WindowSessionIDs))
		_ = stats.RenderActionTable(&buf, r.ActionsWindow)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func sessionColumns() []table.Column {
	return []table.Column{
		{Title: "Ended", Width: 16},
		{Title: "Kind", Width: 6},
		{Title: "Reward", Width: 8},
		{Title: "Steps", Width: 6},
		{Title: "Time", Width: 6},
		{Title: "Advice", Width: 9},
		{Title: "End", Width: 8},
	}
}

// sessionRows lists sessions newest first.
func sessionRows(sessions []model.SessionAggregate) []table.Row {
	rows := make([]table.Row, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		advice := "-"
		if s.Kind == model.KindAgent {
			advice = fmt.Sprintf("%d/%d", s.HumanAdviceCount, s.AdviceRequests)
		}
		elapsed := time.Duration(s.ElapsedMs) * time.Millisecond
		rows = append(rows, table.Row{
			s.EndedAt.Local().Format("2006-01-02 15:04"),
			string(s.Kind),
			fmt.Sprintf("%.0f", s.TotalReward),
			strconv.Itoa(s.StepCount),
			fmt.Sprintf("%d:%02d", int(elapsed.Minutes()), int(elapsed.Seconds())%60),
			advice,
			string(s.EndReason),
		})
	}
	return rows
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#101010")).
		Background(lipgloss.Color("#E0C030"))
	return s
}

func padLines(s string, width int) string {
	if width <= 0 || s == "" {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	return strings.Join(lines, "\n")
}

func padLine(line string, width int) string {
	if w := lipgloss.Width(line); w < width {
		return line + strings.Repeat(" ", width-w)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(padLines(s, width), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}

func truncateLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
