package statsui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/store"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "pacstudy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func seed(t *testing.T, st *store.Store, kind model.SessionKind, reward float64) {
	t.Helper()
	start := time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)
	rec := model.SessionRecord{
		Kind:      kind,
		StartedAt: start,
		EndedAt:   start.Add(time.Minute),
		TimeLimit: time.Minute,
		Stats: model.SessionStats{
			TotalReward:        reward,
			StepCount:          20,
			Elapsed:            time.Minute,
			ActionDistribution: []int{4, 4, 4, 4, 4},
			HumanAdviceCount:   2,
			AdviceRequests:     3,
			EndReason:          model.EndExpired,
		},
	}
	if _, err := st.InsertSession(context.Background(), &rec); err != nil {
		t.Fatalf("insert session: %v", err)
	}
}

func sized(m *Model) *Model {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(*Model)
}

func TestViewShowsSessions(t *testing.T) {
	st := openStore(t)
	seed(t, st, model.KindAgent, 120)
	seed(t, st, model.KindHuman, 80)

	m := sized(NewModel(st, model.StatsConfig{CurveWindow: 1}))
	if m.errMsg != "" {
		t.Fatalf("unexpected error: %s", m.errMsg)
	}
	view := m.View()
	for _, want := range []string{"Overview", "Sessions", "Avg reward", "100.0", "Reward per Session"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected %q in view:\n%s", want, view)
		}
	}

	m.moveTab(1)
	if view := m.View(); !strings.Contains(view, "NOOP") {
		t.Fatalf("expected action table, got:\n%s", view)
	}
	m.moveTab(1)
	view = m.View()
	if !strings.Contains(view, "2/3") || !strings.Contains(view, "expired") {
		t.Fatalf("expected session rows, got:\n%s", view)
	}
}

func TestEmptyStore(t *testing.T) {
	m := sized(NewModel(openStore(t), model.StatsConfig{CurveWindow: 1}))
	if !strings.Contains(m.View(), "No sessions found.") {
		t.Fatalf("expected empty message")
	}
}

func TestTabsWrap(t *testing.T) {
	m := NewModel(openStore(t), model.StatsConfig{CurveWindow: 1})
	m.moveTab(-1)
	if m.activeTab != tabSessions {
		t.Fatalf("expected wrap to sessions, got %d", m.activeTab)
	}
	m.moveTab(1)
	if m.activeTab != tabOverview {
		t.Fatalf("expected wrap to overview, got %d", m.activeTab)
	}
}

func TestParseFilter(t *testing.T) {
	cfg, err := parseFilter([]string{"Human", "2026-01-01", "5", "3"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Kind != model.KindHuman || cfg.Last != 5 || cfg.CurveWindow != 3 || cfg.Since == nil {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	cfg, err = parseFilter([]string{"", "", "", ""})
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	if cfg.CurveWindow != 1 || cfg.Since != nil || cfg.Kind != "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}

	bad := [][]string{
		{"robot", "", "", ""},
		{"", "01/02/2026", "", ""},
		{"", "", "-1", ""},
		{"", "", "", "0"},
	}
	for _, values := range bad {
		if _, err := parseFilter(values); err == nil {
			t.Fatalf("expected error for %v", values)
		}
	}
}

func TestFilterAppliesKind(t *testing.T) {
	st := openStore(t)
	seed(t, st, model.KindAgent, 120)
	seed(t, st, model.KindHuman, 80)
	m := sized(NewModel(st, model.StatsConfig{CurveWindow: 1}))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}})
	m = next.(*Model)
	if !m.filterMode {
		t.Fatalf("expected filter mode")
	}
	m.filterInputs[fieldKind].SetValue("human")
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(*Model)
	if m.filterMode || m.filterError != "" {
		t.Fatalf("filter not applied: %q", m.filterError)
	}
	if len(m.report.Sessions) != 1 || m.report.Sessions[0].Kind != model.KindHuman {
		t.Fatalf("unexpected sessions: %+v", m.report.Sessions)
	}
}

func TestCurveWindowSteps(t *testing.T) {
	if got := nextCurveWindow(1); got != 5 {
		t.Fatalf("next(1) = %d", got)
	}
	if got := nextCurveWindow(5); got != 10 {
		t.Fatalf("next(5) = %d", got)
	}
	if got := prevCurveWindow(10); got != 5 {
		t.Fatalf("prev(10) = %d", got)
	}
	if got := prevCurveWindow(7); got != 5 {
		t.Fatalf("prev(7) = %d", got)
	}
	if got := prevCurveWindow(5); got != 1 {
		t.Fatalf("prev(5) = %d", got)
	}
}

func TestFitLines(t *testing.T) {
	out := fitLines("a\nb\nc", 3, 2)
	if out != "a  \nb  " {
		t.Fatalf("unexpected fit: %q", out)
	}
	if got := truncateLine("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncate: %q", got)
	}
}
