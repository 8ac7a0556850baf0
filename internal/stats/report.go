package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Sessions         []model.SessionAggregate
	WindowSessionIDs []int64
	ActionsAll       []model.ActionAggregate
	ActionsWindow    []model.ActionAggregate
	PerSession       map[int64][]int
}

// BuildReport loads and prepares data for stats rendering.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx, cfg)
	if err != nil {
		return Report{}, fmt.Errorf("failed to list sessions: %w", err)
	}
	if cfg.Last > 0 && len(sessions) > cfg.Last {
		sessions = sessions[len(sessions)-cfg.Last:]
	}

	allIDs := sessionIDs(sessions)
	windowIDs := allIDs
	if cfg.CurveWindow > 0 && len(allIDs) > cfg.CurveWindow {
		windowIDs = allIDs[len(allIDs)-cfg.CurveWindow:]
	}
	actionsAll, err := st.ListActionAggregates(ctx, allIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate actions: %w", err)
	}
	actionsWindow, err := st.ListActionAggregates(ctx, windowIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to aggregate actions: %w", err)
	}
	perSession, err := st.SessionActions(ctx, allIDs)
	if err != nil {
		return Report{}, fmt.Errorf("failed to load session actions: %w", err)
	}

	return Report{
		Sessions:         sessions,
		WindowSessionIDs: windowIDs,
		ActionsAll:       actionsAll,
		ActionsWindow:    actionsWindow,
		PerSession:       perSession,
	}, nil
}

// Render writes the full text report.
func (r Report) Render(w io.Writer, window, width int) error {
	if err := RenderSummary(w, r.Sessions); err != nil {
		return err
	}
	if len(r.Sessions) == 0 {
		return nil
	}
	if err := RenderActionTable(w, r.ActionsAll); err != nil {
		return err
	}
	return RenderCurve(w, r.Sessions, window, width, defaultChartHeight)
}

func sessionIDs(sessions []model.SessionAggregate) []int64 {
	ids := make([]int64, len(sessions))
	for i, s := range sessions {
		ids[i] = s.SessionID
	}
	return ids
}
