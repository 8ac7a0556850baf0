package stats

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/pacstudy/internal/model"
	"github.com/verte-zerg/pacstudy/internal/store"
)

func TestBuildReport(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "pacstudy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	var ids []int64
	for i := 0; i < 3; i++ {
		start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
		kind := model.KindAgent
		if i == 1 {
			kind = model.KindHuman
		}
		rec := model.SessionRecord{
			Kind:      kind,
			StartedAt: start,
			EndedAt:   start.Add(time.Minute),
			TimeLimit: time.Minute,
			Stats: model.SessionStats{
				TotalReward:        float64(100 * (i + 1)),
				StepCount:          10,
				Elapsed:            time.Minute,
				ActionDistribution: []int{2, 2, 2, 2, 2},
				EndReason:          model.EndExpired,
			},
		}
		id, err := st.InsertSession(ctx, &rec)
		if err != nil {
			t.Fatalf("insert session: %v", err)
		}
		ids = append(ids, id)
	}

	report, err := BuildReport(ctx, st, model.StatsConfig{Last: 2, CurveWindow: 1})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(report.Sessions))
	}
	if report.Sessions[0].SessionID != ids[1] || report.Sessions[1].SessionID != ids[2] {
		t.Fatalf("unexpected session ids: %+v", report.Sessions)
	}
	if len(report.WindowSessionIDs) != 1 || report.WindowSessionIDs[0] != ids[2] {
		t.Fatalf("unexpected window ids: %v", report.WindowSessionIDs)
	}
	if len(report.ActionsAll) != 2*model.NumActions {
		t.Fatalf("expected per-kind aggregates, got %d", len(report.ActionsAll))
	}
	if len(report.ActionsWindow) != model.NumActions {
		t.Fatalf("expected window aggregates for one kind, got %d", len(report.ActionsWindow))
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, 2, 60); err != nil {
		t.Fatalf("render report: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Summary", "Actions", "Reward per Session", "agent", "human"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in report:\n%s", want, out)
		}
	}
}
