package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/pacstudy/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "pacstudy.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func testRecord(kind model.SessionKind, i int, dist []int) model.SessionRecord {
	start := time.Unix(0, 0).Add(time.Duration(i) * time.Hour)
	steps := 0
	for _, n := range dist {
		steps += n
	}
	switched := 30 * time.Second
	return model.SessionRecord{
		Kind:            kind,
		StartedAt:       start,
		EndedAt:         start.Add(time.Minute),
		TimeLimit:       time.Minute,
		Countdown:       5 * time.Second,
		FreezeModeFirst: true,
		AdviceFrequency: 50,
		Stats: model.SessionStats{
			TotalReward:        float64(10 * (i + 1)),
			StepCount:          steps,
			Elapsed:            time.Minute,
			ActionDistribution: dist,
			HumanAdviceCount:   2,
			AgentActionCount:   steps - 2,
			AdviceRequests:     2,
			Episodes:           1,
			ModeSwitchedAt:     &switched,
			EndReason:          model.EndExpired,
		},
	}
}

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	agent := testRecord(model.KindAgent, 0, []int{1, 2, 3, 4, 5})
	agentID, err := st.InsertSession(ctx, &agent)
	if err != nil {
		t.Fatalf("insert agent session: %v", err)
	}
	if agent.UUID == "" {
		t.Fatalf("expected uuid to be assigned")
	}
	human := testRecord(model.KindHuman, 1, []int{0, 4, 4, 0, 0})
	if _, err := st.InsertSession(ctx, &human); err != nil {
		t.Fatalf("insert human session: %v", err)
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(all))
	}
	if all[0].SessionID != agentID || all[0].UUID != agent.UUID {
		t.Fatalf("unexpected first session: %+v", all[0])
	}
	if all[0].StepCount != 15 || all[0].ElapsedMs != 60000 || all[0].EndReason != model.EndExpired {
		t.Fatalf("unexpected aggregate: %+v", all[0])
	}

	agents, err := st.ListSessions(ctx, model.StatsConfig{Kind: model.KindAgent})
	if err != nil {
		t.Fatalf("list agent sessions: %v", err)
	}
	if len(agents) != 1 || agents[0].Kind != model.KindAgent {
		t.Fatalf("unexpected kind filter result: %+v", agents)
	}

	since := time.Unix(0, 0).Add(30 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list recent sessions: %v", err)
	}
	if len(recent) != 1 || recent[0].Kind != model.KindHuman {
		t.Fatalf("unexpected since filter result: %+v", recent)
	}
}

func TestActionDistributionRoundTrip(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := testRecord(model.KindAgent, 0, []int{7, 0, 3, 2, 1})
	id, err := st.InsertSession(ctx, &rec)
	if err != nil {
		t.Fatalf("insert session: %v", err)
	}
	byID, err := st.SessionActions(ctx, []int64{id})
	if err != nil {
		t.Fatalf("session actions: %v", err)
	}
	dist := byID[id]
	sum := 0
	for i, n := range dist {
		if n != rec.Stats.ActionDistribution[i] {
			t.Fatalf("action %d: expected %d, got %d", i, rec.Stats.ActionDistribution[i], n)
		}
		sum += n
	}
	if sum != rec.Stats.StepCount {
		t.Fatalf("expected distribution sum %d, got %d", rec.Stats.StepCount, sum)
	}

	aggs, err := st.ListActionAggregates(ctx, []int64{id})
	if err != nil {
		t.Fatalf("action aggregates: %v", err)
	}
	if len(aggs) != model.NumActions {
		t.Fatalf("expected %d aggregates, got %d", model.NumActions, len(aggs))
	}
	if aggs[0].Action != model.ActionNoop || aggs[0].Count != 7 {
		t.Fatalf("unexpected first aggregate: %+v", aggs[0])
	}
}

func TestDuplicateUUIDRejected(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()

	rec := testRecord(model.KindHuman, 0, []int{1, 0, 0, 0, 0})
	if _, err := st.InsertSession(ctx, &rec); err != nil {
		t.Fatalf("insert session: %v", err)
	}
	dup := testRecord(model.KindHuman, 1, []int{1, 0, 0, 0, 0})
	dup.UUID = rec.UUID
	if _, err := st.InsertSession(ctx, &dup); err == nil {
		t.Fatalf("expected duplicate uuid to fail")
	}
	sessions, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected failed insert to roll back, got %d sessions", len(sessions))
	}
}
