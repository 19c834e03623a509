package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"PairStream/internal/domain/models"
)

type fakeAlertStore struct {
	mu       sync.Mutex
	nextID   int64
	rules    map[int64]models.AlertRule
	triggers []models.AlertTrigger
}

func newFakeAlertStore() *fakeAlertStore {
	return &fakeAlertStore{nextID: 1, rules: make(map[int64]models.AlertRule)}
}

func (s *fakeAlertStore) InsertRule(_ context.Context, r *models.AlertRule) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	rule := *r
	rule.ID = id
	s.rules[id] = rule
	return id, nil
}

func (s *fakeAlertStore) ListRules(_ context.Context, activeOnly bool) ([]models.AlertRule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AlertRule, 0, len(s.rules))
	for _, r := range s.rules {
		if activeOnly && !r.IsActive {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeAlertStore) DeleteRule(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[id]; !ok {
		return fmt.Errorf("rule %d not found", id)
	}
	delete(s.rules, id)
	return nil
}

func (s *fakeAlertStore) InsertTrigger(_ context.Context, t *models.AlertTrigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = append(s.triggers, *t)
	return nil
}

func (s *fakeAlertStore) RecentTriggers(_ context.Context, limit int) ([]models.AlertTrigger, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.triggers)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]models.AlertTrigger, n)
	copy(out, s.triggers[len(s.triggers)-n:])
	return out, nil
}

func (s *fakeAlertStore) triggerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.triggers)
}

func newTestEngine(t *testing.T) (*AlertEngine, *fakeAlertStore, *IngestBuffer) {
	t.Helper()
	store := newFakeAlertStore()
	buf := NewIngestBuffer(nil, nil, nil, nil, noopMetrics{})
	stats := NewAnalytics(NewResampler(nil, 10, nil, noopMetrics{}), buf, nil, nil, noopMetrics{})
	return NewAlertEngine(store, stats, buf, nil, noopMetrics{}), store, buf
}

func TestAlertEngineEdgeTriggering(t *testing.T) {
	engine, store, buf := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name:      "btc above 100",
		Symbol:    "btcusdt",
		Metric:    "price",
		Condition: ">",
		Threshold: 100,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	buf.Accept(tick("btcusdt", base, 105, 1))

	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 1 {
		t.Fatalf("expected 1 trigger on rising edge, got %d", store.triggerCount())
	}

	// still satisfied: must not re-fire
	buf.Accept(tick("btcusdt", base.Add(time.Second), 110, 1))
	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 1 {
		t.Fatalf("sustained condition must not re-fire, got %d", store.triggerCount())
	}

	// falls below: re-arms
	buf.Accept(tick("btcusdt", base.Add(2*time.Second), 95, 1))
	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 1 {
		t.Fatalf("unsatisfied condition must not fire, got %d", store.triggerCount())
	}

	// rises again: fires again
	buf.Accept(tick("btcusdt", base.Add(3*time.Second), 120, 1))
	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 2 {
		t.Fatalf("expected second trigger after re-arm, got %d", store.triggerCount())
	}
}

func TestAlertEngineTriggerPayload(t *testing.T) {
	engine, store, buf := newTestEngine(t)
	ctx := context.Background()

	rule, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name:      "btc below 50",
		Symbol:    "btcusdt",
		Metric:    "price",
		Condition: "<",
		Threshold: 50,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}

	buf.Accept(tick("btcusdt", time.Now(), 42, 1))
	engine.EvaluateOnce(ctx)

	trs, err := store.RecentTriggers(ctx, 10)
	if err != nil || len(trs) != 1 {
		t.Fatalf("expected 1 trigger, got %d err=%v", len(trs), err)
	}
	tr := trs[0]
	if tr.AlertID != rule.ID || tr.MetricValue != 42 || tr.Threshold != 50 {
		t.Fatalf("unexpected trigger payload %+v", tr)
	}
}

func TestAlertEngineUnevaluableRuleKeepsState(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	// no ticks ever accepted: price metric has no data
	if _, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name:      "no data",
		Symbol:    "nosuch",
		Metric:    "price",
		Condition: ">",
		Threshold: 1,
	}); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 0 {
		t.Fatalf("unevaluable rule must not fire")
	}
}

func TestAlertEngineRejectsBadRule(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	if _, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name: "bad", Symbol: "btcusdt", Metric: "rsi", Condition: ">", Threshold: 1,
	}); err == nil {
		t.Fatalf("unknown metric must be rejected")
	}
	if _, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name: "bad", Symbol: "btcusdt", Metric: "price", Condition: "!=", Threshold: 1,
	}); err == nil {
		t.Fatalf("unknown condition must be rejected")
	}
	if _, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name: "bad", Symbol: "btcusdt", Metric: "z_score", Condition: ">", Threshold: 1,
	}); err == nil {
		t.Fatalf("z_score rule without pair symbol must be rejected")
	}
}

func TestAlertEngineDeleteRuleClearsState(t *testing.T) {
	engine, store, buf := newTestEngine(t)
	ctx := context.Background()

	rule, err := engine.CreateRule(ctx, &models.CreateAlertRequest{
		Name: "r", Symbol: "btcusdt", Metric: "price", Condition: ">", Threshold: 100,
	})
	if err != nil {
		t.Fatalf("create rule: %v", err)
	}
	buf.Accept(tick("btcusdt", time.Now(), 150, 1))
	engine.EvaluateOnce(ctx)

	if err := engine.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("delete rule: %v", err)
	}
	rules, _ := store.ListRules(ctx, false)
	if len(rules) != 0 {
		t.Fatalf("rule not deleted")
	}
	engine.EvaluateOnce(ctx)
	if store.triggerCount() != 1 {
		t.Fatalf("deleted rule must not fire again")
	}
}
