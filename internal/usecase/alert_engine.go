package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	applogger "PairStream/pkg/logger"
)

// AlertEngine evaluates active rules on a fixed interval. Triggering is
// edge-based: a rule fires only on the transition from unsatisfied to
// satisfied, and re-arms once its condition goes false again. A rule that
// cannot be evaluated keeps its previous state and never blocks the others.
type AlertEngine struct {
	alerts    domrepo.AlertStore
	stats     *Analytics
	buf       *IngestBuffer
	bcast     domrepo.Broadcaster
	metrics   domrepo.Metrics
	l         *applogger.Logger
	interval  time.Duration
	timeframe domrepo.Timeframe

	mu        sync.Mutex
	satisfied map[int64]bool
}

// EngineOption configures AlertEngine.
type EngineOption func(*AlertEngine)

// WithEvalInterval sets how often rules are evaluated.
func WithEvalInterval(d time.Duration) EngineOption {
	return func(e *AlertEngine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithEvalTimeframe sets the candle timeframe metrics are computed on.
func WithEvalTimeframe(tf domrepo.Timeframe) EngineOption {
	return func(e *AlertEngine) {
		if tf.IsValid() {
			e.timeframe = tf
		}
	}
}

// NewAlertEngine creates an engine over the rule store. bcast may be nil.
func NewAlertEngine(
	alerts domrepo.AlertStore,
	stats *Analytics,
	buf *IngestBuffer,
	bcast domrepo.Broadcaster,
	metrics domrepo.Metrics,
	opts ...EngineOption,
) *AlertEngine {
	e := &AlertEngine{
		alerts:    alerts,
		stats:     stats,
		buf:       buf,
		bcast:     bcast,
		metrics:   metrics,
		interval:  5 * time.Second,
		timeframe: domrepo.TF1m,
		satisfied: make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetLogger injects a structured logger.
func (e *AlertEngine) SetLogger(l *applogger.Logger) { e.l = l }

// CreateRule validates and persists a new rule, armed unsatisfied.
func (e *AlertEngine) CreateRule(ctx context.Context, req *models.CreateAlertRequest) (*models.AlertRule, error) {
	metric, err := models.ParseAlertMetric(req.Metric)
	if err != nil {
		return nil, err
	}
	cond, err := models.ParseAlertCondition(req.Condition)
	if err != nil {
		return nil, err
	}
	if metric == models.MetricZScore && !strings.Contains(req.Symbol, "_") {
		return nil, fmt.Errorf("z_score rules need a pair symbol like btcusdt_ethusdt, got %q", req.Symbol)
	}

	rule := &models.AlertRule{
		Name:      req.Name,
		Symbol:    req.Symbol,
		Metric:    metric,
		Condition: cond,
		Threshold: req.Threshold,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	id, err := e.alerts.InsertRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("insert rule: %w", err)
	}
	rule.ID = id

	e.mu.Lock()
	e.satisfied[id] = false
	e.mu.Unlock()
	return rule, nil
}

// DeleteRule removes a rule and forgets its edge state.
func (e *AlertEngine) DeleteRule(ctx context.Context, id int64) error {
	if err := e.alerts.DeleteRule(ctx, id); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.satisfied, id)
	e.mu.Unlock()
	return nil
}

// ListRules returns persisted rules.
func (e *AlertEngine) ListRules(ctx context.Context, activeOnly bool) ([]models.AlertRule, error) {
	return e.alerts.ListRules(ctx, activeOnly)
}

// RecentTriggers returns the newest trigger log entries.
func (e *AlertEngine) RecentTriggers(ctx context.Context, limit int) ([]models.AlertTrigger, error) {
	return e.alerts.RecentTriggers(ctx, limit)
}

// EvaluateOnce runs one evaluation pass over all active rules.
func (e *AlertEngine) EvaluateOnce(ctx context.Context) {
	rules, err := e.alerts.ListRules(ctx, true)
	if err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("alert_list_rules")
		}
		if e.l != nil {
			e.l.Error("alert rule listing failed", applogger.Error(err))
		}
		return
	}

	now := time.Now().UTC()
	for i := range rules {
		rule := rules[i]
		value, err := e.metricValue(ctx, &rule)
		if err != nil {
			// insufficient data or a transient fetch error; keep edge state
			continue
		}

		sat := rule.Condition.Satisfied(value, rule.Threshold)
		e.mu.Lock()
		was := e.satisfied[rule.ID]
		e.satisfied[rule.ID] = sat
		e.mu.Unlock()

		if !sat || was {
			continue
		}
		e.fire(ctx, &rule, value, now)
	}
}

func (e *AlertEngine) fire(ctx context.Context, rule *models.AlertRule, value float64, now time.Time) {
	tr := &models.AlertTrigger{
		AlertID:     rule.ID,
		AlertName:   rule.Name,
		Symbol:      rule.Symbol,
		Metric:      rule.Metric,
		Condition:   rule.Condition,
		MetricValue: value,
		Threshold:   rule.Threshold,
		TriggeredAt: now,
	}
	if err := e.alerts.InsertTrigger(ctx, tr); err != nil {
		if e.metrics != nil {
			e.metrics.RecordError("alert_insert_trigger")
		}
		if e.l != nil {
			e.l.Error("trigger persist failed",
				applogger.String("rule", rule.Name),
				applogger.Error(err),
			)
		}
	}
	if e.bcast != nil {
		if err := e.bcast.BroadcastTrigger(ctx, tr); err != nil {
			if e.metrics != nil {
				e.metrics.RecordError("alert_broadcast")
			}
		}
	}
	if e.metrics != nil {
		e.metrics.RecordAlertTriggered(rule.Name)
	}
	if e.l != nil {
		e.l.Info("alert triggered",
			applogger.String("rule", rule.Name),
			applogger.String("symbol", rule.Symbol),
			applogger.String("metric", string(rule.Metric)),
			applogger.Float64("value", value),
			applogger.Float64("threshold", rule.Threshold),
		)
	}
}

// metricValue resolves the current value of a rule's watched metric.
func (e *AlertEngine) metricValue(ctx context.Context, rule *models.AlertRule) (float64, error) {
	switch rule.Metric {
	case models.MetricPrice:
		p, ok := e.buf.LatestPrice(rule.Symbol)
		if !ok {
			return 0, fmt.Errorf("no price for %s", rule.Symbol)
		}
		return p, nil

	case models.MetricZScore:
		s1, s2, err := splitPair(rule.Symbol)
		if err != nil {
			return 0, err
		}
		sample, err := e.stats.Spread(ctx, &models.SpreadRequest{
			Symbol1:   s1,
			Symbol2:   s2,
			Timeframe: string(e.timeframe),
			Lookback:  100,
			Window:    20,
		})
		if err != nil {
			return 0, err
		}
		return sample.CurrentZScore, nil

	case models.MetricVolume:
		stats, err := e.stats.BasicStats(ctx, &models.BasicStatsRequest{
			Symbol:    rule.Symbol,
			Timeframe: string(e.timeframe),
			Window:    20,
		})
		if err != nil {
			return 0, err
		}
		return stats.CurrentVolume, nil

	case models.MetricVolatility:
		vol, err := e.stats.Volatility(ctx, &models.VolatilityRequest{
			Symbol:    rule.Symbol,
			Timeframe: string(e.timeframe),
			Window:    20,
		})
		if err != nil {
			return 0, err
		}
		return vol.RollingVol, nil

	default:
		return 0, fmt.Errorf("unknown alert metric: %q", rule.Metric)
	}
}

func splitPair(symbol string) (string, string, error) {
	parts := strings.SplitN(symbol, "_", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("bad pair symbol %q", symbol)
	}
	return parts[0], parts[1], nil
}

// Run evaluates rules until ctx is cancelled.
func (e *AlertEngine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.EvaluateOnce(ctx)
		}
	}
}
