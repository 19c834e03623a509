package models

import (
	"fmt"
	"time"
)

// AlertMetric is the closed set of metrics a rule can watch.
type AlertMetric string

const (
	MetricPrice      AlertMetric = "price"
	MetricZScore     AlertMetric = "z_score"
	MetricVolume     AlertMetric = "volume"
	MetricVolatility AlertMetric = "volatility"
)

// ParseAlertMetric validates a raw metric name.
func ParseAlertMetric(s string) (AlertMetric, error) {
	switch m := AlertMetric(s); m {
	case MetricPrice, MetricZScore, MetricVolume, MetricVolatility:
		return m, nil
	default:
		return "", fmt.Errorf("unknown alert metric: %q", s)
	}
}

// AlertCondition is the closed set of comparators.
type AlertCondition string

const (
	CondGT AlertCondition = ">"
	CondLT AlertCondition = "<"
	CondGE AlertCondition = ">="
	CondLE AlertCondition = "<="
)

// ParseAlertCondition validates a raw comparator.
func ParseAlertCondition(s string) (AlertCondition, error) {
	switch c := AlertCondition(s); c {
	case CondGT, CondLT, CondGE, CondLE:
		return c, nil
	default:
		return "", fmt.Errorf("unknown alert condition: %q", s)
	}
}

// Satisfied evaluates value against threshold.
func (c AlertCondition) Satisfied(value, threshold float64) bool {
	switch c {
	case CondGT:
		return value > threshold
	case CondLT:
		return value < threshold
	case CondGE:
		return value >= threshold
	case CondLE:
		return value <= threshold
	default:
		return false
	}
}

// AlertRule is a user-defined rule evaluated periodically by the alert engine.
// For z_score rules Symbol holds the pair as "sym1_sym2".
type AlertRule struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Symbol    string         `json:"symbol"`
	Metric    AlertMetric    `json:"metric"`
	Condition AlertCondition `json:"condition"`
	Threshold float64        `json:"threshold"`
	IsActive  bool           `json:"is_active"`
	CreatedAt time.Time      `json:"created_at"`
}

// AlertTrigger is an append-only log entry created when a rule transitions
// from unsatisfied to satisfied.
type AlertTrigger struct {
	ID          int64          `json:"id"`
	AlertID     int64          `json:"alert_id"`
	AlertName   string         `json:"alert_name"`
	Symbol      string         `json:"symbol"`
	Metric      AlertMetric    `json:"metric"`
	Condition   AlertCondition `json:"condition"`
	MetricValue float64        `json:"metric_value"`
	Threshold   float64        `json:"threshold"`
	TriggeredAt time.Time      `json:"triggered_at"`
}
