package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"PairStream/internal/domain/models"
	pkgch "PairStream/pkg/clickhouse"
	applogger "PairStream/pkg/logger"
)

var alertSchema = []string{
	`CREATE DATABASE IF NOT EXISTS pairstream`,
	`CREATE TABLE IF NOT EXISTS pairstream.alert_rules (
        id Int64,
        name String,
        symbol String,
        metric LowCardinality(String),
        condition LowCardinality(String),
        threshold Float64,
        is_active UInt8,
        created_at DateTime64(3, 'UTC')
    ) ENGINE = MergeTree
    ORDER BY id`,
	`CREATE TABLE IF NOT EXISTS pairstream.alert_triggers (
        alert_id Int64,
        alert_name String,
        symbol String,
        metric LowCardinality(String),
        condition LowCardinality(String),
        metric_value Float64,
        threshold Float64,
        triggered_at DateTime64(3, 'UTC')
    ) ENGINE = MergeTree
    ORDER BY triggered_at
    TTL toDateTime(triggered_at) + INTERVAL 30 DAY`,
}

// CHAlertStore implements AlertStore backed by ClickHouse. Rule IDs are
// allocated from the wall clock in nanoseconds; rule deletion uses
// lightweight DELETE.
type CHAlertStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHAlertStore(ch *pkgch.Client) *CHAlertStore {
	return &CHAlertStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHAlertStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates the alert tables if missing.
func (s *CHAlertStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, alertSchema)
}

// InsertRule persists a rule and returns its assigned id.
func (s *CHAlertStore) InsertRule(ctx context.Context, r *models.AlertRule) (int64, error) {
	id := time.Now().UnixNano()
	active := uint8(0)
	if r.IsActive {
		active = 1
	}
	const q = `
        INSERT INTO pairstream.alert_rules
            (id, name, symbol, metric, condition, threshold, is_active, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		id, r.Name, r.Symbol, string(r.Metric), string(r.Condition),
		r.Threshold, active, r.CreatedAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert_rule error",
				applogger.String("name", r.Name),
				applogger.Error(err),
			)
		}
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	return id, nil
}

// ListRules returns rules ordered by creation time.
func (s *CHAlertStore) ListRules(ctx context.Context, activeOnly bool) ([]models.AlertRule, error) {
	q := `
        SELECT id, name, symbol, metric, condition, threshold, is_active, created_at
        FROM pairstream.alert_rules
    `
	if activeOnly {
		q += " WHERE is_active = 1"
	}
	q += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []models.AlertRule
	for rows.Next() {
		var r models.AlertRule
		var metric, cond string
		var active uint8
		if err := rows.Scan(&r.ID, &r.Name, &r.Symbol, &metric, &cond,
			&r.Threshold, &active, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		r.Metric = models.AlertMetric(metric)
		r.Condition = models.AlertCondition(cond)
		r.IsActive = active == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRule removes a rule by id.
func (s *CHAlertStore) DeleteRule(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pairstream.alert_rules WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// InsertTrigger appends one trigger log entry.
func (s *CHAlertStore) InsertTrigger(ctx context.Context, t *models.AlertTrigger) error {
	const q = `
        INSERT INTO pairstream.alert_triggers
            (alert_id, alert_name, symbol, metric, condition, metric_value, threshold, triggered_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		t.AlertID, t.AlertName, t.Symbol, string(t.Metric), string(t.Condition),
		t.MetricValue, t.Threshold, t.TriggeredAt,
	)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse insert_trigger error",
				applogger.String("rule", t.AlertName),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("insert trigger: %w", err)
	}
	return nil
}

// RecentTriggers returns the newest limit triggers, newest first.
func (s *CHAlertStore) RecentTriggers(ctx context.Context, limit int) ([]models.AlertTrigger, error) {
	const q = `
        SELECT alert_id, alert_name, symbol, metric, condition, metric_value, threshold, triggered_at
        FROM pairstream.alert_triggers
        ORDER BY triggered_at DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("recent triggers: %w", err)
	}
	defer rows.Close()

	var out []models.AlertTrigger
	for rows.Next() {
		var t models.AlertTrigger
		var metric, cond string
		if err := rows.Scan(&t.AlertID, &t.AlertName, &t.Symbol, &metric, &cond,
			&t.MetricValue, &t.Threshold, &t.TriggeredAt); err != nil {
			return nil, fmt.Errorf("scan trigger: %w", err)
		}
		t.Metric = models.AlertMetric(metric)
		t.Condition = models.AlertCondition(cond)
		out = append(out, t)
	}
	return out, rows.Err()
}
