package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/framesafe/framesafe/internal/pii"
)

// PostgresConfig contains audit database configuration.
type PostgresConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// PostgresStore persists audit events in PostgreSQL.
type PostgresStore struct {
	db     *sqlx.DB
	logger *zap.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         BIGSERIAL PRIMARY KEY,
	ts         TIMESTAMPTZ NOT NULL,
	event_type TEXT NOT NULL,
	pii_types  TEXT[] NOT NULL DEFAULT '{}',
	context    TEXT NOT NULL DEFAULT '',
	source     TEXT NOT NULL DEFAULT '',
	severity   TEXT NOT NULL,
	metadata   JSONB
);
CREATE INDEX IF NOT EXISTS idx_audit_events_ts ON audit_events (ts);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events (event_type, ts);`

// NewPostgresStore connects to the audit database and ensures the schema.
func NewPostgresStore(config *PostgresConfig, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	store := &PostgresStore{db: db, logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("failed to ensure audit schema: %w", err)
	}

	logger.Info("Audit store initialized",
		zap.String("database_url", maskDatabaseURL(config.DatabaseURL)),
		zap.Int("max_open_conns", config.MaxOpenConns))

	return store, nil
}

// auditRow is the sqlx scan target for audit_events.
type auditRow struct {
	ID        int64          `db:"id"`
	Timestamp time.Time      `db:"ts"`
	EventType string         `db:"event_type"`
	PIITypes  pq.StringArray `db:"pii_types"`
	Context   string         `db:"context"`
	Source    string         `db:"source"`
	Severity  string         `db:"severity"`
	Metadata  []byte         `db:"metadata"`
}

func (r auditRow) toEvent() Event {
	event := Event{
		ID:        r.ID,
		Timestamp: r.Timestamp,
		Type:      EventType(r.EventType),
		Context:   r.Context,
		Source:    r.Source,
		Severity:  Severity(r.Severity),
	}
	for _, t := range r.PIITypes {
		event.PIITypes = append(event.PIITypes, pii.Type(t))
	}
	if len(r.Metadata) > 0 {
		_ = json.Unmarshal(r.Metadata, &event.Metadata)
	}
	return event
}

func (s *PostgresStore) Append(ctx context.Context, event *Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	types := make(pq.StringArray, 0, len(event.PIITypes))
	for _, t := range event.PIITypes {
		types = append(types, string(t))
	}

	var metadata []byte
	if len(event.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(event.Metadata); err != nil {
			return fmt.Errorf("failed to marshal event metadata: %w", err)
		}
	}

	query := `
		INSERT INTO audit_events (ts, event_type, pii_types, context, source, severity, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		event.Timestamp,
		string(event.Type),
		types,
		event.Context,
		event.Source,
		string(event.Severity),
		metadata,
	).Scan(&event.ID)
	if err != nil {
		s.logger.Error("Failed to insert audit event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)))
		return fmt.Errorf("failed to insert audit event: %w", err)
	}

	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, ts, event_type, pii_types, context, source, severity, metadata
		FROM audit_events ORDER BY id DESC LIMIT $1`
	return s.queryEvents(ctx, query, limit)
}

func (s *PostgresStore) ByType(ctx context.Context, eventType EventType, limit int) ([]Event, error) {
	query := `
		SELECT id, ts, event_type, pii_types, context, source, severity, metadata
		FROM audit_events WHERE event_type = $1 ORDER BY id DESC LIMIT $2`
	return s.queryEvents(ctx, query, string(eventType), limit)
}

func (s *PostgresStore) Range(ctx context.Context, from, to time.Time) ([]Event, error) {
	query := `
		SELECT id, ts, event_type, pii_types, context, source, severity, metadata
		FROM audit_events WHERE ts >= $1 AND ts <= $2 ORDER BY id ASC`
	return s.queryEvents(ctx, query, from, to)
}

func (s *PostgresStore) queryEvents(ctx context.Context, query string, args ...interface{}) ([]Event, error) {
	var rows []auditRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		s.logger.Error("Audit query failed", zap.Error(err))
		return nil, fmt.Errorf("audit query failed: %w", err)
	}

	events := make([]Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toEvent())
	}
	return events, nil
}

func (s *PostgresStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM audit_events WHERE ts < $1`, cutoff)
	if err != nil {
		s.logger.Error("Audit retention prune failed", zap.Error(err))
		return 0, fmt.Errorf("audit retention prune failed: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return deleted, nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// maskDatabaseURL masks the password portion of a database URL for logging.
func maskDatabaseURL(url string) string {
	at := strings.LastIndex(url, "@")
	if at < 0 {
		return url
	}
	head := url[:at]
	colon := strings.LastIndex(head, ":")
	if colon < 0 || !strings.Contains(head[:colon], "//") {
		return url
	}
	return head[:colon] + ":***" + url[at:]
}
