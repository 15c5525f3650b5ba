package audit

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
)

//go:embed schema.sql
var schema string

// PostgresStore keeps audit events in PostgreSQL next to the identifier
// records. Appends are idempotent on the event ID so a redelivered event is
// stored once.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the event table if it does not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure audit schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	id, err := uuid.Parse(event.ID)
	if err != nil {
		id = uuid.New()
	}
	query := `
		INSERT INTO pidstore_audit_event (
			id, timestamp, action, operation, pid_type, pid_value, provider,
			from_status, to_status, actor, request_id, client_ip, user_agent, error
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING
	`
	_, err = s.db.ExecContext(ctx, query,
		id,
		event.Timestamp,
		event.Action,
		event.Operation,
		event.PIDType,
		event.PIDValue,
		event.Provider,
		event.FromStatus,
		event.ToStatus,
		event.Actor,
		event.RequestID,
		event.ClientIP,
		event.UserAgent,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByPID returns the events for pidValue, oldest first.
func (s *PostgresStore) ListByPID(ctx context.Context, pidValue string) ([]Event, error) {
	query := `
		SELECT id, timestamp, action, operation, pid_type, pid_value, provider,
			   from_status, to_status, actor, request_id, client_ip, user_agent, error
		FROM pidstore_audit_event
		WHERE pid_value = $1
		ORDER BY timestamp, id
	`
	rows, err := s.db.QueryContext(ctx, query, pidValue)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e  Event
			id uuid.UUID
		)
		err := rows.Scan(
			&id,
			&e.Timestamp,
			&e.Action,
			&e.Operation,
			&e.PIDType,
			&e.PIDValue,
			&e.Provider,
			&e.FromStatus,
			&e.ToStatus,
			&e.Actor,
			&e.RequestID,
			&e.ClientIP,
			&e.UserAgent,
			&e.Error,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.ID = id.String()
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
