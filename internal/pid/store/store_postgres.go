package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"pidstore/internal/pid/models"
	"pidstore/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// PostgresStore persists identifier records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed record store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the table and indexes if they do not exist.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure pid schema: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, pid *models.PersistentIdentifier) error {
	if pid == nil {
		return fmt.Errorf("pid is required")
	}
	query := `
		INSERT INTO pidstore_pid (pid_type, pid_value, pid_provider, status, object_type, object_uuid, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query, pidArgs(pid)...)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return fmt.Errorf("pid %s:%s: %w", pid.Type, pid.Value, sentinel.ErrConflict)
		}
		return fmt.Errorf("create pid: %w", err)
	}
	return nil
}

func (s *PostgresStore) Find(ctx context.Context, pidType, value string) (*models.PersistentIdentifier, error) {
	query := `
		SELECT pid_type, pid_value, pid_provider, status, object_type, object_uuid, created, updated
		FROM pidstore_pid
		WHERE pid_type = $1 AND pid_value = $2
	`
	var (
		pid                            models.PersistentIdentifier
		provider, objectType, objectID sql.NullString
		code                           string
		createdAt, updatedAt           time.Time
	)
	err := s.db.QueryRowContext(ctx, query, pidType, value).Scan(
		&pid.Type, &pid.Value, &provider, &code, &objectType, &objectID, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("pid %s:%s: %w", pidType, value, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find pid: %w", err)
	}
	status, err := models.ParseStatusCode(code)
	if err != nil {
		return nil, fmt.Errorf("find pid: %w", err)
	}
	pid.Provider = provider.String
	pid.Status = status
	pid.ObjectType = objectType.String
	pid.ObjectID = objectID.String
	pid.CreatedAt = createdAt.UTC()
	pid.UpdatedAt = updatedAt.UTC()
	return &pid, nil
}

// Save upserts pid keyed by type and value. CreatedAt is kept from the
// first insert.
func (s *PostgresStore) Save(ctx context.Context, pid *models.PersistentIdentifier) error {
	if pid == nil {
		return fmt.Errorf("pid is required")
	}
	query := `
		INSERT INTO pidstore_pid (pid_type, pid_value, pid_provider, status, object_type, object_uuid, created, updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (pid_type, pid_value) DO UPDATE SET
			pid_provider = EXCLUDED.pid_provider,
			status = EXCLUDED.status,
			object_type = EXCLUDED.object_type,
			object_uuid = EXCLUDED.object_uuid,
			updated = EXCLUDED.updated
	`
	if _, err := s.db.ExecContext(ctx, query, pidArgs(pid)...); err != nil {
		return fmt.Errorf("save pid: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, pidType, value string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pidstore_pid WHERE pid_type = $1 AND pid_value = $2`, pidType, value)
	if err != nil {
		return fmt.Errorf("delete pid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete pid: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("pid %s:%s: %w", pidType, value, sentinel.ErrNotFound)
	}
	return nil
}

func pidArgs(pid *models.PersistentIdentifier) []any {
	return []any{
		pid.Type,
		pid.Value,
		nullString(pid.Provider),
		pid.Status.Code(),
		nullString(pid.ObjectType),
		nullString(pid.ObjectID),
		pid.CreatedAt,
		pid.UpdatedAt,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
