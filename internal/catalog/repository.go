package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Repository defines the persistence operations for accessory records.
type Repository interface {
	// Get returns the record for serial, or ErrNotFound.
	Get(ctx context.Context, serial string) (*Record, error)

	// List returns every record ordered by accessory ID.
	List(ctx context.Context) ([]Record, error)

	// Create stores a new record and assigns the next free accessory ID.
	// Returns ErrExists if the serial already has a record.
	Create(ctx context.Context, serial, name, uuid string) (*Record, error)

	// Touch updates the name and last seen time.
	Touch(ctx context.Context, serial, name string) error

	// Delete removes the record for serial, or returns ErrNotFound.
	Delete(ctx context.Context, serial string) error
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed repository.
// The accessories table must already exist (see migrations).
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Get retrieves the record for serial.
func (r *SQLiteRepository) Get(ctx context.Context, serial string) (*Record, error) {
	query := `
		SELECT serial, name, accessory_id, uuid, created_at, last_seen_at
		FROM accessories
		WHERE serial = ?`

	rec, err := scanRecord(r.db.QueryRowContext(ctx, query, serial))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying accessory: %w", err)
	}
	return rec, nil
}

// List retrieves every record.
func (r *SQLiteRepository) List(ctx context.Context) ([]Record, error) {
	query := `
		SELECT serial, name, accessory_id, uuid, created_at, last_seen_at
		FROM accessories
		ORDER BY accessory_id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying accessories: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning accessory: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessories: %w", err)
	}
	return records, nil
}

// Create inserts a record with accessory ID max(existing)+1, starting at
// FirstAccessoryID.
func (r *SQLiteRepository) Create(ctx context.Context, serial, name, uuid string) (*Record, error) {
	now := time.Now().UTC().Format(time.RFC3339)

	query := `
		INSERT INTO accessories (serial, name, accessory_id, uuid, created_at, last_seen_at)
		SELECT ?, ?, COALESCE(MAX(accessory_id), ?) + 1, ?, ?, ?
		FROM accessories`

	_, err := r.db.ExecContext(ctx, query,
		serial,
		name,
		int64(FirstAccessoryID)-1,
		uuid,
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrExists
		}
		return nil, fmt.Errorf("inserting accessory: %w", err)
	}

	return r.Get(ctx, serial)
}

// Touch refreshes the display name and last seen time.
func (r *SQLiteRepository) Touch(ctx context.Context, serial, name string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE accessories SET name = ?, last_seen_at = ? WHERE serial = ?",
		name,
		time.Now().UTC().Format(time.RFC3339),
		serial,
	)
	if err != nil {
		return fmt.Errorf("updating accessory: %w", err)
	}
	return requireOneRow(result)
}

// Delete removes the record for serial.
func (r *SQLiteRepository) Delete(ctx context.Context, serial string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM accessories WHERE serial = ?", serial)
	if err != nil {
		return fmt.Errorf("deleting accessory: %w", err)
	}
	return requireOneRow(result)
}

func requireOneRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*Record, error) {
	var (
		rec                 Record
		id                  int64
		createdAt, lastSeen string
	)
	if err := s.Scan(&rec.Serial, &rec.Name, &id, &rec.UUID, &createdAt, &lastSeen); err != nil {
		return nil, err
	}
	rec.AccessoryID = uint64(id) //nolint:gosec // IDs are assigned from 2 upwards
	rec.CreatedAt = parseTime(createdAt)
	rec.LastSeenAt = parseTime(lastSeen)
	return &rec, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
