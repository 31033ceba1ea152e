package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fulqrun/backend/internal/sync/domain"
)

type PostgresDeviceRepository struct {
	db *sql.DB
}

func NewPostgresDeviceRepository(db *sql.DB) *PostgresDeviceRepository {
	return &PostgresDeviceRepository{db: db}
}

const deviceColumns = `id, org_id, user_id, fingerprint, platform, cursor, last_sync_at, created_at`

func (r *PostgresDeviceRepository) GetByID(ctx context.Context, orgID, id string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM sync_devices WHERE org_id = $1 AND id = $2`, orgID, id)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device: %w", err)
	}
	return d, nil
}

func (r *PostgresDeviceRepository) GetByFingerprint(ctx context.Context, orgID, userID, fingerprint string) (*domain.Device, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM sync_devices WHERE org_id = $1 AND user_id = $2 AND fingerprint = $3`,
		orgID, userID, fingerprint)
	d, err := scanDevice(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get device by fingerprint: %w", err)
	}
	return d, nil
}

func (r *PostgresDeviceRepository) Create(ctx context.Context, d *domain.Device) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sync_devices (id, org_id, user_id, fingerprint, platform, cursor, last_sync_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		d.ID, d.OrgID, d.UserID, d.Fingerprint, d.Platform, d.Cursor, timeToNull(d.LastSyncAt), d.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create device: %w", err)
	}
	return nil
}

func (r *PostgresDeviceRepository) UpdateCursor(ctx context.Context, orgID, id string, cursor int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE sync_devices SET cursor = $3, last_sync_at = $4 WHERE org_id = $1 AND id = $2`,
		orgID, id, cursor, at,
	)
	if err != nil {
		return fmt.Errorf("update device cursor: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type PostgresChangelogRepository struct {
	db *sql.DB
}

func NewPostgresChangelogRepository(db *sql.DB) *PostgresChangelogRepository {
	return &PostgresChangelogRepository{db: db}
}

func (r *PostgresChangelogRepository) RecordChange(ctx context.Context, orgID, entityType, entityID, op string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal changelog payload: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO sync_changelog (org_id, entity_type, entity_id, op, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		orgID, entityType, entityID, op, raw, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("record change: %w", err)
	}
	return nil
}

func (r *PostgresChangelogRepository) ListSince(ctx context.Context, orgID string, cursor int64, limit int32) ([]*domain.LogEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT seq, org_id, entity_type, entity_id, op, payload, created_at
		   FROM sync_changelog WHERE org_id = $1 AND seq > $2
		  ORDER BY seq ASC LIMIT $3`,
		orgID, cursor, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list changelog: %w", err)
	}
	defer rows.Close()

	var out []*domain.LogEntry
	for rows.Next() {
		var (
			e       domain.LogEntry
			payload []byte
		)
		if err := rows.Scan(&e.Seq, &e.OrgID, &e.EntityType, &e.EntityID, &e.Op, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan changelog: %w", err)
		}
		e.Payload = payload
		out = append(out, &e)
	}
	return out, rows.Err()
}

func scanDevice(row interface{ Scan(...any) error }) (*domain.Device, error) {
	var (
		d        domain.Device
		lastSync sql.NullTime
	)
	if err := row.Scan(&d.ID, &d.OrgID, &d.UserID, &d.Fingerprint, &d.Platform, &d.Cursor, &lastSync, &d.CreatedAt); err != nil {
		return nil, err
	}
	if lastSync.Valid {
		d.LastSyncAt = &lastSync.Time
	}
	return &d, nil
}

func timeToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
