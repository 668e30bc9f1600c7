package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jonathan/crna-guide/internal/types"
)

// SnapshotRecord is one stored snapshot row.
type SnapshotRecord struct {
	UserID    uuid.UUID          `json:"user_id"`
	Snapshot  *types.RawSnapshot `json:"snapshot"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// ParseUserID parses a snapshot user id as the UUID primary key of the store.
func ParseUserID(userID string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(userID))
	if err != nil {
		return uuid.Nil, fmt.Errorf("user_id %q is not a valid UUID: %w", userID, err)
	}
	return id, nil
}

// GetSnapshot retrieves the stored snapshot for a user. It returns nil, nil when none exists.
func (db *DB) GetSnapshot(ctx context.Context, userID uuid.UUID) (*types.RawSnapshot, error) {
	var document []byte
	err := db.pool.QueryRow(ctx,
		`SELECT document FROM applicant_snapshots WHERE user_id = $1`,
		userID,
	).Scan(&document)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	return decodeDocument(userID, document)
}

// SaveSnapshot upserts a snapshot keyed by its user id, which must be a UUID.
func (db *DB) SaveSnapshot(ctx context.Context, raw *types.RawSnapshot) (uuid.UUID, error) {
	if raw == nil {
		return uuid.Nil, fmt.Errorf("snapshot is required")
	}
	id, err := ParseUserID(raw.UserID)
	if err != nil {
		return uuid.Nil, err
	}

	document, err := json.Marshal(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO applicant_snapshots (user_id, document)
		 VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET document = $2, updated_at = NOW()`,
		id, document,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	return id, nil
}

// DeleteSnapshot removes a stored snapshot and reports whether one existed.
func (db *DB) DeleteSnapshot(ctx context.Context, userID uuid.UUID) (bool, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM applicant_snapshots WHERE user_id = $1`, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListSnapshots retrieves the most recently updated snapshots.
func (db *DB) ListSnapshots(ctx context.Context, limit int) ([]SnapshotRecord, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, document, updated_at
		 FROM applicant_snapshots ORDER BY updated_at DESC, user_id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var records []SnapshotRecord
	for rows.Next() {
		var (
			rec      SnapshotRecord
			document []byte
		)
		if err := rows.Scan(&rec.UserID, &document, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		rec.Snapshot, err = decodeDocument(rec.UserID, document)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshots: %w", err)
	}
	return records, nil
}

// decodeDocument unmarshals a stored document. The row key is authoritative for the user id.
func decodeDocument(userID uuid.UUID, document []byte) (*types.RawSnapshot, error) {
	var raw types.RawSnapshot
	if err := json.Unmarshal(document, &raw); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot %s: %w", userID, err)
	}
	raw.UserID = userID.String()
	return &raw, nil
}
