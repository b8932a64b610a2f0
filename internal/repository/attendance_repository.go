package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// AttendanceRepository persists per-user attendance sets.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListUIDs returns every event uid the user plans to attend.
func (r *AttendanceRepository) ListUIDs(ctx context.Context, userID string) ([]string, error) {
	const query = `SELECT uid FROM attendance WHERE user_id = $1 ORDER BY uid`
	var uids []string
	if err := r.db.SelectContext(ctx, &uids, query, userID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	return uids, nil
}

// Add marks a single event as attended. Re-adding is a no-op.
func (r *AttendanceRepository) Add(ctx context.Context, userID, uid string) error {
	const query = `INSERT INTO attendance (user_id, uid, created_at) VALUES ($1, $2, $3) ON CONFLICT (user_id, uid) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, uid, time.Now().UTC()); err != nil {
		return fmt.Errorf("add attendance: %w", err)
	}
	return nil
}

// Remove unmarks a single event. Removing an absent uid is a no-op.
func (r *AttendanceRepository) Remove(ctx context.Context, userID, uid string) error {
	const query = `DELETE FROM attendance WHERE user_id = $1 AND uid = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, uid); err != nil {
		return fmt.Errorf("remove attendance: %w", err)
	}
	return nil
}

// ApplyDiff commits a scheduling session's outcome atomically: removed uids
// are deleted, added uids inserted and the committed series merged into the
// user's hidden set, all in one transaction. A partially applied schedule is
// never observable.
func (r *AttendanceRepository) ApplyDiff(ctx context.Context, userID string, added, removed, hideSeries []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin apply diff: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(removed) > 0 {
		const del = `DELETE FROM attendance WHERE user_id = $1 AND uid = ANY($2)`
		if _, err := tx.ExecContext(ctx, del, userID, pq.Array(removed)); err != nil {
			return fmt.Errorf("apply diff delete: %w", err)
		}
	}

	now := time.Now().UTC()
	const ins = `INSERT INTO attendance (user_id, uid, created_at) VALUES ($1, $2, $3) ON CONFLICT (user_id, uid) DO NOTHING`
	for _, uid := range added {
		if _, err := tx.ExecContext(ctx, ins, userID, uid, now); err != nil {
			return fmt.Errorf("apply diff insert %s: %w", uid, err)
		}
	}

	if len(hideSeries) > 0 {
		const hide = `INSERT INTO preferences (user_id, hidden_series, hidden_uids, blacklisted_series, optional_series, updated_at)
			VALUES ($1, $2, '{}', '{}', '{}', $3)
			ON CONFLICT (user_id) DO UPDATE
			SET hidden_series = ARRAY(SELECT DISTINCT unnest(preferences.hidden_series || EXCLUDED.hidden_series)),
			    updated_at = EXCLUDED.updated_at`
		if _, err := tx.ExecContext(ctx, hide, userID, pq.Array(hideSeries), now); err != nil {
			return fmt.Errorf("apply diff hide series: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit apply diff: %w", err)
	}
	return nil
}
