package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/harborline/voyage-api/internal/models"
)

// PreferenceRepository persists per-user filtering preferences.
type PreferenceRepository struct {
	db *sqlx.DB
}

// NewPreferenceRepository creates a new instance of PreferenceRepository.
func NewPreferenceRepository(db *sqlx.DB) *PreferenceRepository {
	return &PreferenceRepository{db: db}
}

type preferenceRow struct {
	UserID            string         `db:"user_id"`
	HiddenSeries      pq.StringArray `db:"hidden_series"`
	HiddenUIDs        pq.StringArray `db:"hidden_uids"`
	BlacklistedSeries pq.StringArray `db:"blacklisted_series"`
	OptionalSeries    pq.StringArray `db:"optional_series"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (row *preferenceRow) toModel() *models.Preferences {
	return &models.Preferences{
		UserID:            row.UserID,
		HiddenSeries:      []string(row.HiddenSeries),
		HiddenUIDs:        []string(row.HiddenUIDs),
		BlacklistedSeries: []string(row.BlacklistedSeries),
		OptionalSeries:    []string(row.OptionalSeries),
		UpdatedAt:         row.UpdatedAt,
	}
}

// Get returns the user's stored preferences. sql.ErrNoRows passes through
// for users who never saved any.
func (r *PreferenceRepository) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	const query = `SELECT user_id, hidden_series, hidden_uids, blacklisted_series, optional_series, updated_at FROM preferences WHERE user_id = $1 LIMIT 1`
	var row preferenceRow
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("get preferences: %w", err)
	}
	return row.toModel(), nil
}

// Upsert replaces the user's stored preferences wholesale.
func (r *PreferenceRepository) Upsert(ctx context.Context, pref *models.Preferences) error {
	pref.UpdatedAt = time.Now().UTC()
	const query = `INSERT INTO preferences (user_id, hidden_series, hidden_uids, blacklisted_series, optional_series, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET hidden_series = EXCLUDED.hidden_series,
		    hidden_uids = EXCLUDED.hidden_uids,
		    blacklisted_series = EXCLUDED.blacklisted_series,
		    optional_series = EXCLUDED.optional_series,
		    updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query,
		pref.UserID,
		pq.Array(emptyIfNil(pref.HiddenSeries)),
		pq.Array(emptyIfNil(pref.HiddenUIDs)),
		pq.Array(emptyIfNil(pref.BlacklistedSeries)),
		pq.Array(emptyIfNil(pref.OptionalSeries)),
		pref.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
