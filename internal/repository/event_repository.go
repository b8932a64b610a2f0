package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/harborline/voyage-api/internal/models"
)

// EventRepository provides database access to the event catalog: imported
// voyage events plus user-owned custom events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventColumns = `uid, series_name, date, start_minutes, end_minutes, location, is_custom, series_id, owner_id, created_at, updated_at`

// FindByUID returns a single event instance.
func (r *EventRepository) FindByUID(ctx context.Context, uid string) (*models.EventInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE uid = $1 LIMIT 1`, eventColumns)
	var inst models.EventInstance
	if err := r.db.GetContext(ctx, &inst, query, uid); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find event by uid: %w", err)
	}
	return &inst, nil
}

// List returns catalog events plus the user's own custom events, filtered
// and paginated.
func (r *EventRepository) List(ctx context.Context, userID string, filter models.EventFilter) ([]models.EventInstance, int, error) {
	baseQuery := `FROM events WHERE (is_custom = FALSE OR owner_id = $1)`
	args := []interface{}{userID}

	var conditions []string
	if filter.Date != "" {
		conditions = append(conditions, fmt.Sprintf("date = $%d", len(args)+1))
		args = append(args, filter.Date)
	}
	if filter.SeriesName != "" {
		conditions = append(conditions, fmt.Sprintf("series_name = $%d", len(args)+1))
		args = append(args, filter.SeriesName)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY date, start_minutes, uid LIMIT %d OFFSET %d", eventColumns, baseQuery, pageSize, offset)

	var events []models.EventInstance
	if err := r.db.SelectContext(ctx, &events, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	return events, total, nil
}

// ListForPlanning returns every event visible to the scheduling engine for a
// user: the whole imported catalog plus their custom events, unpaginated and
// in chronological order.
func (r *EventRepository) ListForPlanning(ctx context.Context, userID string) ([]models.EventInstance, error) {
	query := fmt.Sprintf(`SELECT %s FROM events WHERE is_custom = FALSE OR owner_id = $1 ORDER BY date, start_minutes, uid`, eventColumns)
	var events []models.EventInstance
	if err := r.db.SelectContext(ctx, &events, query, userID); err != nil {
		return nil, fmt.Errorf("list events for planning: %w", err)
	}
	return events, nil
}

// UpsertBatch inserts or refreshes catalog events keyed by their
// deterministic uid. Re-importing the same schedule is a no-op apart from
// updated_at.
func (r *EventRepository) UpsertBatch(ctx context.Context, events []models.EventInstance) error {
	if len(events) == 0 {
		return nil
	}
	const query = `INSERT INTO events (uid, series_name, date, start_minutes, end_minutes, location, is_custom, series_id, owner_id, created_at, updated_at)
		VALUES (:uid, :series_name, :date, :start_minutes, :end_minutes, :location, :is_custom, :series_id, :owner_id, :created_at, :updated_at)
		ON CONFLICT (uid) DO UPDATE
		SET series_name = EXCLUDED.series_name,
		    date = EXCLUDED.date,
		    start_minutes = EXCLUDED.start_minutes,
		    end_minutes = EXCLUDED.end_minutes,
		    location = EXCLUDED.location,
		    updated_at = EXCLUDED.updated_at`

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert batch: %w", err)
	}
	now := time.Now().UTC()
	for i := range events {
		if events[i].CreatedAt.IsZero() {
			events[i].CreatedAt = now
		}
		events[i].UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, query, events[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("upsert event %s: %w", events[i].UID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert batch: %w", err)
	}
	return nil
}

// CreateCustom inserts a user-owned event instance.
func (r *EventRepository) CreateCustom(ctx context.Context, inst *models.EventInstance) error {
	now := time.Now().UTC()
	if inst.CreatedAt.IsZero() {
		inst.CreatedAt = now
	}
	inst.UpdatedAt = now
	inst.IsCustom = true

	const query = `INSERT INTO events (uid, series_name, date, start_minutes, end_minutes, location, is_custom, series_id, owner_id, created_at, updated_at)
		VALUES (:uid, :series_name, :date, :start_minutes, :end_minutes, :location, :is_custom, :series_id, :owner_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, inst); err != nil {
		return fmt.Errorf("create custom event: %w", err)
	}
	return nil
}

// DeleteCustom removes a custom event owned by the user. Returns
// sql.ErrNoRows when nothing matched.
func (r *EventRepository) DeleteCustom(ctx context.Context, userID, uid string) error {
	const query = `DELETE FROM events WHERE uid = $1 AND is_custom = TRUE AND owner_id = $2`
	res, err := r.db.ExecContext(ctx, query, uid, userID)
	if err != nil {
		return fmt.Errorf("delete custom event: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete custom event rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
