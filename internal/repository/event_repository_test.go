package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"uid", "series_name", "date", "start_minutes", "end_minutes", "location", "is_custom", "series_id", "owner_id", "created_at", "updated_at"})
}

func TestEventFindByUID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT uid, series_name, date, start_minutes, end_minutes, location, is_custom, series_id, owner_id, created_at, updated_at FROM events WHERE uid = $1 LIMIT 1")).
		WithArgs("uid-1").
		WillReturnRows(eventRows().AddRow("uid-1", "Evening Show", "2026-03-01", 1200, 1290, "Main Theater", false, nil, nil, now, now))

	inst, err := repo.FindByUID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Evening Show", inst.SeriesName)
	assert.Equal(t, 1200, inst.StartMinutes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventFindByUIDNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectQuery("SELECT .+ FROM events WHERE uid").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByUID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestEventListWithFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	now := time.Now()
	mock.ExpectQuery("SELECT uid, .+ FROM events WHERE \\(is_custom = FALSE OR owner_id = \\$1\\) AND date = \\$2 ORDER BY date, start_minutes, uid LIMIT 50 OFFSET 0").
		WithArgs("user-1", "2026-03-01").
		WillReturnRows(eventRows().AddRow("uid-1", "Evening Show", "2026-03-01", 1200, 1290, "", false, nil, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM events WHERE (is_custom = FALSE OR owner_id = $1) AND date = $2")).
		WithArgs("user-1", "2026-03-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	events, total, err := repo.List(context.Background(), "user-1", models.EventFilter{Date: "2026-03-01"})
	require.NoError(t, err)
	assert.Len(t, events, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventUpsertBatch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO events").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.UpsertBatch(context.Background(), []models.EventInstance{
		{UID: "uid-1", SeriesName: "Evening Show", Date: "2026-03-01", StartMinutes: 1200, EndMinutes: 1290},
		{UID: "uid-2", SeriesName: "Evening Show", Date: "2026-03-02", StartMinutes: 1200, EndMinutes: 1290},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEventDeleteCustomNotOwned(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewEventRepository(db)

	mock.ExpectExec("DELETE FROM events WHERE uid").
		WithArgs("uid-1", "intruder").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.DeleteCustom(context.Background(), "intruder", "uid-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
