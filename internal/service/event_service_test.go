package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type fakeEventRepo struct {
	byUID   map[string]*models.EventInstance
	created []models.EventInstance
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byUID: make(map[string]*models.EventInstance)}
}

func (f *fakeEventRepo) FindByUID(ctx context.Context, uid string) (*models.EventInstance, error) {
	inst, ok := f.byUID[uid]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return inst, nil
}

func (f *fakeEventRepo) List(ctx context.Context, userID string, filter models.EventFilter) ([]models.EventInstance, int, error) {
	return nil, 0, nil
}

func (f *fakeEventRepo) ListForPlanning(ctx context.Context, userID string) ([]models.EventInstance, error) {
	out := make([]models.EventInstance, 0, len(f.byUID))
	for _, inst := range f.byUID {
		out = append(out, *inst)
	}
	return out, nil
}

func (f *fakeEventRepo) CreateCustom(ctx context.Context, inst *models.EventInstance) error {
	f.created = append(f.created, *inst)
	return nil
}

func (f *fakeEventRepo) DeleteCustom(ctx context.Context, userID, uid string) error {
	if _, ok := f.byUID[uid]; !ok {
		return sql.ErrNoRows
	}
	delete(f.byUID, uid)
	return nil
}

func TestEventServiceCreateCustomSingle(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, nil, nil, 10)

	created, err := svc.CreateCustom(context.Background(), "user-1", dto.CreateCustomEventRequest{
		SeriesName:   "Spa",
		Date:         "2026-03-01",
		StartMinutes: 600,
		EndMinutes:   660,
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.True(t, created[0].IsCustom)
	assert.Nil(t, created[0].SeriesID)
	require.NotNil(t, created[0].OwnerID)
	assert.Equal(t, "user-1", *created[0].OwnerID)
}

func TestEventServiceCreateCustomRecurring(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, nil, nil, 10)

	created, err := svc.CreateCustom(context.Background(), "user-1", dto.CreateCustomEventRequest{
		SeriesName:   "Morning Run",
		Date:         "2026-03-01",
		StartMinutes: 420,
		EndMinutes:   480,
		Recurrence:   "FREQ=DAILY;COUNT=3",
	})
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Equal(t, "2026-03-01", created[0].Date)
	assert.Equal(t, "2026-03-02", created[1].Date)
	assert.Equal(t, "2026-03-03", created[2].Date)

	// Recurring instances share one custom series id but have distinct uids.
	require.NotNil(t, created[0].SeriesID)
	assert.Equal(t, *created[0].SeriesID, *created[2].SeriesID)
	assert.NotEqual(t, created[0].UID, created[1].UID)
}

func TestEventServiceCreateCustomCapsRecurrence(t *testing.T) {
	repo := newFakeEventRepo()
	svc := NewEventService(repo, nil, nil, 5)

	created, err := svc.CreateCustom(context.Background(), "user-1", dto.CreateCustomEventRequest{
		SeriesName:   "Yoga",
		Date:         "2026-03-01",
		StartMinutes: 420,
		EndMinutes:   480,
		Recurrence:   "FREQ=DAILY;COUNT=50",
	})
	require.NoError(t, err)
	assert.Len(t, created, 5)
}

func TestEventServiceCreateCustomRejectsBadRule(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), nil, nil, 10)

	_, err := svc.CreateCustom(context.Background(), "user-1", dto.CreateCustomEventRequest{
		SeriesName:   "Spa",
		Date:         "2026-03-01",
		StartMinutes: 600,
		EndMinutes:   660,
		Recurrence:   "FREQ=NOPE",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceCreateCustomRejectsInvertedTimes(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), nil, nil, 10)

	_, err := svc.CreateCustom(context.Background(), "user-1", dto.CreateCustomEventRequest{
		SeriesName:   "Spa",
		Date:         "2026-03-01",
		StartMinutes: 660,
		EndMinutes:   600,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestEventServiceGetNotFound(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), nil, nil, 10)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestEventServiceDeleteCustomNotFound(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), nil, nil, 10)

	err := svc.DeleteCustom(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
