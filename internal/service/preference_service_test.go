package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type fakePreferenceRepo struct {
	stored   *models.Preferences
	getCalls int
	upserted *models.Preferences
}

func (f *fakePreferenceRepo) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	f.getCalls++
	if f.stored == nil {
		return nil, sql.ErrNoRows
	}
	clone := *f.stored
	return &clone, nil
}

func (f *fakePreferenceRepo) Upsert(ctx context.Context, pref *models.Preferences) error {
	f.upserted = pref
	return nil
}

type fakePreferenceCache struct {
	entry   *models.Preferences
	sets    int
	deletes int
}

func (f *fakePreferenceCache) Get(ctx context.Context, key string, dest interface{}) error {
	if f.entry == nil {
		return appErrors.ErrCacheMiss
	}
	out, ok := dest.(*models.Preferences)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	*out = *f.entry
	return nil
}

func (f *fakePreferenceCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	f.sets++
	if pref, ok := value.(*models.Preferences); ok {
		clone := *pref
		f.entry = &clone
	}
	return nil
}

func (f *fakePreferenceCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deletes++
	f.entry = nil
	return nil
}

func TestPreferenceGetDefaultsWhenMissing(t *testing.T) {
	repo := &fakePreferenceRepo{}
	cache := &fakePreferenceCache{}
	svc := NewPreferenceService(repo, cache, nil)

	pref, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, "user-1", pref.UserID)
	require.Empty(t, pref.HiddenSeries)
	require.Equal(t, 1, cache.sets)
}

func TestPreferenceGetServesFromCache(t *testing.T) {
	repo := &fakePreferenceRepo{}
	cache := &fakePreferenceCache{entry: &models.Preferences{UserID: "user-1", HiddenSeries: []string{"Evening Show"}}}
	svc := NewPreferenceService(repo, cache, nil)

	pref, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Evening Show"}, pref.HiddenSeries)
	require.Zero(t, repo.getCalls)
}

func TestPreferenceGetWorksWithoutCache(t *testing.T) {
	repo := &fakePreferenceRepo{stored: &models.Preferences{UserID: "user-1", OptionalSeries: []string{"Trivia"}}}
	svc := NewPreferenceService(repo, nil, nil)

	pref, err := svc.Get(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []string{"Trivia"}, pref.OptionalSeries)
}

func TestPreferenceUpdateKeepsOmittedFields(t *testing.T) {
	repo := &fakePreferenceRepo{stored: &models.Preferences{
		UserID:       "user-1",
		HiddenSeries: []string{"Evening Show"},
	}}
	cache := &fakePreferenceCache{}
	svc := NewPreferenceService(repo, cache, nil)

	blacklist := []string{"Art Auction"}
	pref, err := svc.Update(context.Background(), "user-1", dto.UpdatePreferencesRequest{
		BlacklistedSeries: &blacklist,
	})
	require.NoError(t, err)
	require.Equal(t, []string{"Evening Show"}, pref.HiddenSeries)
	require.Equal(t, []string{"Art Auction"}, pref.BlacklistedSeries)
	require.NotNil(t, repo.upserted)
	require.Equal(t, 1, cache.deletes)
}

func TestPreferenceUpdateEmptySliceClears(t *testing.T) {
	repo := &fakePreferenceRepo{stored: &models.Preferences{
		UserID:       "user-1",
		HiddenSeries: []string{"Evening Show", "Trivia"},
	}}
	svc := NewPreferenceService(repo, &fakePreferenceCache{}, nil)

	empty := []string{}
	pref, err := svc.Update(context.Background(), "user-1", dto.UpdatePreferencesRequest{
		HiddenSeries: &empty,
	})
	require.NoError(t, err)
	require.Empty(t, pref.HiddenSeries)
	require.Empty(t, repo.upserted.HiddenSeries)
}
