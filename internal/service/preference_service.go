package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type preferenceRepository interface {
	Get(ctx context.Context, userID string) (*models.Preferences, error)
	Upsert(ctx context.Context, pref *models.Preferences) error
}

type preferenceCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

const preferenceCacheTTL = 10 * time.Minute

// PreferenceService manages the user's candidate-filtering preferences with a
// redis read-through cache.
type PreferenceService struct {
	repo   preferenceRepository
	cache  preferenceCache
	logger *zap.Logger
}

// NewPreferenceService constructs a PreferenceService.
func NewPreferenceService(repo preferenceRepository, cache preferenceCache, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{repo: repo, cache: cache, logger: logger}
}

// Get returns the user's preferences. Users without a stored row get an
// empty preference set, not an error.
func (s *PreferenceService) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	key := preferenceCacheKey(userID)
	if s.cache != nil {
		var cached models.Preferences
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	pref, err := s.repo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			pref = &models.Preferences{UserID: userID}
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load preferences")
		}
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, pref, preferenceCacheTTL); err != nil {
			s.logger.Warn("failed to cache preferences", zap.Error(err))
		}
	}
	return pref, nil
}

// Update merges the request into the stored preferences. Nil fields keep the
// stored value; empty slices clear it.
func (s *PreferenceService) Update(ctx context.Context, userID string, req dto.UpdatePreferencesRequest) (*models.Preferences, error) {
	pref, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	pref.UserID = userID

	if req.HiddenSeries != nil {
		pref.HiddenSeries = *req.HiddenSeries
	}
	if req.HiddenUIDs != nil {
		pref.HiddenUIDs = *req.HiddenUIDs
	}
	if req.BlacklistedSeries != nil {
		pref.BlacklistedSeries = *req.BlacklistedSeries
	}
	if req.OptionalSeries != nil {
		pref.OptionalSeries = *req.OptionalSeries
	}

	if err := s.repo.Upsert(ctx, pref); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save preferences")
	}
	s.Invalidate(ctx, userID)
	return pref, nil
}

// Invalidate drops the cached preferences, used after the schedule applier
// merges committed series into the hidden set.
func (s *PreferenceService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, preferenceCacheKey(userID)); err != nil {
		s.logger.Warn("failed to invalidate preference cache", zap.Error(err))
	}
}

func preferenceCacheKey(userID string) string {
	return fmt.Sprintf("preferences:%s", userID)
}
