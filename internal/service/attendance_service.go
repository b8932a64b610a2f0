package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/models"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type attendanceRepository interface {
	ListUIDs(ctx context.Context, userID string) ([]string, error)
	Add(ctx context.Context, userID, uid string) error
	Remove(ctx context.Context, userID, uid string) error
}

type attendanceEventRepository interface {
	FindByUID(ctx context.Context, uid string) (*models.EventInstance, error)
}

// AttendanceService manages the direct attendance toggle, outside the
// scheduling engine.
type AttendanceService struct {
	repo   attendanceRepository
	events attendanceEventRepository
	logger *zap.Logger
}

// NewAttendanceService constructs an AttendanceService.
func NewAttendanceService(repo attendanceRepository, events attendanceEventRepository, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{repo: repo, events: events, logger: logger}
}

// List resolves the user's attendance set to event instances. Dangling uids
// whose event no longer exists are silently dropped.
func (s *AttendanceService) List(ctx context.Context, userID string) ([]models.EventInstance, error) {
	uids, err := s.repo.ListUIDs(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}

	out := make([]models.EventInstance, 0, len(uids))
	for _, uid := range uids {
		inst, err := s.events.FindByUID(ctx, uid)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve attendance")
		}
		out = append(out, *inst)
	}
	return out, nil
}

// Add marks an existing event as attended.
func (s *AttendanceService) Add(ctx context.Context, userID, uid string) error {
	if _, err := s.events.FindByUID(ctx, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	if err := s.repo.Add(ctx, userID, uid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add attendance")
	}
	return nil
}

// Remove unmarks an event. Removing an absent uid succeeds silently.
func (s *AttendanceService) Remove(ctx context.Context, userID, uid string) error {
	if err := s.repo.Remove(ctx, userID, uid); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove attendance")
	}
	return nil
}
