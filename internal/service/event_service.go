package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"
	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/scheduler"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type eventRepository interface {
	FindByUID(ctx context.Context, uid string) (*models.EventInstance, error)
	List(ctx context.Context, userID string, filter models.EventFilter) ([]models.EventInstance, int, error)
	ListForPlanning(ctx context.Context, userID string) ([]models.EventInstance, error)
	CreateCustom(ctx context.Context, inst *models.EventInstance) error
	DeleteCustom(ctx context.Context, userID, uid string) error
}

// EventService exposes the event catalog and user-owned custom events.
type EventService struct {
	repo           eventRepository
	validator      *validator.Validate
	logger         *zap.Logger
	maxRecurrences int
}

// NewEventService constructs an EventService. maxRecurrences caps RRULE
// expansion for recurring custom events.
func NewEventService(repo eventRepository, validate *validator.Validate, logger *zap.Logger, maxRecurrences int) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if maxRecurrences <= 0 {
		maxRecurrences = 100
	}
	return &EventService{repo: repo, validator: validate, logger: logger, maxRecurrences: maxRecurrences}
}

// List returns the events visible to a user, filtered and paginated.
func (s *EventService) List(ctx context.Context, userID string, query dto.EventQuery) ([]models.EventInstance, *models.Pagination, error) {
	filter := models.EventFilter{
		Date:       query.Date,
		SeriesName: query.Series,
		UserID:     userID,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	events, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list events")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 200 {
		pageSize = 50
	}
	return events, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns a single event instance.
func (s *EventService) Get(ctx context.Context, uid string) (*models.EventInstance, error) {
	inst, err := s.repo.FindByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event")
	}
	return inst, nil
}

// CreateCustom stores a user-owned event. When an RRULE is supplied the
// event expands into a recurring custom series sharing one series id.
func (s *EventService) CreateCustom(ctx context.Context, userID string, req dto.CreateCustomEventRequest) ([]models.EventInstance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid custom event payload")
	}

	dates := []string{req.Date}
	if req.Recurrence != "" {
		expanded, err := s.expandRecurrence(req.Date, req.Recurrence)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid recurrence rule")
		}
		dates = expanded
	}

	var seriesID *string
	if len(dates) > 1 {
		id := uuid.NewString()
		seriesID = &id
	}

	created := make([]models.EventInstance, 0, len(dates))
	for _, date := range dates {
		inst := models.EventInstance{
			UID:          uuid.NewString(),
			SeriesName:   req.SeriesName,
			Date:         date,
			StartMinutes: req.StartMinutes,
			EndMinutes:   req.EndMinutes,
			Location:     req.Location,
			IsCustom:     true,
			SeriesID:     seriesID,
			OwnerID:      &userID,
		}
		if err := s.repo.CreateCustom(ctx, &inst); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create custom event")
		}
		created = append(created, inst)
	}

	s.logger.Info("custom event created",
		zap.String("user_id", userID),
		zap.String("series", req.SeriesName),
		zap.Int("instances", len(created)))
	return created, nil
}

// DeleteCustom removes a custom event owned by the user.
func (s *EventService) DeleteCustom(ctx context.Context, userID, uid string) error {
	if err := s.repo.DeleteCustom(ctx, userID, uid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "custom event not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete custom event")
	}
	return nil
}

// BuildCatalog loads every event visible to the user into an engine catalog.
func (s *EventService) BuildCatalog(ctx context.Context, userID string) (*scheduler.Catalog, error) {
	events, err := s.repo.ListForPlanning(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event catalog")
	}
	return scheduler.NewCatalog(events), nil
}

// expandRecurrence turns an RRULE string anchored on the first date into the
// list of voyage-day dates, capped by maxRecurrences.
func (s *EventService) expandRecurrence(startDate, rule string) ([]string, error) {
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, err
	}
	anchor, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = anchor

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}

	var dates []string
	iter := r.Iterator()
	for {
		next, ok := iter()
		if !ok || len(dates) >= s.maxRecurrences {
			break
		}
		dates = append(dates, next.Format("2006-01-02"))
	}
	if len(dates) == 0 {
		dates = append(dates, startDate)
	}
	return dates, nil
}
