package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	ics "github.com/arran4/golang-ical"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/dto"
	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/scheduler"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/jobs"
)

type importEventRepository interface {
	UpsertBatch(ctx context.Context, events []models.EventInstance) error
}

// ImportService ingests machine-readable voyage schedules (JSON batches and
// iCalendar files) into the event catalog. Persistence runs on a background
// worker queue so large imports do not block the request.
type ImportService struct {
	repo      importEventRepository
	validator *validator.Validate
	logger    *zap.Logger
	queue     *jobs.Queue
	batchSize int
}

// NewImportService constructs an ImportService and its worker queue. Start
// must be called before imports are accepted.
func NewImportService(repo importEventRepository, validate *validator.Validate, logger *zap.Logger, workers, batchSize int) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if batchSize <= 0 {
		batchSize = 500
	}

	s := &ImportService{repo: repo, validator: validate, logger: logger, batchSize: batchSize}
	s.queue = jobs.NewQueue("schedule-import", s.handleBatch, jobs.QueueConfig{
		Workers: workers,
		Logger:  logger,
	})
	return s
}

// Start launches the import workers.
func (s *ImportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the import workers.
func (s *ImportService) Stop() {
	s.queue.Stop()
}

// ImportJSON validates a JSON schedule batch and enqueues it for upsert.
// Catalog uids are deterministic, so re-importing the same schedule is
// harmless.
func (s *ImportService) ImportJSON(ctx context.Context, req dto.ImportScheduleRequest) (*dto.ImportResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	result := &dto.ImportResult{}
	events := make([]models.EventInstance, 0, len(req.Events))
	for i, entry := range req.Events {
		if entry.EndMinutes <= entry.StartMinutes {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("entry %d: end must be after start", i))
			continue
		}
		events = append(events, models.EventInstance{
			UID:          scheduler.DeterministicUID(entry.Date, entry.SeriesName, entry.StartMinutes),
			SeriesName:   entry.SeriesName,
			Date:         entry.Date,
			StartMinutes: entry.StartMinutes,
			EndMinutes:   entry.EndMinutes,
			Location:     entry.Location,
		})
	}

	if err := s.enqueue(events); err != nil {
		return nil, err
	}
	result.Imported = len(events)
	s.logger.Info("schedule import accepted", zap.Int("events", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

// ImportICS parses an iCalendar stream and enqueues its events. All-day and
// zero-length entries are skipped; times are mapped to voyage-local dates and
// minutes since midnight.
func (s *ImportService) ImportICS(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid iCalendar payload")
	}

	result := &dto.ImportResult{}
	var events []models.EventInstance
	for _, ve := range cal.Events() {
		start, err := ve.GetStartAt()
		if err != nil {
			result.Skipped++
			continue
		}
		end, err := ve.GetEndAt()
		if err != nil || !end.After(start) {
			result.Skipped++
			continue
		}

		summary := ""
		if prop := ve.GetProperty(ics.ComponentPropertySummary); prop != nil {
			summary = strings.TrimSpace(prop.Value)
		}
		if summary == "" {
			result.Skipped++
			result.Errors = append(result.Errors, "event without summary skipped")
			continue
		}
		location := ""
		if prop := ve.GetProperty(ics.ComponentPropertyLocation); prop != nil {
			location = strings.TrimSpace(prop.Value)
		}

		date := start.Format("2006-01-02")
		startMinutes := start.Hour()*60 + start.Minute()
		// Events crossing midnight keep their start day; the end minute just
		// runs past 1440.
		endMinutes := startMinutes + int(end.Sub(start).Minutes())

		events = append(events, models.EventInstance{
			UID:          scheduler.DeterministicUID(date, summary, startMinutes),
			SeriesName:   summary,
			Date:         date,
			StartMinutes: startMinutes,
			EndMinutes:   endMinutes,
			Location:     location,
		})
	}

	if err := s.enqueue(events); err != nil {
		return nil, err
	}
	result.Imported = len(events)
	s.logger.Info("ics import accepted", zap.Int("events", result.Imported), zap.Int("skipped", result.Skipped))
	return result, nil
}

func (s *ImportService) enqueue(events []models.EventInstance) error {
	for start := 0; start < len(events); start += s.batchSize {
		end := start + s.batchSize
		if end > len(events) {
			end = len(events)
		}
		job := jobs.Job{
			ID:      uuid.NewString(),
			Type:    "upsert-events",
			Payload: events[start:end],
		}
		if err := s.queue.Enqueue(job); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "import queue unavailable")
		}
	}
	return nil
}

func (s *ImportService) handleBatch(ctx context.Context, job jobs.Job) error {
	batch, ok := job.Payload.([]models.EventInstance)
	if !ok {
		s.logger.Error("unexpected import payload", zap.String("job_id", job.ID))
		return nil
	}
	return s.repo.UpsertBatch(ctx, batch)
}
