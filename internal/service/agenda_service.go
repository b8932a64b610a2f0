package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/harborline/voyage-api/internal/models"
	"github.com/harborline/voyage-api/internal/scheduler"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
	"github.com/harborline/voyage-api/pkg/export"
)

type agendaAttendanceReader interface {
	List(ctx context.Context, userID string) ([]models.EventInstance, error)
}

type agendaCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// AgendaDay is one voyage day of the user's committed schedule.
type AgendaDay struct {
	Date   string        `json:"date"`
	Events []AgendaEntry `json:"events"`
}

// AgendaEntry annotates an attended instance with any overlaps the user
// sanctioned.
type AgendaEntry struct {
	models.EventInstance
	OverlapsWith []string `json:"overlaps_with,omitempty"`
}

// AgendaService renders the day-by-day agenda of attended events, with CSV
// and PDF exports.
type AgendaService struct {
	attendance agendaAttendanceReader
	cache      agendaCache
	csv        *export.CSVExporter
	pdf        *export.PDFExporter
	logger     *zap.Logger
	cacheTTL   time.Duration
}

// NewAgendaService constructs an AgendaService.
func NewAgendaService(attendance agendaAttendanceReader, cache agendaCache, logger *zap.Logger, cacheTTL time.Duration) *AgendaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &AgendaService{
		attendance: attendance,
		cache:      cache,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		logger:     logger,
		cacheTTL:   cacheTTL,
	}
}

// Build returns the agenda grouped per day, cached in redis.
func (s *AgendaService) Build(ctx context.Context, userID string) ([]AgendaDay, error) {
	key := fmt.Sprintf("agenda:%s", userID)
	if s.cache != nil {
		var cached []AgendaDay
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	events, err := s.attendance.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].StartMinutes != events[j].StartMinutes {
			return events[i].StartMinutes < events[j].StartMinutes
		}
		return events[i].UID < events[j].UID
	})

	byDate := make(map[string][]AgendaEntry)
	var dates []string
	for i := range events {
		entry := AgendaEntry{EventInstance: events[i]}
		for j := range events {
			if i == j || events[i].SeriesName == events[j].SeriesName {
				continue
			}
			if scheduler.Overlaps(&events[i], &events[j]) {
				entry.OverlapsWith = append(entry.OverlapsWith, events[j].SeriesName)
			}
		}
		if _, seen := byDate[events[i].Date]; !seen {
			dates = append(dates, events[i].Date)
		}
		byDate[events[i].Date] = append(byDate[events[i].Date], entry)
	}

	days := make([]AgendaDay, 0, len(dates))
	for _, date := range dates {
		days = append(days, AgendaDay{Date: date, Events: byDate[date]})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, days, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache agenda", zap.Error(err))
		}
	}
	return days, nil
}

// Export renders the agenda as csv or pdf bytes plus a content type.
func (s *AgendaService) Export(ctx context.Context, userID, format string) ([]byte, string, error) {
	days, err := s.Build(ctx, userID)
	if err != nil {
		return nil, "", err
	}

	headers := []string{"Time", "Event", "Location", "Overlaps"}
	switch format {
	case "", "csv":
		dataset := export.Dataset{Headers: []string{"Date", "Time", "Event", "Location", "Overlaps"}}
		for _, day := range days {
			for _, entry := range day.Events {
				dataset.Rows = append(dataset.Rows, map[string]string{
					"Date":     day.Date,
					"Time":     formatTimeRange(entry.StartMinutes, entry.EndMinutes),
					"Event":    entry.SeriesName,
					"Location": entry.Location,
					"Overlaps": joinOverlaps(entry.OverlapsWith),
				})
			}
		}
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv agenda")
		}
		return payload, "text/csv", nil

	case "pdf":
		dataset := export.SectionedDataset{Headers: headers}
		for _, day := range days {
			section := export.Section{Title: day.Date}
			for _, entry := range day.Events {
				section.Rows = append(section.Rows, map[string]string{
					"Time":     formatTimeRange(entry.StartMinutes, entry.EndMinutes),
					"Event":    entry.SeriesName,
					"Location": entry.Location,
					"Overlaps": joinOverlaps(entry.OverlapsWith),
				})
			}
			dataset.Sections = append(dataset.Sections, section)
		}
		payload, err := s.pdf.Render(dataset, "Voyage Agenda")
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf agenda")
		}
		return payload, "application/pdf", nil

	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}
}

func formatTimeRange(start, end int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", start/60, start%60, (end/60)%24, end%60)
}

func joinOverlaps(names []string) string {
	out := ""
	for i, name := range names {
		if i > 0 {
			out += "; "
		}
		out += name
	}
	return out
}
