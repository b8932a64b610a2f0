package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
	appErrors "github.com/harborline/voyage-api/pkg/errors"
)

type fakeAgendaAttendance struct {
	events []models.EventInstance
}

func (f *fakeAgendaAttendance) List(ctx context.Context, userID string) ([]models.EventInstance, error) {
	return f.events, nil
}

func TestAgendaBuildGroupsByDay(t *testing.T) {
	svc := NewAgendaService(&fakeAgendaAttendance{events: []models.EventInstance{
		{UID: "b1", SeriesName: "Bingo", Date: "2026-03-02", StartMinutes: 600, EndMinutes: 660},
		{UID: "s1", SeriesName: "Show", Date: "2026-03-01", StartMinutes: 1200, EndMinutes: 1290},
		{UID: "t1", SeriesName: "Trivia", Date: "2026-03-01", StartMinutes: 600, EndMinutes: 660},
	}}, nil, nil, time.Minute)

	days, err := svc.Build(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, days, 2)

	assert.Equal(t, "2026-03-01", days[0].Date)
	require.Len(t, days[0].Events, 2)
	assert.Equal(t, "Trivia", days[0].Events[0].SeriesName)
	assert.Equal(t, "Show", days[0].Events[1].SeriesName)

	assert.Equal(t, "2026-03-02", days[1].Date)
	require.Len(t, days[1].Events, 1)
}

func TestAgendaBuildAnnotatesOverlaps(t *testing.T) {
	svc := NewAgendaService(&fakeAgendaAttendance{events: []models.EventInstance{
		{UID: "t1", SeriesName: "Trivia", Date: "2026-03-01", StartMinutes: 600, EndMinutes: 660},
		{UID: "k1", SeriesName: "Karaoke", Date: "2026-03-01", StartMinutes: 630, EndMinutes: 690},
	}}, nil, nil, time.Minute)

	days, err := svc.Build(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, days, 1)

	assert.Equal(t, []string{"Karaoke"}, days[0].Events[0].OverlapsWith)
	assert.Equal(t, []string{"Trivia"}, days[0].Events[1].OverlapsWith)
}

func TestAgendaExportCSV(t *testing.T) {
	svc := NewAgendaService(&fakeAgendaAttendance{events: []models.EventInstance{
		{UID: "t1", SeriesName: "Trivia", Date: "2026-03-01", StartMinutes: 600, EndMinutes: 660, Location: "Deck 5"},
	}}, nil, nil, time.Minute)

	payload, contentType, err := svc.Export(context.Background(), "user-1", "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", contentType)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Time,Event,Location,Overlaps", lines[0])
	assert.Equal(t, "2026-03-01,10:00-11:00,Trivia,Deck 5,", lines[1])
}

func TestAgendaExportPDF(t *testing.T) {
	svc := NewAgendaService(&fakeAgendaAttendance{events: []models.EventInstance{
		{UID: "t1", SeriesName: "Trivia", Date: "2026-03-01", StartMinutes: 600, EndMinutes: 660},
	}}, nil, nil, time.Minute)

	payload, contentType, err := svc.Export(context.Background(), "user-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasPrefix(string(payload), "%PDF"))
}

func TestAgendaExportRejectsUnknownFormat(t *testing.T) {
	svc := NewAgendaService(&fakeAgendaAttendance{}, nil, nil, time.Minute)

	_, _, err := svc.Export(context.Background(), "user-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
