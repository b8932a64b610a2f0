package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func TestSubmitChoicesAllowOverlapKeepsBoth(t *testing.T) {
	// Spec scenario: the user forces instance x1 with "allow overlap"
	// against its sole conflict y1. Both stay, and the pair is excepted
	// from further conflict detection.
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 630, 690),
		inst("y1", "Y", "2026-03-01", 600, 660),
	}, []string{"y1"})

	s.Run([]string{"X"}, false)
	require.Equal(t, StepConflicts, s.Step)

	verr := s.SubmitChoices([]Choice{{SeriesName: "X", Action: ChoiceSelect, UID: "x1", AllowOverlap: true}})
	require.Nil(t, verr)
	require.Equal(t, StepPreview, s.Step)

	assert.True(t, s.isCommitted("x1"))
	assert.True(t, s.isCommitted("y1"), "allow-overlap must not displace the existing event")
	assert.Empty(t, s.removed)

	x1, _ := s.catalog.Lookup("x1")
	assert.Empty(t, s.conflictsFor(x1, nil), "sanctioned pair is excepted")

	diff, final, ok := s.Apply()
	require.True(t, ok)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "x1", diff.Added[0].UID)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, []string{"x1", "y1"}, final)
}

func TestSubmitChoicesRejectsResidualConflicts(t *testing.T) {
	// Y cannot be displaced (single instance), so selecting x1 without the
	// overlap override must reject the whole submission and mutate nothing.
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 630, 690),
		inst("y1", "Y", "2026-03-01", 600, 660),
	}, []string{"y1"})

	s.Run([]string{"X"}, false)
	require.Equal(t, StepConflicts, s.Step)

	verr := s.SubmitChoices([]Choice{{SeriesName: "X", Action: ChoiceSelect, UID: "x1"}})
	require.NotNil(t, verr)
	require.Len(t, verr.Pairs, 1)
	assert.Equal(t, "X", verr.Pairs[0].SeriesName)
	assert.Equal(t, "Y", verr.Pairs[0].WithSeriesName)
	assert.Contains(t, verr.Error(), "Y")

	assert.Equal(t, StepConflicts, s.Step, "validation failure blocks progress")
	assert.False(t, s.isCommitted("x1"))
	assert.Empty(t, s.skipped)
}

func TestSubmitChoicesRejectsCollidingSelections(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("b1", "B", "2026-03-01", 600, 660),
		inst("z1", "Z", "2026-03-01", 600, 660),
	}, []string{"z1"})

	s.Run([]string{"A", "B"}, false)
	require.Equal(t, StepConflicts, s.Step)
	require.Len(t, s.conflicts, 2)

	verr := s.SubmitChoices([]Choice{
		{SeriesName: "A", Action: ChoiceSelect, UID: "a1", AllowOverlap: true},
		{SeriesName: "B", Action: ChoiceSelect, UID: "b1"},
	})
	require.NotNil(t, verr)
	assert.NotEmpty(t, verr.Pairs)
}

func TestSubmitChoicesDisplacesAndReplacesBlocker(t *testing.T) {
	// The user forces x1; attended f1 is bumped and re-placed on its
	// alternative slot, with the user's choice locked for that pass.
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 600, 660),
		inst("f1", "F", "2026-03-01", 630, 690),
		inst("f2", "F", "2026-03-02", 630, 690),
	}, []string{"f1"})

	s.Run([]string{"X"}, false)
	require.Equal(t, StepConflicts, s.Step)

	verr := s.SubmitChoices([]Choice{{SeriesName: "X", Action: ChoiceSelect, UID: "x1"}})
	require.Nil(t, verr)
	require.Equal(t, StepPreview, s.Step)

	assert.Equal(t, []string{"f2", "x1"}, committedSet(s))

	diff, _, ok := s.Apply()
	require.True(t, ok)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "f1", diff.Removed[0].UID)
}

func TestSubmitChoicesDisplacementFailureReturnsToConflicts(t *testing.T) {
	// Bumping G leaves it nowhere to go, so it surfaces as a new
	// unresolved series and the session stays on CONFLICTS.
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 600, 660),
		inst("x2", "X", "2026-03-01", 630, 690),
		inst("g1", "G", "2026-03-01", 610, 650),
		inst("g2", "G", "2026-03-01", 615, 655),
	}, []string{"g1"})

	s.Run([]string{"X"}, false)
	require.Equal(t, StepConflicts, s.Step)

	verr := s.SubmitChoices([]Choice{{SeriesName: "X", Action: ChoiceSelect, UID: "x1"}})
	require.Nil(t, verr, "g2 passes the one-level lookahead")
	require.Equal(t, StepConflicts, s.Step)

	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "G", s.conflicts[0].SeriesName)
	assert.True(t, s.isCommitted("x1"), "the user's choice stands")
	assert.False(t, s.isCommitted("g1"))
}

func TestSubmitChoicesRequiresDecisionPerSeries(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("b1", "B", "2026-03-01", 600, 660),
		inst("z1", "Z", "2026-03-01", 600, 660),
	}, []string{"z1"})

	s.Run([]string{"A", "B"}, false)
	require.Len(t, s.conflicts, 2)

	verr := s.SubmitChoices([]Choice{{SeriesName: "A", Action: ChoiceSkip}})
	require.NotNil(t, verr)
	assert.Contains(t, verr.Error(), "missing choice")
}

func TestBackRestoresPreResolutionState(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 630, 690),
		inst("y1", "Y", "2026-03-01", 600, 660),
	}, []string{"y1"})

	s.Run([]string{"X"}, false)
	require.Equal(t, StepConflicts, s.Step)

	verr := s.SubmitChoices([]Choice{{SeriesName: "X", Action: ChoiceSelect, UID: "x1", AllowOverlap: true}})
	require.Nil(t, verr)
	require.Equal(t, StepPreview, s.Step)

	require.True(t, s.Back())
	assert.Equal(t, StepConflicts, s.Step)
	assert.False(t, s.isCommitted("x1"))
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "X", s.conflicts[0].SeriesName)

	assert.False(t, s.Back(), "nothing further to go back to")
}

func TestRescheduleSessionNeverAutoPlaces(t *testing.T) {
	// A conflict-free slot exists, yet the reschedule flow must still route
	// the series through the CONFLICTS step.
	catalog := NewCatalog([]models.EventInstance{
		inst("show1", "Show", "2026-03-01", 1200, 1290),
		inst("show2", "Show", "2026-03-02", 1200, 1290),
	})

	s, ok := NewRescheduleSession("sess-2", "user-1", "show1", Config{
		Catalog:    catalog,
		Attendance: []string{"show1"},
	})
	require.True(t, ok)
	require.Equal(t, StepConflicts, s.Step)
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "Show", s.conflicts[0].SeriesName)
	assert.False(t, s.isCommitted("show2"))

	verr := s.SubmitChoices([]Choice{{SeriesName: "Show", Action: ChoiceSelect, UID: "show2"}})
	require.Nil(t, verr)
	require.Equal(t, StepPreview, s.Step)

	diff, final, applied := s.Apply()
	require.True(t, applied)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "show2", diff.Added[0].UID)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "show1", diff.Removed[0].UID)
	assert.Equal(t, []string{"show2"}, final, "full takeover: old slot gone, new slot in")
}

func TestRescheduleSessionUnknownTarget(t *testing.T) {
	_, ok := NewRescheduleSession("sess-2", "user-1", "ghost", Config{Catalog: NewCatalog(nil)})
	assert.False(t, ok)
}
