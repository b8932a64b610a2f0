package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func inst(uid, series, date string, start, end int) models.EventInstance {
	return models.EventInstance{UID: uid, SeriesName: series, Date: date, StartMinutes: start, EndMinutes: end}
}

func newTestSession(instances []models.EventInstance, attendance []string) *Session {
	return NewSession("sess-1", "user-1", Config{
		Catalog:    NewCatalog(instances),
		Attendance: attendance,
	})
}

func TestOverlaps(t *testing.T) {
	a := inst("a", "A", "2026-03-01", 600, 660)

	sameDay := inst("b", "B", "2026-03-01", 630, 690)
	otherDay := inst("c", "C", "2026-03-02", 600, 660)
	touching := inst("d", "D", "2026-03-01", 660, 720)

	assert.True(t, Overlaps(&a, &sameDay))
	assert.True(t, Overlaps(&sameDay, &a), "overlap must be symmetric")
	assert.False(t, Overlaps(&a, &otherDay))
	assert.False(t, Overlaps(&a, &touching), "touching endpoints do not conflict")
}

func TestGreedyMostConstrainedFirst(t *testing.T) {
	// Series A has two instances, B has one. B is placed first; both A
	// instances then collide with it, so A becomes a conflict entry.
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("a2", "A", "2026-03-01", 630, 690),
		inst("b1", "B", "2026-03-01", 600, 660),
	}, nil)

	s.Run([]string{"A", "B"}, false)

	require.Equal(t, StepConflicts, s.Step)
	assert.True(t, s.isCommitted("b1"))
	assert.False(t, s.isCommitted("a1"))
	assert.False(t, s.isCommitted("a2"))
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "A", s.conflicts[0].SeriesName)
	assert.Len(t, s.conflicts[0].Instances, 2)
}

func TestGreedyAtMostOneInstancePerSeries(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("s1", "Show", "2026-03-01", 1200, 1260),
		inst("s2", "Show", "2026-03-02", 1200, 1260),
		inst("s3", "Show", "2026-03-03", 1200, 1260),
	}, nil)

	s.Run(nil, false)

	require.Equal(t, StepPreview, s.Step)
	committed := 0
	for _, uid := range []string{"s1", "s2", "s3"} {
		if s.isCommitted(uid) {
			committed++
		}
	}
	assert.Equal(t, 1, committed)
	assert.True(t, s.isCommitted("s1"), "chronological scan picks the first free instance")
}

func TestGreedyCompanionDoesNotDoubleBookCompanionSeries(t *testing.T) {
	// Committing the bingo game co-commits its same-day card sale. The card
	// sale series then already has its one instance; the separately built
	// "Bingo Card Sales" group must not add the other day's slot on top.
	s := newTestSession([]models.EventInstance{
		inst("bingo2", "Bingo with Brooke", "2026-03-02", 840, 900),
		inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840),
		inst("cs2", "Bingo Card Sales", "2026-03-02", 780, 840),
	}, nil)

	s.Run(nil, false)

	require.Equal(t, StepPreview, s.Step)
	assert.True(t, s.isCommitted("bingo2"))
	assert.True(t, s.isCommitted("cs2"), "same-day companion commits atomically")
	assert.False(t, s.isCommitted("cs1"), "companion series already has its instance")

	_, final, ok := s.Apply()
	require.True(t, ok)
	sales := 0
	for _, uid := range final {
		if i, found := s.catalog.Lookup(uid); found && i.SeriesName == "Bingo Card Sales" {
			sales++
		}
	}
	assert.Equal(t, 1, sales)
}

func TestGreedySkipsBlacklistedHiddenOptionalAndAttended(t *testing.T) {
	s := NewSession("sess-1", "user-1", Config{
		Catalog: NewCatalog([]models.EventInstance{
			inst("bl1", "Blacklisted", "2026-03-01", 600, 660),
			inst("hd1", "Hidden", "2026-03-01", 700, 760),
			inst("op1", "Optional", "2026-03-01", 800, 860),
			inst("at1", "Attended", "2026-03-01", 900, 960),
			inst("at2", "Attended", "2026-03-02", 900, 960),
			inst("ok1", "Wanted", "2026-03-01", 1000, 1060),
		}),
		Attendance:        []string{"at1"},
		HiddenSeries:      []string{"Hidden"},
		BlacklistedSeries: []string{"Blacklisted"},
		OptionalSeries:    []string{"Optional"},
	})

	s.Run(nil, false)

	require.Equal(t, StepPreview, s.Step)
	assert.True(t, s.isCommitted("ok1"))
	assert.False(t, s.isCommitted("bl1"))
	assert.False(t, s.isCommitted("hd1"))
	assert.False(t, s.isCommitted("op1"))
	assert.False(t, s.isCommitted("at2"), "series already attended must not gain a second instance")
}

func TestGreedyIncludeOptional(t *testing.T) {
	s := NewSession("sess-1", "user-1", Config{
		Catalog: NewCatalog([]models.EventInstance{
			inst("op1", "Optional", "2026-03-01", 800, 860),
		}),
		OptionalSeries: []string{"Optional"},
	})

	s.Run(nil, true)

	assert.True(t, s.isCommitted("op1"))
}

func TestCandidateInstancesHonourCursor(t *testing.T) {
	s := NewSession("sess-1", "user-1", Config{
		Catalog: NewCatalog([]models.EventInstance{
			inst("p1", "Party", "2026-03-01", 600, 660),
			inst("p2", "Party", "2026-03-02", 600, 660),
		}),
		Now: &Cursor{Date: "2026-03-01", Minute: 700},
	})

	candidates := s.candidateInstances("Party")
	require.Len(t, candidates, 1)
	assert.Equal(t, "p2", candidates[0].UID)
}

func TestApplyDiffAndIdempotence(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("w1", "Wanted", "2026-03-01", 600, 660),
	}, nil)

	s.Run(nil, false)
	require.Equal(t, StepPreview, s.Step)

	diff, final, ok := s.Apply()
	require.True(t, ok)
	require.Len(t, diff.Added, 1)
	assert.Equal(t, "w1", diff.Added[0].UID)
	assert.Empty(t, diff.Removed)
	assert.Equal(t, []string{"w1"}, final)
	assert.Equal(t, []string{"Wanted"}, s.CommittedSeries())

	_, _, ok = s.Apply()
	assert.False(t, ok, "second apply must be a no-op")
}

func TestSkipEverythingCommitsEmptyAddition(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("b1", "B", "2026-03-01", 600, 660),
	}, nil)

	s.Run(nil, false)
	require.Equal(t, StepConflicts, s.Step)
	require.Len(t, s.conflicts, 1)
	blocked := s.conflicts[0].SeriesName

	verr := s.SubmitChoices([]Choice{{SeriesName: blocked, Action: ChoiceSkip}})
	require.Nil(t, verr)
	require.Equal(t, StepPreview, s.Step)

	diff, _, ok := s.Apply()
	require.True(t, ok)
	assert.Equal(t, []string{blocked}, diff.Skipped)
}

func TestNoOverlapInvariantAfterApply(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("a2", "A", "2026-03-01", 700, 760),
		inst("b1", "B", "2026-03-01", 600, 660),
		inst("c1", "C", "2026-03-01", 640, 720),
		inst("c2", "C", "2026-03-02", 640, 720),
	}, nil)

	s.Run(nil, false)
	if s.Step == StepConflicts {
		choices := make([]Choice, 0, len(s.conflicts))
		for _, entry := range s.conflicts {
			choices = append(choices, Choice{SeriesName: entry.SeriesName, Action: ChoiceSkip})
		}
		require.Nil(t, s.SubmitChoices(choices))
	}

	_, final, ok := s.Apply()
	require.True(t, ok)

	catalog := s.catalog
	for i := 0; i < len(final); i++ {
		for j := i + 1; j < len(final); j++ {
			a, _ := catalog.Lookup(final[i])
			b, _ := catalog.Lookup(final[j])
			if a.SeriesName == b.SeriesName {
				continue
			}
			assert.False(t, Overlaps(a, b), "%s and %s overlap", a.UID, b.UID)
		}
	}
}

func TestRenderConflictsIncludesOpportunityCost(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("a1", "A", "2026-03-01", 600, 660),
		inst("b1", "B", "2026-03-01", 600, 660),
		inst("c1", "C", "2026-03-01", 600, 660),
	}, nil)

	s.Run(nil, false)
	require.Equal(t, StepConflicts, s.Step)
	// A is committed (alphabetical tie-break), B and C stay unresolved.
	require.Len(t, s.conflicts, 2)

	model := s.Render()
	require.Len(t, model.Conflicts, 2)
	for _, view := range model.Conflicts {
		require.Len(t, view.Candidates, 1)
		var committedHits, pendingHits int
		for _, ann := range view.Candidates[0].Conflicts {
			if ann.Pending {
				pendingHits++
			} else {
				committedHits++
			}
		}
		assert.Equal(t, 1, committedHits, "conflict with the committed A instance")
		assert.Equal(t, 1, pendingHits, "opportunity-cost conflict with the other unresolved series")
	}
}
