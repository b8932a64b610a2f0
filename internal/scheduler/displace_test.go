package scheduler

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func committedSet(s *Session) []string {
	var out []string
	s.eachCommitted(func(uid string) { out = append(out, uid) })
	sort.Strings(out)
	return out
}

func TestTryPlaceDisplacesMovableBlocker(t *testing.T) {
	// F is attended at 10:30 but has a free alternative the next day, so
	// placing E displaces F and re-places it there.
	s := newTestSession([]models.EventInstance{
		inst("e1", "E", "2026-03-01", 600, 660),
		inst("f1", "F", "2026-03-01", 630, 690),
		inst("f2", "F", "2026-03-02", 630, 690),
	}, []string{"f1"})

	ok := s.tryPlace("E", map[string]struct{}{}, 0, nil)

	require.True(t, ok)
	assert.Equal(t, []string{"e1", "f2"}, committedSet(s))
	assert.Contains(t, s.removed, "f1")
	assert.Empty(t, s.conflicts)
}

func TestTryPlaceFailsWhenBlockerHasNoAlternative(t *testing.T) {
	// Spec scenario: C 09:00-10:00 attended, D 09:30-10:30 requested with no
	// alternative. C has a single instance so it cannot be displaced.
	s := newTestSession([]models.EventInstance{
		inst("c1", "C", "2026-03-01", 540, 600),
		inst("d1", "D", "2026-03-01", 570, 630),
	}, []string{"c1"})

	ok := s.tryPlace("D", map[string]struct{}{}, 0, nil)

	require.False(t, ok)
	assert.Equal(t, []string{"c1"}, committedSet(s), "attendance unchanged")
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "D", s.conflicts[0].SeriesName)
}

func TestTryPlaceRespectsLockedSet(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("e1", "E", "2026-03-01", 600, 660),
		inst("f1", "F", "2026-03-01", 630, 690),
		inst("f2", "F", "2026-03-02", 630, 690),
	}, []string{"f1"})

	ok := s.tryPlace("E", map[string]struct{}{"f1": {}}, 0, nil)

	require.False(t, ok, "a locked blocker aborts the branch")
	assert.Equal(t, []string{"f1"}, committedSet(s))
}

func TestTryPlaceBacktrackingRestoresState(t *testing.T) {
	// canDisplace approves moving F (f2 looks free of the locked set), but
	// the recursive re-place of F then fails: f1 now conflicts with the
	// locked e1 and f2 conflicts with G, which has no alternative. The
	// failed branch must restore membership exactly.
	s := newTestSession([]models.EventInstance{
		inst("e1", "E", "2026-03-01", 600, 660),
		inst("f1", "F", "2026-03-01", 630, 690),
		inst("f2", "F", "2026-03-01", 660, 720),
		inst("g1", "G", "2026-03-01", 660, 720),
	}, []string{"f1", "g1"})

	before := committedSet(s)

	ok := s.tryPlace("E", map[string]struct{}{}, 0, nil)

	require.False(t, ok)
	assert.Equal(t, before, committedSet(s), "failed displacement must restore the committed set")
	assert.Empty(t, s.removed)
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "E", s.conflicts[0].SeriesName)
}

func TestTryPlaceDepthGuard(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 600, 660),
	}, nil)

	ok := s.tryPlace("X", map[string]struct{}{}, s.maxDepth+1, nil)

	require.False(t, ok)
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "X", s.conflicts[0].SeriesName)
	assert.False(t, s.isCommitted("x1"))
}

func TestRegisterConflictIsIdempotent(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("x1", "X", "2026-03-01", 600, 660),
	}, nil)

	candidates := s.candidateInstances("X")
	s.registerConflict("X", candidates)
	s.registerConflict("X", candidates)

	assert.Len(t, s.conflicts, 1)
}

func TestFindAlternativeMovesToFreeSlot(t *testing.T) {
	catalog := NewCatalog([]models.EventInstance{
		inst("show1", "Show", "2026-03-01", 1200, 1290),
		inst("show2", "Show", "2026-03-02", 1200, 1290),
		inst("other1", "Other", "2026-03-02", 1230, 1320),
	})

	result, final := FindAlternative("show1", "user-1", Config{
		Catalog:    catalog,
		Attendance: []string{"show1"},
	})

	require.True(t, result.Success)
	assert.Equal(t, "show2", result.NewUID)
	require.Len(t, result.Diff.Added, 1)
	require.Len(t, result.Diff.Removed, 1)
	assert.Equal(t, "show2", result.Diff.Added[0].UID)
	assert.Equal(t, "show1", result.Diff.Removed[0].UID)
	assert.Equal(t, []string{"show2"}, final)
}

func TestFindAlternativeRefusesDisplacement(t *testing.T) {
	// The only alternative slot collides with another committed event.
	// Silent displacement never happens on the quick path.
	catalog := NewCatalog([]models.EventInstance{
		inst("show1", "Show", "2026-03-01", 1200, 1290),
		inst("show2", "Show", "2026-03-02", 1200, 1290),
		inst("other1", "Other", "2026-03-02", 1230, 1320),
	})

	result, final := FindAlternative("show1", "user-1", Config{
		Catalog:    catalog,
		Attendance: []string{"show1", "other1"},
	})

	require.False(t, result.Success)
	assert.Empty(t, result.NewUID)
	assert.NotEmpty(t, result.Message)
	assert.Nil(t, final, "nothing is applied on refusal")
}

func TestFindAlternativeUnknownUID(t *testing.T) {
	result, _ := FindAlternative("ghost", "user-1", Config{Catalog: NewCatalog(nil)})
	require.False(t, result.Success)
}
