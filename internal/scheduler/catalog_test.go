package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func TestDeterministicUID(t *testing.T) {
	a := DeterministicUID("2026-03-01", "Evening Show", 1200)
	b := DeterministicUID("2026-03-01", "Evening Show", 1200)
	c := DeterministicUID("2026-03-01", "Evening Show", 1230)

	assert.Equal(t, a, b, "identity must be stable across reloads")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 20)
}

func TestCatalogRegisterIsIdempotent(t *testing.T) {
	catalog := NewCatalog(nil)
	first := inst("s1", "Show", "2026-03-01", 1200, 1260)
	dupe := inst("s1", "Show", "2026-03-01", 1200, 1260)

	catalog.Register(&first)
	catalog.Register(&dupe)

	assert.Len(t, catalog.Series("Show"), 1)
	got, ok := catalog.Lookup("s1")
	require.True(t, ok)
	assert.Same(t, &first, got)
}

func TestCatalogSeriesChronologicalOrder(t *testing.T) {
	catalog := NewCatalog([]models.EventInstance{
		inst("s3", "Show", "2026-03-02", 600, 660),
		inst("s1", "Show", "2026-03-01", 1200, 1260),
		inst("s2", "Show", "2026-03-01", 1300, 1360),
	})

	series := catalog.Series("Show")
	require.Len(t, series, 3)
	assert.Equal(t, "s1", series[0].UID)
	assert.Equal(t, "s2", series[1].UID)
	assert.Equal(t, "s3", series[2].UID)
}

func TestCatalogSeriesAfter(t *testing.T) {
	catalog := NewCatalog([]models.EventInstance{
		inst("s1", "Show", "2026-03-01", 1200, 1260),
		inst("s2", "Show", "2026-03-02", 1200, 1260),
	})

	upcoming := catalog.SeriesAfter("Show", "2026-03-01", 1230)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "s2", upcoming[0].UID)
}
