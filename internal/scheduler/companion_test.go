package scheduler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/voyage-api/internal/models"
)

func TestCompanionResolveWindowBounds(t *testing.T) {
	resolver := NewCompanionResolver(nil)
	game := inst("bingo1", "Bingo with Straight Shooter", "2026-03-01", 840, 900)

	cases := []struct {
		name      string
		companion models.EventInstance
		want      bool
	}{
		{"ends exactly at start", inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840), true},
		{"ends at lookback limit", inst("cs2", "Bingo Card Sales", "2026-03-01", 660, 720), true},
		{"ends beyond lookback", inst("cs3", "Bingo Card Sales", "2026-03-01", 650, 719), false},
		{"ends after game start", inst("cs4", "Bingo Card Sales", "2026-03-01", 830, 860), false},
		{"different day", inst("cs5", "Bingo Card Sales", "2026-03-02", 780, 840), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			catalog := NewCatalog([]models.EventInstance{game, tc.companion})
			got := resolver.Resolve(catalog, &game)
			if tc.want {
				require.NotNil(t, got)
				assert.Equal(t, tc.companion.UID, got.UID)
			} else {
				assert.Nil(t, got)
			}
		})
	}
}

func TestCompanionResolvePicksLatestEnding(t *testing.T) {
	game := inst("bingo1", "Bingo with Straight Shooter", "2026-03-01", 840, 900)
	catalog := NewCatalog([]models.EventInstance{
		game,
		inst("early", "Bingo Card Sales", "2026-03-01", 720, 760),
		inst("late", "Bingo Card Sales", "2026-03-01", 780, 825),
	})

	got := NewCompanionResolver(nil).Resolve(catalog, &game)
	require.NotNil(t, got)
	assert.Equal(t, "late", got.UID)
}

func TestCompanionResolveIgnoresUnrelatedSeries(t *testing.T) {
	show := inst("show1", "Evening Show", "2026-03-01", 840, 900)
	catalog := NewCatalog([]models.EventInstance{
		show,
		inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840),
	})

	assert.Nil(t, NewCompanionResolver(nil).Resolve(catalog, &show))
}

func TestGreedyPlacesCompanionAtomically(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("bingo1", "Bingo with Straight Shooter", "2026-03-01", 840, 900),
		inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840),
	}, nil)

	s.Run([]string{"Bingo with Straight Shooter"}, false)

	require.Equal(t, StepPreview, s.Step)
	assert.True(t, s.isCommitted("bingo1"))
	assert.True(t, s.isCommitted("cs1"), "companion must be co-scheduled")
	assert.Equal(t, "cs1", s.companionLinks["bingo1"])
}

func TestGreedySkipsInstanceWhenCompanionIsBlocked(t *testing.T) {
	// The game slot itself is free but its card-sales companion collides with
	// an attended event. Neither half may be committed alone.
	s := newTestSession([]models.EventInstance{
		inst("bingo1", "Bingo with Straight Shooter", "2026-03-01", 840, 900),
		inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840),
		inst("spa1", "Spa Tour", "2026-03-01", 770, 810),
	}, []string{"spa1"})

	s.Run([]string{"Bingo with Straight Shooter"}, false)

	require.Equal(t, StepConflicts, s.Step)
	assert.False(t, s.isCommitted("bingo1"))
	assert.False(t, s.isCommitted("cs1"))
	require.Len(t, s.conflicts, 1)
	assert.Equal(t, "Bingo with Straight Shooter", s.conflicts[0].SeriesName)
}

func TestEvictRemovesLinkedCompanion(t *testing.T) {
	s := newTestSession([]models.EventInstance{
		inst("bingo1", "Bingo with Straight Shooter", "2026-03-01", 840, 900),
		inst("cs1", "Bingo Card Sales", "2026-03-01", 780, 840),
	}, nil)

	s.Run([]string{"Bingo with Straight Shooter"}, false)
	require.True(t, s.isCommitted("cs1"))

	s.evict("bingo1")

	assert.False(t, s.isCommitted("bingo1"))
	assert.False(t, s.isCommitted("cs1"), "an orphaned companion must not linger")
	assert.NotContains(t, s.companionLinks, "bingo1")
}

func TestLoadCompanionRules(t *testing.T) {
	t.Run("empty path yields built-ins", func(t *testing.T) {
		rules, err := LoadCompanionRules("")
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "Bingo with", rules[0].SeriesPrefix)
		assert.Equal(t, "Bingo Card Sales", rules[0].CompanionSeries)
		assert.Equal(t, 120, rules[0].LookbackMinutes)
	})

	t.Run("reads overrides from yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		doc := "rules:\n  - seriesPrefix: \"Trivia with\"\n    companionSeries: \"Trivia Sign-Up\"\n    lookbackMinutes: 30\n"
		require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

		rules, err := LoadCompanionRules(path)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, "Trivia with", rules[0].SeriesPrefix)
		assert.Equal(t, 30, rules[0].LookbackMinutes)
	})

	t.Run("rejects incomplete rules", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "rules.yaml")
		require.NoError(t, os.WriteFile(path, []byte("rules:\n  - seriesPrefix: \"Bingo with\"\n"), 0o600))

		_, err := LoadCompanionRules(path)
		assert.Error(t, err)
	})
}
