package scheduler

import (
	"fmt"
	"strings"

	"github.com/harborline/voyage-api/internal/models"
)

// ChoiceAction is what the user decided for one unresolved series.
type ChoiceAction string

const (
	ChoiceSkip   ChoiceAction = "skip"
	ChoiceSelect ChoiceAction = "select"
)

// Choice is the user's decision for one unresolved series: skip it entirely
// or force a specific instance, optionally allowing its current overlaps.
type Choice struct {
	SeriesName   string
	Action       ChoiceAction
	UID          string
	AllowOverlap bool
}

// ConflictPair names two instances that still collide, in user terms.
type ConflictPair struct {
	SeriesName     string `json:"series_name"`
	UID            string `json:"uid"`
	WithSeriesName string `json:"with_series_name"`
	WithUID        string `json:"with_uid"`
	Date           string `json:"date"`
}

// ValidationError rejects a whole choice submission; nothing is applied.
type ValidationError struct {
	Message string
	Pairs   []ConflictPair
}

func (e *ValidationError) Error() string {
	if len(e.Pairs) == 0 {
		return e.Message
	}
	parts := make([]string, 0, len(e.Pairs))
	for _, p := range e.Pairs {
		parts = append(parts, fmt.Sprintf("%q conflicts with %q on %s", p.SeriesName, p.WithSeriesName, p.Date))
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// SubmitChoices validates and applies the user's per-series decisions. On
// validation failure the session state is untouched and the caller stays on
// the CONFLICTS step. On success, skips are recorded, forced placements are
// committed (displacing as needed), every displaced series is re-placed with
// the user's choices locked, and the session advances to PREVIEW unless new
// unresolved series appeared.
func (s *Session) SubmitChoices(choices []Choice) *ValidationError {
	if s.Step != StepConflicts {
		return &ValidationError{Message: "session is not awaiting conflict decisions"}
	}

	byName := make(map[string]Choice, len(choices))
	for _, choice := range choices {
		if _, dup := byName[choice.SeriesName]; dup {
			return &ValidationError{Message: fmt.Sprintf("duplicate choice for series %q", choice.SeriesName)}
		}
		byName[choice.SeriesName] = choice
	}
	selected := make(map[string]*models.EventInstance)
	for _, entry := range s.conflicts {
		choice, ok := byName[entry.SeriesName]
		if !ok {
			return &ValidationError{Message: fmt.Sprintf("missing choice for series %q", entry.SeriesName)}
		}
		switch choice.Action {
		case ChoiceSkip:
		case ChoiceSelect:
			inst := findInstance(entry.Instances, choice.UID)
			if inst == nil {
				return &ValidationError{Message: fmt.Sprintf("uid %q is not a candidate of series %q", choice.UID, entry.SeriesName)}
			}
			selected[entry.SeriesName] = inst
		default:
			return &ValidationError{Message: fmt.Sprintf("unknown action %q for series %q", choice.Action, entry.SeriesName)}
		}
	}
	if len(byName) != len(s.conflicts) {
		return &ValidationError{Message: "choices reference series that are not unresolved"}
	}

	if verr := s.validateChoices(byName, selected); verr != nil {
		return verr
	}

	// Valid: capture the pre-resolution state for Back, then apply.
	s.snapshot = s.takeSnapshot()

	lockedPass := copySet(s.locked)
	for _, inst := range selected {
		lockedPass[inst.UID] = struct{}{}
	}

	var displaced []*models.EventInstance
	for _, entry := range append([]ConflictEntry(nil), s.conflicts...) {
		choice := byName[entry.SeriesName]
		if choice.Action == ChoiceSkip {
			s.skipped = append(s.skipped, entry.SeriesName)
			s.dropConflict(entry.SeriesName)
			continue
		}
		inst := selected[entry.SeriesName]
		displaced = append(displaced, s.forcePlace(inst, choice.AllowOverlap)...)
		s.locked[inst.UID] = struct{}{}
		s.dropConflict(entry.SeriesName)
	}

	// Re-place everything the user's choices bumped, with those choices
	// locked for this pass so the algorithm cannot immediately re-conflict
	// with what the user just fixed. Failures register new ConflictEntries.
	for _, blocker := range uniqueSeriesConflicts(displaced) {
		if s.seriesCommitted(blocker.SeriesName) {
			continue
		}
		s.tryPlace(blocker.SeriesName, lockedPass, 1, nil)
	}

	if len(s.conflicts) == 0 {
		s.Step = StepPreview
	} else {
		s.Step = StepConflicts
	}
	return nil
}

// validateChoices recomputes conflicts for every non-skip, non-overlap
// choice. A conflict blocks when the colliding instance is locked (attended
// choices from this submission or earlier ones) or when its series has no
// alternative slot to be displaced into. Any blocking pair rejects the whole
// submission.
func (s *Session) validateChoices(byName map[string]Choice, selected map[string]*models.EventInstance) *ValidationError {
	var pairs []ConflictPair

	for series, inst := range selected {
		if byName[series].AllowOverlap {
			continue
		}
		lockedView := copySet(s.locked)
		for otherSeries, other := range selected {
			if otherSeries != series {
				lockedView[other.UID] = struct{}{}
			}
		}

		for _, c := range s.conflictsFor(inst, nil) {
			blocking := false
			if _, ok := lockedView[c.UID]; ok {
				blocking = true
			} else if !s.canDisplace(c.SeriesName, c.UID, lockedView) {
				blocking = true
			}
			if blocking {
				pairs = append(pairs, conflictPair(inst, c))
			}
		}

		// Choices collide with each other directly.
		for otherSeries, other := range selected {
			if otherSeries == series || byName[otherSeries].AllowOverlap {
				continue
			}
			if series < otherSeries && Overlaps(inst, other) {
				pairs = append(pairs, conflictPair(inst, other))
			}
		}
	}

	if len(pairs) > 0 {
		return &ValidationError{Message: "choices still conflict", Pairs: pairs}
	}
	return nil
}

// forcePlace commits the user's chosen instance. With allowOverlap the
// current conflicts are recorded as user-sanctioned pairs and nothing is
// displaced; otherwise every conflicting committed instance is evicted and
// returned so the caller can re-place its series.
func (s *Session) forcePlace(inst *models.EventInstance, allowOverlap bool) []*models.EventInstance {
	companion := s.companions.Resolve(s.catalog, inst)

	conflicts := s.conflictsFor(inst, nil)
	if companion != nil && !s.isCommitted(companion.UID) {
		ignore := map[string]struct{}{inst.UID: {}}
		conflicts = mergeInstances(conflicts, s.conflictsFor(companion, ignore))
	}

	if allowOverlap {
		for _, c := range conflicts {
			s.allowedOverlaps[pairKey(inst.UID, c.UID)] = struct{}{}
		}
		s.commit(inst, companion)
		return nil
	}

	for _, c := range conflicts {
		s.evict(c.UID)
	}
	s.commit(inst, companion)
	return conflicts
}

func (s *Session) seriesCommitted(series string) bool {
	committed := false
	s.eachCommitted(func(uid string) {
		if committed {
			return
		}
		if inst, ok := s.catalog.Lookup(uid); ok && inst.SeriesName == series {
			committed = true
		}
	})
	return committed
}

func findInstance(instances []*models.EventInstance, uid string) *models.EventInstance {
	for _, inst := range instances {
		if inst.UID == uid {
			return inst
		}
	}
	return nil
}

func conflictPair(a, b *models.EventInstance) ConflictPair {
	return ConflictPair{
		SeriesName:     a.SeriesName,
		UID:            a.UID,
		WithSeriesName: b.SeriesName,
		WithUID:        b.UID,
		Date:           a.Date,
	}
}
