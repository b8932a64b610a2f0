package scheduler

import "github.com/harborline/voyage-api/internal/models"

// tryPlace attempts to force-place one instance of the series. When no
// candidate is immediately free it displaces conflicting committed instances
// and recursively re-places each displaced series elsewhere, bounded by the
// depth guard and fully backtracked on failure. Returns false and registers
// a ConflictEntry when the series cannot be placed.
func (s *Session) tryPlace(series string, locked map[string]struct{}, depth int, filter func(*models.EventInstance) bool) bool {
	candidates := s.candidateInstances(series)

	if depth > s.maxDepth {
		// Depth exhaustion degrades to asking the user, same as unplaceable.
		s.registerConflict(series, candidates)
		return false
	}

	for _, inst := range candidates {
		if filter != nil && !filter(inst) {
			continue
		}
		if s.isCommitted(inst.UID) {
			s.dropConflict(series)
			return true
		}

		companion := s.companions.Resolve(s.catalog, inst)
		conflicts := s.conflictsFor(inst, nil)
		if companion != nil && !s.isCommitted(companion.UID) {
			ignore := map[string]struct{}{inst.UID: {}}
			conflicts = mergeInstances(conflicts, s.conflictsFor(companion, ignore))
		}

		if len(conflicts) == 0 {
			if s.Mode == ModeReschedule && depth == 0 && series == s.targetSeries() {
				// Rescheduling a specific event must always ask the user,
				// never silently auto-place.
				s.registerConflict(series, candidates)
				return false
			}
			s.commit(inst, companion)
			s.dropConflict(series)
			return true
		}

		if anyLocked(conflicts, locked) {
			continue
		}

		movable := true
		blockers := uniqueSeriesConflicts(conflicts)
		for _, blocker := range blockers {
			if !s.canDisplace(blocker.SeriesName, blocker.UID, locked) {
				movable = false
				break
			}
		}
		if !movable {
			continue
		}

		snap := s.takeSnapshot()
		for _, c := range conflicts {
			s.evict(c.UID)
		}
		s.commit(inst, companion)

		childLocked := copySet(locked)
		childLocked[inst.UID] = struct{}{}
		if companion != nil {
			childLocked[companion.UID] = struct{}{}
		}

		ok := true
		for _, blocker := range blockers {
			if !s.tryPlace(blocker.SeriesName, childLocked, depth+1, filter) {
				ok = false
				break
			}
		}
		if ok {
			s.dropConflict(series)
			return true
		}
		s.restoreSnapshot(snap)
	}

	s.registerConflict(series, candidates)
	return false
}

// canDisplace is an optimistic one-level lookahead: does another instance of
// the series exist that is free of the locked set? It is not a feasibility
// proof; later recursion may still fail and backtrack.
func (s *Session) canDisplace(series, currentUID string, locked map[string]struct{}) bool {
	for _, inst := range s.candidateInstances(series) {
		if inst.UID == currentUID {
			continue
		}
		free := true
		for uid := range locked {
			other, ok := s.catalog.Lookup(uid)
			if !ok {
				continue
			}
			if other.SeriesName == inst.SeriesName {
				continue
			}
			if Overlaps(inst, other) {
				free = false
				break
			}
		}
		if free {
			return true
		}
	}
	return false
}

func (s *Session) targetSeries() string {
	if s.TargetUID == "" {
		return ""
	}
	inst, ok := s.catalog.Lookup(s.TargetUID)
	if !ok {
		return ""
	}
	return inst.SeriesName
}

func anyLocked(conflicts []*models.EventInstance, locked map[string]struct{}) bool {
	for _, c := range conflicts {
		if _, ok := locked[c.UID]; ok {
			return true
		}
	}
	return false
}

func mergeInstances(a, b []*models.EventInstance) []*models.EventInstance {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]*models.EventInstance, 0, len(a)+len(b))
	for _, inst := range append(a, b...) {
		if _, ok := seen[inst.UID]; ok {
			continue
		}
		seen[inst.UID] = struct{}{}
		out = append(out, inst)
	}
	sortChronological(out)
	return out
}

// uniqueSeriesConflicts keeps one representative conflicting instance per
// series, preserving which committed uid would be displaced.
func uniqueSeriesConflicts(conflicts []*models.EventInstance) []*models.EventInstance {
	seen := make(map[string]struct{}, len(conflicts))
	out := make([]*models.EventInstance, 0, len(conflicts))
	for _, c := range conflicts {
		if _, ok := seen[c.SeriesName]; ok {
			continue
		}
		seen[c.SeriesName] = struct{}{}
		out = append(out, c)
	}
	return out
}
