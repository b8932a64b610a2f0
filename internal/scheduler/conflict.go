package scheduler

import "github.com/harborline/voyage-api/internal/models"

// Overlaps reports whether two instances conflict: same voyage day and
// half-open interval intersection. Touching endpoints do not conflict.
func Overlaps(a, b *models.EventInstance) bool {
	if a == nil || b == nil {
		return false
	}
	if a.Date != b.Date {
		return false
	}
	return a.StartMinutes < b.EndMinutes && b.StartMinutes < a.EndMinutes
}

// conflictsFor returns the committed instances the given instance overlaps.
// Same-series siblings never conflict with each other; that is what allows
// choose-one-of-N semantics. Unresolved uids are skipped, and pairs the user
// explicitly allowed to overlap are not reported.
func (s *Session) conflictsFor(inst *models.EventInstance, ignore map[string]struct{}) []*models.EventInstance {
	if inst == nil {
		return nil
	}
	var out []*models.EventInstance
	seen := make(map[string]struct{})
	s.eachCommitted(func(uid string) {
		if uid == inst.UID {
			return
		}
		if ignore != nil {
			if _, ok := ignore[uid]; ok {
				return
			}
		}
		if _, ok := seen[uid]; ok {
			return
		}
		other, ok := s.catalog.Lookup(uid)
		if !ok {
			return
		}
		if other.SeriesName == inst.SeriesName {
			return
		}
		if s.overlapAllowed(inst.UID, uid) {
			return
		}
		if Overlaps(inst, other) {
			seen[uid] = struct{}{}
			out = append(out, other)
		}
	})
	sortChronological(out)
	return out
}

// eachCommitted visits every uid in AttendanceSet ∪ ProposedSchedule, minus
// the RemovedSet.
func (s *Session) eachCommitted(fn func(uid string)) {
	for uid := range s.attendance {
		if _, removed := s.removed[uid]; removed {
			continue
		}
		fn(uid)
	}
	for uid := range s.proposed {
		if _, inAttendance := s.attendance[uid]; inAttendance {
			continue
		}
		fn(uid)
	}
}

// isCommitted reports membership in the running committed set.
func (s *Session) isCommitted(uid string) bool {
	if _, ok := s.proposed[uid]; ok {
		return true
	}
	if _, ok := s.attendance[uid]; ok {
		_, removed := s.removed[uid]
		return !removed
	}
	return false
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "|" + b
}

func (s *Session) overlapAllowed(a, b string) bool {
	_, ok := s.allowedOverlaps[pairKey(a, b)]
	return ok
}
