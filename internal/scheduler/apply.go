package scheduler

import (
	"sort"

	"github.com/harborline/voyage-api/internal/models"
)

// Diff is the structured result of committing a session, suitable for a
// confirmation view.
type Diff struct {
	Added   []*models.EventInstance `json:"added"`
	Removed []*models.EventInstance `json:"removed"`
	Skipped []string                `json:"skipped"`
}

// Apply finalises the session and returns the attendance diff plus the full
// resulting attendance set. Calling Apply a second time with unchanged state
// returns ok=false and mutates nothing; committing is idempotent.
func (s *Session) Apply() (*Diff, []string, bool) {
	if s.applied {
		return nil, nil, false
	}
	s.applied = true

	diff := &Diff{Skipped: append([]string(nil), s.skipped...)}

	for uid := range s.proposed {
		if _, existing := s.attendance[uid]; existing {
			continue
		}
		if inst, ok := s.catalog.Lookup(uid); ok {
			diff.Added = append(diff.Added, inst)
		}
	}
	for uid := range s.removed {
		if _, existing := s.attendance[uid]; !existing {
			continue
		}
		if inst, ok := s.catalog.Lookup(uid); ok {
			diff.Removed = append(diff.Removed, inst)
		}
	}
	sortChronological(diff.Added)
	sortChronological(diff.Removed)
	sort.Strings(diff.Skipped)

	return diff, s.finalAttendance(), true
}

// Applied reports whether the session has been committed.
func (s *Session) Applied() bool {
	return s.applied
}

// finalAttendance is (AttendanceSet \ RemovedSet) ∪ ProposedSchedule. In
// reschedule mode the proposed set was seeded with everything except the
// target, so this is equivalent to full takeover by the proposed schedule.
func (s *Session) finalAttendance() []string {
	final := make(map[string]struct{}, len(s.attendance)+len(s.proposed))
	for uid := range s.attendance {
		if _, gone := s.removed[uid]; gone {
			continue
		}
		final[uid] = struct{}{}
	}
	for uid := range s.proposed {
		final[uid] = struct{}{}
	}
	out := make([]string, 0, len(final))
	for uid := range final {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

// CommittedSeries lists the series names of the final attendance set, used
// by the applier to mark them hidden after committing.
func (s *Session) CommittedSeries() []string {
	seen := make(map[string]struct{})
	for _, uid := range s.finalAttendance() {
		if inst, ok := s.catalog.Lookup(uid); ok {
			seen[inst.SeriesName] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// AlternativeResult is the outcome of the quick single-event reschedule
// path.
type AlternativeResult struct {
	Success bool   `json:"success"`
	NewUID  string `json:"new_uid,omitempty"`
	Diff    *Diff  `json:"diff,omitempty"`
	Message string `json:"message,omitempty"`
}

// FindAlternative is the best-effort single-event move used outside the
// wizard: it relocates the target to a conflict-free slot of the same series
// and refuses when every alternative would displace another committed event.
// Silent automatic displacement never happens on this path.
func FindAlternative(targetUID, userID string, cfg Config) (*AlternativeResult, []string) {
	session, ok := NewRescheduleSession("", userID, targetUID, cfg)
	if !ok {
		return &AlternativeResult{Success: false, Message: "event not found"}, nil
	}
	target, _ := session.catalog.Lookup(targetUID)

	for _, inst := range session.candidateInstances(target.SeriesName) {
		if inst.UID == targetUID {
			continue
		}
		if len(session.conflictsFor(inst, nil)) > 0 {
			continue
		}
		companion := session.companions.Resolve(session.catalog, inst)
		if companion != nil && !session.isCommitted(companion.UID) {
			ignore := map[string]struct{}{inst.UID: {}}
			if len(session.conflictsFor(companion, ignore)) > 0 {
				continue
			}
		}
		session.commit(inst, companion)
		diff, final, _ := session.Apply()
		return &AlternativeResult{Success: true, NewUID: inst.UID, Diff: diff}, final
	}

	return &AlternativeResult{
		Success: false,
		Message: "no conflict-free alternative exists for " + target.SeriesName,
	}, nil
}
