package scheduler

import (
	"sort"
	"time"

	"github.com/harborline/voyage-api/internal/models"
)

// Mode selects between the additive smart-scheduler flow and the
// single-event reschedule flow.
type Mode string

const (
	ModeAdditive   Mode = "additive"
	ModeReschedule Mode = "reschedule"
)

// Step is the wizard state the presentation layer renders. The series
// checklist is not a step of its own: the start request carries the selection,
// so a session goes straight from INTRO into placement.
type Step string

const (
	StepIntro      Step = "INTRO"
	StepProcessing Step = "PROCESSING"
	StepConflicts  Step = "CONFLICTS"
	StepPreview    Step = "PREVIEW"
)

// ConflictEntry is one series the engine could not place without help.
type ConflictEntry struct {
	SeriesName string
	Instances  []*models.EventInstance
}

// Cursor is a voyage-local point in time used for "not yet passed" filters.
type Cursor struct {
	Date   string
	Minute int
}

// Config carries everything a session needs from the outside world. All
// inputs are read-only; the session works on copies.
type Config struct {
	Catalog           *Catalog
	Companions        *CompanionResolver
	Attendance        []string
	HiddenSeries      []string
	HiddenUIDs        []string
	BlacklistedSeries []string
	OptionalSeries    []string
	MaxDisplaceDepth  int
	Now               *Cursor
}

// DefaultMaxDisplaceDepth bounds recursive displacement. Exceeding it is a
// failure routed to the user, not an error.
const DefaultMaxDisplaceDepth = 5

// Session is one scheduling run. All engine state lives here; nothing is
// ambient, so concurrent sessions cannot leak into each other and cancelling
// a session is just dropping it.
type Session struct {
	ID        string
	UserID    string
	Mode      Mode
	Step      Step
	TargetUID string
	ParentID  string
	CreatedAt time.Time

	catalog    *Catalog
	companions *CompanionResolver
	maxDepth   int
	now        *Cursor

	attendance   map[string]struct{}
	hiddenSeries map[string]struct{}
	hiddenUIDs   map[string]struct{}
	blacklisted  map[string]struct{}
	optional     map[string]struct{}

	proposed        map[string]struct{}
	removed         map[string]struct{}
	skipped         []string
	conflicts       []ConflictEntry
	allowedOverlaps map[string]struct{}
	locked          map[string]struct{}
	companionLinks  map[string]string

	snapshot *snapshot
	applied  bool
}

// NewSession constructs an additive smart-scheduler session in INTRO state.
func NewSession(id, userID string, cfg Config) *Session {
	s := newSession(id, userID, ModeAdditive, cfg)
	s.Step = StepIntro
	return s
}

// NewRescheduleSession constructs a single-event reschedule session. The
// target is pre-removed from the committed set and its series is forced into
// the conflict path so the user always picks the new slot explicitly.
func NewRescheduleSession(id, userID, targetUID string, cfg Config) (*Session, bool) {
	s := newSession(id, userID, ModeReschedule, cfg)
	target, ok := s.catalog.Lookup(targetUID)
	if !ok {
		return nil, false
	}
	s.TargetUID = targetUID
	s.removed[targetUID] = struct{}{}
	for uid := range s.attendance {
		if uid != targetUID {
			s.proposed[uid] = struct{}{}
		}
	}

	candidates := s.candidateInstances(target.SeriesName)
	s.registerConflict(target.SeriesName, candidates)
	s.Step = StepConflicts
	return s, true
}

func newSession(id, userID string, mode Mode, cfg Config) *Session {
	maxDepth := cfg.MaxDisplaceDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDisplaceDepth
	}
	companions := cfg.Companions
	if companions == nil {
		companions = NewCompanionResolver(nil)
	}
	return &Session{
		ID:              id,
		UserID:          userID,
		Mode:            mode,
		CreatedAt:       time.Now().UTC(),
		catalog:         cfg.Catalog,
		companions:      companions,
		maxDepth:        maxDepth,
		now:             cfg.Now,
		attendance:      toSet(cfg.Attendance),
		hiddenSeries:    toSet(cfg.HiddenSeries),
		hiddenUIDs:      toSet(cfg.HiddenUIDs),
		blacklisted:     toSet(cfg.BlacklistedSeries),
		optional:        toSet(cfg.OptionalSeries),
		proposed:        make(map[string]struct{}),
		removed:         make(map[string]struct{}),
		allowedOverlaps: make(map[string]struct{}),
		locked:          make(map[string]struct{}),
		companionLinks:  make(map[string]string),
	}
}

// Run executes greedy placement over the requested series (all eligible
// series when none are named) and advances the session to CONFLICTS or
// PREVIEW.
func (s *Session) Run(requestedSeries []string, includeOptional bool) {
	s.Step = StepProcessing

	groups := s.buildGroups(requestedSeries, includeOptional)

	// Most-constrained-first: fewest candidate instances placed first. A
	// static one-pass ordering, not dynamic MRV.
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i].instances) != len(groups[j].instances) {
			return len(groups[i].instances) < len(groups[j].instances)
		}
		return groups[i].series < groups[j].series
	})

	for _, group := range groups {
		// An earlier placement may already cover this series, most often as
		// a co-committed companion. One instance per series, never two.
		if s.seriesCommitted(group.series) {
			continue
		}
		if !s.placeFirstFree(group.instances) {
			s.registerConflict(group.series, group.instances)
		}
	}

	if len(s.conflicts) == 0 {
		s.Step = StepPreview
	} else {
		s.Step = StepConflicts
	}
}

type candidateGroup struct {
	series    string
	instances []*models.EventInstance
}

func (s *Session) buildGroups(requestedSeries []string, includeOptional bool) []candidateGroup {
	explicit := len(requestedSeries) > 0
	names := requestedSeries
	if !explicit {
		names = s.catalog.SeriesNames()
	}

	var groups []candidateGroup
	for _, name := range names {
		if _, bad := s.blacklisted[name]; bad {
			continue
		}
		if !explicit {
			if _, hidden := s.hiddenSeries[name]; hidden {
				continue
			}
			if _, opt := s.optional[name]; opt && !includeOptional {
				continue
			}
		}
		if s.seriesAttended(name) {
			continue
		}
		instances := s.candidateInstances(name)
		if len(instances) == 0 {
			continue
		}
		groups = append(groups, candidateGroup{series: name, instances: instances})
	}
	return groups
}

// candidateInstances lists a series' schedulable instances: individually
// hidden instances are skipped and, when a cursor is set, so are instances
// that already passed.
func (s *Session) candidateInstances(name string) []*models.EventInstance {
	var out []*models.EventInstance
	for _, inst := range s.catalog.Series(name) {
		if _, hidden := s.hiddenUIDs[inst.UID]; hidden {
			continue
		}
		if s.now != nil {
			if inst.Date < s.now.Date || (inst.Date == s.now.Date && inst.StartMinutes < s.now.Minute) {
				continue
			}
		}
		out = append(out, inst)
	}
	return out
}

func (s *Session) seriesAttended(name string) bool {
	for uid := range s.attendance {
		if _, removed := s.removed[uid]; removed {
			continue
		}
		if inst, ok := s.catalog.Lookup(uid); ok && inst.SeriesName == name {
			return true
		}
	}
	return false
}

// placeFirstFree commits the first chronologically scanned instance with
// zero conflicts. Companion-dependent instances commit atomically with their
// companion or not at all.
func (s *Session) placeFirstFree(instances []*models.EventInstance) bool {
	for _, inst := range instances {
		if len(s.conflictsFor(inst, nil)) > 0 {
			continue
		}
		companion := s.companions.Resolve(s.catalog, inst)
		if companion != nil && !s.isCommitted(companion.UID) {
			if len(s.conflictsFor(companion, nil)) > 0 {
				continue
			}
		}
		s.commit(inst, companion)
		return true
	}
	return false
}

// commit adds an instance (and its companion, when present) to the proposed
// schedule. Never adds the same uid twice.
func (s *Session) commit(inst *models.EventInstance, companion *models.EventInstance) {
	s.proposed[inst.UID] = struct{}{}
	delete(s.removed, inst.UID)
	if companion != nil {
		if !s.isCommitted(companion.UID) {
			s.proposed[companion.UID] = struct{}{}
			delete(s.removed, companion.UID)
		}
		s.companionLinks[inst.UID] = companion.UID
	}
}

// evict removes a committed instance, tracking attendance evictions in the
// RemovedSet, and transitively evicts its linked companion.
func (s *Session) evict(uid string) {
	delete(s.proposed, uid)
	if _, ok := s.attendance[uid]; ok {
		s.removed[uid] = struct{}{}
	}
	if companion, ok := s.companionLinks[uid]; ok {
		delete(s.companionLinks, uid)
		s.evict(companion)
	}
}

// registerConflict merges a ConflictEntry for the series, idempotently.
func (s *Session) registerConflict(series string, instances []*models.EventInstance) {
	for i := range s.conflicts {
		if s.conflicts[i].SeriesName == series {
			if len(instances) > len(s.conflicts[i].Instances) {
				s.conflicts[i].Instances = instances
			}
			return
		}
	}
	s.conflicts = append(s.conflicts, ConflictEntry{SeriesName: series, Instances: instances})
}

func (s *Session) dropConflict(series string) {
	for i := range s.conflicts {
		if s.conflicts[i].SeriesName == series {
			s.conflicts = append(s.conflicts[:i], s.conflicts[i+1:]...)
			return
		}
	}
}

// --- snapshots ---

// snapshot captures the whole mutable placement state so a failed branch (or
// the user navigating Back) restores it wholesale instead of relying on
// manual cleanup.
type snapshot struct {
	step            Step
	proposed        map[string]struct{}
	removed         map[string]struct{}
	locked          map[string]struct{}
	allowedOverlaps map[string]struct{}
	companionLinks  map[string]string
	skipped         []string
	conflicts       []ConflictEntry
}

func (s *Session) takeSnapshot() *snapshot {
	return &snapshot{
		step:            s.Step,
		proposed:        copySet(s.proposed),
		removed:         copySet(s.removed),
		locked:          copySet(s.locked),
		allowedOverlaps: copySet(s.allowedOverlaps),
		companionLinks:  copyLinks(s.companionLinks),
		skipped:         append([]string(nil), s.skipped...),
		conflicts:       copyConflicts(s.conflicts),
	}
}

func (s *Session) restoreSnapshot(snap *snapshot) {
	if snap == nil {
		return
	}
	s.Step = snap.step
	s.proposed = copySet(snap.proposed)
	s.removed = copySet(snap.removed)
	s.locked = copySet(snap.locked)
	s.allowedOverlaps = copySet(snap.allowedOverlaps)
	s.companionLinks = copyLinks(snap.companionLinks)
	s.skipped = append([]string(nil), snap.skipped...)
	s.conflicts = copyConflicts(snap.conflicts)
}

// Back restores the state captured before the last choice submission and
// returns to CONFLICTS. Returns false when there is nothing to go back to.
func (s *Session) Back() bool {
	if s.snapshot == nil || s.applied {
		return false
	}
	s.restoreSnapshot(s.snapshot)
	s.snapshot = nil
	s.Step = StepConflicts
	return true
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v != "" {
			out[v] = struct{}{}
		}
	}
	return out
}

func copySet(src map[string]struct{}) map[string]struct{} {
	out := make(map[string]struct{}, len(src))
	for k := range src {
		out[k] = struct{}{}
	}
	return out
}

func copyLinks(src map[string]string) map[string]string {
	out := make(map[string]string, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func copyConflicts(src []ConflictEntry) []ConflictEntry {
	out := make([]ConflictEntry, len(src))
	for i, entry := range src {
		out[i] = ConflictEntry{
			SeriesName: entry.SeriesName,
			Instances:  append([]*models.EventInstance(nil), entry.Instances...),
		}
	}
	return out
}
