package scheduler

import (
	"sort"

	"github.com/harborline/voyage-api/internal/models"
)

// RenderModel is the presentation-layer view of a session: pure data, no
// behaviour, rebuilt from scratch on every render.
type RenderModel struct {
	SessionID string         `json:"session_id"`
	Mode      Mode           `json:"mode"`
	Step      Step           `json:"step"`
	Applied   bool           `json:"applied"`
	Conflicts []ConflictView `json:"conflicts,omitempty"`
	Skipped   []string       `json:"skipped,omitempty"`
	Agenda    []AgendaDay    `json:"agenda,omitempty"`
	Removed   []*models.EventInstance `json:"removed,omitempty"`
}

// ConflictView presents one unresolved series with every candidate and its
// live-computed conflicts.
type ConflictView struct {
	SeriesName string          `json:"series_name"`
	Candidates []CandidateView `json:"candidates"`
}

// CandidateView is one selectable instance plus everything it would collide
// with right now.
type CandidateView struct {
	Instance  *models.EventInstance `json:"instance"`
	Conflicts []ConflictAnnotation  `json:"conflicts,omitempty"`
}

// ConflictAnnotation names a collision in user terms: series and times,
// never bare ids alone. Pending marks opportunity-cost conflicts against
// candidates of other still-unresolved series rather than committed events.
type ConflictAnnotation struct {
	UID          string `json:"uid"`
	SeriesName   string `json:"series_name"`
	Date         string `json:"date"`
	StartMinutes int    `json:"start_minutes"`
	EndMinutes   int    `json:"end_minutes"`
	Pending      bool   `json:"pending,omitempty"`
}

// AgendaDay groups the resulting schedule per voyage day for the preview.
type AgendaDay struct {
	Date   string        `json:"date"`
	Events []AgendaEvent `json:"events"`
}

// AgendaEvent annotates an instance with any overlaps still visible in the
// final schedule, for transparency even when user-sanctioned.
type AgendaEvent struct {
	Instance     *models.EventInstance `json:"instance"`
	Proposed     bool                  `json:"proposed"`
	OverlapsWith []ConflictAnnotation  `json:"overlaps_with,omitempty"`
}

// Render builds the model for the session's current step.
func (s *Session) Render() *RenderModel {
	model := &RenderModel{
		SessionID: s.ID,
		Mode:      s.Mode,
		Step:      s.Step,
		Applied:   s.applied,
		Skipped:   append([]string(nil), s.skipped...),
	}

	if s.Step == StepConflicts {
		model.Conflicts = s.renderConflicts()
	}
	if s.Step == StepPreview || s.Step == StepConflicts {
		model.Agenda = s.renderAgenda()
		for uid := range s.removed {
			if _, existing := s.attendance[uid]; !existing {
				continue
			}
			if inst, ok := s.catalog.Lookup(uid); ok {
				model.Removed = append(model.Removed, inst)
			}
		}
		sortChronological(model.Removed)
	}
	return model
}

func (s *Session) renderConflicts() []ConflictView {
	views := make([]ConflictView, 0, len(s.conflicts))
	for _, entry := range s.conflicts {
		view := ConflictView{SeriesName: entry.SeriesName}
		for _, inst := range entry.Instances {
			cand := CandidateView{Instance: inst}
			for _, c := range s.conflictsFor(inst, nil) {
				cand.Conflicts = append(cand.Conflicts, annotate(c, false))
			}
			// Opportunity-cost conflicts against candidates of the other
			// unresolved series.
			for _, other := range s.conflicts {
				if other.SeriesName == entry.SeriesName {
					continue
				}
				for _, otherInst := range other.Instances {
					if Overlaps(inst, otherInst) {
						cand.Conflicts = append(cand.Conflicts, annotate(otherInst, true))
					}
				}
			}
			view.Candidates = append(view.Candidates, cand)
		}
		views = append(views, view)
	}
	sort.Slice(views, func(i, j int) bool { return views[i].SeriesName < views[j].SeriesName })
	return views
}

func (s *Session) renderAgenda() []AgendaDay {
	byDate := make(map[string][]AgendaEvent)
	var all []*models.EventInstance

	s.eachCommitted(func(uid string) {
		inst, ok := s.catalog.Lookup(uid)
		if !ok {
			return
		}
		all = append(all, inst)
	})
	sortChronological(all)

	for _, inst := range all {
		_, proposed := s.proposed[inst.UID]
		if _, preexisting := s.attendance[inst.UID]; preexisting {
			proposed = false
		}
		event := AgendaEvent{Instance: inst, Proposed: proposed}
		for _, other := range all {
			if other.UID == inst.UID || other.SeriesName == inst.SeriesName {
				continue
			}
			if Overlaps(inst, other) {
				event.OverlapsWith = append(event.OverlapsWith, annotate(other, false))
			}
		}
		byDate[inst.Date] = append(byDate[inst.Date], event)
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	days := make([]AgendaDay, 0, len(dates))
	for _, date := range dates {
		days = append(days, AgendaDay{Date: date, Events: byDate[date]})
	}
	return days
}

func annotate(inst *models.EventInstance, pending bool) ConflictAnnotation {
	return ConflictAnnotation{
		UID:          inst.UID,
		SeriesName:   inst.SeriesName,
		Date:         inst.Date,
		StartMinutes: inst.StartMinutes,
		EndMinutes:   inst.EndMinutes,
		Pending:      pending,
	}
}
