package dto

// StartSessionRequest opens an additive scheduling session. Empty SeriesNames
// means "every eligible series".
type StartSessionRequest struct {
	SeriesNames     []string `json:"seriesNames" validate:"omitempty,dive,min=1"`
	IncludeOptional bool     `json:"includeOptional"`
}

// SessionChoice is the user's decision for one unresolved series.
type SessionChoice struct {
	SeriesName   string `json:"seriesName" validate:"required"`
	Action       string `json:"action" validate:"required,oneof=skip select"`
	UID          string `json:"uid" validate:"required_if=Action select"`
	AllowOverlap bool   `json:"allowOverlap"`
}

// SubmitChoicesRequest resolves the CONFLICTS step, one choice per series.
type SubmitChoicesRequest struct {
	Choices []SessionChoice `json:"choices" validate:"required,min=1,dive"`
}

// StartAlternativeRequest opens a nested reschedule session for a committed
// event that blocks the current conflict resolution.
type StartAlternativeRequest struct {
	TargetUID string `json:"targetUid" validate:"required"`
}

// RescheduleRequest is the quick single-event move outside the wizard.
type RescheduleRequest struct {
	UID string `json:"uid" validate:"required"`
}
