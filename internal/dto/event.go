package dto

// EventQuery filters catalog listings.
type EventQuery struct {
	Date     string `form:"date" json:"date"`
	Series   string `form:"series" json:"series"`
	Page     int    `form:"page" json:"page"`
	PageSize int    `form:"pageSize" json:"pageSize"`
}

// CreateCustomEventRequest creates a user-owned event. An optional RRULE
// string expands the event into a recurring custom series.
type CreateCustomEventRequest struct {
	SeriesName   string `json:"seriesName" validate:"required,min=1,max=200"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartMinutes int    `json:"startMinutes" validate:"min=0,max=1439"`
	EndMinutes   int    `json:"endMinutes" validate:"required,gtfield=StartMinutes"`
	Location     string `json:"location" validate:"max=200"`
	Recurrence   string `json:"rrule" validate:"omitempty,max=500"`
}

// ImportEventEntry is one row of a machine-readable schedule import. Time
// ordering is deliberately not validated here: the import loop skips bad rows
// and reports them instead of rejecting the whole batch.
type ImportEventEntry struct {
	SeriesName   string `json:"seriesName" validate:"required,min=1,max=200"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StartMinutes int    `json:"startMinutes" validate:"min=0,max=1439"`
	EndMinutes   int    `json:"endMinutes" validate:"min=0"`
	Location     string `json:"location" validate:"max=200"`
}

// ImportScheduleRequest carries a JSON schedule batch.
type ImportScheduleRequest struct {
	Events []ImportEventEntry `json:"events" validate:"required,min=1,dive"`
}

// ImportResult summarises an import run.
type ImportResult struct {
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}
