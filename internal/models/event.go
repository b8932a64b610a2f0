package models

import "time"

// EventInstance is one occurrence of an event series on a voyage day.
// Times are minutes since local midnight; End may exceed 1440 for events
// crossing midnight. Dates are voyage-local YYYY-MM-DD strings.
type EventInstance struct {
	UID          string    `db:"uid" json:"uid"`
	SeriesName   string    `db:"series_name" json:"series_name"`
	Date         string    `db:"date" json:"date"`
	StartMinutes int       `db:"start_minutes" json:"start_minutes"`
	EndMinutes   int       `db:"end_minutes" json:"end_minutes"`
	Location     string    `db:"location" json:"location"`
	IsCustom     bool      `db:"is_custom" json:"is_custom"`
	SeriesID     *string   `db:"series_id" json:"series_id,omitempty"`
	OwnerID      *string   `db:"owner_id" json:"owner_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// EventFilter narrows down catalog listings.
type EventFilter struct {
	Date       string
	SeriesName string
	UserID     string
	Page       int
	PageSize   int
}

// AttendanceRecord links a user to an event instance they plan to attend.
type AttendanceRecord struct {
	UserID    string    `db:"user_id" json:"user_id"`
	UID       string    `db:"uid" json:"uid"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
