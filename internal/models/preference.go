package models

import "time"

// Preferences holds a user's candidate-filtering inputs: series hidden from
// the main view, individually hidden instances, series the smart scheduler
// must never touch, and series only scheduled on request.
type Preferences struct {
	UserID            string    `db:"user_id" json:"user_id"`
	HiddenSeries      []string  `db:"-" json:"hidden_series"`
	HiddenUIDs        []string  `db:"-" json:"hidden_uids"`
	BlacklistedSeries []string  `db:"-" json:"blacklisted_series"`
	OptionalSeries    []string  `db:"-" json:"optional_series"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
