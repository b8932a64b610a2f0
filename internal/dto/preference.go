package dto

// UpdatePreferencesRequest replaces the user's filtering preferences. Nil
// slices leave the stored value untouched; empty slices clear it.
type UpdatePreferencesRequest struct {
	HiddenSeries      *[]string `json:"hiddenSeries"`
	HiddenUIDs        *[]string `json:"hiddenUids"`
	BlacklistedSeries *[]string `json:"blacklistedSeries"`
	OptionalSeries    *[]string `json:"optionalSeries"`
}

// AgendaExportQuery selects the export format.
type AgendaExportQuery struct {
	Format string `form:"format" json:"format" validate:"omitempty,oneof=csv pdf"`
}
