package models

// Settings represents per-installation settings stored alongside the data
type Settings struct {
	Timezone string `json:"timezone"` // IANA timezone name (e.g. "Europe/Amsterdam", or "Local" for system timezone)
	Locale   string `json:"locale"`   // notice language, "nl" or "en"
}
