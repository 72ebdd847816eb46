package constants

const (
	// General Settings
	SettingTimezone = "timezone"
	SettingLocale   = "locale"

	// Default Settings Values
	DefaultTimezone = "Local" // Use system local timezone by default
	DefaultLocale   = "nl"
	DefaultListen   = "127.0.0.1:8080"
	DefaultBaseURL  = "http://127.0.0.1:8080"
)
