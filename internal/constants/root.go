package constants

import "time"

const (
	AppName             = "weekplan"
	DefaultKeyringUser  = "database-connection"
	SessionKeyringUser  = "session"
	DefaultConfigPath   = "~/.config/weekplan/weekplan.db"
	DefaultSettingsPath = "~/.config/weekplan/settings.yaml"
	Version             = "v0.3.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// TimestampFormat is a fixed-width RFC3339 layout, so stored timestamps
	// sort correctly as text
	TimestampFormat = "2006-01-02T15:04:05.000000Z07:00"
	// TimeFormat is the standard time format used throughout the application (HH:MM)
	TimeFormat = "15:04"

	// DaysPerWeek is the length of a calendar window
	DaysPerWeek = 7

	// GridPreviewLimit is the number of tasks (and events) shown per day cell
	// before the remainder collapses into an overflow count.
	GridPreviewLimit = 2

	// PostAuthRoute is where the browser lands after a successful sign up or
	// federated login.
	PostAuthRoute = "/profile"

	// Auth
	MinPasswordLength  = 6
	MaxPasswordLength  = 72 // bcrypt input limit in bytes
	SessionCookieName  = "weekplan_session"
	DefaultSessionTTL  = 7 * 24 * time.Hour
	OAuthStateTTL      = 10 * time.Minute
	DefaultCleanupSpec = "@every 15m"

	// Server lock
	ServerLockfileName = "weekplan-serve.lock"

	// Environment variables
	EnvDBConnection       = "WEEKPLAN_DB_CONNECTION"
	EnvGoogleClientSecret = "WEEKPLAN_GOOGLE_CLIENT_SECRET"
	EnvSlackClientSecret  = "WEEKPLAN_SLACK_CLIENT_SECRET"
)
