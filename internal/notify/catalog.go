package notify

import (
	"fmt"
	"time"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Key identifies a catalog message.
type Key string

const (
	FetchTasksFailed        Key = "fetch_tasks_failed"
	FetchTasksFailedDesc    Key = "fetch_tasks_failed_desc"
	FetchProjectsFailed     Key = "fetch_projects_failed"
	FetchProjectsFailedDesc Key = "fetch_projects_failed_desc"
	FetchEventsFailed       Key = "fetch_events_failed"
	FetchEventsFailedDesc   Key = "fetch_events_failed_desc"
	CreateTaskFailed        Key = "create_task_failed"
	CreateTaskFailedDesc    Key = "create_task_failed_desc"
	CreateProjectFailed     Key = "create_project_failed"
	CreateProjectFailedDesc Key = "create_project_failed_desc"
	CreateEventFailed       Key = "create_event_failed"
	CreateEventFailedDesc   Key = "create_event_failed_desc"
	CompleteTaskFailed      Key = "complete_task_failed"
	CompleteTaskFailedDesc  Key = "complete_task_failed_desc"
	UpdateTaskFailed        Key = "update_task_failed"
	UpdateTaskFailedDesc    Key = "update_task_failed_desc"
	TaskUpdated             Key = "task_updated"
	TaskUpdatedDesc         Key = "task_updated_desc"
	TaskCompleted           Key = "task_completed"
	TaskCompletedDesc       Key = "task_completed_desc"
	ErrorTitle              Key = "error"
	SuccessTitle            Key = "success"
	PasswordMismatch        Key = "password_mismatch"
	CheckEmail              Key = "check_email"
	SignedIn                Key = "signed_in"
	SignedOut               Key = "signed_out"
	OAuthFailed             Key = "oauth_failed"
	NoSession               Key = "no_session"
	InvalidInput            Key = "invalid_input"
	MoreTasks               Key = "more_tasks"
	MoreEvents              Key = "more_events"
	NothingPlanned          Key = "nothing_planned"
	TasksHeading            Key = "tasks_heading"
	EventsHeading           Key = "events_heading"
	WeekOf                  Key = "week_of"
	PreviousWeek            Key = "previous_week"
	NextWeek                Key = "next_week"
	PlanningTitle           Key = "planning"
	PlanningSubtitle        Key = "planning_subtitle"
	Unplanned               Key = "unplanned"
	NoProject               Key = "no_project"
	dayPrefix                   = "day_"
	monthPrefix                 = "month_"
)

type entry struct {
	key Key
	nl  string
	en  string
}

var entries = []entry{
	{FetchTasksFailed, "Fout bij ophalen taken", "Failed to fetch tasks"},
	{FetchTasksFailedDesc, "Er is een fout opgetreden bij het ophalen van de taken.", "Something went wrong while fetching the tasks."},
	{FetchProjectsFailed, "Fout bij ophalen projecten", "Failed to fetch projects"},
	{FetchProjectsFailedDesc, "Er is een fout opgetreden bij het ophalen van de projecten.", "Something went wrong while fetching the projects."},
	{FetchEventsFailed, "Fout bij ophalen events", "Failed to fetch events"},
	{FetchEventsFailedDesc, "Er is een fout opgetreden bij het ophalen van de events.", "Something went wrong while fetching the events."},
	{CreateTaskFailed, "Fout bij aanmaken taak", "Failed to create task"},
	{CreateTaskFailedDesc, "Er is een fout opgetreden bij het aanmaken van de taak.", "Something went wrong while creating the task."},
	{CreateProjectFailed, "Fout bij aanmaken project", "Failed to create project"},
	{CreateProjectFailedDesc, "Er is een fout opgetreden bij het aanmaken van het project.", "Something went wrong while creating the project."},
	{CreateEventFailed, "Fout bij aanmaken event", "Failed to create event"},
	{CreateEventFailedDesc, "Er is een fout opgetreden bij het aanmaken van het event.", "Something went wrong while creating the event."},
	{CompleteTaskFailed, "Fout bij voltooien taak", "Failed to complete task"},
	{CompleteTaskFailedDesc, "Er is een fout opgetreden bij het voltooien van de taak.", "Something went wrong while completing the task."},
	{UpdateTaskFailed, "Fout bij bijwerken taak", "Failed to update task"},
	{UpdateTaskFailedDesc, "Er is een fout opgetreden bij het bijwerken van de taak.", "Something went wrong while updating the task."},
	{TaskUpdated, "Taak bijgewerkt", "Task updated"},
	{TaskUpdatedDesc, "De taak is succesvol bijgewerkt.", "The task was updated successfully."},
	{TaskCompleted, "Goed gedaan!", "Well done!"},
	{TaskCompletedDesc, "%s is voltooid.", "%s is complete."},
	{ErrorTitle, "Fout", "Error"},
	{SuccessTitle, "Succes", "Success"},
	{PasswordMismatch, "Wachtwoorden komen niet overeen", "Passwords do not match"},
	{CheckEmail, "Controleer je e-mail voor de bevestigingslink", "Check your email for the confirmation link"},
	{SignedIn, "Ingelogd als %s", "Signed in as %s"},
	{SignedOut, "Je bent uitgelogd", "You are signed out"},
	{OAuthFailed, "Aanmelden met %s mislukt", "%s sign up error"},
	{NoSession, "Niet ingelogd", "Not signed in"},
	{InvalidInput, "Ongeldige invoer", "Invalid input"},
	{NothingPlanned, "Geen taken of events", "No tasks or events"},
	{TasksHeading, "Taken:", "Tasks:"},
	{EventsHeading, "Events:", "Events:"},
	{WeekOf, "Week van %s - %s", "Week of %s - %s"},
	{PreviousWeek, "Vorige week", "Previous week"},
	{NextWeek, "Volgende week", "Next week"},
	{PlanningTitle, "Planning", "Planning"},
	{PlanningSubtitle, "Bekijk je planning", "View your planning"},
	{Unplanned, "Niet ingepland", "Unplanned"},
	{NoProject, "Geen project", "No project"},
}

var (
	dutchDays   = [7]string{"Zondag", "Maandag", "Dinsdag", "Woensdag", "Donderdag", "Vrijdag", "Zaterdag"}
	dutchMonths = [12]string{"jan", "feb", "mrt", "apr", "mei", "jun", "jul", "aug", "sep", "okt", "nov", "dec"}
)

var supported = []language.Tag{language.Dutch, language.English}

var (
	cat     *catalog.Builder
	matcher = language.NewMatcher(supported)
)

func init() {
	cat = catalog.NewBuilder(catalog.Fallback(language.Dutch))
	for _, e := range entries {
		mustSet(language.Dutch, string(e.key), catalog.String(e.nl))
		mustSet(language.English, string(e.key), catalog.String(e.en))
	}
	// Dutch keeps the plural noun even for one item.
	mustSet(language.Dutch, string(MoreTasks), catalog.String("+%d meer taken"))
	mustSet(language.Dutch, string(MoreEvents), catalog.String("+%d meer events"))
	mustSet(language.English, string(MoreTasks), plural.Selectf(1, "%d", "=1", "+%d more task", "other", "+%d more tasks"))
	mustSet(language.English, string(MoreEvents), plural.Selectf(1, "%d", "=1", "+%d more event", "other", "+%d more events"))

	for d := time.Sunday; d <= time.Saturday; d++ {
		mustSet(language.Dutch, dayPrefix+d.String(), catalog.String(dutchDays[d]))
		mustSet(language.English, dayPrefix+d.String(), catalog.String(d.String()))
	}
	for m := time.January; m <= time.December; m++ {
		mustSet(language.Dutch, monthPrefix+m.String(), catalog.String(dutchMonths[m-1]))
		mustSet(language.English, monthPrefix+m.String(), catalog.String(m.String()[:3]))
	}
}

func mustSet(tag language.Tag, key string, msg catalog.Message) {
	if err := cat.Set(tag, key, msg); err != nil {
		panic(fmt.Sprintf("notify: catalog entry %s/%s: %v", tag, key, err))
	}
}

// Localizer renders catalog messages for one language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
}

// NewLocalizer picks the closest supported language for locale, falling back
// to Dutch.
func NewLocalizer(locale string) *Localizer {
	tag := language.Dutch
	if parsed, err := language.Parse(locale); err == nil {
		_, idx, conf := matcher.Match(parsed)
		if conf != language.No {
			tag = supported[idx]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(cat)),
	}
}

// SupportedLocale reports whether locale resolves to a catalog language.
func SupportedLocale(locale string) bool {
	parsed, err := language.Parse(locale)
	if err != nil {
		return false
	}
	_, _, conf := matcher.Match(parsed)
	return conf != language.No
}

func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// T renders key with args.
func (l *Localizer) T(key Key, args ...interface{}) string {
	return l.printer.Sprintf(string(key), args...)
}

// Notice builds a notice from a title and description key. Args apply to
// the description.
func (l *Localizer) Notice(title, desc Key, variant Variant, args ...interface{}) Notice {
	return Notice{
		Title:       l.T(title),
		Description: l.T(desc, args...),
		Variant:     variant,
	}
}

// Failure builds a destructive notice.
func (l *Localizer) Failure(title, desc Key, args ...interface{}) Notice {
	return l.Notice(title, desc, Destructive, args...)
}

// ErrorNotice reports a free-form message under the generic error title.
func (l *Localizer) ErrorNotice(msg string) Notice {
	return Notice{Title: l.T(ErrorTitle), Description: msg, Variant: Destructive}
}

func (l *Localizer) DayName(d time.Weekday) string {
	return l.T(Key(dayPrefix + d.String()))
}

// ShortDate renders a day such as "15 jan" / "15 Jan".
func (l *Localizer) ShortDate(t time.Time) string {
	return fmt.Sprintf("%d %s", t.Day(), l.T(Key(monthPrefix+t.Month().String())))
}
