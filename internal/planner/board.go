package planner

import (
	"fmt"
	"time"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/week"
)

// Board is the state a planning surface owns: the loaded collections, the
// week being viewed and the selected day. It is not safe for concurrent use.
type Board struct {
	Tasks     []models.Task
	Projects  []models.Project
	Events    []models.Event
	Reference time.Time
	Selected  int // day index in the current window, -1 for none

	loc *notify.Localizer
}

func NewBoard(ref time.Time, loc *notify.Localizer) *Board {
	if loc == nil {
		loc = notify.NewLocalizer("")
	}
	return &Board{Reference: ref, Selected: -1, loc: loc}
}

func (b *Board) SetTasks(tasks []models.Task)          { b.Tasks = tasks }
func (b *Board) SetProjects(projects []models.Project) { b.Projects = projects }
func (b *Board) SetEvents(events []models.Event)       { b.Events = events }

// AddTask appends a newly created task.
func (b *Board) AddTask(t models.Task) {
	b.Tasks = append(b.Tasks, t)
}

// ReplaceTask swaps in an updated task by id. It reports false when the task
// is not on the board.
func (b *Board) ReplaceTask(t models.Task) bool {
	for i := range b.Tasks {
		if b.Tasks[i].ID == t.ID {
			b.Tasks[i] = t
			return true
		}
	}
	return false
}

func (b *Board) Window() week.Window {
	return week.Compute(b.Reference)
}

// Navigate moves the board one week and clears the selection.
func (b *Board) Navigate(dir week.Direction) {
	b.Reference = week.Navigate(b.Reference, dir)
	b.Selected = -1
}

// Today jumps back to the week containing now.
func (b *Board) Today(now time.Time) {
	b.Reference = now.In(b.Reference.Location())
	b.Selected = -1
}

// Select marks day i (0 = Monday) of the current window.
func (b *Board) Select(i int) {
	if i < 0 || i >= constants.DaysPerWeek {
		b.Selected = -1
		return
	}
	b.Selected = i
}

// Title renders "Week van 15 jan - 21 jan" in the board's language.
func (b *Board) Title() string {
	w := b.Window()
	return b.loc.T(notify.WeekOf, b.loc.ShortDate(w.Start()), b.loc.ShortDate(w.End()))
}

func (b *Board) ProjectName(id *string) string {
	if id == nil {
		return ""
	}
	for _, p := range b.Projects {
		if p.ID == *id {
			return p.Name
		}
	}
	return ""
}

// DayView is one column of the week grid.
type DayView struct {
	Date    time.Time      `json:"-"`
	Key     string         `json:"date"`
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	IsToday bool           `json:"is_today"`
	Tasks   []models.Task  `json:"tasks"`
	Events  []models.Event `json:"events"`

	PreviewTasks    []models.Task  `json:"preview_tasks"`
	PreviewEvents   []models.Event `json:"preview_events"`
	MoreTasks       int            `json:"more_tasks"`
	MoreEvents      int            `json:"more_events"`
	MoreTasksLabel  string         `json:"more_tasks_label,omitempty"`
	MoreEventsLabel string         `json:"more_events_label,omitempty"`
}

// Empty reports whether nothing is planned on the day.
func (d DayView) Empty() bool {
	return len(d.Tasks) == 0 && len(d.Events) == 0
}

// Week buckets the board's tasks and events into the current window. now
// decides which day is today.
func (b *Board) Week(now time.Time) []DayView {
	w := b.Window()
	tasks := week.Bucket(b.Tasks, w, models.Task.Planned)
	events := week.Bucket(b.Events, w, func(e models.Event) string { return e.StartDate })
	keys := w.Keys()

	days := make([]DayView, len(w.Days))
	for i, d := range w.Days {
		dv := DayView{
			Date:    d,
			Key:     keys[i],
			Name:    b.loc.DayName(d.Weekday()),
			Label:   fmt.Sprintf("%d/%d", d.Day(), int(d.Month())),
			IsToday: w.IsToday(i, now),
			Tasks:   nonNil(tasks.ForDay(i)),
			Events:  nonNil(events.ForDay(i)),
		}
		dv.PreviewTasks, dv.MoreTasks = preview(dv.Tasks)
		dv.PreviewEvents, dv.MoreEvents = preview(dv.Events)
		if dv.MoreTasks > 0 {
			dv.MoreTasksLabel = b.loc.T(notify.MoreTasks, dv.MoreTasks)
		}
		if dv.MoreEvents > 0 {
			dv.MoreEventsLabel = b.loc.T(notify.MoreEvents, dv.MoreEvents)
		}
		days[i] = dv
	}
	return days
}

// Day returns the view of day i, or false when i is out of range.
func (b *Board) Day(i int, now time.Time) (DayView, bool) {
	if i < 0 || i >= constants.DaysPerWeek {
		return DayView{}, false
	}
	return b.Week(now)[i], true
}

func preview[T any](items []T) ([]T, int) {
	if len(items) <= constants.GridPreviewLimit {
		return items, 0
	}
	return items[:constants.GridPreviewLimit], len(items) - constants.GridPreviewLimit
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
