// Package calendar exports a planned week as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/week"
)

const uidDomain = "weekplan"

// Export writes the tasks and events that fall inside w as a VCALENDAR.
// Events become VEVENTs (all-day when they have no start time), planned
// tasks become VTODOs due on their day. loc resolves event clock times.
func Export(out io.Writer, w week.Window, tasks []models.Task, events []models.Event, loc *time.Location, now time.Time) error {
	if loc == nil {
		loc = time.Local
	}
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(fmt.Sprintf("-//%s//%s//EN", constants.AppName, constants.Version))
	cal.SetName(fmt.Sprintf("%s %s", constants.AppName, w.Keys()[0]))

	stamp := now.UTC()
	var nEvents, nTasks int

	for _, day := range week.Bucket(events, w, func(e models.Event) string { return e.StartDate }).Days {
		for _, ev := range day {
			if err := addEvent(cal, ev, loc, stamp); err != nil {
				logger.Warn("Skipping event in calendar export", "id", ev.ID, "error", err)
				continue
			}
			nEvents++
		}
	}

	for _, day := range week.Bucket(tasks, w, models.Task.Planned).Days {
		for _, t := range day {
			if err := addTask(cal, t, stamp); err != nil {
				logger.Warn("Skipping task in calendar export", "id", t.ID, "error", err)
				continue
			}
			nTasks++
		}
	}

	logger.Debug("Calendar export", "week", w.Keys()[0], "events", nEvents, "tasks", nTasks)
	return cal.SerializeTo(out)
}

func uid(kind, id string) string {
	return fmt.Sprintf("%s-%s@%s", kind, id, uidDomain)
}

func addEvent(cal *ical.Calendar, e models.Event, loc *time.Location, stamp time.Time) error {
	start, end, err := e.Span(loc)
	if err != nil {
		return err
	}
	ve := cal.AddEvent(uid("event", e.ID))
	ve.SetDtStampTime(stamp)
	ve.SetSummary(e.Title)
	if e.Description != "" {
		ve.SetDescription(e.Description)
	}
	ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(e.Type)))

	if e.StartTime == "" {
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(end)
		return nil
	}
	ve.SetStartAt(start)
	ve.SetEndAt(end)
	return nil
}

func addTask(cal *ical.Calendar, t models.Task, stamp time.Time) error {
	due, ok := week.NormalizeDate(t.Planned())
	if !ok {
		return fmt.Errorf("invalid planned date %q", t.Planned())
	}
	todo := cal.AddTodo(uid("task", t.ID))
	todo.SetDtStampTime(stamp)
	todo.SetSummary(t.Title)
	if t.Description != "" {
		todo.SetDescription(t.Description)
	}
	todo.SetProperty(ical.ComponentPropertyDue, strings.ReplaceAll(due, "-", ""), ical.WithValue(string(ical.ValueDataTypeDate)))
	todo.SetProperty(ical.ComponentPropertyPriority, icalPriority(t.Priority))

	if t.IsCompleted() {
		todo.SetProperty(ical.ComponentPropertyStatus, string(ical.ObjectStatusCompleted))
		if t.CompletedAt != nil {
			if at, err := time.Parse(time.RFC3339, *t.CompletedAt); err == nil {
				todo.SetProperty(ical.ComponentPropertyCompleted, at.UTC().Format("20060102T150405Z"))
			}
		}
	} else {
		todo.SetProperty(ical.ComponentPropertyStatus, string(ical.ObjectStatusNeedsAction))
	}
	return nil
}

// icalPriority maps onto RFC 5545 PRIORITY: 1 highest, 9 lowest.
func icalPriority(p models.Priority) string {
	switch p {
	case models.PriorityHigh:
		return "1"
	case models.PriorityLow:
		return "9"
	default:
		return "5"
	}
}
