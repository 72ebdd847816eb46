package models

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	EventMeeting      EventType = "meeting"
	EventDeadline     EventType = "deadline"
	EventPresentation EventType = "presentation"
)

func (e EventType) Valid() bool {
	switch e {
	case EventMeeting, EventDeadline, EventPresentation:
		return true
	}
	return false
}

func ParseEventType(s string) (EventType, error) {
	et := EventType(strings.ToLower(strings.TrimSpace(s)))
	if !et.Valid() {
		return "", fmt.Errorf("invalid event type %q (expected meeting|deadline|presentation)", s)
	}
	return et, nil
}

type Event struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	StartDate   string    `json:"start_date" db:"start_date"` // YYYY-MM-DD
	StartTime   string    `json:"start_time" db:"start_time"` // HH:MM
	EndDate     string    `json:"end_date" db:"end_date"`     // YYYY-MM-DD
	EndTime     string    `json:"end_time" db:"end_time"`     // HH:MM
	Type        EventType `json:"type" db:"type"`
}

// Span resolves the event's start and end in loc. An empty time means the
// start (or end) of that day.
func (e Event) Span(loc *time.Location) (time.Time, time.Time, error) {
	start, err := combine(e.StartDate, e.StartTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event start: %w", err)
	}
	endDate := e.EndDate
	if endDate == "" {
		endDate = e.StartDate
	}
	end, err := combine(endDate, e.EndTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("event end: %w", err)
	}
	if e.EndTime == "" {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func combine(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return time.Time{}, err
	}
	if clock == "" {
		return d, nil
	}
	c, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), c.Hour(), c.Minute(), 0, 0, loc), nil
}
