// Package week computes Monday-start calendar windows and groups dated
// items into them.
package week

import (
	"time"

	"github.com/julianstephens/weekplan/internal/constants"
)

// Direction moves a reference date by whole weeks.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Window is the seven consecutive days, Monday through Sunday, containing a
// reference date. Each day is midnight in the reference's location.
type Window struct {
	Days [constants.DaysPerWeek]time.Time
}

// Compute returns the window containing ref. Sunday belongs to the week that
// started six days earlier.
func Compute(ref time.Time) Window {
	loc := ref.Location()
	day := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)

	back := int(day.Weekday()) - 1
	if day.Weekday() == time.Sunday {
		back = 6
	}
	monday := day.AddDate(0, 0, -back)

	var w Window
	for i := range w.Days {
		w.Days[i] = monday.AddDate(0, 0, i)
	}
	return w
}

// Navigate shifts ref by one week in dir, keeping its time of day.
func Navigate(ref time.Time, dir Direction) time.Time {
	return ref.AddDate(0, 0, int(dir)*constants.DaysPerWeek)
}

// Offset shifts ref by n weeks; negative n moves backwards.
func Offset(ref time.Time, n int) time.Time {
	return ref.AddDate(0, 0, n*constants.DaysPerWeek)
}

func (w Window) Start() time.Time {
	return w.Days[0]
}

// End is the last day of the window (Sunday), not the exclusive bound.
func (w Window) End() time.Time {
	return w.Days[constants.DaysPerWeek-1]
}

// Keys returns the window's days as YYYY-MM-DD strings.
func (w Window) Keys() []string {
	keys := make([]string, len(w.Days))
	for i, d := range w.Days {
		keys[i] = d.Format(constants.DateFormat)
	}
	return keys
}

// Contains reports whether the calendar date key (YYYY-MM-DD) is in the window.
func (w Window) Contains(key string) bool {
	return w.index(key) >= 0
}

// IsToday reports whether day i of the window is now's calendar date, with now
// read in the window's location.
func (w Window) IsToday(i int, now time.Time) bool {
	if i < 0 || i >= len(w.Days) {
		return false
	}
	return now.In(w.Days[i].Location()).Format(constants.DateFormat) == w.Days[i].Format(constants.DateFormat)
}

func (w Window) index(key string) int {
	for i, d := range w.Days {
		if d.Format(constants.DateFormat) == key {
			return i
		}
	}
	return -1
}

// NormalizeDate truncates a stored date or timestamp to its calendar-date
// prefix. The prefix is taken literally: a timestamp's offset is not applied.
// ok is false when the value does not begin with a valid YYYY-MM-DD date.
func NormalizeDate(raw string) (string, bool) {
	if len(raw) < len(constants.DateFormat) {
		return "", false
	}
	key := raw[:len(constants.DateFormat)]
	if _, err := time.Parse(constants.DateFormat, key); err != nil {
		return "", false
	}
	return key, true
}
