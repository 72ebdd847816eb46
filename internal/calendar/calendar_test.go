package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/week"
)

func ptr[T any](v T) *T { return &v }

func TestExport(t *testing.T) {
	ref := time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC)
	w := week.Compute(ref)

	tasks := []models.Task{
		{ID: "t1", Title: "Write report", Priority: models.PriorityHigh, Status: models.StatusPending, PlannedDate: ptr("2024-01-16")},
		{ID: "t2", Title: "Done already", Priority: models.PriorityLow, Status: models.StatusCompleted, PlannedDate: ptr("2024-01-18"), CompletedAt: ptr("2024-01-18T09:30:00Z")},
		{ID: "t3", Title: "Unplanned", Priority: models.PriorityMedium, Status: models.StatusPending},
		{ID: "t4", Title: "Next week", Priority: models.PriorityMedium, Status: models.StatusPending, PlannedDate: ptr("2024-01-23")},
	}
	events := []models.Event{
		{ID: "e1", Title: "Standup", StartDate: "2024-01-15", StartTime: "09:00", EndTime: "09:15", Type: models.EventMeeting},
		{ID: "e2", Title: "Release", StartDate: "2024-01-19", Type: models.EventDeadline},
		{ID: "e3", Title: "Old", StartDate: "2024-01-01", Type: models.EventMeeting},
	}

	var buf bytes.Buffer
	if err := Export(&buf, w, tasks, events, time.UTC, ref); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"UID:event-e1@weekplan",
		"UID:event-e2@weekplan",
		"UID:task-t1@weekplan",
		"UID:task-t2@weekplan",
		"SUMMARY:Standup",
		"CATEGORIES:DEADLINE",
		"STATUS:COMPLETED",
		"STATUS:NEEDS-ACTION",
		"DUE;VALUE=DATE:20240116",
		"PRIORITY:1",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q\n%s", want, out)
		}
	}
	for _, absent := range []string{"event-e3@", "task-t3@", "task-t4@"} {
		if strings.Contains(out, absent) {
			t.Errorf("export should not contain %q", absent)
		}
	}

	cal, err := ical.ParseCalendar(strings.NewReader(out))
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	if got := len(cal.Events()); got != 2 {
		t.Errorf("parsed %d events, want 2", got)
	}
}

func TestExportEmptyWeek(t *testing.T) {
	var buf bytes.Buffer
	w := week.Compute(time.Date(2024, 1, 17, 0, 0, 0, 0, time.UTC))
	if err := Export(&buf, w, nil, nil, nil, time.Now()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if !strings.Contains(buf.String(), "END:VCALENDAR") {
		t.Errorf("empty export is not a calendar: %q", buf.String())
	}
}

func TestICalPriority(t *testing.T) {
	tests := []struct {
		in   models.Priority
		want string
	}{
		{models.PriorityHigh, "1"},
		{models.PriorityMedium, "5"},
		{models.PriorityLow, "9"},
		{"", "5"},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			if got := icalPriority(tt.in); got != tt.want {
				t.Errorf("icalPriority(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
