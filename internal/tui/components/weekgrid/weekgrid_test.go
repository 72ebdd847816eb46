package weekgrid

import (
	"strings"
	"testing"

	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/planner"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long text", 5, "too …"},
		{"één", 2, "é…"},
		{"x", 0, "x"},
		{"abc", 1, "…"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Truncate(tt.in, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
			}
		})
	}
}

func TestCellWidth(t *testing.T) {
	if got := CellWidth(40); got != minCellWidth {
		t.Errorf("CellWidth(40) = %d, want %d", got, minCellWidth)
	}
	if got := CellWidth(140); got != 16 {
		t.Errorf("CellWidth(140) = %d, want 16", got)
	}
}

func TestView(t *testing.T) {
	days := make([]planner.DayView, 7)
	names := []string{"Maandag", "Dinsdag", "Woensdag", "Donderdag", "Vrijdag", "Zaterdag", "Zondag"}
	for i := range days {
		days[i] = planner.DayView{Name: names[i], Label: "1/1", Tasks: []models.Task{}, Events: []models.Event{}}
	}
	task := models.Task{ID: "1", Title: "Boodschappen", Status: models.StatusPending}
	days[0].Tasks = []models.Task{task, task, task}
	days[0].PreviewTasks = days[0].Tasks[:2]
	days[0].MoreTasks = 1
	days[0].MoreTasksLabel = "+1 meer taken"
	days[2].IsToday = true
	days[3].Events = []models.Event{{Title: "Demo", StartTime: "14:00"}}
	days[3].PreviewEvents = days[3].Events

	out := Model{Days: days, Selected: 0, Width: 140, Empty: "Geen taken"}.View()
	for _, want := range []string{"Maandag", "Zondag", "Boodschappen", "+1 meer taken", "14:00 Demo", "Geen taken"} {
		if !strings.Contains(out, want) {
			t.Errorf("grid missing %q", want)
		}
	}
}
