package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julianstephens/weekplan/internal/calendar"
	"github.com/julianstephens/weekplan/internal/constants"
	"github.com/julianstephens/weekplan/internal/logger"
	"github.com/julianstephens/weekplan/internal/models"
	"github.com/julianstephens/weekplan/internal/notify"
	"github.com/julianstephens/weekplan/internal/planner"
	"github.com/julianstephens/weekplan/internal/utils"
	"github.com/julianstephens/weekplan/internal/week"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": constants.Version})
}

type weekResponse struct {
	Title string            `json:"title"`
	Start string            `json:"start"`
	End   string            `json:"end"`
	Days  []planner.DayView `json:"days"`
}

// loadBoard builds the board for ?date=YYYY-MM-DD&offset=N and fills it.
func (s *Server) loadBoard(r *http.Request, svc *planner.Service) (*planner.Board, error) {
	now := s.now().In(s.loc)
	ref := now
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := utils.ParseDateInLocation(d, s.loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", errBadRequest, err)
		}
		ref = parsed
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		n, err := strconv.Atoi(o)
		if err != nil {
			return nil, fmt.Errorf("%w: offset must be an integer", errBadRequest)
		}
		ref = week.Offset(ref, n)
	}

	b := planner.NewBoard(ref, svc.Localizer())
	if err := svc.Refresh(r.Context(), b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	b, err := s.loadBoard(r, s.planner.WithSink(rec))
	if err != nil {
		writeError(w, err, rec)
		return
	}
	win := b.Window()
	writeData(w, http.StatusOK, weekResponse{
		Title: b.Title(),
		Start: utils.FormatDate(win.Start()),
		End:   utils.FormatDate(win.End()),
		Days:  b.Week(s.now()),
	}, rec)
}

func (s *Server) handleWeekICS(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	b, err := s.loadBoard(r, s.planner.WithSink(rec))
	if err != nil {
		writeError(w, err, rec)
		return
	}
	var buf bytes.Buffer
	if err := calendar.Export(&buf, b.Window(), b.Tasks, b.Events, s.loc, s.now()); err != nil {
		writeError(w, err, rec)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "week-"+utils.FormatDate(b.Window().Start())+".ics"))
	if _, err := io.Copy(w, &buf); err != nil {
		logger.Warn("Failed to write calendar", "error", err)
	}
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	tasks, err := s.planner.WithSink(rec).FetchTasks(r.Context())
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, tasks, rec)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in planner.TaskInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	t, err := s.planner.WithSink(rec).CreateTask(r.Context(), in)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusCreated, t, rec)
}

func (s *Server) handleEditTask(w http.ResponseWriter, r *http.Request) {
	patch, err := decodePatch(r)
	if err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	t, err := s.planner.WithSink(rec).EditTask(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, t, rec)
}

type toggleResponse struct {
	Task      models.Task `json:"task"`
	Completed bool        `json:"completed"`
}

func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	t, completed, err := s.planner.WithSink(rec).ToggleCompletion(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, toggleResponse{Task: t, Completed: completed}, rec)
}

func (s *Server) handleTaskStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status string `json:"status"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	status := models.TaskStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	t, err := s.planner.WithSink(rec).ChangeStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, t, rec)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	projects, err := s.planner.WithSink(rec).FetchProjects(r.Context())
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, projects, rec)
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var in planner.ProjectInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	p, err := s.planner.WithSink(rec).CreateProject(r.Context(), in)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusCreated, p, rec)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	rec := &notify.Recorder{}
	events, err := s.planner.WithSink(rec).FetchEvents(r.Context())
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusOK, events, rec)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in planner.EventInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, err, nil)
		return
	}
	rec := &notify.Recorder{}
	e, err := s.planner.WithSink(rec).CreateEvent(r.Context(), in)
	if err != nil {
		writeError(w, err, rec)
		return
	}
	writeData(w, http.StatusCreated, e, rec)
}

// decodePatch reads a partial task update. An explicit null for project_id,
// planned_date or completed_at clears that column; the other fields are not
// nullable.
func decodePatch(r *http.Request) (models.TaskPatch, error) {
	var raw map[string]json.RawMessage
	if err := decodeJSON(r, &raw); err != nil {
		return models.TaskPatch{}, err
	}

	var p models.TaskPatch
	for key, value := range raw {
		isNull := bytes.Equal(bytes.TrimSpace(value), []byte("null"))
		var str *string
		if !isNull {
			var v string
			if err := json.Unmarshal(value, &v); err != nil {
				return models.TaskPatch{}, fmt.Errorf("%w: %s must be a string", errBadRequest, key)
			}
			str = &v
		}

		switch key {
		case "title", "description", "priority", "status":
			if isNull {
				return models.TaskPatch{}, fmt.Errorf("%w: %s cannot be null", errBadRequest, key)
			}
		}

		switch key {
		case "title":
			p.Title = str
		case "description":
			p.Description = str
		case "priority":
			pr := models.Priority(strings.ToLower(*str))
			p.Priority = &pr
		case "status":
			st := models.TaskStatus(strings.ToLower(*str))
			p.Status = &st
		case "project_id":
			p.ProjectID, p.ClearProjectID = str, isNull
		case "planned_date":
			p.PlannedDate, p.ClearPlannedDate = str, isNull
		case "completed_at":
			p.CompletedAt, p.ClearCompletedAt = str, isNull
		default:
			return models.TaskPatch{}, fmt.Errorf("%w: unknown field %q", errBadRequest, key)
		}
	}
	if p.IsEmpty() {
		return models.TaskPatch{}, fmt.Errorf("%w: nothing to update", errBadRequest)
	}
	return p, nil
}
