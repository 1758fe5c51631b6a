// Package web exposes the scheduler over a small JSON HTTP API. The engine
// owns all temporal logic; handlers only decode input, map errors to status
// codes, and encode results.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/vthunder/dayplan/internal/engine"
	"github.com/vthunder/dayplan/internal/logging"
	"github.com/vthunder/dayplan/internal/schedule"
	"github.com/vthunder/dayplan/internal/store"
)

// Server provides the HTTP API over the engine and template store
type Server struct {
	engine *engine.Engine
	store  *store.Store
	mux    *http.ServeMux
}

// NewServer constructs a new Server
func NewServer(eng *engine.Engine, st *store.Store) *Server {
	s := &Server{engine: eng, store: st, mux: http.NewServeMux()}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /tasks", s.handleCreateTask)
	s.mux.HandleFunc("GET /tasks", s.handleListTasks)
	s.mux.HandleFunc("GET /tasks/{id}", s.handleGetTask)
	s.mux.HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
	s.mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)

	s.mux.HandleFunc("GET /schedule/today", s.handleToday)
	s.mux.HandleFunc("POST /schedule/adhoc-today", s.handleAdHocToday)
	s.mux.HandleFunc("PUT /schedule/instances/{id}", s.handleUpdateInstance)
	s.mux.HandleFunc("POST /schedule/instances/{id}/interactions/start", s.handleStartInteraction)
	s.mux.HandleFunc("POST /schedule/instances/{id}/acknowledge", s.handleAcknowledge)
	s.mux.HandleFunc("POST /schedule/instances/{id}/snooze", s.handleSnooze)
	s.mux.HandleFunc("GET /schedule/interactions/recent", s.handleRecentInteractions)
	s.mux.HandleFunc("GET /schedule/alarm-config", s.handleGetAlarmConfig)
	s.mux.HandleFunc("PUT /schedule/alarm-config", s.handleUpdateAlarmConfig)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// taskPayload mirrors the template wire shape
type taskPayload struct {
	ID              int64  `json:"id,omitempty"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	DurationMinutes int    `json:"default_duration_minutes"`
	Recurrence      string `json:"recurrence_pattern"`
	PreferredWindow string `json:"preferred_time_window"`
	AlertStyle      string `json:"default_alert_style"`
	Enabled         *bool  `json:"enabled,omitempty"`
}

func (p *taskPayload) toTemplate() schedule.Template {
	enabled := true
	if p.Enabled != nil {
		enabled = *p.Enabled
	}
	return schedule.Template{
		ID:              p.ID,
		Name:            p.Name,
		Category:        p.Category,
		DurationMinutes: p.DurationMinutes,
		Recurrence:      p.Recurrence,
		PreferredWindow: p.PreferredWindow,
		AlertStyle:      schedule.AlertStyle(p.AlertStyle),
		Enabled:         enabled,
	}
}

func taskFromTemplate(t schedule.Template) taskPayload {
	enabled := t.Enabled
	return taskPayload{
		ID:              t.ID,
		Name:            t.Name,
		Category:        t.Category,
		DurationMinutes: t.DurationMinutes,
		Recurrence:      t.Recurrence,
		PreferredWindow: t.PreferredWindow,
		AlertStyle:      string(t.AlertStyle),
		Enabled:         &enabled,
	}
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tmpl := payload.toTemplate()
	if err := schedule.ValidateTemplate(&tmpl); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.AddTemplate(&tmpl); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, taskFromTemplate(tmpl))
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(true)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]taskPayload, 0, len(templates))
	for _, t := range templates {
		out = append(out, taskFromTemplate(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	tmpl, err := s.store.GetTemplate(id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromTemplate(*tmpl))
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload taskPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	tmpl := payload.toTemplate()
	tmpl.ID = id
	if err := schedule.ValidateTemplate(&tmpl); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.store.UpdateTemplate(&tmpl); err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, taskFromTemplate(tmpl))
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	// Soft delete: disable so historical instances stay intact
	if err := s.store.DisableTemplate(id); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	items, err := s.engine.GetTodaySchedule()
	if err != nil {
		s.fail(w, err)
		return
	}
	if items == nil {
		items = []engine.TodayItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAdHocToday(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Name            string `json:"name"`
		Category        string `json:"category"`
		DurationMinutes int    `json:"duration_minutes"`
		StartTime       string `json:"start_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	start, err := schedule.ParseClock(payload.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start_time")
		return
	}
	item, err := s.engine.CreateAdHocToday(payload.Name, payload.Category, payload.DurationMinutes, start)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdateInstance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload struct {
		PlannedStart *string `json:"planned_start_time"`
		Status       *string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	var newStart *time.Duration
	if payload.PlannedStart != nil {
		offset, err := schedule.ParseClock(*payload.PlannedStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid planned_start_time")
			return
		}
		newStart = &offset
	}
	var newStatus *schedule.Status
	if payload.Status != nil {
		st := schedule.Status(*payload.Status)
		newStatus = &st
	}

	item, err := s.engine.UpdateInstance(id, newStart, newStatus)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleStartInteraction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	alertType := r.URL.Query().Get("alert_type")
	if err := s.engine.StartInteraction(id, alertType); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	stage := schedule.ResponseStage(r.URL.Query().Get("stage"))
	item, err := s.engine.Acknowledge(id, stage)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleSnooze(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Minutes int `json:"minutes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	stage := schedule.ResponseStage(r.URL.Query().Get("stage"))
	item, err := s.engine.Snooze(id, payload.Minutes, stage)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// historyItem is the wire shape of one interaction history row
type historyItem struct {
	ID            int64      `json:"id"`
	InstanceID    int64      `json:"schedule_instance_id"`
	TaskName      string     `json:"task_name"`
	Category      string     `json:"category"`
	AlertType     string     `json:"alert_type"`
	AlertStarted  time.Time  `json:"alert_started_at"`
	ResponseType  string     `json:"response_type,omitempty"`
	ResponseStage string     `json:"response_stage,omitempty"`
	RespondedAt   *time.Time `json:"responded_at,omitempty"`
}

func (s *Server) handleRecentInteractions(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	rows, err := s.engine.RecentInteractions(limit)
	if err != nil {
		s.fail(w, err)
		return
	}
	out := make([]historyItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, historyItem{
			ID:            row.ID,
			InstanceID:    row.InstanceID,
			TaskName:      row.TaskName,
			Category:      row.Category,
			AlertType:     row.AlertType,
			AlertStarted:  row.StartedAt,
			ResponseType:  string(row.ResponseType),
			ResponseStage: string(row.ResponseStage),
			RespondedAt:   row.RespondedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlarmConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.store.GetAlarmConfig()
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateAlarmConfig(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Sound         *string `json:"sound"`
		VolumePercent *int    `json:"volume_percent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	cfg, err := s.store.UpdateAlarmConfig(payload.Sound, payload.VolumePercent)
	if err != nil {
		// UpdateAlarmConfig only rejects bad input
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

// fail maps engine/store errors to HTTP status codes
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case engine.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Error("web", "request failed", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("web", "failed to encode response", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
