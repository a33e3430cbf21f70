package httpapi

import (
	"net/http"
	"strings"

	"github.com/xvierd/focusflow/internal/auth"
	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/services"
)

type userResponse struct {
	User *domain.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	user, err := s.svc.Auth.Register(r.Context(), req)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	if err := s.svc.Auth.SetSessionCookie(w, r, user); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, userResponse{User: user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	user, err := s.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	if err := s.svc.Auth.SetSessionCookie(w, r, user); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.svc.Auth.ClearSessionCookie(w, r)
	writeMessage(w, http.StatusOK, "logged out")
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, user *domain.User) {
	writeJSON(w, http.StatusOK, userResponse{User: user})
}

// Settings

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request, user *domain.User) {
	settings, err := s.svc.Settings.GetSettings(r.Context(), user.ID)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var settings domain.TimerSettings
	if err := decodeJSON(w, r, &settings); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	updated, err := s.svc.Settings.UpdateSettings(r.Context(), user.ID, settings)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Sessions

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req services.CreateSessionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	req.UserID = user.ID
	session, err := s.svc.Sessions.CreateSession(r.Context(), req)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var upd domain.SessionUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	session, err := s.svc.Sessions.UpdateSession(r.Context(), user.ID, r.PathValue("id"), upd)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request, user *domain.User) {
	filter, err := sessionFilter(r)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	sessions, err := s.svc.Sessions.ListSessions(r.Context(), user.ID, filter)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	if sessions == nil {
		sessions = []*domain.Session{}
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleActiveSession(w http.ResponseWriter, r *http.Request, user *domain.User) {
	session, err := s.svc.Sessions.GetActiveSession(r.Context(), user.ID)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// Tasks

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req services.AddTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	task, err := s.svc.Tasks.AddTask(r.Context(), user.ID, req)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request, user *domain.User) {
	req := services.ListTasksRequest{Query: r.URL.Query().Get("q")}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			writeErr(w, r, s.logger, err)
			return
		}
		req.Status = &st
	}
	tasks, err := s.svc.Tasks.ListTasks(r.Context(), user.ID, req)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	if tasks == nil {
		tasks = []*domain.Task{}
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request, user *domain.User) {
	task, err := s.svc.Tasks.GetTask(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var patch domain.TaskPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	task, err := s.svc.Tasks.UpdateTask(r.Context(), user.ID, r.PathValue("id"), patch)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request, user *domain.User) {
	if err := s.svc.Tasks.DeleteTask(r.Context(), user.ID, r.PathValue("id")); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeMessage(w, http.StatusOK, "task deleted")
}

// Distractions

func (s *Server) handleLogDistraction(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req services.LogDistractionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	d, err := s.svc.Distractions.LogDistraction(r.Context(), user.ID, req)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDistractions(w http.ResponseWriter, r *http.Request, user *domain.User) {
	list, err := s.svc.Distractions.ListDistractions(r.Context(), user.ID, r.PathValue("sessionId"))
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	if list == nil {
		list = []*domain.Distraction{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Analytics

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request, user *domain.User) {
	filter, err := sessionFilter(r)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	stats, err := s.svc.Analytics.Stats(r.Context(), user.ID, filter)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request, user *domain.User) {
	year, err := queryInt(r, "year")
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	heatmap, err := s.svc.Analytics.Heatmap(r.Context(), user.ID, year)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, heatmap)
}
