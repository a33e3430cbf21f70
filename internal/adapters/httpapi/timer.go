package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/xvierd/focusflow/internal/domain"
	"github.com/xvierd/focusflow/internal/engine"
	"github.com/xvierd/focusflow/internal/ports"
	"github.com/xvierd/focusflow/internal/preset"
)

const (
	streamWriteTimeout = 15 * time.Second
	streamPingInterval = 30 * time.Second
	streamBuffer       = 32
)

type modeRequest struct {
	Preset string `json:"preset"`
	engine.Mode
}

type attachTaskRequest struct {
	TaskID *string `json:"taskId"`
}

func (s *Server) handleTimerSnapshot(w http.ResponseWriter, r *http.Request, user *domain.User) {
	snap, err := s.svc.Timer.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTimerCommand(w http.ResponseWriter, r *http.Request, user *domain.User) {
	cmd, err := ports.ParseTimerCommand(r.PathValue("command"))
	if err != nil {
		writeMessage(w, http.StatusNotFound, err.Error())
		return
	}
	snap, err := s.svc.Timer.Command(r.Context(), user.ID, cmd)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request, user *domain.User) {
	writeJSON(w, http.StatusOK, preset.All(user.Settings))
}

// handleTimerMode switches the rotation to a named preset or to explicit
// durations.
func (s *Server) handleTimerMode(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req modeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}

	mode := req.Mode
	if req.Preset != "" {
		var err error
		mode, err = preset.Resolve(req.Preset, user.Settings)
		if err != nil {
			writeErr(w, r, s.logger, err)
			return
		}
	}

	snap, err := s.svc.Timer.SwitchMode(r.Context(), user.ID, mode)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleTimerTask(w http.ResponseWriter, r *http.Request, user *domain.User) {
	var req attachTaskRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	snap, err := s.svc.Timer.AttachTask(r.Context(), user.ID, req.TaskID)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type wsEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleTimerStream pushes the caller's timer over a websocket: one
// snapshot on connect, then a snapshot per change and an event per
// transition.
func (s *Server) handleTimerStream(w http.ResponseWriter, r *http.Request, user *domain.User) {
	updates, cancel := s.svc.Timer.Subscribe(user.ID, streamBuffer)
	defer cancel()

	snap, err := s.svc.Timer.Snapshot(r.Context(), user.ID)
	if err != nil {
		writeErr(w, r, s.logger, err)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.opts.OriginPatterns})
	if err != nil {
		s.logger.Debug("websocket accept failed", "user_id", user.ID, "error", err)
		return
	}
	defer ws.CloseNow()

	// Client frames are ignored; CloseRead cancels ctx when the peer goes.
	ctx := ws.CloseRead(r.Context())

	if err := writeEnvelope(ctx, ws, "snapshot", snap); err != nil {
		return
	}

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			pingCtx, done := context.WithTimeout(ctx, streamWriteTimeout)
			err := ws.Ping(pingCtx)
			done()
			if err != nil {
				return
			}
		case u, ok := <-updates:
			if !ok {
				ws.Close(websocket.StatusNormalClosure, "stream closed")
				return
			}
			if u.Event != nil {
				if err := writeEnvelope(ctx, ws, "event", u.Event); err != nil {
					s.logStreamError(user.ID, err)
					return
				}
			}
			if err := writeEnvelope(ctx, ws, "snapshot", u.Snapshot); err != nil {
				s.logStreamError(user.ID, err)
				return
			}
		}
	}
}

func writeEnvelope(ctx context.Context, ws *websocket.Conn, typ string, data any) error {
	payload, err := json.Marshal(wsEnvelope{Type: typ, Data: data})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, payload)
}

func (s *Server) logStreamError(userID string, err error) {
	if errors.Is(err, context.Canceled) || websocket.CloseStatus(err) != -1 {
		return
	}
	s.logger.Warn("timer stream write failed", "user_id", userID, "error", err)
}
