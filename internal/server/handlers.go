package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/jhendrix/echo/internal/detector"
	"github.com/jhendrix/echo/internal/store"
	"github.com/jhendrix/echo/internal/target"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeDetectorError maps detector and profile errors to status codes.
func writeDetectorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, detector.ErrNotCalibrated):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, detector.ErrCooldownActive):
		writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, detector.ErrNoTargetFound):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, target.ErrUnknownProfile):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

type statusResponse struct {
	detector.Status
	AutoDetect bool `json:"auto_detect"`
}

// handleStatus handles GET /api/status.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Status:     s.config.App.Detector().Status(),
		AutoDetect: s.config.App.IsEnabled(),
	})
}

type calibrateRequest struct {
	TargetSize string `json:"target_size"`
}

// handleCalibrate handles POST /api/calibrate. The body is optional; a
// target_size different from the active profile reconfigures first.
func (s *Server) handleCalibrate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req calibrateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cal, err := s.config.App.Calibrate(req.TargetSize)
	if err != nil {
		writeDetectorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, cal)
}

// handleDetect handles POST /api/detect and runs one detection cycle.
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	// Checked here so an uncalibrated detector fails before the capture.
	if !s.config.App.Detector().Calibrated() {
		writeDetectorError(w, detector.ErrNotCalibrated)
		return
	}

	det, err := s.config.App.DetectOnce()
	if err != nil {
		writeDetectorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, det)
}

// handleArrows handles GET /api/arrows.
func (s *Server) handleArrows(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	arrows := s.config.App.Detector().Arrows()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"arrows": arrows,
		"count":  len(arrows),
	})
}

// handleStatistics handles GET /api/statistics.
func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	writeJSON(w, http.StatusOK, s.config.App.Detector().Statistics())
}

// handleReset handles POST /api/reset and starts a fresh session.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.config.App.Reset()
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": s.config.App.Detector().SessionID(),
	})
}

type reconfigureRequest struct {
	TargetSize string `json:"target_size"`
}

// handleReconfigure handles POST /api/reconfigure.
func (s *Server) handleReconfigure(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req reconfigureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TargetSize == "" {
		writeError(w, http.StatusBadRequest, "target_size is required")
		return
	}

	if err := s.config.App.Reconfigure(req.TargetSize); err != nil {
		writeDetectorError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"target_profile": req.TargetSize,
		"calibrated":     false,
	})
}

type autoDetectRequest struct {
	Enabled bool `json:"enabled"`
}

// handleAutoDetect handles GET and POST /api/auto-detect.
func (s *Server) handleAutoDetect(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": s.config.App.IsEnabled()})
	case http.MethodPost:
		var req autoDetectRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		s.config.App.SetEnabled(req.Enabled)
		writeJSON(w, http.StatusOK, map[string]bool{"enabled": req.Enabled})
	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

// SessionsHandler serves the session history recorded in the store.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a new SessionsHandler with the given store.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id}, and
// /api/sessions/{id}/arrows.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		h.list(w, r)
		return
	}

	if id, ok := strings.CutSuffix(path, "/arrows"); ok {
		h.arrows(w, r, id)
		return
	}
	h.get(w, r, path)
}

// list handles GET /api/sessions.
func (h *SessionsHandler) list(w http.ResponseWriter, _ *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// get handles GET /api/sessions/{id}.
func (h *SessionsHandler) get(w http.ResponseWriter, _ *http.Request, id string) {
	sess, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	writeJSON(w, http.StatusOK, sess)
}

// arrows handles GET /api/sessions/{id}/arrows.
func (h *SessionsHandler) arrows(w http.ResponseWriter, _ *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to load session")
		return
	}

	arrows, err := h.store.Sessions().Arrows(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load arrows")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"arrows": arrows,
		"count":  len(arrows),
	})
}
