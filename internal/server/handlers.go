package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"regulaite/internal/auth"
	"regulaite/internal/history"
	"regulaite/internal/pipeline"
)

// askRequest is the /api/ask payload. Mode, k and the toggles are
// optional; the server defaults apply.
type askRequest struct {
	UserID   string `json:"user_id"`
	Query    string `json:"query"`
	Mode     string `json:"mode,omitempty"`
	KHint    int    `json:"k_hint,omitempty"`
	Evidence *bool  `json:"evidence,omitempty"`
	Web      *bool  `json:"web,omitempty"`
}

type askResponse struct {
	Markdown  string   `json:"markdown"`
	Narrative string   `json:"raw_narrative"`
	Summary   string   `json:"summary,omitempty"`
	FollowUps []string `json:"follow_up_suggestions"`
	Citations []string `json:"citations,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "query must not be empty")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id must not be empty")
		return
	}

	var turns []history.Turn
	if s.history != nil {
		loaded, err := s.history.Load(req.UserID)
		if err != nil {
			s.logger.Warn("loading history failed",
				zap.String("user", req.UserID), zap.Error(err))
		} else {
			turns = loaded
		}
	}

	preq := pipeline.Request{
		Query:           req.Query,
		UserID:          req.UserID,
		History:         turns,
		ModeHint:        req.Mode,
		KHint:           req.KHint,
		EvidenceEnabled: s.opts.EvidenceEnabled,
		WebEnabled:      s.opts.WebEnabled,
	}
	if preq.ModeHint == "" {
		preq.ModeHint = s.opts.DefaultMode
	}
	if preq.KHint <= 0 {
		preq.KHint = s.opts.DefaultKHint
	}
	if req.Evidence != nil {
		preq.EvidenceEnabled = *req.Evidence
	}
	if req.Web != nil {
		preq.WebEnabled = *req.Web
	}

	ans := s.pipeline.Ask(r.Context(), preq)

	if s.history != nil {
		for _, turn := range [][2]string{
			{history.RoleUser, req.Query},
			{history.RoleAssistant, ans.RawNarrative},
		} {
			if err := s.history.Append(req.UserID, turn[0], turn[1]); err != nil {
				s.logger.Warn("appending history failed",
					zap.String("user", req.UserID), zap.Error(err))
				break
			}
		}
	}

	writeJSON(w, http.StatusOK, askResponse{
		Markdown:  ans.ToMarkdown(),
		Narrative: ans.RawNarrative,
		Summary:   ans.Summary,
		FollowUps: ans.FollowUpSuggestions,
		Citations: ans.Citations,
	})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	userID := chi.URLParam(r, "userID")
	turns, err := s.history.Load(userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "loading history failed")
		return
	}
	if turns == nil {
		turns = []history.Turn{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "turns": turns})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, "history is not configured")
		return
	}
	userID := chi.URLParam(r, "userID")
	if err := s.history.Clear(userID); err != nil {
		writeError(w, http.StatusInternalServerError, "clearing history failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"user_id": userID, "status": "cleared"})
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth is not configured")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.auth.Authenticate(req.Username, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "auth is not configured")
		return
	}
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch err := s.auth.Signup(req.Username, req.Password); {
	case err == nil:
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	case errors.Is(err, auth.ErrSignupClosed):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, auth.ErrUserExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusBadRequest, "invalid username or password")
	}
}
