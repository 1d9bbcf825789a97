package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/yeoul-ai/debate-server/internal/debate"
	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/identity"
	"github.com/yeoul-ai/debate-server/internal/store"
)

// DebateHandler exposes the debate engine over HTTP.
type DebateHandler struct {
	engine *debate.Engine
	repo   store.Repository
}

// NewDebateHandler creates a debate handler.
func NewDebateHandler(engine *debate.Engine, repo store.Repository) *DebateHandler {
	return &DebateHandler{engine: engine, repo: repo}
}

// RegisterRoutes registers debate routes.
func (h *DebateHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/debate", func(r chi.Router) {
		r.Post("/start", h.Start)
		r.Post("/message", h.Message)
		r.Post("/message/single", h.SingleMessage)
		r.Get("/sessions/{sessionID}", h.GetSession)
		r.Get("/sessions/{sessionID}/reports", h.ListReports)
		r.Post("/report", h.Report)
	})
}

type startRequest struct {
	Topic        string `json:"topic"`
	UserPosition string `json:"user_position"`
}

type startResponse struct {
	SessionID      string    `json:"session_id"`
	Topic          string    `json:"topic"`
	UserPosition   string    `json:"user_position_label"`
	JamesPosition  string    `json:"james_position"`
	LindaPosition  string    `json:"linda_position"`
	OpeningMessage string    `json:"opening_message"`
	CreatedAt      time.Time `json:"created_at"`
}

// Start creates a new debate session with a generated ID.
func (h *DebateHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.UserPosition != debate.PositionPro && req.UserPosition != debate.PositionCon {
		Error(w, http.StatusBadRequest, "user_position must be \"pro\" or \"con\"")
		return
	}

	sessionID := uuid.NewString()
	s := h.engine.Initialize(sessionID, req.Topic, req.UserPosition, "")

	opening := "토론 주제: '" + s.Topic + "'에 대한 토론을 시작합니다. 제임스는 " +
		s.Positions.James + ", 린다는 " + s.Positions.Linda + " 입장입니다."

	JSON(w, http.StatusOK, startResponse{
		SessionID:      sessionID,
		Topic:          s.Topic,
		UserPosition:   s.Positions.User,
		JamesPosition:  s.Positions.James,
		LindaPosition:  s.Positions.Linda,
		OpeningMessage: opening,
		CreatedAt:      s.CreatedAt,
	})
}

type messageRequest struct {
	SessionID      string `json:"session_id"`
	UserMessage    string `json:"user_message"`
	LectureContext string `json:"lecture_context"`
}

type messageResponse struct {
	SessionID     string    `json:"session_id"`
	JamesResponse string    `json:"james_response"`
	LindaResponse string    `json:"linda_response"`
	TokensEarned  int       `json:"tokens_earned"`
	Timestamp     time.Time `json:"timestamp"`
}

// Message runs one full User→James→Linda debate turn.
func (h *DebateHandler) Message(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}
	if strings.TrimSpace(req.UserMessage) == "" {
		Error(w, http.StatusBadRequest, "user_message is required")
		return
	}

	james, linda, tokens := h.engine.Process(r.Context(), req.SessionID, req.UserMessage, req.LectureContext)

	JSON(w, http.StatusOK, messageResponse{
		SessionID:     req.SessionID,
		JamesResponse: james,
		LindaResponse: linda,
		TokensEarned:  tokens,
		Timestamp:     time.Now().UTC(),
	})
}

type singleMessageRequest struct {
	SessionID     string      `json:"session_id"`
	Message       string      `json:"message"`
	TargetDebater domain.Role `json:"target_debater"`
}

type singleMessageResponse struct {
	SessionID string      `json:"session_id"`
	Debater   domain.Role `json:"debater"`
	Message   string      `json:"message"`
	AudioURL  *string     `json:"audio_url"`
	Timestamp time.Time   `json:"timestamp"`
}

// SingleMessage gets a reply from one persona outside the paired protocol.
func (h *DebateHandler) SingleMessage(w http.ResponseWriter, r *http.Request) {
	var req singleMessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" || strings.TrimSpace(req.Message) == "" {
		Error(w, http.StatusBadRequest, "session_id and message are required")
		return
	}
	if req.TargetDebater == "" {
		req.TargetDebater = domain.RoleJames
	}
	if !req.TargetDebater.Persona() {
		Error(w, http.StatusBadRequest, "target_debater must be \"james\" or \"linda\"")
		return
	}

	reply := h.engine.GenerateResponse(r.Context(), req.SessionID, req.Message, req.TargetDebater, "")

	JSON(w, http.StatusOK, singleMessageResponse{
		SessionID: req.SessionID,
		Debater:   req.TargetDebater,
		Message:   reply,
		Timestamp: time.Now().UTC(),
	})
}

// GetSession returns a session summary. Unknown sessions get a soft
// not_found body with status 200, mirroring the mobile clients' expectation.
func (h *DebateHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	s := h.engine.GetSession(sessionID)
	if s == nil {
		JSON(w, http.StatusOK, map[string]string{
			"session_id": sessionID,
			"status":     "not_found",
			"message":    "세션을 찾을 수 없습니다.",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"session_id":          sessionID,
		"status":              "active",
		"topic":               s.Topic,
		"user_position_label": s.Positions.User,
		"james_position":      s.Positions.James,
		"linda_position":      s.Positions.Linda,
		"total_tokens_earned": s.TokensEarned,
		"message_count":       len(s.Transcript),
	})
}

type reportRequest struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	OCRText   string `json:"ocr_text"`
}

type reportResponse struct {
	SessionID string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
	domain.Report
}

// Report synthesizes a growth report for a session and persists it. Unknown
// sessions are a hard 404 here: reports require prior history, unlike
// Message, which auto-creates sessions.
func (h *DebateHandler) Report(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SessionID == "" {
		Error(w, http.StatusBadRequest, "session_id is required")
		return
	}

	report, err := h.engine.GenerateReport(r.Context(), req.SessionID, req.OCRText)
	if err != nil {
		if errors.Is(err, debate.ErrSessionNotFound) {
			Error(w, http.StatusNotFound, "session not found")
			return
		}
		Error(w, http.StatusInternalServerError, "failed to generate report")
		return
	}

	userID := req.UserID
	if userID == "" {
		userID = identity.UserIDFromContext(r.Context())
	}

	rec := &domain.ReportRecord{
		SessionID: req.SessionID,
		UserID:    userID,
		Report:    report,
		CreatedAt: time.Now(),
	}
	// Sink failures never reach the caller; the report itself succeeded.
	if err := h.repo.SaveReport(r.Context(), rec); err != nil {
		slog.Error("failed to persist debate report",
			"session_id", req.SessionID, "error", err)
	}

	JSON(w, http.StatusOK, reportResponse{
		SessionID: req.SessionID,
		CreatedAt: rec.CreatedAt,
		Report:    report,
	})
}

// ListReports returns previously persisted reports for a session.
func (h *DebateHandler) ListReports(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	recs, err := h.repo.ListReports(r.Context(), sessionID)
	if err != nil {
		slog.Error("failed to list debate reports", "session_id", sessionID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list reports")
		return
	}

	out := make([]reportResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, reportResponse{
			SessionID: rec.SessionID,
			CreatedAt: rec.CreatedAt,
			Report:    rec.Report,
		})
	}
	JSON(w, http.StatusOK, map[string]interface{}{"reports": out, "total_count": len(out)})
}
