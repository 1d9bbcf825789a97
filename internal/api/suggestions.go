package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/suggest"
)

// SuggestionHandler exposes the suggestion service over HTTP.
type SuggestionHandler struct {
	svc *suggest.Service
}

// NewSuggestionHandler creates a suggestion handler.
func NewSuggestionHandler(svc *suggest.Service) *SuggestionHandler {
	return &SuggestionHandler{svc: svc}
}

// RegisterRoutes registers suggestion routes.
func (h *SuggestionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/suggestions", func(r chi.Router) {
		r.Post("/generate", h.Generate)
		r.Get("/types", h.Types)
	})
}

type suggestionContext struct {
	Topic          string `json:"topic"`
	UserPosition   string `json:"user_position"`
	JamesLast      string `json:"james_last"`
	LindaLast      string `json:"linda_last"`
	LectureContext string `json:"lecture_context"`
}

type generateRequest struct {
	SessionID      string                `json:"session_id"`
	SuggestionType domain.SuggestionType `json:"suggestion_type"`
	Context        suggestionContext     `json:"context"`
}

type generateResponse struct {
	Suggestions []domain.Suggestion `json:"suggestions"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// Generate produces suggestion chips for the current debate context.
func (h *SuggestionHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.SuggestionType.Valid() {
		Error(w, http.StatusBadRequest, "suggestion_type must be one of \"topic\", \"question\", \"argument\"")
		return
	}

	suggestions := h.svc.Generate(r.Context(), req.SuggestionType, suggest.Context{
		Topic:          req.Context.Topic,
		UserPosition:   req.Context.UserPosition,
		JamesLast:      req.Context.JamesLast,
		LindaLast:      req.Context.LindaLast,
		LectureContext: req.Context.LectureContext,
	})

	JSON(w, http.StatusOK, generateResponse{
		Suggestions: suggestions,
		GeneratedAt: time.Now().UTC(),
	})
}

// Types lists the available suggestion kinds and when to use them.
func (h *SuggestionHandler) Types(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"types": []map[string]string{
			{
				"value":       "topic",
				"label":       "토론 주제",
				"emoji":       "🎯",
				"description": "토론 시작 전 주제 추천",
			},
			{
				"value":       "question",
				"label":       "질문하기",
				"emoji":       "❓",
				"description": "제임스/린다에게 던질 질문",
			},
			{
				"value":       "argument",
				"label":       "발언하기",
				"emoji":       "💬",
				"description": "내 입장을 표현할 발언",
			},
		},
	})
}
