package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/voice"
)

// maxTTSTextRunes bounds how much text one synthesis request may carry.
const maxTTSTextRunes = 5000

// VoiceHandler exposes text-to-speech endpoints.
type VoiceHandler struct {
	svc *voice.Service
}

// NewVoiceHandler creates a voice handler.
func NewVoiceHandler(svc *voice.Service) *VoiceHandler {
	return &VoiceHandler{svc: svc}
}

// RegisterRoutes registers voice routes.
func (h *VoiceHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1/voice", func(r chi.Router) {
		r.Post("/synthesize", h.Synthesize)
		r.Post("/synthesize/stream", h.SynthesizeStream)
		r.Get("/voices", h.Voices)
	})
}

type synthesizeRequest struct {
	Text  string      `json:"text"`
	Voice domain.Role `json:"voice"`
}

func (h *VoiceHandler) parseRequest(w http.ResponseWriter, r *http.Request) (synthesizeRequest, bool) {
	var req synthesizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	if req.Text == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return req, false
	}
	if utf8.RuneCountInString(req.Text) > maxTTSTextRunes {
		Error(w, http.StatusBadRequest, "text exceeds maximum length")
		return req, false
	}
	if req.Voice == "" {
		req.Voice = domain.RoleJames
	}
	if !req.Voice.Persona() {
		Error(w, http.StatusBadRequest, "voice must be \"james\" or \"linda\"")
		return req, false
	}
	return req, true
}

// Synthesize converts text to speech and returns the full audio.
func (h *VoiceHandler) Synthesize(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	audio, err := h.svc.Synthesize(r.Context(), req.Text, req.Voice)
	if err != nil {
		if errors.Is(err, voice.ErrNotConfigured) {
			Error(w, http.StatusServiceUnavailable, "voice service not configured")
			return
		}
		slog.Error("voice synthesis failed", "voice", req.Voice, "error", err)
		Error(w, http.StatusBadGateway, "voice synthesis failed")
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		slog.Debug("failed to write audio response", "error", err)
	}
}

// SynthesizeStream converts text to speech and streams the audio as it
// arrives from the upstream API.
func (h *VoiceHandler) SynthesizeStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRequest(w, r)
	if !ok {
		return
	}

	stream, err := h.svc.SynthesizeStream(r.Context(), req.Text, req.Voice)
	if err != nil {
		if errors.Is(err, voice.ErrNotConfigured) {
			Error(w, http.StatusServiceUnavailable, "voice service not configured")
			return
		}
		slog.Error("voice stream synthesis failed", "voice", req.Voice, "error", err)
		Error(w, http.StatusBadGateway, "voice synthesis failed")
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, stream); err != nil {
		slog.Debug("audio stream interrupted", "error", err)
	}
}

// Voices lists the available persona voices.
func (h *VoiceHandler) Voices(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{"voices": h.svc.Voices()})
}
