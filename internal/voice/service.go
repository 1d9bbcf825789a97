// Package voice synthesizes persona speech through the ElevenLabs TTS API.
// The debate core never calls this; it serves the voice endpoints only.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/yeoul-ai/debate-server/internal/config"
	"github.com/yeoul-ai/debate-server/internal/domain"
)

const (
	defaultBaseURL = "https://api.elevenlabs.io/v1"
	ttsModelID     = "eleven_multilingual_v2"
)

// ErrNotConfigured is returned when the API key or the requested persona's
// voice ID is missing.
var ErrNotConfigured = errors.New("voice: service not configured")

// Service calls the ElevenLabs text-to-speech API.
type Service struct {
	apiKey       string
	jamesVoiceID string
	lindaVoiceID string
	baseURL      string
	httpClient   *http.Client
}

// NewService builds the TTS service from configuration.
func NewService(cfg config.ElevenLabsConfig) *Service {
	return &Service{
		apiKey:       cfg.APIKey,
		jamesVoiceID: cfg.JamesVoiceID,
		lindaVoiceID: cfg.LindaVoiceID,
		baseURL:      defaultBaseURL,
		httpClient:   &http.Client{Timeout: 60 * time.Second},
	}
}

func (s *Service) voiceID(persona domain.Role) string {
	switch persona {
	case domain.RoleJames:
		return s.jamesVoiceID
	case domain.RoleLinda:
		return s.lindaVoiceID
	}
	return ""
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (s *Service) request(ctx context.Context, text string, persona domain.Role, stream bool) (*http.Response, error) {
	voiceID := s.voiceID(persona)
	if voiceID == "" || s.apiKey == "" {
		return nil, ErrNotConfigured
	}

	url := s.baseURL + "/text-to-speech/" + voiceID
	if stream {
		url += "/stream"
	}

	body, err := json.Marshal(ttsRequest{
		Text:          text,
		ModelID:       ttsModelID,
		VoiceSettings: voiceSettings{Stability: 0.5, SimilarityBoost: 0.75},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build tts request: %w", err)
	}
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts request failed: status %d: %s", resp.StatusCode, detail)
	}
	return resp, nil
}

// Synthesize converts text to speech and returns the full audio bytes.
func (s *Service) Synthesize(ctx context.Context, text string, persona domain.Role) ([]byte, error) {
	resp, err := s.request(ctx, text, persona, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read tts response: %w", err)
	}
	return audio, nil
}

// SynthesizeStream converts text to speech and returns the audio as a
// stream. The caller must close the returned reader.
func (s *Service) SynthesizeStream(ctx context.Context, text string, persona domain.Role) (io.ReadCloser, error) {
	resp, err := s.request(ctx, text, persona, true)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// VoiceInfo describes one available persona voice.
type VoiceInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// Voices lists the persona voices the service can speak with.
func (s *Service) Voices() []VoiceInfo {
	return []VoiceInfo{
		{
			ID:          string(domain.RoleJames),
			Name:        "제임스",
			Description: "남성 음성 - 논리적이고 차분한 토론 스타일",
			Language:    "ko-KR",
		},
		{
			ID:          string(domain.RoleLinda),
			Name:        "린다",
			Description: "여성 음성 - 감성적이고 설득력 있는 토론 스타일",
			Language:    "ko-KR",
		},
	}
}
