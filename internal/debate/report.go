package debate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/yeoul-ai/debate-server/internal/domain"
)

// ErrSessionNotFound is returned by GenerateReport for an unknown session.
// Reports need prior history; unlike Process, there is nothing sensible to
// auto-create here.
var ErrSessionNotFound = errors.New("debate: session not found")

const reportSystemPrompt = `당신은 토론 코칭 전문가입니다. 사용자의 토론 기록을 평가하여 성장 리포트를 작성합니다.

반드시 아래 스키마의 JSON 객체 하나로만 응답하세요. JSON 외의 텍스트를 포함하지 마세요.

{
  "logic_score": 0에서 100 사이의 정수 (논리력),
  "persuasion_score": 0에서 100 사이의 정수 (설득력),
  "topic_score": 0에서 100 사이의 정수 (주제 이해도),
  "summary": "토론 전반에 대한 2-3문장 요약",
  "improvement_tips": ["개선 팁 문자열", "..."],
  "ocr_alignment_score": OCR 텍스트가 제공된 경우 0-100 정수, 아니면 null,
  "ocr_feedback": OCR 텍스트가 제공된 경우 피드백 문자열, 아니면 null
}`

// rawReport matches the model's JSON output before sanitization. Scores are
// decoded as float pointers: models frequently emit them as floats, and
// presence must be distinguishable from zero so outputs like a literal null
// or an empty object are not mistaken for an all-zero evaluation.
type rawReport struct {
	LogicScore        *float64 `json:"logic_score"`
	PersuasionScore   *float64 `json:"persuasion_score"`
	TopicScore        *float64 `json:"topic_score"`
	Summary           string   `json:"summary"`
	ImprovementTips   []string `json:"improvement_tips"`
	OCRAlignmentScore *float64 `json:"ocr_alignment_score"`
	OCRFeedback       *string  `json:"ocr_feedback"`
}

// hasScores reports whether the output carried at least one score field. A
// parse that yields none is treated as unparseable.
func (r rawReport) hasScores() bool {
	return r.LogicScore != nil || r.PersuasionScore != nil || r.TopicScore != nil
}

// GenerateReport synthesizes a growth report from the session transcript,
// optionally aligned against OCR-extracted lecture notes. Model failures and
// malformed output fall back to the deterministic offline heuristic; the only
// hard error is an unknown session.
func (e *Engine) GenerateReport(ctx context.Context, sessionID, ocrText string) (domain.Report, error) {
	s := e.sessions.Get(sessionID)
	if s == nil {
		return domain.Report{}, ErrSessionNotFound
	}

	if e.client == nil {
		return offlineReport(s), nil
	}

	userTurn := buildReportTurn(s, ocrText)
	raw, err := e.client.Complete(ctx, reportSystemPrompt, nil, userTurn)
	if err != nil {
		slog.Error("report model call failed, using offline fallback",
			"session_id", sessionID, "error", err)
		return offlineReport(s), nil
	}

	parsed, ok := parseReportJSON(raw)
	if !ok {
		slog.Warn("report output unparseable, using offline fallback",
			"session_id", sessionID, "output_prefix", truncate(raw, 120))
		return offlineReport(s), nil
	}

	return sanitizeReport(parsed), nil
}

func buildReportTurn(s *Session, ocrText string) string {
	var b strings.Builder
	b.WriteString("[토론 주제]: ")
	b.WriteString(s.Topic)
	b.WriteString("\n[사용자 입장]: ")
	b.WriteString(s.Positions.User)
	b.WriteString("\n\n[토론 기록]\n")
	b.WriteString(transcriptBlob(s))
	b.WriteString("\n\n[OCR 텍스트]\n")
	if strings.TrimSpace(ocrText) == "" {
		b.WriteString("(제공되지 않음)")
	} else {
		b.WriteString(ocrText)
	}
	return b.String()
}

// transcriptBlob flattens the transcript to one "role: message" line per
// utterance, in order.
func transcriptBlob(s *Session) string {
	lines := make([]string, 0, len(s.Transcript))
	for _, e := range s.Transcript {
		lines = append(lines, string(e.Role)+": "+e.Message)
	}
	return strings.Join(lines, "\n")
}

// parseReportJSON tries a strict whole-string parse first, then retries on
// the substring between the first '{' and the last '}'. Models like to wrap
// JSON in prose or code fences. Either way the result must carry a score
// field: "null" and "{}" decode cleanly but are not evaluations.
func parseReportJSON(raw string) (rawReport, bool) {
	var r rawReport
	if err := json.Unmarshal([]byte(raw), &r); err == nil && r.hasScores() {
		return r, true
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return rawReport{}, false
	}
	r = rawReport{}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &r); err != nil || !r.hasScores() {
		return rawReport{}, false
	}
	return r, true
}

// sanitizeReport clamps scores into [0,100] and normalizes missing fields.
// An absent OCR score stays absent; it never becomes zero.
func sanitizeReport(r rawReport) domain.Report {
	report := domain.Report{
		LogicScore:      clampScore(scoreValue(r.LogicScore)),
		PersuasionScore: clampScore(scoreValue(r.PersuasionScore)),
		TopicScore:      clampScore(scoreValue(r.TopicScore)),
		Summary:         r.Summary,
		ImprovementTips: r.ImprovementTips,
		OCRFeedback:     r.OCRFeedback,
	}
	if report.ImprovementTips == nil {
		report.ImprovementTips = []string{}
	}
	if r.OCRAlignmentScore != nil {
		clamped := clampScore(int(*r.OCRAlignmentScore))
		report.OCRAlignmentScore = &clamped
	}
	return report
}

// offlineReport computes the deterministic heuristic report used when no
// model is configured or the model path failed. Integer division truncates.
func offlineReport(s *Session) domain.Report {
	entries := s.userEntries()

	base := 40
	if len(entries) > 0 {
		base = 60
	}

	avgLen := 0
	if len(entries) > 0 {
		total := 0
		for _, e := range entries {
			total += utf8.RuneCountInString(e.Message)
		}
		avgLen = total / len(entries)
	}

	logic := base + minInt(30, avgLen/4)
	persuasion := base + minInt(25, avgLen/5)
	topic := base
	if s.Topic != DefaultTopic {
		topic += 10
	}

	return domain.Report{
		LogicScore:      minInt(90, logic),
		PersuasionScore: minInt(90, persuasion),
		TopicScore:      minInt(90, topic),
		Summary:         "토론에 적극적으로 참여하며 자신의 생각을 표현했습니다. 주장에 구체적인 근거를 보강하면 더 설득력 있는 토론이 될 수 있습니다.",
		ImprovementTips: []string{
			"주장할 때 구체적인 근거나 사례를 함께 제시해보세요.",
			"상대 의견의 핵심을 먼저 요약한 뒤 반박해보세요.",
			"토론 주제와 연결된 질문을 던져 논의를 확장해보세요.",
		},
	}
}

func scoreValue(p *float64) int {
	if p == nil {
		return 0
	}
	return int(*p)
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
