// Package suggest generates suggestion chips (topics, questions, arguments)
// shown to the user during a debate. Stateless per request: prompt the model,
// parse a JSON array, fall back to fixed lists on any failure.
package suggest

import (
	"context"
	"embed"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/llm"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// maxSuggestions caps how many chips one request returns.
const maxSuggestions = 6

// Context carries the debate state a suggestion request is grounded in. All
// fields are optional.
type Context struct {
	Topic          string
	UserPosition   string
	JamesLast      string
	LindaLast      string
	LectureContext string
}

// Service generates suggestions. A nil client always serves fallbacks.
type Service struct {
	client  llm.Client
	prompts map[domain.SuggestionType]string
}

// NewService loads per-type prompt templates from dir (embedded defaults for
// missing files) and wires the model client.
func NewService(client llm.Client, dir string) *Service {
	prompts := make(map[domain.SuggestionType]string, 3)
	for _, t := range []domain.SuggestionType{domain.SuggestionTopic, domain.SuggestionQuestion, domain.SuggestionArgument} {
		prompts[t] = loadPrompt(dir, string(t)+".txt")
	}
	return &Service{client: client, prompts: prompts}
}

func loadPrompt(dir, name string) string {
	if dir != "" {
		if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
			return string(data)
		}
		slog.Warn("suggestion prompt file not found, using embedded default", "file", name, "dir", dir)
	}
	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		panic("embedded suggestion prompt missing: " + name)
	}
	return string(data)
}

// Generate produces up to six suggestions of the requested type. Model
// outages and unparseable output both degrade to the typed fallback list.
func (s *Service) Generate(ctx context.Context, typ domain.SuggestionType, dc Context) []domain.Suggestion {
	if s.client == nil {
		return Fallback(typ, dc.Topic)
	}

	prompt := s.fillPrompt(typ, dc)
	raw, err := s.client.Complete(ctx, "", nil, prompt)
	if err != nil {
		slog.Error("suggestion generation failed, using fallback", "type", typ, "error", err)
		return Fallback(typ, dc.Topic)
	}

	suggestions, ok := parseSuggestions(raw, typ)
	if !ok {
		slog.Warn("suggestion output unparseable, using fallback", "type", typ)
		return Fallback(typ, dc.Topic)
	}
	return suggestions
}

func (s *Service) fillPrompt(typ domain.SuggestionType, dc Context) string {
	positionLabel := "미정"
	switch dc.UserPosition {
	case "pro":
		positionLabel = "찬성"
	case "con":
		positionLabel = "반대"
	}

	lecture := dc.LectureContext
	if lecture == "" {
		lecture = dc.Topic
	}
	if lecture == "" {
		lecture = "(강의 정보 없음)"
	}

	r := strings.NewReplacer(
		"{topic}", orDefault(dc.Topic, "자유 토론"),
		"{user_position}", orDefault(dc.UserPosition, "미정"),
		"{position_label}", positionLabel,
		"{james_last}", orDefault(dc.JamesLast, "(아직 발언 없음)"),
		"{linda_last}", orDefault(dc.LindaLast, "(아직 발언 없음)"),
		"{lecture_context}", lecture,
	)
	return r.Replace(s.prompts[typ])
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

type rawSuggestion struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Target string `json:"target"`
}

// parseSuggestions extracts the first JSON array in the output (models wrap
// arrays in prose or code fences) and normalizes the items.
func parseSuggestions(raw string, typ domain.SuggestionType) ([]domain.Suggestion, bool) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil, false
	}

	var items []rawSuggestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &items); err != nil {
		return nil, false
	}

	out := make([]domain.Suggestion, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		id := item.ID
		if id == "" {
			id = strconv.Itoa(len(out) + 1)
		}
		var target domain.SuggestionTarget
		switch domain.SuggestionTarget(item.Target) {
		case domain.TargetJames, domain.TargetLinda, domain.TargetGeneral:
			target = domain.SuggestionTarget(item.Target)
		}
		out = append(out, domain.Suggestion{ID: id, Text: item.Text, Type: typ, Target: target})
		if len(out) == maxSuggestions {
			break
		}
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Fallback returns the fixed suggestion list for a type, themed to the topic
// when one is known.
func Fallback(typ domain.SuggestionType, topic string) []domain.Suggestion {
	topicText := topic
	if topicText == "" {
		topicText = "이 주제"
	}

	switch typ {
	case domain.SuggestionTopic:
		return []domain.Suggestion{
			{ID: "1", Text: "이 강의 내용에서 가장 논쟁적인 부분은?", Type: typ},
			{ID: "2", Text: "강의 핵심 개념의 장단점은?", Type: typ},
			{ID: "3", Text: "실제 적용 시 예상되는 문제점은?", Type: typ},
		}
	case domain.SuggestionQuestion:
		return []domain.Suggestion{
			{ID: "1", Text: "제임스, " + topicText + "의 근거가 뭐예요?", Type: typ, Target: domain.TargetJames},
			{ID: "2", Text: "린다, " + topicText + "의 단점은 어떻게 생각해요?", Type: typ, Target: domain.TargetLinda},
			{ID: "3", Text: "구체적인 예시를 들어줄 수 있어요?", Type: typ, Target: domain.TargetGeneral},
		}
	default:
		return []domain.Suggestion{
			{ID: "1", Text: topicText + "에 대해 다른 관점이 있어요", Type: typ, Target: domain.TargetGeneral},
			{ID: "2", Text: "그 점은 맞지만, 현실적인 문제가 있어요", Type: typ, Target: domain.TargetGeneral},
			{ID: "3", Text: "강의에서 배운 내용을 적용해보면...", Type: typ, Target: domain.TargetGeneral},
		}
	}
}
