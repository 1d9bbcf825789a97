package debate

import (
	"embed"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yeoul-ai/debate-server/internal/domain"
)

//go:embed prompts/*.txt
var defaultPrompts embed.FS

// Sentinel values substituted when the caller left a field blank.
const (
	// DefaultTopic stands in for an empty debate topic ("free debate").
	DefaultTopic = "자유 토론"
	// defaultLectureContext stands in for a missing lecture context
	// ("general discussion").
	defaultLectureContext = "일반적인 토론"
)

// PromptSet holds the two persona system-prompt templates. Templates are
// loaded once at startup; resolution happens per turn.
type PromptSet struct {
	james string
	linda string
}

// LoadPrompts reads persona templates from dir, falling back to the embedded
// defaults for any file that is missing or unreadable. An empty dir loads
// the embedded defaults directly.
func LoadPrompts(dir string) *PromptSet {
	return &PromptSet{
		james: loadPrompt(dir, "james.txt"),
		linda: loadPrompt(dir, "linda.txt"),
	}
}

func loadPrompt(dir, name string) string {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data)
		}
		slog.Warn("persona prompt file not found, using embedded default", "file", name, "dir", dir)
	}
	data, err := defaultPrompts.ReadFile("prompts/" + name)
	if err != nil {
		// Embedded assets are compiled in; missing ones are a build defect.
		panic("embedded prompt missing: " + name)
	}
	return string(data)
}

// Resolve substitutes session-derived values into the persona's template.
// The effective lecture context is the non-blank override if given, else the
// session's stored value, else the general-discussion sentinel.
func (p *PromptSet) Resolve(persona domain.Role, s *Session, lectureOverride string) string {
	tmpl := p.james
	ownPosition := s.Positions.James
	if persona == domain.RoleLinda {
		tmpl = p.linda
		ownPosition = s.Positions.Linda
	}

	lecture := strings.TrimSpace(lectureOverride)
	if lecture == "" {
		lecture = strings.TrimSpace(s.LectureContext)
	}
	if lecture == "" {
		lecture = defaultLectureContext
	}

	r := strings.NewReplacer(
		"{topic}", s.Topic,
		"{user_position}", s.Positions.User,
		"{own_position}", ownPosition,
		"{lecture_context}", lecture,
	)
	return r.Replace(tmpl)
}
