// Package debate implements the three-party debate engine: session state,
// the User→James→Linda turn protocol, token rewards, and growth reports.
package debate

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/llm"
)

// Engine orchestrates debate sessions. A nil model client puts the engine in
// offline mode: persona turns answer with deterministic stubs and reports use
// the heuristic fallback.
//
// The engine does not serialize calls per session; callers must not issue
// concurrent Process/Initialize calls for the same session key.
type Engine struct {
	client   llm.Client
	prompts  *PromptSet
	sessions *SessionStore
	memories *MemoryStore
}

// NewEngine wires the orchestrator. Construct once at startup and share.
func NewEngine(client llm.Client, prompts *PromptSet, sessions *SessionStore, memories *MemoryStore) *Engine {
	return &Engine{
		client:   client,
		prompts:  prompts,
		sessions: sessions,
		memories: memories,
	}
}

// ReplyFunc observes persona replies in protocol order as they are produced.
// James's reply is emitted before Linda's model call is issued.
type ReplyFunc func(persona domain.Role, reply string)

// Initialize creates (or recreates) a session. A blank topic becomes the
// free-debate sentinel; positions are derived from the user's stance exactly
// once, here. Calling Initialize on an existing session discards its
// transcript, reward total, and persona memories. That overwrite is
// intentional, documented behavior.
func (e *Engine) Initialize(sessionID, topic, userPosition, lectureContext string) *Session {
	if strings.TrimSpace(topic) == "" {
		topic = DefaultTopic
	}

	now := time.Now()
	s := &Session{
		ID:             sessionID,
		Topic:          topic,
		UserPosition:   userPosition,
		Positions:      DerivePositions(userPosition),
		LectureContext: lectureContext,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	e.sessions.Put(s)
	e.memories.Reset(sessionID)
	return s
}

// Process runs one full debate turn: reward the user message, get James's
// critical reply, then Linda's supportive reply built on James's output, and
// append all three utterances to the transcript. An unknown session is
// lazily created with default topic and neutral positions.
func (e *Engine) Process(ctx context.Context, sessionID, userMessage, lectureContext string) (jamesReply, lindaReply string, tokensEarned int) {
	return e.ProcessLive(ctx, sessionID, userMessage, lectureContext, nil)
}

// ProcessLive is Process with a reply observer: each persona's reply is
// emitted as soon as it exists, preserving the strict James-before-Linda
// ordering for streaming transports.
func (e *Engine) ProcessLive(ctx context.Context, sessionID, userMessage, lectureContext string, emit ReplyFunc) (jamesReply, lindaReply string, tokensEarned int) {
	s := e.sessions.Get(sessionID)
	if s == nil {
		s = e.Initialize(sessionID, "", "", lectureContext)
	}
	// Marking the session active up front keeps the TTL sweeper from
	// evicting it while the model calls below are in flight.
	e.sessions.Touch(sessionID)

	// A blank override never erases previously stored context.
	if strings.TrimSpace(lectureContext) != "" {
		s.LectureContext = lectureContext
	}

	tokensEarned = EvaluateTokens(userMessage)
	s.TokensEarned += tokensEarned

	jamesReply = e.jamesTurn(ctx, s, userMessage, lectureContext)
	if emit != nil {
		emit(domain.RoleJames, jamesReply)
	}

	// Linda's call is issued only after James's completes: her prompt quotes
	// his literal output.
	lindaReply = e.lindaTurn(ctx, s, userMessage, jamesReply, lectureContext)
	if emit != nil {
		emit(domain.RoleLinda, lindaReply)
	}

	s.appendTranscript(domain.RoleUser, userMessage)
	s.appendTranscript(domain.RoleJames, jamesReply)
	s.appendTranscript(domain.RoleLinda, lindaReply)
	e.sessions.Touch(sessionID)

	return jamesReply, lindaReply, tokensEarned
}

// GenerateResponse produces a single persona's reply outside the paired
// protocol. Linda's prompt keeps the James-opinion slot, marked explicitly
// as absent. The transcript and reward total are not touched.
func (e *Engine) GenerateResponse(ctx context.Context, sessionID, userMessage string, persona domain.Role, lectureContext string) string {
	s := e.sessions.Get(sessionID)
	if s == nil {
		s = e.Initialize(sessionID, "", "", lectureContext)
	}
	e.sessions.Touch(sessionID)

	if persona == domain.RoleLinda {
		return e.lindaTurn(ctx, s, userMessage, "", lectureContext)
	}
	return e.jamesTurn(ctx, s, userMessage, lectureContext)
}

// GetSession returns the session for the key, or nil when unknown.
func (e *Engine) GetSession(sessionID string) *Session {
	return e.sessions.Get(sessionID)
}

func (e *Engine) jamesTurn(ctx context.Context, s *Session, userMessage, lectureContext string) string {
	turn := debateHeader(s) + "\n\n[사용자 발언]: " + userMessage
	return e.personaTurn(ctx, s, domain.RoleJames, userMessage, turn, lectureContext)
}

func (e *Engine) lindaTurn(ctx context.Context, s *Session, userMessage, jamesReply, lectureContext string) string {
	opinion := jamesReply
	if strings.TrimSpace(opinion) == "" {
		opinion = "(아직 의견 없음)"
	}
	turn := debateHeader(s) +
		"\n\n[사용자 발언]: " + userMessage +
		"\n\n[제임스의 의견]: " + opinion +
		"\n\n위 내용을 참고하여, 토론 주제에 맞춰 사용자의 주장을 지지하는 관점에서 응답해주세요."
	return e.personaTurn(ctx, s, domain.RoleLinda, userMessage, turn, lectureContext)
}

// personaTurn runs one model call for a persona. Any model failure is logged
// and replaced with a deterministic stub; it never reaches the caller. On
// success the memory window stores the original user message, not the
// composed debate-context turn.
func (e *Engine) personaTurn(ctx context.Context, s *Session, persona domain.Role, userMessage, composedTurn, lectureContext string) string {
	if e.client == nil {
		return stubReply(persona, userMessage)
	}

	systemPrompt := e.prompts.Resolve(persona, s, lectureContext)
	history := e.memories.History(s.ID, persona)

	reply, err := e.client.Complete(ctx, systemPrompt, history, composedTurn)
	if err != nil {
		slog.Error("persona reply failed, using stub",
			"persona", persona,
			"session_id", s.ID,
			"error", err)
		return stubReply(persona, userMessage)
	}

	e.memories.Append(s.ID, persona, userMessage, reply)
	return reply
}

func debateHeader(s *Session) string {
	return "[토론 주제]: " + s.Topic + "\n[사용자 입장]: " + s.Positions.User
}

// stubReply builds the fixed outage reply from the first 30 runes of the
// user's message.
func stubReply(persona domain.Role, userMessage string) string {
	prefix := []rune(userMessage)
	if len(prefix) > 30 {
		prefix = prefix[:30]
	}
	quoted := "'" + string(prefix) + "...'"

	if persona == domain.RoleLinda {
		return "좋은 지적이에요! 😊 " + quoted + "라는 생각에서 창의적인 관점이 느껴집니다. 이 아이디어를 더 발전시켜서 구체적인 예시를 추가해보면 어떨까요? 💡"
	}
	return "흥미로운 관점이지만, 몇 가지 생각해볼 점이 있습니다. " + quoted + "라는 주장에서 근거가 더 필요해 보입니다. 어떤 데이터나 사례로 뒷받침할 수 있을까요?"
}
