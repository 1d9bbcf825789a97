package debate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/llm"
)

// fakeClient records every Complete call and replays scripted replies.
type fakeClient struct {
	calls   []completionCall
	replies []string
	err     error
}

type completionCall struct {
	systemPrompt string
	history      []llm.Message
	userTurn     string
}

func (f *fakeClient) Complete(_ context.Context, systemPrompt string, history []llm.Message, userTurn string) (string, error) {
	f.calls = append(f.calls, completionCall{systemPrompt, history, userTurn})
	if f.err != nil {
		return "", f.err
	}
	reply := fmt.Sprintf("reply-%d", len(f.calls))
	if len(f.replies) >= len(f.calls) {
		reply = f.replies[len(f.calls)-1]
	}
	return reply, nil
}

func newTestEngine(client llm.Client) *Engine {
	return NewEngine(client, LoadPrompts(""), NewSessionStore(), NewMemoryStore())
}

func TestInitializeRoundTrip(t *testing.T) {
	e := newTestEngine(nil)

	e.Initialize("s1", "AI 규제", "pro", "")

	s := e.GetSession("s1")
	if s == nil {
		t.Fatal("expected session after Initialize")
	}
	if s.Topic != "AI 규제" {
		t.Errorf("Topic = %q, want %q", s.Topic, "AI 규제")
	}
	if s.Positions.User != "찬성 (Pro)" || s.Positions.James != "반대 (Con)" || s.Positions.Linda != "찬성 (Pro)" {
		t.Errorf("unexpected positions: %+v", s.Positions)
	}
	if len(s.Transcript) != 0 {
		t.Errorf("Transcript len = %d, want 0", len(s.Transcript))
	}
	if s.TokensEarned != 0 {
		t.Errorf("TokensEarned = %d, want 0", s.TokensEarned)
	}
}

func TestInitializeBlankTopicUsesSentinel(t *testing.T) {
	e := newTestEngine(nil)
	s := e.Initialize("s1", "   ", "", "")
	if s.Topic != DefaultTopic {
		t.Errorf("Topic = %q, want sentinel %q", s.Topic, DefaultTopic)
	}
}

func TestInitializeOverwritesExistingSession(t *testing.T) {
	e := newTestEngine(nil)

	e.Initialize("s1", "첫 번째 주제", "pro", "")
	e.Process(context.Background(), "s1", "찬성하는 이유가 있습니다", "")

	before := e.GetSession("s1")
	if len(before.Transcript) == 0 || before.TokensEarned == 0 {
		t.Fatal("expected transcript and reward before re-init")
	}

	// Re-initialization discards prior state. Documented, intentional.
	e.Initialize("s1", "두 번째 주제", "con", "")

	after := e.GetSession("s1")
	if after.Topic != "두 번째 주제" {
		t.Errorf("Topic = %q, want %q", after.Topic, "두 번째 주제")
	}
	if len(after.Transcript) != 0 {
		t.Errorf("Transcript len = %d, want 0 after re-init", len(after.Transcript))
	}
	if after.TokensEarned != 0 {
		t.Errorf("TokensEarned = %d, want 0 after re-init", after.TokensEarned)
	}
}

func TestProcessLazyInitializesUnknownSession(t *testing.T) {
	e := newTestEngine(nil)

	_, _, tokens := e.Process(context.Background(), "ghost", "hello?", "")

	if tokens != 15 {
		t.Errorf("tokens = %d, want 15 for short question", tokens)
	}

	s := e.GetSession("ghost")
	if s == nil {
		t.Fatal("expected lazily created session")
	}
	if s.Topic != DefaultTopic {
		t.Errorf("Topic = %q, want sentinel %q", s.Topic, DefaultTopic)
	}
	if s.Positions.User != "미정" {
		t.Errorf("User position = %q, want neutral", s.Positions.User)
	}
	if s.TokensEarned != 15 {
		t.Errorf("TokensEarned = %d, want 15", s.TokensEarned)
	}
}

func TestProcessSequencingJamesBeforeLinda(t *testing.T) {
	client := &fakeClient{replies: []string{"james says no", "linda says yes"}}
	e := newTestEngine(client)
	e.Initialize("s1", "topic", "pro", "")

	james, linda, _ := e.Process(context.Background(), "s1", "my argument", "")

	if len(client.calls) != 2 {
		t.Fatalf("model calls = %d, want 2", len(client.calls))
	}
	if james != "james says no" || linda != "linda says yes" {
		t.Errorf("replies = (%q, %q)", james, linda)
	}

	// First call is James's: his turn never quotes another persona.
	if strings.Contains(client.calls[0].userTurn, "제임스의 의견") {
		t.Error("james turn unexpectedly references james opinion slot")
	}
	// Linda's turn must contain James's reply verbatim.
	if !strings.Contains(client.calls[1].userTurn, "james says no") {
		t.Errorf("linda turn missing james reply: %q", client.calls[1].userTurn)
	}
	if !strings.Contains(client.calls[1].userTurn, "my argument") {
		t.Errorf("linda turn missing user message: %q", client.calls[1].userTurn)
	}
}

func TestProcessAppendsTranscriptInOrder(t *testing.T) {
	e := newTestEngine(&fakeClient{})
	e.Initialize("s1", "topic", "con", "")

	e.Process(context.Background(), "s1", "first point", "")

	s := e.GetSession("s1")
	if len(s.Transcript) != 3 {
		t.Fatalf("Transcript len = %d, want 3", len(s.Transcript))
	}
	wantRoles := []domain.Role{domain.RoleUser, domain.RoleJames, domain.RoleLinda}
	for i, role := range wantRoles {
		if s.Transcript[i].Role != role {
			t.Errorf("Transcript[%d].Role = %q, want %q", i, s.Transcript[i].Role, role)
		}
	}
	if s.Transcript[0].Message != "first point" {
		t.Errorf("user entry = %q, want original message", s.Transcript[0].Message)
	}
}

func TestProcessModelFailureFallsBackToStubs(t *testing.T) {
	client := &fakeClient{err: errors.New("rate limited")}
	e := newTestEngine(client)
	e.Initialize("s1", "topic", "pro", "")

	msg := strings.Repeat("가", 40)
	james, linda, tokens := e.Process(context.Background(), "s1", msg, "")

	prefix := strings.Repeat("가", 30)
	if !strings.Contains(james, "'"+prefix+"...'") {
		t.Errorf("james stub missing 30-rune prefix: %q", james)
	}
	if !strings.Contains(linda, "'"+prefix+"...'") {
		t.Errorf("linda stub missing 30-rune prefix: %q", linda)
	}
	if tokens != 10 {
		t.Errorf("tokens = %d, want 10", tokens)
	}

	// Failed exchanges are not committed to memory.
	if got := e.memories.History("s1", domain.RoleJames); len(got) != 0 {
		t.Errorf("james memory len = %d, want 0 after failure", len(got))
	}
}

func TestProcessMemoryStoresOriginalUserMessage(t *testing.T) {
	client := &fakeClient{}
	e := newTestEngine(client)
	e.Initialize("s1", "topic", "pro", "")

	e.Process(context.Background(), "s1", "plain message", "")

	for _, persona := range []domain.Role{domain.RoleJames, domain.RoleLinda} {
		hist := e.memories.History("s1", persona)
		if len(hist) != 2 {
			t.Fatalf("%s memory len = %d, want 2", persona, len(hist))
		}
		if hist[0].Content != "plain message" {
			t.Errorf("%s memory[0] = %q, want original message, not composed turn", persona, hist[0].Content)
		}
	}
}

func TestProcessLectureContextBlankNeverErases(t *testing.T) {
	e := newTestEngine(&fakeClient{})
	e.Initialize("s1", "topic", "pro", "원래 강의 내용")

	e.Process(context.Background(), "s1", "message", "")
	if got := e.GetSession("s1").LectureContext; got != "원래 강의 내용" {
		t.Errorf("LectureContext = %q, blank must not erase", got)
	}

	e.Process(context.Background(), "s1", "message", "새 강의 내용")
	if got := e.GetSession("s1").LectureContext; got != "새 강의 내용" {
		t.Errorf("LectureContext = %q, non-blank must overwrite", got)
	}
}

func TestProcessLiveEmitsRepliesInOrder(t *testing.T) {
	client := &fakeClient{replies: []string{"j", "l"}}
	e := newTestEngine(client)
	e.Initialize("s1", "topic", "pro", "")

	var emitted []domain.Role
	e.ProcessLive(context.Background(), "s1", "message", "", func(persona domain.Role, _ string) {
		emitted = append(emitted, persona)
		// James must be emitted before Linda's model call is issued.
		if persona == domain.RoleJames && len(client.calls) != 1 {
			t.Errorf("james emitted after %d model calls, want 1", len(client.calls))
		}
	})

	if len(emitted) != 2 || emitted[0] != domain.RoleJames || emitted[1] != domain.RoleLinda {
		t.Errorf("emit order = %v, want [james linda]", emitted)
	}
}

// blockingClient parks every Complete call until released, simulating a slow
// model while other goroutines run.
type blockingClient struct {
	started sync.Once
	begun   chan struct{}
	release chan struct{}
}

func newBlockingClient() *blockingClient {
	return &blockingClient{begun: make(chan struct{}), release: make(chan struct{})}
}

func (c *blockingClient) Complete(_ context.Context, _ string, _ []llm.Message, _ string) (string, error) {
	c.started.Do(func() { close(c.begun) })
	<-c.release
	return "reply", nil
}

func TestSweepDoesNotEvictInFlightTurn(t *testing.T) {
	client := newBlockingClient()
	e := newTestEngine(client)

	s := e.Initialize("s1", "topic", "pro", "")
	// Backdate activity so only the turn-start touch keeps the session alive.
	s.UpdatedAt = time.Now().Add(-2 * time.Hour)

	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Process(context.Background(), "s1", "message", "")
	}()

	<-client.begun
	if expired := e.sessions.SweepExpired(time.Hour); len(expired) != 0 {
		t.Errorf("expired = %v, want none while a turn is in flight", expired)
	}

	close(client.release)
	<-done

	after := e.GetSession("s1")
	if after == nil {
		t.Fatal("session must survive a sweep issued mid-turn")
	}
	if len(after.Transcript) != 3 {
		t.Errorf("Transcript len = %d, want 3; the turn must land in the live session", len(after.Transcript))
	}
}

func TestConcurrentTurnsAndSweeps(t *testing.T) {
	e := newTestEngine(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			e.Process(context.Background(), "s1", "message", "")
		}
	}()

	for i := 0; i < 50; i++ {
		e.sessions.SweepExpired(time.Hour)
	}
	<-done

	s := e.GetSession("s1")
	if s == nil {
		t.Fatal("active session must survive concurrent sweeps")
	}
	if len(s.Transcript) != 150 {
		t.Errorf("Transcript len = %d, want 150", len(s.Transcript))
	}
}

func TestGenerateResponseLindaMarksAbsentJamesOpinion(t *testing.T) {
	client := &fakeClient{}
	e := newTestEngine(client)
	e.Initialize("s1", "topic", "pro", "")

	e.GenerateResponse(context.Background(), "s1", "message", domain.RoleLinda, "")

	if len(client.calls) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.calls))
	}
	if !strings.Contains(client.calls[0].userTurn, "(아직 의견 없음)") {
		t.Errorf("linda single turn must mark absent james opinion: %q", client.calls[0].userTurn)
	}
}

func TestGenerateResponseDoesNotTouchTranscript(t *testing.T) {
	e := newTestEngine(&fakeClient{})
	e.Initialize("s1", "topic", "pro", "")

	e.GenerateResponse(context.Background(), "s1", "message", domain.RoleJames, "")

	s := e.GetSession("s1")
	if len(s.Transcript) != 0 {
		t.Errorf("Transcript len = %d, want 0 after single response", len(s.Transcript))
	}
	if s.TokensEarned != 0 {
		t.Errorf("TokensEarned = %d, want 0 after single response", s.TokensEarned)
	}
}
