package suggest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/llm"
)

type fakeClient struct {
	reply string
	err   error
	turns []string
}

func (f *fakeClient) Complete(_ context.Context, _ string, _ []llm.Message, userTurn string) (string, error) {
	f.turns = append(f.turns, userTurn)
	return f.reply, f.err
}

func TestGenerateParsesFencedJSONArray(t *testing.T) {
	client := &fakeClient{reply: "추천 목록입니다:\n```json\n" +
		`[{"id": "1", "text": "질문 하나", "type": "question", "target": "james"},
		  {"id": "2", "text": "질문 둘", "type": "question", "target": "invalid"}]` +
		"\n```"}
	svc := NewService(client, "")

	got := svc.Generate(context.Background(), domain.SuggestionQuestion, Context{Topic: "AI"})

	if len(got) != 2 {
		t.Fatalf("suggestions len = %d, want 2", len(got))
	}
	if got[0].Target != domain.TargetJames {
		t.Errorf("got[0].Target = %q, want james", got[0].Target)
	}
	// Unknown targets degrade to no target rather than failing the parse.
	if got[1].Target != "" {
		t.Errorf("got[1].Target = %q, want empty", got[1].Target)
	}
	if got[0].Type != domain.SuggestionQuestion {
		t.Errorf("got[0].Type = %q", got[0].Type)
	}
}

func TestGenerateCapsAtSix(t *testing.T) {
	items := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		items = append(items, `{"id": "x", "text": "발언"}`)
	}
	client := &fakeClient{reply: "[" + strings.Join(items, ",") + "]"}
	svc := NewService(client, "")

	got := svc.Generate(context.Background(), domain.SuggestionArgument, Context{})
	if len(got) != 6 {
		t.Errorf("suggestions len = %d, want capped 6", len(got))
	}
}

func TestGenerateFallsBackOnModelError(t *testing.T) {
	svc := NewService(&fakeClient{err: errors.New("down")}, "")

	got := svc.Generate(context.Background(), domain.SuggestionTopic, Context{})
	if len(got) == 0 {
		t.Fatal("expected fallback suggestions")
	}
	if got[0].Type != domain.SuggestionTopic {
		t.Errorf("fallback type = %q", got[0].Type)
	}
}

func TestGenerateFallsBackOnGarbageOutput(t *testing.T) {
	svc := NewService(&fakeClient{reply: "추천할 내용이 없습니다."}, "")

	got := svc.Generate(context.Background(), domain.SuggestionQuestion, Context{Topic: "주제"})
	want := Fallback(domain.SuggestionQuestion, "주제")
	if len(got) != len(want) {
		t.Fatalf("suggestions len = %d, want %d", len(got), len(want))
	}
	if got[0].Text != want[0].Text {
		t.Errorf("got[0].Text = %q, want %q", got[0].Text, want[0].Text)
	}
}

func TestNilClientServesFallback(t *testing.T) {
	svc := NewService(nil, "")
	got := svc.Generate(context.Background(), domain.SuggestionArgument, Context{})
	if len(got) == 0 {
		t.Fatal("expected fallback suggestions with nil client")
	}
}

func TestFillPromptSubstitutesContext(t *testing.T) {
	client := &fakeClient{reply: `[{"id":"1","text":"t"}]`}
	svc := NewService(client, "")

	svc.Generate(context.Background(), domain.SuggestionQuestion, Context{
		Topic:        "AI 규제",
		UserPosition: "pro",
		JamesLast:    "반례가 있습니다",
	})

	if len(client.turns) != 1 {
		t.Fatalf("model calls = %d, want 1", len(client.turns))
	}
	turn := client.turns[0]
	if !strings.Contains(turn, "AI 규제") || !strings.Contains(turn, "찬성") || !strings.Contains(turn, "반례가 있습니다") {
		t.Errorf("prompt missing context values:\n%s", turn)
	}
	if !strings.Contains(turn, "(아직 발언 없음)") {
		t.Errorf("prompt must mark absent linda turn:\n%s", turn)
	}
	if strings.Contains(turn, "{") && strings.Contains(turn, "_last}") {
		t.Errorf("unresolved placeholder remains:\n%s", turn)
	}
}
