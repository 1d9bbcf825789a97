package debate

import (
	"strings"
	"testing"
)

func TestEvaluateTokens(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    int
	}{
		{"short plain statement", "AI는 유용하다", 10},
		{"empty message", "", 10},
		{"short question mark", "정말 그럴까?", 15},
		{"short korean question ending", "그 근거는 무엇인가요", 15},
		{"marker neunji", "왜 그런지 설명해줘", 15},
		{"marker ilkka", "과연 옳은 일일까", 15},
		{"long statement dominates", strings.Repeat("가", 50), 20},
		{"long question still 20", strings.Repeat("가", 49) + "?", 20},
		{"49 runes no marker", strings.Repeat("가", 49), 10},
		{"long ascii message", strings.Repeat("a", 50), 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateTokens(tt.message); got != tt.want {
				t.Errorf("EvaluateTokens(%q) = %d, want %d", tt.message, got, tt.want)
			}
		})
	}
}

func TestEvaluateTokensCountsRunesNotBytes(t *testing.T) {
	// 25 Korean syllables are 75 bytes but only 25 runes: below the
	// long-message threshold.
	msg := strings.Repeat("토", 25)
	if got := EvaluateTokens(msg); got != 10 {
		t.Errorf("EvaluateTokens(25 korean runes) = %d, want 10", got)
	}
}
