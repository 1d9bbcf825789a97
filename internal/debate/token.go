package debate

import (
	"strings"
	"unicode/utf8"
)

// Token rewards granted per user message.
const (
	baseTokens        = 10
	questionTokens    = 15
	longMessageTokens = 20

	// longMessageRunes counts Unicode scalars, not bytes. Korean text would
	// otherwise hit the threshold three times too early.
	longMessageRunes = 50
)

// questionMarkers flag a message as a question. Substring match, any one is
// enough.
var questionMarkers = []string{"?", "까요", "나요", "는지", "일까", "할까", "을까"}

// EvaluateTokens scores a user message for its debate-quality reward.
//
//	base utterance:            10
//	50+ runes:                 20
//	question-form utterance:   at least 15
//
// The result is always one of 10, 15, or 20.
func EvaluateTokens(message string) int {
	tokens := baseTokens

	if utf8.RuneCountInString(message) >= longMessageRunes {
		tokens = longMessageTokens
	}

	for _, marker := range questionMarkers {
		if strings.Contains(message, marker) {
			if questionTokens > tokens {
				tokens = questionTokens
			}
			break
		}
	}

	return tokens
}
