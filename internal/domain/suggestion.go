package domain

// SuggestionType categorizes a suggestion chip shown during a debate.
type SuggestionType string

const (
	SuggestionTopic    SuggestionType = "topic"
	SuggestionQuestion SuggestionType = "question"
	SuggestionArgument SuggestionType = "argument"
)

// Valid reports whether the type is one of the known suggestion kinds.
func (t SuggestionType) Valid() bool {
	return t == SuggestionTopic || t == SuggestionQuestion || t == SuggestionArgument
}

// SuggestionTarget names the debater a suggestion is aimed at, if any.
type SuggestionTarget string

const (
	TargetJames   SuggestionTarget = "james"
	TargetLinda   SuggestionTarget = "linda"
	TargetGeneral SuggestionTarget = "general"
)

// Suggestion is a single recommendation chip.
type Suggestion struct {
	ID     string           `json:"id"`
	Text   string           `json:"text"`
	Type   SuggestionType   `json:"type"`
	Target SuggestionTarget `json:"target,omitempty"`
}
