package domain

import "time"

// Report is the structured growth report synthesized from a debate session.
// Scores are clamped to [0,100]. The OCR fields stay nil when the model did
// not produce them; absence is meaningful and must not collapse to zero.
type Report struct {
	LogicScore        int      `json:"logic_score"`
	PersuasionScore   int      `json:"persuasion_score"`
	TopicScore        int      `json:"topic_score"`
	Summary           string   `json:"summary"`
	ImprovementTips   []string `json:"improvement_tips"`
	OCRAlignmentScore *int     `json:"ocr_alignment_score,omitempty"`
	OCRFeedback       *string  `json:"ocr_feedback,omitempty"`
}

// ReportRecord is a Report bound to its session and user for persistence.
type ReportRecord struct {
	SessionID string
	UserID    string
	Report    Report
	CreatedAt time.Time
}
