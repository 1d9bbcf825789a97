package debate

import "github.com/yeoul-ai/debate-server/internal/domain"

// User stance values accepted at session start.
const (
	PositionPro = "pro"
	PositionCon = "con"
)

// Stance labels surfaced to clients and substituted into persona prompts.
const (
	labelPro          = "찬성 (Pro)"
	labelCon          = "반대 (Con)"
	labelUndetermined = "미정"
	labelCritical     = "비판적 관점"
	labelSupportive   = "지지적 관점"
)

// DerivePositions maps the user's chosen stance onto the two personas.
// James always takes the side opposing the user; Linda always mirrors the
// user's side. An unset or unrecognized stance yields neutral labels with no
// pro/con assignment at all.
//
// The result is computed once at session creation and cached on the session;
// it must never be rederived from a later, possibly mutated position field.
func DerivePositions(userPosition string) domain.PositionAssignment {
	switch userPosition {
	case PositionPro:
		return domain.PositionAssignment{User: labelPro, James: labelCon, Linda: labelPro}
	case PositionCon:
		return domain.PositionAssignment{User: labelCon, James: labelPro, Linda: labelCon}
	default:
		return domain.PositionAssignment{User: labelUndetermined, James: labelCritical, Linda: labelSupportive}
	}
}
