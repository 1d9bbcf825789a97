// Package domain defines the core data types shared across the debate service.
package domain

// Role identifies a participant in a debate session.
type Role string

const (
	RoleUser  Role = "user"
	RoleJames Role = "james"
	RoleLinda Role = "linda"
)

// Valid reports whether the role names a known debate participant.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleJames || r == RoleLinda
}

// Persona reports whether the role is one of the two AI debaters.
func (r Role) Persona() bool {
	return r == RoleJames || r == RoleLinda
}

// TranscriptEntry is one utterance in a session's append-only transcript.
type TranscriptEntry struct {
	Role    Role   `json:"role"`
	Message string `json:"message"`
}

// PositionAssignment holds the human-readable stance labels derived once at
// session creation. Labels are never recomputed after assignment.
type PositionAssignment struct {
	User  string `json:"user_position_label"`
	James string `json:"james_position"`
	Linda string `json:"linda_position"`
}
