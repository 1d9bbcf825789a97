package debate

import (
	"sync"

	"github.com/yeoul-ai/debate-server/internal/domain"
	"github.com/yeoul-ai/debate-server/internal/llm"
)

// memoryWindowPairs bounds each persona's conversational memory to the most
// recent user/assistant exchange pairs fed to the model. The session
// transcript is unbounded; this window is model-facing only.
const memoryWindowPairs = 10

type memoryKey struct {
	sessionID string
	persona   domain.Role
}

// MemoryStore keeps an independent bounded turn history per (session,
// persona). James and Linda never share a buffer: what Linda learns about
// James's turns arrives only through her composed prompt, never through
// memory.
type MemoryStore struct {
	mu      sync.Mutex
	buffers map[memoryKey][]llm.Message
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buffers: make(map[memoryKey][]llm.Message)}
}

// History returns a copy of the persona's windowed turn history for the
// session, oldest first.
func (m *MemoryStore) History(sessionID string, persona domain.Role) []llm.Message {
	m.mu.Lock()
	defer m.mu.Unlock()

	buf := m.buffers[memoryKey{sessionID, persona}]
	out := make([]llm.Message, len(buf))
	copy(out, buf)
	return out
}

// Append records one completed exchange: the user's original message (never
// the composed debate-context prompt) and the persona's raw reply. Oldest
// pairs fall off once the window is full.
func (m *MemoryStore) Append(sessionID string, persona domain.Role, userMessage, reply string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memoryKey{sessionID, persona}
	buf := append(m.buffers[key],
		llm.Message{Role: llm.RoleUser, Content: userMessage},
		llm.Message{Role: llm.RoleAssistant, Content: reply},
	)
	if max := memoryWindowPairs * 2; len(buf) > max {
		buf = buf[len(buf)-max:]
	}
	m.buffers[key] = buf
}

// Reset clears both personas' memories for the session, leaving them empty
// but present.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buffers[memoryKey{sessionID, domain.RoleJames}] = nil
	m.buffers[memoryKey{sessionID, domain.RoleLinda}] = nil
}

// Drop removes all memory for the session entirely. Used by TTL eviction.
func (m *MemoryStore) Drop(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.buffers, memoryKey{sessionID, domain.RoleJames})
	delete(m.buffers, memoryKey{sessionID, domain.RoleLinda})
}
