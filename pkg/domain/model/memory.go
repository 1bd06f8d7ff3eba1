package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// MemoryID is a UUID-based identifier for Memory
type MemoryID string

// NewMemoryID generates a new UUID v4 MemoryID
func NewMemoryID() MemoryID {
	return MemoryID(uuid.New().String())
}

// MemoryMetadata carries extraction/consolidation attributes of a memory
type MemoryMetadata struct {
	Category       types.MemoryCategory
	Importance     int     // 1 (trivia) .. 5 (core fact)
	Confidence     float64 // 0..1
	ExpirationHint string  // free-form, e.g. "contextual", "long-term"
	Version        int
}

// Memory is a persistent fact about a user. No two memories of the same user
// should have cosine similarity >= the duplicate threshold; this is checked at
// write time only.
type Memory struct {
	ID             MemoryID
	UserID         string
	ConversationID string // empty once the source conversation is deleted
	Content        string
	Embedding      []float32
	Metadata       MemoryMetadata
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LastTouched returns the most recent of CreatedAt and UpdatedAt
func (m *Memory) LastTouched() time.Time {
	if m.UpdatedAt.After(m.CreatedAt) {
		return m.UpdatedAt
	}
	return m.CreatedAt
}
