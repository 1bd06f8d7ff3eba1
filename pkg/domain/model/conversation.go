package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// NewConversationID generates a new conversation identifier
func NewConversationID() string {
	return uuid.New().String()
}

// IncognitoSettings controls what personalization an incognito conversation keeps
type IncognitoSettings struct {
	ApplyCustomInstructions bool
}

// Conversation holds the per-conversation inputs of prompt assembly and is the
// root of a conversation cascade.
type Conversation struct {
	ID           string
	UserID       string
	ProjectID    string
	Title        string
	Mode         types.ConversationMode
	Instructions string
	Incognito    *IncognitoSettings
	// BudgetSnapshot is the last budget state seen for this conversation,
	// cached for re-display only.
	BudgetSnapshot *BudgetState
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsIncognito reports whether the conversation runs in incognito mode
func (c *Conversation) IsIncognito() bool {
	return c != nil && c.Incognito != nil
}

// IsBlankSlate reports whether personalization must be suppressed
func (c *Conversation) IsBlankSlate() bool {
	return c.IsIncognito() && !c.Incognito.ApplyCustomInstructions
}
