package interfaces

import (
	"context"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
)

// ConversationRepository defines the interface for Conversation data persistence
type ConversationRepository interface {
	Put(ctx context.Context, conv *model.Conversation) error
	Get(ctx context.Context, conversationID string) (*model.Conversation, error)

	// SaveBudgetSnapshot caches the last budget state on the conversation
	SaveBudgetSnapshot(ctx context.Context, conversationID string, state *model.BudgetState) error
}

// ProjectRepository defines the interface for Project data persistence
type ProjectRepository interface {
	Put(ctx context.Context, project *model.Project) error
	Get(ctx context.Context, projectID string) (*model.Project, error)
}

// PreferenceRepository defines the interface for UserPreferences data persistence
type PreferenceRepository interface {
	Put(ctx context.Context, prefs *model.UserPreferences) error
	Get(ctx context.Context, userID string) (*model.UserPreferences, error)
}
