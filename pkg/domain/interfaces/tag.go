package interfaces

import (
	"context"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
)

// TagRepository defines the interface for Tag data persistence
type TagRepository interface {
	// Create stores a new tag. ID and timestamps are filled when empty.
	Create(ctx context.Context, tag *model.Tag) (*model.Tag, error)

	// Get retrieves a tag by ID
	Get(ctx context.Context, userID string, tagID model.TagID) (*model.Tag, error)

	// GetBySlug retrieves a tag by its slug
	GetBySlug(ctx context.Context, userID, slug string) (*model.Tag, error)

	// List retrieves all tags of a user ordered by creation time (oldest first)
	List(ctx context.Context, userID string) ([]*model.Tag, error)

	// Rename updates display name and slug and drops the persisted embedding
	Rename(ctx context.Context, userID string, tagID model.TagID, displayName, slug string) (*model.Tag, error)

	// SetEmbedding persists the embedding of a tag
	SetEmbedding(ctx context.Context, userID string, tagID model.TagID, embedding []float32) error
}
