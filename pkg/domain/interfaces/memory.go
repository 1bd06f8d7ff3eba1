package interfaces

import (
	"context"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

// MemoryRepository defines the interface for Memory data persistence
type MemoryRepository interface {
	// Create creates a new memory entry
	Create(ctx context.Context, memory *model.Memory) (*model.Memory, error)

	// Get retrieves a memory entry by ID
	Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error)

	// Delete deletes a memory entry by ID
	Delete(ctx context.Context, userID string, memoryID model.MemoryID) error

	// List retrieves all memory entries of a user, newest first
	List(ctx context.Context, userID string) ([]*model.Memory, error)

	// ListByCategory retrieves memory entries of a user in one of categories
	ListByCategory(ctx context.Context, userID string, categories ...types.MemoryCategory) ([]*model.Memory, error)

	// FindByEmbedding performs vector similarity search using cosine distance.
	// Returns up to limit Memory entries of the user most similar to embedding,
	// nearest first.
	FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error)
}
