package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/similarity"
)

type memoryRepository struct {
	mu      sync.RWMutex
	entries map[model.MemoryID]*model.Memory
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		entries: make(map[model.MemoryID]*model.Memory),
	}
}

func copyMemory(m *model.Memory) *model.Memory {
	copied := *m
	if m.Embedding != nil {
		copied.Embedding = make([]float32, len(m.Embedding))
		copy(copied.Embedding, m.Embedding)
	}
	return &copied
}

func sortNewestFirst(memories []*model.Memory) {
	sort.Slice(memories, func(i, j int) bool {
		if memories[i].CreatedAt.Equal(memories[j].CreatedAt) {
			return memories[i].ID < memories[j].ID
		}
		return memories[i].CreatedAt.After(memories[j].CreatedAt)
	})
}

func (r *memoryRepository) Create(ctx context.Context, mem *model.Memory) (*model.Memory, error) {
	if mem.UserID == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "memory user ID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyMemory(mem)
	if created.ID == "" {
		created.ID = model.NewMemoryID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.entries[created.ID] = created
	return copyMemory(created), nil
}

func (r *memoryRepository) Get(ctx context.Context, userID string, memoryID model.MemoryID) (*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mem, exists := r.entries[memoryID]
	if !exists || mem.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", memoryID))
	}

	return copyMemory(mem), nil
}

func (r *memoryRepository) Delete(ctx context.Context, userID string, memoryID model.MemoryID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	mem, exists := r.entries[memoryID]
	if !exists || mem.UserID != userID {
		return goerr.Wrap(ErrNotFound, "memory not found", goerr.V("memoryID", memoryID))
	}

	delete(r.entries, memoryID)
	return nil
}

func (r *memoryRepository) List(ctx context.Context, userID string) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Memory, 0)
	for _, m := range r.entries {
		if m.UserID == userID {
			result = append(result, copyMemory(m))
		}
	}

	sortNewestFirst(result)
	return result, nil
}

func (r *memoryRepository) ListByCategory(ctx context.Context, userID string, categories ...types.MemoryCategory) ([]*model.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	wanted := make(map[types.MemoryCategory]struct{}, len(categories))
	for _, c := range categories {
		wanted[c] = struct{}{}
	}

	result := make([]*model.Memory, 0)
	for _, m := range r.entries {
		if m.UserID != userID {
			continue
		}
		if _, ok := wanted[m.Metadata.Category]; ok {
			result = append(result, copyMemory(m))
		}
	}

	sortNewestFirst(result)
	return result, nil
}

func (r *memoryRepository) FindByEmbedding(ctx context.Context, userID string, embedding []float32, limit int) ([]*model.Memory, error) {
	if limit <= 0 {
		return nil, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		memory *model.Memory
		score  float64
	}

	var candidates []scored
	for _, m := range r.entries {
		if m.UserID != userID || len(m.Embedding) == 0 {
			continue
		}
		s, err := similarity.Cosine(embedding, m.Embedding)
		if err != nil {
			continue
		}
		candidates = append(candidates, scored{memory: copyMemory(m), score: s})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if limit > len(candidates) {
		limit = len(candidates)
	}

	result := make([]*model.Memory, limit)
	for i := 0; i < limit; i++ {
		result[i] = candidates[i].memory
	}

	return result, nil
}

func (r *memoryRepository) listIDs(field, value string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	for id, m := range r.entries {
		switch field {
		case types.FieldUserID:
			if m.UserID == value {
				ids = append(ids, string(id))
			}
		case types.FieldConversationID:
			if m.ConversationID == value {
				ids = append(ids, string(id))
			}
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *memoryRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[model.MemoryID(id)]
	return ok
}

func (r *memoryRepository) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[model.MemoryID(id)]; !ok {
		return false
	}
	delete(r.entries, model.MemoryID(id))
	return true
}

func (r *memoryRepository) nullify(id, field string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.entries[model.MemoryID(id)]
	if !ok {
		return false
	}
	if field == types.FieldConversationID {
		m.ConversationID = ""
		m.UpdatedAt = time.Now().UTC()
	}
	return true
}
