package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

type tagRepository struct {
	mu   sync.RWMutex
	tags map[model.TagID]*model.Tag
}

func newTagRepository() *tagRepository {
	return &tagRepository{
		tags: make(map[model.TagID]*model.Tag),
	}
}

func copyTag(t *model.Tag) *model.Tag {
	copied := *t
	if t.Embedding != nil {
		copied.Embedding = make([]float32, len(t.Embedding))
		copy(copied.Embedding, t.Embedding)
	}
	return &copied
}

func (r *tagRepository) Create(ctx context.Context, tag *model.Tag) (*model.Tag, error) {
	if tag.UserID == "" || tag.Slug == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "tag user ID and slug are required",
			goerr.V("slug", tag.Slug))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	created := copyTag(tag)
	if created.ID == "" {
		created.ID = model.NewTagID()
	}
	now := time.Now().UTC()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.tags[created.ID] = created
	return copyTag(created), nil
}

func (r *tagRepository) get(userID string, tagID model.TagID) (*model.Tag, error) {
	t, ok := r.tags[tagID]
	if !ok || t.UserID != userID {
		return nil, goerr.Wrap(ErrNotFound, "tag not found", goerr.V("tagID", tagID))
	}
	return t, nil
}

func (r *tagRepository) Get(ctx context.Context, userID string, tagID model.TagID) (*model.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, err := r.get(userID, tagID)
	if err != nil {
		return nil, err
	}
	return copyTag(t), nil
}

func (r *tagRepository) GetBySlug(ctx context.Context, userID, slug string) (*model.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, t := range r.tags {
		if t.UserID == userID && t.Slug == slug {
			return copyTag(t), nil
		}
	}
	return nil, goerr.Wrap(ErrNotFound, "tag not found", goerr.V("slug", slug))
}

func (r *tagRepository) List(ctx context.Context, userID string) ([]*model.Tag, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Tag, 0)
	for _, t := range r.tags {
		if t.UserID == userID {
			result = append(result, copyTag(t))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].Slug < result[j].Slug
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (r *tagRepository) Rename(ctx context.Context, userID string, tagID model.TagID, displayName, slug string) (*model.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.get(userID, tagID)
	if err != nil {
		return nil, err
	}

	t.DisplayName = displayName
	t.Slug = slug
	t.Embedding = nil
	t.UpdatedAt = time.Now().UTC()
	return copyTag(t), nil
}

func (r *tagRepository) SetEmbedding(ctx context.Context, userID string, tagID model.TagID, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.get(userID, tagID)
	if err != nil {
		return err
	}

	t.Embedding = make([]float32, len(embedding))
	copy(t.Embedding, embedding)
	t.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *tagRepository) listIDs(field, value string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var ids []string
	if field != types.FieldUserID {
		return ids
	}
	for id, t := range r.tags {
		if t.UserID == value {
			ids = append(ids, string(id))
		}
	}
	sort.Strings(ids)
	return ids
}

func (r *tagRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.tags[model.TagID(id)]
	return ok
}

func (r *tagRepository) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tags[model.TagID(id)]; !ok {
		return false
	}
	delete(r.tags, model.TagID(id))
	return true
}

// tags have no nullable foreign keys
func (r *tagRepository) nullify(id, field string) bool {
	return r.exists(id)
}
