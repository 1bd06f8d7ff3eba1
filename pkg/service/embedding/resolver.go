package embedding

import (
	"context"
	"log/slog"

	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

// Resolver looks embeddings up in order: persisted on the entity, batch
// cache, then a fresh generation which is persisted for next time.
type Resolver struct {
	embedder *Embedder
	tags     interfaces.TagRepository
	cache    *Cache
}

func NewResolver(embedder *Embedder, tags interfaces.TagRepository, cache *Cache) *Resolver {
	return &Resolver{
		embedder: embedder,
		tags:     tags,
		cache:    cache,
	}
}

// ForTag returns the embedding of the tag display name
func (r *Resolver) ForTag(ctx context.Context, tag *model.Tag) ([]float32, error) {
	if tag.HasEmbedding() {
		return tag.Embedding, nil
	}

	key := string(tag.ID)
	if vec, ok := r.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := r.embedder.Embed(ctx, tag.UserID, tag.DisplayName)
	if err != nil {
		return nil, err
	}
	r.cache.Put(key, vec)

	// the vector is still usable for this batch when persisting fails
	if r.tags != nil {
		if err := r.tags.SetEmbedding(ctx, tag.UserID, tag.ID, vec); err != nil {
			logging.From(ctx).Warn("failed to persist tag embedding",
				slog.String("tagID", string(tag.ID)),
				slog.Any("error", err),
			)
		}
	}
	return vec, nil
}

// ForText returns the embedding of text that has no persisted entity
func (r *Resolver) ForText(ctx context.Context, userID, text string) ([]float32, error) {
	key := TextKey(text)
	if vec, ok := r.cache.Get(key); ok {
		return vec, nil
	}

	vec, err := r.embedder.Embed(ctx, userID, text)
	if err != nil {
		return nil, err
	}
	r.cache.Put(key, vec)
	return vec, nil
}
