package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/mnemo-chat/mnemo/pkg/domain/interfaces"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/model/config"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/service/embedding"
	"github.com/mnemo-chat/mnemo/pkg/similarity"
	"github.com/mnemo-chat/mnemo/pkg/utils/logging"
)

const (
	defaultMemoryImportance = 3
	maxMemoryImportance     = 5
)

// MemoryUseCase saves, deduplicates and deletes user memories
type MemoryUseCase struct {
	repo     interfaces.Repository
	embedder *embedding.Embedder
	cfg      config.Memory
}

func NewMemoryUseCase(repo interfaces.Repository, embedder *embedding.Embedder, cfg config.Memory) *MemoryUseCase {
	return &MemoryUseCase{
		repo:     repo,
		embedder: embedder,
		cfg:      cfg,
	}
}

// DuplicateResult tells whether a new memory repeats an existing one
type DuplicateResult struct {
	IsDuplicate    bool
	MemoryID       model.MemoryID
	SimilarContent string
	Similarity     float64
}

// IsDuplicate checks the nearest memories of the user for one at least as
// similar as the duplicate threshold. Only the top neighbours are inspected.
// The check fails open: when the search fails the memory is reported as new.
func (uc *MemoryUseCase) IsDuplicate(ctx context.Context, userID string, vec []float32) DuplicateResult {
	logger := logging.From(ctx)

	neighbours, err := uc.repo.Memory().FindByEmbedding(ctx, userID, vec, uc.cfg.DuplicateSearchLimit)
	if err != nil {
		logger.Warn("memory duplicate search failed, treating as new",
			slog.String("userID", userID),
			slog.Any("error", err),
		)
		return DuplicateResult{}
	}

	for _, m := range neighbours {
		score, err := similarity.Cosine(vec, m.Embedding)
		if err != nil {
			logger.Debug("skipping memory with incompatible embedding",
				slog.String("memoryID", string(m.ID)),
				slog.Any("error", err),
			)
			continue
		}
		if score >= uc.cfg.DuplicateThreshold {
			return DuplicateResult{
				IsDuplicate:    true,
				MemoryID:       m.ID,
				SimilarContent: m.Content,
				Similarity:     score,
			}
		}
	}

	return DuplicateResult{}
}

// SaveMemoryInput is a memory about to be stored
type SaveMemoryInput struct {
	Content        string
	ConversationID string
	Category       types.MemoryCategory
	Importance     int
	Confidence     float64
	ExpirationHint string
}

// SaveMemoryResult holds the stored memory, or the duplicate that prevented storing it
type SaveMemoryResult struct {
	Memory    *model.Memory
	Duplicate *DuplicateResult
}

// SaveMemory embeds the content, skips it when the user already has a
// near-identical memory and stores it otherwise
func (uc *MemoryUseCase) SaveMemory(ctx context.Context, userID string, input SaveMemoryInput) (*SaveMemoryResult, error) {
	content := strings.TrimSpace(input.Content)
	if userID == "" || content == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "user ID and content are required")
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbedderNotConfigured, "cannot save memory")
	}

	category := input.Category
	if category == "" {
		category = types.MemoryCategoryContext
	}
	if !category.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown memory category", goerr.V("category", category))
	}

	importance := input.Importance
	switch {
	case importance <= 0:
		importance = defaultMemoryImportance
	case importance > maxMemoryImportance:
		importance = maxMemoryImportance
	}

	confidence := input.Confidence
	if confidence <= 0 || confidence > 1 {
		confidence = 1
	}

	vec, err := uc.embedder.Embed(ctx, userID, content)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed memory")
	}

	if dup := uc.IsDuplicate(ctx, userID, vec); dup.IsDuplicate {
		logging.From(ctx).Debug("memory already known",
			slog.String("memoryID", string(dup.MemoryID)),
			slog.Float64("similarity", dup.Similarity),
		)
		return &SaveMemoryResult{Duplicate: &dup}, nil
	}

	created, err := uc.repo.Memory().Create(ctx, &model.Memory{
		UserID:         userID,
		ConversationID: input.ConversationID,
		Content:        content,
		Embedding:      vec,
		Metadata: model.MemoryMetadata{
			Category:       category,
			Importance:     importance,
			Confidence:     confidence,
			ExpirationHint: input.ExpirationHint,
			Version:        1,
		},
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create memory")
	}

	return &SaveMemoryResult{Memory: created}, nil
}

// DeleteMode selects which memories DeleteMemories removes
type DeleteMode string

const (
	DeleteModeID       DeleteMode = "id"
	DeleteModeSemantic DeleteMode = "semantic"
	DeleteModeCategory DeleteMode = "category"
)

// DeleteMemoriesInput describes the memories to forget. Only the field
// matching Mode is read.
type DeleteMemoriesInput struct {
	Mode     DeleteMode
	ID       model.MemoryID
	Query    string
	Category types.MemoryCategory
}

// DeleteMemories removes memories by ID, by semantic closeness to a query or
// by category, and returns the IDs actually removed
func (uc *MemoryUseCase) DeleteMemories(ctx context.Context, userID string, input DeleteMemoriesInput) ([]model.MemoryID, error) {
	switch input.Mode {
	case DeleteModeID:
		if err := uc.repo.Memory().Delete(ctx, userID, input.ID); err != nil {
			return nil, goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", input.ID))
		}
		return []model.MemoryID{input.ID}, nil

	case DeleteModeSemantic:
		targets, err := uc.semanticTargets(ctx, userID, input.Query)
		if err != nil {
			return nil, err
		}
		return uc.deleteAll(ctx, userID, targets)

	case DeleteModeCategory:
		if !input.Category.IsValid() {
			return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown memory category", goerr.V("category", input.Category))
		}
		memories, err := uc.repo.Memory().ListByCategory(ctx, userID, input.Category)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memories", goerr.V("category", input.Category))
		}
		return uc.deleteAll(ctx, userID, memories)

	default:
		return nil, goerr.Wrap(ErrInvalidDeleteMode, "failed to delete memories", goerr.V("mode", input.Mode))
	}
}

func (uc *MemoryUseCase) semanticTargets(ctx context.Context, userID, query string) ([]*model.Memory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "query is required for semantic delete")
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbedderNotConfigured, "cannot delete memories semantically")
	}

	vec, err := uc.embedder.Embed(ctx, userID, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed delete query")
	}

	neighbours, err := uc.repo.Memory().FindByEmbedding(ctx, userID, vec, uc.cfg.SemanticDeleteLimit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories")
	}

	var targets []*model.Memory
	for _, m := range neighbours {
		score, err := similarity.Cosine(vec, m.Embedding)
		if err != nil {
			continue
		}
		if score >= uc.cfg.SemanticDeleteMinScore {
			targets = append(targets, m)
		}
	}
	return targets, nil
}

// deleteAll tolerates memories that vanished since they were listed
func (uc *MemoryUseCase) deleteAll(ctx context.Context, userID string, memories []*model.Memory) ([]model.MemoryID, error) {
	deleted := make([]model.MemoryID, 0, len(memories))
	for _, m := range memories {
		if err := uc.repo.Memory().Delete(ctx, userID, m.ID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				continue
			}
			return deleted, goerr.Wrap(err, "failed to delete memory", goerr.V("memoryID", m.ID))
		}
		deleted = append(deleted, m.ID)
	}
	return deleted, nil
}

// ScoredMemory is a search hit with its cosine similarity to the query
type ScoredMemory struct {
	Memory     *model.Memory
	Similarity float64
}

// SearchMemories returns the user's memories nearest to query, best first.
// Callers record the top score in the budget search history.
func (uc *MemoryUseCase) SearchMemories(ctx context.Context, userID, query string, limit int) ([]*ScoredMemory, error) {
	if userID == "" || strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "user ID and query are required")
	}
	if uc.embedder == nil {
		return nil, goerr.Wrap(ErrEmbedderNotConfigured, "cannot search memories")
	}

	vec, err := uc.embedder.Embed(ctx, userID, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed search query")
	}

	neighbours, err := uc.repo.Memory().FindByEmbedding(ctx, userID, vec, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories", goerr.V("userID", userID))
	}

	hits := make([]*ScoredMemory, 0, len(neighbours))
	for _, m := range neighbours {
		score, err := similarity.Cosine(vec, m.Embedding)
		if err != nil {
			continue
		}
		hits = append(hits, &ScoredMemory{Memory: m, Similarity: score})
	}
	return hits, nil
}

// ListMemories returns the user's memories, newest first, optionally limited
// to one category
func (uc *MemoryUseCase) ListMemories(ctx context.Context, userID string, category types.MemoryCategory) ([]*model.Memory, error) {
	if category == "" {
		memories, err := uc.repo.Memory().List(ctx, userID)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list memories", goerr.V("userID", userID))
		}
		return memories, nil
	}

	if !category.IsValid() {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "unknown memory category", goerr.V("category", category))
	}
	memories, err := uc.repo.Memory().ListByCategory(ctx, userID, category)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V("category", category))
	}
	return memories, nil
}
