package core

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-chat/mnemo/pkg/agent/tool"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

const defaultSearchLimit = 5

func memoryToMap(m *model.Memory) map[string]any {
	return map[string]any{
		"id":         string(m.ID),
		"content":    m.Content,
		"category":   m.Metadata.Category.String(),
		"importance": m.Metadata.Importance,
		"created_at": m.CreatedAt.String(),
	}
}

// saveMemoryTool stores a fact about the user unless it is already known
type saveMemoryTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *saveMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__save",
		Description: "Remember a durable fact about the user for future conversations. Near-duplicates of existing memories are not stored again.",
		Parameters: map[string]*gollem.Parameter{
			"content": {
				Type:        gollem.TypeString,
				Description: "The fact to remember, written as a short standalone sentence",
				Required:    true,
			},
			"category": {
				Type:        gollem.TypeString,
				Description: "Kind of fact",
				Enum:        categoryNames(),
			},
			"importance": {
				Type:        gollem.TypeInteger,
				Description: "1 (trivia) to 5 (core fact), default 3",
			},
			"conversation_id": {
				Type:        gollem.TypeString,
				Description: "Conversation the fact came from",
			},
		},
	}
}

func (t *saveMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	content, _ := args["content"].(string)
	if content == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "content is required")
	}
	category, _ := args["category"].(string)
	conversationID, _ := args["conversation_id"].(string)

	input := usecase.SaveMemoryInput{
		Content:        content,
		ConversationID: conversationID,
		Category:       types.MemoryCategory(category),
	}
	if v, err := extractInt64(args, "importance"); err == nil {
		input.Importance = int(v)
	}

	tool.Update(ctx, "Saving memory...")

	result, err := t.uc.Memory.SaveMemory(ctx, t.userID, input)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to save memory", goerr.V("userID", t.userID))
	}

	if result.Duplicate != nil {
		return map[string]any{
			"saved":           false,
			"duplicate_of":    string(result.Duplicate.MemoryID),
			"similar_content": result.Duplicate.SimilarContent,
		}, nil
	}
	return map[string]any{
		"saved":  true,
		"memory": memoryToMap(result.Memory),
	}, nil
}

// forgetMemoryTool deletes memories by ID, by meaning or by category
type forgetMemoryTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *forgetMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__forget",
		Description: "Forget memories when the user asks. Use mode 'id' with memory_id, 'semantic' with a query describing what to forget, or 'category' with a category.",
		Parameters: map[string]*gollem.Parameter{
			"mode": {
				Type:        gollem.TypeString,
				Description: "How to select the memories to delete",
				Enum: []string{
					string(usecase.DeleteModeID),
					string(usecase.DeleteModeSemantic),
					string(usecase.DeleteModeCategory),
				},
				Required: true,
			},
			"memory_id": {
				Type:        gollem.TypeString,
				Description: "Memory ID for mode 'id'",
			},
			"query": {
				Type:        gollem.TypeString,
				Description: "Description of what to forget for mode 'semantic'",
			},
			"category": {
				Type:        gollem.TypeString,
				Description: "Category for mode 'category'",
				Enum:        categoryNames(),
			},
		},
	}
}

func (t *forgetMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	mode, _ := args["mode"].(string)
	memoryID, _ := args["memory_id"].(string)
	query, _ := args["query"].(string)
	category, _ := args["category"].(string)

	tool.Update(ctx, fmt.Sprintf("Forgetting memories (%s)...", mode))

	deleted, err := t.uc.Memory.DeleteMemories(ctx, t.userID, usecase.DeleteMemoriesInput{
		Mode:     usecase.DeleteMode(mode),
		ID:       model.MemoryID(memoryID),
		Query:    query,
		Category: types.MemoryCategory(category),
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to forget memories", goerr.V("mode", mode))
	}

	ids := make([]string, len(deleted))
	for i, id := range deleted {
		ids[i] = string(id)
	}
	return map[string]any{"deleted": ids, "count": len(ids)}, nil
}

// searchMemoryTool searches memories using vector similarity
type searchMemoryTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *searchMemoryTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__search",
		Description: "Search the user's memories by meaning. The result includes top_score; a low score means nothing relevant is remembered.",
		Parameters: map[string]*gollem.Parameter{
			"query": {
				Type:        gollem.TypeString,
				Description: "Search query text",
				Required:    true,
			},
			"limit": {
				Type:        gollem.TypeInteger,
				Description: "Maximum number of results to return (default: 5)",
			},
		},
	}
}

func (t *searchMemoryTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return nil, goerr.Wrap(model.ErrInvalidArgument, "query is required")
	}

	limit := defaultSearchLimit
	if v, err := extractInt64(args, "limit"); err == nil && v > 0 {
		limit = int(v)
	}

	tool.Update(ctx, fmt.Sprintf("Searching memories: %s", query))

	hits, err := t.uc.Memory.SearchMemories(ctx, t.userID, query, limit)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to search memories", goerr.V("query", query))
	}

	topScore := 0.0
	items := make([]map[string]any, len(hits))
	for i, h := range hits {
		item := memoryToMap(h.Memory)
		item["similarity"] = h.Similarity
		items[i] = item
		if h.Similarity > topScore {
			topScore = h.Similarity
		}
	}
	return map[string]any{"memories": items, "top_score": topScore}, nil
}

// listMemoriesTool lists memories, optionally of one category
type listMemoriesTool struct {
	uc     *usecase.UseCases
	userID string
}

func (t *listMemoriesTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        "memory__list",
		Description: "List what is remembered about the user, newest first",
		Parameters: map[string]*gollem.Parameter{
			"category": {
				Type:        gollem.TypeString,
				Description: "Only list memories of this category",
				Enum:        categoryNames(),
			},
		},
	}
}

func (t *listMemoriesTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	category, _ := args["category"].(string)

	tool.Update(ctx, "Listing memories...")

	memories, err := t.uc.Memory.ListMemories(ctx, t.userID, types.MemoryCategory(category))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list memories", goerr.V("userID", t.userID))
	}

	items := make([]map[string]any, len(memories))
	for i, m := range memories {
		items[i] = memoryToMap(m)
	}
	return map[string]any{"memories": items, "count": len(items)}, nil
}
