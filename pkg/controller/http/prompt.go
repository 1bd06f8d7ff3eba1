package http

import (
	"net/http"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

type promptMemory struct {
	ID         string `json:"id"`
	Content    string `json:"content"`
	Category   string `json:"category"`
	Importance int    `json:"importance"`
}

type buildPromptRequest struct {
	ConversationID        string             `json:"conversation_id"`
	UserMessage           string             `json:"user_message"`
	Model                 model.ModelConfig  `json:"model"`
	HasFunctionCalling    bool               `json:"has_function_calling"`
	PrefetchedMemories    []promptMemory     `json:"prefetched_memories"`
	MemoryExtractionLevel string             `json:"memory_extraction_level"`
	BudgetState           *model.BudgetState `json:"budget_state"`
}

type buildPromptResponse struct {
	Messages      []model.PromptBlock `json:"messages"`
	Sections      []string            `json:"sections"`
	MemoryContent string              `json:"memory_content"`
}

func (s *Server) buildPromptHandler(w http.ResponseWriter, r *http.Request) {
	var req buildPromptRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input := usecase.BuildPromptInput{
		UserID:                requesterFrom(r.Context()),
		ConversationID:        req.ConversationID,
		UserMessage:           req.UserMessage,
		Model:                 req.Model,
		HasFunctionCalling:    req.HasFunctionCalling,
		MemoryExtractionLevel: types.ExtractionLevel(req.MemoryExtractionLevel),
		BudgetState:           req.BudgetState,
	}
	if req.PrefetchedMemories != nil {
		input.PrefetchedMemories = make([]*model.Memory, len(req.PrefetchedMemories))
		for i, m := range req.PrefetchedMemories {
			input.PrefetchedMemories[i] = &model.Memory{
				ID:      model.MemoryID(m.ID),
				Content: m.Content,
				Metadata: model.MemoryMetadata{
					Category:   types.MemoryCategory(m.Category),
					Importance: m.Importance,
				},
			}
		}
	}

	out, err := s.uc.Prompt.BuildSystemPrompt(r.Context(), input)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, buildPromptResponse{
		Messages:      out.Messages,
		Sections:      out.Sections,
		MemoryContent: out.MemoryContent,
	})
}
