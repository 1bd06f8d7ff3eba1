package http

import (
	"net/http"

	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

type duplicateRequest struct {
	Embedding []float32 `json:"embedding"`
}

type duplicateResponse struct {
	IsDuplicate    bool    `json:"is_duplicate"`
	MemoryID       string  `json:"memory_id,omitempty"`
	SimilarContent string  `json:"similar_content,omitempty"`
	Similarity     float64 `json:"similarity,omitempty"`
}

func toDuplicateResponse(d usecase.DuplicateResult) duplicateResponse {
	return duplicateResponse{
		IsDuplicate:    d.IsDuplicate,
		MemoryID:       string(d.MemoryID),
		SimilarContent: d.SimilarContent,
		Similarity:     d.Similarity,
	}
}

func (s *Server) duplicateMemoryHandler(w http.ResponseWriter, r *http.Request) {
	var req duplicateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Embedding) == 0 {
		writeError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	result := s.uc.Memory.IsDuplicate(r.Context(), requesterFrom(r.Context()), req.Embedding)
	writeJSON(w, r, http.StatusOK, toDuplicateResponse(result))
}

type saveMemoryRequest struct {
	Content        string  `json:"content"`
	ConversationID string  `json:"conversation_id"`
	Category       string  `json:"category"`
	Importance     int     `json:"importance"`
	Confidence     float64 `json:"confidence"`
	ExpirationHint string  `json:"expiration_hint"`
}

type memoryResponse struct {
	ID             string  `json:"id"`
	Content        string  `json:"content"`
	ConversationID string  `json:"conversation_id,omitempty"`
	Category       string  `json:"category"`
	Importance     int     `json:"importance"`
	Confidence     float64 `json:"confidence"`
	ExpirationHint string  `json:"expiration_hint,omitempty"`
	Version        int     `json:"version"`
}

func toMemoryResponse(m *model.Memory) *memoryResponse {
	return &memoryResponse{
		ID:             string(m.ID),
		Content:        m.Content,
		ConversationID: m.ConversationID,
		Category:       m.Metadata.Category.String(),
		Importance:     m.Metadata.Importance,
		Confidence:     m.Metadata.Confidence,
		ExpirationHint: m.Metadata.ExpirationHint,
		Version:        m.Metadata.Version,
	}
}

func (s *Server) saveMemoryHandler(w http.ResponseWriter, r *http.Request) {
	var req saveMemoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.uc.Memory.SaveMemory(r.Context(), requesterFrom(r.Context()), usecase.SaveMemoryInput{
		Content:        req.Content,
		ConversationID: req.ConversationID,
		Category:       types.MemoryCategory(req.Category),
		Importance:     req.Importance,
		Confidence:     req.Confidence,
		ExpirationHint: req.ExpirationHint,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	if result.Duplicate != nil {
		writeJSON(w, r, http.StatusOK, map[string]any{"duplicate": toDuplicateResponse(*result.Duplicate)})
		return
	}
	writeJSON(w, r, http.StatusCreated, map[string]any{"memory": toMemoryResponse(result.Memory)})
}

type forgetRequest struct {
	Mode     string `json:"mode"`
	ID       string `json:"id"`
	Query    string `json:"query"`
	Category string `json:"category"`
}

func (s *Server) forgetMemoriesHandler(w http.ResponseWriter, r *http.Request) {
	var req forgetRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deleted, err := s.uc.Memory.DeleteMemories(r.Context(), requesterFrom(r.Context()), usecase.DeleteMemoriesInput{
		Mode:     usecase.DeleteMode(req.Mode),
		ID:       model.MemoryID(req.ID),
		Query:    req.Query,
		Category: types.MemoryCategory(req.Category),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	ids := make([]string, len(deleted))
	for i, id := range deleted {
		ids[i] = string(id)
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"deleted": ids})
}
