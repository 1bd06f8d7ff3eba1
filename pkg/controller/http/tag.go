package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/domain/types"
)

type tagResponse struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	DisplayName  string    `json:"display_name"`
	HasEmbedding bool      `json:"has_embedding"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTagResponse(t *model.Tag) *tagResponse {
	if t == nil {
		return nil
	}
	return &tagResponse{
		ID:           string(t.ID),
		Slug:         t.Slug,
		DisplayName:  t.DisplayName,
		HasEmbedding: t.HasEmbedding(),
		CreatedAt:    t.CreatedAt,
	}
}

type matchTagRequest struct {
	Candidate string `json:"candidate"`
}

type matchTagResponse struct {
	MatchType  types.MatchType `json:"match_type"`
	Confidence float64         `json:"confidence"`
	Tag        *tagResponse    `json:"tag,omitempty"`
}

func (s *Server) matchTagHandler(w http.ResponseWriter, r *http.Request) {
	var req matchTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := s.uc.Tag.MatchUserTag(r.Context(), requesterFrom(r.Context()), req.Candidate)
	if err != nil {
		handleError(w, r, err)
		return
	}

	writeJSON(w, r, http.StatusOK, matchTagResponse{
		MatchType:  result.MatchType,
		Confidence: result.Confidence,
		Tag:        toTagResponse(result.Existing),
	})
}

type resolveTagsRequest struct {
	Labels []string `json:"labels"`
}

type resolvedTagResponse struct {
	Label      string          `json:"label"`
	MatchType  types.MatchType `json:"match_type"`
	Confidence float64         `json:"confidence"`
	Created    bool            `json:"created"`
	Tag        *tagResponse    `json:"tag"`
}

func (s *Server) resolveTagsHandler(w http.ResponseWriter, r *http.Request) {
	var req resolveTagsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	results, err := s.uc.Tag.ResolveTags(r.Context(), requesterFrom(r.Context()), req.Labels)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := make([]resolvedTagResponse, len(results))
	for i, res := range results {
		resp[i] = resolvedTagResponse{
			Label:      res.Label,
			MatchType:  res.MatchType,
			Confidence: res.Confidence,
			Created:    res.Created,
			Tag:        toTagResponse(res.Tag),
		}
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"tags": resp})
}

type renameTagRequest struct {
	DisplayName string `json:"display_name"`
}

func (s *Server) renameTagHandler(w http.ResponseWriter, r *http.Request) {
	var req renameTagRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	tagID := model.TagID(chi.URLParam(r, "id"))
	renamed, err := s.uc.Tag.RenameTag(r.Context(), requesterFrom(r.Context()), tagID, req.DisplayName)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toTagResponse(renamed))
}
