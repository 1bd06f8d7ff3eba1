package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mnemo-chat/mnemo/pkg/domain/model"
	"github.com/mnemo-chat/mnemo/pkg/usecase"
)

type phaseResponse struct {
	Name       string `json:"name"`
	Sequential bool   `json:"sequential"`
	Operations int    `json:"operations"`
}

type cascadeResponse struct {
	Root      string          `json:"root"`
	Deleted   int             `json:"deleted"`
	Nullified int             `json:"nullified"`
	Phases    []phaseResponse `json:"phases"`
}

func toCascadeResponse(plan *model.DeletionPlan) cascadeResponse {
	resp := cascadeResponse{
		Root:      plan.Root,
		Deleted:   plan.Count(model.DeletionKindDelete),
		Nullified: plan.Count(model.DeletionKindNullify),
		Phases:    make([]phaseResponse, len(plan.Phases)),
	}
	for i, ph := range plan.Phases {
		resp.Phases[i] = phaseResponse{Name: ph.Name, Sequential: ph.Sequential, Operations: len(ph.Ops)}
	}
	return resp
}

// queryBool reads a boolean query parameter, defaulting to def
func queryBool(r *http.Request, name string, def bool) (bool, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.ParseBool(v)
}

func (s *Server) deleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	deleteMessages, err := queryBool(r, "messages", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid messages parameter")
		return
	}
	deleteConversation, err := queryBool(r, "conversation", true)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation parameter")
		return
	}

	plan, err := s.uc.Cascade.DeleteConversation(r.Context(), chi.URLParam(r, "id"), usecase.CascadeOptions{
		DeleteMessages:     deleteMessages,
		DeleteConversation: deleteConversation,
		RequesterID:        requesterFrom(r.Context()),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCascadeResponse(plan))
}

func (s *Server) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	plan, err := s.uc.Cascade.DeleteUserData(r.Context(), chi.URLParam(r, "id"), usecase.CascadeOptions{
		RequesterID: requesterFrom(r.Context()),
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toCascadeResponse(plan))
}
