package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/gollem"
	"github.com/mnemo-chat/mnemo/pkg/agent/tool"
	"github.com/mnemo-chat/mnemo/pkg/agent/tool/core"
)

func (s *Server) listToolsHandler(w http.ResponseWriter, r *http.Request) {
	tools := core.New(s.uc, requesterFrom(r.Context()))
	specs := make([]gollem.ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = t.Spec()
	}
	writeJSON(w, r, http.StatusOK, map[string]any{"tools": specs})
}

type runToolRequest struct {
	Args map[string]any `json:"args"`
}

// runToolHandler executes a function call the chat model made against one of
// the memory or tag tools, on behalf of the requester
func (s *Server) runToolHandler(w http.ResponseWriter, r *http.Request) {
	var req runToolRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Args == nil {
		req.Args = map[string]any{}
	}

	name := chi.URLParam(r, "name")
	t := core.Find(core.New(s.uc, requesterFrom(r.Context())), name)
	if t == nil {
		writeError(w, http.StatusNotFound, "unknown tool: "+name)
		return
	}

	progress := &tool.Recorder{Tool: name}
	ctx := tool.WithUpdate(r.Context(), progress.Update)

	result, err := t.Run(ctx, req.Args)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]any{
		"result":   result,
		"progress": progress.Messages(),
	})
}
