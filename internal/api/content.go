package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/soochol/flowmart/internal/generate"
	"github.com/soochol/flowmart/internal/workflow"
)

// ContentRequest is the body for listing content generation and analysis.
// WorkflowJSON is the exported workflow, either inline or as a JSON string.
type ContentRequest struct {
	WorkflowJSON json.RawMessage `json:"workflowJson"`
	Title        string          `json:"title,omitempty"`
	Description  string          `json:"description,omitempty"`
}

// ContentResponse is the generated listing plus the derived facts shown
// beside it.
type ContentResponse struct {
	generate.Content
	Complexity workflow.Complexity `json:"complexity"`
	Tools      []string            `json:"tools"`
	Success    bool                `json:"success"`
}

var errMissingWorkflow = errors.New("workflowJson is required")

// graph decodes the workflow document. An inline string is unwrapped once.
func (c ContentRequest) graph() (*workflow.Graph, error) {
	raw := bytes.TrimSpace(c.WorkflowJSON)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, errMissingWorkflow
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		raw = []byte(s)
	}
	return workflow.Parse(raw), nil
}

func decodeContentRequest(r *http.Request) (*workflow.Graph, ContentRequest, error) {
	var req ContentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, req, err
	}
	g, err := req.graph()
	return g, req, err
}

// generateContent writes marketplace listing text for a workflow.
// POST /api/workflows/generate-content
func (s *Server) generateContent(w http.ResponseWriter, r *http.Request) {
	g, req, err := decodeContentRequest(r)
	if err != nil {
		handleAPIError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	content := s.generator.Generate(r.Context(), generate.Request{
		Graph:       g,
		Title:       req.Title,
		Description: req.Description,
	})
	writeJSON(w, http.StatusOK, ContentResponse{
		Content:    content,
		Complexity: g.Complexity(),
		Tools:      workflow.Tools(g.Nodes),
		Success:    true,
	})
}

// analyzeWorkflow returns the derived facts without calling a model.
// POST /api/workflows/analyze
func (s *Server) analyzeWorkflow(w http.ResponseWriter, r *http.Request) {
	g, _, err := decodeContentRequest(r)
	if err != nil {
		handleAPIError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	writeJSON(w, http.StatusOK, workflow.Analyze(g))
}
