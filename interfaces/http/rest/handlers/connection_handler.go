package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"questionnaire-builder/application/commands"
	"questionnaire-builder/application/queries"
)

// ConnectionHandler serves edges and their trigger criteria.
type ConnectionHandler struct {
	base
}

// NewConnectionHandler creates a new connection handler
func NewConnectionHandler(deps Dependencies) *ConnectionHandler {
	return &ConnectionHandler{base: newBase(deps)}
}

// ConnectRequest is the body of POST /connections.
type ConnectRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// SetCriteriaRequest is the body of PUT .../criteria/{branch}.
type SetCriteriaRequest struct {
	Criteria []commands.CriterionInput `json:"criteria"`
}

// ListConnections handles GET /questionnaires/{id}/connections
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, queries.ListEdgesQuery{QuestionnaireID: chi.URLParam(r, "id")})
}

// Connect handles POST /questionnaires/{id}/connections. A rejected
// connection answers 409 with the rule's code and message.
func (h *ConnectionHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req ConnectRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd := &commands.ConnectQuestionsCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		Source:          req.Source,
		Target:          req.Target,
		Label:           req.Label,
	}
	h.sendThen(w, r, cmd, http.StatusCreated, queries.ListEdgesQuery{QuestionnaireID: cmd.QuestionnaireID})
}

// Disconnect handles DELETE /questionnaires/{id}/connections/{qid}/{label}
func (h *ConnectionHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	cmd := &commands.DisconnectQuestionsCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		Source:          chi.URLParam(r, "qid"),
		Label:           chi.URLParam(r, "label"),
	}
	h.sendThen(w, r, cmd, 0, nil)
}

// GetCriteria handles GET /questionnaires/{id}/questions/{qid}/criteria/{branch}
func (h *ConnectionHandler) GetCriteria(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, criteriaQuery(r))
}

// SetCriteria handles PUT /questionnaires/{id}/questions/{qid}/criteria/{branch}
func (h *ConnectionHandler) SetCriteria(w http.ResponseWriter, r *http.Request) {
	var req SetCriteriaRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd := &commands.SetCriteriaCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
		Branch:          chi.URLParam(r, "branch"),
		Criteria:        req.Criteria,
	}
	h.sendThen(w, r, cmd, http.StatusOK, criteriaQuery(r))
}

// ListLegalCriteria handles GET /questionnaires/{id}/questions/{qid}/criteria-kinds
func (h *ConnectionHandler) ListLegalCriteria(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, queries.ListLegalCriteriaQuery{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
	})
}

// ListCatalog handles GET /criteria?type=T&tag=X&tag=Y. Tags may also be
// given comma separated.
func (h *ConnectionHandler) ListCatalog(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()
	var tags []string
	for _, raw := range params["tag"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	h.ask(w, r, http.StatusOK, queries.ListCriteriaCatalogQuery{Type: params.Get("type"), Tags: tags})
}

func criteriaQuery(r *http.Request) queries.GetCriteriaQuery {
	return queries.GetCriteriaQuery{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
		Branch:          chi.URLParam(r, "branch"),
	}
}
