package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"questionnaire-builder/application/commands"
	"questionnaire-builder/application/ports"
	"questionnaire-builder/application/queries"
	"questionnaire-builder/pkg/utils"
)

// QuestionHandler serves question editing.
type QuestionHandler struct {
	base
	ids ports.IDProvider
}

// NewQuestionHandler creates a new question handler
func NewQuestionHandler(deps Dependencies, ids ports.IDProvider) *QuestionHandler {
	return &QuestionHandler{base: newBase(deps), ids: ids}
}

// MoveQuestionRequest is the body of the move endpoint.
type MoveQuestionRequest struct {
	Direction string `json:"direction"`
}

// CopyQuestionRequest is the body of the copy endpoint.
type CopyQuestionRequest struct {
	NewQuestionID string `json:"new_question_id" validate:"omitempty,max=128"`
}

// ChangeTypeRequest is the body of the type endpoint.
type ChangeTypeRequest struct {
	Type string `json:"type"`
}

// SwapTitlesRequest is the body of the swap-titles endpoint.
type SwapTitlesRequest struct {
	First  string `json:"first"`
	Second string `json:"second"`
}

// AddQuestion handles POST /questionnaires/{id}/questions. A missing
// question_id is generated.
func (h *QuestionHandler) AddQuestion(w http.ResponseWriter, r *http.Request) {
	var cmd commands.AddQuestionCommand
	if err := h.decode(r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd.QuestionnaireID = chi.URLParam(r, "id")
	if cmd.QuestionID == "" {
		cmd.QuestionID = h.ids.NewID()
	}
	h.sendThen(w, r, &cmd, http.StatusCreated, queries.GetQuestionQuery{
		QuestionnaireID: cmd.QuestionnaireID,
		QuestionID:      cmd.QuestionID,
	})
}

// GetQuestion handles GET /questionnaires/{id}/questions/{qid}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, questionQuery(r))
}

// UpdateQuestion handles PATCH /questionnaires/{id}/questions/{qid}
func (h *QuestionHandler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var cmd commands.UpdateQuestionCommand
	if err := h.decode(r, &cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd.QuestionnaireID = chi.URLParam(r, "id")
	cmd.QuestionID = chi.URLParam(r, "qid")
	h.sendThen(w, r, &cmd, http.StatusOK, questionQuery(r))
}

// DeleteQuestion handles DELETE /questionnaires/{id}/questions/{qid}
func (h *QuestionHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	cmd := &commands.DeleteQuestionCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
	}
	h.sendThen(w, r, cmd, 0, nil)
}

// ChangeType handles PUT /questionnaires/{id}/questions/{qid}/type
func (h *QuestionHandler) ChangeType(w http.ResponseWriter, r *http.Request) {
	var req ChangeTypeRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd := &commands.ChangeQuestionTypeCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
		Type:            req.Type,
	}
	h.sendThen(w, r, cmd, http.StatusOK, questionQuery(r))
}

// MoveQuestion handles POST /questionnaires/{id}/questions/{qid}/move
func (h *QuestionHandler) MoveQuestion(w http.ResponseWriter, r *http.Request) {
	var req MoveQuestionRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd := &commands.MoveQuestionCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
		Direction:       req.Direction,
	}
	h.sendThen(w, r, cmd, http.StatusOK, questionQuery(r))
}

// CopyQuestion handles POST /questionnaires/{id}/questions/{qid}/copy
func (h *QuestionHandler) CopyQuestion(w http.ResponseWriter, r *http.Request) {
	var req CopyQuestionRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.NewQuestionID == "" {
		req.NewQuestionID = h.ids.NewID()
	}
	cmd := &commands.CopyQuestionCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
		NewQuestionID:   req.NewQuestionID,
	}
	h.sendThen(w, r, cmd, http.StatusCreated, queries.GetQuestionQuery{
		QuestionnaireID: cmd.QuestionnaireID,
		QuestionID:      cmd.NewQuestionID,
	})
}

// SwapTitles handles POST /questionnaires/{id}/swap-titles
func (h *QuestionHandler) SwapTitles(w http.ResponseWriter, r *http.Request) {
	var req SwapTitlesRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	cmd := &commands.SwapQuestionTitlesCommand{
		QuestionnaireID: chi.URLParam(r, "id"),
		First:           req.First,
		Second:          req.Second,
	}
	h.sendThen(w, r, cmd, http.StatusOK, queries.GetQuestionnaireQuery{QuestionnaireID: cmd.QuestionnaireID})
}

func questionQuery(r *http.Request) queries.GetQuestionQuery {
	return queries.GetQuestionQuery{
		QuestionnaireID: chi.URLParam(r, "id"),
		QuestionID:      chi.URLParam(r, "qid"),
	}
}
