package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"questionnaire-builder/application/commands"
	"questionnaire-builder/application/ports"
	"questionnaire-builder/application/queries"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/pkg/common"
	pkgerrors "questionnaire-builder/pkg/errors"
	"questionnaire-builder/pkg/utils"
)

// QuestionnaireHandler serves questionnaire sessions, import and export.
type QuestionnaireHandler struct {
	base
	ids            ports.IDProvider
	maxImportBytes int64
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(deps Dependencies, ids ports.IDProvider, maxImportBytes int64) *QuestionnaireHandler {
	return &QuestionnaireHandler{base: newBase(deps), ids: ids, maxImportBytes: maxImportBytes}
}

// CreateQuestionnaireRequest is the body of POST /questionnaires.
type CreateQuestionnaireRequest struct {
	ID       string               `json:"id" validate:"omitempty,max=128"`
	Metadata *aggregates.Metadata `json:"metadata,omitempty"`
}

// CreateQuestionnaire handles POST /questionnaires
func (h *QuestionnaireHandler) CreateQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req CreateQuestionnaireRequest
	if err := h.decode(r, &req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if req.ID == "" {
		req.ID = h.ids.NewID()
	}

	cmd := &commands.CreateQuestionnaireCommand{QuestionnaireID: req.ID, Metadata: req.Metadata}
	h.sendThen(w, r, cmd, http.StatusCreated, queries.GetQuestionnaireQuery{QuestionnaireID: req.ID})
}

// GetQuestionnaire handles GET /questionnaires/{id}
func (h *QuestionnaireHandler) GetQuestionnaire(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, queries.GetQuestionnaireQuery{QuestionnaireID: chi.URLParam(r, "id")})
}

// DeleteQuestionnaire handles DELETE /questionnaires/{id}
func (h *QuestionnaireHandler) DeleteQuestionnaire(w http.ResponseWriter, r *http.Request) {
	h.sendThen(w, r, &commands.DeleteQuestionnaireCommand{QuestionnaireID: chi.URLParam(r, "id")}, 0, nil)
}

// ImportQuestionnaire handles POST /questionnaires/{id}/import. The body is
// the raw record list; the session is created or replaced on success.
func (h *QuestionnaireHandler) ImportQuestionnaire(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxImportBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errors.Handle(w, r, pkgerrors.NewPayloadTooLargeError(h.maxImportBytes))
			return
		}
		h.errors.Handle(w, r, pkgerrors.NewValidationError("could not read request body").WithCause(err))
		return
	}

	cmd := &commands.ImportQuestionnaireCommand{QuestionnaireID: id, Data: data}
	if err := h.commands.Send(r.Context(), cmd); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, http.StatusOK, cmd.Result)
}

// ExportQuestionnaire handles GET /questionnaires/{id}/export. The record
// list is served as a file download, outside the envelope.
func (h *QuestionnaireHandler) ExportQuestionnaire(w http.ResponseWriter, r *http.Request) {
	result, err := h.queries.Ask(r.Context(), queries.ExportQuestionnaireQuery{QuestionnaireID: chi.URLParam(r, "id")})
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	export := result.(queries.ExportResult)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Data); err != nil {
		h.logger.Warn("Failed to write export", zap.Error(err))
	}
}

// GetLayout handles GET /questionnaires/{id}/layout
func (h *QuestionnaireHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, http.StatusOK, queries.GetLayoutQuery{QuestionnaireID: chi.URLParam(r, "id")})
}
