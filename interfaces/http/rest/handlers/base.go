// Package handlers translates HTTP requests into commands and queries.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"questionnaire-builder/application/commands/bus"
	querybus "questionnaire-builder/application/queries/bus"
	"questionnaire-builder/pkg/common"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// Dependencies groups what every handler needs.
type Dependencies struct {
	CommandBus *bus.CommandBus
	QueryBus   *querybus.QueryBus
	Errors     *pkgerrors.ErrorHandler
	Logger     *zap.Logger
}

type base struct {
	commands *bus.CommandBus
	queries  *querybus.QueryBus
	errors   *pkgerrors.ErrorHandler
	logger   *zap.Logger
}

func newBase(deps Dependencies) base {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	errs := deps.Errors
	if errs == nil {
		errs = pkgerrors.NewErrorHandler(logger, false)
	}
	return base{commands: deps.CommandBus, queries: deps.QueryBus, errors: errs, logger: logger}
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (b base) decode(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return pkgerrors.NewValidationError("invalid request body: " + err.Error()).
		WithCode("INVALID_JSON")
}

// ask runs a query and writes its result, or the error.
func (b base) ask(w http.ResponseWriter, r *http.Request, status int, query querybus.Query) {
	result, err := b.queries.Ask(r.Context(), query)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, r, status, result)
}

// sendThen dispatches cmd and, on success, answers with query.
func (b base) sendThen(w http.ResponseWriter, r *http.Request, cmd bus.Command, status int, query querybus.Query) {
	if err := b.commands.Send(r.Context(), cmd); err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	if query == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	b.ask(w, r, status, query)
}
