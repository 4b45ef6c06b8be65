// Package queries defines the read operations of the questionnaire builder
// and the views they return.
package queries

import (
	"questionnaire-builder/domain/core/valueobjects"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// ExportFilename is the download name of an exported record list.
const ExportFilename = "questions.json"

func errQuestionnaireID() error {
	return pkgerrors.NewValidationError("questionnaire ID is required").WithCode("MISSING_QUESTIONNAIRE_ID")
}

func errQuestionID() error {
	return pkgerrors.NewValidationError("question ID is required").WithCode("MISSING_QUESTION_ID")
}

// GetQuestionnaireQuery returns the whole questionnaire.
type GetQuestionnaireQuery struct {
	QuestionnaireID string
}

// Validate validates the GetQuestionnaireQuery
func (q GetQuestionnaireQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	return nil
}

// GetQuestionQuery returns one question.
type GetQuestionQuery struct {
	QuestionnaireID string
	QuestionID      string
}

// Validate validates the GetQuestionQuery
func (q GetQuestionQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	if q.QuestionID == "" {
		return errQuestionID()
	}
	return nil
}

// ListEdgesQuery returns every populated slot as an edge.
type ListEdgesQuery struct {
	QuestionnaireID string
}

// Validate validates the ListEdgesQuery
func (q ListEdgesQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	return nil
}

// GetCriteriaQuery returns the criteria of one slot.
type GetCriteriaQuery struct {
	QuestionnaireID string
	QuestionID      string
	Branch          string
}

// Validate validates the GetCriteriaQuery
func (q GetCriteriaQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	if q.QuestionID == "" {
		return errQuestionID()
	}
	if _, err := valueobjects.ParseBranch(q.Branch); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_BRANCH")
	}
	return nil
}

// ListLegalCriteriaQuery returns the criteria kinds legal on a question's
// outgoing edges.
type ListLegalCriteriaQuery struct {
	QuestionnaireID string
	QuestionID      string
}

// Validate validates the ListLegalCriteriaQuery
func (q ListLegalCriteriaQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	if q.QuestionID == "" {
		return errQuestionID()
	}
	return nil
}

// ListCriteriaCatalogQuery lists the registry, or the kinds legal for a
// type and tag set when Type is given.
type ListCriteriaCatalogQuery struct {
	Type string
	Tags []string
}

// Validate validates the ListCriteriaCatalogQuery
func (q ListCriteriaCatalogQuery) Validate() error {
	if q.Type == "" {
		return nil
	}
	if _, err := valueobjects.ParseQuestionType(q.Type); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_QUESTION_TYPE")
	}
	return nil
}

// ExportQuestionnaireQuery flattens a questionnaire into records.
type ExportQuestionnaireQuery struct {
	QuestionnaireID string
}

// Validate validates the ExportQuestionnaireQuery
func (q ExportQuestionnaireQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	return nil
}

// GetLayoutQuery computes node positions.
type GetLayoutQuery struct {
	QuestionnaireID string
}

// Validate validates the GetLayoutQuery
func (q GetLayoutQuery) Validate() error {
	if q.QuestionnaireID == "" {
		return errQuestionnaireID()
	}
	return nil
}
