// Package commands defines the write operations of the questionnaire
// builder. Every command validates its own shape; domain rules are checked
// by the aggregate.
package commands

import (
	"encoding/json"

	"questionnaire-builder/application/services"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	pkgerrors "questionnaire-builder/pkg/errors"
	"questionnaire-builder/pkg/utils"
)

func validateStruct(v interface{}) error { return utils.ValidateStruct(v) }

// CreateQuestionnaireCommand starts an editing session.
type CreateQuestionnaireCommand struct {
	QuestionnaireID string               `json:"questionnaire_id" validate:"required,max=128"`
	Metadata        *aggregates.Metadata `json:"metadata,omitempty"`
}

func (c *CreateQuestionnaireCommand) Validate() error { return validateStruct(c) }

// DeleteQuestionnaireCommand ends an editing session.
type DeleteQuestionnaireCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
}

func (c *DeleteQuestionnaireCommand) Validate() error { return validateStruct(c) }

// ImportQuestionnaireCommand replaces a session with an imported record
// list. The handler fills Result.
type ImportQuestionnaireCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required,max=128"`
	Data            []byte `json:"-" validate:"required"`

	Result *services.ImportReport `json:"-"`
}

func (c *ImportQuestionnaireCommand) Validate() error { return validateStruct(c) }

// TypeParamsInput carries type parameters over the wire.
type TypeParamsInput struct {
	Other         bool     `json:"other"`
	Exclusive     []string `json:"exclusive" validate:"max=200,dive,required"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	DecimalPlaces *int     `json:"decimal_places,omitempty" validate:"omitempty,gte=0,lte=10"`
	Format        string   `json:"format,omitempty" validate:"max=64"`
}

// ToTypeParams converts the input into the domain value
func (p *TypeParamsInput) ToTypeParams() *valueobjects.TypeParams {
	if p == nil {
		return nil
	}
	return &valueobjects.TypeParams{
		Other:         p.Other,
		Exclusive:     append([]string{}, p.Exclusive...),
		Min:           p.Min,
		Max:           p.Max,
		DecimalPlaces: p.DecimalPlaces,
		Format:        p.Format,
	}
}

// AddQuestionCommand appends a question under a caller-chosen id.
type AddQuestionCommand struct {
	QuestionnaireID string           `json:"questionnaire_id" validate:"required"`
	QuestionID      string           `json:"question_id" validate:"required,max=128"`
	Title           string           `json:"title"`
	Subtitle        string           `json:"subtitle"`
	Placeholder     string           `json:"placeholder"`
	Type            string           `json:"type"`
	Tags            []string         `json:"tags" validate:"max=30,dive,required"`
	Labels          []string         `json:"labels" validate:"max=50,dive,required"`
	Options         []string         `json:"options" validate:"dive,required"`
	Params          *TypeParamsInput `json:"type_params,omitempty"`
	Required        *bool            `json:"required,omitempty"`
	AutoNext        bool             `json:"auto_next"`
	InternalNote    string           `json:"internal_note" validate:"max=2000"`
}

func (c *AddQuestionCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Type != "" {
		if _, err := valueobjects.ParseQuestionType(c.Type); err != nil {
			return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_QUESTION_TYPE")
		}
	}
	return nil
}

// Content builds the domain content. Required defaults to true.
func (c *AddQuestionCommand) Content() entities.QuestionContent {
	required := true
	if c.Required != nil {
		required = *c.Required
	}
	return entities.QuestionContent{
		Title:        c.Title,
		Subtitle:     c.Subtitle,
		Placeholder:  c.Placeholder,
		Type:         valueobjects.QuestionType(c.Type),
		Tags:         toTags(c.Tags),
		Labels:       c.Labels,
		Options:      c.Options,
		Params:       c.Params.ToTypeParams(),
		Required:     required,
		AutoNext:     c.AutoNext,
		InternalNote: c.InternalNote,
	}
}

// UpdateQuestionCommand applies a partial update; nil fields are kept.
type UpdateQuestionCommand struct {
	QuestionnaireID string           `json:"questionnaire_id" validate:"required"`
	QuestionID      string           `json:"question_id" validate:"required"`
	Title           *string          `json:"title,omitempty"`
	Subtitle        *string          `json:"subtitle,omitempty"`
	Placeholder     *string          `json:"placeholder,omitempty"`
	Type            *string          `json:"type,omitempty"`
	Tags            *[]string        `json:"tags,omitempty"`
	Labels          *[]string        `json:"labels,omitempty"`
	Options         *[]string        `json:"options,omitempty"`
	Params          *TypeParamsInput `json:"type_params,omitempty"`
	Required        *bool            `json:"required,omitempty"`
	AutoNext        *bool            `json:"auto_next,omitempty"`
	InternalNote    *string          `json:"internal_note,omitempty"`
}

func (c *UpdateQuestionCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if c.Type != nil {
		if _, err := valueobjects.ParseQuestionType(*c.Type); err != nil {
			return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_QUESTION_TYPE")
		}
	}
	return nil
}

// Patch builds the domain patch
func (c *UpdateQuestionCommand) Patch() entities.QuestionPatch {
	p := entities.QuestionPatch{
		Title:        c.Title,
		Subtitle:     c.Subtitle,
		Placeholder:  c.Placeholder,
		Labels:       c.Labels,
		Options:      c.Options,
		Params:       c.Params.ToTypeParams(),
		Required:     c.Required,
		AutoNext:     c.AutoNext,
		InternalNote: c.InternalNote,
	}
	if c.Type != nil {
		t := valueobjects.QuestionType(*c.Type)
		p.Type = &t
	}
	if c.Tags != nil {
		tags := toTags(*c.Tags)
		p.Tags = &tags
	}
	return p
}

// ChangeQuestionTypeCommand changes a question's type.
type ChangeQuestionTypeCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	QuestionID      string `json:"question_id" validate:"required"`
	Type            string `json:"type" validate:"required"`
}

func (c *ChangeQuestionTypeCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if _, err := valueobjects.ParseQuestionType(c.Type); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_QUESTION_TYPE")
	}
	return nil
}

// DeleteQuestionCommand removes a question.
type DeleteQuestionCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	QuestionID      string `json:"question_id" validate:"required"`
}

func (c *DeleteQuestionCommand) Validate() error { return validateStruct(c) }

// MoveQuestionCommand moves a question one position.
type MoveQuestionCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	QuestionID      string `json:"question_id" validate:"required"`
	Direction       string `json:"direction" validate:"required,oneof=up down"`
}

func (c *MoveQuestionCommand) Validate() error { return validateStruct(c) }

// CopyQuestionCommand duplicates a question under NewQuestionID.
type CopyQuestionCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	QuestionID      string `json:"question_id" validate:"required"`
	NewQuestionID   string `json:"new_question_id" validate:"required,max=128,nefield=QuestionID"`
}

func (c *CopyQuestionCommand) Validate() error { return validateStruct(c) }

// SwapQuestionTitlesCommand exchanges two titles.
type SwapQuestionTitlesCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	First           string `json:"first" validate:"required"`
	Second          string `json:"second" validate:"required"`
}

func (c *SwapQuestionTitlesCommand) Validate() error { return validateStruct(c) }

// ConnectQuestionsCommand proposes an edge.
type ConnectQuestionsCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	Source          string `json:"source" validate:"required"`
	Target          string `json:"target" validate:"required"`
	Label           string `json:"label" validate:"required"`
}

func (c *ConnectQuestionsCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	_, err := c.EdgeLabel()
	return err
}

// EdgeLabel parses the label
func (c *ConnectQuestionsCommand) EdgeLabel() (valueobjects.EdgeLabel, error) {
	return parseLabel(c.Label)
}

// DisconnectQuestionsCommand deletes the edge leaving Source with Label.
type DisconnectQuestionsCommand struct {
	QuestionnaireID string `json:"questionnaire_id" validate:"required"`
	Source          string `json:"source" validate:"required"`
	Label           string `json:"label" validate:"required"`
}

func (c *DisconnectQuestionsCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	_, err := c.EdgeLabel()
	return err
}

// EdgeLabel parses the label
func (c *DisconnectQuestionsCommand) EdgeLabel() (valueobjects.EdgeLabel, error) {
	return parseLabel(c.Label)
}

// CriterionInput is a criterion in its wire form: a kind value and the
// kind's config payload.
type CriterionInput struct {
	Kind   string          `json:"kind" validate:"required"`
	Config json.RawMessage `json:"config,omitempty"`
}

// SetCriteriaCommand replaces the criteria of one slot.
type SetCriteriaCommand struct {
	QuestionnaireID string           `json:"questionnaire_id" validate:"required"`
	QuestionID      string           `json:"question_id" validate:"required"`
	Branch          string           `json:"branch" validate:"required"`
	Criteria        []CriterionInput `json:"criteria" validate:"dive"`
}

func (c *SetCriteriaCommand) Validate() error {
	if err := validateStruct(c); err != nil {
		return err
	}
	if _, err := valueobjects.ParseBranch(c.Branch); err != nil {
		return pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_BRANCH")
	}
	_, err := c.CriteriaList()
	return err
}

// CriteriaList decodes the criteria
func (c *SetCriteriaCommand) CriteriaList() ([]criteria.Criterion, error) {
	out := make([]criteria.Criterion, 0, len(c.Criteria))
	for i, in := range c.Criteria {
		kind, err := criteria.ParseKind(in.Kind)
		if err != nil {
			return nil, err
		}
		cfg, err := criteria.DecodeConfig(kind, in.Config)
		if err != nil {
			return nil, pkgerrors.NewValidationError(err.Error()).
				WithCode("INVALID_CRITERION_CONFIG").
				WithDetail("index", i)
		}
		out = append(out, criteria.Criterion{Kind: kind, Config: cfg})
	}
	return out, nil
}

// SlotBranch parses the branch
func (c *SetCriteriaCommand) SlotBranch() valueobjects.Branch {
	b, _ := valueobjects.ParseBranch(c.Branch)
	return b
}

func parseLabel(s string) (valueobjects.EdgeLabel, error) {
	label, err := valueobjects.ParseEdgeLabel(s)
	if err != nil {
		return "", pkgerrors.NewValidationError(err.Error()).WithCode("INVALID_EDGE_LABEL")
	}
	return label, nil
}

func toTags(in []string) []valueobjects.Tag {
	out := make([]valueobjects.Tag, 0, len(in))
	for _, s := range in {
		out = append(out, valueobjects.Tag(s))
	}
	return out
}
