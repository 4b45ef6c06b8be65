package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/pkg/errors"
)

// QuestionValidator checks question content against the domain limits.
type QuestionValidator struct {
	cfg *config.DomainConfig
}

// NewQuestionValidator creates a question validator
func NewQuestionValidator(cfg *config.DomainConfig) *QuestionValidator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &QuestionValidator{cfg: cfg}
}

// ValidateContent validates a full content value.
func (v *QuestionValidator) ValidateContent(c entities.QuestionContent) error {
	verrs := errors.NewValidationErrors()

	v.validateTitle(verrs, c.Title)
	qType := c.Type
	if qType == "" {
		qType = valueobjects.DefaultQuestionType
	}
	if !qType.IsValid() {
		verrs.Add("type", fmt.Sprintf("unknown question type %q", c.Type))
	}
	v.validateTags(verrs, c.Tags)
	v.validateOptions(verrs, c.Options)
	if c.Params != nil {
		v.validateParams(verrs, *c.Params, c.Options)
	}

	return verrs.ErrOrNil()
}

// ValidatePatch validates only the fields a patch sets.
func (v *QuestionValidator) ValidatePatch(p entities.QuestionPatch, current entities.QuestionContent) error {
	verrs := errors.NewValidationErrors()

	if p.Title != nil {
		v.validateTitle(verrs, *p.Title)
	}
	if p.Type != nil && !p.Type.IsValid() {
		verrs.Add("type", fmt.Sprintf("unknown question type %q", *p.Type))
	}
	if p.Tags != nil {
		v.validateTags(verrs, *p.Tags)
	}
	options := current.Options
	if p.Options != nil {
		options = *p.Options
		v.validateOptions(verrs, options)
	}
	if p.Params != nil {
		v.validateParams(verrs, *p.Params, options)
	}

	return verrs.ErrOrNil()
}

func (v *QuestionValidator) validateTitle(verrs *errors.ValidationErrors, title string) {
	if n := utf8.RuneCountInString(strings.TrimSpace(title)); n > v.cfg.MaxTitleLength {
		verrs.Add("title", fmt.Sprintf("title exceeds maximum length of %d characters", v.cfg.MaxTitleLength))
	}
}

func (v *QuestionValidator) validateTags(verrs *errors.ValidationErrors, tags []valueobjects.Tag) {
	for _, t := range tags {
		if !t.IsKnown() {
			verrs.Add("tags", fmt.Sprintf("unknown tag %q", t))
		}
	}
}

func (v *QuestionValidator) validateOptions(verrs *errors.ValidationErrors, options []string) {
	if len(options) > v.cfg.MaxOptions {
		verrs.Add("options", fmt.Sprintf("at most %d options are allowed", v.cfg.MaxOptions))
	}
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		if strings.TrimSpace(o) == "" {
			verrs.Add("options", "options cannot be blank")
			continue
		}
		if _, dup := seen[o]; dup {
			verrs.Add("options", fmt.Sprintf("duplicate option %q", o))
		}
		seen[o] = struct{}{}
	}
}

func (v *QuestionValidator) validateParams(verrs *errors.ValidationErrors, p valueobjects.TypeParams, options []string) {
	if p.Min != nil && p.Max != nil && *p.Min > *p.Max {
		verrs.Add("params.min", "min cannot be greater than max")
	}
	if p.DecimalPlaces != nil && (*p.DecimalPlaces < 0 || *p.DecimalPlaces > 10) {
		verrs.Add("params.decimal_places", "decimal places must be between 0 and 10")
	}
	known := make(map[string]struct{}, len(options))
	for _, o := range options {
		known[o] = struct{}{}
	}
	for _, e := range p.Exclusive {
		if _, ok := known[e]; !ok {
			verrs.Add("params.exclusive", fmt.Sprintf("exclusive option %q is not an option", e))
		}
	}
}
