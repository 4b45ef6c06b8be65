package config

import (
	"github.com/go-playground/validator/v10"
)

// DomainConfig holds the configurable limits and export defaults of the
// questionnaire domain.
type DomainConfig struct {
	// Questionnaire constraints
	MaxQuestions       int `yaml:"max_questions" validate:"gt=0"`
	MaxTitleLength     int `yaml:"max_title_length" validate:"gt=0"`
	MaxOptions         int `yaml:"max_options" validate:"gt=0"`
	MaxCriteriaPerSlot int `yaml:"max_criteria_per_slot" validate:"gt=0"`

	Export ExportDefaults `yaml:"export"`
	Layout LayoutConfig   `yaml:"layout"`
}

// ExportDefaults are the values written into records the model does not
// carry an opinion about.
type ExportDefaults struct {
	GraphName            string `yaml:"graph_name" validate:"required"`
	GraphCategory        int    `yaml:"graph_category"`
	GraphStatus          string `yaml:"graph_status" validate:"required"`
	GraphInternalNote    string `yaml:"graph_internal_note"`
	Variant              string `yaml:"variant" validate:"required"`
	VariantWeighting     string `yaml:"variant_weighting" validate:"required,numeric"`
	QuestionInternalNote string `yaml:"question_internal_note"`
	EdgePKStart          int    `yaml:"edge_pk_start" validate:"gte=0"`
	CriterionPKStart     int    `yaml:"criterion_pk_start" validate:"gte=0"`
}

// LayoutConfig parameterises the layered layout engine.
type LayoutConfig struct {
	NodeWidth  float64 `yaml:"node_width" validate:"gt=0"`
	NodeHeight float64 `yaml:"node_height" validate:"gt=0"`
	NodeSep    float64 `yaml:"node_sep" validate:"gte=0"`
	RankSep    float64 `yaml:"rank_sep" validate:"gte=0"`
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		MaxQuestions:       1000,
		MaxTitleLength:     500,
		MaxOptions:         200,
		MaxCriteriaPerSlot: 20,

		Export: ExportDefaults{
			GraphName:            "Survey",
			GraphCategory:        5,
			GraphStatus:          "active",
			GraphInternalNote:    "Survey Test",
			Variant:              "A",
			VariantWeighting:     "100",
			QuestionInternalNote: "Generated by builder",
			EdgePKStart:          2100,
			CriterionPKStart:     1800,
		},

		Layout: LayoutConfig{
			NodeWidth:  200,
			NodeHeight: 50,
			NodeSep:    50,
			RankSep:    100,
		},
	}
}

// DevelopmentDomainConfig relaxes limits for local work.
func DevelopmentDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxQuestions = 10000
	cfg.MaxTitleLength = 2000
	return cfg
}

// LoadDomainConfig returns the configuration for an environment
func LoadDomainConfig(environment string) *DomainConfig {
	switch environment {
	case "development":
		return DevelopmentDomainConfig()
	default:
		return DefaultDomainConfig()
	}
}

// Clone returns an independent copy.
func (c *DomainConfig) Clone() *DomainConfig {
	cp := *c
	return &cp
}

// Validate checks the configuration with its struct tags.
func (c *DomainConfig) Validate() error {
	return validator.New().Struct(c)
}
