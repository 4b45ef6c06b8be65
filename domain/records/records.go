// Package records is the flat, relationally normalised wire format of a
// questionnaire: a JSON array of {model, pk, fields} entries that refer to
// each other only through primary keys. Entries are decoded at the boundary
// into a closed set of record types.
package records

import "encoding/json"

// Model is the wire discriminator of a record.
type Model string

const (
	ModelGraph         Model = "questionnaire.questionnairegraph"
	ModelQuestion      Model = "questionnaire.question"
	ModelNode          Model = "questionnaire.node"
	ModelEdge          Model = "questionnaire.edge"
	ModelCriterion     Model = "questionnaire.edgetriggercriteria"
	ModelQuestionTag   Model = "questionnaire.questiontag"
	ModelQuestionLabel Model = "questionnaire.questionlabel"
)

// RequiredModels must each appear at least once for a record list to be
// importable.
var RequiredModels = []Model{ModelQuestion, ModelNode, ModelEdge}

// IsKnown reports whether m is one of the record kinds.
func (m Model) IsKnown() bool {
	switch m {
	case ModelGraph, ModelQuestion, ModelNode, ModelEdge, ModelCriterion, ModelQuestionTag, ModelQuestionLabel:
		return true
	}
	return false
}

// Record is implemented by every record kind and nothing else.
type Record interface {
	Model() Model
	Key() PrimaryKey
	fields() interface{}
}

// GraphFields names the questionnaire and its first and last node.
type GraphFields struct {
	Name             string     `json:"name"`
	Start            PrimaryKey `json:"start"`
	End              PrimaryKey `json:"end"`
	Category         int        `json:"category"`
	Status           string     `json:"status"`
	InternalNote     string     `json:"internal_note"`
	Variant          string     `json:"variant"`
	VariantWeighting string     `json:"variant_weighting"`
}

// GraphRecord is the questionnaire container.
type GraphRecord struct {
	PK     PrimaryKey
	Fields GraphFields
}

// TypeParams is the wire form of a question's type parameters. Options and
// exclusive are always written; the rest only for the types that use them.
type TypeParams struct {
	Options       []string `json:"options"`
	Exclusive     []string `json:"exclusive"`
	Other         *bool    `json:"other,omitempty"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	DecimalPlaces *int     `json:"decimal_places,omitempty"`
	Format        string   `json:"format,omitempty"`
}

// QuestionFields is the content of a question. It carries no topology.
type QuestionFields struct {
	Title        string      `json:"title"`
	Subtitle     *string     `json:"subtitle"`
	Placeholder  *string     `json:"placeholder"`
	Type         string      `json:"type"`
	TypeParams   *TypeParams `json:"type_params"`
	Required     *bool       `json:"required"`
	AutoNext     bool        `json:"auto_next"`
	InternalNote string      `json:"internal_note"`
}

// QuestionRecord holds one question's content.
type QuestionRecord struct {
	PK     PrimaryKey
	Fields QuestionFields
}

// NodeFields points a graph position at a question.
type NodeFields struct {
	Question    PrimaryKey `json:"question"`
	SubGraph    PrimaryKey `json:"sub_graph"`
	ParentGraph PrimaryKey `json:"parent_graph"`
}

// NodeRecord is the indirection between a graph position and a question.
type NodeRecord struct {
	PK     PrimaryKey
	Fields NodeFields
}

// EdgeFields connects two nodes. The edge itself has no label.
type EdgeFields struct {
	Start PrimaryKey `json:"start"`
	End   PrimaryKey `json:"end"`
}

// EdgeRecord is a directed connection between nodes.
type EdgeRecord struct {
	PK     PrimaryKey
	Fields EdgeFields
}

// CriterionFields attaches a trigger criterion to an edge. Choice is the
// criterion's display label.
type CriterionFields struct {
	Choice string          `json:"choice"`
	Config json.RawMessage `json:"config"`
	Edge   PrimaryKey      `json:"edge"`
}

// CriterionRecord is one criterion gating an edge.
type CriterionRecord struct {
	PK     PrimaryKey
	Fields CriterionFields
}

// AnnotationFields attaches a tag or label value to a question.
type AnnotationFields struct {
	Question PrimaryKey `json:"question"`
	Choice   string     `json:"choice"`
}

// QuestionTagRecord declares a tag on a question.
type QuestionTagRecord struct {
	PK     PrimaryKey
	Fields AnnotationFields
}

// QuestionLabelRecord attaches a free-form label to a question.
type QuestionLabelRecord struct {
	PK     PrimaryKey
	Fields AnnotationFields
}

func (r GraphRecord) Model() Model         { return ModelGraph }
func (r QuestionRecord) Model() Model      { return ModelQuestion }
func (r NodeRecord) Model() Model          { return ModelNode }
func (r EdgeRecord) Model() Model          { return ModelEdge }
func (r CriterionRecord) Model() Model     { return ModelCriterion }
func (r QuestionTagRecord) Model() Model   { return ModelQuestionTag }
func (r QuestionLabelRecord) Model() Model { return ModelQuestionLabel }

func (r GraphRecord) Key() PrimaryKey         { return r.PK }
func (r QuestionRecord) Key() PrimaryKey      { return r.PK }
func (r NodeRecord) Key() PrimaryKey          { return r.PK }
func (r EdgeRecord) Key() PrimaryKey          { return r.PK }
func (r CriterionRecord) Key() PrimaryKey     { return r.PK }
func (r QuestionTagRecord) Key() PrimaryKey   { return r.PK }
func (r QuestionLabelRecord) Key() PrimaryKey { return r.PK }

func (r GraphRecord) fields() interface{}         { return r.Fields }
func (r QuestionRecord) fields() interface{}      { return r.Fields }
func (r NodeRecord) fields() interface{}          { return r.Fields }
func (r EdgeRecord) fields() interface{}          { return r.Fields }
func (r CriterionRecord) fields() interface{}     { return r.Fields }
func (r QuestionTagRecord) fields() interface{}   { return r.Fields }
func (r QuestionLabelRecord) fields() interface{} { return r.Fields }
