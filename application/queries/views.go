package queries

import (
	"questionnaire-builder/application/ports"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/pkg/utils"
)

// QuestionnaireView is the full read model of a questionnaire.
type QuestionnaireView struct {
	ID        string              `json:"id"`
	Metadata  aggregates.Metadata `json:"metadata"`
	Version   int                 `json:"version"`
	CreatedAt string              `json:"createdAt"`
	UpdatedAt string              `json:"updatedAt"`
	Questions []QuestionView      `json:"questions"`
	Edges     []EdgeView          `json:"edges"`
}

// QuestionView is one question with its connection.
type QuestionView struct {
	ID           string                     `json:"id"`
	Position     int                        `json:"position"`
	Title        string                     `json:"title"`
	Subtitle     string                     `json:"subtitle"`
	Placeholder  string                     `json:"placeholder"`
	Type         string                     `json:"type"`
	Tags         []string                   `json:"tags"`
	Labels       []string                   `json:"labels"`
	Options      []string                   `json:"options"`
	TypeParams   TypeParamsView             `json:"type_params"`
	Required     bool                       `json:"required"`
	AutoNext     bool                       `json:"auto_next"`
	InternalNote string                     `json:"internal_note"`
	Connection   ConnectionView             `json:"connection"`
	Criteria     map[string][]CriterionView `json:"criteria"`
}

// TypeParamsView mirrors valueobjects.TypeParams.
type TypeParamsView struct {
	Other         bool     `json:"other"`
	Exclusive     []string `json:"exclusive"`
	Min           *float64 `json:"min,omitempty"`
	Max           *float64 `json:"max,omitempty"`
	DecimalPlaces *int     `json:"decimal_places,omitempty"`
	Format        string   `json:"format,omitempty"`
}

// ConnectionView lists slot targets; unset slots are omitted.
type ConnectionView struct {
	Next string `json:"next,omitempty"`
	Yes  string `json:"yes,omitempty"`
	No   string `json:"no,omitempty"`
}

// EdgeView is a populated slot.
type EdgeView struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label"`
}

// CriterionView is a criterion with its label and wire config.
type CriterionView struct {
	Kind   string                 `json:"kind"`
	Label  string                 `json:"label"`
	Config map[string]interface{} `json:"config"`
}

// ExportResult is an encoded record list ready for download.
type ExportResult struct {
	Filename string
	Data     []byte
}

// LayoutView carries node centres keyed by question id.
type LayoutView struct {
	Positions map[string]ports.Position `json:"positions"`
}

// NewQuestionnaireView builds the view of q.
func NewQuestionnaireView(q *aggregates.Questionnaire) QuestionnaireView {
	questions := q.Questions()
	view := QuestionnaireView{
		ID:        q.ID(),
		Metadata:  q.Metadata(),
		Version:   q.Version(),
		CreatedAt: utils.FormatRFC3339(q.CreatedAt()),
		UpdatedAt: utils.FormatRFC3339(q.UpdatedAt()),
		Questions: make([]QuestionView, 0, len(questions)),
		Edges:     NewEdgeViews(q),
	}
	for i, question := range questions {
		view.Questions = append(view.Questions, NewQuestionView(question, i))
	}
	return view
}

// NewQuestionView builds the view of one question.
func NewQuestionView(q *entities.Question, position int) QuestionView {
	tags := q.Tags()
	tagNames := make([]string, 0, len(tags))
	for _, t := range tags {
		tagNames = append(tagNames, t.String())
	}

	params := q.Params()
	exclusive := params.Exclusive
	if exclusive == nil {
		exclusive = []string{}
	}

	conn := q.Connection()
	view := QuestionView{
		ID:           q.ID().String(),
		Position:     position,
		Title:        q.Title(),
		Subtitle:     q.Subtitle(),
		Placeholder:  q.Placeholder(),
		Type:         q.Type().String(),
		Tags:         tagNames,
		Labels:       q.Labels(),
		Options:      q.Options(),
		TypeParams: TypeParamsView{
			Other:         params.Other,
			Exclusive:     exclusive,
			Min:           params.Min,
			Max:           params.Max,
			DecimalPlaces: params.DecimalPlaces,
			Format:        params.Format,
		},
		Required:     q.Required(),
		AutoNext:     q.AutoNext(),
		InternalNote: q.InternalNote(),
		Connection: ConnectionView{
			Next: conn.Next.String(),
			Yes:  conn.Yes.String(),
			No:   conn.No.String(),
		},
		Criteria: make(map[string][]CriterionView),
	}
	for _, b := range q.Type().Branches() {
		view.Criteria[string(b)] = NewCriterionViews(q.Criteria(b))
	}
	return view
}

// NewEdgeViews lists the populated slots of q.
func NewEdgeViews(q *aggregates.Questionnaire) []EdgeView {
	edges := q.Edges()
	out := make([]EdgeView, 0, len(edges))
	for _, e := range edges {
		out = append(out, EdgeView{
			Source: e.Source.String(),
			Target: e.Target.String(),
			Label:  e.Label.String(),
		})
	}
	return out
}

// NewCriterionViews converts a criteria list.
func NewCriterionViews(list []criteria.Criterion) []CriterionView {
	out := make([]CriterionView, 0, len(list))
	for _, c := range list {
		out = append(out, CriterionView{
			Kind:   c.Kind.String(),
			Label:  c.Label(),
			Config: criteria.WireConfig(c.Config),
		})
	}
	return out
}
