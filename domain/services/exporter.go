package services

import (
	"encoding/json"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/records"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// IDProvider mints the opaque identifiers used for graph, question, node,
// tag and label records.
type IDProvider interface {
	NewID() string
}

// Exporter flattens a questionnaire into the record format with fresh
// identifiers.
type Exporter struct {
	cfg *config.DomainConfig
	ids IDProvider
}

// NewExporter creates an exporter.
func NewExporter(cfg *config.DomainConfig, ids IDProvider) *Exporter {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Exporter{cfg: cfg, ids: ids}
}

var slotOrder = []valueobjects.Branch{valueobjects.BranchNext, valueobjects.BranchYes, valueobjects.BranchNo}

// Export emits the graph record, then question, node, tag and label
// records in model order, then every edge, then every criterion. Edge and
// criterion keys are integers counting up from the configured starts and
// are only meaningful within one export.
func (ex *Exporter) Export(q *aggregates.Questionnaire) ([]records.Record, error) {
	questions := q.Questions()
	if len(questions) == 0 {
		return nil, pkgerrors.NewDomainError(pkgerrors.DomainValidationError, pkgerrors.CodeEmptyQuestionnaire,
			"cannot export a questionnaire without questions")
	}

	graphPK := records.StringKey(ex.ids.NewID())
	questionPKs := make(map[valueobjects.QuestionID]records.PrimaryKey, len(questions))
	nodePKs := make(map[valueobjects.QuestionID]records.PrimaryKey, len(questions))
	for _, question := range questions {
		questionPKs[question.ID()] = records.StringKey(ex.ids.NewID())
		nodePKs[question.ID()] = records.StringKey(ex.ids.NewID())
	}

	out := make([]records.Record, 0, 1+4*len(questions))
	out = append(out, ex.graphRecord(q.Metadata(), graphPK,
		nodePKs[questions[0].ID()], nodePKs[questions[len(questions)-1].ID()]))

	for _, question := range questions {
		out = append(out, records.QuestionRecord{
			PK:     questionPKs[question.ID()],
			Fields: ex.questionFields(question),
		})
	}
	for _, question := range questions {
		out = append(out, records.NodeRecord{
			PK: nodePKs[question.ID()],
			Fields: records.NodeFields{
				Question:    questionPKs[question.ID()],
				ParentGraph: graphPK,
			},
		})
	}
	for _, question := range questions {
		for _, tag := range question.Tags() {
			out = append(out, records.QuestionTagRecord{
				PK:     records.StringKey(ex.ids.NewID()),
				Fields: records.AnnotationFields{Question: questionPKs[question.ID()], Choice: tag.String()},
			})
		}
	}
	for _, question := range questions {
		for _, label := range question.Labels() {
			out = append(out, records.QuestionLabelRecord{
				PK:     records.StringKey(ex.ids.NewID()),
				Fields: records.AnnotationFields{Question: questionPKs[question.ID()], Choice: label},
			})
		}
	}

	edgePK := int64(ex.cfg.Export.EdgePKStart)
	criterionPK := int64(ex.cfg.Export.CriterionPKStart)
	var edges, crits []records.Record
	for _, question := range questions {
		conn := question.Connection()
		for _, b := range slotOrder {
			if !question.Type().HasBranch(b) {
				continue
			}
			target := conn.Target(b)
			targetNode, ok := nodePKs[target]
			if target.IsZero() || !ok {
				continue
			}

			key := records.IntKey(edgePK)
			edgePK++
			edges = append(edges, records.EdgeRecord{
				PK:     key,
				Fields: records.EdgeFields{Start: nodePKs[question.ID()], End: targetNode},
			})

			for _, c := range slotCriteria(b, conn.Criteria[b]) {
				rec, err := criterionRecord(records.IntKey(criterionPK), key, c)
				if err != nil {
					return nil, err
				}
				criterionPK++
				crits = append(crits, rec)
			}
		}
	}
	out = append(out, edges...)
	out = append(out, crits...)
	return out, nil
}

// ExportJSON exports and encodes in one step.
func (ex *Exporter) ExportJSON(q *aggregates.Questionnaire) ([]byte, error) {
	recs, err := ex.Export(q)
	if err != nil {
		return nil, err
	}
	data, err := records.Encode(recs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "encode export")
	}
	return data, nil
}

// slotCriteria is what a slot writes to the wire. Branch slots lead with
// their marker; linear slots fall back to a single yes marker when empty.
func slotCriteria(b valueobjects.Branch, stored []criteria.Criterion) []criteria.Criterion {
	switch b {
	case valueobjects.BranchYes:
		return append([]criteria.Criterion{criteria.Marker(criteria.BoolYes)}, stored...)
	case valueobjects.BranchNo:
		return append([]criteria.Criterion{criteria.Marker(criteria.BoolNo)}, stored...)
	default:
		if len(stored) == 0 {
			return []criteria.Criterion{criteria.Marker(criteria.BoolYes)}
		}
		return stored
	}
}

func criterionRecord(pk, edge records.PrimaryKey, c criteria.Criterion) (records.CriterionRecord, error) {
	label, err := criteria.Label(c.Kind)
	if err != nil {
		return records.CriterionRecord{}, err
	}
	cfg, err := criteria.EncodeConfig(c.Config)
	if err != nil {
		return records.CriterionRecord{}, pkgerrors.Wrapf(err, "encode %s config", c.Kind)
	}
	return records.CriterionRecord{
		PK: pk,
		Fields: records.CriterionFields{
			Choice: label,
			Config: json.RawMessage(cfg),
			Edge:   edge,
		},
	}, nil
}

func (ex *Exporter) graphRecord(meta aggregates.Metadata, pk, start, end records.PrimaryKey) records.GraphRecord {
	defaults := ex.cfg.Export
	fields := records.GraphFields{
		Name:             orDefault(meta.Name, defaults.GraphName),
		Start:            start,
		End:              end,
		Category:         meta.Category,
		Status:           orDefault(meta.Status, defaults.GraphStatus),
		InternalNote:     orDefault(meta.InternalNote, defaults.GraphInternalNote),
		Variant:          orDefault(meta.Variant, defaults.Variant),
		VariantWeighting: orDefault(meta.VariantWeighting, defaults.VariantWeighting),
	}
	if fields.Category == 0 {
		fields.Category = defaults.GraphCategory
	}
	return records.GraphRecord{PK: pk, Fields: fields}
}

func (ex *Exporter) questionFields(q *entities.Question) records.QuestionFields {
	required := q.Required()
	return records.QuestionFields{
		Title:        q.Title(),
		Subtitle:     nullable(q.Subtitle()),
		Placeholder:  nullable(q.Placeholder()),
		Type:         q.Type().String(),
		TypeParams:   wireParams(q.Type(), q.Options(), q.Params()),
		Required:     &required,
		AutoNext:     q.AutoNext(),
		InternalNote: orDefault(q.InternalNote(), ex.cfg.Export.QuestionInternalNote),
	}
}

func wireParams(t valueobjects.QuestionType, options []string, p valueobjects.TypeParams) *records.TypeParams {
	tp := &records.TypeParams{
		Options:   options,
		Exclusive: p.Exclusive,
	}
	if tp.Options == nil {
		tp.Options = []string{}
	}
	if tp.Exclusive == nil {
		tp.Exclusive = []string{}
	}
	switch {
	case t.IsList():
		other := p.Other
		tp.Other = &other
	case t.IsNumeric():
		tp.Min = p.Min
		tp.Max = p.Max
		tp.DecimalPlaces = p.DecimalPlaces
	case t.IsTemporal():
		tp.Format = p.Format
	}
	return tp
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
