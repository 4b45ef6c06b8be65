package services

import (
	"strings"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/records"
)

// ImportStats summarises what an import produced.
type ImportStats struct {
	Questions    int `json:"questions"`
	Nodes        int `json:"nodes"`
	Edges        int `json:"edges"`
	LinkedEdges  int `json:"linked_edges"`
	DroppedEdges int `json:"dropped_edges"`
	Criteria     int `json:"criteria"`
	Tags         int `json:"tags"`
	Labels       int `json:"labels"`
}

// ImportResult is a reconstructed questionnaire together with every
// lenient decision taken while building it.
type ImportResult struct {
	Questionnaire *aggregates.Questionnaire
	Diagnostics   []Diagnostic
	Stats         ImportStats
}

// Importer rebuilds a questionnaire from a flat record list.
type Importer struct {
	cfg *config.DomainConfig
}

// NewImporter creates an importer bound to the domain limits.
func NewImporter(cfg *config.DomainConfig) *Importer {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &Importer{cfg: cfg}
}

// Import decodes data and rebuilds a questionnaire under the given id.
// Structural problems fail the whole import; everything else is reported
// as diagnostics.
func (im *Importer) Import(id string, data []byte) (*ImportResult, error) {
	doc, err := records.Decode(data)
	if err != nil {
		return nil, err
	}
	return im.ImportDocument(id, doc)
}

type pendingQuestion struct {
	id      valueobjects.QuestionID
	content entities.QuestionContent
}

type pendingEdge struct {
	rec      records.EdgeRecord
	criteria []criteria.Criterion
}

// ImportDocument rebuilds a questionnaire from an already decoded document.
func (im *Importer) ImportDocument(id string, doc *records.Document) (*ImportResult, error) {
	var diags diagnostics
	var stats ImportStats

	for _, s := range doc.Skipped {
		code := DiagMalformedRecord
		if s.Reason == records.SkipUnknownModel {
			code = DiagUnknownModel
		}
		diags.add(code, s.Model, s.PK, "entry %d skipped: %s", s.Index, s.Message)
	}

	// Pass 1: question identity map.
	pending := make(map[string]*pendingQuestion)
	var order []string
	for _, r := range doc.Records {
		rec, ok := r.(records.QuestionRecord)
		if !ok {
			continue
		}
		key := rec.PK.String()
		if _, dup := pending[key]; dup {
			diags.add(DiagDuplicateRecord, rec.Model(), rec.PK, "question %s appears more than once; first record kept", key)
			continue
		}
		qid, err := valueobjects.NewQuestionID(key)
		if err != nil {
			diags.add(DiagMalformedRecord, rec.Model(), rec.PK, "question pk is not a usable id")
			continue
		}
		pending[key] = &pendingQuestion{id: qid, content: im.contentFromRecord(rec, &diags)}
		order = append(order, key)
	}

	// Pass 2: tags and labels.
	for _, r := range doc.Records {
		switch rec := r.(type) {
		case records.QuestionTagRecord:
			pq, ok := pending[rec.Fields.Question.String()]
			if !ok {
				diags.add(DiagDanglingTagReference, rec.Model(), rec.PK, "tag references missing question %s", rec.Fields.Question)
				continue
			}
			tag, err := valueobjects.ParseTag(rec.Fields.Choice)
			if err != nil {
				diags.add(DiagUnknownTag, rec.Model(), rec.PK, "unknown tag %q", rec.Fields.Choice)
				continue
			}
			pq.content.Tags = append(pq.content.Tags, tag)
			stats.Tags++
		case records.QuestionLabelRecord:
			pq, ok := pending[rec.Fields.Question.String()]
			if !ok {
				diags.add(DiagDanglingTagReference, rec.Model(), rec.PK, "label references missing question %s", rec.Fields.Question)
				continue
			}
			pq.content.Labels = append(pq.content.Labels, rec.Fields.Choice)
			stats.Labels++
		}
	}

	questions := make(map[string]*entities.Question, len(order))
	built := make([]*entities.Question, 0, len(order))
	for _, key := range order {
		pq := pending[key]
		q, err := entities.NewQuestion(pq.id, pq.content)
		if err != nil {
			return nil, err
		}
		questions[key] = q
		built = append(built, q)
	}
	stats.Questions = len(built)

	// Pass 3: nodes and edges.
	nodes := make(map[string]*entities.Question)
	edges := make(map[string]*pendingEdge)
	var edgeOrder []string
	for _, r := range doc.Records {
		switch rec := r.(type) {
		case records.NodeRecord:
			key := rec.PK.String()
			if _, dup := nodes[key]; dup {
				diags.add(DiagDuplicateRecord, rec.Model(), rec.PK, "node %s appears more than once; first record kept", key)
				continue
			}
			q, ok := questions[rec.Fields.Question.String()]
			if !ok {
				diags.add(DiagDanglingNodeReference, rec.Model(), rec.PK, "node references missing question %s", rec.Fields.Question)
				continue
			}
			nodes[key] = q
			stats.Nodes++
		case records.EdgeRecord:
			key := rec.PK.String()
			if _, dup := edges[key]; dup {
				diags.add(DiagDuplicateRecord, rec.Model(), rec.PK, "edge %s appears more than once; first record kept", key)
				continue
			}
			edges[key] = &pendingEdge{rec: rec}
			edgeOrder = append(edgeOrder, key)
		}
	}
	stats.Edges = len(edgeOrder)

	// Pass 4: criteria onto their edges.
	for _, r := range doc.Records {
		rec, ok := r.(records.CriterionRecord)
		if !ok {
			continue
		}
		edge, ok := edges[rec.Fields.Edge.String()]
		if !ok {
			diags.add(DiagDanglingCriterionEdge, rec.Model(), rec.PK, "criterion references missing edge %s", rec.Fields.Edge)
			continue
		}
		c, ok := im.criterionFromRecord(rec, &diags)
		if !ok {
			continue
		}
		edge.criteria = append(edge.criteria, c)
		stats.Criteria++
	}

	for _, key := range edgeOrder {
		if im.linkEdge(edges[key], nodes, &diags) {
			stats.LinkedEdges++
		} else {
			stats.DroppedEdges++
		}
	}

	meta := aggregates.DefaultMetadata(im.cfg)
	if g, ok := doc.Graph(); ok {
		meta = im.metadataFromRecord(g, meta)
	}

	q, err := aggregates.RestoreQuestionnaire(id, meta, built, im.cfg)
	if err != nil {
		return nil, err
	}
	q.RecordImport(stats.LinkedEdges, len(diags))

	return &ImportResult{Questionnaire: q, Diagnostics: diags, Stats: stats}, nil
}

// linkEdge writes one accumulated edge into its source question's
// connection and reports whether the edge survived.
func (im *Importer) linkEdge(edge *pendingEdge, nodes map[string]*entities.Question, diags *diagnostics) bool {
	rec := edge.rec
	source, okStart := nodes[rec.Fields.Start.String()]
	target, okEnd := nodes[rec.Fields.End.String()]
	if !okStart || !okEnd {
		diags.add(DiagDanglingEdgeEndpoint, rec.Model(), rec.PK, "edge endpoints %s -> %s do not resolve", rec.Fields.Start, rec.Fields.End)
		return false
	}

	var hasYes, hasNo bool
	rest := make([]criteria.Criterion, 0, len(edge.criteria))
	for _, c := range edge.criteria {
		switch c.Kind {
		case criteria.BoolYes:
			hasYes = true
		case criteria.BoolNo:
			hasNo = true
		default:
			rest = append(rest, c)
		}
	}

	branching := hasYes != hasNo
	if hasYes && hasNo {
		diags.add(DiagDualBooleanCollapsed, rec.Model(), rec.PK, "edge carries both boolean markers; imported as linear")
	}

	sourceIsBoolean := source.Type().IsBoolean()
	if branching && sourceIsBoolean {
		b := valueobjects.BranchYes
		if hasNo {
			b = valueobjects.BranchNo
		}
		if prev := source.Target(b); !prev.IsZero() {
			diags.add(DiagDuplicateBranchEdge, rec.Model(), rec.PK, "question %s already has a %s branch to %s; replaced", source.ID(), b, prev)
		}
		return im.fillSlot(source, b, target.ID(), rest, rec, diags)
	}

	if sourceIsBoolean {
		diags.add(DiagLinearEdgeOnBooleanSource, rec.Model(), rec.PK, "boolean question %s cannot take a linear edge; dropped", source.ID())
		return false
	}
	if branching && hasNo {
		diags.add(DiagBranchOnLinearSource, rec.Model(), rec.PK, "branch edge on non-boolean question %s imported as linear", source.ID())
	}
	if prev := source.Target(valueobjects.BranchNext); !prev.IsZero() {
		diags.add(DiagDuplicateLinearEdge, rec.Model(), rec.PK, "question %s already continues to %s; edge dropped", source.ID(), prev)
		return false
	}
	return im.fillSlot(source, valueobjects.BranchNext, target.ID(), rest, rec, diags)
}

// fillSlot points a slot at target and stores its criteria. A slot the
// source's shape lacks drops the edge with a malformed_record diagnostic.
func (im *Importer) fillSlot(source *entities.Question, b valueobjects.Branch, target valueobjects.QuestionID, list []criteria.Criterion, rec records.EdgeRecord, diags *diagnostics) bool {
	if err := source.SetTarget(b, target); err != nil {
		diags.add(DiagMalformedRecord, rec.Model(), rec.PK, "edge cannot fill slot %s of question %s: %v", b, source.ID(), err)
		return false
	}
	if err := source.SetCriteria(b, list); err != nil {
		source.ClearTarget(b)
		diags.add(DiagMalformedRecord, rec.Model(), rec.PK, "edge criteria rejected by question %s: %v", source.ID(), err)
		return false
	}
	return true
}

func (im *Importer) contentFromRecord(rec records.QuestionRecord, diags *diagnostics) entities.QuestionContent {
	f := rec.Fields

	qType := valueobjects.DefaultQuestionType
	if f.Type != "" {
		parsed, err := valueobjects.ParseQuestionType(f.Type)
		if err != nil {
			diags.add(DiagUnknownQuestionType, rec.Model(), rec.PK, "unknown question type %q; using %s", f.Type, qType)
		} else {
			qType = parsed
		}
	}

	params := valueobjects.DefaultTypeParams(qType)
	var options []string
	if tp := f.TypeParams; tp != nil {
		options = tp.Options
		if qType.IsList() || len(tp.Exclusive) > 0 {
			params.Exclusive = append([]string{}, tp.Exclusive...)
		}
		if tp.Other != nil {
			params.Other = *tp.Other
		}
		if tp.Min != nil {
			params.Min = tp.Min
		}
		if tp.Max != nil {
			params.Max = tp.Max
		}
		if tp.DecimalPlaces != nil {
			params.DecimalPlaces = tp.DecimalPlaces
		}
		if tp.Format != "" {
			params.Format = tp.Format
		}
	}

	required := true
	if f.Required != nil {
		required = *f.Required
	}

	return entities.QuestionContent{
		Title:        strings.TrimSpace(f.Title),
		Subtitle:     deref(f.Subtitle),
		Placeholder:  deref(f.Placeholder),
		Type:         qType,
		Options:      options,
		Params:       &params,
		Required:     required,
		AutoNext:     f.AutoNext,
		InternalNote: f.InternalNote,
	}
}

func (im *Importer) criterionFromRecord(rec records.CriterionRecord, diags *diagnostics) (criteria.Criterion, bool) {
	kind, ok := criteria.KindForLabel(rec.Fields.Choice)
	if !ok {
		parsed, err := criteria.ParseKind(rec.Fields.Choice)
		if err != nil {
			diags.add(DiagUnknownCriterionLabel, rec.Model(), rec.PK, "unknown criterion %q", rec.Fields.Choice)
			return criteria.Criterion{}, false
		}
		kind = parsed
	}

	cfg, err := criteria.DecodeConfig(kind, rec.Fields.Config)
	if err != nil {
		diags.add(DiagInvalidCriterionConfig, rec.Model(), rec.PK, "%v; default config used", err)
		cfg, _ = criteria.DefaultConfig(kind)
	}
	c, err := criteria.New(kind, cfg)
	if err != nil {
		diags.add(DiagInvalidCriterionConfig, rec.Model(), rec.PK, "%v", err)
		return criteria.Criterion{}, false
	}
	return c, true
}

func (im *Importer) metadataFromRecord(g records.GraphRecord, fallback aggregates.Metadata) aggregates.Metadata {
	meta := fallback
	if g.Fields.Name != "" {
		meta.Name = g.Fields.Name
	}
	if g.Fields.Category != 0 {
		meta.Category = g.Fields.Category
	}
	if g.Fields.Status != "" {
		meta.Status = g.Fields.Status
	}
	if g.Fields.InternalNote != "" {
		meta.InternalNote = g.Fields.InternalNote
	}
	if g.Fields.Variant != "" {
		meta.Variant = g.Fields.Variant
	}
	if g.Fields.VariantWeighting != "" {
		meta.VariantWeighting = g.Fields.VariantWeighting
	}
	return meta
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
