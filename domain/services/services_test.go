package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/records"
	pkgerrors "questionnaire-builder/pkg/errors"
)

type sequenceIDs struct {
	prefix string
	n      int
}

func (s *sequenceIDs) NewID() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.prefix, s.n)
}

func qid(s string) valueobjects.QuestionID { return valueobjects.MustQuestionID(s) }

// buildSample returns: age (number, dob tag) -> smoker (boolean, address tag)
// yes -> brand (single select) -> end (dead end); smoker no -> end.
func buildSample(t *testing.T) *aggregates.Questionnaire {
	t.Helper()
	q, err := aggregates.NewQuestionnaire("sample", config.DefaultDomainConfig())
	require.NoError(t, err)

	contents := []struct {
		id      string
		content entities.QuestionContent
	}{
		{"age", entities.QuestionContent{Title: "How old are you?", Type: valueobjects.TypeNumber, Tags: []valueobjects.Tag{valueobjects.TagDemographicDOB}, Required: true}},
		{"smoker", entities.QuestionContent{Title: "Do you smoke?", Type: valueobjects.TypeBoolean, Tags: []valueobjects.Tag{valueobjects.TagAddress}, Labels: []string{"lifestyle"}}},
		{"brand", entities.QuestionContent{Title: "Which brand?", Subtitle: "Pick one", Type: valueobjects.TypeSingleSelect, Options: []string{"Alpha", "Beta"}}},
		{"end", entities.QuestionContent{Title: "Thanks", Type: valueobjects.TypeDeadEnd}},
	}
	for _, c := range contents {
		_, err := q.AddQuestion(qid(c.id), c.content)
		require.NoError(t, err)
	}

	require.NoError(t, q.Connect(qid("age"), qid("smoker"), valueobjects.LabelNext))
	require.NoError(t, q.Connect(qid("smoker"), qid("brand"), valueobjects.LabelYes))
	require.NoError(t, q.Connect(qid("smoker"), qid("end"), valueobjects.LabelNo))
	require.NoError(t, q.Connect(qid("brand"), qid("end"), valueobjects.LabelNext))

	require.NoError(t, q.SetCriteria(qid("age"), valueobjects.BranchNext, []criteria.Criterion{
		{Kind: criteria.AgeGTE, Config: criteria.ThresholdConfig{TriggerValue: 18}},
	}))
	require.NoError(t, q.SetCriteria(qid("smoker"), valueobjects.BranchYes, []criteria.Criterion{
		criteria.Marker(criteria.ColdChainServiceableTrue),
	}))
	require.NoError(t, q.SetCriteria(qid("brand"), valueobjects.BranchNext, []criteria.Criterion{
		{Kind: criteria.ListValueSet, Config: criteria.NewOptionsConfig([]string{"Beta"}, nil)},
	}))
	return q
}

// topology renders connections by question position so graphs with
// different ids can be compared.
func topology(q *aggregates.Questionnaire) []string {
	index := make(map[valueobjects.QuestionID]int)
	for i, id := range q.IDs() {
		index[id] = i
	}
	var out []string
	for i, question := range q.Questions() {
		conn := question.Connection()
		for _, b := range slotOrder {
			target := conn.Target(b)
			if target.IsZero() {
				continue
			}
			kinds := []criteria.Kind{}
			for _, c := range conn.Criteria[b] {
				kinds = append(kinds, c.Kind)
			}
			out = append(out, fmt.Sprintf("%d:%s->%d%v", i, b, index[target], kinds))
		}
	}
	return out
}

func TestExporter_RecordLayout(t *testing.T) {
	q := buildSample(t)
	ex := NewExporter(config.DefaultDomainConfig(), &sequenceIDs{prefix: "id"})

	recs, err := ex.Export(q)
	require.NoError(t, err)

	models := make([]records.Model, 0, len(recs))
	for _, r := range recs {
		models = append(models, r.Model())
	}
	expected := []records.Model{records.ModelGraph}
	for i := 0; i < 4; i++ {
		expected = append(expected, records.ModelQuestion)
	}
	for i := 0; i < 4; i++ {
		expected = append(expected, records.ModelNode)
	}
	expected = append(expected, records.ModelQuestionTag, records.ModelQuestionTag, records.ModelQuestionLabel)
	for i := 0; i < 4; i++ {
		expected = append(expected, records.ModelEdge)
	}
	// age: age_gte; smoker yes: marker + cold chain; smoker no: marker; brand: list_value_set
	for i := 0; i < 5; i++ {
		expected = append(expected, records.ModelCriterion)
	}
	assert.Equal(t, expected, models)

	graph := recs[0].(records.GraphRecord)
	assert.Equal(t, "Survey", graph.Fields.Name)
	assert.Equal(t, 5, graph.Fields.Category)
	assert.Equal(t, recs[5].Key(), graph.Fields.Start)
	assert.Equal(t, recs[8].Key(), graph.Fields.End)

	firstEdge := recs[12].(records.EdgeRecord)
	assert.Equal(t, records.IntKey(2100), firstEdge.PK)

	var choices []string
	for _, r := range recs[16:] {
		c := r.(records.CriterionRecord)
		choices = append(choices, c.Fields.Choice)
	}
	assert.Equal(t, []string{
		"Age greater than or equal",
		"Boolean yes",
		"Cold Chain Serviceable True",
		"Boolean no",
		"List value set",
	}, choices)
	assert.Equal(t, records.IntKey(1800), recs[16].Key())
	assert.Equal(t, records.IntKey(2100), recs[16].(records.CriterionRecord).Fields.Edge)
	assert.JSONEq(t, `{"trigger_value": 18}`, string(recs[16].(records.CriterionRecord).Fields.Config))

	question := recs[1].(records.QuestionRecord)
	assert.Equal(t, "number", question.Fields.Type)
	assert.Equal(t, "Generated by builder", question.Fields.InternalNote)
	assert.Nil(t, question.Fields.Subtitle)
	require.NotNil(t, question.Fields.TypeParams)
	assert.Equal(t, []string{}, question.Fields.TypeParams.Options)
	assert.Equal(t, []string{}, question.Fields.TypeParams.Exclusive)
}

func TestExporter_DefaultLinearCriterion(t *testing.T) {
	q, err := aggregates.NewQuestionnaire("plain", nil)
	require.NoError(t, err)
	_, err = q.AddQuestion(qid("a"), entities.QuestionContent{Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	_, err = q.AddQuestion(qid("b"), entities.QuestionContent{Title: "b", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNext))

	recs, err := NewExporter(nil, &sequenceIDs{prefix: "x"}).Export(q)
	require.NoError(t, err)

	last := recs[len(recs)-1].(records.CriterionRecord)
	assert.Equal(t, "Boolean yes", last.Fields.Choice)
	assert.JSONEq(t, `{}`, string(last.Fields.Config))
	assert.Equal(t, "", recs[1].(records.QuestionRecord).Fields.Title)
}

func TestRoundTrip_EmptyTitleSurvives(t *testing.T) {
	q, err := aggregates.NewQuestionnaire("blank", nil)
	require.NoError(t, err)
	_, err = q.AddQuestion(qid("a"), entities.QuestionContent{Title: "", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	_, err = q.AddQuestion(qid("b"), entities.QuestionContent{Title: "b", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNext))

	data, err := NewExporter(nil, &sequenceIDs{prefix: "x"}).ExportJSON(q)
	require.NoError(t, err)
	result, err := NewImporter(nil).Import("blank", data)
	require.NoError(t, err)

	questions := result.Questionnaire.Questions()
	require.Len(t, questions, 2)
	assert.Equal(t, "", questions[0].Title())
	assert.Equal(t, "b", questions[1].Title())
}

func TestExporter_EmptyQuestionnaire(t *testing.T) {
	q, err := aggregates.NewQuestionnaire("empty", nil)
	require.NoError(t, err)

	_, err = NewExporter(nil, &sequenceIDs{}).Export(q)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyQuestionnaire))
}

func TestRoundTrip(t *testing.T) {
	original := buildSample(t)
	data, err := NewExporter(nil, &sequenceIDs{prefix: "first"}).ExportJSON(original)
	require.NoError(t, err)

	result, err := NewImporter(nil).Import("copy", data)
	require.NoError(t, err)
	assert.Empty(t, result.Diagnostics)

	imported := result.Questionnaire
	require.Equal(t, original.Len(), imported.Len())
	assert.Equal(t, topology(original), topology(imported))
	assert.Equal(t, []string{
		"0:next->1[age_gte]",
		"1:yes->2[Cold Chain Serviceable True]",
		"1:no->3[]",
		"2:next->3[list_value_set]",
	}, topology(imported))

	before := original.Questions()
	after := imported.Questions()
	for i := range before {
		assert.Equal(t, before[i].Title(), after[i].Title())
		assert.Equal(t, before[i].Subtitle(), after[i].Subtitle())
		assert.Equal(t, before[i].Type(), after[i].Type())
		assert.Equal(t, before[i].Tags(), after[i].Tags())
		assert.Equal(t, before[i].Labels(), after[i].Labels())
		assert.Equal(t, before[i].Options(), after[i].Options())
		for _, b := range before[i].Type().Branches() {
			want := before[i].Criteria(b)
			got := after[i].Criteria(b)
			require.Len(t, got, len(want))
			for j := range want {
				assert.True(t, want[j].Equal(got[j]), "criterion %d of %s/%s", j, before[i].ID(), b)
			}
		}
	}

	assert.Equal(t, 4, result.Stats.LinkedEdges)
	assert.Equal(t, 0, result.Stats.DroppedEdges)
	assert.NoError(t, imported.Validate())
}

func TestExport_IdempotentShapes(t *testing.T) {
	q := buildSample(t)

	first, err := NewExporter(nil, &sequenceIDs{prefix: "a"}).Export(q)
	require.NoError(t, err)
	second, err := NewExporter(nil, &sequenceIDs{prefix: "b"}).Export(q)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].Model(), second[i].Model())
		switch a := first[i].(type) {
		case records.QuestionRecord:
			assert.Equal(t, a.Fields, second[i].(records.QuestionRecord).Fields)
		case records.CriterionRecord:
			assert.Equal(t, a.Fields, second[i].(records.CriterionRecord).Fields)
		case records.EdgeRecord:
			assert.Equal(t, a.PK, second[i].(records.EdgeRecord).PK)
		default:
			assert.NotEqual(t, first[i].Key(), second[i].Key(), "record %d", i)
		}
	}
}

func TestImporter_MissingEdgeIsStructural(t *testing.T) {
	input := `[
	  {"model": "questionnaire.question", "pk": "q1", "fields": {"title": "A", "type": "short_text"}},
	  {"model": "questionnaire.node", "pk": "n1", "fields": {"question": "q1"}}
	]`

	result, err := NewImporter(nil).Import("x", []byte(input))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsStructural(err))
}

func TestImporter_DualBooleanCollapsesToLinear(t *testing.T) {
	input := `[
	  {"model": "questionnaire.question", "pk": "q1", "fields": {"title": "Name", "type": "short_text"}},
	  {"model": "questionnaire.question", "pk": "q2", "fields": {"title": "Done", "type": "dead_end"}},
	  {"model": "questionnaire.node", "pk": "n1", "fields": {"question": "q1"}},
	  {"model": "questionnaire.node", "pk": "n2", "fields": {"question": "q2"}},
	  {"model": "questionnaire.edge", "pk": 2100, "fields": {"start": "n1", "end": "n2"}},
	  {"model": "questionnaire.edgetriggercriteria", "pk": 1800, "fields": {"choice": "Boolean yes", "config": {}, "edge": 2100}},
	  {"model": "questionnaire.edgetriggercriteria", "pk": 1801, "fields": {"choice": "Boolean no", "config": {}, "edge": 2100}}
	]`

	result, err := NewImporter(nil).Import("x", []byte(input))
	require.NoError(t, err)

	conn, err := result.Questionnaire.Connection(qid("q1"))
	require.NoError(t, err)
	assert.Equal(t, qid("q2"), conn.Next)
	assert.True(t, conn.Yes.IsZero())
	assert.True(t, conn.No.IsZero())
	assert.Equal(t, map[DiagnosticCode]int{DiagDualBooleanCollapsed: 1}, CountByCode(result.Diagnostics))
}

const lenientFixture = `[
  {"model": "questionnaire.questionnairegraph", "pk": "g", "fields": {"name": "Intake", "start": "n1", "end": "n3", "category": 7, "status": "draft", "internal_note": "", "variant": "B", "variant_weighting": "50"}},
  {"model": "questionnaire.question", "pk": "q1", "fields": {"title": " Name? ", "type": "short_text", "type_params": {"options": [], "exclusive": []}, "required": false, "auto_next": true, "internal_note": "n"}},
  {"model": "questionnaire.question", "pk": "q2", "fields": {"title": "Smoker?", "type": "boolean"}},
  {"model": "questionnaire.question", "pk": "q3", "fields": {"title": "Done", "type": "text"}},
  {"model": "questionnaire.questiontag", "pk": "t1", "fields": {"question": "q2", "choice": "observation_smoking"}},
  {"model": "questionnaire.questiontag", "pk": "t2", "fields": {"question": "q9", "choice": "email"}},
  {"model": "questionnaire.questiontag", "pk": "t3", "fields": {"question": "q1", "choice": "shoe_size"}},
  {"model": "questionnaire.questionlabel", "pk": "l1", "fields": {"question": "q1", "choice": "intro"}},
  {"model": "questionnaire.node", "pk": "n1", "fields": {"question": "q1"}},
  {"model": "questionnaire.node", "pk": "n2", "fields": {"question": "q2"}},
  {"model": "questionnaire.node", "pk": "n3", "fields": {"question": "q3"}},
  {"model": "questionnaire.node", "pk": "n4", "fields": {"question": "q404"}},
  {"model": "questionnaire.edge", "pk": 1, "fields": {"start": "n1", "end": "n2"}},
  {"model": "questionnaire.edge", "pk": 2, "fields": {"start": "n1", "end": "n3"}},
  {"model": "questionnaire.edge", "pk": 3, "fields": {"start": "n2", "end": "n3"}},
  {"model": "questionnaire.edge", "pk": 4, "fields": {"start": "n2", "end": "n1"}},
  {"model": "questionnaire.edge", "pk": 5, "fields": {"start": "n2", "end": "n3"}},
  {"model": "questionnaire.edge", "pk": 6, "fields": {"start": "n3", "end": "n4"}},
  {"model": "questionnaire.edge", "pk": 7, "fields": {"start": "n3", "end": "n1"}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 10, "fields": {"choice": "Boolean yes", "config": {}, "edge": 1}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 11, "fields": {"choice": "Boolean yes", "config": {}, "edge": 2}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 12, "fields": {"choice": "Boolean yes", "config": {}, "edge": 3}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 13, "fields": {"choice": "Boolean no", "config": {}, "edge": 4}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 14, "fields": {"choice": "Boolean no", "config": {}, "edge": 7}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 15, "fields": {"choice": "Shoe size over", "config": {}, "edge": 1}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 16, "fields": {"choice": "Boolean yes", "config": {}, "edge": 99}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 17, "fields": {"choice": "Age greater than or equal", "config": {}, "edge": "3"}},
  {"model": "questionnaire.flowchart", "pk": 18, "fields": {}}
]`

func TestImporter_LenientDecisions(t *testing.T) {
	result, err := NewImporter(nil).Import("lenient", []byte(lenientFixture))
	require.NoError(t, err)
	q := result.Questionnaire

	assert.Equal(t, map[DiagnosticCode]int{
		DiagUnknownModel:              1,
		DiagUnknownQuestionType:       1,
		DiagDanglingTagReference:      1,
		DiagUnknownTag:                1,
		DiagDanglingNodeReference:     1,
		DiagDanglingCriterionEdge:     1,
		DiagUnknownCriterionLabel:     1,
		DiagInvalidCriterionConfig:    1,
		DiagDuplicateLinearEdge:       1,
		DiagLinearEdgeOnBooleanSource: 1,
		DiagDanglingEdgeEndpoint:      1,
		DiagBranchOnLinearSource:      1,
	}, CountByCode(result.Diagnostics))

	assert.Equal(t, ImportStats{
		Questions:    3,
		Nodes:        3,
		Edges:        7,
		LinkedEdges:  4,
		DroppedEdges: 3,
		Criteria:     6,
		Tags:         1,
		Labels:       1,
	}, result.Stats)

	t.Run("first linear edge wins", func(t *testing.T) {
		conn, err := q.Connection(qid("q1"))
		require.NoError(t, err)
		assert.Equal(t, qid("q2"), conn.Next)
	})

	t.Run("boolean branches", func(t *testing.T) {
		conn, err := q.Connection(qid("q2"))
		require.NoError(t, err)
		assert.Equal(t, qid("q3"), conn.Yes)
		assert.Equal(t, qid("q1"), conn.No)
		assert.True(t, conn.Next.IsZero())

		yes, err := q.Criteria(qid("q2"), valueobjects.BranchYes)
		require.NoError(t, err)
		require.Len(t, yes, 1)
		assert.Equal(t, criteria.AgeGTE, yes[0].Kind)
		assert.Equal(t, criteria.ThresholdConfig{}, yes[0].Config)
	})

	t.Run("no marker on linear source becomes next", func(t *testing.T) {
		conn, err := q.Connection(qid("q3"))
		require.NoError(t, err)
		assert.Equal(t, qid("q1"), conn.Next)
	})

	t.Run("content defaults", func(t *testing.T) {
		q1, err := q.Question(qid("q1"))
		require.NoError(t, err)
		assert.Equal(t, "Name?", q1.Title())
		assert.False(t, q1.Required())
		assert.True(t, q1.AutoNext())
		assert.Empty(t, q1.Tags())
		assert.Equal(t, []string{"intro"}, q1.Labels())

		q2, err := q.Question(qid("q2"))
		require.NoError(t, err)
		assert.True(t, q2.Required())
		assert.Equal(t, []valueobjects.Tag{valueobjects.TagObservationSmoking}, q2.Tags())

		q3, err := q.Question(qid("q3"))
		require.NoError(t, err)
		assert.Equal(t, valueobjects.DefaultQuestionType, q3.Type())
	})

	t.Run("graph metadata", func(t *testing.T) {
		meta := q.Metadata()
		assert.Equal(t, "Intake", meta.Name)
		assert.Equal(t, 7, meta.Category)
		assert.Equal(t, "draft", meta.Status)
		assert.Equal(t, "Survey Test", meta.InternalNote)
		assert.Equal(t, "B", meta.Variant)
		assert.Equal(t, "50", meta.VariantWeighting)
	})

	assert.NoError(t, q.Validate())
	assert.Len(t, q.GetUncommittedEvents(), 1)
}

func TestImporter_DuplicateBranchLastWins(t *testing.T) {
	input := `[
	  {"model": "questionnaire.question", "pk": "b", "fields": {"title": "B", "type": "boolean"}},
	  {"model": "questionnaire.question", "pk": "x", "fields": {"title": "X", "type": "short_text"}},
	  {"model": "questionnaire.question", "pk": "y", "fields": {"title": "Y", "type": "short_text"}},
	  {"model": "questionnaire.node", "pk": "nb", "fields": {"question": "b"}},
	  {"model": "questionnaire.node", "pk": "nx", "fields": {"question": "x"}},
	  {"model": "questionnaire.node", "pk": "ny", "fields": {"question": "y"}},
	  {"model": "questionnaire.edge", "pk": 1, "fields": {"start": "nb", "end": "nx"}},
	  {"model": "questionnaire.edge", "pk": 2, "fields": {"start": "nb", "end": "ny"}},
	  {"model": "questionnaire.edgetriggercriteria", "pk": 1, "fields": {"choice": "Boolean yes", "config": null, "edge": 1}},
	  {"model": "questionnaire.edgetriggercriteria", "pk": 2, "fields": {"choice": "bool_yes", "edge": 2}}
	]`

	result, err := NewImporter(nil).Import("dup", []byte(input))
	require.NoError(t, err)

	conn, err := result.Questionnaire.Connection(qid("b"))
	require.NoError(t, err)
	assert.Equal(t, qid("y"), conn.Yes)
	assert.Equal(t, map[DiagnosticCode]int{DiagDuplicateBranchEdge: 1}, CountByCode(result.Diagnostics))
}

func TestImporter_FillSlotRejectsForeignSlot(t *testing.T) {
	source, err := entities.NewQuestion(qid("s"), entities.QuestionContent{Title: "S", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	edge := records.EdgeRecord{PK: records.IntKey(9)}
	im := NewImporter(nil)

	tests := []struct {
		name   string
		branch valueobjects.Branch
		linked bool
	}{
		{name: "linear slot", branch: valueobjects.BranchNext, linked: true},
		{name: "branch slot on linear question", branch: valueobjects.BranchYes, linked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var diags diagnostics
			linked := im.fillSlot(source, tt.branch, qid("t"), nil, edge, &diags)
			assert.Equal(t, tt.linked, linked)
			if tt.linked {
				assert.Empty(t, diags)
				assert.Equal(t, qid("t"), source.Target(tt.branch))
				return
			}
			assert.Equal(t, map[DiagnosticCode]int{DiagMalformedRecord: 1}, CountByCode(diags))
			assert.True(t, source.Target(tt.branch).IsZero())
		})
	}
}
