package records

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "questionnaire-builder/pkg/errors"
)

const minimalList = `[
  {"model": "questionnaire.question", "pk": "q-1", "fields": {"title": "Age?", "type": "number"}},
  {"model": "questionnaire.node", "pk": "n-1", "fields": {"question": "q-1", "sub_graph": null, "parent_graph": "g"}},
  {"model": "questionnaire.edge", "pk": 2100, "fields": {"start": "n-1", "end": "n-1"}},
  {"model": "questionnaire.edgetriggercriteria", "pk": 1800, "fields": {"choice": "Boolean yes", "config": {}, "edge": "2100"}}
]`

func TestDecode_StructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		missing []string
	}{
		{name: "empty", input: "  "},
		{name: "invalid json", input: `[{"model": `},
		{name: "object instead of list", input: `{"model": "questionnaire.question"}`},
		{
			name:    "missing edge",
			input:   `[{"model": "questionnaire.question", "pk": 1, "fields": {}}, {"model": "questionnaire.node", "pk": 2, "fields": {}}]`,
			missing: []string{"questionnaire.edge"},
		},
		{
			name:    "empty list",
			input:   `[]`,
			missing: []string{"questionnaire.question", "questionnaire.node", "questionnaire.edge"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.input))
			require.Error(t, err)
			assert.Nil(t, doc)
			assert.True(t, pkgerrors.IsStructural(err))
			if tt.missing != nil {
				appErr := pkgerrors.GetAppError(err)
				require.NotNil(t, appErr)
				assert.Equal(t, tt.missing, appErr.Details["missing_models"])
			}
		})
	}
}

func TestDecode_ClosedUnion(t *testing.T) {
	doc, err := Decode([]byte(minimalList))
	require.NoError(t, err)
	require.Len(t, doc.Records, 4)
	assert.Empty(t, doc.Skipped)

	q, ok := doc.Records[0].(QuestionRecord)
	require.True(t, ok)
	assert.Equal(t, "Age?", q.Fields.Title)
	assert.Nil(t, q.Fields.Required)

	n, ok := doc.Records[1].(NodeRecord)
	require.True(t, ok)
	assert.True(t, n.Fields.SubGraph.IsZero())

	e, ok := doc.Records[2].(EdgeRecord)
	require.True(t, ok)
	assert.True(t, e.PK.IsNumeric())

	c, ok := doc.Records[3].(CriterionRecord)
	require.True(t, ok)
	assert.Equal(t, e.PK.String(), c.Fields.Edge.String())

	_, hasGraph := doc.Graph()
	assert.False(t, hasGraph)
	assert.Equal(t, 1, doc.Count(ModelEdge))
}

func TestDecode_SkipsBadEntries(t *testing.T) {
	input := `[
	  {"model": "questionnaire.question", "pk": "q-1", "fields": {"title": "A", "type": "boolean"}},
	  {"model": "questionnaire.node", "pk": "n-1", "fields": {"question": "q-1"}},
	  {"model": "questionnaire.edge", "pk": 1, "fields": {"start": "n-1", "end": "n-1"}},
	  {"model": "questionnaire.survey", "pk": 9, "fields": {}},
	  {"model": "questionnaire.edge", "pk": 2.5, "fields": {"start": "n-1", "end": "n-1"}},
	  {"model": "questionnaire.edge", "pk": 3, "fields": {"start": ["n-1"]}},
	  {"model": "questionnaire.node", "pk": "n-2"},
	  42
	]`

	doc, err := Decode([]byte(input))
	require.NoError(t, err)
	assert.Len(t, doc.Records, 3)

	reasons := map[int]SkipReason{}
	for _, s := range doc.Skipped {
		reasons[s.Index] = s.Reason
	}
	assert.Equal(t, map[int]SkipReason{
		3: SkipUnknownModel,
		4: SkipMalformed,
		5: SkipMalformed,
		6: SkipMalformed,
		7: SkipMalformed,
	}, reasons)
}

func TestPrimaryKey_JSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want PrimaryKey
	}{
		{name: "string", in: `"abc"`, want: StringKey("abc")},
		{name: "integer", in: `2100`, want: IntKey(2100)},
		{name: "null", in: `null`, want: PrimaryKey{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var k PrimaryKey
			require.NoError(t, json.Unmarshal([]byte(tt.in), &k))
			assert.Equal(t, tt.want, k)

			out, err := json.Marshal(k)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}

	var k PrimaryKey
	assert.Error(t, json.Unmarshal([]byte(`true`), &k))
	assert.Equal(t, IntKey(7).String(), StringKey("7").String())
}

func TestEncode(t *testing.T) {
	recs := []Record{
		NodeRecord{PK: StringKey("n-1"), Fields: NodeFields{Question: StringKey("q-1"), ParentGraph: StringKey("g-1")}},
		EdgeRecord{PK: IntKey(2100), Fields: EdgeFields{Start: StringKey("n-1"), End: StringKey("n-2")}},
		CriterionRecord{PK: IntKey(1800), Fields: CriterionFields{Choice: "Boolean yes", Config: json.RawMessage(`{}`), Edge: IntKey(2100)}},
	}

	data, err := Encode(recs)
	require.NoError(t, err)

	assert.JSONEq(t, `[
	  {"model": "questionnaire.node", "pk": "n-1", "fields": {"question": "q-1", "sub_graph": null, "parent_graph": "g-1"}},
	  {"model": "questionnaire.edge", "pk": 2100, "fields": {"start": "n-1", "end": "n-2"}},
	  {"model": "questionnaire.edgetriggercriteria", "pk": 1800, "fields": {"choice": "Boolean yes", "config": {}, "edge": 2100}}
	]`, string(data))
}
