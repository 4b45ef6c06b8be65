package aggregates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/events"
	pkgerrors "questionnaire-builder/pkg/errors"
)

func qid(s string) valueobjects.QuestionID { return valueobjects.MustQuestionID(s) }

func newTestQuestionnaire(t *testing.T) *Questionnaire {
	t.Helper()
	q, err := NewQuestionnaire("qn-1", config.DefaultDomainConfig())
	require.NoError(t, err)
	return q
}

func add(t *testing.T, q *Questionnaire, id string, qType valueobjects.QuestionType) {
	t.Helper()
	_, err := q.AddQuestion(qid(id), entities.QuestionContent{Title: "Question " + id, Type: qType})
	require.NoError(t, err)
}

func TestNewQuestionnaire(t *testing.T) {
	q := newTestQuestionnaire(t)

	assert.Equal(t, "qn-1", q.ID())
	assert.Equal(t, 0, q.Len())
	assert.Equal(t, "Survey", q.Metadata().Name)
	assert.Equal(t, 5, q.Metadata().Category)

	_, err := NewQuestionnaire("", nil)
	assert.Error(t, err)
}

func TestQuestionnaire_AddQuestion(t *testing.T) {
	q := newTestQuestionnaire(t)

	question, err := q.AddQuestion(qid("q1"), entities.QuestionContent{Title: "  Your age?  ", Type: valueobjects.TypeNumber})
	require.NoError(t, err)
	assert.Equal(t, "Your age?", question.Title())
	assert.True(t, question.Connection().IsEmpty())

	t.Run("duplicate id", func(t *testing.T) {
		_, err := q.AddQuestion(qid("q1"), entities.QuestionContent{Title: "again"})
		assert.True(t, pkgerrors.IsConflict(err))
	})

	t.Run("empty type defaults to long text", func(t *testing.T) {
		question, err := q.AddQuestion(qid("q2"), entities.QuestionContent{Title: "Notes"})
		require.NoError(t, err)
		assert.Equal(t, valueobjects.TypeLongText, question.Type())
	})

	t.Run("question limit", func(t *testing.T) {
		cfg := config.DefaultDomainConfig()
		cfg.MaxQuestions = 1
		small, err := NewQuestionnaire("small", cfg)
		require.NoError(t, err)
		add(t, small, "a", valueobjects.TypeShortText)
		_, err = small.AddQuestion(qid("b"), entities.QuestionContent{Title: "b"})
		assert.True(t, pkgerrors.HasCode(err, "QUESTION_LIMIT_EXCEEDED"))
	})

	pending := q.GetUncommittedEvents()
	require.Len(t, pending, 2)
	assert.Equal(t, "question.added", pending[0].GetEventType())
}

func TestQuestionnaire_QuestionReturnsCopies(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "q1", valueobjects.TypeShortText)

	copy1, err := q.Question(qid("q1"))
	require.NoError(t, err)
	copy1.SetTitle("changed outside")

	fresh, err := q.Question(qid("q1"))
	require.NoError(t, err)
	assert.Equal(t, "Question q1", fresh.Title())

	_, err = q.Question(qid("missing"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestQuestionnaire_BooleanConnectScenario(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "b", valueobjects.TypeBoolean)
	add(t, q, "t1", valueobjects.TypeShortText)
	add(t, q, "t2", valueobjects.TypeShortText)

	err := q.Connect(qid("b"), qid("t1"), valueobjects.LabelNext)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBooleanNextEdge))

	require.NoError(t, q.Connect(qid("b"), qid("t1"), valueobjects.LabelYes))

	err = q.Connect(qid("b"), qid("t2"), valueobjects.LabelYes)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateBranch))

	conn, err := q.Connection(qid("b"))
	require.NoError(t, err)
	assert.Equal(t, qid("t1"), conn.Yes)
	assert.True(t, conn.No.IsZero())
	assert.True(t, conn.Next.IsZero())
}

func TestQuestionnaire_ConnectRejectionLeavesGraphUnchanged(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeShortText)
	add(t, q, "b", valueobjects.TypeShortText)
	add(t, q, "c", valueobjects.TypeShortText)

	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNext))
	version := q.Version()

	err := q.Connect(qid("a"), qid("c"), valueobjects.LabelNext)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMultipleSuccessors))

	err = q.Connect(qid("a"), qid("c"), valueobjects.LabelYes)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBranchOnLinearSource))

	assert.Equal(t, version, q.Version())
	assert.Len(t, q.Edges(), 1)

	err = q.Connect(qid("a"), qid("missing"), valueobjects.LabelNext)
	assert.True(t, pkgerrors.IsNotFound(err))
}

func TestQuestionnaire_DeleteYesTargetNullsSlot(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "b", valueobjects.TypeBoolean)
	add(t, q, "y", valueobjects.TypeShortText)
	add(t, q, "n", valueobjects.TypeShortText)
	require.NoError(t, q.Connect(qid("b"), qid("y"), valueobjects.LabelYes))
	require.NoError(t, q.Connect(qid("b"), qid("n"), valueobjects.LabelNo))
	q.MarkEventsAsCommitted()

	require.NoError(t, q.DeleteQuestion(qid("y")))

	assert.False(t, q.Has(qid("y")))
	assert.True(t, q.Has(qid("b")))
	conn, err := q.Connection(qid("b"))
	require.NoError(t, err)
	assert.True(t, conn.Yes.IsZero())
	assert.Equal(t, qid("n"), conn.No)
	assert.Equal(t, []valueobjects.QuestionID{qid("b"), qid("n")}, q.IDs())
	assert.NoError(t, q.Validate())

	pending := q.GetUncommittedEvents()
	require.Len(t, pending, 1)
	deleted, ok := pending[0].(events.QuestionDeleted)
	require.True(t, ok)
	assert.Equal(t, []string{"b"}, deleted.Detached)
}

func TestQuestionnaire_SetQuestionType(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeBoolean)
	add(t, q, "b", valueobjects.TypeShortText)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelYes))
	require.NoError(t, q.SetCriteria(qid("a"), valueobjects.BranchYes, []criteria.Criterion{
		criteria.Marker(criteria.BoolYes),
		{Kind: criteria.ListValueSet},
	}))

	t.Run("to linear drops targets and branch criteria", func(t *testing.T) {
		require.NoError(t, q.SetQuestionType(qid("a"), valueobjects.TypeShortText))
		conn, err := q.Connection(qid("a"))
		require.NoError(t, err)
		assert.True(t, conn.IsEmpty())
		_, err = q.Criteria(qid("a"), valueobjects.BranchYes)
		assert.Error(t, err)
		assert.NoError(t, q.Validate())
	})

	t.Run("branch criteria dropped by the linear shape stay dropped", func(t *testing.T) {
		require.NoError(t, q.SetQuestionType(qid("a"), valueobjects.TypeBoolean))
		list, err := q.Criteria(qid("a"), valueobjects.BranchYes)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("same type is a no-op", func(t *testing.T) {
		version := q.Version()
		require.NoError(t, q.SetQuestionType(qid("a"), valueobjects.TypeBoolean))
		assert.Equal(t, version, q.Version())
	})

	t.Run("invalid type", func(t *testing.T) {
		err := q.SetQuestionType(qid("a"), valueobjects.QuestionType("essay"))
		assert.True(t, pkgerrors.IsValidation(err))
	})
}

func TestQuestionnaire_TypeChangeBetweenLinearTypesKeepsCriteria(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeShortText)
	require.NoError(t, q.SetCriteria(qid("a"), valueobjects.BranchNext, []criteria.Criterion{
		{Kind: criteria.ListValueSet},
	}))

	require.NoError(t, q.SetQuestionType(qid("a"), valueobjects.TypeNumber))

	list, err := q.Criteria(qid("a"), valueobjects.BranchNext)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, criteria.ListValueSet, list[0].Kind)
}

func TestQuestionnaire_UpdateQuestion(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeShortText)
	q.MarkEventsAsCommitted()

	title := "What is your name?"
	boolean := valueobjects.TypeBoolean
	changed, err := q.UpdateQuestion(qid("a"), entities.QuestionPatch{Title: &title, Type: &boolean})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"title", "type"}, changed)

	question, err := q.Question(qid("a"))
	require.NoError(t, err)
	assert.Equal(t, title, question.Title())
	assert.True(t, question.Type().IsBoolean())

	types := []string{}
	for _, e := range q.GetUncommittedEvents() {
		types = append(types, e.GetEventType())
	}
	assert.Equal(t, []string{"question.type_changed", "question.updated"}, types)

	t.Run("no change raises nothing", func(t *testing.T) {
		q.MarkEventsAsCommitted()
		changed, err := q.UpdateQuestion(qid("a"), entities.QuestionPatch{Title: &title})
		require.NoError(t, err)
		assert.Empty(t, changed)
		assert.Empty(t, q.GetUncommittedEvents())
	})
}

func TestQuestionnaire_Move(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeShortText)
	add(t, q, "b", valueobjects.TypeShortText)
	add(t, q, "c", valueobjects.TypeShortText)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNext))

	require.NoError(t, q.MoveUp(qid("c")))
	assert.Equal(t, []valueobjects.QuestionID{qid("a"), qid("c"), qid("b")}, q.IDs())

	require.NoError(t, q.MoveUp(qid("a")))
	assert.Equal(t, []valueobjects.QuestionID{qid("a"), qid("c"), qid("b")}, q.IDs())

	require.NoError(t, q.MoveDown(qid("b")))
	require.NoError(t, q.MoveDown(qid("a")))
	assert.Equal(t, []valueobjects.QuestionID{qid("c"), qid("a"), qid("b")}, q.IDs())

	conn, err := q.Connection(qid("a"))
	require.NoError(t, err)
	assert.Equal(t, qid("b"), conn.Next)

	assert.True(t, pkgerrors.IsNotFound(q.MoveDown(qid("zzz"))))
}

func TestQuestionnaire_CopyAndSwap(t *testing.T) {
	q := newTestQuestionnaire(t)
	_, err := q.AddQuestion(qid("a"), entities.QuestionContent{
		Title:   "Pick one",
		Type:    valueobjects.TypeSingleSelect,
		Options: []string{"x", "y"},
		Tags:    []valueobjects.Tag{valueobjects.TagEthnicity},
	})
	require.NoError(t, err)
	add(t, q, "b", valueobjects.TypeShortText)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNext))

	cp, err := q.CopyQuestion(qid("a"), qid("a2"))
	require.NoError(t, err)
	assert.Equal(t, "Pick one (Copy)", cp.Title())
	assert.Equal(t, []string{"x", "y"}, cp.Options())
	assert.Equal(t, []valueobjects.Tag{valueobjects.TagEthnicity}, cp.Tags())
	assert.True(t, cp.Connection().IsEmpty())
	assert.Equal(t, 2, q.Index(qid("a2")))

	require.NoError(t, q.SwapTitles(qid("a"), qid("b")))
	a, _ := q.Question(qid("a"))
	b, _ := q.Question(qid("b"))
	assert.Equal(t, "Question b", a.Title())
	assert.Equal(t, "Pick one", b.Title())
	assert.Equal(t, valueobjects.TypeSingleSelect, a.Type())
}

func TestQuestionnaire_Disconnect(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeBoolean)
	add(t, q, "b", valueobjects.TypeShortText)
	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNo))

	require.NoError(t, q.Disconnect(qid("a"), valueobjects.LabelNo))
	assert.Empty(t, q.Edges())

	err := q.Disconnect(qid("a"), valueobjects.LabelNo)
	assert.True(t, pkgerrors.HasCode(err, "EDGE_NOT_FOUND"))

	require.NoError(t, q.Connect(qid("a"), qid("b"), valueobjects.LabelNo))
}

func TestQuestionnaire_SetCriteria(t *testing.T) {
	q := newTestQuestionnaire(t)
	_, err := q.AddQuestion(qid("dob"), entities.QuestionContent{
		Title: "Date of birth",
		Type:  valueobjects.TypeDate,
		Tags:  []valueobjects.Tag{valueobjects.TagDemographicDOB},
	})
	require.NoError(t, err)

	tests := []struct {
		name    string
		branch  valueobjects.Branch
		list    []criteria.Criterion
		code    string
		wantErr bool
	}{
		{
			name:   "tag unlocks age threshold",
			branch: valueobjects.BranchNext,
			list:   []criteria.Criterion{{Kind: criteria.AgeGTE, Config: criteria.ThresholdConfig{TriggerValue: 18}}},
		},
		{
			name:   "nil config takes the default",
			branch: valueobjects.BranchNext,
			list:   []criteria.Criterion{{Kind: criteria.TimePassedLT}},
		},
		{
			name:    "kind not legal for the question",
			branch:  valueobjects.BranchNext,
			list:    []criteria.Criterion{criteria.Marker(criteria.GenderFemale)},
			code:    pkgerrors.CodeCriterionNotAllowed,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			branch:  valueobjects.BranchNext,
			list:    []criteria.Criterion{criteria.Marker(criteria.Kind("shoe_size"))},
			code:    pkgerrors.CodeUnknownCriterionKind,
			wantErr: true,
		},
		{
			name:    "slot outside the shape",
			branch:  valueobjects.BranchYes,
			list:    nil,
			code:    "SLOT_NOT_IN_SHAPE",
			wantErr: true,
		},
		{
			name:    "config shape mismatch",
			branch:  valueobjects.BranchNext,
			list:    []criteria.Criterion{{Kind: criteria.AgeLT, Config: criteria.EmptyConfig{}}},
			code:    "CRITERION_CONFIG_MISMATCH",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := q.SetCriteria(qid("dob"), tt.branch, tt.list)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, pkgerrors.HasCode(err, tt.code), "got %v", err)
				return
			}
			require.NoError(t, err)
			stored, err := q.Criteria(qid("dob"), tt.branch)
			require.NoError(t, err)
			require.Len(t, stored, len(tt.list))
			assert.NotNil(t, stored[0].Config)
		})
	}

	t.Run("markers are folded out", func(t *testing.T) {
		require.NoError(t, q.SetCriteria(qid("dob"), valueobjects.BranchNext, []criteria.Criterion{
			criteria.Marker(criteria.BoolYes),
		}))
		stored, err := q.Criteria(qid("dob"), valueobjects.BranchNext)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("per slot limit", func(t *testing.T) {
		cfg := config.DefaultDomainConfig()
		cfg.MaxCriteriaPerSlot = 1
		small, err := NewQuestionnaire("small", cfg)
		require.NoError(t, err)
		add(t, small, "a", valueobjects.TypeShortText)
		err = small.SetCriteria(qid("a"), valueobjects.BranchNext, []criteria.Criterion{
			criteria.Marker(criteria.BoolYes), criteria.Marker(criteria.BoolNo),
		})
		assert.True(t, pkgerrors.HasCode(err, "TOO_MANY_CRITERIA"))
	})
}

func TestQuestionnaire_LegalCriteria(t *testing.T) {
	q := newTestQuestionnaire(t)
	add(t, q, "a", valueobjects.TypeShortText)

	options, err := q.LegalCriteria(qid("a"))
	require.NoError(t, err)
	kinds := make([]criteria.Kind, 0, len(options))
	for _, o := range options {
		kinds = append(kinds, o.Value)
	}
	assert.Equal(t, []criteria.Kind{criteria.BoolYes, criteria.BoolNo, criteria.ListValueSet, criteria.ListValueNotSet}, kinds)
}

func TestRestoreQuestionnaire(t *testing.T) {
	a, err := entities.NewQuestion(qid("a"), entities.QuestionContent{Title: "a", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	b, err := entities.NewQuestion(qid("b"), entities.QuestionContent{Title: "b", Type: valueobjects.TypeShortText})
	require.NoError(t, err)
	require.NoError(t, a.SetTarget(valueobjects.BranchNext, qid("b")))
	require.NoError(t, b.SetTarget(valueobjects.BranchNext, qid("ghost")))

	q, err := RestoreQuestionnaire("r", Metadata{Name: "Imported"}, []*entities.Question{a, b}, nil)
	require.NoError(t, err)

	assert.Equal(t, "Imported", q.Metadata().Name)
	assert.Len(t, q.Edges(), 1)
	assert.NoError(t, q.Validate())

	_, err = RestoreQuestionnaire("r", Metadata{}, []*entities.Question{a, a}, nil)
	assert.True(t, pkgerrors.IsConflict(err))
}
