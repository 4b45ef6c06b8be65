package services

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"questionnaire-builder/application/ports"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/events"
	infraconfig "questionnaire-builder/infrastructure/config"
	"questionnaire-builder/infrastructure/identity"
	"questionnaire-builder/infrastructure/layout"
	"questionnaire-builder/infrastructure/persistence/memory"
	pkgerrors "questionnaire-builder/pkg/errors"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, evts []events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evts...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	imports    map[string]int
	rejections map[string]int
	exports    []int
	sessions   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		operations: map[string]int{},
		imports:    map[string]int{},
		rejections: map[string]int{},
	}
}

func (m *recordingMetrics) ObserveOperation(op string, _ time.Duration, _ error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[op]++
}

func (m *recordingMetrics) ObserveImport(outcome string, _ map[string]int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.imports[outcome]++
}

func (m *recordingMetrics) ObserveExport(records int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exports = append(m.exports, records)
}

func (m *recordingMetrics) ObserveConnectionRejected(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections[code]++
}

func (m *recordingMetrics) SetSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = n
}

type fixture struct {
	svc       *QuestionnaireService
	publisher *recordingPublisher
	metrics   *recordingMetrics
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	configs := infraconfig.NewStaticDomainConfig(nil)
	publisher := &recordingPublisher{}
	metrics := newRecordingMetrics()
	svc := NewQuestionnaireService(
		memory.NewSessionStore(0),
		publisher,
		identity.NewSequenceProvider("rec"),
		layout.NewLayeredEngine(configs),
		configs,
		metrics,
		zap.NewNop(),
	)
	return fixture{svc: svc, publisher: publisher, metrics: metrics}
}

// seed builds q1 (boolean) with yes -> q2 and no -> q3.
func seed(t *testing.T, f fixture) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.svc.CreateQuestionnaire(ctx, "s1", nil))

	_, err := f.svc.AddQuestion(ctx, "s1", "q1", entities.QuestionContent{Title: "Smoker?", Type: valueobjects.TypeBoolean})
	require.NoError(t, err)
	_, err = f.svc.AddQuestion(ctx, "s1", "q2", entities.QuestionContent{Title: "How many?", Type: valueobjects.TypeNumber})
	require.NoError(t, err)
	_, err = f.svc.AddQuestion(ctx, "s1", "q3", entities.QuestionContent{Title: "Thanks", Type: valueobjects.TypeDeadEnd})
	require.NoError(t, err)

	require.NoError(t, f.svc.Connect(ctx, "s1", "q1", "q2", valueobjects.LabelYes))
	require.NoError(t, f.svc.Connect(ctx, "s1", "q1", "q3", valueobjects.LabelNo))
}

func TestQuestionnaireService_EditingPublishesEvents(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	assert.Equal(t, []string{
		events.TypeQuestionAdded,
		events.TypeQuestionAdded,
		events.TypeQuestionAdded,
		events.TypeQuestionsConnected,
		events.TypeQuestionsConnected,
	}, f.publisher.types())
	assert.Equal(t, 1, f.metrics.sessions)
}

func TestQuestionnaireService_ConnectRejection(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	err := f.svc.Connect(ctx, "s1", "q1", "q3", valueobjects.LabelYes)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateBranch))
	assert.Equal(t, 1, f.metrics.rejections[pkgerrors.CodeDuplicateBranch])

	err = f.svc.Connect(ctx, "s1", "q1", "q2", valueobjects.LabelNext)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeBooleanNextEdge))

	// Rejections publish nothing.
	assert.Len(t, f.publisher.types(), 5)
}

func TestQuestionnaireService_ExportImportRoundTrip(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	data, err := f.svc.ExportQuestionnaire(ctx, "s1")
	require.NoError(t, err)
	require.True(t, json.Valid(data))
	require.Len(t, f.metrics.exports, 1)

	report, err := f.svc.ImportQuestionnaire(ctx, "s2", data)
	require.NoError(t, err)
	assert.Equal(t, "s2", report.QuestionnaireID)
	assert.Empty(t, report.Diagnostics)
	assert.Equal(t, 3, report.Stats.Questions)
	assert.Equal(t, 1, f.metrics.imports["accepted"])

	require.NoError(t, f.svc.View(ctx, "s2", func(q *aggregates.Questionnaire) error {
		assert.Equal(t, 3, q.Len())
		assert.Len(t, q.Edges(), 2)
		return nil
	}))
}

func TestQuestionnaireService_FailedImportKeepsSession(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	_, err := f.svc.ImportQuestionnaire(ctx, "s1", []byte(`{"not":"a list"}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsStructural(err))
	assert.Equal(t, 1, f.metrics.imports["rejected"])

	require.NoError(t, f.svc.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		assert.Equal(t, 3, q.Len())
		return nil
	}))
}

func TestQuestionnaireService_QuestionOperations(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	changed, err := f.svc.UpdateQuestion(ctx, "s1", "q2", entities.QuestionPatch{Title: strPtr("How many a day?")})
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, changed)

	require.NoError(t, f.svc.MoveQuestion(ctx, "s1", "q3", "up"))
	err = f.svc.MoveQuestion(ctx, "s1", "q3", "sideways")
	assert.True(t, pkgerrors.IsValidation(err))

	copied, err := f.svc.CopyQuestion(ctx, "s1", "q2", "q4")
	require.NoError(t, err)
	assert.Equal(t, "How many a day? (Copy)", copied.Title())

	require.NoError(t, f.svc.SwapTitles(ctx, "s1", "q1", "q4"))
	require.NoError(t, f.svc.ChangeQuestionType(ctx, "s1", "q1", valueobjects.TypeShortText))
	require.NoError(t, f.svc.DeleteQuestion(ctx, "s1", "q3"))

	require.NoError(t, f.svc.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		ids := q.IDs()
		require.Len(t, ids, 3)
		assert.Equal(t, []string{"q1", "q2", "q4"}, []string{ids[0].String(), ids[1].String(), ids[2].String()})
		first, err := q.Question(ids[0])
		require.NoError(t, err)
		assert.Equal(t, "How many a day? (Copy)", first.Title())
		assert.Empty(t, q.Edges(), "a type change resets the connection")
		return nil
	}))

	_, err = f.svc.AddQuestion(ctx, "s1", "", entities.QuestionContent{Title: "x"})
	assert.True(t, pkgerrors.IsValidation(err))
}

func TestQuestionnaireService_CriteriaAndDisconnect(t *testing.T) {
	f := newFixture(t)
	seed(t, f)
	ctx := context.Background()

	require.NoError(t, f.svc.SetCriteria(ctx, "s1", "q1", valueobjects.BranchYes, []criteria.Criterion{
		{Kind: criteria.ListValueSet},
	}))
	require.NoError(t, f.svc.View(ctx, "s1", func(q *aggregates.Questionnaire) error {
		list, err := q.Criteria(valueobjects.MustQuestionID("q1"), valueobjects.BranchYes)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, criteria.ListValueSet, list[0].Kind)
		return nil
	}))

	require.NoError(t, f.svc.Disconnect(ctx, "s1", "q1", valueobjects.LabelYes))
	err := f.svc.Disconnect(ctx, "s1", "q1", valueobjects.LabelYes)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEdgeNotFound))
}

func TestQuestionnaireService_Layout(t *testing.T) {
	f := newFixture(t)
	seed(t, f)

	positions, err := f.svc.Layout(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Less(t, positions["q1"].Y, positions["q2"].Y)
	assert.Equal(t, positions["q2"].Y, positions["q3"].Y)
}

func TestQuestionnaireService_UnknownSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.ExportQuestionnaire(ctx, "nope")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeQuestionnaireNotFound))
	assert.Error(t, f.svc.DeleteQuestionnaire(ctx, "nope"))

	var _ ports.LayoutEngine = layout.NewLayeredEngine(nil)
}

func strPtr(s string) *string { return &s }
