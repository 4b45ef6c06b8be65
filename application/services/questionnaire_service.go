package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"questionnaire-builder/application/ports"
	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/aggregates"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/events"
	"questionnaire-builder/domain/records"
	domainservices "questionnaire-builder/domain/services"
	pkgerrors "questionnaire-builder/pkg/errors"
)

const tracerName = "questionnaire-builder/application"

// ImportReport is what a successful import tells the caller.
type ImportReport struct {
	QuestionnaireID string                      `json:"questionnaire_id"`
	Stats           domainservices.ImportStats  `json:"stats"`
	Diagnostics     []domainservices.Diagnostic `json:"diagnostics"`
}

// QuestionnaireService orchestrates questionnaire editing sessions: it
// locks the session, runs the aggregate operation, publishes the raised
// events and records metrics and spans.
type QuestionnaireService struct {
	repo      ports.QuestionnaireRepository
	publisher ports.EventPublisher
	ids       ports.IDProvider
	layout    ports.LayoutEngine
	configs   ports.DomainConfigProvider
	metrics   ports.MetricsRecorder
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewQuestionnaireService creates the service.
func NewQuestionnaireService(
	repo ports.QuestionnaireRepository,
	publisher ports.EventPublisher,
	ids ports.IDProvider,
	layout ports.LayoutEngine,
	configs ports.DomainConfigProvider,
	metrics ports.MetricsRecorder,
	logger *zap.Logger,
) *QuestionnaireService {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionnaireService{
		repo:      repo,
		publisher: publisher,
		ids:       ids,
		layout:    layout,
		configs:   configs,
		metrics:   metrics,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// NewID mints an identifier from the configured provider.
func (s *QuestionnaireService) NewID() string {
	return s.ids.NewID()
}

// CreateQuestionnaire starts an empty session. A nil meta uses the
// configured defaults.
func (s *QuestionnaireService) CreateQuestionnaire(ctx context.Context, id string, meta *aggregates.Metadata) error {
	ctx, span, start := s.begin(ctx, "CreateQuestionnaire", id)
	defer span.End()

	q, err := aggregates.NewQuestionnaire(id, s.configs.Current())
	if err == nil {
		if meta != nil {
			q.SetMetadata(*meta)
		}
		q.MarkEventsAsCommitted()
		err = s.repo.Create(ctx, q)
	}
	s.finish(span, "CreateQuestionnaire", start, err)
	if err != nil {
		return err
	}

	s.logger.Info("Questionnaire created", zap.String("questionnaireID", id))
	s.refreshSessions(ctx)
	return nil
}

// DeleteQuestionnaire ends a session.
func (s *QuestionnaireService) DeleteQuestionnaire(ctx context.Context, id string) error {
	ctx, span, start := s.begin(ctx, "DeleteQuestionnaire", id)
	defer span.End()

	err := s.repo.Delete(ctx, id)
	s.finish(span, "DeleteQuestionnaire", start, err)
	if err != nil {
		return err
	}
	s.refreshSessions(ctx)
	return nil
}

// ImportQuestionnaire rebuilds a questionnaire from a flat record list and
// swaps it in under id. A failed import leaves any existing session
// untouched.
func (s *QuestionnaireService) ImportQuestionnaire(ctx context.Context, id string, data []byte) (*ImportReport, error) {
	ctx, span, start := s.begin(ctx, "ImportQuestionnaire", id)
	defer span.End()
	span.SetAttributes(attribute.Int("import.bytes", len(data)))

	result, err := domainservices.NewImporter(s.configs.Current()).Import(id, data)
	if err != nil {
		s.metrics.ObserveImport("rejected", nil)
		s.finish(span, "ImportQuestionnaire", start, err)
		s.logger.Warn("Import rejected", zap.String("questionnaireID", id), zap.Error(err))
		return nil, err
	}

	for _, d := range result.Diagnostics {
		s.logger.Warn("Import diagnostic",
			zap.String("questionnaireID", id),
			zap.String("code", string(d.Code)),
			zap.String("model", d.Model),
			zap.String("pk", d.PK),
			zap.String("message", d.Message),
		)
	}

	q := result.Questionnaire
	pending := q.GetUncommittedEvents()
	q.MarkEventsAsCommitted()
	if err := s.repo.Replace(ctx, q); err != nil {
		s.finish(span, "ImportQuestionnaire", start, err)
		return nil, err
	}

	counts := make(map[string]int)
	for code, n := range domainservices.CountByCode(result.Diagnostics) {
		counts[string(code)] = n
	}
	s.metrics.ObserveImport("accepted", counts)
	span.SetAttributes(
		attribute.Int("import.questions", result.Stats.Questions),
		attribute.Int("import.linked_edges", result.Stats.LinkedEdges),
		attribute.Int("import.diagnostics", len(result.Diagnostics)),
	)
	s.finish(span, "ImportQuestionnaire", start, nil)

	s.publish(ctx, pending)
	s.refreshSessions(ctx)

	diags := result.Diagnostics
	if diags == nil {
		diags = []domainservices.Diagnostic{}
	}
	return &ImportReport{QuestionnaireID: id, Stats: result.Stats, Diagnostics: diags}, nil
}

// ExportQuestionnaire flattens a questionnaire into an encoded record list
// with fresh identifiers.
func (s *QuestionnaireService) ExportQuestionnaire(ctx context.Context, id string) ([]byte, error) {
	ctx, span, start := s.begin(ctx, "ExportQuestionnaire", id)
	defer span.End()

	var recs []records.Record
	err := s.repo.View(ctx, id, func(q *aggregates.Questionnaire) error {
		var err error
		recs, err = domainservices.NewExporter(q.Config(), s.ids).Export(q)
		return err
	})
	var data []byte
	if err == nil {
		data, err = records.Encode(recs)
	}
	s.finish(span, "ExportQuestionnaire", start, err)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveExport(len(recs))
	span.SetAttributes(attribute.Int("export.records", len(recs)))
	return data, nil
}

// AddQuestion appends a question under questionID.
func (s *QuestionnaireService) AddQuestion(ctx context.Context, id, questionID string, content entities.QuestionContent) (*entities.Question, error) {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	var added *entities.Question
	err = s.mutate(ctx, "AddQuestion", id, func(q *aggregates.Questionnaire) error {
		var err error
		added, err = q.AddQuestion(qid, content)
		return err
	})
	return added, err
}

// UpdateQuestion applies a partial update and returns the changed fields.
func (s *QuestionnaireService) UpdateQuestion(ctx context.Context, id, questionID string, patch entities.QuestionPatch) ([]string, error) {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	var changed []string
	err = s.mutate(ctx, "UpdateQuestion", id, func(q *aggregates.Questionnaire) error {
		var err error
		changed, err = q.UpdateQuestion(qid, patch)
		return err
	})
	return changed, err
}

// ChangeQuestionType changes a question's type and resets its connection.
func (s *QuestionnaireService) ChangeQuestionType(ctx context.Context, id, questionID string, t valueobjects.QuestionType) error {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "ChangeQuestionType", id, func(q *aggregates.Questionnaire) error {
		return q.SetQuestionType(qid, t)
	})
}

// DeleteQuestion removes a question and unsets every slot pointing at it.
func (s *QuestionnaireService) DeleteQuestion(ctx context.Context, id, questionID string) error {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "DeleteQuestion", id, func(q *aggregates.Questionnaire) error {
		return q.DeleteQuestion(qid)
	})
}

// MoveQuestion moves a question one position "up" or "down".
func (s *QuestionnaireService) MoveQuestion(ctx context.Context, id, questionID, direction string) error {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "MoveQuestion", id, func(q *aggregates.Questionnaire) error {
		switch strings.ToLower(direction) {
		case "up":
			return q.MoveUp(qid)
		case "down":
			return q.MoveDown(qid)
		default:
			return pkgerrors.NewValidationError(fmt.Sprintf("unknown direction %q", direction)).
				WithCode("INVALID_DIRECTION")
		}
	})
}

// CopyQuestion appends a detached copy of a question under newID.
func (s *QuestionnaireService) CopyQuestion(ctx context.Context, id, questionID, newID string) (*entities.Question, error) {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return nil, err
	}
	copyID, err := parseQuestionID(newID)
	if err != nil {
		return nil, err
	}
	var copied *entities.Question
	err = s.mutate(ctx, "CopyQuestion", id, func(q *aggregates.Questionnaire) error {
		var err error
		copied, err = q.CopyQuestion(qid, copyID)
		return err
	})
	return copied, err
}

// SwapTitles exchanges the titles of two questions.
func (s *QuestionnaireService) SwapTitles(ctx context.Context, id, first, second string) error {
	a, err := parseQuestionID(first)
	if err != nil {
		return err
	}
	b, err := parseQuestionID(second)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "SwapTitles", id, func(q *aggregates.Questionnaire) error {
		return q.SwapTitles(a, b)
	})
}

// Connect proposes an edge; rejections carry the failing rule's code.
func (s *QuestionnaireService) Connect(ctx context.Context, id, source, target string, label valueobjects.EdgeLabel) error {
	src, err := parseQuestionID(source)
	if err != nil {
		return err
	}
	dst, err := parseQuestionID(target)
	if err != nil {
		return err
	}
	err = s.mutate(ctx, "Connect", id, func(q *aggregates.Questionnaire) error {
		return q.Connect(src, dst, label)
	})
	if de := pkgerrors.GetDomainError(err); de != nil && de.Type == pkgerrors.DomainConnectionRejected {
		s.metrics.ObserveConnectionRejected(de.Code)
		s.logger.Info("Connection rejected",
			zap.String("questionnaireID", id),
			zap.String("source", source),
			zap.String("target", target),
			zap.String("label", label.String()),
			zap.String("code", de.Code),
		)
	}
	return err
}

// Disconnect deletes the edge leaving source with the given label.
func (s *QuestionnaireService) Disconnect(ctx context.Context, id, source string, label valueobjects.EdgeLabel) error {
	src, err := parseQuestionID(source)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "Disconnect", id, func(q *aggregates.Questionnaire) error {
		return q.Disconnect(src, label)
	})
}

// SetCriteria replaces the criteria of one slot.
func (s *QuestionnaireService) SetCriteria(ctx context.Context, id, questionID string, b valueobjects.Branch, list []criteria.Criterion) error {
	qid, err := parseQuestionID(questionID)
	if err != nil {
		return err
	}
	return s.mutate(ctx, "SetCriteria", id, func(q *aggregates.Questionnaire) error {
		return q.SetCriteria(qid, b, list)
	})
}

// View gives read access to a questionnaire.
func (s *QuestionnaireService) View(ctx context.Context, id string, fn func(q *aggregates.Questionnaire) error) error {
	return s.repo.View(ctx, id, fn)
}

// Layout computes node positions for the current graph.
func (s *QuestionnaireService) Layout(ctx context.Context, id string) (map[string]ports.Position, error) {
	ctx, span, start := s.begin(ctx, "Layout", id)
	defer span.End()

	var nodes []string
	var edges []ports.LayoutEdge
	err := s.repo.View(ctx, id, func(q *aggregates.Questionnaire) error {
		for _, qid := range q.IDs() {
			nodes = append(nodes, qid.String())
		}
		for _, e := range q.Edges() {
			edges = append(edges, ports.LayoutEdge{Source: e.Source.String(), Target: e.Target.String()})
		}
		return nil
	})
	var positions map[string]ports.Position
	if err == nil {
		positions, err = s.layout.Layout(ctx, nodes, edges)
	}
	s.finish(span, "Layout", start, err)
	return positions, err
}

// Config returns the domain configuration in force.
func (s *QuestionnaireService) Config() *config.DomainConfig {
	return s.configs.Current()
}

func (s *QuestionnaireService) mutate(ctx context.Context, op, id string, fn func(q *aggregates.Questionnaire) error) error {
	ctx, span, start := s.begin(ctx, op, id)
	defer span.End()

	var pending []events.DomainEvent
	err := s.repo.Update(ctx, id, func(q *aggregates.Questionnaire) error {
		if err := fn(q); err != nil {
			return err
		}
		pending = q.GetUncommittedEvents()
		q.MarkEventsAsCommitted()
		return nil
	})
	s.finish(span, op, start, err)
	if err != nil {
		return err
	}

	s.publish(ctx, pending)
	return nil
}

func (s *QuestionnaireService) begin(ctx context.Context, op, id string) (context.Context, trace.Span, time.Time) {
	ctx, span := s.tracer.Start(ctx, "QuestionnaireService."+op,
		trace.WithAttributes(attribute.String("questionnaire.id", id)),
	)
	return ctx, span, time.Now()
}

func (s *QuestionnaireService) finish(span trace.Span, op string, start time.Time, err error) {
	s.metrics.ObserveOperation(op, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

func (s *QuestionnaireService) publish(ctx context.Context, pending []events.DomainEvent) {
	if s.publisher == nil || len(pending) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, pending); err != nil {
		// Events are informational; the mutation already happened.
		s.logger.Error("Failed to publish events", zap.Int("count", len(pending)), zap.Error(err))
	}
}

func (s *QuestionnaireService) refreshSessions(ctx context.Context) {
	ids, err := s.repo.List(ctx)
	if err != nil {
		return
	}
	s.metrics.SetSessions(len(ids))
}

func parseQuestionID(raw string) (valueobjects.QuestionID, error) {
	id, err := valueobjects.NewQuestionID(raw)
	if err != nil {
		return valueobjects.QuestionID{}, pkgerrors.NewValidationError("question id cannot be empty").
			WithCode("INVALID_QUESTION_ID")
	}
	return id, nil
}

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, time.Duration, error) {}
func (noopMetrics) ObserveImport(string, map[string]int)          {}
func (noopMetrics) ObserveExport(int)                             {}
func (noopMetrics) ObserveConnectionRejected(string)              {}
func (noopMetrics) SetSessions(int)                               {}
