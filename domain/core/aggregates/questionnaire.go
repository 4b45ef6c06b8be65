package aggregates

import (
	"fmt"
	"time"

	"questionnaire-builder/domain/config"
	"questionnaire-builder/domain/core/entities"
	"questionnaire-builder/domain/core/validators"
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	"questionnaire-builder/domain/events"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// Metadata describes the questionnaire as a whole. It travels in the graph
// record of the flat format.
type Metadata struct {
	Name             string `json:"name"`
	Category         int    `json:"category"`
	Status           string `json:"status"`
	InternalNote     string `json:"internal_note"`
	Variant          string `json:"variant"`
	VariantWeighting string `json:"variant_weighting"`
}

// DefaultMetadata returns the metadata a new questionnaire starts with.
func DefaultMetadata(cfg *config.DomainConfig) Metadata {
	return Metadata{
		Name:             cfg.Export.GraphName,
		Category:         cfg.Export.GraphCategory,
		Status:           cfg.Export.GraphStatus,
		InternalNote:     cfg.Export.GraphInternalNote,
		Variant:          cfg.Export.Variant,
		VariantWeighting: cfg.Export.VariantWeighting,
	}
}

// Questionnaire is the aggregate root of the question graph. It owns the
// ordered questions and keeps every connection consistent with question
// types and with the set of questions that exist.
type Questionnaire struct {
	id        string
	metadata  Metadata
	order     []valueobjects.QuestionID
	questions map[valueobjects.QuestionID]*entities.Question

	cfg        *config.DomainConfig
	catalog    *criteria.Catalog
	connRules  *validators.ConnectionValidator
	contentVal *validators.QuestionValidator

	createdAt time.Time
	updatedAt time.Time
	version   int
	events    []events.DomainEvent
}

// NewQuestionnaire creates an empty questionnaire.
func NewQuestionnaire(id string, cfg *config.DomainConfig) (*Questionnaire, error) {
	if id == "" {
		return nil, pkgerrors.NewValidationError("questionnaire id cannot be empty")
	}
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	now := time.Now()
	return &Questionnaire{
		id:         id,
		metadata:   DefaultMetadata(cfg),
		order:      []valueobjects.QuestionID{},
		questions:  make(map[valueobjects.QuestionID]*entities.Question),
		cfg:        cfg,
		catalog:    criteria.DefaultCatalog(),
		connRules:  validators.NewConnectionValidator(),
		contentVal: validators.NewQuestionValidator(cfg),
		createdAt:  now,
		updatedAt:  now,
		version:    1,
		events:     []events.DomainEvent{},
	}, nil
}

// RestoreQuestionnaire rebuilds a questionnaire from already connected
// questions, as produced by the importer. Targets that do not resolve are
// cleared. Question order is kept.
func RestoreQuestionnaire(id string, meta Metadata, questions []*entities.Question, cfg *config.DomainConfig) (*Questionnaire, error) {
	q, err := NewQuestionnaire(id, cfg)
	if err != nil {
		return nil, err
	}
	if len(questions) > q.cfg.MaxQuestions {
		return nil, pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "QUESTION_LIMIT_EXCEEDED",
			fmt.Sprintf("a questionnaire holds at most %d questions", q.cfg.MaxQuestions)).
			WithDetail("limit", q.cfg.MaxQuestions)
	}
	q.metadata = meta

	for _, question := range questions {
		if _, dup := q.questions[question.ID()]; dup {
			return nil, pkgerrors.NewConflictError(fmt.Sprintf("duplicate question id %q", question.ID())).
				WithCode("DUPLICATE_QUESTION_ID")
		}
		q.questions[question.ID()] = question
		q.order = append(q.order, question.ID())
	}
	for _, question := range q.questions {
		for _, b := range question.Type().Branches() {
			target := question.Target(b)
			if target.IsZero() {
				continue
			}
			if _, ok := q.questions[target]; !ok {
				question.ClearTarget(b)
			}
		}
	}
	return q, nil
}

// ID returns the questionnaire id
func (q *Questionnaire) ID() string { return q.id }

// Metadata returns the questionnaire metadata
func (q *Questionnaire) Metadata() Metadata { return q.metadata }

// Version increases with every accepted mutation
func (q *Questionnaire) Version() int { return q.version }

// CreatedAt returns the creation time
func (q *Questionnaire) CreatedAt() time.Time { return q.createdAt }

// UpdatedAt returns the time of the last mutation
func (q *Questionnaire) UpdatedAt() time.Time { return q.updatedAt }

// Config returns the domain configuration in force
func (q *Questionnaire) Config() *config.DomainConfig { return q.cfg }

// Catalog returns the criteria catalog used for legality checks
func (q *Questionnaire) Catalog() *criteria.Catalog { return q.catalog }

// SetMetadata replaces the questionnaire metadata
func (q *Questionnaire) SetMetadata(m Metadata) {
	q.metadata = m
	q.touch()
}

// Len returns the number of questions
func (q *Questionnaire) Len() int { return len(q.order) }

// Has reports whether a question exists
func (q *Questionnaire) Has(id valueobjects.QuestionID) bool {
	_, ok := q.questions[id]
	return ok
}

// Question returns a copy of a question.
func (q *Questionnaire) Question(id valueobjects.QuestionID) (*entities.Question, error) {
	question, err := q.get(id)
	if err != nil {
		return nil, err
	}
	return question.Clone(), nil
}

// Questions returns copies of all questions in model order.
func (q *Questionnaire) Questions() []*entities.Question {
	out := make([]*entities.Question, 0, len(q.order))
	for _, id := range q.order {
		out = append(out, q.questions[id].Clone())
	}
	return out
}

// IDs returns the question ids in model order.
func (q *Questionnaire) IDs() []valueobjects.QuestionID {
	return append([]valueobjects.QuestionID(nil), q.order...)
}

// Index returns the position of a question, or -1.
func (q *Questionnaire) Index(id valueobjects.QuestionID) int {
	for i, candidate := range q.order {
		if candidate.Equals(id) {
			return i
		}
	}
	return -1
}

// AddQuestion appends a new question with an empty connection.
func (q *Questionnaire) AddQuestion(id valueobjects.QuestionID, content entities.QuestionContent) (*entities.Question, error) {
	if err := q.contentVal.ValidateContent(content); err != nil {
		return nil, err
	}
	if err := q.checkCapacity(); err != nil {
		return nil, err
	}
	if q.Has(id) {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("question %q already exists", id)).
			WithCode("DUPLICATE_QUESTION_ID")
	}

	question, err := entities.NewQuestion(id, content)
	if err != nil {
		return nil, err
	}
	q.questions[id] = question
	q.order = append(q.order, id)

	q.touch()
	q.addEvent(events.NewQuestionAdded(q.id, q.version, id.String(), "", q.updatedAt))
	return question.Clone(), nil
}

// UpdateQuestion applies a partial update and returns the changed fields.
func (q *Questionnaire) UpdateQuestion(id valueobjects.QuestionID, patch entities.QuestionPatch) ([]string, error) {
	question, err := q.get(id)
	if err != nil {
		return nil, err
	}
	if err := q.contentVal.ValidatePatch(patch, question.Content()); err != nil {
		return nil, err
	}

	oldType := question.Type()
	changed := question.Apply(patch)
	if len(changed) == 0 {
		return changed, nil
	}

	q.touch()
	if question.Type() != oldType {
		q.addEvent(events.NewQuestionTypeChanged(q.id, q.version, id.String(),
			oldType.String(), question.Type().String(), q.updatedAt))
	}
	q.addEvent(events.NewQuestionUpdated(q.id, q.version, id.String(), changed, q.updatedAt))
	return changed, nil
}

// SetQuestionType changes a question's type. The connection is reset to the
// new shape; criteria survive for slot names the new shape keeps.
func (q *Questionnaire) SetQuestionType(id valueobjects.QuestionID, t valueobjects.QuestionType) error {
	if !t.IsValid() {
		return pkgerrors.NewValidationError(fmt.Sprintf("unknown question type %q", t)).
			WithCode("INVALID_QUESTION_TYPE")
	}
	question, err := q.get(id)
	if err != nil {
		return err
	}
	old := question.Type()
	if old == t {
		return nil
	}
	question.ChangeType(t)

	q.touch()
	q.addEvent(events.NewQuestionTypeChanged(q.id, q.version, id.String(), old.String(), t.String(), q.updatedAt))
	return nil
}

// DeleteQuestion removes a question. Slots of other questions that pointed
// at it become unset; the broken chain is not repaired.
func (q *Questionnaire) DeleteQuestion(id valueobjects.QuestionID) error {
	if _, err := q.get(id); err != nil {
		return err
	}
	delete(q.questions, id)
	q.order = removeID(q.order, id)

	var detached []string
	for _, otherID := range q.order {
		if cleared := q.questions[otherID].ClearReferencesTo(id); len(cleared) > 0 {
			detached = append(detached, otherID.String())
		}
	}

	q.touch()
	q.addEvent(events.NewQuestionDeleted(q.id, q.version, id.String(), detached, q.updatedAt))
	return nil
}

// MoveUp swaps a question with its predecessor. It is a no-op for the
// first question.
func (q *Questionnaire) MoveUp(id valueobjects.QuestionID) error {
	return q.move(id, -1)
}

// MoveDown swaps a question with its successor in model order. It is a
// no-op for the last question.
func (q *Questionnaire) MoveDown(id valueobjects.QuestionID) error {
	return q.move(id, 1)
}

func (q *Questionnaire) move(id valueobjects.QuestionID, delta int) error {
	from := q.Index(id)
	if from < 0 {
		return pkgerrors.QuestionNotFound(id.String())
	}
	to := from + delta
	if to < 0 || to >= len(q.order) {
		return nil
	}
	q.order[from], q.order[to] = q.order[to], q.order[from]

	q.touch()
	q.addEvent(events.NewQuestionMoved(q.id, q.version, id.String(), from, to, q.updatedAt))
	return nil
}

// CopyQuestion appends a detached copy of a question under newID.
func (q *Questionnaire) CopyQuestion(id, newID valueobjects.QuestionID) (*entities.Question, error) {
	original, err := q.get(id)
	if err != nil {
		return nil, err
	}
	if err := q.checkCapacity(); err != nil {
		return nil, err
	}
	if q.Has(newID) {
		return nil, pkgerrors.NewConflictError(fmt.Sprintf("question %q already exists", newID)).
			WithCode("DUPLICATE_QUESTION_ID")
	}

	cp := original.CopyAs(newID)
	q.questions[newID] = cp
	q.order = append(q.order, newID)

	q.touch()
	q.addEvent(events.NewQuestionAdded(q.id, q.version, newID.String(), id.String(), q.updatedAt))
	return cp.Clone(), nil
}

// SwapTitles exchanges the display text of two questions. Nothing else
// moves.
func (q *Questionnaire) SwapTitles(a, b valueobjects.QuestionID) error {
	first, err := q.get(a)
	if err != nil {
		return err
	}
	second, err := q.get(b)
	if err != nil {
		return err
	}
	if a.Equals(b) {
		return nil
	}
	firstTitle := first.Title()
	first.SetTitle(second.Title())
	second.SetTitle(firstTitle)

	q.touch()
	q.addEvent(events.NewQuestionUpdated(q.id, q.version, a.String(), []string{"title"}, q.updatedAt))
	q.addEvent(events.NewQuestionUpdated(q.id, q.version, b.String(), []string{"title"}, q.updatedAt))
	return nil
}

// Connection returns a copy of a question's connection.
func (q *Questionnaire) Connection(id valueobjects.QuestionID) (entities.Connection, error) {
	question, err := q.get(id)
	if err != nil {
		return entities.Connection{}, err
	}
	return question.Connection(), nil
}

// Edges derives the live edge set from the connections, in model order.
func (q *Questionnaire) Edges() []validators.EdgeRef {
	var out []validators.EdgeRef
	for _, id := range q.order {
		question := q.questions[id]
		for _, b := range []valueobjects.Branch{valueobjects.BranchNext, valueobjects.BranchYes, valueobjects.BranchNo} {
			target := question.Target(b)
			if target.IsZero() {
				continue
			}
			out = append(out, validators.EdgeRef{Source: id, Target: target, Label: b.Label()})
		}
	}
	return out
}

// Connect proposes a new edge. The connection rules run against the live
// edge set; on acceptance the source's slot points at the target.
func (q *Questionnaire) Connect(source, target valueobjects.QuestionID, label valueobjects.EdgeLabel) error {
	src, err := q.get(source)
	if err != nil {
		return err
	}
	if _, err := q.get(target); err != nil {
		return err
	}

	proposal := validators.Proposal{
		SourceType: src.Type(),
		Source:     source,
		Target:     target,
		Label:      label,
	}
	if err := q.connRules.Validate(proposal, q.Edges()); err != nil {
		return err
	}
	if err := src.SetTarget(label.Branch(), target); err != nil {
		return err
	}

	q.touch()
	q.addEvent(events.NewQuestionsConnected(q.id, q.version, source.String(), target.String(), label.String(), q.updatedAt))
	return nil
}

// Disconnect deletes the edge leaving source with the given label. The
// slot's criteria are kept.
func (q *Questionnaire) Disconnect(source valueobjects.QuestionID, label valueobjects.EdgeLabel) error {
	src, err := q.get(source)
	if err != nil {
		return err
	}
	prev := src.Target(label.Branch())
	if prev.IsZero() {
		return pkgerrors.NewDomainError(pkgerrors.DomainNotFoundError, pkgerrors.CodeEdgeNotFound,
			fmt.Sprintf("question %q has no %s edge", source, label)).
			WithDetail("question_id", source.String()).
			WithDetail("label", label.String())
	}
	src.ClearTarget(label.Branch())

	q.touch()
	q.addEvent(events.NewConnectionRemoved(q.id, q.version, source.String(), prev.String(), label.String(), q.updatedAt))
	return nil
}

// Criteria returns a copy of a slot's criteria.
func (q *Questionnaire) Criteria(id valueobjects.QuestionID, b valueobjects.Branch) ([]criteria.Criterion, error) {
	question, err := q.get(id)
	if err != nil {
		return nil, err
	}
	if !question.Type().HasBranch(b) {
		return nil, slotError(question, b)
	}
	return question.Criteria(b), nil
}

// SetCriteria replaces a slot's criteria. Every kind must be legal for the
// question's type and tags.
func (q *Questionnaire) SetCriteria(id valueobjects.QuestionID, b valueobjects.Branch, list []criteria.Criterion) error {
	question, err := q.get(id)
	if err != nil {
		return err
	}
	if !question.Type().HasBranch(b) {
		return slotError(question, b)
	}
	if len(list) > q.cfg.MaxCriteriaPerSlot {
		return pkgerrors.NewDomainError(pkgerrors.DomainValidationError, "TOO_MANY_CRITERIA",
			fmt.Sprintf("a slot holds at most %d criteria", q.cfg.MaxCriteriaPerSlot)).
			WithDetail("limit", q.cfg.MaxCriteriaPerSlot)
	}

	legal := q.catalog.LegalKinds(question.Type(), question.Tags())
	normalised := make([]criteria.Criterion, 0, len(list))
	kinds := make([]string, 0, len(list))
	for _, c := range list {
		if !c.Kind.IsKnown() {
			return pkgerrors.UnknownCriterionKind(string(c.Kind))
		}
		if !containsKind(legal, c.Kind) {
			return pkgerrors.NewDomainError(pkgerrors.DomainValidationError, pkgerrors.CodeCriterionNotAllowed,
				fmt.Sprintf("%q is not available for this question", c.Label())).
				WithDetail("kind", string(c.Kind)).
				WithDetail("question_id", id.String())
		}
		checked, err := criteria.New(c.Kind, c.Config)
		if err != nil {
			return err
		}
		normalised = append(normalised, checked)
		kinds = append(kinds, string(c.Kind))
	}
	if err := question.SetCriteria(b, normalised); err != nil {
		return err
	}

	q.touch()
	q.addEvent(events.NewCriteriaUpdated(q.id, q.version, id.String(), string(b), kinds, q.updatedAt))
	return nil
}

// LegalCriteria lists the kinds an edge leaving the question may carry.
func (q *Questionnaire) LegalCriteria(id valueobjects.QuestionID) ([]criteria.Option, error) {
	question, err := q.get(id)
	if err != nil {
		return nil, err
	}
	return q.catalog.Options(question.Type(), question.Tags()), nil
}

// Validate checks the aggregate's structural invariants.
func (q *Questionnaire) Validate() error {
	verrs := pkgerrors.NewValidationErrors()
	if len(q.order) != len(q.questions) {
		verrs.Add("questions", "question order and identity map disagree")
	}
	for _, id := range q.order {
		question, ok := q.questions[id]
		if !ok {
			verrs.Add("questions", fmt.Sprintf("ordered question %q is missing", id))
			continue
		}
		conn := question.Connection()
		if question.Type().IsBoolean() && !conn.Next.IsZero() {
			verrs.Add("connections", fmt.Sprintf("boolean question %q has a linear successor", id))
		}
		if !question.Type().IsBoolean() && (!conn.Yes.IsZero() || !conn.No.IsZero()) {
			verrs.Add("connections", fmt.Sprintf("question %q has branches but is not boolean", id))
		}
		for _, b := range []valueobjects.Branch{valueobjects.BranchNext, valueobjects.BranchYes, valueobjects.BranchNo} {
			if target := conn.Target(b); !target.IsZero() && !q.Has(target) {
				verrs.Add("connections", fmt.Sprintf("question %q points at missing %q", id, target))
			}
		}
	}
	return verrs.ErrOrNil()
}

// GetUncommittedEvents returns events raised since the last commit
func (q *Questionnaire) GetUncommittedEvents() []events.DomainEvent {
	out := make([]events.DomainEvent, len(q.events))
	copy(out, q.events)
	return out
}

// MarkEventsAsCommitted clears the pending events
func (q *Questionnaire) MarkEventsAsCommitted() {
	q.events = []events.DomainEvent{}
}

// RecordImport raises the import event on a freshly restored questionnaire.
func (q *Questionnaire) RecordImport(edges, diagnostics int) {
	q.addEvent(events.NewQuestionnaireImported(q.id, q.version, len(q.order), edges, diagnostics, time.Now()))
}

func (q *Questionnaire) get(id valueobjects.QuestionID) (*entities.Question, error) {
	question, ok := q.questions[id]
	if !ok {
		return nil, pkgerrors.QuestionNotFound(id.String())
	}
	return question, nil
}

func (q *Questionnaire) checkCapacity() error {
	if len(q.order) >= q.cfg.MaxQuestions {
		return pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "QUESTION_LIMIT_EXCEEDED",
			fmt.Sprintf("a questionnaire holds at most %d questions", q.cfg.MaxQuestions)).
			WithDetail("limit", q.cfg.MaxQuestions)
	}
	return nil
}

func (q *Questionnaire) touch() {
	q.updatedAt = time.Now()
	q.version++
}

func (q *Questionnaire) addEvent(e events.DomainEvent) {
	q.events = append(q.events, e)
}

func slotError(question *entities.Question, b valueobjects.Branch) error {
	return pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "SLOT_NOT_IN_SHAPE",
		fmt.Sprintf("%s questions have no %q slot", question.Type(), b)).
		WithDetail("question_id", question.ID().String())
}

func containsKind(kinds []criteria.Kind, k criteria.Kind) bool {
	for _, candidate := range kinds {
		if candidate == k {
			return true
		}
	}
	return false
}

func removeID(ids []valueobjects.QuestionID, id valueobjects.QuestionID) []valueobjects.QuestionID {
	out := ids[:0]
	for _, candidate := range ids {
		if !candidate.Equals(id) {
			out = append(out, candidate)
		}
	}
	return out
}
