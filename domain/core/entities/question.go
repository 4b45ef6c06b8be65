package entities

import (
	"fmt"
	"strings"

	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/domain/criteria"
	pkgerrors "questionnaire-builder/pkg/errors"
)

// QuestionContent is everything about a question except its identity and
// topology.
type QuestionContent struct {
	Title        string
	Subtitle     string
	Placeholder  string
	Type         valueobjects.QuestionType
	Tags         []valueobjects.Tag
	Labels       []string
	Options      []string
	Params       *valueobjects.TypeParams
	Required     bool
	AutoNext     bool
	InternalNote string
}

// QuestionPatch carries a partial update; nil fields are left untouched.
// A Type change goes through ChangeType and resets the connection shape.
type QuestionPatch struct {
	Title        *string
	Subtitle     *string
	Placeholder  *string
	Type         *valueobjects.QuestionType
	Tags         *[]valueobjects.Tag
	Labels       *[]string
	Options      *[]string
	Params       *valueobjects.TypeParams
	Required     *bool
	AutoNext     *bool
	InternalNote *string
}

// Question is a single questionnaire step together with its outgoing
// connection.
type Question struct {
	id           valueobjects.QuestionID
	title        string
	subtitle     string
	placeholder  string
	qType        valueobjects.QuestionType
	tags         []valueobjects.Tag
	labels       []string
	options      []string
	params       valueobjects.TypeParams
	required     bool
	autoNext     bool
	internalNote string
	conn         Connection
}

// NewQuestion creates a question with an empty connection of the shape its
// type requires.
func NewQuestion(id valueobjects.QuestionID, content QuestionContent) (*Question, error) {
	if id.IsZero() {
		return nil, pkgerrors.NewValidationError("question id cannot be empty")
	}
	qType := content.Type
	if qType == "" {
		qType = valueobjects.DefaultQuestionType
	}
	if !qType.IsValid() {
		return nil, pkgerrors.NewValidationError(fmt.Sprintf("unknown question type %q", qType)).
			WithCode("INVALID_QUESTION_TYPE")
	}

	params := valueobjects.DefaultTypeParams(qType)
	if content.Params != nil {
		params = content.Params.Clone()
	}

	return &Question{
		id:           id,
		title:        strings.TrimSpace(content.Title),
		subtitle:     content.Subtitle,
		placeholder:  content.Placeholder,
		qType:        qType,
		tags:         dedupeTags(content.Tags),
		labels:       dedupeStrings(content.Labels),
		options:      copyStrings(content.Options),
		params:       params,
		required:     content.Required,
		autoNext:     content.AutoNext,
		internalNote: content.InternalNote,
		conn:         newConnection(),
	}, nil
}

// ID returns the question's identity
func (q *Question) ID() valueobjects.QuestionID { return q.id }

// Title returns the display text
func (q *Question) Title() string { return q.title }

// Subtitle returns the secondary text
func (q *Question) Subtitle() string { return q.subtitle }

// Placeholder returns the input placeholder
func (q *Question) Placeholder() string { return q.placeholder }

// Type returns the question type
func (q *Question) Type() valueobjects.QuestionType { return q.qType }

// Required reports whether an answer is mandatory
func (q *Question) Required() bool { return q.required }

// AutoNext reports whether the form advances on answer
func (q *Question) AutoNext() bool { return q.autoNext }

// InternalNote returns the operator note
func (q *Question) InternalNote() string { return q.internalNote }

// Tags returns a copy of the declared tags
func (q *Question) Tags() []valueobjects.Tag {
	return append([]valueobjects.Tag(nil), q.tags...)
}

// Labels returns a copy of the free-form labels
func (q *Question) Labels() []string { return copyStrings(q.labels) }

// Options returns a copy of the selectable option labels
func (q *Question) Options() []string { return copyStrings(q.options) }

// Params returns a copy of the type parameters
func (q *Question) Params() valueobjects.TypeParams { return q.params.Clone() }

// Content returns the question's content as a value.
func (q *Question) Content() QuestionContent {
	params := q.params.Clone()
	return QuestionContent{
		Title:        q.title,
		Subtitle:     q.subtitle,
		Placeholder:  q.placeholder,
		Type:         q.qType,
		Tags:         q.Tags(),
		Labels:       q.Labels(),
		Options:      q.Options(),
		Params:       &params,
		Required:     q.required,
		AutoNext:     q.autoNext,
		InternalNote: q.internalNote,
	}
}

// Connection returns a deep copy of the outgoing connection.
func (q *Question) Connection() Connection { return q.conn.clone() }

// Target returns the question a slot points at.
func (q *Question) Target(b valueobjects.Branch) valueobjects.QuestionID {
	return q.conn.Target(b)
}

// Criteria returns a copy of a slot's criteria.
func (q *Question) Criteria(b valueobjects.Branch) []criteria.Criterion {
	return criteria.CloneList(q.conn.Criteria[b])
}

// Apply updates content fields. It returns the names of the fields that
// changed; a type change is reported as "type".
func (q *Question) Apply(p QuestionPatch) []string {
	var changed []string
	if p.Title != nil && strings.TrimSpace(*p.Title) != q.title {
		q.title = strings.TrimSpace(*p.Title)
		changed = append(changed, "title")
	}
	if p.Subtitle != nil && *p.Subtitle != q.subtitle {
		q.subtitle = *p.Subtitle
		changed = append(changed, "subtitle")
	}
	if p.Placeholder != nil && *p.Placeholder != q.placeholder {
		q.placeholder = *p.Placeholder
		changed = append(changed, "placeholder")
	}
	if p.Type != nil && *p.Type != q.qType {
		q.ChangeType(*p.Type)
		changed = append(changed, "type")
	}
	if p.Tags != nil {
		q.tags = dedupeTags(*p.Tags)
		changed = append(changed, "tags")
	}
	if p.Labels != nil {
		q.labels = dedupeStrings(*p.Labels)
		changed = append(changed, "labels")
	}
	if p.Options != nil {
		q.options = copyStrings(*p.Options)
		changed = append(changed, "options")
	}
	if p.Params != nil {
		q.params = p.Params.Clone()
		changed = append(changed, "params")
	}
	if p.Required != nil && *p.Required != q.required {
		q.required = *p.Required
		changed = append(changed, "required")
	}
	if p.AutoNext != nil && *p.AutoNext != q.autoNext {
		q.autoNext = *p.AutoNext
		changed = append(changed, "auto_next")
	}
	if p.InternalNote != nil && *p.InternalNote != q.internalNote {
		q.internalNote = *p.InternalNote
		changed = append(changed, "internal_note")
	}
	return changed
}

// SetTitle replaces the display text.
func (q *Question) SetTitle(title string) {
	q.title = strings.TrimSpace(title)
}

// ChangeType switches the question type. Every slot target is cleared so
// the connection matches the new shape; criteria lists survive for slot
// names the new shape still has. Type params reset to the new type's
// defaults, keeping list settings when moving between list types.
// Setting the current type is a no-op. The type must be valid.
func (q *Question) ChangeType(t valueobjects.QuestionType) {
	if t == q.qType {
		return
	}
	old := q.qType
	q.qType = t

	kept := make(map[valueobjects.Branch][]criteria.Criterion)
	for _, b := range t.Branches() {
		if list, ok := q.conn.Criteria[b]; ok {
			kept[b] = list
		}
	}
	q.conn = Connection{Criteria: kept}

	params := valueobjects.DefaultTypeParams(t)
	if old.IsList() && t.IsList() {
		params.Other = q.params.Other
		params.Exclusive = copyStrings(q.params.Exclusive)
	}
	q.params = params
}

// SetTarget points a slot at another question. The slot must belong to the
// question's current shape.
func (q *Question) SetTarget(b valueobjects.Branch, target valueobjects.QuestionID) error {
	if !q.qType.HasBranch(b) {
		return pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "SLOT_NOT_IN_SHAPE",
			fmt.Sprintf("%s questions have no %q slot", q.qType, b)).
			WithDetail("question_id", q.id.String())
	}
	q.conn.setTarget(b, target)
	return nil
}

// ClearTarget unsets a slot and returns the previous target.
func (q *Question) ClearTarget(b valueobjects.Branch) valueobjects.QuestionID {
	prev := q.conn.Target(b)
	q.conn.setTarget(b, valueobjects.QuestionID{})
	return prev
}

// ClearReferencesTo unsets every slot pointing at id and returns the
// slots that were cleared.
func (q *Question) ClearReferencesTo(id valueobjects.QuestionID) []valueobjects.Branch {
	var cleared []valueobjects.Branch
	for _, b := range []valueobjects.Branch{valueobjects.BranchNext, valueobjects.BranchYes, valueobjects.BranchNo} {
		if q.conn.Target(b).Equals(id) {
			q.conn.setTarget(b, valueobjects.QuestionID{})
			cleared = append(cleared, b)
		}
	}
	return cleared
}

// SetCriteria replaces a slot's criteria. Branch marker kinds are implied
// by the slot and are not stored.
func (q *Question) SetCriteria(b valueobjects.Branch, list []criteria.Criterion) error {
	if !q.qType.HasBranch(b) {
		return pkgerrors.NewDomainError(pkgerrors.DomainBusinessRuleError, "SLOT_NOT_IN_SHAPE",
			fmt.Sprintf("%s questions have no %q slot", q.qType, b)).
			WithDetail("question_id", q.id.String())
	}
	stored := make([]criteria.Criterion, 0, len(list))
	for _, c := range list {
		if c.Kind.IsBranchMarker() {
			continue
		}
		stored = append(stored, c.Clone())
	}
	q.conn.Criteria[b] = stored
	return nil
}

// AppendCriteria adds criteria to a slot, folding out markers.
func (q *Question) AppendCriteria(b valueobjects.Branch, list []criteria.Criterion) error {
	merged := append(q.Criteria(b), list...)
	return q.SetCriteria(b, merged)
}

// CopyAs returns a detached copy under a new id: same content, title
// suffixed with " (Copy)", no connections.
func (q *Question) CopyAs(id valueobjects.QuestionID) *Question {
	cp := &Question{
		id:           id,
		title:        q.title + " (Copy)",
		subtitle:     q.subtitle,
		placeholder:  q.placeholder,
		qType:        q.qType,
		tags:         q.Tags(),
		labels:       q.Labels(),
		options:      q.Options(),
		params:       q.params.Clone(),
		required:     q.required,
		autoNext:     q.autoNext,
		internalNote: q.internalNote,
		conn:         newConnection(),
	}
	return cp
}

func dedupeTags(in []valueobjects.Tag) []valueobjects.Tag {
	out := make([]valueobjects.Tag, 0, len(in))
	seen := make(map[valueobjects.Tag]struct{}, len(in))
	for _, t := range in {
		if _, dup := seen[t]; dup || t == "" {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup || s == "" {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func copyStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append([]string{}, in...)
}

// Clone returns a deep copy of the question, connection included.
func (q *Question) Clone() *Question {
	cp := *q
	cp.tags = q.Tags()
	cp.labels = q.Labels()
	cp.options = q.Options()
	cp.params = q.params.Clone()
	cp.conn = q.conn.clone()
	return &cp
}
