package events

import "time"

// Event type names
const (
	TypeQuestionAdded         = "question.added"
	TypeQuestionUpdated       = "question.updated"
	TypeQuestionDeleted       = "question.deleted"
	TypeQuestionTypeChanged   = "question.type_changed"
	TypeQuestionMoved         = "question.moved"
	TypeQuestionsConnected    = "question.connected"
	TypeConnectionRemoved     = "question.connection_removed"
	TypeCriteriaUpdated       = "question.criteria_updated"
	TypeQuestionnaireImported = "questionnaire.imported"
)

// QuestionAdded is raised when a question is created or copied
type QuestionAdded struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	CopiedFrom string `json:"copied_from,omitempty"`
}

// NewQuestionAdded creates a QuestionAdded event
func NewQuestionAdded(questionnaireID string, version int, questionID, copiedFrom string, at time.Time) QuestionAdded {
	return QuestionAdded{
		BaseEvent:  newBase(questionnaireID, TypeQuestionAdded, version, at),
		QuestionID: questionID,
		CopiedFrom: copiedFrom,
	}
}

// QuestionUpdated is raised when question content changes
type QuestionUpdated struct {
	BaseEvent
	QuestionID string   `json:"question_id"`
	Fields     []string `json:"fields"`
}

// NewQuestionUpdated creates a QuestionUpdated event
func NewQuestionUpdated(questionnaireID string, version int, questionID string, fields []string, at time.Time) QuestionUpdated {
	return QuestionUpdated{
		BaseEvent:  newBase(questionnaireID, TypeQuestionUpdated, version, at),
		QuestionID: questionID,
		Fields:     fields,
	}
}

// QuestionDeleted is raised when a question is removed. Detached lists the
// questions whose connections pointed at it and were cleared.
type QuestionDeleted struct {
	BaseEvent
	QuestionID string   `json:"question_id"`
	Detached   []string `json:"detached"`
}

// NewQuestionDeleted creates a QuestionDeleted event
func NewQuestionDeleted(questionnaireID string, version int, questionID string, detached []string, at time.Time) QuestionDeleted {
	return QuestionDeleted{
		BaseEvent:  newBase(questionnaireID, TypeQuestionDeleted, version, at),
		QuestionID: questionID,
		Detached:   detached,
	}
}

// QuestionTypeChanged is raised when a question's type changes
type QuestionTypeChanged struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	OldType    string `json:"old_type"`
	NewType    string `json:"new_type"`
}

// NewQuestionTypeChanged creates a QuestionTypeChanged event
func NewQuestionTypeChanged(questionnaireID string, version int, questionID, oldType, newType string, at time.Time) QuestionTypeChanged {
	return QuestionTypeChanged{
		BaseEvent:  newBase(questionnaireID, TypeQuestionTypeChanged, version, at),
		QuestionID: questionID,
		OldType:    oldType,
		NewType:    newType,
	}
}

// QuestionMoved is raised when a question changes position
type QuestionMoved struct {
	BaseEvent
	QuestionID string `json:"question_id"`
	From       int    `json:"from"`
	To         int    `json:"to"`
}

// NewQuestionMoved creates a QuestionMoved event
func NewQuestionMoved(questionnaireID string, version int, questionID string, from, to int, at time.Time) QuestionMoved {
	return QuestionMoved{
		BaseEvent:  newBase(questionnaireID, TypeQuestionMoved, version, at),
		QuestionID: questionID,
		From:       from,
		To:         to,
	}
}

// QuestionsConnected is raised when an edge is accepted
type QuestionsConnected struct {
	BaseEvent
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Label    string `json:"label"`
}

// NewQuestionsConnected creates a QuestionsConnected event
func NewQuestionsConnected(questionnaireID string, version int, sourceID, targetID, label string, at time.Time) QuestionsConnected {
	return QuestionsConnected{
		BaseEvent: newBase(questionnaireID, TypeQuestionsConnected, version, at),
		SourceID:  sourceID,
		TargetID:  targetID,
		Label:     label,
	}
}

// ConnectionRemoved is raised when an edge is deleted
type ConnectionRemoved struct {
	BaseEvent
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
	Label    string `json:"label"`
}

// NewConnectionRemoved creates a ConnectionRemoved event
func NewConnectionRemoved(questionnaireID string, version int, sourceID, targetID, label string, at time.Time) ConnectionRemoved {
	return ConnectionRemoved{
		BaseEvent: newBase(questionnaireID, TypeConnectionRemoved, version, at),
		SourceID:  sourceID,
		TargetID:  targetID,
		Label:     label,
	}
}

// CriteriaUpdated is raised when a slot's criteria list is replaced
type CriteriaUpdated struct {
	BaseEvent
	QuestionID string   `json:"question_id"`
	Branch     string   `json:"branch"`
	Kinds      []string `json:"kinds"`
}

// NewCriteriaUpdated creates a CriteriaUpdated event
func NewCriteriaUpdated(questionnaireID string, version int, questionID, branch string, kinds []string, at time.Time) CriteriaUpdated {
	return CriteriaUpdated{
		BaseEvent:  newBase(questionnaireID, TypeCriteriaUpdated, version, at),
		QuestionID: questionID,
		Branch:     branch,
		Kinds:      kinds,
	}
}

// QuestionnaireImported is raised when a questionnaire is rebuilt from records
type QuestionnaireImported struct {
	BaseEvent
	Questions   int `json:"questions"`
	Edges       int `json:"edges"`
	Diagnostics int `json:"diagnostics"`
}

// NewQuestionnaireImported creates a QuestionnaireImported event
func NewQuestionnaireImported(questionnaireID string, version, questions, edges, diagnostics int, at time.Time) QuestionnaireImported {
	return QuestionnaireImported{
		BaseEvent:   newBase(questionnaireID, TypeQuestionnaireImported, version, at),
		Questions:   questions,
		Edges:       edges,
		Diagnostics: diagnostics,
	}
}
