package valueobjects

import "fmt"

// QuestionType is the answer type of a question. It decides the connection
// shape (boolean questions branch, everything else is linear) and part of
// the criteria a question's edges may carry.
type QuestionType string

const (
	TypeLongText     QuestionType = "long_text"
	TypeShortText    QuestionType = "short_text"
	TypeSingleSelect QuestionType = "single_selection_list"
	TypeMultiSelect  QuestionType = "multi_selection_list"
	TypeBoolean      QuestionType = "boolean"
	TypeNumber       QuestionType = "number"
	TypeFloat        QuestionType = "float"
	TypeDate         QuestionType = "date"
	TypeTime         QuestionType = "time"
	TypeDateTime     QuestionType = "datetime"
	TypeDeadEnd      QuestionType = "dead_end"
)

// DefaultQuestionType is used for new questions and for imported questions
// whose type is missing.
const DefaultQuestionType = TypeLongText

var questionTypes = []QuestionType{
	TypeLongText, TypeShortText, TypeSingleSelect, TypeMultiSelect, TypeBoolean,
	TypeNumber, TypeFloat, TypeDate, TypeTime, TypeDateTime, TypeDeadEnd,
}

// AllQuestionTypes returns every supported type in display order.
func AllQuestionTypes() []QuestionType {
	out := make([]QuestionType, len(questionTypes))
	copy(out, questionTypes)
	return out
}

// ParseQuestionType validates a raw type string.
func ParseQuestionType(s string) (QuestionType, error) {
	for _, t := range questionTypes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown question type %q", s)
}

// IsValid reports whether t is one of the supported types.
func (t QuestionType) IsValid() bool {
	_, err := ParseQuestionType(string(t))
	return err == nil
}

// IsBoolean reports whether questions of this type branch on yes/no.
func (t QuestionType) IsBoolean() bool {
	return t == TypeBoolean
}

// IsList reports whether the type offers selectable options.
func (t QuestionType) IsList() bool {
	return t == TypeSingleSelect || t == TypeMultiSelect
}

// IsNumeric reports whether the type holds a number.
func (t QuestionType) IsNumeric() bool {
	return t == TypeNumber || t == TypeFloat
}

// IsTemporal reports whether the type holds a date and/or time.
func (t QuestionType) IsTemporal() bool {
	return t == TypeDate || t == TypeTime || t == TypeDateTime
}

// Branches returns the connection slots a question of this type has.
func (t QuestionType) Branches() []Branch {
	if t.IsBoolean() {
		return []Branch{BranchYes, BranchNo}
	}
	return []Branch{BranchNext}
}

// HasBranch reports whether b is a slot of this type's connection shape.
func (t QuestionType) HasBranch(b Branch) bool {
	for _, candidate := range t.Branches() {
		if candidate == b {
			return true
		}
	}
	return false
}

// String returns the wire representation
func (t QuestionType) String() string {
	return string(t)
}
