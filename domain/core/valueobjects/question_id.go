package valueobjects

import (
	"encoding/json"
	"errors"
	"strings"
)

// QuestionID is the opaque identity of a question inside a questionnaire.
// Imported ids are kept verbatim, so no format is enforced beyond non-empty.
type QuestionID struct {
	value string
}

// NewQuestionID creates a QuestionID from an existing string
func NewQuestionID(id string) (QuestionID, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return QuestionID{}, errors.New("question ID cannot be empty")
	}
	return QuestionID{value: id}, nil
}

// MustQuestionID is NewQuestionID for ids known to be valid.
func MustQuestionID(id string) QuestionID {
	qid, err := NewQuestionID(id)
	if err != nil {
		panic(err)
	}
	return qid
}

// String returns the string representation of the QuestionID
func (id QuestionID) String() string {
	return id.value
}

// Equals checks if two QuestionIDs are equal
func (id QuestionID) Equals(other QuestionID) bool {
	return id.value == other.value
}

// IsZero checks if the QuestionID is the zero value
func (id QuestionID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id QuestionID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(id.value)
}

// UnmarshalJSON implements json.Unmarshaler
func (id *QuestionID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = QuestionID{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("QuestionID must be a string")
	}
	id.value = s
	return nil
}
