package records

import (
	"bytes"
	"encoding/json"
	"fmt"

	pkgerrors "questionnaire-builder/pkg/errors"
)

// SkipReason says why an entry was left out of a decoded document.
type SkipReason string

const (
	SkipUnknownModel SkipReason = "unknown_model"
	SkipMalformed    SkipReason = "malformed_record"
)

// Skipped describes an entry that could not become a record.
type Skipped struct {
	Index   int
	Model   Model
	PK      PrimaryKey
	Reason  SkipReason
	Message string
}

// Document is a decoded record list in input order.
type Document struct {
	Records []Record
	Skipped []Skipped
}

// Graph returns the first graph record, if any.
func (d *Document) Graph() (GraphRecord, bool) {
	for _, r := range d.Records {
		if g, ok := r.(GraphRecord); ok {
			return g, true
		}
	}
	return GraphRecord{}, false
}

// Count returns how many records of a model were decoded.
func (d *Document) Count(m Model) int {
	n := 0
	for _, r := range d.Records {
		if r.Model() == m {
			n++
		}
	}
	return n
}

type envelope struct {
	Model  Model           `json:"model"`
	PK     PrimaryKey      `json:"pk"`
	Fields json.RawMessage `json:"fields"`
}

// Decode parses a flat record list. Input that is not a JSON array, or that
// lacks any of the required models, fails as a whole with a structural
// error. Individual entries that cannot be decoded are reported in
// Document.Skipped and left out.
func Decode(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, pkgerrors.NewStructuralError("input is empty")
	}
	if !json.Valid(trimmed) {
		return nil, pkgerrors.NewStructuralError("input is not valid JSON")
	}
	if trimmed[0] != '[' {
		return nil, pkgerrors.NewStructuralError("record list must be a JSON array")
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, pkgerrors.NewStructuralError("record list must be a JSON array").WithCause(err)
	}

	doc := &Document{}
	envelopes := make([]*envelope, len(raw))
	present := make(map[Model]bool)
	for i, entry := range raw {
		var env envelope
		if err := json.Unmarshal(entry, &env); err != nil {
			doc.Skipped = append(doc.Skipped, Skipped{
				Index:   i,
				Reason:  SkipMalformed,
				Message: fmt.Sprintf("entry is not a record: %v", err),
			})
			continue
		}
		envelopes[i] = &env
		present[env.Model] = true
	}

	var missing []string
	for _, m := range RequiredModels {
		if !present[m] {
			missing = append(missing, string(m))
		}
	}
	if len(missing) > 0 {
		return nil, pkgerrors.NewStructuralError("invalid record list: missing required models").
			WithDetail("missing_models", missing)
	}

	for i, env := range envelopes {
		if env == nil {
			continue
		}
		if !env.Model.IsKnown() {
			doc.Skipped = append(doc.Skipped, Skipped{
				Index:   i,
				Model:   env.Model,
				PK:      env.PK,
				Reason:  SkipUnknownModel,
				Message: fmt.Sprintf("unknown model %q", env.Model),
			})
			continue
		}
		rec, err := decodeRecord(env)
		if err != nil {
			doc.Skipped = append(doc.Skipped, Skipped{
				Index:   i,
				Model:   env.Model,
				PK:      env.PK,
				Reason:  SkipMalformed,
				Message: err.Error(),
			})
			continue
		}
		doc.Records = append(doc.Records, rec)
	}
	return doc, nil
}

func decodeRecord(env *envelope) (Record, error) {
	if env.PK.IsZero() {
		return nil, fmt.Errorf("%s record has no pk", env.Model)
	}
	fields := bytes.TrimSpace(env.Fields)
	if len(fields) == 0 || bytes.Equal(fields, []byte("null")) {
		return nil, fmt.Errorf("%s record has no fields", env.Model)
	}

	switch env.Model {
	case ModelGraph:
		var f GraphFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return GraphRecord{PK: env.PK, Fields: f}, nil
	case ModelQuestion:
		var f QuestionFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return QuestionRecord{PK: env.PK, Fields: f}, nil
	case ModelNode:
		var f NodeFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return NodeRecord{PK: env.PK, Fields: f}, nil
	case ModelEdge:
		var f EdgeFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return EdgeRecord{PK: env.PK, Fields: f}, nil
	case ModelCriterion:
		var f CriterionFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return CriterionRecord{PK: env.PK, Fields: f}, nil
	case ModelQuestionTag:
		var f AnnotationFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return QuestionTagRecord{PK: env.PK, Fields: f}, nil
	case ModelQuestionLabel:
		var f AnnotationFields
		if err := json.Unmarshal(fields, &f); err != nil {
			return nil, err
		}
		return QuestionLabelRecord{PK: env.PK, Fields: f}, nil
	}
	return nil, fmt.Errorf("unknown model %q", env.Model)
}

// Encode writes records as an indented JSON array in the given order.
func Encode(recs []Record) ([]byte, error) {
	out := make([]envelope, 0, len(recs))
	for _, r := range recs {
		fields, err := json.Marshal(r.fields())
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", r.Model(), r.Key(), err)
		}
		out = append(out, envelope{Model: r.Model(), PK: r.Key(), Fields: fields})
	}
	return json.MarshalIndent(out, "", "  ")
}
