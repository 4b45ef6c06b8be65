package validators

import (
	"questionnaire-builder/domain/core/valueobjects"
	"questionnaire-builder/pkg/errors"
)

// Rejection messages surfaced to the operator.
const (
	MsgBooleanNextEdge      = "boolean questions cannot take a plain successor edge"
	MsgDuplicateBranch      = "duplicate branch"
	MsgMultipleSuccessors   = "linear questions take at most one successor"
	MsgBranchOnLinearSource = "branch labels require a boolean source"
	MsgDuplicateConnection  = "duplicate connection"
)

// EdgeRef is an edge of the live graph.
type EdgeRef struct {
	Source valueobjects.QuestionID
	Target valueobjects.QuestionID
	Label  valueobjects.EdgeLabel
}

// Proposal is an edge the operator wants to add.
type Proposal struct {
	SourceType valueobjects.QuestionType
	Source     valueobjects.QuestionID
	Target     valueobjects.QuestionID
	Label      valueobjects.EdgeLabel
}

// ConnectionValidator decides whether a proposed edge may be committed.
// It is stateless; the caller supplies the edges already in the graph.
type ConnectionValidator struct{}

// NewConnectionValidator creates a connection validator
func NewConnectionValidator() *ConnectionValidator {
	return &ConnectionValidator{}
}

// Validate runs the rules in order and returns nil when the edge is
// accepted, or the first rule's rejection.
func (v *ConnectionValidator) Validate(p Proposal, existing []EdgeRef) error {
	boolean := p.SourceType.IsBoolean()

	if boolean && p.Label == valueobjects.LabelNext {
		return errors.ConnectionRejected(errors.CodeBooleanNextEdge, MsgBooleanNextEdge).
			WithDetail("source_id", p.Source.String())
	}

	if boolean && hasOutgoing(existing, p.Source, p.Label) {
		return errors.ConnectionRejected(errors.CodeDuplicateBranch, MsgDuplicateBranch).
			WithDetail("source_id", p.Source.String()).
			WithDetail("label", p.Label.String())
	}

	if p.Label == valueobjects.LabelNext && hasOutgoing(existing, p.Source, valueobjects.LabelNext) {
		return errors.ConnectionRejected(errors.CodeMultipleSuccessors, MsgMultipleSuccessors).
			WithDetail("source_id", p.Source.String())
	}

	if !boolean && (p.Label == valueobjects.LabelYes || p.Label == valueobjects.LabelNo) {
		return errors.ConnectionRejected(errors.CodeBranchOnLinearSource, MsgBranchOnLinearSource).
			WithDetail("source_id", p.Source.String()).
			WithDetail("source_type", p.SourceType.String())
	}

	for _, e := range existing {
		if e.Source.Equals(p.Source) && e.Target.Equals(p.Target) && e.Label == p.Label {
			return errors.ConnectionRejected(errors.CodeDuplicateConnection, MsgDuplicateConnection).
				WithDetail("source_id", p.Source.String()).
				WithDetail("target_id", p.Target.String())
		}
	}

	return nil
}

func hasOutgoing(existing []EdgeRef, source valueobjects.QuestionID, label valueobjects.EdgeLabel) bool {
	for _, e := range existing {
		if e.Source.Equals(source) && e.Label == label {
			return true
		}
	}
	return false
}
