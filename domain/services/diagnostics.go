package services

import (
	"fmt"

	"questionnaire-builder/domain/records"
)

// DiagnosticCode identifies a lenient import decision that lost or
// reinterpreted data.
type DiagnosticCode string

const (
	DiagUnknownModel              DiagnosticCode = "unknown_model"
	DiagMalformedRecord           DiagnosticCode = "malformed_record"
	DiagDuplicateRecord           DiagnosticCode = "duplicate_record"
	DiagUnknownQuestionType       DiagnosticCode = "unknown_question_type"
	DiagUnknownTag                DiagnosticCode = "unknown_tag"
	DiagDanglingTagReference      DiagnosticCode = "dangling_tag_reference"
	DiagDanglingNodeReference     DiagnosticCode = "dangling_node_reference"
	DiagDanglingEdgeEndpoint      DiagnosticCode = "dangling_edge_endpoint"
	DiagDanglingCriterionEdge     DiagnosticCode = "dangling_criterion_edge"
	DiagUnknownCriterionLabel     DiagnosticCode = "unknown_criterion_label"
	DiagInvalidCriterionConfig    DiagnosticCode = "invalid_criterion_config"
	DiagDuplicateLinearEdge       DiagnosticCode = "duplicate_linear_edge"
	DiagDualBooleanCollapsed      DiagnosticCode = "dual_boolean_collapsed"
	DiagBranchOnLinearSource      DiagnosticCode = "branch_on_linear_source"
	DiagLinearEdgeOnBooleanSource DiagnosticCode = "linear_edge_on_boolean_source"
	DiagDuplicateBranchEdge       DiagnosticCode = "duplicate_branch_edge"
)

// Diagnostic is a warning raised while importing. It never fails the
// import.
type Diagnostic struct {
	Code    DiagnosticCode `json:"code"`
	Model   string         `json:"model,omitempty"`
	PK      string         `json:"pk,omitempty"`
	Message string         `json:"message"`
}

type diagnostics []Diagnostic

func (d *diagnostics) add(code DiagnosticCode, model records.Model, pk records.PrimaryKey, format string, args ...interface{}) {
	*d = append(*d, Diagnostic{
		Code:    code,
		Model:   string(model),
		PK:      pk.String(),
		Message: fmt.Sprintf(format, args...),
	})
}

// CountByCode tallies diagnostics per code.
func CountByCode(diags []Diagnostic) map[DiagnosticCode]int {
	out := make(map[DiagnosticCode]int)
	for _, d := range diags {
		out[d.Code]++
	}
	return out
}
