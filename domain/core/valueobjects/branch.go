package valueobjects

import (
	"fmt"
	"strings"
)

// Branch names a connection slot of a question.
type Branch string

const (
	BranchNext Branch = "next"
	BranchYes  Branch = "yes"
	BranchNo   Branch = "no"
)

// ParseBranch accepts a slot name in any case.
func ParseBranch(s string) (Branch, error) {
	switch Branch(strings.ToLower(strings.TrimSpace(s))) {
	case BranchNext:
		return BranchNext, nil
	case BranchYes:
		return BranchYes, nil
	case BranchNo:
		return BranchNo, nil
	}
	return "", fmt.Errorf("unknown branch %q", s)
}

// Label returns the edge label that writes into this slot.
func (b Branch) Label() EdgeLabel {
	switch b {
	case BranchYes:
		return LabelYes
	case BranchNo:
		return LabelNo
	default:
		return LabelNext
	}
}

// IsBranching reports whether the slot belongs to the yes/no pair.
func (b Branch) IsBranching() bool {
	return b == BranchYes || b == BranchNo
}

// EdgeLabel is the label a proposed edge carries in the live editor.
type EdgeLabel string

const (
	LabelNext EdgeLabel = "Next"
	LabelYes  EdgeLabel = "Yes"
	LabelNo   EdgeLabel = "No"
)

// ParseEdgeLabel accepts "Next", "Yes" or "No" in any case.
func ParseEdgeLabel(s string) (EdgeLabel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "next":
		return LabelNext, nil
	case "yes":
		return LabelYes, nil
	case "no":
		return LabelNo, nil
	}
	return "", fmt.Errorf("unknown edge label %q", s)
}

// Branch returns the slot this label writes into.
func (l EdgeLabel) Branch() Branch {
	switch l {
	case LabelYes:
		return BranchYes
	case LabelNo:
		return BranchNo
	default:
		return BranchNext
	}
}

// String returns the label text
func (l EdgeLabel) String() string {
	return string(l)
}
