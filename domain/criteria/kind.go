// Package criteria holds the trigger-criteria kinds that can gate an edge,
// their display labels and configuration shapes, and the catalog deciding
// which kinds are legal for a question.
package criteria

import (
	pkgerrors "questionnaire-builder/pkg/errors"
)

// Kind discriminates a trigger criterion.
type Kind string

const (
	AgeGTE                            Kind = "age_gte"
	AgeLT                             Kind = "age_lt"
	GenderFemale                      Kind = "gender_female"
	GenderNotFemale                   Kind = "gender_not_female"
	BoolYes                           Kind = "bool_yes"
	BoolNo                            Kind = "bool_no"
	ListValueSet                      Kind = "list_value_set"
	ListValueNotSet                   Kind = "list_value_not_set"
	AnyListValueSet                   Kind = "any_list_value_set"
	NoListValueSet                    Kind = "no_list_value_set"
	BMIGTE                            Kind = "bmi_gte"
	BMILT                             Kind = "bmi_lt"
	EthnicitySet                      Kind = "ethnicity_set"
	EthnicityNotSet                   Kind = "ethnicity_not_set"
	RecentMedicationUsageIndicated    Kind = "recent_medication_usage_indicated"
	RecentMedicationUsageNotIndicated Kind = "recent_medication_usage_not_indicated"
	Authenticated                     Kind = "Authenticated"
	Unauthenticated                   Kind = "Unauthenticated"
	ColdChainServiceableTrue          Kind = "Cold Chain Serviceable True"
	ColdChainServiceableFalse         Kind = "Cold Chain Serviceable False"
	TimePassedGTE                     Kind = "Time passed greater than or equal"
	TimePassedLT                      Kind = "Time passed less than"
)

type kindInfo struct {
	kind  Kind
	label string
	shape Shape
}

// registry order is the catalog's display order.
var registry = []kindInfo{
	{AgeGTE, "Age greater than or equal", ShapeThreshold},
	{AgeLT, "Age less than", ShapeThreshold},
	{GenderFemale, "Gender is female", ShapeEmpty},
	{GenderNotFemale, "Gender is not female", ShapeEmpty},
	{BoolYes, "Boolean yes", ShapeEmpty},
	{BoolNo, "Boolean no", ShapeEmpty},
	{ListValueSet, "List value set", ShapeOptions},
	{ListValueNotSet, "List value not set", ShapeOptions},
	{AnyListValueSet, "Any list value set", ShapeEmpty},
	{NoListValueSet, "No list value set", ShapeEmpty},
	{BMIGTE, "BMI greater than or equal", ShapeThreshold},
	{BMILT, "BMI less than", ShapeThreshold},
	{EthnicitySet, "Ethnicity set", ShapeListValues},
	{EthnicityNotSet, "Ethnicity not set", ShapeListValues},
	{RecentMedicationUsageIndicated, "Recent medication usage indicated", ShapeEmpty},
	{RecentMedicationUsageNotIndicated, "Recent medication usage not indicated", ShapeEmpty},
	{Authenticated, "Authenticated", ShapeEmpty},
	{Unauthenticated, "Unauthenticated", ShapeEmpty},
	{ColdChainServiceableTrue, "Cold Chain Serviceable True", ShapeEmpty},
	{ColdChainServiceableFalse, "Cold Chain Serviceable False", ShapeEmpty},
	{TimePassedGTE, "Time passed greater than or equal", ShapeEmpty},
	{TimePassedLT, "Time passed less than", ShapeEmpty},
}

var (
	byKind  = make(map[Kind]kindInfo, len(registry))
	byLabel = make(map[string]Kind, len(registry))
)

func init() {
	for _, info := range registry {
		byKind[info.kind] = info
		byLabel[info.label] = info.kind
	}
}

// AllKinds returns every registered kind in display order.
func AllKinds() []Kind {
	out := make([]Kind, len(registry))
	for i, info := range registry {
		out[i] = info.kind
	}
	return out
}

// ParseKind validates a raw kind value.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsKnown() {
		return "", pkgerrors.UnknownCriterionKind(s)
	}
	return k, nil
}

// IsKnown reports whether the kind is registered.
func (k Kind) IsKnown() bool {
	_, ok := byKind[k]
	return ok
}

// Label returns the display label of a kind. Looking up an unregistered kind
// is a caller error.
func Label(k Kind) (string, error) {
	info, ok := byKind[k]
	if !ok {
		return "", pkgerrors.UnknownCriterionKind(string(k))
	}
	return info.label, nil
}

// MustLabel is Label for kinds that come from this package's constants.
func MustLabel(k Kind) string {
	label, err := Label(k)
	if err != nil {
		panic(err)
	}
	return label
}

// KindForLabel maps a display label back to its kind. Wire records carry
// labels, not kind values.
func KindForLabel(label string) (Kind, bool) {
	k, ok := byLabel[label]
	return k, ok
}

// ShapeOf returns the configuration shape required by the kind.
func ShapeOf(k Kind) (Shape, error) {
	info, ok := byKind[k]
	if !ok {
		return "", pkgerrors.UnknownCriterionKind(string(k))
	}
	return info.shape, nil
}

// IsBranchMarker reports whether the kind marks a yes/no branch.
func (k Kind) IsBranchMarker() bool {
	return k == BoolYes || k == BoolNo
}

// String returns the kind value
func (k Kind) String() string {
	return string(k)
}
