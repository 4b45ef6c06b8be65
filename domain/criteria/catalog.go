package criteria

import (
	"questionnaire-builder/domain/core/valueobjects"
)

// Option is a kind paired with its label, for pickers.
type Option struct {
	Value Kind   `json:"value"`
	Label string `json:"label"`
}

// minimalKinds is returned when neither the type nor any tag contributes a
// kind, so an edge can always be typed.
var minimalKinds = []Kind{BoolYes, BoolNo, ListValueSet, ListValueNotSet}

// Catalog maps a question's type and tags to the criteria kinds its
// outgoing edges may carry.
type Catalog struct {
	typeKinds map[valueobjects.QuestionType][]Kind
	tagKinds  map[valueobjects.Tag][]Kind
}

// DefaultCatalog returns the standard type and tag mappings.
func DefaultCatalog() *Catalog {
	listKinds := []Kind{ListValueSet, ListValueNotSet, AnyListValueSet, NoListValueSet}
	ageKinds := []Kind{AgeGTE, AgeLT}
	bmiKinds := []Kind{BMIGTE, BMILT}

	return &Catalog{
		typeKinds: map[valueobjects.QuestionType][]Kind{
			valueobjects.TypeNumber:       ageKinds,
			valueobjects.TypeFloat:        ageKinds,
			valueobjects.TypeSingleSelect: listKinds,
			valueobjects.TypeMultiSelect:  listKinds,
		},
		tagKinds: map[valueobjects.Tag][]Kind{
			valueobjects.TagDemographicGender:    {GenderFemale, GenderNotFemale},
			valueobjects.TagDemographicDOB:       {AgeGTE, AgeLT, TimePassedGTE, TimePassedLT},
			valueobjects.TagObservationHeight:    bmiKinds,
			valueobjects.TagObservationWeight:    bmiKinds,
			valueobjects.TagEthnicity:            {EthnicitySet, EthnicityNotSet},
			valueobjects.TagRecentlyOnMedication: {RecentMedicationUsageIndicated, RecentMedicationUsageNotIndicated},
			valueobjects.TagAddress:              {ColdChainServiceableTrue, ColdChainServiceableFalse},
		},
	}
}

// LegalKinds resolves the ordered, de-duplicated kinds legal on edges
// leaving a question of type t carrying tags.
func (c *Catalog) LegalKinds(t valueobjects.QuestionType, tags []valueobjects.Tag) []Kind {
	seen := make(map[Kind]struct{})
	out := make([]Kind, 0, 8)
	add := func(kinds []Kind) {
		for _, k := range kinds {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, k)
		}
	}

	add(c.typeKinds[t])
	for _, tag := range tags {
		add(c.tagKinds[tag])
	}

	if len(out) == 0 {
		return append([]Kind(nil), minimalKinds...)
	}
	add([]Kind{BoolYes, BoolNo})
	return out
}

// IsLegal reports whether k may gate an edge leaving such a question.
func (c *Catalog) IsLegal(k Kind, t valueobjects.QuestionType, tags []valueobjects.Tag) bool {
	for _, legal := range c.LegalKinds(t, tags) {
		if legal == k {
			return true
		}
	}
	return false
}

// Options is LegalKinds with labels attached.
func (c *Catalog) Options(t valueobjects.QuestionType, tags []valueobjects.Tag) []Option {
	return toOptions(c.LegalKinds(t, tags))
}

// TagKinds returns the kinds a single tag unlocks.
func (c *Catalog) TagKinds(tag valueobjects.Tag) []Kind {
	return append([]Kind(nil), c.tagKinds[tag]...)
}

// TypeKinds returns the base kinds of a question type.
func (c *Catalog) TypeKinds(t valueobjects.QuestionType) []Kind {
	return append([]Kind(nil), c.typeKinds[t]...)
}

// AllOptions lists the whole registry with labels.
func AllOptions() []Option {
	return toOptions(AllKinds())
}

func toOptions(kinds []Kind) []Option {
	out := make([]Option, 0, len(kinds))
	for _, k := range kinds {
		out = append(out, Option{Value: k, Label: MustLabel(k)})
	}
	return out
}
