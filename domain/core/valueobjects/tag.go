package valueobjects

import "fmt"

// Tag is a domain attribute declared on a question. Some tags unlock extra
// criteria kinds on the question's outgoing edges.
type Tag string

const (
	TagAddress              Tag = "address"
	TagAllergies            Tag = "allergies"
	TagCurrentlyOnPill      Tag = "currently_on_pill"
	TagDemographicDOB       Tag = "demographic_dob"
	TagDemographicFullName  Tag = "demographic_full_name"
	TagDemographicGender    Tag = "demographic_gender"
	TagDemographicOther     Tag = "demographic_other"
	TagDVA                  Tag = "dva"
	TagEmail                Tag = "email"
	TagEScriptOnly          Tag = "eScript_only"
	TagEthnicity            Tag = "ethnicity"
	TagFamilyHistory        Tag = "family_history"
	TagMedicalHistory       Tag = "medical_history"
	TagMedicare             Tag = "medicare"
	TagMedication           Tag = "medication"
	TagMobile               Tag = "mobile"
	TagNibMembershipNumber  Tag = "nib_membership_number"
	TagObservationAlcohol   Tag = "observation_alcohol"
	TagObservationBP        Tag = "observation_bp"
	TagObservationHeight    Tag = "observation_height"
	TagObservationSmoking   Tag = "observation_smoking"
	TagObservationWaist     Tag = "observation_waist"
	TagObservationWeight    Tag = "observation_weight"
	TagOther                Tag = "other"
	TagPayment              Tag = "payment"
	TagPreferredProduct     Tag = "preferred_product"
	TagPreviouslyOnPill     Tag = "previously_on_pill"
	TagRecentlyOnMedication Tag = "recently_on_medication"
)

var knownTags = []Tag{
	TagAddress, TagAllergies, TagCurrentlyOnPill, TagDemographicDOB,
	TagDemographicFullName, TagDemographicGender, TagDemographicOther, TagDVA,
	TagEmail, TagEScriptOnly, TagEthnicity, TagFamilyHistory, TagMedicalHistory,
	TagMedicare, TagMedication, TagMobile, TagNibMembershipNumber,
	TagObservationAlcohol, TagObservationBP, TagObservationHeight,
	TagObservationSmoking, TagObservationWaist, TagObservationWeight, TagOther,
	TagPayment, TagPreferredProduct, TagPreviouslyOnPill, TagRecentlyOnMedication,
}

// AllTags returns the known tags in display order.
func AllTags() []Tag {
	out := make([]Tag, len(knownTags))
	copy(out, knownTags)
	return out
}

// ParseTag validates a raw tag string.
func ParseTag(s string) (Tag, error) {
	for _, t := range knownTags {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown tag %q", s)
}

// IsKnown reports whether t is one of the known tags.
func (t Tag) IsKnown() bool {
	_, err := ParseTag(string(t))
	return err == nil
}

// String returns the wire representation
func (t Tag) String() string {
	return string(t)
}
