package valueobjects

// TypeParams holds the type-specific answer parameters of a question.
// Only the fields relevant to the question type are meaningful.
type TypeParams struct {
	// list types
	Other     bool
	Exclusive []string

	// number and float
	Min           *float64
	Max           *float64
	DecimalPlaces *int

	// date, time and datetime
	Format string
}

// DefaultTypeParams returns the parameters a freshly typed question starts with.
func DefaultTypeParams(t QuestionType) TypeParams {
	switch t {
	case TypeSingleSelect, TypeMultiSelect:
		return TypeParams{Exclusive: []string{}}
	case TypeFloat:
		places := 2
		return TypeParams{DecimalPlaces: &places}
	case TypeDate:
		return TypeParams{Format: "YYYY-MM-DD"}
	case TypeTime:
		return TypeParams{Format: "HH:mm"}
	case TypeDateTime:
		return TypeParams{Format: "YYYY-MM-DD HH:mm"}
	default:
		return TypeParams{}
	}
}

// Clone returns a deep copy.
func (p TypeParams) Clone() TypeParams {
	cp := p
	if p.Exclusive != nil {
		cp.Exclusive = append([]string(nil), p.Exclusive...)
	}
	if p.Min != nil {
		v := *p.Min
		cp.Min = &v
	}
	if p.Max != nil {
		v := *p.Max
		cp.Max = &v
	}
	if p.DecimalPlaces != nil {
		v := *p.DecimalPlaces
		cp.DecimalPlaces = &v
	}
	return cp
}
