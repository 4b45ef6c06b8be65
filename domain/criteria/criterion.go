package criteria

import (
	"fmt"
	"reflect"

	pkgerrors "questionnaire-builder/pkg/errors"
)

// Criterion is a typed trigger condition attached to a connection slot.
type Criterion struct {
	Kind   Kind
	Config Config
}

// New builds a criterion, checking that the payload shape matches the kind.
// A nil config is replaced with the kind's default payload.
func New(k Kind, cfg Config) (Criterion, error) {
	shape, err := ShapeOf(k)
	if err != nil {
		return Criterion{}, err
	}
	if cfg == nil {
		return Criterion{Kind: k, Config: defaultForShape(shape)}, nil
	}
	if cfg.Shape() != shape {
		return Criterion{}, pkgerrors.NewDomainError(
			pkgerrors.DomainValidationError,
			"CRITERION_CONFIG_MISMATCH",
			fmt.Sprintf("%s requires a %s config, got %s", k, shape, cfg.Shape()),
		).WithDetail("kind", string(k))
	}
	return Criterion{Kind: k, Config: cfg}, nil
}

// Marker returns the empty criterion for a branch marker kind.
func Marker(k Kind) Criterion {
	return Criterion{Kind: k, Config: EmptyConfig{}}
}

// Label returns the display label of the criterion's kind.
func (c Criterion) Label() string {
	label, err := Label(c.Kind)
	if err != nil {
		return string(c.Kind)
	}
	return label
}

// Equal compares kind and payload.
func (c Criterion) Equal(other Criterion) bool {
	return c.Kind == other.Kind && reflect.DeepEqual(WireConfig(c.Config), WireConfig(other.Config))
}

// Clone returns a copy whose slices are not shared.
func (c Criterion) Clone() Criterion {
	switch cfg := c.Config.(type) {
	case OptionsConfig:
		cp := OptionsConfig{Selected: append([]string{}, cfg.Selected...)}
		if cfg.OtherValue != nil {
			v := *cfg.OtherValue
			cp.OtherValue = &v
		}
		return Criterion{Kind: c.Kind, Config: cp}
	case ListValuesConfig:
		return Criterion{Kind: c.Kind, Config: ListValuesConfig{Values: append([]string{}, cfg.Values...)}}
	default:
		return c
	}
}

// CloneList copies a criteria list.
func CloneList(in []Criterion) []Criterion {
	if in == nil {
		return nil
	}
	out := make([]Criterion, len(in))
	for i, c := range in {
		out[i] = c.Clone()
	}
	return out
}
