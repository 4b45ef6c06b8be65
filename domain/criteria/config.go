package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Shape names the configuration payload a kind requires.
type Shape string

const (
	ShapeEmpty      Shape = "empty"
	ShapeThreshold  Shape = "threshold"
	ShapeOptions    Shape = "options"
	ShapeListValues Shape = "list_values"
)

// Config is the closed set of criterion configuration payloads.
type Config interface {
	Shape() Shape
	wire() map[string]interface{}
}

// EmptyConfig is carried by presence checks (boolean, gender, medication, ...).
type EmptyConfig struct{}

// ThresholdConfig is carried by age and BMI comparisons.
type ThresholdConfig struct {
	TriggerValue float64
}

// OptionsConfig is carried by list membership comparisons. Selected holds
// option labels, sorted and unique.
type OptionsConfig struct {
	Selected   []string
	OtherValue *string
}

// ListValuesConfig is carried by ethnicity checks.
type ListValuesConfig struct {
	Values []string
}

func (EmptyConfig) Shape() Shape      { return ShapeEmpty }
func (ThresholdConfig) Shape() Shape  { return ShapeThreshold }
func (OptionsConfig) Shape() Shape    { return ShapeOptions }
func (ListValuesConfig) Shape() Shape { return ShapeListValues }

func (EmptyConfig) wire() map[string]interface{} {
	return map[string]interface{}{}
}

func (c ThresholdConfig) wire() map[string]interface{} {
	return map[string]interface{}{"trigger_value": c.TriggerValue}
}

func (c OptionsConfig) wire() map[string]interface{} {
	selection := make(map[string]bool, len(c.Selected))
	for _, label := range c.Selected {
		selection[label] = true
	}
	var other interface{}
	if c.OtherValue != nil {
		other = *c.OtherValue
	}
	return map[string]interface{}{
		"options_selection": selection,
		"other_value":       other,
	}
}

func (c ListValuesConfig) wire() map[string]interface{} {
	values := c.Values
	if values == nil {
		values = []string{}
	}
	return map[string]interface{}{"list_values": values}
}

// NewOptionsConfig normalises the selected labels.
func NewOptionsConfig(selected []string, other *string) OptionsConfig {
	return OptionsConfig{Selected: normaliseLabels(selected), OtherValue: other}
}

func normaliseLabels(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// DefaultConfig returns the zero payload of the kind's shape.
func DefaultConfig(k Kind) (Config, error) {
	shape, err := ShapeOf(k)
	if err != nil {
		return nil, err
	}
	return defaultForShape(shape), nil
}

func defaultForShape(shape Shape) Config {
	switch shape {
	case ShapeThreshold:
		return ThresholdConfig{}
	case ShapeOptions:
		return OptionsConfig{Selected: []string{}}
	case ShapeListValues:
		return ListValuesConfig{Values: []string{}}
	default:
		return EmptyConfig{}
	}
}

// EncodeConfig renders a payload in its wire form.
func EncodeConfig(c Config) ([]byte, error) {
	if c == nil {
		c = EmptyConfig{}
	}
	return json.Marshal(c.wire())
}

// WireConfig returns the payload as a generic map, ready for embedding.
func WireConfig(c Config) map[string]interface{} {
	if c == nil {
		return EmptyConfig{}.wire()
	}
	return c.wire()
}

// DecodeConfig parses a wire payload into the shape required by kind.
// Fields that do not belong to the shape are ignored.
func DecodeConfig(k Kind, raw json.RawMessage) (Config, error) {
	shape, err := ShapeOf(k)
	if err != nil {
		return nil, err
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		if shape == ShapeThreshold {
			return nil, fmt.Errorf("%s requires trigger_value", k)
		}
		return defaultForShape(shape), nil
	}

	switch shape {
	case ShapeThreshold:
		var payload struct {
			TriggerValue interface{} `json:"trigger_value"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", k, err)
		}
		v, err := toFloat(payload.TriggerValue)
		if err != nil {
			return nil, fmt.Errorf("%s trigger_value: %w", k, err)
		}
		return ThresholdConfig{TriggerValue: v}, nil

	case ShapeOptions:
		var payload struct {
			OptionsSelection map[string]bool `json:"options_selection"`
			OtherValue       *string         `json:"other_value"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", k, err)
		}
		selected := make([]string, 0, len(payload.OptionsSelection))
		for label, on := range payload.OptionsSelection {
			if on {
				selected = append(selected, label)
			}
		}
		return NewOptionsConfig(selected, payload.OtherValue), nil

	case ShapeListValues:
		var payload struct {
			ListValues []string `json:"list_values"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", k, err)
		}
		if payload.ListValues == nil {
			payload.ListValues = []string{}
		}
		return ListValuesConfig{Values: payload.ListValues}, nil

	default:
		var payload map[string]interface{}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", k, err)
		}
		return EmptyConfig{}, nil
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("not a number: %q", t)
		}
		return f, nil
	case nil:
		return 0, fmt.Errorf("missing")
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
}
