package records

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// PrimaryKey is a synthetic record identifier. The wire format allows both
// strings and integers; the key remembers which one it was given so it
// encodes back the same way.
type PrimaryKey struct {
	text    string
	number  int64
	numeric bool
}

// StringKey builds a string primary key.
func StringKey(s string) PrimaryKey { return PrimaryKey{text: s} }

// IntKey builds an integer primary key.
func IntKey(n int64) PrimaryKey { return PrimaryKey{number: n, numeric: true} }

// String returns the canonical text form used for reference matching, so
// 2100 and "2100" resolve to each other.
func (k PrimaryKey) String() string {
	if k.numeric {
		return strconv.FormatInt(k.number, 10)
	}
	return k.text
}

// IsZero reports whether the key is unset.
func (k PrimaryKey) IsZero() bool { return !k.numeric && k.text == "" }

// IsNumeric reports whether the key was given as an integer.
func (k PrimaryKey) IsNumeric() bool { return k.numeric }

// MarshalJSON writes integers as numbers, strings as strings and the zero
// key as null.
func (k PrimaryKey) MarshalJSON() ([]byte, error) {
	if k.IsZero() {
		return []byte("null"), nil
	}
	if k.numeric {
		return []byte(strconv.FormatInt(k.number, 10)), nil
	}
	return json.Marshal(k.text)
}

// UnmarshalJSON accepts a string, an integral number or null.
func (k *PrimaryKey) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*k = PrimaryKey{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*k = StringKey(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("primary key must be a string or an integer: %w", err)
	}
	i, err := n.Int64()
	if err != nil {
		return fmt.Errorf("primary key %s is not an integer", n)
	}
	*k = IntKey(i)
	return nil
}
