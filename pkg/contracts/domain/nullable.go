package domain

import (
	"encoding/json"
	"strconv"
)

// NullString is an optional text cell. The zero value is missing.
type NullString struct {
	Value string
	Valid bool
}

// NullInt is an optional integer cell. The zero value is missing.
type NullInt struct {
	Value int
	Valid bool
}

// NullFloat is an optional numeric cell. The zero value is missing.
type NullFloat struct {
	Value float64
	Valid bool
}

// Str returns a present NullString.
func Str(s string) NullString { return NullString{Value: s, Valid: true} }

// Int returns a present NullInt.
func Int(n int) NullInt { return NullInt{Value: n, Valid: true} }

// Float returns a present NullFloat.
func Float(f float64) NullFloat { return NullFloat{Value: f, Valid: true} }

// String returns the value, or "" when missing.
func (n NullString) String() string {
	if !n.Valid {
		return ""
	}
	return n.Value
}

// String formats the value, or "" when missing.
func (n NullInt) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.Itoa(n.Value)
}

// String formats the value without trailing zeros, or "" when missing.
func (n NullFloat) String() string {
	if !n.Valid {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// MarshalJSON encodes a missing value as null.
func (n NullString) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a string.
func (n *NullString) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullString{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON encodes a missing value as null.
func (n NullInt) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a number.
func (n *NullInt) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullInt{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// MarshalJSON encodes a missing value as null.
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

// UnmarshalJSON accepts null or a number.
func (n *NullFloat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = NullFloat{}
		return nil
	}
	if err := json.Unmarshal(b, &n.Value); err != nil {
		return err
	}
	n.Valid = true
	return nil
}
