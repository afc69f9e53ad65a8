package fna

import (
	"database/sql/driver"
	"fmt"
	"strings"
)

// TriState is a yes/no answer that may not have been given yet.
type TriState int8

const (
	Unknown TriState = iota
	Yes
	No
)

// TriStateOf converts a nullable bool.
func TriStateOf(b *bool) TriState {
	switch {
	case b == nil:
		return Unknown
	case *b:
		return Yes
	default:
		return No
	}
}

// Bool reports the answer and whether one was given.
func (t TriState) Bool() (value, ok bool) {
	switch t {
	case Yes:
		return true, true
	case No:
		return false, true
	default:
		return false, false
	}
}

func (t TriState) String() string {
	switch t {
	case Yes:
		return "Yes"
	case No:
		return "No"
	default:
		return "Unknown"
	}
}

// Value stores Unknown as NULL.
func (t TriState) Value() (driver.Value, error) {
	if v, ok := t.Bool(); ok {
		return v, nil
	}
	return nil, nil
}

// Scan accepts NULL, booleans, SQLite integers and textual booleans.
func (t *TriState) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Unknown
	case bool:
		*t = boolState(v)
	case int64:
		*t = boolState(v != 0)
	case []byte:
		return t.scanText(string(v))
	case string:
		return t.scanText(v)
	default:
		return fmt.Errorf("scan tristate: unsupported type %T", src)
	}
	return nil
}

func (t *TriState) scanText(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		*t = Unknown
	case "t", "true", "1", "yes":
		*t = Yes
	case "f", "false", "0", "no":
		*t = No
	default:
		return fmt.Errorf("scan tristate: invalid value %q", s)
	}
	return nil
}

func boolState(b bool) TriState {
	if b {
		return Yes
	}
	return No
}
