// Package config holds typed key/value settings validated against a
// schema. Values are stored as strings and unset keys fall back to their
// defaults.
package config

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Type of the value held by a Key.
type Type int

// Value types. String is the zero value.
const (
	String Type = iota
	Bool
	Int64
	List
)

// Key describes a single setting.
type Key struct {
	Type    Type
	Default string

	// Validator, when set, is called with every new value, or with the
	// default when the key is unset.
	Validator func(string) error
}

// Schema declares every setting a Map accepts.
type Schema map[string]Key

func (s Schema) key(name string, kind Type) (Key, error) {
	key, ok := s[name]
	if !ok {
		return Key{}, errors.Errorf("attempt to access unknown key %q", name)
	}
	if key.Type != kind {
		return Key{}, errors.Errorf("key '%s' has type code %d, not %d", name, key.Type, kind)
	}
	return key, nil
}

func (k Key) validate(value string) error {
	if value == "" {
		value = k.Default
	} else {
		switch k.Type {
		case String, List:
		case Bool:
			if _, ok := booleans[strings.ToLower(value)]; !ok {
				return errors.Errorf("invalid boolean")
			}
		case Int64:
			if _, err := strconv.ParseInt(value, 10, 64); err != nil {
				return errors.Errorf("invalid integer")
			}
		default:
			return errors.Errorf("unexpected value type: %d", k.Type)
		}
	}
	if k.Validator == nil {
		return nil
	}
	return k.Validator(value)
}

// booleans maps every accepted spelling to its truth value.
var booleans = map[string]bool{
	"true": true, "false": false,
	"1": true, "0": false,
	"yes": true, "no": false,
	"on": true, "off": false,
}

func normalize(key Key, value string) string {
	if key.Type != Bool {
		return value
	}
	return strconv.FormatBool(booleans[strings.ToLower(value)])
}
