package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Map holds the values of the keys of a Schema.
type Map struct {
	schema Schema
	values map[string]string
}

// New loads previously stored values into a Map. Invalid values are
// reported in an ErrorList while the valid ones are still loaded.
func New(schema Schema, values map[string]string) (Map, error) {
	m := Map{
		schema: schema,
		values: make(map[string]string, len(values)),
	}
	_, err := m.update(values)
	return m, err
}

// Change replaces every value of the Map. Keys missing from changes, or
// set to nil, go back to their default. It returns the keys whose value
// actually changed, together with the new values. A key back at its
// default maps to the empty string.
func (m *Map) Change(changes map[string]interface{}) (map[string]string, error) {
	values := make(map[string]string, len(m.schema))

	var errs ErrorList
	for name, change := range changes {
		switch v := change.(type) {
		case nil:
			values[name] = ""
		case string:
			values[name] = v
		default:
			errs.Add(name, nil, fmt.Sprintf("invalid type %T", v))
		}
	}
	if len(errs) > 0 {
		errs.sort()
		return nil, errs
	}
	for name, key := range m.schema {
		if _, ok := values[name]; !ok {
			values[name] = key.Default
		}
	}

	names, err := m.update(values)
	changed := make(map[string]string, len(names))
	for _, name := range names {
		changed[name] = m.values[name]
	}
	return changed, err
}

// Dump returns the keys whose value differs from the default.
func (m *Map) Dump() (map[string]interface{}, error) {
	values := make(map[string]interface{})
	for name, key := range m.schema {
		if value := m.raw(name); value != key.Default {
			values[name] = value
		}
	}
	return values, nil
}

// GetRaw returns the string form of the value of any key.
func (m *Map) GetRaw(name string) (string, error) {
	if _, ok := m.schema[name]; !ok {
		return "", errors.Errorf("attempt to access unknown key %q", name)
	}
	return m.raw(name), nil
}

// GetBool returns the value of a Bool key.
func (m *Map) GetBool(name string) (bool, error) {
	if _, err := m.schema.key(name, Bool); err != nil {
		return false, errors.WithStack(err)
	}
	return booleans[strings.ToLower(m.raw(name))], nil
}

// GetInt64 returns the value of an Int64 key.
func (m *Map) GetInt64(name string) (int64, error) {
	if _, err := m.schema.key(name, Int64); err != nil {
		return -1, errors.WithStack(err)
	}
	n, err := strconv.ParseInt(m.raw(name), 10, 64)
	if err != nil {
		return -1, errors.Wrap(err, "cannot convert to int64")
	}
	return n, nil
}

// GetSeconds reads an Int64 key as a number of seconds.
func (m *Map) GetSeconds(name string) (time.Duration, error) {
	n, err := m.GetInt64(name)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return time.Duration(n) * time.Second, nil
}

// GetList returns the comma separated entries of a List key. Blank entries
// are dropped.
func (m *Map) GetList(name string) ([]string, error) {
	if _, err := m.schema.key(name, List); err != nil {
		return nil, errors.WithStack(err)
	}
	var values []string
	for _, value := range strings.Split(m.raw(name), ",") {
		if value = strings.TrimSpace(value); value != "" {
			values = append(values, value)
		}
	}
	return values, nil
}

// Clone returns a copy that can be read while the original changes.
func (m *Map) Clone() Map {
	values := make(map[string]string, len(m.values))
	for k, v := range m.values {
		values[k] = v
	}
	return Map{
		schema: m.schema,
		values: values,
	}
}

func (m *Map) raw(name string) string {
	if value, ok := m.values[name]; ok {
		return value
	}
	return m.schema[name].Default
}

// update sets every given value and returns the sorted names of the keys
// that changed. An empty value resets a key to its default.
func (m *Map) update(values map[string]string) ([]string, error) {
	var (
		errs  ErrorList
		names []string
	)
	for name, value := range values {
		key, ok := m.schema[name]
		if !ok {
			errs.Add(name, value, fmt.Sprintf("unknown key %q", name))
			continue
		}
		if err := key.validate(value); err != nil {
			errs.Add(name, value, err.Error())
			continue
		}
		if value == "" {
			value = key.Default
		}
		if normalize(key, value) == normalize(key, m.raw(name)) {
			continue
		}
		if value == key.Default {
			delete(m.values, name)
		} else {
			m.values[name] = value
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(errs) > 0 {
		errs.sort()
		return names, errs
	}
	return names, nil
}
