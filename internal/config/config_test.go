package config_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spoke-d/dispatchd/internal/config"
)

var schema = config.Schema{
	"dispatch.interval": {Type: config.Int64, Default: "5"},
	"dispatch.rate": {Type: config.Int64, Default: "50", Validator: func(v string) error {
		if v == "0" {
			return errors.New("must be positive")
		}
		return nil
	}},
	"failover.error_states":         {Type: config.Bool, Default: "true"},
	"failover.no_error_state_types": {Type: config.List},
	"log.level":                     {Default: "info"},
}

func TestNew(t *testing.T) {
	m, err := config.New(schema, map[string]string{
		"dispatch.interval":     "10",
		"failover.error_states": "no",
	})
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}

	interval, err := m.GetSeconds("dispatch.interval")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := 10*time.Second, interval; expected != actual {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	rate, err := m.GetInt64("dispatch.rate")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := int64(50), rate; expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}

	errorStates, err := m.GetBool("failover.error_states")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := false, errorStates; expected != actual {
		t.Errorf("expected: %t, actual: %t", expected, actual)
	}
}

func TestNewWithErrors(t *testing.T) {
	m, err := config.New(schema, map[string]string{
		"dispatch.interval": "soon",
		"dispatch.rate":     "0",
		"unknown":           "1",
		"log.level":         "debug",
	})

	list, ok := err.(config.ErrorList)
	if !ok {
		t.Fatalf("expected an ErrorList, got %T", err)
	}
	var names []string
	for _, e := range list {
		names = append(names, e.Name)
	}
	if expected, actual := []string{"dispatch.interval", "dispatch.rate", "unknown"}, names; !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
	if expected, actual := "cannot set 'dispatch.interval' to 'soon': invalid integer (and 2 more errors)", err.Error(); expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}

	level, err := m.GetRaw("log.level")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := "debug", level; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}
}

func TestChange(t *testing.T) {
	m, err := config.New(schema, map[string]string{"dispatch.interval": "10", "log.level": "debug"})
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}

	changed, err := m.Change(map[string]interface{}{
		"dispatch.rate":         "20",
		"failover.error_states": "on",
		"log.level":             "debug",
	})
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	// dispatch.interval is missing from the change, so it is reset.
	expected := map[string]string{
		"dispatch.interval": "",
		"dispatch.rate":     "20",
	}
	if actual := changed; !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	dump, err := m.Dump()
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := map[string]interface{}{"dispatch.rate": "20", "log.level": "debug"}, dump; !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}
}

func TestChangeErrors(t *testing.T) {
	m, err := config.New(schema, nil)
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}

	for title, changes := range map[string]map[string]interface{}{
		"wrong type":    {"dispatch.rate": 10},
		"bad boolean":   {"failover.error_states": "maybe"},
		"validator":     {"dispatch.rate": "0"},
		"unknown key":   {"dispatch.speed": "1"},
		"bad int value": {"dispatch.interval": "1.5"},
	} {
		t.Run(title, func(t *testing.T) {
			if _, err := m.Change(changes); err == nil {
				t.Error("expected err")
			} else if _, ok := err.(config.ErrorList); !ok {
				t.Errorf("expected an ErrorList, got %T", err)
			}
		})
	}
}

func TestGetList(t *testing.T) {
	m, err := config.New(schema, map[string]string{"failover.no_error_state_types": "compose, ,inspect,"})
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}

	values, err := m.GetList("failover.no_error_state_types")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := []string{"compose", "inspect"}, values; !reflect.DeepEqual(expected, actual) {
		t.Errorf("expected: %v, actual: %v", expected, actual)
	}

	empty, _ := config.New(schema, nil)
	values, err = empty.GetList("failover.no_error_state_types")
	if err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	if expected, actual := 0, len(values); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}

func TestGetWrongType(t *testing.T) {
	m, _ := config.New(schema, nil)

	if _, err := m.GetList("dispatch.rate"); err == nil {
		t.Error("expected err")
	}
	if _, err := m.GetInt64("failover.error_states"); err == nil {
		t.Error("expected err")
	}
	if _, err := m.GetBool("missing"); err == nil {
		t.Error("expected err")
	}
	if _, err := m.GetRaw("missing"); err == nil {
		t.Error("expected err")
	}
}

func TestClone(t *testing.T) {
	m, _ := config.New(schema, nil)
	clone := m.Clone()

	if _, err := m.Change(map[string]interface{}{"dispatch.rate": "20"}); err != nil {
		t.Fatalf("expected err to be nil: %v", err)
	}
	rate, _ := clone.GetInt64("dispatch.rate")
	if expected, actual := int64(50), rate; expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}
