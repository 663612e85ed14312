package json_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/json"
	"github.com/stretchr/testify/require"
)

func TestRead(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.Read(strings.NewReader(`{"name":"worker"}`), &v))
	if expected, actual := "worker", v.Name; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}

	if err := json.Read(strings.NewReader(""), &v); err == nil {
		t.Errorf("expected err not to be nil")
	}
}

func TestWrite(t *testing.T) {
	rec := httptest.NewRecorder()
	err := json.Write(rec, map[string]int{"a": 1}, true, log.NewNopLogger())
	require.NoError(t, err)
	if expected, actual := "{\"a\":1}\n", rec.Body.String(); expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}
}
