package etag_test

import (
	"net/http/httptest"
	"testing"

	"github.com/spoke-d/dispatchd/internal/etag"
	"github.com/stretchr/testify/require"
)

func TestHashIsStable(t *testing.T) {
	a, err := etag.Hash(map[string]interface{}{"b": 2, "a": 1})
	require.NoError(t, err)
	b, err := etag.Hash(map[string]interface{}{"a": 1, "b": 2})
	require.NoError(t, err)
	if expected, actual := a, b; expected != actual {
		t.Errorf("expected: %q, actual: %q", expected, actual)
	}
	if expected, actual := 64, len(a); expected != actual {
		t.Errorf("expected: %d, actual: %d", expected, actual)
	}
}

func TestCheck(t *testing.T) {
	data := map[string]string{"dispatch.interval": "10"}
	hash, err := etag.Hash(data)
	require.NoError(t, err)

	req := httptest.NewRequest("PUT", "/1.0/config", nil)
	require.NoError(t, etag.Check(req, data))

	req.Header.Set("If-Match", hash)
	require.NoError(t, etag.Check(req, data))

	req.Header.Set("If-Match", "stale")
	if err := etag.Check(req, data); err == nil {
		t.Error("expected err not to be nil")
	}
}
