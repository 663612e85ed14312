package net_test

import (
	"testing"

	"github.com/spoke-d/dispatchd/internal/net"
)

func TestEnsureHTTP(t *testing.T) {
	for input, expected := range map[string]string{
		"127.0.0.1:8080":          "http://127.0.0.1:8080",
		"http://registry:8080/":   "http://registry:8080",
		"https://registry":        "https://registry",
		"registry.internal:9000/": "http://registry.internal:9000",
	} {
		if actual := net.EnsureHTTP(input); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	}
}

func TestWebsocketURL(t *testing.T) {
	for input, expected := range map[string]string{
		"127.0.0.1:8080":   "ws://127.0.0.1:8080",
		"http://registry":  "ws://registry",
		"https://registry": "wss://registry",
	} {
		if actual := net.WebsocketURL(input); expected != actual {
			t.Errorf("expected: %v, actual: %v", expected, actual)
		}
	}
}
