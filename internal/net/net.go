package net

import (
	"fmt"
	"strings"
)

// EnsureHTTP prefixes an address without a scheme with "http://" and
// strips any trailing slash, so it can be used as a base URL.
func EnsureHTTP(address string) string {
	address = strings.TrimSuffix(address, "/")
	if strings.HasPrefix(address, "http://") || strings.HasPrefix(address, "https://") {
		return address
	}
	return fmt.Sprintf("http://%s", address)
}

// WebsocketURL turns a base URL into the matching websocket URL.
func WebsocketURL(baseURL string) string {
	baseURL = EnsureHTTP(baseURL)
	if strings.HasPrefix(baseURL, "https://") {
		return "wss://" + strings.TrimPrefix(baseURL, "https://")
	}
	return "ws://" + strings.TrimPrefix(baseURL, "http://")
}
