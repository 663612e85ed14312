// Package etag computes the ETags guarding read-modify-write cycles on the
// registry API.
package etag

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
)

// Hash is the hex sha256 of the JSON encoding of data.
func Hash(data interface{}) (string, error) {
	body, err := json.Marshal(data)
	if err != nil {
		return "", errors.WithStack(err)
	}
	sum := sha256.Sum256(append(body, '\n'))
	return hex.EncodeToString(sum[:]), nil
}

// Check compares the If-Match header of r with the hash of data. A request
// without the header always passes.
func Check(r *http.Request, data interface{}) error {
	match := r.Header.Get("If-Match")
	if match == "" {
		return nil
	}
	hash, err := Hash(data)
	if err != nil {
		return errors.WithStack(err)
	}
	if hash != match {
		return errors.Errorf("etag doesn't match: %q vs %q", hash, match)
	}
	return nil
}
