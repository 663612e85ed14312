package client

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// ResponseType represents a valid response type
type ResponseType string

// Response types
const (
	SyncResponse  ResponseType = "sync"
	ErrorResponse ResponseType = "error"
)

// Response is the envelope every REST answer is wrapped in.
type Response struct {
	Type ResponseType `json:"type" yaml:"type"`

	// Valid only for Sync responses
	Status     string `json:"status" yaml:"status"`
	StatusCode int    `json:"status_code" yaml:"status_code"`

	// Valid only for Error responses
	Code  int    `json:"error_code" yaml:"error_code"`
	Error string `json:"error" yaml:"error"`

	// Valid for Sync and Error responses
	Metadata json.RawMessage `json:"metadata" yaml:"metadata"`
}

// MetadataAsStruct decodes the metadata into target.
func (r *Response) MetadataAsStruct(target interface{}) error {
	if len(r.Metadata) == 0 {
		return nil
	}
	return errors.WithStack(json.Unmarshal(r.Metadata, target))
}

// ResponseRaw is the envelope written by the server, before the metadata
// is encoded.
type ResponseRaw struct {
	Type ResponseType `json:"type" yaml:"type"`

	// Valid only for Sync responses
	Status     string `json:"status" yaml:"status"`
	StatusCode int    `json:"status_code" yaml:"status_code"`

	// Valid only for Error responses
	Code  int    `json:"error_code" yaml:"error_code"`
	Error string `json:"error" yaml:"error"`

	// Valid for Sync and Error responses
	Metadata interface{} `json:"metadata" yaml:"metadata"`
}
