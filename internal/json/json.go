// Package json reads request bodies and writes response bodies for the
// registry HTTP API.
package json

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/log/level"
	"github.com/pkg/errors"
)

// Read decodes a single JSON document from r into v.
func Read(r io.Reader, v interface{}) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return errors.Wrap(err, "decode json")
	}
	return nil
}

// Write encodes body as JSON onto w. When debug is set the indented body is
// also logged.
func Write(w http.ResponseWriter, body interface{}, debug bool, logger log.Logger) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return errors.Wrap(err, "encode json")
	}
	if debug {
		logBody(buf.Bytes(), logger)
	}
	_, err := w.Write(buf.Bytes())
	return errors.WithStack(err)
}

func logBody(body []byte, logger log.Logger) {
	pretty := new(bytes.Buffer)
	if err := json.Indent(pretty, bytes.TrimSpace(body), "\t", "\t"); err != nil {
		level.Debug(logger).Log("msg", "error indenting json", "err", err)
		return
	}
	level.Debug(logger).Log("msg", pretty.String())
}
