package endpoints_test

import (
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"testing"

	golog "github.com/go-kit/kit/log"
	"github.com/spoke-d/dispatchd/internal/endpoints"
	"github.com/spoke-d/dispatchd/internal/json"
)

func newEndpoints(t *testing.T, options ...endpoints.Option) (*endpoints.Endpoints, func()) {
	e := endpoints.New(newServer(), options...)

	return e, func() {
		if err := e.Down(); err != nil {
			t.Error(err)
		}
	}
}

// Returns a minimal stub for the RESTful API server
func newServer() *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/1.0/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.Write(w, struct{}{}, false, golog.NewNopLogger())
	})
	return &http.Server{
		Handler:  mux,
		ErrorLog: log.New(ioutil.Discard, "", 0),
	}
}

// Perform an HTTP GET "/1.0/" against the given network address.
func httpGet(addr string) (int, error) {
	resp, err := http.Get(fmt.Sprintf("http://%s/1.0/", addr))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}
