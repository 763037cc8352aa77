// Package testutil provides a fake Admin API for tests that send requests.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Call is one request received by a Store.
type Call struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
	Token         string                 `json:"-"`
}

// Store is a GraphQL endpoint that answers with canned bodies in order.
// Once the bodies run out the last one is repeated.
type Store struct {
	URL string

	t      *testing.T
	mu     sync.Mutex
	bodies []string
	calls  []Call
	status []int
}

// NewStore starts a Store that is closed when the test ends.
func NewStore(t *testing.T, bodies ...string) *Store {
	t.Helper()
	if len(bodies) == 0 {
		bodies = []string{`{"data":null}`}
	}
	s := &Store{t: t, bodies: bodies}
	srv := httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// FailFirst makes the first len(codes) requests answer with the given HTTP
// statuses before the canned bodies are used.
func (s *Store) FailFirst(codes ...int) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = append(s.status, codes...)
	return s
}

func (s *Store) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var call Call
	if err := json.NewDecoder(r.Body).Decode(&call); err != nil {
		s.t.Errorf("fake store: undecodable request: %v", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	call.Token = r.Header.Get("X-Shopify-Access-Token")
	s.calls = append(s.calls, call)

	if len(s.status) > 0 {
		code := s.status[0]
		s.status = s.status[1:]
		http.Error(w, http.StatusText(code), code)
		return
	}

	n := len(s.calls) - 1
	if n >= len(s.bodies) {
		n = len(s.bodies) - 1
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(s.bodies[n]))
}

// Calls returns the requests received so far.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// LastCall returns the most recent request. It fails the test when there
// was none.
func (s *Store) LastCall() Call {
	s.t.Helper()
	calls := s.Calls()
	if len(calls) == 0 {
		s.t.Fatal("fake store: no requests received")
	}
	return calls[len(calls)-1]
}
