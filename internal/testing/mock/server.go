// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package mock provides a recording vendor API server for piece tests.
package mock

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/tombee/pieces/internal/operation/api"
	"github.com/tombee/pieces/internal/operation/transport"
)

// Request is one request received by the server.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the request body.
func (r Request) JSON() map[string]interface{} {
	var out map[string]interface{}
	_ = json.Unmarshal(r.Body, &out)
	return out
}

type route struct {
	status int
	body   interface{}
}

// Server is an httptest server answering with canned responses keyed by
// "METHOD /path". Unrouted requests get 404.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]route
	requests []Request
}

// NewServer starts a server that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{routes: make(map[string]route)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle sets the response for method and path. A string body is written
// verbatim; anything else is encoded as JSON.
func (s *Server) Handle(method, path string, status int, body interface{}) *Server {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = route{status: status, body: body}
	return s
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Header: r.Header.Clone(),
		Body:   body,
	})
	rt, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	if !ok {
		rt = route{status: http.StatusNotFound, body: map[string]string{"message": "no route " + r.Method + " " + r.URL.Path}}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", "req-test")
	w.WriteHeader(rt.status)
	switch b := rt.body.(type) {
	case nil:
	case string:
		io.WriteString(w, b)
	default:
		json.NewEncoder(w).Encode(b)
	}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count returns the number of requests received.
func (s *Server) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Last returns the most recent request.
func (s *Server) Last() Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}
	}
	return s.requests[len(s.requests)-1]
}

// ProviderConfig returns a config pointing a piece at the server with an
// unauthenticated HTTP transport.
func (s *Server) ProviderConfig(settings map[string]string) *api.ProviderConfig {
	tr, err := transport.NewHTTPTransport(&transport.HTTPTransportConfig{Timeout: 5 * time.Second})
	if err != nil {
		panic(err)
	}
	return &api.ProviderConfig{
		Transport:      tr,
		BaseURL:        s.URL,
		Authenticated:  true,
		AdditionalAuth: settings,
	}
}
