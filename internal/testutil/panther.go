package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// GraphQLHandler answers one GraphQL operation. A non-empty errs is sent as
// the response's errors array.
type GraphQLHandler func(vars map[string]any) (data any, errs []string)

// GraphQLCall records one GraphQL request.
type GraphQLCall struct {
	Operation string
	Query     string
	Variables map[string]any
	APIKey    string
	UserAgent string
}

// PantherServer is a fake Panther API. GraphQL operations are dispatched by
// operation name; REST routes are registered on a chi router.
type PantherServer struct {
	*httptest.Server

	router chi.Router

	mu      sync.Mutex
	graphql map[string]GraphQLHandler
	calls   []GraphQLCall
}

// NewPantherServer starts a fake API that is closed when the test ends.
func NewPantherServer(t testing.TB) *PantherServer {
	t.Helper()
	s := &PantherServer{
		router:  chi.NewRouter(),
		graphql: make(map[string]GraphQLHandler),
	}
	s.router.Post("/public/graphql", s.serveGraphQL)
	s.Server = httptest.NewServer(s.router)
	t.Cleanup(s.Close)
	return s
}

// GraphQLURL is the GraphQL endpoint of the fake.
func (s *PantherServer) GraphQLURL() string {
	return s.URL + "/public/graphql"
}

// HandleGraphQL registers h for the operation named op.
func (s *PantherServer) HandleGraphQL(op string, h GraphQLHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphql[op] = h
}

// HandleREST registers a REST route, e.g. HandleREST("GET", "/rules/{id}", h).
func (s *PantherServer) HandleREST(method, pattern string, h http.HandlerFunc) {
	s.router.MethodFunc(method, pattern, h)
}

// Calls returns the recorded GraphQL requests for op, or all of them when
// op is empty.
func (s *PantherServer) Calls(op string) []GraphQLCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []GraphQLCall
	for _, c := range s.calls {
		if op == "" || c.Operation == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *PantherServer) serveGraphQL(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	op := OperationName(req.Query)

	s.mu.Lock()
	s.calls = append(s.calls, GraphQLCall{
		Operation: op,
		Query:     req.Query,
		Variables: req.Variables,
		APIKey:    r.Header.Get("X-API-Key"),
		UserAgent: r.Header.Get("User-Agent"),
	})
	h, ok := s.graphql[op]
	s.mu.Unlock()

	if !ok {
		WriteJSON(w, http.StatusOK, map[string]any{
			"errors": []map[string]string{{"message": "unknown operation " + op}},
		})
		return
	}
	data, errs := h(req.Variables)
	resp := map[string]any{"data": data}
	if len(errs) > 0 {
		list := make([]map[string]string, 0, len(errs))
		for _, e := range errs {
			list = append(list, map[string]string{"message": e})
		}
		resp["errors"] = list
	}
	WriteJSON(w, http.StatusOK, resp)
}

// OperationName returns the name of the first operation in a GraphQL
// document.
func OperationName(document string) string {
	fields := strings.FieldsFunc(document, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '(' || r == '{'
	})
	for i := 0; i+1 < len(fields); i++ {
		if fields[i] == "query" || fields[i] == "mutation" {
			return fields[i+1]
		}
	}
	return ""
}

// WriteJSON writes v as a JSON response.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
