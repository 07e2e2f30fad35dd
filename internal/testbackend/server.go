// Package testbackend is an in-process fake of the events backend REST API
// for tests. It keeps accounts and events in memory, issues real JWTs through
// testauth, and records every request it receives.
package testbackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/domain/users"
	"github.com/Togather-Foundation/eventdesk/internal/testauth"
	"github.com/samber/lo"
)

// ReportPDF is the body served by the participant report endpoint.
var ReportPDF = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n")

// RecordedRequest is what the server saw for one call.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	Accept        string
}

type account struct {
	user     users.User
	password string
}

// Server is a fake events backend.
type Server struct {
	*httptest.Server

	issuer *testauth.Issuer

	mu             sync.Mutex
	accounts       map[string]account
	tokens         map[string]bool
	events         map[string]*events.Event
	order          []string
	nextID         int
	requests       []RecordedRequest
	failNext       int
	reportFilename string
}

// New starts a fake backend and stops it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		issuer:   testauth.NewIssuer(testauth.Config{}),
		accounts: make(map[string]account),
		tokens:   make(map[string]bool),
		events:   make(map[string]*events.Event),
	}
	s.Server = httptest.NewServer(s.routes())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/Register", s.handleRegister)
	mux.HandleFunc("POST /auth/Login", s.handleLogin)
	mux.Handle("GET /events/{$}", s.requireAuth(s.handleListEvents))
	mux.Handle("POST /events/create", s.requireAuth(s.handleCreateEvent))
	mux.Handle("GET /events/{id}", s.requireAuth(s.handleGetEvent))
	mux.Handle("PUT /events/{id}", s.requireAuth(s.handleUpdateEvent))
	mux.Handle("DELETE /events/{id}", s.requireAuth(s.handleDeleteEvent))
	mux.Handle("POST /events/{id}/participants", s.requireAuth(s.handleAddParticipant))
	mux.Handle("DELETE /events/{id}/participants/{email}", s.requireAuth(s.handleRemoveParticipant))
	mux.Handle("GET /events/{id}/participants/report", s.requireAuth(s.handleReport))
	return s.record(mux)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Accept:        r.Header.Get("Accept"),
		})
		status := s.failNext
		s.failNext = 0
		s.mu.Unlock()

		if status != 0 {
			problem.WriteMessage(w, status, http.StatusText(status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if _, err := s.issuer.ValidateHeader(header); err != nil {
			problem.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		s.mu.Lock()
		live := s.tokens[header]
		s.mu.Unlock()
		if !live {
			problem.WriteMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r)
	})
}

// AddUser registers an account directly, bypassing the API.
func (s *Server) AddUser(username, email, password string, roles ...string) users.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addUserLocked(username, email, password, roles)
}

func (s *Server) addUserLocked(username, email, password string, roles []string) users.User {
	s.nextID++
	user := users.User{ID: fmt.Sprintf("u%023x", s.nextID), Username: username, Email: email, Roles: roles}
	s.accounts[email] = account{user: user, password: password}
	return user
}

// Token mints a live token for user without going through /auth/Login.
func (s *Server) Token(user users.User) string {
	token, err := s.issuer.Generate(user)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	s.tokens["Bearer "+token] = true
	s.mu.Unlock()
	return token
}

// RevokeAll invalidates every issued token, as a backend restart with a new
// secret or an expiry sweep would.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]bool)
}

// AddEvent stores ev, assigning an ID when it has none.
func (s *Server) AddEvent(ev events.Event) events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addEventLocked(ev)
}

func (s *Server) addEventLocked(ev events.Event) events.Event {
	if ev.ID == "" {
		s.nextID++
		ev.ID = fmt.Sprintf("%024x", s.nextID)
	}
	ev.Participants = slices.Clone(ev.Participants)
	s.events[ev.ID] = &ev
	s.order = append(s.order, ev.ID)
	return ev
}

// Event returns the server-side copy of an event.
func (s *Server) Event(id string) (events.Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[id]
	if !ok {
		return events.Event{}, false
	}
	out := *ev
	out.Participants = slices.Clone(ev.Participants)
	return out, true
}

// Requests returns every request received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// RequestsTo counts received requests matching method and path.
func (s *Server) RequestsTo(method, path string) int {
	return lo.CountBy(s.Requests(), func(r RecordedRequest) bool {
		return r.Method == method && r.Path == path
	})
}

// FailNext makes the next request, whatever it is, answer with status.
func (s *Server) FailNext(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
}

// SetReportFilename makes the report endpoint send a Content-Disposition
// header with name. Empty disables the header.
func (s *Server) SetReportFilename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportFilename = name
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func now() *time.Time {
	t := time.Now().UTC().Truncate(time.Millisecond)
	return &t
}
