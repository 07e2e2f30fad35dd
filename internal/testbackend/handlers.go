package testbackend

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/api/problem"
	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/samber/lo"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Username == "" || body.Email == "" || body.Password == "" {
		problem.WriteMessage(w, http.StatusBadRequest, "username, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[body.Email]; taken {
		problem.WriteMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	s.addUserLocked(body.Username, body.Email, body.Password, nil)
	writeJSON(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		problem.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[body.Email]
	s.mu.Unlock()
	if !ok || acct.password != body.Password {
		problem.WriteMessage(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := s.Token(acct.user)
	writeJSON(w, http.StatusCreated, map[string]any{
		"access_token": token,
		"user": map[string]any{
			"_id":      acct.user.ID,
			"username": acct.user.Username,
			"email":    acct.user.Email,
			"roles":    acct.user.Roles,
		},
	})
}

func (s *Server) handleListEvents(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	list := make([]events.Event, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, *s.events[id])
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if in.Name == "" || in.MaxParticipants <= 0 {
		problem.WriteMessage(w, http.StatusBadRequest, "name and a positive maxParticipants are required")
		return
	}

	ev := s.AddEvent(events.Event{
		Name:            in.Name,
		Description:     in.Description,
		Date:            in.Date,
		Location:        in.Location,
		MaxParticipants: in.MaxParticipants,
	})
	writeJSON(w, http.StatusCreated, ev)
}

func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	ev, ok := s.Event(r.PathValue("id"))
	if !ok {
		notFound(w, "Event not found")
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleUpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in events.UpdateInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.PathValue("id")]
	if !ok {
		notFound(w, "Event not found")
		return
	}
	if in.Name != nil {
		ev.Name = *in.Name
	}
	if in.Description != nil {
		ev.Description = *in.Description
	}
	if in.Date != nil {
		ev.Date = *in.Date
	}
	if in.Location != nil {
		ev.Location = *in.Location
	}
	if in.MaxParticipants != nil {
		ev.MaxParticipants = *in.MaxParticipants
	}
	writeJSON(w, http.StatusOK, ev)
}

func (s *Server) handleDeleteEvent(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		notFound(w, "Event not found")
		return
	}
	delete(s.events, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
	writeJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}

func (s *Server) handleAddParticipant(w http.ResponseWriter, r *http.Request) {
	var in events.ParticipantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		problem.WriteMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.PathValue("id")]
	if !ok {
		notFound(w, "Event not found")
		return
	}
	if len(ev.Participants) >= ev.MaxParticipants {
		problem.WriteMessage(w, http.StatusBadRequest, "Event is full")
		return
	}
	if lo.ContainsBy(ev.Participants, func(p events.Participant) bool { return p.Email == in.Email }) {
		problem.WriteMessage(w, http.StatusConflict, "Participant already registered")
		return
	}

	p := events.Participant{FullName: in.FullName, Email: in.Email, Phone: in.Phone, RegistrationDate: now()}
	ev.Participants = append(ev.Participants, p)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleRemoveParticipant(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	s.mu.Lock()
	defer s.mu.Unlock()
	ev, ok := s.events[r.PathValue("id")]
	if !ok {
		notFound(w, "Event not found")
		return
	}
	idx := slices.IndexFunc(ev.Participants, func(p events.Participant) bool { return p.Email == email })
	if idx < 0 {
		notFound(w, "Participant not found")
		return
	}
	ev.Participants = slices.Delete(ev.Participants, idx, idx+1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Participant removed"})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.Event(r.PathValue("id")); !ok {
		notFound(w, "Event not found")
		return
	}
	if accept := r.Header.Get("Accept"); !strings.Contains(accept, "application/pdf") && !strings.Contains(accept, "*/*") {
		problem.WriteMessage(w, http.StatusNotAcceptable, "Report is only available as application/pdf")
		return
	}

	s.mu.Lock()
	filename := s.reportFilename
	s.mu.Unlock()

	if filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ReportPDF)
}

func notFound(w http.ResponseWriter, detail string) {
	problem.WriteProblem(w, problem.ProblemDetails{
		Type:   "about:blank",
		Title:  http.StatusText(http.StatusNotFound),
		Status: http.StatusNotFound,
		Detail: detail,
	})
}
