// Package eventsapi is the typed client for the backend's event and
// participant resources. Every call goes through the shared pipeline, so it
// carries the session token and is subject to forced logout.
package eventsapi

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/metrics"
	"github.com/Togather-Foundation/eventdesk/internal/pipeline"
	"github.com/Togather-Foundation/eventdesk/internal/validation"
	"github.com/gabriel-vasile/mimetype"
)

const reportAccept = "application/pdf"

var (
	ErrMissingID    = errors.New("event id is required")
	ErrMissingEmail = errors.New("participant email is required")
	ErrEmptyUpdate  = errors.New("update has no fields set")
	ErrMissingEvent = errors.New("event is required")
)

// Report is a downloaded participant report.
type Report struct {
	Data        []byte
	ContentType string
	Filename    string
}

// Client handles the event resource endpoints.
type Client struct {
	pipeline *pipeline.Pipeline
	now      func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithClock sets the clock used for suggested report filenames.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient creates a Client on p, which must be the process's shared pipeline.
func NewClient(p *pipeline.Pipeline, opts ...Option) *Client {
	c := &Client{pipeline: p, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

// List returns every event in the order the backend sent them.
func (c *Client) List(ctx context.Context) ([]events.Event, error) {
	var out []events.Event
	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodGet,
		Path:   "/events/",
		Route:  "/events/",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}

// Get fetches one event. An unknown id fails with pipeline.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (*events.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}

	var out events.Event
	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodGet,
		Path:   eventPath(id),
		Route:  "/events/{id}",
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) Create(ctx context.Context, input events.CreateInput) (*events.Event, error) {
	if err := validation.Struct(input); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}

	var out events.Event
	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   "/events/create",
		Route:  "/events/create",
		Body:   input,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &out, nil
}

// Update sends only the fields set in input.
func (c *Client) Update(ctx context.Context, id string, input events.UpdateInput) (*events.Event, error) {
	if strings.TrimSpace(id) == "" {
		return nil, ErrMissingID
	}
	if input.IsEmpty() {
		return nil, ErrEmptyUpdate
	}
	if err := validation.Struct(input); err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}

	var out events.Event
	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodPut,
		Path:   eventPath(id),
		Route:  "/events/{id}",
		Body:   input,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("update event %s: %w", id, err)
	}
	return &out, nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return ErrMissingID
	}

	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodDelete,
		Path:   eventPath(id),
		Route:  "/events/{id}",
	}, nil)
	if err != nil {
		return fmt.Errorf("delete event %s: %w", id, err)
	}
	return nil
}

// AddParticipant registers a participant on ev. The registration guard runs
// first against ev as given; when it rejects, no request is sent and the
// guard's error is returned. ev should be freshly fetched.
func (c *Client) AddParticipant(ctx context.Context, ev *events.Event, input events.ParticipantInput) (*events.Participant, error) {
	if ev == nil {
		return nil, ErrMissingEvent
	}
	if strings.TrimSpace(ev.ID) == "" {
		return nil, ErrMissingID
	}
	if err := validation.Struct(input); err != nil {
		return nil, fmt.Errorf("add participant: %w", err)
	}
	if err := events.CheckRegistration(*ev, input); err != nil {
		metrics.RegistrationRejectionsTotal.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	var out events.Participant
	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodPost,
		Path:   eventPath(ev.ID) + "/participants",
		Route:  "/events/{id}/participants",
		Body:   input,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("add participant to %s: %w", ev.ID, err)
	}
	return &out, nil
}

func (c *Client) RemoveParticipant(ctx context.Context, eventID, email string) error {
	if strings.TrimSpace(eventID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(email) == "" {
		return ErrMissingEmail
	}

	err := c.pipeline.DoJSON(ctx, pipeline.Request{
		Method: http.MethodDelete,
		Path:   eventPath(eventID) + "/participants/" + url.PathEscape(email),
		Route:  "/events/{id}/participants/{email}",
	}, nil)
	if err != nil {
		return fmt.Errorf("remove participant from %s: %w", eventID, err)
	}
	return nil
}

// FetchReport downloads the participant report for an event as PDF.
func (c *Client) FetchReport(ctx context.Context, eventID string) (*Report, error) {
	if strings.TrimSpace(eventID) == "" {
		return nil, ErrMissingID
	}

	res, err := c.pipeline.DoBinary(ctx, pipeline.Request{
		Method: http.MethodGet,
		Path:   eventPath(eventID) + "/participants/report",
		Route:  "/events/{id}/participants/report",
		Accept: reportAccept,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch report for %s: %w", eventID, err)
	}

	report := &Report{
		Data:        res.Body,
		ContentType: contentType(res.Header, res.Body),
		Filename:    filenameFromDisposition(res.Header.Get("Content-Disposition")),
	}
	if report.Filename == "" {
		report.Filename = events.ReportFilename(c.now())
	}
	return report, nil
}

// contentType prefers the declared type unless it is missing or generic.
func contentType(h http.Header, body []byte) string {
	declared := h.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && mediaType != "application/octet-stream" {
		return mediaType
	}
	return mimetype.Detect(body).String()
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	name := params["filename"]
	// drop any directory part a server might send
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return name
}

func rejectionReason(err error) string {
	if errors.Is(err, events.ErrCapacityExceeded) {
		return "capacity"
	}
	return "duplicate"
}
