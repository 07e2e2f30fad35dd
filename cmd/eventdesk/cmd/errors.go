package cmd

import (
	"errors"
	"fmt"

	"github.com/Togather-Foundation/eventdesk/internal/domain/events"
	"github.com/Togather-Foundation/eventdesk/internal/pipeline"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/Togather-Foundation/eventdesk/internal/session"
)

// userMessage turns an error into the one line shown after "Error:".
// Backend-supplied text is sanitized like any other backend content.
func userMessage(err error, baseURL string) string {
	var authErr *session.AuthError
	if errors.As(err, &authErr) {
		return sanitize.Cell(authErr.Message, 0)
	}

	switch {
	case errors.Is(err, session.ErrNoSession):
		return "not signed in. Run \"eventdesk login\" first"
	case errors.Is(err, events.ErrCapacityExceeded):
		return "this event is full"
	case errors.Is(err, events.ErrDuplicateParticipant):
		return "this participant is already registered for the event"
	case errors.Is(err, pipeline.ErrUnauthorized):
		return "your session has expired or was revoked"
	case errors.Is(err, pipeline.ErrForbidden):
		return "you do not have permission to do that"
	case errors.Is(err, pipeline.ErrNotFound):
		return "not found"
	case errors.Is(err, pipeline.ErrServerError):
		return "the events service had a problem, try again later"
	case errors.Is(err, pipeline.ErrNetworkUnreachable):
		if baseURL == "" {
			return "cannot reach the events service"
		}
		return fmt.Sprintf("cannot reach the events service at %s", baseURL)
	}

	var perr *pipeline.Error
	if errors.As(err, &perr) && perr.Message != "" {
		return sanitize.Cell(perr.Message, 0)
	}
	return err.Error()
}
