package events

import (
	"errors"

	"github.com/samber/lo"
)

var (
	ErrCapacityExceeded     = errors.New("event has reached maximum capacity")
	ErrDuplicateParticipant = errors.New("participant is already registered")
)

// CheckRegistration is the pre-flight check run before a participant is added.
// Capacity is checked before duplicates. Emails compare case-sensitively, the
// same way the backend compares them; the backend remains the final arbiter.
func CheckRegistration(ev Event, candidate ParticipantInput) error {
	if len(ev.Participants) >= ev.MaxParticipants {
		return ErrCapacityExceeded
	}
	if lo.ContainsBy(ev.Participants, func(p Participant) bool {
		return p.Email == candidate.Email
	}) {
		return ErrDuplicateParticipant
	}
	return nil
}
