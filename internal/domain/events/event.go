package events

import (
	"encoding/json"
	"sort"
	"time"
)

type Participant struct {
	FullName         string     `json:"fullName"`
	Email            string     `json:"email"`
	Phone            string     `json:"phone,omitempty"`
	RegistrationDate *time.Time `json:"registrationDate,omitempty"`
}

type Event struct {
	ID              string        `json:"_id,omitempty"`
	Name            string        `json:"name"`
	Description     string        `json:"description"`
	Date            string        `json:"date"`
	Location        string        `json:"location"`
	MaxParticipants int           `json:"maxParticipants"`
	Participants    []Participant `json:"participants,omitempty"`
}

// UnmarshalJSON accepts the backend's "_id" as well as a plain "id".
func (e *Event) UnmarshalJSON(data []byte) error {
	type alias Event
	var raw struct {
		alias
		PlainID string `json:"id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Event(raw.alias)
	if e.ID == "" {
		e.ID = raw.PlainID
	}
	return nil
}

// Remaining is the number of seats still open. It never goes below zero.
func (e Event) Remaining() int {
	if n := e.MaxParticipants - len(e.Participants); n > 0 {
		return n
	}
	return 0
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// When parses Date. ok is false when the backend sent something unparseable.
func (e Event) When() (t time.Time, ok bool) {
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, e.Date); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

// SortByDateDesc orders events newest first. Events without a parseable date go last,
// keeping their relative order.
func SortByDateDesc(list []Event) {
	sort.SliceStable(list, func(i, j int) bool {
		ti, iok := list[i].When()
		tj, jok := list[j].When()
		if iok != jok {
			return iok
		}
		return ti.After(tj)
	})
}

type CreateInput struct {
	Name            string `json:"name" validate:"required"`
	Description     string `json:"description" validate:"required"`
	Date            string `json:"date" validate:"required"`
	Location        string `json:"location" validate:"required"`
	MaxParticipants int    `json:"maxParticipants" validate:"gt=0"`
}

// UpdateInput is a partial update; nil fields are left out of the request body.
type UpdateInput struct {
	Name            *string `json:"name,omitempty" validate:"omitnil,min=1"`
	Description     *string `json:"description,omitempty" validate:"omitnil,min=1"`
	Date            *string `json:"date,omitempty" validate:"omitnil,min=1"`
	Location        *string `json:"location,omitempty" validate:"omitnil,min=1"`
	MaxParticipants *int    `json:"maxParticipants,omitempty" validate:"omitnil,gt=0"`
}

func (u UpdateInput) IsEmpty() bool {
	return u.Name == nil && u.Description == nil && u.Date == nil && u.Location == nil && u.MaxParticipants == nil
}

type ParticipantInput struct {
	FullName string `json:"fullName" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone,omitempty"`
}
