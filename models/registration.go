package models

import "time"

// RegistrationStatus соответствует значениям колонки registrations.status.
type RegistrationStatus string

const (
	RegistrationPending   RegistrationStatus = "pending"
	RegistrationConfirmed RegistrationStatus = "confirmed"
	RegistrationSubmitted RegistrationStatus = "submitted"
	RegistrationCheckedIn RegistrationStatus = "checked_in"
)

func (s RegistrationStatus) IsValid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationSubmitted, RegistrationCheckedIn:
		return true
	}
	return false
}

type Registration struct {
	ID               int                `json:"id" db:"id"`
	UserID           string             `json:"user_id" db:"user_id"`
	EventID          int                `json:"event_id" db:"event_id"`
	TeamID           *int               `json:"team_id,omitempty" db:"team_id"`
	Status           RegistrationStatus `json:"status" db:"status"`
	RegistrationDate time.Time          `json:"registration_date" db:"registration_date"`
	SubmissionKey    *string            `json:"-" db:"submission_key"`
	SubmissionURL    *string            `json:"submission_url,omitempty" db:"-"`

	Event *EventSummary `json:"events,omitempty" db:"-"`
}
