package models

import (
	"encoding/json"
	"time"
)

type NotificationKind string

const (
	NotificationRegistration NotificationKind = "registration"
	NotificationTeam         NotificationKind = "team"
	NotificationSubmission   NotificationKind = "submission"
	NotificationCheckIn      NotificationKind = "check_in"
)

// Notification - внутреннее (in-app) уведомление пользователя.
type Notification struct {
	ID        string           `json:"id" db:"id"`
	UserID    string           `json:"user_id" db:"user_id"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Payload   json.RawMessage  `json:"payload,omitempty" db:"payload"`
	Read      bool             `json:"read" db:"read"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}
