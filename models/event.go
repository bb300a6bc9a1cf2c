package models

import "time"

// Event представляет мероприятие конференции. Для ядра регистрации только чтение.
type Event struct {
	ID                   int        `json:"id" db:"id"`
	Name                 string     `json:"name" db:"name"`
	Description          string     `json:"description" db:"description"`
	EventType            string     `json:"event_type" db:"event_type"`
	Platform             string     `json:"platform" db:"platform"`
	EventDate            time.Time  `json:"event_date" db:"event_date"`
	EventTime            *string    `json:"event_time,omitempty" db:"event_time"`
	RegistrationDeadline time.Time  `json:"registration_deadline" db:"registration_deadline"`
	IsTeamBased          bool       `json:"is_team_based" db:"is_team_based"`
	TeamSizeMin          int        `json:"team_size_min" db:"team_size_min"`
	TeamSizeMax          int        `json:"team_size_max" db:"team_size_max"`
	Rules                *string    `json:"rules,omitempty" db:"rules"`
	ImageURL             *string    `json:"image_url,omitempty" db:"image_url"`
	IsPaid               bool       `json:"is_paid" db:"is_paid"`
	Price                float64    `json:"price" db:"price"`
	MaxParticipants      *int       `json:"max_participants,omitempty" db:"max_participants"`
	IsActive             bool       `json:"is_active" db:"is_active"`
	CreatedAt            time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt            *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// EventSummary - урезанное представление события для списков регистраций.
type EventSummary struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	EventType string    `json:"event_type"`
	EventDate time.Time `json:"event_date"`
	Platform  string    `json:"platform"`
	IsPaid    bool      `json:"is_paid"`
	Price     float64   `json:"price"`
}
