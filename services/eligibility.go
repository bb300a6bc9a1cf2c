package services

import (
	"time"

	"github.com/Dosada05/event-portal/models"
)

// EligibilityReason - код причины отказа в регистрации. Пустой код означает допуск.
type EligibilityReason string

const (
	EligibilityGranted       EligibilityReason = ""
	ReasonSignInRequired     EligibilityReason = "sign_in_required"
	ReasonRegistrationClosed EligibilityReason = "registration_closed"
	ReasonDeadlinePassed     EligibilityReason = "deadline_passed"
)

type EligibilityInput struct {
	SignedIn bool
	IsActive bool
	Deadline time.Time
	Now      time.Time
}

type Eligibility struct {
	Allowed bool              `json:"allowed"`
	Reason  EligibilityReason `json:"reason,omitempty"`
	Title   string            `json:"title,omitempty"`
	Message string            `json:"message,omitempty"`
}

// Err возвращает сервисную ошибку, соответствующую причине отказа.
func (e Eligibility) Err() error {
	switch e.Reason {
	case ReasonSignInRequired:
		return ErrSignInRequired
	case ReasonRegistrationClosed:
		return ErrRegistrationClosed
	case ReasonDeadlinePassed:
		return ErrDeadlinePassed
	}
	return nil
}

// CheckEligibility применяет правила по порядку, первое нарушенное определяет причину.
func CheckEligibility(in EligibilityInput) Eligibility {
	switch {
	case !in.SignedIn:
		return Eligibility{
			Reason:  ReasonSignInRequired,
			Title:   "Sign in required",
			Message: "Please sign in to register for this event",
		}
	case !in.IsActive:
		return Eligibility{
			Reason:  ReasonRegistrationClosed,
			Title:   "Registration closed",
			Message: "This event is no longer accepting registrations",
		}
	case in.Now.After(in.Deadline):
		return Eligibility{
			Reason:  ReasonDeadlinePassed,
			Title:   "Registration deadline passed",
			Message: "The registration deadline for this event has passed",
		}
	}
	return Eligibility{Allowed: true}
}

// EventEligibility - удобная обертка для события и текущей личности.
func EventEligibility(event *models.Event, identity *models.Identity, now time.Time) Eligibility {
	return CheckEligibility(EligibilityInput{
		SignedIn: identity != nil && identity.ID != "",
		IsActive: event.IsActive,
		Deadline: event.RegistrationDeadline,
		Now:      now,
	})
}
