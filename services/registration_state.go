package services

import (
	"time"

	"github.com/Dosada05/event-portal/models"
)

// RegistrationPhase - фаза конечного автомата регистрации.
type RegistrationPhase string

const (
	PhaseUnchecked     RegistrationPhase = "unchecked"
	PhaseChecking      RegistrationPhase = "checking"
	PhaseNotRegistered RegistrationPhase = "not_registered"
	PhaseSubmitting    RegistrationPhase = "submitting"
	PhaseRegistered    RegistrationPhase = "registered"
)

// Подписи кнопки, которые видит пользователь.
const (
	LabelSignIn       = "Sign In to Register"
	LabelRegister     = "Register Now"
	LabelRegisterTeam = "Register Team"
	LabelChecking     = "Checking…"
	LabelRegistering  = "Registering…"
	LabelConfirmed    = "Registered ✓"
	LabelPending      = "Registration Pending"
	LabelSubmitted    = "Submitted ✓"
	LabelCheckedIn    = "Checked In ✓"
)

// RegistrationState - снимок состояния автомата, который отдается клиенту.
type RegistrationState struct {
	Phase      RegistrationPhase         `json:"phase"`
	Status     models.RegistrationStatus `json:"status,omitempty"`
	Label      string                    `json:"label"`
	BadgeColor string                    `json:"badge_color,omitempty"`
	Hint       string                    `json:"hint,omitempty"`
	Message    string                    `json:"message,omitempty"`
	CanSubmit  bool                      `json:"can_submit"`
	EventID    int                       `json:"event_id"`
	TeamID     *int                      `json:"team_id,omitempty"`
	// MemberSlots - сколько полей участников может показать форма командной регистрации.
	MemberSlots int `json:"member_slots,omitempty"`
}

// StatusColor возвращает цвет бейджа для статуса регистрации.
func StatusColor(status models.RegistrationStatus) string {
	switch status {
	case models.RegistrationConfirmed:
		return "green"
	case models.RegistrationPending:
		return "yellow"
	case models.RegistrationSubmitted:
		return "blue"
	case models.RegistrationCheckedIn:
		return "purple"
	default:
		return "gray"
	}
}

// StatusLabel возвращает подпись для зарегистрированного пользователя.
func StatusLabel(status models.RegistrationStatus) string {
	switch status {
	case models.RegistrationConfirmed:
		return LabelConfirmed
	case models.RegistrationPending:
		return LabelPending
	case models.RegistrationSubmitted:
		return LabelSubmitted
	case models.RegistrationCheckedIn:
		return LabelCheckedIn
	default:
		return "Registration " + string(status)
	}
}

// StatusHint - поясняющий текст под бейджем.
func StatusHint(status models.RegistrationStatus) string {
	switch status {
	case models.RegistrationConfirmed:
		return "You're all set! Check your email for details."
	case models.RegistrationPending:
		return "Your registration is being processed."
	case models.RegistrationSubmitted:
		return "Your submission has been received."
	case models.RegistrationCheckedIn:
		return "Attendance recorded. Enjoy the event!"
	default:
		return "Registration status: " + string(status)
	}
}

func registeredState(eventID int, reg *models.Registration, message string) RegistrationState {
	return RegistrationState{
		Phase:      PhaseRegistered,
		Status:     reg.Status,
		Label:      StatusLabel(reg.Status),
		BadgeColor: StatusColor(reg.Status),
		Hint:       StatusHint(reg.Status),
		Message:    message,
		EventID:    eventID,
		TeamID:     reg.TeamID,
	}
}

// notRegisteredState: кнопка активна только если событие сейчас принимает регистрации.
func notRegisteredState(event *models.Event, identity *models.Identity, now time.Time, message string) RegistrationState {
	st := RegistrationState{
		Phase:     PhaseNotRegistered,
		Message:   message,
		EventID:   event.ID,
		CanSubmit: EventEligibility(event, identity, now).Allowed,
	}
	switch {
	case identity == nil:
		st.Label = LabelSignIn
	case event.IsTeamBased:
		st.Label = LabelRegisterTeam
		st.MemberSlots = NewTeamRoster(event).MaxSlots()
	default:
		st.Label = LabelRegister
	}
	return st
}
