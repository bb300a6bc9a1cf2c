package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound = errors.New("requested resource not found")

	// Допуск к регистрации
	ErrSignInRequired      = errors.New("sign in required")
	ErrRegistrationClosed  = errors.New("registration closed")
	ErrDeadlinePassed      = errors.New("registration deadline passed")
	ErrEventFull           = errors.New("event is full")
	ErrRegistrationFailed  = errors.New("there was an error registering for this event, please try again")
	ErrTeamNameRequired    = errors.New("team name is required")
	ErrTeamTooSmall        = errors.New("team has fewer members than the event requires")
	ErrTeamTooLarge        = errors.New("team has more members than the event allows")
	ErrInvalidStatusChange = errors.New("registration status does not allow this operation")

	ErrValidationFailed   = errors.New("validation failed")
	ErrForbiddenOperation = errors.New("operation not allowed for the current user")
	ErrUploadsDisabled    = errors.New("file uploads are not configured")
	ErrInvalidTicketCode  = errors.New("invalid ticket code")

	// Ошибки, специфичные для сущностей
	ErrEventNotFound        = errors.New("event not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrNotificationNotFound = errors.New("notification not found")
)
