package services

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
)

const ticketMACSize = 16

// Ticket - код для QR на входе.
type Ticket struct {
	EventID int                       `json:"event_id"`
	UserID  string                    `json:"user_id"`
	Status  models.RegistrationStatus `json:"status"`
	Code    string                    `json:"code"`
}

// CheckInResult - итог отметки участника.
type CheckInResult struct {
	Registration     *models.Registration `json:"registration"`
	AlreadyCheckedIn bool                 `json:"already_checked_in"`
}

// TicketService выдает коды билетов и отмечает участников на входе.
// Код: base64url("<user_id>:<event_id>") + "." + hex(BLAKE2b-MAC).
type TicketService struct {
	key           []byte
	registrations repositories.RegistrationRepository
	inApp         InAppNotifier
	logger        *slog.Logger
}

func NewTicketService(secret string, registrations repositories.RegistrationRepository, inApp InAppNotifier, logger *slog.Logger) (*TicketService, error) {
	if secret == "" {
		return nil, errors.New("ticket secret must not be empty")
	}
	// Ключ BLAKE2b ограничен 64 байтами
	key := blake2b.Sum256([]byte(secret))
	return &TicketService{
		key:           key[:],
		registrations: registrations,
		inApp:         inApp,
		logger:        logger,
	}, nil
}

func (s *TicketService) mac(payload string) ([]byte, error) {
	h, err := blake2b.New(ticketMACSize, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to init ticket mac: %w", err)
	}
	h.Write([]byte(payload))
	return h.Sum(nil), nil
}

// Code вычисляет код билета для пары пользователь/событие.
func (s *TicketService) Code(userID string, eventID int) (string, error) {
	payload := userID + ":" + strconv.Itoa(eventID)
	sum, err := s.mac(payload)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + hex.EncodeToString(sum), nil
}

// Verify проверяет подпись кода и возвращает пользователя и событие.
func (s *TicketService) Verify(code string) (string, int, error) {
	encoded, macHex, ok := strings.Cut(strings.TrimSpace(code), ".")
	if !ok {
		return "", 0, ErrInvalidTicketCode
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", 0, ErrInvalidTicketCode
	}
	got, err := hex.DecodeString(macHex)
	if err != nil {
		return "", 0, ErrInvalidTicketCode
	}
	want, err := s.mac(string(raw))
	if err != nil {
		return "", 0, err
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return "", 0, ErrInvalidTicketCode
	}

	userID, eventRaw, ok := strings.Cut(string(raw), ":")
	if !ok || userID == "" {
		return "", 0, ErrInvalidTicketCode
	}
	eventID, err := strconv.Atoi(eventRaw)
	if err != nil || eventID <= 0 {
		return "", 0, ErrInvalidTicketCode
	}
	return userID, eventID, nil
}

// Issue выдает билет участнику. Регистрация в статусе pending билета не получает.
func (s *TicketService) Issue(ctx context.Context, identity models.Identity, eventID int) (*Ticket, error) {
	reg, err := s.registrations.FindByUserAndEvent(ctx, identity.ID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if reg.Status == models.RegistrationPending {
		return nil, fmt.Errorf("%w: registration is still pending", ErrInvalidStatusChange)
	}
	code, err := s.Code(identity.ID, eventID)
	if err != nil {
		return nil, err
	}
	return &Ticket{EventID: eventID, UserID: identity.ID, Status: reg.Status, Code: code}, nil
}

// CheckIn отмечает участника по коду билета. Доступно только организатору.
func (s *TicketService) CheckIn(ctx context.Context, organizer models.Identity, code string) (*CheckInResult, error) {
	if !organizer.IsOrganizer() {
		return nil, ErrForbiddenOperation
	}
	userID, eventID, err := s.Verify(code)
	if err != nil {
		return nil, err
	}

	reg, err := s.registrations.FindByUserAndEvent(ctx, userID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}

	switch reg.Status {
	case models.RegistrationCheckedIn:
		return &CheckInResult{Registration: reg, AlreadyCheckedIn: true}, nil
	case models.RegistrationConfirmed, models.RegistrationSubmitted:
	default:
		return nil, fmt.Errorf("%w: cannot check in a %s registration", ErrInvalidStatusChange, reg.Status)
	}

	if err := s.registrations.UpdateStatus(ctx, reg.ID, models.RegistrationCheckedIn); err != nil {
		return nil, fmt.Errorf("failed to check in registration: %w", err)
	}
	reg.Status = models.RegistrationCheckedIn

	s.logger.Info("participant checked in",
		slog.String("user_id", userID), slog.Int("event_id", eventID), slog.String("organizer_id", organizer.ID))

	if s.inApp != nil {
		payload := map[string]interface{}{"event_id": eventID, "registration_id": reg.ID}
		if err := s.inApp.CreateInAppNotification(ctx, userID, "Checked in", "Welcome! You are checked in.", models.NotificationCheckIn, payload); err != nil {
			s.logger.Warn("failed to create check-in notification", slog.String("user_id", userID), slog.Any("error", err))
		}
	}
	return &CheckInResult{Registration: reg}, nil
}
