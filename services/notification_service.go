package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/realtime"
	"github.com/Dosada05/event-portal/repositories"
)

const defaultNotificationLimit = 50

// InAppNotifier создает уведомление внутри приложения.
type InAppNotifier interface {
	CreateInAppNotification(ctx context.Context, userID, title, message string, kind models.NotificationKind, payload interface{}) error
}

// RoomBroadcaster - доставка сообщений подключенным клиентам (websocket hub).
type RoomBroadcaster interface {
	BroadcastToRoom(roomID string, message interface{})
}

type NotificationService struct {
	repo        repositories.NotificationRepository
	broadcaster RoomBroadcaster
}

func NewNotificationService(repo repositories.NotificationRepository, broadcaster RoomBroadcaster) *NotificationService {
	return &NotificationService{repo: repo, broadcaster: broadcaster}
}

// CreateInAppNotification сохраняет уведомление и пушит его в комнату пользователя.
func (s *NotificationService) CreateInAppNotification(ctx context.Context, userID, title, message string, kind models.NotificationKind, payload interface{}) error {
	n := &models.Notification{
		ID:      uuid.NewString(),
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    kind,
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to encode notification payload: %w", err)
		}
		n.Payload = raw
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	if s.broadcaster != nil {
		s.broadcaster.BroadcastToRoom(realtime.UserRoom(userID), realtime.Message{
			Type:    realtime.MessageNotification,
			Payload: n,
			RoomID:  realtime.UserRoom(userID),
		})
	}
	return nil
}

// PublishRegistrationState отправляет новое состояние регистрации во все вкладки пользователя.
func (s *NotificationService) PublishRegistrationState(userID string, state RegistrationState) {
	if s.broadcaster == nil || userID == "" {
		return
	}
	s.broadcaster.BroadcastToRoom(realtime.UserRoom(userID), realtime.Message{
		Type:    realtime.MessageRegistrationState,
		Payload: state,
		RoomID:  realtime.UserRoom(userID),
	})
}

func (s *NotificationService) List(ctx context.Context, userID string) ([]models.Notification, error) {
	return s.repo.ListByUser(ctx, userID, defaultNotificationLimit)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: invalid notification id", ErrValidationFailed)
	}
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
