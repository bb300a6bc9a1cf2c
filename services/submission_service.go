package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
	"github.com/Dosada05/event-portal/storage"
)

const maxSubmissionSize = 50 << 20

// SubmissionUpload - загружаемый файл работы.
type SubmissionUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmissionService принимает работы участников и переводит регистрацию в submitted.
type SubmissionService struct {
	events        repositories.EventRepository
	registrations repositories.RegistrationRepository
	uploader      storage.FileUploader
	email         EmailSender
	inApp         InAppNotifier
	publicURL     string
	logger        *slog.Logger

	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewSubmissionService(
	events repositories.EventRepository,
	registrations repositories.RegistrationRepository,
	uploader storage.FileUploader,
	email EmailSender,
	inApp InAppNotifier,
	publicURL string,
	logger *slog.Logger,
) *SubmissionService {
	return &SubmissionService{
		events:        events,
		registrations: registrations,
		uploader:      uploader,
		email:         email,
		inApp:         inApp,
		publicURL:     publicURL,
		logger:        logger,
		notifyTimeout: defaultNotifyTimeout,
	}
}

func (s *SubmissionService) Wait() {
	s.pending.Wait()
}

// Submit загружает работу. Повторная загрузка заменяет предыдущую.
func (s *SubmissionService) Submit(ctx context.Context, identity models.Identity, eventID int, upload SubmissionUpload) (*models.Registration, error) {
	if s.uploader == nil {
		return nil, ErrUploadsDisabled
	}
	if upload.Size <= 0 || upload.Size > maxSubmissionSize {
		return nil, fmt.Errorf("%w: file size must be between 1 and %d bytes", ErrValidationFailed, maxSubmissionSize)
	}

	reg, err := s.registrations.FindByUserAndEvent(ctx, identity.ID, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrRegistrationNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to load registration: %w", err)
	}
	if reg.Status != models.RegistrationConfirmed && reg.Status != models.RegistrationSubmitted {
		return nil, fmt.Errorf("%w: only confirmed registrations accept submissions", ErrInvalidStatusChange)
	}

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to load event: %w", err)
	}

	key := path.Join("submissions", fmt.Sprint(eventID), identity.ID, uuid.NewString()+path.Ext(sanitizeFilename(upload.Filename)))
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.uploader.Upload(ctx, key, contentType, upload.Body); err != nil {
		return nil, fmt.Errorf("failed to upload submission: %w", err)
	}

	previous := reg.SubmissionKey
	if err := s.registrations.SetSubmission(ctx, reg.ID, key); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned submission", slog.String("key", key), slog.Any("error", delErr))
		}
		return nil, fmt.Errorf("failed to store submission: %w", err)
	}
	if previous != nil && *previous != key {
		if err := s.uploader.Delete(ctx, *previous); err != nil {
			s.logger.Warn("failed to delete replaced submission", slog.String("key", *previous), slog.Any("error", err))
		}
	}

	reg.Status = models.RegistrationSubmitted
	reg.SubmissionKey = &key
	if url := s.uploader.GetPublicURL(key); url != "" {
		reg.SubmissionURL = &url
	}

	s.notify(ctx, identity, event, reg)
	return reg, nil
}

func (s *SubmissionService) notify(ctx context.Context, identity models.Identity, event *models.Event, reg *models.Registration) {
	data := RegistrationEmailData{
		FullName:  identity.FullName,
		EventName: event.Name,
		EventDate: event.EventDate.Format("Monday, January 2, 2006"),
		Status:    string(reg.Status),
		Link:      fmt.Sprintf("%s/events/%d", s.publicURL, event.ID),
	}
	payload := map[string]interface{}{"event_id": event.ID, "registration_id": reg.ID}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		if identity.Email != "" && s.email != nil {
			if err := s.email.SendEmail(bgCtx, EmailSubmissionReceived, identity.Email, data); err != nil {
				s.logger.Warn("failed to send submission email", slog.String("user_id", identity.ID), slog.Any("error", err))
			}
		}
		if s.inApp != nil {
			msg := fmt.Sprintf("Your submission for %s was received.", event.Name)
			if err := s.inApp.CreateInAppNotification(bgCtx, identity.ID, "Submission received", msg, models.NotificationSubmission, payload); err != nil {
				s.logger.Warn("failed to create submission notification", slog.String("user_id", identity.ID), slog.Any("error", err))
			}
		}
	}()
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 10 {
		return ""
	}
	return name
}
