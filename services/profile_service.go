package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
	"github.com/Dosada05/event-portal/storage"
)

const maxAvatarSize = 5 << 20

var allowedAvatarTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileService struct {
	profiles      repositories.ProfileRepository
	registrations repositories.RegistrationRepository
	uploader      storage.FileUploader
	logger        *slog.Logger
}

func NewProfileService(
	profiles repositories.ProfileRepository,
	registrations repositories.RegistrationRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) *ProfileService {
	return &ProfileService{
		profiles:      profiles,
		registrations: registrations,
		uploader:      uploader,
		logger:        logger,
	}
}

// Load возвращает профиль пользователя. Если профиля нет, он создается из claims провайдера -
// это единственное место, где профиль создается.
func (s *ProfileService) Load(ctx context.Context, identity models.Identity) (*models.Profile, error) {
	p, err := s.profiles.GetByID(ctx, identity.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, repositories.ErrProfileNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p = &models.Profile{
		ID:       identity.ID,
		Email:    identity.Email,
		FullName: identity.FullName,
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		if errors.Is(err, repositories.ErrProfileConflict) {
			// Параллельный запрос успел создать профиль раньше.
			return s.profiles.GetByID(ctx, identity.ID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	s.logger.Info("profile created from identity claims", slog.String("user_id", identity.ID))
	return p, nil
}

// Save сохраняет поля профиля по идентификатору.
func (s *ProfileService) Save(ctx context.Context, id string, fields models.ProfileFields) error {
	if err := s.profiles.Update(ctx, id, fields); err != nil {
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// ProfileOverview - профиль вместе с регистрациями пользователя.
type ProfileOverview struct {
	Profile       *models.Profile       `json:"profile"`
	Registrations []RegistrationSummary `json:"registrations"`
}

// RegistrationSummary - регистрация с данными для бейджа статуса.
type RegistrationSummary struct {
	models.Registration
	Label      string `json:"label"`
	BadgeColor string `json:"badge_color"`
}

// Overview загружает профиль и регистрации параллельно.
func (s *ProfileService) Overview(ctx context.Context, identity models.Identity) (*ProfileOverview, error) {
	var overview ProfileOverview
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := s.Load(gCtx, identity)
		if err != nil {
			return err
		}
		overview.Profile = p
		return nil
	})
	g.Go(func() error {
		regs, err := s.Registrations(gCtx, identity.ID)
		if err != nil {
			return err
		}
		overview.Registrations = regs
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}

func (s *ProfileService) Registrations(ctx context.Context, userID string) ([]RegistrationSummary, error) {
	regs, err := s.registrations.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	out := make([]RegistrationSummary, 0, len(regs))
	for _, r := range regs {
		if r.SubmissionKey != nil && s.uploader != nil {
			if url := s.uploader.GetPublicURL(*r.SubmissionKey); url != "" {
				r.SubmissionURL = &url
			}
		}
		out = append(out, RegistrationSummary{
			Registration: r,
			Label:        StatusLabel(r.Status),
			BadgeColor:   StatusColor(r.Status),
		})
	}
	return out, nil
}

// UploadAvatar загружает картинку профиля и сохраняет ее публичный URL.
func (s *ProfileService) UploadAvatar(ctx context.Context, userID, contentType string, size int64, r io.Reader) (string, error) {
	if s.uploader == nil {
		return "", ErrUploadsDisabled
	}
	ext, ok := allowedAvatarTypes[contentType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported image type %q", ErrValidationFailed, contentType)
	}
	if size > maxAvatarSize {
		return "", fmt.Errorf("%w: image must not exceed %d bytes", ErrValidationFailed, maxAvatarSize)
	}

	key := path.Join("avatars", userID, uuid.NewString()+ext)
	res, err := s.uploader.Upload(ctx, key, contentType, r)
	if err != nil {
		return "", fmt.Errorf("failed to upload avatar: %w", err)
	}
	if err := s.profiles.SetProfilePicture(ctx, userID, res.Location); err != nil {
		if delErr := s.uploader.Delete(ctx, key); delErr != nil {
			s.logger.Warn("failed to delete orphaned avatar", slog.String("key", key), slog.Any("error", delErr))
		}
		if errors.Is(err, repositories.ErrProfileNotFound) {
			return "", ErrProfileNotFound
		}
		return "", err
	}
	return res.Location, nil
}

// ProfileSession - форма редактирования профиля: режим просмотра показывает сохраненные
// значения, режим редактирования - локальный черновик.
type ProfileSession struct {
	svc *ProfileService

	mu        sync.Mutex
	persisted models.Profile
	draft     models.Profile
	editing   bool
}

// Open загружает (или лениво создает) профиль и открывает сессию редактирования.
func (s *ProfileService) Open(ctx context.Context, identity models.Identity) (*ProfileSession, error) {
	p, err := s.Load(ctx, identity)
	if err != nil {
		return nil, err
	}
	return &ProfileSession{svc: s, persisted: *p, draft: *p}, nil
}

func (ps *ProfileSession) Persisted() models.Profile {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.persisted
}

func (ps *ProfileSession) Draft() models.Profile {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.draft
}

func (ps *ProfileSession) Editing() bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.editing
}

// Edit переключает форму в режим редактирования, черновик начинается с сохраненных значений.
func (ps *ProfileSession) Edit() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.editing {
		ps.draft = ps.persisted
		ps.editing = true
	}
}

// Change применяет правки к черновику. Вне режима редактирования игнорируется.
func (ps *ProfileSession) Change(fields models.ProfileFields) bool {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if !ps.editing {
		return false
	}
	fields.Apply(&ps.draft)
	return true
}

// Cancel отбрасывает черновик и возвращает последние сохраненные значения.
func (ps *ProfileSession) Cancel() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.draft = ps.persisted
	ps.editing = false
}

// Save сохраняет черновик. При ошибке сохраненные значения не меняются и форма остается в
// режиме редактирования.
func (ps *ProfileSession) Save(ctx context.Context) (models.Profile, error) {
	ps.mu.Lock()
	draft := ps.draft
	ps.mu.Unlock()

	if err := ps.svc.Save(ctx, draft.ID, draftFields(draft)); err != nil {
		return ps.Persisted(), err
	}

	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.persisted = draft
	ps.editing = false
	return ps.persisted, nil
}

// draftFields передает все поля черновика явно: пустое необязательное поле очищается в хранилище.
func draftFields(p models.Profile) models.ProfileFields {
	return models.ProfileFields{
		FullName:    &p.FullName,
		Institution: &p.Institution,
		Phone:       &p.Phone,
		Gender:      clearIfNil(p.Gender),
		DateOfBirth: clearIfNil(p.DateOfBirth),
		TShirtSize:  clearIfNil(p.TShirtSize),
		Bio:         clearIfNil(p.Bio),
	}
}

func clearIfNil(s *string) *string {
	if s == nil {
		empty := ""
		return &empty
	}
	return s
}
