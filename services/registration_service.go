package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
)

const (
	defaultNotifyTimeout = 30 * time.Second

	msgRegistered        = "You have successfully registered for this event"
	msgTeamRegistered    = "Your team registration has been submitted"
	msgAlreadyRegistered = "You are already registered for this event"
	msgEventFull         = "This event has reached its maximum number of participants"
	msgTryAgain          = "There was an error registering for this event. Please try again."
)

// RegistrationConfig - настраиваемое поведение регистрации.
type RegistrationConfig struct {
	// IndividualStatus - начальный статус индивидуальной регистрации (confirmed или pending).
	IndividualStatus models.RegistrationStatus
	PublicURL        string
}

// RegistrationForm - данные формы регистрации.
type RegistrationForm struct {
	Profile  models.ProfileFields `json:"profile"`
	TeamName string               `json:"team_name,omitempty"`
	Members  []string             `json:"members,omitempty"`
}

// RegistrationService создает автоматы регистрации и хранит их общие зависимости.
type RegistrationService struct {
	profiles      repositories.ProfileRepository
	teams         repositories.TeamRepository
	members       repositories.TeamMemberRepository
	registrations repositories.RegistrationRepository
	email         EmailSender
	inApp         InAppNotifier
	cfg           RegistrationConfig
	logger        *slog.Logger
	tracer        trace.Tracer

	now           func() time.Time
	notifyTimeout time.Duration
	pending       sync.WaitGroup
}

func NewRegistrationService(
	profiles repositories.ProfileRepository,
	teams repositories.TeamRepository,
	members repositories.TeamMemberRepository,
	registrations repositories.RegistrationRepository,
	email EmailSender,
	inApp InAppNotifier,
	cfg RegistrationConfig,
	logger *slog.Logger,
) *RegistrationService {
	if cfg.IndividualStatus == "" {
		cfg.IndividualStatus = models.RegistrationConfirmed
	}
	return &RegistrationService{
		profiles:      profiles,
		teams:         teams,
		members:       members,
		registrations: registrations,
		email:         email,
		inApp:         inApp,
		cfg:           cfg,
		logger:        logger,
		tracer:        otel.Tracer("github.com/Dosada05/event-portal/services"),
		now:           time.Now,
		notifyTimeout: defaultNotifyTimeout,
	}
}

// Wait блокируется, пока не завершатся фоновые отправки уведомлений.
func (s *RegistrationService) Wait() {
	s.pending.Wait()
}

// NewWorkflow создает автомат регистрации для события и текущей личности (nil - гость).
func (s *RegistrationService) NewWorkflow(event *models.Event, identity *models.Identity) *RegistrationWorkflow {
	return &RegistrationWorkflow{
		svc:      s,
		event:    event,
		identity: identity,
		state: RegistrationState{
			Phase:   PhaseUnchecked,
			Label:   LabelChecking,
			EventID: event.ID,
		},
		subs: make(map[int]func(RegistrationState)),
	}
}

// RegistrationWorkflow - автомат unchecked -> checking -> {not_registered | registered},
// not_registered -> submitting -> {registered | not_registered}.
// Операции выполняются строго по одной; подписчики вызываются после каждой смены состояния
// и не должны сами вызывать операции автомата.
type RegistrationWorkflow struct {
	svc   *RegistrationService
	event *models.Event

	opMu     sync.Mutex
	identity *models.Identity

	mu      sync.Mutex
	state   RegistrationState
	subs    map[int]func(RegistrationState)
	nextSub int
}

func (w *RegistrationWorkflow) State() RegistrationState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Subscribe регистрирует обработчик смены состояния и возвращает функцию отписки.
func (w *RegistrationWorkflow) Subscribe(fn func(RegistrationState)) func() {
	w.mu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

func (w *RegistrationWorkflow) setState(st RegistrationState) {
	w.mu.Lock()
	w.state = st
	subs := make([]func(RegistrationState), 0, len(w.subs))
	for _, fn := range w.subs {
		subs = append(subs, fn)
	}
	w.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
}

// Init загружает состояние регистрации из хранилища.
func (w *RegistrationWorkflow) Init(ctx context.Context) (RegistrationState, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	return w.rehydrate(ctx, "")
}

// SetIdentity реагирует на смену сессии: состояние пересчитывается для новой личности.
func (w *RegistrationWorkflow) SetIdentity(ctx context.Context, identity *models.Identity) (RegistrationState, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()
	w.identity = identity
	return w.rehydrate(ctx, "")
}

func (w *RegistrationWorkflow) rehydrate(ctx context.Context, message string) (RegistrationState, error) {
	if w.identity == nil {
		st := notRegisteredState(w.event, nil, w.svc.now(), message)
		w.setState(st)
		return st, nil
	}

	w.setState(RegistrationState{Phase: PhaseChecking, Label: LabelChecking, EventID: w.event.ID})

	reg, err := w.svc.registrations.FindByUserAndEvent(ctx, w.identity.ID, w.event.ID)
	switch {
	case err == nil:
		st := registeredState(w.event.ID, reg, message)
		w.setState(st)
		return st, nil
	case errors.Is(err, repositories.ErrRegistrationNotFound):
		st := notRegisteredState(w.event, w.identity, w.svc.now(), message)
		w.setState(st)
		return st, nil
	default:
		// Хранилище недоступно: показываем форму, дубликат все равно отсечет уникальный индекс.
		w.svc.logger.Warn("failed to check registration",
			slog.String("user_id", w.identity.ID), slog.Int("event_id", w.event.ID), slog.Any("error", err))
		st := notRegisteredState(w.event, w.identity, w.svc.now(), message)
		w.setState(st)
		return st, fmt.Errorf("failed to check registration: %w", err)
	}
}

type submitResult struct {
	registration  *models.Registration
	team          *models.Team
	memberNames   []string
	failedMembers int
}

// Submit проводит регистрацию. Ошибки допуска и валидации возвращаются до любой записи.
func (w *RegistrationWorkflow) Submit(ctx context.Context, form RegistrationForm) (RegistrationState, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	ctx, span := w.svc.tracer.Start(ctx, "registration.submit", trace.WithAttributes(
		attribute.Int("event.id", w.event.ID),
		attribute.Bool("event.team_based", w.event.IsTeamBased),
	))
	defer span.End()

	cur := w.State()
	if cur.Phase == PhaseUnchecked && w.identity != nil {
		var err error
		if cur, err = w.rehydrate(ctx, ""); err != nil {
			span.RecordError(err)
		}
	}
	if cur.Phase == PhaseRegistered {
		cur.Message = msgAlreadyRegistered
		w.setState(cur)
		return cur, nil
	}

	elig := EventEligibility(w.event, w.identity, w.svc.now())
	if !elig.Allowed {
		st := notRegisteredState(w.event, w.identity, w.svc.now(), elig.Message)
		w.setState(st)
		span.SetAttributes(attribute.String("registration.rejected", string(elig.Reason)))
		return st, elig.Err()
	}
	identity := *w.identity

	var memberNames []string
	if w.event.IsTeamBased {
		var err error
		if memberNames, err = validateTeam(w.event, form); err != nil {
			st := notRegisteredState(w.event, w.identity, w.svc.now(), err.Error())
			w.setState(st)
			return st, err
		}
	}

	w.setState(RegistrationState{Phase: PhaseSubmitting, Label: LabelRegistering, EventID: w.event.ID})

	res, err := w.persist(ctx, identity, form, memberNames)
	if err != nil {
		span.RecordError(err)
		return w.recoverFromWriteError(ctx, identity, err)
	}

	span.SetAttributes(
		attribute.String("registration.status", string(res.registration.Status)),
		attribute.Int("team.failed_members", res.failedMembers),
	)
	w.svc.dispatchNotifications(ctx, identity, w.event, res)

	message := msgRegistered
	if res.team != nil {
		message = msgTeamRegistered
	}
	st := registeredState(w.event.ID, res.registration, message)
	w.setState(st)
	return st, nil
}

// recoverFromWriteError переводит автомат после неудачной записи: дубликат - это "уже зарегистрирован".
func (w *RegistrationWorkflow) recoverFromWriteError(ctx context.Context, identity models.Identity, err error) (RegistrationState, error) {
	span := trace.SpanFromContext(ctx)

	switch {
	case errors.Is(err, repositories.ErrRegistrationConflict):
		existing, findErr := w.svc.registrations.FindByUserAndEvent(ctx, identity.ID, w.event.ID)
		if findErr == nil {
			st := registeredState(w.event.ID, existing, msgAlreadyRegistered)
			w.setState(st)
			return st, nil
		}
		w.svc.logger.Error("failed to reload existing registration",
			slog.String("user_id", identity.ID), slog.Int("event_id", w.event.ID), slog.Any("error", findErr))

	case errors.Is(err, repositories.ErrEventFull):
		st := notRegisteredState(w.event, w.identity, w.svc.now(), msgEventFull)
		w.setState(st)
		return st, ErrEventFull
	}

	span.SetStatus(codes.Error, "registration failed")
	w.svc.logger.Error("registration failed",
		slog.String("user_id", identity.ID), slog.Int("event_id", w.event.ID), slog.Any("error", err))
	st := notRegisteredState(w.event, w.identity, w.svc.now(), msgTryAgain)
	w.setState(st)
	return st, fmt.Errorf("%w: %w", ErrRegistrationFailed, err)
}

func validateTeam(event *models.Event, form RegistrationForm) ([]string, error) {
	if strings.TrimSpace(form.TeamName) == "" {
		return nil, ErrTeamNameRequired
	}
	names := make([]string, 0, len(form.Members))
	for _, n := range form.Members {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	size := len(names) + 1 // лидер
	if size > event.TeamSizeMax {
		return nil, fmt.Errorf("%w: at most %d members besides the leader", ErrTeamTooLarge, event.TeamSizeMax-1)
	}
	if size < event.TeamSizeMin {
		return nil, fmt.Errorf("%w: at least %d members besides the leader", ErrTeamTooSmall, event.TeamSizeMin-1)
	}
	return names, nil
}

// persist выполняет зависимые записи по порядку: профиль, затем команда и участники, затем регистрация.
func (w *RegistrationWorkflow) persist(ctx context.Context, identity models.Identity, form RegistrationForm, memberNames []string) (*submitResult, error) {
	s := w.svc

	upsertCtx, span := s.tracer.Start(ctx, "registration.profile_upsert")
	_, err := s.profiles.Upsert(upsertCtx, identity, form.Profile)
	span.End()
	if err != nil {
		return nil, fmt.Errorf("profile upsert: %w", err)
	}

	res := &submitResult{}
	reg := &models.Registration{
		UserID:           identity.ID,
		EventID:          w.event.ID,
		Status:           s.cfg.IndividualStatus,
		RegistrationDate: s.now().UTC(),
	}

	if w.event.IsTeamBased {
		team := &models.Team{
			Name:     strings.TrimSpace(form.TeamName),
			LeaderID: identity.ID,
			EventID:  w.event.ID,
		}
		if err := s.teams.Create(ctx, team); err != nil {
			return nil, fmt.Errorf("team insert: %w", err)
		}
		res.team = team
		res.memberNames = memberNames
		res.failedMembers = s.insertMembers(ctx, team, memberNames)

		reg.TeamID = &team.ID
		reg.Status = models.RegistrationPending
	}

	regCtx, span := s.tracer.Start(ctx, "registration.insert")
	err = s.registrations.Create(regCtx, reg)
	span.End()
	if err != nil {
		return nil, err
	}
	res.registration = reg
	return res, nil
}

// insertMembers вставляет участников параллельно. Ошибка одной вставки не отменяет остальные
// и не откатывает команду; возвращается число неудачных вставок.
func (s *RegistrationService) insertMembers(ctx context.Context, team *models.Team, names []string) int {
	var failed atomic.Int32
	var g errgroup.Group
	for _, name := range names {
		name := name
		g.Go(func() error {
			member := &models.TeamMember{
				TeamID:     team.ID,
				MemberName: name,
				Role:       models.TeamRoleMember,
			}
			if err := s.members.Create(ctx, member); err != nil {
				failed.Add(1)
				s.logger.Warn("failed to insert team member",
					slog.Int("team_id", team.ID), slog.String("member", name), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
	return int(failed.Load())
}

// dispatchNotifications отправляет письмо и in-app уведомление в фоне. Ошибки только логируются.
func (s *RegistrationService) dispatchNotifications(ctx context.Context, identity models.Identity, event *models.Event, res *submitResult) {
	kind := EmailRegistrationConfirmed
	switch {
	case res.team != nil:
		kind = EmailTeamRegistered
	case res.registration.Status == models.RegistrationPending:
		kind = EmailRegistrationPending
	}

	data := RegistrationEmailData{
		FullName:  identity.FullName,
		EventName: event.Name,
		EventDate: event.EventDate.Format("Monday, January 2, 2006"),
		Status:    string(res.registration.Status),
		Link:      fmt.Sprintf("%s/events/%d", s.cfg.PublicURL, event.ID),
	}
	title := "Registration successful"
	message := fmt.Sprintf("You are registered for %s.", event.Name)
	notifKind := models.NotificationRegistration
	payload := map[string]interface{}{
		"event_id":        event.ID,
		"registration_id": res.registration.ID,
		"status":          res.registration.Status,
	}
	if res.team != nil {
		data.TeamName = res.team.Name
		data.Members = res.memberNames
		title = "Team registration submitted"
		message = fmt.Sprintf("Team %s is registered for %s and awaiting confirmation.", res.team.Name, event.Name)
		notifKind = models.NotificationTeam
		payload["team_id"] = res.team.ID
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		if identity.Email != "" && s.email != nil {
			if err := s.email.SendEmail(bgCtx, kind, identity.Email, data); err != nil {
				s.logger.Warn("failed to send registration email",
					slog.String("user_id", identity.ID), slog.Int("event_id", event.ID), slog.Any("error", err))
			}
		}
		if s.inApp != nil {
			if err := s.inApp.CreateInAppNotification(bgCtx, identity.ID, title, message, notifKind, payload); err != nil {
				s.logger.Warn("failed to create in-app notification",
					slog.String("user_id", identity.ID), slog.Int("event_id", event.ID), slog.Any("error", err))
			}
		}
	}()
}
