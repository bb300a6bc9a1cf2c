// Package memstore - хранилище в памяти с теми же контрактами, что и postgres-репозитории.
// Используется в тестах сервисов и обработчиков.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
)

// Hooks позволяют тестам подменить результат отдельных записей.
type Hooks struct {
	BeforeProfileUpsert      func(identity models.Identity) error
	BeforeTeamCreate         func(team *models.Team) error
	BeforeMemberCreate       func(member *models.TeamMember) error
	BeforeRegistrationCreate func(reg *models.Registration) error
	BeforeNotificationCreate func(n *models.Notification) error
}

type Store struct {
	mu    sync.Mutex
	hooks Hooks
	now   func() time.Time

	events        map[int]models.Event
	profiles      map[string]models.Profile
	teams         map[int]models.Team
	members       []models.TeamMember
	registrations []models.Registration
	notifications []models.Notification

	nextID int
	writes int
}

func New() *Store {
	return &Store{
		now:      time.Now,
		events:   make(map[int]models.Event),
		profiles: make(map[string]models.Profile),
		teams:    make(map[int]models.Team),
	}
}

func (s *Store) SetHooks(h Hooks) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = h
}

func (s *Store) AddEvent(e models.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = e
}

func (s *Store) AddProfile(p models.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.ID] = p
}

// AddRegistration кладет регистрацию напрямую, минуя проверки и счетчик записей.
func (s *Store) AddRegistration(reg models.Registration) models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	reg.ID = s.nextID
	s.registrations = append(s.registrations, reg)
	return reg
}

// Writes - число успешных записей через репозитории.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func (s *Store) Teams() []models.Team {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Members() []models.TeamMember {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.TeamMember(nil), s.members...)
}

func (s *Store) Registrations() []models.Registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Registration(nil), s.registrations...)
}

func (s *Store) Notifications() []models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Notification(nil), s.notifications...)
}

func (s *Store) EventRepository() repositories.EventRepository           { return eventRepo{s} }
func (s *Store) ProfileRepository() repositories.ProfileRepository       { return profileRepo{s} }
func (s *Store) TeamRepository() repositories.TeamRepository             { return teamRepo{s} }
func (s *Store) TeamMemberRepository() repositories.TeamMemberRepository { return memberRepo{s} }
func (s *Store) RegistrationRepository() repositories.RegistrationRepository {
	return registrationRepo{s}
}
func (s *Store) NotificationRepository() repositories.NotificationRepository {
	return notificationRepo{s}
}

type eventRepo struct{ s *Store }

func (r eventRepo) ListActive(ctx context.Context) ([]models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		if e.IsActive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EventDate.Before(out[j].EventDate) })
	return out, nil
}

func (r eventRepo) GetByID(ctx context.Context, id int) (*models.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	return &e, nil
}

type profileRepo struct{ s *Store }

func (r profileRepo) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return nil, repositories.ErrProfileNotFound
	}
	return &p, nil
}

func (r profileRepo) Create(ctx context.Context, p *models.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.profiles[p.ID]; ok {
		return repositories.ErrProfileConflict
	}
	p.CreatedAt = r.s.now()
	r.s.profiles[p.ID] = *p
	r.s.writes++
	return nil
}

func (r profileRepo) Upsert(ctx context.Context, identity models.Identity, f models.ProfileFields) (*models.Profile, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h := r.s.hooks.BeforeProfileUpsert; h != nil {
		if err := h(identity); err != nil {
			return nil, err
		}
	}
	p, ok := r.s.profiles[identity.ID]
	if !ok {
		p = models.Profile{ID: identity.ID, Email: identity.Email, FullName: identity.FullName, CreatedAt: r.s.now()}
	} else {
		if p.Email == "" {
			p.Email = identity.Email
		}
		now := r.s.now()
		p.UpdatedAt = &now
	}
	f.Apply(&p)
	r.s.profiles[p.ID] = p
	r.s.writes++
	return &p, nil
}

func (r profileRepo) Update(ctx context.Context, id string, f models.ProfileFields) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	f.Apply(&p)
	now := r.s.now()
	p.UpdatedAt = &now
	r.s.profiles[id] = p
	r.s.writes++
	return nil
}

func (r profileRepo) SetProfilePicture(ctx context.Context, id string, url string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.profiles[id]
	if !ok {
		return repositories.ErrProfileNotFound
	}
	p.ProfilePicture = &url
	r.s.profiles[id] = p
	r.s.writes++
	return nil
}

type teamRepo struct{ s *Store }

func (r teamRepo) Create(ctx context.Context, team *models.Team) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h := r.s.hooks.BeforeTeamCreate; h != nil {
		if err := h(team); err != nil {
			return err
		}
	}
	if _, ok := r.s.events[team.EventID]; !ok {
		return repositories.ErrTeamEventInvalid
	}
	r.s.nextID++
	team.ID = r.s.nextID
	team.CreatedAt = r.s.now()
	stored := *team
	stored.Members = nil
	r.s.teams[team.ID] = stored
	r.s.writes++
	return nil
}

func (r teamRepo) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.teams[id]
	if !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &t, nil
}

type memberRepo struct{ s *Store }

func (r memberRepo) Create(ctx context.Context, m *models.TeamMember) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h := r.s.hooks.BeforeMemberCreate; h != nil {
		if err := h(m); err != nil {
			return err
		}
	}
	if _, ok := r.s.teams[m.TeamID]; !ok {
		return repositories.ErrTeamMemberInvalid
	}
	r.s.nextID++
	m.ID = r.s.nextID
	m.CreatedAt = r.s.now()
	r.s.members = append(r.s.members, *m)
	r.s.writes++
	return nil
}

func (r memberRepo) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.TeamMember, 0)
	for _, m := range r.s.members {
		if m.TeamID == teamID {
			out = append(out, m)
		}
	}
	return out, nil
}

type registrationRepo struct{ s *Store }

func (r registrationRepo) Create(ctx context.Context, reg *models.Registration) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h := r.s.hooks.BeforeRegistrationCreate; h != nil {
		if err := h(reg); err != nil {
			return err
		}
	}
	event, ok := r.s.events[reg.EventID]
	if !ok {
		return repositories.ErrRegistrationEventInvalid
	}
	if _, ok := r.s.profiles[reg.UserID]; !ok {
		return repositories.ErrRegistrationUserInvalid
	}
	if !reg.Status.IsValid() {
		return repositories.ErrRegistrationStatusInvalid
	}
	registered, count := false, 0
	for _, existing := range r.s.registrations {
		if existing.EventID != reg.EventID {
			continue
		}
		if existing.UserID == reg.UserID {
			registered = true
		}
		count++
	}
	if err := repositories.AdmitRegistration(registered, count, event.MaxParticipants); err != nil {
		return err
	}
	r.s.nextID++
	reg.ID = r.s.nextID
	r.s.registrations = append(r.s.registrations, *reg)
	r.s.writes++
	return nil
}

func (r registrationRepo) find(match func(models.Registration) bool) (*models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reg := range r.s.registrations {
		if match(reg) {
			return &reg, nil
		}
	}
	return nil, repositories.ErrRegistrationNotFound
}

func (r registrationRepo) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	return r.find(func(reg models.Registration) bool { return reg.ID == id })
}

func (r registrationRepo) FindByUserAndEvent(ctx context.Context, userID string, eventID int) (*models.Registration, error) {
	return r.find(func(reg models.Registration) bool { return reg.UserID == userID && reg.EventID == eventID })
}

func (r registrationRepo) ListByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Registration, 0)
	for _, reg := range r.s.registrations {
		if reg.UserID != userID {
			continue
		}
		if e, ok := r.s.events[reg.EventID]; ok {
			reg.Event = &models.EventSummary{
				ID: e.ID, Name: e.Name, EventType: e.EventType, EventDate: e.EventDate,
				Platform: e.Platform, IsPaid: e.IsPaid, Price: e.Price,
			}
		}
		out = append(out, reg)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegistrationDate.After(out[j].RegistrationDate) })
	return out, nil
}

func (r registrationRepo) update(id int, fn func(reg *models.Registration)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.registrations {
		if r.s.registrations[i].ID == id {
			fn(&r.s.registrations[i])
			r.s.writes++
			return nil
		}
	}
	return repositories.ErrRegistrationNotFound
}

func (r registrationRepo) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	if !status.IsValid() {
		return repositories.ErrRegistrationStatusInvalid
	}
	return r.update(id, func(reg *models.Registration) { reg.Status = status })
}

func (r registrationRepo) SetSubmission(ctx context.Context, id int, key string) error {
	return r.update(id, func(reg *models.Registration) {
		reg.SubmissionKey = &key
		reg.Status = models.RegistrationSubmitted
	})
}

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if h := r.s.hooks.BeforeNotificationCreate; h != nil {
		if err := h(n); err != nil {
			return err
		}
	}
	n.CreatedAt = r.s.now()
	r.s.notifications = append(r.s.notifications, *n)
	r.s.writes++
	return nil
}

func (r notificationRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Notification, 0)
	for i := len(r.s.notifications) - 1; i >= 0 && len(out) < limit; i-- {
		if n := r.s.notifications[i]; n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (r notificationRepo) MarkRead(ctx context.Context, id string, userID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.notifications {
		n := &r.s.notifications[i]
		if strings.EqualFold(n.ID, id) && n.UserID == userID {
			n.Read = true
			r.s.writes++
			return nil
		}
	}
	return repositories.ErrNotificationNotFound
}
