package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories/memstore"
)

func strPtr(s string) *string { return &s }

func TestWorkflowGuestCannotSubmit(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)

	wf := f.svc.NewWorkflow(&event, nil)
	st, err := wf.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, PhaseNotRegistered, st.Phase)
	require.Equal(t, LabelSignIn, st.Label)
	require.False(t, st.CanSubmit)

	_, err = wf.Submit(context.Background(), RegistrationForm{})
	require.ErrorIs(t, err, ErrSignInRequired)
	require.Zero(t, f.store.Writes())
}

func TestWorkflowRejectsBeforeAnyWrite(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(e *models.Event)
		wantErr error
	}{
		{"inactive event", func(e *models.Event) { e.IsActive = false }, ErrRegistrationClosed},
		{"deadline passed", func(e *models.Event) { e.RegistrationDeadline = testNow.Add(-time.Minute) }, ErrDeadlinePassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t, RegistrationConfig{})
			event := individualEvent(1)
			tt.mutate(&event)
			f.store.AddEvent(event)

			wf := f.svc.NewWorkflow(&event, testIdentity("u1"))
			st, err := wf.Submit(context.Background(), RegistrationForm{})
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, PhaseNotRegistered, st.Phase)
			require.NotEmpty(t, st.Message)
			require.Zero(t, f.store.Writes())
			require.Empty(t, f.store.Registrations())
		})
	}
}

func TestWorkflowDeadlineRecheckedAtSubmit(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)

	wf := f.svc.NewWorkflow(&event, testIdentity("u1"))
	st, err := wf.Init(context.Background())
	require.NoError(t, err)
	require.True(t, st.CanSubmit)

	// форма оставалась открытой, пока дедлайн не прошел
	f.svc.now = func() time.Time { return event.RegistrationDeadline.Add(time.Second) }
	_, err = wf.Submit(context.Background(), RegistrationForm{})
	require.ErrorIs(t, err, ErrDeadlinePassed)
	require.Empty(t, f.store.Registrations())
}

func TestWorkflowIndividualRegistration(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{PublicURL: "https://portal.test"})
	event := individualEvent(7)
	f.store.AddEvent(event)
	identity := testIdentity("u1")

	wf := f.svc.NewWorkflow(&event, identity)
	st, err := wf.Submit(context.Background(), RegistrationForm{
		Profile: models.ProfileFields{Institution: strPtr("MIT"), Phone: strPtr("+100")},
	})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, models.RegistrationConfirmed, st.Status)
	require.Equal(t, LabelConfirmed, st.Label)
	require.Equal(t, "green", st.BadgeColor)
	require.Equal(t, msgRegistered, st.Message)

	regs := f.store.Registrations()
	require.Len(t, regs, 1)
	require.Equal(t, "u1", regs[0].UserID)
	require.Nil(t, regs[0].TeamID)

	profile, err := f.store.ProfileRepository().GetByID(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "MIT", profile.Institution)
	require.Equal(t, identity.FullName, profile.FullName)

	f.svc.Wait()
	sent := f.email.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, EmailRegistrationConfirmed, sent[0].kind)
	require.Equal(t, identity.Email, sent[0].to)
	require.Equal(t, "https://portal.test/events/7", sent[0].data.(RegistrationEmailData).Link)

	notifications := f.store.Notifications()
	require.Len(t, notifications, 1)
	require.Equal(t, models.NotificationRegistration, notifications[0].Kind)
}

func TestWorkflowPendingIndividualStatus(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{IndividualStatus: models.RegistrationPending})
	event := individualEvent(1)
	f.store.AddEvent(event)

	st, err := f.svc.NewWorkflow(&event, testIdentity("u1")).Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, models.RegistrationPending, st.Status)
	require.Equal(t, LabelPending, st.Label)
	require.Equal(t, "yellow", st.BadgeColor)

	f.svc.Wait()
	require.Equal(t, EmailRegistrationPending, f.email.Sent()[0].kind)
}

func TestWorkflowRevisitShowsExistingRegistration(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	f.store.AddRegistration(models.Registration{UserID: "u1", EventID: 1, Status: models.RegistrationSubmitted})

	st, err := f.svc.NewWorkflow(&event, testIdentity("u1")).Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, LabelSubmitted, st.Label)
	require.Equal(t, "blue", st.BadgeColor)
	require.False(t, st.CanSubmit)
}

func TestWorkflowDoubleSubmitWritesOnce(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	wf := f.svc.NewWorkflow(&event, testIdentity("u1"))

	_, err := wf.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	st, err := wf.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, msgAlreadyRegistered, st.Message)
	require.Len(t, f.store.Registrations(), 1)
	f.svc.Wait()
	require.Len(t, f.email.Sent(), 1)
}

func TestWorkflowConcurrentTabsRegisterOnce(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)

	const tabs = 5
	var wg sync.WaitGroup
	states := make([]RegistrationState, tabs)
	errs := make([]error, tabs)
	for i := 0; i < tabs; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			wf := f.svc.NewWorkflow(&event, testIdentity("u1"))
			states[i], errs[i] = wf.Submit(context.Background(), RegistrationForm{})
		}()
	}
	wg.Wait()

	for i := 0; i < tabs; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, PhaseRegistered, states[i].Phase)
	}
	require.Len(t, f.store.Registrations(), 1)
}

func TestWorkflowConflictOnInsertReportsAlreadyRegistered(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	wf := f.svc.NewWorkflow(&event, testIdentity("u1"))

	st, err := wf.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, PhaseNotRegistered, st.Phase)

	// другая вкладка успела зарегистрироваться после проверки
	f.store.AddRegistration(models.Registration{UserID: "u1", EventID: 1, Status: models.RegistrationConfirmed})

	st, err = wf.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, msgAlreadyRegistered, st.Message)
	require.Len(t, f.store.Registrations(), 1)
}

func TestWorkflowTeamRegistration(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := teamEvent(3, 2, 4)
	f.store.AddEvent(event)

	wf := f.svc.NewWorkflow(&event, testIdentity("lead"))
	st, err := wf.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, LabelRegisterTeam, st.Label)
	require.Equal(t, 3, st.MemberSlots)

	st, err = wf.Submit(context.Background(), RegistrationForm{
		TeamName: "  Rockets ",
		Members:  []string{"Ann", " ", "Bob", "Cid"},
	})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, models.RegistrationPending, st.Status)
	require.Equal(t, msgTeamRegistered, st.Message)

	teams := f.store.Teams()
	require.Len(t, teams, 1)
	require.Equal(t, "Rockets", teams[0].Name)
	require.Equal(t, "lead", teams[0].LeaderID)

	members := f.store.Members()
	require.Len(t, members, 3)
	for _, m := range members {
		require.Equal(t, teams[0].ID, m.TeamID)
		require.Equal(t, models.TeamRoleMember, m.Role)
		require.Nil(t, m.UserID)
	}

	regs := f.store.Registrations()
	require.Len(t, regs, 1)
	require.NotNil(t, regs[0].TeamID)
	require.Equal(t, teams[0].ID, *regs[0].TeamID)

	f.svc.Wait()
	sent := f.email.Sent()
	require.Len(t, sent, 1)
	require.Equal(t, EmailTeamRegistered, sent[0].kind)
	require.ElementsMatch(t, []string{"Ann", "Bob", "Cid"}, sent[0].data.(RegistrationEmailData).Members)
}

func TestWorkflowTeamValidation(t *testing.T) {
	tests := []struct {
		name    string
		form    RegistrationForm
		wantErr error
	}{
		{"missing name", RegistrationForm{TeamName: " ", Members: []string{"Ann"}}, ErrTeamNameRequired},
		{"too small", RegistrationForm{TeamName: "T", Members: []string{"", "  "}}, ErrTeamTooSmall},
		{"too large", RegistrationForm{TeamName: "T", Members: []string{"A", "B", "C", "D"}}, ErrTeamTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t, RegistrationConfig{})
			event := teamEvent(1, 2, 4)
			f.store.AddEvent(event)

			st, err := f.svc.NewWorkflow(&event, testIdentity("lead")).Submit(context.Background(), tt.form)
			require.ErrorIs(t, err, tt.wantErr)
			require.Equal(t, PhaseNotRegistered, st.Phase)
			require.Zero(t, f.store.Writes())
		})
	}
}

func TestWorkflowMemberFailureIsNotRolledBack(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := teamEvent(1, 1, 4)
	f.store.AddEvent(event)
	f.store.SetHooks(memstore.Hooks{
		BeforeMemberCreate: func(m *models.TeamMember) error {
			if m.MemberName == "Bob" {
				return errors.New("insert failed")
			}
			return nil
		},
	})

	st, err := f.svc.NewWorkflow(&event, testIdentity("lead")).Submit(context.Background(), RegistrationForm{
		TeamName: "T",
		Members:  []string{"Ann", "Bob", "Cid"},
	})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Len(t, f.store.Teams(), 1)
	require.Len(t, f.store.Members(), 2)
	require.Len(t, f.store.Registrations(), 1)
}

func TestWorkflowNotificationFailuresAreSwallowed(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	f.email.err = errors.New("smtp down")
	f.store.SetHooks(memstore.Hooks{
		BeforeNotificationCreate: func(*models.Notification) error { return errors.New("db down") },
	})
	event := individualEvent(1)
	f.store.AddEvent(event)

	st, err := f.svc.NewWorkflow(&event, testIdentity("u1")).Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	f.svc.Wait()
	require.Len(t, f.store.Registrations(), 1)
	require.Empty(t, f.store.Notifications())
}

func TestWorkflowEventFull(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	limit := 1
	event.MaxParticipants = &limit
	f.store.AddEvent(event)
	f.store.AddRegistration(models.Registration{UserID: "other", EventID: 1, Status: models.RegistrationConfirmed})

	st, err := f.svc.NewWorkflow(&event, testIdentity("u1")).Submit(context.Background(), RegistrationForm{})
	require.ErrorIs(t, err, ErrEventFull)
	require.Equal(t, PhaseNotRegistered, st.Phase)
	require.Equal(t, msgEventFull, st.Message)
}

func TestWorkflowGenericWriteFailure(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	f.store.SetHooks(memstore.Hooks{
		BeforeRegistrationCreate: func(*models.Registration) error { return errors.New("connection reset") },
	})

	st, err := f.svc.NewWorkflow(&event, testIdentity("u1")).Submit(context.Background(), RegistrationForm{})
	require.ErrorIs(t, err, ErrRegistrationFailed)
	require.Equal(t, PhaseNotRegistered, st.Phase)
	require.Equal(t, msgTryAgain, st.Message)
	require.True(t, st.CanSubmit)
	f.svc.Wait()
	require.Empty(t, f.email.Sent())
}

func TestWorkflowPublishesEveryTransition(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	wf := f.svc.NewWorkflow(&event, testIdentity("u1"))

	var phases []RegistrationPhase
	unsubscribe := wf.Subscribe(func(st RegistrationState) { phases = append(phases, st.Phase) })

	_, err := wf.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, []RegistrationPhase{PhaseChecking, PhaseNotRegistered, PhaseSubmitting, PhaseRegistered}, phases)

	unsubscribe()
	_, err = wf.Init(context.Background())
	require.NoError(t, err)
	require.Len(t, phases, 4)
}

func TestWorkflowSetIdentity(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	f.store.AddEvent(event)
	f.store.AddRegistration(models.Registration{UserID: "u1", EventID: 1, Status: models.RegistrationCheckedIn})

	wf := f.svc.NewWorkflow(&event, nil)
	st, err := wf.Init(context.Background())
	require.NoError(t, err)
	require.Equal(t, LabelSignIn, st.Label)

	st, err = wf.SetIdentity(context.Background(), testIdentity("u1"))
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, LabelCheckedIn, st.Label)
	require.Equal(t, "purple", st.BadgeColor)

	st, err = wf.SetIdentity(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, PhaseNotRegistered, st.Phase)
	require.Equal(t, LabelSignIn, st.Label)
}

func TestWorkflowCanSubmitFollowsEligibility(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(e *models.Event)
		identity *models.Identity
		want     bool
	}{
		{"open", func(*models.Event) {}, testIdentity("u1"), true},
		{"guest", func(*models.Event) {}, nil, false},
		{"inactive", func(e *models.Event) { e.IsActive = false }, testIdentity("u1"), false},
		{"deadline passed", func(e *models.Event) { e.RegistrationDeadline = testNow.Add(-time.Minute) }, testIdentity("u1"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRegistrationFixture(t, RegistrationConfig{})
			event := individualEvent(1)
			tt.mutate(&event)
			f.store.AddEvent(event)

			st, err := f.svc.NewWorkflow(&event, tt.identity).Init(context.Background())
			require.NoError(t, err)
			require.Equal(t, PhaseNotRegistered, st.Phase)
			require.Equal(t, tt.want, st.CanSubmit)
		})
	}
}

func TestWorkflowLastSeatDoubleSubmitReportsAlreadyRegistered(t *testing.T) {
	f := newRegistrationFixture(t, RegistrationConfig{})
	event := individualEvent(1)
	limit := 1
	event.MaxParticipants = &limit
	f.store.AddEvent(event)

	// две вкладки одного пользователя открыли форму, пока место было свободно
	first := f.svc.NewWorkflow(&event, testIdentity("u1"))
	second := f.svc.NewWorkflow(&event, testIdentity("u1"))
	for _, wf := range []*RegistrationWorkflow{first, second} {
		st, err := wf.Init(context.Background())
		require.NoError(t, err)
		require.Equal(t, PhaseNotRegistered, st.Phase)
		require.True(t, st.CanSubmit)
	}

	st, err := first.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, msgRegistered, st.Message)

	st, err = second.Submit(context.Background(), RegistrationForm{})
	require.NoError(t, err)
	require.Equal(t, PhaseRegistered, st.Phase)
	require.Equal(t, msgAlreadyRegistered, st.Message)
	require.Len(t, f.store.Registrations(), 1)
}
