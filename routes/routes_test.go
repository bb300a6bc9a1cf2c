package routes

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/event-portal/handlers"
	"github.com/Dosada05/event-portal/middleware"
	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/realtime"
	"github.com/Dosada05/event-portal/repositories/memstore"
	"github.com/Dosada05/event-portal/services"
)

const testSecret = "route-secret"

type testServer struct {
	store        *memstore.Store
	registration *services.RegistrationService
	router       http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memstore.New()

	hub := realtime.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Stop)

	notify := services.NewNotificationService(store.NotificationRepository(), hub)
	email := services.LogEmailSender{Logger: logger}
	events := services.NewEventService(store.EventRepository())
	registration := services.NewRegistrationService(
		store.ProfileRepository(), store.TeamRepository(), store.TeamMemberRepository(), store.RegistrationRepository(),
		email, notify, services.RegistrationConfig{PublicURL: "https://portal.test"}, logger,
	)
	t.Cleanup(registration.Wait)
	submissions := services.NewSubmissionService(store.EventRepository(), store.RegistrationRepository(), nil, email, notify, "", logger)
	profiles := services.NewProfileService(store.ProfileRepository(), store.RegistrationRepository(), nil, logger)
	tickets, err := services.NewTicketService("ticket-secret", store.RegistrationRepository(), notify, logger)
	require.NoError(t, err)

	router := chi.NewRouter()
	SetupRoutes(router, Handlers{
		Event:        handlers.NewEventHandler(events),
		Registration: handlers.NewRegistrationHandler(events, registration, submissions, notify, logger),
		Profile:      handlers.NewProfileHandler(profiles, tickets),
		Notification: handlers.NewNotificationHandler(notify),
		CheckIn:      handlers.NewCheckInHandler(tickets),
		WebSocket:    handlers.NewWebSocketHandler(hub, nil, logger),
	}, Options{
		Auth:          middleware.NewAuthenticator(testSecret, "", logger),
		SubmitLimiter: middleware.NewRateLimiter(middleware.LimiterConfig{RPS: 1, Burst: 3}),
	})
	return &testServer{store: store, registration: registration, router: router}
}

func token(t *testing.T, userID string, role models.UserRole) string {
	t.Helper()
	claims := middleware.IdentityClaims{
		Name:  "User " + userID,
		Email: userID + "@example.com",
		Role:  string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (s *testServer) do(t *testing.T, method, path, bearer string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var out map[string]json.RawMessage
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func registrationOf(t *testing.T, body map[string]json.RawMessage) services.RegistrationState {
	t.Helper()
	var st services.RegistrationState
	require.NoError(t, json.Unmarshal(body["registration"], &st))
	return st
}

func openEvent(id int) models.Event {
	return models.Event{
		ID:                   id,
		Name:                 "Go Summit",
		EventType:            "offline",
		EventDate:            time.Now().Add(10 * 24 * time.Hour),
		RegistrationDeadline: time.Now().Add(5 * 24 * time.Hour),
		IsActive:             true,
		TeamSizeMin:          1,
		TeamSizeMax:          1,
	}
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec, _ := s.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestEventCatalogue(t *testing.T) {
	s := newTestServer(t)
	s.store.AddEvent(openEvent(1))

	rec, body := s.do(t, http.MethodGet, "/events?tab=offline", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "1", string(body["offline_count"]))

	rec, _ = s.do(t, http.MethodGet, "/events?tab=hybrid", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/events/1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/events/99", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/events/abc", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t)
	s.store.AddEvent(openEvent(1))
	user := token(t, "u1", models.RoleAttendee)

	rec, body := s.do(t, http.MethodGet, "/events/1/registration", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, services.LabelSignIn, registrationOf(t, body).Label)

	rec, _ = s.do(t, http.MethodPost, "/events/1/registration", "", services.RegistrationForm{})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = s.do(t, http.MethodGet, "/events/1/registration", "not-a-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = s.do(t, http.MethodGet, "/events/1/registration", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, services.LabelRegister, registrationOf(t, body).Label)

	rec, body = s.do(t, http.MethodPost, "/events/1/registration", user, services.RegistrationForm{})
	require.Equal(t, http.StatusCreated, rec.Code)
	st := registrationOf(t, body)
	require.Equal(t, services.PhaseRegistered, st.Phase)
	require.Equal(t, models.RegistrationConfirmed, st.Status)

	rec, body = s.do(t, http.MethodPost, "/events/1/registration", user, services.RegistrationForm{})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, services.PhaseRegistered, registrationOf(t, body).Phase)
	require.Len(t, s.store.Registrations(), 1)

	s.registration.Wait()
	rec, body = s.do(t, http.MethodGet, "/me/notifications", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var notifications []models.Notification
	require.NoError(t, json.Unmarshal(body["notifications"], &notifications))
	require.Len(t, notifications, 1)

	rec, _ = s.do(t, http.MethodPost, "/me/notifications/"+notifications[0].ID+"/read", user, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRegistrationRejections(t *testing.T) {
	s := newTestServer(t)
	closed := openEvent(1)
	closed.IsActive = false
	s.store.AddEvent(closed)
	team := openEvent(2)
	team.IsTeamBased = true
	team.TeamSizeMin = 2
	team.TeamSizeMax = 3
	s.store.AddEvent(team)
	user := token(t, "u1", "")

	rec, body := s.do(t, http.MethodPost, "/events/1/registration", user, services.RegistrationForm{})
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, services.PhaseNotRegistered, registrationOf(t, body).Phase)

	rec, _ = s.do(t, http.MethodPost, "/events/2/registration", user, services.RegistrationForm{TeamName: "T"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/events/2/registration", user, map[string]string{"unknown": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, s.store.Writes())
}

func TestSubmitRateLimited(t *testing.T) {
	s := newTestServer(t)
	closed := openEvent(1)
	closed.IsActive = false
	s.store.AddEvent(closed)
	user := token(t, "u1", "")

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		rec, _ := s.do(t, http.MethodPost, "/events/1/registration", user, services.RegistrationForm{})
		codes = append(codes, rec.Code)
	}
	require.Equal(t, http.StatusForbidden, codes[0])
	require.Contains(t, codes, http.StatusTooManyRequests)
}

func TestProfileEndpoints(t *testing.T) {
	s := newTestServer(t)
	user := token(t, "u1", "")

	rec, _ := s.do(t, http.MethodGet, "/me/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body := s.do(t, http.MethodGet, "/me/profile", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p models.Profile
	require.NoError(t, json.Unmarshal(body["profile"], &p))
	require.Equal(t, "User u1", p.FullName)

	institution := "ETH"
	rec, body = s.do(t, http.MethodPut, "/me/profile", user, models.ProfileFields{Institution: &institution})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(body["profile"], &p))
	require.Equal(t, "ETH", p.Institution)

	rec, body = s.do(t, http.MethodGet, "/me", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, body, "profile")
	require.Contains(t, body, "registrations")

	rec, _ = s.do(t, http.MethodPost, "/me/profile/avatar", user, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTicketAndCheckIn(t *testing.T) {
	s := newTestServer(t)
	s.store.AddEvent(openEvent(1))
	user := token(t, "u1", models.RoleAttendee)
	staff := token(t, "staff", models.RoleOrganizer)

	rec, _ := s.do(t, http.MethodGet, "/me/registrations/1/ticket", user, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/events/1/registration", user, services.RegistrationForm{})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, body := s.do(t, http.MethodGet, "/me/registrations/1/ticket", user, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var ticket services.Ticket
	require.NoError(t, json.Unmarshal(body["ticket"], &ticket))

	rec, _ = s.do(t, http.MethodPost, "/checkin", user, map[string]string{"code": ticket.Code})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodPost, "/checkin", staff, map[string]string{"code": "bogus"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, body = s.do(t, http.MethodPost, "/checkin", staff, map[string]string{"code": ticket.Code})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "false", string(body["already_checked_in"]))

	rec, body = s.do(t, http.MethodPost, "/checkin", staff, map[string]string{"code": ticket.Code})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, "true", string(body["already_checked_in"]))
	require.Equal(t, models.RegistrationCheckedIn, s.store.Registrations()[0].Status)
}
