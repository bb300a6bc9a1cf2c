package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories/memstore"
	"github.com/Dosada05/event-portal/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type sentEmail struct {
	kind EmailKind
	to   string
	data interface{}
}

type fakeEmail struct {
	mu   sync.Mutex
	sent []sentEmail
	err  error
}

func (f *fakeEmail) SendEmail(_ context.Context, kind EmailKind, to string, data interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{kind: kind, to: to, data: data})
	return nil
}

func (f *fakeEmail) Sent() []sentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentEmail(nil), f.sent...)
}

type broadcast struct {
	room    string
	message interface{}
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []broadcast
}

func (f *fakeBroadcaster) BroadcastToRoom(room string, message interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, broadcast{room: room, message: message})
}

func (f *fakeBroadcaster) Messages() []broadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]broadcast(nil), f.msgs...)
}

type fakeUploader struct {
	mu        sync.Mutex
	objects   map[string][]byte
	uploadErr error
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string][]byte)}
}

func (f *fakeUploader) Upload(_ context.Context, key, _ string, r io.Reader) (*storage.UploadResult, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = buf.Bytes()
	return &storage.UploadResult{Key: key, Location: f.GetPublicURL(key)}, nil
}

func (f *fakeUploader) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return errors.New("no such object")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.test/" + key
}

func (f *fakeUploader) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		keys = append(keys, k)
	}
	return keys
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func individualEvent(id int) models.Event {
	return models.Event{
		ID:                   id,
		Name:                 "Keynote Day",
		EventType:            "offline",
		EventDate:            testNow.Add(10 * 24 * time.Hour),
		RegistrationDeadline: testNow.Add(5 * 24 * time.Hour),
		IsActive:             true,
		TeamSizeMin:          1,
		TeamSizeMax:          1,
	}
}

func teamEvent(id, min, max int) models.Event {
	e := individualEvent(id)
	e.Name = "Hackathon"
	e.IsTeamBased = true
	e.TeamSizeMin = min
	e.TeamSizeMax = max
	return e
}

func testIdentity(id string) *models.Identity {
	return &models.Identity{ID: id, FullName: "User " + id, Email: id + "@example.com"}
}

type registrationFixture struct {
	store  *memstore.Store
	email  *fakeEmail
	bcast  *fakeBroadcaster
	notify *NotificationService
	svc    *RegistrationService
}

func newRegistrationFixture(t *testing.T, cfg RegistrationConfig) *registrationFixture {
	t.Helper()
	store := memstore.New()
	email := &fakeEmail{}
	bcast := &fakeBroadcaster{}
	notify := NewNotificationService(store.NotificationRepository(), bcast)
	svc := NewRegistrationService(
		store.ProfileRepository(),
		store.TeamRepository(),
		store.TeamMemberRepository(),
		store.RegistrationRepository(),
		email,
		notify,
		cfg,
		discardLogger(),
	)
	svc.now = func() time.Time { return testNow }
	return &registrationFixture{store: store, email: email, bcast: bcast, notify: notify, svc: svc}
}
