package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
)

const (
	activeEventsCacheKey = "events:active"
	activeEventsTTL      = 30 * time.Second

	requirementPrefix = "Requirement:"
	prizePrefix       = "Prize:"
)

// EventTab - вкладка каталога.
type EventTab string

const (
	EventTabAll     EventTab = "all"
	EventTabOnline  EventTab = "online"
	EventTabOffline EventTab = "offline"
)

var tabKeywords = map[EventTab][]string{
	EventTabOnline:  {"online", "drive"},
	EventTabOffline: {"offline", "site"},
}

// ParseEventTab разбирает вкладку из строки запроса, пустая строка означает все события.
func ParseEventTab(s string) (EventTab, error) {
	switch EventTab(strings.ToLower(strings.TrimSpace(s))) {
	case "", EventTabAll:
		return EventTabAll, nil
	case EventTabOnline:
		return EventTabOnline, nil
	case EventTabOffline:
		return EventTabOffline, nil
	}
	return "", fmt.Errorf("%w: unknown tab %q", ErrValidationFailed, s)
}

// Countdown - время до начала события.
type Countdown struct {
	Days    int  `json:"days"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
	Seconds int  `json:"seconds"`
	Started bool `json:"started"`
}

// EventDetail - событие с разобранными правилами.
type EventDetail struct {
	models.Event
	Requirements []string  `json:"requirements"`
	Prizes       []string  `json:"prizes"`
	Countdown    Countdown `json:"countdown"`
}

// EventCatalogue - результат поиска с количеством событий по вкладкам.
type EventCatalogue struct {
	Events       []models.Event `json:"events"`
	OnlineCount  int            `json:"online_count"`
	OfflineCount int            `json:"offline_count"`
}

type EventService struct {
	repo  repositories.EventRepository
	cache *cache.Cache
	now   func() time.Time
}

func NewEventService(repo repositories.EventRepository) *EventService {
	return &EventService{
		repo:  repo,
		cache: cache.New(activeEventsTTL, 2*activeEventsTTL),
		now:   time.Now,
	}
}

// ListActive возвращает активные события по дате. Список кешируется на короткое время.
func (s *EventService) ListActive(ctx context.Context) ([]models.Event, error) {
	if cached, ok := s.cache.Get(activeEventsCacheKey); ok {
		return cached.([]models.Event), nil
	}
	events, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active events: %w", err)
	}
	s.cache.SetDefault(activeEventsCacheKey, events)
	return events, nil
}

// Search фильтрует активные события по подстроке в названии или типе и по вкладке.
func (s *EventService) Search(ctx context.Context, query string, tab EventTab) (*EventCatalogue, error) {
	events, err := s.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(strings.TrimSpace(query))

	out := &EventCatalogue{Events: make([]models.Event, 0, len(events))}
	for _, e := range events {
		if matchesTab(e, EventTabOnline) {
			out.OnlineCount++
		}
		if matchesTab(e, EventTabOffline) {
			out.OfflineCount++
		}
		if q != "" && !strings.Contains(strings.ToLower(e.Name), q) && !strings.Contains(strings.ToLower(e.EventType), q) {
			continue
		}
		if !matchesTab(e, tab) {
			continue
		}
		out.Events = append(out.Events, e)
	}
	return out, nil
}

func matchesTab(e models.Event, tab EventTab) bool {
	keywords, ok := tabKeywords[tab]
	if !ok {
		return true
	}
	t := strings.ToLower(e.EventType)
	for _, k := range keywords {
		if strings.Contains(t, k) {
			return true
		}
	}
	return false
}

// Get возвращает событие (в том числе неактивное) по идентификатору.
func (s *EventService) Get(ctx context.Context, id int) (*models.Event, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrEventNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (s *EventService) Detail(ctx context.Context, id int) (*EventDetail, error) {
	e, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	rules := ""
	if e.Rules != nil {
		rules = *e.Rules
	}
	return &EventDetail{
		Event:        *e,
		Requirements: rulesWithPrefix(rules, requirementPrefix),
		Prizes:       rulesWithPrefix(rules, prizePrefix),
		Countdown:    CountdownTo(e.EventDate, s.now()),
	}, nil
}

func rulesWithPrefix(rules, prefix string) []string {
	out := []string{}
	for _, line := range strings.Split(rules, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, prefix) {
			continue
		}
		out = append(out, strings.TrimSpace(strings.TrimPrefix(line, prefix)))
	}
	return out
}

// CountdownTo считает оставшееся время до target. Прошедшая дата дает нули и Started.
func CountdownTo(target, now time.Time) Countdown {
	d := target.Sub(now)
	if d <= 0 {
		return Countdown{Started: true}
	}
	return Countdown{
		Days:    int(d / (24 * time.Hour)),
		Hours:   int(d % (24 * time.Hour) / time.Hour),
		Minutes: int(d % time.Hour / time.Minute),
		Seconds: int(d % time.Minute / time.Second),
	}
}
