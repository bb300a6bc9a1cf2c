package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/event-portal/models"
	"github.com/Dosada05/event-portal/repositories"
	"github.com/Dosada05/event-portal/repositories/memstore"
)

type countingEvents struct {
	repositories.EventRepository
	calls int
}

func (c *countingEvents) ListActive(ctx context.Context) ([]models.Event, error) {
	c.calls++
	return c.EventRepository.ListActive(ctx)
}

func catalogueStore() *memstore.Store {
	store := memstore.New()
	add := func(id int, name, kind string, active bool) {
		e := individualEvent(id)
		e.Name = name
		e.EventType = kind
		e.IsActive = active
		e.EventDate = testNow.Add(time.Duration(id) * time.Hour)
		store.AddEvent(e)
	}
	add(1, "Go Workshop", "Online Workshop", true)
	add(2, "Robotics Expo", "On-site Expo", true)
	add(3, "Cloud Drive Day", "drive-in", true)
	add(4, "Closed Meetup", "offline", false)
	add(5, "Panel", "Offline Panel", true)
	return store
}

func TestEventSearch(t *testing.T) {
	svc := NewEventService(catalogueStore().EventRepository())

	tests := []struct {
		name  string
		query string
		tab   EventTab
		want  []int
	}{
		{"all", "", EventTabAll, []int{1, 2, 3, 5}},
		{"online tab", "", EventTabOnline, []int{1, 3}},
		{"offline tab", "", EventTabOffline, []int{2, 5}},
		{"query by name", "  ROBOT ", EventTabAll, []int{2}},
		{"query by type", "panel", EventTabAll, []int{5}},
		{"query and tab", "workshop", EventTabOffline, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Search(context.Background(), tt.query, tt.tab)
			require.NoError(t, err)
			ids := make([]int, 0, len(got.Events))
			for _, e := range got.Events {
				ids = append(ids, e.ID)
			}
			if tt.want == nil {
				require.Empty(t, ids)
			} else {
				require.Equal(t, tt.want, ids)
			}
			require.Equal(t, 2, got.OnlineCount)
			require.Equal(t, 2, got.OfflineCount)
		})
	}
}

func TestParseEventTab(t *testing.T) {
	for in, want := range map[string]EventTab{"": EventTabAll, "ALL": EventTabAll, " online ": EventTabOnline, "Offline": EventTabOffline} {
		got, err := ParseEventTab(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseEventTab("hybrid")
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestEventListActiveIsCached(t *testing.T) {
	repo := &countingEvents{EventRepository: catalogueStore().EventRepository()}
	svc := NewEventService(repo)

	for i := 0; i < 3; i++ {
		events, err := svc.ListActive(context.Background())
		require.NoError(t, err)
		require.Len(t, events, 4)
	}
	require.Equal(t, 1, repo.calls)
}

func TestEventDetail(t *testing.T) {
	store := memstore.New()
	e := individualEvent(9)
	e.IsActive = false
	rules := "Requirement: laptop\nBring snacks\n  Prize:  $500 \nRequirement:team of two"
	e.Rules = &rules
	e.EventDate = testNow.Add(26*time.Hour + 3*time.Minute + 4*time.Second)
	store.AddEvent(e)

	svc := NewEventService(store.EventRepository())
	svc.now = func() time.Time { return testNow }

	d, err := svc.Detail(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, []string{"laptop", "team of two"}, d.Requirements)
	require.Equal(t, []string{"$500"}, d.Prizes)
	require.Equal(t, Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}, d.Countdown)

	_, err = svc.Detail(context.Background(), 404)
	require.ErrorIs(t, err, ErrEventNotFound)
}

func TestCountdownToPastDate(t *testing.T) {
	require.Equal(t, Countdown{Started: true}, CountdownTo(testNow.Add(-time.Second), testNow))
	require.Equal(t, Countdown{Started: true}, CountdownTo(testNow, testNow))
}
