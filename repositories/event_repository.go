package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/event-portal/models"
)

var ErrEventNotFound = errors.New("event not found")

type EventRepository interface {
	ListActive(ctx context.Context) ([]models.Event, error)
	GetByID(ctx context.Context, id int) (*models.Event, error)
}

type postgresEventRepository struct {
	db *sql.DB
}

func NewPostgresEventRepository(db *sql.DB) EventRepository {
	return &postgresEventRepository{db: db}
}

const eventColumns = `
	id, name, description, event_type, platform, event_date, event_time, registration_deadline,
	is_team_based, team_size_min, team_size_max, rules, image_url, is_paid, price,
	max_participants, is_active, created_at, updated_at`

func scanEvent(row rowScanner, e *models.Event) error {
	return row.Scan(
		&e.ID, &e.Name, &e.Description, &e.EventType, &e.Platform, &e.EventDate, &e.EventTime,
		&e.RegistrationDeadline, &e.IsTeamBased, &e.TeamSizeMin, &e.TeamSizeMax, &e.Rules,
		&e.ImageURL, &e.IsPaid, &e.Price, &e.MaxParticipants, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
}

// ListActive возвращает активные события, ближайшие первыми.
func (r *postgresEventRepository) ListActive(ctx context.Context) ([]models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE is_active = TRUE ORDER BY event_date ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active events: %w", err)
	}
	defer rows.Close()

	events := make([]models.Event, 0)
	for rows.Next() {
		var e models.Event
		if err := scanEvent(rows, &e); err != nil {
			return nil, fmt.Errorf("failed to scan event row: %w", err)
		}
		events = append(events, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating event rows: %w", err)
	}
	return events, nil
}

func (r *postgresEventRepository) GetByID(ctx context.Context, id int) (*models.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	var e models.Event
	if err := scanEvent(r.db.QueryRowContext(ctx, query, id), &e); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &e, nil
}
