package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/event-portal/models"
)

var (
	ErrRegistrationNotFound      = errors.New("registration not found")
	ErrRegistrationConflict      = errors.New("registration conflict: user is already registered for this event")
	ErrRegistrationUserInvalid   = errors.New("registration user conflict or invalid")
	ErrRegistrationEventInvalid  = errors.New("registration event conflict or invalid")
	ErrRegistrationStatusInvalid = errors.New("registration status violates check constraint")
	ErrEventFull                 = errors.New("event has reached its maximum number of participants")
)

const registrationUniqueConstraint = "registrations_user_id_event_id_key"

type RegistrationRepository interface {
	// Create вставляет регистрацию. Уникальность (user_id, event_id) и вместимость события
	// проверяет база данных.
	Create(ctx context.Context, reg *models.Registration) error
	FindByID(ctx context.Context, id int) (*models.Registration, error)
	FindByUserAndEvent(ctx context.Context, userID string, eventID int) (*models.Registration, error)
	ListByUser(ctx context.Context, userID string) ([]models.Registration, error)
	UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error
	SetSubmission(ctx context.Context, id int, key string) error
}

type postgresRegistrationRepository struct {
	db *sql.DB
}

func NewPostgresRegistrationRepository(db *sql.DB) RegistrationRepository {
	return &postgresRegistrationRepository{db: db}
}

func (r *postgresRegistrationRepository) Create(ctx context.Context, reg *models.Registration) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin registration transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Блокируем строку события, чтобы параллельные регистрации не превысили вместимость.
	var maxParticipants sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT max_participants FROM events WHERE id = $1 FOR UPDATE`, reg.EventID).
		Scan(&maxParticipants)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrRegistrationEventInvalid
		}
		return fmt.Errorf("failed to lock event row: %w", err)
	}

	// Повторная регистрация того же пользователя - дубликат, а не нехватка мест.
	var registered bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM registrations WHERE user_id = $1 AND event_id = $2)`,
		reg.UserID, reg.EventID).Scan(&registered)
	if err != nil {
		return fmt.Errorf("failed to check existing registration: %w", err)
	}

	var count int
	var limit *int
	if maxParticipants.Valid {
		n := int(maxParticipants.Int64)
		limit = &n
	}
	if !registered && limit != nil {
		err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations WHERE event_id = $1`, reg.EventID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count registrations: %w", err)
		}
	}
	if err = AdmitRegistration(registered, count, limit); err != nil {
		return err
	}

	query := `
		INSERT INTO registrations (user_id, event_id, team_id, status, registration_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	err = tx.QueryRowContext(ctx, query, reg.UserID, reg.EventID, reg.TeamID, reg.Status, reg.RegistrationDate).
		Scan(&reg.ID)
	if err != nil {
		return mapRegistrationWriteError(err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}
	return nil
}

// AdmitRegistration решает, можно ли вставлять регистрацию: сначала уникальность пары
// пользователь/событие, затем вместимость. Общая для всех реализаций RegistrationRepository.
func AdmitRegistration(alreadyRegistered bool, count int, maxParticipants *int) error {
	if alreadyRegistered {
		return ErrRegistrationConflict
	}
	if maxParticipants != nil && count >= *maxParticipants {
		return ErrEventFull
	}
	return nil
}

func mapRegistrationWriteError(err error) error {
	pqErr, ok := asPQError(err)
	if !ok {
		return fmt.Errorf("failed to create registration: %w", err)
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		if pqErr.Constraint == registrationUniqueConstraint {
			return ErrRegistrationConflict
		}
	case pqForeignKeyViolation:
		switch pqErr.Constraint {
		case "registrations_user_id_fkey":
			return ErrRegistrationUserInvalid
		case "registrations_event_id_fkey":
			return ErrRegistrationEventInvalid
		}
	case pqCheckViolation:
		if pqErr.Constraint == "chk_registration_status" {
			return ErrRegistrationStatusInvalid
		}
	}
	return fmt.Errorf("failed to create registration: %w", err)
}

const registrationColumns = `id, user_id, event_id, team_id, status, registration_date, submission_key`

func scanRegistration(row rowScanner, reg *models.Registration) error {
	return row.Scan(&reg.ID, &reg.UserID, &reg.EventID, &reg.TeamID, &reg.Status, &reg.RegistrationDate, &reg.SubmissionKey)
}

func (r *postgresRegistrationRepository) findOne(ctx context.Context, query string, args ...interface{}) (*models.Registration, error) {
	reg := &models.Registration{}
	if err := scanRegistration(r.db.QueryRowContext(ctx, query, args...), reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to find registration: %w", err)
	}
	return reg, nil
}

func (r *postgresRegistrationRepository) FindByID(ctx context.Context, id int) (*models.Registration, error) {
	return r.findOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id)
}

func (r *postgresRegistrationRepository) FindByUserAndEvent(ctx context.Context, userID string, eventID int) (*models.Registration, error) {
	return r.findOne(ctx, `SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1 AND event_id = $2`, userID, eventID)
}

// ListByUser возвращает регистрации пользователя вместе с кратким описанием событий, новые первыми.
func (r *postgresRegistrationRepository) ListByUser(ctx context.Context, userID string) ([]models.Registration, error) {
	query := `
		SELECT
			r.id, r.user_id, r.event_id, r.team_id, r.status, r.registration_date, r.submission_key,
			e.id, e.name, e.event_type, e.event_date, e.platform, e.is_paid, e.price
		FROM registrations r
		JOIN events e ON e.id = r.event_id
		WHERE r.user_id = $1
		ORDER BY r.registration_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations by user: %w", err)
	}
	defer rows.Close()

	regs := make([]models.Registration, 0)
	for rows.Next() {
		var reg models.Registration
		var ev models.EventSummary
		err := rows.Scan(
			&reg.ID, &reg.UserID, &reg.EventID, &reg.TeamID, &reg.Status, &reg.RegistrationDate, &reg.SubmissionKey,
			&ev.ID, &ev.Name, &ev.EventType, &ev.EventDate, &ev.Platform, &ev.IsPaid, &ev.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Event = &ev
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating registration rows: %w", err)
	}
	return regs, nil
}

func (r *postgresRegistrationRepository) UpdateStatus(ctx context.Context, id int, status models.RegistrationStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE registrations SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && string(pqErr.Code) == pqCheckViolation {
			return ErrRegistrationStatusInvalid
		}
		return fmt.Errorf("failed to update registration status: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}

// SetSubmission сохраняет ключ загруженной работы и переводит регистрацию в submitted.
func (r *postgresRegistrationRepository) SetSubmission(ctx context.Context, id int, key string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE registrations SET submission_key = $1, status = $2 WHERE id = $3`,
		key, models.RegistrationSubmitted, id)
	if err != nil {
		return fmt.Errorf("failed to store submission: %w", err)
	}
	return checkAffectedRows(result, ErrRegistrationNotFound)
}
