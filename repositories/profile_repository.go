package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/event-portal/models"
)

var (
	ErrProfileNotFound = errors.New("profile not found")
	ErrProfileConflict = errors.New("profile already exists")
)

type ProfileRepository interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
	// Upsert вставляет профиль или дополняет существующий: поля, равные nil, не перезаписываются.
	Upsert(ctx context.Context, identity models.Identity, fields models.ProfileFields) (*models.Profile, error)
	Update(ctx context.Context, id string, fields models.ProfileFields) error
	SetProfilePicture(ctx context.Context, id string, url string) error
}

type postgresProfileRepository struct {
	db *sql.DB
}

func NewPostgresProfileRepository(db *sql.DB) ProfileRepository {
	return &postgresProfileRepository{db: db}
}

const profileColumns = `
	id, email, full_name, institution, phone, profile_picture, gender, date_of_birth,
	t_shirt_size, bio, created_at, updated_at`

func scanProfile(row rowScanner, p *models.Profile) error {
	return row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.Institution, &p.Phone, &p.ProfilePicture, &p.Gender,
		&p.DateOfBirth, &p.TShirtSize, &p.Bio, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (r *postgresProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM users WHERE id = $1`

	var p models.Profile
	if err := scanProfile(r.db.QueryRowContext(ctx, query, id), &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

func (r *postgresProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	query := `
		INSERT INTO users (id, email, full_name, institution, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + profileColumns

	err := scanProfile(r.db.QueryRowContext(ctx, query, p.ID, p.Email, p.FullName, p.Institution, p.Phone), p)
	if err != nil {
		if IsUniqueViolation(err, "users_pkey") {
			return ErrProfileConflict
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *postgresProfileRepository) Upsert(ctx context.Context, identity models.Identity, f models.ProfileFields) (*models.Profile, error) {
	query := `
		INSERT INTO users (id, email, full_name, institution, phone, gender, date_of_birth, t_shirt_size, bio)
		VALUES ($1, $2, COALESCE($3, ''), COALESCE($4, ''), COALESCE($5, ''),
			CASE WHEN BTRIM($6) = '' THEN NULL ELSE $6 END, CASE WHEN BTRIM($7) = '' THEN NULL ELSE $7 END,
			CASE WHEN BTRIM($8) = '' THEN NULL ELSE $8 END, CASE WHEN BTRIM($9) = '' THEN NULL ELSE $9 END)
		ON CONFLICT (id) DO UPDATE SET
			email         = CASE WHEN users.email = '' THEN EXCLUDED.email ELSE users.email END,
			full_name     = COALESCE($3, users.full_name),
			institution   = COALESCE($4, users.institution),
			phone         = COALESCE($5, users.phone),
			gender        = CASE WHEN $6::text IS NULL THEN users.gender WHEN BTRIM($6) = '' THEN NULL ELSE $6 END,
			date_of_birth = CASE WHEN $7::text IS NULL THEN users.date_of_birth WHEN BTRIM($7) = '' THEN NULL ELSE $7 END,
			t_shirt_size  = CASE WHEN $8::text IS NULL THEN users.t_shirt_size WHEN BTRIM($8) = '' THEN NULL ELSE $8 END,
			bio           = CASE WHEN $9::text IS NULL THEN users.bio WHEN BTRIM($9) = '' THEN NULL ELSE $9 END,
			updated_at    = NOW()
		RETURNING ` + profileColumns

	fullName := f.FullName
	if fullName == nil && identity.FullName != "" {
		fullName = &identity.FullName
	}

	var p models.Profile
	err := scanProfile(r.db.QueryRowContext(ctx, query,
		identity.ID,
		identity.Email,
		fullName,
		f.Institution,
		f.Phone,
		f.Gender,
		f.DateOfBirth,
		f.TShirtSize,
		f.Bio,
	), &p)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert profile: %w", err)
	}
	return &p, nil
}

// Update применяет переданные поля. Пустая строка в необязательном поле очищает его (NULL),
// nil оставляет сохраненное значение.
func (r *postgresProfileRepository) Update(ctx context.Context, id string, f models.ProfileFields) error {
	query := `
		UPDATE users SET
			full_name     = COALESCE($2, full_name),
			institution   = COALESCE($3, institution),
			phone         = COALESCE($4, phone),
			gender        = CASE WHEN $5::text IS NULL THEN gender WHEN BTRIM($5) = '' THEN NULL ELSE $5 END,
			date_of_birth = CASE WHEN $6::text IS NULL THEN date_of_birth WHEN BTRIM($6) = '' THEN NULL ELSE $6 END,
			t_shirt_size  = CASE WHEN $7::text IS NULL THEN t_shirt_size WHEN BTRIM($7) = '' THEN NULL ELSE $7 END,
			bio           = CASE WHEN $8::text IS NULL THEN bio WHEN BTRIM($8) = '' THEN NULL ELSE $8 END,
			updated_at    = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query,
		id, f.FullName, f.Institution, f.Phone, f.Gender, f.DateOfBirth, f.TShirtSize, f.Bio,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}

func (r *postgresProfileRepository) SetProfilePicture(ctx context.Context, id string, url string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile_picture = $2, updated_at = NOW() WHERE id = $1`, id, url)
	if err != nil {
		return fmt.Errorf("failed to set profile picture: %w", err)
	}
	return checkAffectedRows(result, ErrProfileNotFound)
}
