package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/event-portal/models"
)

var (
	ErrTeamNotFound      = errors.New("team not found")
	ErrTeamLeaderInvalid = errors.New("team leader conflict or invalid")
	ErrTeamEventInvalid  = errors.New("team event conflict or invalid")
	ErrTeamMemberInvalid = errors.New("team member references an invalid team or user")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
}

type TeamMemberRepository interface {
	Create(ctx context.Context, member *models.TeamMember) error
	ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error)
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, leader_id, event_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, team.Name, team.LeaderID, team.EventID).
		Scan(&team.ID, &team.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && string(pqErr.Code) == pqForeignKeyViolation {
			switch pqErr.Constraint {
			case "teams_leader_id_fkey":
				return ErrTeamLeaderInvalid
			case "teams_event_id_fkey":
				return ErrTeamEventInvalid
			}
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, leader_id, event_id, created_at FROM teams WHERE id = $1`

	var t models.Team
	err := r.db.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Name, &t.LeaderID, &t.EventID, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &t, nil
}

type postgresTeamMemberRepository struct {
	db *sql.DB
}

func NewPostgresTeamMemberRepository(db *sql.DB) TeamMemberRepository {
	return &postgresTeamMemberRepository{db: db}
}

func (r *postgresTeamMemberRepository) Create(ctx context.Context, m *models.TeamMember) error {
	query := `
		INSERT INTO team_members (team_id, user_id, member_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, m.TeamID, m.UserID, m.MemberName, m.Role).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if pqErr, ok := asPQError(err); ok && string(pqErr.Code) == pqForeignKeyViolation {
			return ErrTeamMemberInvalid
		}
		return fmt.Errorf("failed to create team member: %w", err)
	}
	return nil
}

func (r *postgresTeamMemberRepository) ListByTeam(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT id, team_id, user_id, member_name, role, created_at
		FROM team_members
		WHERE team_id = $1
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0)
	for rows.Next() {
		var m models.TeamMember
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &m.MemberName, &m.Role, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", err)
		}
		members = append(members, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating team member rows: %w", err)
	}
	return members, nil
}
