package models

import "time"

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	LeaderID  string    `json:"leader_id" db:"leader_id"`
	EventID   int       `json:"event_id" db:"event_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

type TeamMemberRole string

const (
	TeamRoleLeader TeamMemberRole = "leader"
	TeamRoleMember TeamMemberRole = "member"
)

// TeamMember - участник команды. UserID пуст, пока участник известен только по имени.
type TeamMember struct {
	ID         int            `json:"id" db:"id"`
	TeamID     int            `json:"team_id" db:"team_id"`
	UserID     *string        `json:"user_id,omitempty" db:"user_id"`
	MemberName string         `json:"member_name" db:"member_name"`
	Role       TeamMemberRole `json:"role" db:"role"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}
