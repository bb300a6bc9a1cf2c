package models

// UserRole - роль из claims провайдера идентификации.
type UserRole string

const (
	RoleAttendee  UserRole = "attendee"
	RoleOrganizer UserRole = "organizer"
)

// Identity - проверенная личность пользователя, выданная внешним провайдером.
type Identity struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Role     UserRole `json:"role,omitempty"`
}

func (i *Identity) IsOrganizer() bool {
	return i != nil && i.Role == RoleOrganizer
}
