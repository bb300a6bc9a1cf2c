package models

import (
	"strings"
	"time"
)

// Profile - локальный профиль пользователя. ID совпадает с subject у провайдера идентификации.
type Profile struct {
	ID             string     `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	FullName       string     `json:"full_name" db:"full_name"`
	Institution    string     `json:"institution" db:"institution"`
	Phone          string     `json:"phone" db:"phone"`
	ProfilePicture *string    `json:"profile_picture,omitempty" db:"profile_picture"`
	Gender         *string    `json:"gender,omitempty" db:"gender"`
	DateOfBirth    *string    `json:"date_of_birth,omitempty" db:"date_of_birth"`
	TShirtSize     *string    `json:"t_shirt_size,omitempty" db:"t_shirt_size"`
	Bio            *string    `json:"bio,omitempty" db:"bio"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// ProfileFields - редактируемые поля профиля. nil означает "поле не передано".
type ProfileFields struct {
	FullName    *string `json:"full_name,omitempty"`
	Institution *string `json:"institution,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Gender      *string `json:"gender,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
	TShirtSize  *string `json:"t_shirt_size,omitempty"`
	Bio         *string `json:"bio,omitempty"`
}

// Apply переносит переданные поля в профиль, не трогая остальные.
// Пустая строка в необязательном поле очищает его.
func (f ProfileFields) Apply(p *Profile) {
	if f.FullName != nil {
		p.FullName = *f.FullName
	}
	if f.Institution != nil {
		p.Institution = *f.Institution
	}
	if f.Phone != nil {
		p.Phone = *f.Phone
	}
	applyOptional(&p.Gender, f.Gender)
	applyOptional(&p.DateOfBirth, f.DateOfBirth)
	applyOptional(&p.TShirtSize, f.TShirtSize)
	applyOptional(&p.Bio, f.Bio)
}

// applyOptional: пустая строка очищает необязательное поле.
func applyOptional(dst **string, v *string) {
	switch {
	case v == nil:
	case strings.TrimSpace(*v) == "":
		*dst = nil
	default:
		s := *v
		*dst = &s
	}
}
